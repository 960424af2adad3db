package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// seedNamespace scopes the stable IDs derived for seed entries without one.
var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("tradein-core/library"))

// SeedFile is the YAML layout of a library seed file.
//
//	devices:
//	  - id: apple-iphone-11-64
//	    make: Apple
//	    model: iPhone 11
//	    storage: 64GB
//	    category: phone
//	    active: true
type SeedFile struct {
	Devices []SeedDevice `yaml:"devices"`
}

// SeedDevice is one entry of a seed file. Active defaults to true.
type SeedDevice struct {
	ID       string `yaml:"id"`
	Make     string `yaml:"make"`
	Model    string `yaml:"model"`
	Storage  string `yaml:"storage"`
	Category string `yaml:"category"`
	Active   *bool  `yaml:"active"`
}

// LoadSeedFile reads and parses a library seed file.
func LoadSeedFile(path string) ([]LibraryDevice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed YAML into library devices.
// Entries without an id get a stable one derived from make, model, storage
// and category so that reseeding updates rather than duplicates them.
func ParseSeed(data []byte) ([]LibraryDevice, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	devices := make([]LibraryDevice, 0, len(file.Devices))
	for i, s := range file.Devices {
		d := LibraryDevice{
			ID:       strings.TrimSpace(s.ID),
			Make:     strings.TrimSpace(s.Make),
			Model:    strings.TrimSpace(s.Model),
			Storage:  strings.TrimSpace(s.Storage),
			Category: strings.TrimSpace(s.Category),
			Active:   s.Active == nil || *s.Active,
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i, err)
		}
		if d.ID == "" {
			d.ID = StableID(d.Make, d.Model, d.Storage, d.Category)
		}
		devices = append(devices, d)
	}
	return devices, nil
}

// StableID derives a deterministic device ID from its identifying fields.
func StableID(brand, model, storage, category string) string {
	key := strings.ToLower(strings.Join([]string{brand, model, storage, category}, "|"))
	return "dev-" + uuid.NewSHA1(seedNamespace, []byte(key)).String()[:18]
}

// Seed upserts devices into repo and returns how many were written.
func Seed(ctx context.Context, repo Repository, devices []LibraryDevice) (int, error) {
	for i := range devices {
		if err := repo.Upsert(ctx, &devices[i]); err != nil {
			return i, fmt.Errorf("seeding device %s: %w", devices[i].ID, err)
		}
	}
	return len(devices), nil
}
