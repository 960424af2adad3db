package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const seedYAML = `
devices:
  - id: apple-iphone-11-64
    make: Apple
    model: iPhone 11
    storage: 64GB
    category: phone
  - make: Samsung
    model: Galaxy S21 Ultra
    storage: 256GB
    category: phone
  - make: Samsung
    model: Galaxy S8
    storage: 64GB
    category: phone
    active: false
`

func TestParseSeed(t *testing.T) {
	devices, err := ParseSeed([]byte(seedYAML))
	if err != nil {
		t.Fatalf("ParseSeed() error = %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("ParseSeed() returned %d devices, want 3", len(devices))
	}

	if devices[0].ID != "apple-iphone-11-64" {
		t.Errorf("explicit id = %q", devices[0].ID)
	}
	if !devices[0].Active {
		t.Error("active should default to true")
	}
	if devices[2].Active {
		t.Error("active: false not honoured")
	}

	want := StableID("Samsung", "Galaxy S21 Ultra", "256GB", "phone")
	if devices[1].ID != want {
		t.Errorf("derived id = %q, want %q", devices[1].ID, want)
	}
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing model", "devices:\n  - make: Apple\n"},
		{"malformed yaml", "devices: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSeed([]byte(tt.yaml)); err == nil {
				t.Error("ParseSeed() expected error")
			}
		})
	}

	_, err := ParseSeed([]byte("devices:\n  - make: Apple\n"))
	if !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("ParseSeed() error = %v, want ErrInvalidDevice", err)
	}
}

func TestStableID(t *testing.T) {
	a := StableID("Apple", "iPhone 11", "64GB", "phone")
	b := StableID("apple", "IPHONE 11", "64gb", "PHONE")
	c := StableID("Apple", "iPhone 11", "128GB", "phone")

	if a != b {
		t.Errorf("StableID not case-insensitive: %q vs %q", a, b)
	}
	if a == c {
		t.Error("StableID collided for different storage")
	}
}

func TestSeed_Idempotent(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "library.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatalf("writing seed file: %v", err)
	}

	for i := 0; i < 2; i++ {
		devices, err := LoadSeedFile(path)
		if err != nil {
			t.Fatalf("LoadSeedFile() error = %v", err)
		}
		n, err := Seed(ctx, repo, devices)
		if err != nil {
			t.Fatalf("Seed() error = %v", err)
		}
		if n != 3 {
			t.Errorf("Seed() = %d, want 3", n)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("library has %d devices after reseed, want 3", len(all))
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadSeedFile() expected error for missing file")
	}
}
