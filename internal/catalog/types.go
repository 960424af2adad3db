package catalog

import (
	"strings"
	"time"
)

// LibraryDevice is a canonical device record in the reference library.
//
// (make, model, storage) should be unique within an active category;
// duplicates make resolution ambiguous.
type LibraryDevice struct {
	ID       string `json:"id"`
	Make     string `json:"make"`
	Model    string `json:"model"`
	Storage  string `json:"storage,omitempty"`
	Category string `json:"category,omitempty"`
	Active   bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns "{make} {model}".
func (d LibraryDevice) DisplayName() string {
	return strings.TrimSpace(d.Make + " " + d.Model)
}

// Validate checks the fields required for a device to be matchable.
func (d LibraryDevice) Validate() error {
	if strings.TrimSpace(d.Make) == "" || strings.TrimSpace(d.Model) == "" {
		return ErrInvalidDevice
	}
	return nil
}

// FilterActive returns the active devices, restricted to category when it is
// non-empty. Category comparison is case-insensitive. Library order is kept.
func FilterActive(devices []LibraryDevice, category string) []LibraryDevice {
	category = strings.TrimSpace(category)
	out := make([]LibraryDevice, 0, len(devices))
	for _, d := range devices {
		if !d.Active {
			continue
		}
		if category != "" && !strings.EqualFold(d.Category, category) {
			continue
		}
		out = append(out, d)
	}
	return out
}
