package resolver

import (
	"testing"

	"github.com/nerrad567/tradein-core/internal/catalog"
)

// testLibrary returns a small reference library in library order.
func testLibrary() []catalog.LibraryDevice {
	return []catalog.LibraryDevice{
		{ID: "apple-11-64", Make: "Apple", Model: "iPhone 11", Storage: "64GB", Category: "phone", Active: true},
		{ID: "apple-11-128", Make: "Apple", Model: "iPhone 11", Storage: "128GB", Category: "phone", Active: true},
		{ID: "apple-11pro-256", Make: "Apple", Model: "iPhone 11 Pro", Storage: "256GB", Category: "phone", Active: true},
		{ID: "apple-12-64", Make: "Apple", Model: "iPhone 12", Storage: "64GB", Category: "phone", Active: true},
		{ID: "apple-ipadair-64", Make: "Apple", Model: "iPad Air", Storage: "64GB", Category: "tablet", Active: true},
		{ID: "apple-mbair-256", Make: "Apple", Model: "MacBook Air", Storage: "256GB", Category: "laptop", Active: true},
		{ID: "google-pixel7-128", Make: "Google", Model: "Pixel 7", Storage: "128GB", Category: "phone", Active: true},
		{ID: "samsung-s21-128", Make: "Samsung", Model: "Galaxy S21", Storage: "128GB", Category: "phone", Active: true},
		{ID: "samsung-s21u-256", Make: "Samsung", Model: "Galaxy S21 Ultra", Storage: "256GB", Category: "phone", Active: true},
		{ID: "samsung-s21u-512", Make: "Samsung", Model: "Galaxy S21 Ultra", Storage: "512GB", Category: "phone", Active: true},
		{ID: "samsung-s8-64", Make: "Samsung", Model: "Galaxy S8", Storage: "64GB", Category: "phone", Active: false},
	}
}

// activeLibrary is testLibrary filtered the way the engine filters it.
func activeLibrary() []catalog.LibraryDevice {
	return catalog.FilterActive(testLibrary(), "")
}

// assertValid fails the test if res breaks the MatchResult field invariants.
func assertValid(t *testing.T, res MatchResult) {
	t.Helper()
	if err := res.Validate(); err != nil {
		t.Fatalf("invalid result %+v: %v", res, err)
	}
}

func assertResolved(t *testing.T, res MatchResult, id string, confidence Confidence, strategy Strategy) {
	t.Helper()
	assertValid(t, res)
	if res.DeviceID != id {
		t.Errorf("DeviceID = %q, want %q (result %+v)", res.DeviceID, id, res)
	}
	if res.Confidence != confidence {
		t.Errorf("Confidence = %s, want %s", res.Confidence, confidence)
	}
	if res.Strategy != strategy {
		t.Errorf("Strategy = %s, want %s", res.Strategy, strategy)
	}
	if res.NeedsManualSelection || res.NeedsStorageSelection {
		t.Errorf("unexpected selection flags: %+v", res)
	}
}

func assertManual(t *testing.T, res MatchResult) {
	t.Helper()
	assertValid(t, res)
	if !res.NeedsManualSelection || res.DeviceID != "" || res.Confidence != ConfidenceLow {
		t.Errorf("want manual low result, got %+v", res)
	}
}

func assertStorageOptions(t *testing.T, res MatchResult, want ...string) {
	t.Helper()
	assertValid(t, res)
	if !res.NeedsStorageSelection || res.DeviceID != "" {
		t.Fatalf("want storage selection, got %+v", res)
	}
	if res.Confidence != ConfidenceMedium {
		t.Errorf("Confidence = %s, want medium", res.Confidence)
	}
	if len(res.StorageOptions) != len(want) {
		t.Fatalf("StorageOptions = %v, want %v", res.StorageOptions, want)
	}
	for i := range want {
		if res.StorageOptions[i] != want[i] {
			t.Errorf("StorageOptions = %v, want %v", res.StorageOptions, want)
			break
		}
	}
}
