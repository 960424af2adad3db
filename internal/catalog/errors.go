package catalog

import "errors"

// Domain errors for the catalog package.
//
//	if errors.Is(err, catalog.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a library device ID does not exist.
	ErrDeviceNotFound = errors.New("catalog: device not found")

	// ErrDeviceExists is returned when creating a device with an ID that already exists.
	ErrDeviceExists = errors.New("catalog: device already exists")

	// ErrInvalidDevice is returned when a device is missing make or model.
	ErrInvalidDevice = errors.New("catalog: invalid device")
)
