package device

import "errors"

// Sentinel errors for device operations.
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when registering a duplicate device ID.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidDevice is returned when a registration fails validation.
	ErrInvalidDevice = errors.New("device: invalid")

	// ErrInvalidType is returned for an unrecognised device type.
	ErrInvalidType = errors.New("device: invalid type")
)
