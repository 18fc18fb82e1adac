package alert

import "errors"

// Sentinel errors for the alert package.
var (
	// ErrNilDevice indicates Evaluate was called without a device.
	ErrNilDevice = errors.New("alert: nil device")
)
