package device

import "time"

// Type identifies what a registered sensor detects.
type Type string

// Device types.
const (
	TypeSmokeDetector Type = "smoke_detector"
	TypeHeatSensor    Type = "heat_sensor"
	TypeGasSensor     Type = "gas_sensor"
	TypeMultiSensor   Type = "multi_sensor"
)

// AllTypes returns every valid device type.
func AllTypes() []Type {
	return []Type{TypeSmokeDetector, TypeHeatSensor, TypeGasSensor, TypeMultiSensor}
}

// Status values reported for a device.
const (
	StatusNormal  = "normal"
	StatusWarning = "warning"
	StatusAlert   = "alert"
)

// Reading is a point-in-time sensor snapshot.
type Reading struct {
	Smoke       float64   `json:"smoke"`
	Temperature float64   `json:"temperature"`
	Gas         float64   `json:"gas"`
	Timestamp   time.Time `json:"timestamp"`
}

// DefaultReading returns the baseline reading assigned to a freshly
// registered device: no smoke, no gas, room temperature.
func DefaultReading(now time.Time) Reading {
	return Reading{
		Smoke:       0,
		Temperature: 25,
		Gas:         0,
		Timestamp:   now,
	}
}

// Device is a fire-safety sensor registered to a household.
type Device struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	Type        Type      `json:"type"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Online      bool      `json:"online"`
	LastReading Reading   `json:"last_reading"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Copy returns a copy of the device.
func (d *Device) Copy() *Device {
	copy := *d
	return &copy
}

// Registration carries the fields a caller supplies when registering a
// device. Everything else is defaulted by the registry.
type Registration struct {
	DeviceID    string `json:"device_id"`
	HouseholdID string `json:"household_id"`
	Type        Type   `json:"type"`
	Location    string `json:"location"`
}
