package alert

import "time"

// Thresholds define the reading levels at which the engine raises alerts.
// A threshold of zero or below disables that metric.
type Thresholds struct {
	// Smoke is the smoke density above which an alert fires.
	Smoke float64 `yaml:"smoke"`

	// Temperature is the temperature in degrees Celsius above which an
	// alert fires. 57 matches the activation point of fixed-temperature
	// fire sprinklers.
	Temperature float64 `yaml:"temperature"`

	// Gas is the gas concentration above which an alert fires.
	Gas float64 `yaml:"gas"`
}

// DefaultThresholds returns the standard alerting thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Smoke:       0.1,
		Temperature: 57,
		Gas:         0.1,
	}
}

// Severity classifies how far past the threshold a reading is.
type Severity string

// Severity levels. A reading at twice its threshold escalates from
// warning to critical.
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert describes one threshold breach or device-reported alarm.
type Alert struct {
	DeviceID    string    `json:"device_id"`
	HouseholdID string    `json:"household_id"`
	Location    string    `json:"location"`
	Metric      string    `json:"metric"` // smoke, temperature, gas, status
	Value       float64   `json:"value"`
	Threshold   float64   `json:"threshold,omitempty"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}
