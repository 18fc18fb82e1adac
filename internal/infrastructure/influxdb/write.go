package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSensorReading writes a single sensor reading to InfluxDB.
//
// This is the primary method for recording fire-safety telemetry.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the sensor (e.g., "SD-100234")
//   - smoke: Smoke density reading
//   - temperature: Temperature in degrees Celsius
//   - gas: Gas concentration reading
//
// Example:
//
//	client.WriteSensorReading("SD-100234", 0.02, 24.5, 0.0)
func (c *Client) WriteSensorReading(deviceID string, smoke, temperature, gas float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_readings",
		map[string]string{
			"device_id": deviceID,
		},
		map[string]interface{}{
			"smoke":       smoke,
			"temperature": temperature,
			"gas":         gas,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSafetyScore writes a household safety score measurement.
//
// Used for tracking how a household's fire-safety posture changes
// over time as equipment and inspections are recorded.
//
// Parameters:
//   - householdID: Household identifier
//   - score: Safety score in the range 0-100
//   - riskLevel: Assessed risk level tag ("low", "medium", "high")
func (c *Client) WriteSafetyScore(householdID string, score int, riskLevel string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"safety_scores",
		map[string]string{
			"household_id": householdID,
			"risk_level":   riskLevel,
		},
		map[string]interface{}{
			"score": score,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteDeviceStatus writes a device status change measurement.
//
// Used for tracking alert frequency and device availability.
//
// Parameters:
//   - deviceID: Device identifier
//   - status: Reported status ("normal", "warning", "alert")
//   - online: Whether the device is reachable
func (c *Client) WriteDeviceStatus(deviceID string, status string, online bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_status",
		map[string]string{
			"device_id": deviceID,
			"status":    status,
		},
		map[string]interface{}{
			"online": online,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("system_stats",
//	    map[string]string{"host": "core-01"},
//	    map[string]interface{}{"cpu_percent": 45.2, "memory_mb": 512})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., a sensor reading
// delivered late over MQTT that carries its own capture time).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
