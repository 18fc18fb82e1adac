package mqtt

import "fmt"

// Topic prefixes for the Firewatch MQTT hierarchy.
//
// Sensor topics carry inbound traffic from field devices:
// firewatch/sensor/{device_id}/{channel}. Core topics carry outbound
// registry events published after a mutation is persisted.
const (
	// TopicPrefix is the base for all Firewatch topics.
	TopicPrefix = "firewatch"

	// TopicPrefixSensor is the base for inbound sensor topics.
	TopicPrefixSensor = "firewatch/sensor"

	// TopicPrefixCore is the base for outbound registry event topics.
	TopicPrefixCore = "firewatch/core"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "firewatch/system"
)

// Topics provides builders for Firewatch MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	readingTopic := topics.SensorReading("SD-100001")
//	// Returns: "firewatch/sensor/SD-100001/reading"
type Topics struct{}

// =============================================================================
// Sensor Topics (inbound)
// =============================================================================

// SensorReading returns the topic a device publishes readings on.
//
// Example: firewatch/sensor/SD-100001/reading
func (Topics) SensorReading(deviceID string) string {
	return fmt.Sprintf("%s/%s/reading", TopicPrefixSensor, deviceID)
}

// SensorStatus returns the topic a device publishes status changes on.
//
// Example: firewatch/sensor/SD-100001/status
func (Topics) SensorStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixSensor, deviceID)
}

// =============================================================================
// Core Topics (outbound)
// =============================================================================

// HouseholdEvent returns the topic for household lifecycle events
// (created, updated, deleted).
//
// Example: firewatch/core/household/hh-1/event
func (Topics) HouseholdEvent(householdID string) string {
	return fmt.Sprintf("%s/household/%s/event", TopicPrefixCore, householdID)
}

// DeviceRegistered returns the topic for device registration events.
//
// Example: firewatch/core/device/SD-100001/registered
func (Topics) DeviceRegistered(deviceID string) string {
	return fmt.Sprintf("%s/device/%s/registered", TopicPrefixCore, deviceID)
}

// Alert returns the topic for household fire alerts.
//
// Example: firewatch/core/alert/hh-1
func (Topics) Alert(householdID string) string {
	return fmt.Sprintf("%s/alert/%s", TopicPrefixCore, householdID)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the system status topic, also used for the LWT.
//
// Example: firewatch/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// =============================================================================
// Wildcard Patterns for Subscriptions
// =============================================================================

// AllSensorReadings returns a pattern matching every device's readings.
//
// Pattern: firewatch/sensor/+/reading
func (Topics) AllSensorReadings() string {
	return fmt.Sprintf("%s/+/reading", TopicPrefixSensor)
}

// AllSensorStatus returns a pattern matching every device's status changes.
//
// Pattern: firewatch/sensor/+/status
func (Topics) AllSensorStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixSensor)
}

// AllHouseholdEvents returns a pattern matching all household events.
//
// Pattern: firewatch/core/household/+/event
func (Topics) AllHouseholdEvents() string {
	return fmt.Sprintf("%s/household/+/event", TopicPrefixCore)
}

// AllAlerts returns a pattern matching all fire alerts.
//
// Pattern: firewatch/core/alert/+
func (Topics) AllAlerts() string {
	return fmt.Sprintf("%s/alert/+", TopicPrefixCore)
}

// AllTopics returns a pattern matching all Firewatch topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: firewatch/#
func (Topics) AllTopics() string {
	return "firewatch/#"
}
