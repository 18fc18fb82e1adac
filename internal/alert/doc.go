// Package alert evaluates sensor readings against configurable thresholds
// and fans out alerts when a reading breaches them.
//
// The engine is fed by the sensor ingestion path: every reading recorded
// for a device is evaluated, and each breach produces an Alert that is
// broadcast to WebSocket subscribers, published to MQTT for external
// consumers, and written to the audit trail. A reading at twice its
// threshold escalates the alert from warning to critical. Devices that
// self-report an alert status raise a status alert regardless of the
// measured values.
//
// All outputs are best effort: a missing MQTT client, hub, or audit
// recorder is skipped rather than treated as a failure.
package alert
