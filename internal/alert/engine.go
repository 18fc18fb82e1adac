package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/emberwell/firewatch-core/internal/audit"
	"github.com/emberwell/firewatch-core/internal/device"
	"github.com/emberwell/firewatch-core/internal/infrastructure/mqtt"
)

// Logger defines the logging interface used by the Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MQTTClient is the interface for publishing alerts to external consumers.
type MQTTClient interface {
	// Publish sends a message to the specified MQTT topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// WSHub is the interface for broadcasting alerts to WebSocket clients.
type WSHub interface {
	// Broadcast sends an event to all clients subscribed to the given channel.
	Broadcast(channel string, payload any)
}

// alertQoS is the publish QoS for alert messages. At-least-once: a
// dropped fire alert is worse than a duplicate one.
const alertQoS byte = 1

// Engine evaluates sensor readings against thresholds and fans out
// alerts over MQTT, WebSocket, and the audit trail.
//
// Thread Safety: Evaluate is safe for concurrent use.
type Engine struct {
	thresholds Thresholds
	mqtt       MQTTClient
	hub        WSHub
	audit      *audit.Recorder
	logger     Logger
}

// NewEngine creates an alert engine. mqtt, hub, and recorder may each be
// nil; the corresponding output is skipped.
func NewEngine(thresholds Thresholds, mqttClient MQTTClient, hub WSHub, recorder *audit.Recorder, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		thresholds: thresholds,
		mqtt:       mqttClient,
		hub:        hub,
		audit:      recorder,
		logger:     logger,
	}
}

// Evaluate checks a reading against the engine's thresholds and raises
// an alert for every breached metric. A device that reports an alert
// status raises a status alert even when no threshold is breached.
// Returns the alerts raised, which may be empty.
func (e *Engine) Evaluate(ctx context.Context, dev *device.Device, reading device.Reading, status string) ([]Alert, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}

	now := reading.Timestamp
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var alerts []Alert
	if a, ok := e.check(dev, "smoke", reading.Smoke, e.thresholds.Smoke, now); ok {
		alerts = append(alerts, a)
	}
	if a, ok := e.check(dev, "temperature", reading.Temperature, e.thresholds.Temperature, now); ok {
		alerts = append(alerts, a)
	}
	if a, ok := e.check(dev, "gas", reading.Gas, e.thresholds.Gas, now); ok {
		alerts = append(alerts, a)
	}

	// A self-reported alert means the device tripped its own alarm, which
	// may fire before the streamed readings cross our thresholds.
	if status == device.StatusAlert && len(alerts) == 0 {
		alerts = append(alerts, Alert{
			DeviceID:    dev.ID,
			HouseholdID: dev.HouseholdID,
			Location:    dev.Location,
			Metric:      "status",
			Severity:    SeverityCritical,
			Message:     fmt.Sprintf("device %s in %s reports alert status", dev.ID, dev.Location),
			Timestamp:   now,
		})
	}

	for i := range alerts {
		e.dispatch(ctx, alerts[i])
	}
	return alerts, nil
}

// check builds an alert when value exceeds threshold. A threshold of
// zero or below disables the metric.
func (e *Engine) check(dev *device.Device, metric string, value, threshold float64, now time.Time) (Alert, bool) {
	if threshold <= 0 || value < threshold {
		return Alert{}, false
	}
	severity := SeverityWarning
	if value >= 2*threshold {
		severity = SeverityCritical
	}
	return Alert{
		DeviceID:    dev.ID,
		HouseholdID: dev.HouseholdID,
		Location:    dev.Location,
		Metric:      metric,
		Value:       value,
		Threshold:   threshold,
		Severity:    severity,
		Message:     fmt.Sprintf("%s level %.2f exceeds threshold %.2f at %s", metric, value, threshold, dev.Location),
		Timestamp:   now,
	}, true
}

// dispatch fans one alert out to every configured output. Each output is
// best effort; a publish failure is logged and does not block the rest.
func (e *Engine) dispatch(ctx context.Context, a Alert) {
	e.logger.Warn("fire alert raised",
		"device_id", a.DeviceID,
		"household_id", a.HouseholdID,
		"metric", a.Metric,
		"severity", string(a.Severity),
	)

	if e.hub != nil {
		e.hub.Broadcast("alerts", a)
	}

	if e.mqtt != nil {
		payload, err := json.Marshal(a)
		if err == nil {
			topic := mqtt.Topics{}.Alert(a.HouseholdID)
			if err := e.mqtt.Publish(topic, payload, alertQoS, false); err != nil {
				e.logger.Debug("alert publish failed", "topic", topic, "error", err)
			}
		}
	}

	e.audit.Record(ctx, audit.ActionAlert, audit.EntityDevice, a.DeviceID, map[string]any{
		"household_id": a.HouseholdID,
		"metric":       a.Metric,
		"value":        a.Value,
		"severity":     string(a.Severity),
		"message":      a.Message,
	})
}
