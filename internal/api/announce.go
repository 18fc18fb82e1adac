package api

import (
	"encoding/json"
	"time"

	"github.com/emberwell/firewatch-core/internal/device"
	"github.com/emberwell/firewatch-core/internal/household"
	"github.com/emberwell/firewatch-core/internal/infrastructure/mqtt"
)

// announceQoS is the QoS level for registry event announcements.
const announceQoS = 1

// announceHouseholdEvent fans a household mutation out to the live
// channels: WebSocket clients on the "households" channel, the MQTT
// household event topic, and the safety-score time series.
//
// Announcements are best-effort; a failed publish is logged and the
// HTTP response is unaffected.
func (s *Server) announceHouseholdEvent(action string, h *household.Household) {
	payload := map[string]any{
		"action":    action,
		"household": h,
	}

	if s.hub != nil {
		s.hub.Broadcast("households", payload)
	}

	if s.mqtt != nil {
		msg := map[string]any{
			"action":       action,
			"household_id": h.ID,
			"owner_name":   h.OwnerName,
			"risk_level":   h.RiskLevel,
			"safety_score": h.SafetyScore,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(msg)
		if err == nil {
			topic := mqtt.Topics{}.HouseholdEvent(h.ID)
			if pubErr := s.mqtt.Publish(topic, data, announceQoS, false); pubErr != nil {
				s.logger.Debug("household event publish failed", "household_id", h.ID, "error", pubErr)
			}
		}
	}

	if s.tsdb != nil && action != "deleted" {
		s.tsdb.WriteSafetyScore(h.ID, h.SafetyScore, string(h.RiskLevel))
	}
}

// announceDeviceRegistered fans a device registration out to WebSocket
// clients, the MQTT registration topic, and the telemetry store (initial
// reading snapshot plus status).
func (s *Server) announceDeviceRegistered(d *device.Device) {
	if s.hub != nil {
		s.hub.Broadcast("devices", map[string]any{
			"action": "registered",
			"device": d,
		})
	}

	if s.mqtt != nil {
		msg := map[string]any{
			"device_id":    d.ID,
			"household_id": d.HouseholdID,
			"type":         d.Type,
			"location":     d.Location,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(msg)
		if err == nil {
			topic := mqtt.Topics{}.DeviceRegistered(d.ID)
			if pubErr := s.mqtt.Publish(topic, data, announceQoS, false); pubErr != nil {
				s.logger.Debug("device registration publish failed", "device_id", d.ID, "error", pubErr)
			}
		}
	}

	if s.tsdb != nil {
		r := d.LastReading
		s.tsdb.WriteSensorReading(d.ID, r.Smoke, r.Temperature, r.Gas)
		s.tsdb.WriteDeviceStatus(d.ID, d.Status, d.Online)
	}
}
