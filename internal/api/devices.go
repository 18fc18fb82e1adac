package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberwell/firewatch-core/internal/audit"
	"github.com/emberwell/firewatch-core/internal/device"
	"github.com/emberwell/firewatch-core/internal/household"
)

// handleListHouseholdDevices returns all devices registered to a household.
func (s *Server) handleListHouseholdDevices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// 404 for unknown households rather than an empty list.
	if _, err := s.households.GetHousehold(r.Context(), id); err != nil {
		if errors.Is(err, household.ErrHouseholdNotFound) {
			writeNotFound(w, "household not found")
			return
		}
		writeInternalError(w, "failed to get household")
		return
	}

	devices, err := s.devices.ListByHousehold(r.Context(), id)
	if err != nil {
		writeInternalError(w, "failed to list devices")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// deviceRegistrationRequest is the request body for registering a device.
type deviceRegistrationRequest struct {
	DeviceID string `json:"device_id"`
	Type     string `json:"type"`
	Location string `json:"location"`
}

// handleRegisterDevice registers a new sensor device to a household.
//
// The device starts with the default reading snapshot (smoke 0,
// temperature 25, gas 0) until its first report arrives over MQTT.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	householdID := chi.URLParam(r, "id")

	var req deviceRegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := deviceFieldErrors(req); len(fieldErrors) > 0 {
		writeValidationErrors(w, fieldErrors)
		return
	}

	reg := device.Registration{
		DeviceID:    req.DeviceID,
		HouseholdID: householdID,
		Type:        device.Type(req.Type),
		Location:    req.Location,
	}

	d, err := s.devices.Register(r.Context(), reg)
	if err != nil {
		switch {
		case errors.Is(err, household.ErrHouseholdNotFound):
			writeNotFound(w, "household not found")
		case errors.Is(err, device.ErrDeviceExists):
			writeConflict(w, "device already registered")
		case errors.Is(err, device.ErrInvalidDevice), errors.Is(err, device.ErrInvalidType):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to register device")
		}
		return
	}

	s.recordAudit(r, audit.ActionRegisterDevice, audit.EntityDevice, d.ID, map[string]any{
		"household_id": d.HouseholdID,
		"type":         d.Type,
		"location":     d.Location,
	})
	s.announceDeviceRegistered(d)

	writeJSON(w, http.StatusCreated, d)
}

// deviceFieldErrors runs per-field validation over a registration request.
func deviceFieldErrors(req deviceRegistrationRequest) map[string]string {
	fieldErrors := make(map[string]string)
	if msg := household.ValidateField(household.FieldDeviceID, req.DeviceID); msg != "" {
		fieldErrors[household.FieldDeviceID] = msg
	}
	if msg := household.ValidateField(household.FieldDeviceLocation, req.Location); msg != "" {
		fieldErrors[household.FieldDeviceLocation] = msg
	}
	if err := device.ValidateType(device.Type(req.Type)); err != nil {
		fieldErrors[household.FieldDeviceType] = household.MsgInvalidFormat
	}
	return fieldErrors
}
