package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberwell/firewatch-core/internal/audit"
	"github.com/emberwell/firewatch-core/internal/household"
)

// householdView is a household decorated with the derived display
// attributes the dashboard renders directly (badge styles, safety bar).
type householdView struct {
	household.Household
	RiskStyle      string `json:"risk_style"`
	RiskLabel      string `json:"risk_label"`
	SafetyBarStyle string `json:"safety_bar_style"`
	SafetyBarWidth string `json:"safety_bar_width"`
}

// decorateHousehold attaches the derived display attributes to a household.
func decorateHousehold(h household.Household) householdView {
	return householdView{
		Household:      h,
		RiskStyle:      household.RiskStyle(h.RiskLevel),
		RiskLabel:      household.RiskLabel(h.RiskLevel),
		SafetyBarStyle: household.SafetyBarStyle(h.SafetyScore),
		SafetyBarWidth: household.SafetyBarWidth(h.SafetyScore),
	}
}

// handleListHouseholds returns the derived dashboard view of the registry.
//
// Query parameters:
//   - search: case-insensitive substring of owner name or address
//   - status: risk level filter ("low", "medium", "high", "all")
//   - location: case-sensitive substring of address ("all" disables)
//   - sort: "name-asc", "name-desc", "risk-high", "risk-low"
func (s *Server) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	all, err := s.households.ListHouseholds(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list households")
		return
	}

	q := household.Query{
		Search:   r.URL.Query().Get("search"),
		Status:   r.URL.Query().Get("status"),
		Location: r.URL.Query().Get("location"),
		Sort:     household.SortKey(r.URL.Query().Get("sort")),
	}
	view := household.DeriveView(all, q)

	items := make([]householdView, 0, len(view))
	for _, h := range view {
		items = append(items, decorateHousehold(h))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"households": items,
		"count":      len(items),
		"revision":   s.households.Revision(),
	})
}

// handleGetHousehold returns a single household by ID.
func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h, err := s.households.GetHousehold(r.Context(), id)
	if err != nil {
		if errors.Is(err, household.ErrHouseholdNotFound) {
			writeNotFound(w, "household not found")
			return
		}
		writeInternalError(w, "failed to get household")
		return
	}

	writeJSON(w, http.StatusOK, decorateHousehold(*h))
}

// handleCreateHousehold registers a new household.
func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var h household.Household
	if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	// Per-field validation first so the client can render messages
	// beneath each input.
	if fieldErrors := householdFieldErrors(&h); len(fieldErrors) > 0 {
		writeValidationErrors(w, fieldErrors)
		return
	}

	if err := s.households.CreateHousehold(r.Context(), &h); err != nil {
		switch {
		case errors.Is(err, household.ErrHouseholdExists):
			writeConflict(w, "household already exists")
		case errors.Is(err, household.ErrInvalidHousehold),
			errors.Is(err, household.ErrInvalidRiskLevel),
			errors.Is(err, household.ErrInvalidSafetyScore):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to create household")
		}
		return
	}

	s.recordAudit(r, audit.ActionCreate, audit.EntityHousehold, h.ID, map[string]any{
		"owner_name": h.OwnerName,
		"risk_level": h.RiskLevel,
	})
	s.announceHouseholdEvent("created", &h)

	writeJSON(w, http.StatusCreated, decorateHousehold(h))
}

// handleUpdateHousehold applies a partial update to a household.
func (s *Server) handleUpdateHousehold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch household.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if fieldErrors := patchFieldErrors(patch); len(fieldErrors) > 0 {
		writeValidationErrors(w, fieldErrors)
		return
	}

	updated, err := s.households.UpdateHousehold(r.Context(), id, patch)
	if err != nil {
		switch {
		case errors.Is(err, household.ErrHouseholdNotFound):
			writeNotFound(w, "household not found")
		case errors.Is(err, household.ErrEmptyPatch),
			errors.Is(err, household.ErrInvalidHousehold),
			errors.Is(err, household.ErrInvalidRiskLevel),
			errors.Is(err, household.ErrInvalidSafetyScore):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to update household")
		}
		return
	}

	s.recordAudit(r, audit.ActionUpdate, audit.EntityHousehold, id, map[string]any{
		"owner_name": updated.OwnerName,
	})
	s.announceHouseholdEvent("updated", updated)

	writeJSON(w, http.StatusOK, decorateHousehold(*updated))
}

// handleDeleteHousehold removes a household by ID.
func (s *Server) handleDeleteHousehold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Fetch before delete so the announcement carries the owner name.
	h, err := s.households.GetHousehold(r.Context(), id)
	if err != nil {
		if errors.Is(err, household.ErrHouseholdNotFound) {
			writeNotFound(w, "household not found")
			return
		}
		writeInternalError(w, "failed to get household")
		return
	}

	if err := s.households.DeleteHousehold(r.Context(), id); err != nil {
		if errors.Is(err, household.ErrHouseholdNotFound) {
			writeNotFound(w, "household not found")
			return
		}
		writeInternalError(w, "failed to delete household")
		return
	}

	s.recordAudit(r, audit.ActionDelete, audit.EntityHousehold, id, map[string]any{
		"owner_name": h.OwnerName,
	})
	s.announceHouseholdEvent("deleted", h)

	w.WriteHeader(http.StatusNoContent)
}

// handleHouseholdStats returns registry-wide statistics.
func (s *Server) handleHouseholdStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.households.GetStats(r.Context())
	if err != nil {
		writeInternalError(w, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// householdFieldErrors runs per-field validation over a household's
// operator-entered fields and returns a field -> message map.
func householdFieldErrors(h *household.Household) map[string]string {
	fieldErrors := make(map[string]string)
	check := func(field, value string) {
		if msg := household.ValidateField(field, value); msg != "" {
			fieldErrors[field] = msg
		}
	}
	check(household.FieldOwnerName, h.OwnerName)
	check(household.FieldAddress, h.Address)
	check(household.FieldContactNumber, h.ContactNumber)
	if h.EmergencyContact != nil {
		check(household.FieldEmergencyContact, *h.EmergencyContact)
	}
	return fieldErrors
}

// patchFieldErrors validates only the fields a patch actually sets.
func patchFieldErrors(p household.Patch) map[string]string {
	fieldErrors := make(map[string]string)
	check := func(field string, value *string) {
		if value == nil {
			return
		}
		if msg := household.ValidateField(field, *value); msg != "" {
			fieldErrors[field] = msg
		}
	}
	check(household.FieldOwnerName, p.OwnerName)
	check(household.FieldAddress, p.Address)
	check(household.FieldContactNumber, p.ContactNumber)
	check(household.FieldEmergencyContact, p.EmergencyContact)
	return fieldErrors
}
