package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberwell/firewatch-core/internal/household"
	"github.com/emberwell/firewatch-core/internal/workflow"
)

// fieldValueRequest is the request body for form field updates.
type fieldValueRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// requireWorkflow writes a 404 and returns false when no workflow
// controller is wired (headless deployments).
func (s *Server) requireWorkflow(w http.ResponseWriter) bool {
	if s.workflow == nil {
		writeNotFound(w, "operator session not configured")
		return false
	}
	return true
}

// writeSnapshot responds with the controller's current state.
func (s *Server) writeSnapshot(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, s.workflow.Snapshot())
}

// writeWorkflowError maps controller errors onto HTTP responses.
// Validation failures carry the per-field error map from the snapshot.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error, fieldErrors map[string]string) {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		writeValidationErrors(w, fieldErrors)
	case errors.Is(err, workflow.ErrSubmitInFlight):
		writeConflict(w, "a submission is already in progress")
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeConflict(w, err.Error())
	case errors.Is(err, household.ErrHouseholdNotFound):
		writeNotFound(w, "household not found")
	default:
		writeInternalError(w, err.Error())
	}
}

// handleSessionSnapshot returns the current workflow state.
func (s *Server) handleSessionSnapshot(w http.ResponseWriter, _ *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	s.writeSnapshot(w)
}

// handleSessionToggleExpanded toggles the expanded dashboard row.
func (s *Server) handleSessionToggleExpanded(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	s.workflow.ToggleExpanded(chi.URLParam(r, "id"))
	s.writeSnapshot(w)
}

// handleSessionBeginEdit opens the edit modal for a household.
func (s *Server) handleSessionBeginEdit(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.BeginEdit(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionSetEditField updates one edit form field and revalidates.
func (s *Server) handleSessionSetEditField(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	var req fieldValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.workflow.SetEditField(req.Field, req.Value); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionSubmitEdit persists the edit form.
func (s *Server) handleSessionSubmitEdit(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.SubmitEdit(r.Context()); err != nil {
		s.writeWorkflowError(w, err, s.workflow.Snapshot().EditErrors)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionCancelEdit discards the edit form.
func (s *Server) handleSessionCancelEdit(w http.ResponseWriter, _ *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.CancelEdit(); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionBeginAddDevice opens the device registration modal.
func (s *Server) handleSessionBeginAddDevice(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.BeginAddDevice(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionSetDeviceField updates one device form field and revalidates.
func (s *Server) handleSessionSetDeviceField(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	var req fieldValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.workflow.SetDeviceField(req.Field, req.Value); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionSubmitDevice persists the device registration form.
func (s *Server) handleSessionSubmitDevice(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.SubmitDevice(r.Context()); err != nil {
		s.writeWorkflowError(w, err, s.workflow.Snapshot().DeviceErrors)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionCancelAddDevice discards the device registration form.
func (s *Server) handleSessionCancelAddDevice(w http.ResponseWriter, _ *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.CancelAddDevice(); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionOpenMap opens the full-screen map view for a household.
func (s *Server) handleSessionOpenMap(w http.ResponseWriter, r *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.OpenMap(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionCloseMap closes the map view.
func (s *Server) handleSessionCloseMap(w http.ResponseWriter, _ *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	if err := s.workflow.CloseMap(); err != nil {
		s.writeWorkflowError(w, err, nil)
		return
	}
	s.writeSnapshot(w)
}

// handleSessionDismissConfirmation dismisses the transient confirmation.
func (s *Server) handleSessionDismissConfirmation(w http.ResponseWriter, _ *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	s.workflow.DismissConfirmation()
	s.writeSnapshot(w)
}

// handleSessionDismissBanner dismisses the failure banner.
func (s *Server) handleSessionDismissBanner(w http.ResponseWriter, _ *http.Request) {
	if !s.requireWorkflow(w) {
		return
	}
	s.workflow.DismissBanner()
	s.writeSnapshot(w)
}
