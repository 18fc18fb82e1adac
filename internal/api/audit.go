package api

import (
	"net/http"
	"strconv"

	"github.com/emberwell/firewatch-core/internal/audit"
)

// handleListAudit returns the paginated activity trail.
//
// Query parameters:
//   - action: filter by action (create, update, delete, register_device)
//   - entity_type: filter by entity type (household, device)
//   - entity_id: filter by specific entity
//   - limit: page size (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeNotFound(w, "audit trail not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// recordAudit writes a best-effort audit entry for a completed mutation.
func (s *Server) recordAudit(r *http.Request, action, entityType, entityID string, details map[string]any) {
	s.audit.Record(r.Context(), action, entityType, entityID, details)
}
