package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", s.handleHealth)

		// Household endpoints
		r.Route("/households", func(r chi.Router) {
			r.Get("/", s.handleListHouseholds)
			r.Post("/", s.handleCreateHousehold)
			r.Get("/stats", s.handleHouseholdStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetHousehold)
				r.Patch("/", s.handleUpdateHousehold)
				r.Delete("/", s.handleDeleteHousehold)
				r.Get("/devices", s.handleListHouseholdDevices)
				r.Post("/devices", s.handleRegisterDevice)
			})
		})

		// Operator workflow session (single dashboard session per core)
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSessionSnapshot)
			r.Post("/expand/{id}", s.handleSessionToggleExpanded)

			r.Route("/edit", func(r chi.Router) {
				r.Post("/{id}", s.handleSessionBeginEdit)
				r.Put("/field", s.handleSessionSetEditField)
				r.Post("/submit", s.handleSessionSubmitEdit)
				r.Post("/cancel", s.handleSessionCancelEdit)
			})

			r.Route("/device", func(r chi.Router) {
				r.Post("/{id}", s.handleSessionBeginAddDevice)
				r.Put("/field", s.handleSessionSetDeviceField)
				r.Post("/submit", s.handleSessionSubmitDevice)
				r.Post("/cancel", s.handleSessionCancelAddDevice)
			})

			r.Post("/map/{id}", s.handleSessionOpenMap)
			r.Post("/map/close", s.handleSessionCloseMap)
			r.Post("/confirmation/dismiss", s.handleSessionDismissConfirmation)
			r.Post("/banner/dismiss", s.handleSessionDismissBanner)
		})

		// Audit trail
		r.Get("/audit", s.handleListAudit)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
