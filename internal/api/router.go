package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "method not allowed")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/stats/resolutions", s.handleResolutionStats)

		r.Route("/resolve", func(r chi.Router) {
			r.Post("/library", s.handleResolveLibrary)
			r.Post("/text", s.handleResolveText)
			r.Post("/manifest", s.handleResolveManifest)
		})

		r.Route("/aliases", func(r chi.Router) {
			r.Get("/", s.handleListAliases)
			r.Post("/", s.handleSaveAlias)
		})

		r.Route("/library", func(r chi.Router) {
			r.Get("/", s.handleListLibrary)
			r.Post("/refresh", s.handleRefreshLibrary)
			r.Put("/{id}/active", s.handleSetDeviceActive)
		})
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
