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
		r.Get("/health", s.handleHealth)

		// Barcode decoding
		r.Post("/scan/decode", s.handleScanDecode)

		// Order lookup, slip prefill, and attachment cache
		r.Route("/orders/{number}", func(r chi.Router) {
			r.Get("/", s.handleGetOrder)
			r.Post("/prefill", s.handlePrefill)
			r.Post("/attachments", s.handleAddAttachment)
			r.Get("/attachments", s.handleListAttachments)
		})

		// Submission batches
		r.Route("/batches", func(r chi.Router) {
			r.Post("/", s.handleSubmitBatch)
			r.Get("/", s.handleListBatches)
			r.Get("/{id}", s.handleGetBatch)
		})

		// WebSocket progress stream
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
