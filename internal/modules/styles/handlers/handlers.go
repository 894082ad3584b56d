// Package handlers provides HTTP handlers for the style catalog.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/aristath/outfitter/internal/modules/styles"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves the canonical style table
type Handler struct {
	resolver *styles.Resolver
	log      zerolog.Logger
}

// NewHandler creates a new styles handler
func NewHandler(resolver *styles.Resolver, log zerolog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		log:      log.With().Str("handler", "styles").Logger(),
	}
}

// RegisterRoutes registers style routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/styles", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/classify", h.HandleClassify)
	})
}

// HandleList handles GET /api/styles
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"styles": h.resolver.List(),
	})
}

// HandleClassify handles GET /api/styles/classify?q=
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	h.writeJSON(w, http.StatusOK, h.resolver.Classify(q))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
