// Package handlers serves first-party media endpoints.
package handlers

import (
	"net/http"

	"github.com/aristath/outfitter/internal/modules/media"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler serves media routes
type Handler struct {
	log zerolog.Logger
}

// NewHandler creates a media handler
func NewHandler(log zerolog.Logger) *Handler {
	return &Handler{
		log: log.With().Str("handler", "media").Logger(),
	}
}

// RegisterRoutes registers media routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/media", func(r chi.Router) {
		r.Get("/placeholder", h.HandlePlaceholder)
	})
}

// HandlePlaceholder renders the placeholder SVG for ?variant=
func (h *Handler) HandlePlaceholder(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(media.PlaceholderSVG(r.URL.Query().Get("variant")))); err != nil {
		h.log.Error().Err(err).Msg("Failed to write placeholder")
	}
}
