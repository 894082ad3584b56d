// Package handlers provides read-only HTTP handlers for the branded catalog.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/catalog"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxItemsPerPage = 200

// Store is the catalog surface the handlers read from
type Store interface {
	Brands(ctx context.Context) ([]domain.Brand, error)
	Find(ctx context.Context, q catalog.Query) ([]domain.CandidateItem, error)
	GetByID(ctx context.Context, id string) (*domain.CandidateItem, error)
}

// Handler handles catalog HTTP requests
type Handler struct {
	store Store
	log   zerolog.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		store: store,
		log:   log.With().Str("handler", "catalog").Logger(),
	}
}

// RegisterRoutes registers catalog routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/brands", h.HandleBrands)
		r.Get("/items", h.HandleItems)
		r.Get("/items/{id}", h.HandleItem)
	})
}

// HandleBrands handles GET /api/catalog/brands
func (h *Handler) HandleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.store.Brands(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list brands")
		h.writeError(w, http.StatusInternalServerError, "failed to list brands")
		return
	}
	if brands == nil {
		brands = []domain.Brand{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"brands": brands})
}

// HandleItems handles GET /api/catalog/items?category=&style=&occasion=&min=&max=&tier=
func (h *Handler) HandleItems(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := catalog.Query{
		Category: domain.Category(strings.ToLower(params.Get("category"))),
		Style:    strings.ToLower(strings.TrimSpace(params.Get("style"))),
		Occasion: strings.ToLower(strings.TrimSpace(params.Get("occasion"))),
	}

	if q.Category != "" && !validCategory(q.Category) {
		h.writeError(w, http.StatusBadRequest, "unknown category")
		return
	}

	var err error
	if q.MinPrice, err = optionalInt(params.Get("min")); err != nil {
		h.writeError(w, http.StatusBadRequest, "min must be an integer")
		return
	}
	if q.MaxPrice, err = optionalInt(params.Get("max")); err != nil {
		h.writeError(w, http.StatusBadRequest, "max must be an integer")
		return
	}
	for _, raw := range params["tier"] {
		tier, err := strconv.Atoi(raw)
		if err != nil || tier < 1 || tier > 3 {
			h.writeError(w, http.StatusBadRequest, "tier must be 1, 2 or 3")
			return
		}
		q.Tiers = append(q.Tiers, tier)
	}

	items, err := h.store.Find(r.Context(), q)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query catalog")
		h.writeError(w, http.StatusInternalServerError, "failed to query catalog")
		return
	}

	total := len(items)
	if len(items) > maxItemsPerPage {
		items = items[:maxItemsPerPage]
	}
	if items == nil {
		items = []domain.CandidateItem{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
	})
}

// HandleItem handles GET /api/catalog/items/{id}
func (h *Handler) HandleItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get item")
		h.writeError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		h.writeError(w, http.StatusNotFound, "item not found")
		return
	}
	h.writeJSON(w, http.StatusOK, item)
}

func validCategory(c domain.Category) bool {
	for _, known := range domain.AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

func optionalInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
