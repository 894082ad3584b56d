// Package handlers provides HTTP and websocket handlers for outfit generation
// and the per-user outfit history.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/monetization"
	"github.com/aristath/outfitter/internal/modules/outfits"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Identity headers set by the upstream gateway
const (
	HeaderUserID       = "X-User-ID"
	HeaderTier         = "X-Subscription-Tier"
	HeaderGenerationID = "X-Generation-ID"
)

// Per-minute request limits
const (
	GenerateLimit   = 8
	RegenerateLimit = 6
	StreamLimit     = 10

	limitWindow = time.Minute
	maxBodySize = 64 << 10
)

// Service is the outfits workflow the handlers drive
type Service interface {
	Generate(ctx context.Context, caller outfits.Caller, req domain.OutfitRequest, progress domain.ProgressFunc) (*outfits.Generated, error)
	Regenerate(ctx context.Context, caller outfits.Caller, req domain.OutfitRequest, progress domain.ProgressFunc) (*outfits.Generated, error)
	History(ctx context.Context, userID string) ([]domain.GenerationLog, error)
	Save(ctx context.Context, userID string, req outfits.SaveRequest) (*domain.SavedOutfit, error)
	Saved(ctx context.Context, userID string) ([]domain.SavedOutfit, error)
	Feedback(ctx context.Context, userID string, req outfits.FeedbackRequest) error
	StyleProfile(ctx context.Context, userID string) outfits.ProfileView
}

// Handler handles outfit HTTP requests
type Handler struct {
	service         Service
	generateLimit   *Limiter
	regenerateLimit *Limiter
	streamLimit     *Limiter
	originPatterns  []string
	log             zerolog.Logger
}

// NewHandler creates a new outfits handler. originPatterns restricts websocket
// origins; "*" allows any.
func NewHandler(service Service, originPatterns []string, log zerolog.Logger) *Handler {
	return &Handler{
		service:         service,
		generateLimit:   NewLimiter(GenerateLimit, limitWindow),
		regenerateLimit: NewLimiter(RegenerateLimit, limitWindow),
		streamLimit:     NewLimiter(StreamLimit, limitWindow),
		originPatterns:  originPatterns,
		log:             log.With().Str("handler", "outfits").Logger(),
	}
}

// RegisterRoutes registers outfit routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/outfits", func(r chi.Router) {
		r.Post("/generate", h.HandleGenerate)
		r.Post("/regenerate", h.HandleRegenerate)
		r.Get("/stream", h.HandleStream)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/history", h.HandleHistory)
			r.Post("/save", h.HandleSave)
			r.Get("/saved", h.HandleSaved)
			r.Post("/feedback", h.HandleFeedback)
			r.Get("/style-profile", h.HandleStyleProfile)
		})
	})
}

// SweepLimits drops expired rate limit entries
func (h *Handler) SweepLimits() int {
	return h.generateLimit.Sweep() + h.regenerateLimit.Sweep() + h.streamLimit.Sweep()
}

// HandleGenerate handles POST /api/outfits/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	h.handleGeneration(w, r, h.generateLimit, h.service.Generate)
}

// HandleRegenerate handles POST /api/outfits/regenerate
func (h *Handler) HandleRegenerate(w http.ResponseWriter, r *http.Request) {
	h.handleGeneration(w, r, h.regenerateLimit, h.service.Regenerate)
}

type generateFunc func(ctx context.Context, caller outfits.Caller, req domain.OutfitRequest, progress domain.ProgressFunc) (*outfits.Generated, error)

func (h *Handler) handleGeneration(w http.ResponseWriter, r *http.Request, limiter *Limiter, generate generateFunc) {
	caller := callerFrom(r)
	if !limiter.Allow(limitKey(caller, r)) {
		h.writeError(w, http.StatusTooManyRequests, "too many generation requests, please wait 1 minute")
		return
	}

	var req domain.OutfitRequest
	if !h.decode(w, r, &req) {
		return
	}

	generated, err := generate(r.Context(), caller, req, nil)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set(HeaderGenerationID, generated.ID)
	h.writeJSON(w, http.StatusOK, generated.Outfit)
}

// HandleHistory handles GET /api/outfits/history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// HandleSave handles POST /api/outfits/save
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req outfits.SaveRequest
	if !h.decode(w, r, &req) {
		return
	}
	saved, err := h.service.Save(r.Context(), userID(r), req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, saved)
}

// HandleSaved handles GET /api/outfits/saved
func (h *Handler) HandleSaved(w http.ResponseWriter, r *http.Request) {
	saved, err := h.service.Saved(r.Context(), userID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"saved": saved})
}

// HandleFeedback handles POST /api/outfits/feedback
func (h *Handler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var req outfits.FeedbackRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.Feedback(r.Context(), userID(r), req); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// HandleStyleProfile handles GET /api/outfits/style-profile
func (h *Handler) HandleStyleProfile(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.service.StyleProfile(r.Context(), userID(r)))
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID(r) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing " + HeaderUserID + " header"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderUserID))
}

func callerFrom(r *http.Request) outfits.Caller {
	return outfits.Caller{
		UserID: userID(r),
		Tier:   monetization.ParseTier(r.Header.Get(HeaderTier)),
	}
}

// limitKey falls back to the client address for anonymous callers
func limitKey(caller outfits.Caller, r *http.Request) string {
	if caller.UserID != "" {
		return "user:" + caller.UserID
	}
	return "addr:" + r.RemoteAddr
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// errorBody maps a service error to a status and JSON body
func errorBody(err error) (int, map[string]interface{}) {
	var (
		validationErr  *domain.ValidationError
		compositionErr *domain.CompositionError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, map[string]interface{}{"error": validationErr.Message}
	case errors.As(err, &compositionErr):
		return http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   compositionErr.Message,
			"reasons": compositionErr.Reasons,
		}
	case errors.Is(err, monetization.ErrLuxuryRequiresPremium), errors.Is(err, monetization.ErrPremiumOnlyRequiresSub):
		return http.StatusForbidden, map[string]interface{}{"error": err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, map[string]interface{}{"error": "generation timed out"}
	default:
		return http.StatusInternalServerError, map[string]interface{}{"error": "internal error"}
	}
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status, body := errorBody(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Outfit request failed")
	}
	h.writeJSON(w, status, body)
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
