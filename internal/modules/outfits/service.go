package outfits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/monetization"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Listing limits
const (
	HistoryLimit = 50
	SavedLimit   = 100

	maxFeedbackNote  = 400
	maxFeedbackStyle = 60
)

// Store is the history persistence the service writes and lists
type Store interface {
	InsertGeneration(ctx context.Context, g domain.GenerationLog) error
	GetGeneration(ctx context.Context, id string) (*domain.GenerationLog, error)
	ListGenerations(ctx context.Context, userID string, limit int) ([]domain.GenerationLog, error)
	InsertFeedback(ctx context.Context, ev domain.FeedbackEvent) error
	InsertSaved(ctx context.Context, s domain.SavedOutfit) error
	ListSaved(ctx context.Context, userID string, limit int) ([]domain.SavedOutfit, error)
}

// Personalizer builds per-user signals and maintains style profiles
type Personalizer interface {
	Profile(ctx context.Context, userID string) *domain.StyleProfile
	BuildSignals(ctx context.Context, userID string) domain.PersonalizationSignals
	RecordGeneration(ctx context.Context, userID string, req domain.OutfitRequest, result *domain.OutfitResult)
}

// Caller identifies who is asking
type Caller struct {
	UserID string
	Tier   monetization.Tier
}

// Generated is a finished generation and its log id
type Generated struct {
	ID     string
	Outfit *domain.OutfitResult
}

// SaveRequest bookmarks either an inline outfit or a logged generation
type SaveRequest struct {
	GenerationID string               `json:"generationId,omitempty"`
	Name         string               `json:"name,omitempty"`
	Outfit       *domain.OutfitResult `json:"outfit,omitempty"`
}

// FeedbackRequest rates an outfit
type FeedbackRequest struct {
	GenerationID string `json:"generationId,omitempty"`
	Rating       int    `json:"rating"`
	Style        string `json:"style,omitempty"`
	Note         string `json:"note,omitempty"`
}

// ProfileView is the stored profile flattened next to the live signals
type ProfileView struct {
	*domain.StyleProfile
	Adaptive domain.PersonalizationSignals `json:"adaptive"`
}

// Service is the user-facing outfit workflow
type Service struct {
	generator domain.OutfitGenerator
	store     Store
	personal  Personalizer
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates an outfits service. generator is the queue or the pipeline.
func NewService(generator domain.OutfitGenerator, store Store, personal Personalizer, log zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		store:     store,
		personal:  personal,
		now:       time.Now,
		log:       log.With().Str("component", "outfits").Logger(),
	}
}

// Generate composes an outfit for a caller and records it. Anonymous callers
// get no personalization and no profile update.
func (s *Service) Generate(ctx context.Context, caller Caller, req domain.OutfitRequest, progress domain.ProgressFunc) (*Generated, error) {
	if err := monetization.Authorize(caller.Tier, req.LuxuryOnly, req.PremiumOnly); err != nil {
		return nil, err
	}

	opts := domain.GenerateOptions{UserID: caller.UserID, Progress: progress}
	signals := monetization.Signals(caller.Tier, req.LuxuryOnly, req.PremiumOnly)
	opts.Monetization = &signals

	if caller.UserID != "" {
		var (
			profile  *domain.StyleProfile
			personal domain.PersonalizationSignals
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			profile = s.personal.Profile(gctx, caller.UserID)
			return nil
		})
		g.Go(func() error {
			personal = s.personal.BuildSignals(gctx, caller.UserID)
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		opts.Personalization = &personal
		if req.BudgetMode == "" && profile != nil && profile.PreferredBudgetMode != "" {
			req.BudgetMode = string(profile.PreferredBudgetMode)
		}
	}

	outfit, err := s.generator.GenerateOutfit(ctx, req, opts)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	entry := domain.GenerationLog{
		ID:           id,
		UserID:       caller.UserID,
		Style:        outfit.Style,
		Occasion:     strings.ToLower(strings.TrimSpace(req.Occasion)),
		BudgetMode:   budgetModeOrDefault(req.BudgetMode),
		BudgetMin:    req.BudgetMin,
		BudgetMax:    req.BudgetMax,
		TotalPrice:   outfit.TotalPrice,
		OverallScore: outfit.Scores.Overall,
		Request:      req,
		Result:       outfit,
		CreatedAt:    s.now(),
	}
	if err := s.store.InsertGeneration(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("user_id", caller.UserID).Msg("Failed to record generation")
	}

	if caller.UserID != "" {
		s.personal.RecordGeneration(ctx, caller.UserID, req, outfit)
	}

	return &Generated{ID: id, Outfit: outfit}, nil
}

// Regenerate records the regenerate action, then generates
func (s *Service) Regenerate(ctx context.Context, caller Caller, req domain.OutfitRequest, progress domain.ProgressFunc) (*Generated, error) {
	if caller.UserID != "" {
		s.recordFeedback(ctx, domain.FeedbackEvent{
			UserID: caller.UserID,
			Type:   domain.FeedbackRegenerate,
			Style:  req.Style,
		})
	}
	return s.Generate(ctx, caller, req, progress)
}

// History lists a user's recent generations
func (s *Service) History(ctx context.Context, userID string) ([]domain.GenerationLog, error) {
	logs, err := s.store.ListGenerations(ctx, userID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	if logs == nil {
		logs = []domain.GenerationLog{}
	}
	return logs, nil
}

// Save bookmarks an outfit
func (s *Service) Save(ctx context.Context, userID string, req SaveRequest) (*domain.SavedOutfit, error) {
	outfit := req.Outfit
	if outfit == nil {
		if req.GenerationID == "" {
			return nil, domain.NewValidationError("outfit", "outfit or generationId is required")
		}
		entry, err := s.store.GetGeneration(ctx, req.GenerationID)
		if err != nil {
			return nil, fmt.Errorf("failed to load generation: %w", err)
		}
		if entry == nil || entry.UserID != userID || entry.Result == nil {
			return nil, domain.NewValidationError("generationId", "generation not found")
		}
		outfit = entry.Result
	}

	saved := domain.SavedOutfit{
		ID:           uuid.NewString(),
		UserID:       userID,
		GenerationID: req.GenerationID,
		Name:         strings.TrimSpace(req.Name),
		Outfit:       *outfit,
		CreatedAt:    s.now(),
	}
	if err := s.store.InsertSaved(ctx, saved); err != nil {
		return nil, fmt.Errorf("failed to save outfit: %w", err)
	}

	s.recordFeedback(ctx, domain.FeedbackEvent{
		UserID:       userID,
		GenerationID: req.GenerationID,
		Type:         domain.FeedbackSave,
		Style:        outfit.Style,
	})
	return &saved, nil
}

// Saved lists a user's saved outfits
func (s *Service) Saved(ctx context.Context, userID string) ([]domain.SavedOutfit, error) {
	saved, err := s.store.ListSaved(ctx, userID, SavedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved outfits: %w", err)
	}
	if saved == nil {
		saved = []domain.SavedOutfit{}
	}
	return saved, nil
}

// Feedback records a rating
func (s *Service) Feedback(ctx context.Context, userID string, req FeedbackRequest) error {
	if req.Rating < 1 || req.Rating > 5 {
		return domain.NewValidationError("rating", "rating must be between 1 and 5")
	}
	if len(req.Style) > maxFeedbackStyle {
		return domain.NewValidationError("style", "style must be at most 60 characters")
	}
	if len(req.Note) > maxFeedbackNote {
		return domain.NewValidationError("note", "note must be at most 400 characters")
	}

	rating := req.Rating
	err := s.store.InsertFeedback(ctx, domain.FeedbackEvent{
		ID:           uuid.NewString(),
		UserID:       userID,
		GenerationID: req.GenerationID,
		Type:         domain.FeedbackRating,
		Rating:       &rating,
		Style:        strings.ToLower(strings.TrimSpace(req.Style)),
		Note:         strings.TrimSpace(req.Note),
		CreatedAt:    s.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil
}

// StyleProfile returns the stored profile with live signals
func (s *Service) StyleProfile(ctx context.Context, userID string) ProfileView {
	return ProfileView{
		StyleProfile: s.personal.Profile(ctx, userID),
		Adaptive:     s.personal.BuildSignals(ctx, userID),
	}
}

// recordFeedback writes a non-blocking feedback event
func (s *Service) recordFeedback(ctx context.Context, ev domain.FeedbackEvent) {
	ev.ID = uuid.NewString()
	ev.CreatedAt = s.now()
	if err := s.store.InsertFeedback(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("event_type", string(ev.Type)).Msg("Failed to record feedback event")
	}
}

func budgetModeOrDefault(mode string) domain.BudgetMode {
	switch m := domain.BudgetMode(strings.ToLower(strings.TrimSpace(mode))); m {
	case domain.BudgetModePremium, domain.BudgetModeCustom:
		return m
	default:
		return domain.BudgetModeCheaper
	}
}
