// Package personalization turns a user's generation and feedback history into
// ranking signals and maintains the rolling style profile.
package personalization

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// History windows
const (
	Lookback       = 90 * 24 * time.Hour
	GenerationCap  = 220
	FeedbackCap    = 400
	favoriteBrands = 5
	preferredCount = 3
)

// Fallback values when history cannot be read
const (
	FallbackAdaptiveIndex     = 35
	FallbackBudgetSensitivity = 50
)

// Store is the history persistence the service reads and maintains
type Store interface {
	UserGenerations(ctx context.Context, userID string, since time.Time, limit int) ([]domain.GenerationLog, error)
	FeedbackEvents(ctx context.Context, userID string, since time.Time, limit int) ([]domain.FeedbackEvent, error)
	StyleProfile(ctx context.Context, userID string) (*domain.StyleProfile, error)
	UpsertStyleProfile(ctx context.Context, profile domain.StyleProfile) error
}

// Service builds personalization signals
type Service struct {
	store Store
	now   func() time.Time
	log   zerolog.Logger
}

// NewService creates a personalization service
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		log:   log.With().Str("component", "adaptive_personalization").Logger(),
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Profile returns the stored style profile, or nil when the user has none or
// it cannot be read.
func (s *Service) Profile(ctx context.Context, userID string) *domain.StyleProfile {
	profile, err := s.store.StyleProfile(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Could not read style profile")
		return nil
	}
	return profile
}

// BuildSignals summarizes the last 90 days of a user's activity. It never
// fails; read errors produce the neutral fallback.
func (s *Service) BuildSignals(ctx context.Context, userID string) domain.PersonalizationSignals {
	profile := s.Profile(ctx, userID)
	since := s.now().Add(-Lookback)

	var (
		history  []domain.GenerationLog
		feedback []domain.FeedbackEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		history, err = s.store.UserGenerations(gctx, userID, since, GenerationCap)
		return err
	})
	g.Go(func() error {
		var err error
		feedback, err = s.store.FeedbackEvents(gctx, userID, since, FeedbackCap)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Adaptive profile fallback")
		return Fallback(profile)
	}

	return Compute(history, feedback, profile)
}

// Fallback is the neutral signal set, keeping what the profile knows
func Fallback(profile *domain.StyleProfile) domain.PersonalizationSignals {
	signals := domain.PersonalizationSignals{
		AdaptiveIndex:     FallbackAdaptiveIndex,
		FavoriteBrands:    []string{},
		PreferredStyles:   []string{},
		BrandAffinity:     map[string]float64{},
		BudgetSensitivity: FallbackBudgetSensitivity,
	}
	if profile != nil {
		signals.GenerationCount = profile.GenerationCount
		if len(profile.FavoriteBrands) > 0 {
			signals.FavoriteBrands = profile.FavoriteBrands
		}
		signals.LastStyle = profile.LastStyle
	}
	return signals
}

// Compute derives signals from raw history
func Compute(history []domain.GenerationLog, feedback []domain.FeedbackEvent, profile *domain.StyleProfile) domain.PersonalizationSignals {
	generationCount := len(history)
	if profile != nil {
		generationCount = profile.GenerationCount
	}

	styleFrequency := make(map[string]float64)
	for _, entry := range history {
		if style := strings.ToLower(entry.Style); style != "" {
			styleFrequency[style]++
		}
	}

	affinity := BrandAffinity(history)
	favorites := topKeys(affinity, favoriteBrands)
	if profile != nil && len(profile.FavoriteBrands) > 0 {
		favorites = profile.FavoriteBrands
	}

	var (
		ratings     []float64
		saves       int
		regenerates int
	)
	for _, ev := range feedback {
		switch ev.Type {
		case domain.FeedbackRating:
			if ev.Rating != nil {
				ratings = append(ratings, float64(*ev.Rating))
			}
		case domain.FeedbackSave:
			saves++
		case domain.FeedbackRegenerate:
			regenerates++
		}
	}

	avgRating := 0.0
	if len(ratings) > 0 {
		avgRating = roundTo(stat.Mean(ratings, nil), 2)
	}
	saveRate, regenerateRate := 0.0, 0.0
	if generationCount > 0 {
		saveRate = roundTo(float64(saves)/float64(generationCount), 3)
		regenerateRate = roundTo(float64(regenerates)/float64(generationCount), 3)
	}

	styleBias := StyleBias(styleFrequency)
	sensitivity := BudgetSensitivity(history)

	signals := domain.PersonalizationSignals{
		AdaptiveIndex: AdaptiveIndex(IndexInputs{
			GenerationCount:   generationCount,
			AvgRating:         avgRating,
			SaveRate:          saveRate,
			RegenerateRate:    regenerateRate,
			StyleBiasScore:    styleBias,
			BudgetSensitivity: sensitivity,
		}),
		GenerationCount:   generationCount,
		AvgRating:         avgRating,
		SaveRate:          saveRate,
		RegenerateRate:    regenerateRate,
		FavoriteBrands:    favorites,
		PreferredStyles:   topKeys(styleFrequency, preferredCount),
		BrandAffinity:     affinity,
		BudgetSensitivity: sensitivity,
		StyleBiasScore:    styleBias,
	}
	if profile != nil {
		signals.LastStyle = profile.LastStyle
	}
	return signals
}

// IndexInputs feed the adaptive index
type IndexInputs struct {
	GenerationCount   int
	AvgRating         float64
	SaveRate          float64
	RegenerateRate    float64
	StyleBiasScore    int
	BudgetSensitivity int
}

// AdaptiveIndex blends data volume, satisfaction and consistency into 0..100
func AdaptiveIndex(in IndexInputs) int {
	dataVolume := math.Min(1, float64(in.GenerationCount)/60)
	ratingNorm := 0.45
	if in.AvgRating > 0 {
		ratingNorm = in.AvgRating / 5
	}
	saveNorm := math.Min(1, in.SaveRate*1.8)
	regenPenalty := math.Min(1, in.RegenerateRate*1.6)
	styleBalance := 1 - float64(in.StyleBiasScore)/100
	budgetSignal := float64(in.BudgetSensitivity) / 100

	value := dataVolume*0.22 +
		ratingNorm*0.24 +
		saveNorm*0.18 +
		(1-regenPenalty)*0.14 +
		styleBalance*0.10 +
		budgetSignal*0.12

	return fashion.Clamp(value * 100)
}

// StyleBias is the share of the dominant style, 0 with no history
func StyleBias(frequency map[string]float64) int {
	if len(frequency) == 0 {
		return 0
	}
	total, dominant := 0.0, 0.0
	for _, count := range frequency {
		total += count
		dominant = math.Max(dominant, count)
	}
	return fashion.Clamp(dominant / total * 100)
}

// BrandAffinity counts brands across core pieces, normalized to the most used
func BrandAffinity(history []domain.GenerationLog) map[string]float64 {
	counts := make(map[string]float64)
	for _, entry := range history {
		if entry.Result == nil {
			continue
		}
		for _, piece := range entry.Result.Core() {
			if brand := strings.TrimSpace(piece.Brand); brand != "" {
				counts[brand]++
			}
		}
	}

	highest := 1.0
	for _, c := range counts {
		highest = math.Max(highest, c)
	}
	affinity := make(map[string]float64, len(counts))
	for brand, c := range counts {
		affinity[brand] = roundTo(c/highest, 3)
	}
	return affinity
}

// BudgetSensitivity measures how consistently a user spends within windows.
// Low variance of window utilization means a strict, budget-sensitive user.
func BudgetSensitivity(history []domain.GenerationLog) int {
	var utilization []float64
	for _, entry := range history {
		if entry.BudgetMin == nil || entry.BudgetMax == nil || *entry.BudgetMax <= *entry.BudgetMin {
			continue
		}
		lo, hi := float64(*entry.BudgetMin), float64(*entry.BudgetMax)
		span := math.Max(1, hi-lo)
		utilization = append(utilization, (float64(entry.TotalPrice)-lo)/span)
	}
	if len(utilization) == 0 {
		return FallbackBudgetSensitivity
	}

	_, variance := stat.PopMeanVariance(utilization, nil)
	strictness := math.Max(0, 1-variance*4)
	return fashion.Clamp(strictness * 100)
}

// topKeys orders by value descending, then key ascending
func topKeys(values map[string]float64, limit int) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if values[keys[i]] != values[keys[j]] {
			return values[keys[i]] > values[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}

func roundTo(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
