package personalization

import (
	"context"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
)

// RecordGeneration folds a finished generation into the user's style profile.
// Failures are logged and never surface to the caller.
func (s *Service) RecordGeneration(ctx context.Context, userID string, req domain.OutfitRequest, result *domain.OutfitResult) {
	if userID == "" || result == nil {
		return
	}

	existing, err := s.store.StyleProfile(ctx, userID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Could not update style profile")
		return
	}

	profile := NextProfile(existing, userID, req, result, s.now())
	if err := s.store.UpsertStyleProfile(ctx, profile); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("Could not update style profile")
	}
}

// NextProfile returns the profile after one more generation
func NextProfile(existing *domain.StyleProfile, userID string, req domain.OutfitRequest, result *domain.OutfitResult, now time.Time) domain.StyleProfile {
	next := domain.StyleProfile{UserID: userID}
	if existing != nil {
		next = *existing
	}

	styleStats := copyCounts(next.StyleStats)
	if style := strings.ToLower(strings.TrimSpace(result.Style)); style != "" {
		styleStats[style]++
	}

	brandStats := copyCounts(next.BrandStats)
	for _, piece := range result.Pieces() {
		if brand := strings.TrimSpace(piece.Brand); brand != "" {
			brandStats[brand]++
		}
	}

	ranked := make(map[string]float64, len(brandStats))
	for brand, count := range brandStats {
		ranked[brand] = float64(count)
	}

	next.GenerationCount++
	if mode := domain.BudgetMode(req.BudgetMode); mode == domain.BudgetModeCheaper || mode == domain.BudgetModePremium || mode == domain.BudgetModeCustom {
		next.PreferredBudgetMode = mode
	}
	next.AvgBudgetMin = rollingAverage(next.AvgBudgetMin, req.BudgetMin, next.GenerationCount)
	next.AvgBudgetMax = rollingAverage(next.AvgBudgetMax, req.BudgetMax, next.GenerationCount)
	next.LastStyle = result.Style
	next.FavoriteBrands = topKeys(ranked, favoriteBrands)
	next.StyleStats = styleStats
	next.BrandStats = brandStats
	generatedAt := now
	next.LastGeneratedAt = &generatedAt
	next.UpdatedAt = now

	return next
}

func rollingAverage(current, incoming *int, n int) *int {
	if incoming == nil {
		return current
	}
	if current == nil || n <= 1 {
		v := *incoming
		return &v
	}
	v := fashion.Round((float64(*current)*float64(n-1) + float64(*incoming)) / float64(n))
	return &v
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
