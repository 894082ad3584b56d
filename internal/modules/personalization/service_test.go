package personalization

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

type fakeStore struct {
	generations []domain.GenerationLog
	feedback    []domain.FeedbackEvent
	profile     *domain.StyleProfile
	readErr     error
	upserted    []domain.StyleProfile
}

func (f *fakeStore) UserGenerations(context.Context, string, time.Time, int) ([]domain.GenerationLog, error) {
	return f.generations, f.readErr
}

func (f *fakeStore) FeedbackEvents(context.Context, string, time.Time, int) ([]domain.FeedbackEvent, error) {
	return f.feedback, f.readErr
}

func (f *fakeStore) StyleProfile(context.Context, string) (*domain.StyleProfile, error) {
	return f.profile, nil
}

func (f *fakeStore) UpsertStyleProfile(_ context.Context, p domain.StyleProfile) error {
	f.upserted = append(f.upserted, p)
	f.profile = &p
	return nil
}

func sampleHistory() []domain.GenerationLog {
	return []domain.GenerationLog{
		{
			Style: "Goth", BudgetMin: intPtr(100), BudgetMax: intPtr(500), TotalPrice: 300,
			Result: &domain.OutfitResult{
				Top:    domain.OutfitPiece{Brand: "Rick Owens"},
				Bottom: domain.OutfitPiece{Brand: "Acne Studios"},
				Shoes:  domain.OutfitPiece{Brand: "Rick Owens"},
			},
		},
		{
			Style: "goth", BudgetMin: intPtr(100), BudgetMax: intPtr(500), TotalPrice: 300,
			Result: &domain.OutfitResult{Top: domain.OutfitPiece{Brand: "Rick Owens"}},
		},
		{Style: "minimal"},
	}
}

func sampleFeedback() []domain.FeedbackEvent {
	return []domain.FeedbackEvent{
		{Type: domain.FeedbackRating, Rating: intPtr(4)},
		{Type: domain.FeedbackRating, Rating: intPtr(5)},
		{Type: domain.FeedbackSave},
		{Type: domain.FeedbackRegenerate},
	}
}

func TestCompute(t *testing.T) {
	signals := Compute(sampleHistory(), sampleFeedback(), nil)

	assert.Equal(t, 3, signals.GenerationCount)
	assert.Equal(t, []string{"goth", "minimal"}, signals.PreferredStyles)
	assert.Equal(t, 67, signals.StyleBiasScore)
	assert.Equal(t, map[string]float64{"Rick Owens": 1, "Acne Studios": 0.333}, signals.BrandAffinity)
	assert.Equal(t, []string{"Rick Owens", "Acne Studios"}, signals.FavoriteBrands)
	assert.Equal(t, 100, signals.BudgetSensitivity)
	assert.InDelta(t, 4.5, signals.AvgRating, 1e-9)
	assert.InDelta(t, 0.333, signals.SaveRate, 1e-9)
	assert.InDelta(t, 0.333, signals.RegenerateRate, 1e-9)
	assert.Equal(t, 55, signals.AdaptiveIndex)
}

func TestCompute_ProfileOverrides(t *testing.T) {
	profile := &domain.StyleProfile{GenerationCount: 40, FavoriteBrands: []string{"COS"}, LastStyle: "minimal"}
	signals := Compute(sampleHistory(), nil, profile)

	assert.Equal(t, 40, signals.GenerationCount)
	assert.Equal(t, []string{"COS"}, signals.FavoriteBrands)
	assert.Equal(t, "minimal", signals.LastStyle)
	assert.Zero(t, signals.AvgRating)
}

func TestBudgetSensitivity(t *testing.T) {
	assert.Equal(t, FallbackBudgetSensitivity, BudgetSensitivity(nil))

	spread := []domain.GenerationLog{
		{BudgetMin: intPtr(0), BudgetMax: intPtr(100), TotalPrice: 0},
		{BudgetMin: intPtr(0), BudgetMax: intPtr(100), TotalPrice: 100},
	}
	// utilization 0 and 1: population variance 0.25
	assert.Equal(t, 0, BudgetSensitivity(spread))
}

func TestAdaptiveIndex_NoHistory(t *testing.T) {
	// 0.45*0.24 + 0.14 + 0.10 + 0.5*0.12
	assert.Equal(t, 41, AdaptiveIndex(IndexInputs{BudgetSensitivity: 50}))
}

func TestBuildSignals_Fallback(t *testing.T) {
	store := &fakeStore{
		readErr: errors.New("database is locked"),
		profile: &domain.StyleProfile{GenerationCount: 7, FavoriteBrands: []string{"Arket"}, LastStyle: "vintage"},
	}
	svc := NewService(store, zerolog.Nop())

	signals := svc.BuildSignals(context.Background(), "u1")
	assert.Equal(t, FallbackAdaptiveIndex, signals.AdaptiveIndex)
	assert.Equal(t, FallbackBudgetSensitivity, signals.BudgetSensitivity)
	assert.Equal(t, 7, signals.GenerationCount)
	assert.Equal(t, []string{"Arket"}, signals.FavoriteBrands)
	assert.Equal(t, "vintage", signals.LastStyle)
}

func TestBuildSignals(t *testing.T) {
	store := &fakeStore{generations: sampleHistory(), feedback: sampleFeedback()}
	svc := NewService(store, zerolog.Nop())

	signals := svc.BuildSignals(context.Background(), "u1")
	assert.Equal(t, 55, signals.AdaptiveIndex)
}

func TestRecordGeneration(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, zerolog.Nop())
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return now })

	result := &domain.OutfitResult{
		Style:       "Goth",
		Top:         domain.OutfitPiece{Brand: "Rick Owens"},
		Bottom:      domain.OutfitPiece{Brand: "Rick Owens"},
		Shoes:       domain.OutfitPiece{Brand: "Acne Studios"},
		Outerwear:   domain.OutfitPiece{Brand: "COS"},
		Accessories: []domain.OutfitPiece{{Brand: "Rick Owens"}},
	}

	ctx := context.Background()
	svc.RecordGeneration(ctx, "u1", domain.OutfitRequest{BudgetMode: "custom", BudgetMin: intPtr(200), BudgetMax: intPtr(800)}, result)
	require.Len(t, store.upserted, 1)

	first := store.upserted[0]
	assert.Equal(t, 1, first.GenerationCount)
	assert.Equal(t, domain.BudgetModeCustom, first.PreferredBudgetMode)
	assert.Equal(t, 200, *first.AvgBudgetMin)
	assert.Equal(t, map[string]int{"goth": 1}, first.StyleStats)
	assert.Equal(t, []string{"Rick Owens", "Acne Studios", "COS"}, first.FavoriteBrands)
	assert.Equal(t, "Goth", first.LastStyle)
	require.NotNil(t, first.LastGeneratedAt)
	assert.Equal(t, now, *first.LastGeneratedAt)

	svc.RecordGeneration(ctx, "u1", domain.OutfitRequest{BudgetMode: "lavish", BudgetMin: intPtr(400)}, result)
	second := store.upserted[1]
	assert.Equal(t, 2, second.GenerationCount)
	assert.Equal(t, domain.BudgetModeCustom, second.PreferredBudgetMode)
	assert.Equal(t, 300, *second.AvgBudgetMin)
	assert.Equal(t, 800, *second.AvgBudgetMax)
	assert.Equal(t, 6, second.BrandStats["Rick Owens"])
	assert.Equal(t, 1, first.BrandStats["COS"], "previous profile is not mutated")
}

func TestRecordGeneration_Anonymous(t *testing.T) {
	store := &fakeStore{}
	NewService(store, zerolog.Nop()).RecordGeneration(context.Background(), "", domain.OutfitRequest{}, &domain.OutfitResult{})
	assert.Empty(t, store.upserted)
}
