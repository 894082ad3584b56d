package outfits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/monetization"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	result *domain.OutfitResult
	err    error
	req    domain.OutfitRequest
	opts   domain.GenerateOptions
	calls  int
}

func (f *fakeGenerator) GenerateOutfit(_ context.Context, req domain.OutfitRequest, opts domain.GenerateOptions) (*domain.OutfitResult, error) {
	f.calls++
	f.req = req
	f.opts = opts
	if opts.Progress != nil {
		opts.Progress("input-analyzer")
	}
	return f.result, f.err
}

type fakeStore struct {
	generations []domain.GenerationLog
	feedback    []domain.FeedbackEvent
	saved       []domain.SavedOutfit
	insertErr   error
}

func (f *fakeStore) InsertGeneration(_ context.Context, g domain.GenerationLog) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.generations = append(f.generations, g)
	return nil
}

func (f *fakeStore) GetGeneration(_ context.Context, id string) (*domain.GenerationLog, error) {
	for i := range f.generations {
		if f.generations[i].ID == id {
			return &f.generations[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListGenerations(_ context.Context, userID string, limit int) ([]domain.GenerationLog, error) {
	var out []domain.GenerationLog
	for _, g := range f.generations {
		if g.UserID == userID && len(out) < limit {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertFeedback(_ context.Context, ev domain.FeedbackEvent) error {
	f.feedback = append(f.feedback, ev)
	return nil
}

func (f *fakeStore) InsertSaved(_ context.Context, s domain.SavedOutfit) error {
	f.saved = append(f.saved, s)
	return nil
}

func (f *fakeStore) ListSaved(context.Context, string, int) ([]domain.SavedOutfit, error) {
	return f.saved, nil
}

type fakePersonalizer struct {
	profile  *domain.StyleProfile
	signals  domain.PersonalizationSignals
	recorded []string
}

func (f *fakePersonalizer) Profile(context.Context, string) *domain.StyleProfile { return f.profile }

func (f *fakePersonalizer) BuildSignals(context.Context, string) domain.PersonalizationSignals {
	return f.signals
}

func (f *fakePersonalizer) RecordGeneration(_ context.Context, userID string, _ domain.OutfitRequest, _ *domain.OutfitResult) {
	f.recorded = append(f.recorded, userID)
}

func newTestService(gen *fakeGenerator, store *fakeStore, personal *fakePersonalizer) *Service {
	svc := NewService(gen, store, personal, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestGenerate_RecordsAndPersonalizes(t *testing.T) {
	gen := &fakeGenerator{result: sampleOutfit("goth", 1850)}
	store := &fakeStore{}
	personal := &fakePersonalizer{
		profile: &domain.StyleProfile{UserID: "u1", PreferredBudgetMode: domain.BudgetModePremium},
		signals: domain.PersonalizationSignals{AdaptiveIndex: 55},
	}
	svc := newTestService(gen, store, personal)

	var steps []string
	generated, err := svc.Generate(context.Background(), Caller{UserID: "u1", Tier: monetization.TierFree},
		domain.OutfitRequest{Style: "goth", Occasion: " Date Night "}, func(step string) { steps = append(steps, step) })
	require.NoError(t, err)

	assert.NotEmpty(t, generated.ID)
	assert.Equal(t, 1850, generated.Outfit.TotalPrice)
	assert.Equal(t, []string{"input-analyzer"}, steps)

	assert.Equal(t, "premium", gen.req.BudgetMode, "profile budget mode fills an empty request")
	require.NotNil(t, gen.opts.Personalization)
	assert.Equal(t, 55, gen.opts.Personalization.AdaptiveIndex)
	require.NotNil(t, gen.opts.Monetization)
	assert.False(t, gen.opts.Monetization.LuxuryBias)

	require.Len(t, store.generations, 1)
	logged := store.generations[0]
	assert.Equal(t, generated.ID, logged.ID)
	assert.Equal(t, "date night", logged.Occasion)
	assert.Equal(t, domain.BudgetModePremium, logged.BudgetMode)
	assert.Equal(t, 81, logged.OverallScore)
	assert.Equal(t, []string{"u1"}, personal.recorded)
}

func TestGenerate_Anonymous(t *testing.T) {
	gen := &fakeGenerator{result: sampleOutfit("minimal", 400)}
	store := &fakeStore{}
	personal := &fakePersonalizer{}
	svc := newTestService(gen, store, personal)

	_, err := svc.Generate(context.Background(), Caller{}, domain.OutfitRequest{Style: "minimal"}, nil)
	require.NoError(t, err)

	assert.Nil(t, gen.opts.Personalization)
	assert.Empty(t, personal.recorded)
	require.Len(t, store.generations, 1)
	assert.Equal(t, domain.BudgetModeCheaper, store.generations[0].BudgetMode)
}

func TestGenerate_Entitlements(t *testing.T) {
	gen := &fakeGenerator{result: sampleOutfit("goth", 1850)}
	svc := newTestService(gen, &fakeStore{}, &fakePersonalizer{})

	_, err := svc.Generate(context.Background(), Caller{UserID: "u1", Tier: monetization.TierFree},
		domain.OutfitRequest{Style: "goth", LuxuryOnly: true}, nil)
	assert.ErrorIs(t, err, monetization.ErrLuxuryRequiresPremium)
	assert.Zero(t, gen.calls)

	_, err = svc.Generate(context.Background(), Caller{UserID: "u1", Tier: monetization.TierPremium},
		domain.OutfitRequest{Style: "goth", LuxuryOnly: true}, nil)
	require.NoError(t, err)
	assert.True(t, gen.opts.Monetization.LuxuryBias)
}

func TestGenerate_Failures(t *testing.T) {
	compositionErr := &domain.CompositionError{Message: "failed", Reasons: []string{"Budget constraints violated"}}
	gen := &fakeGenerator{err: compositionErr}
	store := &fakeStore{}
	svc := newTestService(gen, store, &fakePersonalizer{})

	_, err := svc.Generate(context.Background(), Caller{UserID: "u1"}, domain.OutfitRequest{Style: "goth"}, nil)
	var target *domain.CompositionError
	require.True(t, errors.As(err, &target))
	assert.Empty(t, store.generations)

	// A failed log write does not fail the generation
	gen = &fakeGenerator{result: sampleOutfit("goth", 1850)}
	svc = newTestService(gen, &fakeStore{insertErr: assert.AnError}, &fakePersonalizer{})
	generated, err := svc.Generate(context.Background(), Caller{UserID: "u1"}, domain.OutfitRequest{Style: "goth"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, generated.Outfit)
}

func TestRegenerate_RecordsEvent(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeGenerator{result: sampleOutfit("goth", 1850)}, store, &fakePersonalizer{})

	_, err := svc.Regenerate(context.Background(), Caller{UserID: "u1"}, domain.OutfitRequest{Style: "goth"}, nil)
	require.NoError(t, err)

	require.Len(t, store.feedback, 1)
	assert.Equal(t, domain.FeedbackRegenerate, store.feedback[0].Type)
	assert.Equal(t, "goth", store.feedback[0].Style)
}

func TestSave(t *testing.T) {
	store := &fakeStore{generations: []domain.GenerationLog{
		{ID: "g1", UserID: "u1", Result: sampleOutfit("goth", 1850)},
	}}
	svc := newTestService(&fakeGenerator{}, store, &fakePersonalizer{})
	ctx := context.Background()

	saved, err := svc.Save(ctx, "u1", SaveRequest{GenerationID: "g1", Name: " Friday "})
	require.NoError(t, err)
	assert.Equal(t, "Friday", saved.Name)
	assert.Equal(t, 1850, saved.Outfit.TotalPrice)
	require.Len(t, store.feedback, 1)
	assert.Equal(t, domain.FeedbackSave, store.feedback[0].Type)

	inline, err := svc.Save(ctx, "u1", SaveRequest{Outfit: sampleOutfit("minimal", 300)})
	require.NoError(t, err)
	assert.Equal(t, "minimal", inline.Outfit.Style)

	_, err = svc.Save(ctx, "u2", SaveRequest{GenerationID: "g1"})
	assert.True(t, domain.IsValidationError(err), "other users cannot save a generation")

	_, err = svc.Save(ctx, "u1", SaveRequest{})
	assert.True(t, domain.IsValidationError(err))
}

func TestFeedback_Validation(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeGenerator{}, store, &fakePersonalizer{})
	ctx := context.Background()

	tests := []struct {
		name    string
		req     FeedbackRequest
		message string
	}{
		{"rating too low", FeedbackRequest{Rating: 0}, "rating must be between 1 and 5"},
		{"rating too high", FeedbackRequest{Rating: 6}, "rating must be between 1 and 5"},
		{"long style", FeedbackRequest{Rating: 3, Style: string(make([]byte, 61))}, "style must be at most 60 characters"},
		{"long note", FeedbackRequest{Rating: 3, Note: string(make([]byte, 401))}, "note must be at most 400 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Feedback(ctx, "u1", tt.req)
			var validationErr *domain.ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.message, validationErr.Message)
		})
	}
	assert.Empty(t, store.feedback)

	require.NoError(t, svc.Feedback(ctx, "u1", FeedbackRequest{GenerationID: "g1", Rating: 5, Style: " Goth "}))
	require.Len(t, store.feedback, 1)
	assert.Equal(t, 5, *store.feedback[0].Rating)
	assert.Equal(t, "goth", store.feedback[0].Style)
}

func TestHistoryAndProfile(t *testing.T) {
	store := &fakeStore{}
	personal := &fakePersonalizer{
		profile: &domain.StyleProfile{UserID: "u1", GenerationCount: 3},
		signals: domain.PersonalizationSignals{AdaptiveIndex: 61},
	}
	svc := newTestService(&fakeGenerator{}, store, personal)

	history, err := svc.History(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)

	view := svc.StyleProfile(context.Background(), "u1")
	assert.Equal(t, 3, view.GenerationCount)
	assert.Equal(t, 61, view.Adaptive.AdaptiveIndex)
}
