package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aristath/outfitter/internal/clients/openweather"
	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/styles"
	"github.com/aristath/outfitter/internal/modules/validation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedWeather struct{}

func (fixedWeather) Resolve(_ context.Context, lookup openweather.Lookup) domain.WeatherContext {
	return domain.WeatherContext{LocationLabel: lookup.City, TemperatureC: 18, Condition: "Clouds", Source: "fallback"}
}

type fixedTrends struct{}

func (fixedTrends) Snapshot(_ context.Context, style string) domain.TrendSnapshot {
	return domain.TrendSnapshot{Style: style, StyleTrendScore: 60, SeasonalShiftScore: 58, TrendInfluenceCoefficient: 59}
}

type fakeSelector struct {
	pools   domain.CandidateMap
	err     error
	budgets []domain.BudgetDecision
}

func (f *fakeSelector) Select(_ context.Context, pc domain.PipelineContext) (domain.CandidateMap, error) {
	f.budgets = append(f.budgets, pc.Budget)
	return f.pools, f.err
}

type fakeComposer struct {
	outfit domain.SelectedOutfit
	err    error
}

func (f *fakeComposer) Compose(domain.PipelineContext, domain.AdaptedCandidates) (domain.SelectedOutfit, error) {
	return f.outfit, f.err
}

// scriptedValidator returns verdicts in order, repeating the last one
type scriptedValidator struct {
	verdicts []validation.Result
	calls    int
}

func (v *scriptedValidator) Validate(domain.PipelineContext, domain.SelectedOutfit) validation.Result {
	i := v.calls
	if i >= len(v.verdicts) {
		i = len(v.verdicts) - 1
	}
	v.calls++
	return v.verdicts[i]
}

type echoFormatter struct {
	err error
}

func (f echoFormatter) Format(_ context.Context, pc domain.PipelineContext, o domain.SelectedOutfit) (*domain.OutfitResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.OutfitResult{
		Top:         domain.OutfitPiece{Brand: o.Top.Brand.Name, Item: o.Top.Name, Price: o.Top.Price},
		Accessories: []domain.OutfitPiece{},
		TotalPrice:  o.TotalPrice,
		Style:       pc.Input.Style,
		BudgetRange: pc.Budget.Label,
	}, nil
}

type mapCache struct {
	mu      sync.Mutex
	entries map[string]*domain.OutfitResult
}

func (c *mapCache) Get(_ context.Context, req domain.OutfitRequest, userID string) *domain.OutfitResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[userID+"/"+req.Style]
}

func (c *mapCache) Set(_ context.Context, req domain.OutfitRequest, userID string, result *domain.OutfitResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID+"/"+req.Style] = result
}

func item(id string, category domain.Category, price int, name string) domain.CandidateItem {
	return domain.CandidateItem{
		ID:        id,
		Brand:     domain.Brand{ID: "b-" + id, Name: "Uniqlo", Tier: 1},
		Name:      name,
		Category:  category,
		Price:     price,
		Tier:      1,
		StyleTags: []string{"minimal"},
	}
}

func pools() domain.CandidateMap {
	return domain.CandidateMap{
		Top:       []domain.CandidateItem{item("top-2", domain.CategoryTop, 140, "Oxford Shirt"), item("top-1", domain.CategoryTop, 100, "Cotton Tee")},
		Bottom:    []domain.CandidateItem{item("bottom-1", domain.CategoryBottom, 100, "Chino Pants")},
		Shoes:     []domain.CandidateItem{item("shoes-1", domain.CategoryShoes, 90, "Leather Sneakers")},
		Outerwear: []domain.CandidateItem{item("outer-1", domain.CategoryOuterwear, 120, "Light Jacket")},
	}
}

func composed(total int) domain.SelectedOutfit {
	p := pools()
	return domain.SelectedOutfit{
		Top: p.Top[0], Bottom: p.Bottom[0], Shoes: p.Shoes[0], Outerwear: p.Outerwear[0],
		Accessories: []domain.CandidateItem{}, TotalPrice: total,
	}
}

var (
	valid   = validation.Result{Valid: true, Reasons: []string{}}
	invalid = validation.Result{Valid: false, Reasons: []string{validation.ReasonColorHarmony}}
)

func newService(selector *fakeSelector, comp *fakeComposer, validator *scriptedValidator, formatter echoFormatter, cache ResultCache) *Service {
	return NewService(Deps{
		Styles:    styles.NewResolver(zerolog.Nop()),
		Weather:   fixedWeather{},
		Trends:    fixedTrends{},
		Selector:  selector,
		Composer:  comp,
		Validator: validator,
		Formatter: formatter,
		Cache:     cache,
	}, zerolog.Nop())
}

func TestGenerateOutfit_Success(t *testing.T) {
	cache := &mapCache{entries: map[string]*domain.OutfitResult{}}
	selector := &fakeSelector{pools: pools()}
	svc := newService(selector, &fakeComposer{outfit: composed(450)}, &scriptedValidator{verdicts: []validation.Result{valid}}, echoFormatter{}, cache)

	var steps []string
	result, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: "Clean", City: "Berlin"}, domain.GenerateOptions{
		Progress: func(step string) { steps = append(steps, step) },
	})
	require.NoError(t, err)

	assert.Equal(t, "minimal", result.Style)
	assert.Equal(t, "Oxford Shirt", result.Top.Item)
	assert.Equal(t, "$80-$700", result.BudgetRange)
	assert.Equal(t, []string{
		StepInputAnalyzer, StepStyleClassifier, StepContextBuilder, StepBudgetEngine,
		StepBrandSelector, StepWeatherAdapter, StepOutfitComposer, StepValidationLayer, StepResponseFormatter,
	}, steps)
	assert.Same(t, result, cache.entries["/Clean"])
	assert.Equal(t, []int{1}, selector.budgets[0].Tiers)
}

func TestGenerateOutfit_CacheHit(t *testing.T) {
	cached := &domain.OutfitResult{Style: "minimal", TotalPrice: 321}
	cache := &mapCache{entries: map[string]*domain.OutfitResult{"/minimal": cached}}
	selector := &fakeSelector{pools: pools()}
	svc := newService(selector, &fakeComposer{}, &scriptedValidator{verdicts: []validation.Result{valid}}, echoFormatter{}, cache)

	result, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: "minimal"}, domain.GenerateOptions{})
	require.NoError(t, err)
	assert.Same(t, cached, result)
	assert.Empty(t, selector.budgets)
}

func TestGenerateOutfit_InvalidInput(t *testing.T) {
	svc := newService(&fakeSelector{}, &fakeComposer{}, &scriptedValidator{verdicts: []validation.Result{valid}}, echoFormatter{}, nil)

	_, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: " "}, domain.GenerateOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestGenerateOutfit_DeterministicFallback(t *testing.T) {
	selector := &fakeSelector{pools: pools()}
	validator := &scriptedValidator{verdicts: []validation.Result{invalid, valid}}
	svc := newService(selector, &fakeComposer{outfit: composed(450)}, validator, echoFormatter{}, nil)

	result, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: "minimal"}, domain.GenerateOptions{})
	require.NoError(t, err)

	// cheapest top wins in the deterministic composition
	assert.Equal(t, "Cotton Tee", result.Top.Item)
	assert.Equal(t, 410, result.TotalPrice)
	assert.Len(t, selector.budgets, 1)
}

// trackingComposer records signatures like the real composer's memory
type trackingComposer struct {
	fakeComposer
	last string
}

func (c *trackingComposer) LastSignature(domain.PipelineContext) string { return c.last }

func (c *trackingComposer) RememberSignature(_ domain.PipelineContext, signature string) {
	c.last = signature
}

func TestGenerateOutfit_DeterministicFallbackAvoidsRepeat(t *testing.T) {
	comp := &trackingComposer{fakeComposer: fakeComposer{outfit: composed(450)}}
	// each request: stochastic outfit rejected, first fallback candidate accepted
	validator := &scriptedValidator{verdicts: []validation.Result{invalid, valid, invalid, valid, invalid, valid}}
	svc := NewService(Deps{
		Styles:    styles.NewResolver(zerolog.Nop()),
		Weather:   fixedWeather{},
		Trends:    fixedTrends{},
		Selector:  &fakeSelector{pools: pools()},
		Composer:  comp,
		Validator: validator,
		Formatter: echoFormatter{},
	}, zerolog.Nop())
	req := domain.OutfitRequest{Style: "minimal"}

	first, err := svc.GenerateOutfit(context.Background(), req, domain.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Cotton Tee", first.Top.Item)
	assert.Equal(t, "top-1|bottom-1|shoes-1|outer-1", comp.last)

	second, err := svc.GenerateOutfit(context.Background(), req, domain.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Oxford Shirt", second.Top.Item)
	assert.Equal(t, 450, second.TotalPrice)
	assert.Equal(t, "top-2|bottom-1|shoes-1|outer-1", comp.last)

	// alternating keeps both requests from repeating their predecessor
	third, err := svc.GenerateOutfit(context.Background(), req, domain.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Cotton Tee", third.Top.Item)
}

func TestFreshFirst(t *testing.T) {
	p := pools()
	base := composed(410)
	base.Top = p.Top[1]
	alt := composed(450)

	assert.Equal(t, []domain.SelectedOutfit{base, alt}, freshFirst([]domain.SelectedOutfit{base, alt}, ""))
	assert.Equal(t, []domain.SelectedOutfit{alt, base}, freshFirst([]domain.SelectedOutfit{base, alt}, base.Signature()))
}

func TestGenerateOutfit_RelaxedRetryKeepsFirstReasons(t *testing.T) {
	selector := &fakeSelector{pools: pools()}
	svc := newService(selector, &fakeComposer{outfit: composed(450)}, &scriptedValidator{verdicts: []validation.Result{invalid}}, echoFormatter{}, nil)

	_, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: "minimal", BudgetMode: "premium"}, domain.GenerateOptions{})

	var compErr *domain.CompositionError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, MessageCompositionFailed, compErr.Message)
	assert.Equal(t, []string{validation.ReasonColorHarmony}, compErr.Reasons)

	require.Len(t, selector.budgets, 2)
	assert.Equal(t, []int{2, 3}, selector.budgets[0].Tiers)
	assert.Equal(t, []int{1, 2, 3}, selector.budgets[1].Tiers)
	assert.Equal(t, domain.PreferenceCheaper, selector.budgets[1].Preference)
	assert.Equal(t, selector.budgets[0].Min, selector.budgets[1].Min)
}

func TestGenerateOutfit_TotalOutsideWindow(t *testing.T) {
	svc := newService(&fakeSelector{pools: pools()}, &fakeComposer{outfit: composed(900)}, &scriptedValidator{verdicts: []validation.Result{valid}}, echoFormatter{}, nil)

	_, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: "minimal"}, domain.GenerateOptions{})

	var compErr *domain.CompositionError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, []string{validation.ReasonBudget}, compErr.Reasons)
}

func TestGenerateOutfit_NoBrandedItems(t *testing.T) {
	comp := &fakeComposer{err: fmt.Errorf("%w for category top", domain.ErrNoBrandedItems)}
	svc := newService(&fakeSelector{}, comp, &scriptedValidator{verdicts: []validation.Result{valid}}, echoFormatter{}, nil)

	_, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: "goth", LuxuryOnly: true}, domain.GenerateOptions{})

	var compErr *domain.CompositionError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, []string{validation.ReasonBudget, ReasonNoBrandedItems}, compErr.Reasons)
}

func TestGenerateOutfit_CollaboratorFailure(t *testing.T) {
	selector := &fakeSelector{err: errors.New("database is locked")}
	svc := newService(selector, &fakeComposer{}, &scriptedValidator{verdicts: []validation.Result{valid}}, echoFormatter{}, nil)

	_, err := svc.GenerateOutfit(context.Background(), domain.OutfitRequest{Style: "minimal"}, domain.GenerateOptions{})

	var compErr *domain.CompositionError
	require.True(t, errors.As(err, &compErr))
	assert.Equal(t, []string{MessageCompositionFailed}, compErr.Reasons)
}

func TestGenerateOutfit_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newService(&fakeSelector{err: context.Canceled}, &fakeComposer{}, &scriptedValidator{verdicts: []validation.Result{valid}}, echoFormatter{}, nil)
	_, err := svc.GenerateOutfit(ctx, domain.OutfitRequest{Style: "minimal"}, domain.GenerateOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBrief(t *testing.T) {
	brief := Brief(BriefInputs{
		Style:        "goth",
		Occasion:     "party",
		Location:     "Berlin",
		Weather:      domain.WeatherContext{TemperatureC: 7.5, Condition: "Rain"},
		BudgetLabel:  "$900-$9000",
		PaletteHint:  "black, charcoal, oxblood",
		Monetization: &domain.MonetizationSignals{LuxuryBias: true},
	})

	assert.Equal(t, "Style: goth | Occasion: party | Location: Berlin | Weather: 7.5C Rain | Budget: $900-$9000 | "+
		"Palette: black, charcoal, oxblood | TrendInfluence: 60/100 | AdaptiveIndex: 35/100 | MonetizationMode: luxury | "+
		"Use only branded clothing items and keep silhouette cohesive.", brief)
}

func TestMonetizationMode(t *testing.T) {
	assert.Equal(t, "standard", MonetizationMode(nil))
	assert.Equal(t, "premium-only", MonetizationMode(&domain.MonetizationSignals{PremiumOnly: true, LuxuryBias: true}))
	assert.Equal(t, "standard", MonetizationMode(&domain.MonetizationSignals{}))
}
