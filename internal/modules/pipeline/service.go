// Package pipeline runs one outfit generation end to end: normalization,
// context building, selection, composition, validation and formatting.
package pipeline

import (
	"context"
	"errors"

	"github.com/aristath/outfitter/internal/clients/openweather"
	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/budget"
	"github.com/aristath/outfitter/internal/modules/composer"
	"github.com/aristath/outfitter/internal/modules/input"
	"github.com/aristath/outfitter/internal/modules/styles"
	"github.com/aristath/outfitter/internal/modules/validation"
	"github.com/aristath/outfitter/internal/modules/weather"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Step names reported to progress callbacks
const (
	StepInputAnalyzer     = "input-analyzer"
	StepStyleClassifier   = "style-classifier"
	StepContextBuilder    = "context-builder"
	StepBudgetEngine      = "budget-engine"
	StepBrandSelector     = "brand-selector"
	StepWeatherAdapter    = "weather-adapter"
	StepOutfitComposer    = "outfit-composer"
	StepValidationLayer   = "validation-layer"
	StepResponseFormatter = "response-formatter"
)

// Failure messages
const (
	MessageCompositionFailed = "Could not compose a valid branded outfit"
	ReasonNoBrandedItems     = "No branded items available in requested budget"
)

// StyleClassifier resolves free-text style input
type StyleClassifier interface {
	Classify(input string) styles.Profile
}

// WeatherResolver resolves ambient conditions; it never fails
type WeatherResolver interface {
	Resolve(ctx context.Context, lookup openweather.Lookup) domain.WeatherContext
}

// TrendSource returns trend snapshots; it never fails
type TrendSource interface {
	Snapshot(ctx context.Context, style string) domain.TrendSnapshot
}

// CandidateSelector retrieves ranked candidate pools
type CandidateSelector interface {
	Select(ctx context.Context, pc domain.PipelineContext) (domain.CandidateMap, error)
}

// OutfitComposer runs the stochastic search
type OutfitComposer interface {
	Compose(pc domain.PipelineContext, adapted domain.AdaptedCandidates) (domain.SelectedOutfit, error)
}

// SignatureTracker is implemented by composers that remember the outfit last
// returned per request context
type SignatureTracker interface {
	LastSignature(pc domain.PipelineContext) string
	RememberSignature(pc domain.PipelineContext, signature string)
}

// OutfitValidator is the rule gate
type OutfitValidator interface {
	Validate(pc domain.PipelineContext, outfit domain.SelectedOutfit) validation.Result
}

// ResponseFormatter maps a composition to the external result
type ResponseFormatter interface {
	Format(ctx context.Context, pc domain.PipelineContext, outfit domain.SelectedOutfit) (*domain.OutfitResult, error)
}

// ResultCache stores finished outfits by request and user
type ResultCache interface {
	Get(ctx context.Context, req domain.OutfitRequest, userID string) *domain.OutfitResult
	Set(ctx context.Context, req domain.OutfitRequest, userID string, result *domain.OutfitResult)
}

// Deps are the collaborators of the pipeline. Cache may be nil.
type Deps struct {
	Styles    StyleClassifier
	Weather   WeatherResolver
	Trends    TrendSource
	Selector  CandidateSelector
	Composer  OutfitComposer
	Validator OutfitValidator
	Formatter ResponseFormatter
	Cache     ResultCache
}

// Service runs the generation pipeline
type Service struct {
	deps Deps
	log  zerolog.Logger
}

// NewService creates a pipeline service
func NewService(deps Deps, log zerolog.Logger) *Service {
	return &Service{
		deps: deps,
		log:  log.With().Str("component", "outfit_pipeline").Logger(),
	}
}

// attempt is the outcome of one composition attempt
type attempt struct {
	result  *domain.OutfitResult
	reasons []string
}

// GenerateOutfit composes one validated outfit. It returns a
// *domain.ValidationError for malformed input and a *domain.CompositionError
// when neither the original nor the relaxed budget produced a valid outfit.
func (s *Service) GenerateOutfit(ctx context.Context, req domain.OutfitRequest, opts domain.GenerateOptions) (*domain.OutfitResult, error) {
	progress := opts.Progress
	if progress == nil {
		progress = func(string) {}
	}

	progress(StepInputAnalyzer)
	normalized, err := input.Normalize(req)
	if err != nil {
		return nil, err
	}

	progress(StepStyleClassifier)
	profile := s.deps.Styles.Classify(normalized.StyleInput)
	normalized = normalized.WithStyle(profile.Canonical)

	if s.deps.Cache != nil {
		if cached := s.deps.Cache.Get(ctx, req, opts.UserID); cached != nil {
			s.log.Debug().Str("style", normalized.Style).Msg("Outfit served from cache")
			return cached, nil
		}
	}

	progress(StepContextBuilder)
	var (
		conditions domain.WeatherContext
		trend      domain.TrendSnapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conditions = s.deps.Weather.Resolve(gctx, openweather.Lookup{
			City:      normalized.City,
			Latitude:  normalized.Latitude,
			Longitude: normalized.Longitude,
		})
		return nil
	})
	g.Go(func() error {
		trend = s.deps.Trends.Snapshot(gctx, normalized.Style)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress(StepBudgetEngine)
	decision := budget.Resolve(normalized, profile.PreferredTiers)

	pc := domain.PipelineContext{
		UserID:          opts.UserID,
		Personalization: opts.Personalization,
		Monetization:    opts.Monetization,
		Input:           normalized,
		Weather:         conditions,
		Budget:          decision,
		Trend:           &trend,
	}
	pc.Brief = Brief(BriefInputs{
		Style:        normalized.Style,
		Occasion:     normalized.Occasion,
		Location:     conditions.LocationLabel,
		Weather:      conditions,
		BudgetLabel:  decision.Label,
		PaletteHint:  profile.PaletteHint,
		Trend:        pc.Trend,
		Personal:     opts.Personalization,
		Monetization: opts.Monetization,
	})
	s.log.Debug().Str("brief", pc.Brief).Str("user_id", opts.UserID).Msg("Composing outfit")

	result, err := s.run(ctx, pc, progress)
	if err != nil {
		return nil, err
	}

	if s.deps.Cache != nil {
		s.deps.Cache.Set(ctx, req, opts.UserID, result)
	}
	return result, nil
}

// run tries the resolved budget, then once more with every tier allowed and
// the cheaper preference forced.
func (s *Service) run(ctx context.Context, pc domain.PipelineContext, progress domain.ProgressFunc) (*domain.OutfitResult, error) {
	first := s.tryCompose(ctx, pc, progress)
	if first.result != nil {
		return first.result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.log.Info().
		Strs("reasons", first.reasons).
		Str("style", pc.Input.Style).
		Msg("Retrying composition with relaxed tiers")

	second := s.tryCompose(ctx, pc.WithBudget(budget.Relaxed(pc.Budget)), progress)
	if second.result != nil {
		return second.result, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reasons := uniqueReasons(first.reasons, second.reasons)
	if len(reasons) == 0 {
		reasons = []string{validation.ReasonBudget}
	}
	return nil, &domain.CompositionError{Message: MessageCompositionFailed, Reasons: reasons}
}

func (s *Service) tryCompose(ctx context.Context, pc domain.PipelineContext, progress domain.ProgressFunc) attempt {
	progress(StepBrandSelector)
	candidates, err := s.deps.Selector.Select(ctx, pc)
	if err != nil {
		return s.failure(err)
	}

	progress(StepWeatherAdapter)
	adapted := weather.Adapt(pc, candidates)

	progress(StepOutfitComposer)
	composed, err := s.deps.Composer.Compose(pc, adapted)
	if err != nil {
		return s.failure(err)
	}

	progress(StepValidationLayer)
	verdict := s.deps.Validator.Validate(pc, composed)
	if !verdict.Valid {
		return s.deterministicFallback(ctx, pc, adapted, verdict.Reasons, progress)
	}

	progress(StepResponseFormatter)
	formatted, err := s.deps.Formatter.Format(ctx, pc, composed)
	if err != nil {
		return s.failure(err)
	}
	if !pc.Budget.InWindow(formatted.TotalPrice) {
		return attempt{reasons: []string{validation.ReasonBudget}}
	}
	return attempt{result: formatted}
}

// deterministicFallback retries an invalid composition with the cheapest
// matching pieces, then with single-slot variants of it. Variants repeating
// the outfit last returned for this context are tried last. When none passes
// the first verdict's reasons are kept.
func (s *Service) deterministicFallback(
	ctx context.Context,
	pc domain.PipelineContext,
	adapted domain.AdaptedCandidates,
	reasons []string,
	progress domain.ProgressFunc,
) attempt {
	rejected := attempt{reasons: reasons}

	variants, err := composer.DeterministicVariants(pc, adapted)
	if err != nil {
		s.log.Debug().Err(err).Msg("Deterministic composition failed")
		return rejected
	}

	tracker, _ := s.deps.Composer.(SignatureTracker)
	previous := ""
	if tracker != nil {
		previous = tracker.LastSignature(pc)
	}

	for _, outfit := range freshFirst(variants, previous) {
		if verdict := s.deps.Validator.Validate(pc, outfit); !verdict.Valid {
			continue
		}

		progress(StepResponseFormatter)
		formatted, err := s.deps.Formatter.Format(ctx, pc, outfit)
		if err != nil {
			s.log.Warn().Err(err).Msg("Failed to format deterministic outfit")
			return rejected
		}
		if !pc.Budget.InWindow(formatted.TotalPrice) {
			continue
		}
		if tracker != nil {
			tracker.RememberSignature(pc, outfit.Signature())
		}
		return attempt{result: formatted}
	}
	return rejected
}

// freshFirst moves outfits matching the previous signature to the end
func freshFirst(outfits []domain.SelectedOutfit, previous string) []domain.SelectedOutfit {
	if previous == "" {
		return outfits
	}
	ordered := make([]domain.SelectedOutfit, 0, len(outfits))
	var repeats []domain.SelectedOutfit
	for _, outfit := range outfits {
		if outfit.Signature() == previous {
			repeats = append(repeats, outfit)
			continue
		}
		ordered = append(ordered, outfit)
	}
	return append(ordered, repeats...)
}

func (s *Service) failure(err error) attempt {
	if errors.Is(err, domain.ErrNoBrandedItems) {
		return attempt{reasons: []string{validation.ReasonBudget, ReasonNoBrandedItems}}
	}
	s.log.Warn().Err(err).Msg("Composition attempt failed")
	return attempt{reasons: []string{MessageCompositionFailed}}
}

func uniqueReasons(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, reason := range list {
			if !seen[reason] {
				seen[reason] = true
				out = append(out, reason)
			}
		}
	}
	return out
}
