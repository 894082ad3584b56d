package catalog

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/budget"
	"github.com/aristath/outfitter/internal/modules/fashion"
	"github.com/rs/zerolog"
)

const (
	mandatoryPieces    = 4
	minItemPrice       = 10
	relaxedMinFactor   = 0.5
	relaxedMaxFactor   = 1.25
	defaultTrendWeight = 0.5
	defaultTrendCoef   = 60
)

// Ranking weights
const (
	weightStyleMatch   = 1.2
	weightTrend        = 0.95
	weightAffinity     = 0.75
	boostFavorite      = 0.22
	weightPrestige     = 0.45
	weightAffiliate    = 0.25
	weightBudgetFit    = 0.7
	boostLuxuryBias    = 0.2
	boostPremiumOnly   = 0.15
	marginPremiumTiers = 0.16
	marginEntryTier    = 0.06
)

// Finder retrieves catalog items
type Finder interface {
	Find(ctx context.Context, q Query) ([]domain.CandidateItem, error)
}

// Strategy builds one retrieval attempt from the strict base query
type Strategy struct {
	Name  string
	Build func(base Query) Query
}

// DefaultStrategies are tried in order per category; the first non-empty result wins
var DefaultStrategies = []Strategy{
	{Name: "strict", Build: func(base Query) Query { return base }},
	{Name: "without_occasion", Build: func(base Query) Query {
		base.Occasion = ""
		return base
	}},
	{Name: "relaxed_tier", Build: func(base Query) Query {
		return Query{
			Category: base.Category,
			Style:    base.Style,
			MinPrice: maxInt(minItemPrice, int(math.Floor(float64(base.MinPrice)*relaxedMinFactor))),
			MaxPrice: maxInt(base.MaxPrice, int(math.Ceil(float64(base.MaxPrice)*relaxedMaxFactor))),
			Tiers:    append([]int(nil), budget.AllTiers...),
		}
	}},
}

// Selector retrieves and ranks the candidate pool for every category
type Selector struct {
	finder     Finder
	strategies []Strategy
	log        zerolog.Logger
}

// NewSelector creates a selector using DefaultStrategies
func NewSelector(finder Finder, log zerolog.Logger) *Selector {
	return &Selector{
		finder:     finder,
		strategies: DefaultStrategies,
		log:        log.With().Str("component", "brand_selector").Logger(),
	}
}

// ItemWindow derives the per-item price window from the total budget
func ItemWindow(totalMin, totalMax int) (int, int) {
	min := maxInt(minItemPrice, totalMin/mandatoryPieces)
	max := maxInt(min, totalMax/mandatoryPieces)
	return min, max
}

// Select returns ranked candidate pools for every category
func (s *Selector) Select(ctx context.Context, pc domain.PipelineContext) (domain.CandidateMap, error) {
	minPrice, maxPrice := ItemWindow(pc.Budget.Min, pc.Budget.Max)
	var candidates domain.CandidateMap

	for _, category := range domain.AllCategories {
		base := Query{
			Category: category,
			Style:    pc.Input.Style,
			Occasion: pc.Input.Occasion,
			MinPrice: minPrice,
			MaxPrice: maxPrice,
			Tiers:    pc.Budget.Tiers,
		}

		items, err := s.withFallback(ctx, base)
		if err != nil {
			return domain.CandidateMap{}, fmt.Errorf("failed to select %s candidates: %w", category, err)
		}
		candidates.Set(category, Rank(items, pc))
	}

	return candidates, nil
}

func (s *Selector) withFallback(ctx context.Context, base Query) ([]domain.CandidateItem, error) {
	for _, strategy := range s.strategies {
		items, err := s.finder.Find(ctx, strategy.Build(base))
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			s.log.Debug().
				Str("category", string(base.Category)).
				Str("strategy", strategy.Name).
				Int("items", len(items)).
				Msg("Candidates retrieved")
			return items, nil
		}
	}

	s.log.Debug().Str("category", string(base.Category)).Msg("No candidates for any strategy")
	return nil, nil
}

// Rank orders items by descending rank score. The sort is stable.
func Rank(items []domain.CandidateItem, pc domain.PipelineContext) []domain.CandidateItem {
	if len(items) == 0 {
		return items
	}

	in := newRankInputs(pc)
	ranked := make([]domain.CandidateItem, len(items))
	copy(ranked, items)

	scores := make(map[string]float64, len(ranked))
	for _, item := range ranked {
		scores[item.ID] = in.score(item)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].ID] > scores[ranked[j].ID]
	})

	return ranked
}

type rankInputs struct {
	style        string
	trendWeights map[string]float64
	trendCoef    float64
	affinity     map[string]float64
	favorites    map[string]bool
	monetization domain.MonetizationSignals
	budgetCenter float64
}

func newRankInputs(pc domain.PipelineContext) rankInputs {
	in := rankInputs{
		style:        strings.ToLower(pc.Input.Style),
		trendCoef:    defaultTrendCoef,
		favorites:    make(map[string]bool),
		budgetCenter: float64(pc.Budget.Min+pc.Budget.Max) / 2,
	}
	if pc.Trend != nil {
		in.trendWeights = pc.Trend.BrandWeights
		in.trendCoef = float64(pc.Trend.TrendInfluenceCoefficient)
	}
	if pc.Personalization != nil {
		in.affinity = pc.Personalization.BrandAffinity
		for _, brand := range pc.Personalization.FavoriteBrands {
			in.favorites[strings.ToLower(brand)] = true
		}
	}
	if pc.Monetization != nil {
		in.monetization = *pc.Monetization
	}
	return in
}

// score computes the ranking score of one item
func (in rankInputs) score(item domain.CandidateItem) float64 {
	metadata := fashion.GetBrandMetadata(item.Brand.Name)

	styleMatch := 0.0
	if item.HasStyleTag(in.style) {
		styleMatch = 1
	}

	trendWeight, ok := in.trendWeights[item.Brand.Name]
	if !ok {
		trendWeight = defaultTrendWeight
	}

	favorite := 0.0
	if in.favorites[strings.ToLower(item.Brand.Name)] {
		favorite = boostFavorite
	}

	priceDistance := math.Abs(float64(item.Price)-in.budgetCenter) / math.Max(1, in.budgetCenter)
	budgetFit := math.Max(0, 1-priceDistance)

	score := styleMatch*weightStyleMatch +
		trendWeight*weightTrend*in.trendCoef/100 +
		in.affinity[item.Brand.Name]*weightAffinity +
		favorite +
		metadata.PrestigeWeight/100*weightPrestige +
		metadata.AffiliatePriority/100*weightAffiliate +
		budgetFit*weightBudgetFit

	premiumTier := item.Tier >= 2
	if in.monetization.LuxuryBias && premiumTier {
		score += boostLuxuryBias
	}
	if in.monetization.PremiumOnly && premiumTier {
		score += boostPremiumOnly
	}
	if premiumTier {
		score += in.monetization.HighMarginBoost * marginPremiumTiers
	} else {
		score += in.monetization.HighMarginBoost * marginEntryTier
	}

	return score
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
