package formatter

import (
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
)

// Neutral inputs when no trend snapshot or personalization is available
const (
	defaultStyleTrendScore    = 58
	defaultSeasonalShiftScore = 60
	anonymousPersonalization  = 35
	noCrossPairsScore         = 52
	noRatingScore             = 48

	luxuryPrestigeBoost  = 0.8
	defaultPrestigeBoost = 0.35
)

var (
	coldLayerPattern = regexp.MustCompile(`coat|jacket|hoodie|sweater|knit|puffer|wool`)
	hotLayerPattern  = regexp.MustCompile(`wool|puffer|parka|heavy`)
	rainShoePattern  = regexp.MustCompile(`suede|canvas`)
)

// CalculateScores computes the explainable score vector for a formatted outfit
func CalculateScores(pc domain.PipelineContext, outfit *domain.OutfitResult, now time.Time) domain.OutfitScores {
	core := outfit.Core()
	all := outfit.Pieces()
	coreNames := pieceNames(core)

	colorHarmony := fashion.ColorHarmony(coreNames).Score
	topBottomRatio := fashion.TopBottomRatio(outfit.Top.Price, outfit.Bottom.Price)
	silhouette := fashion.SilhouetteBalance(outfit.Top.Item, outfit.Bottom.Item, outfit.Outerwear.Item)

	layering := 64.0
	if fashion.LayeringValid(outfit.Top.Item, outfit.Outerwear.Item) {
		layering = 92
	}

	styleCoherence := percent(
		float64(styleCoverage(pc.Input.Style, core))*0.25 +
			float64(crossCompatibility(core))*0.2 +
			float64(colorHarmony)*0.17 +
			float64(silhouette)*0.16 +
			layering*0.1 +
			float64(topBottomRatio)*0.12,
	)

	budgetEfficiency := fashion.BudgetCoherence(outfit.TotalPrice, pc.Budget.Min, pc.Budget.Max, string(pc.Budget.Preference))
	weatherCompatibility := weatherCompatibilityScore(pc.Weather, outfit, now)

	var brandWeights map[string]float64
	if pc.Trend != nil {
		brandWeights = pc.Trend.BrandWeights
	}
	prestigeBoost := defaultPrestigeBoost
	if pc.Monetization != nil && pc.Monetization.LuxuryBias {
		prestigeBoost = luxuryPrestigeBoost
	}
	brandPrestige := fashion.BrandPrestige(toPieces(all), brandWeights, prestigeBoost)

	personalization := personalizationConfidence(pc, core)

	styleTrend, seasonalShift := defaultStyleTrendScore, defaultSeasonalShiftScore
	if pc.Trend != nil {
		styleTrend, seasonalShift = pc.Trend.StyleTrendScore, pc.Trend.SeasonalShiftScore
	}
	trendInfluence := fashion.TrendInfluence(styleTrend, seasonalShift)

	visual := fashion.VisualModel(fashion.VisualInputs{
		Names:          coreNames,
		AccessoryCount: len(outfit.Accessories),
		ColorHarmony:   colorHarmony,
		Silhouette:     silhouette,
	})

	coreBrands := make([]string, len(core))
	for i, piece := range core {
		coreBrands[i] = piece.Brand
	}
	conversion := fashion.ConversionLikelihood(fashion.ConversionInputs{
		BudgetCoherence:           budgetEfficiency,
		PersonalizationConfidence: personalization,
		TrendInfluence:            trendInfluence,
		AffiliatePriorityAvg:      fashion.AffiliateAverage(coreBrands),
	})

	highMarginBoost := 0.0
	if pc.Monetization != nil {
		highMarginBoost = pc.Monetization.HighMarginBoost
	}
	margin := fashion.MarginScore(toPieces(all), highMarginBoost)

	// overall weights sum to 1.0
	overall := percent(
		float64(styleCoherence)*0.2 +
			float64(budgetEfficiency)*0.12 +
			float64(weatherCompatibility)*0.11 +
			float64(brandPrestige)*0.11 +
			float64(personalization)*0.1 +
			float64(trendInfluence)*0.09 +
			float64(visual.VisualCoherence)*0.1 +
			float64(conversion)*0.09 +
			float64(margin)*0.08,
	)

	return domain.OutfitScores{
		TopBottomRatio:            topBottomRatio,
		ColorHarmony:              colorHarmony,
		TrendInfluence:            trendInfluence,
		VisualCoherence:           visual.VisualCoherence,
		ImageHarmony:              visual.ImageHarmony,
		AestheticDensity:          visual.AestheticDensity,
		MinimalistMaximalistFit:   visual.MinimalistMaximalistFit,
		ConversionLikelihood:      conversion,
		MarginScore:               margin,
		StyleCoherence:            styleCoherence,
		BudgetEfficiency:          budgetEfficiency,
		WeatherCompatibility:      weatherCompatibility,
		BrandPrestige:             brandPrestige,
		PersonalizationConfidence: personalization,
		Overall:                   overall,
	}
}

// styleCoverage is the share of core pieces tagged with the style, case-insensitive
func styleCoverage(style string, core []domain.OutfitPiece) int {
	target := strings.ToLower(style)
	matches := 0
	for _, piece := range core {
		for _, tag := range piece.StyleTags {
			if strings.ToLower(tag) == target {
				matches++
				break
			}
		}
	}
	return percent(float64(matches) / float64(len(core)) * 100)
}

// crossCompatibility is the mean pairwise Jaccard similarity of core style tags
func crossCompatibility(core []domain.OutfitPiece) int {
	var sum float64
	pairs := 0
	for i := 0; i < len(core); i++ {
		for j := i + 1; j < len(core); j++ {
			sum += fashion.Jaccard(core[i].StyleTags, core[j].StyleTags)
			pairs++
		}
	}
	if pairs == 0 {
		return noCrossPairsScore
	}
	return percent(sum / float64(pairs) * 100)
}

func weatherCompatibilityScore(w domain.WeatherContext, outfit *domain.OutfitResult, now time.Time) int {
	score := 100
	layers := strings.ToLower(outfit.Top.Item + " " + outfit.Outerwear.Item)
	shoes := strings.ToLower(outfit.Shoes.Item)

	if w.IsCold && !coldLayerPattern.MatchString(layers) {
		score -= 28
	}
	if w.IsHot && hotLayerPattern.MatchString(layers) {
		score -= 24
	}
	if w.IsRainy && rainShoePattern.MatchString(shoes) {
		score -= 16
	}
	if !fashion.Seasonality([]string{outfit.Top.Item, outfit.Outerwear.Item}, w.IsHot, w.IsCold, now) {
		score -= 14
	}
	return percent(float64(score))
}

func personalizationConfidence(pc domain.PipelineContext, core []domain.OutfitPiece) int {
	profile := pc.Personalization
	if profile == nil {
		return anonymousPersonalization
	}

	styleHistory := 66.0
	if strings.EqualFold(profile.LastStyle, pc.Input.Style) && profile.LastStyle != "" {
		styleHistory = 96
	}

	favorites := make(map[string]bool, len(profile.FavoriteBrands))
	for _, brand := range profile.FavoriteBrands {
		favorites[strings.ToLower(brand)] = true
	}
	hits := 0
	for _, piece := range core {
		if favorites[strings.ToLower(piece.Brand)] {
			hits++
		}
	}
	favorite := percent(float64(hits) / float64(len(core)) * 100)
	dataVolume := percent(math.Min(100, float64(profile.GenerationCount)*3.4))

	rating := float64(noRatingScore)
	if profile.AvgRating > 0 {
		rating = profile.AvgRating / 5 * 100
	}

	return percent(
		styleHistory*0.28 +
			float64(favorite)*0.24 +
			float64(dataVolume)*0.2 +
			float64(profile.AdaptiveIndex)*0.2 +
			rating*0.08,
	)
}

// percent rounds half up and clamps to [0,100]
func percent(value float64) int {
	return fashion.Clamp(float64(fashion.Round(value)))
}

func pieceNames(pieces []domain.OutfitPiece) []string {
	names := make([]string, len(pieces))
	for i, piece := range pieces {
		names[i] = piece.Item
	}
	return names
}

func toPieces(pieces []domain.OutfitPiece) []fashion.Piece {
	out := make([]fashion.Piece, len(pieces))
	for i, piece := range pieces {
		out[i] = fashion.Piece{Brand: piece.Brand, Tier: piece.Tier, Price: piece.Price}
	}
	return out
}
