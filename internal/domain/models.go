// Package domain provides core domain models and types.
package domain

import (
	"strings"
	"time"
)

// Category represents an outfit slot
type Category string

const (
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryShoes     Category = "shoes"
	CategoryOuterwear Category = "outerwear"
	CategoryAccessory Category = "accessory"
)

// MandatoryCategories are the slots every outfit fills exactly once
var MandatoryCategories = []Category{CategoryTop, CategoryBottom, CategoryShoes, CategoryOuterwear}

// AllCategories lists every slot in composition order
var AllCategories = []Category{CategoryTop, CategoryBottom, CategoryShoes, CategoryOuterwear, CategoryAccessory}

// BudgetMode selects the price window policy requested by the caller
type BudgetMode string

const (
	BudgetModeCheaper BudgetMode = "cheaper"
	BudgetModePremium BudgetMode = "premium"
	BudgetModeCustom  BudgetMode = "custom"
)

// PricePreference biases where in the price-sorted pool items are drawn from
type PricePreference string

const (
	PreferenceCheaper  PricePreference = "cheaper"
	PreferencePremium  PricePreference = "premium"
	PreferenceBalanced PricePreference = "balanced"
)

// FitPreference is the silhouette class requested by the caller
type FitPreference string

const (
	FitOversize FitPreference = "oversize"
	FitFitted   FitPreference = "fitted"
	FitRelaxed  FitPreference = "relaxed"
)

// OutfitRequest is the raw generation request as received from clients
type OutfitRequest struct {
	Style         string   `json:"style" msgpack:"style"`
	Occasion      string   `json:"occasion,omitempty" msgpack:"occasion,omitempty"`
	City          string   `json:"city,omitempty" msgpack:"city,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty" msgpack:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty" msgpack:"longitude,omitempty"`
	BudgetMode    string   `json:"budgetMode,omitempty" msgpack:"budgetMode,omitempty"`
	BudgetMin     *int     `json:"budgetMin,omitempty" msgpack:"budgetMin,omitempty"`
	BudgetMax     *int     `json:"budgetMax,omitempty" msgpack:"budgetMax,omitempty"`
	FitPreference string   `json:"fitPreference,omitempty" msgpack:"fitPreference,omitempty"`
	PremiumOnly   bool     `json:"premiumOnly,omitempty" msgpack:"premiumOnly,omitempty"`
	LuxuryOnly    bool     `json:"luxuryOnly,omitempty" msgpack:"luxuryOnly,omitempty"`
}

// NormalizedInput is the canonicalized request. It is built once per request
// and never mutated afterwards.
type NormalizedInput struct {
	StyleInput    string
	Style         string
	Occasion      string
	City          string
	Latitude      *float64
	Longitude     *float64
	BudgetMode    BudgetMode
	BudgetMin     *int
	BudgetMax     *int
	FitPreference FitPreference
	PremiumOnly   bool
	LuxuryOnly    bool
}

// WithStyle returns a copy carrying the canonical style
func (n NormalizedInput) WithStyle(style string) NormalizedInput {
	n.Style = style
	return n
}

// BudgetDecision is the resolved spending policy for one request
type BudgetDecision struct {
	Mode       BudgetMode      `json:"mode"`
	Min        int             `json:"min"`
	Max        int             `json:"max"`
	Tiers      []int           `json:"tiers"`
	Preference PricePreference `json:"preference"`
	Label      string          `json:"budget_label"`
}

// AllowsTier reports whether items of the given tier are eligible
func (b BudgetDecision) AllowsTier(tier int) bool {
	for _, t := range b.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// InWindow reports whether a total price sits inside [Min, Max]
func (b BudgetDecision) InWindow(total int) bool {
	return total >= b.Min && total <= b.Max
}

// Brand is a catalog brand
type Brand struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Tier      int      `json:"tier"`
	StyleTags []string `json:"style_tags,omitempty"`
}

// CandidateItem is a catalog entry eligible for an outfit slot
type CandidateItem struct {
	ID            string   `json:"id"`
	Brand         Brand    `json:"brand"`
	Name          string   `json:"name"`
	Category      Category `json:"category"`
	Price         int      `json:"price"`
	Tier          int      `json:"tier"`
	StyleTags     []string `json:"style_tags"`
	OccasionTags  []string `json:"occasion_tags"`
	ReferenceLink string   `json:"reference_link,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
}

// HasStyleTag reports whether the item carries the exact style tag
func (c CandidateItem) HasStyleTag(style string) bool {
	for _, tag := range c.StyleTags {
		if tag == style {
			return true
		}
	}
	return false
}

// CandidateMap holds the ordered candidate pools per category
type CandidateMap struct {
	Top         []CandidateItem
	Bottom      []CandidateItem
	Shoes       []CandidateItem
	Outerwear   []CandidateItem
	Accessories []CandidateItem
}

// Pool returns the candidate pool for a category
func (m CandidateMap) Pool(category Category) []CandidateItem {
	switch category {
	case CategoryTop:
		return m.Top
	case CategoryBottom:
		return m.Bottom
	case CategoryShoes:
		return m.Shoes
	case CategoryOuterwear:
		return m.Outerwear
	case CategoryAccessory:
		return m.Accessories
	}
	return nil
}

// Set replaces the pool for a category
func (m *CandidateMap) Set(category Category, items []CandidateItem) {
	switch category {
	case CategoryTop:
		m.Top = items
	case CategoryBottom:
		m.Bottom = items
	case CategoryShoes:
		m.Shoes = items
	case CategoryOuterwear:
		m.Outerwear = items
	case CategoryAccessory:
		m.Accessories = items
	}
}

// AdaptedCandidates is the candidate plan after weather adaptation
type AdaptedCandidates struct {
	Candidates       CandidateMap
	IncludeOuterwear bool
	AccessoryCount   int
	WeatherSummary   string
}

// WeatherContext describes ambient conditions for a request
type WeatherContext struct {
	LocationLabel string  `json:"location_label"`
	TemperatureC  float64 `json:"temperature_c"`
	Condition     string  `json:"condition"`
	IsCold        bool    `json:"is_cold"`
	IsHot         bool    `json:"is_hot"`
	IsRainy       bool    `json:"is_rainy"`
	Source        string  `json:"source"`
}

// TrendSnapshot captures recency-weighted style and brand momentum
type TrendSnapshot struct {
	Style                     string             `json:"style"`
	TrendingStyles            []string           `json:"trending_styles"`
	HighConfidenceStyles      []string           `json:"high_confidence_styles"`
	StyleTrendScore           int                `json:"style_trend_score"`
	SeasonalShiftScore        int                `json:"seasonal_shift_score"`
	TrendInfluenceCoefficient int                `json:"trend_influence_coefficient"`
	BrandWeights              map[string]float64 `json:"brand_weights"`
	GeneratedAt               time.Time          `json:"generated_at"`
}

// PersonalizationSignals summarizes a user's history for ranking and scoring
type PersonalizationSignals struct {
	AdaptiveIndex     int                `json:"adaptiveIndex" msgpack:"adaptiveIndex"`
	GenerationCount   int                `json:"generationCount" msgpack:"generationCount"`
	AvgRating         float64            `json:"avgRating" msgpack:"avgRating"`
	SaveRate          float64            `json:"saveRate" msgpack:"saveRate"`
	RegenerateRate    float64            `json:"regenerateRate" msgpack:"regenerateRate"`
	FavoriteBrands    []string           `json:"favoriteBrands" msgpack:"favoriteBrands"`
	PreferredStyles   []string           `json:"preferredStyles" msgpack:"preferredStyles"`
	BrandAffinity     map[string]float64 `json:"brandAffinity" msgpack:"brandAffinity"`
	BudgetSensitivity int                `json:"budgetSensitivity" msgpack:"budgetSensitivity"`
	StyleBiasScore    int                `json:"styleBiasScore" msgpack:"styleBiasScore"`
	LastStyle         string             `json:"lastStyle,omitempty" msgpack:"lastStyle,omitempty"`
}

// MonetizationSignals carries subscription-driven ranking boosts
type MonetizationSignals struct {
	AffiliateAware  bool    `json:"affiliateAware" msgpack:"affiliateAware"`
	LuxuryBias      bool    `json:"luxuryBias" msgpack:"luxuryBias"`
	PremiumOnly     bool    `json:"premiumOnly" msgpack:"premiumOnly"`
	HighMarginBoost float64 `json:"highMarginBoost" msgpack:"highMarginBoost"`
	ConversionBoost float64 `json:"conversionBoost" msgpack:"conversionBoost"`
}

// PipelineContext is everything composition needs to know about one request
type PipelineContext struct {
	UserID          string
	Personalization *PersonalizationSignals
	Monetization    *MonetizationSignals
	Input           NormalizedInput
	Weather         WeatherContext
	Budget          BudgetDecision
	Trend           *TrendSnapshot
	Brief           string
}

// WithBudget returns a copy of the context using a different budget decision
func (pc PipelineContext) WithBudget(budget BudgetDecision) PipelineContext {
	pc.Budget = budget
	return pc
}

// SelectedOutfit is one concrete composition
type SelectedOutfit struct {
	Top         CandidateItem
	Bottom      CandidateItem
	Shoes       CandidateItem
	Outerwear   CandidateItem
	Accessories []CandidateItem
	TotalPrice  int
}

// Core returns the four mandatory pieces in slot order
func (o SelectedOutfit) Core() []CandidateItem {
	return []CandidateItem{o.Top, o.Bottom, o.Shoes, o.Outerwear}
}

// Items returns every piece including accessories
func (o SelectedOutfit) Items() []CandidateItem {
	return append(o.Core(), o.Accessories...)
}

// Signature identifies the composition by its ordered item ids
func (o SelectedOutfit) Signature() string {
	items := o.Items()
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return strings.Join(ids, "|")
}

// SumPrices totals the prices of the given items
func SumPrices(items []CandidateItem) int {
	total := 0
	for _, item := range items {
		total += item.Price
	}
	return total
}

// MediaObject is the image set delivered with each product card
type MediaObject struct {
	Thumbnail string `json:"thumbnail" msgpack:"thumbnail"`
	Medium    string `json:"medium" msgpack:"medium"`
	HighRes   string `json:"high_res" msgpack:"high_res"`
	Source    string `json:"source" msgpack:"source"`
	Validated bool   `json:"validated" msgpack:"validated"`
}

// OutfitPiece is the externally visible product card for one slot
type OutfitPiece struct {
	Brand         string      `json:"brand" msgpack:"brand"`
	Item          string      `json:"item" msgpack:"item"`
	Category      Category    `json:"category" msgpack:"category"`
	Price         int         `json:"price" msgpack:"price"`
	Tier          int         `json:"tier" msgpack:"tier"`
	ReferenceLink string      `json:"reference_link" msgpack:"reference_link"`
	AffiliateLink string      `json:"affiliate_link,omitempty" msgpack:"affiliate_link,omitempty"`
	Image         MediaObject `json:"image" msgpack:"image"`
	ImageURL      string      `json:"image_url" msgpack:"image_url"`
	StyleTags     []string    `json:"styleTags" msgpack:"styleTags"`
}

// OutfitScores is the explainable score vector, every value in [0,100]
type OutfitScores struct {
	TopBottomRatio            int `json:"top_bottom_ratio" msgpack:"top_bottom_ratio"`
	ColorHarmony              int `json:"color_harmony" msgpack:"color_harmony"`
	TrendInfluence            int `json:"trend_influence" msgpack:"trend_influence"`
	VisualCoherence           int `json:"visual_coherence" msgpack:"visual_coherence"`
	ImageHarmony              int `json:"image_harmony" msgpack:"image_harmony"`
	AestheticDensity          int `json:"aesthetic_density" msgpack:"aesthetic_density"`
	MinimalistMaximalistFit   int `json:"minimalist_maximalist_fit" msgpack:"minimalist_maximalist_fit"`
	ConversionLikelihood      int `json:"conversion_likelihood" msgpack:"conversion_likelihood"`
	MarginScore               int `json:"margin_score" msgpack:"margin_score"`
	StyleCoherence            int `json:"style_coherence" msgpack:"style_coherence"`
	BudgetEfficiency          int `json:"budget_efficiency" msgpack:"budget_efficiency"`
	WeatherCompatibility      int `json:"weather_compatibility" msgpack:"weather_compatibility"`
	BrandPrestige             int `json:"brand_prestige" msgpack:"brand_prestige"`
	PersonalizationConfidence int `json:"personalization_confidence" msgpack:"personalization_confidence"`
	Overall                   int `json:"overall" msgpack:"overall"`
}

// Values returns every score, used for bounds checks
func (s OutfitScores) Values() []int {
	return []int{
		s.TopBottomRatio, s.ColorHarmony, s.TrendInfluence, s.VisualCoherence,
		s.ImageHarmony, s.AestheticDensity, s.MinimalistMaximalistFit,
		s.ConversionLikelihood, s.MarginScore, s.StyleCoherence, s.BudgetEfficiency,
		s.WeatherCompatibility, s.BrandPrestige, s.PersonalizationConfidence, s.Overall,
	}
}

// OutfitResult is the final outfit returned to callers
type OutfitResult struct {
	Top            OutfitPiece   `json:"top" msgpack:"top"`
	Bottom         OutfitPiece   `json:"bottom" msgpack:"bottom"`
	Shoes          OutfitPiece   `json:"shoes" msgpack:"shoes"`
	Outerwear      OutfitPiece   `json:"outerwear" msgpack:"outerwear"`
	Accessories    []OutfitPiece `json:"accessories" msgpack:"accessories"`
	TotalPrice     int           `json:"total_price" msgpack:"total_price"`
	Style          string        `json:"style" msgpack:"style"`
	WeatherContext string        `json:"weather_context" msgpack:"weather_context"`
	BudgetRange    string        `json:"budget_range" msgpack:"budget_range"`
	Explanation    string        `json:"explanation" msgpack:"explanation"`
	Scores         OutfitScores  `json:"scores" msgpack:"scores"`
}

// Core returns the four mandatory product cards in slot order
func (r OutfitResult) Core() []OutfitPiece {
	return []OutfitPiece{r.Top, r.Bottom, r.Shoes, r.Outerwear}
}

// Pieces returns every product card including accessories
func (r OutfitResult) Pieces() []OutfitPiece {
	return append(r.Core(), r.Accessories...)
}
