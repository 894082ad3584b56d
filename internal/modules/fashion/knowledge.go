// Package fashion provides the pure scoring primitives shared by the composer,
// the validation gate and the response formatter.
package fashion

// BrandMetadata is static knowledge about a brand
type BrandMetadata struct {
	Tier              int
	PrestigeWeight    float64
	AffiliatePriority float64
	StyleAffinity     []string
}

// =============================================================================
// BRAND KNOWLEDGE
// =============================================================================

// DefaultBrandMetadata is used for brands missing from the knowledge table
var DefaultBrandMetadata = BrandMetadata{Tier: 1, PrestigeWeight: 42, AffiliatePriority: 60}

var brandKnowledge = map[string]BrandMetadata{
	"Nike":           {Tier: 1, PrestigeWeight: 45, AffiliatePriority: 78, StyleAffinity: []string{"streetwear", "y2k", "sport"}},
	"Adidas":         {Tier: 1, PrestigeWeight: 44, AffiliatePriority: 76, StyleAffinity: []string{"streetwear", "casual", "sport"}},
	"Uniqlo":         {Tier: 1, PrestigeWeight: 40, AffiliatePriority: 72, StyleAffinity: []string{"minimal", "smart casual"}},
	"COS":            {Tier: 1, PrestigeWeight: 48, AffiliatePriority: 69, StyleAffinity: []string{"minimal", "old money"}},
	"Arket":          {Tier: 1, PrestigeWeight: 46, AffiliatePriority: 65, StyleAffinity: []string{"minimal", "smart casual"}},
	"Levi's":         {Tier: 1, PrestigeWeight: 47, AffiliatePriority: 74, StyleAffinity: []string{"vintage", "streetwear"}},
	"Acne Studios":   {Tier: 2, PrestigeWeight: 64, AffiliatePriority: 59, StyleAffinity: []string{"minimal", "avant-garde"}},
	"A.P.C.":         {Tier: 2, PrestigeWeight: 61, AffiliatePriority: 56, StyleAffinity: []string{"minimal", "old money"}},
	"Off-White":      {Tier: 2, PrestigeWeight: 70, AffiliatePriority: 64, StyleAffinity: []string{"streetwear", "luxury"}},
	"Jacquemus":      {Tier: 2, PrestigeWeight: 67, AffiliatePriority: 58, StyleAffinity: []string{"luxury", "minimal"}},
	"Ami Paris":      {Tier: 2, PrestigeWeight: 63, AffiliatePriority: 55, StyleAffinity: []string{"smart casual", "old money"}},
	"Represent":      {Tier: 2, PrestigeWeight: 62, AffiliatePriority: 63, StyleAffinity: []string{"streetwear", "goth"}},
	"Balenciaga":     {Tier: 3, PrestigeWeight: 91, AffiliatePriority: 52, StyleAffinity: []string{"luxury", "streetwear"}},
	"Prada":          {Tier: 3, PrestigeWeight: 94, AffiliatePriority: 50, StyleAffinity: []string{"luxury", "minimal"}},
	"Saint Laurent":  {Tier: 3, PrestigeWeight: 90, AffiliatePriority: 51, StyleAffinity: []string{"luxury", "goth"}},
	"Dior":           {Tier: 3, PrestigeWeight: 93, AffiliatePriority: 49, StyleAffinity: []string{"luxury", "business"}},
	"Gucci":          {Tier: 3, PrestigeWeight: 92, AffiliatePriority: 54, StyleAffinity: []string{"luxury", "vintage"}},
	"Bottega Veneta": {Tier: 3, PrestigeWeight: 89, AffiliatePriority: 48, StyleAffinity: []string{"luxury", "minimal"}},
}

// TierPriceRange is the typical single-item price distribution of a tier
type TierPriceRange struct {
	Min    int
	Median int
	Max    int
}

var tierPriceDistribution = map[int]TierPriceRange{
	1: {Min: 35, Median: 140, Max: 320},
	2: {Min: 140, Median: 450, Max: 1250},
	3: {Min: 380, Median: 1450, Max: 4800},
}

// =============================================================================
// COLOR KNOWLEDGE
// =============================================================================

type colorToken struct {
	token  string
	family string
}

// Ordered so extraction is deterministic. Tokens match as substrings of item
// names, so "red" also matches inside words like "tailored".
var colorTokens = []colorToken{
	{"black", "neutral-dark"},
	{"white", "neutral-light"},
	{"grey", "neutral-mid"},
	{"gray", "neutral-mid"},
	{"stone", "neutral-mid"},
	{"beige", "earth"},
	{"cream", "earth"},
	{"brown", "earth"},
	{"olive", "earth"},
	{"khaki", "earth"},
	{"navy", "cool-dark"},
	{"blue", "cool"},
	{"red", "warm"},
	{"green", "cool"},
	{"purple", "cool"},
	{"yellow", "warm"},
	{"orange", "warm"},
	{"pink", "warm"},
	{"silver", "metallic"},
	{"charcoal", "neutral-dark"},
	{"oxblood", "warm-dark"},
}

var colorCompatibility = map[string]map[string]float64{
	"neutral-dark": {
		"neutral-dark": 95, "neutral-mid": 93, "neutral-light": 96, "earth": 88, "cool": 86,
		"cool-dark": 90, "warm": 80, "metallic": 82, "warm-dark": 86,
	},
	"neutral-mid": {
		"neutral-dark": 93, "neutral-mid": 92, "neutral-light": 94, "earth": 86, "cool": 84,
		"cool-dark": 86, "warm": 79, "metallic": 80, "warm-dark": 82,
	},
	"neutral-light": {
		"neutral-dark": 96, "neutral-mid": 94, "neutral-light": 91, "earth": 89, "cool": 84,
		"cool-dark": 87, "warm": 82, "metallic": 78, "warm-dark": 84,
	},
	"earth": {
		"neutral-dark": 88, "neutral-mid": 86, "neutral-light": 89, "earth": 90, "cool": 75,
		"cool-dark": 80, "warm": 85, "metallic": 70, "warm-dark": 88,
	},
	"cool": {
		"neutral-dark": 86, "neutral-mid": 84, "neutral-light": 84, "earth": 75, "cool": 88,
		"cool-dark": 91, "warm": 74, "metallic": 78, "warm-dark": 70,
	},
	"cool-dark": {
		"neutral-dark": 90, "neutral-mid": 86, "neutral-light": 87, "earth": 80, "cool": 91,
		"cool-dark": 89, "warm": 76, "metallic": 80, "warm-dark": 75,
	},
	"warm": {
		"neutral-dark": 80, "neutral-mid": 79, "neutral-light": 82, "earth": 85, "cool": 74,
		"cool-dark": 76, "warm": 84, "metallic": 76, "warm-dark": 85,
	},
	"metallic": {
		"neutral-dark": 82, "neutral-mid": 80, "neutral-light": 78, "earth": 70, "cool": 78,
		"cool-dark": 80, "warm": 76, "metallic": 88, "warm-dark": 74,
	},
	"warm-dark": {
		"neutral-dark": 86, "neutral-mid": 82, "neutral-light": 84, "earth": 88, "cool": 70,
		"cool-dark": 75, "warm": 85, "metallic": 74, "warm-dark": 87,
	},
}

// =============================================================================
// SEASON, LAYERING AND SILHOUETTE RULES
// =============================================================================

// Season is a calendar season
type Season string

const (
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
)

type seasonRule struct {
	mustIncludeAny []string
	avoidAny       []string
}

var seasonRules = map[Season]seasonRule{
	SeasonWinter: {
		mustIncludeAny: []string{"hoodie", "sweater", "knit", "coat", "jacket", "puffer", "wool"},
		avoidAny:       []string{"linen shorts", "mesh tank"},
	},
	SeasonSpring: {
		mustIncludeAny: []string{"jacket", "overshirt", "shirt", "lightweight"},
		avoidAny:       []string{"heavy puffer"},
	},
	SeasonSummer: {
		mustIncludeAny: []string{"tee", "shirt", "lightweight", "shorts"},
		avoidAny:       []string{"wool", "heavy", "puffer", "parka"},
	},
	SeasonAutumn: {
		mustIncludeAny: []string{"jacket", "hoodie", "knit", "trench", "bomber"},
		avoidAny:       []string{"mesh tank"},
	},
}

var (
	heavyTopTokens       = []string{"hoodie", "sweater", "knit", "heavyweight", "wool"}
	heavyOuterwearTokens = []string{"coat", "puffer", "parka", "wool"}
)

// Fit is an inferred silhouette class
type Fit string

const (
	FitOversize Fit = "oversize"
	FitFitted   Fit = "fitted"
	FitRelaxed  Fit = "relaxed"
)

var silhouetteCompatibility = map[Fit]map[Fit]float64{
	FitOversize: {FitOversize: 74, FitRelaxed: 88, FitFitted: 92},
	FitRelaxed:  {FitOversize: 88, FitRelaxed: 90, FitFitted: 84},
	FitFitted:   {FitOversize: 92, FitRelaxed: 84, FitFitted: 80},
}

const (
	ratioIdealMin  = 0.72
	ratioIdealMax  = 1.38
	ratioStrictMin = 0.55
	ratioStrictMax = 1.7

	MinimalistAccessoryTarget = 1
	MaximalistAccessoryTarget = 3
)
