package fashion

import (
	"math"
	"regexp"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Piece is the minimal view of an outfit piece needed for brand-level scoring
type Piece struct {
	Brand string
	Tier  int
	Price int
}

var (
	oversizePattern  = regexp.MustCompile(`oversize|baggy|wide`)
	fittedPattern    = regexp.MustCompile(`slim|skinny|tailored|fitted`)
	hotVetoPattern   = regexp.MustCompile(`wool|heavy|puffer|parka`)
	coldNeedPattern  = regexp.MustCompile(`hoodie|sweater|knit|coat|jacket|wool|puffer`)
	aestheticPattern = regexp.MustCompile(`(?i)layered|tailored|oversized|boxy|structured|textured|washed|distressed|minimal|statement`)
)

// Round rounds half up, matching how scores have always been rounded
func Round(value float64) int {
	return int(math.Floor(value + 0.5))
}

// Clamp rounds a value and bounds it to [0,100]
func Clamp(value float64) int {
	if value < 0 {
		return 0
	}
	if value > 100 {
		return 100
	}
	return Round(value)
}

// GetBrandMetadata returns static knowledge for a brand, or the default entry
func GetBrandMetadata(brand string) BrandMetadata {
	if metadata, ok := brandKnowledge[brand]; ok {
		return metadata
	}
	return DefaultBrandMetadata
}

// IsKnownBrand reports whether the brand has an entry in the knowledge table
func IsKnownBrand(brand string) bool {
	_, ok := brandKnowledge[brand]
	return ok
}

// TierPrices returns the price distribution for a tier, tier 1 when unknown
func TierPrices(tier int) TierPriceRange {
	if r, ok := tierPriceDistribution[tier]; ok {
		return r
	}
	return tierPriceDistribution[1]
}

// =============================================================================
// SILHOUETTE AND PROPORTION
// =============================================================================

// InferFit classifies an item name into a silhouette class
func InferFit(name string) Fit {
	normalized := strings.ToLower(name)
	if oversizePattern.MatchString(normalized) {
		return FitOversize
	}
	if fittedPattern.MatchString(normalized) {
		return FitFitted
	}
	return FitRelaxed
}

// TopBottomRatio scores the top/bottom price proportion
func TopBottomRatio(topPrice, bottomPrice int) int {
	ratio := float64(topPrice) / math.Max(1, float64(bottomPrice))
	if ratio < ratioStrictMin || ratio > ratioStrictMax {
		return 25
	}
	if ratio >= ratioIdealMin && ratio <= ratioIdealMax {
		return 95
	}

	center := (ratioIdealMin + ratioIdealMax) / 2
	return Clamp(float64(Round(92 - math.Abs(ratio-center)*110)))
}

// SilhouetteBalance averages pairwise fit compatibility of top, bottom and outerwear
func SilhouetteBalance(topName, bottomName, outerwearName string) int {
	top := InferFit(topName)
	bottom := InferFit(bottomName)
	outer := InferFit(outerwearName)

	sum := silhouetteCompatibility[top][bottom] +
		silhouetteCompatibility[top][outer] +
		silhouetteCompatibility[bottom][outer]
	return Clamp(float64(Round(sum / 3)))
}

// =============================================================================
// COLOR HARMONY
// =============================================================================

// ColorScheme names the harmony pattern of an outfit
type ColorScheme string

const (
	SchemeMonochrome    ColorScheme = "monochrome"
	SchemeNeutral       ColorScheme = "neutral"
	SchemeAnalogous     ColorScheme = "analogous"
	SchemeComplementary ColorScheme = "complementary"
	SchemeMixed         ColorScheme = "mixed"
)

// ColorHarmonyResult is the outcome of color analysis
type ColorHarmonyResult struct {
	Score  int
	Scheme ColorScheme
}

// ColorHarmony extracts color tokens from item names and scores family compatibility
func ColorHarmony(names []string) ColorHarmonyResult {
	text := strings.ToLower(strings.Join(names, " "))

	var families []string
	seen := make(map[string]bool)
	for _, ct := range colorTokens {
		if !strings.Contains(text, ct.token) || seen[ct.family] {
			continue
		}
		seen[ct.family] = true
		families = append(families, ct.family)
	}

	if len(families) == 0 {
		return ColorHarmonyResult{Score: 72, Scheme: SchemeMixed}
	}
	if len(families) == 1 {
		return ColorHarmonyResult{Score: 95, Scheme: SchemeMonochrome}
	}

	var pairs []float64
	for i := 0; i < len(families); i++ {
		for j := i + 1; j < len(families); j++ {
			score, ok := colorCompatibility[families[i]][families[j]]
			if !ok {
				score = 70
			}
			pairs = append(pairs, score)
		}
	}
	avg := Round(stat.Mean(pairs, nil))

	scheme := SchemeComplementary
	allNeutral := true
	for _, family := range families {
		if !strings.HasPrefix(family, "neutral") {
			allNeutral = false
			break
		}
	}
	switch {
	case allNeutral:
		scheme = SchemeNeutral
	case len(families) <= 2:
		scheme = SchemeAnalogous
	}

	penalty := math.Max(0, float64(len(families)-3)) * 7
	return ColorHarmonyResult{Score: Clamp(float64(avg) - penalty), Scheme: scheme}
}

// =============================================================================
// LAYERING AND SEASONALITY
// =============================================================================

// LayeringValid rejects a heavy top worn under heavy outerwear
func LayeringValid(topName, outerwearName string) bool {
	top := strings.ToLower(topName)
	outer := strings.ToLower(outerwearName)
	return !(containsAny(top, heavyTopTokens) && containsAny(outer, heavyOuterwearTokens))
}

// SeasonFor maps a calendar month to a season
func SeasonFor(t time.Time) Season {
	switch month := t.Month(); {
	case month == time.December || month <= time.February:
		return SeasonWinter
	case month <= time.May:
		return SeasonSpring
	case month <= time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// Seasonality checks item names against the rules of the season at now,
// with hard vetoes for hot and cold weather.
func Seasonality(names []string, isHot, isCold bool, now time.Time) bool {
	rules := seasonRules[SeasonFor(now)]
	text := strings.ToLower(strings.Join(names, " "))

	if isHot && hotVetoPattern.MatchString(text) {
		return false
	}
	if isCold && !coldNeedPattern.MatchString(text) {
		return false
	}
	if containsAny(text, rules.avoidAny) {
		return false
	}
	return containsAny(text, rules.mustIncludeAny)
}

// =============================================================================
// BUDGET, BRAND AND COMMERCIAL SCORES
// =============================================================================

// BudgetCoherence scores how close a total sits to the preference target inside the window
func BudgetCoherence(total, min, max int, preference string) int {
	span := math.Max(1, float64(max-min))
	if total < min || total > max {
		overflow := float64(min - total)
		if total > max {
			overflow = float64(total - max)
		}
		return Clamp(float64(Round(70 - overflow/span*100)))
	}

	var target float64
	switch preference {
	case "cheaper":
		target = float64(min) + span*0.35
	case "premium":
		target = float64(min) + span*0.82
	default:
		target = float64(min) + span*0.58
	}
	distance := math.Abs(float64(total) - target)
	return Clamp(float64(Round(100 - distance/span*100)))
}

// BrandPrestige blends static prestige, affiliate priority, dynamic trend
// weight and tier consistency across pieces.
func BrandPrestige(pieces []Piece, brandWeights map[string]float64, monetizationBoost float64) int {
	if len(pieces) == 0 {
		return 40
	}

	composites := make([]float64, len(pieces))
	for i, piece := range pieces {
		metadata := GetBrandMetadata(piece.Brand)
		trendWeight, ok := brandWeights[piece.Brand]
		if !ok {
			trendWeight = 1
		}
		tier := piece.Tier
		if tier == 0 {
			tier = metadata.Tier
		}
		tierRange := TierPrices(tier)
		tierConsistency := 78.0
		if piece.Price >= tierRange.Min && piece.Price <= tierRange.Max {
			tierConsistency = 100
		}
		composites[i] = metadata.PrestigeWeight*0.55 +
			metadata.AffiliatePriority*0.15 +
			trendWeight*22 +
			tierConsistency*0.08
	}

	return Clamp(float64(Round(stat.Mean(composites, nil) + monetizationBoost*8)))
}

// MarginScore estimates affiliate margin potential from tier and affiliate priority
func MarginScore(pieces []Piece, highMarginBoost float64) int {
	if len(pieces) == 0 {
		return 20
	}

	values := make([]float64, len(pieces))
	for i, piece := range pieces {
		metadata := GetBrandMetadata(piece.Brand)
		tier := piece.Tier
		if tier == 0 {
			tier = metadata.Tier
		}
		base := 48.0
		switch tier {
		case 3:
			base = 92
		case 2:
			base = 72
		}
		values[i] = base*0.65 + metadata.AffiliatePriority*0.35
	}

	return Clamp(float64(Round(stat.Mean(values, nil) + highMarginBoost*16)))
}

// AffiliateAverage is the mean affiliate priority of the given brands
func AffiliateAverage(brands []string) int {
	if len(brands) == 0 {
		return 60
	}
	priorities := make([]float64, len(brands))
	for i, brand := range brands {
		priorities[i] = GetBrandMetadata(brand).AffiliatePriority
	}
	return Clamp(float64(Round(stat.Mean(priorities, nil))))
}

// TrendInfluence blends style trend and seasonal shift
func TrendInfluence(styleTrendScore, seasonalShiftScore int) int {
	return Clamp(float64(Round(float64(styleTrendScore)*0.7 + float64(seasonalShiftScore)*0.3)))
}

// ConversionInputs are the sub-scores feeding conversion likelihood
type ConversionInputs struct {
	BudgetCoherence           int
	PersonalizationConfidence int
	TrendInfluence            int
	AffiliatePriorityAvg      int
}

// ConversionLikelihood estimates purchase likelihood
func ConversionLikelihood(in ConversionInputs) int {
	return Clamp(float64(Round(
		float64(in.BudgetCoherence)*0.3 +
			float64(in.PersonalizationConfidence)*0.3 +
			float64(in.TrendInfluence)*0.2 +
			float64(in.AffiliatePriorityAvg)*0.2,
	)))
}

// =============================================================================
// VISUAL MODEL
// =============================================================================

// VisualInputs feed the visual model
type VisualInputs struct {
	Names          []string
	AccessoryCount int
	ColorHarmony   int
	Silhouette     int
}

// VisualScores is the output of the visual model
type VisualScores struct {
	VisualCoherence         int
	ImageHarmony            int
	AestheticDensity        int
	MinimalistMaximalistFit int
}

// VisualModel scores aesthetic density, coherence, image harmony and accessory balance
func VisualModel(in VisualInputs) VisualScores {
	matches := len(aestheticPattern.FindAllStringIndex(strings.Join(in.Names, " "), -1))
	density := Clamp(float64(Round(35 + float64(matches)*9)))

	coherence := Clamp(float64(Round(
		float64(in.ColorHarmony)*0.45 + float64(in.Silhouette)*0.4 + float64(density)*0.15,
	)))
	imageHarmony := Clamp(float64(Round(float64(in.ColorHarmony)*0.6 + float64(coherence)*0.4)))

	minimalistDistance := absInt(in.AccessoryCount - MinimalistAccessoryTarget)
	maximalistDistance := absInt(in.AccessoryCount - MaximalistAccessoryTarget)
	fit := Clamp(float64(100 - minInt(minimalistDistance, maximalistDistance)*28))

	return VisualScores{
		VisualCoherence:         coherence,
		ImageHarmony:            imageHarmony,
		AestheticDensity:        density,
		MinimalistMaximalistFit: fit,
	}
}

// =============================================================================
// TAG HELPERS
// =============================================================================

// StyleHits counts tag lists containing the exact style
func StyleHits(tagLists [][]string, style string) int {
	hits := 0
	for _, tags := range tagLists {
		for _, tag := range tags {
			if tag == style {
				hits++
				break
			}
		}
	}
	return hits
}

// SharedTagCount counts tags of a that also appear in b
func SharedTagCount(a, b []string) int {
	set := make(map[string]bool, len(b))
	for _, tag := range b {
		set[tag] = true
	}
	shared := 0
	for _, tag := range a {
		if set[tag] {
			shared++
		}
	}
	return shared
}

// CommonTags returns the lower-cased tags present in every list
func CommonTags(tagLists [][]string) []string {
	if len(tagLists) == 0 {
		return nil
	}
	common := lowerAll(tagLists[0])
	for _, tags := range tagLists[1:] {
		set := make(map[string]bool, len(tags))
		for _, tag := range lowerAll(tags) {
			set[tag] = true
		}
		kept := common[:0]
		for _, tag := range common {
			if set[tag] {
				kept = append(kept, tag)
			}
		}
		common = kept
	}
	return common
}

// Jaccard is |a∩b| / |a∪b| over lower-cased tag sets, 0 when both are empty
func Jaccard(a, b []string) float64 {
	left := make(map[string]bool)
	for _, tag := range lowerAll(a) {
		left[tag] = true
	}
	right := make(map[string]bool)
	for _, tag := range lowerAll(b) {
		right[tag] = true
	}
	union := make(map[string]bool, len(left)+len(right))
	inter := 0
	for tag := range left {
		union[tag] = true
		if right[tag] {
			inter++
		}
	}
	for tag := range right {
		union[tag] = true
	}
	if len(union) == 0 {
		return 0
	}
	return float64(inter) / float64(len(union))
}

func containsAny(text string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(text, token) {
			return true
		}
	}
	return false
}

func lowerAll(tags []string) []string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = strings.ToLower(tag)
	}
	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
