// Package composer assembles concrete outfits from ranked candidate pools.
package composer

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
	"github.com/rs/zerolog"
)

// Search limits and penalty weights
const (
	AttemptLimit  = 24
	RepeatPenalty = 5000

	topPickCount = 3

	missingStyleHitPenalty = 80
	noSharedTagPenalty     = 40
	oneFitMatchPenalty     = 30
	noFitMatchPenalty      = 70
	ratioTarget            = 90
	ratioPenaltyWeight     = 1.4
	silhouetteTarget       = 88
	silhouettePenaltyWeigh = 1.2
	fitPreferenceBonus     = 18
)

var windowSizes = map[domain.PricePreference]int{
	domain.PreferenceCheaper:  4,
	domain.PreferencePremium:  5,
	domain.PreferenceBalanced: 6,
}

var preferenceOrder = map[domain.PricePreference][]domain.PricePreference{
	domain.PreferenceCheaper:  {domain.PreferenceCheaper, domain.PreferenceBalanced, domain.PreferencePremium},
	domain.PreferencePremium:  {domain.PreferencePremium, domain.PreferenceBalanced, domain.PreferenceCheaper},
	domain.PreferenceBalanced: {domain.PreferenceBalanced, domain.PreferenceCheaper, domain.PreferencePremium},
}

// Composer runs the stochastic outfit search
type Composer struct {
	rand   RandomSource
	memory *SignatureMemory
	log    zerolog.Logger
}

// NewComposer creates a composer backed by crypto randomness and a fresh memory
func NewComposer(log zerolog.Logger) *Composer {
	return NewComposerWithSource(CryptoSource{}, NewSignatureMemory(), log)
}

// NewComposerWithSource creates a composer with injected randomness and memory
func NewComposerWithSource(source RandomSource, memory *SignatureMemory, log zerolog.Logger) *Composer {
	if memory == nil {
		memory = NewSignatureMemory()
	}
	return &Composer{
		rand:   source,
		memory: memory,
		log:    log.With().Str("component", "outfit_composer").Logger(),
	}
}

// Memory exposes the signature memory
func (c *Composer) Memory() *SignatureMemory {
	return c.memory
}

// LastSignature returns the signature last returned for the request context
func (c *Composer) LastSignature(pc domain.PipelineContext) string {
	return c.memory.Last(ContextKey(pc))
}

// RememberSignature records an outfit chosen outside Compose, such as the
// deterministic fallback, so the next search avoids it
func (c *Composer) RememberSignature(pc domain.PipelineContext, signature string) {
	c.memory.Remember(ContextKey(pc), signature)
}

// Compose searches preference × accessory count × attempt combinations and
// returns the first outfit with no budget or style penalty that differs from
// the previous result for the same context. Otherwise the lowest-penalty
// outfit wins, with repeats penalized.
func (c *Composer) Compose(pc domain.PipelineContext, adapted domain.AdaptedCandidates) (domain.SelectedOutfit, error) {
	key := ContextKey(pc)
	previous := c.memory.Last(key)

	var (
		best        domain.SelectedOutfit
		found       bool
		bestPenalty = math.Inf(1)
		attempts    int
	)

	for _, preference := range PreferenceOrder(pc.Budget.Preference) {
		for _, accessoryCount := range AccessoryCounts(adapted.AccessoryCount) {
			for attempt := 0; attempt < AttemptLimit; attempt++ {
				attempts++
				candidate, err := c.composeOnce(pc, adapted, preference, accessoryCount)
				if err != nil {
					return domain.SelectedOutfit{}, err
				}

				signature := candidate.Signature()
				isRepeat := signature == previous
				penalty := float64(BudgetPenalty(candidate.TotalPrice, pc.Budget.Min, pc.Budget.Max))
				stylePenalty := StylePenalty(pc, candidate)

				if !isRepeat && penalty == 0 && stylePenalty == 0 {
					c.memory.Remember(key, signature)
					c.log.Debug().Int("attempts", attempts).Msg("Found penalty-free outfit")
					return candidate, nil
				}

				score := penalty + stylePenalty
				if isRepeat {
					score += RepeatPenalty
				}
				if score < bestPenalty {
					best = candidate
					bestPenalty = score
					found = true
				}
			}
		}
	}

	if !found {
		return domain.SelectedOutfit{}, domain.ErrNoBrandedItems
	}

	c.memory.Remember(key, best.Signature())
	c.log.Debug().
		Int("attempts", attempts).
		Float64("penalty", bestPenalty).
		Msg("Returning lowest-penalty outfit")

	return best, nil
}

func (c *Composer) composeOnce(
	pc domain.PipelineContext,
	adapted domain.AdaptedCandidates,
	preference domain.PricePreference,
	accessoryCount int,
) (domain.SelectedOutfit, error) {
	var usedBrands map[string]bool
	if preference != domain.PreferenceCheaper && pc.Budget.Mode != domain.BudgetModeCheaper {
		usedBrands = make(map[string]bool)
	}
	fit := pc.Input.FitPreference
	pools := adapted.Candidates

	top, err := c.pickItem(pools.Top, domain.CategoryTop, preference, usedBrands, nil, fit)
	if err != nil {
		return domain.SelectedOutfit{}, err
	}
	bottom, err := c.pickItem(pools.Bottom, domain.CategoryBottom, preference, usedBrands, []domain.CandidateItem{top}, fit)
	if err != nil {
		return domain.SelectedOutfit{}, err
	}
	shoes, err := c.pickItem(pools.Shoes, domain.CategoryShoes, preference, usedBrands, []domain.CandidateItem{top, bottom}, fit)
	if err != nil {
		return domain.SelectedOutfit{}, err
	}

	outerwearPreference := domain.PreferenceCheaper
	if adapted.IncludeOuterwear {
		outerwearPreference = preference
	}
	outerwear, err := c.pickItem(pools.Outerwear, domain.CategoryOuterwear, outerwearPreference, usedBrands, []domain.CandidateItem{top, bottom, shoes}, fit)
	if err != nil {
		return domain.SelectedOutfit{}, err
	}

	accessories := c.pickAccessories(pools.Accessories, accessoryCount, preference, usedBrands)

	outfit := domain.SelectedOutfit{
		Top:         top,
		Bottom:      bottom,
		Shoes:       shoes,
		Outerwear:   outerwear,
		Accessories: accessories,
	}
	outfit.TotalPrice = domain.SumPrices(outfit.Items())

	return outfit, nil
}

// pickItem ranks a pool by preference, narrows it to a preference-sized window,
// re-ranks by compatibility with the pieces chosen so far and picks uniformly
// among the top three.
func (c *Composer) pickItem(
	items []domain.CandidateItem,
	category domain.Category,
	preference domain.PricePreference,
	usedBrands map[string]bool,
	paired []domain.CandidateItem,
	fit domain.FitPreference,
) (domain.CandidateItem, error) {
	if len(items) == 0 {
		return domain.CandidateItem{}, fmt.Errorf("%w for category %s", domain.ErrNoBrandedItems, category)
	}

	ranked := RankByPreference(SortByPrice(items), preference)

	pool := ranked
	if usedBrands != nil {
		var unused []domain.CandidateItem
		for _, item := range ranked {
			if !usedBrands[item.Brand.ID] {
				unused = append(unused, item)
			}
		}
		if len(unused) > 0 {
			pool = unused
		}
	}

	window := append([]domain.CandidateItem(nil), pool[:minInt(len(pool), windowSizes[preference])]...)
	scores := make([]float64, len(window))
	for i, item := range window {
		scores[i] = CompatibilityWithSelected(item, paired) + FitPreferenceScore(item.Name, fit)
	}
	sort.Stable(byScoreDesc{items: window, scores: scores})

	selected := window[c.rand.Intn(minInt(topPickCount, len(window)))]
	if usedBrands != nil {
		usedBrands[selected.Brand.ID] = true
	}

	return selected, nil
}

// pickAccessories shuffles the ranked pool and prefers brands not used yet,
// then fills remaining slots from any unselected item.
func (c *Composer) pickAccessories(
	items []domain.CandidateItem,
	count int,
	preference domain.PricePreference,
	usedBrands map[string]bool,
) []domain.CandidateItem {
	if len(items) == 0 || count <= 0 {
		return []domain.CandidateItem{}
	}

	shuffled := c.shuffle(RankByPreference(SortByPrice(items), preference))
	selected := make([]domain.CandidateItem, 0, count)
	chosen := make(map[string]bool, count)

	for _, item := range shuffled {
		if len(selected) >= count {
			break
		}
		if usedBrands != nil && usedBrands[item.Brand.ID] {
			continue
		}
		selected = append(selected, item)
		chosen[item.ID] = true
		if usedBrands != nil {
			usedBrands[item.Brand.ID] = true
		}
	}

	for _, item := range shuffled {
		if len(selected) >= count {
			break
		}
		if chosen[item.ID] {
			continue
		}
		selected = append(selected, item)
		chosen[item.ID] = true
		if usedBrands != nil {
			usedBrands[item.Brand.ID] = true
		}
	}

	return selected
}

// shuffle is a Fisher-Yates shuffle over a copy
func (c *Composer) shuffle(items []domain.CandidateItem) []domain.CandidateItem {
	next := append([]domain.CandidateItem(nil), items...)
	for i := len(next) - 1; i > 0; i-- {
		j := c.rand.Intn(i + 1)
		next[i], next[j] = next[j], next[i]
	}
	return next
}

// =============================================================================
// ORDERING HELPERS
// =============================================================================

// PreferenceOrder returns the preferences to try, starting with the requested one
func PreferenceOrder(preference domain.PricePreference) []domain.PricePreference {
	if order, ok := preferenceOrder[preference]; ok {
		return order
	}
	return preferenceOrder[domain.PreferenceBalanced]
}

// AccessoryCounts returns {target, 1, 0} with duplicates removed, order kept
func AccessoryCounts(target int) []int {
	counts := make([]int, 0, 3)
	seen := make(map[int]bool, 3)
	for _, count := range []int{target, 1, 0} {
		if !seen[count] {
			seen[count] = true
			counts = append(counts, count)
		}
	}
	return counts
}

// SortByPrice returns a copy sorted by ascending price. The sort is stable.
func SortByPrice(items []domain.CandidateItem) []domain.CandidateItem {
	sorted := append([]domain.CandidateItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })
	return sorted
}

// RankByPreference reorders a price-ascending list. Cheaper keeps it as is;
// premium leads with the top quartile from most expensive down, then the
// rest from most expensive down; balanced rotates the list to start at the
// middle.
func RankByPreference(sorted []domain.CandidateItem, preference domain.PricePreference) []domain.CandidateItem {
	n := len(sorted)
	if n == 0 {
		return []domain.CandidateItem{}
	}

	switch preference {
	case domain.PreferenceCheaper:
		return append([]domain.CandidateItem(nil), sorted...)
	case domain.PreferencePremium:
		pivot := int(math.Floor(float64(n) * 0.75))
		ranked := make([]domain.CandidateItem, 0, n)
		ranked = append(ranked, reversed(sorted[pivot:])...)
		return append(ranked, reversed(sorted[:pivot])...)
	default:
		middle := n / 2
		ranked := make([]domain.CandidateItem, 0, n)
		ranked = append(ranked, sorted[middle:]...)
		return append(ranked, sorted[:middle]...)
	}
}

func reversed(items []domain.CandidateItem) []domain.CandidateItem {
	out := make([]domain.CandidateItem, len(items))
	for i, item := range items {
		out[len(items)-1-i] = item
	}
	return out
}

type byScoreDesc struct {
	items  []domain.CandidateItem
	scores []float64
}

func (b byScoreDesc) Len() int           { return len(b.items) }
func (b byScoreDesc) Less(i, j int) bool { return b.scores[i] > b.scores[j] }
func (b byScoreDesc) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.scores[i], b.scores[j] = b.scores[j], b.scores[i]
}

// =============================================================================
// PENALTIES AND COMPATIBILITY
// =============================================================================

// ContextKey identifies a request context for repeat avoidance
func ContextKey(pc domain.PipelineContext) string {
	return strings.Join([]string{
		pc.Input.Style,
		pc.Input.Occasion,
		pc.Budget.Label,
		pc.Weather.LocationLabel,
		strconv.FormatFloat(pc.Weather.TemperatureC, 'f', -1, 64),
		pc.Weather.Condition,
	}, "|")
}

// BudgetPenalty is the distance of a total from the budget window
func BudgetPenalty(total, min, max int) int {
	switch {
	case total < min:
		return min - total
	case total > max:
		return total - max
	default:
		return 0
	}
}

// StylePenalty measures how far the core pieces are from a coherent look
func StylePenalty(pc domain.PipelineContext, outfit domain.SelectedOutfit) float64 {
	core := outfit.Core()
	tagLists := make([][]string, len(core))
	for i, item := range core {
		tagLists[i] = item.StyleTags
	}

	hits := fashion.StyleHits(tagLists, pc.Input.Style)
	penalty := float64(maxInt(0, len(domain.MandatoryCategories)-hits) * missingStyleHitPenalty)

	if len(fashion.CommonTags(tagLists)) == 0 {
		penalty += noSharedTagPenalty
	}

	penalty += fitPreferencePenalty(pc.Input.FitPreference, core)

	ratio := fashion.TopBottomRatio(outfit.Top.Price, outfit.Bottom.Price)
	penalty += math.Max(0, float64(ratioTarget-ratio)) * ratioPenaltyWeight

	silhouette := fashion.SilhouetteBalance(outfit.Top.Name, outfit.Bottom.Name, outfit.Outerwear.Name)
	penalty += math.Max(0, float64(silhouetteTarget-silhouette)) * silhouettePenaltyWeigh

	return penalty
}

func fitPreferencePenalty(fit domain.FitPreference, items []domain.CandidateItem) float64 {
	if fit == "" {
		return 0
	}
	matches := 0
	for _, item := range items {
		if string(fashion.InferFit(item.Name)) == string(fit) {
			matches++
		}
	}
	switch {
	case matches >= 2:
		return 0
	case matches == 1:
		return oneFitMatchPenalty
	default:
		return noFitMatchPenalty
	}
}

// CompatibilityWithSelected averages tag overlap, tier proximity and fit
// contrast against the pieces already chosen. 100 when nothing is chosen.
func CompatibilityWithSelected(candidate domain.CandidateItem, selected []domain.CandidateItem) float64 {
	if len(selected) == 0 {
		return 100
	}

	total := 0.0
	for _, item := range selected {
		tagScore := minInt(40, fashion.SharedTagCount(candidate.StyleTags, item.StyleTags)*8)
		tierScore := 30 - minInt(20, absInt(candidate.Tier-item.Tier)*10)
		total += float64(tagScore + tierScore + fitCompatibility(candidate.Name, item.Name))
	}
	return total / float64(len(selected))
}

func fitCompatibility(a, b string) int {
	fitA, fitB := fashion.InferFit(a), fashion.InferFit(b)
	switch {
	case fitA == fitB && fitA == fashion.FitOversize:
		return 20
	case fitA == fitB:
		return 14
	default:
		return 25
	}
}

// FitPreferenceScore rewards items whose inferred fit matches the request
func FitPreferenceScore(name string, fit domain.FitPreference) float64 {
	if fit == "" {
		return 0
	}
	if string(fashion.InferFit(name)) == string(fit) {
		return fitPreferenceBonus
	}
	return 0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
