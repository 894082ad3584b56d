// Package budget derives price windows, allowed tiers and price preferences.
package budget

import (
	"fmt"

	"github.com/aristath/outfitter/internal/domain"
)

// Fixed windows for the non-custom modes
const (
	CheaperMin = 80
	CheaperMax = 700
	PremiumMin = 700
	PremiumMax = 8000

	luxuryFloor      = 900
	luxuryCeiling    = 9000
	luxuryMinSpan    = 300
	premiumOnlyFloor = 450
	premiumOnlyCap   = 6000
	premiumOnlySpan  = 350

	customDefaultMin = 100
	customDefaultMax = 1000
)

// AllTiers is the relaxed tier set used by the global retry
var AllTiers = []int{1, 2, 3}

// rule is one entry of the ordered resolution chain
type rule struct {
	name    string
	matches func(in domain.NormalizedInput) bool
	decide  func(in domain.NormalizedInput) (min, max int, tiers []int, mode domain.BudgetMode, pref domain.PricePreference)
}

// rules are evaluated in order; the first match wins
var rules = []rule{
	{
		name:    "luxury_only",
		matches: func(in domain.NormalizedInput) bool { return in.LuxuryOnly },
		decide: func(in domain.NormalizedInput) (int, int, []int, domain.BudgetMode, domain.PricePreference) {
			min := maxInt(luxuryFloor, valueOr(in.BudgetMin, luxuryFloor))
			max := maxInt(min+luxuryMinSpan, valueOr(in.BudgetMax, luxuryCeiling))
			return min, max, []int{3}, domain.BudgetModePremium, domain.PreferencePremium
		},
	},
	{
		name:    "premium_only",
		matches: func(in domain.NormalizedInput) bool { return in.PremiumOnly },
		decide: func(in domain.NormalizedInput) (int, int, []int, domain.BudgetMode, domain.PricePreference) {
			min := maxInt(premiumOnlyFloor, valueOr(in.BudgetMin, premiumOnlyFloor))
			max := maxInt(min+premiumOnlySpan, valueOr(in.BudgetMax, premiumOnlyCap))
			return min, max, []int{2, 3}, domain.BudgetModePremium, domain.PreferencePremium
		},
	},
	{
		name:    "custom",
		matches: func(in domain.NormalizedInput) bool { return in.BudgetMode == domain.BudgetModeCustom },
		decide: func(in domain.NormalizedInput) (int, int, []int, domain.BudgetMode, domain.PricePreference) {
			min := valueOr(in.BudgetMin, customDefaultMin)
			max := valueOr(in.BudgetMax, customDefaultMax)
			return min, max, TiersForRange(min, max), domain.BudgetModeCustom, domain.PreferenceBalanced
		},
	},
	{
		name:    "premium",
		matches: func(in domain.NormalizedInput) bool { return in.BudgetMode == domain.BudgetModePremium },
		decide: func(in domain.NormalizedInput) (int, int, []int, domain.BudgetMode, domain.PricePreference) {
			return PremiumMin, PremiumMax, []int{2, 3}, domain.BudgetModePremium, domain.PreferencePremium
		},
	},
	{
		name:    "cheaper",
		matches: func(domain.NormalizedInput) bool { return true },
		decide: func(domain.NormalizedInput) (int, int, []int, domain.BudgetMode, domain.PricePreference) {
			return CheaperMin, CheaperMax, []int{1}, domain.BudgetModeCheaper, domain.PreferenceCheaper
		},
	},
}

// Resolve derives the budget decision for a request. Allowed tiers are the
// intersection of the style's preferred tiers and the budget tiers, falling
// back to the budget tiers when the intersection is empty.
func Resolve(in domain.NormalizedInput, preferredTiers []int) domain.BudgetDecision {
	for _, r := range rules {
		if !r.matches(in) {
			continue
		}
		min, max, tiers, mode, pref := r.decide(in)
		return domain.BudgetDecision{
			Mode:       mode,
			Min:        min,
			Max:        max,
			Tiers:      intersectTiers(preferredTiers, tiers),
			Preference: pref,
			Label:      Label(min, max),
		}
	}
	// unreachable: the cheaper rule always matches
	return domain.BudgetDecision{}
}

// Relaxed returns the decision used by the single global retry: every tier
// allowed and the cheaper preference forced.
func Relaxed(decision domain.BudgetDecision) domain.BudgetDecision {
	relaxed := decision
	relaxed.Tiers = append([]int(nil), AllTiers...)
	relaxed.Preference = domain.PreferenceCheaper
	return relaxed
}

// TiersForRange maps a custom window to tiers using fixed thresholds
func TiersForRange(min, max int) []int {
	switch {
	case max <= 450:
		return []int{1}
	case max <= 1500:
		return []int{1, 2}
	case min >= 700:
		return []int{2, 3}
	default:
		return []int{1, 2, 3}
	}
}

// Label formats a window as $min-$max
func Label(min, max int) string {
	return fmt.Sprintf("$%d-$%d", min, max)
}

func intersectTiers(styleTiers, budgetTiers []int) []int {
	allowed := make(map[int]bool, len(budgetTiers))
	for _, t := range budgetTiers {
		allowed[t] = true
	}
	var out []int
	for _, t := range styleTiers {
		if allowed[t] {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return append([]int(nil), budgetTiers...)
	}
	return out
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
