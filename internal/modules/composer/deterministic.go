package composer

import (
	"fmt"
	"math"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
)

// ComposeDeterministic builds the reproducible fallback outfit the pipeline
// tries after a stochastic composition fails validation. Each slot takes the
// cheapest item from the narrowest non-empty pool of style match, tier match
// and per-slot budget match. It never reads or writes the signature memory
// and draws no randomness.
func ComposeDeterministic(pc domain.PipelineContext, adapted domain.AdaptedCandidates) (domain.SelectedOutfit, error) {
	variants, err := DeterministicVariants(pc, adapted)
	if err != nil {
		return domain.SelectedOutfit{}, err
	}
	return variants[0], nil
}

// DeterministicVariants returns the deterministic outfit followed by one
// variant per core slot with that slot moved to its next cheapest eligible
// item. Slots without a second item yield no variant.
func DeterministicVariants(pc domain.PipelineContext, adapted domain.AdaptedCandidates) ([]domain.SelectedOutfit, error) {
	pools := make(map[domain.Category][]domain.CandidateItem, len(domain.MandatoryCategories))
	for _, category := range domain.MandatoryCategories {
		pool, err := deterministicPool(pc, adapted.Candidates.Pool(category), category)
		if err != nil {
			return nil, err
		}
		pools[category] = pool
	}

	var accessories []domain.CandidateItem
	for _, item := range SortByPrice(adapted.Candidates.Accessories) {
		if item.HasStyleTag(pc.Input.Style) {
			accessories = append(accessories, item)
			break
		}
	}
	if accessories == nil {
		accessories = []domain.CandidateItem{}
	}

	build := func(bumped domain.Category) domain.SelectedOutfit {
		pick := func(category domain.Category) domain.CandidateItem {
			if category == bumped {
				return pools[category][1]
			}
			return pools[category][0]
		}
		outfit := domain.SelectedOutfit{
			Top:         pick(domain.CategoryTop),
			Bottom:      pick(domain.CategoryBottom),
			Shoes:       pick(domain.CategoryShoes),
			Outerwear:   pick(domain.CategoryOuterwear),
			Accessories: append([]domain.CandidateItem{}, accessories...),
		}
		outfit.TotalPrice = domain.SumPrices(outfit.Items())
		return outfit
	}

	variants := []domain.SelectedOutfit{build("")}
	for _, category := range domain.MandatoryCategories {
		if len(pools[category]) > 1 {
			variants = append(variants, build(category))
		}
	}
	return variants, nil
}

// deterministicPool returns the eligible items for a slot, cheapest first
func deterministicPool(pc domain.PipelineContext, items []domain.CandidateItem, category domain.Category) ([]domain.CandidateItem, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w for category %s", domain.ErrNoBrandedItems, category)
	}

	slotMin := int(math.Floor(float64(pc.Budget.Min) / 4))
	slotMax := int(math.Ceil(float64(pc.Budget.Max) / 4))

	var styleMatched, tierMatched, budgetMatched []domain.CandidateItem
	for _, item := range items {
		if !item.HasStyleTag(pc.Input.Style) {
			continue
		}
		styleMatched = append(styleMatched, item)
		if !pc.Budget.AllowsTier(item.Tier) {
			continue
		}
		tierMatched = append(tierMatched, item)
		if item.Price >= slotMin && item.Price <= slotMax {
			budgetMatched = append(budgetMatched, item)
		}
	}

	pool := items
	for _, candidate := range [][]domain.CandidateItem{budgetMatched, tierMatched, styleMatched} {
		if len(candidate) > 0 {
			pool = candidate
			break
		}
	}

	if fit := pc.Input.FitPreference; fit != "" {
		var fitMatched []domain.CandidateItem
		for _, item := range pool {
			if string(fashion.InferFit(item.Name)) == string(fit) {
				fitMatched = append(fitMatched, item)
			}
		}
		if len(fitMatched) > 0 {
			pool = fitMatched
		}
	}

	return SortByPrice(pool), nil
}
