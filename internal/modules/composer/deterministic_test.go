package composer

import (
	"errors"
	"testing"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deterministicPools() domain.AdaptedCandidates {
	return domain.AdaptedCandidates{Candidates: domain.CandidateMap{
		Top: []domain.CandidateItem{
			item("t-cheap-offstyle", "Gap", domain.CategoryTop, 20, 1, "Cotton Tee", "sport"),
			item("t-tier2", "COS", domain.CategoryTop, 90, 2, "Cotton Tee", "minimal"),
			item("t-budget", "Uniqlo", domain.CategoryTop, 60, 1, "Cotton Tee", "minimal"),
			item("t-too-cheap", "Uniqlo", domain.CategoryTop, 10, 1, "Cotton Tee", "minimal"),
		},
		Bottom: []domain.CandidateItem{
			item("b-offstyle", "Gap", domain.CategoryBottom, 30, 1, "Chino Pants", "sport"),
		},
		Shoes: []domain.CandidateItem{
			item("s-tier3", "Common Projects", domain.CategoryShoes, 400, 3, "Leather Sneakers", "minimal"),
			item("s-tier2", "Veja", domain.CategoryShoes, 150, 2, "Leather Sneakers", "minimal"),
		},
		Outerwear: []domain.CandidateItem{
			item("o-relaxed", "Uniqlo", domain.CategoryOuterwear, 100, 1, "Light Jacket", "minimal"),
			item("o-oversize", "Uniqlo", domain.CategoryOuterwear, 150, 1, "Oversize Jacket", "minimal"),
		},
		Accessories: []domain.CandidateItem{
			item("a-offstyle", "Gap", domain.CategoryAccessory, 5, 1, "Cap", "sport"),
			item("a-pricey", "COS", domain.CategoryAccessory, 80, 1, "Scarf", "minimal"),
			item("a-cheap", "Uniqlo", domain.CategoryAccessory, 20, 1, "Belt", "minimal"),
		},
	}}
}

func TestComposeDeterministic(t *testing.T) {
	pc := cheaperContext("minimal")
	outfit, err := ComposeDeterministic(pc, deterministicPools())
	require.NoError(t, err)

	// slot window is [20, 175]
	assert.Equal(t, "t-budget", outfit.Top.ID)
	// no style match falls back to the raw pool
	assert.Equal(t, "b-offstyle", outfit.Bottom.ID)
	// no tier match falls back to style match, cheapest first
	assert.Equal(t, "s-tier2", outfit.Shoes.ID)
	assert.Equal(t, "o-relaxed", outfit.Outerwear.ID)

	require.Len(t, outfit.Accessories, 1)
	assert.Equal(t, "a-cheap", outfit.Accessories[0].ID)
	assert.Equal(t, domain.SumPrices(outfit.Items()), outfit.TotalPrice)
}

func TestComposeDeterministic_IsPure(t *testing.T) {
	pc := cheaperContext("minimal")
	first, err := ComposeDeterministic(pc, deterministicPools())
	require.NoError(t, err)
	second, err := ComposeDeterministic(pc, deterministicPools())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComposeDeterministic_FitPreference(t *testing.T) {
	pc := cheaperContext("minimal")
	pc.Input.FitPreference = domain.FitOversize

	outfit, err := ComposeDeterministic(pc, deterministicPools())
	require.NoError(t, err)
	assert.Equal(t, "o-oversize", outfit.Outerwear.ID)
	// nothing oversize among tops keeps the budget pool
	assert.Equal(t, "t-budget", outfit.Top.ID)
}

func TestComposeDeterministic_EmptyPool(t *testing.T) {
	adapted := deterministicPools()
	adapted.Candidates.Outerwear = nil

	_, err := ComposeDeterministic(cheaperContext("minimal"), adapted)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoBrandedItems))
}

func TestComposeDeterministic_NoAccessories(t *testing.T) {
	adapted := deterministicPools()
	adapted.Candidates.Accessories = nil

	outfit, err := ComposeDeterministic(cheaperContext("minimal"), adapted)
	require.NoError(t, err)
	assert.NotNil(t, outfit.Accessories)
	assert.Empty(t, outfit.Accessories)
}

func TestDeterministicVariants(t *testing.T) {
	pc := cheaperContext("minimal")
	variants, err := DeterministicVariants(pc, deterministicPools())
	require.NoError(t, err)

	// tops and bottoms have a single eligible item, so only shoes and outerwear vary
	require.Len(t, variants, 3)

	base, err := ComposeDeterministic(pc, deterministicPools())
	require.NoError(t, err)
	assert.Equal(t, base, variants[0])

	assert.Equal(t, "s-tier3", variants[1].Shoes.ID)
	assert.Equal(t, base.Outerwear.ID, variants[1].Outerwear.ID)
	assert.Equal(t, "o-oversize", variants[2].Outerwear.ID)
	assert.Equal(t, base.Shoes.ID, variants[2].Shoes.ID)

	seen := map[string]bool{}
	for _, v := range variants {
		assert.False(t, seen[v.Signature()], "variants are distinct")
		seen[v.Signature()] = true
		assert.Equal(t, domain.SumPrices(v.Items()), v.TotalPrice)
	}
}

func TestComposer_RememberSignature(t *testing.T) {
	c := newTestComposer(zeroSource{})
	pc := cheaperContext("minimal")

	assert.Equal(t, "", c.LastSignature(pc))
	c.RememberSignature(pc, "a|b|c|d")
	assert.Equal(t, "a|b|c|d", c.LastSignature(pc))
	assert.Equal(t, "a|b|c|d", c.Memory().Last(ContextKey(pc)))

	other := cheaperContext("goth")
	assert.Equal(t, "", c.LastSignature(other))
}
