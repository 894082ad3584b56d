package formatter

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCards resolves from the item itself, with optional price overrides per id
type stubCards struct {
	prices map[string]int
}

func (s stubCards) Resolve(_ context.Context, item domain.CandidateItem, _ string) ProductCard {
	return ProductCard{
		Brand:         item.Brand.Name,
		ItemName:      item.Name,
		ReferenceLink: "https://shop.example/" + item.ID,
		ImageURL:      "https://img.example/" + item.ID + ".jpg",
		Price:         s.prices[item.ID],
	}
}

type stubMedia struct{}

func (stubMedia) Build(_ context.Context, source string) domain.MediaObject {
	return domain.MediaObject{Thumbnail: source + "?t", Medium: source + "?m", HighRes: source, Source: "external"}
}

func candidate(id, brand string, category domain.Category, price, tier int, name string) domain.CandidateItem {
	return domain.CandidateItem{
		ID:        id,
		Brand:     domain.Brand{ID: "b-" + brand, Name: brand, Tier: tier},
		Name:      name,
		Category:  category,
		Price:     price,
		Tier:      tier,
		StyleTags: []string{"minimal"},
	}
}

func testContext() domain.PipelineContext {
	return domain.PipelineContext{
		UserID: "user-1",
		Input:  domain.NormalizedInput{Style: "minimal", Occasion: "work"},
		Budget: domain.BudgetDecision{
			Mode: domain.BudgetModeCheaper, Min: 80, Max: 700, Tiers: []int{1},
			Preference: domain.PreferenceCheaper, Label: "$80-$700",
		},
		Weather: domain.WeatherContext{LocationLabel: "Berlin", TemperatureC: 12.5, Condition: "Clouds"},
	}
}

func testOutfit() domain.SelectedOutfit {
	o := domain.SelectedOutfit{
		Top:         candidate("top", "Uniqlo", domain.CategoryTop, 100, 1, "Black Cotton Tee"),
		Bottom:      candidate("bottom", "Arket", domain.CategoryBottom, 110, 1, "Black Chino Pants"),
		Shoes:       candidate("shoes", "COS", domain.CategoryShoes, 120, 1, "Black Leather Sneakers"),
		Outerwear:   candidate("outer", "Prada", domain.CategoryOuterwear, 150, 2, "Black Light Jacket"),
		Accessories: []domain.CandidateItem{},
	}
	o.TotalPrice = domain.SumPrices(o.Items())
	return o
}

func newTestFormatter(prices map[string]int) *Formatter {
	f := NewFormatter(stubCards{prices: prices}, stubMedia{}, "http://localhost:4000/", testLogger())
	f.SetClock(func() time.Time { return time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC) })
	return f
}

func TestFormat(t *testing.T) {
	f := newTestFormatter(map[string]int{
		"top":    90,  // inside [45, 125]
		"bottom": 400, // outside [49, 138], rejected
	})

	result, err := f.Format(context.Background(), testContext(), testOutfit())
	require.NoError(t, err)

	assert.Equal(t, 90, result.Top.Price)
	assert.Equal(t, 110, result.Bottom.Price)
	assert.Equal(t, 90+110+120+150, result.TotalPrice)

	// tier follows brand knowledge for known brands
	assert.Equal(t, 3, result.Outerwear.Tier)

	assert.Equal(t, "https://img.example/top.jpg?m", result.Top.ImageURL)
	assert.Equal(t, result.Top.Image.Medium, result.Top.ImageURL)
	assert.NotNil(t, result.Accessories)
	assert.Empty(t, result.Accessories)

	assert.Equal(t, "minimal", result.Style)
	assert.Equal(t, "Berlin, 12.5C, Clouds", result.WeatherContext)
	assert.Equal(t, "$80-$700", result.BudgetRange)
	assert.Equal(t, "Look for minimal (work) under $80-$700, adapted to Berlin, 12.5C, Clouds.", result.Explanation)

	for _, v := range result.Scores.Values() {
		assert.GreaterOrEqual(t, v, 0)
		assert.LessOrEqual(t, v, 100)
	}
	assert.Equal(t, anonymousPersonalization, result.Scores.PersonalizationConfidence)
	assert.Equal(t, 95, result.Scores.ColorHarmony)
}

func TestAffiliateLink(t *testing.T) {
	f := newTestFormatter(nil)

	link := f.AffiliateLink("https://shop.example/a?b=c", "Levi's", "501 Jeans", 120, "u1")
	assert.True(t, strings.HasPrefix(link, "http://localhost:4000/api/monetization/affiliate/redirect?target="))
	assert.Contains(t, link, "target=https%3A%2F%2Fshop.example%2Fa%3Fb%3Dc")
	assert.Contains(t, link, "&brand=Levi%27s&item=501+Jeans&price=120&uid=u1")

	anonymous := f.AffiliateLink("https://shop.example/a", "COS", "Tee", 40, "")
	assert.NotContains(t, anonymous, "uid=")
}

func TestAcceptedPrice(t *testing.T) {
	tests := []struct {
		selected, resolved, expected int
	}{
		{100, 0, 100},
		{100, 45, 45},
		{100, 44, 100},
		{100, 125, 125},
		{100, 126, 100},
		{99, 124, 124}, // ceil(123.75)
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, AcceptedPrice(tt.selected, tt.resolved), "%d -> %d", tt.selected, tt.resolved)
	}
}

func TestExplanation(t *testing.T) {
	pc := testContext()
	pc.Trend = &domain.TrendSnapshot{TrendInfluenceCoefficient: 71}
	pc.Personalization = &domain.PersonalizationSignals{AdaptiveIndex: 64}
	pc.Monetization = &domain.MonetizationSignals{PremiumOnly: true}

	assert.Equal(t,
		"Look for minimal (work) under $80-$700, adapted to Berlin, 12C, Rain. Trend coeff 71/100 applied. Adaptive index 64/100 used. Premium-only generation active.",
		Explanation(pc, "Berlin, 12C, Rain"))

	pc.Monetization.LuxuryBias = true
	assert.Contains(t, Explanation(pc, "x"), "Luxury bias mode active.")

	pc.Trend.TrendInfluenceCoefficient = 0
	assert.NotContains(t, Explanation(pc, "x"), "Trend coeff")
}

func TestCalculateScores_Signals(t *testing.T) {
	f := newTestFormatter(nil)
	pc := testContext()
	pc.Personalization = &domain.PersonalizationSignals{
		AdaptiveIndex:   80,
		GenerationCount: 40,
		AvgRating:       4.5,
		FavoriteBrands:  []string{"uniqlo", "COS"},
		LastStyle:       "Minimal",
	}

	result, err := f.Format(context.Background(), pc, testOutfit())
	require.NoError(t, err)

	// 96*.28 + 50*.24 + 100*.2 + 80*.2 + 90*.08 = 82.08
	assert.Equal(t, 82, result.Scores.PersonalizationConfidence)
	assert.Equal(t, 100, styleCoverage("minimal", result.Core()))
}

func TestWeatherCompatibilityScore(t *testing.T) {
	now := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.UTC)
	outfit := &domain.OutfitResult{
		Top:       domain.OutfitPiece{Item: "Linen Shirt"},
		Shoes:     domain.OutfitPiece{Item: "Suede Loafers"},
		Outerwear: domain.OutfitPiece{Item: "Overshirt"},
	}

	// not cold, not hot, autumn has no match for shirt/overshirt
	assert.Equal(t, 86, weatherCompatibilityScore(domain.WeatherContext{}, outfit, now))
	// cold without layers, rain on suede, seasonal miss
	assert.Equal(t, 100-28-16-14, weatherCompatibilityScore(domain.WeatherContext{IsCold: true, IsRainy: true}, outfit, now))
}

func TestCrossCompatibility(t *testing.T) {
	core := []domain.OutfitPiece{
		{StyleTags: []string{"minimal"}},
		{StyleTags: []string{"Minimal"}},
		{StyleTags: []string{"minimal", "clean"}},
		{StyleTags: []string{"sport"}},
	}
	// pairs: 1, .5, 0, .5, 0, 0 → mean .333
	assert.Equal(t, 33, crossCompatibility(core))
	assert.Equal(t, 50, styleCoverage("minimal", core[2:]))
}
