package validation

import (
	"testing"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func autumnGate() *Gate {
	return NewGateWithClock(func() time.Time {
		return time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	}, zerolog.New(nil).Level(zerolog.Disabled))
}

func piece(id, name string, category domain.Category, price int) domain.CandidateItem {
	return domain.CandidateItem{
		ID:        id,
		Brand:     domain.Brand{ID: "b-" + id, Name: "Brand " + id, Tier: 1},
		Name:      name,
		Category:  category,
		Price:     price,
		Tier:      1,
		StyleTags: []string{"minimal"},
	}
}

func baseContext() domain.PipelineContext {
	return domain.PipelineContext{
		Input: domain.NormalizedInput{Style: "minimal", Occasion: "casual"},
		Budget: domain.BudgetDecision{
			Mode: domain.BudgetModeCheaper, Min: 80, Max: 700, Tiers: []int{1},
			Preference: domain.PreferenceCheaper, Label: "$80-$700",
		},
		Weather: domain.WeatherContext{LocationLabel: "Berlin", TemperatureC: 18, Condition: "Clouds"},
	}
}

func baseOutfit() domain.SelectedOutfit {
	o := domain.SelectedOutfit{
		Top:         piece("top", "Black Cotton Tee", domain.CategoryTop, 100),
		Bottom:      piece("bottom", "Black Chino Pants", domain.CategoryBottom, 110),
		Shoes:       piece("shoes", "Black Leather Sneakers", domain.CategoryShoes, 120),
		Outerwear:   piece("outer", "Black Light Jacket", domain.CategoryOuterwear, 150),
		Accessories: []domain.CandidateItem{},
	}
	o.TotalPrice = domain.SumPrices(o.Items())
	return o
}

func TestValidate_ValidOutfit(t *testing.T) {
	result := autumnGate().Validate(baseContext(), baseOutfit())
	assert.True(t, result.Valid)
	assert.Empty(t, result.Reasons)
}

func TestValidate_SingleRuleFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(pc *domain.PipelineContext, o *domain.SelectedOutfit)
		reason string
	}{
		{
			name:   "total above window",
			mutate: func(_ *domain.PipelineContext, o *domain.SelectedOutfit) { o.TotalPrice = 5000 },
			reason: ReasonBudget,
		},
		{
			name: "unbranded accessory",
			mutate: func(_ *domain.PipelineContext, o *domain.SelectedOutfit) {
				acc := piece("acc", "Black Belt", domain.CategoryAccessory, 20)
				acc.Brand.Name = ""
				o.Accessories = []domain.CandidateItem{acc}
				o.TotalPrice += acc.Price
			},
			reason: ReasonNonBranded,
		},
		{
			name:   "tier outside allowed set",
			mutate: func(_ *domain.PipelineContext, o *domain.SelectedOutfit) { o.Top.Tier = 2 },
			reason: ReasonTier,
		},
		{
			name:   "one core piece off style",
			mutate: func(_ *domain.PipelineContext, o *domain.SelectedOutfit) { o.Shoes.StyleTags = []string{"sport"} },
			reason: ReasonStyleCoherence,
		},
		{
			name: "accessory off style",
			mutate: func(_ *domain.PipelineContext, o *domain.SelectedOutfit) {
				acc := piece("acc", "Black Cap", domain.CategoryAccessory, 20)
				acc.StyleTags = []string{"sport"}
				o.Accessories = []domain.CandidateItem{acc}
				o.TotalPrice += acc.Price
			},
			reason: ReasonAccessoryStyle,
		},
		{
			name:   "no seasonal piece",
			mutate: func(_ *domain.PipelineContext, o *domain.SelectedOutfit) { o.Outerwear.Name = "Black Blazer" },
			reason: ReasonSeasonal,
		},
		{
			name: "canvas shoes in rain",
			mutate: func(pc *domain.PipelineContext, o *domain.SelectedOutfit) {
				pc.Weather.IsRainy = true
				o.Shoes.Name = "Black Canvas Sneakers"
			},
			reason: ReasonWeatherMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := baseContext()
			outfit := baseOutfit()
			tt.mutate(&pc, &outfit)

			result := autumnGate().Validate(pc, outfit)
			assert.False(t, result.Valid)
			assert.Equal(t, []string{tt.reason}, result.Reasons)
		})
	}
}

func TestValidate_ColorHarmonyBelowThreshold(t *testing.T) {
	outfit := baseOutfit()
	outfit.Top.Name = "Red Tee"
	outfit.Bottom.Name = "Navy Blue Chino Pants"
	outfit.Shoes.Name = "Silver Sneakers"
	outfit.Outerwear.Name = "Oxblood Light Jacket"

	result := autumnGate().Validate(baseContext(), outfit)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{ReasonColorHarmony}, result.Reasons)
}

func TestValidate_AestheticMismatchAlsoFailsCoherence(t *testing.T) {
	outfit := baseOutfit()
	outfit.Shoes.StyleTags = []string{"sport"}
	outfit.Outerwear.StyleTags = []string{"workwear"}

	result := autumnGate().Validate(baseContext(), outfit)
	assert.Equal(t, []string{ReasonStyleCoherence, ReasonAesthetics}, result.Reasons)
}

func TestValidate_HeavyLayering(t *testing.T) {
	outfit := baseOutfit()
	outfit.Top.Name = "Black Wool Sweater"
	outfit.Outerwear.Name = "Black Wool Bomber Jacket"

	result := autumnGate().Validate(baseContext(), outfit)
	assert.Contains(t, result.Reasons, ReasonLayering)
}

func TestValidate_ColdWeather(t *testing.T) {
	pc := baseContext()
	pc.Weather.IsCold = true

	outfit := baseOutfit()
	outfit.Outerwear.Name = "Black Blazer"
	result := autumnGate().Validate(pc, outfit)
	assert.Contains(t, result.Reasons, ReasonWeatherMismatch)

	outfit.Outerwear = domain.CandidateItem{}
	result = autumnGate().Validate(pc, outfit)
	assert.Contains(t, result.Reasons, ReasonMissingOuter)
	assert.Contains(t, result.Reasons, ReasonNonBranded)
}

func TestValidate_EvaluatesEveryCheck(t *testing.T) {
	pc := baseContext()
	pc.Weather.IsHot = true

	outfit := baseOutfit()
	outfit.TotalPrice = 5000
	outfit.Top.Tier = 3
	outfit.Outerwear.Name = "Black Wool Parka"

	result := autumnGate().Validate(pc, outfit)
	assert.Contains(t, result.Reasons, ReasonBudget)
	assert.Contains(t, result.Reasons, ReasonTier)
	assert.Contains(t, result.Reasons, ReasonSeasonal)
	assert.Contains(t, result.Reasons, ReasonWeatherMismatch)
}
