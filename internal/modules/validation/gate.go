// Package validation runs the rule gate every composed outfit must pass.
package validation

import (
	"regexp"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
	"github.com/rs/zerolog"
)

// Reason codes surfaced to callers
const (
	ReasonBudget          = "Budget constraints violated"
	ReasonNonBranded      = "Detected non-branded item"
	ReasonTier            = "Tier out of allowed budget range"
	ReasonMissingOuter    = "Missing weather-compatible outerwear"
	ReasonStyleCoherence  = "Style coherence too low"
	ReasonAccessoryStyle  = "Accessory does not match selected style"
	ReasonColorHarmony    = "Color harmony mismatch"
	ReasonLayering        = "Layering validation failed"
	ReasonSilhouette      = "Silhouette balance too weak"
	ReasonSeasonal        = "Seasonal constraints violated"
	ReasonAesthetics      = "Mismatched aesthetics"
	ReasonWeatherMismatch = "Weather incompatibility detected"
)

// Thresholds
const (
	MinColorHarmony      = 68
	MinSilhouetteBalance = 70
	minCoreStyleAligned  = 4
	minAestheticAligned  = 3
)

var (
	coldOuterwearPattern = regexp.MustCompile(`coat|jacket|puffer|parka|hoodie|wool`)
	hotOuterwearPattern  = regexp.MustCompile(`wool|puffer|parka|heavy`)
	rainShoePattern      = regexp.MustCompile(`suede|canvas`)
)

// Result is the gate verdict. Valid iff Reasons is empty.
type Result struct {
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons"`
}

// check is one rule of the gate; it returns true when the outfit passes
type check struct {
	reason string
	passes func(g *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool
}

// checks run in order and never short-circuit
var checks = []check{
	{ReasonBudget, func(_ *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		return pc.Budget.InWindow(o.TotalPrice)
	}},
	{ReasonNonBranded, func(_ *Gate, _ domain.PipelineContext, o domain.SelectedOutfit) bool {
		for _, item := range o.Items() {
			if item.Brand.Name == "" {
				return false
			}
		}
		return true
	}},
	{ReasonTier, func(_ *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		for _, item := range o.Items() {
			if !pc.Budget.AllowsTier(item.Tier) {
				return false
			}
		}
		return true
	}},
	{ReasonMissingOuter, func(_ *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		if !pc.Weather.IsCold && !pc.Weather.IsRainy {
			return true
		}
		return o.Outerwear.ID != ""
	}},
	{ReasonStyleCoherence, func(_ *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		return styleAligned(o.Core(), pc.Input.Style) >= minCoreStyleAligned
	}},
	{ReasonAccessoryStyle, func(_ *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		return len(o.Accessories) == 0 || styleAligned(o.Accessories, pc.Input.Style) > 0
	}},
	{ReasonColorHarmony, func(_ *Gate, _ domain.PipelineContext, o domain.SelectedOutfit) bool {
		return fashion.ColorHarmony(coreNames(o)).Score >= MinColorHarmony
	}},
	{ReasonLayering, func(_ *Gate, _ domain.PipelineContext, o domain.SelectedOutfit) bool {
		return fashion.LayeringValid(o.Top.Name, o.Outerwear.Name)
	}},
	{ReasonSilhouette, func(_ *Gate, _ domain.PipelineContext, o domain.SelectedOutfit) bool {
		return fashion.SilhouetteBalance(o.Top.Name, o.Bottom.Name, o.Outerwear.Name) >= MinSilhouetteBalance
	}},
	{ReasonSeasonal, func(g *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		return fashion.Seasonality(coreNames(o), pc.Weather.IsHot, pc.Weather.IsCold, g.now())
	}},
	{ReasonAesthetics, func(_ *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		return styleAligned(o.Core(), strings.ToLower(pc.Input.Style)) >= minAestheticAligned
	}},
	{ReasonWeatherMismatch, func(_ *Gate, pc domain.PipelineContext, o domain.SelectedOutfit) bool {
		w := pc.Weather
		if !w.IsHot && !w.IsCold && !w.IsRainy {
			return true
		}
		return weatherCompatible(w, o)
	}},
}

// Gate validates composed outfits
type Gate struct {
	now func() time.Time
	log zerolog.Logger
}

// NewGate creates a gate evaluating seasonality against the wall clock
func NewGate(log zerolog.Logger) *Gate {
	return NewGateWithClock(time.Now, log)
}

// NewGateWithClock creates a gate with an injected clock
func NewGateWithClock(now func() time.Time, log zerolog.Logger) *Gate {
	return &Gate{
		now: now,
		log: log.With().Str("component", "validation_layer").Logger(),
	}
}

// Validate evaluates every check and collects the reasons of those that fail
func (g *Gate) Validate(pc domain.PipelineContext, outfit domain.SelectedOutfit) Result {
	reasons := []string{}
	for _, c := range checks {
		if !c.passes(g, pc, outfit) {
			reasons = append(reasons, c.reason)
		}
	}

	if len(reasons) > 0 {
		g.log.Debug().
			Strs("reasons", reasons).
			Str("signature", outfit.Signature()).
			Msg("Outfit rejected")
	}

	return Result{Valid: len(reasons) == 0, Reasons: reasons}
}

func weatherCompatible(w domain.WeatherContext, o domain.SelectedOutfit) bool {
	outer := strings.ToLower(o.Outerwear.Name)
	shoes := strings.ToLower(o.Shoes.Name)

	if w.IsCold && !coldOuterwearPattern.MatchString(outer) {
		return false
	}
	if w.IsHot && hotOuterwearPattern.MatchString(outer) {
		return false
	}
	if w.IsRainy && rainShoePattern.MatchString(shoes) {
		return false
	}
	return true
}

func styleAligned(items []domain.CandidateItem, style string) int {
	count := 0
	for _, item := range items {
		if item.HasStyleTag(style) {
			count++
		}
	}
	return count
}

func coreNames(o domain.SelectedOutfit) []string {
	return []string{o.Top.Name, o.Bottom.Name, o.Shoes.Name, o.Outerwear.Name}
}
