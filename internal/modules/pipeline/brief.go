package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/outfitter/internal/domain"
)

const (
	defaultBriefTrend    = 60
	defaultBriefAdaptive = 35
	briefClosing         = "Use only branded clothing items and keep silhouette cohesive."
)

// BriefInputs are the facts summarized in a generation brief
type BriefInputs struct {
	Style        string
	Occasion     string
	Location     string
	Weather      domain.WeatherContext
	BudgetLabel  string
	PaletteHint  string
	Trend        *domain.TrendSnapshot
	Personal     *domain.PersonalizationSignals
	Monetization *domain.MonetizationSignals
}

// MonetizationMode labels the commercial bias of a request
func MonetizationMode(m *domain.MonetizationSignals) string {
	switch {
	case m == nil:
		return "standard"
	case m.PremiumOnly:
		return "premium-only"
	case m.LuxuryBias:
		return "luxury"
	default:
		return "standard"
	}
}

// Brief renders the one-line generation brief carried through the pipeline
// and logged with every composition.
func Brief(in BriefInputs) string {
	trend := defaultBriefTrend
	if in.Trend != nil {
		trend = in.Trend.TrendInfluenceCoefficient
	}
	adaptive := defaultBriefAdaptive
	if in.Personal != nil {
		adaptive = in.Personal.AdaptiveIndex
	}

	parts := []string{
		"Style: " + in.Style,
		"Occasion: " + in.Occasion,
		"Location: " + in.Location,
		fmt.Sprintf("Weather: %sC %s", strconv.FormatFloat(in.Weather.TemperatureC, 'f', -1, 64), in.Weather.Condition),
		"Budget: " + in.BudgetLabel,
		"Palette: " + in.PaletteHint,
		fmt.Sprintf("TrendInfluence: %d/100", trend),
		fmt.Sprintf("AdaptiveIndex: %d/100", adaptive),
		"MonetizationMode: " + MonetizationMode(in.Monetization),
		briefClosing,
	}
	return strings.Join(parts, " | ")
}
