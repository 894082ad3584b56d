// Package weather resolves ambient conditions and adapts candidate pools to them.
package weather

import (
	"context"
	"strings"

	"github.com/aristath/outfitter/internal/clients/openweather"
	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
)

// Thresholds and fallback values
const (
	ColdBelowC = 10.0
	HotAboveC  = 26.0

	FallbackCity         = "Default City"
	FallbackTemperatureC = 18.0
	FallbackCondition    = "Clouds"

	SourceAPI      = "api"
	SourceFallback = "fallback"
)

var rainyConditions = map[string]bool{
	"rain":         true,
	"drizzle":      true,
	"thunderstorm": true,
}

// Provider fetches current conditions
type Provider interface {
	Enabled() bool
	Current(ctx context.Context, lookup openweather.Lookup) (*openweather.Current, error)
}

// Service resolves a WeatherContext for a request. It never fails.
type Service struct {
	provider Provider
	log      zerolog.Logger
}

// NewService creates a weather service. provider may be nil.
func NewService(provider Provider, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log.With().Str("component", "weather").Logger(),
	}
}

// Resolve returns current conditions for the lookup, or the neutral fallback
// when no provider is configured, no location is given, or the provider fails.
func (s *Service) Resolve(ctx context.Context, lookup openweather.Lookup) domain.WeatherContext {
	if s.provider == nil || !s.provider.Enabled() {
		return Fallback(lookup.City)
	}
	if !lookup.HasCoordinates() && strings.TrimSpace(lookup.City) == "" {
		return Fallback(lookup.City)
	}

	current, err := s.provider.Current(ctx, lookup)
	if err != nil {
		s.log.Warn().Err(err).Str("city", lookup.City).Msg("Weather lookup failed, using fallback")
		return Fallback(lookup.City)
	}

	return FromConditions(current.Name, current.TemperatureC, current.Condition, SourceAPI)
}

// FromConditions derives the weather flags from raw conditions
func FromConditions(label string, temperatureC float64, condition, source string) domain.WeatherContext {
	return domain.WeatherContext{
		LocationLabel: label,
		TemperatureC:  temperatureC,
		Condition:     condition,
		IsCold:        temperatureC < ColdBelowC,
		IsHot:         temperatureC > HotAboveC,
		IsRainy:       rainyConditions[strings.ToLower(condition)],
		Source:        source,
	}
}

// Fallback is the neutral context used whenever real conditions are unavailable
func Fallback(city string) domain.WeatherContext {
	label := strings.TrimSpace(city)
	if label == "" {
		label = FallbackCity
	}
	return domain.WeatherContext{
		LocationLabel: label,
		TemperatureC:  FallbackTemperatureC,
		Condition:     FallbackCondition,
		Source:        SourceFallback,
	}
}
