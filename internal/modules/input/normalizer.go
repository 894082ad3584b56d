// Package input validates and canonicalizes raw outfit requests.
package input

import (
	"strings"

	"github.com/aristath/outfitter/internal/domain"
)

const (
	maxStyleLength    = 80
	maxOccasionLength = 80
	maxCityLength     = 80

	// DefaultOccasion applies when the request carries none
	DefaultOccasion = "casual"

	minCustomBudget = 30
	maxCustomBudget = 10000
	minCustomCap    = 50
	maxCustomCap    = 15000
	minCustomSpan   = 40
	maxCustomSpan   = 12000
)

// Normalize validates a raw request and returns its canonical form.
// Style is set to the lower-cased input; the style resolver replaces it later.
func Normalize(req domain.OutfitRequest) (domain.NormalizedInput, error) {
	style := strings.ToLower(strings.TrimSpace(req.Style))
	if style == "" {
		return domain.NormalizedInput{}, domain.NewValidationError("style", "Style is required")
	}
	if len(style) > maxStyleLength {
		return domain.NormalizedInput{}, domain.NewValidationError("style", "style must be shorter than or equal to 80 characters")
	}

	occasion := strings.ToLower(strings.TrimSpace(req.Occasion))
	if occasion == "" {
		occasion = DefaultOccasion
	}
	if len(occasion) > maxOccasionLength {
		return domain.NormalizedInput{}, domain.NewValidationError("occasion", "occasion must be shorter than or equal to 80 characters")
	}

	city := strings.TrimSpace(req.City)
	if len(city) > maxCityLength {
		return domain.NormalizedInput{}, domain.NewValidationError("city", "city must be shorter than or equal to 80 characters")
	}

	if req.Latitude != nil && (*req.Latitude < -90 || *req.Latitude > 90) {
		return domain.NormalizedInput{}, domain.NewValidationError("latitude", "latitude must be between -90 and 90")
	}
	if req.Longitude != nil && (*req.Longitude < -180 || *req.Longitude > 180) {
		return domain.NormalizedInput{}, domain.NewValidationError("longitude", "longitude must be between -180 and 180")
	}

	fit := domain.FitPreference(strings.ToLower(strings.TrimSpace(req.FitPreference)))
	switch fit {
	case "", domain.FitOversize, domain.FitFitted, domain.FitRelaxed:
	default:
		return domain.NormalizedInput{}, domain.NewValidationError("fitPreference", "fitPreference must be one of: oversize, fitted, relaxed")
	}

	mode := domain.BudgetMode(strings.ToLower(strings.TrimSpace(req.BudgetMode)))
	if mode == "" {
		mode = domain.BudgetModeCheaper
	}
	switch mode {
	case domain.BudgetModeCheaper, domain.BudgetModePremium:
	case domain.BudgetModeCustom:
		if err := validateCustomBudget(req.BudgetMin, req.BudgetMax); err != nil {
			return domain.NormalizedInput{}, err
		}
	default:
		return domain.NormalizedInput{}, domain.NewValidationError("budgetMode", "budgetMode must be one of: cheaper, premium, custom")
	}

	return domain.NormalizedInput{
		StyleInput:    style,
		Style:         style,
		Occasion:      occasion,
		City:          city,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		BudgetMode:    mode,
		BudgetMin:     req.BudgetMin,
		BudgetMax:     req.BudgetMax,
		FitPreference: fit,
		PremiumOnly:   req.PremiumOnly,
		LuxuryOnly:    req.LuxuryOnly,
	}, nil
}

func validateCustomBudget(min, max *int) error {
	if min == nil || max == nil || *min == 0 || *max == 0 {
		return domain.NewValidationError("budget", "Custom budget requires min and max")
	}
	if *min < minCustomBudget || *min > maxCustomBudget {
		return domain.NewValidationError("budgetMin", "budgetMin must be between 30 and 10000")
	}
	if *max < minCustomCap || *max > maxCustomCap {
		return domain.NewValidationError("budgetMax", "budgetMax must be between 50 and 15000")
	}
	if *min > *max {
		return domain.NewValidationError("budgetMin", "budgetMin cannot be greater than budgetMax")
	}
	span := *max - *min
	if span < minCustomSpan {
		return domain.NewValidationError("budget", "Custom budget range is too narrow")
	}
	if span > maxCustomSpan {
		return domain.NewValidationError("budget", "Custom budget range is too wide")
	}
	return nil
}
