// Package monetization derives subscription-driven ranking boosts and
// entitlement checks from the caller's subscription tier.
package monetization

import (
	"errors"
	"strings"

	"github.com/aristath/outfitter/internal/domain"
)

// Tier is a subscription tier as asserted by the upstream gateway
type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Boost levels
const (
	luxuryMarginBoost   = 0.9
	premiumMarginBoost  = 0.65
	standardMarginBoost = 0.35

	premiumConversionBoost  = 0.72
	standardConversionBoost = 0.48
)

// Entitlement errors
var (
	ErrLuxuryRequiresPremium  = errors.New("luxury-only mode requires premium subscription")
	ErrPremiumOnlyRequiresSub = errors.New("premium-only generation requires premium subscription")
)

// ParseTier maps a header value to a tier; anything unknown is free
func ParseTier(value string) Tier {
	if strings.EqualFold(strings.TrimSpace(value), string(TierPremium)) {
		return TierPremium
	}
	return TierFree
}

// Authorize rejects request flags the tier does not unlock
func Authorize(tier Tier, luxuryOnly, premiumOnly bool) error {
	if tier == TierPremium {
		return nil
	}
	if luxuryOnly {
		return ErrLuxuryRequiresPremium
	}
	if premiumOnly {
		return ErrPremiumOnlyRequiresSub
	}
	return nil
}

// Signals builds the ranking boosts for one generation. Premium subscribers
// always carry the luxury bias.
func Signals(tier Tier, luxuryOnly, premiumOnly bool) domain.MonetizationSignals {
	isPremium := tier == TierPremium
	luxuryBias := luxuryOnly || isPremium

	margin := standardMarginBoost
	switch {
	case luxuryBias:
		margin = luxuryMarginBoost
	case isPremium:
		margin = premiumMarginBoost
	}

	conversion := standardConversionBoost
	if isPremium {
		conversion = premiumConversionBoost
	}

	return domain.MonetizationSignals{
		AffiliateAware:  true,
		LuxuryBias:      luxuryBias,
		PremiumOnly:     premiumOnly,
		HighMarginBoost: margin,
		ConversionBoost: conversion,
	}
}
