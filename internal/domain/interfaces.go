package domain

import (
	"context"
	"time"
)

// GenerationRecord is the slice of a persisted generation that trend analysis reads
type GenerationRecord struct {
	Style     string
	Result    *OutfitResult
	CreatedAt time.Time
}

// HistorySource exposes recent generations across all users.
// Implemented by the outfits repository; consumed by the trend service.
type HistorySource interface {
	RecentGenerations(ctx context.Context, since time.Time, limit int) ([]GenerationRecord, error)
}

// OutfitGenerator runs the composition pipeline for one request
type OutfitGenerator interface {
	GenerateOutfit(ctx context.Context, req OutfitRequest, opts GenerateOptions) (*OutfitResult, error)
}

// ProgressFunc receives pipeline step names as they start
type ProgressFunc func(step string)

// GenerateOptions carries the optional per-request context of a generation
type GenerateOptions struct {
	UserID          string
	Personalization *PersonalizationSignals
	Monetization    *MonetizationSignals
	Progress        ProgressFunc
}
