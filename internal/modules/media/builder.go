// Package media turns image sources into deliverable media objects.
package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
)

// Variant names
const (
	VariantThumbnail = "thumbnail"
	VariantMedium    = "medium"
	VariantHighRes   = "high_res"
)

// Source labels on media objects
const (
	SourceValidated   = "validated"
	SourceExternal    = "external"
	SourcePlaceholder = "placeholder"
)

// DefaultSignedURLTTL is the presign expiry when none is configured
const DefaultSignedURLTTL = 900 * time.Second

// Presigner signs object storage reads
type Presigner interface {
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Builder produces MediaObjects for product cards
type Builder struct {
	baseURL   string
	presigner Presigner
	ttl       time.Duration
	log       zerolog.Logger
}

// NewBuilder creates a media builder. presigner may be nil when object
// storage is not configured.
func NewBuilder(publicBaseURL string, presigner Presigner, ttl time.Duration, log zerolog.Logger) *Builder {
	if ttl <= 0 {
		ttl = DefaultSignedURLTTL
	}
	return &Builder{
		baseURL:   strings.TrimRight(publicBaseURL, "/"),
		presigner: presigner,
		ttl:       ttl,
		log:       log.With().Str("component", "media_builder").Logger(),
	}
}

// Build resolves a source URL into thumbnail, medium and high-res variants
func (b *Builder) Build(ctx context.Context, sourceURL string) domain.MediaObject {
	switch {
	case b.isFirstParty(sourceURL):
		return domain.MediaObject{
			Thumbnail: sourceURL,
			Medium:    sourceURL,
			HighRes:   sourceURL,
			Source:    SourceValidated,
			Validated: true,
		}

	case strings.HasPrefix(sourceURL, "s3://"):
		if obj, ok := b.presigned(ctx, sourceURL); ok {
			return obj
		}
		return b.Placeholder()

	case isHTTPURL(sourceURL):
		return domain.MediaObject{
			Thumbnail: sourceURL,
			Medium:    sourceURL,
			HighRes:   sourceURL,
			Source:    SourceExternal,
			Validated: false,
		}
	}

	return b.Placeholder()
}

// Placeholder returns the placeholder media object
func (b *Builder) Placeholder() domain.MediaObject {
	return domain.MediaObject{
		Thumbnail: b.PlaceholderURL(VariantThumbnail),
		Medium:    b.PlaceholderURL(VariantMedium),
		HighRes:   b.PlaceholderURL(VariantHighRes),
		Source:    SourcePlaceholder,
		Validated: false,
	}
}

// PlaceholderURL is the first-party placeholder image for a variant
func (b *Builder) PlaceholderURL(variant string) string {
	return fmt.Sprintf("%s/api/media/placeholder?variant=%s", b.baseURL, variant)
}

func (b *Builder) presigned(ctx context.Context, sourceURL string) (domain.MediaObject, bool) {
	if b.presigner == nil {
		return domain.MediaObject{}, false
	}

	key := objectKey(sourceURL)
	if key == "" {
		return domain.MediaObject{}, false
	}

	urls := make(map[string]string, 3)
	for _, variant := range []string{VariantHighRes, VariantMedium, VariantThumbnail} {
		signed, err := b.presigner.PresignGet(ctx, key, b.ttl)
		if err != nil {
			b.log.Warn().Err(err).Str("key", key).Msg("Failed to presign media, using placeholder")
			return domain.MediaObject{}, false
		}
		urls[variant] = signed
	}

	return domain.MediaObject{
		Thumbnail: urls[VariantThumbnail],
		Medium:    urls[VariantMedium],
		HighRes:   urls[VariantHighRes],
		Source:    SourceValidated,
		Validated: true,
	}, true
}

func (b *Builder) isFirstParty(value string) bool {
	if !isHTTPURL(value) {
		return false
	}
	return strings.HasPrefix(value, b.baseURL+"/api/media/local") ||
		strings.HasPrefix(value, b.baseURL+"/api/media/placeholder")
}

// objectKey strips the s3://bucket/ prefix
func objectKey(s3URL string) string {
	rest := strings.TrimPrefix(s3URL, "s3://")
	idx := strings.Index(rest, "/")
	if idx < 0 {
		return ""
	}
	return rest[idx+1:]
}

func isHTTPURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}
