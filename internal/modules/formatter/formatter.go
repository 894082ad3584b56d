// Package formatter turns a validated outfit into the product cards, text and
// score vector returned to callers.
package formatter

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
	"github.com/aristath/outfitter/internal/modules/weather"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Accepted resolved price window relative to the selected price
const (
	minPriceFactor = 0.45
	maxPriceFactor = 1.25
)

// CardResolver resolves display data for catalog items
type CardResolver interface {
	Resolve(ctx context.Context, item domain.CandidateItem, style string) ProductCard
}

// MediaBuilder turns an image source into a media object
type MediaBuilder interface {
	Build(ctx context.Context, sourceURL string) domain.MediaObject
}

// Formatter builds OutfitResults
type Formatter struct {
	cards   CardResolver
	media   MediaBuilder
	baseURL string
	now     func() time.Time
	log     zerolog.Logger
}

// NewFormatter creates a formatter
func NewFormatter(cards CardResolver, media MediaBuilder, publicBaseURL string, log zerolog.Logger) *Formatter {
	return &Formatter{
		cards:   cards,
		media:   media,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		now:     time.Now,
		log:     log.With().Str("component", "response_formatter").Logger(),
	}
}

// SetClock replaces the clock used for seasonality scoring
func (f *Formatter) SetClock(now func() time.Time) {
	f.now = now
}

// Format resolves every piece concurrently, recomputes the total from the
// final prices and attaches the explanation and scores.
func (f *Formatter) Format(ctx context.Context, pc domain.PipelineContext, outfit domain.SelectedOutfit) (*domain.OutfitResult, error) {
	items := outfit.Items()
	pieces := make([]domain.OutfitPiece, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			pieces[i] = f.mapPiece(gctx, pc, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to format outfit: %w", err)
	}

	weatherContext := weather.Summary(pc.Weather)
	result := &domain.OutfitResult{
		Top:            pieces[0],
		Bottom:         pieces[1],
		Shoes:          pieces[2],
		Outerwear:      pieces[3],
		Accessories:    append([]domain.OutfitPiece{}, pieces[4:]...),
		Style:          pc.Input.Style,
		WeatherContext: weatherContext,
		BudgetRange:    pc.Budget.Label,
		Explanation:    Explanation(pc, weatherContext),
	}
	for _, piece := range result.Pieces() {
		result.TotalPrice += piece.Price
	}
	result.Scores = CalculateScores(pc, result, f.now())

	return result, nil
}

func (f *Formatter) mapPiece(ctx context.Context, pc domain.PipelineContext, item domain.CandidateItem) domain.OutfitPiece {
	card := f.cards.Resolve(ctx, item, pc.Input.Style)

	brand := card.Brand
	if brand == "" {
		brand = item.Brand.Name
	}
	itemName := card.ItemName
	if itemName == "" {
		itemName = item.Name
	}

	tier := item.Tier
	if fashion.IsKnownBrand(brand) {
		tier = fashion.GetBrandMetadata(brand).Tier
	}

	price := AcceptedPrice(item.Price, card.Price)
	image := f.media.Build(ctx, card.ImageURL)

	return domain.OutfitPiece{
		Brand:         brand,
		Item:          itemName,
		Category:      item.Category,
		Price:         price,
		Tier:          tier,
		ReferenceLink: card.ReferenceLink,
		AffiliateLink: f.AffiliateLink(card.ReferenceLink, brand, itemName, price, pc.UserID),
		Image:         image,
		ImageURL:      image.Medium,
		StyleTags:     item.StyleTags,
	}
}

// AcceptedPrice keeps a resolved price only inside [floor(0.45p), ceil(1.25p)]
func AcceptedPrice(selected, resolved int) int {
	if resolved <= 0 {
		return selected
	}
	minAllowed := int(math.Floor(float64(selected) * minPriceFactor))
	maxAllowed := int(math.Ceil(float64(selected) * maxPriceFactor))
	if resolved < minAllowed || resolved > maxAllowed {
		return selected
	}
	return resolved
}

// AffiliateLink wraps a reference link in the affiliate redirect endpoint
func (f *Formatter) AffiliateLink(target, brand, item string, price int, userID string) string {
	params := [][2]string{
		{"target", target},
		{"brand", brand},
		{"item", item},
		{"price", strconv.Itoa(price)},
	}
	if userID != "" {
		params = append(params, [2]string{"uid", userID})
	}

	var b strings.Builder
	b.WriteString(f.baseURL)
	b.WriteString("/api/monetization/affiliate/redirect")
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p[0])
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p[1]))
	}
	return b.String()
}

// Explanation is the human-readable summary of the request context
func Explanation(pc domain.PipelineContext, weatherContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Look for %s (%s) under %s, adapted to %s.",
		pc.Input.Style, pc.Input.Occasion, pc.Budget.Label, weatherContext)

	if pc.Trend != nil && pc.Trend.TrendInfluenceCoefficient != 0 {
		fmt.Fprintf(&b, " Trend coeff %d/100 applied.", pc.Trend.TrendInfluenceCoefficient)
	}
	if pc.Personalization != nil {
		fmt.Fprintf(&b, " Adaptive index %d/100 used.", pc.Personalization.AdaptiveIndex)
	}
	if m := pc.Monetization; m != nil {
		switch {
		case m.LuxuryBias:
			b.WriteString(" Luxury bias mode active.")
		case m.PremiumOnly:
			b.WriteString(" Premium-only generation active.")
		}
	}

	return strings.TrimSpace(b.String())
}
