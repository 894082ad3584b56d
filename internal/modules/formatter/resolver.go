package formatter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
)

// ProductCard is the displayable data resolved for one catalog item.
// Price is zero when the resolver has no price of its own.
type ProductCard struct {
	Brand         string
	ItemName      string
	ReferenceLink string
	ImageURL      string
	Price         int
}

// ImageSearcher finds an image for a free-text query
type ImageSearcher interface {
	SearchImage(ctx context.Context, query string) (string, error)
}

var brandDomains = map[string]string{
	"Nike":           "nike.com",
	"Adidas":         "adidas.com",
	"Uniqlo":         "uniqlo.com",
	"COS":            "cos.com",
	"Arket":          "arket.com",
	"Levi's":         "levis.com",
	"Acne Studios":   "acnestudios.com",
	"A.P.C.":         "apcstore.com",
	"Off-White":      "off---white.com",
	"Jacquemus":      "jacquemus.com",
	"Ami Paris":      "amiparis.com",
	"Represent":      "representclo.com",
	"Balenciaga":     "balenciaga.com",
	"Prada":          "prada.com",
	"Saint Laurent":  "ysl.com",
	"Dior":           "dior.com",
	"Gucci":          "gucci.com",
	"Bottega Veneta": "bottegaveneta.com",
}

const defaultBrandDomain = "nike.com"

var categoryLabels = map[domain.Category]string{
	domain.CategoryTop:       "t-shirt",
	domain.CategoryBottom:    "pants",
	domain.CategoryShoes:     "sneakers",
	domain.CategoryOuterwear: "jacket",
	domain.CategoryAccessory: "accessory",
}

var defaultItemSuffixes = map[domain.Category]string{
	domain.CategoryTop:       "Essential Top",
	domain.CategoryBottom:    "Essential Bottom",
	domain.CategoryShoes:     "Sneakers",
	domain.CategoryOuterwear: "Jacket",
	domain.CategoryAccessory: "Accessory",
}

// ProductCardResolver builds product cards from catalog data, falling back to
// a shopping search link and an image search, then to the brand logo.
type ProductCardResolver struct {
	images ImageSearcher
	log    zerolog.Logger
}

// NewProductCardResolver creates a resolver. images may be nil.
func NewProductCardResolver(images ImageSearcher, log zerolog.Logger) *ProductCardResolver {
	return &ProductCardResolver{
		images: images,
		log:    log.With().Str("component", "product_card_resolver").Logger(),
	}
}

// Resolve returns the product card for an item
func (r *ProductCardResolver) Resolve(ctx context.Context, item domain.CandidateItem, style string) ProductCard {
	brand := item.Brand.Name
	itemName := strings.TrimSpace(item.Name)
	if itemName == "" {
		itemName = DefaultItemName(brand, item.Category)
	}
	query := SearchQuery(brand, itemName, item.Category, style)

	card := ProductCard{Brand: brand, ItemName: itemName}

	if isHTTPURL(item.ReferenceLink) {
		card.ReferenceLink = normalizeHTTPS(item.ReferenceLink)
	} else {
		card.ReferenceLink = ShoppingLink(query)
	}

	switch {
	case isHTTPURL(item.ImageURL):
		card.ImageURL = normalizeHTTPS(item.ImageURL)
	case strings.HasPrefix(item.ImageURL, "s3://"):
		card.ImageURL = item.ImageURL
	default:
		card.ImageURL = r.searchImage(ctx, query, brand)
	}

	return card
}

func (r *ProductCardResolver) searchImage(ctx context.Context, query, brand string) string {
	if r.images != nil {
		found, err := r.images.SearchImage(ctx, query)
		if err != nil {
			r.log.Debug().Err(err).Str("query", query).Msg("Image search failed, using brand logo")
		} else if found != "" {
			return found
		}
	}
	return BrandLogo(brand)
}

// SearchQuery is the free-text query used for links and image search
func SearchQuery(brand, itemName string, category domain.Category, style string) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s %s", brand, itemName, CategoryLabel(category), style))
}

// CategoryLabel is the shopping noun for a category
func CategoryLabel(category domain.Category) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return categoryLabels[domain.CategoryTop]
}

// DefaultItemName names an item when the catalog has no name for it
func DefaultItemName(brand string, category domain.Category) string {
	suffix, ok := defaultItemSuffixes[category]
	if !ok {
		suffix = defaultItemSuffixes[domain.CategoryTop]
	}
	return brand + " " + suffix
}

// ShoppingLink is a shopping search link for a query
func ShoppingLink(query string) string {
	return "https://www.google.com/search?tbm=shop&q=" + url.QueryEscape(query)
}

// BrandLogo is the logo image fallback for a brand
func BrandLogo(brand string) string {
	d, ok := brandDomains[brand]
	if !ok {
		d = defaultBrandDomain
	}
	return "https://logo.clearbit.com/" + d
}

func isHTTPURL(value string) bool {
	return strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")
}

func normalizeHTTPS(value string) string {
	if strings.HasPrefix(value, "http://") {
		return "https://" + strings.TrimPrefix(value, "http://")
	}
	return value
}
