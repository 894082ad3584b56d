package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// catalogNamespace scopes deterministic brand and item ids
var catalogNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://outfitter.local/catalog"))

// Seeder populates an empty catalog with the built-in branded assortment
type Seeder struct {
	repo *Repository
	log  zerolog.Logger
}

// NewSeeder creates a catalog seeder
func NewSeeder(repo *Repository, log zerolog.Logger) *Seeder {
	return &Seeder{
		repo: repo,
		log:  log.With().Str("component", "catalog_seeder").Logger(),
	}
}

// SeedIfEmpty seeds the catalog when it holds no items.
// Returns the number of items written.
func (s *Seeder) SeedIfEmpty(ctx context.Context) (int, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.log.Debug().Int("items", count).Msg("Catalog already populated, skipping seed")
		return 0, nil
	}

	brands, items := BuildSeed()
	if err := s.repo.UpsertBatch(ctx, brands, items); err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}

	s.log.Info().
		Int("brands", len(brands)).
		Int("items", len(items)).
		Msg("Catalog seeded")

	return len(items), nil
}

// BuildSeed expands brands × categories × templates × variants × colorways into
// catalog rows. Output is deterministic.
func BuildSeed() ([]domain.Brand, []domain.CandidateItem) {
	brands := make([]domain.Brand, 0, len(seedBrands))
	var items []domain.CandidateItem

	for _, b := range seedBrands {
		brand := domain.Brand{
			ID:        BrandID(b.name),
			Name:      b.name,
			Tier:      b.tier,
			StyleTags: mergeTags(b.styleTags),
		}
		brands = append(brands, brand)

		for _, category := range domain.AllCategories {
			for _, template := range seedTemplates[category] {
				for _, variant := range seedVariants[category] {
					for _, colorway := range seedColorways {
						name := fmt.Sprintf("%s %s %s (%s)", b.name, variant.label, template.name, colorway)
						items = append(items, domain.CandidateItem{
							ID:            uuid.NewSHA1(catalogNamespace, []byte("item:"+name)).String(),
							Brand:         brand,
							Name:          name,
							Category:      category,
							Price:         seedPrice(b.name, category, variant.label, template.name, colorway, b.tier),
							Tier:          b.tier,
							StyleTags:     mergeTags(b.styleTags, template.styleTags, variant.styleTags),
							OccasionTags:  mergeTags(template.occasionTags),
							ReferenceLink: shoppingLink(b.name, category, name),
						})
					}
				}
			}
		}
	}

	return brands, items
}

// BrandID returns the deterministic id for a brand name
func BrandID(name string) string {
	return uuid.NewSHA1(catalogNamespace, []byte("brand:"+strings.ToLower(name))).String()
}

// seedPrice spreads prices over the tier/category range with a string hash
func seedPrice(brand string, category domain.Category, variant, template, colorway string, tier int) int {
	r := seedPriceRanges[tier][category]
	spread := uint32(r.max - r.min + 1)
	key := strings.Join([]string{brand, string(category), variant, template, colorway, fmt.Sprint(tier)}, "|")
	return r.min + int(hashString(key)%spread)
}

func hashString(input string) uint32 {
	var hash uint32
	for i := 0; i < len(input); i++ {
		hash = hash*31 + uint32(input[i])
	}
	return hash
}

func shoppingLink(brand string, category domain.Category, itemName string) string {
	query := fmt.Sprintf("%s %s %s buy", brand, itemName, category)
	return "https://www.google.com/search?tbm=shop&q=" + url.QueryEscape(query)
}

func mergeTags(groups ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, group := range groups {
		for _, tag := range group {
			normalized := strings.ToLower(strings.TrimSpace(tag))
			if normalized == "" || seen[normalized] {
				continue
			}
			seen[normalized] = true
			merged = append(merged, normalized)
		}
	}
	return merged
}
