// Package catalog stores branded items and retrieves ranked candidate pools.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/database"
	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
)

// Query filters catalog items. Zero values disable a filter.
type Query struct {
	Category domain.Category
	Style    string
	Occasion string
	MinPrice int
	MaxPrice int
	Tiers    []int
}

const itemColumns = `i.id, i.name, i.category, i.price, i.tier, i.style_tags, i.occasion_tags,
i.reference_link, i.image_url, b.id, b.name, b.tier, b.style_tags`

// Repository handles catalog database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new catalog repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "catalog").Logger(),
	}
}

// Find returns items matching the query ordered by tier then price.
// Style matches either the item's or the brand's style tags.
func (r *Repository) Find(ctx context.Context, q Query) ([]domain.CandidateItem, error) {
	var (
		where []string
		args  []interface{}
	)

	if q.Category != "" {
		where = append(where, "i.category = ?")
		args = append(args, string(q.Category))
	}
	if q.Style != "" {
		where = append(where, `(EXISTS (SELECT 1 FROM json_each(i.style_tags) WHERE value = ?)
			OR EXISTS (SELECT 1 FROM json_each(b.style_tags) WHERE value = ?))`)
		args = append(args, q.Style, q.Style)
	}
	if q.Occasion != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(i.occasion_tags) WHERE value = ?)")
		args = append(args, q.Occasion)
	}
	if q.MinPrice > 0 {
		where = append(where, "i.price >= ?")
		args = append(args, q.MinPrice)
	}
	if q.MaxPrice > 0 {
		where = append(where, "i.price <= ?")
		args = append(args, q.MaxPrice)
	}
	if len(q.Tiers) > 0 {
		placeholders := make([]string, len(q.Tiers))
		for i, tier := range q.Tiers {
			placeholders[i] = "?"
			args = append(args, tier)
		}
		where = append(where, "i.tier IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := "SELECT " + itemColumns + " FROM items i JOIN brands b ON b.id = i.brand_id"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.tier ASC, i.price ASC, i.id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog items: %w", err)
	}
	defer rows.Close()

	var items []domain.CandidateItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog items: %w", err)
	}

	return items, nil
}

// GetByID returns one item, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.CandidateItem, error) {
	query := "SELECT " + itemColumns + " FROM items i JOIN brands b ON b.id = i.brand_id WHERE i.id = ?"

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query item %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	item, err := scanItem(rows)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Brands lists every brand ordered by tier and name
func (r *Repository) Brands(ctx context.Context) ([]domain.Brand, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name, tier, style_tags FROM brands ORDER BY tier ASC, name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query brands: %w", err)
	}
	defer rows.Close()

	var brands []domain.Brand
	for rows.Next() {
		var (
			brand     domain.Brand
			styleTags string
		)
		if err := rows.Scan(&brand.ID, &brand.Name, &brand.Tier, &styleTags); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brand.StyleTags = decodeTags(styleTags)
		brands = append(brands, brand)
	}

	return brands, rows.Err()
}

// Count returns the number of items in the catalog
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// UpsertBrand inserts or updates a brand by id
func (r *Repository) UpsertBrand(ctx context.Context, brand domain.Brand) error {
	return upsertBrand(ctx, r.db, brand)
}

// Upsert inserts or updates a single item. The brand must exist.
func (r *Repository) Upsert(ctx context.Context, item domain.CandidateItem) error {
	return upsertItem(ctx, r.db, item)
}

// UpsertBatch writes brands and items in one transaction
func (r *Repository) UpsertBatch(ctx context.Context, brands []domain.Brand, items []domain.CandidateItem) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		for _, brand := range brands {
			if err := upsertBrand(ctx, tx, brand); err != nil {
				return err
			}
		}
		for _, item := range items {
			if err := upsertItem(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsertBrand(ctx context.Context, db execer, brand domain.Brand) error {
	if brand.ID == "" || brand.Name == "" {
		return errors.New("brand id and name are required")
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO brands (id, name, tier, style_tags, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, tier = excluded.tier, style_tags = excluded.style_tags`,
		brand.ID, brand.Name, brand.Tier, encodeTags(brand.StyleTags), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert brand %s: %w", brand.Name, err)
	}
	return nil
}

func upsertItem(ctx context.Context, db execer, item domain.CandidateItem) error {
	if item.ID == "" || item.Brand.ID == "" {
		return errors.New("item id and brand id are required")
	}

	now := time.Now().Unix()
	_, err := db.ExecContext(ctx, `
		INSERT INTO items (id, brand_id, name, category, price, tier, style_tags, occasion_tags,
			reference_link, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			brand_id = excluded.brand_id, name = excluded.name, category = excluded.category,
			price = excluded.price, tier = excluded.tier, style_tags = excluded.style_tags,
			occasion_tags = excluded.occasion_tags, reference_link = excluded.reference_link,
			image_url = excluded.image_url, updated_at = excluded.updated_at`,
		item.ID, item.Brand.ID, item.Name, string(item.Category), item.Price, item.Tier,
		encodeTags(item.StyleTags), encodeTags(item.OccasionTags), item.ReferenceLink, item.ImageURL,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", item.ID, err)
	}
	return nil
}

func scanItem(rows *sql.Rows) (domain.CandidateItem, error) {
	var (
		item                                     domain.CandidateItem
		category, styleTags, occasionTags, brand string
	)

	err := rows.Scan(
		&item.ID, &item.Name, &category, &item.Price, &item.Tier, &styleTags, &occasionTags,
		&item.ReferenceLink, &item.ImageURL, &item.Brand.ID, &item.Brand.Name, &item.Brand.Tier, &brand,
	)
	if err != nil {
		return item, fmt.Errorf("failed to scan catalog item: %w", err)
	}

	item.Category = domain.Category(category)
	item.StyleTags = decodeTags(styleTags)
	item.OccasionTags = decodeTags(occasionTags)
	item.Brand.StyleTags = decodeTags(brand)

	return item, nil
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil || tags == nil {
		return []string{}
	}
	return tags
}
