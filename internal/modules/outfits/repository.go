// Package outfits records generations, feedback and saved outfits, and
// exposes generation to users through the pipeline or the job queue.
package outfits

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/outfitter/internal/database"
	"github.com/aristath/outfitter/internal/domain"
	"github.com/rs/zerolog"
)

const generationColumns = `id, user_id, style, occasion, budget_mode, budget_min, budget_max,
total_price, overall_score, request, result, created_at`

// Repository handles history database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "history").Logger(),
	}
}

// InsertGeneration appends one generation to the log
func (r *Repository) InsertGeneration(ctx context.Context, g domain.GenerationLog) error {
	request, err := json.Marshal(g.Request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	result, err := json.Marshal(g.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO generation_logs (`+generationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, g.ID, g.UserID, g.Style, g.Occasion, string(g.BudgetMode), nullInt(g.BudgetMin), nullInt(g.BudgetMax),
		g.TotalPrice, g.OverallScore, string(request), string(result), g.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert generation %s: %w", g.ID, err)
	}
	return nil
}

// GetGeneration returns one generation, or nil when it does not exist
func (r *Repository) GetGeneration(ctx context.Context, id string) (*domain.GenerationLog, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+generationColumns+" FROM generation_logs WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query generation %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	g, err := scanGeneration(rows)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// ListGenerations returns a user's most recent generations, newest first
func (r *Repository) ListGenerations(ctx context.Context, userID string, limit int) ([]domain.GenerationLog, error) {
	return r.queryGenerations(ctx, `
		SELECT `+generationColumns+` FROM generation_logs
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
}

// UserGenerations returns a user's generations since a point in time, newest first
func (r *Repository) UserGenerations(ctx context.Context, userID string, since time.Time, limit int) ([]domain.GenerationLog, error) {
	return r.queryGenerations(ctx, `
		SELECT `+generationColumns+` FROM generation_logs
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, since.Unix(), limit)
}

// RecentGenerations returns generations of every user since a point in time
func (r *Repository) RecentGenerations(ctx context.Context, since time.Time, limit int) ([]domain.GenerationRecord, error) {
	logs, err := r.queryGenerations(ctx, `
		SELECT `+generationColumns+` FROM generation_logs
		WHERE created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, since.Unix(), limit)
	if err != nil {
		return nil, err
	}

	records := make([]domain.GenerationRecord, len(logs))
	for i, g := range logs {
		records[i] = domain.GenerationRecord{Style: g.Style, Result: g.Result, CreatedAt: g.CreatedAt}
	}
	return records, nil
}

// DeleteGenerationsBefore removes generations older than the cutoff
func (r *Repository) DeleteGenerationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM generation_logs WHERE created_at < ?", cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old generations: %w", err)
	}
	return result.RowsAffected()
}

func (r *Repository) queryGenerations(ctx context.Context, query string, args ...interface{}) ([]domain.GenerationLog, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var logs []domain.GenerationLog
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return logs, nil
}

func scanGeneration(rows *sql.Rows) (domain.GenerationLog, error) {
	var (
		g                    domain.GenerationLog
		budgetMode           string
		budgetMin, budgetMax sql.NullInt64
		request, result      string
		createdAt            int64
	)
	err := rows.Scan(&g.ID, &g.UserID, &g.Style, &g.Occasion, &budgetMode, &budgetMin, &budgetMax,
		&g.TotalPrice, &g.OverallScore, &request, &result, &createdAt)
	if err != nil {
		return g, fmt.Errorf("failed to scan generation: %w", err)
	}

	g.BudgetMode = domain.BudgetMode(budgetMode)
	g.BudgetMin = intFromNull(budgetMin)
	g.BudgetMax = intFromNull(budgetMax)
	g.CreatedAt = time.Unix(createdAt, 0).UTC()

	if err := json.Unmarshal([]byte(request), &g.Request); err != nil {
		return g, fmt.Errorf("failed to unmarshal request of %s: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(result), &g.Result); err != nil {
		return g, fmt.Errorf("failed to unmarshal result of %s: %w", g.ID, err)
	}
	return g, nil
}

// InsertFeedback records one feedback event
func (r *Repository) InsertFeedback(ctx context.Context, ev domain.FeedbackEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback_events (id, user_id, generation_id, event_type, rating, style, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.UserID, ev.GenerationID, string(ev.Type), nullInt(ev.Rating), ev.Style, ev.Note, ev.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert feedback %s: %w", ev.ID, err)
	}
	return nil
}

// FeedbackEvents returns a user's feedback since a point in time, newest first
func (r *Repository) FeedbackEvents(ctx context.Context, userID string, since time.Time, limit int) ([]domain.FeedbackEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, generation_id, event_type, rating, style, note, created_at
		FROM feedback_events
		WHERE user_id = ? AND created_at >= ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, since.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var events []domain.FeedbackEvent
	for rows.Next() {
		var (
			ev        domain.FeedbackEvent
			eventType string
			rating    sql.NullInt64
			createdAt int64
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.GenerationID, &eventType, &rating, &ev.Style, &ev.Note, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		ev.Type = domain.FeedbackType(eventType)
		ev.Rating = intFromNull(rating)
		ev.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return events, nil
}

// InsertSaved bookmarks an outfit
func (r *Repository) InsertSaved(ctx context.Context, s domain.SavedOutfit) error {
	outfit, err := json.Marshal(s.Outfit)
	if err != nil {
		return fmt.Errorf("failed to marshal saved outfit: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO saved_outfits (id, user_id, generation_id, name, outfit, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.UserID, s.GenerationID, s.Name, string(outfit), s.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert saved outfit %s: %w", s.ID, err)
	}
	return nil
}

// ListSaved returns a user's saved outfits, newest first
func (r *Repository) ListSaved(ctx context.Context, userID string, limit int) ([]domain.SavedOutfit, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, generation_id, name, outfit, created_at
		FROM saved_outfits
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved outfits: %w", err)
	}
	defer rows.Close()

	var saved []domain.SavedOutfit
	for rows.Next() {
		var (
			s         domain.SavedOutfit
			outfit    string
			createdAt int64
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.GenerationID, &s.Name, &outfit, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan saved outfit: %w", err)
		}
		if err := json.Unmarshal([]byte(outfit), &s.Outfit); err != nil {
			return nil, fmt.Errorf("failed to unmarshal saved outfit %s: %w", s.ID, err)
		}
		s.CreatedAt = time.Unix(createdAt, 0).UTC()
		saved = append(saved, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved outfits: %w", err)
	}
	return saved, nil
}

// StyleProfile returns a user's profile, or nil when none exists
func (r *Repository) StyleProfile(ctx context.Context, userID string) (*domain.StyleProfile, error) {
	var (
		p                         domain.StyleProfile
		budgetMode                string
		avgMin, avgMax            sql.NullInt64
		favorites, styles, brands string
		lastGenerated             sql.NullInt64
		updatedAt                 int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, generation_count, preferred_budget_mode, avg_budget_min, avg_budget_max,
		       last_style, favorite_brands, style_stats, brand_stats, last_generated_at, updated_at
		FROM style_profiles WHERE user_id = ?
	`, userID).Scan(&p.UserID, &p.GenerationCount, &budgetMode, &avgMin, &avgMax,
		&p.LastStyle, &favorites, &styles, &brands, &lastGenerated, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query style profile %s: %w", userID, err)
	}

	p.PreferredBudgetMode = domain.BudgetMode(budgetMode)
	p.AvgBudgetMin = intFromNull(avgMin)
	p.AvgBudgetMax = intFromNull(avgMax)
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if lastGenerated.Valid {
		t := time.Unix(lastGenerated.Int64, 0).UTC()
		p.LastGeneratedAt = &t
	}
	if err := json.Unmarshal([]byte(favorites), &p.FavoriteBrands); err != nil {
		return nil, fmt.Errorf("failed to unmarshal favorite brands: %w", err)
	}
	if err := json.Unmarshal([]byte(styles), &p.StyleStats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal style stats: %w", err)
	}
	if err := json.Unmarshal([]byte(brands), &p.BrandStats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal brand stats: %w", err)
	}
	return &p, nil
}

// UpsertStyleProfile writes a user's profile
func (r *Repository) UpsertStyleProfile(ctx context.Context, p domain.StyleProfile) error {
	favorites, err := json.Marshal(nonNilStrings(p.FavoriteBrands))
	if err != nil {
		return fmt.Errorf("failed to marshal favorite brands: %w", err)
	}
	styles, err := json.Marshal(nonNilCounts(p.StyleStats))
	if err != nil {
		return fmt.Errorf("failed to marshal style stats: %w", err)
	}
	brands, err := json.Marshal(nonNilCounts(p.BrandStats))
	if err != nil {
		return fmt.Errorf("failed to marshal brand stats: %w", err)
	}

	var lastGenerated interface{}
	if p.LastGeneratedAt != nil {
		lastGenerated = p.LastGeneratedAt.Unix()
	}

	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO style_profiles (user_id, generation_count, preferred_budget_mode, avg_budget_min,
				avg_budget_max, last_style, favorite_brands, style_stats, brand_stats, last_generated_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(user_id) DO UPDATE SET
				generation_count = excluded.generation_count,
				preferred_budget_mode = excluded.preferred_budget_mode,
				avg_budget_min = excluded.avg_budget_min,
				avg_budget_max = excluded.avg_budget_max,
				last_style = excluded.last_style,
				favorite_brands = excluded.favorite_brands,
				style_stats = excluded.style_stats,
				brand_stats = excluded.brand_stats,
				last_generated_at = excluded.last_generated_at,
				updated_at = excluded.updated_at
		`, p.UserID, p.GenerationCount, string(p.PreferredBudgetMode), nullInt(p.AvgBudgetMin), nullInt(p.AvgBudgetMax),
			p.LastStyle, string(favorites), string(styles), string(brands), lastGenerated, p.UpdatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to upsert style profile %s: %w", p.UserID, err)
		}
		return nil
	})
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilCounts(v map[string]int) map[string]int {
	if v == nil {
		return map[string]int{}
	}
	return v
}
