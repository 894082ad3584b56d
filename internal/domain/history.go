package domain

import "time"

// GenerationLog is one persisted generation
type GenerationLog struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	Style        string        `json:"style"`
	Occasion     string        `json:"occasion"`
	BudgetMode   BudgetMode    `json:"budget_mode"`
	BudgetMin    *int          `json:"budget_min,omitempty"`
	BudgetMax    *int          `json:"budget_max,omitempty"`
	TotalPrice   int           `json:"total_price"`
	OverallScore int           `json:"overall_score"`
	Request      OutfitRequest `json:"request"`
	Result       *OutfitResult `json:"result"`
	CreatedAt    time.Time     `json:"created_at"`
}

// FeedbackType classifies a feedback event
type FeedbackType string

const (
	FeedbackRating     FeedbackType = "rating"
	FeedbackSave       FeedbackType = "save"
	FeedbackRegenerate FeedbackType = "regenerate"
)

// FeedbackEvent is a user reaction to a generated outfit
type FeedbackEvent struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	GenerationID string       `json:"generation_id,omitempty"`
	Type         FeedbackType `json:"event_type"`
	Rating       *int         `json:"rating,omitempty"`
	Style        string       `json:"style,omitempty"`
	Note         string       `json:"note,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// SavedOutfit is an outfit bookmarked by a user
type SavedOutfit struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	GenerationID string       `json:"generation_id,omitempty"`
	Name         string       `json:"name"`
	Outfit       OutfitResult `json:"outfit"`
	CreatedAt    time.Time    `json:"created_at"`
}

// StyleProfile is the rolling per-user summary maintained after each generation
type StyleProfile struct {
	UserID              string         `json:"user_id"`
	GenerationCount     int            `json:"generation_count"`
	PreferredBudgetMode BudgetMode     `json:"preferred_budget_mode,omitempty"`
	AvgBudgetMin        *int           `json:"avg_budget_min,omitempty"`
	AvgBudgetMax        *int           `json:"avg_budget_max,omitempty"`
	LastStyle           string         `json:"last_style,omitempty"`
	FavoriteBrands      []string       `json:"favorite_brands"`
	StyleStats          map[string]int `json:"style_stats"`
	BrandStats          map[string]int `json:"brand_stats"`
	LastGeneratedAt     *time.Time     `json:"last_generated_at,omitempty"`
	UpdatedAt           time.Time      `json:"updated_at"`
}
