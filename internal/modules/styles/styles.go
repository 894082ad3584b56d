// Package styles maps free-text style input to canonical style profiles.
package styles

import (
	"strings"

	"github.com/rs/zerolog"
)

// DefaultStyle is used whenever the input matches no alias
const DefaultStyle = "minimal"

// Profile is a canonical style
type Profile struct {
	Canonical      string   `json:"style"`
	Aliases        []string `json:"aliases"`
	PreferredTiers []int    `json:"preferredTiers"`
	PaletteHint    string   `json:"paletteHint"`
	Description    string   `json:"description"`
}

var profiles = []Profile{
	{
		Canonical:      "streetwear",
		Aliases:        []string{"streetwear", "urban", "oversize", "hype"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "neutrals + accent color",
		Description:    "Oversized silhouettes, graphic tees and statement sneakers.",
	},
	{
		Canonical:      "minimal",
		Aliases:        []string{"minimal", "minimalist", "clean"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "black, white, gray, beige",
		Description:    "Clean lines, muted palette and quality basics.",
	},
	{
		Canonical:      "old money",
		Aliases:        []string{"old money", "quiet luxury", "classic luxury"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "navy, cream, camel, olive",
		Description:    "Understated heritage pieces with tailored structure.",
	},
	{
		Canonical:      "luxury",
		Aliases:        []string{"luxury", "designer", "premium luxury"},
		PreferredTiers: []int{2, 3},
		PaletteHint:    "monochrome with rich textures",
		Description:    "Designer houses, rich materials and monochrome looks.",
	},
	{
		Canonical:      "techwear",
		Aliases:        []string{"techwear", "technical", "gorpcore"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "graphite, black, utility tones",
		Description:    "Technical fabrics, utility pockets and weatherproof layers.",
	},
	{
		Canonical:      "business",
		Aliases:        []string{"business", "office", "formal"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "navy, gray, black",
		Description:    "Sharp tailoring for the office and formal settings.",
	},
	{
		Canonical:      "vintage",
		Aliases:        []string{"vintage", "retro"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "washed denim, brown, muted tones",
		Description:    "Washed denim, retro cuts and archive-inspired pieces.",
	},
	{
		Canonical:      "y2k",
		Aliases:        []string{"y2k", "2000s"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "silver, black, bold contrast",
		Description:    "Early-2000s energy with bold contrast and metallics.",
	},
	{
		Canonical:      "smart casual",
		Aliases:        []string{"smart casual", "smart-casual"},
		PreferredTiers: []int{1, 2, 3},
		PaletteHint:    "earth tones + clean neutrals",
		Description:    "Relaxed tailoring that works from desk to dinner.",
	},
	{
		Canonical:      "goth",
		Aliases:        []string{"goth", "dark", "gothic"},
		PreferredTiers: []int{2, 3},
		PaletteHint:    "black, charcoal, oxblood",
		Description:    "Dark palette, layered textures and sharp silhouettes.",
	},
	{
		Canonical:      "avant-garde",
		Aliases:        []string{"avant-garde", "avantgarde", "experimental"},
		PreferredTiers: []int{2, 3},
		PaletteHint:    "mono tones + sculptural accents",
		Description:    "Sculptural shapes and experimental construction.",
	},
}

// Resolver classifies style input into canonical profiles
type Resolver struct {
	byAlias map[string]Profile
	log     zerolog.Logger
}

// NewResolver creates a style resolver over the built-in profile table
func NewResolver(log zerolog.Logger) *Resolver {
	byAlias := make(map[string]Profile)
	for _, p := range profiles {
		for _, alias := range p.Aliases {
			byAlias[alias] = p
		}
	}
	return &Resolver{
		byAlias: byAlias,
		log:     log.With().Str("component", "style_resolver").Logger(),
	}
}

// Classify resolves free-text input to a canonical profile. Unknown input
// resolves to the minimal profile; classification never fails.
func (r *Resolver) Classify(input string) Profile {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if p, ok := r.byAlias[normalized]; ok {
		return p
	}
	r.log.Debug().Str("input", normalized).Msg("Unknown style, using default")
	return r.byAlias[DefaultStyle]
}

// List returns every canonical profile in table order
func (r *Resolver) List() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Featured returns the canonical style names
func (r *Resolver) Featured() []string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = p.Canonical
	}
	return names
}
