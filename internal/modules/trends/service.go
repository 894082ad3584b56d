// Package trends derives recency-weighted style and brand momentum from the
// generation history.
package trends

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	"github.com/aristath/outfitter/internal/modules/fashion"
	"github.com/rs/zerolog"
)

// History window and cache settings
const (
	Lookback     = 30 * 24 * time.Hour
	HistoryLimit = 500
	CacheTTL     = 10 * time.Minute

	topStyles         = 6
	recencyHorizon    = 45.0
	recencyFloor      = 0.2
	confidenceBase    = 55.0
	confidenceSpan    = 45.0
	alignedBase       = 82
	unalignedBase     = 58
	alignedHitBonus   = 4
	trendScoreWeight  = 0.75
	seasonShiftWeight = 0.25
)

// Neutral values returned when history cannot be read
const (
	DefaultStyleTrendScore    = 60
	DefaultSeasonalShiftScore = 58
	DefaultInfluence          = 59
)

var seasonalStyles = map[fashion.Season][]string{
	fashion.SeasonWinter: {"goth", "minimal", "streetwear", "old money"},
	fashion.SeasonSpring: {"smart casual", "minimal", "vintage"},
	fashion.SeasonSummer: {"y2k", "streetwear", "casual", "minimal"},
	fashion.SeasonAutumn: {"vintage", "goth", "techwear", "smart casual"},
}

type cacheEntry struct {
	snapshot  domain.TrendSnapshot
	expiresAt time.Time
}

// Service computes and caches trend snapshots per style
type Service struct {
	history domain.HistorySource
	now     func() time.Time
	log     zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewService creates a trend service. history may be nil, in which case
// every snapshot is the neutral default.
func NewService(history domain.HistorySource, log zerolog.Logger) *Service {
	return &Service{
		history: history,
		now:     time.Now,
		log:     log.With().Str("component", "trend_intelligence").Logger(),
		cache:   make(map[string]cacheEntry),
	}
}

// SetClock overrides the time source
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Snapshot returns the trend snapshot for a style. It never fails.
func (s *Service) Snapshot(ctx context.Context, style string) domain.TrendSnapshot {
	key := strings.ToLower(strings.TrimSpace(style))
	now := s.now()

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok && entry.expiresAt.After(now) {
		s.mu.Unlock()
		return entry.snapshot
	}
	s.mu.Unlock()

	snapshot := s.compute(ctx, key, now)

	s.mu.Lock()
	s.cache[key] = cacheEntry{snapshot: snapshot, expiresAt: now.Add(CacheTTL)}
	s.mu.Unlock()

	return snapshot
}

// Invalidate drops every cached snapshot
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[string]cacheEntry)
	s.mu.Unlock()
}

func (s *Service) compute(ctx context.Context, style string, now time.Time) domain.TrendSnapshot {
	if s.history == nil {
		return Default(style, now)
	}

	records, err := s.history.RecentGenerations(ctx, now.Add(-Lookback), HistoryLimit)
	if err != nil {
		s.log.Warn().Err(err).Str("style", style).Msg("Trend snapshot fallback")
		return Default(style, now)
	}

	return Compute(style, records, now)
}

// Default is the neutral snapshot
func Default(style string, now time.Time) domain.TrendSnapshot {
	return domain.TrendSnapshot{
		Style:                     style,
		TrendingStyles:            []string{},
		HighConfidenceStyles:      []string{},
		StyleTrendScore:           DefaultStyleTrendScore,
		SeasonalShiftScore:        DefaultSeasonalShiftScore,
		TrendInfluenceCoefficient: DefaultInfluence,
		BrandWeights:              map[string]float64{},
		GeneratedAt:               now,
	}
}

// weighted accumulates values keyed by name
type weighted struct {
	values map[string]float64
}

func newWeighted() *weighted {
	return &weighted{values: make(map[string]float64)}
}

func (w *weighted) add(key string, v float64) {
	w.values[key] += v
}

// ranked returns keys by descending value; ties break by key ascending
func (w *weighted) ranked() []string {
	keys := make([]string, 0, len(w.values))
	for key := range w.values {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		vi, vj := w.values[keys[i]], w.values[keys[j]]
		if vi != vj {
			return vi > vj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Compute builds a snapshot from history records
func Compute(style string, records []domain.GenerationRecord, now time.Time) domain.TrendSnapshot {
	styleWeights := newWeighted()
	confidence := newWeighted()
	brandWeights := newWeighted()

	for _, rec := range records {
		ageDays := math.Max(0, now.Sub(rec.CreatedAt).Hours()/24)
		recency := math.Max(recencyFloor, 1-ageDays/recencyHorizon)
		styleWeights.add(rec.Style, recency)

		overall := 0
		if rec.Result != nil {
			overall = rec.Result.Scores.Overall
		}
		boost := math.Max(0, float64(overall)-confidenceBase) / confidenceSpan
		confidence.add(rec.Style, boost)

		if rec.Result == nil {
			continue
		}
		for _, piece := range rec.Result.Core() {
			if piece.Brand != "" {
				brandWeights.add(piece.Brand, recency*(1+boost))
			}
		}
	}

	rankedStyles := styleWeights.ranked()
	trending := head(rankedStyles, topStyles)
	highConfidence := head(confidence.ranked(), topStyles)

	maxStyle := 1.0
	if len(rankedStyles) > 0 {
		maxStyle = styleWeights.values[rankedStyles[0]]
	}
	styleTrend := fashion.Clamp(styleWeights.values[style] / maxStyle * 100)
	seasonal := SeasonalShift(style, trending, now)
	influence := fashion.Clamp(float64(styleTrend)*trendScoreWeight + float64(seasonal)*seasonShiftWeight)

	maxBrand := 1.0
	for _, v := range brandWeights.values {
		maxBrand = math.Max(maxBrand, v)
	}
	brands := make(map[string]float64, len(brandWeights.values))
	for brand, v := range brandWeights.values {
		brands[brand] = float64(fashion.Clamp(v/maxBrand*100)) / 100
	}

	return domain.TrendSnapshot{
		Style:                     style,
		TrendingStyles:            trending,
		HighConfidenceStyles:      highConfidence,
		StyleTrendScore:           styleTrend,
		SeasonalShiftScore:        seasonal,
		TrendInfluenceCoefficient: influence,
		BrandWeights:              brands,
		GeneratedAt:               now,
	}
}

// SeasonalShift scores how well a style and the trending set align with the season
func SeasonalShift(style string, trending []string, now time.Time) int {
	aligned := seasonalStyles[fashion.SeasonFor(now)]

	hits := 0
	for _, s := range trending {
		if contains(aligned, s) {
			hits++
		}
	}

	base := unalignedBase
	if contains(aligned, style) {
		base = alignedBase
	}
	return fashion.Clamp(float64(base + hits*alignedHitBonus))
}

func head(values []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	return append([]string{}, values...)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
