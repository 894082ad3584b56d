// Package outfitcache caches finished outfits by request shape and user, in
// redis when available and in process otherwise.
package outfitcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aristath/outfitter/internal/domain"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// KeyPrefix namespaces cache keys in the external store
const KeyPrefix = "outfitter:ai:outfit:"

// DefaultTTL is the lifetime of a cached outfit in both tiers
const DefaultTTL = 5 * time.Minute

// ErrMiss is returned by External stores when a key is absent
var ErrMiss = errors.New("cache miss")

// External is the primary key-value tier
type External interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore adapts a go-redis client to External
type RedisStore struct {
	client *goredis.Client
}

// NewRedisStore wraps a redis client
func NewRedisStore(client *goredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get reads a raw value
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrMiss
	}
	return raw, err
}

// Set writes a raw value with expiry
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

type entry struct {
	value     *domain.OutfitResult
	expiresAt time.Time
}

// Stats are cumulative cache counters
type Stats struct {
	Hits           int64 `json:"hits"`
	Misses         int64 `json:"misses"`
	ExternalErrors int64 `json:"external_errors"`
	LocalEntries   int   `json:"local_entries"`
	ExternalTier   bool  `json:"external_tier"`
}

// Cache is the two-tier outfit cache
type Cache struct {
	external External
	ttl      time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu    sync.Mutex
	local map[string]entry

	hits           atomic.Int64
	misses         atomic.Int64
	externalErrors atomic.Int64
}

// New creates a cache. external may be nil for in-process only.
func New(external External, log zerolog.Logger) *Cache {
	return &Cache{
		external: external,
		ttl:      DefaultTTL,
		now:      time.Now,
		log:      log.With().Str("component", "outfit_cache").Logger(),
		local:    make(map[string]entry),
	}
}

// Get returns a cached outfit or nil. External failures fall through to the
// in-process tier and are never returned.
func (c *Cache) Get(ctx context.Context, req domain.OutfitRequest, userID string) *domain.OutfitResult {
	key := Key(req, userID)

	if c.external != nil {
		raw, err := c.external.Get(ctx, key)
		switch {
		case err == nil:
			var result domain.OutfitResult
			decodeErr := msgpack.Unmarshal(raw, &result)
			if decodeErr == nil {
				c.hits.Add(1)
				return &result
			}
			c.externalErrors.Add(1)
			c.log.Warn().Err(decodeErr).Str("key", key).Msg("Failed to decode cached outfit")
		case errors.Is(err, ErrMiss):
		default:
			c.externalErrors.Add(1)
			c.log.Warn().Err(err).Msg("External cache read failed, using in-process tier")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.local[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}
	if c.now().After(e.expiresAt) {
		delete(c.local, key)
		c.misses.Add(1)
		return nil
	}

	c.hits.Add(1)
	return e.value
}

// Set stores an outfit in both tiers
func (c *Cache) Set(ctx context.Context, req domain.OutfitRequest, userID string, result *domain.OutfitResult) {
	if result == nil {
		return
	}
	key := Key(req, userID)

	if c.external != nil {
		raw, err := msgpack.Marshal(result)
		if err != nil {
			c.log.Warn().Err(err).Msg("Failed to encode outfit for cache")
		} else if err := c.external.Set(ctx, key, raw, c.ttl); err != nil {
			c.externalErrors.Add(1)
			c.log.Warn().Err(err).Msg("External cache write failed, using in-process tier")
		}
	}

	c.mu.Lock()
	c.local[key] = entry{value: result, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// PurgeExpired drops expired in-process entries and returns how many were removed
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.local {
		if now.After(e.expiresAt) {
			delete(c.local, key)
			removed++
		}
	}
	return removed
}

// Stats returns a snapshot of the counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	size := len(c.local)
	c.mu.Unlock()

	return Stats{
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		ExternalErrors: c.externalErrors.Load(),
		LocalEntries:   size,
		ExternalTier:   c.external != nil,
	}
}

// keyShape fixes the field order of the hashed request. Results carry the
// user's affiliate id and personalization scores, so the user is part of it.
type keyShape struct {
	User        string   `json:"user,omitempty"`
	Style       string   `json:"style,omitempty"`
	Occasion    string   `json:"occasion,omitempty"`
	City        string   `json:"city,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
	BudgetMode  string   `json:"budgetMode,omitempty"`
	Min         *int     `json:"min,omitempty"`
	Max         *int     `json:"max,omitempty"`
	Fit         string   `json:"fit,omitempty"`
	PremiumOnly bool     `json:"premiumOnly"`
	LuxuryOnly  bool     `json:"luxuryOnly"`
}

// Key is the prefixed sha1 of the request shape and user. Anonymous
// requests share one entry per shape.
func Key(req domain.OutfitRequest, userID string) string {
	shape, _ := json.Marshal(keyShape{
		User:        userID,
		Style:       req.Style,
		Occasion:    req.Occasion,
		City:        req.City,
		Lat:         req.Latitude,
		Lon:         req.Longitude,
		BudgetMode:  req.BudgetMode,
		Min:         req.BudgetMin,
		Max:         req.BudgetMax,
		Fit:         req.FitPreference,
		PremiumOnly: req.PremiumOnly,
		LuxuryOnly:  req.LuxuryOnly,
	})
	sum := sha1.Sum(shape)
	return KeyPrefix + hex.EncodeToString(sum[:])
}
