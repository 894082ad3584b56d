// Package redis connects to the optional external cache and queue broker.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	dialTimeout = 1500 * time.Millisecond
	pingTimeout = 2 * time.Second
)

// Options parses a redis:// URL or a bare host:port address
func Options(redisURL string) (*goredis.Options, error) {
	redisURL = strings.TrimSpace(redisURL)
	if redisURL == "" {
		return nil, fmt.Errorf("redis url is empty")
	}

	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := goredis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt.DialTimeout = dialTimeout
		opt.MaxRetries = 1
		return opt, nil
	}

	return &goredis.Options{Addr: redisURL, DialTimeout: dialTimeout, MaxRetries: 1}, nil
}

// Connect opens a client and pings it once. A failed ping returns the error
// and closes the client so callers can run without redis.
func Connect(ctx context.Context, redisURL string, log zerolog.Logger) (*goredis.Client, error) {
	opt, err := Options(redisURL)
	if err != nil {
		return nil, err
	}

	client := goredis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info().Str("client", "redis").Str("addr", opt.Addr).Msg("Redis connected")
	return client, nil
}

// Pinger reports redis reachability for health checks
type Pinger struct {
	client *goredis.Client
}

// NewPinger wraps a connected client
func NewPinger(client *goredis.Client) *Pinger {
	return &Pinger{client: client}
}

// Ping returns the ping error, if any
func (p *Pinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
