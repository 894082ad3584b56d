// Package openverse searches openly licensed images for product cards that
// carry no catalog imagery.
package openverse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/clientdata"
	"github.com/rs/zerolog"
)

const (
	pageSize      = 10
	minImageWidth = 300
	userAgent     = "outfitter/1.0 (product image lookup)"
)

type searchResponse struct {
	Results []struct {
		URL       string `json:"url"`
		Thumbnail string `json:"thumbnail"`
		Width     int    `json:"width"`
		Mature    bool   `json:"mature"`
	} `json:"results"`
}

type cachedImage struct {
	URL string `json:"url"`
}

// Client for api.openverse.org
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Openverse client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.openverse.org/v1/images/",
		client:    &http.Client{Timeout: 3500 * time.Millisecond},
		log:       log.With().Str("client", "openverse").Logger(),
		cacheRepo: cacheRepo,
	}
}

// SearchImage returns the best image URL for a query, or "" when nothing usable
// was found. Empty results are cached too.
func (c *Client) SearchImage(ctx context.Context, query string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if key == "" {
		return "", nil
	}

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(ctx, clientdata.TableImageSearch, key)
		if err == nil && data != nil {
			var cached cachedImage
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached.URL, nil
			}
		}
	}

	imageURL, err := c.search(ctx, key)
	if err != nil {
		if c.cacheRepo != nil {
			if data, staleErr := c.cacheRepo.Get(ctx, clientdata.TableImageSearch, key); staleErr == nil && data != nil {
				var cached cachedImage
				if json.Unmarshal(data, &cached) == nil {
					c.log.Warn().Err(err).Str("query", key).Msg("API failed, using stale cached image")
					return cached.URL, nil
				}
			}
		}
		return "", err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(ctx, clientdata.TableImageSearch, key, cachedImage{URL: imageURL}, clientdata.TTLImageSearch); err != nil {
			c.log.Warn().Err(err).Str("query", key).Msg("Failed to cache image search")
		}
	}

	return imageURL, nil
}

func (c *Client) search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page_size", fmt.Sprintf("%d", pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return pickImage(payload), nil
}

// pickImage prefers a large non-mature original, then any thumbnail
func pickImage(payload searchResponse) string {
	for _, result := range payload.Results {
		if !result.Mature && result.Width >= minImageWidth && isHTTP(result.URL) {
			return result.URL
		}
	}
	for _, result := range payload.Results {
		if isHTTP(result.Thumbnail) {
			return result.Thumbnail
		}
	}
	return ""
}

func isHTTP(raw string) bool {
	return strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://")
}
