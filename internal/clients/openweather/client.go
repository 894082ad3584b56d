// Package openweather provides current-conditions lookups against the
// OpenWeatherMap API with a persistent response cache.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/outfitter/internal/clientdata"
	"github.com/rs/zerolog"
)

// ErrNoLocation is returned when a lookup carries neither coordinates nor a city
var ErrNoLocation = errors.New("no location provided")

// Lookup identifies where to fetch conditions for. Coordinates win over city
// when both latitude and longitude are set.
type Lookup struct {
	City      string
	Latitude  *float64
	Longitude *float64
}

// HasCoordinates reports whether both coordinates are present
func (l Lookup) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

func (l Lookup) cacheKey() string {
	if l.HasCoordinates() {
		return fmt.Sprintf("geo:%.3f,%.3f", *l.Latitude, *l.Longitude)
	}
	return "q:" + strings.ToLower(strings.TrimSpace(l.City))
}

// Current is the subset of the provider payload the service uses
type Current struct {
	Name         string  `json:"name"`
	Condition    string  `json:"condition"`
	TemperatureC float64 `json:"temperature_c"`
}

// apiResponse mirrors the provider payload. Pointers distinguish missing fields.
type apiResponse struct {
	Name    *string `json:"name"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main *struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

// Client for api.openweathermap.org
type Client struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new OpenWeatherMap client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	return &Client{
		baseURL:   "https://api.openweathermap.org/data/2.5/weather",
		apiKey:    apiKey,
		client:    &http.Client{Timeout: 5 * time.Second},
		log:       log.With().Str("client", "openweather").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Enabled reports whether an API key is configured
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Current fetches current conditions with cache.
// If the API fails, returns stale cached data if available.
func (c *Client) Current(ctx context.Context, lookup Lookup) (*Current, error) {
	if !lookup.HasCoordinates() && strings.TrimSpace(lookup.City) == "" {
		return nil, ErrNoLocation
	}

	key := lookup.cacheKey()

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(ctx, clientdata.TableWeather, key)
		if err == nil && data != nil {
			var cached Current
			if err := json.Unmarshal(data, &cached); err == nil {
				c.log.Debug().Str("location", key).Msg("Cache hit")
				return &cached, nil
			}
		}
	}

	current, err := c.fetch(ctx, lookup)
	if err != nil {
		if stale, ok := c.getStaleFromCache(ctx, key); ok {
			c.log.Warn().Err(err).Str("location", key).Msg("API failed, using stale cached weather")
			return stale, nil
		}
		return nil, err
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(ctx, clientdata.TableWeather, key, current, clientdata.TTLWeather); err != nil {
			c.log.Warn().Err(err).Str("location", key).Msg("Failed to cache weather")
		}
	}

	c.log.Debug().
		Str("location", current.Name).
		Float64("temp_c", current.TemperatureC).
		Str("condition", current.Condition).
		Msg("Fetched weather")

	return current, nil
}

func (c *Client) fetch(ctx context.Context, lookup Lookup) (*Current, error) {
	params := url.Values{}
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	if lookup.HasCoordinates() {
		params.Set("lat", strconv.FormatFloat(*lookup.Latitude, 'f', -1, 64))
		params.Set("lon", strconv.FormatFloat(*lookup.Longitude, 'f', -1, 64))
	} else {
		params.Set("q", strings.TrimSpace(lookup.City))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return payload.toCurrent(lookup.City), nil
}

func (p apiResponse) toCurrent(city string) *Current {
	current := &Current{Condition: "Unknown", TemperatureC: 18}

	if len(p.Weather) > 0 && p.Weather[0].Main != "" {
		current.Condition = p.Weather[0].Main
	}
	if p.Main != nil && p.Main.Temp != nil {
		current.TemperatureC = *p.Main.Temp
	}

	switch {
	case p.Name != nil && *p.Name != "":
		current.Name = *p.Name
	case strings.TrimSpace(city) != "":
		current.Name = strings.TrimSpace(city)
	default:
		current.Name = "Unknown"
	}

	return current
}

func (c *Client) getStaleFromCache(ctx context.Context, key string) (*Current, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	data, err := c.cacheRepo.Get(ctx, clientdata.TableWeather, key)
	if err != nil || data == nil {
		return nil, false
	}

	var cached Current
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	return &cached, true
}
