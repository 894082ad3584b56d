package clientdata

import "time"

// TTL constants for cached client responses.
const (
	TTLWeather     = 15 * time.Minute // current conditions drift quickly
	TTLImageSearch = 12 * time.Hour   // product imagery is stable
)
