// ABOUTME: Address geocoding contract shared by the BAN client, the cache and the batcher
// ABOUTME: Resolves free-text French addresses to coordinates with a confidence score
package geocode

import (
	"context"
	"errors"
)

// ErrNoMatch is returned when the geocoder finds no candidate for an address.
var ErrNoMatch = errors.New("no geocoding match")

// Result is a resolved address.
type Result struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
	Score float64 `json:"score"`

	// Cached is set when the result came from the local cache.
	Cached bool `json:"-"`
}

// Geocoder resolves an address to a location.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (Result, error)
}
