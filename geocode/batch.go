// ABOUTME: Serial batch geocoding of records that lack coordinates
// ABOUTME: Records every attempt in the record history and persists through the store
package geocode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/sync"
	"github.com/oklog/ulid/v2"
)

// RecordStore is the part of the sync store the batcher needs.
type RecordStore interface {
	GetRecords() []models.Record
	GetRecordByID(id string) (models.Record, bool)
	UpdateRecord(ctx context.Context, rec models.Record) (*sync.PendingWrite, error)
}

// BatchConfig holds batcher settings.
type BatchConfig struct {
	Delay    time.Duration
	MinScore float64
	Limit    int
	Logger   *log.Logger
	Now      func() time.Time
}

// Summary reports the outcome of a batch run.
type Summary struct {
	Total    int `json:"total"`
	Resolved int `json:"resolved"`
	LowScore int `json:"low_score"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	Cached   int `json:"cached"`
}

// Batcher geocodes records one at a time, pausing between remote lookups.
type Batcher struct {
	geocoder Geocoder
	cfg      BatchConfig
}

// NewBatcher creates a batcher using g.
func NewBatcher(g Geocoder, cfg BatchConfig) *Batcher {
	if cfg.MinScore <= 0 {
		cfg.MinScore = 0.5
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Batcher{geocoder: g, cfg: cfg}
}

// Pending returns the records that need geocoding.
func Pending(records []models.Record) []models.Record {
	var out []models.Record
	for _, r := range records {
		if r.NeedsGeocoding || !r.HasCoordinates() {
			out = append(out, r)
		}
	}
	return out
}

// Run geocodes every pending record and persists the results. It stops early
// when ctx is cancelled.
func (b *Batcher) Run(ctx context.Context, store RecordStore) (Summary, error) {
	pending := Pending(store.GetRecords())
	if b.cfg.Limit > 0 && len(pending) > b.cfg.Limit {
		pending = pending[:b.cfg.Limit]
	}

	var sum Summary
	sum.Total = len(pending)

	lookedUp := false
	for _, rec := range pending {
		address := rec.FullAddress()
		if address == "" {
			sum.Skipped++
			continue
		}

		if lookedUp && b.cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(b.cfg.Delay):
			}
		}

		res, err := b.geocoder.Resolve(ctx, address)
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		lookedUp = err != nil || !res.Cached

		// The lookup may take a while; apply to the current record, not the snapshot.
		fresh, ok := store.GetRecordByID(rec.ID)
		if !ok || fresh.FullAddress() != address {
			b.cfg.Logger.Printf("skipping geocode for %s: record removed or address changed", rec.ID)
			sum.Skipped++
			continue
		}

		b.apply(&fresh, address, res, err, &sum)
		if _, err := store.UpdateRecord(ctx, fresh); err != nil {
			return sum, fmt.Errorf("failed to save geocode for %s: %w", rec.ID, err)
		}
	}

	b.cfg.Logger.Printf("geocoded %d records: %d ok, %d low score, %d failed, %d skipped",
		sum.Total, sum.Resolved, sum.LowScore, sum.Failed, sum.Skipped)
	return sum, nil
}

func (b *Batcher) apply(rec *models.Record, address string, res Result, err error, sum *Summary) {
	attempt := models.GeocodeAttempt{
		ID:    ulid.Make().String(),
		At:    b.cfg.Now(),
		Query: address,
	}

	switch {
	case err != nil:
		attempt.Status = models.GeocodeFailed
		attempt.Error = err.Error()
		rec.GeocodeStatus = models.GeocodeFailed
		sum.Failed++
		if !errors.Is(err, ErrNoMatch) {
			b.cfg.Logger.Printf("geocode failed for %s: %v", rec.ID, err)
		}
	default:
		if res.Cached {
			sum.Cached++
		}
		attempt.Label = res.Label
		attempt.Score = res.Score
		rec.Latitude = res.Lat
		rec.Longitude = res.Lon
		rec.GeocodeScore = res.Score
		rec.NeedsGeocoding = false
		if res.Score < b.cfg.MinScore {
			attempt.Status = models.GeocodeLowScore
			sum.LowScore++
		} else {
			attempt.Status = models.GeocodeOK
			sum.Resolved++
		}
		rec.GeocodeStatus = attempt.Status
	}

	rec.GeocodeHistory = append(rec.GeocodeHistory, attempt)
}
