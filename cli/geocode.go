// ABOUTME: Geocoding CLI command
// ABOUTME: Resolves flagged record addresses through the cached BAN client and persists coordinates
package cli

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/notaires/config"
	"github.com/harperreed/notaires/geocode"
	"github.com/harperreed/notaires/sync"
)

// GeocodeCommand geocodes records that need coordinates.
func GeocodeCommand(ctx context.Context, store *sync.Store, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("geocode", flag.ContinueOnError)
	limit := fs.Int("limit", 0, "Max records to geocode (0 for all)")
	dryRun := fs.Bool("dry-run", false, "List records that need geocoding and exit")
	noCache := fs.Bool("no-cache", false, "Bypass the response cache")
	purge := fs.Bool("purge-cache", false, "Empty the response cache before running")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pending := geocode.Pending(store.GetRecords())
	if *dryRun {
		rows := make([][]string, 0, len(pending))
		for _, r := range pending {
			rows = append(rows, []string{r.ID, truncate(r.Name, 32), truncate(r.FullAddress(), 50)})
		}
		if len(rows) == 0 {
			_, _ = fmt.Fprintln(stdout, "Nothing to geocode")
			return nil
		}
		printTable([]string{"ID", "NAME", "ADDRESS"}, rows)
		return nil
	}
	if len(pending) == 0 {
		_, _ = fmt.Fprintln(stdout, "Nothing to geocode")
		return nil
	}

	logger := log.New(os.Stderr, "[geocode] ", log.LstdFlags)
	var g geocode.Geocoder = geocode.NewClient(geocode.ClientConfig{
		Endpoint:   cfg.GeocodeEndpoint,
		MaxRetries: 3,
		Logger:     logger,
	})

	if !*noCache {
		cache, err := geocode.OpenCache(cfg.GeocodeCacheDir, cfg.GeocodeCacheTTL.Std())
		if err != nil {
			return err
		}
		defer func() { _ = cache.Close() }()

		if *purge {
			if err := cache.Purge(); err != nil {
				return err
			}
		}
		g = geocode.NewCachedGeocoder(g, cache)
	}

	batcher := geocode.NewBatcher(g, geocode.BatchConfig{
		Delay:    cfg.GeocodeDelay.Std(),
		MinScore: cfg.GeocodeMinScore,
		Limit:    *limit,
		Logger:   logger,
	})

	sum, runErr := batcher.Run(ctx, store)

	// Persist whatever was resolved, even after an interruption.
	res := store.Flush(context.Background())
	if res.Failed+res.Dropped > 0 {
		warn("%d writes failed; run 'notaires status' for details", res.Failed+res.Dropped)
	}

	_, _ = fmt.Fprintf(stdout, "Geocoded %d records: %d ok, %d low score, %d failed, %d skipped (%d from cache)\n",
		sum.Total, sum.Resolved, sum.LowScore, sum.Failed, sum.Skipped, sum.Cached)
	return runErr
}
