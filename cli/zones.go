// ABOUTME: Interest zone CLI commands
// ABOUTME: Lists, adds and removes the zones used by the radius filter
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/handlers"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/sync"
)

// ZonesCommand lists interest zones with the number of offices inside each.
func ZonesCommand(_ context.Context, store *sync.Store, _ []string) error {
	zones := store.GetInterestZones()
	if len(zones) == 0 {
		_, _ = fmt.Fprintln(stdout, "No interest zones")
		return nil
	}

	records := store.GetRecords()
	rows := make([][]string, 0, len(zones))
	for _, z := range zones {
		spec := models.DefaultFilterSpec()
		spec.OnlyInRadius = true
		spec.Zones = []models.InterestZone{z}

		population := "-"
		if z.Population != nil {
			population = fmt.Sprintf("%d", *z.Population)
		}

		rows = append(rows, []string{
			z.ID,
			z.Name,
			z.Region,
			fmt.Sprintf("%g km", z.RadiusKm),
			fmt.Sprintf("%.4f, %.4f", z.Latitude, z.Longitude),
			population,
			fmt.Sprintf("%d", len(filter.FilterRecords(records, spec, ""))),
		})
	}
	printTable([]string{"ID", "NAME", "REGION", "RADIUS", "CENTER", "POPULATION", "OFFICES"}, rows)
	return nil
}

// AddZoneCommand creates or replaces an interest zone.
func AddZoneCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("add-zone", flag.ContinueOnError)
	id := fs.String("id", "", "Zone ID (default: generated; an existing ID is replaced)")
	name := fs.String("name", "", "Zone name (required)")
	radius := fs.Float64("radius", 0, "Radius in km (required)")
	lat := fs.Float64("lat", 0, "Center latitude (required)")
	lon := fs.Float64("lon", 0, "Center longitude (required)")
	region := fs.String("region", "", "Region")
	population := fs.Int("population", -1, "Population")
	if err := fs.Parse(args); err != nil {
		return err
	}

	zone := models.InterestZone{
		ID:        strings.TrimSpace(*id),
		Name:      strings.TrimSpace(*name),
		RadiusKm:  *radius,
		Latitude:  *lat,
		Longitude: *lon,
		Region:    *region,
	}
	if zone.ID == "" {
		zone.ID = uuid.New().String()
	}
	if *population >= 0 {
		p := *population
		zone.Population = &p
	}
	if !models.IsValidInterestZoneStrict(&zone) {
		return fmt.Errorf("%w: name, positive --radius and a valid --lat/--lon are required", sync.ErrInvalidInterestZone)
	}

	zones := handlers.UpsertZone(store.GetInterestZones(), zone)
	if err := store.UpdateInterestZones(ctx, zones); err != nil {
		return err
	}
	success("Saved zone %s (%s)", zone.Name, zone.ID)
	return nil
}

// RemoveZoneCommand deletes an interest zone.
func RemoveZoneCommand(ctx context.Context, store *sync.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: remove-zone <id>")
	}

	zones, ok := handlers.RemoveZoneByID(store.GetInterestZones(), args[0])
	if !ok {
		return fmt.Errorf("%w: zone %s", sync.ErrNotFound, args[0])
	}
	if err := store.UpdateInterestZones(ctx, zones); err != nil {
		return err
	}
	success("Removed zone %s", args[0])
	return nil
}
