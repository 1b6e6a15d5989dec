// ABOUTME: Visualization CLI commands
// ABOUTME: Handles the dashboard and the zone coverage graph
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/notaires/sync"
	"github.com/harperreed/notaires/viz"
)

// DashboardCommand prints status and outreach overview.
func DashboardCommand(_ context.Context, store *sync.Store, _ []string) error {
	stats := viz.GenerateDashboardStats(store.GetRecords(), store.GetInterestZones(), time.Now())
	_, _ = fmt.Fprint(stdout, viz.RenderDashboard(stats))
	return nil
}

// GraphCommand generates the zone coverage graph.
func GraphCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("graph", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dot, err := viz.GenerateZoneGraph(ctx, store.GetRecords(), store.GetInterestZones())
	if err != nil {
		return err
	}

	if *output != "" {
		return os.WriteFile(*output, []byte(dot), 0644)
	}

	_, _ = fmt.Fprintln(stdout, dot)
	return nil
}
