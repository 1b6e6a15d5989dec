// ABOUTME: Web UI CLI command
// ABOUTME: Serves the read-only dashboard with follow-up logging until interrupted
package cli

import (
	"context"
	"flag"

	"github.com/harperreed/notaires/sync"
	"github.com/harperreed/notaires/web"
)

// WebCommand starts the web UI.
func WebCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	port := fs.Int("port", 8080, "Port to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := web.NewServer(store)
	if err != nil {
		return err
	}

	err = server.Start(ctx, *port)
	res := store.Flush(context.Background())
	if res.Failed+res.Dropped > 0 {
		warn("%d writes failed; run 'notaires status' for details", res.Failed+res.Dropped)
	}
	return err
}
