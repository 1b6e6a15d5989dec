// ABOUTME: Sync CLI commands
// ABOUTME: Handles OAuth setup, store status, forced resync and the watch loop
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/notaires/remote"
	"github.com/harperreed/notaires/sync"
)

// AuthCommand runs the OAuth flow and stores the Sheets token.
func AuthCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("auth", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	config, err := remote.CheckCredentials()
	if err != nil {
		return err
	}

	// Start local server for OAuth callback
	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := config.Exchange(ctx, code)
		if err != nil {
			errChan <- fmt.Errorf("failed to exchange code: %w", err)
			return
		}

		callbackChan <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":8080", Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)

	_, _ = fmt.Fprintln(stdout, "Opening browser for Google OAuth...")
	_, _ = fmt.Fprintf(stdout, "\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)

	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		_ = server.Shutdown(ctx)

		if err := remote.SaveToken(remote.TokenPath(), token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}

		success("Authenticated successfully")
		success("Tokens saved to %s", remote.TokenPath())
		return nil

	case err := <-errChan:
		_ = server.Shutdown(ctx)
		return fmt.Errorf("OAuth flow failed: %w", err)

	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return ctx.Err()
	}
}

// StatusCommand prints the store and write queue state.
func StatusCommand(_ context.Context, store *sync.Store, _ []string) error {
	printStatus(store.ServiceStatus())
	return nil
}

func printStatus(st sync.ServiceStatus) {
	lastSync := "never"
	if !st.LastSync.IsZero() {
		lastSync = st.LastSync.Format(time.RFC3339)
	}

	_, _ = fmt.Fprintf(stdout, "State:        %s\n", st.State)
	_, _ = fmt.Fprintf(stdout, "Records:      %d\n", st.RecordCount)
	_, _ = fmt.Fprintf(stdout, "Zones:        %d\n", st.ZoneCount)
	_, _ = fmt.Fprintf(stdout, "Last sync:    %s\n", lastSync)
	if st.LastError != "" {
		warn("Last error: %s", st.LastError)
	}
	_, _ = fmt.Fprintf(stdout, "Pending:      %d\n", st.Queue.Pending)
	for _, e := range st.Queue.Entries {
		_, _ = fmt.Fprintf(stdout, "  • %s (attempts %d, queued %s)\n", e.ID, e.Attempts, e.EnqueuedAt.Format(time.RFC3339))
	}
	for _, f := range st.Queue.Failed {
		warn("Dropped write for %s after %d attempts: %s", f.ID, f.Attempts, f.LastError)
	}
}

// ResyncCommand flushes pending writes and reloads everything from the remote.
func ResyncCommand(ctx context.Context, store *sync.Store, _ []string) error {
	if err := store.FullResync(ctx); err != nil {
		return fmt.Errorf("resync failed: %w", err)
	}
	st := store.ServiceStatus()
	success("Resynced %d records and %d zones", st.RecordCount, st.ZoneCount)
	return nil
}

// WatchCommand keeps the store running, logging every change until ctx is cancelled.
// Pending writes are flushed before returning.
func WatchCommand(ctx context.Context, store *sync.Store, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	interval := fs.Duration("status-interval", time.Minute, "How often to print queue status")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log.Println("Watching records, press Ctrl+C to stop")

	unsubscribe := store.Subscribe(func(snap sync.Snapshot) {
		log.Printf("snapshot: %d records, %d zones", len(snap.Records), len(snap.Zones))
	})
	defer unsubscribe()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			res := store.Flush(flushCtx)
			log.Printf("stopped; flushed %d pending writes (%d failed)", res.Attempted, res.Failed+res.Dropped)
			return nil
		case <-ticker.C:
			st := store.ServiceStatus()
			log.Printf("status: %s, %d records, %d pending, %d failed", st.State, st.RecordCount, st.Queue.Pending, len(st.Queue.Failed))
		}
	}
}

// openBrowser attempts to open URL in default browser
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
