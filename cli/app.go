// ABOUTME: Store construction and shared output helpers for CLI commands
// ABOUTME: Picks the Sheets or SQLite backend from config and renders tables for terminals or pipes
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"

	"github.com/harperreed/notaires/config"
	"github.com/harperreed/notaires/db"
	"github.com/harperreed/notaires/remote"
	"github.com/harperreed/notaires/sync"
)

// stdout is where commands print; tests swap it for a buffer.
var stdout io.Writer = os.Stdout

// OpenRemote connects the backend named by cfg. The returned func releases it.
func OpenRemote(ctx context.Context, cfg *config.Config) (remote.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		database, err := db.OpenDatabase(cfg.DatabasePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db.NewRangeStore(database), func() { _ = database.Close() }, nil

	case config.BackendSheets:
		if cfg.SpreadsheetID == "" {
			return nil, nil, fmt.Errorf("spreadsheet_id not configured (set NOTAIRES_SPREADSHEET_ID)")
		}
		if _, err := remote.CheckCredentials(); err != nil {
			return nil, nil, err
		}
		token, err := remote.LoadToken(remote.TokenPath())
		if err != nil {
			return nil, nil, fmt.Errorf("not authenticated (run 'notaires auth'): %w", err)
		}
		svc, err := remote.NewSheetsClient(ctx, token)
		if err != nil {
			return nil, nil, err
		}
		rs, err := remote.NewSheetsStore(svc, remote.SheetsConfig{
			SpreadsheetID: cfg.SpreadsheetID,
			RecordsSheet:  cfg.RecordsSheet,
			ZonesSheet:    cfg.ZonesSheet,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// StoreConfig maps user settings onto the store and queue tuning.
func StoreConfig(cfg *config.Config) sync.Config {
	sc := sync.DefaultConfig()
	sc.ResyncInterval = cfg.ResyncInterval.Std()
	sc.Queue.Interval = cfg.DrainInterval.Std()
	sc.Queue.MaxAttempts = cfg.MaxAttempts
	return sc
}

// OpenStore connects the backend and loads the record set. The returned func stops
// background work and releases the backend; it does not flush pending writes.
func OpenStore(ctx context.Context, cfg *config.Config) (*sync.Store, func(), error) {
	rs, closeRemote, err := OpenRemote(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store := sync.New(rs, StoreConfig(cfg))
	closer := func() {
		store.Close()
		closeRemote()
	}

	if err := store.LoadInitial(ctx); err != nil {
		closer()
		return nil, nil, fmt.Errorf("failed to load records: %w", err)
	}

	return store, closer, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func isTerminal() bool {
	f, ok := stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printTable renders a bordered table on terminals and tab-separated columns otherwise.
func printTable(headers []string, rows [][]string) {
	if isTerminal() {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			}).
			Headers(headers...).
			Rows(rows...)
		_, _ = fmt.Fprintln(stdout, t)
		return
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// success prints a check-marked confirmation line.
func success(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if isTerminal() {
		msg = okStyle.Render(msg)
	}
	_, _ = fmt.Fprintf(stdout, "✓ %s\n", msg)
}

func warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if isTerminal() {
		msg = warnStyle.Render(msg)
	}
	_, _ = fmt.Fprintf(stdout, "⚠ %s\n", msg)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
