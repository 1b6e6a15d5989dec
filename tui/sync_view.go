// ABOUTME: TUI view for store sync status and controls
// ABOUTME: Displays load state, the pending write queue and failed writes; triggers resync and flush
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/notaires/sync"
)

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(16)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

// SyncCompleteMsg is sent when a resync or flush completes.
type SyncCompleteMsg struct {
	Summary string
	Error   error
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	st := m.store.ServiceStatus()

	s.WriteString(syncHeaderStyle.Render("Store"))
	s.WriteString("\n\n")

	state := syncIdleStyle.Render("✓ " + st.State)
	switch {
	case m.syncInProgress || st.Loading:
		state = syncSyncingStyle.Render("⟳ Syncing...")
	case !st.Initialized:
		state = syncErrorStyle.Render("✗ " + st.State)
	}
	s.WriteString(syncLabelStyle.Render("State") + state + "\n")
	s.WriteString(syncLabelStyle.Render("Records") + fmt.Sprintf("%d", st.RecordCount) + "\n")
	s.WriteString(syncLabelStyle.Render("Zones") + fmt.Sprintf("%d", st.ZoneCount) + "\n")

	lastSync := "never"
	if !st.LastSync.IsZero() {
		lastSync = formatTimeSince(m.now().Sub(st.LastSync))
	}
	s.WriteString(syncLabelStyle.Render("Last sync") + lastSync + "\n")
	if st.LastError != "" {
		s.WriteString(syncLabelStyle.Render("Last error") + syncErrorStyle.Render(st.LastError) + "\n")
	}

	s.WriteString("\n")
	s.WriteString(syncHeaderStyle.Render("Write queue"))
	s.WriteString("\n\n")

	pending := fmt.Sprintf("%d pending", st.Queue.Pending)
	if st.Queue.Draining {
		pending += syncSyncingStyle.Render("  ⟳ writing")
	}
	s.WriteString(pending + "\n")
	for _, e := range st.Queue.Entries {
		s.WriteString(fmt.Sprintf("  • %s  attempts %d  queued %s\n",
			m.recordName(e.ID), e.Attempts, formatTimeSince(m.now().Sub(e.EnqueuedAt))))
	}

	if len(st.Queue.Failed) > 0 {
		s.WriteString("\n")
		s.WriteString(syncErrorStyle.Render(fmt.Sprintf("%d failed writes", len(st.Queue.Failed))))
		s.WriteString("\n")
		for _, f := range st.Queue.Failed {
			s.WriteString(syncErrorStyle.Render(fmt.Sprintf("  ✗ %s after %d attempts: %s",
				m.recordName(f.ID), f.Attempts, f.LastError)))
			s.WriteString("\n")
		}
	}

	return s.String()
}

func (m Model) recordName(id string) string {
	for _, r := range m.records {
		if r.ID == id {
			return r.Name
		}
	}
	return id
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if m.syncInProgress {
		return m, nil, msg.String() == "r" || msg.String() == "f"
	}

	switch msg.String() {
	case "r":
		m.syncInProgress = true
		m.message = "Resyncing..."
		return m, resyncCmd(m.store), true
	case "f":
		m.syncInProgress = true
		m.message = "Flushing writes..."
		return m, flushCmd(m.store), true
	}
	return m, nil, false
}

func resyncCmd(store *sync.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		if err := store.FullResync(ctx); err != nil {
			return SyncCompleteMsg{Error: fmt.Errorf("resync failed: %w", err)}
		}
		return SyncCompleteMsg{Summary: "Resync complete"}
	}
}

func flushCmd(store *sync.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		res := store.Flush(ctx)
		summary := fmt.Sprintf("Flushed %d writes (%d ok, %d failed, %d dropped)",
			res.Attempted, res.Succeeded, res.Failed, res.Dropped)
		return SyncCompleteMsg{Summary: summary}
	}
}

func formatTimeSince(d time.Duration) string {
	if d < time.Minute {
		return "just now"
	} else if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	} else if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
