// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Renders the live record set from store subscriptions and edits it in place
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/sync"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
)

// Tab selects what the list view shows
type Tab int

const (
	TabRecords Tab = iota
	TabFollowups
	TabZones
	TabSync
)

var tabNames = []string{"Offices", "Follow-ups", "Zones", "Sync"}

// followupAge is how long an unanswered mail waits before it shows under Follow-ups.
const followupAge = 14 * 24 * time.Hour

// writeTimeout bounds how long a command waits for a write to reach the remote.
const writeTimeout = 30 * time.Second

type snapshotMsg struct {
	snap sync.Snapshot
}

// WriteResultMsg is sent when a scheduled write settles.
type WriteResultMsg struct {
	Name  string
	Error error
}

// Model is the main bubbletea model
type Model struct {
	store       *sync.Store
	snapshots   chan sync.Snapshot
	unsubscribe func()

	viewMode ViewMode
	tab      Tab

	// Latest snapshot and the filtered view of it
	records []models.Record
	zones   []models.InterestZone
	visible []models.Record
	spec    models.FilterSpec

	// List view state
	selectedRow int
	searchInput textinput.Model
	searching   bool

	// Detail view state
	selectedID string

	// Edit view state
	formInputs []textinput.Model
	focusIndex int

	// Sync view state
	syncInProgress bool

	message string
	err     error
	now     func() time.Time

	// UI state
	width  int
	height int
}

// NewModel creates a TUI model subscribed to the store. Call Close when done.
func NewModel(store *sync.Store) Model {
	snapshots := make(chan sync.Snapshot, 1)
	unsubscribe := store.Subscribe(func(snap sync.Snapshot) {
		offer(snapshots, snap)
	})

	search := textinput.New()
	search.Placeholder = "name, city, email..."
	search.Prompt = "/ "
	search.CharLimit = 100

	return Model{
		store:       store,
		snapshots:   snapshots,
		unsubscribe: unsubscribe,
		viewMode:    ViewList,
		tab:         TabRecords,
		spec:        models.DefaultFilterSpec(),
		searchInput: search,
		now:         time.Now,
		width:       80,
		height:      24,
	}
}

// Close stops receiving store notifications.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(store *sync.Store) error {
	m := NewModel(store)
	defer m.Close()

	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// offer hands snap to the UI, replacing any snapshot it has not picked up yet.
// The store delivers notifications one at a time so this never spins.
func offer(ch chan sync.Snapshot, snap sync.Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func waitForSnapshot(ch chan sync.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: <-ch}
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.snapshots)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case snapshotMsg:
		m.applySnapshot(msg.snap)
		return m, waitForSnapshot(m.snapshots)
	case WriteResultMsg:
		if msg.Error != nil {
			m.err = msg.Error
			m.message = ""
		} else {
			m.err = nil
			m.message = "Saved " + msg.Name
		}
		return m, nil
	case SyncCompleteMsg:
		m.syncInProgress = false
		if msg.Error != nil {
			m.err = msg.Error
			m.message = ""
		} else {
			m.err = nil
			m.message = msg.Summary
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) applySnapshot(snap sync.Snapshot) {
	m.records = snap.Records
	m.zones = snap.Zones
	m.refilter()
}

// refilter recomputes the visible rows for the current tab, query and filters.
func (m *Model) refilter() {
	switch m.tab {
	case TabFollowups:
		m.visible = filter.StaleContacts(m.records, m.now().Add(-followupAge))
	default:
		spec := m.spec
		spec.Zones = m.zones
		m.visible = filter.FilterRecords(m.records, spec, m.searchInput.Value())
	}

	rows := len(m.visible)
	if m.tab == TabZones {
		rows = len(m.zones)
	}
	if m.selectedRow >= rows {
		m.selectedRow = rows - 1
	}
	if m.selectedRow < 0 {
		m.selectedRow = 0
	}
}

// selectedRecord returns a copy of the record under the cursor, or the one open in
// the detail view.
func (m Model) selectedRecord() (models.Record, bool) {
	if m.selectedID != "" {
		for _, r := range m.records {
			if r.ID == m.selectedID {
				return r.Clone(), true
			}
		}
		return models.Record{}, false
	}
	if m.selectedRow < len(m.visible) {
		return m.visible[m.selectedRow].Clone(), true
	}
	return models.Record{}, false
}

// saveRecord returns a command that hands rec to the store and waits for it to persist.
func (m Model) saveRecord(rec models.Record) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		pw, err := store.UpdateRecord(ctx, rec)
		if err != nil {
			return WriteResultMsg{Name: rec.Name, Error: err}
		}
		return WriteResultMsg{Name: rec.Name, Error: pw.Wait(ctx)}
	}
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Text entry owns the keyboard
	if m.searching {
		return m.handleSearchKeys(msg)
	}
	if m.viewMode == ViewEdit {
		return m.handleEditKeys(msg)
	}

	if msg.String() == "q" {
		return m, tea.Quit
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	}

	return m, nil
}

func (m Model) renderStatusLine() string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if m.message != "" {
		return messageStyle.Render(m.message)
	}
	return ""
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)
