// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key presses against a store backed by in-memory SQLite
package tui

import (
	"context"
	"database/sql"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/notaires/db"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
	"github.com/harperreed/notaires/sync"
)

func setupTestStore(t *testing.T) *sync.Store {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.InitSchema(database))

	rs := db.NewRangeStore(database)
	ctx := context.Background()

	sent := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	records := []models.Record{
		{ID: "n1", Name: "Étude Dupont", Street: "2 quai Saint-Antoine", PostalCode: "69002", City: "Lyon",
			Email: "dupont@notaires.fr", AssociateCount: 1, Status: models.StatusFavorite,
			Latitude: 45.764, Longitude: 4.83},
		{ID: "n2", Name: "SCP Martin", City: "Grenoble", AssociateCount: 3, Status: models.StatusUndefined,
			Latitude: 45.188, Longitude: 5.724,
			Contacts: []models.Contact{{Date: sent, Kind: models.ContactInitial, ContactStatus: models.ContactMailSent}}},
		{ID: "n3", Name: "Office Bernard", City: "Paris", AssociateCount: 2, Status: models.StatusConsidering},
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i], err = sync.EncodeRecordRow(r)
		require.NoError(t, err)
	}
	require.NoError(t, rs.WriteRange(ctx, remote.TableRecords, rows))
	require.NoError(t, rs.WriteRange(ctx, remote.TableInterestZones, [][]string{
		sync.EncodeZoneRow(models.InterestZone{ID: "lyon", Name: "Lyon", RadiusKm: 30, Latitude: 45.764, Longitude: 4.8357}),
	}))

	store := sync.New(rs, sync.Config{Queue: sync.QueueConfig{MaxAttempts: 3}})
	require.NoError(t, store.LoadInitial(ctx))
	t.Cleanup(store.Close)
	return store
}

// newTestModel returns a model that has consumed the initial snapshot.
func newTestModel(t *testing.T) (Model, *sync.Store) {
	t.Helper()
	store := setupTestStore(t)

	m := NewModel(store)
	t.Cleanup(m.Close)
	m.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	m = update(t, m, m.Init()())
	require.Len(t, m.records, 3)
	return m, store
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

// press sends a key and runs any command it returns, feeding the result back.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(keyMsg(k))
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(WriteResultMsg); ok {
			return update(t, m, msg)
		}
		if _, ok := msg.(SyncCompleteMsg); ok {
			return update(t, m, msg)
		}
	}
	return m
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// typeText feeds runes without running the cursor blink commands they return.
func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m = update(t, m, keyMsg(string(r)))
	}
	return m
}

func TestModelReceivesSnapshot(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Len(t, m.visible, 3)
	assert.Len(t, m.zones, 1)

	view := m.View()
	assert.Contains(t, view, "NOTAIRES")
	assert.Contains(t, view, "SCP Martin")
	assert.Contains(t, view, "3/3 offices")
}

func TestFilterKeys(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "u")
	assert.Len(t, m.visible, 2)
	m = press(t, m, "u")

	m = press(t, m, "e")
	require.Len(t, m.visible, 1)
	assert.Equal(t, "n1", m.visible[0].ID)
	m = press(t, m, "e")

	m = press(t, m, "z")
	require.Len(t, m.visible, 1)
	assert.Equal(t, "n1", m.visible[0].ID)
	m = press(t, m, "z")

	m = press(t, m, "t")
	assert.Equal(t, models.TypeIndividual, m.spec.Type)
	assert.Len(t, m.visible, 1)
	m = press(t, m, "t")
	assert.Equal(t, models.TypeGrouped, m.spec.Type)
	assert.Len(t, m.visible, 2)
}

func TestSearch(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "/")
	assert.True(t, m.searching)

	m = typeText(t, m, "grenoble")
	require.Len(t, m.visible, 1)
	assert.Equal(t, "n2", m.visible[0].ID)

	// q is text while searching
	m = typeText(t, m, " q")
	assert.True(t, m.searching)
	assert.Empty(t, m.visible)

	m = press(t, m, "esc")
	assert.False(t, m.searching)
	assert.Len(t, m.visible, 3)
}

func TestCycleStatusWritesThrough(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "s")
	require.NoError(t, m.err)
	assert.Equal(t, "Saved Étude Dupont", m.message)

	rec, ok := store.GetRecordByID("n1")
	require.True(t, ok)
	assert.Equal(t, models.StatusConsidering, rec.Status)
	assert.Zero(t, store.ServiceStatus().Queue.Pending)

	// The change comes back through the subscription
	m = update(t, m, waitForSnapshot(m.snapshots)())
	assert.Equal(t, models.StatusConsidering, m.visible[0].Status)
}

func TestLogContactPicksKind(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "c")
	rec, _ := store.GetRecordByID("n1")
	require.Len(t, rec.Contacts, 1)
	assert.Equal(t, models.ContactInitial, rec.Contacts[0].Kind)
	assert.Equal(t, models.ContactMailSent, rec.Contacts[0].ContactStatus)

	m = press(t, m, "down")
	m = press(t, m, "c")
	rec, _ = store.GetRecordByID("n2")
	require.Len(t, rec.Contacts, 2)
	assert.Equal(t, models.ContactFollowup, rec.Contacts[1].Kind)
	assert.Equal(t, models.ContactFollowupSent, rec.Contacts[1].ContactStatus)

	// The model's own copy is untouched until the store notifies
	assert.Len(t, m.visible[1].Contacts, 1)
}

func TestDetailView(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "down")
	m = press(t, m, "enter")
	require.Equal(t, ViewDetail, m.viewMode)
	assert.Equal(t, "n2", m.selectedID)

	view := m.View()
	assert.Contains(t, view, "SCP Martin")
	assert.Contains(t, view, "2024-01-10 initial mail_sent")
	assert.Contains(t, view, "Nearest zone")

	m = press(t, m, "p")
	require.NoError(t, m.err)
	rec, _ := store.GetRecordByID("n2")
	require.NotNil(t, rec.Contacts[0].Response)
	assert.True(t, rec.Contacts[0].Response.Positive)
	assert.Equal(t, models.ContactResponseReceived, rec.Contacts[0].ContactStatus)

	m = press(t, m, "x")
	rec, _ = store.GetRecordByID("n2")
	assert.Empty(t, rec.Contacts)

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Empty(t, m.selectedID)
}

func TestResponseWithoutContact(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "enter")
	m = press(t, m, "n")
	assert.Error(t, m.err)
	assert.Contains(t, m.View(), "no contact")
}

func TestEditAddressFlagsGeocoding(t *testing.T) {
	m, store := newTestModel(t)

	m = press(t, m, "enter")
	m = press(t, m, "e")
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Equal(t, "2 quai Saint-Antoine", m.formInputs[fieldStreet].Value())

	// Typing q edits the field rather than quitting
	m = press(t, m, "tab")
	m = press(t, m, "tab")
	m.formInputs[fieldCity].SetValue("")
	m = typeText(t, m, "Villeurbanne q")
	m = press(t, m, "enter")
	require.NoError(t, m.err)
	assert.Equal(t, ViewDetail, m.viewMode)

	rec, _ := store.GetRecordByID("n1")
	assert.Equal(t, "Villeurbanne q", rec.City)
	assert.True(t, rec.NeedsGeocoding)
	assert.Equal(t, "dupont@notaires.fr", rec.Email)
}

func TestFollowupsTab(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "tab")
	require.Equal(t, TabFollowups, m.tab)
	require.Len(t, m.visible, 1)
	assert.Equal(t, "n2", m.visible[0].ID)
	assert.Contains(t, m.View(), "SCP Martin")

	m = press(t, m, "enter")
	assert.Equal(t, ViewDetail, m.viewMode)
	assert.Equal(t, "n2", m.selectedID)
}

func TestZonesTab(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, "tab")
	m = press(t, m, "tab")
	require.Equal(t, TabZones, m.tab)

	view := m.View()
	assert.Contains(t, view, "Lyon")
	assert.Contains(t, view, "30 km")
}

func TestSyncTab(t *testing.T) {
	m, store := newTestModel(t)

	for i := 0; i < 3; i++ {
		m = press(t, m, "tab")
	}
	require.Equal(t, TabSync, m.tab)

	view := m.View()
	assert.Contains(t, view, "Write queue")
	assert.Contains(t, view, "0 pending")
	assert.Contains(t, view, "ready")

	m = press(t, m, "r")
	require.NoError(t, m.err)
	assert.False(t, m.syncInProgress)
	assert.Equal(t, "Resync complete", m.message)
	assert.Equal(t, 3, store.ServiceStatus().RecordCount)

	m = press(t, m, "f")
	assert.Contains(t, m.message, "Flushed 0 writes")
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(keyMsg("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestOfferKeepsNewest(t *testing.T) {
	ch := make(chan sync.Snapshot, 1)
	offer(ch, sync.Snapshot{Records: []models.Record{{ID: "old"}}})
	offer(ch, sync.Snapshot{Records: []models.Record{{ID: "new"}}})

	snap := <-ch
	require.Len(t, snap.Records, 1)
	assert.Equal(t, "new", snap.Records[0].ID)
	assert.Empty(t, ch)
}

func TestFormatTimeSince(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{time.Hour, "1 hour ago"},
		{3 * time.Hour, "3 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{72 * time.Hour, "3 days ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTimeSince(tt.d))
	}
}
