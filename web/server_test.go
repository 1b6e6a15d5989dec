// ABOUTME: Tests for the web UI handlers
// ABOUTME: Drives the routed handler with httptest against an in-memory SQLite store
package web

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/notaires/db"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
	"github.com/harperreed/notaires/sync"
)

func setupServer(t *testing.T) (*Server, *sync.Store) {
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
			Email: "dupont@notaires.fr", Status: models.StatusFavorite, Latitude: 45.764, Longitude: 4.83},
		{ID: "n2", Name: "SCP Martin", City: "Grenoble", Status: models.StatusUndefined,
			Latitude: 45.188, Longitude: 5.724,
			Contacts: []models.Contact{{Date: sent, Kind: models.ContactInitial, ContactStatus: models.ContactMailSent}}},
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

	srv, err := NewServer(store)
	require.NoError(t, err)
	srv.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return srv, store
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestDashboard(t *testing.T) {
	srv, _ := setupServer(t)

	resp := get(t, srv.Handler(), "/")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "favorite")
	assert.Contains(t, body, "SCP Martin: no response for")
}

func TestRecordsList(t *testing.T) {
	srv, _ := setupServer(t)
	h := srv.Handler()

	body := get(t, h, "/records").Body.String()
	assert.Contains(t, body, "2 of 2 offices")
	assert.Contains(t, body, "SCP Martin")

	body = get(t, h, "/records?status=favorite").Body.String()
	assert.Contains(t, body, "1 of 1 offices")
	assert.NotContains(t, body, "SCP Martin")

	body = get(t, h, "/records?q=grenoble").Body.String()
	assert.Contains(t, body, "SCP Martin")
	assert.Contains(t, body, "1 of 1 offices")
}

func TestRecordDetail(t *testing.T) {
	srv, _ := setupServer(t)
	h := srv.Handler()

	resp := get(t, h, "/records/n1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "2 quai Saint-Antoine 69002 Lyon")
	assert.Contains(t, resp.Body.String(), "Nearest zone: Lyon")

	resp = get(t, h, "/records/n2")
	assert.Contains(t, resp.Body.String(), "2024-01-10 initial mail_sent")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/records/missing").Code)
}

func TestFollowups(t *testing.T) {
	srv, store := setupServer(t)
	h := srv.Handler()

	body := get(t, h, "/followups").Body.String()
	assert.Contains(t, body, "SCP Martin")
	assert.Contains(t, body, "/followups/log/n2")
	assert.NotContains(t, body, "Dupont")

	form := url.Values{"by": {"Anne"}}
	req := httptest.NewRequest(http.MethodPost, "/followups/log/n2", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Follow-up logged")

	rec, ok := store.GetRecordByID("n2")
	require.True(t, ok)
	require.Len(t, rec.Contacts, 2)
	assert.Equal(t, models.ContactFollowup, rec.Contacts[1].Kind)
	assert.Equal(t, "Anne", rec.Contacts[1].By)

	body = get(t, h, "/followups").Body.String()
	assert.Contains(t, body, "No follow-ups due")
}

func TestFollowupLogRequiresPost(t *testing.T) {
	srv, _ := setupServer(t)
	h := srv.Handler()

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, h, "/followups/log/n2").Code)

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/followups/log/missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGraph(t *testing.T) {
	srv, _ := setupServer(t)

	resp := get(t, srv.Handler(), "/graph")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Lyon (30 km)")
}
