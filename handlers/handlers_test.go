// ABOUTME: Shared fixtures for MCP handler tests
// ABOUTME: Backs a real sync store with an in-memory SQLite range store
package handlers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/harperreed/notaires/db"
	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
	"github.com/harperreed/notaires/sync"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, records []models.Record, zones []models.InterestZone) (*sync.Store, *db.RangeStore) {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.InitSchema(database))

	rs := db.NewRangeStore(database)
	ctx := context.Background()

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i], err = sync.EncodeRecordRow(r)
		require.NoError(t, err)
	}
	require.NoError(t, rs.WriteRange(ctx, remote.TableRecords, rows))

	zoneRows := make([][]string, len(zones))
	for i, z := range zones {
		zoneRows[i] = sync.EncodeZoneRow(z)
	}
	require.NoError(t, rs.WriteRange(ctx, remote.TableInterestZones, zoneRows))

	store := sync.New(rs, sync.Config{Queue: sync.QueueConfig{MaxAttempts: 3}})
	require.NoError(t, store.LoadInitial(ctx))
	t.Cleanup(store.Close)
	return store, rs
}

func sampleRecords() []models.Record {
	sent := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	return []models.Record{
		{ID: "n1", Name: "Étude Dupont", Street: "2 quai Saint-Antoine", PostalCode: "69002", City: "Lyon",
			Email: "dupont@notaires.fr", AssociateCount: 1, EmployeeCount: 5, Status: models.StatusFavorite,
			Latitude: 45.764, Longitude: 4.83},
		{ID: "n2", Name: "SCP Martin", City: "Grenoble", AssociateCount: 3, EmployeeCount: 12, Status: models.StatusUndefined,
			Latitude: 45.188, Longitude: 5.724,
			Contacts: []models.Contact{{Date: sent, Kind: models.ContactInitial, ContactStatus: models.ContactMailSent}}},
		{ID: "n3", Name: "Office Bernard", City: "Paris", AssociateCount: 2, Status: models.StatusConsidering},
	}
}

func sampleZones() []models.InterestZone {
	return []models.InterestZone{
		{ID: "lyon", Name: "Lyon", RadiusKm: 30, Latitude: 45.764, Longitude: 4.8357},
	}
}
