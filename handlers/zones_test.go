// ABOUTME: Tests for interest zone MCP tool handlers
// ABOUTME: Covers create, update, remove and validation
package handlers

import (
	"context"
	"testing"

	"github.com/harperreed/notaires/models"
	"github.com/harperreed/notaires/remote"
	"github.com/harperreed/notaires/sync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndRemoveZone(t *testing.T) {
	store, rs := setupTestStore(t, sampleRecords(), sampleZones())
	h := NewZoneHandlers(store)
	ctx := context.Background()

	_, created, err := h.SaveZone(ctx, nil, SaveZoneInput{Name: "Grenoble", RadiusKm: 15, Latitude: 45.188, Longitude: 5.724})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, list, err := h.ListZones(ctx, nil, ListZonesInput{})
	require.NoError(t, err)
	assert.Len(t, list.Zones, 2)

	_, _, err = h.SaveZone(ctx, nil, SaveZoneInput{ID: "lyon", Name: "Lyon", RadiusKm: 50, Latitude: 45.764, Longitude: 4.8357})
	require.NoError(t, err)
	zones := store.GetInterestZones()
	require.Len(t, zones, 2)
	assert.Equal(t, 50.0, zones[0].RadiusKm)

	rows, err := rs.ReadRange(ctx, remote.TableInterestZones)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, removed, err := h.RemoveZone(ctx, nil, RemoveZoneInput{ID: created.ID})
	require.NoError(t, err)
	assert.True(t, removed.Success)
	assert.Len(t, store.GetInterestZones(), 1)

	_, _, err = h.RemoveZone(ctx, nil, RemoveZoneInput{ID: "missing"})
	assert.Error(t, err)
}

func TestSaveZoneValidation(t *testing.T) {
	store, _ := setupTestStore(t, sampleRecords(), sampleZones())
	h := NewZoneHandlers(store)

	_, _, err := h.SaveZone(context.Background(), nil, SaveZoneInput{Name: "Nowhere", RadiusKm: 0, Latitude: 45, Longitude: 5})
	assert.ErrorIs(t, err, sync.ErrInvalidInterestZone)

	_, _, err = h.SaveZone(context.Background(), nil, SaveZoneInput{Name: "Bad", RadiusKm: 5, Latitude: 120, Longitude: 5})
	assert.ErrorIs(t, err, sync.ErrInvalidInterestZone)
	assert.Len(t, store.GetInterestZones(), 1)
}

func TestZoneHelpers(t *testing.T) {
	zones := []models.InterestZone{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}

	out := UpsertZone(models.CloneZones(zones), models.InterestZone{ID: "b", Name: "B2"})
	assert.Equal(t, "B2", out[1].Name)
	out = UpsertZone(out, models.InterestZone{ID: "c", Name: "C"})
	assert.Len(t, out, 3)

	left, ok := RemoveZoneByID(models.CloneZones(zones), "a")
	assert.True(t, ok)
	assert.Equal(t, "b", left[0].ID)

	_, ok = RemoveZoneByID(zones, "z")
	assert.False(t, ok)
}
