// ABOUTME: Tests for dashboard statistics and the zone coverage graph
// ABOUTME: Uses small fixed record sets with known distances
package viz

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/notaires/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixture() ([]models.Record, []models.InterestZone) {
	records := []models.Record{
		{ID: "n1", Name: "Étude Dupont", Email: "a@b.fr", Status: models.StatusFavorite, Latitude: 45.764, Longitude: 4.83,
			Contacts: []models.Contact{{Date: now.Add(-2 * 24 * time.Hour), ContactStatus: models.ContactMailSent}}},
		{ID: "n2", Name: "SCP Martin", Status: models.StatusConsidering, Latitude: 45.188, Longitude: 5.724,
			Contacts: []models.Contact{{Date: now.Add(-30 * 24 * time.Hour), ContactStatus: models.ContactMailSent}}},
		{ID: "n3", Name: "Office Bernard", NeedsGeocoding: true},
	}
	zones := []models.InterestZone{{ID: "lyon", Name: "Lyon", RadiusKm: 30, Latitude: 45.764, Longitude: 4.8357}}
	return records, zones
}

func TestGenerateDashboardStats(t *testing.T) {
	records, zones := fixture()
	stats := GenerateDashboardStats(records, zones, now)

	assert.Equal(t, 3, stats.TotalRecords)
	assert.Equal(t, 1, stats.TotalZones)
	assert.Equal(t, 1, stats.WithEmail)
	assert.Equal(t, 1, stats.Uncontacted)
	assert.Equal(t, 1, stats.InZones)
	assert.Equal(t, 1, stats.NeedsGeocoding)
	assert.Equal(t, 1, stats.ByStatus[models.StatusUndefined])
	assert.Equal(t, 2, stats.ByContactStatus[models.ContactMailSent])
	require.Len(t, stats.RecentActivity, 1)
	require.Len(t, stats.StaleContacts, 1)
	assert.Equal(t, "SCP Martin", stats.StaleContacts[0].Name)
	assert.Equal(t, 30, stats.StaleContacts[0].DaysSince)
}

func TestRenderDashboard(t *testing.T) {
	records, zones := fixture()
	out := RenderDashboard(GenerateDashboardStats(records, zones, now))

	assert.Contains(t, out, "NOTAIRES DASHBOARD")
	assert.Contains(t, out, "favorite")
	assert.Contains(t, out, "uncontacted")
	assert.Contains(t, out, "NEEDS ATTENTION")
}

func TestRenderDashboardEmpty(t *testing.T) {
	out := RenderDashboard(GenerateDashboardStats(nil, nil, now))
	assert.Contains(t, out, "0 offices")
	assert.NotContains(t, out, "NEEDS ATTENTION")
}

func TestGenerateZoneGraph(t *testing.T) {
	records, zones := fixture()
	dot, err := GenerateZoneGraph(context.Background(), records, zones)
	require.NoError(t, err)

	assert.Contains(t, dot, "Lyon (30 km)")
	assert.Contains(t, dot, "Dupont")
	assert.NotContains(t, dot, "SCP Martin")
	assert.NotContains(t, dot, "Office Bernard")
}
