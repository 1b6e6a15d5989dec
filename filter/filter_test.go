// ABOUTME: Tests for record filtering
// ABOUTME: Covers search terms, facets, the contact-status policy and the radius filter
package filter

import (
	"testing"

	"github.com/harperreed/notaires/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(recs []models.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func contact(status models.ContactStatus) models.Contact {
	return models.Contact{Kind: models.ContactInitial, ContactStatus: status}
}

func fixtures() []models.Record {
	return []models.Record{
		{ID: "1", Name: "Étude Dupont", City: "Lyon", Email: "dupont@notaires.fr", AssociateCount: 1, EmployeeCount: 4, Status: models.StatusFavorite},
		{ID: "2", Name: "SCP Martin & Associés", City: "Villeurbanne", AssociateCount: 3, EmployeeCount: 15, NegotiationService: true, Status: models.StatusConsidering,
			Contacts: []models.Contact{contact(models.ContactMailSent)}},
		{ID: "3", Name: "Office Bernard", City: "Grenoble", AssociateNames: "Claire Petit", AssociateCount: 2, EmployeeCount: 8, Status: models.StatusUndefined,
			Contacts: []models.Contact{contact(models.ContactMailSent), contact(models.ContactClosed)}},
		{ID: "4", Name: "Maître Leroy", City: "Paris", AssociateCount: 0, Status: models.StatusNotInterested},
	}
}

func TestDefaultSpecPassesEverything(t *testing.T) {
	recs := fixtures()
	got := FilterRecords(recs, models.DefaultFilterSpec(), "")
	assert.Equal(t, recs, got)
}

func TestFilterDoesNotMutateInputs(t *testing.T) {
	recs := fixtures()
	before := models.CloneRecords(recs)

	got := FilterRecords(recs, models.DefaultFilterSpec(), "lyon")
	require.Len(t, got, 1)
	got[0].Name = "changed"

	assert.Equal(t, before, recs)
	assert.Equal(t, got[0].ID, FilterRecords(recs, models.DefaultFilterSpec(), "lyon")[0].ID)
}

func TestSearchRequiresEveryTerm(t *testing.T) {
	recs := fixtures()
	spec := models.DefaultFilterSpec()

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"1", "2", "3", "4"}},
		{"  ", []string{"1", "2", "3", "4"}},
		{"LYON", []string{"1"}},
		{"martin villeurbanne", []string{"2"}},
		{"martin paris", []string{}},
		{"claire", []string{"3"}},
		{"notaires.fr", []string{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(FilterRecords(recs, spec, tt.query)))
		})
	}
}

func TestTypeAndFacetFilters(t *testing.T) {
	recs := fixtures()

	spec := models.DefaultFilterSpec()
	spec.Type = models.TypeIndividual
	assert.Equal(t, []string{"1", "4"}, ids(FilterRecords(recs, spec, "")))

	spec.Type = models.TypeGrouped
	assert.Equal(t, []string{"2", "3"}, ids(FilterRecords(recs, spec, "")))

	spec = models.DefaultFilterSpec()
	spec.NegotiationService = models.TriYes
	assert.Equal(t, []string{"2"}, ids(FilterRecords(recs, spec, "")))
	spec.NegotiationService = models.TriNo
	assert.Equal(t, []string{"1", "3", "4"}, ids(FilterRecords(recs, spec, "")))

	spec = models.DefaultFilterSpec()
	spec.Employees = models.IntRange{Min: 4, Max: 8}
	assert.Equal(t, []string{"1", "3"}, ids(FilterRecords(recs, spec, "")), "range bounds are inclusive")

	spec = models.DefaultFilterSpec()
	spec.Statuses = []models.Status{models.StatusFavorite, models.StatusUndefined}
	assert.Equal(t, []string{"1", "3"}, ids(FilterRecords(recs, spec, "")))

	spec = models.DefaultFilterSpec()
	spec.OnlyWithEmail = true
	assert.Equal(t, []string{"1"}, ids(FilterRecords(recs, spec, "")))
}

func TestContactStatusPolicy(t *testing.T) {
	recs := fixtures()
	closed := []models.ContactStatus{models.ContactClosed}

	tests := []struct {
		name        string
		uncontacted bool
		statuses    []models.ContactStatus
		want        []string
	}{
		{"neither", false, nil, []string{"1", "2", "3", "4"}},
		{"only uncontacted", true, nil, []string{"1", "4"}},
		{"only statuses uses last contact", false, closed, []string{"3"}},
		{"both", true, closed, []string{"1", "3", "4"}},
		{"earlier contact status ignored", false, []models.ContactStatus{models.ContactMailSent}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := models.DefaultFilterSpec()
			spec.ShowUncontacted = tt.uncontacted
			spec.ContactStatuses = tt.statuses
			assert.Equal(t, tt.want, ids(FilterRecords(recs, spec, "")))
		})
	}
}

func TestHaversineKm(t *testing.T) {
	assert.InDelta(t, 0, HaversineKm(45, 4, 45, 4), 1e-9)
	// Paris to Lyon.
	assert.InDelta(t, 391.5, HaversineKm(48.8566, 2.3522, 45.7640, 4.8357), 2.0)
	// One degree of latitude.
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 1, 0), 0.01)
}

func TestRadiusFilter(t *testing.T) {
	zone := models.InterestZone{ID: "z", Name: "Origin", RadiusKm: 10}
	zone.Latitude, zone.Longitude = 45.0, 5.0

	// Points due north of the zone center at known distances.
	north := func(id string, km float64) models.Record {
		return models.Record{ID: id, Name: id, Latitude: 45.0 + km/111.19492664455873, Longitude: 5.0}
	}
	recs := []models.Record{
		north("inside", 5),
		north("outside", 12),
		{ID: "nocoords", Name: "nocoords"},
	}

	spec := models.DefaultFilterSpec()
	spec.OnlyInRadius = true
	spec.Zones = []models.InterestZone{zone}
	assert.Equal(t, []string{"inside"}, ids(FilterRecords(recs, spec, "")))

	spec.OnlyInRadius = false
	assert.Len(t, FilterRecords(recs, spec, ""), 3)

	spec.OnlyInRadius = true
	spec.Zones = nil
	assert.Len(t, FilterRecords(recs, spec, ""), 3, "no zones configured disables the filter")
}

func TestRadiusBoundaryIsInclusive(t *testing.T) {
	rec := models.Record{ID: "edge", Name: "edge", Latitude: 45.05, Longitude: 5.0}
	d := HaversineKm(rec.Latitude, rec.Longitude, 45.0, 5.0)

	spec := models.DefaultFilterSpec()
	spec.OnlyInRadius = true
	spec.Zones = []models.InterestZone{{ID: "z", Name: "z", RadiusKm: d, Latitude: 45.0, Longitude: 5.0}}

	assert.Len(t, FilterRecords([]models.Record{rec}, spec, ""), 1)

	spec.Zones[0].RadiusKm = d - 0.001
	assert.Empty(t, FilterRecords([]models.Record{rec}, spec, ""))
}

func TestRadiusFilterParisCenter(t *testing.T) {
	rec := models.Record{ID: "paris", Name: "Paris", Latitude: 48.85, Longitude: 2.35}
	zone := models.InterestZone{ID: "z", Name: "Paris centre", RadiusKm: 5, Latitude: 48.86, Longitude: 2.34}

	assert.InDelta(t, 1.35, HaversineKm(rec.Latitude, rec.Longitude, zone.Latitude, zone.Longitude), 0.05)

	spec := models.DefaultFilterSpec()
	spec.OnlyInRadius = true
	spec.Zones = []models.InterestZone{zone}
	assert.Equal(t, []string{"paris"}, ids(FilterRecords([]models.Record{rec}, spec, "")))
}

func TestRadiusFilterAcrossAntimeridian(t *testing.T) {
	east := models.InterestZone{ID: "east", Name: "east", RadiusKm: 10, Latitude: 0, Longitude: 179.99}
	west := models.Record{ID: "west", Name: "west", Latitude: 0, Longitude: -179.99}
	far := models.Record{ID: "far", Name: "far", Latitude: 0, Longitude: -179.5}

	require.InDelta(t, 2.224, HaversineKm(west.Latitude, west.Longitude, east.Latitude, east.Longitude), 0.01)

	spec := models.DefaultFilterSpec()
	spec.OnlyInRadius = true
	spec.Zones = []models.InterestZone{east}
	assert.Equal(t, []string{"west"}, ids(FilterRecords([]models.Record{west, far}, spec, "")))
}

func TestRadiusFilterNearPole(t *testing.T) {
	zone := models.InterestZone{ID: "pole", Name: "pole", RadiusKm: 50, Latitude: 89.9, Longitude: 0}
	rec := models.Record{ID: "other side", Name: "other side", Latitude: 89.9, Longitude: 180}

	require.Less(t, HaversineKm(rec.Latitude, rec.Longitude, zone.Latitude, zone.Longitude), 50.0)

	spec := models.DefaultFilterSpec()
	spec.OnlyInRadius = true
	spec.Zones = []models.InterestZone{zone}
	assert.Len(t, FilterRecords([]models.Record{rec}, spec, ""), 1)
}

func TestZonesWithoutCoordinatesNeverMatch(t *testing.T) {
	rec := models.Record{ID: "r", Name: "r", Latitude: 0.01, Longitude: 0.01}

	spec := models.DefaultFilterSpec()
	spec.OnlyInRadius = true
	spec.Zones = []models.InterestZone{{ID: "blank", Name: "blank", RadiusKm: 500}}
	assert.Empty(t, FilterRecords([]models.Record{rec}, spec, ""))

	spec.Zones = append(spec.Zones, models.InterestZone{ID: "near", Name: "near", RadiusKm: 5, Latitude: 0.02, Longitude: 0.02})
	assert.Len(t, FilterRecords([]models.Record{rec}, spec, ""), 1)
}

func TestNearestZone(t *testing.T) {
	zones := []models.InterestZone{
		{ID: "lyon", Name: "Lyon", RadiusKm: 20, Latitude: 45.764, Longitude: 4.8357},
		{ID: "paris", Name: "Paris", RadiusKm: 20, Latitude: 48.8566, Longitude: 2.3522},
		{ID: "blank", Name: "Blank", RadiusKm: 20},
	}
	rec := models.Record{ID: "r", Name: "r", Latitude: 45.19, Longitude: 5.72}

	z, km, ok := NearestZone(rec, zones)
	require.True(t, ok)
	assert.Equal(t, "lyon", z.ID)
	assert.Greater(t, km, 0.0)

	_, _, ok = NearestZone(models.Record{ID: "x", Name: "x"}, zones)
	assert.False(t, ok)
}
