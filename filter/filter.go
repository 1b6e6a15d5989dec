// ABOUTME: Pure record filtering for list views: search, facets, contact policy and radius
// ABOUTME: Never mutates its inputs and returns copies in input order
package filter

import (
	"math"
	"strings"

	"github.com/harperreed/notaires/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const earthRadiusKm = 6371.0

// boundPadding widens the prefilter box so it always contains the haversine
// circle, whatever Earth radius the bound helper assumes.
const boundPadding = 1.02

// FilterRecords returns copies of the records that pass every enabled filter.
func FilterRecords(records []models.Record, spec models.FilterSpec, query string) []models.Record {
	terms := strings.Fields(strings.ToLower(query))
	zones := prepareZones(spec)

	out := make([]models.Record, 0, len(records))
	for i := range records {
		r := &records[i]
		if !matchesSearch(r, terms) ||
			!matchesType(r, spec.Type) ||
			!matchesTriState(r.NegotiationService, spec.NegotiationService) ||
			!spec.Associates.Contains(r.AssociateCount) ||
			!spec.Employees.Contains(r.EmployeeCount) ||
			!matchesStatus(r, spec.Statuses) ||
			(spec.OnlyWithEmail && strings.TrimSpace(r.Email) == "") ||
			!matchesContactStatus(r, spec.ShowUncontacted, spec.ContactStatuses) ||
			(spec.OnlyInRadius && len(spec.Zones) > 0 && !inAnyZone(r, zones)) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

func matchesSearch(r *models.Record, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		r.Name, r.Street, r.PostalCode, r.City, r.Email, r.AssociateNames, r.EmployeeNames,
	}, " "))
	for _, term := range terms {
		if !strings.Contains(haystack, term) {
			return false
		}
	}
	return true
}

func matchesType(r *models.Record, t models.TypeFilter) bool {
	switch t {
	case models.TypeIndividual:
		return r.AssociateCount <= 1
	case models.TypeGrouped:
		return r.AssociateCount > 1
	default:
		return true
	}
}

func matchesTriState(v bool, t models.TriState) bool {
	switch t {
	case models.TriYes:
		return v
	case models.TriNo:
		return !v
	default:
		return true
	}
}

func matchesStatus(r *models.Record, statuses []models.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	status := r.Status
	if status == "" {
		status = models.StatusUndefined
	}
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// matchesContactStatus applies the uncontacted / last-contact-status policy.
func matchesContactStatus(r *models.Record, showUncontacted bool, statuses []models.ContactStatus) bool {
	uncontacted := len(r.Contacts) == 0
	lastIn := func() bool {
		last := r.LastContact()
		if last == nil {
			return false
		}
		for _, s := range statuses {
			if s == last.ContactStatus {
				return true
			}
		}
		return false
	}

	switch {
	case showUncontacted && len(statuses) > 0:
		return uncontacted || lastIn()
	case showUncontacted:
		return uncontacted
	case len(statuses) > 0:
		return lastIn()
	default:
		return true
	}
}

type zoneBound struct {
	zone  models.InterestZone
	bound orb.Bound
	// exact is set when the box leaves the valid coordinate range (antimeridian
	// or pole), where it cannot be used as a prefilter.
	exact bool
}

func prepareZones(spec models.FilterSpec) []zoneBound {
	if !spec.OnlyInRadius {
		return nil
	}
	out := make([]zoneBound, 0, len(spec.Zones))
	for _, z := range spec.Zones {
		if !z.HasCoordinates() {
			continue
		}
		center := orb.Point{z.Longitude, z.Latitude}
		bound := geo.NewBoundAroundPoint(center, z.RadiusKm*1000*boundPadding)
		out = append(out, zoneBound{zone: z, bound: bound, exact: !withinWorld(bound)})
	}
	return out
}

func inAnyZone(r *models.Record, zones []zoneBound) bool {
	if !r.HasCoordinates() {
		return false
	}
	p := orb.Point{r.Longitude, r.Latitude}
	for _, zb := range zones {
		if !zb.exact && !zb.bound.Contains(p) {
			continue
		}
		if HaversineKm(r.Latitude, r.Longitude, zb.zone.Latitude, zb.zone.Longitude) <= zb.zone.RadiusKm {
			return true
		}
	}
	return false
}

// withinWorld reports whether b lies strictly inside lon (-180, 180) and
// lat (-90, 90). NaN bounds are not.
func withinWorld(b orb.Bound) bool {
	return b.Min[0] > -180 && b.Max[0] < 180 && b.Min[1] > -90 && b.Max[1] < 90
}

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lng1Rad := lng1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lng2Rad := lng2 * math.Pi / 180

	deltaLat := lat2Rad - lat1Rad
	deltaLng := lng2Rad - lng1Rad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// NearestZone returns the closest zone with coordinates and the distance to it.
func NearestZone(r models.Record, zones []models.InterestZone) (models.InterestZone, float64, bool) {
	if !r.HasCoordinates() {
		return models.InterestZone{}, 0, false
	}
	best, bestKm, found := models.InterestZone{}, math.Inf(1), false
	for _, z := range zones {
		if !z.HasCoordinates() {
			continue
		}
		if d := HaversineKm(r.Latitude, r.Longitude, z.Latitude, z.Longitude); d < bestKm {
			best, bestKm, found = z.Clone(), d, true
		}
	}
	if !found {
		return models.InterestZone{}, 0, false
	}
	return best, bestKm, true
}
