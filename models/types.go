// ABOUTME: Data models for the prospect CRM
// ABOUTME: Defines Record, Contact, InterestZone, FilterSpec and their enums
package models

import (
	"strings"
	"time"
)

// Status is the mutable classification of a record.
type Status string

const (
	StatusFavorite      Status = "favorite"
	StatusConsidering   Status = "considering"
	StatusNotInterested Status = "not_interested"
	StatusUndefined     Status = "undefined"
)

// AllStatuses lists every status in display order.
var AllStatuses = []Status{StatusFavorite, StatusConsidering, StatusNotInterested, StatusUndefined}

// ParseStatus maps free text to a Status. Unknown values become StatusUndefined.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusFavorite:
		return StatusFavorite
	case StatusConsidering:
		return StatusConsidering
	case StatusNotInterested:
		return StatusNotInterested
	default:
		return StatusUndefined
	}
}

type ContactKind string

const (
	ContactInitial  ContactKind = "initial"
	ContactFollowup ContactKind = "followup"
)

type ContactStatus string

const (
	ContactMailSent         ContactStatus = "mail_sent"
	ContactFollowupSent     ContactStatus = "followup_sent"
	ContactResponseReceived ContactStatus = "response_received"
	ContactClosed           ContactStatus = "closed"
)

// AllContactStatuses lists every contact status in lifecycle order.
var AllContactStatuses = []ContactStatus{ContactMailSent, ContactFollowupSent, ContactResponseReceived, ContactClosed}

// ParseContactStatus returns the matching ContactStatus and whether it was recognised.
func ParseContactStatus(s string) (ContactStatus, bool) {
	cs := ContactStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllContactStatuses {
		if cs == known {
			return cs, true
		}
	}
	return "", false
}

// Geocode status values.
const (
	GeocodeOK       = "ok"
	GeocodeLowScore = "low_score"
	GeocodeFailed   = "failed"
)

type ContactResponse struct {
	Date     time.Time `json:"date"`
	Positive bool      `json:"positive"`
	Comment  string    `json:"comment,omitempty"`
}

// Contact is one entry of a record's outreach history.
type Contact struct {
	Date          time.Time        `json:"date"`
	Kind          ContactKind      `json:"kind"`
	By            string           `json:"by,omitempty"`
	ContactStatus ContactStatus    `json:"contact_status"`
	Response      *ContactResponse `json:"response,omitempty"`
}

// GeocodeAttempt is one entry of the append-only geocoding audit trail.
type GeocodeAttempt struct {
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Query  string    `json:"query"`
	Label  string    `json:"label,omitempty"`
	Score  float64   `json:"score,omitempty"`
	Status string    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// Record is a tracked notary office.
type Record struct {
	ID                 string           `json:"id" validate:"required"`
	Name               string           `json:"name" validate:"required"`
	Street             string           `json:"street,omitempty"`
	PostalCode         string           `json:"postal_code,omitempty"`
	City               string           `json:"city,omitempty"`
	Email              string           `json:"email,omitempty"`
	Latitude           float64          `json:"latitude,omitempty"`
	Longitude          float64          `json:"longitude,omitempty"`
	NeedsGeocoding     bool             `json:"needs_geocoding"`
	Status             Status           `json:"status"`
	AssociateCount     int              `json:"associate_count"`
	EmployeeCount      int              `json:"employee_count"`
	AssociateNames     string           `json:"associate_names,omitempty"`
	EmployeeNames      string           `json:"employee_names,omitempty"`
	NegotiationService bool             `json:"negotiation_service"`
	Contacts           []Contact        `json:"contacts"`
	Notes              string           `json:"notes,omitempty"`
	ModifiedAt         time.Time        `json:"modified_at"`
	GeocodeScore       float64          `json:"geocode_score,omitempty"`
	GeocodeStatus      string           `json:"geocode_status,omitempty"`
	GeocodeHistory     []GeocodeAttempt `json:"geocode_history,omitempty"`

	// SheetRow is the 1-based spreadsheet row the record was read from.
	SheetRow int `json:"-"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Contacts != nil {
		out.Contacts = make([]Contact, len(r.Contacts))
		for i, c := range r.Contacts {
			if c.Response != nil {
				resp := *c.Response
				c.Response = &resp
			}
			out.Contacts[i] = c
		}
	}
	if r.GeocodeHistory != nil {
		out.GeocodeHistory = append([]GeocodeAttempt(nil), r.GeocodeHistory...)
	}
	return out
}

// HasCoordinates reports whether the record has been placed on the map.
func (r *Record) HasCoordinates() bool {
	return r.Latitude != 0 || r.Longitude != 0
}

// IsGrouped reports whether the office has more than one associate.
func (r *Record) IsGrouped() bool {
	return r.AssociateCount > 1
}

// LastContact returns the most recent contact, or nil when there is none.
func (r *Record) LastContact() *Contact {
	if len(r.Contacts) == 0 {
		return nil
	}
	return &r.Contacts[len(r.Contacts)-1]
}

// AddContact appends a contact; history order is chronological.
func (r *Record) AddContact(c Contact) {
	r.Contacts = append(r.Contacts, c)
}

// UpdateContact replaces the contact at index i.
func (r *Record) UpdateContact(i int, c Contact) bool {
	if i < 0 || i >= len(r.Contacts) {
		return false
	}
	r.Contacts[i] = c
	return true
}

// RemoveContact deletes the contact at index i, keeping the order of the others.
func (r *Record) RemoveContact(i int) bool {
	if i < 0 || i >= len(r.Contacts) {
		return false
	}
	r.Contacts = append(r.Contacts[:i:i], r.Contacts[i+1:]...)
	return true
}

// RecordResponse attaches a response to the last contact and marks it received.
func (r *Record) RecordResponse(resp ContactResponse) bool {
	last := r.LastContact()
	if last == nil {
		return false
	}
	last.Response = &resp
	last.ContactStatus = ContactResponseReceived
	return true
}

// SetAddress updates the address and flags the record for geocoding when it changed.
func (r *Record) SetAddress(street, postalCode, city string) {
	if r.Street == street && r.PostalCode == postalCode && r.City == city {
		return
	}
	r.Street = street
	r.PostalCode = postalCode
	r.City = city
	r.NeedsGeocoding = true
}

// FullAddress joins the address fields for geocoding.
func (r *Record) FullAddress() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Street, r.PostalCode, r.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// InterestZone is a named center and radius used by the radius filter.
type InterestZone struct {
	ID         string  `json:"id" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	RadiusKm   float64 `json:"radius_km" validate:"gt=0"`
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Region     string  `json:"region"`
	Population *int    `json:"population,omitempty"`
}

// Clone returns a deep copy of the zone.
func (z InterestZone) Clone() InterestZone {
	out := z
	if z.Population != nil {
		p := *z.Population
		out.Population = &p
	}
	return out
}

// HasCoordinates reports whether the zone center is set.
func (z *InterestZone) HasCoordinates() bool {
	return z.Latitude != 0 || z.Longitude != 0
}

// CloneRecords deep-copies a record slice. The result is never nil.
func CloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// CloneZones deep-copies a zone slice. The result is never nil.
func CloneZones(in []InterestZone) []InterestZone {
	out := make([]InterestZone, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}
