// ABOUTME: Tests for CRM data models
// ABOUTME: Covers cloning, contact history helpers, and enum parsing
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCloneIsDeep(t *testing.T) {
	rec := Record{
		ID:   "n1",
		Name: "Etude Martin",
		Contacts: []Contact{
			{Kind: ContactInitial, ContactStatus: ContactMailSent, Response: &ContactResponse{Comment: "ok"}},
		},
		GeocodeHistory: []GeocodeAttempt{{ID: "a", Status: GeocodeOK}},
	}

	clone := rec.Clone()
	clone.Contacts[0].ContactStatus = ContactClosed
	clone.Contacts[0].Response.Comment = "changed"
	clone.GeocodeHistory[0].Status = GeocodeFailed

	assert.Equal(t, ContactMailSent, rec.Contacts[0].ContactStatus)
	assert.Equal(t, "ok", rec.Contacts[0].Response.Comment)
	assert.Equal(t, GeocodeOK, rec.GeocodeHistory[0].Status)
}

func TestInterestZoneCloneCopiesPopulation(t *testing.T) {
	pop := 5000
	z := InterestZone{ID: "z1", Name: "Paris", Population: &pop}

	clone := z.Clone()
	*clone.Population = 1

	assert.Equal(t, 5000, *z.Population)
}

func TestCloneRecordsNeverNil(t *testing.T) {
	assert.NotNil(t, CloneRecords(nil))
	assert.NotNil(t, CloneZones(nil))
}

func TestContactHistoryHelpers(t *testing.T) {
	rec := &Record{ID: "n1", Name: "Etude"}
	assert.Nil(t, rec.LastContact())
	assert.False(t, rec.RecordResponse(ContactResponse{Positive: true}))

	first := Contact{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Kind: ContactInitial, ContactStatus: ContactMailSent}
	second := Contact{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Kind: ContactFollowup, ContactStatus: ContactFollowupSent}
	third := Contact{Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Kind: ContactFollowup, ContactStatus: ContactFollowupSent}
	rec.AddContact(first)
	rec.AddContact(second)
	rec.AddContact(third)

	require.NotNil(t, rec.LastContact())
	assert.Equal(t, third.Date, rec.LastContact().Date)

	assert.True(t, rec.RemoveContact(1))
	require.Len(t, rec.Contacts, 2)
	assert.Equal(t, first.Date, rec.Contacts[0].Date)
	assert.Equal(t, third.Date, rec.Contacts[1].Date)

	assert.False(t, rec.RemoveContact(5))
	assert.False(t, rec.UpdateContact(-1, first))

	assert.True(t, rec.RecordResponse(ContactResponse{Positive: true, Comment: "rdv"}))
	assert.Equal(t, ContactResponseReceived, rec.LastContact().ContactStatus)
	assert.Equal(t, "rdv", rec.LastContact().Response.Comment)
}

func TestRemoveContactDoesNotAliasClone(t *testing.T) {
	rec := Record{ID: "n1", Name: "Etude", Contacts: []Contact{{By: "a"}, {By: "b"}, {By: "c"}}}
	clone := rec.Clone()

	clone.RemoveContact(0)

	assert.Equal(t, "a", rec.Contacts[0].By)
	assert.Len(t, rec.Contacts, 3)
}

func TestSetAddressFlagsGeocoding(t *testing.T) {
	rec := &Record{Street: "1 rue de Rivoli", PostalCode: "75001", City: "Paris"}

	rec.SetAddress("1 rue de Rivoli", "75001", "Paris")
	assert.False(t, rec.NeedsGeocoding)

	rec.SetAddress("2 rue de Rivoli", "75001", "Paris")
	assert.True(t, rec.NeedsGeocoding)
	assert.Equal(t, "2 rue de Rivoli 75001 Paris", rec.FullAddress())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected Status
	}{
		{"favorite", StatusFavorite},
		{" Considering ", StatusConsidering},
		{"not_interested", StatusNotInterested},
		{"", StatusUndefined},
		{"bogus", StatusUndefined},
	}

	for _, tt := range tests {
		if got := ParseStatus(tt.input); got != tt.expected {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseContactStatus(t *testing.T) {
	cs, ok := ParseContactStatus("MAIL_SENT")
	assert.True(t, ok)
	assert.Equal(t, ContactMailSent, cs)

	_, ok = ParseContactStatus("phoned")
	assert.False(t, ok)
}

func TestDefaultFilterSpecRanges(t *testing.T) {
	spec := DefaultFilterSpec()
	assert.True(t, spec.Associates.Contains(0))
	assert.True(t, spec.Employees.Contains(1_000_000))
	assert.False(t, IntRange{Min: 2, Max: 4}.Contains(5))
	assert.True(t, IntRange{Min: 2, Max: 4}.Contains(4))
}
