// ABOUTME: Tests for follow-up selection
// ABOUTME: Checks cutoff handling, answered contacts and oldest-first ordering
package filter

import (
	"testing"
	"time"

	"github.com/harperreed/notaires/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleContacts(t *testing.T) {
	cutoff := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	old := cutoff.Add(-48 * time.Hour)
	older := cutoff.Add(-96 * time.Hour)

	records := []models.Record{
		{ID: "fresh", Contacts: []models.Contact{{Date: cutoff.Add(time.Hour), ContactStatus: models.ContactMailSent}}},
		{ID: "answered", Contacts: []models.Contact{{Date: old, ContactStatus: models.ContactResponseReceived, Response: &models.ContactResponse{}}}},
		{ID: "closed", Contacts: []models.Contact{{Date: old, ContactStatus: models.ContactClosed}}},
		{ID: "b", Contacts: []models.Contact{{Date: old, ContactStatus: models.ContactFollowupSent}}},
		{ID: "a", Contacts: []models.Contact{{Date: older, ContactStatus: models.ContactMailSent}}},
		{ID: "never"},
	}

	stale := StaleContacts(records, cutoff)
	require.Len(t, stale, 2)
	assert.Equal(t, "a", stale[0].ID)
	assert.Equal(t, "b", stale[1].ID)
}
