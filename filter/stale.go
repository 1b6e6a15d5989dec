// ABOUTME: Follow-up selection over the record set
// ABOUTME: Finds offices whose last mail is unanswered past a cutoff
package filter

import (
	"sort"
	"time"

	"github.com/harperreed/notaires/models"
)

// StaleContacts returns records whose last contact is an unanswered mail sent
// before cutoff, oldest first.
func StaleContacts(records []models.Record, cutoff time.Time) []models.Record {
	var out []models.Record
	for _, r := range records {
		last := r.LastContact()
		if last == nil || last.Response != nil || last.Date.After(cutoff) {
			continue
		}
		if last.ContactStatus != models.ContactMailSent && last.ContactStatus != models.ContactFollowupSent {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastContact().Date.Before(out[j].LastContact().Date)
	})
	return out
}
