// ABOUTME: Terminal dashboard statistics and rendering
// ABOUTME: Summarizes statuses, outreach progress and records needing attention
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/models"
)

// StaleAfter is how long an unanswered mail waits before it needs a follow-up.
const StaleAfter = 14 * 24 * time.Hour

type DashboardStats struct {
	// Pipeline overview
	ByStatus        map[models.Status]int
	ByContactStatus map[models.ContactStatus]int

	// Overall stats
	TotalRecords int
	TotalZones   int
	Uncontacted  int
	WithEmail    int
	InZones      int

	// Recent activity (last 7 days)
	RecentActivity []ActivityItem

	// Needs attention
	StaleContacts  []StaleContact
	NeedsGeocoding int
}

type ActivityItem struct {
	Date        time.Time
	Description string
}

type StaleContact struct {
	Name      string
	DaysSince int
}

// GenerateDashboardStats computes dashboard figures from a snapshot of the record set.
func GenerateDashboardStats(records []models.Record, zones []models.InterestZone, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		ByStatus:        make(map[models.Status]int),
		ByContactStatus: make(map[models.ContactStatus]int),
		TotalRecords:    len(records),
		TotalZones:      len(zones),
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	for i := range records {
		r := &records[i]

		status := r.Status
		if status == "" {
			status = models.StatusUndefined
		}
		stats.ByStatus[status]++

		if r.Email != "" {
			stats.WithEmail++
		}
		if r.NeedsGeocoding || !r.HasCoordinates() {
			stats.NeedsGeocoding++
		}

		last := r.LastContact()
		if last == nil {
			stats.Uncontacted++
		} else {
			stats.ByContactStatus[last.ContactStatus]++
		}

		for _, c := range r.Contacts {
			if c.Date.After(weekAgo) && !c.Date.After(now) {
				stats.RecentActivity = append(stats.RecentActivity, ActivityItem{
					Date:        c.Date,
					Description: fmt.Sprintf("%s: %s", r.Name, c.ContactStatus),
				})
			}
		}
	}

	if len(zones) > 0 {
		spec := models.DefaultFilterSpec()
		spec.OnlyInRadius = true
		spec.Zones = zones
		stats.InZones = len(filter.FilterRecords(records, spec, ""))
	}

	for _, r := range filter.StaleContacts(records, now.Add(-StaleAfter)) {
		stats.StaleContacts = append(stats.StaleContacts, StaleContact{
			Name:      r.Name,
			DaysSince: int(now.Sub(r.LastContact().Date).Hours() / 24),
		})
	}

	return stats
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	// Header
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  NOTAIRES DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATUS\n")
	statusCounts := make([]int, len(models.AllStatuses))
	statusLabels := make([]string, len(models.AllStatuses))
	for i, s := range models.AllStatuses {
		statusLabels[i] = string(s)
		statusCounts[i] = stats.ByStatus[s]
	}
	renderBars(&out, statusLabels, statusCounts)
	out.WriteString("\n")

	out.WriteString("OUTREACH\n")
	contactLabels := []string{"uncontacted"}
	contactCounts := []int{stats.Uncontacted}
	for _, cs := range models.AllContactStatuses {
		contactLabels = append(contactLabels, string(cs))
		contactCounts = append(contactCounts, stats.ByContactStatus[cs])
	}
	renderBars(&out, contactLabels, contactCounts)
	out.WriteString("\n")

	// Stats
	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  %d offices  %d with email  %d zones  %d in zones\n\n",
		stats.TotalRecords, stats.WithEmail, stats.TotalZones, stats.InZones))

	if len(stats.RecentActivity) > 0 {
		out.WriteString("LAST 7 DAYS\n")
		for _, a := range stats.RecentActivity {
			out.WriteString(fmt.Sprintf("  %s  %s\n", a.Date.Format("2006-01-02"), a.Description))
		}
		out.WriteString("\n")
	}

	// Needs attention
	if len(stats.StaleContacts) > 0 || stats.NeedsGeocoding > 0 {
		out.WriteString("NEEDS ATTENTION\n")

		if len(stats.StaleContacts) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d offices - unanswered for %d+ days\n",
				len(stats.StaleContacts), int(StaleAfter.Hours()/24)))
		}

		if stats.NeedsGeocoding > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d offices - missing coordinates\n", stats.NeedsGeocoding))
		}
	}

	return out.String()
}

func renderBars(out *strings.Builder, labels []string, counts []int) {
	// Find max count for scaling
	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for i, label := range labels {
		// Calculate bar length (0-10 blocks)
		barLength := (counts[i] * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-18s %s  %3d\n", label, bar, counts[i]))
	}
}
