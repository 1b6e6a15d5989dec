// ABOUTME: TUI view for follow-up tracking
// ABOUTME: Lists offices whose last mail is unanswered, oldest first
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
)

func (m Model) renderFollowupsTable() string {
	columns := []table.Column{
		{Title: "Status", Width: 6},
		{Title: "Name", Width: 30},
		{Title: "City", Width: 18},
		{Title: "Days", Width: 6},
		{Title: "Last", Width: 14},
		{Title: "Email", Width: 30},
	}

	now := m.now()
	var rows []table.Row
	for _, r := range m.visible {
		last := r.LastContact()
		days := int(now.Sub(last.Date).Hours() / 24)

		indicator := "🟡"
		if days > 2*int(followupAge.Hours()/24) {
			indicator = "🔴"
		}

		rows = append(rows, table.Row{
			indicator,
			r.Name,
			r.City,
			fmt.Sprintf("%d", days),
			string(last.ContactStatus),
			r.Email,
		})
	}

	return m.newTable(columns, rows).View()
}
