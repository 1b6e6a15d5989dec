// ABOUTME: TUI view for interest zones
// ABOUTME: Shows each zone with its radius and the number of offices inside it
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/models"
)

func (m Model) renderZonesTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Region", Width: 18},
		{Title: "Radius", Width: 8},
		{Title: "Center", Width: 20},
		{Title: "Offices", Width: 8},
	}

	var rows []table.Row
	for _, z := range m.zones {
		spec := models.DefaultFilterSpec()
		spec.OnlyInRadius = true
		spec.Zones = []models.InterestZone{z}
		count := len(filter.FilterRecords(m.records, spec, ""))

		rows = append(rows, table.Row{
			z.Name,
			z.Region,
			fmt.Sprintf("%.0f km", z.RadiusKm),
			fmt.Sprintf("%.3f, %.3f", z.Latitude, z.Longitude),
			fmt.Sprintf("%d", count),
		})
	}

	return m.newTable(columns, rows).View()
}
