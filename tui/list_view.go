package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/notaires/models"
)

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("NOTAIRES"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.tab == TabRecords {
		s.WriteString(m.renderFilterBar())
		s.WriteString("\n\n")
	}

	// Table
	s.WriteString(m.renderTable())
	s.WriteString("\n\n")

	if line := m.renderStatusLine(); line != "" {
		s.WriteString(line)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string

	for i, name := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(name))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(name))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderFilterBar() string {
	parts := []string{fmt.Sprintf("%d/%d offices", len(m.visible), len(m.records))}
	if q := m.searchInput.Value(); q != "" || m.searching {
		parts = append(parts, m.searchInput.View())
	}
	if m.spec.Type != models.TypeAll {
		parts = append(parts, "type: "+string(m.spec.Type))
	}
	if m.spec.ShowUncontacted {
		parts = append(parts, "uncontacted")
	}
	if m.spec.OnlyWithEmail {
		parts = append(parts, "with email")
	}
	if m.spec.OnlyInRadius {
		parts = append(parts, "in zones")
	}
	return messageStyle.Render(strings.Join(parts, " • "))
}

func (m Model) renderTable() string {
	switch m.tab {
	case TabRecords:
		return m.renderRecordsTable()
	case TabFollowups:
		return m.renderFollowupsTable()
	case TabZones:
		return m.renderZonesTable()
	case TabSync:
		return m.renderSyncView()
	}
	return ""
}

func (m Model) renderRecordsTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "City", Width: 18},
		{Title: "Status", Width: 14},
		{Title: "Assoc.", Width: 6},
		{Title: "Last contact", Width: 20},
	}

	var rows []table.Row
	for _, r := range m.visible {
		lastContact := "-"
		if last := r.LastContact(); last != nil {
			lastContact = fmt.Sprintf("%s %s", last.Date.Format("2006-01-02"), last.ContactStatus)
		}

		rows = append(rows, table.Row{
			r.Name,
			r.City,
			string(r.Status),
			fmt.Sprintf("%d", r.AssociateCount),
			lastContact,
		})
	}

	return m.newTable(columns, rows).View()
}

func (m Model) newTable(columns []table.Column, rows []table.Row) table.Model {
	height := m.height - 12
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
	}
	switch m.tab {
	case TabRecords:
		help = append(help,
			"Enter: Details",
			"/: Search",
			"s: Cycle status",
			"c: Log mail",
			"t/u/e/z: Filters",
		)
	case TabFollowups:
		help = append(help, "Enter: Details", "c: Log follow-up")
	case TabSync:
		help = append(help, "r: Resync", "f: Flush writes")
	}
	help = append(help, "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.tab == TabSync {
		if model, cmd, handled := m.handleSyncKeys(msg); handled {
			return model, cmd
		}
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		m.selectedRow++
		m.refilter()
	case "tab":
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.selectedRow = 0
		m.refilter()
	case "enter":
		if m.tab == TabRecords || m.tab == TabFollowups {
			if rec, ok := m.selectedRecord(); ok {
				m.viewMode = ViewDetail
				m.selectedID = rec.ID
			}
		}
	case "/":
		if m.tab == TabRecords {
			m.searching = true
			m.searchInput.Focus()
			return m, textinput.Blink
		}
	case "s":
		if m.tab == TabRecords {
			return m.cycleStatus()
		}
	case "c":
		if m.tab == TabRecords || m.tab == TabFollowups {
			return m.logContact()
		}
	case "t":
		m.spec.Type = nextType(m.spec.Type)
		m.refilter()
	case "u":
		m.spec.ShowUncontacted = !m.spec.ShowUncontacted
		m.refilter()
	case "e":
		m.spec.OnlyWithEmail = !m.spec.OnlyWithEmail
		m.refilter()
	case "z":
		m.spec.OnlyInRadius = !m.spec.OnlyInRadius
		m.refilter()
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.SetValue("")
		m.searchInput.Blur()
		m.refilter()
		return m, nil
	case "enter":
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.selectedRow = 0
	m.refilter()
	return m, cmd
}

func (m Model) cycleStatus() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedRecord()
	if !ok {
		return m, nil
	}
	rec.Status = nextStatus(rec.Status)
	m.message = fmt.Sprintf("%s → %s", rec.Name, rec.Status)
	return m, m.saveRecord(rec)
}

func (m Model) logContact() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedRecord()
	if !ok {
		return m, nil
	}

	kind, status := models.ContactInitial, models.ContactMailSent
	if len(rec.Contacts) > 0 {
		kind, status = models.ContactFollowup, models.ContactFollowupSent
	}
	rec.AddContact(models.Contact{Date: m.now(), Kind: kind, ContactStatus: status})
	m.message = fmt.Sprintf("Logged %s mail to %s", kind, rec.Name)
	return m, m.saveRecord(rec)
}

func nextStatus(s models.Status) models.Status {
	for i, known := range models.AllStatuses {
		if known == s {
			return models.AllStatuses[(i+1)%len(models.AllStatuses)]
		}
	}
	return models.AllStatuses[0]
}

func nextType(t models.TypeFilter) models.TypeFilter {
	switch t {
	case models.TypeAll:
		return models.TypeIndividual
	case models.TypeIndividual:
		return models.TypeGrouped
	default:
		return models.TypeAll
	}
}
