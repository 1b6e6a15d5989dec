package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/notaires/filter"
	"github.com/harperreed/notaires/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	sectionStyle = lipgloss.NewStyle().Bold(true)
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	rec, ok := m.selectedRecord()
	if !ok {
		s.WriteString(titleStyle.Render("DETAIL VIEW"))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("Record no longer exists"))
		s.WriteString("\n\n")
		s.WriteString(helpStyle.Render("Esc: Back"))
		return s.String()
	}

	s.WriteString(titleStyle.Render(rec.Name))
	s.WriteString("\n\n")
	s.WriteString(m.renderRecordDetail(rec))
	s.WriteString("\n")

	if line := m.renderStatusLine(); line != "" {
		s.WriteString(line)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderRecordDetail(rec models.Record) string {
	var s strings.Builder

	s.WriteString(m.renderField("Status", string(rec.Status)))
	s.WriteString(m.renderField("Address", rec.FullAddress()))
	s.WriteString(m.renderField("Email", rec.Email))
	s.WriteString(m.renderField("Associates", fmt.Sprintf("%d %s", rec.AssociateCount, rec.AssociateNames)))
	s.WriteString(m.renderField("Employees", fmt.Sprintf("%d %s", rec.EmployeeCount, rec.EmployeeNames)))
	if rec.NegotiationService {
		s.WriteString(m.renderField("Negotiation", "yes"))
	}

	switch {
	case rec.NeedsGeocoding:
		s.WriteString(m.renderField("Location", "needs geocoding"))
	case rec.HasCoordinates():
		loc := fmt.Sprintf("%.5f, %.5f", rec.Latitude, rec.Longitude)
		if rec.GeocodeStatus != "" {
			loc += fmt.Sprintf(" (%s %.2f)", rec.GeocodeStatus, rec.GeocodeScore)
		}
		s.WriteString(m.renderField("Location", loc))
		if z, d, ok := filter.NearestZone(rec, m.zones); ok {
			s.WriteString(m.renderField("Nearest zone", fmt.Sprintf("%s, %.1f km", z.Name, d)))
		}
	}

	if !rec.ModifiedAt.IsZero() {
		s.WriteString(m.renderField("Modified", rec.ModifiedAt.Format("2006-01-02 15:04")))
	}
	if rec.Notes != "" {
		s.WriteString(m.renderField("Notes", rec.Notes))
	}

	// Contact history
	s.WriteString("\n")
	s.WriteString(sectionStyle.Render("CONTACTS"))
	s.WriteString("\n")

	if len(rec.Contacts) == 0 {
		s.WriteString("  (none)\n")
	}
	for _, c := range rec.Contacts {
		line := fmt.Sprintf("  • %s %s %s", c.Date.Format("2006-01-02"), c.Kind, c.ContactStatus)
		if c.By != "" {
			line += " by " + c.By
		}
		if c.Response != nil {
			verdict := "negative"
			if c.Response.Positive {
				verdict = "positive"
			}
			line += fmt.Sprintf(" → %s response %s", verdict, c.Response.Date.Format("2006-01-02"))
			if c.Response.Comment != "" {
				line += ": " + c.Response.Comment
			}
		}
		s.WriteString(line + "\n")
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"e: Edit address",
		"s: Cycle status",
		"c: Log mail",
		"p/n: Positive/negative response",
		"x: Remove last contact",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.selectedID = ""
		m.refilter()
	case "e":
		if rec, ok := m.selectedRecord(); ok {
			m.viewMode = ViewEdit
			m.initFormInputs(rec)
		}
	case "s":
		return m.cycleStatus()
	case "c":
		return m.logContact()
	case "p", "n":
		return m.recordResponse(msg.String() == "p")
	case "x":
		rec, ok := m.selectedRecord()
		if !ok || !rec.RemoveContact(len(rec.Contacts)-1) {
			return m, nil
		}
		m.message = "Removed last contact"
		return m, m.saveRecord(rec)
	}

	return m, nil
}

func (m Model) recordResponse(positive bool) (tea.Model, tea.Cmd) {
	rec, ok := m.selectedRecord()
	if !ok {
		return m, nil
	}
	if !rec.RecordResponse(models.ContactResponse{Date: m.now(), Positive: positive}) {
		m.err = fmt.Errorf("no contact to attach a response to")
		return m, nil
	}
	m.err = nil
	return m, m.saveRecord(rec)
}
