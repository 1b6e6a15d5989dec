package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/notaires/models"
)

// Form field order
const (
	fieldStreet = iota
	fieldPostalCode
	fieldCity
	fieldEmail
	fieldNotes
	fieldCount
)

func (m Model) renderEditView() string {
	var s strings.Builder

	title := "EDIT"
	if rec, ok := m.selectedRecord(); ok {
		title = "EDIT " + strings.ToUpper(rec.Name)
	}
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")

	if line := m.renderStatusLine(); line != "" {
		s.WriteString(line)
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewDetail
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		return m.saveForm()
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initFormInputs(rec models.Record) {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldStreet] = textinput.New()
	inputs[fieldStreet].Placeholder = "Street"
	inputs[fieldStreet].CharLimit = 200
	inputs[fieldStreet].SetValue(rec.Street)

	inputs[fieldPostalCode] = textinput.New()
	inputs[fieldPostalCode].Placeholder = "Postal code"
	inputs[fieldPostalCode].CharLimit = 10
	inputs[fieldPostalCode].SetValue(rec.PostalCode)

	inputs[fieldCity] = textinput.New()
	inputs[fieldCity].Placeholder = "City"
	inputs[fieldCity].CharLimit = 100
	inputs[fieldCity].SetValue(rec.City)

	inputs[fieldEmail] = textinput.New()
	inputs[fieldEmail].Placeholder = "Email"
	inputs[fieldEmail].CharLimit = 100
	inputs[fieldEmail].SetValue(rec.Email)

	inputs[fieldNotes] = textinput.New()
	inputs[fieldNotes].Placeholder = "Notes"
	inputs[fieldNotes].CharLimit = 500
	inputs[fieldNotes].SetValue(rec.Notes)

	m.formInputs = inputs
	m.focusIndex = 0
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

// saveForm applies the form to the open record. An address change flags the
// record for geocoding.
func (m Model) saveForm() (tea.Model, tea.Cmd) {
	rec, ok := m.selectedRecord()
	if !ok {
		m.viewMode = ViewList
		return m, nil
	}

	value := func(i int) string { return strings.TrimSpace(m.formInputs[i].Value()) }
	rec.SetAddress(value(fieldStreet), value(fieldPostalCode), value(fieldCity))
	rec.Email = value(fieldEmail)
	rec.Notes = value(fieldNotes)

	m.viewMode = ViewDetail
	m.message = "Saving " + rec.Name
	return m, m.saveRecord(rec)
}
