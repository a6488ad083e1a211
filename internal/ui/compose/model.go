package compose

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/theme"
)

// SubmitMsg is dispatched when the form completes.
type SubmitMsg struct {
	Details inbox.ComposeDetails
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	recipients string
	subject    string
	body       string
}

// Model is the new-message form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	err    string
	width  int
	height int
}

// New creates a new compose form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the fields and builds a fresh form.
func (m *Model) Start() tea.Cmd {
	*m.fb = formBindings{}
	m.err = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// SetError shows a send failure above the form and reopens it with the
// entered values kept.
func (m *Model) SetError(msg string) tea.Cmd {
	m.err = msg
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		details := m.details()
		m.form = nil
		return m, func() tea.Msg { return SubmitMsg{Details: details} }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the compose form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("New Message")
	if m.err != "" {
		content += "\n" + lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.err)
	}
	content += "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("To").
				Placeholder("alice@example.com, bob@example.com").
				Value(&m.fb.recipients).
				Validate(validateRecipients),
			huh.NewInput().
				Title("Subject").
				Value(&m.fb.subject).
				Validate(validateRequired("Subject")),
			huh.NewText().
				Title("Message").
				Placeholder("Write your message...").
				Value(&m.fb.body).
				Validate(validateRequired("Message")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) details() inbox.ComposeDetails {
	return inbox.ComposeDetails{
		Recipients: inbox.ParseRecipients(m.fb.recipients),
		Subject:    strings.TrimSpace(m.fb.subject),
		Body:       strings.TrimSpace(m.fb.body),
	}
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-6, 10)
}

func validateRecipients(s string) error {
	if len(inbox.ParseRecipients(s)) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	return nil
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
