// Package ai renders the assistant panel: the priority, summary and quick
// replies produced for the open message.
package ai

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/theme"
)

// Model is the assistant panel. It holds no analysis state of its own; the
// session owns that and passes it to View.
type Model struct {
	spinner spinner.Model
	width   int
}

// New creates an assistant panel of the given width.
func New(width int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorMagenta)

	return Model{spinner: sp, width: width}
}

// Tick starts the loading animation.
func (m Model) Tick() tea.Cmd {
	return m.spinner.Tick
}

// Update advances the spinner.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); !ok {
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// SpinnerView renders the current spinner frame for use beside other
// loading labels.
func (m Model) SpinnerView() string {
	return m.spinner.View()
}

// View renders the panel for st.
func (m Model) View(st inbox.AnalysisState) string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorMagenta).Render("AI Insights")

	var body string
	switch st.Status {
	case inbox.FlowLoading:
		body = m.spinner.View() + " Analyzing message..."
	case inbox.FlowFailed:
		body = lipgloss.NewStyle().Foreground(theme.ColorRed).Render(inbox.ErrorText(st.Err))
	case inbox.FlowReady:
		body = m.renderResult(st)
	default:
		body = theme.MutedStyle.Render("Select a message to analyze it.")
	}

	return theme.DetailPanelStyle.
		BorderForeground(theme.ColorMagenta).
		Width(max(m.width-4, 10)).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body))
}

func (m Model) renderResult(st inbox.AnalysisState) string {
	res := st.Result
	lines := []string{
		theme.PriorityStyle(res.Priority).Render(string(res.Priority)),
		"",
		lipgloss.NewStyle().Width(max(m.width-8, 10)).Render(res.Summary),
	}

	if len(res.Replies) > 0 {
		lines = append(lines, "", theme.MutedStyle.Render("Suggested replies"))
		for i, r := range res.Replies {
			lines = append(lines, fmt.Sprintf("%s %s",
				theme.HelpStyle.Render(fmt.Sprintf("f%d", i+1)),
				strings.TrimSpace(r),
			))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the panel width.
func (m *Model) SetSize(width int) {
	m.width = width
}
