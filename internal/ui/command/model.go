package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/nhle/inbox/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Command is one palette entry.
type Command struct {
	Name        string
	Description string
}

// Commands is the palette's catalogue, in display order.
var Commands = []Command{
	{Name: "compose", Description: "write a new message"},
	{Name: "channel all", Description: "show every message"},
	{Name: "channel personal", Description: "show personal messages"},
	{Name: "channel business", Description: "show business messages"},
	{Name: "translate", Description: "translate the open message"},
	{Name: "delete", Description: "delete the open message"},
	{Name: "clear search", Description: "drop the search filter"},
	{Name: "refresh", Description: "check all mail sources now"},
	{Name: "theme", Description: "switch between light and dark"},
	{Name: "settings", Description: "mail account and preferences"},
	{Name: "help", Description: "show keyboard shortcuts"},
	{Name: "quit", Description: "exit inbox"},
}

// maxMatches caps the suggestions shown under the input.
const maxMatches = 6

type names []Command

func (n names) String(i int) string { return n[i].Name }
func (n names) Len() int            { return len(n) }

// Match returns the commands matching query, best first. An empty query
// lists every command.
func Match(query string) []Command {
	query = strings.TrimSpace(query)
	if query == "" {
		return Commands
	}
	found := fuzzy.FindFrom(query, names(Commands))
	out := make([]Command, len(found))
	for i, f := range found {
		out[i] = Commands[f.Index]
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input   textinput.Model
	matches []Command
	cursor  int
	width   int
	height  int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:   ti,
		matches: Commands,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette. enter runs the
// highlighted match.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			if len(m.matches) == 0 {
				return m, nil
			}
			name := m.matches[m.cursor].Name
			m.reset()
			return m, func() tea.Msg {
				return CommandMsg(name)
			}
		case "up", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.cursor < min(len(m.matches), maxMatches)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.matches = Match(m.input.Value())
	m.cursor = 0
	return m, cmd
}

func (m *Model) reset() {
	m.input.Reset()
	m.matches = Commands
	m.cursor = 0
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}
	for i, c := range m.matches {
		if i == maxMatches {
			break
		}
		line := c.Name + "  " + theme.MutedStyle.Render(c.Description)
		if i == m.cursor {
			lines = append(lines, theme.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(line))
		}
	}
	if len(m.matches) == 0 {
		lines = append(lines, theme.MutedStyle.Render("no matching command"))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.reset()
	return m.input.Focus()
}
