package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/keys"
	"github.com/nhle/inbox/internal/theme"
)

// section is one titled block of shortcuts.
type section struct {
	title    string
	bindings []key.Binding
}

// Model is the help overlay view.
type Model struct {
	sections [][]section
	help     help.Model
	provider string
	width    int
	height   int
}

// New creates a new help view model. provider names the AI backend shown
// at the bottom of the overlay.
func New(k *keys.KeyMap, provider string, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		sections: layoutSections(k),
		help:     h,
		provider: provider,
		width:    width,
		height:   height,
	}
}

// layoutSections groups the bindings into two rows of titled blocks.
func layoutSections(k *keys.KeyMap) [][]section {
	return [][]section{
		{
			{"Navigate", []key.Binding{k.Up, k.Down, k.Focus, k.Search, k.Back, k.Quit}},
			{"Channels", []key.Binding{k.ChannelAll, k.ChannelPersonal, k.ChannelBusiness}},
			{"Inbox", []key.Binding{k.Command, k.Refresh, k.Theme, k.Settings, k.Help}},
		},
		{
			{"Open message", []key.Binding{k.Translate, k.NextFile, k.Download, k.Delete}},
			{"Write", []key.Binding{k.Compose, k.Reply, k.Suggest, k.Attach, k.Detach, k.Send}},
		},
	}
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	rows := []string{titleStyle.Render("Keyboard Shortcuts")}
	for _, row := range m.sections {
		blocks := make([]string, 0, len(row))
		for _, s := range row {
			blocks = append(blocks, m.renderSection(s))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
	}
	rows = append(rows, theme.MutedStyle.Render("AI provider: "+m.provider))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m Model) renderSection(s section) string {
	return lipgloss.NewStyle().
		MarginRight(4).
		MarginBottom(1).
		Render(lipgloss.JoinVertical(
			lipgloss.Left,
			theme.HeaderStyle.Render(s.title),
			m.help.FullHelpView([][]key.Binding{s.bindings}),
		))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
