package messagelist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/keys"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

// SelectMsg is sent when the cursor lands on a different message.
type SelectMsg struct {
	ID int64
}

// QueryMsg is sent whenever the search text changes.
type QueryMsg struct {
	Query string
}

// Model is the message list column.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	searchMode  bool
	searchInput textinput.Model
	filtered    bool
	width       int
	height      int
}

// New creates a new message list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Inbox"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search messages..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// SetMessages replaces the visible messages and moves the cursor onto the
// selected one. The list itself never decides what is visible.
func (m *Model) SetMessages(msgs []model.Message, selected int64, filtered bool) tea.Cmd {
	items := make([]list.Item, len(msgs))
	cursor := 0
	for i, msg := range msgs {
		items[i] = Item{Message: msg}
		if msg.ID == selected {
			cursor = i
		}
	}
	m.filtered = filtered
	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// SetTitle changes the list heading.
func (m *Model) SetTitle(title string) {
	m.list.Title = title
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// SelectedID returns the id under the cursor.
func (m Model) SelectedID() (int64, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return 0, false
	}
	return it.Message.ID, true
}

// Update handles messages for the list column.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys filters as the user types. enter keeps the query and
// leaves the input, esc clears it.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.searchInput.Blur()
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Blur()
		m.searchInput.Reset()
		return m, queryCmd("")
	}

	before := m.searchInput.Value()
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if after := m.searchInput.Value(); after != before {
		return m, tea.Batch(cmd, queryCmd(after))
	}
	return m, cmd
}

// handleNormalKeys moves the cursor. Landing on a message selects it.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Down):
		m.list.CursorDown()
		return m, m.selectCmd()

	case key.Matches(msg, m.keys.Up):
		m.list.CursorUp()
		return m, m.selectCmd()
	}
	return m, nil
}

func (m Model) selectCmd() tea.Cmd {
	id, ok := m.SelectedID()
	if !ok {
		return nil
	}
	return func() tea.Msg { return SelectMsg{ID: id} }
}

func queryCmd(q string) tea.Cmd {
	return func() tea.Msg { return QueryMsg{Query: q} }
}

// View renders the list column.
func (m Model) View() string {
	var body string
	if len(m.list.Items()) == 0 {
		body = m.renderEmptyState()
	} else {
		body = m.list.View()
	}

	if m.searchMode || m.searchInput.Value() != "" {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, body)
	}
	return body
}

// renderEmptyState shows guidance text when nothing is visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filtered {
		return style.Render("No matching messages.\nTry another search or channel.")
	}
	return style.Render("Your inbox is empty.\n\nPress n to write a message.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
