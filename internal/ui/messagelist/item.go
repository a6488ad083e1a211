package messagelist

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

// Item wraps a model.Message so it can be used in a bubbles/list.
type Item struct {
	Message model.Message
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Message.Subject }

// ItemDelegate renders a message as a sender line and a subject line.
type ItemDelegate struct{}

func (d ItemDelegate) Height() int { return 2 }

func (d ItemDelegate) Spacing() int { return 1 }

func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list entry.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	msg := it.Message
	width := max(m.Width()-4, 10)

	marker := " "
	senderStyle := lipgloss.NewStyle()
	if !msg.Read {
		marker = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render("●")
		senderStyle = theme.UnreadStyle
	}

	ts := theme.MutedStyle.Render(msg.Timestamp)
	sender := truncate(msg.Sender, width-lipgloss.Width(ts)-3)
	gap := max(width-lipgloss.Width(sender)-lipgloss.Width(ts)-2, 1)

	top := fmt.Sprintf("%s %s%*s%s", marker, senderStyle.Render(sender), gap, "", ts)
	bottom := "  " + truncate(msg.Subject, width-2)
	if msg.Read {
		bottom = theme.MutedStyle.Render(bottom)
	}

	line := top + "\n" + bottom
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// truncate shortens s to at most n cells, ending in an ellipsis when cut.
func truncate(s string, n int) string {
	if n <= 1 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
