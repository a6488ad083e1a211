package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

// SidebarWidth is the fixed width of the channel column.
const SidebarWidth = 20

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// ListWidth is the width of the message list column: roughly a third of
// what the sidebar leaves, never narrower than 28 cells.
func (l Layout) ListWidth() int {
	w := (l.Width - SidebarWidth) / 3
	if w < 28 {
		w = 28
	}
	return w
}

// DetailWidth is whatever remains for the open message.
func (l Layout) DetailWidth() int {
	w := l.Width - SidebarWidth - l.ListWidth()
	if w < 20 {
		w = 20
	}
	return w
}

// RenderHeader renders the top header bar with a title and sync status.
func (l Layout) RenderHeader(title string, syncStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(syncStatus)

	gap := max(l.Width-lipgloss.Width(titleRendered)-lipgloss.Width(statusRendered), 0)

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderSidebar lists the channels with their unread counts and marks the
// active one.
func (l Layout) RenderSidebar(active model.Channel, counts model.UnreadCounts) string {
	lines := []string{theme.MutedStyle.Render("Channels"), ""}

	for i, ch := range model.Channels {
		label := fmt.Sprintf("%d %s", i+1, ch)
		if n := counts.For(ch); n > 0 {
			label = fmt.Sprintf("%-12s %s", label, theme.BadgeStyle.Render(fmt.Sprint(n)))
		}
		if ch == active {
			lines = append(lines, theme.SelectedItemStyle.Render(label))
		} else {
			lines = append(lines, theme.ListItemStyle.Render(label))
		}
	}

	return theme.SidebarStyle.
		Width(SidebarWidth - 1).
		Height(max(l.ContentHeight()-2, 0)).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.renderBar(theme.StatusBarStyle, hints)
}

// RenderErrorBar renders the bottom bar in the error style.
func (l Layout) RenderErrorBar(text string) string {
	return l.renderBar(theme.ErrorBarStyle, text)
}

func (l Layout) renderBar(style lipgloss.Style, text string) string {
	rendered := style.Render(text)

	gap := max(l.Width-lipgloss.Width(rendered), 0)

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
