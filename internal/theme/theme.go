package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// Mode is the configured appearance: "auto", "light" or "dark".
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeLight Mode = "light"
	ModeDark  Mode = "dark"
)

// Apply forces the adaptive colors to the light or dark variant. ModeAuto
// leaves lipgloss' terminal detection in place.
func Apply(mode Mode) {
	switch mode {
	case ModeLight:
		lipgloss.SetHasDarkBackground(false)
	case ModeDark:
		lipgloss.SetHasDarkBackground(true)
	}
}

// Toggle flips between light and dark and returns the new mode.
func Toggle() Mode {
	if lipgloss.HasDarkBackground() {
		Apply(ModeLight)
		return ModeLight
	}
	Apply(ModeDark)
	return ModeDark
}

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBarStyle replaces the status bar while an error is shown.
var ErrorBarStyle = StatusBarStyle.
	Foreground(ColorRed).
	Bold(true)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// FocusedPanelStyle marks the pane that receives keys.
var FocusedPanelStyle = DetailPanelStyle.
	BorderForeground(ColorBlue)

// SidebarStyle frames the channel list.
var SidebarStyle = lipgloss.NewStyle().
	Padding(1, 1).
	Border(lipgloss.NormalBorder(), false, true, false, false).
	BorderForeground(ColorBorder)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// UnreadStyle renders unread senders and subjects.
var UnreadStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// MutedStyle is used for timestamps and secondary text.
var MutedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BadgeStyle renders counters such as unread totals.
var BadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// ChannelStyle returns a color-coded style for a message channel.
func ChannelStyle(ch model.Channel) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch ch {
	case model.ChannelBusiness:
		return base.Foreground(ColorBlue)
	case model.ChannelPersonal:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for an analysis priority.
func PriorityStyle(p model.Priority) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch p {
	case model.PriorityHigh:
		return base.Foreground(ColorRed)
	case model.PriorityNormal:
		return base.Foreground(ColorYellow)
	case model.PriorityLow:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}

// ScanStyle returns the style for an attachment's scan badge.
func ScanStyle(s inbox.ScanStatus) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch s {
	case inbox.ScanScanning:
		return base.Foreground(ColorMagenta)
	case inbox.ScanComplete:
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}
