package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Focus switches between the message list and the open message.
	Focus key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual import
	Refresh key.Binding

	// Channels
	ChannelAll      key.Binding
	ChannelPersonal key.Binding
	ChannelBusiness key.Binding

	// Message actions
	Compose   key.Binding
	Reply     key.Binding
	Send      key.Binding
	Translate key.Binding
	Delete    key.Binding
	Download  key.Binding
	NextFile  key.Binding
	Attach    key.Binding
	Detach    key.Binding
	Suggest   key.Binding

	// Appearance
	Theme key.Binding

	// Settings screen
	Settings key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch pane"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "check mail"),
		),
		ChannelAll: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "all"),
		),
		ChannelPersonal: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "personal"),
		),
		ChannelBusiness: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "business"),
		),
		Compose: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new message"),
		),
		Reply: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "write reply"),
		),
		Send: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "send reply"),
		),
		Translate: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "translate"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Download: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "download"),
		),
		NextFile: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "next attachment"),
		),
		Attach: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "attach file"),
		),
		Detach: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "remove attachment"),
		),
		Suggest: key.NewBinding(
			key.WithKeys("f1", "f2", "f3"),
			key.WithHelp("f1-f3", "use suggestion"),
		),
		Theme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "light/dark"),
		),
		Settings: key.NewBinding(
			key.WithKeys(","),
			key.WithHelp(",", "settings"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Focus, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Focus, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh, k.Theme, k.Settings},
		{k.ChannelAll, k.ChannelPersonal, k.ChannelBusiness, k.Compose},
		{k.Reply, k.Send, k.Suggest, k.Attach, k.Detach},
		{k.Translate, k.NextFile, k.Download, k.Delete},
	}
}
