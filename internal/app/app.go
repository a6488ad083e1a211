package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/credential"
	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/keys"
	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/notify"
	appsync "github.com/nhle/inbox/internal/sync"
	"github.com/nhle/inbox/internal/theme"
	"github.com/nhle/inbox/internal/ui"
	"github.com/nhle/inbox/internal/ui/command"
	"github.com/nhle/inbox/internal/ui/compose"
	settingsview "github.com/nhle/inbox/internal/ui/config"
	"github.com/nhle/inbox/internal/ui/detail"
	helpview "github.com/nhle/inbox/internal/ui/help"
	"github.com/nhle/inbox/internal/ui/messagelist"
)

// ConfigChangedMsg is sent by the config watcher when the file on disk
// changed. Only settings that can be applied live are carried.
type ConfigChangedMsg struct {
	Theme    string
	LogLevel string
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewCompose
	ViewHelp
	ViewCommand
	ViewSettings
)

type focus int

const (
	focusList focus = iota
	focusDetail
)

// Options wires the root model to its collaborators.
type Options struct {
	Session  *inbox.Session
	Poller   *appsync.Poller
	Notifier notify.Notifier

	// Provider names the AI backend for the help screen.
	Provider string

	// Config is the loaded configuration the settings screen edits. Without
	// it the settings screen is unavailable.
	Config *model.AppConfig

	// Settings overrides the settings screen's side effects. Zero fields
	// get the defaults built from ConfigPath.
	Settings   settingsview.Deps
	ConfigPath string

	// PasswordLookup finds stored credentials. Defaults to credential.Lookup.
	PasswordLookup PasswordLookup
}

// Model is the root Bubble Tea model that manages view routing and
// layout. All inbox state lives in the session; the views only render it.
type Model struct {
	currentView  ViewState
	previousView ViewState
	focus        focus
	layout       ui.Layout
	keys         *keys.KeyMap
	session      *inbox.Session
	poller       *appsync.Poller
	notifier     notify.Notifier
	list         messagelist.Model
	detail       detail.Model
	composeView  compose.Model
	helpView     helpview.Model
	commandView  command.Model
	settingsView settingsview.Model
	config       *model.AppConfig
	lookup       PasswordLookup
	ready        bool
	status       string
	errMsg       string
	log          zerolog.Logger
}

// New creates a new root application model.
func New(opts Options) Model {
	k := keys.DefaultKeyMap()
	n := opts.Notifier
	if n == nil {
		n = notify.Nop{}
	}

	lookup := opts.PasswordLookup
	if lookup == nil {
		lookup = credential.Lookup
	}

	m := Model{
		currentView: ViewInbox,
		keys:        k,
		session:     opts.Session,
		poller:      opts.Poller,
		notifier:    n,
		list:        messagelist.New(k, 40, 24),
		detail:      detail.New(k, 80, 24),
		composeView: compose.New(80, 24),
		helpView:    helpview.New(k, opts.Provider, 80, 24),
		commandView: command.New(80, 24),
		settingsView: settingsview.New(
			settingsDeps(opts.Settings, opts.ConfigPath, lookup), 80, 24,
		),
		config: opts.Config,
		lookup: lookup,
		log:    logging.Component("app"),
	}
	m.syncViews()
	return m
}

// Init starts the first analysis and the background imports.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.session.Init()}
	if m.poller != nil {
		cmds = append(cmds, m.poller.Start())
	}
	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		h := m.layout.ContentHeight()
		m.list.SetSize(m.layout.ListWidth(), h)
		m.detail.SetSize(m.layout.DetailWidth()-4, h-2)
		m.composeView.SetSize(m.layout.ContentWidth(), h)
		m.helpView.SetSize(m.layout.ContentWidth(), h)
		m.commandView.SetSize(m.layout.ContentWidth(), h)
		m.settingsView.SetSize(m.layout.ContentWidth(), h)
		if m.currentView == ViewCompose {
			// Forward so huh forms can calculate their layout.
			m.composeView, cmd = m.composeView.Update(msg)
		}

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, m.quit()
		}
		m.errMsg = ""
		m.status = ""
		cmd = m.handleKey(msg)

	case appsync.SyncResultMsg:
		cmd = m.handleSyncResult(msg)

	case inbox.DownloadStartedMsg:
		title, body := notify.DownloadStarted(msg.Attachment)
		m.status = title + ": " + body
		if err := m.notifier.Notify(title, body); err != nil {
			m.log.Debug().Err(err).Msg("notification not delivered")
		}

	case ConfigChangedMsg:
		theme.Apply(theme.Mode(msg.Theme))
		logging.SetLevel(msg.LogLevel)
		m.status = "configuration reloaded"

	case messagelist.SelectMsg:
		cmd = m.session.Select(msg.ID)

	case messagelist.QueryMsg:
		cmd = m.session.SetQuery(msg.Query)

	case detail.BackMsg:
		m.focus = focusList

	case detail.DraftMsg:
		m.session.SetDraftText(msg.Text)

	case detail.SuggestionMsg:
		m.session.SelectSuggestedReply(msg.Text)

	case detail.ReplyMsg:
		c, err := m.session.SubmitDraft()
		if err != nil {
			m.errMsg = inbox.ErrorText(err)
		} else {
			m.status = "reply sent"
		}
		cmd = c

	case detail.DeleteMsg:
		cmd = m.session.DeleteMessage(msg.ID)
		m.status = "message deleted"

	case detail.DownloadMsg:
		cmd = m.session.RequestDownload(msg.ReplyID)

	case detail.TranslateMsg:
		cmd = m.session.RequestTranslate()

	case detail.AttachMsg:
		if err := m.session.AttachFile(msg.Path); err != nil {
			m.errMsg = inbox.ErrorText(err)
		}

	case detail.DetachMsg:
		m.session.RemoveAttachment()

	case compose.SubmitMsg:
		c, err := m.session.SendMessage(msg.Details)
		if err != nil {
			m.errMsg = inbox.ErrorText(err)
			cmd = m.composeView.SetError(m.errMsg)
			break
		}
		m.currentView = ViewInbox
		m.focus = focusList
		m.status = "message sent"
		cmd = c

	case compose.CancelMsg:
		cmd = m.cancelCompose()

	case settingsview.DoneMsg:
		m.currentView = ViewInbox

	case settingsview.SavedMsg:
		m.currentView = ViewInbox
		cmd = m.applySettings(msg)

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd = m.executeCommand(string(msg))

	default:
		cmd = tea.Batch(m.session.Update(msg), m.updateActiveView(msg))
	}

	return m, tea.Batch(cmd, m.syncViews())
}

// handleKey routes a key press. Text inputs get raw keys first; only then
// are global shortcuts interpreted.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.currentView {
	case ViewCompose:
		if key.Matches(msg, m.keys.Back) {
			return m.cancelCompose()
		}
		return m.updateActiveView(msg)

	case ViewHelp:
		if key.Matches(msg, m.keys.Help, m.keys.Back, m.keys.Quit) {
			m.currentView = m.previousView
		}
		return nil

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return nil
		}
		return m.updateActiveView(msg)

	case ViewSettings:
		return m.updateActiveView(msg)
	}

	if m.list.Searching() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}
	if m.detail.Editing() {
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return m.commandView.Focus()

	case key.Matches(msg, m.keys.Theme):
		m.status = fmt.Sprintf("%s theme", theme.Toggle())
		return nil

	case key.Matches(msg, m.keys.Refresh):
		return m.refresh()

	case key.Matches(msg, m.keys.Settings):
		return m.openSettings()

	case key.Matches(msg, m.keys.ChannelAll):
		return m.session.SetChannel(model.ChannelAll)
	case key.Matches(msg, m.keys.ChannelPersonal):
		return m.session.SetChannel(model.ChannelPersonal)
	case key.Matches(msg, m.keys.ChannelBusiness):
		return m.session.SetChannel(model.ChannelBusiness)

	case key.Matches(msg, m.keys.Compose):
		return m.startCompose()

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusList {
			m.focus = focusDetail
		} else {
			m.focus = focusList
		}
		return nil
	}

	if m.focus == focusList && key.Matches(msg, m.keys.Up, m.keys.Down, m.keys.Search) {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}

	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return cmd
}

// handleSyncResult reloads the repository after an import added messages
// and re-arms the result listener.
func (m *Model) handleSyncResult(msg appsync.SyncResultMsg) tea.Cmd {
	wait := m.poller.WaitForNextResult()

	if msg.Error != nil {
		m.errMsg = msg.Error.Error()
	}
	// A failed import may still have committed some messages.
	if msg.Result.Imported == 0 {
		return wait
	}

	cmd, err := m.session.Reload(context.Background())
	if err != nil {
		m.log.Error().Err(err).Msg("reloading after import")
		m.errMsg = "could not load imported messages"
		return wait
	}
	m.status = fmt.Sprintf("%d new from %s", msg.Result.Imported, msg.Source)
	return tea.Batch(cmd, wait)
}

// updateActiveView dispatches the message to the currently active view.
func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewInbox:
		m.detail, cmd = m.detail.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return cmd
}

// syncViews pushes the session state into the list and detail views.
func (m *Model) syncViews() tea.Cmd {
	ch, q := m.session.Channel(), m.session.Query()
	m.list.SetTitle(listTitle(ch, q))
	listCmd := m.list.SetMessages(m.session.Visible(), m.session.SelectedID(), ch != model.ChannelAll || q != "")
	return tea.Batch(listCmd, m.detail.SetState(detailState(m.session)))
}

func (m *Model) startCompose() tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewCompose
	return tea.Batch(m.session.StartCompose(), m.composeView.Start())
}

func (m *Model) cancelCompose() tea.Cmd {
	m.currentView = ViewInbox
	return m.session.CancelCompose()
}

func (m *Model) refresh() tea.Cmd {
	if m.poller == nil {
		return nil
	}
	m.poller.RefreshAll()
	m.status = "checking mail..."
	return nil
}

func (m *Model) quit() tea.Cmd {
	if m.poller != nil {
		m.poller.Stop()
	}
	m.session.Close()
	return tea.Quit
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "compose":
		return m.startCompose()
	case "channel all":
		return m.session.SetChannel(model.ChannelAll)
	case "channel personal":
		return m.session.SetChannel(model.ChannelPersonal)
	case "channel business":
		return m.session.SetChannel(model.ChannelBusiness)
	case "translate":
		return m.session.RequestTranslate()
	case "delete":
		m.focus = focusDetail
		var c tea.Cmd
		m.detail, c = m.detail.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
		return c
	case "clear search":
		return m.session.SetQuery("")
	case "refresh":
		return m.refresh()
	case "theme":
		m.status = fmt.Sprintf("%s theme", theme.Toggle())
		return nil
	case "settings":
		return m.openSettings()
	case "help":
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil
	case "quit":
		return m.quit()
	default:
		return nil
	}
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Inbox"
	if n := m.session.Counts().All; n > 0 {
		title = fmt.Sprintf("Inbox [%d unread]", n)
	}
	syncText := "local only"
	if m.poller != nil {
		syncText = syncSummary(m.poller.Statuses())
	}
	header := m.layout.RenderHeader(title, syncText)

	var statusBar string
	if m.errMsg != "" {
		statusBar = m.layout.RenderErrorBar(m.errMsg)
	} else {
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewCompose:
		return m.composeView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	}

	h := m.layout.ContentHeight()
	sidebar := m.layout.RenderSidebar(m.session.Channel(), m.session.Counts())
	list := lipgloss.NewStyle().Width(m.layout.ListWidth()).Height(h).Render(m.list.View())

	pane := theme.DetailPanelStyle
	if m.focus == focusDetail {
		pane = theme.FocusedPanelStyle
	}
	open := pane.Padding(0, 1).
		Width(m.layout.DetailWidth() - 2).
		Height(h - 2).
		Render(m.detail.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, list, open)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.status != "" && m.currentView == ViewInbox {
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter run | ↑/↓ choose | esc back"
	case ViewCompose:
		return "tab next field | enter submit | esc cancel"
	case ViewSettings:
		return "tab next field | enter next/save | esc close"
	}
	if m.focus == focusDetail {
		return "esc list | j/k scroll | R reply | t translate | D download | d delete"
	}
	return "q quit | ? help | n new | / search | 1-3 channel | tab open | T theme"
}
