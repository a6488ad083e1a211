package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/keys"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
	aiview "github.com/nhle/inbox/internal/ui/ai"
)

// BackMsg signals the parent to return focus to the message list.
type BackMsg struct{}

// ReplyMsg asks the parent to send the draft.
type ReplyMsg struct{}

// DraftMsg carries an edit of the reply text.
type DraftMsg struct {
	Text string
}

// SuggestionMsg asks the parent to copy a suggested reply into the draft.
type SuggestionMsg struct {
	Text string
}

// DeleteMsg is sent once the user confirmed deleting a message.
type DeleteMsg struct {
	ID int64
}

// DownloadMsg requests the scan and download of a reply's attachment.
type DownloadMsg struct {
	ReplyID int64
}

// TranslateMsg toggles the translation of the open message.
type TranslateMsg struct{}

// AttachMsg asks the parent to attach a local file to the draft.
type AttachMsg struct {
	Path string
}

// DetachMsg drops the draft attachment.
type DetachMsg struct{}

// State is everything the pane renders. The session owns all of it.
type State struct {
	Message     *model.Message
	Analysis    inbox.AnalysisState
	Translation inbox.TranslationState
	Language    string
	Scan        inbox.ScanState
	ScanErr     error
	Draft       inbox.Draft
}

type mode int

const (
	modeRead mode = iota
	modeReply
	modeAttach
	modeConfirmDelete
)

// replyHeight is the number of lines kept for the reply box.
const replyHeight = 3

// Model is the open-message pane.
type Model struct {
	state      State
	viewport   viewport.Model
	reply      textarea.Model
	path       textinput.Model
	panel      aiview.Model
	keys       *keys.KeyMap
	mode       mode
	fileCursor int
	width      int
	height     int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, max(height-replyHeight-4, 3))
	vp.Style = lipgloss.NewStyle()

	ta := textarea.New()
	ta.Placeholder = "Write a reply..."
	ta.ShowLineNumbers = false
	ta.SetWidth(max(width-4, 10))
	ta.SetHeight(replyHeight)
	ta.CharLimit = 4000

	ti := textinput.New()
	ti.Placeholder = "path/to/file"
	ti.Prompt = "attach: "
	ti.Width = max(width-12, 10)

	return Model{
		viewport: vp,
		reply:    ta,
		path:     ti,
		panel:    aiview.New(width),
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Editing reports whether the pane is capturing raw keystrokes, in which
// case the parent must not interpret them as shortcuts.
func (m Model) Editing() bool {
	return m.mode != modeRead
}

// SetState replaces what the pane shows. Switching to another message
// drops a pending delete confirmation and the attachment cursor.
func (m *Model) SetState(st State) tea.Cmd {
	if messageID(st.Message) != messageID(m.state.Message) {
		m.fileCursor = 0
		if m.mode == modeConfirmDelete {
			m.mode = modeRead
		}
		m.viewport.GotoTop()
	}
	if st.Message == nil && m.mode != modeRead {
		m.leaveInput()
	}

	wasLoading := m.loading()
	m.state = st
	if st.Draft.Text != m.reply.Value() {
		m.reply.SetValue(st.Draft.Text)
	}
	m.refresh()

	if !wasLoading && m.loading() {
		return m.panel.Tick()
	}
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.panel, cmd = m.panel.Update(msg)
		m.refresh()
		return m, cmd

	case tea.KeyMsg:
		switch m.mode {
		case modeConfirmDelete:
			return m.handleConfirmKeys(msg)
		case modeReply:
			return m.handleReplyKeys(msg)
		case modeAttach:
			return m.handleAttachKeys(msg)
		}
		return m.handleReadKeys(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleReadKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	msgID := messageID(m.state.Message)

	switch {
	case key.Matches(msg, m.keys.Back):
		return m, emit(BackMsg{})

	case msgID == inbox.NoSelection:
		return m, nil

	case key.Matches(msg, m.keys.Reply):
		m.mode = modeReply
		m.refresh()
		return m, m.reply.Focus()

	case key.Matches(msg, m.keys.Suggest):
		text, ok := m.suggestion(msg.String())
		if !ok {
			return m, nil
		}
		m.mode = modeReply
		m.refresh()
		return m, tea.Batch(m.reply.Focus(), emit(SuggestionMsg{Text: text}))

	case key.Matches(msg, m.keys.Delete):
		m.mode = modeConfirmDelete
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Translate):
		return m, emit(TranslateMsg{})

	case key.Matches(msg, m.keys.NextFile):
		if n := len(m.attachments()); n > 0 {
			m.fileCursor = (m.fileCursor + 1) % n
			m.refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Download):
		files := m.attachments()
		if len(files) == 0 {
			return m, nil
		}
		return m, emit(DownloadMsg{ReplyID: files[m.fileCursor].ID})

	case key.Matches(msg, m.keys.Attach):
		m.mode = modeAttach
		m.path.Reset()
		m.refresh()
		return m, m.path.Focus()

	case key.Matches(msg, m.keys.Detach):
		if m.state.Draft.Attachment == nil {
			return m, nil
		}
		return m, emit(DetachMsg{})
	}

	// Scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	m.mode = modeRead
	m.refresh()
	if msg.String() == "y" || msg.String() == "Y" {
		return m, emit(DeleteMsg{ID: messageID(m.state.Message)})
	}
	return m, nil
}

func (m Model) handleReplyKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.leaveInput()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		return m, emit(ReplyMsg{})

	case key.Matches(msg, m.keys.Suggest):
		if text, ok := m.suggestion(msg.String()); ok {
			return m, emit(SuggestionMsg{Text: text})
		}
		return m, nil
	}

	before := m.reply.Value()
	var cmd tea.Cmd
	m.reply, cmd = m.reply.Update(msg)
	if after := m.reply.Value(); after != before {
		return m, tea.Batch(cmd, emit(DraftMsg{Text: after}))
	}
	return m, cmd
}

func (m Model) handleAttachKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.leaveInput()
		return m, nil
	case "enter":
		p := strings.TrimSpace(m.path.Value())
		m.leaveInput()
		if p == "" {
			return m, nil
		}
		return m, emit(AttachMsg{Path: p})
	}

	var cmd tea.Cmd
	m.path, cmd = m.path.Update(msg)
	return m, cmd
}

func (m *Model) leaveInput() {
	m.mode = modeRead
	m.reply.Blur()
	m.path.Blur()
	m.refresh()
}

// suggestion maps f1..f3 onto the analysis' quick replies.
func (m Model) suggestion(keyName string) (string, bool) {
	if m.state.Analysis.Status != inbox.FlowReady {
		return "", false
	}
	var i int
	if _, err := fmt.Sscanf(keyName, "f%d", &i); err != nil {
		return "", false
	}
	replies := m.state.Analysis.Result.Replies
	if i < 1 || i > len(replies) {
		return "", false
	}
	return replies[i-1], true
}

// attachments lists the replies of the open message that carry a file.
func (m Model) attachments() []model.Reply {
	if m.state.Message == nil {
		return nil
	}
	var out []model.Reply
	for _, r := range m.state.Message.Replies {
		if r.Attachment != nil {
			out = append(out, r)
		}
	}
	return out
}

func (m Model) loading() bool {
	return m.state.Analysis.Status == inbox.FlowLoading ||
		m.state.Translation.Status == inbox.FlowLoading
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderContent())
}

// View renders the detail view.
func (m Model) View() string {
	if m.state.Message == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No message selected")
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.renderFooter())
}

// renderContent builds the scrollable part: header, body, thread and the
// assistant panel.
func (m Model) renderContent() string {
	msg := m.state.Message
	if msg == nil {
		return ""
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(msg.Subject))
	sections = append(sections, lipgloss.JoinHorizontal(
		lipgloss.Top,
		theme.ChannelStyle(msg.Channel).Render(strings.ToUpper(string(msg.Channel))),
		"  ",
		lipgloss.NewStyle().Foreground(theme.ColorBlue).Bold(true).Render(msg.Sender),
		"  ",
		theme.MutedStyle.Render(msg.Timestamp),
	))
	sections = append(sections, "")

	bodyStyle := lipgloss.NewStyle().Width(max(m.width-4, 10))
	sections = append(sections, bodyStyle.Render(msg.Body))
	sections = append(sections, m.renderTranslation()...)

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))

	if len(msg.Replies) > 0 {
		sections = append(sections, "", separator, "")
		sections = append(sections, titleStyle.Render(fmt.Sprintf("Replies (%d)", len(msg.Replies))), "")
		sections = append(sections, m.renderReplies(bodyStyle)...)
	}

	if err := m.state.ScanErr; err != nil && !m.state.Scan.Active() {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.ColorRed).
			Render("Scan failed: "+err.Error()))
	}

	sections = append(sections, "", m.panel.View(m.state.Analysis))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTranslation() []string {
	tr := m.state.Translation
	if tr.MessageID != messageID(m.state.Message) {
		return nil
	}

	label := lipgloss.NewStyle().Foreground(theme.ColorMagenta).Bold(true)
	switch tr.Status {
	case inbox.FlowLoading:
		return []string{"", m.panel.SpinnerView() + " Translating..."}
	case inbox.FlowFailed:
		return []string{"", lipgloss.NewStyle().Foreground(theme.ColorRed).Render(inbox.ErrorText(tr.Err))}
	case inbox.FlowReady:
		return []string{
			"",
			label.Render("Translated to " + m.state.Language),
			lipgloss.NewStyle().Width(max(m.width-4, 10)).Italic(true).Render(tr.Text),
		}
	}
	return nil
}

func (m Model) renderReplies(bodyStyle lipgloss.Style) []string {
	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	files := m.attachments()

	var out []string
	for _, r := range m.state.Message.Replies {
		out = append(out,
			fmt.Sprintf("%s  %s", authorStyle.Render(r.Sender), theme.MutedStyle.Render(r.Timestamp)),
		)
		if r.Body != "" {
			out = append(out, bodyStyle.Render(r.Body))
		}
		if r.Attachment != nil {
			focused := len(files) > 0 && files[m.fileCursor].ID == r.ID
			out = append(out, m.renderAttachment(r, focused))
		}
		out = append(out, "")
	}
	return out
}

func (m Model) renderAttachment(r model.Reply, focused bool) string {
	att := r.Attachment
	line := fmt.Sprintf("📎 %s (%s)", att.Name, humanize.Bytes(uint64(att.Size)))

	if scan := m.state.Scan; scan.Active() && scan.ReplyID == r.ID {
		status := "Scanning for viruses..."
		if scan.Status == inbox.ScanComplete {
			status = "Scan complete, starting download"
		}
		line += "  " + theme.ScanStyle(scan.Status).Render(status)
	}

	if focused {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// renderFooter is the fixed area below the thread: the reply box or the
// current prompt.
func (m Model) renderFooter() string {
	switch m.mode {
	case modeConfirmDelete:
		return theme.ErrorBarStyle.Render("Delete this message? (y/n)")
	case modeAttach:
		return m.path.View()
	}

	var lines []string
	if att := m.state.Draft.Attachment; att != nil {
		lines = append(lines, theme.MutedStyle.Render(
			fmt.Sprintf("📎 %s (%s)  X to remove", att.Name, humanize.Bytes(uint64(att.Size))),
		))
	}
	if m.mode == modeReply {
		lines = append(lines, m.reply.View())
	} else {
		hint := "R reply · t translate · f/D attachments · d delete"
		lines = append(lines, theme.HelpStyle.Render(hint))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-replyHeight-4, 3)
	m.reply.SetWidth(max(width-4, 10))
	m.path.Width = max(width-12, 10)
	m.panel.SetSize(width)
	m.refresh()
}

func messageID(m *model.Message) int64 {
	if m == nil {
		return inbox.NoSelection
	}
	return m.ID
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
