package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
)

// Identity is the local user as shown on sent messages and replies.
type Identity struct {
	Name   string
	Avatar string
}

// Draft is the reply being written for the selected message.
type Draft struct {
	Text       string
	Attachment *model.Attachment
}

// Options configures a Session.
type Options struct {
	Assistant      Assistant
	Scanner        Scanner
	CompleteHold   time.Duration
	Identity       Identity
	TargetLanguage string
	RequestTimeout time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// selectMessageMsg performs an explicit selection once the update that
// produced it has settled.
type selectMessageMsg struct {
	id int64
}

// Session is the state the UI renders and the commands it issues. All
// methods must be called from the Bubble Tea update loop; async results
// come back through Update.
type Session struct {
	repo     *Repository
	assist   *Assist
	scan     *ScanMachine
	identity Identity
	clock    func() time.Time

	channel    model.Channel
	query      string
	visible    []model.Message
	selected   int64
	compose    ComposeState
	preCompose int64
	draft      Draft

	// assisted is the message the assist flows currently target.
	assisted int64
	pending  []tea.Cmd

	unsubscribe func()
	log         zerolog.Logger
}

// NewSession wires the orchestrators to repo and projects the initial view.
// The first visible message is selected without being marked read; Init
// returns the analysis request for it.
func NewSession(repo *Repository, opts Options) *Session {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Scanner == nil {
		opts.Scanner = SimulatedScanner{}
	}
	if opts.Identity.Name == "" {
		opts.Identity.Name = "Me"
	}

	s := &Session{
		repo:     repo,
		assist:   NewAssist(opts.Assistant, opts.TargetLanguage, opts.RequestTimeout),
		scan:     NewScanMachine(opts.Scanner, opts.CompleteHold),
		identity: opts.Identity,
		clock:    opts.Clock,
		channel:  model.ChannelAll,
		log:      logging.Component("session"),
	}
	s.unsubscribe = repo.Subscribe(func([]model.Message) { s.refresh() })
	s.refresh()
	return s
}

// Init returns the commands produced while building the initial view.
func (s *Session) Init() tea.Cmd {
	return s.flush()
}

// Close detaches from the repository and abandons any active scan.
func (s *Session) Close() {
	s.scan.Cancel()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Visible returns the filtered message list.
func (s *Session) Visible() []model.Message { return s.visible }

// Channel returns the selected channel filter.
func (s *Session) Channel() model.Channel { return s.channel }

// Query returns the raw search query.
func (s *Session) Query() string { return s.query }

// Composing reports whether a new message is being written.
func (s *Session) Composing() bool { return s.compose == ComposeComposing }

// SelectedID returns the selected message id or NoSelection.
func (s *Session) SelectedID() int64 { return s.selected }

// Selected returns the selected message as of the latest snapshot.
func (s *Session) Selected() (model.Message, bool) {
	if i := indexOf(s.visible, s.selected); i >= 0 {
		return s.visible[i], true
	}
	return model.Message{}, false
}

// Counts returns unread counters derived from the current snapshot.
func (s *Session) Counts() model.UnreadCounts {
	return CountUnread(s.repo.Snapshot())
}

// Analysis returns the AI analysis state for the selected message.
func (s *Session) Analysis() AnalysisState { return s.assist.Analysis() }

// Translation returns the translation state for the selected message.
func (s *Session) Translation() TranslationState { return s.assist.Translation() }

// TargetLanguage returns the name of the translation language.
func (s *Session) TargetLanguage() string { return s.assist.Language() }

// Scan returns the attachment scan slot.
func (s *Session) Scan() ScanState { return s.scan.State() }

// ScanErr returns the error of the last failed scan.
func (s *Session) ScanErr() error { return s.scan.Err() }

// Draft returns the reply draft.
func (s *Session) Draft() Draft { return s.draft }

// Select is a user-driven selection. An unread message is marked read. Ids
// that are not in the visible list are ignored.
func (s *Session) Select(id int64) tea.Cmd {
	i := indexOf(s.visible, id)
	if i < 0 {
		s.log.Debug().Int64("message_id", id).Msg("select ignored, message not visible")
		return nil
	}

	s.compose = ComposeViewing
	s.selected = id

	if !s.visible[i].Read {
		if err := s.repo.MarkRead(context.Background(), id); err != nil {
			s.log.Error().Err(err).Int64("message_id", id).Msg("marking message read")
		}
	}

	s.refresh()
	return s.flush()
}

// SetChannel changes the channel filter and reconciles the selection.
func (s *Session) SetChannel(ch model.Channel) tea.Cmd {
	s.channel = ch
	s.refresh()
	return s.flush()
}

// SetQuery changes the search query and reconciles the selection.
func (s *Session) SetQuery(q string) tea.Cmd {
	s.query = q
	s.refresh()
	return s.flush()
}

// StartCompose clears the selection and suspends reconciliation until the
// compose ends.
func (s *Session) StartCompose() tea.Cmd {
	if s.Composing() {
		return nil
	}
	s.preCompose = s.selected
	s.selected = NoSelection
	s.compose = ComposeComposing
	s.syncAssist()
	return s.flush()
}

// CancelCompose returns to viewing, restoring the selection held before the
// compose began when it is still visible.
func (s *Session) CancelCompose() tea.Cmd {
	if !s.Composing() {
		return nil
	}
	s.compose = ComposeViewing
	s.selected = s.preCompose
	s.refresh()
	return s.flush()
}

// SendMessage validates d and inserts it as a new, read Business message
// whose first reply is the body from the local user. The new message is
// selected by a follow-up command once the view has been re-projected.
func (s *Session) SendMessage(d ComposeDetails) (tea.Cmd, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	now := s.clock()
	m := model.Message{
		Sender:    strings.Join(d.Recipients, ", "),
		Subject:   d.Subject,
		Body:      d.Body,
		Timestamp: model.JustNow,
		Channel:   model.ChannelBusiness,
		Avatar:    fmt.Sprintf("https://picsum.photos/seed/%d/40/40", now.UnixMilli()),
		Read:      true,
		Replies: []model.Reply{{
			Sender:    s.identity.Name,
			Body:      d.Body,
			Timestamp: model.JustNow,
			Avatar:    s.identity.Avatar,
		}},
	}

	id, err := s.repo.Insert(context.Background(), m)
	if err != nil {
		return nil, fmt.Errorf("sending message: %w", err)
	}

	s.compose = ComposeViewing
	s.selected = NoSelection
	s.refresh()
	s.pending = append(s.pending, func() tea.Msg { return selectMessageMsg{id: id} })
	return s.flush(), nil
}

// SendReply appends a reply from the local user. text is trimmed; a reply
// needs text or an attachment. A missing message is reported as an error
// wrapping store.ErrNotFound.
func (s *Session) SendReply(messageID int64, text string, att *model.Attachment) (tea.Cmd, error) {
	body := strings.TrimSpace(text)
	if err := validateReply(body, att); err != nil {
		return nil, err
	}

	reply := model.Reply{
		Sender:     s.identity.Name,
		Body:       body,
		Timestamp:  model.JustNow,
		Avatar:     s.identity.Avatar,
		Attachment: att,
	}
	if _, err := s.repo.AppendReply(context.Background(), messageID, reply); err != nil {
		return nil, err
	}

	if messageID == s.selected {
		s.draft = Draft{}
	}
	return s.flush(), nil
}

// SubmitDraft sends the draft as a reply to the selected message.
func (s *Session) SubmitDraft() (tea.Cmd, error) {
	if s.selected == NoSelection {
		return nil, &ValidationError{Field: "message", Reason: "is not selected"}
	}
	return s.SendReply(s.selected, s.draft.Text, s.draft.Attachment)
}

// DeleteMessage removes a message. The selection falls through to the next
// visible message without marking it read. A scan of one of the message's
// attachments is abandoned.
func (s *Session) DeleteMessage(id int64) tea.Cmd {
	if st := s.scan.State(); st.Active() {
		if _, parent, ok := s.repo.FindReply(st.ReplyID); ok && parent == id {
			s.scan.Cancel()
		}
	}

	if err := s.repo.Delete(context.Background(), id); err != nil {
		s.log.Error().Err(err).Int64("message_id", id).Msg("deleting message")
	}
	return s.flush()
}

// RequestDownload starts the attachment scan for a reply. Requests for
// unknown replies, replies without attachments, or while another scan is
// active are ignored.
func (s *Session) RequestDownload(replyID int64) tea.Cmd {
	reply, _, ok := s.repo.FindReply(replyID)
	if !ok {
		return nil
	}
	return s.scan.Request(reply)
}

// RequestTranslate toggles the translation of the selected message.
func (s *Session) RequestTranslate() tea.Cmd {
	m, ok := s.Selected()
	if !ok {
		return nil
	}
	return s.assist.ToggleTranslation(&m)
}

// SelectSuggestedReply copies a suggested reply into the draft. Nothing is
// sent.
func (s *Session) SelectSuggestedReply(text string) {
	s.draft.Text = text
}

// SetDraftText replaces the draft text.
func (s *Session) SetDraftText(text string) {
	s.draft.Text = text
}

// AttachFile records the name and size of a local file on the draft.
func (s *Session) AttachFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("attaching %s: %w", path, err)
	}
	if info.IsDir() {
		return &ValidationError{Field: "attachment", Reason: "must be a file"}
	}
	s.draft.Attachment = &model.Attachment{Name: filepath.Base(path), Size: info.Size()}
	return nil
}

// RemoveAttachment drops the draft attachment.
func (s *Session) RemoveAttachment() {
	s.draft.Attachment = nil
}

// Reload re-reads the repository after the store was changed behind its
// back, for example by a background import.
func (s *Session) Reload(ctx context.Context) (tea.Cmd, error) {
	if err := s.repo.Reload(ctx); err != nil {
		return nil, err
	}
	return s.flush(), nil
}

// Update routes async results to the orchestrators.
func (s *Session) Update(msg tea.Msg) tea.Cmd {
	if m, ok := msg.(selectMessageMsg); ok {
		return s.Select(m.id)
	}
	if s.assist.Update(msg) {
		return nil
	}
	if cmd, ok := s.scan.Update(msg); ok {
		return cmd
	}
	return nil
}

// refresh re-projects the current snapshot. Selection is reconciled unless
// a compose is in progress.
func (s *Session) refresh() {
	s.visible = Project(s.repo.Snapshot(), s.channel, s.query)
	if s.Composing() {
		return
	}
	s.selected = Reconcile(s.visible, s.selected)
	s.syncAssist()
}

// syncAssist restarts the per-message flows when the selected identity
// changed.
func (s *Session) syncAssist() {
	if s.selected == s.assisted {
		return
	}
	s.assisted = s.selected
	s.draft = Draft{}

	var cmd tea.Cmd
	if m, ok := s.Selected(); ok {
		cmd = s.assist.Select(&m)
	} else {
		cmd = s.assist.Select(nil)
	}
	if cmd != nil {
		s.pending = append(s.pending, cmd)
	}
}

func (s *Session) flush() tea.Cmd {
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}
