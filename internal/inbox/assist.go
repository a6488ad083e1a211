package inbox

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
)

// Assistant is the analysis and translation collaborator.
type Assistant interface {
	Analyze(ctx context.Context, body string) (model.AnalysisResult, error)
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// FlowStatus is the lifecycle of one AI request flow.
type FlowStatus int

const (
	FlowIdle FlowStatus = iota
	FlowLoading
	FlowReady
	FlowFailed
)

// AnalysisState is what the AI panel renders for the selected message.
type AnalysisState struct {
	Status    FlowStatus
	MessageID int64
	Result    model.AnalysisResult
	Err       error
}

// TranslationState is the translation toggle for the selected message.
type TranslationState struct {
	Status    FlowStatus
	MessageID int64
	Text      string
	Err       error
}

// requestKey tags an outbound request with the selection it was issued for.
// seq distinguishes repeated requests for the same message.
type requestKey struct {
	messageID int64
	seq       uint64
}

// AnalysisDoneMsg carries an analysis response back to the update loop.
type AnalysisDoneMsg struct {
	key    requestKey
	Result model.AnalysisResult
	Err    error
}

// TranslationDoneMsg carries a translation response back to the update loop.
type TranslationDoneMsg struct {
	key  requestKey
	Text string
	Err  error
}

// Assist issues analysis and translation requests for the selected message
// and only accepts responses whose key still matches the live request. A
// late response for a message that is no longer selected is dropped, never
// written into state.
type Assist struct {
	client   Assistant
	language string
	timeout  time.Duration

	seq            uint64
	analysis       AnalysisState
	analysisKey    requestKey
	translation    TranslationState
	translationKey requestKey

	log zerolog.Logger
}

// NewAssist creates an orchestrator. language is the translation target as
// a human-readable name (e.g. "English"); timeout bounds each request and
// zero means no deadline.
func NewAssist(client Assistant, language string, timeout time.Duration) *Assist {
	if language == "" {
		language = "English"
	}
	return &Assist{
		client:   client,
		language: language,
		timeout:  timeout,
		log:      logging.Component("assist"),
	}
}

// Analysis returns the analysis flow state.
func (a *Assist) Analysis() AnalysisState { return a.analysis }

// Translation returns the translation flow state.
func (a *Assist) Translation() TranslationState { return a.translation }

// Language returns the translation target name.
func (a *Assist) Language() string { return a.language }

// Select points the orchestrator at a newly selected message (nil for
// none). Translation is reset and, for a message, analysis restarts.
func (a *Assist) Select(m *model.Message) tea.Cmd {
	a.translation = TranslationState{}
	a.translationKey = requestKey{}

	if m == nil {
		a.analysis = AnalysisState{}
		a.analysisKey = requestKey{}
		return nil
	}

	key := a.nextKey(m.ID)
	a.analysisKey = key
	a.analysis = AnalysisState{Status: FlowLoading, MessageID: m.ID}

	client, timeout, body := a.client, a.timeout, m.Body
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		res, err := client.Analyze(ctx, body)
		return AnalysisDoneMsg{key: key, Result: res, Err: err}
	}
}

// ToggleTranslation shows or hides the translation of m. A shown result is
// cleared without a new request; a request already in flight is left alone.
func (a *Assist) ToggleTranslation(m *model.Message) tea.Cmd {
	if m == nil {
		return nil
	}

	switch a.translation.Status {
	case FlowLoading:
		return nil
	case FlowReady:
		if a.translation.MessageID == m.ID {
			a.translation = TranslationState{}
			a.translationKey = requestKey{}
			return nil
		}
	}

	key := a.nextKey(m.ID)
	a.translationKey = key
	a.translation = TranslationState{Status: FlowLoading, MessageID: m.ID}

	client, timeout, body, lang := a.client, a.timeout, m.Body, a.language
	return func() tea.Msg {
		ctx, cancel := requestContext(timeout)
		defer cancel()
		text, err := client.Translate(ctx, body, lang)
		return TranslationDoneMsg{key: key, Text: text, Err: err}
	}
}

// Update applies a response. It reports whether msg belonged to the
// orchestrator.
func (a *Assist) Update(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case AnalysisDoneMsg:
		if msg.key != a.analysisKey {
			a.dropStale("analysis", msg.key, a.analysisKey)
			return true
		}
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Int64("message_id", msg.key.messageID).Msg("analysis failed")
			a.analysis = AnalysisState{Status: FlowFailed, MessageID: msg.key.messageID, Err: msg.Err}
			return true
		}
		a.analysis = AnalysisState{Status: FlowReady, MessageID: msg.key.messageID, Result: msg.Result}
		return true

	case TranslationDoneMsg:
		if msg.key != a.translationKey {
			a.dropStale("translation", msg.key, a.translationKey)
			return true
		}
		if msg.Err != nil {
			a.log.Warn().Err(msg.Err).Int64("message_id", msg.key.messageID).Msg("translation failed")
			a.translation = TranslationState{Status: FlowFailed, MessageID: msg.key.messageID, Err: msg.Err}
			return true
		}
		a.translation = TranslationState{Status: FlowReady, MessageID: msg.key.messageID, Text: msg.Text}
		return true
	}
	return false
}

func (a *Assist) nextKey(messageID int64) requestKey {
	a.seq++
	return requestKey{messageID: messageID, seq: a.seq}
}

func (a *Assist) dropStale(flow string, got, want requestKey) {
	a.log.Debug().
		Str("flow", flow).
		Int64("message_id", got.messageID).
		Uint64("seq", got.seq).
		Int64("current_message_id", want.messageID).
		Uint64("current_seq", want.seq).
		Msg("dropping stale response")
}

func requestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), timeout)
}
