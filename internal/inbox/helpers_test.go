package inbox

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/tests/testutil"
)

type fakeAssistant struct {
	analyzeErr   error
	translateErr error

	analyzed   []string
	translated []string
}

func (f *fakeAssistant) Analyze(_ context.Context, body string) (model.AnalysisResult, error) {
	f.analyzed = append(f.analyzed, body)
	if f.analyzeErr != nil {
		return model.AnalysisResult{}, f.analyzeErr
	}
	return model.AnalysisResult{
		Priority: model.PriorityNormal,
		Summary:  "summary: " + body,
		Replies:  []string{"Thanks!", "Will do.", "Let me check."},
	}, nil
}

func (f *fakeAssistant) Translate(_ context.Context, text, lang string) (string, error) {
	f.translated = append(f.translated, text)
	if f.translateErr != nil {
		return "", f.translateErr
	}
	return lang + ": " + text, nil
}

type failingScanner struct{ err error }

func (f failingScanner) Scan(context.Context, model.Attachment) error { return f.err }

var errBoom = errors.New("boom")

func message(subject string, ch model.Channel, read bool) model.Message {
	return model.Message{
		Sender:    "Alice",
		Subject:   subject,
		Body:      subject + " body",
		Timestamp: "10:00 AM",
		Channel:   ch,
		Read:      read,
	}
}

func withAttachment(m model.Message, name string) model.Message {
	m.Replies = append(m.Replies, model.Reply{
		Sender:     "Bob",
		Body:       "see attached",
		Attachment: &model.Attachment{Name: name, Size: 2048},
	})
	return m
}

// run executes cmd and flattens batches into the messages they produce.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// pump feeds every message cmd produces back into the session until no
// commands remain, and returns everything that was delivered.
func pump(s *Session, cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, msg := range run(c) {
			seen = append(seen, msg)
			queue = append(queue, s.Update(msg))
		}
	}
	return seen
}

func newRepo(t *testing.T, msgs ...model.Message) (*Repository, []int64) {
	t.Helper()

	st := testutil.NewTestStore(t)
	ids := testutil.SeedMessages(t, st, msgs...)

	repo, err := NewRepository(context.Background(), st)
	require.NoError(t, err)
	return repo, ids
}

func newSession(t *testing.T, ai Assistant, msgs ...model.Message) (*Session, *Repository, []int64) {
	t.Helper()

	repo, ids := newRepo(t, msgs...)
	if ai == nil {
		ai = &fakeAssistant{}
	}
	s := NewSession(repo, Options{
		Assistant:    ai,
		Scanner:      SimulatedScanner{Duration: time.Millisecond},
		CompleteHold: time.Millisecond,
		Identity:     Identity{Name: "Me", Avatar: "me.png"},
		Clock:        func() time.Time { return time.UnixMilli(1700000000000) },
	})
	t.Cleanup(s.Close)
	return s, repo, ids
}
