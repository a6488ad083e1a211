package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/ai"
	"github.com/nhle/inbox/internal/credential"
	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/notify"
	"github.com/nhle/inbox/internal/source"
	"github.com/nhle/inbox/internal/store"
	appsync "github.com/nhle/inbox/internal/sync"
	"github.com/nhle/inbox/internal/ui/compose"
	settingsview "github.com/nhle/inbox/internal/ui/config"
	"github.com/nhle/inbox/internal/ui/detail"
	"github.com/nhle/inbox/tests/testutil"
)

type recordingNotifier struct {
	titles []string
	bodies []string
}

func (r *recordingNotifier) Notify(title, body string) error {
	r.titles = append(r.titles, title)
	r.bodies = append(r.bodies, body)
	return nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newApp(t *testing.T, n notify.Notifier, msgs ...model.Message) (Model, store.Store) {
	t.Helper()

	st := testutil.NewTestStore(t)
	testutil.SeedMessages(t, st, msgs...)

	repo, err := inbox.NewRepository(context.Background(), st)
	require.NoError(t, err)

	sess := inbox.NewSession(repo, inbox.Options{
		Assistant:    ai.Unconfigured{},
		Scanner:      inbox.SimulatedScanner{Duration: time.Millisecond},
		CompleteHold: time.Millisecond,
	})
	t.Cleanup(sess.Close)

	m := New(Options{Session: sess, Poller: appsync.New(st), Notifier: n, Provider: "none"})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(Model), st
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestApp_ChannelKeysFilterTheList(t *testing.T) {
	m, _ := newApp(t, nil,
		model.Message{Sender: "Boss", Subject: "Budget", Channel: model.ChannelBusiness},
		model.Message{Sender: "Mom", Subject: "Dinner", Channel: model.ChannelPersonal},
	)
	require.Len(t, m.session.Visible(), 2)

	m = update(t, m, runes("2"))
	assert.Equal(t, model.ChannelPersonal, m.session.Channel())
	require.Len(t, m.session.Visible(), 1)
	assert.Equal(t, "Dinner", m.session.Visible()[0].Subject)

	m = update(t, m, runes("1"))
	assert.Len(t, m.session.Visible(), 2)
}

func TestApp_ComposeAndCancel(t *testing.T) {
	m, _ := newApp(t, nil, model.Message{Sender: "Boss", Subject: "Budget", Channel: model.ChannelBusiness})
	selected := m.session.SelectedID()

	m = update(t, m, runes("n"))
	assert.Equal(t, ViewCompose, m.currentView)
	assert.True(t, m.session.Composing())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewInbox, m.currentView)
	assert.False(t, m.session.Composing())
	assert.Equal(t, selected, m.session.SelectedID())
}

func TestApp_ComposeSubmitSendsMessage(t *testing.T) {
	m, _ := newApp(t, nil)
	m = update(t, m, runes("n"))

	m = update(t, m, compose.SubmitMsg{Details: inbox.ComposeDetails{
		Recipients: []string{"a@example.com"},
		Subject:    "Hello",
		Body:       "Body",
	}})
	assert.Equal(t, ViewInbox, m.currentView)
	require.Len(t, m.session.Visible(), 1)
	assert.Equal(t, "Hello", m.session.Visible()[0].Subject)
}

func TestApp_ReplyValidationShowsError(t *testing.T) {
	m, _ := newApp(t, nil, model.Message{Sender: "Boss", Subject: "Budget", Channel: model.ChannelBusiness})

	m = update(t, m, detail.ReplyMsg{})
	assert.Contains(t, m.errMsg, "needs text or an attachment")

	m = update(t, m, runes("j"))
	assert.Empty(t, m.errMsg, "next key clears the error")
}

func TestApp_SyncResultReloadsSession(t *testing.T) {
	m, st := newApp(t, nil)
	require.Empty(t, m.session.Visible())

	_, err := st.InsertMessage(context.Background(), model.Message{Sender: "New", Subject: "Imported", Channel: model.ChannelPersonal})
	require.NoError(t, err)

	m = update(t, m, appsync.SyncResultMsg{Source: "eml:/tmp", Result: source.Result{Fetched: 1, Imported: 1}})
	require.Len(t, m.session.Visible(), 1)
	assert.Equal(t, "1 new from eml:/tmp", m.status)
}

func TestApp_PartialImportStillReloads(t *testing.T) {
	m, st := newApp(t, nil)

	_, err := st.InsertMessage(context.Background(), model.Message{Sender: "New", Subject: "First of two", Channel: model.ChannelPersonal})
	require.NoError(t, err)

	m = update(t, m, appsync.SyncResultMsg{
		Source: "imap:mail",
		Result: source.Result{Fetched: 2, Imported: 1},
		Error:  errors.New("connection reset"),
	})
	require.Len(t, m.session.Visible(), 1)
	assert.Equal(t, "connection reset", m.errMsg)
	assert.Equal(t, "1 new from imap:mail", m.status)
}

func TestApp_SyncAuthFailureIsShown(t *testing.T) {
	m, _ := newApp(t, nil)

	err := &source.AuthError{Source: "imap", Message: "bad password"}
	m = update(t, m, appsync.SyncResultMsg{Source: "imap:mail", Error: err, AuthFailed: true})
	assert.Contains(t, m.errMsg, "bad password")
}

func TestApp_DownloadStartedNotifies(t *testing.T) {
	n := &recordingNotifier{}
	m, _ := newApp(t, n)

	m = update(t, m, inbox.DownloadStartedMsg{ReplyID: 1, Attachment: model.Attachment{Name: "a.pdf", Size: 2048}})
	assert.Equal(t, []string{"Download started"}, n.titles)
	assert.Equal(t, []string{"a.pdf (2.0 kB)"}, n.bodies)
	assert.Equal(t, "Download started: a.pdf (2.0 kB)", m.status)
}

func TestApp_HelpToggle(t *testing.T) {
	m, _ := newApp(t, nil)

	m = update(t, m, runes("?"))
	assert.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m = update(t, m, runes("?"))
	assert.Equal(t, ViewInbox, m.currentView)
}

func TestListTitle(t *testing.T) {
	assert.Equal(t, "Inbox", listTitle(model.ChannelAll, ""))
	assert.Equal(t, `Business · "invoice"`, listTitle(model.ChannelBusiness, " invoice "))
}

func TestSyncSummary(t *testing.T) {
	assert.Equal(t, "local only", syncSummary(nil))
	assert.Equal(t, "up to date", syncSummary([]appsync.SyncStatus{{Source: "a"}}))
	assert.Equal(t, "checking mail (1)", syncSummary([]appsync.SyncStatus{{Source: "a", State: appsync.SyncRunning}}))
	assert.Equal(t, "⚠ unreachable: b", syncSummary([]appsync.SyncStatus{{Source: "a"}, {Source: "b", State: appsync.SyncError}}))
}

func TestApp_SettingsUnavailableWithoutConfig(t *testing.T) {
	m, _ := newApp(t, nil)

	m = update(t, m, runes(","))
	assert.Equal(t, ViewInbox, m.currentView)
	assert.Contains(t, m.status, "unavailable")
}

func TestApp_SettingsSaveAppliesConfig(t *testing.T) {
	st := testutil.NewTestStore(t)
	repo, err := inbox.NewRepository(context.Background(), st)
	require.NoError(t, err)
	sess := inbox.NewSession(repo, inbox.Options{Assistant: ai.Unconfigured{}})
	t.Cleanup(sess.Close)

	cfg := model.DefaultAppConfig()
	m := New(Options{
		Session: sess,
		Poller:  appsync.New(st),
		Config:  cfg,
		PasswordLookup: func(string) (string, error) {
			return "", credential.ErrNotFound
		},
	})
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	m = update(t, m, runes(","))
	require.Equal(t, ViewSettings, m.currentView)
	assert.Contains(t, m.View(), "Settings")

	saved := *cfg
	saved.AI.TargetLanguage = "de"
	m = update(t, m, settingsview.SavedMsg{Config: saved})

	assert.Equal(t, ViewInbox, m.currentView)
	assert.Equal(t, "de", m.config.AI.TargetLanguage)
	assert.Equal(t, "settings saved, AI changes apply on next start", m.status)
}

func TestApp_SettingsDoneReturnsToInbox(t *testing.T) {
	m, _ := newApp(t, nil)
	m.currentView = ViewSettings

	m = update(t, m, settingsview.DoneMsg{})
	assert.Equal(t, ViewInbox, m.currentView)
}

func TestSeedDemo_OnlyFillsAnEmptyStore(t *testing.T) {
	st := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, SeedDemo(ctx, st))
	seeded, err := st.ListMessages(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, seeded)

	require.NoError(t, SeedDemo(ctx, st))
	again, err := st.ListMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(seeded))
}
