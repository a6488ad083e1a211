package inbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

func TestSession_InitialSelectionIsNotMarkedRead(t *testing.T) {
	ai := &fakeAssistant{}
	s, repo, ids := newSession(t, ai,
		message("first", model.ChannelPersonal, false),
		message("second", model.ChannelBusiness, false),
	)

	assert.Equal(t, ids[0], s.SelectedID())
	m, _ := repo.Find(ids[0])
	assert.False(t, m.Read)

	pump(s, s.Init())
	assert.Equal(t, FlowReady, s.Analysis().Status)
	assert.Equal(t, []string{"first body"}, ai.analyzed)
}

func TestSession_SelectMarksRead(t *testing.T) {
	s, _, ids := newSession(t, nil,
		message("other", model.ChannelBusiness, true),
		message("hello", model.ChannelPersonal, false),
	)
	require.Equal(t, 1, s.Counts().Personal)

	pump(s, s.Select(ids[1]))

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, ids[1], sel.ID)
	assert.True(t, sel.Read)
	assert.Equal(t, 0, s.Counts().Personal)
	assert.Equal(t, 0, s.Counts().All)
}

func TestSession_ReselectingReadMessageDoesNotMutate(t *testing.T) {
	s, repo, ids := newSession(t, nil, message("hello", model.ChannelPersonal, false))

	notified := 0
	repo.Subscribe(func([]model.Message) { notified++ })

	s.Select(ids[0])
	s.Select(ids[0])
	s.Select(ids[0])

	assert.Equal(t, 1, notified)
}

func TestSession_SelectIgnoresHiddenMessage(t *testing.T) {
	s, _, ids := newSession(t, nil,
		message("work", model.ChannelBusiness, true),
		message("home", model.ChannelPersonal, false),
	)
	s.SetChannel(model.ChannelBusiness)

	assert.Nil(t, s.Select(ids[1]))
	assert.Equal(t, ids[0], s.SelectedID())
}

func TestSession_ChannelAndQueryScenario(t *testing.T) {
	s, _, _ := newSession(t, nil,
		message("Invoice #4", model.ChannelBusiness, true),
		message("Meeting notes", model.ChannelBusiness, true),
		message("Invoice", model.ChannelPersonal, true),
	)

	s.SetChannel(model.ChannelBusiness)
	s.SetQuery("invoice")

	assert.Equal(t, []string{"Invoice #4"}, subjects(s.Visible()))
	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "Invoice #4", sel.Subject)
}

func TestSession_FilterChangeReconcilesSelection(t *testing.T) {
	s, _, ids := newSession(t, nil,
		message("work", model.ChannelBusiness, true),
		message("home", model.ChannelPersonal, false),
	)
	s.Select(ids[0])

	s.SetChannel(model.ChannelPersonal)
	assert.Equal(t, ids[1], s.SelectedID())

	m, _ := s.Selected()
	assert.False(t, m.Read, "reconciled selection must not mark read")

	s.SetQuery("nothing matches")
	assert.Equal(t, NoSelection, s.SelectedID())
	assert.Empty(t, s.Visible())
}

func TestSession_DeleteOnlyVisibleMessage(t *testing.T) {
	s, _, ids := newSession(t, nil, message("only", model.ChannelPersonal, true))

	pump(s, s.DeleteMessage(ids[0]))

	assert.Empty(t, s.Visible())
	assert.Equal(t, NoSelection, s.SelectedID())
	assert.Equal(t, FlowIdle, s.Analysis().Status)

	// A second delete is a silent no-op.
	assert.Nil(t, s.DeleteMessage(ids[0]))
}

func TestSession_DeleteSelectsNextWithoutReading(t *testing.T) {
	s, repo, ids := newSession(t, nil,
		message("a", model.ChannelPersonal, true),
		message("b", model.ChannelPersonal, false),
	)

	s.DeleteMessage(ids[0])

	assert.Equal(t, ids[1], s.SelectedID())
	m, _ := repo.Find(ids[1])
	assert.False(t, m.Read)
}

func TestSession_StartThenCancelComposeRestoresView(t *testing.T) {
	s, _, ids := newSession(t, nil,
		message("a", model.ChannelPersonal, true),
		message("b", model.ChannelPersonal, true),
	)
	s.Select(ids[1])
	before := subjects(s.Visible())

	s.StartCompose()
	assert.True(t, s.Composing())
	assert.Equal(t, NoSelection, s.SelectedID())

	s.CancelCompose()
	assert.False(t, s.Composing())
	assert.Equal(t, ids[1], s.SelectedID())
	assert.Equal(t, before, subjects(s.Visible()))
}

func TestSession_ComposeHoldsEmptySelectionAcrossRepositoryChanges(t *testing.T) {
	s, repo, ids := newSession(t, nil,
		message("a", model.ChannelPersonal, true),
		message("b", model.ChannelPersonal, true),
	)
	s.StartCompose()

	_, err := repo.AppendReply(t.Context(), ids[0], model.Reply{Body: "ping"})
	require.NoError(t, err)

	assert.Equal(t, NoSelection, s.SelectedID())
	assert.True(t, s.Composing())
}

func TestSession_SendMessageRejectsInvalidDetails(t *testing.T) {
	s, repo, _ := newSession(t, nil, message("a", model.ChannelPersonal, true))
	s.StartCompose()

	tests := []struct {
		name    string
		details ComposeDetails
		field   string
	}{
		{"no recipients", ComposeDetails{Subject: "Hi", Body: "there"}, "recipients"},
		{"blank subject", ComposeDetails{Recipients: []string{"bob@example.com"}, Subject: "  ", Body: "there"}, "subject"},
		{"blank body", ComposeDetails{Recipients: []string{"bob@example.com"}, Subject: "Hi", Body: "\n\t"}, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := s.SendMessage(tt.details)
			require.Error(t, err)
			assert.Nil(t, cmd)

			var v *ValidationError
			require.True(t, errors.As(err, &v))
			assert.Equal(t, tt.field, v.Field)
			assert.Len(t, repo.Snapshot(), 1)
			assert.True(t, s.Composing())
		})
	}
}

func TestSession_SendMessageSelectsNewMessage(t *testing.T) {
	s, repo, _ := newSession(t, nil, message("a", model.ChannelPersonal, true))
	s.StartCompose()

	cmd, err := s.SendMessage(ComposeDetails{
		Recipients: ParseRecipients("bob@example.com, carol@example.com"),
		Subject:    "Kickoff",
		Body:       "Agenda attached",
	})
	require.NoError(t, err)
	pump(s, cmd)

	assert.False(t, s.Composing())
	require.Len(t, repo.Snapshot(), 2)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, repo.Snapshot()[0].ID, sel.ID)
	assert.Equal(t, "Kickoff", sel.Subject)
	assert.Equal(t, "bob@example.com, carol@example.com", sel.Sender)
	assert.Equal(t, model.ChannelBusiness, sel.Channel)
	assert.Equal(t, model.JustNow, sel.Timestamp)
	assert.Equal(t, "https://picsum.photos/seed/1700000000000/40/40", sel.Avatar)
	assert.True(t, sel.Read)
	require.Len(t, sel.Replies, 1)
	assert.Equal(t, "Me", sel.Replies[0].Sender)
	assert.Equal(t, "Agenda attached", sel.Replies[0].Body)
	assert.Equal(t, FlowReady, s.Analysis().Status)
}

func TestSession_SendReplyAppendsTrimmedBody(t *testing.T) {
	s, _, ids := newSession(t, nil, message("a", model.ChannelPersonal, true))
	s.SetDraftText("draft")

	_, err := s.SendReply(ids[0], "  on my way  ", nil)
	require.NoError(t, err)

	sel, _ := s.Selected()
	require.Len(t, sel.Replies, 1)
	assert.Equal(t, "on my way", sel.Replies[0].Body)
	assert.Equal(t, "me.png", sel.Replies[0].Avatar)
	assert.Empty(t, s.Draft().Text)
}

func TestSession_SendReplyValidation(t *testing.T) {
	s, repo, ids := newSession(t, nil, message("a", model.ChannelPersonal, true))

	_, err := s.SendReply(ids[0], "   ", nil)
	assert.True(t, IsValidation(err))

	_, err = s.SendReply(ids[0], "", &model.Attachment{Name: "a.txt", Size: 1})
	require.NoError(t, err)

	_, err = s.SendReply(9999, "hello", nil)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, IsValidation(err))

	m, _ := repo.Find(ids[0])
	require.Len(t, m.Replies, 1)
	assert.Equal(t, "a.txt", m.Replies[0].Attachment.Name)
}

func TestSession_SuggestedReplyOnlyPrefillsDraft(t *testing.T) {
	s, repo, ids := newSession(t, nil, message("a", model.ChannelPersonal, true))

	s.SelectSuggestedReply("Sounds good")
	assert.Equal(t, "Sounds good", s.Draft().Text)
	m, _ := repo.Find(ids[0])
	assert.Empty(t, m.Replies)

	_, err := s.SubmitDraft()
	require.NoError(t, err)
	m, _ = repo.Find(ids[0])
	require.Len(t, m.Replies, 1)
	assert.Equal(t, "Sounds good", m.Replies[0].Body)
}

func TestSession_DraftResetsOnSelectionChange(t *testing.T) {
	s, _, ids := newSession(t, nil,
		message("a", model.ChannelPersonal, true),
		message("b", model.ChannelPersonal, true),
	)
	s.SetDraftText("half written")

	s.Select(ids[1])
	assert.Empty(t, s.Draft().Text)
}

func TestSession_AttachFile(t *testing.T) {
	s, _, _ := newSession(t, nil, message("a", model.ChannelPersonal, true))

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	require.NoError(t, s.AttachFile(path))
	require.NotNil(t, s.Draft().Attachment)
	assert.Equal(t, "notes.txt", s.Draft().Attachment.Name)
	assert.Equal(t, int64(11), s.Draft().Attachment.Size)

	s.RemoveAttachment()
	assert.Nil(t, s.Draft().Attachment)

	assert.Error(t, s.AttachFile(filepath.Join(t.TempDir(), "missing")))
	assert.True(t, IsValidation(s.AttachFile(t.TempDir())))
}

func TestSession_StaleAnalysisNeverReachesNewSelection(t *testing.T) {
	ai := &fakeAssistant{}
	s, _, ids := newSession(t, ai,
		message("alpha", model.ChannelPersonal, true),
		message("bravo", model.ChannelPersonal, true),
	)
	initial := s.Init()

	selectCmd := s.Select(ids[1])
	pump(s, initial)

	assert.Equal(t, FlowLoading, s.Analysis().Status)
	assert.Equal(t, ids[1], s.Analysis().MessageID)

	pump(s, selectCmd)
	assert.Equal(t, FlowReady, s.Analysis().Status)
	assert.Equal(t, "summary: bravo body", s.Analysis().Result.Summary)
}

func TestSession_TranslateToggle(t *testing.T) {
	s, _, _ := newSession(t, nil, message("hola", model.ChannelPersonal, true))
	pump(s, s.Init())

	pump(s, s.RequestTranslate())
	assert.Equal(t, FlowReady, s.Translation().Status)
	assert.Equal(t, "English: hola body", s.Translation().Text)

	assert.Nil(t, s.RequestTranslate())
	assert.Equal(t, FlowIdle, s.Translation().Status)
}

func TestSession_DownloadRunsScanToCompletion(t *testing.T) {
	s, repo, ids := newSession(t, nil,
		withAttachment(message("files", model.ChannelBusiness, true), "plan.pdf"),
	)
	m, _ := repo.Find(ids[0])
	replyID := m.Replies[0].ID

	cmd := s.RequestDownload(replyID)
	require.NotNil(t, cmd)
	assert.Equal(t, ScanScanning, s.Scan().Status)
	assert.Nil(t, s.RequestDownload(replyID))

	seen := pump(s, cmd)
	assert.False(t, s.Scan().Active())

	var started []DownloadStartedMsg
	for _, msg := range seen {
		if d, ok := msg.(DownloadStartedMsg); ok {
			started = append(started, d)
		}
	}
	require.Len(t, started, 1)
	assert.Equal(t, "plan.pdf", started[0].Attachment.Name)
}

func TestSession_DeletingScannedMessageCancelsScan(t *testing.T) {
	s, repo, ids := newSession(t, nil,
		withAttachment(message("files", model.ChannelBusiness, true), "plan.pdf"),
		message("other", model.ChannelBusiness, true),
	)
	m, _ := repo.Find(ids[0])

	cmd := s.RequestDownload(m.Replies[0].ID)
	require.NotNil(t, cmd)

	s.DeleteMessage(ids[0])
	assert.False(t, s.Scan().Active())

	seen := pump(s, cmd)
	for _, msg := range seen {
		_, started := msg.(DownloadStartedMsg)
		assert.False(t, started)
	}
}

func TestSession_ReloadPicksUpImportedMessages(t *testing.T) {
	ai := &fakeAssistant{}
	s, repo, _ := newSession(t, ai)
	require.Empty(t, s.Visible())
	require.Equal(t, NoSelection, s.SelectedID())

	id, err := repo.store.InsertMessage(t.Context(), message("imported", model.ChannelPersonal, false))
	require.NoError(t, err)

	cmd, err := s.Reload(t.Context())
	require.NoError(t, err)
	require.Len(t, s.Visible(), 1)
	assert.Equal(t, id, s.SelectedID())
	assert.Equal(t, 1, s.Counts().All)

	pump(s, cmd)
	assert.Equal(t, FlowReady, s.Analysis().Status)
	assert.Equal(t, []string{"imported body"}, ai.analyzed)
}
