package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
)

func TestAssist_DropsAnalysisForPreviousSelection(t *testing.T) {
	ai := &fakeAssistant{}
	a := NewAssist(ai, "", 0)
	msgA := &model.Message{ID: 1, Body: "alpha"}
	msgB := &model.Message{ID: 2, Body: "bravo"}

	cmdA := a.Select(msgA)
	cmdB := a.Select(msgB)

	assert.True(t, a.Update(cmdA()))
	assert.Equal(t, FlowLoading, a.Analysis().Status)
	assert.Equal(t, int64(2), a.Analysis().MessageID)
	assert.Empty(t, a.Analysis().Result.Summary)

	assert.True(t, a.Update(cmdB()))
	assert.Equal(t, FlowReady, a.Analysis().Status)
	assert.Equal(t, "summary: bravo", a.Analysis().Result.Summary)
}

func TestAssist_ReselectingSameMessageSupersedesEarlierRequest(t *testing.T) {
	ai := &fakeAssistant{}
	a := NewAssist(ai, "", 0)
	msg := &model.Message{ID: 1, Body: "alpha"}

	first := a.Select(msg)
	second := a.Select(msg)

	a.Update(first())
	assert.Equal(t, FlowLoading, a.Analysis().Status)

	a.Update(second())
	assert.Equal(t, FlowReady, a.Analysis().Status)
}

func TestAssist_AnalysisFailureIsScoped(t *testing.T) {
	ai := &fakeAssistant{analyzeErr: errBoom}
	a := NewAssist(ai, "", 0)
	msg := &model.Message{ID: 1, Body: "alpha"}

	a.Update(a.Select(msg)())
	assert.Equal(t, FlowFailed, a.Analysis().Status)
	assert.ErrorIs(t, a.Analysis().Err, errBoom)

	a.Update(a.ToggleTranslation(msg)())
	assert.Equal(t, FlowReady, a.Translation().Status)
	assert.Equal(t, "English: alpha", a.Translation().Text)
}

func TestAssist_SelectNilClearsAnalysis(t *testing.T) {
	a := NewAssist(&fakeAssistant{}, "", 0)
	msg := &model.Message{ID: 1, Body: "alpha"}

	pending := a.Select(msg)
	assert.Nil(t, a.Select(nil))
	assert.Equal(t, FlowIdle, a.Analysis().Status)

	a.Update(pending())
	assert.Equal(t, FlowIdle, a.Analysis().Status)
}

func TestAssist_TranslationToggle(t *testing.T) {
	ai := &fakeAssistant{}
	a := NewAssist(ai, "German", 0)
	msg := &model.Message{ID: 1, Body: "hello"}

	cmd := a.ToggleTranslation(msg)
	require.NotNil(t, cmd)
	assert.Equal(t, FlowLoading, a.Translation().Status)
	assert.Nil(t, a.ToggleTranslation(msg), "toggle while loading")

	a.Update(cmd())
	assert.Equal(t, FlowReady, a.Translation().Status)
	assert.Equal(t, "German: hello", a.Translation().Text)

	assert.Nil(t, a.ToggleTranslation(msg))
	assert.Equal(t, FlowIdle, a.Translation().Status)
	assert.Len(t, ai.translated, 1)

	require.NotNil(t, a.ToggleTranslation(msg))
	assert.Equal(t, FlowLoading, a.Translation().Status)
}

func TestAssist_SelectionResetsInFlightTranslation(t *testing.T) {
	a := NewAssist(&fakeAssistant{}, "", 0)
	msgA := &model.Message{ID: 1, Body: "alpha"}
	msgB := &model.Message{ID: 2, Body: "bravo"}

	a.Select(msgA)
	inflight := a.ToggleTranslation(msgA)
	a.Select(msgB)
	assert.Equal(t, FlowIdle, a.Translation().Status)

	assert.True(t, a.Update(inflight()))
	assert.Equal(t, FlowIdle, a.Translation().Status)
	assert.Empty(t, a.Translation().Text)
}

func TestAssist_TranslationFailureCanBeRetried(t *testing.T) {
	ai := &fakeAssistant{translateErr: errBoom}
	a := NewAssist(ai, "", 0)
	msg := &model.Message{ID: 1, Body: "alpha"}

	a.Update(a.ToggleTranslation(msg)())
	assert.Equal(t, FlowFailed, a.Translation().Status)
	assert.Equal(t, "boom", ErrorText(a.Translation().Err))

	ai.translateErr = nil
	a.Update(a.ToggleTranslation(msg)())
	assert.Equal(t, FlowReady, a.Translation().Status)
}
