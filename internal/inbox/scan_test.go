package inbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
)

func attachedReply(id int64, name string) model.Reply {
	return model.Reply{ID: id, Body: "file", Attachment: &model.Attachment{Name: name, Size: 10}}
}

func TestScanMachine_RunsFullCycle(t *testing.T) {
	m := NewScanMachine(SimulatedScanner{Duration: time.Millisecond}, time.Millisecond)

	cmd := m.Request(attachedReply(3, "report.pdf"))
	require.NotNil(t, cmd)
	assert.Equal(t, ScanScanning, m.State().Status)
	assert.Equal(t, int64(3), m.State().ReplyID)

	next, ok := m.Update(cmd())
	require.True(t, ok)
	require.NotNil(t, next)
	assert.Equal(t, ScanComplete, m.State().Status)

	next, ok = m.Update(next())
	require.True(t, ok)
	require.NotNil(t, next)
	assert.False(t, m.State().Active())

	started, isStarted := next().(DownloadStartedMsg)
	require.True(t, isStarted)
	assert.Equal(t, int64(3), started.ReplyID)
	assert.Equal(t, "report.pdf", started.Attachment.Name)
}

func TestScanMachine_SingleFlight(t *testing.T) {
	m := NewScanMachine(SimulatedScanner{Duration: time.Millisecond}, time.Millisecond)

	require.NotNil(t, m.Request(attachedReply(1, "a.txt")))

	assert.Nil(t, m.Request(attachedReply(2, "b.txt")), "different attachment")
	assert.Nil(t, m.Request(attachedReply(1, "a.txt")), "same attachment")
	assert.Equal(t, int64(1), m.State().ReplyID)
}

func TestScanMachine_IgnoresReplyWithoutAttachment(t *testing.T) {
	m := NewScanMachine(SimulatedScanner{}, 0)

	assert.Nil(t, m.Request(model.Reply{ID: 1, Body: "plain"}))
	assert.False(t, m.State().Active())
}

func TestScanMachine_CancelDropsLateTransitions(t *testing.T) {
	m := NewScanMachine(SimulatedScanner{Duration: time.Hour}, time.Millisecond)

	cmd := m.Request(attachedReply(1, "a.txt"))
	require.NotNil(t, cmd)

	m.Cancel()
	assert.False(t, m.State().Active())

	// The scanner observes the cancelled context and returns immediately.
	next, ok := m.Update(cmd())
	assert.True(t, ok)
	assert.Nil(t, next)
	assert.False(t, m.State().Active())
	assert.NoError(t, m.Err())

	assert.NotNil(t, m.Request(attachedReply(2, "b.txt")))
}

func TestScanMachine_FailureReturnsToIdle(t *testing.T) {
	m := NewScanMachine(failingScanner{err: errBoom}, time.Millisecond)

	cmd := m.Request(attachedReply(1, "a.txt"))
	next, ok := m.Update(cmd())
	require.True(t, ok)
	assert.Nil(t, next)
	assert.False(t, m.State().Active())
	assert.ErrorIs(t, m.Err(), errBoom)
}

func TestSimulatedScanner_HonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SimulatedScanner{Duration: time.Hour}.Scan(ctx, model.Attachment{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanMachine_IgnoresForeignMessages(t *testing.T) {
	m := NewScanMachine(SimulatedScanner{}, 0)

	cmd, ok := m.Update("not a scan message")
	assert.False(t, ok)
	assert.Nil(t, cmd)
}
