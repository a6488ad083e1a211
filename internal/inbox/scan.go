package inbox

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
)

// ScanStatus is the phase of the attachment scan machine.
type ScanStatus int

const (
	ScanIdle ScanStatus = iota
	ScanScanning
	ScanComplete
)

func (s ScanStatus) String() string {
	switch s {
	case ScanScanning:
		return "scanning"
	case ScanComplete:
		return "complete"
	default:
		return "idle"
	}
}

// ScanState describes the single scan slot.
type ScanState struct {
	ReplyID    int64
	Attachment model.Attachment
	Status     ScanStatus
}

// Active reports whether the slot is occupied.
func (s ScanState) Active() bool {
	return s.Status != ScanIdle
}

// Scanner checks an attachment before it is downloaded. Implementations
// must return promptly once ctx is cancelled.
type Scanner interface {
	Scan(ctx context.Context, att model.Attachment) error
}

// SimulatedScanner pretends to scan by waiting a fixed duration. It always
// reports the file as safe.
type SimulatedScanner struct {
	Duration time.Duration
}

// Scan waits for the configured duration or until ctx is done.
func (s SimulatedScanner) Scan(ctx context.Context, _ model.Attachment) error {
	t := time.NewTimer(s.Duration)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// DownloadStartedMsg is emitted when a scanned attachment is released for
// download and the machine has returned to idle.
type DownloadStartedMsg struct {
	ReplyID    int64
	Attachment model.Attachment
}

type scanDoneMsg struct {
	gen uint64
	err error
}

type scanReleaseMsg struct {
	gen uint64
}

// ScanMachine runs the Idle → Scanning → Complete → Idle cycle for at most
// one attachment at a time, process-wide. Every transition carries the
// generation it was started under; messages from an older generation are
// discarded, which is how Cancel invalidates in-flight timers.
type ScanMachine struct {
	scanner Scanner
	hold    time.Duration
	state   ScanState
	gen     uint64
	cancel  context.CancelFunc
	lastErr error
	log     zerolog.Logger
}

// NewScanMachine creates an idle machine. hold is how long the complete
// status is shown before the download starts.
func NewScanMachine(scanner Scanner, hold time.Duration) *ScanMachine {
	return &ScanMachine{
		scanner: scanner,
		hold:    hold,
		log:     logging.Component("scan"),
	}
}

// State returns the current slot.
func (s *ScanMachine) State() ScanState {
	return s.state
}

// Err returns the failure of the last scan, if it failed.
func (s *ScanMachine) Err() error {
	return s.lastErr
}

// Request starts a scan of the reply's attachment. It is a no-op while any
// scan is active or when the reply carries no attachment.
func (s *ScanMachine) Request(reply model.Reply) tea.Cmd {
	if s.state.Active() {
		s.log.Debug().
			Int64("reply_id", reply.ID).
			Int64("active_reply_id", s.state.ReplyID).
			Msg("scan slot busy, ignoring request")
		return nil
	}
	if reply.Attachment == nil {
		return nil
	}

	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.lastErr = nil
	s.state = ScanState{
		ReplyID:    reply.ID,
		Attachment: *reply.Attachment,
		Status:     ScanScanning,
	}
	s.log.Info().
		Int64("reply_id", reply.ID).
		Str("attachment", reply.Attachment.Name).
		Msg("scanning attachment")

	scanner := s.scanner
	att := *reply.Attachment
	return func() tea.Msg {
		return scanDoneMsg{gen: gen, err: scanner.Scan(ctx, att)}
	}
}

// Cancel abandons the active scan, if any, and returns to idle.
func (s *ScanMachine) Cancel() {
	if !s.state.Active() {
		return
	}
	s.log.Info().Int64("reply_id", s.state.ReplyID).Msg("scan cancelled")
	s.gen++
	s.release()
	s.state = ScanState{}
}

// Update advances the machine. The boolean reports whether msg belonged to
// the machine.
func (s *ScanMachine) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case scanDoneMsg:
		if msg.gen != s.gen || s.state.Status != ScanScanning {
			return nil, true
		}
		s.release()

		if msg.err != nil {
			s.log.Warn().Err(msg.err).Int64("reply_id", s.state.ReplyID).Msg("scan failed")
			s.lastErr = msg.err
			s.state = ScanState{}
			return nil, true
		}

		s.log.Info().Int64("reply_id", s.state.ReplyID).Msg("scan complete, file is safe")
		s.state.Status = ScanComplete
		gen := s.gen
		return tea.Tick(s.hold, func(time.Time) tea.Msg {
			return scanReleaseMsg{gen: gen}
		}), true

	case scanReleaseMsg:
		if msg.gen != s.gen || s.state.Status != ScanComplete {
			return nil, true
		}
		started := DownloadStartedMsg{
			ReplyID:    s.state.ReplyID,
			Attachment: s.state.Attachment,
		}
		s.state = ScanState{}
		s.log.Info().
			Int64("reply_id", started.ReplyID).
			Str("attachment", started.Attachment.Name).
			Msg("download started")
		return func() tea.Msg { return started }, true
	}

	return nil, false
}

func (s *ScanMachine) release() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
