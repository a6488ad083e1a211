package sync

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/source"
	"github.com/nhle/inbox/internal/store"
)

// SyncState represents the current state of a source import.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the import state for a single source.
type SyncStatus struct {
	Source   string
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when an import run completes. Imported
// messages are already in the store; the receiver reloads its repository.
type SyncResultMsg struct {
	Source string
	Result source.Result
	Error  error

	// AuthFailed is set when the source rejected its credentials.
	AuthFailed bool
}

// fetchTimeout is the maximum time allowed for a single fetch operation.
const fetchTimeout = 30 * time.Second

// defaultInterval applies to sources registered without an interval.
const defaultInterval = 120 * time.Second

// sourceEntry holds a registered source and its poll interval.
type sourceEntry struct {
	src      source.Source
	interval time.Duration

	// done is closed when the entry is replaced.
	done chan struct{}
}

// Poller imports from registered sources in the background. It only
// writes to the store; the UI thread picks up changes from SyncResultMsg.
type Poller struct {
	store     store.Store
	sources   []sourceEntry
	statuses  map[string]*SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan string
	stopCh    chan struct{}
	mu        gosync.Mutex
	running   bool
	log       zerolog.Logger
}

// New creates a new Poller with the given store.
func New(s store.Store) *Poller {
	return &Poller{
		store:     s,
		statuses:  make(map[string]*SyncStatus),
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan string, 16),
		stopCh:    make(chan struct{}),
		log:       logging.Component("sync"),
	}
}

// RegisterSource adds a source polled every interval. A source with the
// same name replaces the earlier registration.
func (p *Poller) RegisterSource(src source.Source, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.register(src, interval)
}

// Add registers src on a poller that may already be running. A running
// poller starts polling it at once; an idle one is started and the
// returned command waits for the first result.
func (p *Poller) Add(src source.Source, interval time.Duration) tea.Cmd {
	p.mu.Lock()
	entry := p.register(src, interval)
	running := p.running
	p.mu.Unlock()

	if !running {
		return p.Start()
	}
	go p.pollSource(entry)
	return nil
}

// register must be called with mu held.
func (p *Poller) register(src source.Source, interval time.Duration) sourceEntry {
	if interval <= 0 {
		interval = defaultInterval
	}
	entry := sourceEntry{src: src, interval: interval, done: make(chan struct{})}
	name := src.Name()

	for i, e := range p.sources {
		if e.src.Name() == name {
			close(e.done)
			p.sources[i] = entry
			p.statuses[name] = &SyncStatus{Source: name, State: SyncIdle}
			return entry
		}
	}
	p.sources = append(p.sources, entry)
	p.statuses[name] = &SyncStatus{Source: name, State: SyncIdle}
	return entry
}

// Start returns a tea.Cmd that starts all polling goroutines and waits for
// the first result. It returns nil when no source is registered or the
// poller is already running.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running || len(p.sources) == 0 {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	sources := make([]sourceEntry, len(p.sources))
	copy(sources, p.sources)
	p.mu.Unlock()

	for _, entry := range sources {
		go p.pollSource(entry)
	}

	return p.waitForResult()
}

// Stop halts all polling goroutines.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	close(p.stopCh)
	p.running = false
}

// RefreshAll triggers an immediate poll of all registered sources.
func (p *Poller) RefreshAll() {
	p.mu.Lock()
	names := make([]string, len(p.sources))
	for i, e := range p.sources {
		names[i] = e.src.Name()
	}
	p.mu.Unlock()

	for _, name := range names {
		select {
		case p.triggerCh <- name:
		default:
			// Channel full; skip to avoid blocking
		}
	}
}

// Statuses returns the current import status of all registered sources,
// sorted by name.
func (p *Poller) Statuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.statuses))
	for _, s := range p.statuses {
		statuses = append(statuses, *s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Source < statuses[j].Source })
	return statuses
}

// pollSource runs the polling loop for a single source.
func (p *Poller) pollSource(entry sourceEntry) {
	ticker := time.NewTicker(entry.interval)
	defer ticker.Stop()

	name := entry.src.Name()

	// Do an initial fetch immediately
	p.runImport(entry)

	for {
		select {
		case <-p.stopCh:
			return
		case <-entry.done:
			return
		case <-ticker.C:
			p.runImport(entry)
		case trigger := <-p.triggerCh:
			if trigger == name {
				p.runImport(entry)
			} else {
				// Not ours; hand it back for the owning goroutine.
				select {
				case p.triggerCh <- trigger:
				default:
				}
			}
		}
	}
}

// runImport performs a single import and reports it on the result channel.
func (p *Poller) runImport(entry sourceEntry) {
	name := entry.src.Name()
	p.setStatus(name, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	res, err := source.Import(ctx, p.store, entry.src)
	if err != nil {
		p.setStatus(name, SyncError, err)
		p.log.Warn().Err(err).Str("source", name).Msg("import failed")

		msg := SyncResultMsg{Source: name, Result: res, Error: err}
		if source.IsAuthError(err) {
			msg.AuthFailed = true
			msg.Error = fmt.Errorf("%s: authentication failed, check the stored password: %w", name, err)
		}
		p.sendResult(msg)
		return
	}

	p.setStatus(name, SyncIdle, nil)
	p.log.Info().
		Str("source", name).
		Int("fetched", res.Fetched).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("import finished")
	p.sendResult(SyncResultMsg{Source: name, Result: res})
}

// setStatus updates the import status for a source.
func (p *Poller) setStatus(name string, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[name]
	if !ok {
		return
	}

	status.State = state
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = time.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next import
// result. Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
