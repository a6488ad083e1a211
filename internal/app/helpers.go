package app

import (
	"fmt"
	"strings"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/model"
	appsync "github.com/nhle/inbox/internal/sync"
	"github.com/nhle/inbox/internal/ui/detail"
)

// detailState collects what the detail pane renders from the session.
func detailState(s *inbox.Session) detail.State {
	st := detail.State{
		Analysis:    s.Analysis(),
		Translation: s.Translation(),
		Language:    s.TargetLanguage(),
		Scan:        s.Scan(),
		ScanErr:     s.ScanErr(),
		Draft:       s.Draft(),
	}
	if m, ok := s.Selected(); ok {
		st.Message = &m
	}
	return st
}

// listTitle names the list after the active channel and search.
func listTitle(ch model.Channel, query string) string {
	title := string(ch)
	if ch == model.ChannelAll {
		title = "Inbox"
	}
	if q := strings.TrimSpace(query); q != "" {
		title += fmt.Sprintf(" · %q", q)
	}
	return title
}

// syncSummary returns a short string describing the combined import state.
func syncSummary(statuses []appsync.SyncStatus) string {
	if len(statuses) == 0 {
		return "local only"
	}

	running := 0
	var failing []string
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failing = append(failing, s.Source)
		}
	}

	if running > 0 {
		return fmt.Sprintf("checking mail (%d)", running)
	}
	if len(failing) > 0 {
		return "⚠ unreachable: " + strings.Join(failing, ", ")
	}
	return "up to date"
}
