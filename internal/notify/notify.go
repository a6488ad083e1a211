// Package notify delivers desktop notifications for inbox events.
package notify

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
)

// Notifier announces user-visible events outside the terminal.
type Notifier interface {
	Notify(title, body string) error
}

// Desktop sends notifications through the platform notification service.
type Desktop struct {
	log zerolog.Logger
}

// NewDesktop creates a Desktop notifier registered under appName.
func NewDesktop(appName string) *Desktop {
	if appName != "" {
		beeep.AppName = appName
	}
	return &Desktop{log: logging.Component("notify")}
}

func (d *Desktop) Notify(title, body string) error {
	if err := beeep.Notify(title, body, ""); err != nil {
		d.log.Debug().Err(err).Str("title", title).Msg("desktop notification failed")
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// Nop discards notifications.
type Nop struct{}

func (Nop) Notify(string, string) error { return nil }

// DownloadStarted formats the notification shown once a scanned attachment
// starts downloading.
func DownloadStarted(a model.Attachment) (title, body string) {
	return "Download started", fmt.Sprintf("%s (%s)", a.Name, humanize.Bytes(uint64(a.Size)))
}
