package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/inbox/internal/credential"
	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
	"github.com/nhle/inbox/internal/source/demo"
	"github.com/nhle/inbox/internal/source/email"
	"github.com/nhle/inbox/internal/store"
)

// dirPollInterval is how often an .eml directory is rescanned.
const dirPollInterval = time.Minute

// Registration is a source together with its poll interval.
type Registration struct {
	Source   source.Source
	Interval time.Duration
}

// PasswordLookup resolves a stored secret by key.
type PasswordLookup func(key string) (string, error)

// MailSources builds the background import sources described by cfg. An
// IMAP account without a stored password is skipped with a warning rather
// than failing startup.
func MailSources(cfg model.ImportConfig, lookup PasswordLookup) []Registration {
	log := logging.Component("sources")
	conv := email.Converter{Classifier: email.Classifier{BusinessDomains: cfg.BusinessDomains}}

	var regs []Registration

	if cfg.EMLDir != "" {
		regs = append(regs, Registration{
			Source:   email.NewDirSource(cfg.EMLDir, conv),
			Interval: dirPollInterval,
		})
	}

	if imap := cfg.IMAP; imap.Enabled() {
		password, err := lookup(credential.IMAPPassword)
		switch {
		case errors.Is(err, credential.ErrNotFound):
			log.Warn().
				Str("host", imap.Host).
				Msg("skipping IMAP import, no password stored; set INBOX_IMAP_PASSWORD or store imap-password in the keyring")
		case err != nil:
			log.Warn().Err(err).Str("host", imap.Host).Msg("skipping IMAP import")
		default:
			regs = append(regs, imapRegistration(imap, password, conv))
		}
	}

	return regs
}

func imapRegistration(imap model.IMAPConfig, password string, conv email.Converter) Registration {
	client := email.NewIMAPClient(imap.Host, imap.Port, imap.Username, password, imap.TLS)
	return Registration{
		Source:   email.NewIMAPSource(client, imap.Limit, conv),
		Interval: time.Duration(imap.PollIntervalSec) * time.Second,
	}
}

// SeedDemo imports the sample conversations into an empty store. A store
// that already holds messages is left alone.
func SeedDemo(ctx context.Context, st store.Store) error {
	msgs, err := st.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("checking store before demo import: %w", err)
	}
	if len(msgs) > 0 {
		return nil
	}

	res, err := source.Import(ctx, st, demo.Source{})
	if err != nil {
		return fmt.Errorf("importing demo messages: %w", err)
	}
	log := logging.Component("sources")
	log.Debug().Int("imported", res.Imported).Msg("demo messages seeded")
	return nil
}
