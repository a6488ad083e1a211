package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/inbox/internal/credential"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/notify"
	"github.com/nhle/inbox/internal/source/email"
	"github.com/nhle/inbox/internal/theme"
	settingsview "github.com/nhle/inbox/internal/ui/config"
)

// settingsDeps fills the unset side effects of the settings screen.
func settingsDeps(d settingsview.Deps, path string, lookup PasswordLookup) settingsview.Deps {
	if d.Validate == nil {
		d.Validate = func(ctx context.Context, acct model.IMAPConfig, password string) error {
			if password == "" {
				p, err := lookup(credential.IMAPPassword)
				if err != nil {
					return fmt.Errorf("no IMAP password to sign in with: %w", err)
				}
				password = p
			}
			return email.NewIMAPClient(acct.Host, acct.Port, acct.Username, password, acct.TLS).Check(ctx)
		}
	}
	if d.SavePassword == nil {
		d.SavePassword = func(p string) error {
			return credential.Set(credential.IMAPPassword, p)
		}
	}
	if d.SaveConfig == nil {
		d.SaveConfig = func(cfg *model.AppConfig) error {
			if path == "" {
				return errors.New("no config file path to save to")
			}
			return model.SaveConfig(path, cfg)
		}
	}
	return d
}

func (m *Model) openSettings() tea.Cmd {
	if m.config == nil {
		m.status = "settings are unavailable without a config file"
		return nil
	}
	_, err := m.lookup(credential.IMAPPassword)

	m.previousView = m.currentView
	m.currentView = ViewSettings
	return m.settingsView.Start(*m.config, err == nil)
}

// applySettings switches to the saved configuration. Theme, notifications
// and mail sources change at once; AI settings wait for the next start.
func (m *Model) applySettings(msg settingsview.SavedMsg) tea.Cmd {
	prev := m.config
	cfg := msg.Config
	m.config = &cfg

	theme.Apply(theme.Mode(cfg.Display.Theme))

	if !cfg.Notifications.Desktop {
		m.notifier = notify.Nop{}
	} else if _, off := m.notifier.(notify.Nop); off {
		m.notifier = notify.NewDesktop("inbox")
	}

	m.status = "settings saved"
	if prev != nil && (prev.AI.Provider != cfg.AI.Provider || prev.AI.TargetLanguage != cfg.AI.TargetLanguage) {
		m.status = "settings saved, AI changes apply on next start"
	}

	if m.poller == nil {
		return nil
	}

	lookup := m.lookup
	if msg.Password != "" {
		lookup = func(key string) (string, error) {
			if key == credential.IMAPPassword {
				return msg.Password, nil
			}
			return m.lookup(key)
		}
	}

	var cmds []tea.Cmd
	for _, reg := range MailSources(cfg.Import, lookup) {
		cmds = append(cmds, m.poller.Add(reg.Source, reg.Interval))
	}
	return tea.Batch(cmds...)
}
