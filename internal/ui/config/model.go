// Package config is the settings screen: the IMAP account used for
// background imports and the preferences that can be changed from inside
// the app.
package config

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"

	"github.com/nhle/inbox/internal/ai"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

// Mode is the current state of the settings screen.
type Mode int

const (
	ModeForm       Mode = iota // Editing the fields
	ModeValidating             // Testing the IMAP login
	ModeResult                 // Showing a failed check or save
)

const validateTimeout = 20 * time.Second

// DoneMsg closes the settings screen without saving.
type DoneMsg struct{}

// SavedMsg carries the configuration that was written. Password is the
// newly entered IMAP password, empty when the stored one was kept.
type SavedMsg struct {
	Config   model.AppConfig
	Password string
}

// validatedMsg reports the outcome of an IMAP login check.
type validatedMsg struct {
	err error
}

// Deps are the side effects the screen performs.
type Deps struct {
	// Validate checks that acct accepts the login. An empty password means
	// the stored one.
	Validate func(ctx context.Context, acct model.IMAPConfig, password string) error

	SavePassword func(password string) error
	SaveConfig   func(cfg *model.AppConfig) error
}

// formValues holds field values on the heap so huh's Value() pointers stay
// valid across Bubble Tea model copies.
type formValues struct {
	host      string
	port      string
	username  string
	password  string
	tls       bool
	interval  string
	domains   string
	theme     string
	provider  string
	language  string
	notify    bool
	hadPasswd bool
}

// Model is the Bubble Tea model for the settings screen.
type Model struct {
	mode    Mode
	deps    Deps
	base    model.AppConfig
	vals    *formValues
	form    *huh.Form
	spinner spinner.Model
	cancel  context.CancelFunc
	err     error

	width, height int
}

// New creates a settings screen.
func New(deps Deps, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	return Model{
		deps:    deps,
		vals:    &formValues{},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start fills the form from cfg. hasPassword tells the form whether an IMAP
// password is already stored.
func (m *Model) Start(cfg model.AppConfig, hasPassword bool) tea.Cmd {
	imap := cfg.Import.IMAP
	*m.vals = formValues{
		host:      imap.Host,
		port:      imap.Port,
		username:  imap.Username,
		tls:       imap.TLS,
		domains:   strings.Join(cfg.Import.BusinessDomains, ", "),
		theme:     cfg.Display.Theme,
		provider:  cfg.AI.Provider,
		language:  cfg.AI.TargetLanguage,
		notify:    cfg.Notifications.Desktop,
		hadPasswd: hasPassword,
	}
	if imap.PollIntervalSec > 0 {
		m.vals.interval = strconv.Itoa(imap.PollIntervalSec)
	}
	if m.vals.port == "" {
		m.vals.port = "993"
	}

	m.base = cfg
	m.mode = ModeForm
	m.err = nil
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case validatedMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.cancel = nil
		if msg.err != nil {
			m.mode = ModeResult
			m.err = msg.err
			return m, nil
		}
		return m.save()

	case spinner.TickMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == ModeForm {
		return m.updateForm(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case ModeValidating:
		if msg.String() == "esc" {
			if m.cancel != nil {
				m.cancel()
				m.cancel = nil
			}
			m.mode = ModeForm
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		return m, nil

	case ModeResult:
		switch msg.String() {
		case "enter", "e":
			m.mode = ModeForm
			m.form = m.buildForm()
			return m, m.form.Init()
		case "esc":
			return m, func() tea.Msg { return DoneMsg{} }
		}
		return m, nil
	}

	if msg.String() == "esc" {
		return m, func() tea.Msg { return DoneMsg{} }
	}
	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.submit()
	case huh.StateAborted:
		return m, func() tea.Msg { return DoneMsg{} }
	}
	return m, cmd
}

// submit checks the IMAP login before saving when an account is set.
func (m Model) submit() (Model, tea.Cmd) {
	cfg := m.config()
	if !cfg.Import.IMAP.Enabled() || m.deps.Validate == nil {
		return m.save()
	}

	ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
	m.cancel = cancel
	m.mode = ModeValidating

	validate, password := m.deps.Validate, m.vals.password
	acct := cfg.Import.IMAP
	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			defer cancel()
			return validatedMsg{err: validate(ctx, acct, password)}
		},
	)
}

func (m Model) save() (Model, tea.Cmd) {
	cfg := m.config()
	password := m.vals.password

	if password != "" && m.deps.SavePassword != nil {
		if err := m.deps.SavePassword(password); err != nil {
			m.mode = ModeResult
			m.err = fmt.Errorf("storing IMAP password: %w", err)
			return m, nil
		}
	}
	if m.deps.SaveConfig != nil {
		if err := m.deps.SaveConfig(&cfg); err != nil {
			m.mode = ModeResult
			m.err = err
			return m, nil
		}
	}

	m.mode = ModeForm
	m.form = nil
	m.vals.password = ""
	return m, func() tea.Msg { return SavedMsg{Config: cfg, Password: password} }
}

// config applies the form values to the configuration the screen was
// opened with.
func (m Model) config() model.AppConfig {
	cfg := m.base
	v := m.vals

	cfg.Import.IMAP.Host = strings.TrimSpace(v.host)
	cfg.Import.IMAP.Port = strings.TrimSpace(v.port)
	cfg.Import.IMAP.Username = strings.TrimSpace(v.username)
	cfg.Import.IMAP.TLS = v.tls
	cfg.Import.IMAP.PollIntervalSec, _ = strconv.Atoi(strings.TrimSpace(v.interval))
	cfg.Import.BusinessDomains = splitDomains(v.domains)

	cfg.Display.Theme = v.theme
	cfg.AI.Provider = v.provider
	cfg.AI.TargetLanguage = strings.TrimSpace(v.language)
	cfg.Notifications.Desktop = v.notify
	return cfg
}

func splitDomains(s string) []string {
	domains := []string{}
	for _, d := range strings.Split(s, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		d = strings.TrimPrefix(d, "@")
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

func (m Model) buildForm() *huh.Form {
	passwordHint := "Stored in the system keyring"
	if m.vals.hadPasswd {
		passwordHint = "Leave blank to keep the stored password"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Description("Leave blank to turn IMAP import off").
				Placeholder("imap.example.com").
				Value(&m.vals.host),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&m.vals.port).
				Validate(m.requiredWithHost(validatePort)),
			huh.NewInput().
				Title("Username").
				Placeholder("user@example.com").
				Value(&m.vals.username).
				Validate(m.requiredWithHost(validateRequired("Username"))),
			huh.NewInput().
				Title("Password").
				Description(passwordHint).
				EchoMode(huh.EchoModePassword).
				Value(&m.vals.password).
				Validate(m.passwordRule),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&m.vals.tls),
			huh.NewInput().
				Title("Poll interval (seconds)").
				Description("Blank for the default of two minutes").
				Value(&m.vals.interval).
				Validate(validateOptionalNumber),
			huh.NewInput().
				Title("Business domains").
				Description("Senders from these domains go to Business").
				Placeholder("acme.com, partner.io").
				Value(&m.vals.domains),
		).Title("Mail account"),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Follow terminal", string(theme.ModeAuto)),
					huh.NewOption("Light", string(theme.ModeLight)),
					huh.NewOption("Dark", string(theme.ModeDark)),
				).
				Value(&m.vals.theme),
			huh.NewSelect[string]().
				Title("AI provider").
				Description("Applies on next start").
				Options(
					huh.NewOption("Automatic", ai.ProviderAuto),
					huh.NewOption("Claude", ai.ProviderClaude),
					huh.NewOption("Gemini", ai.ProviderGemini),
					huh.NewOption("Off", ai.ProviderNone),
				).
				Value(&m.vals.provider),
			huh.NewInput().
				Title("Translate to").
				Description("Language tag such as en, de or pt-BR").
				Value(&m.vals.language).
				Validate(validateLanguage),
			huh.NewConfirm().
				Title("Desktop notifications").
				Description("Notify when a download starts").
				Affirmative("On").
				Negative("Off").
				Value(&m.vals.notify),
		).Title("Preferences"),
	).WithWidth(m.formWidth()).WithShowHelp(true)
}

func (m Model) requiredWithHost(rule func(string) error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(m.vals.host) == "" {
			return nil
		}
		return rule(s)
	}
}

func (m Model) passwordRule(s string) error {
	if strings.TrimSpace(m.vals.host) == "" || m.vals.hadPasswd {
		return nil
	}
	return validateRequired("Password")(s)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("port is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}

func validateOptionalNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err != nil || n < 0 {
		return fmt.Errorf("must be a whole number of seconds")
	}
	return nil
}

func validateLanguage(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("language is required")
	}
	if _, err := language.Parse(s); err != nil {
		return fmt.Errorf("%q is not a language tag", s)
	}
	return nil
}

// Mode returns the current screen state.
func (m Model) Mode() Mode {
	return m.mode
}

// View renders the settings screen.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("Settings")

	var body string
	switch m.mode {
	case ModeValidating:
		body = fmt.Sprintf("%s Signing in to %s...\n\n%s",
			m.spinner.View(), m.vals.host, theme.MutedStyle.Render("esc to go back"))
	case ModeResult:
		body = lipgloss.NewStyle().Foreground(theme.ColorRed).Render("✗ "+m.err.Error()) +
			"\n\n" + theme.MutedStyle.Render("enter edit | esc discard")
	default:
		if m.form == nil {
			return ""
		}
		body = m.form.View()
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, "", body),
	)
}

func (m Model) formWidth() int {
	return min(max(m.width-6, 40), 80)
}

// SetSize updates the screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}
