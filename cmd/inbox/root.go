package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nhle/inbox/internal/ai"
	"github.com/nhle/inbox/internal/app"
	"github.com/nhle/inbox/internal/credential"
	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/notify"
	"github.com/nhle/inbox/internal/store"
	appsync "github.com/nhle/inbox/internal/sync"
	"github.com/nhle/inbox/internal/theme"
)

// flags are the command-line overrides applied on top of the config file.
type flags struct {
	configPath string
	logLevel   string
	logFile    string
	theme      string
	noDemo     bool
	emlDir     string
}

func newRootCmd(version string) *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "inbox",
		Short:         "Terminal inbox with AI triage",
		Long:          "A keyboard-driven inbox that groups mail into Personal and Business channels, summarizes and prioritizes each message, and suggests replies.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.PersistentFlags().StringVar(&f.configPath, "config", model.DefaultConfigPath(), "path to the config file")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", `log destination ("-" for stderr)`)
	cmd.Flags().StringVar(&f.theme, "theme", "", "theme: auto|light|dark")
	cmd.Flags().BoolVar(&f.noDemo, "no-demo", false, "do not seed the demo messages")
	cmd.Flags().StringVar(&f.emlDir, "eml-dir", "", "directory of .eml files to import")

	cmd.AddCommand(newConfigCmd(f), newCredentialCmd())
	return cmd
}

// loadConfig reads the config file and applies flags that were set.
func loadConfig(cmd *cobra.Command, f *flags) (*viper.Viper, *model.AppConfig, error) {
	v := model.NewViper(f.configPath)
	if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
		return nil, nil, fmt.Errorf("reading config %s: %w", f.configPath, err)
	}

	cfg, err := model.Decode(v)
	if err != nil {
		return nil, nil, err
	}

	fl := cmd.Flags()
	if fl.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if fl.Changed("log-file") {
		cfg.Logging.File = f.logFile
	}
	if fl.Changed("theme") {
		cfg.Display.Theme = f.theme
	}
	if fl.Changed("eml-dir") {
		cfg.Import.EMLDir = f.emlDir
	}
	if f.noDemo {
		cfg.Import.Demo = false
	}
	return v, cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
}

func openLog(path string) (io.WriteCloser, error) {
	switch path {
	case "-":
		return nopWriteCloser{os.Stderr}, nil
	case "":
		path = model.DefaultLogPath()
	}
	return logging.OpenFile(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func run(cmd *cobra.Command, f *flags) error {
	v, cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logOut, err := openLog(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer logOut.Close()

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOut,
	})
	log := logging.Component("main")
	log.Info().Str("version", cmd.Version).Str("config", f.configPath).Msg("starting")

	theme.Apply(theme.Mode(cfg.Display.Theme))

	ctx := context.Background()

	// A store file is only kept for inspection; every run starts empty.
	if err := store.RemoveDatabase(cfg.Store.Path); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if cfg.Import.Demo {
		if err := app.SeedDemo(ctx, st); err != nil {
			return err
		}
	}

	repo, err := inbox.NewRepository(ctx, st)
	if err != nil {
		return err
	}

	assistant, err := ai.New(ai.Config{
		Provider:      cfg.AI.Provider,
		Model:         cfg.AI.Model,
		MaxTokens:     cfg.AI.MaxTokens,
		RatePerMinute: cfg.AI.RatePerMinute,
		ClaudeKey:     lookupOptional(credential.ClaudeAPIKey),
		GeminiKey:     lookupOptional(credential.GeminiAPIKey),
	})
	if err != nil {
		return err
	}

	session := inbox.NewSession(repo, inbox.Options{
		Assistant:      assistant,
		Scanner:        inbox.SimulatedScanner{Duration: cfg.Scan.ScanDuration()},
		CompleteHold:   cfg.Scan.CompleteDuration(),
		Identity:       inbox.Identity{Name: cfg.Identity.Name, Avatar: cfg.Identity.Avatar},
		TargetLanguage: ai.LanguageName(cfg.AI.TargetLanguage),
		RequestTimeout: cfg.AI.Timeout(),
	})
	defer session.Close()

	poller := appsync.New(st)
	for _, reg := range app.MailSources(cfg.Import, credential.Lookup) {
		poller.RegisterSource(reg.Source, reg.Interval)
	}
	defer poller.Stop()

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notifications.Desktop {
		notifier = notify.NewDesktop("inbox")
	}

	p := tea.NewProgram(app.New(app.Options{
		Session:    session,
		Poller:     poller,
		Notifier:   notifier,
		Provider:   assistant.Provider(),
		Config:     cfg,
		ConfigPath: f.configPath,
	}), tea.WithAltScreen())

	if v.ConfigFileUsed() != "" && fileExists(v.ConfigFileUsed()) {
		watchConfig(v, p)
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	log.Info().Msg("exiting")
	return nil
}

// watchConfig forwards live-applicable settings to the UI whenever the
// config file is written.
func watchConfig(v *viper.Viper, p *tea.Program) {
	log := logging.Component("config")
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := model.Decode(v)
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("ignoring invalid config change")
			return
		}
		log.Info().Str("file", e.Name).Msg("config reloaded")
		p.Send(app.ConfigChangedMsg{Theme: cfg.Display.Theme, LogLevel: cfg.Logging.Level})
	})
	v.WatchConfig()
}

func lookupOptional(key string) string {
	v, err := credential.Lookup(key)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			log := logging.Component("main")
			log.Warn().Err(err).Str("key", key).Msg("credential lookup failed")
		}
		return ""
	}
	return v
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
