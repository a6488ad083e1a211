package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AIConfig holds settings for the analysis and translation providers.
type AIConfig struct {
	// Provider selects the backend: "claude", "gemini", "auto" or "none".
	Provider string `mapstructure:"provider" yaml:"provider"`

	// Model overrides the provider's default model when non-empty.
	Model     string `mapstructure:"model" yaml:"model"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`

	// TargetLanguage is a BCP-47 tag for translations (e.g. "en", "fr").
	TargetLanguage string `mapstructure:"target_language" yaml:"target_language"`

	TimeoutSec    int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
	RatePerMinute int `mapstructure:"rate_per_minute" yaml:"rate_per_minute"`
}

// Timeout returns the per-request deadline.
func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// Theme is "auto", "light" or "dark".
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// ScanConfig controls the simulated attachment scan timings.
type ScanConfig struct {
	ScanMs     int `mapstructure:"scan_ms" yaml:"scan_ms"`
	CompleteMs int `mapstructure:"complete_ms" yaml:"complete_ms"`
}

// ScanDuration is how long the scanning phase lasts.
func (c ScanConfig) ScanDuration() time.Duration {
	return time.Duration(c.ScanMs) * time.Millisecond
}

// CompleteDuration is how long the complete status is held before the
// download starts.
func (c ScanConfig) CompleteDuration() time.Duration {
	return time.Duration(c.CompleteMs) * time.Millisecond
}

// IdentityConfig describes the local user as shown on sent replies.
type IdentityConfig struct {
	Name   string `mapstructure:"name" yaml:"name"`
	Avatar string `mapstructure:"avatar" yaml:"avatar"`
}

// LoggingConfig controls the zerolog setup.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`

	// File is the log destination. Empty means the default state path,
	// "-" means stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// NotificationsConfig toggles desktop notifications.
type NotificationsConfig struct {
	Desktop bool `mapstructure:"desktop" yaml:"desktop"`
}

// StoreConfig points at the SQLite database backing the repository.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// IMAPConfig configures the optional INBOX import.
type IMAPConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	TLS      bool   `mapstructure:"tls" yaml:"tls"`

	// Limit caps how many recent messages are fetched per poll.
	Limit int `mapstructure:"limit" yaml:"limit"`

	// PollIntervalSec is how often to check for new mail. Zero means every
	// two minutes.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// Enabled reports whether enough is configured to attempt a connection.
func (c IMAPConfig) Enabled() bool {
	return c.Host != "" && c.Username != ""
}

// ImportConfig lists the sources messages are loaded from at startup.
type ImportConfig struct {
	Demo   bool   `mapstructure:"demo" yaml:"demo"`
	EMLDir string `mapstructure:"eml_dir" yaml:"eml_dir"`

	// BusinessDomains classifies imported senders into the Business
	// channel. Everything else lands in Personal.
	BusinessDomains []string   `mapstructure:"business_domains" yaml:"business_domains"`
	IMAP            IMAPConfig `mapstructure:"imap" yaml:"imap"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	AI            AIConfig            `mapstructure:"ai" yaml:"ai"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
	Scan          ScanConfig          `mapstructure:"scan" yaml:"scan"`
	Identity      IdentityConfig      `mapstructure:"identity" yaml:"identity"`
	Logging       LoggingConfig       `mapstructure:"logging" yaml:"logging"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Store         StoreConfig         `mapstructure:"store" yaml:"store"`
	Import        ImportConfig        `mapstructure:"import" yaml:"import"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/inbox/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "inbox", "config.yaml")
}

// DefaultLogPath returns ~/.local/state/inbox/inbox.log.
func DefaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "inbox.log")
	}
	return filepath.Join(home, ".local", "state", "inbox", "inbox.log")
}

var defaults = map[string]any{
	"ai.provider":             "auto",
	"ai.model":                "",
	"ai.max_tokens":           1024,
	"ai.target_language":      "en",
	"ai.timeout_sec":          30,
	"ai.rate_per_minute":      30,
	"display.theme":           "auto",
	"scan.scan_ms":            2500,
	"scan.complete_ms":        1500,
	"identity.name":           "Me",
	"identity.avatar":         "https://i.pravatar.cc/40?u=me",
	"logging.level":           "info",
	"logging.format":          "console",
	"logging.file":            "",
	"notifications.desktop":   false,
	"store.path":              ":memory:",
	"import.demo":             true,
	"import.eml_dir":          "",
	"import.business_domains": []string{},
	"import.imap.port":        "993",
	"import.imap.tls":         true,
	"import.imap.limit":       50,
}

// DefaultAppConfig returns the configuration used when no file exists.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		AI: AIConfig{
			Provider:       "auto",
			MaxTokens:      1024,
			TargetLanguage: "en",
			TimeoutSec:     30,
			RatePerMinute:  30,
		},
		Display:  DisplayConfig{Theme: "auto"},
		Scan:     ScanConfig{ScanMs: 2500, CompleteMs: 1500},
		Identity: IdentityConfig{Name: "Me", Avatar: "https://i.pravatar.cc/40?u=me"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Store:    StoreConfig{Path: ":memory:"},
		Import: ImportConfig{
			Demo:            true,
			BusinessDomains: []string{},
			IMAP:            IMAPConfig{Port: "993", TLS: true, Limit: 50},
		},
	}
}

// NewViper returns a viper instance bound to path with defaults and
// INBOX_-prefixed environment overrides applied.
func NewViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("INBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := NewViper(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	return Decode(v)
}

// Decode unmarshals the current viper state into an AppConfig and
// normalizes out-of-range values.
func Decode(v *viper.Viper) (*AppConfig, error) {
	cfg := DefaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", v.ConfigFileUsed(), err)
	}
	cfg.normalize()
	return cfg, nil
}

func (c *AppConfig) normalize() {
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 1024
	}
	if c.AI.TimeoutSec <= 0 {
		c.AI.TimeoutSec = 30
	}
	if c.AI.TargetLanguage == "" {
		c.AI.TargetLanguage = "en"
	}
	if c.Scan.ScanMs < 0 {
		c.Scan.ScanMs = 0
	}
	if c.Scan.CompleteMs < 0 {
		c.Scan.CompleteMs = 0
	}
	if c.Identity.Name == "" {
		c.Identity.Name = "Me"
	}
	if c.Store.Path == "" {
		c.Store.Path = ":memory:"
	}
	switch c.Display.Theme {
	case "light", "dark", "auto":
	default:
		c.Display.Theme = "auto"
	}
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("ai", cfg.AI)
	v.Set("display", cfg.Display)
	v.Set("scan", cfg.Scan)
	v.Set("identity", cfg.Identity)
	v.Set("logging", cfg.Logging)
	v.Set("notifications", cfg.Notifications)
	v.Set("store", cfg.Store)
	v.Set("import", cfg.Import)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
