package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	require.Equal(t, "auto", cfg.AI.Provider)
	require.Equal(t, "en", cfg.AI.TargetLanguage)
	require.Equal(t, 2500*time.Millisecond, cfg.Scan.ScanDuration())
	require.Equal(t, 1500*time.Millisecond, cfg.Scan.CompleteDuration())
	require.Equal(t, "Me", cfg.Identity.Name)
	require.Equal(t, ":memory:", cfg.Store.Path)
	require.True(t, cfg.Import.Demo)
	require.False(t, cfg.Import.IMAP.Enabled())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
ai:
  provider: gemini
  target_language: fr
display:
  theme: dark
scan:
  scan_ms: 10
identity:
  name: Ada
import:
  business_domains: [acme.com]
  imap:
    host: imap.acme.com
    username: ada
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "gemini", cfg.AI.Provider)
	require.Equal(t, "fr", cfg.AI.TargetLanguage)
	require.Equal(t, 1024, cfg.AI.MaxTokens)
	require.Equal(t, "dark", cfg.Display.Theme)
	require.Equal(t, 10*time.Millisecond, cfg.Scan.ScanDuration())
	require.Equal(t, 1500, cfg.Scan.CompleteMs)
	require.Equal(t, "Ada", cfg.Identity.Name)
	require.Equal(t, []string{"acme.com"}, cfg.Import.BusinessDomains)
	require.True(t, cfg.Import.IMAP.Enabled())
	require.Equal(t, "993", cfg.Import.IMAP.Port)
	require.True(t, cfg.Import.IMAP.TLS)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("INBOX_AI_PROVIDER", "none")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "none", cfg.AI.Provider)
}

func TestLoadConfig_InvalidValuesNormalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "display:\n  theme: neon\nai:\n  timeout_sec: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "auto", cfg.Display.Theme)
	require.Equal(t, 30*time.Second, cfg.AI.Timeout())
}

func TestLoadConfig_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestSaveConfig_WritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultAppConfig()
	cfg.AI.Provider = "claude"
	cfg.Display.Theme = "light"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "claude", loaded.AI.Provider)
	require.Equal(t, "light", loaded.Display.Theme)
}

func TestParseChannel(t *testing.T) {
	c, err := ParseChannel("Business")
	require.NoError(t, err)
	require.Equal(t, ChannelBusiness, c)
	require.True(t, c.Stored())
	require.False(t, ChannelAll.Stored())

	_, err = ParseChannel("business")
	require.Error(t, err)
}

func TestParsePriority_UnknownLabel(t *testing.T) {
	require.Equal(t, PriorityHigh, ParsePriority("High Priority"))
	require.Equal(t, PriorityUnknown, ParsePriority("urgent"))
}
