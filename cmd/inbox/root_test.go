package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInit_WritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.AI.Provider)
	assert.Equal(t, 2500, cfg.Scan.ScanMs)
}

func TestConfigInit_RefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  theme: dark\n"), 0o644))

	_, err := execute(t, "config", "init", "--config", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	require.NoError(t, err)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display:\n  theme: dark\nimport:\n  demo: true\n"), 0o644))

	cmd := newRootCmd("test")
	f := &flags{}
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--theme", "light", "--no-demo", "--eml-dir", "/tmp/mail"}))
	f.configPath, _ = cmd.Flags().GetString("config")
	f.theme, _ = cmd.Flags().GetString("theme")
	f.noDemo, _ = cmd.Flags().GetBool("no-demo")
	f.emlDir, _ = cmd.Flags().GetString("eml-dir")

	_, cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Display.Theme)
	assert.False(t, cfg.Import.Demo)
	assert.Equal(t, "/tmp/mail", cfg.Import.EMLDir)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cmd := newRootCmd("test")
	f := &flags{configPath: filepath.Join(t.TempDir(), "absent.yaml")}

	_, cfg, err := loadConfig(cmd, f)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Store.Path)
	assert.True(t, cfg.Import.Demo)
}

func TestCredentialSet_RejectsUnknownKey(t *testing.T) {
	_, err := execute(t, "credential", "set", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown credential "bogus"`)
}
