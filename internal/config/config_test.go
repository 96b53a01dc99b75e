package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "willard", "config.yaml")

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, "willard.db", cfg.DatabaseName)
	assert.Equal(t, "settings.yaml", cfg.SettingsFile)
	assert.False(t, cfg.DestructiveMigration, "destructive migration is off by default")
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, time.Second, cfg.RefreshInterval)
	assert.Equal(t, path, cfg.File)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "destructive_migration: false")
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "data_dir: " + dir + "\ndatabase_name: tasks.db\ndestructive_migration: true\nlog_format: json\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.True(t, cfg.DestructiveMigration)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, filepath.Join(dir, "tasks.db"), cfg.DatabasePath())
	assert.Equal(t, filepath.Join(dir, "settings.yaml"), cfg.SettingsPath())
	assert.Equal(t, filepath.Join(dir, "willard.log"), cfg.LogPath())
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))
	t.Setenv("WILLARD_LOG_LEVEL", "debug")
	t.Setenv("WILLARD_DATA_DIR", dir)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestFlagsOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	t.Setenv("WILLARD_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("data-dir", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--data-dir", dir, "--log-level", "warn"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestEnvNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("WILLARD_DESTRUCTIVE_MIGRATION", "true")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, cfg.DestructiveMigration)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "destructive_migration: false")
}

func TestAbsoluteNamesKept(t *testing.T) {
	cfg := &Config{DataDir: "/data", DatabaseName: "/elsewhere/w.db", SettingsFile: "s.yaml"}
	assert.Equal(t, "/elsewhere/w.db", cfg.DatabasePath())
	assert.Equal(t, filepath.Join("/data", "s.yaml"), cfg.SettingsPath())
}

func TestLoadRejectsEmptyDatabaseName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database_name: \"\"\n"), 0o644))

	_, err := Load(path, nil)
	assert.Error(t, err)
}

func TestDefaultPathUsesXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "willard", "config.yaml"), path)

	data, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "willard"), data)
}

func TestRefreshInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("WILLARD_REFRESH_INTERVAL", "250ms")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.RefreshInterval)

	t.Setenv("WILLARD_REFRESH_INTERVAL", "-1s")
	_, err = Load(path, nil)
	assert.Error(t, err)
}
