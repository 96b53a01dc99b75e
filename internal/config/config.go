package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keyDataDir              = "data_dir"
	keyDatabaseName         = "database_name"
	keySettingsFile         = "settings_file"
	keyDestructiveMigration = "destructive_migration"
	keyLogLevel             = "log_level"
	keyLogFormat            = "log_format"
	keyRefreshInterval      = "refresh_interval"

	envPrefix = "WILLARD"
)

// Config holds the resolved settings for one run.
type Config struct {
	DataDir              string
	DatabaseName         string
	SettingsFile         string
	DestructiveMigration bool
	LogLevel             string
	LogFormat            string

	// RefreshInterval is how often live views look for changes made by
	// other willard processes. Zero turns it off.
	RefreshInterval time.Duration

	// File is the config file that was read or created.
	File string
}

// DefaultPath returns $XDG_CONFIG_HOME/willard/config.yaml, falling back
// to the platform config directory.
func DefaultPath() (string, error) {
	dir, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "willard", "config.yaml"), nil
}

// DefaultDataDir is where the database and settings live unless configured.
func DefaultDataDir() (string, error) {
	dir, err := configHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "willard"), nil
}

func configHome() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return home, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting user home directory: %w", err)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(homeDir, "AppData", "Roaming"), nil
	}
	return filepath.Join(homeDir, ".config"), nil
}

// Load reads the YAML config at path, writing one with default values when
// it does not exist. WILLARD_* environment variables override the file and
// flags, when given, override both. An empty path means DefaultPath.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	dataDir, err := DefaultDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault(keyDataDir, dataDir)
	v.SetDefault(keyDatabaseName, "willard.db")
	v.SetDefault(keySettingsFile, "settings.yaml")
	v.SetDefault(keyDestructiveMigration, false)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyRefreshInterval, "1s")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("error creating config directory: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("error creating config file: %w", err)
		}
	}

	// Environment and flags apply after the file is written so they never
	// end up persisted.
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range map[string]string{
			keyDataDir:  "data-dir",
			keyLogLevel: "log-level",
		} {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	cfg := &Config{
		DataDir:              v.GetString(keyDataDir),
		DatabaseName:         v.GetString(keyDatabaseName),
		SettingsFile:         v.GetString(keySettingsFile),
		DestructiveMigration: v.GetBool(keyDestructiveMigration),
		LogLevel:             v.GetString(keyLogLevel),
		LogFormat:            v.GetString(keyLogFormat),
		RefreshInterval:      v.GetDuration(keyRefreshInterval),
		File:                 path,
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data_dir must not be empty")
	}
	if strings.TrimSpace(c.DatabaseName) == "" {
		return errors.New("config: database_name must not be empty")
	}
	if strings.TrimSpace(c.SettingsFile) == "" {
		return errors.New("config: settings_file must not be empty")
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("config: refresh_interval must not be negative, got %s", c.RefreshInterval)
	}
	return nil
}

// DatabasePath is the SQLite file location.
func (c *Config) DatabasePath() string {
	return c.resolve(c.DatabaseName)
}

// SettingsPath is the preferences file location.
func (c *Config) SettingsPath() string {
	return c.resolve(c.SettingsFile)
}

// LogPath is where the board writes its log.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "willard.log")
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}
