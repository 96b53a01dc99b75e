package app

import (
	"github.com/sirupsen/logrus"

	"github.com/sadopc/willard/internal/settings"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	logger   logrus.FieldLogger
	settings settings.Repository
	memory   bool
}

// WithLogger sets the logger for the application
func WithLogger(logger logrus.FieldLogger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}

// WithSettings replaces the file-backed preferences, typically with
// settings.NewMemory in tests.
func WithSettings(repo settings.Repository) Option {
	return func(cfg *appConfig) {
		cfg.settings = repo
	}
}

// WithMemoryStore keeps the database in memory instead of the configured file.
func WithMemoryStore() Option {
	return func(cfg *appConfig) {
		cfg.memory = true
	}
}
