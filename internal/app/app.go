package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/willard/internal/config"
	"github.com/sadopc/willard/internal/progress"
	"github.com/sadopc/willard/internal/settings"
	"github.com/sadopc/willard/internal/store"
)

// App holds the storage handle, the preferences and the services built on
// them. It is created once at startup and passed to whoever needs it.
type App struct {
	cfg      *config.Config
	log      logrus.FieldLogger
	settings settings.Repository
	memory   bool

	// ownsSettings is set when New loaded the preferences itself. Injected
	// repositories stay open for their owner.
	ownsSettings bool

	// mu guards opening and closing the database.
	mu       sync.Mutex
	store    *store.Store
	progress *progress.Service
	closed   bool
}

// New creates the application container. Preferences are loaded right
// away; the database is opened on first use.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	c := &appConfig{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}

	prefs := c.settings
	owns := prefs == nil
	if owns {
		fileStore, err := settings.Open(cfg.SettingsPath(), c.logger)
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		prefs = fileStore
	}

	return &App{
		cfg:      cfg,
		log:      c.logger,
		settings: prefs,
		memory:   c.memory,

		ownsSettings: owns,
	}, nil
}

// Store returns the database gateway, opening it on the first call. Later
// calls return the same handle.
func (a *App) Store(ctx context.Context) (*store.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, errors.New("app closed")
	}
	if a.store != nil {
		return a.store, nil
	}

	opts := store.Options{
		Path:                 a.cfg.DatabasePath(),
		DestructiveMigration: a.cfg.DestructiveMigration,
		RefreshInterval:      a.cfg.RefreshInterval,
		Logger:               a.log,
	}
	if a.memory {
		opts.Path = ":memory:"
	}
	s, err := store.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.progress = progress.NewService(s, s.DailyProgress(), a.settings, a.log)
	return s, nil
}

// Progress returns the completion service.
func (a *App) Progress(ctx context.Context) (*progress.Service, error) {
	if _, err := a.Store(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.progress, nil
}

// Settings returns the preference repository.
func (a *App) Settings() settings.Repository {
	return a.settings
}

// Config returns the configuration the app was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() logrus.FieldLogger {
	return a.log
}

// Close releases the database and, when New loaded them, the preferences.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if c, ok := a.settings.(io.Closer); ok && a.ownsSettings {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
