// Package settings keeps the user preferences and exposes each of them as a
// live stream.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sadopc/willard/internal/observe"
)

// DefaultTimerMinutes is the timer length until the user picks another.
const DefaultTimerMinutes = 25

// ErrInvalidArgument is returned when a value is rejected before any write.
var ErrInvalidArgument = errors.New("invalid argument")

// Snapshot is the full set of preferences at one point in time.
type Snapshot struct {
	FirstLaunch         bool `yaml:"first_launch"`
	TutorialSeen        bool `yaml:"tutorial_seen"`
	DefaultTimerMinutes int  `yaml:"default_timer_minutes"`
}

// Defaults returns the preferences of a fresh install.
func Defaults() Snapshot {
	return Snapshot{
		FirstLaunch:         true,
		TutorialSeen:        false,
		DefaultTimerMinutes: DefaultTimerMinutes,
	}
}

// Repository is the preference surface used by the rest of the program.
// Each stream yields the current value first and then every later write,
// until ctx is cancelled.
type Repository interface {
	IsFirstLaunch(ctx context.Context) <-chan bool
	HasSeenTutorial(ctx context.Context) <-chan bool
	DefaultTimerMinutes(ctx context.Context) <-chan int

	SetFirstLaunchCompleted(ctx context.Context) error
	SetTutorialSeen(ctx context.Context) error
	SaveDefaultTimerMinutes(ctx context.Context, minutes int) error

	Snapshot() Snapshot
	Reset(ctx context.Context) error
}

// persistFunc makes a snapshot durable. A nil persistFunc keeps values in
// memory only.
type persistFunc func(Snapshot) error

// Store implements Repository. Writes are serialised, persisted, and only
// then published, so a subscriber never sees a value that could be lost.
type Store struct {
	mu      sync.Mutex
	current Snapshot
	persist persistFunc
	log     logrus.FieldLogger

	firstLaunch  *observe.Subject[bool]
	tutorialSeen *observe.Subject[bool]
	timerMinutes *observe.Subject[int]
}

var _ Repository = (*Store)(nil)

func newStore(initial Snapshot, persist persistFunc, logger logrus.FieldLogger) *Store {
	if logger == nil {
		logger = discardLogger()
	}
	return &Store{
		current:      initial,
		persist:      persist,
		log:          logger,
		firstLaunch:  observe.NewSubject(initial.FirstLaunch),
		tutorialSeen: observe.NewSubject(initial.TutorialSeen),
		timerMinutes: observe.NewSubject(initial.DefaultTimerMinutes),
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewMemory returns a Store that behaves like a file-backed one except that
// nothing survives the process.
func NewMemory() *Store {
	return newStore(Defaults(), nil, nil)
}

func (s *Store) IsFirstLaunch(ctx context.Context) <-chan bool {
	return s.firstLaunch.Subscribe(ctx)
}

func (s *Store) HasSeenTutorial(ctx context.Context) <-chan bool {
	return s.tutorialSeen.Subscribe(ctx)
}

func (s *Store) DefaultTimerMinutes(ctx context.Context) <-chan int {
	return s.timerMinutes.Subscribe(ctx)
}

// SetFirstLaunchCompleted turns the first-launch flag off for good.
func (s *Store) SetFirstLaunchCompleted(ctx context.Context) error {
	return s.write(ctx, "first_launch", func(snap *Snapshot) {
		snap.FirstLaunch = false
	}, func(snap Snapshot) {
		s.firstLaunch.Publish(snap.FirstLaunch)
	})
}

// SetTutorialSeen marks the tutorial as seen.
func (s *Store) SetTutorialSeen(ctx context.Context) error {
	return s.write(ctx, "tutorial_seen", func(snap *Snapshot) {
		snap.TutorialSeen = true
	}, func(snap Snapshot) {
		s.tutorialSeen.Publish(snap.TutorialSeen)
	})
}

// SaveDefaultTimerMinutes stores a new timer length. Values below one are
// rejected and leave the stored value untouched.
func (s *Store) SaveDefaultTimerMinutes(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("default timer minutes must be positive, got %d: %w", minutes, ErrInvalidArgument)
	}
	return s.write(ctx, "default_timer_minutes", func(snap *Snapshot) {
		snap.DefaultTimerMinutes = minutes
	}, func(snap Snapshot) {
		s.timerMinutes.Publish(snap.DefaultTimerMinutes)
	})
}

// Snapshot returns the current preferences.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Reset restores every preference to its default.
func (s *Store) Reset(ctx context.Context) error {
	return s.write(ctx, "all", func(snap *Snapshot) {
		*snap = Defaults()
	}, func(snap Snapshot) {
		s.firstLaunch.Publish(snap.FirstLaunch)
		s.tutorialSeen.Publish(snap.TutorialSeen)
		s.timerMinutes.Publish(snap.DefaultTimerMinutes)
	})
}

func (s *Store) write(ctx context.Context, key string, apply func(*Snapshot), publish func(Snapshot)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	apply(&next)
	if s.persist != nil {
		if err := s.persist(next); err != nil {
			return fmt.Errorf("save settings: %w", err)
		}
	}
	s.current = next
	publish(next)

	s.log.WithField("key", key).Debug("settings updated")
	return nil
}

// Close ends every open stream.
func (s *Store) Close() error {
	s.firstLaunch.Close()
	s.tutorialSeen.Close()
	s.timerMinutes.Close()
	return nil
}
