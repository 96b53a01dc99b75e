package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sadopc/willard/internal/app"
	"github.com/sadopc/willard/internal/config"
	"github.com/sadopc/willard/internal/logging"
	"github.com/sadopc/willard/internal/settings"
	"github.com/sadopc/willard/internal/store"
	"github.com/sadopc/willard/internal/tui"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitError      = 1
	ExitUsage      = 2
	ExitNotFound   = 3
	ExitValidation = 5
)

// runtime carries what every command needs once flags are parsed.
type runtime struct {
	configPath string
	dataDir    string
	logLevel   string

	app     *app.App
	logFile io.Closer

	// appOptions are appended when building the app; tests use them to
	// swap in fakes.
	appOptions []app.Option
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func newRoot() (*cobra.Command, *runtime) {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "willard",
		Short: "Track tasks, daily progress and completion history",
		Long: `willard keeps your tasks, what you finished each day and how long you
focused, in a local database. Run it without arguments for the live board.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), rt.app)
		},
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rt.setup(cmd, cmd == root)
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rt.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/willard/config.yaml)")
	pf.StringVar(&rt.dataDir, "data-dir", "", "directory holding the database and settings")
	pf.StringVar(&rt.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newTaskCmd(rt),
		newDoneCmd(rt),
		newReopenCmd(rt),
		newProgressCmd(rt),
		newHistoryCmd(rt),
		newSettingsCmd(rt),
		newExportCmd(rt),
		newResetCmd(rt),
		newWatchCmd(rt),
	)
	return root, rt
}

// setup loads config, builds the logger and the app. The board owns the
// terminal, so it logs to a file.
func (rt *runtime) setup(cmd *cobra.Command, board bool) error {
	cfg, err := config.Load(rt.configPath, cmd.Flags())
	if err != nil {
		return err
	}

	var out io.Writer = cmd.ErrOrStderr()
	if board {
		f, err := logging.OpenFile(cfg.LogPath())
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		rt.logFile = f
		out = f
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, out)
	if err != nil {
		return err
	}

	opts := append([]app.Option{app.WithLogger(logger)}, rt.appOptions...)
	a, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	rt.app = a
	logger.WithFields(logrus.Fields{
		"config":   cfg.File,
		"database": cfg.DatabasePath(),
	}).Debug("configuration loaded")
	return nil
}

func (rt *runtime) close() {
	if rt.app != nil {
		if err := rt.app.Close(); err != nil {
			rt.app.Logger().WithError(err).Warn("close app")
		}
	}
	if rt.logFile != nil {
		rt.logFile.Close()
	}
}

func (rt *runtime) store(ctx context.Context) (*store.Store, error) {
	return rt.app.Store(ctx)
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, rt := newRoot()
	err := root.ExecuteContext(ctx)
	rt.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		return ExitCode(err)
	}
	return ExitSuccess
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsage
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, store.ErrInvalidArgument),
		errors.Is(err, settings.ErrInvalidArgument),
		errors.Is(err, store.ErrAlreadyCompleted):
		return ExitValidation
	default:
		return ExitError
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid task ID %q", s)
	}
	return id, nil
}
