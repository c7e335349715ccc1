// Package cli defines the Cobra commands of the habit-garden CLI.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/habit-garden/internal/api"
	"github.com/justestif/habit-garden/internal/config"
	"github.com/justestif/habit-garden/internal/db"
	"github.com/justestif/habit-garden/internal/logger"
	"github.com/justestif/habit-garden/internal/session"
)

var version = "dev" // set via ldflags at build time

// ErrNotLoggedIn is returned by commands that need a session.
var ErrNotLoggedIn = errors.New("not logged in; run: habit-garden login")

// app holds the state shared by the commands of one invocation.
type app struct {
	cfgPath   string
	apiURL    string
	debug     bool
	ephemeral bool

	cfg     *config.Config
	log     *zap.Logger
	sess    *session.Manager
	closers []func()
	reader  *bufio.Reader
}

// Execute runs the CLI with the process arguments. Called from main.
func Execute() error {
	a := &app{}
	defer a.close()
	return a.rootCmd().Execute()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "habit-garden",
		Short: "Grow habits like plants, one day at a time",
		Long: `habit-garden is a client for the Smart Habit Garden API.
Log in, grow your habits every day and watch the heatmap fill up,
from the terminal or from the local web UI (habit-garden serve).`,
		Version:           version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.config/habit-garden/config.yaml)")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (overrides config and "+api.BaseURLEnv+")")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Log API requests at debug level")
	root.PersistentFlags().BoolVar(&a.ephemeral, "ephemeral", false, "Keep the session in memory only")

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.loginCmd())
	root.AddCommand(a.signupCmd())
	root.AddCommand(a.logoutCmd())
	root.AddCommand(a.whoamiCmd())
	root.AddCommand(a.forgotPasswordCmd())
	root.AddCommand(a.resetPasswordCmd())
	root.AddCommand(a.habitsCmd())
	root.AddCommand(a.insightsCmd())
	root.AddCommand(a.calendarCmd())
	root.AddCommand(a.configCmd())

	return root
}

// setup loads the config and builds the logger. The session is opened on
// first use so config commands work without storage.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	if a.debug {
		cfg.Log.Level = "debug"
	}
	if a.ephemeral {
		cfg.Storage.Backend = config.BackendMemory
	}
	a.cfg = cfg

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.log = log
	a.closers = append(a.closers, func() { _ = log.Sync() })
	return nil
}

// session opens the configured storage and restores the stored session.
func (a *app) session(ctx context.Context) (*session.Manager, error) {
	if a.sess != nil {
		return a.sess, nil
	}

	store, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}

	sess := session.New(store, a.cfg.APIConfig(), session.WithLogger(a.log.Named("session")))
	if err := sess.Rehydrate(ctx); err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	a.closers = append(a.closers, sess.Close)
	a.sess = sess
	return sess, nil
}

// authenticated returns the session, or ErrNotLoggedIn.
func (a *app) authenticated(ctx context.Context) (*session.Manager, error) {
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	return sess, nil
}

func (a *app) openStorage(ctx context.Context) (session.Storage, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendMemory:
		return session.NewMemoryStorage(), nil
	case config.BackendPostgres:
		database, err := db.New(ctx, a.cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, database.Close)
		if err := database.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		store := database.State(a.cfg.API.BaseURL)
		a.log.Debug("using postgres storage", zap.String("namespace", store.Namespace()))
		return store, nil
	default:
		path, err := a.cfg.StatePath()
		if err != nil {
			return nil, err
		}
		store := session.NewFileStorage(path)
		a.log.Debug("using file storage", zap.String("path", store.Path()))
		return store, nil
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// apiFailure turns an API error into a message for the terminal.
func apiFailure(action string, err error) error {
	switch {
	case errors.Is(err, api.ErrSessionExpired):
		return fmt.Errorf("%s: your session has expired, please log in again", action)
	case errors.Is(err, api.ErrTimeout):
		return fmt.Errorf("%s: the server took too long to respond: %w", action, err)
	case errors.Is(err, api.ErrNetwork):
		return fmt.Errorf("%s: could not reach the server: %w", action, err)
	}
	if detail := api.Detail(err); detail != "" {
		return fmt.Errorf("%s: %s", action, detail)
	}
	return fmt.Errorf("%s: %w", action, err)
}
