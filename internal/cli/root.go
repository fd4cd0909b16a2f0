// Package cli wires the factorydesk commands to the order store and the
// progress service.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/robertguss/factorydesk/internal/api"
	"github.com/robertguss/factorydesk/internal/config"
	"github.com/robertguss/factorydesk/internal/logging"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/profile"
	"github.com/robertguss/factorydesk/internal/progress"
	"github.com/robertguss/factorydesk/internal/storage"
	"github.com/robertguss/factorydesk/internal/theme"
)

// Options are the global flags, applied on top of the loaded configuration
type Options struct {
	ConfigPath string
	Profile    string
	Store      string
	StorePath  string
	Language   string
	LogLevel   string
}

// App holds the wired dependencies shared by all commands. Commands run
// against a pre-wired App as is; otherwise the root command wires one from
// Options before the first command runs.
type App struct {
	Config   *config.Config
	Store    storage.Storage
	Progress *progress.Service
	Hub      *api.WebSocketHub
	Logger   *slog.Logger

	// IsInteractive reports whether stdin is a terminal
	IsInteractive func() bool
	Now           func() time.Time
	LogOutput     io.Writer

	opts      Options
	ownsStore bool
}

// Bootstrap loads configuration and opens the store
func (a *App) Bootstrap() error {
	cfg, err := config.Load(a.opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := a.applyProfile(cfg); err != nil {
		return err
	}
	if a.opts.Store != "" {
		cfg.StoreDriver = a.opts.Store
	}
	if a.opts.StorePath != "" {
		if cfg.StoreDriver == storage.DriverJSON {
			cfg.OrdersFile = a.opts.StorePath
		} else {
			cfg.DatabasePath = a.opts.StorePath
		}
	}
	if a.opts.Language != "" {
		cfg.Language = a.opts.Language
	}
	if a.opts.LogLevel != "" {
		cfg.LogLevel = a.opts.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := theme.SetTheme(cfg.Theme); err != nil {
		return fmt.Errorf("loading theme: %w", err)
	}

	out := a.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := logging.New(out, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.EnsureDataDir(); err != nil {
		return err
	}
	store, err := storage.Open(cfg.StoreDriver, cfg.StorePath())
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.StoreDriver, err)
	}

	a.Config = cfg
	a.Logger = logger
	a.Store = store
	a.ownsStore = true
	a.wire()
	return nil
}

// applyProfile overlays the --profile site profile, or the active one
func (a *App) applyProfile(cfg *config.Config) error {
	profiles := profile.NewProfileStore(cfg.DataDir)
	if err := profiles.Load(); err != nil {
		return err
	}
	p, err := profiles.Resolve(a.opts.Profile)
	if err != nil {
		return err
	}
	if p != nil {
		p.Apply(cfg)
	}
	return nil
}

// wire fills in anything a pre-wired App left empty
func (a *App) wire() {
	if a.Logger == nil {
		a.Logger = logging.Discard()
	}
	if a.Now == nil {
		a.Now = time.Now
	}
	if a.Hub == nil {
		a.Hub = api.NewWebSocketHub()
		a.Hub.SetLogger(a.Logger)
	}
	if a.Progress == nil {
		a.Progress = progress.NewService(a.Store,
			progress.WithClock(a.Now),
			progress.WithObserver(progress.NewLogUseCaseObserver(a.Logger)),
			progress.WithPublisher(a.Hub),
		)
	}
	if a.IsInteractive == nil {
		a.IsInteractive = func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		}
	}
}

// Close releases the store if this App opened it
func (a *App) Close() error {
	if a.ownsStore && a.Store != nil {
		a.ownsStore = false
		return a.Store.Close()
	}
	return nil
}

func (a *App) presenter() *presenter.Presenter {
	return presenter.New(a.Config.Language, presenter.WithNow(a.Now))
}

// NewRootCmd creates the top-level "factorydesk" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "factorydesk",
		Short:         "Track garment orders through the production line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Store != nil {
				if app.Config == nil {
					app.Config = config.New()
				}
				app.wire()
				return nil
			}
			return app.Bootstrap()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&app.opts.ConfigPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&app.opts.Profile, "profile", "", "Site profile to apply")
	flags.StringVar(&app.opts.Store, "store", "", "Store driver: sqlite or json")
	flags.StringVar(&app.opts.StorePath, "store-path", "", "Database or orders file path")
	flags.StringVar(&app.opts.Language, "lang", "", "Label language: en or ar")
	flags.StringVar(&app.opts.LogLevel, "log-level", "", "Log level: debug, info, warn or error")

	root.AddCommand(
		newStagesCmd(app),
		newOrdersCmd(app),
		newTimelineCmd(app),
		newAdvanceCmd(app),
		newRevertCmd(app),
		newNoteCmd(app),
		newExportCmd(app),
		newServeCmd(app),
		newWatchCmd(app),
		newCheckCmd(app),
		newProfilesCmd(app),
	)

	return root
}
