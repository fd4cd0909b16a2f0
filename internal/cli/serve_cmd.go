package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/robertguss/factorydesk/internal/api"
	"github.com/robertguss/factorydesk/internal/app"
	"github.com/robertguss/factorydesk/internal/messages"
	"github.com/robertguss/factorydesk/internal/progress"
	"github.com/robertguss/factorydesk/internal/storage"
	"github.com/robertguss/factorydesk/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *App) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST and WebSocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == 0 {
				port = a.Config.APIPort
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := a.startWatcher(func(path string) {
				a.Logger.Info("orders file changed", "path", path)
				a.Hub.Publish(progress.EventOrdersRefreshed, map[string]string{"path": path})
			})
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Stop()
			}

			srv := api.NewServer(a.Config, a.Store, a.Progress, a.Hub, a.Logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start(port)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.Logger.Info("shutting down api server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (defaults to api_port)")
	return cmd
}

func newWatchCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [ORDER_ID]",
		Short: "Open the interactive order board",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.IsInteractive() {
				return errors.New("watch needs an interactive terminal; use timeline for plain output")
			}

			var opts []app.Option
			if len(args) == 1 {
				opts = append(opts, app.WithInitialOrder(args[0]))
			}

			model := app.New(a.Config, a.Store, a.Progress, opts...)
			p := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)

			w, err := a.startWatcher(func(path string) {
				p.Send(messages.StoreChangedMsg{Path: path})
			})
			if err != nil {
				return err
			}
			if w != nil {
				defer w.Stop()
			}

			if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
				return fmt.Errorf("running board: %w", err)
			}
			return nil
		},
	}
}

// startWatcher watches the orders file when the json store is active and
// watching is enabled. It returns nil when there is nothing to watch.
func (a *App) startWatcher(onChange watcher.ChangeFunc) (*watcher.Watcher, error) {
	if !a.Config.WatchEnabled || a.Config.StoreDriver != storage.DriverJSON {
		return nil, nil
	}

	debounce := time.Duration(a.Config.WatchDebounce) * time.Millisecond
	w := watcher.WatchOrdersFile(a.Config.OrdersFile, debounce, onChange)
	w.OnError(func(err error) {
		a.Logger.Warn("orders file watcher error", "error", err)
	})
	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("watching orders file: %w", err)
	}
	if js, ok := a.Store.(*storage.JSONFileStorage); ok {
		js.OnWrite(w.MarkOwnWrite)
	}
	a.Logger.Debug("watching orders file", "path", a.Config.OrdersFile, "debounce", debounce)
	return w, nil
}
