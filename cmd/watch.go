package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/grovetools/launchsync/cli"
	"github.com/grovetools/launchsync/internal/pidfile"
	"github.com/grovetools/launchsync/internal/server"
	"github.com/grovetools/launchsync/pkg/fileservice"
	"github.com/grovetools/launchsync/pkg/host"
	"github.com/grovetools/launchsync/pkg/launch"
	"github.com/grovetools/launchsync/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewWatchCmd runs a sync session in the foreground.
func NewWatchCmd() *cobra.Command {
	var serve bool
	var socket string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep launch models in sync with the current sketch's launch.json",
		Long: `Run a sync session in the foreground.

The session reconciles one launch model per workspace root, re-reads
launch.json whenever it changes on disk and follows 'launchsync project set'
from other terminals. With --serve the models are also exposed on a unix
socket.`,
		Example: `  # Watch the current directory as the only workspace root
  launchsync watch

  # Serve the API on the default socket
  launchsync watch --serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			pidPath := paths.PidFilePath()
			guard, err := pidfile.Acquire(pidPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := guard.Release(); err != nil {
					a.logger.WithError(err).Error("Failed to release pidfile")
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go a.files.Run(ctx)

			m := a.manager()
			defer m.Close()

			m.OnDidChangeCurrentModel(func() {
				a.logger.WithField("models", len(m.Models())).Info("Launch models changed")
			})
			m.OnTempContentDidChange(func(c launch.Content) {
				a.logger.WithFields(logrus.Fields{
					"path":           c.Path,
					"configurations": len(c.Configurations),
				}).Info("launch.json changed")
			})

			// Follow project switches made by other launchsync invocations
			statePath := a.projects.StatePath()
			if err := os.MkdirAll(filepath.Dir(statePath), 0755); err != nil {
				return err
			}
			unwatch, err := a.files.Watch(filepath.Dir(statePath))
			if err != nil {
				return err
			}
			defer unwatch()
			defer a.files.OnDidFilesChange(func(batch fileservice.ChangeBatch) {
				for _, c := range batch.Changes {
					if c.Path != filepath.Clean(statePath) {
						continue
					}
					if _, err := a.projects.Reload(); err != nil {
						a.logger.WithError(err).Warn("Failed to reload current project")
					}
					return
				}
			})()

			var srv *server.Server
			errCh := make(chan error, 1)
			if serve {
				srv = server.New(m, a.logger.WithField("part", "server"))
				go func() { errCh <- srv.ListenAndServe(socket) }()
			}

			a.lifecycle.Reach(host.Ready)
			if err := m.Start(ctx); err != nil {
				return err
			}
			a.logger.WithField("pid", os.Getpid()).Info("Watching launch configuration")

			select {
			case <-ctx.Done():
				a.logger.Info("Received stop signal")
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
			}

			a.lifecycle.Reach(host.Closing)
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.logger.WithError(err).Error("Server shutdown error")
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&serve, "serve", false, "Expose models over a unix socket")
	cmd.Flags().StringVar(&socket, "socket", paths.SocketPath(), "Socket path for --serve")
	return cmd
}

// NewStatusCmd reports whether a watch session is running.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether a watch session is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			running, pid, err := pidfile.IsRunning(paths.PidFilePath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cli.GetOptions(cmd).JSONOutput {
				return writeJSON(out, map[string]any{"running": running, "pid": pid, "socket": paths.SocketPath()})
			}
			if running {
				fmt.Fprintf(out, "Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())
				return nil
			}
			fmt.Fprintln(out, "Stopped")
			return nil
		},
	}
}
