package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/knivier/kinera/command"
	"github.com/knivier/kinera/config"
	"github.com/knivier/kinera/internal/bus"
	"github.com/knivier/kinera/internal/daemon/pidfile"
	"github.com/knivier/kinera/internal/daemon/server"
	"github.com/knivier/kinera/internal/session"
	"github.com/knivier/kinera/internal/watch"
	"github.com/knivier/kinera/logging"
	"github.com/knivier/kinera/pkg/paths"
	"github.com/spf13/cobra"
)

// NewDaemonCmd returns the kinerad daemon command with subcommands.
func NewDaemonCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Kinera session daemon",
		Long:  "Foreground daemon that owns the CV session, streams frames, and answers state queries over a unix socket.",
	}

	cmd.AddCommand(newDaemonStartCmd())
	cmd.AddCommand(newDaemonStopCmd())
	cmd.AddCommand(newDaemonStatusCmd())

	return cmd
}

func newDaemonStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start the kinera daemon in foreground mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("kinerad")
			pidPath := paths.PidFilePath()
			sockPath := paths.SocketPath()

			if err := pidfile.Acquire(pidPath); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidfile.Release(pidPath); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			cfg, err := config.LoadDefault()
			if err != nil {
				return err
			}
			daemonCfg, err := config.LoadDaemonConfig()
			if err != nil {
				logger.WithError(err).Warn("Malformed daemon.toml, using defaults")
			}

			root := paths.SessionRoot()
			b := bus.New(daemonCfg.StreamBuffer)
			sup := session.NewSupervisor(root, cfg.Session, b, &command.RealExecutor{}, logger)

			watcher, err := watch.New(b, paths.RepsLogPath(), paths.LiveMetricsPath(),
				daemonCfg.WatchDebounce(), logger)
			if err != nil {
				return fmt.Errorf("failed to watch state files: %w", err)
			}

			srv := server.New(logger, sup, b, server.Paths{
				WorkoutID:   paths.WorkoutIDPath(),
				RepsLog:     paths.RepsLogPath(),
				LiveMetrics: paths.LiveMetricsPath(),
			})
			srv.SetRunningConfig(daemonCfg, cfg.Session.Script)

			ctx, cancel := context.WithCancel(context.Background())
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-stop
				logger.Info("Received stop signal")
				cancel() // Stop the watcher

				// A live session does not outlive the daemon.
				sup.Stop()

				shutdownCtx, shutdownCancel := context.WithTimeout(
					context.Background(), daemonCfg.ShutdownTimeout())
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}

				// Explicitly release pidfile before exit in signal handler
				_ = pidfile.Release(pidPath)
				os.Exit(0)
			}()

			go watcher.Run(ctx)

			logger.WithField("pid", os.Getpid()).Info("Starting daemon")
			if err := srv.ListenAndServe(sockPath); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}

func newDaemonStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()

			running, pid, err := pidfile.IsRunning(pidPath)
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newDaemonStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidPath := paths.PidFilePath()
			running, pid, err := pidfile.IsRunning(pidPath)

			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if running {
				fmt.Printf("Running (PID: %d)\nSocket: %s\n", pid, paths.SocketPath())
			} else {
				fmt.Println("Stopped")
				os.Exit(1) // Return non-zero for stopped state (useful for scripts)
			}
			return nil
		},
	}
}
