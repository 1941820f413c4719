package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/knivier/kinera/internal/session"
	"github.com/knivier/kinera/pkg/daemon"
	"github.com/knivier/kinera/pkg/paths"
	"github.com/knivier/kinera/tui/theme"
	"github.com/spf13/cobra"
)

// NewSessionCmd returns the session lifecycle commands.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Control the CV session",
		Long:  "Start, stop, and inspect the CV pipeline session managed by the daemon.",
	}

	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionStopCmd())
	cmd.AddCommand(newSessionStatusCmd())

	return cmd
}

func newSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the CV session",
		Long: `Ask the daemon to launch the CV pipeline. Starting an already
running session is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := daemon.NewClient(paths.SocketPath())
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			status, err := client.StartSession(ctx)
			if err != nil {
				return err
			}
			return printSessionStatus(cmd, status)
		},
	}
}

func newSessionStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the CV session",
		Long:  "Ask the daemon to kill the CV pipeline and its session scripts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := daemon.NewClient(paths.SocketPath())
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			status, err := client.StopSession(ctx)
			if err != nil {
				return err
			}
			return printSessionStatus(cmd, status)
		},
	}
}

func newSessionStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := daemon.NewClient(paths.SocketPath())
			defer client.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			status, err := client.SessionStatus(ctx)
			if err != nil {
				return err
			}
			return printSessionStatus(cmd, status)
		},
	}
}

func printSessionStatus(cmd *cobra.Command, status session.Status) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(status)
	}

	if !status.Active {
		fmt.Println(theme.Status("off", "Session inactive"))
		return nil
	}

	fmt.Println(theme.Status("running", "Session active"))
	fmt.Printf("  PID:        %d\n", status.PID)
	if !status.PIDAlive {
		// Handle still held but the pipeline process is gone.
		fmt.Printf("  State:      %s\n", theme.Status("warn", "process exited (run 'kinera session stop' to clear)"))
	}
	fmt.Printf("  Auxiliary:  %d\n", status.AuxCount)
	if !status.StartedAt.IsZero() {
		fmt.Printf("  Started:    %s\n", status.StartedAt.Format(time.RFC3339))
	}
	return nil
}
