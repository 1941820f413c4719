package cmd

import (
	"github.com/knivier/kinera/errors"
	"github.com/knivier/kinera/pkg/daemon"
	"github.com/knivier/kinera/pkg/paths"
	"github.com/knivier/kinera/tui/live"
	"github.com/spf13/cobra"
)

// NewLiveCmd returns the live dashboard command.
func NewLiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Live session dashboard",
		Long: `Full-screen dashboard showing the rep count, last-rep summary, and
live metrics for the running session, updating as the CV pipeline writes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := daemon.NewClient(paths.SocketPath())
			defer client.Close()

			if !client.IsRunning() {
				return errors.DaemonNotRunning(paths.SocketPath())
			}

			return live.Run(client)
		},
	}
}
