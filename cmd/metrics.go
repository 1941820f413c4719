package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/knivier/kinera/internal/statefiles"
	"github.com/knivier/kinera/pkg/daemon"
	"github.com/knivier/kinera/pkg/paths"
	"github.com/knivier/kinera/tui/theme"
	"github.com/spf13/cobra"
)

// NewMetricsCmd returns the live metrics command.
func NewMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Show the latest live metrics snapshot",
		Long: `Print the live metrics object the CV pipeline last wrote. The
snapshot is best-effort: a missing or half-written file reports no metrics
rather than an error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var metrics json.RawMessage

			client := daemon.NewClient(paths.SocketPath())
			defer client.Close()
			if client.IsRunning() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				var err error
				metrics, err = client.LiveMetrics(ctx)
				if err != nil {
					return err
				}
			} else {
				metrics = statefiles.ReadLiveMetrics(paths.LiveMetricsPath())
			}

			if metrics == nil {
				fmt.Println(theme.DefaultTheme.Muted.Render("No live metrics available"))
				return nil
			}

			var pretty map[string]interface{}
			if err := json.Unmarshal(metrics, &pretty); err == nil {
				out, _ := json.MarshalIndent(pretty, "", "  ")
				fmt.Println(string(out))
				return nil
			}
			fmt.Println(string(metrics))
			return nil
		},
	}
}
