package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/hpcloud/tail"
	"github.com/knivier/kinera/internal/statefiles"
	"github.com/knivier/kinera/pkg/daemon"
	"github.com/knivier/kinera/pkg/paths"
	"github.com/knivier/kinera/tui/theme"
	"github.com/spf13/cobra"
)

// NewRepsCmd returns the rep counter command.
func NewRepsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "reps",
		Short: "Show the rep count for the current session",
		Long: `Read the rep log written by the CV pipeline and report the total
count, the timestamp of each rep, and the summary of the last one.

With --follow, tail the log and print entries as the pipeline appends them.`,
		Example: `  # One-shot count
  kinera reps

  # Stream new reps as they land
  kinera reps --follow`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if follow {
				return followReps(cmd)
			}
			return printReps(cmd)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Tail the rep log and print new entries")
	return cmd
}

// printReps prefers the daemon's view but reads the log directly when no
// daemon is running; the counting rules are identical either way.
func printReps(cmd *cobra.Command) error {
	var result statefiles.RepCountResult

	client := daemon.NewClient(paths.SocketPath())
	defer client.Close()
	if client.IsRunning() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var err error
		result, err = client.RepCount(ctx)
		if err != nil {
			return err
		}
	} else {
		result = statefiles.ReadRepCount(paths.RepsLogPath())
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	t := theme.DefaultTheme
	fmt.Printf("%s %s\n", t.Header.Render("Reps:"), t.Metric.Render(fmt.Sprintf("%d", result.Count)))
	if len(result.RepTimestamps) > 0 {
		last := result.RepTimestamps[len(result.RepTimestamps)-1]
		fmt.Printf("%s %s\n", t.Muted.Render("Last rep at:"),
			time.UnixMilli(int64(last)).Format(time.RFC3339))
	}
	if len(result.LastSummary) > 0 {
		fmt.Printf("%s %s\n", t.Muted.Render("Last summary:"), string(result.LastSummary))
	}
	return nil
}

func followReps(cmd *cobra.Command) error {
	logPath := paths.RepsLogPath()

	t, err := tail.TailFile(logPath, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", logPath, err)
	}
	defer t.Cleanup()

	fmt.Fprintf(os.Stderr, "Following %s (Ctrl-C to stop)\n", logPath)
	for line := range t.Lines {
		if line.Err != nil {
			return line.Err
		}
		text := strings.TrimSpace(line.Text)
		if text == "" {
			continue
		}
		fmt.Println(text)
	}
	return nil
}
