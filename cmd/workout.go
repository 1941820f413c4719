package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/knivier/kinera/command"
	"github.com/knivier/kinera/internal/statefiles"
	"github.com/knivier/kinera/pkg/daemon"
	"github.com/knivier/kinera/pkg/paths"
	"github.com/knivier/kinera/tui/theme"
	"github.com/spf13/cobra"
)

// NewWorkoutCmd returns the workout selection command.
func NewWorkoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Select the workout the CV pipeline should track",
	}
	cmd.AddCommand(newWorkoutSetCmd())
	return cmd
}

func newWorkoutSetCmd() *cobra.Command {
	var sessionFlag string

	cmd := &cobra.Command{
		Use:   "set <workout-id>",
		Short: "Write the workout id and session flag",
		Long: `Write workout_id.json, the command channel the CV pipeline polls.
The session flag is normalized: anything other than "on" (case-insensitive)
is written as "off".`,
		Example: `  # Select the squat workout and turn the session on
  kinera workout set squat-01 --session on

  # Park the pipeline
  kinera workout set squat-01 --session off`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workoutID := args[0]
			if err := command.ValidateWorkoutID(workoutID); err != nil {
				return err
			}

			var record statefiles.WorkoutIDRecord

			// Route through the daemon when it is up so its log carries the
			// change; otherwise write the file directly.
			client := daemon.NewClient(paths.SocketPath())
			defer client.Close()
			if client.IsRunning() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				var err error
				record, err = client.SetWorkout(ctx, workoutID, sessionFlag)
				if err != nil {
					return err
				}
			} else {
				if err := statefiles.WriteWorkoutID(paths.WorkoutIDPath(), workoutID, sessionFlag); err != nil {
					return err
				}
				record = statefiles.WorkoutIDRecord{
					WorkoutID: workoutID,
					Session:   statefiles.NormalizeSessionFlag(sessionFlag),
				}
			}

			fmt.Printf("Workout %s, session %s\n",
				theme.DefaultTheme.Bold.Render(record.WorkoutID),
				theme.Status(record.Session, record.Session))
			return nil
		},
	}

	cmd.Flags().StringVar(&sessionFlag, "session", "off", "Session flag: on or off")
	return cmd
}
