package main

import (
	"os"

	"github.com/knivier/kinera/cli"
	"github.com/knivier/kinera/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"kinera",
		"Bridge between the CV workout pipeline and its front ends",
	)

	rootCmd.AddCommand(cmd.NewDaemonCmd())
	rootCmd.AddCommand(cmd.NewSessionCmd())
	rootCmd.AddCommand(cmd.NewRepsCmd())
	rootCmd.AddCommand(cmd.NewMetricsCmd())
	rootCmd.AddCommand(cmd.NewWorkoutCmd())
	rootCmd.AddCommand(cmd.NewLiveCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cmd.NewVersionCmd())

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	cli.ApplyStyledHelpRecursive(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(verbose).Handle(err)
		os.Exit(1)
	}
}
