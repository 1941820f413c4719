package cmd

import (
	"fmt"
	"os"

	"github.com/knivier/kinera/pkg/paths"
	"github.com/knivier/kinera/schema"
	"github.com/knivier/kinera/tui/theme"
	"github.com/spf13/cobra"
)

// NewConfigCmd returns the configuration tooling command.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate kinera configuration",
	}
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [path]",
		Short: "Validate session_config.json against its schema",
		Long: `Strictly check a session config file. The session loader itself
tolerates a missing or malformed file (a session with no auxiliary scripts
is normal), so this command is how a typo gets caught before it silently
drops your scripts.

Defaults to session_config.json in the session root.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := paths.SessionConfigPath()
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Printf("%s %s does not exist (treated as empty at runtime)\n",
					theme.Status("warn", "!"), path)
				return nil
			}

			v, err := schema.NewValidator()
			if err != nil {
				return err
			}

			if err := v.ValidateFile(path); err != nil {
				fmt.Printf("%s %s\n", theme.Status("error", "✗"), err)
				os.Exit(1)
			}

			fmt.Printf("%s %s is valid\n", theme.Status("ok", "✓"), path)
			return nil
		},
	}
}
