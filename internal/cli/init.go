package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .tdiconfig.yaml",
	Long: `Write a .tdiconfig.yaml with every setting at its default value into the
working directory. An existing file is kept unless --force is given.

The API token is never written; set TODOIST_API_TOKEN or a .env file instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ConfigMgr == nil {
			return fmt.Errorf("configuration manager not initialized")
		}
		path, err := ConfigMgr.SaveConfig(core.DefaultConfig(), initForce)
		if err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing configuration file")
	rootCmd.AddCommand(initCmd)
}
