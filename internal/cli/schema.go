package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/internal/storage"
)

var schemaCmd = &cobra.Command{
	Use:   "generate-schema",
	Short: "Write the JSON Schema of the nested Project record",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filePath(currentConfig().Files.Schema)
		if err := storage.WriteSchema(path, core.ProjectSchema()); err != nil {
			return fmt.Errorf("generating schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Schema generated successfully"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
