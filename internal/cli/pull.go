package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/internal/integration"
)

var pullToken string

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull all data from Todoist into the local snapshot",
	Long: `Fetch projects, sections, tasks, labels, and the comments of every project
and task, validate every record, assemble the project hierarchy, and overwrite
the local snapshot file.

A failed comment fetch is reported and skipped. Any other failure, including
a single invalid record, aborts the pull and leaves the snapshot untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := resolveToken(pullToken)
		if err != nil {
			return err
		}
		if Reconciler == nil || Snapshots == nil {
			return fmt.Errorf("sync services not initialized")
		}

		out := cmd.OutOrStdout()
		core.LogEvent(Events, core.LevelInfo, "pull.started", nil)

		raw, err := integration.NewPuller(NewAPIClient(token), out, Events).Pull(commandContext(cmd))
		if err != nil {
			return fmt.Errorf("pulling data: %w", err)
		}

		fmt.Fprintln(out, "Processing data...")
		snap, err := Reconciler.Reconcile(raw)
		if err != nil {
			reportValidationFailure(cmd, "pull", err)
			return fmt.Errorf("pulling data: %w", err)
		}

		fmt.Fprintln(out, "Saving data to file...")
		if err := Snapshots.Write(snap); err != nil {
			return fmt.Errorf("pulling data: %w", err)
		}

		core.LogEvent(Events, core.LevelInfo, "pull.completed", countsData(snap))
		fmt.Fprintln(out, successStyle.Render("Data pulled successfully"))
		printCounts(out, snap)
		return nil
	},
}

func init() {
	pullCmd.Flags().StringVar(&pullToken, "api-token", "", "Todoist API token (defaults to $TODOIST_API_TOKEN)")
	rootCmd.AddCommand(pullCmd)
}
