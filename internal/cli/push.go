package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/integration"
)

var (
	pushToken  string
	pushDryRun bool
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Replay the local snapshot against Todoist",
	Long: `Validate the local snapshot, then create every project, section, and task
in it anew through the API, in hierarchy order. Remote identifiers returned
for each created entity are used for its children.

When a create fails, its siblings are still sent but everything beneath it is
skipped. Labels and comments are not pushed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var client APIClient
		if !pushDryRun {
			token, err := resolveToken(pushToken)
			if err != nil {
				return err
			}
			client = NewAPIClient(token)
		}
		if Reconciler == nil || Snapshots == nil {
			return fmt.Errorf("sync services not initialized")
		}

		raw, err := Snapshots.Read()
		if err != nil {
			return fmt.Errorf("pushing data: %w", err)
		}
		snap, err := Reconciler.Revalidate(raw)
		if err != nil {
			reportValidationFailure(cmd, "push", err)
			return fmt.Errorf("pushing data: %w", err)
		}

		out := cmd.OutOrStdout()
		if n, m := len(snap.UnattachedSections), len(snap.UnattachedTasks); n > 0 || m > 0 {
			fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Skipping %d unattached sections and %d unattached tasks", n, m)))
		}

		var poster integration.Poster
		if client != nil {
			poster = client
		}
		pusher := integration.NewPusher(poster, out, Events, integration.WithDryRun(pushDryRun))
		report, err := pusher.Push(commandContext(cmd), snap.Projects)
		if report != nil {
			summary := fmt.Sprintf("%d created, %d failed, %d skipped", report.Created(), report.Failed(), report.Skipped())
			if report.DryRun {
				summary = fmt.Sprintf("Dry run: %d entities would be created", report.Created())
			}
			fmt.Fprintln(out, summary)
		}
		if err != nil {
			return fmt.Errorf("pushing data: %w", err)
		}

		if !pushDryRun {
			fmt.Fprintln(out, successStyle.Render("Data pushed successfully"))
		}
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVar(&pushToken, "api-token", "", "Todoist API token (defaults to $TODOIST_API_TOKEN)")
	pushCmd.Flags().BoolVar(&pushDryRun, "dry-run", false, "Print what would be created without sending anything")
	rootCmd.AddCommand(pushCmd)
}
