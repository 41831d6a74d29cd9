package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the local snapshot",
	Long: `Read the local snapshot file and check every record against the same
rules pull applies, then rebuild the project hierarchy. No API token is needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Reconciler == nil || Snapshots == nil {
			return fmt.Errorf("sync services not initialized")
		}

		raw, err := Snapshots.Read()
		if err != nil {
			return fmt.Errorf("validating data: %w", err)
		}
		snap, err := Reconciler.Revalidate(raw)
		if err != nil {
			reportValidationFailure(cmd, "validate", err)
			return fmt.Errorf("validating data: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, successStyle.Render("Data is valid!"))
		printCounts(out, snap)
		printLastPull(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// reportValidationFailure prints the violations of a schema validation error
// as JSON and records a validate.failed event. Other errors are left to the
// caller.
func reportValidationFailure(cmd *cobra.Command, operation string, err error) {
	var verr *core.SchemaValidationError
	if !errors.As(err, &verr) {
		return
	}

	core.LogEvent(Events, core.LevelError, "validate.failed", map[string]any{
		"operation":  operation,
		"kind":       string(verr.Kind),
		"index":      verr.Index,
		"violations": len(verr.Violations),
	})

	w := cmd.ErrOrStderr()
	fmt.Fprintln(w, failStyle.Render("Validation failed!"))
	data, mErr := json.MarshalIndent(verr.Violations, "", "  ")
	if mErr != nil {
		return
	}
	fmt.Fprintln(w, string(data))
}

// printLastPull reports when the journal last saw a completed pull.
func printLastPull(w io.Writer) {
	if Journal == nil {
		return
	}
	last, err := Journal.Last("pull.completed")
	if err != nil || last == nil {
		return
	}
	fmt.Fprintln(w, countStyle.Render("  Last pull: "+last.Time.UTC().Format(time.RFC3339)))
}
