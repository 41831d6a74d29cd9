package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "tdi",
	Short: "Todoist Interlingua - sync a Todoist account with a local snapshot",
	Long: `Todoist Interlingua (tdi) pulls every project, section, task, label, and
comment of a Todoist account, validates it against a strict schema, and keeps
it as a local snapshot file that can be validated again or pushed back.

The API token is read from --api-token, the TODOIST_API_TOKEN environment
variable (a .env file in the working directory is honoured), or the
api.token key of .tdiconfig.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return checkConfig(cmd)
	},
}

// configFree lists the commands that run with a broken configuration.
var configFree = map[string]bool{"init": true, "version": true, "help": true}

// checkConfig refuses to run cmd on a broken configuration unless cmd is
// able to work without one.
func checkConfig(cmd *cobra.Command) error {
	if ConfigErr == nil || configFree[cmd.Name()] {
		return nil
	}
	return fmt.Errorf("loading configuration: %w (run 'tdi init --force' to reset it)", ConfigErr)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tdi %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
