package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todoist-interlingua/internal/core"
	"github.com/valter-silva-au/todoist-interlingua/internal/observability"
)

var (
	logTypes   []string
	logLevel   string
	logSince   time.Duration
	logLimit   int
	logLastRun bool
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recorded sync events",
	Long: `Print entries of the sync journal, oldest first: pulls started and
completed, skipped comment fetches, pushed and rejected entities, and failed
validations.

Use --last-run to see only the most recent tdi run that recorded anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Journal == nil {
			return fmt.Errorf("event journal not initialized")
		}

		q := observability.Query{Types: logTypes, Level: strings.ToUpper(logLevel), Limit: logLimit}
		if logSince > 0 {
			q.Since = time.Now().UTC().Add(-logSince)
		}
		if logLastRun {
			run, err := Journal.LastRun()
			if err != nil {
				return fmt.Errorf("reading events: %w", err)
			}
			if run == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No events recorded")
				return nil
			}
			q.Run = run
		}

		entries, err := Journal.Entries(q)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No events recorded")
			return nil
		}
		for _, e := range entries {
			printEntry(out, e)
		}
		return nil
	},
}

func init() {
	logCmd.Flags().StringSliceVar(&logTypes, "type", nil, "Only show events of these types (repeatable)")
	logCmd.Flags().StringVar(&logLevel, "level", "", "Only show events of this level (INFO, WARN, ERROR)")
	logCmd.Flags().DurationVar(&logSince, "since", 0, "Only show events newer than this, e.g. 24h")
	logCmd.Flags().IntVar(&logLimit, "limit", 50, "Show at most this many of the newest events (0 for all)")
	logCmd.Flags().BoolVar(&logLastRun, "last-run", false, "Only show events of the most recent run")
	rootCmd.AddCommand(logCmd)
}

func levelStyle(level string) lipgloss.Style {
	switch level {
	case core.LevelError:
		return failStyle
	case core.LevelWarn:
		return warnStyle
	}
	return countStyle
}

// printEntry writes one entry as "time LEVEL type key=value...", with data
// keys sorted.
func printEntry(w io.Writer, e observability.Entry) {
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Data[k])
	}
	pad := ""
	if n := 5 - len(e.Level); n > 0 {
		pad = strings.Repeat(" ", n)
	}
	fmt.Fprintf(w, "%s %s%s %s%s\n",
		e.Time.UTC().Format(time.RFC3339),
		levelStyle(e.Level).Render(e.Level), pad,
		e.Type,
		b.String())
}
