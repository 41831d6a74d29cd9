package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/todoist-interlingua/pkg/models"
)

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	countStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// printCounts writes one line per record kind, followed by a warning when
// records were left out of the hierarchy.
func printCounts(w io.Writer, snap *models.Snapshot) {
	c := snap.Counts()
	rows := []struct {
		name string
		n    int
	}{
		{"projects", c.Projects},
		{"sections", c.Sections},
		{"tasks", c.Tasks},
		{"labels", c.Labels},
		{"comments", c.Comments},
	}
	for _, r := range rows {
		fmt.Fprintln(w, countStyle.Render(fmt.Sprintf("  %-9s %d", r.name, r.n)))
	}
	if n, m := len(snap.UnattachedSections), len(snap.UnattachedTasks); n > 0 || m > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("  Warning: %d sections and %d tasks are not attached to any project", n, m)))
	}
}

// countsData flattens record counts into event log data.
func countsData(snap *models.Snapshot) map[string]any {
	c := snap.Counts()
	return map[string]any{
		"projects":            c.Projects,
		"sections":            c.Sections,
		"tasks":               c.Tasks,
		"labels":              c.Labels,
		"comments":            c.Comments,
		"unattached_sections": len(snap.UnattachedSections),
		"unattached_tasks":    len(snap.UnattachedTasks),
	}
}
