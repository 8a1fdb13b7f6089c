package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sufyan2618/project-management/internal/notify"
	"github.com/sufyan2618/project-management/pkg/types"
)

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
}

// printNotifications writes the success and info messages raised so far.
// Errors are left to the returned error.
func printNotifications(out io.Writer, feed *notify.Feed) {
	for _, n := range feed.Active() {
		if n.Level != notify.Error {
			fmt.Fprintln(out, n.Message)
		}
	}
}

func printProjects(out io.Writer, projects []types.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(out, "No projects found.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTITLE\tTASKS\tCREATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", p.ID, p.Title, p.TaskCount, p.CreatedAt.Display())
	}
	w.Flush()
}

func printTasks(out io.Writer, tasks []types.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}
	w := newTable(out)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tDUE\tPROJECT\tASSIGNEE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil && !t.DueDate.IsZero() {
			due = t.DueDate.Display()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\n", t.ID, t.Title, t.Status.Label(), due, t.ProjectID, t.AssignedTo)
	}
	w.Flush()
}

func printTask(out io.Writer, t *types.Task) {
	fmt.Fprintf(out, "#%d %s\n", t.ID, t.Title)
	fmt.Fprintf(out, "  Status:   %s\n", t.Status.Label())
	if t.Description != "" {
		fmt.Fprintf(out, "  About:    %s\n", t.Description)
	}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		fmt.Fprintf(out, "  Due:      %s\n", t.DueDate.Display())
	}
	fmt.Fprintf(out, "  Project:  %d\n", t.ProjectID)
	fmt.Fprintf(out, "  Assignee: %d\n", t.AssignedTo)
}

func printColumns(out io.Writer, cols map[types.Status][]types.Task) {
	for _, s := range types.Statuses {
		tasks := cols[s]
		fmt.Fprintf(out, "%s (%d)\n", s.Label(), len(tasks))
		fmt.Fprintln(out, strings.Repeat("-", len(s.Label())+4))
		for i, t := range tasks {
			fmt.Fprintf(out, "  %d. #%d %s\n", i, t.ID, t.Title)
		}
		fmt.Fprintln(out)
	}
}
