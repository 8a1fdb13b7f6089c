package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/pkg/types"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show your dashboard",
	RunE:  runDashboard,
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show the kanban board for a project or your tasks",
	RunE:  runBoard,
}

var moveCmd = &cobra.Command{
	Use:   "move [task-id] [status]",
	Short: "Move a task card to another column",
	Long: `Move a task card to another column (todo, in-progress, done).

The card is inserted at --index in the destination column. The status
change is sent to the server; on failure the error is printed and the
board is reloaded on the next view.`,
	Args: cobra.ExactArgs(2),
	RunE: runMove,
}

func init() {
	boardCmd.Flags().Int("project", 0, "Project id (default: your tasks)")
	moveCmd.Flags().Int("project", 0, "Project id (default: your tasks)")
	moveCmd.Flags().Int("index", 0, "Position in the destination column")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		return dashboard(ctx, a, cmd.OutOrStdout())
	})
}

func dashboard(ctx context.Context, a *app.Context, out io.Writer) error {
	d, err := a.Dashboard(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, d)
	}

	name := "there"
	if u := a.State().User; u != nil {
		name = u.DisplayName()
	}
	fmt.Fprintf(out, "Welcome back, %s!\n\n", name)

	switch {
	case d.Admin != nil:
		fmt.Fprintf(out, "Total Projects: %d\n", d.Admin.TotalProjects)
		fmt.Fprintf(out, "Total Tasks:    %d\n\n", d.Admin.TotalTasks)
		fmt.Fprintln(out, "Recent Projects")
		printProjects(out, d.Admin.RecentProjects)
	case d.User != nil:
		for _, s := range types.Statuses {
			fmt.Fprintf(out, "%-12s %d\n", s.Label()+":", d.User.Counts[s])
		}
		fmt.Fprintln(out, "\nMy Tasks")
		printTasks(out, d.User.Tasks)
	}
	return nil
}

func runBoard(cmd *cobra.Command, args []string) error {
	project, _ := cmd.Flags().GetInt("project")
	return withApp(cmd, boardPath(project), func(ctx context.Context, a *app.Context) error {
		r, err := a.Board(ctx, project)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, r.Board.Columns())
		}
		printColumns(out, r.Board.Columns())
		return nil
	})
}

func runMove(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	status := types.Status(args[1])
	if !status.Valid() {
		return fmt.Errorf("unknown status %q (want todo, in-progress or done)", args[1])
	}
	project, _ := cmd.Flags().GetInt("project")
	index, _ := cmd.Flags().GetInt("index")

	return withApp(cmd, boardPath(project), func(ctx context.Context, a *app.Context) error {
		move, err := a.MoveTask(ctx, project, id, status, index)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if move == nil {
			fmt.Fprintln(out, "Task is already there.")
			return nil
		}
		printNotifications(out, a.Notify)
		fmt.Fprintf(out, "#%d %s: %s -> %s\n", move.Task.ID, move.Task.Title, move.From.Column.Label(), move.To.Column.Label())
		return nil
	})
}

// boardPath is the view a board lives on: the project page, or My Tasks
func boardPath(project int) string {
	if project > 0 {
		return fmt.Sprintf("%s/%d", access.ProjectsPath, project)
	}
	return access.TasksPath
}
