package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/pkg/types"
)

var tasksCmd = &cobra.Command{
	Use:     "tasks",
	Aliases: []string{"task"},
	Short:   "Browse and manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks (your own tasks unless you are an admin)",
	RunE:  runTasksList,
}

var tasksGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksGet,
}

var tasksCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task (admin)",
	RunE:  runTasksCreate,
}

var tasksUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksUpdate,
}

var tasksDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a task (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDelete,
}

func init() {
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksGetCmd)
	tasksCmd.AddCommand(tasksCreateCmd)
	tasksCmd.AddCommand(tasksUpdateCmd)
	tasksCmd.AddCommand(tasksDeleteCmd)

	tasksListCmd.Flags().String("status", "", "Filter by status (todo, in-progress, done)")
	tasksListCmd.Flags().String("search", "", "Filter by title")
	tasksListCmd.Flags().Int("project", 0, "Filter by project id")
	tasksListCmd.Flags().Int("assignee", 0, "Filter by assignee id (admin)")
	tasksListCmd.Flags().Int("page", 1, "Page number")
	tasksListCmd.Flags().Int("size", 10, "Page size")

	addTaskFlags(tasksCreateCmd)
	addTaskFlags(tasksUpdateCmd)
	tasksCreateCmd.MarkFlagRequired("title")
	tasksCreateCmd.MarkFlagRequired("project")
}

func addTaskFlags(c *cobra.Command) {
	c.Flags().String("title", "", "Task title")
	c.Flags().String("description", "", "Task description")
	c.Flags().String("status", "", "Status (todo, in-progress, done)")
	c.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	c.Flags().Int("assignee", 0, "Assignee user id")
	c.Flags().Int("project", 0, "Project id")
}

// taskInput builds an input from the flags the user actually set
func taskInput(cmd *cobra.Command) (types.TaskInput, error) {
	var in types.TaskInput
	flags := cmd.Flags()
	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		in.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		in.Description = &v
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		s := types.Status(v)
		if !s.Valid() {
			return in, fmt.Errorf("unknown status %q", v)
		}
		in.Status = &s
	}
	if flags.Changed("due") {
		v, _ := flags.GetString("due")
		if _, err := types.ParseTime(v); err != nil {
			return in, fmt.Errorf("invalid due date %q: %w", v, err)
		}
		in.DueDate = &v
	}
	if flags.Changed("assignee") {
		v, _ := flags.GetInt("assignee")
		in.AssignedTo = &v
	}
	if flags.Changed("project") {
		v, _ := flags.GetInt("project")
		in.ProjectID = &v
	}
	return in, nil
}

func runTasksList(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	status, _ := flags.GetString("status")
	search, _ := flags.GetString("search")
	project, _ := flags.GetInt("project")
	assignee, _ := flags.GetInt("assignee")
	page, _ := flags.GetInt("page")
	size, _ := flags.GetInt("size")

	if status != "" && !types.Status(status).Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		st := a.State()
		if !access.Can(st.Role(), access.AssignTasks) && st.User != nil {
			assignee = st.User.ID
		}
		a.UpdateTaskFilters(func(f *types.TaskFilters) {
			f.Status = types.Status(status)
			f.Search = search
			f.ProjectID = project
			f.AssignedTo = assignee
			f.Page = page
			f.Size = size
		})

		list, err := a.Tasks(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, list)
		}
		printTasks(out, list.Tasks)
		return nil
	})
}

func runTasksGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		t, err := a.Task(ctx, id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, t)
		}
		printTask(out, t)
		return nil
	})
}

func runTasksCreate(cmd *cobra.Command, args []string) error {
	in, err := taskInput(cmd)
	if err != nil {
		return err
	}
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		if err := requireCapability(a, access.AssignTasks); err != nil {
			return err
		}
		t, err := a.CreateTask(ctx, in)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, t)
		}
		printNotifications(out, a.Notify)
		fmt.Fprintf(out, "ID: %d\n", t.ID)
		return nil
	})
}

func runTasksUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	in, err := taskInput(cmd)
	if err != nil {
		return err
	}
	if in == (types.TaskInput{}) {
		return fmt.Errorf("nothing to update; pass at least one field flag")
	}
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		if err := requireCapability(a, access.ManageTasks); err != nil {
			return err
		}
		t, err := a.UpdateTask(ctx, id, in)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, t)
		}
		printNotifications(out, a.Notify)
		return nil
	})
}

func runTasksDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, access.DashboardPath, func(ctx context.Context, a *app.Context) error {
		if err := requireCapability(a, access.AssignTasks); err != nil {
			return err
		}
		if err := a.DeleteTask(ctx, id); err != nil {
			return err
		}
		printNotifications(cmd.OutOrStdout(), a.Notify)
		return nil
	})
}
