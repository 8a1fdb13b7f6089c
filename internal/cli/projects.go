package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/app"
	"github.com/sufyan2618/project-management/internal/kanban"
	"github.com/sufyan2618/project-management/pkg/types"
)

var projectsCmd = &cobra.Command{
	Use:     "projects",
	Aliases: []string{"project"},
	Short:   "Browse and manage projects",
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectsList,
}

var projectsGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show a project and its board",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsGet,
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project (admin)",
	RunE:  runProjectsCreate,
}

var projectsUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update a project (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsUpdate,
}

var projectsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a project (admin)",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectsDelete,
}

func init() {
	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsGetCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsUpdateCmd)
	projectsCmd.AddCommand(projectsDeleteCmd)

	projectsListCmd.Flags().String("search", "", "Filter by title")
	projectsListCmd.Flags().Int("page", 1, "Page number")
	projectsListCmd.Flags().Int("size", 10, "Page size")

	for _, c := range []*cobra.Command{projectsCreateCmd, projectsUpdateCmd} {
		c.Flags().String("title", "", "Project title")
		c.Flags().String("description", "", "Project description")
	}
	projectsCreateCmd.MarkFlagRequired("title")
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

// projectInput builds an input from the flags the user actually set
func projectInput(cmd *cobra.Command) types.ProjectInput {
	var in types.ProjectInput
	if cmd.Flags().Changed("title") {
		v, _ := cmd.Flags().GetString("title")
		in.Title = &v
	}
	if cmd.Flags().Changed("description") {
		v, _ := cmd.Flags().GetString("description")
		in.Description = &v
	}
	return in
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("size")

	return withApp(cmd, access.ProjectsPath, func(ctx context.Context, a *app.Context) error {
		a.UpdateProjectFilters(func(f *types.ProjectFilters) {
			f.Search = search
			f.Page = page
			f.Size = size
		})
		return listProjects(ctx, a, cmd.OutOrStdout())
	})
}

func listProjects(ctx context.Context, a *app.Context, out io.Writer) error {
	list, err := a.Projects(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(out, list)
	}
	printProjects(out, list.Projects)
	if list.TotalPages > 1 {
		fmt.Fprintf(out, "\nPage %d of %d (%d projects)\n", list.Page, list.TotalPages, list.Total)
	}
	return nil
}

func runProjectsGet(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, fmt.Sprintf("%s/%d", access.ProjectsPath, id), func(ctx context.Context, a *app.Context) error {
		detail, err := a.ProjectDetail(ctx, id)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, detail)
		}
		fmt.Fprintf(out, "#%d %s\n", detail.ID, detail.Title)
		if detail.Description != "" {
			fmt.Fprintf(out, "%s\n", detail.Description)
		}
		fmt.Fprintf(out, "Created %s\n\n", detail.CreatedAt.Display())
		printColumns(out, kanban.Group(detail.Tasks))
		return nil
	})
}

func runProjectsCreate(cmd *cobra.Command, args []string) error {
	in := projectInput(cmd)
	return withApp(cmd, access.ProjectsPath, func(ctx context.Context, a *app.Context) error {
		if err := requireCapability(a, access.ManageProjects); err != nil {
			return err
		}
		p, err := a.CreateProject(ctx, in)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, p)
		}
		printNotifications(out, a.Notify)
		fmt.Fprintf(out, "ID: %d\n", p.ID)
		return nil
	})
}

func runProjectsUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	in := projectInput(cmd)
	if in.Title == nil && in.Description == nil {
		return fmt.Errorf("nothing to update; pass --title or --description")
	}
	return withApp(cmd, access.ProjectsPath, func(ctx context.Context, a *app.Context) error {
		if err := requireCapability(a, access.ManageProjects); err != nil {
			return err
		}
		if _, err := a.UpdateProject(ctx, id, in); err != nil {
			return err
		}
		printNotifications(cmd.OutOrStdout(), a.Notify)
		return nil
	})
}

func runProjectsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, access.ProjectsPath, func(ctx context.Context, a *app.Context) error {
		if err := requireCapability(a, access.ManageProjects); err != nil {
			return err
		}
		if err := a.DeleteProject(ctx, id); err != nil {
			return err
		}
		printNotifications(cmd.OutOrStdout(), a.Notify)
		return nil
	})
}
