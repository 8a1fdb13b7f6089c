package app

import (
	"context"
	"fmt"

	"github.com/sufyan2618/project-management/internal/query"
	"github.com/sufyan2618/project-management/pkg/types"
)

// Dashboard page sizes
const (
	adminRecentProjects = 6
	userRecentTasks     = 10
	myTasksPageSize     = 20
)

// AdminDashboard summarizes the whole workspace
type AdminDashboard struct {
	RecentProjects []types.Project `json:"recent_projects"`
	TotalProjects  int             `json:"total_projects"`
	TotalTasks     int             `json:"total_tasks"`
}

// UserDashboard summarizes the signed-in user's tasks
type UserDashboard struct {
	Tasks  []types.Task         `json:"tasks"`
	Counts map[types.Status]int `json:"counts"`
}

// Dashboard is the role-specific landing view; exactly one of Admin and
// User is set
type Dashboard struct {
	Role  types.Role      `json:"role"`
	Admin *AdminDashboard `json:"admin,omitempty"`
	User  *UserDashboard  `json:"user,omitempty"`
}

// Dashboard loads the landing view for the current role
func (c *Context) Dashboard(ctx context.Context) (*Dashboard, error) {
	st := c.State()
	switch st.Role() {
	case types.RoleAdmin:
		projects, err := c.projectList(ctx, types.ProjectFilters{Page: 1, Size: adminRecentProjects})
		if err != nil {
			return nil, err
		}
		// Only the total of this page is used
		tasks, err := c.taskList(ctx, types.TaskFilters{Page: 1, Size: 1})
		if err != nil {
			return nil, err
		}
		return &Dashboard{Role: types.RoleAdmin, Admin: &AdminDashboard{
			RecentProjects: projects.Projects,
			TotalProjects:  projects.Total,
			TotalTasks:     tasks.Total,
		}}, nil
	case types.RoleUser:
		tasks, err := c.taskList(ctx, types.TaskFilters{
			AssignedTo: currentUserID(st),
			Page:       1,
			Size:       userRecentTasks,
		})
		if err != nil {
			return nil, err
		}
		counts := make(map[types.Status]int, len(types.Statuses))
		for _, s := range types.Statuses {
			counts[s] = 0
		}
		for _, t := range tasks.Tasks {
			if t.Status.Valid() {
				counts[t.Status]++
			}
		}
		return &Dashboard{Role: types.RoleUser, User: &UserDashboard{Tasks: tasks.Tasks, Counts: counts}}, nil
	}
	return nil, fmt.Errorf("no dashboard for role %q", st.Role())
}

// Projects lists projects using the current project filters
func (c *Context) Projects(ctx context.Context) (*types.ProjectList, error) {
	return c.projectList(ctx, c.ProjectFilters())
}

// ProjectDetail loads a project with its tasks and selects it
func (c *Context) ProjectDetail(ctx context.Context, id int) (*types.ProjectDetail, error) {
	detail, err := query.FetchAs(ctx, c.Cache, query.Key{query.ProjectDetail, id},
		func(ctx context.Context) (*types.ProjectDetail, error) {
			return c.API.Projects.Get(ctx, id)
		})
	if err != nil {
		return nil, err
	}
	c.SelectProject(&detail.Project)
	return detail, nil
}

// Tasks lists tasks using the current task filters
func (c *Context) Tasks(ctx context.Context) (*types.TaskList, error) {
	return c.taskList(ctx, c.TaskFilters())
}

// MyTasks lists the signed-in user's tasks, narrowed by search and status
func (c *Context) MyTasks(ctx context.Context, search string, status types.Status) (*types.TaskList, error) {
	return c.taskList(ctx, types.TaskFilters{
		AssignedTo: currentUserID(c.State()),
		Search:     search,
		Status:     status,
		Page:       1,
		Size:       myTasksPageSize,
	})
}

// Task loads a single task and selects it
func (c *Context) Task(ctx context.Context, id int) (*types.Task, error) {
	t, err := query.FetchAs(ctx, c.Cache, query.Key{query.TaskDetail, id},
		func(ctx context.Context) (*types.Task, error) {
			return c.API.Tasks.Get(ctx, id)
		})
	if err != nil {
		return nil, err
	}
	c.SelectTask(t)
	return t, nil
}

func (c *Context) projectList(ctx context.Context, f types.ProjectFilters) (*types.ProjectList, error) {
	return query.FetchAs(ctx, c.Cache, query.Key{query.Projects, f},
		func(ctx context.Context) (*types.ProjectList, error) {
			return c.API.Projects.List(ctx, f)
		})
}

func (c *Context) taskList(ctx context.Context, f types.TaskFilters) (*types.TaskList, error) {
	return query.FetchAs(ctx, c.Cache, query.Key{query.Tasks, f},
		func(ctx context.Context) (*types.TaskList, error) {
			return c.API.Tasks.List(ctx, f)
		})
}
