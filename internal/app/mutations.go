package app

import (
	"context"

	"github.com/sufyan2618/project-management/internal/api"
	"github.com/sufyan2618/project-management/internal/query"
	"github.com/sufyan2618/project-management/pkg/types"
)

// Op names a write a view can trigger
type Op string

const (
	OpCreateProject Op = "create_project"
	OpUpdateProject Op = "update_project"
	OpDeleteProject Op = "delete_project"
	OpCreateTask    Op = "create_task"
	OpUpdateTask    Op = "update_task"
	OpDeleteTask    Op = "delete_task"
)

// Ops lists every write in a stable order
var Ops = []Op{OpCreateProject, OpUpdateProject, OpDeleteProject, OpCreateTask, OpUpdateTask, OpDeleteTask}

// Each write invalidates the query roots whose data it changes
var (
	projectCreated = [][]any{{query.Projects}}
	projectChanged = [][]any{{query.Projects}, {query.ProjectDetail}}
	taskChanged    = [][]any{{query.Tasks}, {query.TaskDetail}, {query.ProjectDetail}}
)

type projectUpdate struct {
	id int
	in types.ProjectInput
}

type taskUpdate struct {
	id int
	in types.TaskInput
}

// writes holds one long-lived mutation per Op so its pending flag can be
// read while a call is in flight
type writes struct {
	createProject *query.Mutation[types.ProjectInput, *types.Project]
	updateProject *query.Mutation[projectUpdate, *types.Project]
	deleteProject *query.Mutation[int, struct{}]
	createTask    *query.Mutation[types.TaskInput, *types.Task]
	updateTask    *query.Mutation[taskUpdate, *types.Task]
	deleteTask    *query.Mutation[int, struct{}]
}

func (c *Context) invalidate(sets [][]any) {
	for _, prefix := range sets {
		c.Cache.Invalidate(prefix...)
	}
}

func newMutation[In, Out any](c *Context, fn func(context.Context, In) (Out, error),
	invalidates [][]any, success, failure string) *query.Mutation[In, Out] {
	return &query.Mutation[In, Out]{
		Fn: fn,
		OnSuccess: func(Out, In) {
			c.invalidate(invalidates)
			c.Notify.Success(success)
		},
		OnError: func(err error, _ In) {
			c.Notify.Error(api.Message(err, failure))
		},
	}
}

// newWrites builds the mutations. Calls go through c.API at call time, so
// options that replace the client still apply.
func (c *Context) newWrites() *writes {
	return &writes{
		createProject: newMutation(c, func(ctx context.Context, in types.ProjectInput) (*types.Project, error) {
			return c.API.Projects.Create(ctx, in)
		}, projectCreated, "Project created successfully!", "Failed to create project"),

		updateProject: newMutation(c, func(ctx context.Context, u projectUpdate) (*types.Project, error) {
			return c.API.Projects.Update(ctx, u.id, u.in)
		}, projectChanged, "Project updated successfully!", "Failed to update project"),

		deleteProject: newMutation(c, func(ctx context.Context, id int) (struct{}, error) {
			return struct{}{}, c.API.Projects.Delete(ctx, id)
		}, projectChanged, "Project deleted successfully!", "Failed to delete project"),

		createTask: newMutation(c, func(ctx context.Context, in types.TaskInput) (*types.Task, error) {
			return c.API.Tasks.Create(ctx, in)
		}, taskChanged, "Task created successfully!", "Failed to create task"),

		updateTask: newMutation(c, func(ctx context.Context, u taskUpdate) (*types.Task, error) {
			return c.API.Tasks.Update(ctx, u.id, u.in)
		}, taskChanged, "Task updated successfully!", "Failed to update task"),

		deleteTask: newMutation(c, func(ctx context.Context, id int) (struct{}, error) {
			return struct{}{}, c.API.Tasks.Delete(ctx, id)
		}, taskChanged, "Task deleted successfully!", "Failed to delete task"),
	}
}

// Pending reports whether a call of op is in flight
func (c *Context) Pending(op Op) bool {
	switch op {
	case OpCreateProject:
		return c.writes.createProject.Pending()
	case OpUpdateProject:
		return c.writes.updateProject.Pending()
	case OpDeleteProject:
		return c.writes.deleteProject.Pending()
	case OpCreateTask:
		return c.writes.createTask.Pending()
	case OpUpdateTask:
		return c.writes.updateTask.Pending()
	case OpDeleteTask:
		return c.writes.deleteTask.Pending()
	}
	return false
}

// PendingOps returns the pending flag of every write
func (c *Context) PendingOps() map[Op]bool {
	out := make(map[Op]bool, len(Ops))
	for _, op := range Ops {
		out[op] = c.Pending(op)
	}
	return out
}

// CreateProject creates a project (admin only)
func (c *Context) CreateProject(ctx context.Context, in types.ProjectInput) (*types.Project, error) {
	return c.writes.createProject.Mutate(ctx, in)
}

// UpdateProject changes the fields set in in (admin only)
func (c *Context) UpdateProject(ctx context.Context, id int, in types.ProjectInput) (*types.Project, error) {
	return c.writes.updateProject.Mutate(ctx, projectUpdate{id, in})
}

// DeleteProject removes a project (admin only)
func (c *Context) DeleteProject(ctx context.Context, id int) error {
	_, err := c.writes.deleteProject.Mutate(ctx, id)
	if err == nil {
		if p := c.SelectedProject(); p != nil && p.ID == id {
			c.SelectProject(nil)
		}
	}
	return err
}

// CreateTask creates a task (admin only)
func (c *Context) CreateTask(ctx context.Context, in types.TaskInput) (*types.Task, error) {
	return c.writes.createTask.Mutate(ctx, in)
}

// UpdateTask changes the fields set in in
func (c *Context) UpdateTask(ctx context.Context, id int, in types.TaskInput) (*types.Task, error) {
	return c.writes.updateTask.Mutate(ctx, taskUpdate{id, in})
}

// DeleteTask removes a task (admin only)
func (c *Context) DeleteTask(ctx context.Context, id int) error {
	_, err := c.writes.deleteTask.Mutate(ctx, id)
	if err == nil {
		if t := c.SelectedTask(); t != nil && t.ID == id {
			c.SelectTask(nil)
		}
	}
	return err
}
