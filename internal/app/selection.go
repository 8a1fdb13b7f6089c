package app

import (
	"github.com/sufyan2618/project-management/internal/access"
	"github.com/sufyan2618/project-management/internal/session"
	"github.com/sufyan2618/project-management/pkg/types"
)

var resolve = access.Resolve

// SelectProject sets or clears (nil) the selected project
func (c *Context) SelectProject(p *types.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		c.selectedProject = nil
		return
	}
	cp := *p
	c.selectedProject = &cp
}

// SelectedProject returns the selected project, or nil
func (c *Context) SelectedProject() *types.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedProject == nil {
		return nil
	}
	cp := *c.selectedProject
	return &cp
}

// SelectTask sets or clears (nil) the selected task
func (c *Context) SelectTask(t *types.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t == nil {
		c.selectedTask = nil
		return
	}
	cp := *t
	c.selectedTask = &cp
}

// SelectedTask returns the selected task, or nil
func (c *Context) SelectedTask() *types.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectedTask == nil {
		return nil
	}
	cp := *c.selectedTask
	return &cp
}

// ProjectFilters returns the current project list filters
func (c *Context) ProjectFilters() types.ProjectFilters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectFilters
}

// UpdateProjectFilters merges changes into the project filters
func (c *Context) UpdateProjectFilters(fn func(*types.ProjectFilters)) types.ProjectFilters {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.projectFilters)
	return c.projectFilters
}

// ResetProjectFilters restores the initial project filters
func (c *Context) ResetProjectFilters() {
	c.mu.Lock()
	c.projectFilters = types.DefaultProjectFilters()
	c.mu.Unlock()
}

// TaskFilters returns the current task list filters
func (c *Context) TaskFilters() types.TaskFilters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.taskFilters
}

// UpdateTaskFilters merges changes into the task filters
func (c *Context) UpdateTaskFilters(fn func(*types.TaskFilters)) types.TaskFilters {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.taskFilters)
	return c.taskFilters
}

// ResetTaskFilters restores the initial task filters
func (c *Context) ResetTaskFilters() {
	c.mu.Lock()
	c.taskFilters = types.DefaultTaskFilters()
	c.mu.Unlock()
}

func (c *Context) clearSelection() {
	c.mu.Lock()
	c.selectedProject = nil
	c.selectedTask = nil
	c.projectFilters = types.DefaultProjectFilters()
	c.taskFilters = types.DefaultTaskFilters()
	c.mu.Unlock()
}

func currentUserID(st session.State) int {
	if st.User == nil {
		return 0
	}
	return st.User.ID
}
