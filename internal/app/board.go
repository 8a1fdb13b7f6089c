package app

import (
	"context"
	"fmt"

	"github.com/sufyan2618/project-management/internal/kanban"
	"github.com/sufyan2618/project-management/pkg/types"
)

// Board builds a kanban board. A positive projectID shows that project's
// tasks; otherwise the board shows the signed-in user's tasks.
func (c *Context) Board(ctx context.Context, projectID int) (*kanban.Reconciler, error) {
	tasks, err := c.boardTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return kanban.NewReconciler(kanban.NewBoard(tasks), c.API.Tasks, c.Cache, c.Notify), nil
}

// RefreshBoard regroups r from freshly fetched tasks, discarding any local
// moves the server did not accept
func (c *Context) RefreshBoard(ctx context.Context, r *kanban.Reconciler, projectID int) error {
	tasks, err := c.boardTasks(ctx, projectID)
	if err != nil {
		return err
	}
	r.Board.Reset(tasks)
	return nil
}

// MoveTask moves a task to status at index on a fresh board and syncs it.
// The task is located by id in its current column.
func (c *Context) MoveTask(ctx context.Context, projectID, taskID int, status types.Status, index int) (*kanban.Move, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}

	r, err := c.Board(ctx, projectID)
	if err != nil {
		return nil, err
	}

	src, ok := locate(r.Board.Columns(), taskID)
	if !ok {
		return nil, fmt.Errorf("task %d is not on this board", taskID)
	}

	return r.HandleDragEnd(ctx, kanban.DragEnd{
		Source:      src,
		Destination: &kanban.Location{Column: status, Index: index},
		DraggableID: fmt.Sprint(taskID),
	})
}

func (c *Context) boardTasks(ctx context.Context, projectID int) ([]types.Task, error) {
	if projectID > 0 {
		detail, err := c.ProjectDetail(ctx, projectID)
		if err != nil {
			return nil, err
		}
		return detail.Tasks, nil
	}
	list, err := c.MyTasks(ctx, "", "")
	if err != nil {
		return nil, err
	}
	return list.Tasks, nil
}

func locate(cols kanban.Columns, taskID int) (kanban.Location, bool) {
	for _, s := range types.Statuses {
		for i, t := range cols[s] {
			if t.ID == taskID {
				return kanban.Location{Column: s, Index: i}, true
			}
		}
	}
	return kanban.Location{}, false
}
