package kanban

import (
	"context"

	"github.com/sufyan2618/project-management/internal/api"
	"github.com/sufyan2618/project-management/internal/notify"
	"github.com/sufyan2618/project-management/internal/query"
	"github.com/sufyan2618/project-management/pkg/types"
)

// TaskUpdater sends task updates.
// Implementations: api.TaskService
type TaskUpdater interface {
	Update(ctx context.Context, id int, in types.TaskInput) (*types.Task, error)
}

// Invalidator marks cached queries stale.
// Implementations: query.Cache
type Invalidator interface {
	Invalidate(prefix ...any) int
}

// Notifier surfaces outcomes to the user.
// Implementations: notify.Feed
type Notifier interface {
	Success(msg string) notify.Notification
	Error(msg string) notify.Notification
}

type statusChange struct {
	ID     int
	Status types.Status
}

// Reconciler applies drags to a Board and syncs them to the server. Build
// it with NewReconciler; it is safe for concurrent drops.
type Reconciler struct {
	Board  *Board
	Tasks  TaskUpdater
	Cache  Invalidator
	Notify Notifier

	update *query.Mutation[statusChange, *types.Task]
}

// NewReconciler creates a reconciler for board
func NewReconciler(board *Board, tasks TaskUpdater, cache Invalidator, n Notifier) *Reconciler {
	r := &Reconciler{Board: board, Tasks: tasks, Cache: cache, Notify: n}
	r.update = &query.Mutation[statusChange, *types.Task]{
		Fn: func(ctx context.Context, in statusChange) (*types.Task, error) {
			return r.Tasks.Update(ctx, in.ID, types.StatusUpdate(in.Status))
		},
		OnSuccess: func(_ *types.Task, _ statusChange) {
			r.Cache.Invalidate(query.Tasks)
			r.Cache.Invalidate(query.ProjectDetail)
			r.Notify.Success("Task status updated!")
		},
		OnError: func(err error, _ statusChange) {
			// The optimistic move is kept; see package doc
			r.Notify.Error(api.Message(err, "Failed to update task"))
		},
	}
	return r
}

// Pending reports whether a status update is in flight
func (r *Reconciler) Pending() bool {
	return r.update.Pending()
}

// HandleDragEnd applies ev locally, then sends the status update. It
// returns (nil, nil) for no-op events. On a failed update the returned
// move is still non-nil: the local state has moved.
func (r *Reconciler) HandleDragEnd(ctx context.Context, ev DragEnd) (*Move, error) {
	move, ok := r.Board.Apply(ev)
	if !ok {
		return nil, nil
	}

	_, err := r.update.Mutate(ctx, statusChange{ID: move.Task.ID, Status: move.To.Column})
	return move, err
}
