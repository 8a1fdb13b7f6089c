// Package kanban keeps a status-partitioned view of a task list consistent
// with drag actions and with the server.
//
// # Partitioning
//
// Tasks are grouped into the fixed columns todo, in-progress and done, in
// the order they arrive. Tasks whose status is not a column are left off
// the board.
//
// # Drag reconciliation
//
// A drag-end event names a source column and index, an optional
// destination column and index, and the dragged task id:
//
//   - No destination (drag cancelled): nothing happens.
//
//   - Same column, same index: nothing happens.
//
//   - Otherwise the task is removed from its column and inserted into the
//     destination at the given index, with its status set to the
//     destination column. This happens locally first; then exactly one
//     status update is sent for the task.
//
//   - On success the tasks and project-detail queries are invalidated so
//     the next read refetches. On failure an error notification is raised
//     and the local move is kept; the board is regrouped from server data on
//     the next Reset.
//
// A dragged id that is not in the source column is ignored.
//
// # Usage
//
//	board := kanban.NewBoard(tasks)
//	r := kanban.NewReconciler(board, client.Tasks, cache, feed)
//	move, err := r.HandleDragEnd(ctx, kanban.DragEnd{
//		Source:      kanban.Location{Column: types.StatusTodo, Index: 0},
//		Destination: &kanban.Location{Column: types.StatusDone, Index: 2},
//		DraggableID: "17",
//	})
package kanban
