package kanban

import (
	"strconv"
	"sync"

	"github.com/sufyan2618/project-management/pkg/types"
)

// Columns maps each board column to its tasks, top to bottom
type Columns map[types.Status][]types.Task

// Group partitions tasks by status into the board columns
func Group(tasks []types.Task) Columns {
	cols := make(Columns, len(types.Statuses))
	for _, s := range types.Statuses {
		cols[s] = []types.Task{}
	}
	for _, t := range tasks {
		if _, ok := cols[t.Status]; ok {
			cols[t.Status] = append(cols[t.Status], t)
		}
	}
	return cols
}

// Location is a position on the board
type Location struct {
	Column types.Status `json:"column"`
	Index  int          `json:"index"`
}

// DragEnd is the event raised when a card is dropped
type DragEnd struct {
	Source      Location  `json:"source"`
	Destination *Location `json:"destination,omitempty"`
	DraggableID string    `json:"draggable_id"`
}

// Move describes an applied drag
type Move struct {
	Task types.Task `json:"task"`
	From Location   `json:"from"`
	To   Location   `json:"to"`
}

// Board is the local, optimistic column state
type Board struct {
	mu      sync.Mutex
	columns Columns
}

// NewBoard creates a board from a flat task list
func NewBoard(tasks []types.Task) *Board {
	return &Board{columns: Group(tasks)}
}

// Reset regroups the board from authoritative data, discarding local moves
func (b *Board) Reset(tasks []types.Task) {
	b.mu.Lock()
	b.columns = Group(tasks)
	b.mu.Unlock()
}

// Columns returns a copy of the current columns
func (b *Board) Columns() Columns {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(Columns, len(b.columns))
	for s, tasks := range b.columns {
		out[s] = append([]types.Task{}, tasks...)
	}
	return out
}

// Column returns a copy of one column
func (b *Board) Column(s types.Status) []types.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.Task{}, b.columns[s]...)
}

// Apply performs the local part of a drag. It returns false when the event
// is a no-op: cancelled, dropped where it started, unknown columns, or a
// task id not in the source column.
func (b *Board) Apply(ev DragEnd) (*Move, bool) {
	if ev.Destination == nil {
		return nil, false
	}
	dst := *ev.Destination
	if ev.Source.Column == dst.Column && ev.Source.Index == dst.Index {
		return nil, false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	srcTasks, ok := b.columns[ev.Source.Column]
	if !ok {
		return nil, false
	}
	if _, ok := b.columns[dst.Column]; !ok {
		return nil, false
	}

	pos := -1
	for i, t := range srcTasks {
		if strconv.Itoa(t.ID) == ev.DraggableID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, false
	}

	task := srcTasks[pos]
	from := Location{Column: ev.Source.Column, Index: pos}

	remaining := make([]types.Task, 0, len(srcTasks)-1)
	remaining = append(remaining, srcTasks[:pos]...)
	remaining = append(remaining, srcTasks[pos+1:]...)
	b.columns[ev.Source.Column] = remaining

	task.Status = dst.Column
	dstTasks := b.columns[dst.Column]
	idx := dst.Index
	if idx < 0 {
		idx = 0
	}
	if idx > len(dstTasks) {
		idx = len(dstTasks)
	}

	inserted := make([]types.Task, 0, len(dstTasks)+1)
	inserted = append(inserted, dstTasks[:idx]...)
	inserted = append(inserted, task)
	inserted = append(inserted, dstTasks[idx:]...)
	b.columns[dst.Column] = inserted

	return &Move{Task: task, From: from, To: Location{Column: dst.Column, Index: idx}}, true
}

// Counts returns the number of cards per column
func (b *Board) Counts() map[types.Status]int {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[types.Status]int, len(b.columns))
	for s, tasks := range b.columns {
		out[s] = len(tasks)
	}
	return out
}
