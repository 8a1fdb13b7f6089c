package kanban

import (
	"testing"

	"github.com/sufyan2618/project-management/pkg/types"
)

func task(id int, status types.Status) types.Task {
	return types.Task{ID: id, Title: "task", Status: status}
}

func fixtureTasks() []types.Task {
	return []types.Task{
		task(1, types.StatusTodo),
		task(2, types.StatusTodo),
		task(3, types.StatusInProgress),
		task(10, types.StatusDone),
		task(11, types.StatusDone),
		task(12, types.StatusDone),
		task(99, types.Status("archived")),
	}
}

func ids(tasks []types.Task) []int {
	out := make([]int, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGroup(t *testing.T) {
	t.Parallel()

	cols := Group(fixtureTasks())

	if len(cols) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(cols))
	}
	if !equalIDs(ids(cols[types.StatusTodo]), []int{1, 2}) {
		t.Errorf("Unexpected todo column: %v", ids(cols[types.StatusTodo]))
	}
	if !equalIDs(ids(cols[types.StatusDone]), []int{10, 11, 12}) {
		t.Errorf("Unexpected done column: %v", ids(cols[types.StatusDone]))
	}

	empty := Group(nil)
	for _, s := range types.Statuses {
		if empty[s] == nil {
			t.Errorf("Expected empty (non-nil) column for %s", s)
		}
	}
}

func TestApplyCancelledDrag(t *testing.T) {
	t.Parallel()

	b := NewBoard(fixtureTasks())
	before := b.Columns()

	if _, ok := b.Apply(DragEnd{Source: Location{types.StatusTodo, 0}, DraggableID: "1"}); ok {
		t.Error("Expected cancelled drag to be a no-op")
	}
	assertColumnsEqual(t, before, b.Columns())
}

func TestApplySamePosition(t *testing.T) {
	t.Parallel()

	b := NewBoard(fixtureTasks())
	before := b.Columns()

	ev := DragEnd{
		Source:      Location{types.StatusTodo, 1},
		Destination: &Location{types.StatusTodo, 1},
		DraggableID: "2",
	}
	if _, ok := b.Apply(ev); ok {
		t.Error("Expected same-position drop to be a no-op")
	}
	assertColumnsEqual(t, before, b.Columns())
}

func TestApplyCrossColumn(t *testing.T) {
	t.Parallel()

	b := NewBoard(fixtureTasks())
	move, ok := b.Apply(DragEnd{
		Source:      Location{types.StatusTodo, 0},
		Destination: &Location{types.StatusDone, 2},
		DraggableID: "1",
	})
	if !ok {
		t.Fatal("Expected move to apply")
	}

	done := b.Column(types.StatusDone)
	if !equalIDs(ids(done), []int{10, 11, 1, 12}) {
		t.Errorf("Unexpected done column: %v", ids(done))
	}
	if done[2].Status != types.StatusDone {
		t.Errorf("Expected moved task status 'done', got '%s'", done[2].Status)
	}
	for _, tk := range b.Column(types.StatusTodo) {
		if tk.ID == 1 {
			t.Error("Expected task removed from source column")
		}
	}
	if move.Task.ID != 1 || move.To.Index != 2 || move.From.Column != types.StatusTodo {
		t.Errorf("Unexpected move: %+v", move)
	}
}

func TestApplyReorderWithinColumn(t *testing.T) {
	t.Parallel()

	b := NewBoard(fixtureTasks())
	_, ok := b.Apply(DragEnd{
		Source:      Location{types.StatusDone, 0},
		Destination: &Location{types.StatusDone, 2},
		DraggableID: "10",
	})
	if !ok {
		t.Fatal("Expected reorder to apply")
	}
	if got := ids(b.Column(types.StatusDone)); !equalIDs(got, []int{11, 12, 10}) {
		t.Errorf("Expected [11 12 10] with no duplicates, got %v", got)
	}
}

func TestApplyClampsIndex(t *testing.T) {
	t.Parallel()

	b := NewBoard(fixtureTasks())
	move, ok := b.Apply(DragEnd{
		Source:      Location{types.StatusTodo, 1},
		Destination: &Location{types.StatusInProgress, 50},
		DraggableID: "2",
	})
	if !ok {
		t.Fatal("Expected move to apply")
	}
	if move.To.Index != 1 {
		t.Errorf("Expected index clamped to 1, got %d", move.To.Index)
	}
	if got := ids(b.Column(types.StatusInProgress)); !equalIDs(got, []int{3, 2}) {
		t.Errorf("Unexpected in-progress column: %v", got)
	}
}

func TestApplyUnknownTaskIgnored(t *testing.T) {
	t.Parallel()

	b := NewBoard(fixtureTasks())
	before := b.Columns()

	// Task 3 exists, but not in the named source column
	_, ok := b.Apply(DragEnd{
		Source:      Location{types.StatusTodo, 0},
		Destination: &Location{types.StatusDone, 0},
		DraggableID: "3",
	})
	if ok {
		t.Error("Expected unknown task to be ignored")
	}
	assertColumnsEqual(t, before, b.Columns())
}

func TestResetDiscardsLocalMoves(t *testing.T) {
	t.Parallel()

	b := NewBoard(fixtureTasks())
	b.Apply(DragEnd{
		Source:      Location{types.StatusTodo, 0},
		Destination: &Location{types.StatusDone, 0},
		DraggableID: "1",
	})

	b.Reset(fixtureTasks())
	if got := b.Counts(); got[types.StatusTodo] != 2 || got[types.StatusDone] != 3 {
		t.Errorf("Expected counts regrouped from data, got %v", got)
	}
}

func assertColumnsEqual(t *testing.T, want, got Columns) {
	t.Helper()
	for _, s := range types.Statuses {
		if !equalIDs(ids(want[s]), ids(got[s])) {
			t.Errorf("Column %s changed: want %v, got %v", s, ids(want[s]), ids(got[s]))
		}
	}
}
