package types

// Status is a task's kanban column.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s is one of the board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Label returns the column heading.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// Task as returned by /api/task/.
type Task struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`
	DueDate     *Time  `json:"due_date,omitempty"`
	AssignedTo  int    `json:"assigned_to"`
	ProjectID   int    `json:"project_id"`
	CreatedAt   Time   `json:"created_at"`
	UpdatedAt   Time   `json:"updated_at"`
}

// TaskList is one page of tasks.
type TaskList struct {
	Tasks      []Task `json:"tasks"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Size       int    `json:"size"`
	TotalPages int    `json:"total_pages"`
}

// TaskInput is the body of task create/update. Nil fields are omitted, so a
// status-only update serializes to {"status": "..."}.
type TaskInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	AssignedTo  *int    `json:"assigned_to,omitempty"`
	ProjectID   *int    `json:"project_id,omitempty"`
}

// StatusUpdate builds an input that changes only the status.
func StatusUpdate(s Status) TaskInput {
	return TaskInput{Status: &s}
}

// TaskFilters are the list query parameters for tasks.
type TaskFilters struct {
	Status     Status `json:"status,omitempty"`
	Search     string `json:"search,omitempty"`
	AssignedTo int    `json:"assigned_to,omitempty"`
	ProjectID  int    `json:"project_id,omitempty"`
	Page       int    `json:"page,omitempty"`
	Size       int    `json:"size,omitempty"`
}

// DefaultTaskFilters mirrors the initial filter state of the tasks view.
func DefaultTaskFilters() TaskFilters {
	return TaskFilters{Page: 1, Size: 10}
}

// StringPtr returns a pointer to s; handy when building inputs.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
