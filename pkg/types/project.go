package types

// Project as listed by /api/project/. TaskCount is only present in lists.
type Project struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedBy   int    `json:"created_by,omitempty"`
	CreatedAt   Time   `json:"created_at"`
	UpdatedAt   Time   `json:"updated_at"`
	TaskCount   int    `json:"task_count"`
}

// ProjectDetail is a project with its tasks, as returned by /api/project/{id}.
type ProjectDetail struct {
	Project
	Tasks []Task `json:"tasks"`
}

// ProjectList is one page of projects.
type ProjectList struct {
	Projects   []Project `json:"projects"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalPages int       `json:"total_pages"`
}

// ProjectInput is the body of project create/update. Nil fields are omitted
// so an update only touches what was set.
type ProjectInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// ProjectFilters are the list query parameters for projects.
type ProjectFilters struct {
	Search string `json:"search,omitempty"`
	Page   int    `json:"page,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// DefaultProjectFilters mirrors the initial filter state of the projects view.
func DefaultProjectFilters() ProjectFilters {
	return ProjectFilters{Page: 1, Size: 10}
}
