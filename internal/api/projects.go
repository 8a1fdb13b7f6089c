package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sufyan2618/project-management/pkg/types"
)

// ProjectService covers /api/project
type ProjectService struct {
	client *Client
}

// List returns one page of projects
func (s *ProjectService) List(ctx context.Context, f types.ProjectFilters) (*types.ProjectList, error) {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Size > 0 {
		q.Set("size", strconv.Itoa(f.Size))
	}

	env, err := s.client.do(ctx, http.MethodGet, "/api/project/", q, nil)
	if err != nil {
		return nil, err
	}
	var list types.ProjectList
	if err := env.decode(&list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Get returns a project with its tasks
func (s *ProjectService) Get(ctx context.Context, id int) (*types.ProjectDetail, error) {
	env, err := s.client.do(ctx, http.MethodGet, projectPath(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var p types.ProjectDetail
	if err := env.decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create creates a project
func (s *ProjectService) Create(ctx context.Context, in types.ProjectInput) (*types.Project, error) {
	env, err := s.client.do(ctx, http.MethodPost, "/api/project/", nil, in)
	if err != nil {
		return nil, err
	}
	var p types.Project
	if err := env.decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update patches the fields set in in
func (s *ProjectService) Update(ctx context.Context, id int, in types.ProjectInput) (*types.Project, error) {
	env, err := s.client.do(ctx, http.MethodPatch, projectPath(id), nil, in)
	if err != nil {
		return nil, err
	}
	var p types.Project
	if err := env.decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete deletes a project
func (s *ProjectService) Delete(ctx context.Context, id int) error {
	_, err := s.client.do(ctx, http.MethodDelete, projectPath(id), nil, nil)
	return err
}

func projectPath(id int) string {
	return fmt.Sprintf("/api/project/%d", id)
}
