// Package testutil provides reusable test utilities for TaskFlow tests: an
// isolated HOME and an in-memory fake of the TaskFlow API.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sufyan2618/project-management/internal/config"
)

// TestEnv provides access to isolated test directories
type TestEnv struct {
	Home       string // Mocked HOME directory
	ProjectDir string // Working directory for project config
	GlobalDir  string // ~/.taskflow equivalent
	t          *testing.T
}

// SetupTestEnv creates an isolated test environment with mocked HOME.
// Uses t.TempDir() for automatic cleanup and t.Setenv() for automatic env restoration.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	tmpHome := t.TempDir()
	tmpProject := t.TempDir()

	globalDir := filepath.Join(tmpHome, ".taskflow")
	if err := os.MkdirAll(globalDir, 0755); err != nil {
		t.Fatalf("Failed to create global .taskflow: %v", err)
	}

	t.Setenv("HOME", tmpHome)
	for _, key := range []string{"TASKFLOW_API_URL", "TASKFLOW_SOCKET_URL", "TASKFLOW_STORAGE", "TASKFLOW_WEB_ADDR"} {
		t.Setenv(key, "")
	}

	return &TestEnv{
		Home:       tmpHome,
		ProjectDir: tmpProject,
		GlobalDir:  globalDir,
		t:          t,
	}
}

// CreateFile creates a file with the given content. Relative paths are
// taken from the project directory.
func (e *TestEnv) CreateFile(path, content string) {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		e.t.Fatalf("Failed to create directory for %s: %v", fullPath, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		e.t.Fatalf("Failed to write file %s: %v", fullPath, err)
	}
}

// CreateGlobalFile creates a file relative to the global .taskflow directory.
func (e *TestEnv) CreateGlobalFile(relPath, content string) {
	e.t.Helper()
	e.CreateFile(filepath.Join(e.GlobalDir, relPath), content)
}

// FileExists checks if a file exists in the test environment.
func (e *TestEnv) FileExists(path string) bool {
	e.t.Helper()

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(e.ProjectDir, path)
	}
	_, err := os.Stat(fullPath)
	return err == nil
}

// Config returns a default configuration that talks to apiURL, keeps its
// storage inside the test HOME and has the socket disabled.
func (e *TestEnv) Config(apiURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = apiURL
	cfg.Socket.Enabled = false
	cfg.Socket.URL = apiURL
	cfg.Storage.Path = filepath.Join(e.GlobalDir, "storage.db")
	cfg.Query.Retry = 0
	return cfg
}
