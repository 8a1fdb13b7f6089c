package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Version != "1" {
		t.Errorf("Expected version '1', got '%s'", cfg.Version)
	}

	if cfg.API.BaseURL != "http://localhost:8000" {
		t.Errorf("Expected default base URL, got '%s'", cfg.API.BaseURL)
	}

	if cfg.Query.Retry != 1 {
		t.Errorf("Expected 1 read retry, got %d", cfg.Query.Retry)
	}

	if !cfg.Socket.Enabled {
		t.Error("Expected socket to be enabled by default")
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	t.Parallel()
	tmpDir := t.TempDir()

	path := filepath.Join(tmpDir, "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	want := DefaultConfig()
	if cfg.API != want.API {
		t.Errorf("API config mismatch: got %+v, want %+v", cfg.API, want.API)
	}
	if cfg.Web.Addr != want.Web.Addr {
		t.Errorf("Expected web addr %s, got %s", want.Web.Addr, cfg.Web.Addr)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("TASKFLOW_API_URL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "api:\n  base_url: https://tasks.example.com/\nstorage:\n  path: ~/tf/storage.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.API.BaseURL != "https://tasks.example.com" {
		t.Errorf("Expected trailing slash trimmed, got '%s'", cfg.API.BaseURL)
	}
	if cfg.API.TimeoutSeconds != 30 {
		t.Errorf("Expected default timeout kept, got %d", cfg.API.TimeoutSeconds)
	}
	if !strings.HasPrefix(cfg.Storage.Path, tmpHome) {
		t.Errorf("Expected ~ expanded to %s, got %s", tmpHome, cfg.Storage.Path)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TASKFLOW_API_URL", "http://api.internal:9000")
	t.Setenv("TASKFLOW_STORAGE", "/tmp/tf.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "http://api.internal:9000" {
		t.Errorf("Expected env base URL, got '%s'", cfg.API.BaseURL)
	}
	if cfg.Storage.Path != "/tmp/tf.db" {
		t.Errorf("Expected env storage path, got '%s'", cfg.Storage.Path)
	}
}
