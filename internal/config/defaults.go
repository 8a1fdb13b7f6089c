package config

import (
	"os"
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:        "http://localhost:8000",
			TimeoutSeconds: 30,
		},
		Socket: SocketConfig{
			Enabled: true,
			URL:     "http://localhost:8000",
		},
		Storage: StorageConfig{
			Path: "~/.taskflow/storage.db",
		},
		Query: QueryConfig{
			Retry: 1,
		},
		Web: WebConfig{
			Addr: "127.0.0.1:5173",
		},
	}
}

// WriteDefault writes the default global configuration to a file
func WriteDefault(path string) error {
	content := `# TaskFlow client configuration
version: "1"

# REST API
api:
  base_url: http://localhost:8000
  timeout_seconds: 30

# Real-time channel (socket.io), opened after login
socket:
  enabled: true
  url: http://localhost:8000

# Session persistence (access token + user profile)
storage:
  path: ~/.taskflow/storage.db

# Query cache
query:
  # Automatic retries for reads
  retry: 1
  # 0 = entries stay fresh until invalidated
  stale_seconds: 0

# Local web front-end (taskflow serve)
web:
  addr: 127.0.0.1:5173
`
	return os.WriteFile(path, []byte(content), 0644)
}
