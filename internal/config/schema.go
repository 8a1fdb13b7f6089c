package config

// Config represents the full TaskFlow client configuration
type Config struct {
	Version string `yaml:"version" mapstructure:"version"`

	// API connection settings
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Real-time socket channel
	Socket SocketConfig `yaml:"socket" mapstructure:"socket"`

	// Local persistent storage (token + profile)
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`

	// Query cache behaviour
	Query QueryConfig `yaml:"query" mapstructure:"query"`

	// Local web front-end
	Web WebConfig `yaml:"web" mapstructure:"web"`
}

// APIConfig configures the REST client
type APIConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// SocketConfig configures the real-time channel
type SocketConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	URL     string `yaml:"url" mapstructure:"url"`
}

// StorageConfig configures where the session is persisted
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// QueryConfig configures the client-side query cache
type QueryConfig struct {
	// Automatic retries for read queries
	Retry int `yaml:"retry" mapstructure:"retry"`
	// Seconds an entry stays fresh before it is refetched (0 = until invalidated)
	StaleSeconds int `yaml:"stale_seconds" mapstructure:"stale_seconds"`
}

// WebConfig configures the local web front-end
type WebConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}
