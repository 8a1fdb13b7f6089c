package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load loads and merges configuration from global and project sources,
// then applies environment overrides
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err == nil {
		if err := loadFile(filepath.Join(home, ".taskflow", "config.yaml"), cfg); err != nil && !os.IsNotExist(err) {
			log.Printf("warning: failed to read global config: %v", err)
		}
	}

	cwd, err := os.Getwd()
	if err == nil {
		// Project config overrides global
		if err := loadFile(filepath.Join(cwd, ".taskflow", "config.yaml"), cfg); err != nil && !os.IsNotExist(err) {
			log.Printf("warning: failed to read project config: %v", err)
		}
	}

	applyEnv(cfg)
	cfg.Storage.Path = expandHome(cfg.Storage.Path)

	return cfg, nil
}

// LoadFile loads a single config file over the defaults
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := loadFile(path, cfg); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	cfg.Storage.Path = expandHome(cfg.Storage.Path)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}

	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKFLOW_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("TASKFLOW_SOCKET_URL"); v != "" {
		cfg.Socket.URL = v
	}
	if v := os.Getenv("TASKFLOW_STORAGE"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TASKFLOW_WEB_ADDR"); v != "" {
		cfg.Web.Addr = v
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// GlobalConfigPath returns the path to the global config file
func GlobalConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".taskflow", "config.yaml")
}

// ProjectConfigPath returns the path to the project config file
func ProjectConfigPath() string {
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, ".taskflow", "config.yaml")
}
