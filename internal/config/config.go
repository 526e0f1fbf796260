package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config keeps runtime settings for the server and its backends.
type Config struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db_path"`
	StaticDir string `yaml:"static_dir"`
	BaseURL   string `yaml:"base_url"`

	Auth AuthConfig `yaml:"auth"`
	AI   AIConfig   `yaml:"ai"`
}

// AuthConfig points at the external magic-link auth backend.
type AuthConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// AIConfig points at the task extraction backend. An empty key disables the
// AI endpoint; task CRUD works without it.
type AIConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Load reads the optional YAML config file and applies environment
// overrides. Env always wins over file values.
func Load(path string) (Config, error) {
	cfg := Config{
		Addr:    ":8080",
		DBPath:  "data/taskdo.db",
		BaseURL: "http://localhost:8080",
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Env-only setups are fine.
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	override(&cfg.Addr, "TASKDO_ADDR")
	override(&cfg.DBPath, "TASKDO_DB_PATH")
	override(&cfg.StaticDir, "TASKDO_STATIC_DIR")
	override(&cfg.BaseURL, "TASKDO_BASE_URL")
	override(&cfg.Auth.URL, "TASKDO_AUTH_URL")
	override(&cfg.Auth.APIKey, "TASKDO_AUTH_KEY")
	override(&cfg.AI.URL, "TASKDO_AI_URL")
	override(&cfg.AI.APIKey, "TASKDO_AI_KEY")
	override(&cfg.AI.Model, "TASKDO_AI_MODEL")

	if cfg.Auth.URL == "" {
		return Config{}, fmt.Errorf("auth url is required (auth.url or TASKDO_AUTH_URL)")
	}

	return cfg, nil
}

func override(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
