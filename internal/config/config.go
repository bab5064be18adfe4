package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	LLM      LLMConfig      `toml:"llm"`
	Database DatabaseConfig `toml:"database"`
	Engine   EngineConfig   `toml:"engine"`
	Observer ObserverConfig `toml:"observer"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type LLMConfig struct {
	Provider     string `toml:"provider"`
	Model        string `toml:"model"`
	APIKey       string `toml:"api_key"`
	SystemPrompt string `toml:"system_prompt"`
	Thinking     bool   `toml:"thinking"`
	GoogleSearch bool   `toml:"google_search"`
}

type DatabaseConfig struct {
	// Driver selects the store backend: "sqlite" or "postgres".
	Driver string `toml:"driver"`
	// DSN is the postgres connection string.
	DSN string `toml:"dsn"`
	// Path is the sqlite database file.
	Path string `toml:"path"`
}

type EngineConfig struct {
	MaxRounds           int `toml:"max_rounds"`
	MaxConcurrent       int `toml:"max_concurrent"`
	CallTimeoutSeconds  int `toml:"call_timeout_seconds"`
	BudgetSeconds       int `toml:"budget_seconds"`
	SafetyBufferSeconds int `toml:"safety_buffer_seconds"`
	CacheTTLSeconds     int `toml:"cache_ttl_seconds"`
	CacheSize           int `toml:"cache_size"`
}

type ObserverConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		LLM:      LLMConfig{Provider: "gemini", Model: "gemini-2.5-flash", Thinking: true},
		Database: DatabaseConfig{Driver: "sqlite", Path: "courtside.db"},
		Engine: EngineConfig{
			MaxRounds:           4,
			MaxConcurrent:       4,
			CallTimeoutSeconds:  10,
			BudgetSeconds:       300,
			SafetyBufferSeconds: 5,
			CacheTTLSeconds:     30,
			CacheSize:           256,
		},
	}
}

// Load reads config: defaults -> TOML file -> env vars (env wins).
func Load(path string) Config {
	cfg := Default()

	if path == "" {
		path = "courtside.toml"
	}

	if data, err := os.ReadFile(path); err == nil {
		_ = toml.Unmarshal(data, &cfg)
	}

	// Env overrides
	if v := os.Getenv("COURTSIDE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("COURTSIDE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("COURTSIDE_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("COURTSIDE_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("COURTSIDE_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("COURTSIDE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if os.Getenv("COURTSIDE_OBSERVER_ENABLED") == "true" || os.Getenv("COURTSIDE_OBSERVER_ENABLED") == "1" {
		cfg.Observer.Enabled = true
	}

	return cfg
}
