package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// Duration parses yaml values like "2s" or "500ms" (yaml.v3 has no native
// time.Duration support). Bare integers are taken as nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	*d = Duration(n)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type BackendConfig struct {
	BaseURL string   `yaml:"base_url"`
	APIKey  string   `yaml:"api_key"`
	Timeout Duration `yaml:"timeout"`
}

type PollConfig struct {
	Interval Duration `yaml:"interval"`
	// StandardCompletionDelay is the client-side completion signal for
	// standard-kind jobs, whose backend finishes synchronously.
	StandardCompletionDelay Duration `yaml:"standard_completion_delay"`
	MaxRetries              int      `yaml:"max_retries"`
	Concurrency             int      `yaml:"concurrency"`
}

type Config struct {
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Poll    PollConfig    `yaml:"poll"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, fills defaults and applies
// environment overrides. A missing file is not fatal: the built-in defaults
// are usable for local runs against a scripted backend.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = Duration(15 * time.Second)
	}
	if cfg.Poll.Interval <= 0 {
		cfg.Poll.Interval = Duration(2 * time.Second)
	}
	if cfg.Poll.StandardCompletionDelay <= 0 {
		cfg.Poll.StandardCompletionDelay = Duration(3 * time.Second)
	}
	if cfg.Poll.MaxRetries <= 0 {
		cfg.Poll.MaxRetries = 3
	}
	if cfg.Poll.Concurrency <= 0 {
		cfg.Poll.Concurrency = 8
	}

	// environment overrides (loaded from .env by the caller via godotenv)
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_API_KEY"); v != "" {
		cfg.Backend.APIKey = v
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
