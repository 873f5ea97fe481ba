package harness

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// RetryConfig controls the runner's retry/backoff behavior.
type RetryConfig struct {
	MaxRetries int     `yaml:"max_retries" env:"MAX_RETRIES"`
	BaseDelay  float64 `yaml:"base_delay" env:"BASE_DELAY"` // seconds
	MaxDelay   float64 `yaml:"max_delay" env:"MAX_DELAY"`   // seconds
}

// Config holds session configuration. Values are resolved in three layers:
// defaults, then an optional YAML file, then GPTCODE_* environment
// variables.
type Config struct {
	Provider      string      `yaml:"provider" env:"PROVIDER"`
	Model         string      `yaml:"model" env:"MODEL"`
	MaxToolRounds int         `yaml:"max_tool_rounds" env:"MAX_TOOL_ROUNDS"`
	LoopWindow    int         `yaml:"loop_window" env:"LOOP_WINDOW"`
	LogLevel      string      `yaml:"log_level" env:"LOG_LEVEL"`
	AutoConfirm   bool        `yaml:"auto_confirm" env:"AUTO_CONFIRM"`
	Retry         RetryConfig `yaml:"retry" envPrefix:"RETRY_"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Provider:      "openai",
		Model:         "",
		MaxToolRounds: 50,
		LoopWindow:    10,
		LogLevel:      "warn",
		Retry: RetryConfig{
			MaxRetries: 2,
			BaseDelay:  1.0,
			MaxDelay:   60.0,
		},
	}
}

// LoadConfig resolves the configuration. path may be empty or point to a
// YAML file; a missing file at the default location is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "GPTCODE_"}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
