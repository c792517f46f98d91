// Package config loads planweave configuration from an optional YAML file
// with environment variable overrides. Environment always wins.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is consulted when no explicit config file is given.
const DefaultPath = ".planweave/config.yaml"

// Config is the full runtime configuration.
type Config struct {
	// Model is the generation model identifier.
	Model string `yaml:"model"`
	// APIKey is read from ANTHROPIC_API_KEY only, never from the file.
	APIKey string `yaml:"-"`

	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path"`

	// Server settings.
	Addr string `yaml:"addr"`

	// Retrieval is the vector store collaborator.
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Eval configures the offline evaluation harness.
	Eval EvalConfig `yaml:"eval"`
}

// RetrievalConfig points at the vector store HTTP service.
type RetrievalConfig struct {
	BaseURL string `yaml:"base_url"`
	TopK    int    `yaml:"top_k"`
	// TimeoutSeconds bounds each retrieval request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout as a duration.
func (r RetrievalConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// EvalConfig holds evaluation harness settings.
type EvalConfig struct {
	OutputDir string    `yaml:"output_dir"`
	Temps     []float64 `yaml:"temps"`
	Repeats   int       `yaml:"repeats"`
	// LoadLevels are the concurrency levels for the load test.
	LoadLevels []int `yaml:"load_levels"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model:  "claude-sonnet-4-5-20250929",
		DBPath: ".planweave/planweave.db",
		Addr:   ":8080",
		Retrieval: RetrievalConfig{
			BaseURL:        "http://localhost:8000",
			TopK:           3,
			TimeoutSeconds: 30,
		},
		Eval: EvalConfig{
			OutputDir:  "eval_out",
			Temps:      []float64{0.0, 0.2, 0.7},
			Repeats:    5,
			LoadLevels: []int{5, 10, 20, 50},
		},
	}
}

// Load reads the config file at path (or DefaultPath when path is empty),
// applies environment overrides, and validates the result. A missing file is
// not an error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// fall through to defaults
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	parseEnvString("PLANWEAVE_MODEL", &c.Model)
	parseEnvString("ANTHROPIC_API_KEY", &c.APIKey)
	parseEnvString("PLANWEAVE_DB_PATH", &c.DBPath)
	parseEnvString("PLANWEAVE_ADDR", &c.Addr)
	parseEnvString("PLANWEAVE_RETRIEVAL_URL", &c.Retrieval.BaseURL)
	if err := parseEnvInt("PLANWEAVE_RETRIEVAL_TOP_K", &c.Retrieval.TopK); err != nil {
		return err
	}
	parseEnvString("PLANWEAVE_EVAL_DIR", &c.Eval.OutputDir)
	if err := parseEnvInt("PLANWEAVE_EVAL_REPEATS", &c.Eval.Repeats); err != nil {
		return err
	}
	return nil
}

// Validate checks invariants that would otherwise surface as confusing
// failures deep inside the planner or the harness.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model is required")
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Retrieval.TopK < 0 {
		return fmt.Errorf("retrieval.top_k must be >= 0, got %d", c.Retrieval.TopK)
	}
	if c.Eval.Repeats < 1 {
		return fmt.Errorf("eval.repeats must be >= 1, got %d", c.Eval.Repeats)
	}
	for _, temp := range c.Eval.Temps {
		if temp < 0 || temp > 1 {
			return fmt.Errorf("eval.temps values must be in [0, 1], got %g", temp)
		}
	}
	for _, level := range c.Eval.LoadLevels {
		if level < 1 {
			return fmt.Errorf("eval.load_levels values must be >= 1, got %d", level)
		}
	}
	return nil
}

func parseEnvString(key string, dest *string) {
	if value := os.Getenv(key); value != "" {
		*dest = value
	}
}

func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
