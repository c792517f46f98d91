package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Model)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.Equal(t, []float64{0.0, 0.2, 0.7}, cfg.Eval.Temps)
	assert.Equal(t, []int{5, 10, 20, 50}, cfg.Eval.LoadLevels)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().DBPath, cfg.DBPath)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: claude-3-5-haiku-20241022
addr: ":9090"
retrieval:
  base_url: http://vectors:8000
  top_k: 5
  timeout_seconds: 10
eval:
  repeats: 2
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.Model)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "http://vectors:8000", cfg.Retrieval.BaseURL)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 10*time.Second, cfg.Retrieval.Timeout())
	assert.Equal(t, 2, cfg.Eval.Repeats)
	// Untouched sections keep their defaults.
	assert.Equal(t, Default().DBPath, cfg.DBPath)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: from-file\n"), 0o644))

	t.Setenv("PLANWEAVE_MODEL", "from-env")
	t.Setenv("PLANWEAVE_RETRIEVAL_TOP_K", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Model)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
}

func TestEnvParseFailure(t *testing.T) {
	t.Setenv("PLANWEAVE_EVAL_REPEATS", "lots")
	_, err := Load("")
	assert.ErrorContains(t, err, "PLANWEAVE_EVAL_REPEATS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty model", func(c *Config) { c.Model = " " }, "model is required"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "db_path is required"},
		{"negative top_k", func(c *Config) { c.Retrieval.TopK = -1 }, "top_k"},
		{"zero repeats", func(c *Config) { c.Eval.Repeats = 0 }, "repeats"},
		{"bad temp", func(c *Config) { c.Eval.Temps = []float64{1.5} }, "temps"},
		{"bad load level", func(c *Config) { c.Eval.LoadLevels = []int{0} }, "load_levels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
