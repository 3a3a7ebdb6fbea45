package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.CompanyCleanup)
	assert.Zero(t, cfg.Text)
	assert.Zero(t, cfg.Key)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"too many workers", func(c *Config) { c.Workers = 5000 }},
		{"negative company limit", func(c *Config) { c.CompanyLimit = -1 }},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"huge timeout", func(c *Config) { c.FetchTimeout = time.Hour }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadLayers(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "dedup.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input: data/components.xlsx
output: out/canonical.json
company_cleanup: false
workers: 3
text:
  collapse_space: true
key:
  fold_case: true
fetch_timeout: 45s
`), 0o644))

	t.Setenv("DEDUP_WORKERS", "5")
	t.Setenv("DEDUP_TEXT_FOLD_CASE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "data/components.xlsx", cfg.Input)
	assert.Equal(t, "out/canonical.json", cfg.Output)
	assert.False(t, cfg.CompanyCleanup)
	assert.Equal(t, 5, cfg.Workers)
	assert.True(t, cfg.Text.CollapseSpace)
	assert.True(t, cfg.Text.FoldCase)
	assert.True(t, cfg.Key.FoldCase)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)

	opts := cfg.DedupOptions()
	assert.False(t, opts.CompanyCleanup)
	assert.Equal(t, 5, opts.Workers)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEDUP_COMPANY_LIMIT=7\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("DEDUP_COMPANY_LIMIT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.CompanyLimit)
}

func TestLoadRejectsBadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DEDUP_COMPANY_CLEANUP", "maybe")
	_, err := Load("")
	assert.ErrorContains(t, err, "DEDUP_COMPANY_CLEANUP")
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
