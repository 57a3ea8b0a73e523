package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"), newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.True(t, cfg.OpenBrowser)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, 20, cfg.Top)
	assert.Equal(t, 64, cfg.Cache.Size)
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce.Quiet())
	assert.Equal(t, 5*time.Second, cfg.Debounce.Max())
	assert.False(t, cfg.Log.JSON)
}

func TestLoadPriority(t *testing.T) {
	path := writeFile(t, `
previous = "old.json"
current = "new.json"
port = 9000
top = 5

[cache]
size = 8

[debounce]
quiet = 100
max = 1000
`)
	t.Setenv("BUNDLE_COMPARE_PORT", "9100")
	t.Setenv("BUNDLE_COMPARE_LOG_JSON", "true")

	cfg, err := LoadFile(path, newFlags(t, "--top=3", "-vv", "--chunk", "main", "--exclude", "**/*.css,**/*.svg"))
	require.NoError(t, err)

	assert.Equal(t, "old.json", cfg.Previous, "file")
	assert.Equal(t, 9100, cfg.Port, "env over file")
	assert.True(t, cfg.Log.JSON, "nested env key")
	assert.Equal(t, 3, cfg.Top, "flag over file")
	assert.Equal(t, 2, cfg.VerboseCnt)
	assert.Equal(t, "main", cfg.Chunk)
	assert.Equal(t, []string{"**/*.css", "**/*.svg"}, cfg.Exclude)
	assert.Equal(t, 8, cfg.Cache.Size)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce.Quiet())
	require.NoError(t, cfg.Validate())
}

func TestLoadBrokenFile(t *testing.T) {
	path := writeFile(t, "port = [")
	_, err := LoadFile(path, nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Current: "new.json", Format: "text", Port: 8080, Cache: CacheConfig{Size: 1}, Debounce: DebounceConfig{QuietMs: 1, MaxMs: 2}}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing current", func(c *Config) { c.Current = "" }},
		{"package and module", func(c *Config) { c.Package, c.Module = "react", "./src/a.js" }},
		{"format", func(c *Config) { c.Format = "yaml" }},
		{"port", func(c *Config) { c.WebMode, c.Port = true, 0 }},
		{"watch without web", func(c *Config) { c.Watch = true }},
		{"cache size", func(c *Config) { c.Cache.Size = 0 }},
		{"debounce", func(c *Config) { c.Debounce.MaxMs = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
