package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// DefaultFile is read from the working directory when present
	DefaultFile = "bundle-compare.toml"
	// EnvPrefix prefixes environment overrides, e.g. BUNDLE_COMPARE_PORT=9090
	EnvPrefix = "BUNDLE_COMPARE_"
)

// Config holds all configuration for the application
type Config struct {
	Previous     string   `koanf:"previous"`
	Current      string   `koanf:"current"`
	Chunk        string   `koanf:"chunk"`
	WebMode      bool     `koanf:"web"`
	Port         int      `koanf:"port"`
	Watch        bool     `koanf:"watch"`
	OpenBrowser  bool     `koanf:"open"`
	Package      string   `koanf:"package"`
	Module       string   `koanf:"module"`
	Dependencies bool     `koanf:"dependencies"`
	Format       string   `koanf:"format"`
	Exclude      []string `koanf:"exclude"`
	Top          int      `koanf:"top"`
	Verbosity    string   `koanf:"verbosity"`
	VerboseCnt   int      `koanf:"verbose"`

	Log      LogConfig      `koanf:"log"`
	Cache    CacheConfig    `koanf:"cache"`
	Debounce DebounceConfig `koanf:"debounce"`
}

type LogConfig struct {
	JSON bool `koanf:"json"`
}

type CacheConfig struct {
	Size int `koanf:"size"` // Number of rendered graphs kept per build pair
}

// DebounceConfig tunes how file system events are batched in watch mode
type DebounceConfig struct {
	QuietMs int `koanf:"quiet"`
	MaxMs   int `koanf:"max"`
}

func (d DebounceConfig) Quiet() time.Duration {
	return time.Duration(d.QuietMs) * time.Millisecond
}

func (d DebounceConfig) Max() time.Duration {
	return time.Duration(d.MaxMs) * time.Millisecond
}

// defaults are nested since the map provider does not unflatten keys
func defaults() map[string]interface{} {
	return map[string]interface{}{
		"previous":     "",
		"current":      "",
		"chunk":        "",
		"web":          false,
		"port":         8080,
		"watch":        false,
		"open":         true,
		"package":      "",
		"module":       "",
		"dependencies": false,
		"format":       "text",
		"exclude":      []string{},
		"top":          20,
		"verbosity":    "",
		"verbose":      0,
		"log":          map[string]interface{}{"json": false},
		"cache":        map[string]interface{}{"size": 64},
		"debounce":     map[string]interface{}{"quiet": 500, "max": 5000},
	}
}

// RegisterFlags defines the command line flags. Dashes in flag names map to
// nested keys, so --cache-size sets cache.size.
func RegisterFlags(f *pflag.FlagSet) {
	f.String("previous", "", "Stats JSON of the previous build")
	f.String("current", "", "Stats JSON of the current build")
	f.String("chunk", "", "Restrict the comparison to one chunk id")
	f.Bool("web", false, "Start the web server instead of printing a report")
	f.Int("port", 8080, "Port for the web server")
	f.Bool("watch", false, "Reload the stats files when they change (requires --web)")
	f.Bool("open", true, "Open the browser in web mode")
	f.String("package", "", "Print the dependents graph of an external package")
	f.String("module", "", "Print the graph rooted at a module identifier")
	f.Bool("dependencies", false, "Walk imports instead of importers for --module")
	f.String("format", "text", "Report format: text or json")
	f.StringSlice("exclude", nil, "Glob patterns of module identifiers to ignore")
	f.Int("top", 20, "Number of largest changes to list, 0 for all")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Bool("log-json", false, "Log as JSON")
	f.Int("cache-size", 64, "Rendered graphs kept in the web server cache")
	f.Int("debounce-quiet", 500, "Milliseconds of quiet before a watched change is handled")
	f.Int("debounce-max", 5000, "Maximum milliseconds a watched change is delayed")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	return LoadFile(DefaultFile, f)
}

// LoadFile is Load with an explicit config file path
func LoadFile(path string, f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(makeMapProvider(defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// The config file is optional, but a broken one is an error
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			return strings.ReplaceAll(fl.Name, "-", "."), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks option combinations that cannot work together
func (c *Config) Validate() error {
	var errs []error
	if c.Current == "" {
		errs = append(errs, errors.New("current stats file is required"))
	}
	if c.Package != "" && c.Module != "" {
		errs = append(errs, errors.New("package and module are mutually exclusive"))
	}
	if c.Format != "text" && c.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown format %q", c.Format))
	}
	if c.WebMode && (c.Port <= 0 || c.Port > 65535) {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.Watch && !c.WebMode {
		errs = append(errs, errors.New("watch requires web mode"))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, fmt.Errorf("cache size must be positive, got %d", c.Cache.Size))
	}
	if c.Debounce.QuietMs < 0 || c.Debounce.MaxMs < c.Debounce.QuietMs {
		errs = append(errs, fmt.Errorf("invalid debounce window %dms/%dms", c.Debounce.QuietMs, c.Debounce.MaxMs))
	}
	return errors.Join(errs...)
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
