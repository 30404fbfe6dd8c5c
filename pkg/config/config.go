package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/panbanda/wcc/pkg/metrics"
)

// Config holds all configuration options for wcc.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// Upper bounds for the four risk scores
	Thresholds metrics.Thresholds `koanf:"thresholds" toml:"thresholds"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`
}

// AnalysisConfig controls how a scan runs.
type AnalysisConfig struct {
	Complexity string `koanf:"complexity" toml:"complexity" comment:"cyclomatic or cognitive"`
	Mode       string `koanf:"mode" toml:"mode" comment:"files or functions"`
	Sort       string `koanf:"sort" toml:"sort" comment:"wcc_plain, wcc_quantized, crap or skunk"`
	Threads    int    `koanf:"threads" toml:"threads"`
	JSONFormat string `koanf:"json_format" toml:"json_format" comment:"coveralls or covdir"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// CacheConfig controls the complexity cache.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled"`
	Dir     string `koanf:"dir" toml:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" comment:"hours"`
}

// Path returns the cache directory, resolved against root when relative.
// A directory that is root itself or one of its ancestors is refused.
func (c CacheConfig) Path(root string) (string, error) {
	if err := c.checkDir(); err != nil {
		return "", err
	}
	dir := c.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", &Error{Field: "cache.dir", Err: err}
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &Error{Field: "cache.dir", Err: err}
	}
	rel, err := filepath.Rel(absDir, absRoot)
	if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &Error{Field: "cache.dir", Err: fmt.Errorf("%s contains the project root %s", absDir, absRoot)}
	}
	return absDir, nil
}

func (c CacheConfig) checkDir() error {
	if dir := strings.TrimSpace(c.Dir); dir == "" || filepath.Clean(dir) == "." {
		return &Error{Field: "cache.dir", Err: fmt.Errorf("%q is the project root", c.Dir)}
	}
	return nil
}

// OutputConfig controls console output.
type OutputConfig struct {
	Color bool `koanf:"color" toml:"color"`
	Top   int  `koanf:"top" toml:"top" comment:"complex units listed on the console, 0 for all"`
}

// DefaultConfig returns a config with the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Complexity: "cyclomatic",
			Mode:       string(ModeFiles),
			Sort:       string(metrics.SortWccPlain),
			Threads:    2,
			JSONFormat: "coveralls",
		},
		Thresholds: metrics.Defaults(),
		Exclude: ExcludeConfig{
			Dirs: []string{
				"vendor",
				"node_modules",
				".git",
				".wcc",
				"target",
				"dist",
				"build",
				"__pycache__",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".wcc/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Color: true,
			Top:   20,
		},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, &Error{Field: path, Err: err}
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &Error{Field: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Standard config file names, searched in order.
var configNames = []string{
	"wcc.toml",
	"wcc.yaml",
	"wcc.yml",
	"wcc.json",
	".wcc.toml",
	".wcc.yaml",
	".wcc.yml",
	".wcc.json",
}

// LoadResult is a loaded config and the file it came from, if any.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dirs []string
}

// LoadOption customizes LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads exactly path instead of searching.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithSearchDirs replaces the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) { o.dirs = dirs }
}

// LoadConfig loads an explicit file or the first standard config file found.
// With no file, the defaults are returned with an empty Source.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := loadOptions{dirs: []string{".", ".wcc"}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	for _, dir := range o.dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			cfg, err := Load(path)
			if err != nil {
				return nil, err
			}
			return &LoadResult{Config: cfg, Source: path}, nil
		}
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

// Validate checks the file-level settings.
func (c *Config) Validate() error {
	if err := validate.Struct(fileRules{
		Complexity: c.Analysis.Complexity,
		Mode:       c.Analysis.Mode,
		Sort:       c.Analysis.Sort,
		Threads:    c.Analysis.Threads,
		JSONFormat: c.Analysis.JSONFormat,
		TTL:        c.Cache.TTL,
		Top:        c.Output.Top,
	}); err != nil {
		return fromValidation(err)
	}
	if err := c.Thresholds.Validate(); err != nil {
		return &Error{Field: "thresholds", Err: err}
	}
	if c.Cache.Enabled {
		if err := c.Cache.checkDir(); err != nil {
			return err
		}
	}
	return nil
}

// ShouldExclude reports whether path (relative to the project root) is
// excluded by directory or pattern.
func (c *Config) ShouldExclude(path string) bool {
	sep := string(filepath.Separator)
	for _, dir := range c.Exclude.Dirs {
		if strings.Contains(path, sep+dir+sep) || strings.HasPrefix(path, dir+sep) {
			return true
		}
	}

	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	for _, pattern := range c.Exclude.Patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
		if strings.Contains(pattern, "/") {
			if matched, _ := filepath.Match(pattern, slashed); matched {
				return true
			}
		}
	}

	return false
}

// Error is a configuration error. It is always fatal.
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a configuration error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
