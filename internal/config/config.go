// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in a workspace root.
const FileName = ".vbsitter.yaml"

// EnvPrefix prefixes environment overrides, e.g. VBSITTER_PARSER_MAX_VERSIONS.
const EnvPrefix = "VBSITTER"

// Config represents the complete configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Parser    ParserConfig    `mapstructure:"parser" yaml:"parser"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`
	LSP       LSPConfig       `mapstructure:"lsp" yaml:"lsp"`
	MCP       MCPConfig       `mapstructure:"mcp" yaml:"mcp"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"` // error, warning, notice, info, debug
	File  string `mapstructure:"file" yaml:"file"`   // empty logs to stderr
}

// ParserConfig contains parse engine limits.
type ParserConfig struct {
	MaxVersions int `mapstructure:"max_versions" yaml:"max_versions"` // concurrent stack versions
}

// CacheConfig configures the compiled table cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"` // sqlite database file
}

// WorkspaceConfig controls which files are parsed and how.
type WorkspaceConfig struct {
	Include  []string      `mapstructure:"include" yaml:"include"`   // glob patterns matched against file names
	Exclude  []string      `mapstructure:"exclude" yaml:"exclude"`   // directory names skipped while scanning
	Workers  int           `mapstructure:"workers" yaml:"workers"`   // 0 = runtime.NumCPU()
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"` // delay before reparsing a changed file
}

// LSPConfig contains language server options.
type LSPConfig struct {
	Diagnostics bool `mapstructure:"diagnostics" yaml:"diagnostics"`
	MaxProblems int  `mapstructure:"max_problems" yaml:"max_problems"` // diagnostics per document
}

// MCPConfig contains MCP server options.
type MCPConfig struct {
	MaxMatches int `mapstructure:"max_matches" yaml:"max_matches"` // query matches returned per call
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "notice",
		},
		Parser: ParserConfig{
			MaxVersions: 8,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    defaultCachePath(),
		},
		Workspace: WorkspaceConfig{
			Include:  []string{"*.vb"},
			Exclude:  []string{".git", "bin", "obj", "node_modules"},
			Workers:  0,
			Debounce: 200 * time.Millisecond,
		},
		LSP: LSPConfig{
			Diagnostics: true,
			MaxProblems: 100,
		},
		MCP: MCPConfig{
			MaxMatches: 200,
		},
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vbsitter", "tables.db")
}

// Path returns the configuration file of a workspace root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Load reads the configuration file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so that environment overrides apply to
// keys the file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("parser.max_versions", cfg.Parser.MaxVersions)
	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("workspace.include", cfg.Workspace.Include)
	v.SetDefault("workspace.exclude", cfg.Workspace.Exclude)
	v.SetDefault("workspace.workers", cfg.Workspace.Workers)
	v.SetDefault("workspace.debounce", cfg.Workspace.Debounce)
	v.SetDefault("lsp.diagnostics", cfg.LSP.Diagnostics)
	v.SetDefault("lsp.max_problems", cfg.LSP.MaxProblems)
	v.SetDefault("mcp.max_matches", cfg.MCP.MaxMatches)
}

var verbosities = map[string]int{
	"error":   -2,
	"warning": -1,
	"notice":  0,
	"info":    1,
	"debug":   2,
}

// Verbosity maps the level to a commonlog verbosity.
func (c LoggingConfig) Verbosity() int {
	if v, ok := verbosities[c.Level]; ok {
		return v
	}
	return verbosities["notice"]
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	if _, ok := verbosities[cfg.Logging.Level]; !ok {
		errs = append(errs, fmt.Errorf("invalid logging level: %s", cfg.Logging.Level))
	}
	if cfg.Parser.MaxVersions < 1 {
		errs = append(errs, fmt.Errorf("parser.max_versions must be at least 1, got %d", cfg.Parser.MaxVersions))
	}
	if cfg.Cache.Enabled && cfg.Cache.Path == "" {
		errs = append(errs, errors.New("cache.path is required when the cache is enabled"))
	}
	if len(cfg.Workspace.Include) == 0 {
		errs = append(errs, errors.New("workspace.include must not be empty"))
	}
	for _, pattern := range cfg.Workspace.Include {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("invalid workspace.include pattern %q: %w", pattern, err))
		}
	}
	if cfg.Workspace.Workers < 0 {
		errs = append(errs, fmt.Errorf("workspace.workers must not be negative, got %d", cfg.Workspace.Workers))
	}
	if cfg.Workspace.Debounce < 0 {
		errs = append(errs, fmt.Errorf("workspace.debounce must not be negative, got %s", cfg.Workspace.Debounce))
	}
	if cfg.LSP.MaxProblems < 0 {
		errs = append(errs, fmt.Errorf("lsp.max_problems must not be negative, got %d", cfg.LSP.MaxProblems))
	}
	if cfg.MCP.MaxMatches < 1 {
		errs = append(errs, fmt.Errorf("mcp.max_matches must be at least 1, got %d", cfg.MCP.MaxMatches))
	}

	return errs
}
