package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if errs := Validate(DefaultConfig()); len(errs) != 0 {
		t.Errorf("Validate(DefaultConfig()) = %v", errs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	data := `
logging:
  level: debug
parser:
  max_versions: 4
workspace:
  include: ["*.vb", "*.bas"]
  debounce: 1s
`
	if err := os.WriteFile(Path(root), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(Path(root))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := DefaultConfig()
	want.Logging.Level = "debug"
	want.Parser.MaxVersions = 4
	want.Workspace.Include = []string{"*.vb", "*.bas"}
	want.Workspace.Debounce = time.Second
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("VBSITTER_PARSER_MAX_VERSIONS", "2")
	t.Setenv("VBSITTER_CACHE_ENABLED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Parser.MaxVersions != 2 {
		t.Errorf("Parser.MaxVersions = %d, want 2", cfg.Parser.MaxVersions)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"no versions", func(c *Config) { c.Parser.MaxVersions = 0 }, true},
		{"cache without path", func(c *Config) { c.Cache.Path = "" }, true},
		{"disabled cache without path", func(c *Config) { c.Cache.Enabled, c.Cache.Path = false, "" }, false},
		{"bad glob", func(c *Config) { c.Workspace.Include = []string{"[*.vb"} }, true},
		{"no includes", func(c *Config) { c.Workspace.Include = nil }, true},
		{"negative workers", func(c *Config) { c.Workspace.Workers = -1 }, true},
		{"zero matches", func(c *Config) { c.MCP.MaxMatches = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			errs := Validate(cfg)
			if hasErr := len(errs) > 0; hasErr != tt.wantErr {
				t.Errorf("Validate hasErr=%v, want %v (%v)", hasErr, tt.wantErr, errs)
			}
		})
	}
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"error", -2},
		{"notice", 0},
		{"debug", 2},
		{"bogus", 0},
	}
	for _, tt := range tests {
		if got := (LoggingConfig{Level: tt.level}).Verbosity(); got != tt.want {
			t.Errorf("Verbosity(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}
