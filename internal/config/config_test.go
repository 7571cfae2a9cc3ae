package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"QRGEN_DATA_DIR", "QRGEN_SLOT", "QRGEN_MIRROR_URL", "QRGEN_LOG_LEVEL", "QRGEN_EXPORT_DIR", "QRGEN_PAGE_SIZE"} {
		t.Setenv(k, "")
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("QRGEN_DATA_DIR", dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Dir() != dir || cfg.UI.PageSize != 3 || cfg.Slot != SlotFile {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.LogPath() != filepath.Join(dir, "qrgen.log") {
		t.Errorf("LogPath() = %s", cfg.LogPath())
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	body := `
slot: sqlite
mirror:
  url: http://localhost:8080
  timeout_sec: 3
ui:
  page_size: 5
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("QRGEN_PAGE_SIZE", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Slot != SlotSQLite || cfg.Mirror.URL != "http://localhost:8080" || cfg.Logging.Level != "debug" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.UI.PageSize != 7 {
		t.Errorf("page size = %d, env should win", cfg.UI.PageSize)
	}
	if cfg.MirrorTimeout() != 3*time.Second {
		t.Errorf("timeout = %v", cfg.MirrorTimeout())
	}
	if cfg.Export.Size != 1500 {
		t.Errorf("unset keys lost their defaults: %+v", cfg.Export)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadRejectsBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("QRGEN_DATA_DIR", t.TempDir())
	t.Setenv("QRGEN_PAGE_SIZE", "three")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "QRGEN_PAGE_SIZE") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"slot", func(c *Config) { c.Slot = "redis" }},
		{"page size", func(c *Config) { c.UI.PageSize = 0 }},
		{"mirror scheme", func(c *Config) { c.Mirror.URL = "ftp://x" }},
		{"mirror relative", func(c *Config) { c.Mirror.URL = "localhost:8080" }},
		{"timeout", func(c *Config) { c.Mirror.TimeoutSec = 0 }},
		{"level", func(c *Config) { c.Logging.Level = "loud" }},
		{"export size", func(c *Config) { c.Export.Size = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatal("Validate() = nil, want error")
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	if got := ExpandHome("~/.qrgen"); got != filepath.Join(home, ".qrgen") {
		t.Errorf("ExpandHome = %s", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Errorf("ExpandHome(/abs) = %s", got)
	}
}
