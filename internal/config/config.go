package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const (
	SlotFile   = "file"
	SlotSQLite = "sqlite"

	fileName = "config.yaml"
)

// Config holds every setting. Precedence, lowest first: Default, the YAML
// file, QRGEN_* environment variables, then command-line flags applied by
// the caller.
type Config struct {
	DataDir string `yaml:"data_dir"`
	Slot    string `yaml:"slot"`

	Mirror struct {
		URL        string `yaml:"url"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"mirror"`

	UI struct {
		PageSize int    `yaml:"page_size"`
		Theme    string `yaml:"theme"`
	} `yaml:"ui"`

	Export struct {
		Dir  string `yaml:"dir"`
		Size int    `yaml:"size"`
	} `yaml:"export"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func Default() *Config {
	var c Config
	c.DataDir = "~/.qrgen"
	c.Slot = SlotFile
	c.Mirror.TimeoutSec = 10
	c.UI.PageSize = 3
	c.UI.Theme = "classic"
	c.Export.Dir = "."
	c.Export.Size = 1500
	c.Logging.Level = "info"
	return &c
}

// Load reads path, or <data dir>/config.yaml when path is empty. Only an
// explicitly named file has to exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if dir := os.Getenv("QRGEN_DATA_DIR"); dir != "" {
		cfg.DataDir = dir
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(ExpandHome(cfg.DataDir), fileName)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// overrideWithEnv applies QRGEN_* variables over file values.
func overrideWithEnv(cfg *Config) error {
	if v := os.Getenv("QRGEN_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRGEN_SLOT"); v != "" {
		cfg.Slot = v
	}
	if v := os.Getenv("QRGEN_MIRROR_URL"); v != "" {
		cfg.Mirror.URL = v
	}
	if v := os.Getenv("QRGEN_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("QRGEN_EXPORT_DIR"); v != "" {
		cfg.Export.Dir = v
	}
	if v := os.Getenv("QRGEN_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("QRGEN_PAGE_SIZE: %w", err)
		}
		cfg.UI.PageSize = n
	}
	return nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data dir is required")
	}
	if c.Slot != SlotFile && c.Slot != SlotSQLite {
		return fmt.Errorf("unknown slot %q (want %s or %s)", c.Slot, SlotFile, SlotSQLite)
	}
	if c.UI.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.UI.PageSize)
	}
	if c.Export.Size <= 0 {
		return fmt.Errorf("export size must be positive, got %d", c.Export.Size)
	}
	if c.Mirror.URL != "" {
		u, err := url.Parse(c.Mirror.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid mirror URL: %s", c.Mirror.URL)
		}
	}
	if c.Mirror.TimeoutSec <= 0 {
		return errors.New("mirror timeout must be positive")
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	return nil
}

func (c *Config) Dir() string { return ExpandHome(c.DataDir) }

func (c *Config) LogPath() string    { return filepath.Join(c.Dir(), "qrgen.log") }
func (c *Config) SQLitePath() string { return filepath.Join(c.Dir(), "qrgen.db") }

func (c *Config) MirrorTimeout() time.Duration {
	return time.Duration(c.Mirror.TimeoutSec) * time.Second
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
