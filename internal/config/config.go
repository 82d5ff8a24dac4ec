// Package config loads and validates the codescope configuration.
//
// Configuration is resolved in three layers, later layers winning:
//  1. built-in defaults
//  2. .codescope.yaml in the project root
//  3. CODESCOPE_* environment variables
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	coderr "github.com/codescope-dev/codescope/internal/errors"
)

// ConfigFileName is the per-project configuration file.
const ConfigFileName = ".codescope.yaml"

// StateDirName is the per-project state directory (history database,
// instance lock). It is always excluded from scans.
const StateDirName = ".codescope"

// Config represents the complete codescope configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Root    string        `yaml:"root" json:"root"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Scan    ScanConfig    `yaml:"scan" json:"scan"`
	History HistoryConfig `yaml:"history" json:"history"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	// Port is the listen port (default: 3737).
	Port int `yaml:"port" json:"port"`
	// ExportDir is the directory of export artifacts served verbatim,
	// relative to the project root (default: "export").
	ExportDir string `yaml:"export_dir" json:"export_dir"`
}

// ScanConfig configures the periodic tree scan.
type ScanConfig struct {
	// Interval is how often a full rescan runs (e.g. "30s").
	Interval string `yaml:"interval" json:"interval"`
	// IgnoreDirs are directory names skipped anywhere in the tree
	// (exact segment match).
	IgnoreDirs []string `yaml:"ignore_dirs" json:"ignore_dirs"`
	// MaxFileSizeMB is the largest file fingerprinted (default: 10).
	MaxFileSizeMB int `yaml:"max_file_size_mb" json:"max_file_size_mb"`
	// Workers is the fingerprint worker count (0 = NumCPU).
	Workers int `yaml:"workers" json:"workers"`
}

// HistoryConfig configures the fingerprint store.
type HistoryConfig struct {
	// Path is the SQLite database location, relative to the project
	// root unless absolute (default: .codescope/history.db).
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// defaultIgnoreDirs are directory names never descended into.
var defaultIgnoreDirs = []string{
	"target",
	".git",
	"node_modules",
	".next",
	"dist",
	"build",
	"__pycache__",
	".vscode",
	".idea",
	"export",
	StateDirName,
}

// Default returns the built-in configuration for the given project root.
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Root:    root,
		Server: ServerConfig{
			Port:      3737,
			ExportDir: "export",
		},
		Scan: ScanConfig{
			Interval:      "30s",
			IgnoreDirs:    append([]string(nil), defaultIgnoreDirs...),
			MaxFileSizeMB: 10,
		},
		History: HistoryConfig{
			Path: filepath.Join(StateDirName, "history.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load resolves the configuration for a project root.
// A missing config file is not an error; defaults apply.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, coderr.New(coderr.ErrCodeConfigInvalid, "cannot resolve project root", err)
	}

	cfg := Default(absRoot)

	path := filepath.Join(absRoot, ConfigFileName)
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, coderr.New(coderr.ErrCodeConfigInvalid, fmt.Sprintf("cannot read %s", path), err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, coderr.New(coderr.ErrCodeConfigInvalid, fmt.Sprintf("cannot parse %s", path), err)
		}
		// The file must not silently relocate the tree being scanned.
		cfg.Root = absRoot
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays CODESCOPE_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CODESCOPE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CODESCOPE_SCAN_INTERVAL"); v != "" {
		cfg.Scan.Interval = v
	}
	if v := os.Getenv("CODESCOPE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CODESCOPE_EXPORT_DIR"); v != "" {
		cfg.Server.ExportDir = v
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return coderr.New(coderr.ErrCodeConfigInvalid, fmt.Sprintf("invalid port %d", c.Server.Port), nil)
	}
	if _, err := time.ParseDuration(c.Scan.Interval); err != nil {
		return coderr.New(coderr.ErrCodeConfigInvalid, fmt.Sprintf("invalid scan interval %q", c.Scan.Interval), err)
	}
	if c.Scan.MaxFileSizeMB <= 0 {
		return coderr.New(coderr.ErrCodeConfigInvalid, "max_file_size_mb must be positive", nil)
	}
	info, err := os.Stat(c.Root)
	if err != nil {
		return coderr.New(coderr.ErrCodeConfigInvalid, fmt.Sprintf("project root %s not accessible", c.Root), err)
	}
	if !info.IsDir() {
		return coderr.New(coderr.ErrCodeConfigInvalid, fmt.Sprintf("project root %s is not a directory", c.Root), nil)
	}
	return nil
}

// ScanInterval returns the parsed rescan interval.
// Validate guarantees the value parses.
func (c *Config) ScanInterval() time.Duration {
	d, err := time.ParseDuration(c.Scan.Interval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// MaxFileSize returns the fingerprint size cap in bytes.
func (c *Config) MaxFileSize() int64 {
	return int64(c.Scan.MaxFileSizeMB) * 1024 * 1024
}

// HistoryPath returns the absolute history database path.
func (c *Config) HistoryPath() string {
	if filepath.IsAbs(c.History.Path) {
		return c.History.Path
	}
	return filepath.Join(c.Root, c.History.Path)
}

// ExportPath returns the absolute export artifact directory.
func (c *Config) ExportPath() string {
	if filepath.IsAbs(c.Server.ExportDir) {
		return c.Server.ExportDir
	}
	return filepath.Join(c.Root, c.Server.ExportDir)
}

// StateDir returns the absolute per-project state directory.
func (c *Config) StateDir() string {
	return filepath.Join(c.Root, StateDirName)
}
