// Package config provides configuration types, defaults and validation for
// veriforge.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/veriforge/veriforge/internal/log"
	"github.com/veriforge/veriforge/internal/tracing"
)

// Config holds all configuration options.
type Config struct {
	// OutputDir is the directory new projects are created under.
	// Default: current directory.
	OutputDir string `mapstructure:"output_dir"`

	// OnConflict is "abort" (default) or "overwrite".
	OnConflict string `mapstructure:"on_conflict"`

	// CatalogDir holds user catalog overlays (*.yaml, *.yml).
	// Default: ~/.config/veriforge/catalog
	CatalogDir string `mapstructure:"catalog_dir"`

	Debug   bool   `mapstructure:"debug"`
	LogFile string `mapstructure:"log_file"` // debug log destination

	Tracing tracing.Config `mapstructure:"tracing"`
}

// DefaultConfigPath is the project-local config file.
const DefaultConfigPath = ".veriforge/config.yaml"

// UserConfigDir returns ~/.config/veriforge, or "" when the home directory
// is unavailable.
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "veriforge")
}

// DefaultCatalogDir returns ~/.config/veriforge/catalog.
func DefaultCatalogDir() string {
	dir := UserConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "catalog")
}

// DefaultTracesFilePath returns ~/.config/veriforge/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	dir := UserConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with default values.
func Defaults() Config {
	tr := tracing.DefaultConfig()
	tr.FilePath = DefaultTracesFilePath()
	return Config{
		OutputDir:  ".",
		OnConflict: "abort",
		CatalogDir: DefaultCatalogDir(),
		LogFile:    "debug.log",
		Tracing:    tr,
	}
}

// Validate checks every option, naming the offending key.
func (c Config) Validate() error {
	switch c.OnConflict {
	case "", "abort", "overwrite":
	default:
		return fmt.Errorf("on_conflict must be \"abort\" or \"overwrite\", got %q", c.OnConflict)
	}
	if c.OutputDir != "" {
		if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
			return fmt.Errorf("output_dir %q is not a directory", c.OutputDir)
		}
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}

// DefaultConfigTemplate returns the default config as commented YAML.
func DefaultConfigTemplate() string {
	return `# veriforge configuration

# Directory new projects are created under (default: current directory)
output_dir: .

# What to do when a generated file already exists: abort or overwrite
on_conflict: abort

# User catalog overlays: extra protocols, simulators and named templates
# catalog_dir: ~/.config/veriforge/catalog

# Debug logging
debug: false
# log_file: debug.log

# Tracing of generation stages (OpenTelemetry)
# tracing:
#   enabled: true
#   exporter: file        # none, file, stdout or otlp
#   file_path: ~/.config/veriforge/traces/traces.jsonl
#   sample_rate: 1.0
#
# Example: send traces to a collector
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: collector.internal:4317
`
}

// WriteDefaultConfig writes DefaultConfigTemplate to configPath, creating
// the parent directory. An existing file is left alone.
func WriteDefaultConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists", configPath)
	}
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
