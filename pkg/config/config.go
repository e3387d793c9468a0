// Package config provides configuration management for the rbscript toolchain
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SourceMapFormat represents the transpiler source map output format
type SourceMapFormat string

const (
	// FormatInline embeds source maps as comments in generated Go files
	FormatInline SourceMapFormat = "inline"

	// FormatSeparate writes source maps to .go.map files
	FormatSeparate SourceMapFormat = "separate"

	// FormatNone disables source map generation
	FormatNone SourceMapFormat = "none"
)

// Config represents the complete rbscript project configuration
type Config struct {
	Imports   ImportConfig    `toml:"imports"`
	Runtime   RuntimeConfig   `toml:"runtime"`
	SourceMap SourceMapConfig `toml:"sourcemaps"`
}

// ImportConfig controls how the import resolver locates "import" targets
type ImportConfig struct {
	// SearchPath lists extra directories, relative to the cwd, searched
	// after the file's own directory and the cwd itself but before the
	// built-in lib/stdlib/library fallback when resolving `import "name";`.
	SearchPath []string `toml:"search_path"`
}

// RuntimeConfig controls interpreter/transpiler runtime behavior
type RuntimeConfig struct {
	// RandomSeed, when non-zero, overrides the default wall-clock seed.
	RandomSeed int64 `toml:"random_seed"`

	// GoCompiler is the external native compiler invoked in compile mode.
	GoCompiler string `toml:"go_compiler"`
}

// SourceMapConfig controls source map generation
type SourceMapConfig struct {
	Enabled bool            `toml:"enabled"`
	Format  SourceMapFormat `toml:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Imports: ImportConfig{
			SearchPath: nil,
		},
		Runtime: RuntimeConfig{
			GoCompiler: "go",
		},
		SourceMap: SourceMapConfig{
			Enabled: true,
			Format:  FormatInline,
		},
	}
}

// Load loads configuration from multiple sources with precedence:
// 1. CLI overrides (highest priority)
// 2. Project rbscript.toml (current directory)
// 3. User config (~/.rbscript/config.toml)
// 4. Built-in defaults (lowest priority)
func Load(overrides *Config) (*Config, error) {
	cfg := DefaultConfig()

	userConfigPath := filepath.Join(os.Getenv("HOME"), ".rbscript", "config.toml")
	if err := loadConfigFile(userConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}

	projectConfigPath := "rbscript.toml"
	if err := loadConfigFile(projectConfigPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if overrides != nil {
		if overrides.Runtime.GoCompiler != "" {
			cfg.Runtime.GoCompiler = overrides.Runtime.GoCompiler
		}
		if overrides.Runtime.RandomSeed != 0 {
			cfg.Runtime.RandomSeed = overrides.Runtime.RandomSeed
		}
		if overrides.SourceMap.Format != "" {
			cfg.SourceMap.Format = overrides.SourceMap.Format
		}
		if len(overrides.Imports.SearchPath) > 0 {
			cfg.Imports.SearchPath = overrides.Imports.SearchPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadConfigFile loads a TOML configuration file into the provided config.
// A missing file is not an error; defaults remain in place.
func loadConfigFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.SourceMap.Format {
	case FormatInline, FormatSeparate, FormatNone:
	default:
		return fmt.Errorf("invalid sourcemap format: %q (must be 'inline', 'separate', or 'none')",
			c.SourceMap.Format)
	}
	if c.Runtime.GoCompiler == "" {
		return fmt.Errorf("runtime.go_compiler must not be empty")
	}
	return nil
}
