package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.Imports.SearchPath)
	assert.Equal(t, "go", cfg.Runtime.GoCompiler)
	assert.True(t, cfg.SourceMap.Enabled)
	assert.Equal(t, FormatInline, cfg.SourceMap.Format)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    *Config
		wantError bool
	}{
		{"valid default", DefaultConfig(), false},
		{
			name: "invalid sourcemap format",
			config: &Config{
				Runtime:   RuntimeConfig{GoCompiler: "go"},
				SourceMap: SourceMapConfig{Format: SourceMapFormat("bad_format")},
			},
			wantError: true,
		},
		{
			name: "empty compiler",
			config: &Config{
				Runtime:   RuntimeConfig{GoCompiler: ""},
				SourceMap: SourceMapConfig{Format: FormatInline},
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func withTempProject(t *testing.T) string {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "rbscript-test-*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	oldWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(oldWd) })
	require.NoError(t, os.Chdir(tmpDir))

	oldHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })

	return tmpDir
}

func TestLoadConfigNoFiles(t *testing.T) {
	withTempProject(t)

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "go", cfg.Runtime.GoCompiler)
}

func TestLoadConfigProjectFile(t *testing.T) {
	tmpDir := withTempProject(t)

	projectConfig := `[runtime]
go_compiler = "go1.22"

[sourcemaps]
enabled = true
format = "separate"
`
	configPath := filepath.Join(tmpDir, "rbscript.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(projectConfig), 0o644))

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "go1.22", cfg.Runtime.GoCompiler)
	assert.Equal(t, FormatSeparate, cfg.SourceMap.Format)
}

func TestLoadConfigCLIOverride(t *testing.T) {
	tmpDir := withTempProject(t)

	projectConfig := `[runtime]
go_compiler = "go1.22"
`
	configPath := filepath.Join(tmpDir, "rbscript.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(projectConfig), 0o644))

	overrides := &Config{Runtime: RuntimeConfig{GoCompiler: "go1.23"}}

	cfg, err := Load(overrides)
	require.NoError(t, err)
	assert.Equal(t, "go1.23", cfg.Runtime.GoCompiler)
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	tmpDir := withTempProject(t)

	invalidConfig := "[runtime\ngo_compiler = \"go\" # missing bracket\n"
	configPath := filepath.Join(tmpDir, "rbscript.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(invalidConfig), 0o644))

	_, err := Load(nil)
	assert.Error(t, err)
}

func TestLoadConfigInvalidValue(t *testing.T) {
	tmpDir := withTempProject(t)

	invalidConfig := `[sourcemaps]
format = "bogus"
`
	configPath := filepath.Join(tmpDir, "rbscript.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(invalidConfig), 0o644))

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
