package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/kuntumseroja/techdocgen/pkg/depgraph"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, depgraph.DefaultMaxCycles, cfg.Analysis.MaxCycles)
	assert.Equal(t, depgraph.DefaultCouplingThreshold, cfg.Analysis.CouplingThreshold)
	assert.Equal(t, "./docs", cfg.Output.Directory)
	assert.Equal(t, []string{"json", "dot", "mermaid", "markdown"}, cfg.Output.Formats)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
analysis:
  max_cycles: 10
  coupling_threshold: 3
  workers: 4
source:
  include: ["*.cs", "*.ts"]
output:
  directory: out
  formats: [json, md]
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Analysis.MaxCycles)
	assert.Equal(t, 3, cfg.Analysis.CouplingThreshold)
	assert.Equal(t, 4, cfg.Analysis.Workers)
	assert.Equal(t, []string{"*.cs", "*.ts"}, cfg.Source.Include)
	assert.Equal(t, "out", cfg.Output.Directory)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset keys keep their defaults.
	assert.Equal(t, DefaultConfig().Source.IgnoreDirs, cfg.Source.IgnoreDirs)

	formats, err := cfg.ExportFormats()
	require.NoError(t, err)
	assert.Equal(t, []depgraph.Format{depgraph.FormatJSON, depgraph.FormatMarkdown}, formats)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "analysis:\n  coupling_threshold: 3\n")
	t.Setenv("TECHDOCGEN_ANALYSIS_COUPLING_THRESHOLD", "8")
	t.Setenv("TECHDOCGEN_OUTPUT_DIRECTORY", "/tmp/reports")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Analysis.CouplingThreshold)
	assert.Equal(t, "/tmp/reports", cfg.Output.Directory)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assertSameSettings(t, DefaultConfig(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInput))
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative cycles", "analysis:\n  max_cycles: -1\n"},
		{"unknown format", "output:\n  formats: [pdf]\n"},
		{"unknown level", "log:\n  level: loud\n"},
		{"bad yaml", "analysis: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, apperr.KindInput, apperr.KindOf(err))
		})
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	cfg := DefaultConfig()
	cfg.Analysis.Workers = 2

	require.NoError(t, SaveConfig(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assertSameSettings(t, cfg, loaded)
}

func assertSameSettings(t *testing.T, want, got *Config) {
	t.Helper()
	assert.Equal(t, want.Analysis, got.Analysis)
	assert.Equal(t, want.Output, got.Output)
	assert.Equal(t, want.Log, got.Log)
	assert.Empty(t, got.Source.Include)
	assert.Equal(t, want.Source.Exclude, got.Source.Exclude)
	assert.Equal(t, want.Source.IgnoreDirs, got.Source.IgnoreDirs)
	assert.Equal(t, want.Source.MaxFileSize, got.Source.MaxFileSize)
}

func TestOptionsMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Analysis.MaxCycles = 7
	cfg.Source.Exclude = []string{"*.min.js"}

	g := cfg.GraphOptions()
	assert.Equal(t, 7, g.MaxCycles)
	assert.Equal(t, depgraph.DefaultResolveCacheSize, g.ResolveCacheSize)

	s := cfg.SourceOptions()
	assert.Equal(t, []string{"*.min.js"}, s.Walk.IgnorePatterns)
	assert.Equal(t, cfg.Source.MaxFileSize, s.MaxFileSize)
}
