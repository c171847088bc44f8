// Package config loads techdocgen.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kuntumseroja/techdocgen/pkg/apperr"
	"github.com/kuntumseroja/techdocgen/pkg/depgraph"
	"github.com/kuntumseroja/techdocgen/pkg/logger"
	"github.com/kuntumseroja/techdocgen/pkg/source"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "techdocgen.yaml"

// EnvPrefix prefixes environment overrides, e.g. TECHDOCGEN_ANALYSIS_WORKERS.
const EnvPrefix = "TECHDOCGEN"

// Config represents techdocgen.yaml
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// AnalysisConfig tunes the dependency analysis
type AnalysisConfig struct {
	MaxCycles         int `yaml:"max_cycles" mapstructure:"max_cycles"`
	CouplingThreshold int `yaml:"coupling_threshold" mapstructure:"coupling_threshold"`
	Workers           int `yaml:"workers" mapstructure:"workers"`
}

// SourceConfig selects the files to analyse
type SourceConfig struct {
	Include     []string `yaml:"include" mapstructure:"include"`
	Exclude     []string `yaml:"exclude" mapstructure:"exclude"`
	IgnoreDirs  []string `yaml:"ignore_dirs" mapstructure:"ignore_dirs"`
	MaxFileSize int64    `yaml:"max_file_size" mapstructure:"max_file_size"`
}

// OutputConfig defines where and how results are written
type OutputConfig struct {
	Directory string   `yaml:"directory" mapstructure:"directory"`
	Formats   []string `yaml:"formats" mapstructure:"formats"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	formats := make([]string, 0, len(depgraph.AllFormats))
	for _, f := range depgraph.AllFormats {
		formats = append(formats, string(f))
	}
	return &Config{
		Analysis: AnalysisConfig{
			MaxCycles:         depgraph.DefaultMaxCycles,
			CouplingThreshold: depgraph.DefaultCouplingThreshold,
		},
		Source: SourceConfig{
			Exclude:     []string{"*.min.js", "*.d.ts", "*.spec.ts", "package-lock.json"},
			IgnoreDirs:  append([]string(nil), source.DefaultIgnoreDirs...),
			MaxFileSize: source.DefaultMaxFileSize,
		},
		Output: OutputConfig{
			Directory: "./docs",
			Formats:   formats,
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Load reads configuration through viper. An empty path looks for
// techdocgen.yaml in the working directory and falls back to defaults when
// there is none; an explicit path must exist. Environment variables with the
// TECHDOCGEN_ prefix override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperr.Input("load config", path, err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, apperr.Input("load config", FileName, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperr.Input("load config", v.ConfigFileUsed(), fmt.Errorf("decoding: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperr.Input("load config", v.ConfigFileUsed(), err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("analysis.max_cycles", d.Analysis.MaxCycles)
	v.SetDefault("analysis.coupling_threshold", d.Analysis.CouplingThreshold)
	v.SetDefault("analysis.workers", d.Analysis.Workers)
	v.SetDefault("source.include", d.Source.Include)
	v.SetDefault("source.exclude", d.Source.Exclude)
	v.SetDefault("source.ignore_dirs", d.Source.IgnoreDirs)
	v.SetDefault("source.max_file_size", d.Source.MaxFileSize)
	v.SetDefault("output.directory", d.Output.Directory)
	v.SetDefault("output.formats", d.Output.Formats)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Analysis.MaxCycles < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_cycles must not be negative, got %d", c.Analysis.MaxCycles))
	}
	if c.Analysis.CouplingThreshold < 0 {
		errs = append(errs, fmt.Errorf("analysis.coupling_threshold must not be negative, got %d", c.Analysis.CouplingThreshold))
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must not be negative, got %d", c.Analysis.Workers))
	}
	if _, err := c.ExportFormats(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ExportFormats parses Output.Formats, dropping duplicates.
func (c *Config) ExportFormats() ([]depgraph.Format, error) {
	seen := make(map[depgraph.Format]bool)
	var formats []depgraph.Format
	for _, name := range c.Output.Formats {
		f, err := depgraph.ParseFormat(name)
		if err != nil {
			return nil, fmt.Errorf("output.formats: %w", err)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// SourceOptions maps the source section onto source.Options.
func (c *Config) SourceOptions() source.Options {
	return source.Options{
		Walk: source.WalkOptions{
			IgnoreDirs:     c.Source.IgnoreDirs,
			IgnorePatterns: c.Source.Exclude,
		},
		Include:     c.Source.Include,
		MaxFileSize: c.Source.MaxFileSize,
	}
}

// GraphOptions maps the analysis section onto depgraph.Options.
func (c *Config) GraphOptions() depgraph.Options {
	opts := depgraph.DefaultOptions()
	opts.MaxCycles = c.Analysis.MaxCycles
	opts.CouplingThreshold = c.Analysis.CouplingThreshold
	return opts
}

// SaveConfig writes configuration to a YAML file
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
