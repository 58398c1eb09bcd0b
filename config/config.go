// Package config loads the pipeline settings from a YAML file with
// environment overrides.
package config

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/civicdata/inspectscore/pkg/errors"
)

// Config captures the settings for every pipeline stage.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Prepare  PrepareConfig  `yaml:"prepare"`
	Split    SplitConfig    `yaml:"split"`
	Search   SearchConfig   `yaml:"search"`
	Artifact ArtifactConfig `yaml:"artifact"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig locates the raw violation-level export.
type SourceConfig struct {
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
	Header    bool   `yaml:"header"`
}

// PrepareConfig controls aggregation into per-inspection rows.
type PrepareConfig struct {
	OutputDir string `yaml:"outputDir"`
	Workers   int    `yaml:"workers"`
}

// SplitConfig controls the entity-disjoint train/test split.
type SplitConfig struct {
	TestFraction float64 `yaml:"testFraction"`
	Seed         int64   `yaml:"seed"`
}

// SearchConfig controls the model search run.
type SearchConfig struct {
	Budget          Duration `yaml:"budget"`
	Workers         int      `yaml:"workers"`
	HoldoutFraction float64  `yaml:"holdoutFraction"`
}

// Duration is a time.Duration that unmarshals YAML scalars written as
// Go duration strings ("90s", "5m") or integer nanoseconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		*d = Duration(n)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return errors.Wrap(err, "parse duration")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "parse duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ArtifactConfig locates the persisted model.
type ArtifactConfig struct {
	Path     string `yaml:"path"`
	PlotPath string `yaml:"plotPath"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Load initialises Config from a YAML file and optional environment
// overrides. An empty path falls back to INSPECTSCORE_CONFIG; if that is
// also unset, defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("INSPECTSCORE_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, errors.Wrapf(err, "config file %s not found", path)
			}
			return nil, errors.Wrap(err, "read config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Delimiter: ",",
			Header:    true,
		},
		Prepare: PrepareConfig{
			OutputDir: "data",
		},
		Split: SplitConfig{
			TestFraction: 0.2,
			Seed:         1,
		},
		Search: SearchConfig{
			Budget:          Duration(5 * time.Minute),
			Workers:         1,
			HoldoutFraction: 0.25,
		},
		Artifact: ArtifactConfig{
			Path: "model.gob",
		},
		Logging: LoggingConfig{Level: "info", JSON: true},
	}
}

func (c *Config) validate() error {
	if c.Split.TestFraction <= 0 || c.Split.TestFraction >= 1 {
		return errors.NewValueError("config", fmt.Sprintf("split.testFraction %v outside (0, 1)", c.Split.TestFraction))
	}
	if c.Search.HoldoutFraction <= 0 || c.Search.HoldoutFraction >= 1 {
		return errors.NewValueError("config", fmt.Sprintf("search.holdoutFraction %v outside (0, 1)", c.Search.HoldoutFraction))
	}
	if c.Search.Budget <= 0 {
		return errors.NewValueError("config", "search.budget must be positive")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INSPECTSCORE_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("INSPECTSCORE_OUTPUT_DIR"); v != "" {
		cfg.Prepare.OutputDir = v
	}
	if v := os.Getenv("INSPECTSCORE_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Split.Seed = seed
		}
	}
	if v := os.Getenv("INSPECTSCORE_SEARCH_BUDGET"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Budget = Duration(d)
		}
	}
	if v := os.Getenv("INSPECTSCORE_SEARCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.Workers = n
		}
	}
	if v := os.Getenv("INSPECTSCORE_ARTIFACT_PATH"); v != "" {
		cfg.Artifact.Path = v
	}
	if v := os.Getenv("INSPECTSCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
