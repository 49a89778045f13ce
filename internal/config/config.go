// Package config loads application configuration from an optional
// config.yaml, MUNIMERGE_* environment variables, and defaults.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Threshold  int              `yaml:"threshold" mapstructure:"threshold"`
	Population PopulationConfig `yaml:"population" mapstructure:"population"`
	Boundaries BoundariesConfig `yaml:"boundaries" mapstructure:"boundaries"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Merge      MergeConfig      `yaml:"merge" mapstructure:"merge"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// PopulationConfig selects the population estimate source.
type PopulationConfig struct {
	Year        int    `yaml:"year" mapstructure:"year"`
	AggregateID int    `yaml:"aggregate_id" mapstructure:"aggregate_id"`
	VariableID  int    `yaml:"variable_id" mapstructure:"variable_id"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`

	// File, when set, reads population from a local estimate spreadsheet
	// instead of the API.
	File string `yaml:"file" mapstructure:"file"`
}

// BoundariesConfig selects the municipal mesh source.
type BoundariesConfig struct {
	Year int    `yaml:"year" mapstructure:"year"`
	URL  string `yaml:"url" mapstructure:"url"`

	// File, when set, reads the mesh from a local .shp or .zip instead of
	// downloading.
	File string `yaml:"file" mapstructure:"file"`
}

// CacheConfig configures the download cache.
type CacheConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// MergeConfig tunes the merge core.
type MergeConfig struct {
	// Tolerance is the boundary-contact epsilon, in coordinate units.
	Tolerance float64 `yaml:"tolerance" mapstructure:"tolerance"`

	// Geodesic selects haversine centroid distances for geographic
	// coordinates.
	Geodesic bool `yaml:"geodesic" mapstructure:"geodesic"`

	// Workers bounds adjacency-test parallelism. 0 means NumCPU.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig configures artefact locations.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml (optional), environment
// variables prefixed MUNIMERGE_, and built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MUNIMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("threshold", 30000)
	v.SetDefault("population.year", 2021)
	v.SetDefault("population.aggregate_id", 6579)
	v.SetDefault("population.variable_id", 9324)
	v.SetDefault("population.base_url", "https://servicodados.ibge.gov.br/api/v3/agregados")
	v.SetDefault("boundaries.year", 2020)
	v.SetDefault("cache.dir", ".munimerge-cache")
	v.SetDefault("merge.tolerance", 1e-9)
	v.SetDefault("merge.geodesic", true)
	v.SetDefault("merge.workers", 0)
	v.SetDefault("output.dir", "output")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if cfg.Threshold <= 0 {
		return nil, eris.Errorf("config: threshold must be positive, got %d", cfg.Threshold)
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
