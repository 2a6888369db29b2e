// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the detection settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cardscape/encounters/detection"
	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheDuckDB = "duckdb"
)

// Config is the complete configuration of the tool.
type Config struct {
	Detection DetectionConfig `yaml:"detection"`
	Radius    RadiusConfig    `yaml:"radius"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
}

type DetectionConfig struct {
	TimeWindowDays int     `yaml:"time_window_days"`
	MaxEvents      int     `yaml:"max_events"`
	MergeThreshold float64 `yaml:"merge_threshold"`
}

// RadiusConfig overrides the radius tables. Maps are merged over the defaults.
type RadiusConfig struct {
	Base        map[string]int     `yaml:"base"`
	Default     int                `yaml:"default"`
	Min         int                `yaml:"min"`
	Max         int                `yaml:"max"`
	CityFactors map[string]float64 `yaml:"city_factors"`
}

type CacheConfig struct {
	Backend string       `yaml:"backend"`
	TTL     Duration     `yaml:"ttl"`
	Redis   RedisConfig  `yaml:"redis"`
	DuckDB  DuckDBConfig `yaml:"duckdb"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type DuckDBConfig struct {
	Path string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Duration is a time.Duration written as "24h" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Detection: DetectionConfig{
			TimeWindowDays: detection.DefaultTimeWindowDays,
			MaxEvents:      500,
			MergeThreshold: detection.MergeThreshold,
		},
		Radius: RadiusConfig{
			Default: detection.DefaultRadius,
			Min:     detection.MinRadius,
			Max:     detection.MaxRadius,
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			TTL:     Duration(detection.DefaultCacheTTL),
			Redis:   RedisConfig{Addr: "localhost:6379"},
			DuckDB:  DuckDBConfig{Path: "encounters.duckdb"},
		},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads the YAML file at path over the defaults and applies the
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path is provided by the operator
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("ENCOUNTERS_CACHE"); ok {
		c.Cache.Backend = v
	}

	if v, ok := lookup("ENCOUNTERS_REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}

	if v, ok := lookup("ENCOUNTERS_REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}

	if v, ok := lookup("ENCOUNTERS_REDIS_DB"); ok {
		db, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "cache.redis.db", Message: "ENCOUNTERS_REDIS_DB must be an integer", Err: err}
		}

		c.Cache.Redis.DB = db
	}

	return nil
}

// Validate checks the configuration for inconsistent values.
func (c *Config) Validate() error {
	var errs []error

	if c.Detection.TimeWindowDays < 0 {
		errs = append(errs, &ConfigError{Field: "detection.time_window_days", Message: "must not be negative"})
	}

	if c.Detection.MaxEvents < 0 {
		errs = append(errs, &ConfigError{Field: "detection.max_events", Message: "must not be negative"})
	}

	if c.Detection.MergeThreshold < 0 || c.Detection.MergeThreshold > 1 {
		errs = append(errs, &ConfigError{Field: "detection.merge_threshold", Message: "must be between 0 and 1"})
	}

	if c.Radius.Default <= 0 {
		errs = append(errs, &ConfigError{Field: "radius.default", Message: "must be positive"})
	}

	if c.Radius.Min <= 0 || c.Radius.Min > c.Radius.Max {
		errs = append(errs, &ConfigError{
			Field:   "radius.min",
			Message: fmt.Sprintf("must be positive and not above radius.max (%d > %d)", c.Radius.Min, c.Radius.Max),
		})
	}

	for category, r := range c.Radius.Base {
		if category == "default" {
			errs = append(errs, &ConfigError{Field: "radius.base.default", Message: "set radius.default instead"})

			continue
		}

		if r <= 0 {
			errs = append(errs, &ConfigError{Field: "radius.base." + category, Message: "must be positive"})
		}
	}

	for city, f := range c.Radius.CityFactors {
		if f <= 0 {
			errs = append(errs, &ConfigError{Field: "radius.city_factors." + city, Message: "must be positive"})
		}
	}

	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis, CacheDuckDB:
	default:
		errs = append(errs, &ConfigError{Field: "cache.backend", Message: fmt.Sprintf("unknown backend %q", c.Cache.Backend)})
	}

	return errors.Join(errs...)
}

// RadiusPolicy builds the radius policy described by the configuration.
func (c *Config) RadiusPolicy() *detection.RadiusPolicy {
	return detection.NewRadiusPolicy(
		detection.WithBaseRadii(c.Radius.Base),
		detection.WithDefaultRadius(c.Radius.Default),
		detection.WithCityFactors(c.Radius.CityFactors),
		detection.WithRadiusBounds(c.Radius.Min, c.Radius.Max),
	)
}

// DetectorOptions returns the detector options described by the configuration.
// The cache is wired separately since it owns external resources.
func (c *Config) DetectorOptions() []detection.Option {
	return []detection.Option{
		detection.WithRadiusPolicy(c.RadiusPolicy()),
		detection.WithMergeThreshold(c.Detection.MergeThreshold),
		detection.WithMaxEvents(c.Detection.MaxEvents),
		detection.WithTimeWindowDays(c.Detection.TimeWindowDays),
	}
}
