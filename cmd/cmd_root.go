// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cardscape/encounters/cache"
	"github.com/cardscape/encounters/config"
	"github.com/cardscape/encounters/detection"
	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

type rootOptions struct {
	ConfigPath string
	Cache      string
	DbPath     string
	WindowDays int
	MaxEvents  int
}

var (
	rootOpts = &rootOptions{}
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "encounters",
	Short: "detects real world gatherings from where contacts were met",
	Long: `
encounters groups nearby venues where several contacts were met into event
clusters, and suggests them as contact groups ranked by relevance.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var err error

		cfg, err = loadConfig(cmd)

		return err
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the configuration file and applies the flags that were
// explicitly set on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load(rootOpts.ConfigPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("cache") {
		c.Cache.Backend = rootOpts.Cache
	}

	if flags.Changed("db-path") {
		c.Cache.DuckDB.Path = rootOpts.DbPath
	}

	if flags.Changed("window-days") {
		c.Detection.TimeWindowDays = rootOpts.WindowDays
	}

	if flags.Changed("max-events") {
		c.Detection.MaxEvents = rootOpts.MaxEvents
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// openCache opens the configured cache backend. The returned close function
// must be called once the detector is no longer in use.
func openCache(c *config.Config) (detection.Cache, func(), error) {
	switch c.Cache.Backend {
	case config.CacheMemory:
		return cache.NewMemoryCache(), func() {}, nil
	case config.CacheRedis:
		rc := cache.NewRedisCache(c.Cache.Redis.Addr, c.Cache.Redis.Password, c.Cache.Redis.DB)
		if err := rc.Ping(context.Background()); err != nil {
			log.Printf("Redis cache unavailable, radii will be recomputed - %s", err)
		}

		return rc, func() { _ = rc.Close() }, nil
	case config.CacheDuckDB:
		dc, err := openDuckDBCache(c.Cache.DuckDB.Path)
		if err != nil {
			return nil, nil, err
		}

		return dc, func() { _ = dc.DB().Close() }, nil
	default:
		return nil, func() {}, nil
	}
}

func openDuckDBCache(path string) (*cache.DuckDBCache, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	dc := cache.NewDuckDBCache(db)
	if err := dc.CreateSchema(); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("creating cache table: %w", err)
	}

	return dc, nil
}

// newDetector builds the detector described by the loaded configuration.
func newDetector() (*detection.Detector, func(), error) {
	c, closeCache, err := openCache(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := cfg.DetectorOptions()
	if c != nil {
		opts = append(opts, detection.WithCache(c, time.Duration(cfg.Cache.TTL)))
	}

	return detection.NewDetector(opts...), closeCache, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOpts.ConfigPath,
		"config",
		"",
		"YAML configuration file",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOpts.Cache,
		"cache",
		config.CacheMemory,
		"Cache backend: none, memory, redis or duckdb",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOpts.DbPath,
		"db-path",
		"encounters.duckdb",
		"DuckDB file used by the duckdb cache backend",
	)
	rootCmd.PersistentFlags().IntVar(
		&rootOpts.WindowDays,
		"window-days",
		detection.DefaultTimeWindowDays,
		"Days covered by the time range of each cluster",
	)
	rootCmd.PersistentFlags().IntVar(
		&rootOpts.MaxEvents,
		"max-events",
		500,
		"Maximum number of candidate events per request, 0 for no limit",
	)
}
