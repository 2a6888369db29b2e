// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/cardscape/encounters/config"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the persistent radius cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Removes expired entries from the DuckDB cache",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Cache.Backend != config.CacheDuckDB {
			return fmt.Errorf("purge needs the %s cache backend, configured backend is %s", config.CacheDuckDB, cfg.Cache.Backend)
		}

		dc, err := openDuckDBCache(cfg.Cache.DuckDB.Path)
		if err != nil {
			return err
		}
		defer dc.DB().Close()

		purged, err := dc.Purge(cmd.Context())
		if err != nil {
			return err
		}

		remaining, err := dc.Count(cmd.Context())
		if err != nil {
			return err
		}

		log.Printf("Purged %d expired entries, %d remaining", purged, remaining)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}
