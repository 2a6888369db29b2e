// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"github.com/cardscape/encounters/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		detector, closeDetector, err := newDetector()
		if err != nil {
			return err
		}
		defer closeDetector()

		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}

		return api.NewServer(detector).Run(addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
}
