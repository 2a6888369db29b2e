// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"sync"

	"github.com/cardscape/encounters/detection"
	"github.com/cardscape/encounters/utils/textutils"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type detectOptions struct {
	MaxProcs int
	Pretty   bool
}

var detectOpts = &detectOptions{}

// detectResult is one line of the detect command output.
type detectResult struct {
	File        string                      `json:"file"`
	Suggestions []detection.GroupSuggestion `json:"suggestions"`
	Error       string                      `json:"error,omitempty"`
}

var detectCmd = &cobra.Command{
	Use:   "detect FILE...",
	Short: "Detects event clusters in request files",
	Long: `Reads detection requests ({"events": [...], "contacts": [...], "existingGroups": [...]})
from each file, or from stdin when the file is "-", and prints one JSON line per
file with the suggested groups.

$ encounters detect requests/*.json
{"file":"requests/ces.json","suggestions":[{"id":"…","name":"CES in Las Vegas",…}]}
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detector, closeDetector, err := newDetector()
		if err != nil {
			return err
		}
		defer closeDetector()

		results := detectFiles(cmd.Context(), detector, args, detectOpts.MaxProcs)

		enc := json.NewEncoder(os.Stdout)
		if detectOpts.Pretty {
			enc.SetIndent("", "  ")
		}

		failed, total := 0, 0

		for _, r := range results {
			if r.Error != "" {
				failed++
			}

			total += len(r.Suggestions)

			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("writing results: %w", err)
			}
		}

		log.Printf(
			"Detection complete - %s suggestions from %s files, %d failed",
			textutils.FormatInt(int64(total)),
			textutils.FormatInt(int64(len(results))),
			failed,
		)

		if failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(results))
		}

		return nil
	},
}

// detectFiles runs the detector over every file with at most maxProcs files in
// flight. Results keep the order of files.
func detectFiles(ctx context.Context, detector *detection.Detector, files []string, maxProcs int) []detectResult {
	if maxProcs <= 0 {
		maxProcs = runtime.NumCPU()
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var bar *progressbar.ProgressBar
	if len(files) > 1 && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Detecting"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	results := make([]detectResult, len(files))
	semaphore := make(chan struct{}, maxProcs)

	var wg sync.WaitGroup

	for i, file := range files {
		wg.Add(1)

		go func(i int, file string) {
			defer wg.Done()
			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			results[i] = detectFile(ctx, detector, file)

			if bar == nil {
				log.Printf("Detected %s", file)
			} else if err := bar.Add(1); err != nil {
				log.Printf("Updating progress bar for %s - %s", file, err)
			}
		}(i, file)
	}

	wg.Wait()

	return results
}

func detectFile(ctx context.Context, detector *detection.Detector, file string) detectResult {
	result := detectResult{File: file, Suggestions: []detection.GroupSuggestion{}}

	req, err := readRequest(file)
	if err != nil {
		result.Error = err.Error()
		log.Printf("Detection failed - %s", err)

		return result
	}

	suggestions, err := detector.Detect(ctx, req)
	if err != nil {
		result.Error = err.Error()
		log.Printf("Detection failed - %s: %s", file, err)

		return result
	}

	result.Suggestions = suggestions

	return result
}

func readRequest(file string) (detection.Request, error) {
	var req detection.Request

	var r io.Reader = os.Stdin

	if file != "-" {
		f, err := os.Open(file) // #nosec G304 - files are provided by the operator
		if err != nil {
			return req, fmt.Errorf("opening %s: %w", file, err)
		}
		defer f.Close()

		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("decoding %s: %w", file, err)
	}

	return req, nil
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().IntVar(
		&detectOpts.MaxProcs,
		"max-procs",
		0,
		"Max number of files processed concurrently. Defaults to the number of CPUs",
	)
	detectCmd.Flags().BoolVar(
		&detectOpts.Pretty,
		"pretty",
		false,
		"Indent the JSON output",
	)
}
