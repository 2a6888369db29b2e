// Copyright 2025 The Encounters Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cardscape/encounters/api"
	"github.com/cardscape/encounters/detection"
	"github.com/cardscape/encounters/utils/textutils"
	"github.com/spf13/cobra"
)

// isTerminal reports whether f is a character device. When unsure,
// we say that it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

var debugRadiusCmd = &cobra.Command{
	Use:   "radius",
	Short: "Shows the radius selected for venue categories and a city",
	Long: `Reads one "types|city" pair per line, where types is a comma separated list,
and prints the selected radius in meters.

$ echo 'convention_center,museum|Las Vegas' | encounters debug radius
convention_center,museum|Las Vegas	3000
	`,
	RunE: func(_ *cobra.Command, _ []string) error {
		policy := cfg.RadiusPolicy()

		return eachLine("Enter types|city pairs, one per line…", func(line string) error {
			types, city, _ := strings.Cut(line, "|")
			fmt.Printf("%s\t%d\n", line, policy.SelectRadius(textutils.SplitList(types), strings.TrimSpace(city)))

			return nil
		})
	},
}

var debugSimilarityCmd = &cobra.Command{
	Use:   "similarity",
	Short: "Scores pairs of events",
	Long: `Reads one {"a": EVENT, "b": EVENT} object per line and prints the similarity score.

$ echo '{"a":{"name":"Moscone Center"},"b":{"name":"Moscone West"}}' | encounters debug similarity
0.714286	similar	Moscone Center	Moscone West
	`,
	RunE: func(_ *cobra.Command, _ []string) error {
		scorer := detection.NewSimilarityScorer()
		scorer.Threshold = cfg.Detection.MergeThreshold

		return eachLine("Enter event pairs as JSON, one per line…", func(line string) error {
			var pair api.SimilarityRequest
			if err := json.Unmarshal([]byte(line), &pair); err != nil {
				fmt.Printf("%q\t%q\n", line, err)

				return nil
			}

			verdict := "distinct"
			if scorer.Similar(&pair.A, &pair.B) {
				verdict = "similar"
			}

			fmt.Printf("%f\t%s\t%s\t%s\n", scorer.Similarity(&pair.A, &pair.B), verdict, pair.A.Name, pair.B.Name)

			return nil
		})
	},
}

// eachLine calls fn for every non blank line of stdin, prompting first when
// stdin is a terminal.
func eachLine(prompt string, fn func(string) error) error {
	input := os.Stdin
	if isTerminal(input) {
		fmt.Fprintln(os.Stderr, prompt)
	}

	return scanLines(input, fn)
}

func scanLines(r io.Reader, fn func(string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if err := fn(line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	return nil
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugRadiusCmd)
	debugCmd.AddCommand(debugSimilarityCmd)
}
