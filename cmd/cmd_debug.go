// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jcodagnone/latlong/extraction"
)

// isTerminal reports whether f is a character device. On errors we say that
// it isn't.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}

	return (info.Mode() & os.ModeCharDevice) != 0
}

type debugOptions struct {
	Patterns    string
	AllowOrigin bool
}

var debugOpts = &debugOptions{}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dev tools",
}

// describe reports how one line is understood: as a URL when it looks like
// one, as page text otherwise.
func describe(w io.Writer, p *extraction.Patterns, v extraction.Validator, line string) {
	var (
		out       extraction.Outcome
		challenge bool
		marker    string
	)

	if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
		out = p.ParseURL(line)
		challenge, marker = p.DetectChallenge(line, "")
	} else {
		out = p.ParseText(line)
		challenge, marker = p.DetectChallenge("", line)
	}

	if challenge {
		fmt.Fprintf(w, "%s\tchallenge (%s)\n", line, marker)

		return
	}

	fmt.Fprintf(w, "%s\t%s\n", line, v.Apply(out))
}

var debugParseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract coordinates from URLs or page text read from stdin",
	Long: `Reads one URL or text fragment per line and prints what the coordinate
parser, the validator and the challenge detector make of it.

$ echo 'https://www.google.com/maps/place/X/@48.8606111,2.337644,17z' | latlong debug parse
https://www.google.com/maps/place/X/@48.8606111,2.337644,17z	success (48.8606111,2.337644 via viewport)`,
	RunE: func(_ *cobra.Command, _ []string) error {
		patterns, err := loadPatterns(debugOpts.Patterns)
		if err != nil {
			return err
		}

		validator := extraction.Validator{AllowOrigin: debugOpts.AllowOrigin}

		input := os.Stdin
		if isTerminal(input) {
			fmt.Fprintln(os.Stderr, "Enter URLs or text to analyze, one per line…")
		}

		scanner := bufio.NewScanner(input)
		scanner.Buffer(make([]byte, 64*1024), 1<<20)

		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			describe(os.Stdout, patterns, validator, line)
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		return nil
	},
}

var debugPatternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Print the effective pattern table as YAML",
	Long: `Prints the coordinate and challenge patterns in use. The output is a valid
--patterns file and a starting point to write one.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		patterns, err := loadPatterns(debugOpts.Patterns)
		if err != nil {
			return err
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)

		if err := enc.Encode(patterns); err != nil {
			return err
		}

		return enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(debugCmd)
	debugCmd.AddCommand(debugParseCmd)
	debugCmd.AddCommand(debugPatternsCmd)
	debugCmd.AddCommand(debugDocumentCmd)
	debugCmd.PersistentFlags().StringVar(
		&debugOpts.Patterns,
		"patterns",
		"",
		"YAML file replacing the built-in coordinate patterns",
	)
	debugCmd.PersistentFlags().BoolVar(
		&debugOpts.AllowOrigin,
		"allow-origin",
		false,
		"Accept (0, 0) as a low confidence coordinate",
	)
}
