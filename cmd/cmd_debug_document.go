// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/jcodagnone/latlong/browser"
	"github.com/jcodagnone/latlong/extraction"
)

var debugDocumentCmd = &cobra.Command{
	Use:   "document [file]",
	Short: "Read a saved Maps page and extract its coordinate",
	Long: `Reads an HTML document from a file or from stdin, prints the text the http
driver would see, and what the coordinate parser and the challenge detector
make of it.

Examples:
  curl -sL 'https://maps.app.goo.gl/…' | latlong debug document
  latlong debug document ./page.html`,
	RunE: func(_ *cobra.Command, args []string) error {
		var r io.Reader

		if len(args) > 0 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening file: %w", err)
			}
			defer f.Close()

			r = f
		} else {
			r = os.Stdin
			if isTerminal(os.Stdin) {
				fmt.Fprintln(os.Stderr, "Reading from stdin. Paste HTML and press Ctrl+D to finish.")
			}
		}

		doc, err := goquery.NewDocumentFromReader(r)
		if err != nil {
			return fmt.Errorf("parsing html: %w", err)
		}

		patterns, err := loadPatterns(debugOpts.Patterns)
		if err != nil {
			return err
		}

		text := browser.PageText(doc)
		fmt.Println(text)
		fmt.Println("---")

		if challenge, marker := patterns.DetectChallenge("", text); challenge {
			fmt.Printf("challenge (%s)\n", marker)

			return nil
		}

		validator := extraction.Validator{AllowOrigin: debugOpts.AllowOrigin}
		fmt.Println(validator.Apply(patterns.ParseText(text)))

		return nil
	},
}
