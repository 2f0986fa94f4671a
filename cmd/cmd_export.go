// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jcodagnone/latlong/places"
)

type exportOptions struct {
	Format string
	Output string
}

var exportOpts = &exportOptions{}

var exportCmd = &cobra.Command{
	Use:   "export <places.json>",
	Short: "Export a places file as CSV or XLSX without fetching",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		format, err := places.ParseFormat(exportOpts.Format)
		if err != nil {
			return err
		}

		c, err := places.Load(args[0])
		if err != nil {
			return err
		}

		path := exportOpts.Output
		if path == "" {
			path = places.ExportPath(args[0], format)
		}

		if err := c.Export(path, format); err != nil {
			return err
		}

		zap.L().Info("exported", zap.String("path", path), zap.Int("places", c.Len()))

		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <places.csv|places.xlsx> <places.json>",
	Short: "Build a places file from a CSV or XLSX export",
	Long: `Reads the key, name, gmaps_url, latitude and longitude columns and writes
them as a places file. Existing places with the same key are replaced, others
are kept.`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		imported, err := places.Import(args[0])
		if err != nil {
			return err
		}

		c := places.NewCollection()

		if _, err := os.Stat(args[1]); err == nil {
			if c, err = places.Load(args[1]); err != nil {
				return err
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		for _, r := range imported.Records {
			c.Add(r)
		}

		if err := c.Save(args[1]); err != nil {
			return err
		}

		fmt.Printf("%d places imported into %s (%d total)\n", imported.Len(), args[1], c.Len())

		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	exportCmd.Flags().StringVar(
		&exportOpts.Format,
		"output-format",
		"csv",
		"Export format: csv, xlsx or json",
	)
	exportCmd.Flags().StringVar(
		&exportOpts.Output,
		"output",
		"",
		"Export file. Defaults to the input name with the format extension",
	)
}
