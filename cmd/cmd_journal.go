// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jcodagnone/latlong/journal"
	"github.com/jcodagnone/latlong/utils/textutils"
)

var journalPath string

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the attempt journal written by fetch --journal",
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Outcome counts per run",
	RunE: func(_ *cobra.Command, _ []string) error {
		db, err := journal.Open(journalPath)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := journal.Stats(db)
		if err != nil {
			return err
		}

		a, b, c := strings.Repeat("─", 36), strings.Repeat("─", 19), strings.Repeat("─", 40)
		fmt.Printf("╭─%s─┬─%s─┬─%s─╮\n", a, b, c)
		fmt.Printf("│ %-36s │ %-19s │ %-40s │\n", "Run", "Started", "Counts")
		fmt.Printf("├─%s─┼─%s─┼─%s─┤\n", a, b, c)

		for _, s := range stats {
			fmt.Printf("│ %-36s │ %-19s │ %-40s │\n",
				s.RunID,
				s.StartedAt.Local().Format("2006-01-02 15:04:05"),
				fmt.Sprintf("%s resolved, %s failed, %s skipped",
					textutils.FormatInt(int64(s.Resolved)),
					textutils.FormatInt(int64(s.Failed)),
					textutils.FormatInt(int64(s.Skipped))),
			)

			outcomes := make([]string, 0, len(s.Outcomes))
			for k := range s.Outcomes {
				outcomes = append(outcomes, k)
			}

			sort.Strings(outcomes)

			for _, k := range outcomes {
				fmt.Printf("│ %-36s │ %-19s │ %-40s │\n", "", k, textutils.FormatInt(int64(s.Outcomes[k])))
			}
		}

		fmt.Printf("╰─%s─┴─%s─┴─%s─╯\n", a, b, c)

		return nil
	},
}

var journalHistoryCmd = &cobra.Command{
	Use:   "history <key>",
	Short: "Results recorded for one place, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		db, err := journal.Open(journalPath)
		if err != nil {
			return err
		}
		defer db.Close()

		history, err := journal.History(db, args[0])
		if err != nil {
			return err
		}

		for _, r := range history {
			what := r.Reason
			if r.Point != nil {
				what = r.Lat + "," + r.Lng
			}

			fmt.Printf("%s\t%s\t%-9s\t%d attempts\t%s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.RunID, r.Status, r.Attempts, what)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalStatsCmd)
	journalCmd.AddCommand(journalHistoryCmd)
	journalCmd.PersistentFlags().StringVar(
		&journalPath,
		"journal",
		"latlong.duckdb",
		"DuckDB journal file",
	)
}
