// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcodagnone/latlong/utils/textutils"
)

// Print writes the human readable run summary.
func (s Summary) Print(w io.Writer) {
	rule := strings.Repeat("=", 50)
	line := func(label string, n int64) {
		fmt.Fprintf(w, "%-28s %s\n", label+":", textutils.FormatInt(n))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SUMMARY")
	fmt.Fprintln(w, rule)
	line("Total Entries", int64(s.Total))
	line("Updated", int64(s.Updated))
	line("Unchanged", int64(s.Unchanged))
	line("Failed", int64(s.Failed))
	line("Skipped (No Data)", int64(s.Skipped))
	line("Already Resolved", int64(s.Resolved))
	line("Validation Warnings", s.Warnings)
	line("Attempts", s.Metrics.Attempts)
	line("Captchas", s.Metrics.Captchas)
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "%-28s %s\n", "Total Time:", textutils.FormatDuration(s.Elapsed))

	if s.Updated > 0 {
		fmt.Fprintf(w, "%-28s %s\n", "Average Time per Location:", textutils.FormatDuration(s.PerLocation()))
		fmt.Fprintf(w, "%-28s %.2f locations/min\n", "Processing Rate:", s.Rate())
	}

	if s.Interrupted {
		fmt.Fprintln(w, "Run interrupted; progress was saved.")
	}

	fmt.Fprintln(w, rule)
}
