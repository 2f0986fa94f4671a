// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import "strings"

// DetectChallenge reports whether the current URL or the visible text show
// an automation challenge, and the marker that matched.
func (p *Patterns) DetectChallenge(currentURL, text string) (bool, string) {
	if u := strings.ToLower(currentURL); u != "" {
		for _, m := range p.captchaURL {
			if strings.Contains(u, m) {
				return true, m
			}
		}
	}

	if t := strings.ToLower(text); t != "" {
		// curly apostrophes are common in rendered text
		t = strings.ReplaceAll(t, "’", "'")

		for _, m := range p.captchaText {
			if strings.Contains(t, m) {
				return true, m
			}
		}
	}

	return false, ""
}
