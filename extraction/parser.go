// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"net/url"
	"regexp"
)

// ParseURL looks for a coordinate in a Maps URL. The result kind is
// OutcomeSuccess, OutcomeNotFound or OutcomeMalformed; no validation is
// done here.
func (p *Patterns) ParseURL(rawURL string) Outcome {
	// q=40.7%2C-73.9 must match like q=40.7,-73.9
	subject := rawURL
	if unescaped, err := url.QueryUnescape(rawURL); err == nil {
		subject = unescaped
	}

	return match(p.url, subject, "url")
}

// ParseText looks for a labelled coordinate in visible page text.
func (p *Patterns) ParseText(text string) Outcome {
	return match(p.text, text, "page text")
}

func match(patterns []compiledPattern, subject, where string) Outcome {
	if subject == "" {
		return failure(OutcomeNotFound, "empty %s", where)
	}

	for _, pat := range patterns {
		lat, lng, ok := pat.find(subject)
		if !ok {
			continue
		}

		c, err := ParseCoordinate(lat, lng)
		if err != nil {
			return failure(OutcomeMalformed, "%s pattern in %s: %v", pat.source, where, err)
		}

		c.Source = pat.source

		return success(c)
	}

	return failure(OutcomeNotFound, "no coordinate pattern in %s", where)
}

func (c compiledPattern) find(s string) (string, string, bool) {
	if c.pair != nil {
		if m := c.pair.FindStringSubmatch(s); m != nil {
			return m[1], m[2], true
		}

		return "", "", false
	}

	lat := submatch(c.lat, s)
	lng := submatch(c.lng, s)

	if lat == "" || lng == "" {
		return "", "", false
	}

	return lat, lng, true
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}

	return ""
}
