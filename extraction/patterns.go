// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	_ "embed" // default pattern table
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed patterns.yaml
var defaultPatternsYAML []byte

// PatternEntry is one entry of the pattern table as written in YAML.
type PatternEntry struct {
	Source string `yaml:"source"`
	Pair   string `yaml:"pair,omitempty"`
	Lat    string `yaml:"lat,omitempty"`
	Lng    string `yaml:"lng,omitempty"`
}

// CaptchaMarkers are case-insensitive substrings that reveal a challenge.
type CaptchaMarkers struct {
	URL  []string `yaml:"url"`
	Text []string `yaml:"text"`
}

// PatternTable is the updatable set of coordinate and challenge patterns.
type PatternTable struct {
	URL     []PatternEntry  `yaml:"url"`
	Text    []PatternEntry  `yaml:"text"`
	Captcha CaptchaMarkers `yaml:"captcha"`
}

type compiledPattern struct {
	source string
	pair   *regexp.Regexp
	lat    *regexp.Regexp
	lng    *regexp.Regexp
}

// Patterns is a compiled PatternTable. It is safe for concurrent use.
type Patterns struct {
	table PatternTable
	url   []compiledPattern
	text  []compiledPattern

	captchaURL  []string
	captchaText []string
}

// DefaultPatternTable returns the embedded pattern table.
func DefaultPatternTable() (PatternTable, error) {
	var t PatternTable
	if err := yaml.Unmarshal(defaultPatternsYAML, &t); err != nil {
		return t, fmt.Errorf("parsing default patterns: %w", err)
	}

	return t, nil
}

// DefaultPatterns returns the compiled embedded pattern table. It panics if
// the embedded table is broken, which is caught by the package tests.
func DefaultPatterns() *Patterns {
	t, err := DefaultPatternTable()
	if err != nil {
		panic(err)
	}

	p, err := t.Compile()
	if err != nil {
		panic(err)
	}

	return p
}

// LoadPatterns reads and compiles a YAML pattern table from path.
func LoadPatterns(path string) (*Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading patterns: %w", err)
	}

	var t PatternTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing patterns %s: %w", path, err)
	}

	p, err := t.Compile()
	if err != nil {
		return nil, fmt.Errorf("compiling patterns %s: %w", path, err)
	}

	return p, nil
}

// Compile validates and compiles every expression of the table.
func (t PatternTable) Compile() (*Patterns, error) {
	if len(t.URL) == 0 {
		return nil, errors.New("pattern table has no url patterns")
	}

	p := &Patterns{table: t}

	var err error
	if p.url, err = compileEntries("url", t.URL); err != nil {
		return nil, err
	}

	if p.text, err = compileEntries("text", t.Text); err != nil {
		return nil, err
	}

	for _, m := range t.Captcha.URL {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			p.captchaURL = append(p.captchaURL, m)
		}
	}

	for _, m := range t.Captcha.Text {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			p.captchaText = append(p.captchaText, m)
		}
	}

	return p, nil
}

func compileEntries(section string, entries []PatternEntry) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(entries))

	for i, e := range entries {
		c := compiledPattern{source: e.Source}
		if c.source == "" {
			c.source = section
		}

		var err error

		switch {
		case e.Pair != "" && (e.Lat != "" || e.Lng != ""):
			return nil, fmt.Errorf("%s[%d]: pair and lat/lng are exclusive", section, i)
		case e.Pair != "":
			if c.pair, err = compileGroups(e.Pair, 2); err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", section, i, err)
			}
		case e.Lat != "" && e.Lng != "":
			if c.lat, err = compileGroups(e.Lat, 1); err != nil {
				return nil, fmt.Errorf("%s[%d].lat: %w", section, i, err)
			}

			if c.lng, err = compileGroups(e.Lng, 1); err != nil {
				return nil, fmt.Errorf("%s[%d].lng: %w", section, i, err)
			}
		default:
			return nil, fmt.Errorf("%s[%d]: needs either pair or both lat and lng", section, i)
		}

		out = append(out, c)
	}

	return out, nil
}

func compileGroups(expr string, groups int) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}

	if re.NumSubexp() != groups {
		return nil, fmt.Errorf("%q has %d capture groups, want %d", expr, re.NumSubexp(), groups)
	}

	return re, nil
}

// Table returns the source table the patterns were compiled from.
func (p *Patterns) Table() PatternTable {
	return p.table
}

// MarshalYAML renders the table, used by `debug patterns`.
func (p *Patterns) MarshalYAML() (interface{}, error) {
	return p.table, nil
}
