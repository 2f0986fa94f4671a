// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"net/url"
	"strings"

	"github.com/jcodagnone/latlong/utils/textutils"
)

// SearchBaseURL is the Maps endpoint the search strategy navigates to.
const SearchBaseURL = "https://www.google.com/maps/search/"

// Target is what the engine needs to know about a place.
type Target struct {
	Key  string
	Name string
	URL  string
}

// Strategy produces the URL to navigate to for a target.
type Strategy interface {
	Kind() StrategyKind
	Applicable(t Target) bool
	URL(t Target) string
}

// DirectStrategy navigates to the record's own Maps URL.
type DirectStrategy struct{}

func (DirectStrategy) Kind() StrategyKind { return StrategyDirect }

func (s DirectStrategy) Applicable(t Target) bool {
	return s.URL(t) != ""
}

// URL returns the trimmed source URL. Links copied from prose often end with
// a period, which is dropped. Anything too short to be a link is ignored.
func (DirectStrategy) URL(t Target) string {
	u := strings.TrimSuffix(strings.TrimSpace(t.URL), ".")
	if len(u) <= 5 {
		return ""
	}

	return u
}

// SearchStrategy searches Maps for the place name plus location context.
type SearchStrategy struct {
	Context string
	// BaseURL defaults to SearchBaseURL.
	BaseURL string
}

func (SearchStrategy) Kind() StrategyKind { return StrategySearch }

func (s SearchStrategy) Applicable(t Target) bool {
	return s.Query(t) != ""
}

// Query composes "<name>, <context>". The context is left out when the
// name already mentions it.
func (s SearchStrategy) Query(t Target) string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return ""
	}

	ctx := strings.TrimSpace(s.Context)
	if ctx == "" || textutils.ContainsFolded(name, ctx) {
		return name
	}

	return name + ", " + ctx
}

func (s SearchStrategy) URL(t Target) string {
	q := s.Query(t)
	if q == "" {
		return ""
	}

	base := s.BaseURL
	if base == "" {
		base = SearchBaseURL
	}

	return base + url.PathEscape(q)
}
