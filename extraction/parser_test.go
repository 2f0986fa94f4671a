// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseURL(t *testing.T) {
	p := DefaultPatterns()

	tests := []struct {
		name   string
		url    string
		kind   OutcomeKind
		lat    string
		lng    string
		source string
	}{
		{
			name:   "pin beats viewport",
			url:    "https://www.google.com/maps/place/Central+Park/@40.78,-73.96,15z/data=!3m1!4b1!4m6!3m5!1s0x0:0x0!8m2!3d40.785091!4d-73.968285",
			kind:   OutcomeSuccess,
			lat:    "40.785091",
			lng:    "-73.968285",
			source: "pin",
		},
		{
			name:   "pin split",
			url:    "https://www.google.com/maps/place/Rambla/data=!4m2!3m1!1s0x0!3d-34.9011!2d-56.1645",
			kind:   OutcomeSuccess,
			lat:    "-34.9011",
			lng:    "-56.1645",
			source: "pin",
		},
		{
			name:   "query q",
			url:    "https://maps.google.com/?q=40.7128,-74.0060",
			kind:   OutcomeSuccess,
			lat:    "40.7128",
			lng:    "-74.0060",
			source: "query",
		},
		{
			name:   "query ll encoded",
			url:    "https://www.google.com/maps?z=3&ll=40.7128%2C-74.0060",
			kind:   OutcomeSuccess,
			lat:    "40.7128",
			lng:    "-74.0060",
			source: "query",
		},
		{
			name:   "viewport",
			url:    "https://www.google.com/maps/place/Central+Park/@40.785091,-73.968285,15z",
			kind:   OutcomeSuccess,
			lat:    "40.785091",
			lng:    "-73.968285",
			source: "viewport",
		},
		{
			name:   "search by coordinates",
			url:    "https://www.google.com/maps/search/40.785091,+-73.968285",
			kind:   OutcomeSuccess,
			lat:    "40.785091",
			lng:    "-73.968285",
			source: "search",
		},
		{
			name: "short link",
			url:  "https://maps.app.goo.gl/xyz",
			kind: OutcomeNotFound,
		},
		{
			name: "empty",
			url:  "",
			kind: OutcomeNotFound,
		},
		{
			name: "malformed number",
			url:  "https://www.google.com/maps/@40.1.2,-73.9,15z",
			kind: OutcomeMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := p.ParseURL(tc.url)
			assert.Equal(t, tc.kind, out.Kind, out.String())

			if tc.kind == OutcomeSuccess {
				assert.Equal(t, tc.lat, out.Coordinate.LatText)
				assert.Equal(t, tc.lng, out.Coordinate.LngText)
				assert.Equal(t, tc.source, out.Coordinate.Source)
			}
		})
	}
}

func TestParseText(t *testing.T) {
	p := DefaultPatterns()

	tests := []struct {
		name   string
		text   string
		kind   OutcomeKind
		lat    string
		lng    string
		source string
	}{
		{
			name:   "labelled",
			text:   "Coordinates\nLatitude: -34.906, Longitude: -56.191",
			kind:   OutcomeSuccess,
			lat:    "-34.906",
			lng:    "-56.191",
			source: "text_labelled",
		},
		{
			name:   "static map",
			text:   `https://maps.google.com/maps/api/staticmap?center=40.785091%2C-73.968285&zoom=15`,
			kind:   OutcomeSuccess,
			lat:    "40.785091",
			lng:    "-73.968285",
			source: "text_static_map",
		},
		{
			name:   "dropped pin card",
			text:   "Dropped pin\n40.785091, -73.968285\nDirections",
			kind:   OutcomeSuccess,
			lat:    "40.785091",
			lng:    "-73.968285",
			source: "text_pair",
		},
		{
			name: "low precision pair is not a coordinate",
			text: "Open 9.30, 18.00",
			kind: OutcomeNotFound,
		},
		{
			name: "nothing",
			text: "Central Park\nNew York",
			kind: OutcomeNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := p.ParseText(tc.text)
			assert.Equal(t, tc.kind, out.Kind, out.String())

			if tc.kind == OutcomeSuccess {
				assert.Equal(t, tc.lat, out.Coordinate.LatText)
				assert.Equal(t, tc.lng, out.Coordinate.LngText)
				assert.Equal(t, tc.source, out.Coordinate.Source)
			}
		})
	}
}
