// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatorCheck(t *testing.T) {
	tests := []struct {
		name        string
		allowOrigin bool
		c           Coordinate
		accepted    bool
		low         bool
	}{
		{"central park", false, FromFloats(40.785091, -73.968285), true, false},
		{"poles and antimeridian", false, FromFloats(-90, 180), true, false},
		{"latitude too high", false, FromFloats(90.0001, 0.5), false, false},
		{"longitude too low", false, FromFloats(10, -180.5), false, false},
		{"origin rejected", false, FromFloats(0, 0), false, false},
		{"origin allowed", true, FromFloats(0, 0), true, true},
		{"zero latitude only", false, FromFloats(0, 32.5), true, false},
		{"nan", false, Coordinate{Lat: math.NaN(), Lng: 1}, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := Validator{AllowOrigin: tc.allowOrigin}.Check(tc.c)
			assert.Equal(t, tc.accepted, v.Accepted, v.Reason)
			assert.Equal(t, tc.low, v.LowConfidence)

			if !tc.accepted {
				assert.NotEmpty(t, v.Reason)
			}
		})
	}
}

func TestValidatorApply(t *testing.T) {
	v := Validator{}

	out := v.Apply(success(FromFloats(91, 0)))
	assert.Equal(t, OutcomeValidationRejected, out.Kind)
	assert.Contains(t, out.Detail, "latitude")

	notFound := failure(OutcomeNotFound, "nothing")
	assert.Equal(t, notFound, v.Apply(notFound))

	ok := v.Apply(success(FromFloats(1, 2)))
	assert.Equal(t, OutcomeSuccess, ok.Kind)
	assert.False(t, ok.LowConfidence)
}
