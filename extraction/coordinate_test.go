// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	c, err := ParseCoordinate("+40.785091", " -73.968285 ")
	require.NoError(t, err)
	assert.Equal(t, "40.785091", c.LatText)
	assert.Equal(t, "-73.968285", c.LngText)
	assert.InDelta(t, 40.785091, c.Lat, 1e-9)
	assert.InDelta(t, -73.968285, c.Lng, 1e-9)

	for _, bad := range [][2]string{{"40.1.2", "1"}, {"1", ""}, {"NaN", "1"}, {"1", "Inf"}} {
		_, err := ParseCoordinate(bad[0], bad[1])
		assert.Error(t, err, bad)
	}
}

func TestCoordinateEqualUsesText(t *testing.T) {
	a, err := ParseCoordinate("40.7128", "-74.0060")
	require.NoError(t, err)

	b := FromFloats(40.7128, -74.006)

	assert.Equal(t, a.Point(), b.Point())
	assert.False(t, a.Equal(b))
	assert.Equal(t, "40.7128,-74.006", b.String())
}

func TestClassifyDriverError(t *testing.T) {
	out := ClassifyDriverError("navigate", "https://x", ErrTimeout)
	assert.Equal(t, OutcomeDriverError, out.Kind)
	assert.Equal(t, "timeout during navigate", out.Detail)

	out = ClassifyDriverError("navigate", "https://x", assert.AnError)
	assert.Equal(t, OutcomeDriverError, out.Kind)
	assert.Contains(t, out.Detail, "https://x")
}
