// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointScan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    Point
		wantErr bool
	}{
		{name: "nil", value: nil, want: Point{}},
		{name: "own format", value: "POINT(-73.968285 40.785091)", want: Point{Lat: 40.785091, Lng: -73.968285}},
		{name: "duckdb format", value: []byte("POINT (-56.1645 -34.9011)"), want: Point{Lat: -34.9011, Lng: -56.1645}},
		{name: "garbage", value: "LINESTRING(1 2, 3 4)", wantErr: true},
		{name: "unsupported type", value: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Point

			err := p.Scan(tt.value)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.want.Lat, p.Lat, 1e-9)
			assert.InDelta(t, tt.want.Lng, p.Lng, 1e-9)
		})
	}
}

func TestPointValueRoundTrip(t *testing.T) {
	in := Point{Lat: 40.785091, Lng: -73.968285}

	v, err := in.Value()
	require.NoError(t, err)

	var out Point
	require.NoError(t, out.Scan(v))
	assert.InDelta(t, in.Lat, out.Lat, 1e-6)
	assert.InDelta(t, in.Lng, out.Lng, 1e-6)
}

func TestHaversineDistance(t *testing.T) {
	// Montevideo to Buenos Aires, roughly 200km.
	mvd := &Point{Lat: -34.9011, Lng: -56.1645}
	bue := &Point{Lat: -34.6037, Lng: -58.3816}

	d := mvd.HaversineDistance(bue)
	assert.InDelta(t, 204_000, d, 5_000)
	assert.Zero(t, mvd.HaversineDistance(mvd))
}

func TestH3Cells(t *testing.T) {
	cells, err := Point{Lat: 40.785091, Lng: -73.968285}.H3Cells()
	require.NoError(t, err)
	require.Len(t, cells, MaxH3Resolution-MinH3Resolution+1)

	for _, c := range cells {
		assert.NotZero(t, c)
	}

	assert.NotEqual(t, cells[0], cells[len(cells)-1])
}
