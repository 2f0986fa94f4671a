// Copyright 2025 The latlong Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds the small amount of geometry latlong needs: points,
// distances and H3 cells.
package spatial

import (
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/uber/h3-go/v4"
)

const earthRadius = 6371e3 // meters

// H3 resolutions stored for every resolved place, from city scale (5) down
// to block scale (9).
const (
	MinH3Resolution = 5
	MaxH3Resolution = 9
)

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns the WKT representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	var s string

	switch v := value.(type) {
	case nil:
		p.Lat, p.Lng = 0, 0

		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}

	// both "POINT(lng lat)" and DuckDB's "POINT (lng lat)"
	if _, err := fmt.Sscanf(s, "POINT(%f %f)", &p.Lng, &p.Lat); err == nil {
		return nil
	}

	if _, err := fmt.Sscanf(s, "POINT (%f %f)", &p.Lng, &p.Lat); err != nil {
		return fmt.Errorf("spatial: invalid WKT point %q: %w", s, err)
	}

	return nil
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// H3Cells returns the H3 cell of the point for every resolution between
// MinH3Resolution and MaxH3Resolution, lowest resolution first.
func (p Point) H3Cells() ([]uint64, error) {
	latLng := h3.NewLatLng(p.Lat, p.Lng)
	cells := make([]uint64, 0, MaxH3Resolution-MinH3Resolution+1)

	for res := MinH3Resolution; res <= MaxH3Resolution; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return nil, fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		cells = append(cells, uint64(cell))
	}

	return cells, nil
}
