// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jcodagnone/latlong/spatial"
)

// Coordinate is a latitude/longitude pair. The decimal text it was parsed
// from is kept so that results are written back exactly as Maps produced
// them.
type Coordinate struct {
	Lat     float64
	Lng     float64
	LatText string
	LngText string
	// Source names the pattern that produced the coordinate (pin, query,
	// viewport, search, text…). Empty for coordinates loaded from files.
	Source string
}

var errNotFinite = errors.New("not a finite number")

// ParseCoordinate parses a pair of decimal strings.
func ParseCoordinate(lat, lng string) (Coordinate, error) {
	latText, latVal, err := parseDecimal(lat)
	if err != nil {
		return Coordinate{}, fmt.Errorf("latitude %q: %w", lat, err)
	}

	lngText, lngVal, err := parseDecimal(lng)
	if err != nil {
		return Coordinate{}, fmt.Errorf("longitude %q: %w", lng, err)
	}

	return Coordinate{Lat: latVal, Lng: lngVal, LatText: latText, LngText: lngText}, nil
}

func parseDecimal(s string) (string, float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", 0, err
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", 0, errNotFinite
	}

	return s, v, nil
}

// FromFloats builds a coordinate from numbers, formatting them with the
// shortest representation that round-trips.
func FromFloats(lat, lng float64) Coordinate {
	return Coordinate{
		Lat:     lat,
		Lng:     lng,
		LatText: strconv.FormatFloat(lat, 'f', -1, 64),
		LngText: strconv.FormatFloat(lng, 'f', -1, 64),
	}
}

// Point returns the coordinate as a spatial point.
func (c Coordinate) Point() spatial.Point {
	return spatial.Point{Lat: c.Lat, Lng: c.Lng}
}

func (c Coordinate) String() string {
	return c.LatText + "," + c.LngText
}

// Equal reports whether both coordinates carry the same decimal text.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.LatText == other.LatText && c.LngText == other.LngText
}
