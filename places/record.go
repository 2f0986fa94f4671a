// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

// Package places loads and stores the place collections latlong works on: a
// JSON object mapping keys to {name, gmaps, latlong{lat, long}} entries.
package places

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jcodagnone/latlong/extraction"
)

const (
	fieldName    = "name"
	fieldURL     = "gmaps"
	fieldLatLong = "latlong"
	fieldLat     = "lat"
	fieldLng     = "long"
)

// field is a member of a JSON object, kept in input order.
type field struct {
	name  string
	value json.RawMessage
}

// Record is one place of the collection. Fields latlong does not interpret
// are kept verbatim and written back in their original order.
type Record struct {
	Key  string
	Name string
	URL  string

	// Coordinate is nil until the record is resolved.
	Coordinate *extraction.Coordinate

	// Status and Reason describe what happened during this run. They are
	// not persisted: a record with a coordinate loads as resolved.
	Status extraction.Status
	Reason string

	fields []field
}

// Target returns what the extraction engine needs from the record.
func (r *Record) Target() extraction.Target {
	return extraction.Target{Key: r.Key, Name: r.Name, URL: r.URL}
}

// HasCoordinate reports whether both latitude and longitude are present.
func (r *Record) HasCoordinate() bool {
	return r.Coordinate != nil
}

// SetCoordinate stores c as the record's latlong.
func (r *Record) SetCoordinate(c extraction.Coordinate) error {
	var latlong []field

	if i := r.fieldIndex(fieldLatLong); i >= 0 {
		existing, err := objectFields(r.fields[i].value)
		if err == nil {
			latlong = existing
		}
	}

	latlong = setField(latlong, fieldLat, c.LatText)
	latlong = setField(latlong, fieldLng, c.LngText)

	var buf bytes.Buffer
	if err := writeObject(&buf, latlong); err != nil {
		return err
	}

	r.fields = setRawField(r.fields, fieldLatLong, buf.Bytes())
	r.Coordinate = &c
	r.Status = extraction.StatusResolved
	r.Reason = ""

	return nil
}

// MarkFailed records a failure without touching the stored coordinate.
func (r *Record) MarkFailed(reason string) {
	r.Status = extraction.StatusFailed
	r.Reason = reason
}

func (r *Record) fieldIndex(name string) int {
	for i, f := range r.fields {
		if f.name == name {
			return i
		}
	}

	return -1
}

func setField(fields []field, name, value string) []field {
	return setRawField(fields, name, mustString(value))
}

func setRawField(fields []field, name string, raw json.RawMessage) []field {
	for i := range fields {
		if fields[i].name == name {
			fields[i].value = raw

			return fields
		}
	}

	return append(fields, field{name: name, value: raw})
}

// parseRecord interprets the JSON object of one place.
func parseRecord(key string, raw json.RawMessage) (*Record, error) {
	fields, err := objectFields(raw)
	if err != nil {
		return nil, fmt.Errorf("place %q: %w", key, err)
	}

	r := &Record{Key: key, Status: extraction.StatusPending, fields: fields}

	var lat, lng string

	for _, f := range fields {
		switch f.name {
		case fieldName:
			r.Name = strings.TrimSpace(scalarString(f.value))
		case fieldURL:
			r.URL = strings.TrimSpace(scalarString(f.value))
		case fieldLatLong:
			latlong, err := objectFields(f.value)
			if err != nil {
				// null latlong
				continue
			}

			for _, ll := range latlong {
				switch ll.name {
				case fieldLat:
					lat = scalarString(ll.value)
				case fieldLng:
					lng = scalarString(ll.value)
				}
			}
		}
	}

	if lat != "" && lng != "" {
		// unparsable values are left in place and the record is fetched again
		if c, err := extraction.ParseCoordinate(lat, lng); err == nil {
			r.Coordinate = &c
			r.Status = extraction.StatusResolved
		}
	}

	return r, nil
}

// scalarString renders a JSON string or number as text. Anything else is
// empty.
func scalarString(raw json.RawMessage) string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}

	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
