// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jcodagnone/latlong/extraction"
)

var errNotObject = errors.New("not a JSON object")

// Collection is an ordered set of places keyed by their JSON key.
type Collection struct {
	Records []*Record
	index   map[string]*Record
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{index: make(map[string]*Record)}
}

// Len returns the number of places.
func (c *Collection) Len() int {
	return len(c.Records)
}

// Get returns the place stored under key.
func (c *Collection) Get(key string) (*Record, bool) {
	r, ok := c.index[key]

	return r, ok
}

// Add appends a place, or replaces the one with the same key keeping its
// position.
func (c *Collection) Add(r *Record) {
	if existing, ok := c.index[r.Key]; ok {
		*existing = *r

		return
	}

	c.index[r.Key] = r
	c.Records = append(c.Records, r)
}

// NewRecord builds a record that did not come from a JSON file.
func NewRecord(key, name, url string, c *extraction.Coordinate) (*Record, error) {
	r := &Record{Key: key, Name: name, URL: url, Status: extraction.StatusPending}
	r.fields = setField(r.fields, fieldName, name)
	r.fields = setField(r.fields, fieldURL, url)

	if c != nil {
		if err := r.SetCoordinate(*c); err != nil {
			return nil, err
		}
	} else {
		r.fields = setRawField(r.fields, fieldLatLong, mustObject([]field{
			{name: fieldLat, value: mustString("")},
			{name: fieldLng, value: mustString("")},
		}))
	}

	return r, nil
}

// Load reads and validates a places file.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading places: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Parse validates data against the places schema and decodes it keeping the
// key order.
func Parse(data []byte) (*Collection, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	members, err := objectFields(data)
	if err != nil {
		return nil, err
	}

	c := NewCollection()

	for _, m := range members {
		r, err := parseRecord(m.name, m.value)
		if err != nil {
			return nil, err
		}

		c.Add(r)
	}

	return c, nil
}

// Marshal renders the collection as 4-space indented JSON, leaving
// non-ASCII text unescaped.
func (c *Collection) Marshal() ([]byte, error) {
	members := make([]field, 0, len(c.Records))

	for _, r := range c.Records {
		var buf bytes.Buffer
		if err := writeObject(&buf, r.fields); err != nil {
			return nil, fmt.Errorf("place %q: %w", r.Key, err)
		}

		members = append(members, field{name: r.Key, value: buf.Bytes()})
	}

	var compact bytes.Buffer
	if err := writeObject(&compact, members); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return nil, fmt.Errorf("indenting places: %w", err)
	}

	return out.Bytes(), nil
}

// Save writes the collection to path. The file is replaced atomically so an
// interrupted save never leaves a truncated file behind.
func (c *Collection) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("saving places: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(fmt.Errorf("saving places: %w", err), tmp.Close(), os.Remove(tmp.Name()))
	}

	if err := tmp.Close(); err != nil {
		return errors.Join(fmt.Errorf("saving places: %w", err), os.Remove(tmp.Name()))
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Join(fmt.Errorf("saving places: %w", err), os.Remove(tmp.Name()))
	}

	return nil
}

// objectFields decodes a JSON object into its members, in order. Duplicate
// keys keep the position of the first occurrence and the last value.
func objectFields(raw []byte) ([]field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var fields []field

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		name, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("member %q: %w", name, err)
		}

		fields = setRawField(fields, name, value)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON object")
	}

	return fields, nil
}

func writeObject(buf *bytes.Buffer, fields []field) error {
	buf.WriteByte('{')

	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := marshalString(f.name)
		if err != nil {
			return err
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(f.value)
	}

	buf.WriteByte('}')

	return nil
}

func marshalString(s string) (json.RawMessage, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(s); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func mustString(s string) json.RawMessage {
	raw, err := marshalString(s)
	if err != nil {
		panic(err)
	}

	return raw
}

func mustObject(fields []field) json.RawMessage {
	var buf bytes.Buffer
	if err := writeObject(&buf, fields); err != nil {
		panic(err)
	}

	return buf.Bytes()
}
