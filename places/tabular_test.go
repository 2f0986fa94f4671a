// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, c.Rows()))

	assert.True(t, strings.HasPrefix(buf.String(), "key,name,gmaps_url,latitude,longitude\n"))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(c.Rows(), rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	imported, err := FromRows(rows)
	require.NoError(t, err)

	for _, want := range c.Records {
		got, ok := imported.Get(want.Key)
		require.True(t, ok, want.Key)
		assert.Equal(t, want.Name, got.Name)

		if want.Coordinate == nil {
			assert.Nil(t, got.Coordinate)

			continue
		}

		assert.Equal(t, want.Coordinate.LatText, got.Coordinate.LatText)
		assert.Equal(t, want.Coordinate.LngText, got.Coordinate.LngText)
	}
}

func TestReadCSVEmpty(t *testing.T) {
	rows, err := ReadCSV(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestXLSXRoundTrip(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, c.Rows()))

	rows, err := ReadXLSX(&buf)
	require.NoError(t, err)

	if diff := cmp.Diff(c.Rows(), rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestExportImport(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	dir := t.TempDir()

	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(dir, "places."+string(format))
			require.NoError(t, c.Export(path, format))

			imported, err := Import(path)
			require.NoError(t, err)
			assert.Equal(t, c.Rows(), imported.Rows())
		})
	}

	_, err = Import(filepath.Join(dir, "places.txt"))
	assert.Error(t, err)
}

func TestFromRowsRejectsBadCoordinates(t *testing.T) {
	_, err := FromRows([]Row{{Key: "a", Latitude: "north", Longitude: "1"}})
	assert.Error(t, err)

	_, err = FromRows([]Row{{Name: "no key"}})
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestExportPath(t *testing.T) {
	assert.Equal(t, "places.csv", ExportPath("/data/places.json", FormatCSV))
	assert.Equal(t, "trip.xlsx", ExportPath("trip", FormatXLSX))
}
