// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package places

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/latlong/extraction"
)

const sample = `{
    "p1": {
        "name": "Central Park",
        "gmaps": "https://maps.app.goo.gl/xyz",
        "latlong": {
            "lat": "",
            "long": ""
        },
        "tags": [
            "park",
            "nyc"
        ]
    },
    "louvre": {
        "name": "Musée du Louvre",
        "gmaps": "",
        "latlong": {
            "lat": "48.8606111",
            "long": "2.337644"
        }
    },
    "numeric": {
        "name": "Numbers",
        "latlong": {
            "lat": -34.906,
            "long": -56.191
        }
    }
}`

func TestParseKeepsOrderAndCoordinates(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	keys := []string{}
	for _, r := range c.Records {
		keys = append(keys, r.Key)
	}

	assert.Equal(t, []string{"p1", "louvre", "numeric"}, keys)

	p1, ok := c.Get("p1")
	require.True(t, ok)
	assert.Equal(t, "Central Park", p1.Name)
	assert.Equal(t, "https://maps.app.goo.gl/xyz", p1.URL)
	assert.False(t, p1.HasCoordinate())
	assert.Equal(t, extraction.StatusPending, p1.Status)

	louvre, _ := c.Get("louvre")
	require.True(t, louvre.HasCoordinate())
	assert.Equal(t, "48.8606111", louvre.Coordinate.LatText)
	assert.Equal(t, extraction.StatusResolved, louvre.Status)

	numeric, _ := c.Get("numeric")
	require.True(t, numeric.HasCoordinate())
	assert.Equal(t, "-34.906", numeric.Coordinate.LatText)
}

func TestMarshalUnchangedIsIdentical(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	out, err := c.Marshal()
	require.NoError(t, err)
	assert.Equal(t, sample, string(out))
}

func TestSetCoordinateKeepsOtherFields(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	p1, _ := c.Get("p1")
	coord, err := extraction.ParseCoordinate("40.785091", "-73.968285")
	require.NoError(t, err)
	require.NoError(t, p1.SetCoordinate(coord))

	out, err := c.Marshal()
	require.NoError(t, err)

	assert.Contains(t, string(out), `"lat": "40.785091"`)
	assert.Contains(t, string(out), `"long": "-73.968285"`)
	assert.Contains(t, string(out), `"tags": [`)
	assert.Contains(t, string(out), "Musée du Louvre")

	again, err := Parse(out)
	require.NoError(t, err)

	p1Again, _ := again.Get("p1")
	require.True(t, p1Again.HasCoordinate())
	assert.True(t, coord.Equal(*p1Again.Coordinate))
}

func TestSaveAndLoad(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "places.json")
	require.NoError(t, c.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.Rows(), loaded.Rows())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestParseRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"a": `},
		{"array", `[1, 2]`},
		{"entry not object", `{"a": "b"}`},
		{"name not string", `{"a": {"name": 3}}`},
		{"latlong array", `{"a": {"latlong": [1, 2]}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
