// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestNodeText(t *testing.T) {
	tests := []struct {
		expected string
		input    string
	}{
		{"foo bar", "<div><pre>foo</pre><span>bar</span>"},
		{"visible", "<div><script>var x = 1;</script><style>p{}</style>visible</div>"},
		{"a b c", "<p>  a \n\t b </p><p>c</p>"},
	}

	for _, test := range tests {
		n, err := html.Parse(strings.NewReader(test.input))
		require.NoError(t, err)

		sb := strings.Builder{}
		NodeText(n, &sb)

		assert.Equal(t, test.expected, sb.String(), test.input)
	}
}

func TestPageText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><head>
<meta property="og:title" content="Central Park · New York">
<meta property="og:image" content="https://maps.google.com/maps/api/staticmap?center=40.785091%2C-73.968285&amp;zoom=15">
<script>window.APP_INITIALIZATION_STATE=[[[1,2,3]]]</script>
</head><body><h1>Central Park</h1><noscript>enable js</noscript></body></html>`))
	require.NoError(t, err)

	text := PageText(doc)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Central Park", lines[0])
	assert.Equal(t, "Central Park · New York", lines[1])
	assert.Contains(t, lines[2], "center=40.785091%2C-73.968285&zoom=15")
	assert.NotContains(t, text, "APP_INITIALIZATION_STATE")
}

func TestAsReader(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=iso-8859-1"}},
		Body:       io.NopCloser(strings.NewReader("S\xe3o Paulo")),
	}

	r, err := AsReader(resp)
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", string(data))

	resp = &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader("{}")),
	}

	_, err = AsReader(resp)
	assert.Error(t, err)
}
