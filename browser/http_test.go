// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/latlong/extraction"
)

const placeHTML = `<!DOCTYPE html><html><head>
<meta property="og:title" content="%s">
<meta property="og:image" content="https://maps.google.com/maps/api/staticmap?center=%s&amp;zoom=15">
</head><body><div role="main">%s</div></body></html>`

func newMapsServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/maps/place/Central+Park/@40.785091,-73.968285,15z", http.StatusFound)
	})

	mux.HandleFunc("/maps/place/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, placeHTML, "Central Park", "40.785091%2C-73.968285", "Central Park")
	})

	// search results render the place card without coordinates in the URL
	mux.HandleFunc("/maps/search/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, placeHTML, "Louvre", "48.8606111%2C2.337644", "Musée du Louvre")
	})

	mux.HandleFunc("/blocked", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/sorry/index?continue=/maps", http.StatusFound)
	})

	mux.HandleFunc("/sorry/index", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, "<html><body>Our systems have detected unusual traffic from your computer network.</body></html>")
	})

	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	mux.HandleFunc("/data.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, "{}")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func newTestHTTP(t *testing.T) *HTTP {
	t.Helper()

	d, err := NewHTTP(HTTPOptions{UserAgent: "latlong-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return d
}

func TestHTTPFollowsShortLinks(t *testing.T) {
	srv := newMapsServer(t)
	d := newTestHTTP(t)
	ctx := context.Background()

	require.NoError(t, d.Navigate(ctx, srv.URL+"/short"))
	require.NoError(t, d.WaitFor(ctx, "body", time.Second))

	current, err := d.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/maps/place/Central+Park/@40.785091,-73.968285,15z", current)

	text, err := d.VisibleText(ctx)
	require.NoError(t, err)
	assert.Contains(t, text, "Central Park")
	assert.Contains(t, text, "center=40.785091%2C-73.968285")

	assert.Error(t, d.WaitFor(ctx, "#missing", time.Second))
}

func TestHTTPTimeout(t *testing.T) {
	srv := newMapsServer(t)
	d := newTestHTTP(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := d.Navigate(ctx, srv.URL+"/slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, extraction.ErrTimeout)
	assert.True(t, extraction.IsTimeoutError(err))
}

func TestHTTPNonHTML(t *testing.T) {
	srv := newMapsServer(t)
	d := newTestHTTP(t)
	ctx := context.Background()

	require.NoError(t, d.Navigate(ctx, srv.URL+"/data.json"))
	assert.Error(t, d.WaitFor(ctx, "body", time.Second))

	text, err := d.VisibleText(ctx)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestHTTPWithEngine(t *testing.T) {
	srv := newMapsServer(t)

	newEngine := func() *extraction.Engine {
		return extraction.NewEngine(newTestHTTP(t), extraction.Options{
			LocationContext: "Paris",
			MaxRetries:      2,
			RetryDelay:      time.Millisecond,
			CaptchaDelay:    time.Millisecond,
			SettleTimeout:   time.Millisecond,
			SearchBaseURL:   srv.URL + "/maps/search/",
		})
	}

	t.Run("short link", func(t *testing.T) {
		res, err := newEngine().Resolve(context.Background(), extraction.Target{
			Key: "p1", Name: "Central Park", URL: srv.URL + "/short",
		})
		require.NoError(t, err)
		require.Equal(t, extraction.StatusResolved, res.Status)
		assert.Equal(t, "40.785091,-73.968285", res.Coordinate.String())
		assert.Equal(t, "viewport", res.Coordinate.Source)
	})

	t.Run("search reads metadata", func(t *testing.T) {
		res, err := newEngine().Resolve(context.Background(), extraction.Target{Key: "louvre", Name: "Louvre"})
		require.NoError(t, err)
		require.Equal(t, extraction.StatusResolved, res.Status)
		assert.Equal(t, "48.8606111,2.337644", res.Coordinate.String())
		assert.Equal(t, "text_static_map", res.Coordinate.Source)
	})

	t.Run("challenge", func(t *testing.T) {
		res, err := newEngine().Resolve(context.Background(), extraction.Target{Key: "x", URL: srv.URL + "/blocked"})
		require.NoError(t, err)
		assert.Equal(t, extraction.StatusFailed, res.Status)
		assert.Equal(t, extraction.ReasonBlocked, res.Reason)
		assert.Len(t, res.Attempts, 2)
	})
}
