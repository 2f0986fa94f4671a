// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// TracingRoundTripper dumps every HTTP transaction to a zap logger at debug
// level. Used by --trace-http.
type TracingRoundTripper struct {
	Transport http.RoundTripper
	Logger    *zap.Logger
	DumpBody  bool
}

// reduce the content of the lines.
func abbreviate(lines []string, prefix rune) []string {
	const maxLines, maxChars = 256, 512

	if len(lines) > maxLines {
		lines = append(lines[:maxLines], "…")
	}

	for i, line := range lines {
		if len(line) > maxChars {
			line = line[0:maxChars] + "…"
		}

		lines[i] = fmt.Sprintf("%c %s", prefix, line)
	}

	return lines
}

// RoundTrip implements the http.RoundTripper interface.
func (t *TracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Logger == nil {
		return t.Transport.RoundTrip(req)
	}

	dump, err := httputil.DumpRequestOut(req, true)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP request: %w", err)
	}

	t.Logger.Debug("http request",
		zap.String("url", req.URL.String()),
		zap.String("dump", strings.Join(abbreviate(strings.Split(string(dump), "\n"), '>'), "\n")))

	start := time.Now()

	resp, err := t.Transport.RoundTrip(req)
	if err != nil {
		t.Logger.Debug("http error", zap.String("url", req.URL.String()), zap.Error(err))

		return nil, err
	}

	dump, err = httputil.DumpResponse(resp, t.DumpBody)
	if err != nil {
		return nil, fmt.Errorf("tracing HTTP response: %w", err)
	}

	t.Logger.Debug("http response",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("dump", strings.Join(abbreviate(strings.Split(string(dump), "\n"), '<'), "\n")))

	return resp, nil
}

// HeadersRoundTripper sets fixed headers on every request.
type HeadersRoundTripper struct {
	Transport http.RoundTripper
	Headers   map[string]string
}

// RoundTrip implements the http.RoundTripper interface.
func (t *HeadersRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	for k, v := range t.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	return t.Transport.RoundTrip(req)
}

// EnforceExpirationCookieJar wraps a cookie jar giving session cookies an
// expiration date, so consent cookies survive across navigations but not
// forever.
type EnforceExpirationCookieJar struct {
	Target   *cookiejar.Jar
	Duration time.Duration
}

// SetCookies sets the cookies.
func (t *EnforceExpirationCookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	now := time.Now()

	for _, cookie := range cookies {
		if cookie.Expires.IsZero() && cookie.MaxAge == 0 {
			cookie.Expires = now.Add(t.Duration)
		}
	}

	t.Target.SetCookies(u, cookies)
}

// Cookies returns the cookies.
func (t *EnforceExpirationCookieJar) Cookies(u *url.URL) []*http.Cookie {
	return t.Target.Cookies(u)
}
