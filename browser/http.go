// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jcodagnone/latlong/extraction"
)

// DefaultUserAgent is sent by both drivers unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBody caps how much of a page the HTTP driver reads.
const maxBody = 8 << 20

// HTTPOptions configures the HTTP driver.
type HTTPOptions struct {
	UserAgent string
	// Trace dumps every request and response at debug level.
	Trace bool
	// DumpBody adds the bodies to the trace.
	DumpBody bool
	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

// HTTP is a Driver that follows redirects without running scripts. It
// resolves short links and reads server rendered metadata, which is enough
// for many Maps URLs and needs no browser.
type HTTP struct {
	client *http.Client
	logger *zap.Logger

	mu      sync.Mutex
	current string
	doc     *goquery.Document
}

var _ extraction.Driver = (*HTTP)(nil)

// NewHTTP creates an HTTP driver with its own cookie jar.
func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	if opts.Trace {
		transport = &TracingRoundTripper{Transport: transport, Logger: logger, DumpBody: opts.DumpBody}
	}

	transport = &HeadersRoundTripper{
		Transport: transport,
		Headers: map[string]string{
			"User-Agent":      userAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "en-US,en;q=0.9",
		},
	}

	return &HTTP{
		client: &http.Client{
			Transport: transport,
			Jar:       &EnforceExpirationCookieJar{Target: jar, Duration: 24 * time.Hour},
		},
		logger: logger,
	}, nil
}

// Navigate fetches url following redirects. The final URL and document are
// kept for the other calls.
func (d *HTTP) Navigate(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return asTimeout(err)
	}
	defer resp.Body.Close()

	final := resp.Request.URL.String()

	var doc *goquery.Document

	if r, err := AsReader(resp); err == nil {
		doc, err = goquery.NewDocumentFromReader(io.LimitReader(r, maxBody))
		if err != nil {
			return fmt.Errorf("parsing %s: %w", final, err)
		}
	} else {
		d.logger.Debug("not an HTML page", zap.String("url", final), zap.Error(err))
	}

	d.logger.Debug("navigated",
		zap.String("url", url),
		zap.String("final", final),
		zap.Int("status", resp.StatusCode))

	d.mu.Lock()
	d.current = final
	d.doc = doc
	d.mu.Unlock()

	return nil
}

// WaitFor succeeds if the loaded document has selector. There is nothing to
// wait for without scripts, so timeout is ignored.
func (d *HTTP) WaitFor(_ context.Context, selector string, _ time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc == nil {
		return errors.New("no document loaded")
	}

	if d.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("selector %q not found", selector)
	}

	return nil
}

// CurrentURL returns the URL after redirects.
func (d *HTTP) CurrentURL(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.current, nil
}

// VisibleText returns the body text and the page metadata.
func (d *HTTP) VisibleText(context.Context) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doc == nil {
		return "", nil
	}

	return PageText(d.doc), nil
}

// Close releases idle connections.
func (d *HTTP) Close() error {
	d.client.CloseIdleConnections()

	return nil
}

// asTimeout wraps timeouts with extraction.ErrTimeout.
func asTimeout(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", extraction.ErrTimeout, err)
	}

	return err
}
