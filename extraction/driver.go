// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"context"
	"time"
)

// Driver is the narrow view of a browser session used by the engine.
// Implementations report load timeouts as errors wrapping ErrTimeout.
type Driver interface {
	// Navigate loads url and returns once the navigation committed.
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector is present or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) error
	// CurrentURL returns the URL after redirects and client side updates.
	CurrentURL(ctx context.Context) (string, error)
	// VisibleText returns the rendered text of the page.
	VisibleText(ctx context.Context) (string, error)
	// Close ends the session. The engine never calls it; whoever created
	// the driver does.
	Close() error
}
