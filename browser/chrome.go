// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jcodagnone/latlong/extraction"
)

// ChromeOptions configures the Chrome driver.
type ChromeOptions struct {
	Headless bool
	// ExecPath is the Chrome binary. Empty means look it up in PATH.
	ExecPath  string
	UserAgent string
	Logger    *zap.Logger
}

// visibleTextJS returns the rendered body text followed by the meta tag
// contents, the same layout PageText produces for the HTTP driver.
const visibleTextJS = `(() => {
	const lines = [document.body ? document.body.innerText : ""];
	for (const m of document.querySelectorAll("meta[content]")) {
		if (m.content) lines.push(m.content);
	}
	return lines.join("\n");
})()`

// Chrome is a Driver backed by one headless Chrome tab.
type Chrome struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
}

var _ extraction.Driver = (*Chrome)(nil)

// NewChrome starts Chrome. Failing to start it is fatal for the run, so the
// browser is launched here rather than on first navigation.
func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", "en-US,en"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1366, 768),
	)

	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	// the browser outlives interrupts of the run; Close stops it
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Debugf))

	c := &Chrome{
		ctx: tabCtx,
		cancel: func() {
			tabCancel()
			allocCancel()
		},
		logger: logger,
	}

	if err := chromedp.Run(tabCtx); err != nil {
		c.cancel()

		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	logger.Debug("chrome started", zap.Bool("headless", opts.Headless))

	return c, nil
}

// run executes actions on the tab bounded by the deadline of ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}

	err := chromedp.Run(runCtx, actions...)
	if err != nil && runCtx.Err() != nil && c.ctx.Err() == nil {
		return fmt.Errorf("%w: %w", extraction.ErrTimeout, err)
	}

	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) WaitFor(ctx context.Context, selector string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return c.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := c.run(ctx, chromedp.Location(&u))

	return u, err
}

func (c *Chrome) VisibleText(ctx context.Context) (string, error) {
	var text string
	err := c.run(ctx, chromedp.Evaluate(visibleTextJS, &text))

	return text, err
}

// Close stops the browser.
func (c *Chrome) Close() error {
	c.cancel()

	return nil
}
