// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Options configures an Engine. They are immutable for the duration of a
// batch run. Zero values are replaced by the defaults below.
type Options struct {
	// LocationContext is appended to place names by the search strategy,
	// "Paris, France".
	LocationContext string

	// MaxRetries is the number of rounds a record gets. Default: 3.
	MaxRetries int

	// RetryDelay is the base of the standard exponential backoff.
	// Default: 5s.
	RetryDelay time.Duration

	// CaptchaDelay is the floor of the backoff applied after a challenge.
	// The effective base is max(CaptchaDelay, 4*RetryDelay). Default: 60s.
	CaptchaDelay time.Duration

	// ForceRefresh re-resolves records that already have coordinates. The
	// engine does not use it; it travels here so the batch sees one bundle.
	ForceRefresh bool

	// AllowOrigin accepts (0, 0) flagged as low confidence.
	AllowOrigin bool

	// NavigationTimeout bounds Navigate and WaitFor. Default: 30s.
	NavigationTimeout time.Duration

	// SettleTimeout bounds how long the current URL is polled for a
	// coordinate after the page loaded. Default: 4s.
	SettleTimeout time.Duration

	// PollInterval is the settle polling period. Default: 250ms.
	PollInterval time.Duration

	// SearchBaseURL overrides the Maps search endpoint.
	SearchBaseURL string

	// Patterns defaults to DefaultPatterns().
	Patterns *Patterns

	// Limiter, if set, is waited on before every navigation.
	Limiter *rate.Limiter

	Observer Observer
	Metrics  *Metrics
	Logger   *zap.Logger

	// Sleep waits between rounds. It must return ctx.Err() when ctx is done
	// first. Default: a timer based sleep.
	Sleep func(ctx context.Context, d time.Duration) error

	Now func() time.Time
}

func applyDefaults(o Options) Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}

	if o.RetryDelay <= 0 {
		o.RetryDelay = 5 * time.Second
	}

	if o.CaptchaDelay <= 0 {
		o.CaptchaDelay = 60 * time.Second
	}

	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 30 * time.Second
	}

	if o.SettleTimeout <= 0 {
		o.SettleTimeout = 4 * time.Second
	}

	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}

	if o.PollInterval > o.SettleTimeout {
		o.PollInterval = o.SettleTimeout
	}

	if o.Patterns == nil {
		o.Patterns = DefaultPatterns()
	}

	if o.Metrics == nil {
		o.Metrics = &Metrics{}
	}

	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}

	if o.Sleep == nil {
		o.Sleep = sleep
	}

	if o.Now == nil {
		o.Now = time.Now
	}

	return o
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Engine resolves place records to coordinates using one driver session.
// It is not safe for concurrent use: the driver is a single mutable browser.
type Engine struct {
	driver    Driver
	opts      Options
	validator Validator
	direct    DirectStrategy
	search    SearchStrategy
}

// NewEngine creates an engine over driver.
func NewEngine(driver Driver, opts Options) *Engine {
	opts = applyDefaults(opts)

	return &Engine{
		driver:    driver,
		opts:      opts,
		validator: Validator{AllowOrigin: opts.AllowOrigin},
		search:    SearchStrategy{Context: opts.LocationContext, BaseURL: opts.SearchBaseURL},
	}
}

// Options returns the effective options, defaults applied.
func (e *Engine) Options() Options {
	return e.opts
}

// Metrics returns the counters the engine writes to.
func (e *Engine) Metrics() *Metrics {
	return e.opts.Metrics
}

// Strategies returns the strategies applicable to t, in the order they are
// tried. Direct goes first only when the target has a URL.
func (e *Engine) Strategies(t Target) []Strategy {
	var out []Strategy

	if e.direct.Applicable(t) {
		out = append(out, e.direct)
	}

	if e.search.Applicable(t) {
		out = append(out, e.search)
	}

	return out
}

// Resolve runs the retry state machine for one target. The returned error
// is non-nil only when ctx was cancelled while waiting; the result then has
// StatusPending and must not be written back.
func (e *Engine) Resolve(ctx context.Context, t Target) (Result, error) {
	start := e.opts.Now()
	res := Result{Key: t.Key, Status: StatusPending}
	log := e.opts.Logger.With(zap.String("key", t.Key))

	strategies := e.Strategies(t)
	if len(strategies) == 0 {
		res.Status = StatusFailed
		res.Reason = OutcomeNotFound.String()
		res.Detail = "record has neither a name nor a URL"

		return e.finish(res, start), nil
	}

	var (
		from     int
		counter  int
		lastKind OutcomeKind
	)

	for {
		res.Rounds++

		out, at, err := e.round(ctx, t, strategies, from, res.Rounds, &res)
		if err != nil {
			res.Elapsed = e.opts.Now().Sub(start)

			return res, fmt.Errorf("%s: %w", t.Key, ErrInterrupted)
		}

		res.Detail = out.Detail

		if out.Kind == OutcomeSuccess {
			c := out.Coordinate
			res.Status = StatusResolved
			res.Coordinate = &c
			res.LowConfidence = out.LowConfidence

			return e.finish(res, start), nil
		}

		counter++
		lastKind = out.Kind

		if counter >= e.opts.MaxRetries {
			res.Status = StatusFailed
			res.Reason = lastKind.String()

			if lastKind == OutcomeCaptcha {
				res.Reason = ReasonBlocked
			}

			return e.finish(res, start), nil
		}

		var delay time.Duration

		if out.Kind == OutcomeCaptcha {
			// resume the strategy that hit the challenge
			from = at
			delay = e.CaptchaBackoff(counter)
		} else {
			from = 0
			delay = e.RetryBackoff(counter)
		}

		log.Info("retrying",
			zap.String("outcome", out.Kind.String()),
			zap.Int("round", res.Rounds),
			zap.Duration("delay", delay))

		if err := e.opts.Sleep(ctx, delay); err != nil {
			res.Elapsed = e.opts.Now().Sub(start)

			return res, fmt.Errorf("%s: %w", t.Key, ErrInterrupted)
		}
	}
}

// MaxBackoff bounds every delay between rounds.
const MaxBackoff = time.Hour

// RetryBackoff is the delay after the n-th failed round: RetryDelay*2^(n-1),
// capped at MaxBackoff.
func (e *Engine) RetryBackoff(n int) time.Duration {
	return backoff(e.opts.RetryDelay, n)
}

// CaptchaBackoff is the delay after the n-th round ending on a challenge.
func (e *Engine) CaptchaBackoff(n int) time.Duration {
	return backoff(max(e.opts.CaptchaDelay, 4*e.opts.RetryDelay), n)
}

// backoff doubles base n-1 times without overflowing.
func backoff(base time.Duration, n int) time.Duration {
	d := base
	for i := 1; i < n && d < MaxBackoff; i++ {
		d *= 2
	}

	return min(d, MaxBackoff)
}

func (e *Engine) finish(res Result, start time.Time) Result {
	res.Elapsed = e.opts.Now().Sub(start)
	e.opts.Metrics.recordResult(res)

	if e.opts.Observer != nil {
		e.opts.Observer.OnResult(res)
	}

	return res
}

// round runs strategies starting at from until one succeeds, hits a
// challenge or the list is exhausted. It returns the last outcome and the
// index of the strategy that produced it.
func (e *Engine) round(
	ctx context.Context,
	t Target,
	strategies []Strategy,
	from, round int,
	res *Result,
) (Outcome, int, error) {
	var out Outcome

	for i := from; i < len(strategies); i++ {
		s := strategies[i]
		started := e.opts.Now()

		target := s.URL(t)

		var err error

		out, err = e.execute(ctx, target)
		if err != nil {
			return out, i, err
		}

		a := Attempt{
			Key:      t.Key,
			Round:    round,
			Strategy: s.Kind(),
			Fallback: i > from,
			URL:      target,
			Outcome:  out,
			Elapsed:  e.opts.Now().Sub(started),
		}

		res.Attempts = append(res.Attempts, a)
		if a.Fallback {
			res.Fallbacks++
		}

		e.opts.Metrics.recordAttempt(a)

		if e.opts.Observer != nil {
			e.opts.Observer.OnAttempt(a)
		}

		if !out.Kind.fallsBack() {
			return out, i, nil
		}
	}

	return out, len(strategies) - 1, nil
}

// execute runs one navigation. The navigation itself is never cancelled by
// ctx; only waiting on the rate limiter is.
func (e *Engine) execute(ctx context.Context, target string) (Outcome, error) {
	if e.opts.Limiter != nil {
		if err := e.opts.Limiter.Wait(ctx); err != nil {
			return Outcome{}, err
		}
	}

	nav := context.WithoutCancel(ctx)

	navCtx, cancel := context.WithTimeout(nav, e.opts.NavigationTimeout)
	err := e.driver.Navigate(navCtx, target)

	cancel()

	if err != nil {
		return ClassifyDriverError("navigate", target, err), nil
	}

	if err := e.driver.WaitFor(nav, "body", e.opts.NavigationTimeout); err != nil {
		return ClassifyDriverError("wait", target, err), nil
	}

	current, err := e.settle(nav)
	if err != nil {
		return ClassifyDriverError("current url", target, err), nil
	}

	text, err := e.driver.VisibleText(nav)
	if err != nil {
		return ClassifyDriverError("visible text", current, err), nil
	}

	if found, marker := e.opts.Patterns.DetectChallenge(current, text); found {
		return failure(OutcomeCaptcha, "%q at %s", marker, current), nil
	}

	out := e.opts.Patterns.ParseURL(current)
	if out.Kind != OutcomeSuccess {
		fromText := e.opts.Patterns.ParseText(text)
		if fromText.Kind == OutcomeSuccess || out.Kind == OutcomeNotFound {
			out = fromText
		}
	}

	return e.validator.Apply(out), nil
}

// settle polls the current URL until it carries a coordinate or shows a
// challenge, or the settle window elapses. Short links and search pages
// rewrite the URL some time after the load event.
func (e *Engine) settle(ctx context.Context) (string, error) {
	deadline := time.Now().Add(e.opts.SettleTimeout)

	for {
		current, err := e.driver.CurrentURL(ctx)
		if err != nil {
			return "", err
		}

		if found, _ := e.opts.Patterns.DetectChallenge(current, ""); found {
			return current, nil
		}

		if e.opts.Patterns.ParseURL(current).Kind != OutcomeNotFound {
			return current, nil
		}

		if !time.Now().Before(deadline) {
			return current, nil
		}

		_ = sleep(ctx, e.opts.PollInterval)
	}
}
