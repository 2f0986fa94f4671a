// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import "go.uber.org/zap"

// Observer receives engine events. Calls happen on the goroutine running
// Engine.Resolve.
type Observer interface {
	OnAttempt(a Attempt)
	OnResult(r Result)
}

// Observers fans events out to every non-nil observer in order.
type Observers []Observer

func (os Observers) OnAttempt(a Attempt) {
	for _, o := range os {
		if o != nil {
			o.OnAttempt(a)
		}
	}
}

func (os Observers) OnResult(r Result) {
	for _, o := range os {
		if o != nil {
			o.OnResult(r)
		}
	}
}

// LogObserver writes engine events to a zap logger.
type LogObserver struct {
	Logger *zap.Logger
}

func (l LogObserver) OnAttempt(a Attempt) {
	fields := []zap.Field{
		zap.String("key", a.Key),
		zap.Int("round", a.Round),
		zap.String("strategy", string(a.Strategy)),
		zap.Bool("fallback", a.Fallback),
		zap.String("outcome", a.Outcome.Kind.String()),
		zap.Duration("elapsed", a.Elapsed),
	}

	if a.Outcome.Kind == OutcomeSuccess {
		l.Logger.Debug("attempt", append(fields,
			zap.String("coordinate", a.Outcome.Coordinate.String()),
			zap.String("source", a.Outcome.Coordinate.Source))...)

		return
	}

	l.Logger.Debug("attempt", append(fields,
		zap.String("url", a.URL),
		zap.String("detail", a.Outcome.Detail))...)
}

func (l LogObserver) OnResult(r Result) {
	switch r.Status {
	case StatusResolved:
		msg := "resolved"
		if r.LowConfidence {
			msg = "resolved with low confidence"
		}

		l.Logger.Info(msg,
			zap.String("key", r.Key),
			zap.Stringer("coordinate", r.Coordinate),
			zap.String("source", r.Coordinate.Source),
			zap.Int("attempts", len(r.Attempts)))
	case StatusFailed:
		l.Logger.Warn("failed",
			zap.String("key", r.Key),
			zap.String("reason", r.Reason),
			zap.String("detail", r.Detail),
			zap.Int("attempts", len(r.Attempts)))
	case StatusPending, StatusSkipped:
		l.Logger.Debug("left untouched", zap.String("key", r.Key), zap.String("status", string(r.Status)))
	}
}
