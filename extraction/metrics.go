// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"sync/atomic"
	"time"
)

// Metrics are run counters. The zero value is ready to use and all methods
// are safe for concurrent use.
type Metrics struct {
	attempts           atomic.Int64
	rounds             atomic.Int64
	fallbacks          atomic.Int64
	captchas           atomic.Int64
	notFound           atomic.Int64
	malformed          atomic.Int64
	driverErrors       atomic.Int64
	validationRejected atomic.Int64
	resolved           atomic.Int64
	failed             atomic.Int64
	skipped            atomic.Int64
	unchanged          atomic.Int64
	lowConfidence      atomic.Int64
	elapsed            atomic.Int64
}

// MetricsSnapshot is a point in time copy of Metrics.
type MetricsSnapshot struct {
	Attempts           int64
	Rounds             int64
	Fallbacks          int64
	Captchas           int64
	NotFound           int64
	Malformed          int64
	DriverErrors       int64
	ValidationRejected int64
	Resolved           int64
	Failed             int64
	Skipped            int64
	Unchanged          int64
	LowConfidence      int64
	Elapsed            time.Duration
}

func (m *Metrics) recordAttempt(a Attempt) {
	m.attempts.Add(1)

	if a.Fallback {
		m.fallbacks.Add(1)
	}

	switch a.Outcome.Kind {
	case OutcomeCaptcha:
		m.captchas.Add(1)
	case OutcomeNotFound:
		m.notFound.Add(1)
	case OutcomeMalformed:
		m.malformed.Add(1)
	case OutcomeDriverError:
		m.driverErrors.Add(1)
	case OutcomeValidationRejected:
		m.validationRejected.Add(1)
	case OutcomeSuccess:
	}
}

func (m *Metrics) recordResult(r Result) {
	m.rounds.Add(int64(r.Rounds))
	m.elapsed.Add(int64(r.Elapsed))

	switch r.Status {
	case StatusResolved:
		m.resolved.Add(1)

		if r.LowConfidence {
			m.lowConfidence.Add(1)
		}
	case StatusFailed:
		m.failed.Add(1)
	case StatusPending, StatusSkipped:
	}
}

// AddSkipped counts a record the batch did not send to the engine.
func (m *Metrics) AddSkipped() { m.skipped.Add(1) }

// AddUnchanged counts a refreshed record whose coordinate did not move.
func (m *Metrics) AddUnchanged() { m.unchanged.Add(1) }

// Merge adds the counters of other into m.
func (m *Metrics) Merge(other *Metrics) {
	s := other.Snapshot()

	m.attempts.Add(s.Attempts)
	m.rounds.Add(s.Rounds)
	m.fallbacks.Add(s.Fallbacks)
	m.captchas.Add(s.Captchas)
	m.notFound.Add(s.NotFound)
	m.malformed.Add(s.Malformed)
	m.driverErrors.Add(s.DriverErrors)
	m.validationRejected.Add(s.ValidationRejected)
	m.resolved.Add(s.Resolved)
	m.failed.Add(s.Failed)
	m.skipped.Add(s.Skipped)
	m.unchanged.Add(s.Unchanged)
	m.lowConfidence.Add(s.LowConfidence)
	m.elapsed.Add(int64(s.Elapsed))
}

// Snapshot copies the counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Attempts:           m.attempts.Load(),
		Rounds:             m.rounds.Load(),
		Fallbacks:          m.fallbacks.Load(),
		Captchas:           m.captchas.Load(),
		NotFound:           m.notFound.Load(),
		Malformed:          m.malformed.Load(),
		DriverErrors:       m.driverErrors.Load(),
		ValidationRejected: m.validationRejected.Load(),
		Resolved:           m.resolved.Load(),
		Failed:             m.failed.Load(),
		Skipped:            m.skipped.Load(),
		Unchanged:          m.unchanged.Load(),
		LowConfidence:      m.lowConfidence.Load(),
		Elapsed:            time.Duration(m.elapsed.Load()),
	}
}

// Warnings is the number of validation problems seen during the run.
func (s MetricsSnapshot) Warnings() int64 {
	return s.ValidationRejected + s.LowConfidence
}
