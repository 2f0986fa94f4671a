// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"fmt"
	"time"
)

// OutcomeKind classifies the result of a single extraction attempt.
type OutcomeKind int

const (
	// OutcomeSuccess a coordinate was found and accepted.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeNotFound no coordinate pattern matched.
	OutcomeNotFound
	// OutcomeMalformed a pattern matched but the numbers did not parse.
	OutcomeMalformed
	// OutcomeCaptcha an automation challenge was observed.
	OutcomeCaptcha
	// OutcomeDriverError navigation, timeout or transport failure.
	OutcomeDriverError
	// OutcomeValidationRejected the coordinate is out of range or a placeholder.
	OutcomeValidationRejected
)

var outcomeNames = map[OutcomeKind]string{
	OutcomeSuccess:            "success",
	OutcomeNotFound:           "not_found",
	OutcomeMalformed:          "malformed",
	OutcomeCaptcha:            "captcha_detected",
	OutcomeDriverError:        "driver_error",
	OutcomeValidationRejected: "validation_rejected",
}

func (k OutcomeKind) String() string {
	if s, ok := outcomeNames[k]; ok {
		return s
	}

	return fmt.Sprintf("outcome(%d)", int(k))
}

// fallsBack reports whether a failed direct attempt with this outcome
// continues with the search strategy in the same round.
func (k OutcomeKind) fallsBack() bool {
	switch k {
	case OutcomeNotFound, OutcomeMalformed, OutcomeDriverError, OutcomeValidationRejected:
		return true
	default:
		return false
	}
}

// Outcome is the tagged result of parsing or of a whole strategy run.
type Outcome struct {
	Kind       OutcomeKind
	Coordinate Coordinate // only meaningful when Kind == OutcomeSuccess
	Detail     string

	// LowConfidence is set when the validator accepted a suspicious value.
	LowConfidence bool
}

func (o Outcome) String() string {
	if o.Kind == OutcomeSuccess {
		return fmt.Sprintf("%s (%s via %s)", o.Kind, o.Coordinate, o.Coordinate.Source)
	}

	if o.Detail == "" {
		return o.Kind.String()
	}

	return fmt.Sprintf("%s: %s", o.Kind, o.Detail)
}

func success(c Coordinate) Outcome {
	return Outcome{Kind: OutcomeSuccess, Coordinate: c}
}

func failure(kind OutcomeKind, format string, args ...any) Outcome {
	return Outcome{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// StrategyKind names an extraction strategy.
type StrategyKind string

const (
	StrategyDirect StrategyKind = "direct"
	StrategySearch StrategyKind = "search"
)

// Attempt describes one strategy execution. It is never persisted by the
// engine; observers decide what to do with it.
type Attempt struct {
	Key      string
	Round    int
	Strategy StrategyKind
	// Fallback is set when the strategy ran because the previous one in the
	// same round failed.
	Fallback bool
	URL      string
	Outcome  Outcome
	Elapsed  time.Duration
}

// Status is the lifecycle state of a place record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
)

// ReasonBlocked is the failure reason of records that exhausted their
// retries on automation challenges.
const ReasonBlocked = "blocked"

// Result is the final state of a record after the engine is done with it.
type Result struct {
	Key        string
	Status     Status
	Coordinate *Coordinate
	// Reason holds the outcome kind that made the record fail, or
	// ReasonBlocked.
	Reason string
	// Detail holds the human readable detail of the last outcome.
	Detail        string
	LowConfidence bool
	Attempts      []Attempt
	Rounds        int
	Fallbacks     int
	Elapsed       time.Duration
}
