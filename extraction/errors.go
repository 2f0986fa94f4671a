// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTimeout is returned by drivers when a page does not load or settle
	// in time.
	ErrTimeout = errors.New("driver timeout")

	// ErrInterrupted is returned by Engine.Resolve when the stop signal
	// fires while waiting between attempts. The record is left untouched.
	ErrInterrupted = errors.New("interrupted")
)

// DriverError wraps a failure reported by the browser driver.
type DriverError struct {
	Op  string
	URL string
	Err error
}

func (e *DriverError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// IsTimeoutError reports whether err looks like a page load timeout.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyDriverError turns a driver error into a driver_error outcome.
func ClassifyDriverError(op, url string, err error) Outcome {
	if IsTimeoutError(err) {
		return failure(OutcomeDriverError, "timeout during %s", op)
	}

	return Outcome{
		Kind:   OutcomeDriverError,
		Detail: (&DriverError{Op: op, URL: url, Err: err}).Error(),
	}
}
