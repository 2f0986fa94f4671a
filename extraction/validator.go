// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package extraction

import (
	"fmt"
	"math"
)

// Verdict is the validator decision for one coordinate.
type Verdict struct {
	Accepted      bool
	Reason        string
	LowConfidence bool
}

// Validator applies range and plausibility checks to parsed coordinates.
type Validator struct {
	// AllowOrigin accepts (0, 0) flagged as low confidence instead of
	// rejecting it as a placeholder.
	AllowOrigin bool
}

// Check validates c.
func (v Validator) Check(c Coordinate) Verdict {
	switch {
	case math.IsNaN(c.Lat) || math.IsNaN(c.Lng):
		return Verdict{Reason: "not a number"}
	case c.Lat < -90 || c.Lat > 90:
		return Verdict{Reason: fmt.Sprintf("latitude %v out of range [-90, 90]", c.Lat)}
	case c.Lng < -180 || c.Lng > 180:
		return Verdict{Reason: fmt.Sprintf("longitude %v out of range [-180, 180]", c.Lng)}
	case c.Lat == 0 && c.Lng == 0:
		if !v.AllowOrigin {
			return Verdict{Reason: "(0, 0) placeholder"}
		}

		return Verdict{Accepted: true, Reason: "(0, 0) accepted", LowConfidence: true}
	}

	return Verdict{Accepted: true}
}

// Apply turns a successful parse outcome into validation_rejected when the
// coordinate does not pass Check. Other outcomes are returned untouched.
func (v Validator) Apply(o Outcome) Outcome {
	if o.Kind != OutcomeSuccess {
		return o
	}

	verdict := v.Check(o.Coordinate)
	if !verdict.Accepted {
		return failure(OutcomeValidationRejected, "%s: %s", o.Coordinate, verdict.Reason)
	}

	o.LowConfidence = verdict.LowConfidence
	o.Detail = verdict.Reason

	return o
}
