// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jcodagnone/latlong/spatial"
)

// RunStats summarizes one run.
type RunStats struct {
	RunID      string
	Input      string
	StartedAt  time.Time
	FinishedAt *time.Time
	Resolved   int
	Failed     int
	Skipped    int
	Unchanged  int
	Attempts   int
	Fallbacks  int
	// Outcomes counts attempts per outcome kind.
	Outcomes map[string]int
}

// Stats returns every run, oldest first, with its attempt counts.
func Stats(db *sql.DB) ([]*RunStats, error) {
	rows, err := db.Query(`
		SELECT run_id, input, started_at, finished_at, resolved, failed, skipped, unchanged
		FROM runs
		ORDER BY started_at, run_id`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var (
		ret   []*RunStats
		index = make(map[string]*RunStats)
	)

	for rows.Next() {
		s := &RunStats{Outcomes: make(map[string]int)}

		var finished sql.NullTime

		if err := rows.Scan(&s.RunID, &s.Input, &s.StartedAt, &finished,
			&s.Resolved, &s.Failed, &s.Skipped, &s.Unchanged); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}

		if finished.Valid {
			s.FinishedAt = &finished.Time
		}

		ret = append(ret, s)
		index[s.RunID] = s
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	outcomes, err := db.Query(`
		SELECT run_id, outcome, count(*), count(*) FILTER (WHERE fallback)
		FROM attempts
		GROUP BY run_id, outcome`)
	if err != nil {
		return nil, fmt.Errorf("querying attempts: %w", err)
	}
	defer outcomes.Close()

	for outcomes.Next() {
		var (
			runID, outcome  string
			count, fallback int
		)

		if err := outcomes.Scan(&runID, &outcome, &count, &fallback); err != nil {
			return nil, fmt.Errorf("scanning attempts: %w", err)
		}

		if s, ok := index[runID]; ok {
			s.Outcomes[outcome] = count
			s.Attempts += count
			s.Fallbacks += fallback
		}
	}

	return ret, outcomes.Err()
}

// PlaceResult is the journal entry of a place in one run.
type PlaceResult struct {
	RunID     string
	Status    string
	Reason    string
	Lat       string
	Lng       string
	Point     *spatial.Point
	Attempts  int
	CreatedAt time.Time
}

// History returns the results recorded for key, newest first.
func History(db *sql.DB, key string) ([]*PlaceResult, error) {
	rows, err := db.Query(`
		SELECT run_id, status, coalesce(reason, ''), coalesce(lat, ''), coalesce(lng, ''), point, attempts, created_at
		FROM results
		WHERE place_key = ?
		ORDER BY created_at DESC`, key)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var ret []*PlaceResult

	for rows.Next() {
		r := &PlaceResult{}

		var point sql.NullString

		if err := rows.Scan(&r.RunID, &r.Status, &r.Reason, &r.Lat, &r.Lng, &point, &r.Attempts, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}

		if point.Valid {
			r.Point = &spatial.Point{}
			if err := r.Point.Scan(point.String); err != nil {
				return nil, err
			}
		}

		ret = append(ret, r)
	}

	return ret, rows.Err()
}
