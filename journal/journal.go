// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

// Package journal records every extraction attempt and result in a DuckDB
// database, so runs can be audited and compared after the fact.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jcodagnone/latlong/extraction"
	"github.com/jcodagnone/latlong/spatial"
)

// Open opens (or creates) the journal database at path. An empty path opens
// an in-memory database.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("opening journal %s: %w", path, err), db.Close())
	}

	return db, nil
}

// CreateSchema creates the journal tables if they do not exist.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			input VARCHAR NOT NULL,
			location_context VARCHAR,
			force BOOLEAN DEFAULT FALSE,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			resolved INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0,
			skipped INTEGER DEFAULT 0,
			unchanged INTEGER DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS attempts (
			run_id VARCHAR NOT NULL,
			place_key VARCHAR NOT NULL,
			round INTEGER NOT NULL,
			strategy VARCHAR NOT NULL,
			fallback BOOLEAN NOT NULL,
			url VARCHAR,
			outcome VARCHAR NOT NULL,
			detail VARCHAR,
			lat DOUBLE,
			lng DOUBLE,
			source VARCHAR,
			elapsed_ms BIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS results (
			run_id VARCHAR NOT NULL,
			place_key VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			reason VARCHAR,
			lat VARCHAR,
			lng VARCHAR,
			point VARCHAR,
			low_confidence BOOLEAN DEFAULT FALSE,
			attempts INTEGER,
			rounds INTEGER,
			elapsed_ms BIGINT,
			h3_res5 UBIGINT,
			h3_res6 UBIGINT,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT,
			h3_res9 UBIGINT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating journal schema: %w", err)
	}

	return nil
}

// RunInfo describes a batch run when it starts.
type RunInfo struct {
	Input           string
	LocationContext string
	Force           bool
}

// Journal is an extraction.Observer that writes to the journal tables. Write
// errors do not stop the run; the first one is kept and reported by Err.
type Journal struct {
	db     *sql.DB
	runID  string
	logger *zap.Logger

	mu  sync.Mutex
	err error
}

var _ extraction.Observer = (*Journal)(nil)

// Start registers a new run and returns the journal that records it.
func Start(db *sql.DB, info RunInfo, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	j := &Journal{db: db, runID: uuid.NewString(), logger: logger}

	_, err := db.Exec(`
		INSERT INTO runs(run_id, input, location_context, force, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		j.runID, info.Input, info.LocationContext, info.Force, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("starting journal run: %w", err)
	}

	logger.Debug("journal run started", zap.String("run_id", j.runID))

	return j, nil
}

// RunID identifies the run in the journal tables.
func (j *Journal) RunID() string {
	return j.runID
}

// Err returns the first write error, if any.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.err
}

func (j *Journal) fail(what string, err error) {
	if err == nil {
		return
	}

	j.logger.Warn("journal write failed", zap.String("what", what), zap.Error(err))

	if j.err == nil {
		j.err = fmt.Errorf("journal %s: %w", what, err)
	}
}

// OnAttempt implements extraction.Observer.
func (j *Journal) OnAttempt(a extraction.Attempt) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var lat, lng sql.NullFloat64

	var source sql.NullString

	if a.Outcome.Kind == extraction.OutcomeSuccess {
		lat = sql.NullFloat64{Float64: a.Outcome.Coordinate.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: a.Outcome.Coordinate.Lng, Valid: true}
		source = sql.NullString{String: a.Outcome.Coordinate.Source, Valid: true}
	}

	_, err := j.db.Exec(`
		INSERT INTO attempts(run_id, place_key, round, strategy, fallback, url, outcome, detail, lat, lng, source, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, a.Key, a.Round, string(a.Strategy), a.Fallback, a.URL,
		a.Outcome.Kind.String(), a.Outcome.Detail, lat, lng, source, a.Elapsed.Milliseconds())
	j.fail("attempt", err)
}

// OnResult implements extraction.Observer.
func (j *Journal) OnResult(r extraction.Result) {
	j.mu.Lock()
	defer j.mu.Unlock()

	var (
		lat, lng sql.NullString
		point    any
		cells    = make([]any, spatial.MaxH3Resolution-spatial.MinH3Resolution+1)
	)

	if r.Coordinate != nil {
		lat = sql.NullString{String: r.Coordinate.LatText, Valid: true}
		lng = sql.NullString{String: r.Coordinate.LngText, Valid: true}

		p := r.Coordinate.Point()
		point = p

		h3Cells, err := p.H3Cells()
		if err != nil {
			j.fail("h3 cells", err)
		}

		for i, c := range h3Cells {
			cells[i] = int64(c)
		}
	}

	args := []any{
		j.runID, r.Key, string(r.Status), r.Reason, lat, lng, point,
		r.LowConfidence, len(r.Attempts), r.Rounds, r.Elapsed.Milliseconds(),
	}
	args = append(args, cells...)

	_, err := j.db.Exec(`
		INSERT INTO results(run_id, place_key, status, reason, lat, lng, point,
			low_confidence, attempts, rounds, elapsed_ms,
			h3_res5, h3_res6, h3_res7, h3_res8, h3_res9)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
	j.fail("result", err)
}

// Finish stores the run totals.
func (j *Journal) Finish(m extraction.MetricsSnapshot) error {
	_, err := j.db.Exec(`
		UPDATE runs
		SET finished_at = ?, resolved = ?, failed = ?, skipped = ?, unchanged = ?
		WHERE run_id = ?`,
		time.Now().UTC(), m.Resolved, m.Failed, m.Skipped, m.Unchanged, j.runID)
	if err != nil {
		return fmt.Errorf("finishing journal run: %w", err)
	}

	return j.Err()
}
