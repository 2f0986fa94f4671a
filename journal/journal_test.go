// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package journal

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcodagnone/latlong/extraction"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open("") // In-memory database
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, CreateSchema(db))

	return db
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, CreateSchema(db))

	var n int

	err := db.QueryRow(`SELECT count(*) FROM information_schema.tables WHERE table_name IN ('runs', 'attempts', 'results')`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestJournalRecordsRun(t *testing.T) {
	db := setupTestDB(t)

	j, err := Start(db, RunInfo{Input: "places.json", LocationContext: "Paris"}, nil)
	require.NoError(t, err)

	coord, err := extraction.ParseCoordinate("48.8606111", "2.337644")
	require.NoError(t, err)
	coord.Source = "viewport"

	j.OnAttempt(extraction.Attempt{
		Key: "louvre", Round: 1, Strategy: extraction.StrategyDirect, URL: "https://maps.app.goo.gl/x",
		Outcome: extraction.Outcome{Kind: extraction.OutcomeNotFound, Detail: "no coordinate pattern in url"},
		Elapsed: time.Second,
	})
	j.OnAttempt(extraction.Attempt{
		Key: "louvre", Round: 1, Strategy: extraction.StrategySearch, Fallback: true,
		Outcome: extraction.Outcome{Kind: extraction.OutcomeSuccess, Coordinate: coord},
	})
	j.OnResult(extraction.Result{
		Key: "louvre", Status: extraction.StatusResolved, Coordinate: &coord,
		Attempts: make([]extraction.Attempt, 2), Rounds: 1,
	})
	j.OnResult(extraction.Result{
		Key: "nowhere", Status: extraction.StatusFailed, Reason: extraction.ReasonBlocked,
		Attempts: make([]extraction.Attempt, 3), Rounds: 3,
	})

	require.NoError(t, j.Err())
	require.NoError(t, j.Finish(extraction.MetricsSnapshot{Resolved: 1, Failed: 1}))

	stats, err := Stats(db)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, j.RunID(), s.RunID)
	assert.Equal(t, "places.json", s.Input)
	assert.NotNil(t, s.FinishedAt)
	assert.Equal(t, 1, s.Resolved)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.Attempts)
	assert.Equal(t, 1, s.Fallbacks)
	assert.Equal(t, map[string]int{"not_found": 1, "success": 1}, s.Outcomes)

	var h3 int64

	err = db.QueryRow(`SELECT h3_res9 FROM results WHERE place_key = 'louvre'`).Scan(&h3)
	require.NoError(t, err)
	assert.NotZero(t, h3)

	history, err := History(db, "louvre")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "resolved", history[0].Status)
	assert.Equal(t, "48.8606111", history[0].Lat)
	require.NotNil(t, history[0].Point)
	assert.InDelta(t, 2.337644, history[0].Point.Lng, 1e-6)

	failed, err := History(db, "nowhere")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "blocked", failed[0].Reason)
	assert.Nil(t, failed[0].Point)
}

func TestStatsEmpty(t *testing.T) {
	stats, err := Stats(setupTestDB(t))
	require.NoError(t, err)
	assert.Empty(t, stats)
}
