// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch walks a place collection in order, resolves the records
// that need a coordinate and writes the results back.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/jcodagnone/latlong/extraction"
	"github.com/jcodagnone/latlong/places"
)

// DefaultSaveEvery is how many updates are written between periodic saves.
const DefaultSaveEvery = 5

// Resolver resolves one target. *extraction.Engine implements it.
type Resolver interface {
	Resolve(ctx context.Context, t extraction.Target) (extraction.Result, error)
	Metrics() *extraction.Metrics
}

// Options configures a Runner.
type Options struct {
	// Force re-resolves records that already have a coordinate.
	Force bool

	// SaveEvery saves the collection after this many updates.
	SaveEvery int

	// Progress shows a progress bar on stderr when it is a terminal.
	Progress bool

	// Save persists the collection. It is called periodically and once more
	// when the run ends, interrupted or not.
	Save func(*places.Collection) error

	Logger *zap.Logger
	Now    func() time.Time
}

// Runner drives a Resolver over a collection.
type Runner struct {
	resolver Resolver
	opts     Options
}

// NewRunner returns a runner. A nil Save keeps the collection in memory.
func NewRunner(resolver Resolver, opts Options) *Runner {
	if opts.SaveEvery <= 0 {
		opts.SaveEvery = DefaultSaveEvery
	}

	if opts.Save == nil {
		opts.Save = func(*places.Collection) error { return nil }
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{resolver: resolver, opts: opts}
}

// Summary describes a finished run.
type Summary struct {
	Total int
	// Updated counts records whose coordinate was written.
	Updated int
	// Unchanged counts refreshed records that resolved to the same value.
	Unchanged int
	Failed    int
	// Skipped counts records with neither a name nor a URL.
	Skipped int
	// Resolved counts records left alone because they had a coordinate.
	Resolved    int
	Warnings    int64
	Interrupted bool
	Elapsed     time.Duration
	Metrics     extraction.MetricsSnapshot
}

// PerLocation is the average time spent per updated record.
func (s Summary) PerLocation() time.Duration {
	if s.Updated == 0 {
		return 0
	}

	return s.Elapsed / time.Duration(s.Updated)
}

// Rate is the number of updated records per minute.
func (s Summary) Rate() float64 {
	if per := s.PerLocation(); per > 0 {
		return float64(time.Minute) / float64(per)
	}

	return 0
}

// Run processes the collection. The returned error reports a failed save;
// per-record failures are only counted. An interrupt stops the walk between
// records and is reported through Summary.Interrupted.
func (r *Runner) Run(ctx context.Context, c *places.Collection) (Summary, error) {
	var (
		start   = r.opts.Now()
		log     = r.opts.Logger
		metrics = r.resolver.Metrics()
		sum     = Summary{Total: c.Len()}
		bar     = r.progressBar(c.Len())
		saveErr error
	)

	log.Info("processing places", zap.Int("total", c.Len()), zap.Bool("force", r.opts.Force))

	for _, rec := range c.Records {
		if ctx.Err() != nil {
			sum.Interrupted = true

			break
		}

		if rec.HasCoordinate() && !r.opts.Force {
			sum.Resolved++

			_ = bar.Add(1)

			continue
		}

		if rec.Name == "" && rec.URL == "" {
			log.Warn("skipped: no name or URL", zap.String("key", rec.Key))
			metrics.AddSkipped()

			sum.Skipped++

			_ = bar.Add(1)

			continue
		}

		bar.Describe("Processing: " + truncate(rec.Name, 30))

		res, err := r.resolver.Resolve(ctx, rec.Target())
		if err != nil {
			// the record is left as it was
			log.Warn("stopping", zap.String("key", rec.Key), zap.Error(err))

			sum.Interrupted = true

			break
		}

		switch res.Status {
		case extraction.StatusResolved:
			updated, err := r.apply(rec, *res.Coordinate, metrics)
			if err != nil {
				return sum, err
			}

			if !updated {
				sum.Unchanged++

				break
			}

			sum.Updated++

			if sum.Updated%r.opts.SaveEvery == 0 {
				if err := r.opts.Save(c); err != nil {
					log.Error("periodic save failed", zap.Error(err))

					saveErr = err
				}
			}
		case extraction.StatusFailed:
			rec.MarkFailed(res.Reason)

			sum.Failed++
		case extraction.StatusPending, extraction.StatusSkipped:
		}

		_ = bar.Add(1)
	}

	_ = bar.Finish()

	if err := r.opts.Save(c); err != nil {
		saveErr = errors.Join(saveErr, err)
	} else {
		saveErr = nil
	}

	sum.Metrics = metrics.Snapshot()
	sum.Warnings = sum.Metrics.Warnings()
	sum.Elapsed = r.opts.Now().Sub(start)

	if saveErr != nil {
		return sum, fmt.Errorf("saving places: %w", saveErr)
	}

	return sum, nil
}

// apply writes c into rec and reports whether the stored value changed.
func (r *Runner) apply(rec *places.Record, c extraction.Coordinate, metrics *extraction.Metrics) (bool, error) {
	log := r.opts.Logger.With(zap.String("key", rec.Key), zap.String("name", rec.Name))

	if prev := rec.Coordinate; prev != nil {
		if prev.Equal(c) {
			log.Debug("no change")
			metrics.AddUnchanged()

			return false, nil
		}

		from, to := prev.Point(), c.Point()
		log.Info("coordinate moved",
			zap.Stringer("from", prev),
			zap.Stringer("to", c),
			zap.Float64("meters", from.HaversineDistance(&to)))
	}

	if err := rec.SetCoordinate(c); err != nil {
		return false, fmt.Errorf("updating %s: %w", rec.Key, err)
	}

	log.Info("updated", zap.Stringer("coordinate", c), zap.String("source", c.Source))

	return true, nil
}

func (r *Runner) progressBar(n int) *progressbar.ProgressBar {
	if !r.opts.Progress || !isatty.IsTerminal(os.Stderr.Fd()) {
		return progressbar.NewOptions(n, progressbar.OptionSetWriter(io.Discard))
	}

	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Processing locations"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "…"
}
