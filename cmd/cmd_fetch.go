// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jcodagnone/latlong/batch"
	"github.com/jcodagnone/latlong/browser"
	"github.com/jcodagnone/latlong/extraction"
	"github.com/jcodagnone/latlong/journal"
	"github.com/jcodagnone/latlong/places"
)

type fetchOptions struct {
	Force          bool
	OutputFormat   string
	Output         string
	Context        string
	MaxRetries     int
	RetryDelay     int
	CaptchaDelay   int
	AllowOrigin    bool
	Driver         string
	Headless       bool
	ChromePath     string
	UserAgent      string
	NavTimeout     time.Duration
	Settle         time.Duration
	Rate           float64
	Patterns       string
	Journal        string
	TraceHTTP      bool
	TraceHTTPBody  bool
	SaveEvery      int
	NoProgress     bool
	SearchEndpoint string
}

var fetchOpts = &fetchOptions{}

// validate rejects values the engine would otherwise replace by defaults.
func (o *fetchOptions) validate() error {
	switch {
	case o.MaxRetries <= 0:
		return fmt.Errorf("--max-retries must be a positive integer, got %d", o.MaxRetries)
	case o.RetryDelay <= 0:
		return fmt.Errorf("--retry-delay must be a positive integer, got %d", o.RetryDelay)
	case o.CaptchaDelay <= 0:
		return fmt.Errorf("--captcha-delay must be a positive integer, got %d", o.CaptchaDelay)
	case o.SaveEvery <= 0:
		return fmt.Errorf("--save-every must be a positive integer, got %d", o.SaveEvery)
	case o.NavTimeout <= 0:
		return fmt.Errorf("--nav-timeout must be positive, got %s", o.NavTimeout)
	case o.Settle <= 0:
		return fmt.Errorf("--settle must be positive, got %s", o.Settle)
	case o.Rate < 0:
		return fmt.Errorf("--rate must not be negative, got %g", o.Rate)
	}

	return nil
}

func newDriver(ctx context.Context, o *fetchOptions, logger *zap.Logger) (extraction.Driver, error) {
	switch o.Driver {
	case "chrome":
		return browser.NewChrome(ctx, browser.ChromeOptions{
			Headless:  o.Headless,
			ExecPath:  o.ChromePath,
			UserAgent: o.UserAgent,
			Logger:    logger.Named("chrome"),
		})
	case "http":
		return browser.NewHTTP(browser.HTTPOptions{
			UserAgent: o.UserAgent,
			Trace:     o.TraceHTTP,
			DumpBody:  o.TraceHTTPBody,
			Logger:    logger.Named("http"),
		})
	default:
		return nil, fmt.Errorf("unknown driver %q (want chrome or http)", o.Driver)
	}
}

// newLimiter converts a navigations per minute budget into a limiter. Zero
// means unlimited.
func newLimiter(perMinute float64) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}

	return rate.NewLimiter(rate.Limit(perMinute/60), 1)
}

func loadPatterns(path string) (*extraction.Patterns, error) {
	if path == "" {
		return extraction.DefaultPatterns(), nil
	}

	return extraction.LoadPatterns(path)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <places.json>",
	Short: "Fill in the missing coordinates of a places file",
	Long: `Resolves every place without a coordinate (every place with --force) and
writes the coordinates back into the same file. Progress is saved every few
updates and when the run is interrupted, so it can be resumed by running the
same command again.

$ latlong fetch places.json --context "Paris, France" --output-format csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		input := args[0]
		o := fetchOpts
		logger := zap.L()

		if err := o.validate(); err != nil {
			return err
		}

		format, err := places.ParseFormat(o.OutputFormat)
		if err != nil {
			return err
		}

		patterns, err := loadPatterns(o.Patterns)
		if err != nil {
			return err
		}

		collection, err := places.Load(input)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		driver, err := newDriver(ctx, o, logger)
		if err != nil {
			return fmt.Errorf("creating browser session: %w", err)
		}
		defer func() { err = errors.Join(err, driver.Close()) }()

		metrics := &extraction.Metrics{}
		observers := extraction.Observers{extraction.LogObserver{Logger: logger}}

		var jrnl *journal.Journal

		if o.Journal != "" {
			db, err := openJournal(o.Journal)
			if err != nil {
				return err
			}
			defer db.Close()

			jrnl, err = journal.Start(db, journal.RunInfo{
				Input:           input,
				LocationContext: o.Context,
				Force:           o.Force,
			}, logger.Named("journal"))
			if err != nil {
				return err
			}

			observers = append(observers, jrnl)
		}

		engine := extraction.NewEngine(driver, extraction.Options{
			LocationContext:   o.Context,
			MaxRetries:        o.MaxRetries,
			RetryDelay:        time.Duration(o.RetryDelay) * time.Second,
			CaptchaDelay:      time.Duration(o.CaptchaDelay) * time.Second,
			ForceRefresh:      o.Force,
			AllowOrigin:       o.AllowOrigin,
			NavigationTimeout: o.NavTimeout,
			SettleTimeout:     o.Settle,
			SearchBaseURL:     o.SearchEndpoint,
			Patterns:          patterns,
			Limiter:           newLimiter(o.Rate),
			Observer:          observers,
			Metrics:           metrics,
			Logger:            logger.Named("engine"),
		})

		if o.Context != "" {
			logger.Info("location context", zap.String("context", o.Context))
		}

		runner := batch.NewRunner(engine, batch.Options{
			Force:     o.Force,
			SaveEvery: o.SaveEvery,
			Progress:  !o.NoProgress,
			Save:      func(c *places.Collection) error { return c.Save(input) },
			Logger:    logger,
		})

		summary, runErr := runner.Run(ctx, collection)

		if jrnl != nil {
			if err := jrnl.Finish(summary.Metrics); err != nil {
				logger.Warn("journal incomplete", zap.Error(err))
			}
		}

		if format != places.FormatJSON {
			path := o.Output
			if path == "" {
				path = places.ExportPath(input, format)
			}

			if err := collection.Export(path, format); err != nil {
				runErr = errors.Join(runErr, err)
			} else {
				logger.Info("exported", zap.String("path", path), zap.String("format", string(format)))
			}
		}

		summary.Print(os.Stdout)

		return runErr
	},
}

func openJournal(path string) (*sql.DB, error) {
	db, err := journal.Open(path)
	if err != nil {
		return nil, err
	}

	if err := journal.CreateSchema(db); err != nil {
		return nil, errors.Join(err, db.Close())
	}

	return db, nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	flags := fetchCmd.Flags()
	flags.BoolVar(&fetchOpts.Force, "force", false,
		"Resolve every place, even the ones that already have a coordinate")
	flags.StringVar(&fetchOpts.OutputFormat, "output-format", "json",
		"Also export the places as json, csv or xlsx")
	flags.StringVar(&fetchOpts.Output, "output", "",
		"Export file. Defaults to the input name with the format extension")
	flags.StringVar(&fetchOpts.Context, "context", "",
		`Location appended to place names when searching, e.g. "Paris, France"`)
	flags.IntVar(&fetchOpts.MaxRetries, "max-retries", 3,
		"Attempts per place")
	flags.IntVar(&fetchOpts.RetryDelay, "retry-delay", 5,
		"Base delay in seconds between attempts, doubled on every retry")
	flags.IntVar(&fetchOpts.CaptchaDelay, "captcha-delay", 60,
		"Minimum base delay in seconds after Google shows a challenge")
	flags.BoolVar(&fetchOpts.AllowOrigin, "allow-origin", false,
		"Accept (0, 0) as a low confidence coordinate")
	flags.StringVar(&fetchOpts.Driver, "driver", "chrome",
		"Browser driver: chrome or http")
	flags.BoolVar(&fetchOpts.Headless, "headless", true,
		"Run Chrome without a window")
	flags.StringVar(&fetchOpts.ChromePath, "chrome-path", "",
		"Chrome executable. Defaults to the one found in PATH")
	flags.StringVar(&fetchOpts.UserAgent, "user-agent", browser.DefaultUserAgent,
		"User agent sent by the driver")
	flags.DurationVar(&fetchOpts.NavTimeout, "nav-timeout", 30*time.Second,
		"Page load timeout")
	flags.DurationVar(&fetchOpts.Settle, "settle", 4*time.Second,
		"How long to wait for Maps to rewrite the URL after loading")
	flags.Float64Var(&fetchOpts.Rate, "rate", 0,
		"Maximum navigations per minute, 0 for unlimited")
	flags.StringVar(&fetchOpts.Patterns, "patterns", "",
		"YAML file replacing the built-in coordinate patterns")
	flags.StringVar(&fetchOpts.Journal, "journal", "",
		"DuckDB file recording every attempt")
	flags.StringVar(&fetchOpts.SearchEndpoint, "search-url", extraction.SearchBaseURL,
		"Google Maps search endpoint")
	flags.BoolVar(&fetchOpts.TraceHTTP, "trace-http", false,
		"Log HTTP requests and responses (http driver)")
	flags.BoolVar(&fetchOpts.TraceHTTPBody, "trace-http-body", false,
		"Also log HTTP bodies (http driver)")
	flags.IntVar(&fetchOpts.SaveEvery, "save-every", batch.DefaultSaveEvery,
		"Save the places file after this many updates")
	flags.BoolVar(&fetchOpts.NoProgress, "no-progress", false,
		"Hide the progress bar")
}
