// Copyright 2025 The latlong Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// envPrefix prefixes the environment variables that provide flag defaults:
// --max-retries is read from LATLONG_MAX_RETRIES.
const envPrefix = "LATLONG_"

type rootOptions struct {
	LogLevel string
	LogFile  string
	EnvFile  string
}

var rootOpts = &rootOptions{}

var rootCmd = &cobra.Command{
	Use:   "latlong",
	Short: "resolve Google Maps places to coordinates",
	Long: `
latlong reads a JSON file of places (name, Google Maps link) and fills in
their latitude and longitude by loading each place in Google Maps and reading
the coordinate from the resulting URL or page.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadEnv(rootOpts.EnvFile); err != nil {
			return err
		}

		if err := applyEnv(cmd); err != nil {
			return err
		}

		logger, err := newLogger(rootOpts.LogLevel, rootOpts.LogFile)
		if err != nil {
			return err
		}

		zap.ReplaceGlobals(logger)

		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

var Version = "dev"

func Execute(version string) {
	Version = version
	rootCmd.Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadEnv reads a .env file. A missing file is not an error.
func loadEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

// applyEnv sets every flag the user did not pass from its LATLONG_
// environment variable, if present.
func applyEnv(cmd *cobra.Command) error {
	var err error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}

		name := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		if v, ok := os.LookupEnv(name); ok {
			if serr := cmd.Flags().Set(f.Name, v); serr != nil {
				err = fmt.Errorf("%s: %w", name, serr)
			}
		}
	})

	return err
}

// newLogger logs to stderr in console format and, when file is set, to file
// as JSON lines.
func newLogger(level, file string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	console := zap.NewDevelopmentEncoderConfig()
	console.EncodeLevel = zapcore.CapitalColorLevelEncoder
	console.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(console), zapcore.Lock(os.Stderr), lvl),
	}

	if file != "" {
		f, _, err := zap.Open(file)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}

		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), f, lvl))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&rootOpts.LogLevel,
		"log-level",
		"info",
		"Log level: debug, info, warn or error",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOpts.LogFile,
		"log-file",
		"",
		"Also write JSON logs to this file",
	)
	rootCmd.PersistentFlags().StringVar(
		&rootOpts.EnvFile,
		"env-file",
		".env",
		"File with LATLONG_* variables providing flag defaults",
	)
}
