// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	charm "github.com/charmbracelet/log"
	"github.com/poiesic/didyoumean"
	"github.com/poiesic/didyoumean/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

// defaultConfigFile is read from the working directory when --config is not given.
const defaultConfigFile = "didyoumean.toml"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		charm.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "didyoumean",
		Usage: "Self-training query correction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a TOML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides the configuration)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address, e.g. :9090",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:      "suggest",
				Usage:     "Print corrections for a query",
				ArgsUsage: "QUERY...",
				Action:    suggestCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Maximum number of suggestions",
						Value:   5,
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Trace every stage of the suggester",
					},
					&cli.BoolFlag{
						Name:  "second-level",
						Usage: "Build the corpus suggesters before answering",
					},
					&cli.StringFlag{
						Name:  "system-corpus",
						Usage: "File of system documents, one per line, for multi-token suggestions",
					},
				},
			},
			{
				Name:   "prompt",
				Usage:  "Read queries from standard input and print corrections",
				Action: promptCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "count",
						Aliases: []string{"n"},
						Usage:   "Maximum number of suggestions",
						Value:   1,
					},
					&cli.BoolFlag{
						Name:  "second-level",
						Usage: "Build the corpus suggesters before reading queries",
					},
					&cli.StringFlag{
						Name:  "system-corpus",
						Usage: "File of system documents, one per line, for multi-token suggestions",
					},
					&cli.BoolFlag{
						Name:  "record",
						Usage: "Record the queries as a session for later training",
					},
				},
			},
			{
				Name:   "train",
				Usage:  "Train the dictionary from expired sessions",
				Action: trainCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "threads",
						Usage: "Number of training workers (0 uses the configuration)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of sessions loaded per batch (0 uses the configuration)",
					},
					&cli.BoolFlag{
						Name:  "progress",
						Usage: "Report progress on standard error",
						Value: true,
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import query logs as sessions",
				ArgsUsage: "FILE... (- for standard input)",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "train",
						Usage: "Train expired sessions after importing",
					},
				},
			},
			{
				Name:   "build-corpus",
				Usage:  "Mine the dictionary for the second-level corpus and report it",
				Action: buildCorpusCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "system-corpus",
						Usage: "File of system documents, one per line, for multi-token suggestions",
					},
					&cli.BoolFlag{
						Name:  "list",
						Usage: "Print every corpus document",
					},
				},
			},
			{
				Name:   "prune",
				Usage:  "Truncate every suggestion list",
				Action: pruneCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "max-size",
						Usage: "Maximum suggestions kept per list",
						Value: 10,
					},
				},
			},
			{
				Name:   "optimize",
				Usage:  "Resolve suggestion chains in the dictionary",
				Action: optimizeCommand,
			},
			{
				Name:   "stats",
				Usage:  "Print dictionary and session store sizes",
				Action: statsCommand,
			},
		},
	}
}

func setup(c *cli.Context) error {
	if err := setupLogger(c); err != nil {
		return err
	}
	if addr := c.String("metrics-addr"); addr != "" {
		serveMetrics(addr)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level charm.Level
	switch levelStr {
	case "debug":
		level = charm.DebugLevel
	case "info":
		level = charm.InfoLevel
	case "warn":
		level = charm.WarnLevel
	case "error":
		level = charm.ErrorLevel
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := charm.NewWithOptions(os.Stderr, charm.Options{
		Level:           level,
		ReportTimestamp: level == charm.DebugLevel,
		Formatter:       charm.TextFormatter,
	})
	slog.SetDefault(slog.New(logger))

	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "addr", addr, "err", err)
		}
	}()
	slog.Info("serving metrics", "addr", addr)
}

// loadConfig reads --config, or didyoumean.toml when present, and applies --db.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, source, err := config.LoadWithPriority(c.String("config"), defaultConfigFile)
	if err != nil {
		return nil, err
	}
	if path := c.String("config"); path != "" && source != path {
		return nil, fmt.Errorf("config file %s not found", path)
	}
	if source != "" {
		slog.Debug("loaded configuration", "path", source)
	}
	if db := c.String("db"); db != "" {
		config.WithStoragePath(db)(cfg)
	}
	return cfg, nil
}

func openEngine(c *cli.Context, opts ...didyoumean.EngineOption) (*didyoumean.Engine, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	opts = append([]didyoumean.EngineOption{didyoumean.WithLogger(slog.Default())}, opts...)
	engine, err := didyoumean.NewEngine(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}
	return engine, nil
}
