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
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/mailroom"
	"github.com/poiesic/mailroom/config"
	"github.com/poiesic/mailroom/ingestion"
	"github.com/poiesic/mailroom/intake"
	"github.com/poiesic/mailroom/reembed"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "mailroom",
		Usage: "Email ingestion into threads, messages and embeddings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load settings from these .env files (default: .env if present)",
			},
			&cli.StringFlag{
				Name:  "store",
				Usage: "Storage backend (rest, badger); overrides STORE",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the intake endpoint",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address; overrides INTAKE_ADDR",
					},
				},
			},
			{
				Name:      "ingest",
				Usage:     "Ingest one inbound email",
				ArgsUsage: " ",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "user",
						Aliases:  []string{"u"},
						Usage:    "Owning user id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "Email body (read from stdin when omitted)",
					},
					&cli.StringFlag{
						Name:  "external-id",
						Usage: "Producer idempotency key",
					},
				},
			},
			{
				Name:   "ingest-batch",
				Usage:  "Ingest a JSONL file of {user_id, text, external_id} objects",
				Action: ingestBatchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the JSONL file, or - for stdin",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of users ingested concurrently",
						Value: 4,
					},
				},
			},
			{
				Name:   "reembed",
				Usage:  "Embed stored messages that have no embedding",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Only repair this user's messages",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of messages to process in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N messages",
						Value: 100,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Re-embed every message, not only missing ones",
					},
				},
			},
		},
	}
}

// loadConfig reads settings and applies global flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return nil, err
	}
	if store := c.String("store"); store != "" {
		cfg.Store = strings.ToLower(store)
	}
	return cfg, nil
}

func openService(c *cli.Context) (*mailroom.Service, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return mailroom.New(cfg, mailroom.WithLogger(slog.Default()))
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.IntakeAddr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}

	gin.SetMode(gin.ReleaseMode)
	logger := slog.Default()
	router := intake.NewRouter(intake.NewHandler(intake.WithLogger(logger)), logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("intake listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down intake")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func ingestCommand(c *cli.Context) error {
	text := c.String("text")
	if !c.IsSet("text") {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Pipeline().IngestEmail(c.Context, c.String("user"), text, c.String("external-id")); err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "ok")
	return nil
}

func ingestBatchCommand(c *cli.Context) error {
	var in io.Reader = c.App.Reader
	if path := c.String("file"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open batch file: %w", err)
		}
		defer f.Close()
		in = f
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	batch, err := svc.NewBatch(ingestion.WithPoolSize(c.Int("pool-size")))
	if err != nil {
		return err
	}
	defer batch.Release()

	result, err := batch.Run(c.Context, in)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	for _, itemErr := range result.Errors {
		fmt.Fprintf(c.App.ErrWriter, "line %d (user %s): %v\n", itemErr.Line, itemErr.UserID, itemErr.Err)
	}
	fmt.Fprintf(c.App.Writer, "Ingested %d/%d items (%d failed)\n", result.Succeeded, result.Total, result.Failed)
	if result.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d items failed", result.Failed), 1)
	}
	return nil
}

func reembedCommand(c *cli.Context) error {
	cfg := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		UserID:         c.String("user"),
		Force:          c.Bool("force"),
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if cfg.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	r, err := svc.NewReembedder(cfg, c.App.ErrWriter)
	if err != nil {
		return err
	}
	report, err := r.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Scanned %d messages, %d missing, %d repaired\n",
		report.Scanned, report.Missing, report.Repaired)
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
