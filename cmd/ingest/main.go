// Command ingest runs the mention pipeline once and pushes the resulting
// snapshot to a remote serving deployment. It keeps no local state, which
// makes it suitable for CI-style scheduled execution.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TickerRadar/internal/config"
	"TickerRadar/internal/infrastructure/ai"
	"TickerRadar/internal/infrastructure/fivech"
	"TickerRadar/internal/infrastructure/httpapi"
	"TickerRadar/internal/logging"
	"TickerRadar/internal/ports"
	"TickerRadar/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.ForFormat(cfg.Logging.Format, cfg.Logging.Level)

	if cfg.Ingest.BaseURL == "" || cfg.Ingest.Token == "" {
		logger.Error("missing ingest target", "hint", "set WORKER_BASE_URL and INGEST_TOKEN")
		os.Exit(1)
	}

	fetcher := fivech.NewFetcher(
		&http.Client{Timeout: cfg.Pipeline.FetchTimeout()},
		cfg.Pipeline.RequestsPerSec,
		logger.With("component", "fetcher"),
	)

	var commentator ports.Commentator
	if cfg.Gemini.APIKey != "" {
		commentator = ai.NewGeminiCommentator(cfg.Gemini.APIKey, cfg.Gemini.Models, logger.With("component", "gemini"))
	}

	pipeline := usecase.NewPipeline(cfg, usecase.PipelineDeps{
		Fetcher:     fetcher,
		Commentator: commentator,
		Logger:      logger.With("component", "pipeline"),
	})

	snapshot, err := pipeline.Run(ctx, time.Now())
	if err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	client := httpapi.NewClient(cfg.Ingest.BaseURL, cfg.Ingest.Token)
	if err := client.Ingest(ctx, snapshot); err != nil {
		logger.Error("snapshot upload failed", "error", err)
		os.Exit(1)
	}

	logger.Info("snapshot uploaded", "window", snapshot.Window, "tickers", len(snapshot.Items))
}
