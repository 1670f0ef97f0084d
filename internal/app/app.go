package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"TickerRadar/internal/config"
	"TickerRadar/internal/infrastructure/ai"
	"TickerRadar/internal/infrastructure/fivech"
	"TickerRadar/internal/infrastructure/httpapi"
	"TickerRadar/internal/infrastructure/quotes"
	"TickerRadar/internal/infrastructure/scheduler"
	"TickerRadar/internal/infrastructure/storage"
	"TickerRadar/internal/logging"
	"TickerRadar/internal/ports"
	"TickerRadar/internal/usecase"
)

// Application wires configuration to storage, jobs and the HTTP server.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Store
	server    *httpapi.Server
	scheduler *usecase.Scheduler
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.ForFormat(cfg.Logging.Format, cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Storage.Path, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, err
	}

	fetcher := fivech.NewFetcher(
		&http.Client{Timeout: cfg.Pipeline.FetchTimeout()},
		cfg.Pipeline.RequestsPerSec,
		baseLogger.With("component", "fetcher"),
	)

	var commentator ports.Commentator
	if cfg.Gemini.APIKey != "" {
		commentator = ai.NewGeminiCommentator(cfg.Gemini.APIKey, cfg.Gemini.Models, baseLogger.With("component", "gemini"))
	}

	pipeline := usecase.NewPipeline(cfg, usecase.PipelineDeps{
		Fetcher:     fetcher,
		Repository:  store,
		Commentator: commentator,
		Logger:      baseLogger.With("component", "pipeline"),
	})

	var priceUpdater *usecase.PriceUpdater
	if !cfg.Prices.Disabled {
		provider := quotes.NewYahooClient(nil, baseLogger.With("component", "quotes"))
		priceUpdater = usecase.NewPriceUpdater(provider, store, store, cfg.Prices.Watchlist, cfg.Pipeline.Window, baseLogger.With("component", "prices"))
	}

	driver := scheduler.NewCronScheduler(cfg.Scheduler.Location())
	jobs := usecase.NewScheduler(driver, pipeline, priceUpdater, baseLogger.With("component", "scheduler"))

	server := httpapi.NewServer(
		cfg.Server.ListenAddr,
		store,
		store,
		cfg.Server.IngestToken,
		baseLogger.With("component", "httpapi"),
	)

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		server:    server,
		scheduler: jobs,
	}, nil
}

// Run starts the scheduled jobs and the HTTP server, then blocks until ctx is
// cancelled and everything has shut down.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx, a.cfg.Scheduler.IngestCron, a.cfg.Scheduler.PricesCron); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.ListenAddr)
		serveErr <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		a.shutdown()
		return err
	case <-ctx.Done():
		a.shutdown()
		return nil
	}
}

func (a *Application) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http server shutdown", "error", err)
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.logger.Warn("scheduler shutdown", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("storage close", "error", err)
	}
}
