// Command pipeline runs one sentiment collection and aggregation pass for a
// symbol and prints the resulting summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sentibot/sentiment-data/internal/collect"
	"github.com/sentibot/sentiment-data/internal/config"
	"github.com/sentibot/sentiment-data/internal/fetch"
	"github.com/sentibot/sentiment-data/internal/filter"
	"github.com/sentibot/sentiment-data/internal/model"
	"github.com/sentibot/sentiment-data/internal/nlp"
	"github.com/sentibot/sentiment-data/internal/pipeline"
	"github.com/sentibot/sentiment-data/internal/source"
	"github.com/sentibot/sentiment-data/internal/store"
	"github.com/sentibot/sentiment-data/internal/trends"
	"github.com/sentibot/sentiment-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/pipeline.local.yaml", "path to config file")
	symbol := flag.String("symbol", "", "stock symbol or query to analyze")
	window := flag.String("window", "24h", "analysis window, e.g. 24h, 7d, 1w")
	dryRun := flag.Bool("dry-run", false, "collect and filter but skip persistence and aggregation")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting sentiment pipeline",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	if *symbol == "" {
		logger.Error("missing required -symbol flag")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"dry_run", *dryRun,
		"x_configured", cfg.Sources.X.BearerToken != "",
		"trends_enabled", cfg.Trends.Enabled,
	)

	if !*dryRun && !cfg.HasDatabase() {
		logger.Error("no database configured; use -dry-run to run without one")
		os.Exit(1)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	summary, err := run(ctx, cfg, logger, *symbol, *window, *dryRun)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		logger.Error("encode summary", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func run(ctx context.Context, cfg *config.PipelineConfig, logger *slog.Logger, symbol, window string, dryRun bool) (model.AggregateSummary, error) {
	newFetcher := func(rps float64) *fetch.Fetcher {
		return fetch.New(fetch.NewRateLimiter(rps),
			fetch.WithTimeout(cfg.Fetch.Timeout),
			fetch.WithAttempts(cfg.Fetch.MaxAttempts, cfg.Fetch.BackoffBase),
			fetch.WithLogger(logger),
		)
	}

	adapters := []source.Adapter{
		source.NewReddit(source.RedditConfig{
			BaseURL:     cfg.Sources.Reddit.BaseURL,
			Subreddits:  cfg.Sources.Reddit.Subreddits,
			MaxPages:    cfg.Sources.Reddit.MaxPages,
			MaxComments: cfg.Sources.Reddit.MaxComments,
		}, newFetcher(cfg.Sources.Reddit.RateLimit), logger),
		source.NewStockTwits(source.StockTwitsConfig{
			BaseURL:  cfg.Sources.StockTwits.BaseURL,
			MaxPages: cfg.Sources.StockTwits.MaxPages,
			PageSize: cfg.Sources.StockTwits.PageSize,
		}, newFetcher(cfg.Sources.StockTwits.RateLimit), logger),
		source.NewX(source.XConfig{
			BaseURL:     cfg.Sources.X.BaseURL,
			BearerToken: cfg.Sources.X.BearerToken,
			MaxPages:    cfg.Sources.X.MaxPages,
			MaxResults:  cfg.Sources.X.MaxResults,
			PageDelay:   cfg.Sources.X.PageDelay,
		}, newFetcher(cfg.Sources.X.RateLimit), logger),
	}

	params := pipeline.Params{
		Resolver:  pipeline.TickerResolver{},
		Collector: collect.New(adapters, logger),
		Filter:    filter.New(nil, logger),
		Scorer:    nlp.NewHeuristicScorer(),
		DryRun:    dryRun,
		Logger:    logger,
	}

	if cfg.Trends.Enabled {
		params.Trends = trends.NewClient(newFetcher(0.5), cfg.Trends.BaseURL, logger)
	}

	if !dryRun {
		pool, err := store.WarmConnect(ctx, cfg.Database)
		if err != nil {
			return model.AggregateSummary{}, fmt.Errorf("connect database: %w", err)
		}
		defer store.CloseWarm()

		st := store.New(pool, logger)
		if err := st.InitSchema(ctx); err != nil {
			// Schema may already exist, or pgvector may be missing.
			logger.Warn("schema init", "error", err)
		}

		params.Store = st
		params.Resolver = pipeline.NewCachedResolver(params.Resolver, st, logger)
	}

	return pipeline.New(params).Run(ctx, symbol, window)
}
