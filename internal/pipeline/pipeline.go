package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sentibot/sentiment-data/internal/aggregate"
	"github.com/sentibot/sentiment-data/internal/filter"
	"github.com/sentibot/sentiment-data/internal/model"
)

// Collector fans collection out across sources. Implemented by
// collect.Orchestrator.
type Collector interface {
	CollectAll(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, map[model.Source]int)
}

// Scorer produces a sentiment score for normalized post text.
type Scorer interface {
	Score(text string) model.SentimentScore
}

// Embedder produces an embedding vector for post text. Optional.
type Embedder interface {
	Embed(text string) ([]float32, error)
}

// TrendsProvider fetches search-interest enrichment. Optional.
type TrendsProvider interface {
	Fetch(ctx context.Context, symbol, companyName string) (*model.TrendsData, error)
}

// Store is the persistence surface the run loop needs.
type Store interface {
	UpsertPost(ctx context.Context, p model.Post) (int64, error)
	UpsertSentiment(ctx context.Context, pk int64, score model.SentimentScore) error
	UpsertEmbedding(ctx context.Context, pk int64, emb []float32) error
	AggregateBySource(ctx context.Context, symbol string, since time.Time) (map[model.Source]model.SourceAggregate, error)
}

// Params configures a Pipeline. Resolver, Collector, Filter, and Scorer are
// required. Store may be nil only for dry runs.
type Params struct {
	Resolver  Resolver
	Collector Collector
	Filter    *filter.Pipeline
	Scorer    Scorer
	Embedder  Embedder
	Trends    TrendsProvider
	Store     Store
	DryRun    bool
	Logger    *slog.Logger
}

// Pipeline executes sentiment runs.
type Pipeline struct {
	resolver  Resolver
	collector Collector
	filter    *filter.Pipeline
	scorer    Scorer
	embedder  Embedder
	trends    TrendsProvider
	store     Store
	dryRun    bool
	logger    *slog.Logger
}

// New creates a pipeline from params.
func New(p Params) *Pipeline {
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		resolver:  p.Resolver,
		collector: p.Collector,
		filter:    p.Filter,
		scorer:    p.Scorer,
		embedder:  p.Embedder,
		trends:    p.Trends,
		store:     p.Store,
		dryRun:    p.DryRun,
		logger:    logger,
	}
}

// Run executes the full flow for one query and window. Source failures and
// per-post processing failures degrade the result; only unresolvable input
// is an error.
func (pl *Pipeline) Run(ctx context.Context, query, window string) (model.AggregateSummary, error) {
	runID := uuid.New()
	logger := pl.logger.With("run_id", runID, "query", query, "window", window)
	logger.Info("starting sentiment run")

	inst, err := pl.resolver.Resolve(ctx, query)
	if err != nil {
		return model.AggregateSummary{}, fmt.Errorf("resolve %q: %w", query, err)
	}

	dur, err := ParseWindow(window)
	if err != nil {
		return model.AggregateSummary{}, fmt.Errorf("parse window: %w", err)
	}
	since := time.Now().UTC().Add(-dur)

	summary := model.AggregateSummary{
		RunID:       runID,
		Symbol:      inst.Symbol,
		WindowSince: since,
		Instrument:  &inst,
	}

	posts, sources := pl.collector.CollectAll(ctx, inst, since)
	summary.Sources = sources
	summary.PostsFound = len(posts)
	if len(posts) == 0 {
		logger.Warn("no posts found")
		summary.Note = "no posts found for this symbol"
		return summary, nil
	}

	clean, stats := pl.filter.Run(posts, inst)
	summary.FilterStats = &stats
	if len(clean) == 0 {
		logger.Warn("no posts passed filtering", "stats", stats)
		summary.Note = "no valid posts after filtering"
		return summary, nil
	}

	summary.PostsProcessed = pl.process(ctx, logger, clean)

	if pl.trends != nil {
		data, err := pl.trends.Fetch(ctx, inst.Symbol, inst.CompanyName)
		if err != nil {
			logger.Warn("trends enrichment failed", "error", err)
		} else {
			summary.SearchInterest = data
		}
	}

	if pl.dryRun {
		summary.Note = "dry run: persistence and aggregation skipped"
		logger.Info("dry run complete", "posts_processed", summary.PostsProcessed)
		return summary, nil
	}

	agg, err := aggregate.NewService(pl.store, pl.logger).Aggregate(ctx, inst.Symbol, since)
	if err != nil {
		return model.AggregateSummary{}, err
	}
	aggregate.Merge(&summary, agg)

	logger.Info("sentiment run complete",
		"posts_found", summary.PostsFound,
		"posts_processed", summary.PostsProcessed,
		"count", summary.Count,
		"weighted_sentiment", summary.WeightedSentiment,
	)
	return summary, nil
}

// process scores and persists the filtered posts, returning how many made
// it through. Dry runs score nothing and count everything.
func (pl *Pipeline) process(ctx context.Context, logger *slog.Logger, posts []model.Post) int {
	if pl.dryRun {
		logger.Info("dry run: skipping persistence", "posts", len(posts))
		return len(posts)
	}

	processed := 0
	for _, p := range posts {
		pk, err := pl.store.UpsertPost(ctx, p)
		if err != nil {
			logger.Warn("persist post failed", "post", p.Key(), "error", err)
			continue
		}

		score := pl.scorer.Score(p.Text)
		if err := pl.store.UpsertSentiment(ctx, pk, score); err != nil {
			logger.Warn("persist sentiment failed", "post", p.Key(), "error", err)
			continue
		}

		if pl.embedder != nil {
			emb, err := pl.embedder.Embed(p.Text)
			if err != nil {
				logger.Warn("embedding failed", "post", p.Key(), "error", err)
			} else if err := pl.store.UpsertEmbedding(ctx, pk, emb); err != nil {
				logger.Warn("persist embedding failed", "post", p.Key(), "error", err)
			}
		}

		processed++
	}
	return processed
}
