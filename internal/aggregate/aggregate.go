// Package aggregate computes the windowed sentiment summary for a symbol
// from per-source persisted aggregates.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sentibot/sentiment-data/internal/model"
)

// SourceAggregator supplies per-source counts and mean polarity. The store
// implements it; tests substitute fixtures.
type SourceAggregator interface {
	AggregateBySource(ctx context.Context, symbol string, since time.Time) (map[model.Source]model.SourceAggregate, error)
}

// Service computes aggregate summaries.
type Service struct {
	store  SourceAggregator
	logger *slog.Logger
}

// NewService creates an aggregation service. A nil logger discards output.
func NewService(store SourceAggregator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, logger: logger}
}

// Aggregate computes the count-weighted mean polarity across sources for
// posts tagged with symbol created at or after since. Zero scored posts
// yields a weighted sentiment of exactly 0.0, not NaN.
func (s *Service) Aggregate(ctx context.Context, symbol string, since time.Time) (model.AggregateSummary, error) {
	breakdown, err := s.store.AggregateBySource(ctx, symbol, since)
	if err != nil {
		return model.AggregateSummary{}, fmt.Errorf("aggregate %s: %w", symbol, err)
	}

	summary := model.AggregateSummary{
		Symbol:      symbol,
		WindowSince: since,
	}

	var weighted float64
	for _, agg := range breakdown {
		summary.Count += agg.Count
		weighted += agg.AvgPolarity * float64(agg.Count)
	}
	if summary.Count > 0 {
		summary.WeightedSentiment = weighted / float64(summary.Count)
		summary.Breakdown = breakdown
	}

	s.logger.Debug("aggregated sentiment",
		"symbol", symbol,
		"count", summary.Count,
		"weighted_sentiment", summary.WeightedSentiment,
	)
	return summary, nil
}

// Merge folds the computed aggregate into a run summary, leaving the run's
// collection metadata (counts, sources, enrichment, notes) untouched.
func Merge(run *model.AggregateSummary, agg model.AggregateSummary) {
	run.Count = agg.Count
	run.WeightedSentiment = agg.WeightedSentiment
	run.Breakdown = agg.Breakdown
}
