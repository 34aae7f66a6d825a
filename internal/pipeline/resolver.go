package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sentibot/sentiment-data/internal/model"
)

// Resolver maps a user query to a tradable instrument.
type Resolver interface {
	Resolve(ctx context.Context, query string) (model.Instrument, error)
}

// TickerResolver treats the query as a ticker symbol directly. It is the
// default resolver when no reference-data service is wired in.
type TickerResolver struct{}

// Resolve normalizes the query to an uppercase ticker. Queries that do not
// look like tickers are rejected.
func (TickerResolver) Resolve(ctx context.Context, query string) (model.Instrument, error) {
	symbol := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), "$")))
	if symbol == "" || len(symbol) > 5 {
		return model.Instrument{}, fmt.Errorf("could not resolve symbol: %q", query)
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return model.Instrument{}, fmt.Errorf("could not resolve symbol: %q", query)
		}
	}
	return model.Instrument{Symbol: symbol}, nil
}

// ResolutionCache is the persistence surface for resolved instruments.
type ResolutionCache interface {
	CachedResolution(ctx context.Context, query string) (*model.Instrument, error)
	CacheResolution(ctx context.Context, query string, inst model.Instrument) error
}

// CachedResolver wraps a resolver with a persistent cache. Cache failures
// are logged and the inner resolver is consulted as usual.
type CachedResolver struct {
	inner  Resolver
	cache  ResolutionCache
	logger *slog.Logger
}

// NewCachedResolver creates a caching resolver. A nil logger discards output.
func NewCachedResolver(inner Resolver, cache ResolutionCache, logger *slog.Logger) *CachedResolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedResolver{inner: inner, cache: cache, logger: logger}
}

func (r *CachedResolver) Resolve(ctx context.Context, query string) (model.Instrument, error) {
	key := strings.ToUpper(strings.TrimSpace(query))

	cached, err := r.cache.CachedResolution(ctx, key)
	if err != nil {
		r.logger.Warn("resolution cache read failed", "query", key, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	inst, err := r.inner.Resolve(ctx, query)
	if err != nil {
		return model.Instrument{}, err
	}

	if err := r.cache.CacheResolution(ctx, key, inst); err != nil {
		r.logger.Warn("resolution cache write failed", "query", key, "error", err)
	}
	return inst, nil
}
