package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentibot/sentiment-data/internal/config"
)

const (
	connectAttempts    = 3
	connectBackoffBase = 500 * time.Millisecond
)

// Process-wide pool cache for warm invocations. Serverless hosts keep the
// process alive between runs; reusing the pool skips connection setup.
var (
	warmMu   sync.Mutex
	warmPool *pgxpool.Pool
)

// Connect creates a connection pool, retrying with exponential backoff.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	var lastErr error
	for attempt := 0; attempt < connectAttempts; attempt++ {
		if attempt > 0 {
			delay := connectBackoffBase << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			lastErr = fmt.Errorf("create pool: %w", err)
			continue
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			lastErr = fmt.Errorf("ping database: %w", err)
			continue
		}
		return pool, nil
	}
	return nil, fmt.Errorf("connect after %d attempts: %w", connectAttempts, lastErr)
}

// WarmConnect returns the cached process-wide pool, revalidating it with a
// ping and reconnecting if it has gone stale.
func WarmConnect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	warmMu.Lock()
	defer warmMu.Unlock()

	if warmPool != nil {
		if err := warmPool.Ping(ctx); err == nil {
			return warmPool, nil
		}
		warmPool.Close()
		warmPool = nil
	}

	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	warmPool = pool
	return pool, nil
}

// CloseWarm closes and discards the cached pool.
func CloseWarm() {
	warmMu.Lock()
	defer warmMu.Unlock()
	if warmPool != nil {
		warmPool.Close()
		warmPool = nil
	}
}
