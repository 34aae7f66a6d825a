// Package collect fans collection out to all configured source adapters
// concurrently and merges their results.
package collect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sentibot/sentiment-data/internal/model"
	"github.com/sentibot/sentiment-data/internal/source"
)

// Orchestrator runs every adapter in its own worker and merges the results.
// One failing adapter never cancels or affects the others.
type Orchestrator struct {
	adapters []source.Adapter
	logger   *slog.Logger
}

// New creates an orchestrator over the given adapters.
func New(adapters []source.Adapter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{adapters: adapters, logger: logger}
}

// CollectAll fans out to all adapters with a worker pool sized to the adapter
// count, joins them as each completes, and returns the merged posts
// deduplicated by (source, platform_id) plus each adapter's yielded count
// (0 on failure).
//
// There is no global deadline beyond each adapter's own bounded pagination;
// callers wanting one supply it through ctx.
func (o *Orchestrator) CollectAll(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, map[model.Source]int) {
	var (
		mu     sync.Mutex
		merged []model.Post
		status = make(map[model.Source]int, len(o.adapters))
		seen   = make(map[string]struct{})
	)

	start := time.Now()

	var g errgroup.Group
	g.SetLimit(len(o.adapters))

	for _, adapter := range o.adapters {
		g.Go(func() error {
			posts, err := adapter.Collect(ctx, inst, since)
			if err != nil {
				o.logger.Warn("source collection failed",
					"source", adapter.Name(),
					"error", err,
				)
				mu.Lock()
				status[adapter.Name()] = 0
				mu.Unlock()
				return nil
			}

			mu.Lock()
			status[adapter.Name()] = len(posts)
			for _, p := range posts {
				if _, dup := seen[p.Key()]; dup {
					continue
				}
				seen[p.Key()] = struct{}{}
				merged = append(merged, p)
			}
			mu.Unlock()

			o.logger.Info("source collection complete",
				"source", adapter.Name(),
				"posts", len(posts),
			)
			return nil
		})
	}

	// Workers never return errors; failures are isolated above.
	g.Wait()

	o.logger.Info("collection fan-out complete",
		"sources", len(o.adapters),
		"posts", len(merged),
		"duration", time.Since(start),
	)
	return merged, status
}
