package collect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sentibot/sentiment-data/internal/model"
	"github.com/sentibot/sentiment-data/internal/source"
)

// fakeAdapter is a scripted source.Adapter.
type fakeAdapter struct {
	name  model.Source
	posts []model.Post
	err   error
	delay time.Duration
}

func (f *fakeAdapter) Name() model.Source { return f.name }

func (f *fakeAdapter) Collect(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func post(src model.Source, id string) model.Post {
	return model.Post{Source: src, PlatformID: id, CreatedAt: time.Now().UTC(), Text: "text " + id}
}

func TestCollectAllMergesSources(t *testing.T) {
	adapters := []source.Adapter{
		&fakeAdapter{name: model.SourceReddit, posts: []model.Post{
			post(model.SourceReddit, "r1"),
			post(model.SourceReddit, "r2"),
		}},
		&fakeAdapter{name: model.SourceStockTwits, posts: []model.Post{
			post(model.SourceStockTwits, "s1"),
		}},
		&fakeAdapter{name: model.SourceX, posts: nil},
	}

	o := New(adapters, nil)
	merged, status := o.CollectAll(context.Background(), model.Instrument{Symbol: "AAPL"}, time.Now())

	if len(merged) != 3 {
		t.Errorf("merged = %d posts, want 3", len(merged))
	}
	if status[model.SourceReddit] != 2 {
		t.Errorf("reddit count = %d, want 2", status[model.SourceReddit])
	}
	if status[model.SourceStockTwits] != 1 {
		t.Errorf("stocktwits count = %d, want 1", status[model.SourceStockTwits])
	}
	if status[model.SourceX] != 0 {
		t.Errorf("x count = %d, want 0", status[model.SourceX])
	}
}

func TestCollectAllDeduplicates(t *testing.T) {
	// Same platform ID from the same source twice, and once from a different
	// source: the cross-source record must survive.
	adapters := []source.Adapter{
		&fakeAdapter{name: model.SourceReddit, posts: []model.Post{
			post(model.SourceReddit, "dup"),
			post(model.SourceReddit, "dup"),
			post(model.SourceReddit, "only"),
		}},
		&fakeAdapter{name: model.SourceStockTwits, posts: []model.Post{
			post(model.SourceStockTwits, "dup"),
		}},
	}

	o := New(adapters, nil)
	merged, _ := o.CollectAll(context.Background(), model.Instrument{Symbol: "AAPL"}, time.Now())

	keys := make(map[string]int)
	for _, p := range merged {
		keys[p.Key()]++
	}

	for key, n := range keys {
		if n > 1 {
			t.Errorf("key %q appears %d times in merged output", key, n)
		}
	}
	if len(merged) != 3 {
		t.Errorf("merged = %d posts, want 3 (reddit dup collapsed, cross-source kept)", len(merged))
	}
}

func TestCollectAllIsolatesFailure(t *testing.T) {
	adapters := []source.Adapter{
		&fakeAdapter{name: model.SourceReddit, err: errors.New("connection refused")},
		&fakeAdapter{name: model.SourceStockTwits, posts: []model.Post{
			post(model.SourceStockTwits, "s1"),
			post(model.SourceStockTwits, "s2"),
		}},
		&fakeAdapter{name: model.SourceX, err: errors.New("gateway timeout")},
	}

	o := New(adapters, nil)
	merged, status := o.CollectAll(context.Background(), model.Instrument{Symbol: "AAPL"}, time.Now())

	if len(merged) != 2 {
		t.Errorf("merged = %d posts, want 2 from the healthy source", len(merged))
	}
	if status[model.SourceReddit] != 0 {
		t.Errorf("failed reddit count = %d, want 0", status[model.SourceReddit])
	}
	if status[model.SourceX] != 0 {
		t.Errorf("failed x count = %d, want 0", status[model.SourceX])
	}
	if status[model.SourceStockTwits] != 2 {
		t.Errorf("stocktwits count = %d, want 2", status[model.SourceStockTwits])
	}
}

func TestCollectAllJoinsOutOfOrder(t *testing.T) {
	// The slowest adapter finishes last; all results must still be present
	// and every adapter must have a status entry.
	adapters := []source.Adapter{
		&fakeAdapter{name: model.SourceReddit, delay: 50 * time.Millisecond, posts: []model.Post{
			post(model.SourceReddit, "slow"),
		}},
		&fakeAdapter{name: model.SourceStockTwits, posts: []model.Post{
			post(model.SourceStockTwits, "fast"),
		}},
	}

	o := New(adapters, nil)
	start := time.Now()
	merged, status := o.CollectAll(context.Background(), model.Instrument{Symbol: "AAPL"}, time.Now())

	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("CollectAll returned after %v, before the slow adapter joined", elapsed)
	}
	if len(merged) != 2 {
		t.Errorf("merged = %d posts, want 2", len(merged))
	}
	if len(status) != 2 {
		t.Errorf("status entries = %d, want 2", len(status))
	}
}

func TestCollectAllEmpty(t *testing.T) {
	adapters := []source.Adapter{
		&fakeAdapter{name: model.SourceReddit},
		&fakeAdapter{name: model.SourceStockTwits},
		&fakeAdapter{name: model.SourceX},
	}

	o := New(adapters, nil)
	merged, status := o.CollectAll(context.Background(), model.Instrument{Symbol: "AAPL"}, time.Now())

	if len(merged) != 0 {
		t.Errorf("merged = %d posts, want 0", len(merged))
	}
	for src, n := range status {
		if n != 0 {
			t.Errorf("source %q count = %d, want 0", src, n)
		}
	}
}
