package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sentibot/sentiment-data/internal/filter"
	"github.com/sentibot/sentiment-data/internal/model"
)

type fakeCollector struct {
	posts   []model.Post
	sources map[model.Source]int
}

func (f *fakeCollector) CollectAll(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, map[model.Source]int) {
	return f.posts, f.sources
}

type stubScorer struct{}

func (stubScorer) Score(text string) model.SentimentScore {
	polarity := 0.5
	if strings.Contains(strings.ToLower(text), "crash") {
		polarity = -1.0
	}
	return model.SentimentScore{Polarity: polarity, Confidence: 0.7, Model: "stub"}
}

type fakeStore struct {
	nextPK     int64
	posts      []model.Post
	sentiments map[int64]model.SentimentScore
	embeddings map[int64][]float32
	breakdown  map[model.Source]model.SourceAggregate
	failPosts  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sentiments: make(map[int64]model.SentimentScore),
		embeddings: make(map[int64][]float32),
		breakdown:  make(map[model.Source]model.SourceAggregate),
	}
}

func (f *fakeStore) UpsertPost(ctx context.Context, p model.Post) (int64, error) {
	if f.failPosts {
		return 0, errors.New("disk full")
	}
	f.nextPK++
	f.posts = append(f.posts, p)
	return f.nextPK, nil
}

func (f *fakeStore) UpsertSentiment(ctx context.Context, pk int64, score model.SentimentScore) error {
	f.sentiments[pk] = score
	return nil
}

func (f *fakeStore) UpsertEmbedding(ctx context.Context, pk int64, emb []float32) error {
	f.embeddings[pk] = emb
	return nil
}

func (f *fakeStore) AggregateBySource(ctx context.Context, symbol string, since time.Time) (map[model.Source]model.SourceAggregate, error) {
	return f.breakdown, nil
}

type fakeTrends struct {
	data *model.TrendsData
	err  error
}

func (f *fakeTrends) Fetch(ctx context.Context, symbol, companyName string) (*model.TrendsData, error) {
	return f.data, f.err
}

func recentPost(src model.Source, id, text string) model.Post {
	return model.Post{
		Source:     src,
		PlatformID: id,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
		Text:       text,
	}
}

func testParams(collector Collector, st Store) Params {
	return Params{
		Resolver:  TickerResolver{},
		Collector: collector,
		Filter:    filter.New(nil, nil),
		Scorer:    stubScorer{},
		Store:     st,
	}
}

func TestRunHappyPath(t *testing.T) {
	collector := &fakeCollector{
		posts: []model.Post{
			recentPost(model.SourceReddit, "post_r1", "$AAPL to the moon"),
			recentPost(model.SourceReddit, "comment_r2", "market chatter, no ticker"),
		},
		sources: map[model.Source]int{
			model.SourceReddit:     2,
			model.SourceStockTwits: 0,
			model.SourceX:          0,
		},
	}
	st := newFakeStore()
	st.breakdown[model.SourceReddit] = model.SourceAggregate{Count: 1, AvgPolarity: 0.5}

	p := New(testParams(collector, st))
	summary, err := p.Run(context.Background(), "AAPL", "24h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.PostsFound != 2 {
		t.Errorf("PostsFound = %d, want 2", summary.PostsFound)
	}
	if summary.PostsProcessed != 1 {
		t.Errorf("PostsProcessed = %d, want 1", summary.PostsProcessed)
	}
	if summary.Note != "" {
		t.Errorf("Note = %q, want empty", summary.Note)
	}
	if summary.Count != 1 || summary.WeightedSentiment != 0.5 {
		t.Errorf("aggregate = %d/%v, want 1/0.5", summary.Count, summary.WeightedSentiment)
	}
	if summary.Sources[model.SourceReddit] != 2 {
		t.Errorf("Sources[reddit] = %d, want 2", summary.Sources[model.SourceReddit])
	}
	if summary.FilterStats == nil || summary.FilterStats.NoSymbols != 1 {
		t.Errorf("FilterStats = %+v, want one no-symbols drop", summary.FilterStats)
	}
	if summary.Instrument == nil || summary.Instrument.Symbol != "AAPL" {
		t.Errorf("Instrument = %+v", summary.Instrument)
	}
	if summary.RunID == uuid.Nil {
		t.Error("RunID not set")
	}

	if len(st.posts) != 1 || st.posts[0].PlatformID != "post_r1" {
		t.Errorf("persisted posts = %+v", st.posts)
	}
	if len(st.sentiments) != 1 {
		t.Errorf("persisted sentiments = %d, want 1", len(st.sentiments))
	}
}

func TestRunNoPosts(t *testing.T) {
	collector := &fakeCollector{
		sources: map[model.Source]int{
			model.SourceReddit:     0,
			model.SourceStockTwits: 0,
			model.SourceX:          0,
		},
	}
	st := newFakeStore()

	p := New(testParams(collector, st))
	summary, err := p.Run(context.Background(), "AAPL", "24h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.PostsFound != 0 || summary.PostsProcessed != 0 {
		t.Errorf("counts = %d/%d, want 0/0", summary.PostsFound, summary.PostsProcessed)
	}
	if summary.Note == "" {
		t.Error("expected explanatory note for empty run")
	}
	if len(st.posts) != 0 {
		t.Errorf("store touched on empty run: %+v", st.posts)
	}
}

func TestRunAllFiltered(t *testing.T) {
	collector := &fakeCollector{
		posts: []model.Post{
			recentPost(model.SourceStockTwits, "st1", "just vibes, no tickers here"),
		},
		sources: map[model.Source]int{model.SourceStockTwits: 1},
	}
	st := newFakeStore()

	p := New(testParams(collector, st))
	summary, err := p.Run(context.Background(), "AAPL", "24h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.PostsFound != 1 || summary.PostsProcessed != 0 {
		t.Errorf("counts = %d/%d, want 1/0", summary.PostsFound, summary.PostsProcessed)
	}
	if summary.Note == "" {
		t.Error("expected explanatory note when everything is filtered")
	}
	if summary.FilterStats == nil || summary.FilterStats.TotalInput != 1 {
		t.Errorf("FilterStats = %+v", summary.FilterStats)
	}
}

func TestRunDryRun(t *testing.T) {
	collector := &fakeCollector{
		posts: []model.Post{
			recentPost(model.SourceReddit, "post_r1", "$AAPL breakout"),
			recentPost(model.SourceX, "x1", "AAPL crash incoming"),
		},
		sources: map[model.Source]int{model.SourceReddit: 1, model.SourceX: 1},
	}

	params := testParams(collector, nil)
	params.DryRun = true
	p := New(params)

	summary, err := p.Run(context.Background(), "AAPL", "24h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.PostsProcessed != 2 {
		t.Errorf("PostsProcessed = %d, want 2", summary.PostsProcessed)
	}
	if summary.Count != 0 || summary.WeightedSentiment != 0 {
		t.Errorf("aggregate = %d/%v, want zero in dry run", summary.Count, summary.WeightedSentiment)
	}
	if !strings.Contains(summary.Note, "dry run") {
		t.Errorf("Note = %q, want dry run marker", summary.Note)
	}
}

func TestRunInputErrors(t *testing.T) {
	p := New(testParams(&fakeCollector{}, newFakeStore()))

	if _, err := p.Run(context.Background(), "NOT A TICKER", "24h"); err == nil {
		t.Error("expected error for unresolvable query")
	}
	if _, err := p.Run(context.Background(), "AAPL", "soon"); err == nil {
		t.Error("expected error for malformed window")
	}
}

func TestRunStoreFailuresDegrade(t *testing.T) {
	collector := &fakeCollector{
		posts:   []model.Post{recentPost(model.SourceReddit, "post_r1", "$AAPL rally")},
		sources: map[model.Source]int{model.SourceReddit: 1},
	}
	st := newFakeStore()
	st.failPosts = true

	p := New(testParams(collector, st))
	summary, err := p.Run(context.Background(), "AAPL", "24h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.PostsProcessed != 0 {
		t.Errorf("PostsProcessed = %d, want 0 when persistence fails", summary.PostsProcessed)
	}
}

func TestRunTrendsFailureDegrades(t *testing.T) {
	collector := &fakeCollector{
		posts:   []model.Post{recentPost(model.SourceReddit, "post_r1", "$AAPL rally")},
		sources: map[model.Source]int{model.SourceReddit: 1},
	}
	st := newFakeStore()

	params := testParams(collector, st)
	params.Trends = &fakeTrends{err: errors.New("quota exceeded")}
	p := New(params)

	summary, err := p.Run(context.Background(), "AAPL", "24h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SearchInterest != nil {
		t.Errorf("SearchInterest = %+v, want nil on trends failure", summary.SearchInterest)
	}
	if summary.PostsProcessed != 1 {
		t.Errorf("PostsProcessed = %d, want 1", summary.PostsProcessed)
	}
}

func TestRunTrendsEnrichment(t *testing.T) {
	collector := &fakeCollector{
		posts:   []model.Post{recentPost(model.SourceReddit, "post_r1", "$AAPL rally")},
		sources: map[model.Source]int{model.SourceReddit: 1},
	}
	st := newFakeStore()

	params := testParams(collector, st)
	params.Trends = &fakeTrends{data: &model.TrendsData{
		InterestOverTime: map[string]float64{"2025-06-01": 80},
		FetchedAt:        time.Now().UTC(),
	}}
	p := New(params)

	summary, err := p.Run(context.Background(), "AAPL", "24h")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SearchInterest == nil || summary.SearchInterest.InterestOverTime["2025-06-01"] != 80 {
		t.Errorf("SearchInterest = %+v", summary.SearchInterest)
	}
}
