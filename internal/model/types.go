package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Posts
// -----------------------------------------------------------------------------

// Source identifies the platform a post was collected from.
type Source string

const (
	SourceReddit     Source = "reddit"
	SourceStockTwits Source = "stocktwits"
	SourceX          Source = "x"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceReddit, SourceStockTwits, SourceX:
		return true
	}
	return false
}

// Post represents one unit of social content from any platform.
//
// A Post is immutable once emitted by an adapter except for Text and Symbols,
// which the filter stage rewrites exactly once during normalization.
type Post struct {
	Source       Source    `json:"source"`
	PlatformID   string    `json:"platform_id"` // Unique per source
	AuthorID     string    `json:"author_id"`
	AuthorHandle string    `json:"author_handle,omitempty"`
	CreatedAt    time.Time `json:"created_at"` // Source-reported
	Text         string    `json:"text"`
	Symbols      []string  `json:"symbols"` // Populated by the filter stage
	URLs         []string  `json:"urls,omitempty"`
	Lang         string    `json:"lang,omitempty"`

	// Threading
	ReplyToID  string `json:"reply_to_id,omitempty"`
	RepostOfID string `json:"repost_of_id,omitempty"`

	// Engagement counters (nil when the source does not report them)
	LikeCount     *int `json:"like_count,omitempty"`
	ReplyCount    *int `json:"reply_count,omitempty"`
	RepostCount   *int `json:"repost_count,omitempty"`
	FollowerCount *int `json:"follower_count,omitempty"`

	Permalink string `json:"permalink,omitempty"`
}

// Key returns the (source, platform_id) identity used for deduplication
// and as the natural external-store primary key.
func (p Post) Key() string {
	return string(p.Source) + ":" + p.PlatformID
}

// -----------------------------------------------------------------------------
// Scoring
// -----------------------------------------------------------------------------

// SentimentScore is the result of scoring one post's text.
type SentimentScore struct {
	Polarity     float64 `json:"polarity"`     // -1.0 (negative) to +1.0 (positive)
	Subjectivity float64 `json:"subjectivity"` // 0.0 (objective) to 1.0 (subjective)
	SarcasmProb  float64 `json:"sarcasm_prob"` // 0.0 to 1.0
	Confidence   float64 `json:"confidence"`   // 0.0 to 1.0
	Model        string  `json:"model"`
}

// Instrument is a resolved financial instrument.
type Instrument struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
	CIK         string `json:"cik,omitempty"`
	ISIN        string `json:"isin,omitempty"`
	FIGI        string `json:"figi,omitempty"`
}

// TrendsData holds search-interest enrichment for a symbol.
type TrendsData struct {
	InterestOverTime map[string]float64 `json:"interest_over_time,omitempty"` // date -> interest (0-100)
	RelatedQueries   []string           `json:"related_queries,omitempty"`
	InterestByRegion map[string]float64 `json:"interest_by_region,omitempty"`
	FetchedAt        time.Time          `json:"fetched_at"`
}

// -----------------------------------------------------------------------------
// Pipeline results
// -----------------------------------------------------------------------------

// FilterStats tracks how many posts each filter stage dropped.
// Invariant: NoSymbols + ProbableBots + Processed == TotalInput.
type FilterStats struct {
	TotalInput   int `json:"total_input"`
	NoSymbols    int `json:"no_symbols"`
	ProbableBots int `json:"probable_bots"`
	Processed    int `json:"processed"`
}

// SourceAggregate is the stored per-source sentiment rollup.
type SourceAggregate struct {
	Count       int     `json:"count"`
	AvgPolarity float64 `json:"avg_polarity"`
}

// AggregateSummary is the final output of a pipeline run.
//
// Absence of an optional sub-block means that subsystem was unavailable or
// disabled, not that the run failed. Note carries a human-readable degradation
// explanation and is empty on full success.
type AggregateSummary struct {
	RunID       uuid.UUID `json:"run_id"`
	Symbol      string    `json:"symbol"`
	WindowSince time.Time `json:"window_since"`

	PostsFound     int `json:"posts_found"`
	PostsProcessed int `json:"posts_processed"`

	// Count and WeightedSentiment cover posts with persisted sentiment
	// inside the window, grouped by source in Breakdown.
	Count             int                        `json:"count"`
	WeightedSentiment float64                    `json:"weighted_sentiment"`
	Sources           map[Source]int             `json:"sources"` // Per-source discovery counts
	Breakdown         map[Source]SourceAggregate `json:"breakdown,omitempty"`

	Instrument     *Instrument  `json:"resolved_instrument,omitempty"`
	SearchInterest *TrendsData  `json:"search_interest,omitempty"`
	FilterStats    *FilterStats `json:"filter_stats,omitempty"`

	Note string `json:"note,omitempty"`
}
