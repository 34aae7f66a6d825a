package model

import (
	"testing"
	"time"
)

func TestSourceValid(t *testing.T) {
	tests := []struct {
		source   Source
		expected bool
	}{
		{SourceReddit, true},
		{SourceStockTwits, true},
		{SourceX, true},
		{Source("twitter"), false},
		{Source(""), false},
		{Source("REDDIT"), false},
	}

	for _, tt := range tests {
		if got := tt.source.Valid(); got != tt.expected {
			t.Errorf("Valid() for %q = %v, want %v", tt.source, got, tt.expected)
		}
	}
}

func TestPostKey(t *testing.T) {
	tests := []struct {
		name     string
		post     Post
		expected string
	}{
		{
			name:     "reddit post",
			post:     Post{Source: SourceReddit, PlatformID: "post_abc123"},
			expected: "reddit:post_abc123",
		},
		{
			name:     "stocktwits message",
			post:     Post{Source: SourceStockTwits, PlatformID: "590211337"},
			expected: "stocktwits:590211337",
		},
		{
			name:     "x tweet",
			post:     Post{Source: SourceX, PlatformID: "1751234567890"},
			expected: "x:1751234567890",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.post.Key(); got != tt.expected {
				t.Errorf("Key() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPostKeyDistinguishesSources(t *testing.T) {
	// The same platform ID on two different platforms must not collide.
	a := Post{Source: SourceReddit, PlatformID: "42"}
	b := Post{Source: SourceStockTwits, PlatformID: "42"}

	if a.Key() == b.Key() {
		t.Errorf("keys collide across sources: %q", a.Key())
	}
}

func TestFilterStatsSum(t *testing.T) {
	stats := FilterStats{
		TotalInput:   10,
		NoSymbols:    3,
		ProbableBots: 2,
		Processed:    5,
	}

	if sum := stats.NoSymbols + stats.ProbableBots + stats.Processed; sum != stats.TotalInput {
		t.Errorf("stats do not sum: %d + %d + %d = %d, want %d",
			stats.NoSymbols, stats.ProbableBots, stats.Processed, sum, stats.TotalInput)
	}
}

func TestPostOptionalCounters(t *testing.T) {
	// A post with no engagement data keeps nil counters rather than zeros,
	// so downstream consumers can distinguish "not reported" from 0.
	p := Post{
		Source:     SourceX,
		PlatformID: "1",
		CreatedAt:  time.Now().UTC(),
		Text:       "hello",
	}

	if p.LikeCount != nil || p.ReplyCount != nil || p.RepostCount != nil || p.FollowerCount != nil {
		t.Error("engagement counters should default to nil")
	}
}
