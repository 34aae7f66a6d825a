// Package nlp provides the built-in heuristic sentiment scorer.
//
// It is the degraded path of the scoring contract: word-list polarity with a
// conservative confidence, never failing. Deployments with a model-backed
// scorer swap it in through the pipeline's Scorer interface.
package nlp

import (
	"strings"
	"unicode"

	"github.com/sentibot/sentiment-data/internal/model"
)

// Finance-flavored polarity word lists.
var (
	positiveWords = []string{
		"bullish", "moon", "buy", "long", "growth", "profit",
		"gain", "up", "surge", "boom", "excellent", "great", "strong",
		"rocket", "soar", "rally", "breakout", "undervalued",
	}
	negativeWords = []string{
		"bearish", "crash", "sell", "short", "loss", "down",
		"dump", "fall", "decline", "terrible", "bad", "weak",
		"tank", "plunge", "overvalued", "bubble", "scam",
	}
)

// Sarcasm indicators and their weight. The strongest matching indicator wins.
var sarcasmIndicators = map[string]float64{
	"yeah right":          0.8,
	"sure thing":          0.7,
	"totally":             0.4,
	"/s":                  0.95,
	"lol":                 0.3,
	"obviously":           0.6,
	"brilliant":           0.5,
	"genius":              0.6,
	"great job":           0.5,
	"what could go wrong": 0.9,
	"to the moon":         0.4,
}

// HeuristicScorer scores text by financial word-list matching.
type HeuristicScorer struct{}

// NewHeuristicScorer creates a heuristic scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

// Score never fails. Empty text yields an all-zero score tagged "empty".
func (s *HeuristicScorer) Score(text string) model.SentimentScore {
	if strings.TrimSpace(text) == "" {
		return model.SentimentScore{Model: "empty"}
	}

	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	var pos, neg int
	for _, w := range positiveWords {
		if tokens[w] {
			pos++
		}
	}
	for _, w := range negativeWords {
		if tokens[w] {
			neg++
		}
	}

	total := pos + neg
	var polarity, confidence, subjectivity float64
	if total == 0 {
		confidence = 0.3
		subjectivity = 0.2
	} else {
		polarity = float64(pos-neg) / float64(total)
		confidence = min(0.7, float64(total)/5)
		subjectivity = min(1.0, float64(total)/3)
	}

	return model.SentimentScore{
		Polarity:     clamp(polarity, -1, 1),
		Subjectivity: subjectivity,
		SarcasmProb:  detectSarcasm(lower),
		Confidence:   confidence,
		Model:        "heuristic",
	}
}

// detectSarcasm pattern-matches common sarcasm markers. The text must
// already be lowercased.
func detectSarcasm(lower string) float64 {
	maxProb := 0.0
	for indicator, prob := range sarcasmIndicators {
		if strings.Contains(lower, indicator) {
			maxProb = max(maxProb, prob)
		}
	}

	// Excessive punctuation often signals sarcasm.
	if strings.Contains(lower, "?!") || strings.Contains(lower, "!!!") {
		maxProb = max(maxProb, 0.5)
	}

	if maxProb == 0 {
		return 0.05
	}
	return maxProb
}

// tokenize splits lowercased text on non-alphanumeric runes. Word-boundary
// matching keeps "strong" from counting as "long".
func tokenize(lower string) map[string]bool {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
