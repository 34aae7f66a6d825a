// Package filter normalizes collected posts and drops irrelevant or
// bot-like content before scoring.
package filter

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/sentibot/sentiment-data/internal/model"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// Cashtag: $ followed by 1-5 capitals not running into a longer word.
	cashtagPattern = regexp.MustCompile(`\$([A-Z]{1,5})(?:[^A-Z]|$)`)
)

// BotDetector judges whether a post is probably automated.
type BotDetector interface {
	IsProbableBot(post model.Post) bool
}

// BotDetectorFunc is a function adapter for BotDetector.
type BotDetectorFunc func(model.Post) bool

func (f BotDetectorFunc) IsProbableBot(p model.Post) bool { return f(p) }

// Pipeline cleans and filters posts for one instrument.
type Pipeline struct {
	bots   BotDetector
	logger *slog.Logger
}

// New creates a filter pipeline. A nil detector treats nothing as a bot.
func New(bots BotDetector, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{bots: bots, logger: logger}
}

// Run processes posts in order: normalize text, extract referenced symbols,
// drop posts that never mention the instrument, drop probable bots. Each
// post's Text and Symbols are rewritten exactly once here.
//
// The returned stats always satisfy NoSymbols+ProbableBots+Processed ==
// TotalInput.
func (p *Pipeline) Run(posts []model.Post, inst model.Instrument) ([]model.Post, model.FilterStats) {
	stats := model.FilterStats{TotalInput: len(posts)}
	clean := make([]model.Post, 0, len(posts))

	for _, post := range posts {
		post.Text = NormalizeText(post.Text)
		post.Symbols = ExtractSymbols(post.Text, inst)

		if len(post.Symbols) == 0 {
			stats.NoSymbols++
			continue
		}

		if p.bots != nil && p.bots.IsProbableBot(post) {
			stats.ProbableBots++
			continue
		}

		clean = append(clean, post)
		stats.Processed++
	}

	p.logger.Info("filter complete",
		"input", stats.TotalInput,
		"processed", stats.Processed,
		"no_symbols", stats.NoSymbols,
		"probable_bots", stats.ProbableBots,
	)
	return clean, stats
}

// NormalizeText strips URLs and collapses runs of whitespace.
func NormalizeText(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractSymbols returns the ticker symbols a post references: every cashtag
// token, plus the instrument's own symbol when the symbol or company name
// appears verbatim (case-insensitively) in the text.
func ExtractSymbols(text string, inst model.Instrument) []string {
	found := make(map[string]struct{})

	for _, m := range cashtagPattern.FindAllStringSubmatch(text, -1) {
		found[m[1]] = struct{}{}
	}

	upper := strings.ToUpper(text)
	if inst.Symbol != "" {
		if _, tagged := found[inst.Symbol]; tagged || strings.Contains(upper, inst.Symbol) {
			found[inst.Symbol] = struct{}{}
		}
		if inst.CompanyName != "" && strings.Contains(upper, strings.ToUpper(inst.CompanyName)) {
			found[inst.Symbol] = struct{}{}
		}
	}

	if len(found) == 0 {
		return nil
	}

	symbols := make([]string, 0, len(found))
	for s := range found {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
