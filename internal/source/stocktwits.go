package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sentibot/sentiment-data/internal/fetch"
	"github.com/sentibot/sentiment-data/internal/model"
)

// Symbols longer than this are not real tickers and would 404 anyway.
const maxSymbolLen = 5

// StockTwitsConfig holds StockTwits adapter settings.
type StockTwitsConfig struct {
	BaseURL  string // Defaults to https://api.stocktwits.com/api/2
	MaxPages int    // Stream pages fetched (default: 3)
	PageSize int    // Messages per page, API max is 30 (default: 30)
}

func (c *StockTwitsConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.stocktwits.com/api/2"
	}
	if c.MaxPages == 0 {
		c.MaxPages = 3
	}
	if c.PageSize == 0 {
		c.PageSize = 30
	}
}

// StockTwitsAdapter collects messages from a StockTwits public symbol stream,
// paged backwards via the max-id cursor.
type StockTwitsAdapter struct {
	cfg     StockTwitsConfig
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewStockTwits creates a StockTwits adapter.
func NewStockTwits(cfg StockTwitsConfig, fetcher *fetch.Fetcher, logger *slog.Logger) *StockTwitsAdapter {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &StockTwitsAdapter{cfg: cfg, fetcher: fetcher, logger: logger}
}

func (a *StockTwitsAdapter) Name() model.Source { return model.SourceStockTwits }

// Wire shapes for the StockTwits streams API.
type stocktwitsStream struct {
	Messages []stocktwitsMessage `json:"messages"`
	Cursor   struct {
		Max int64 `json:"max"`
	} `json:"cursor"`
}

type stocktwitsMessage struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		Followers int    `json:"followers"`
	} `json:"user"`
	Entities struct {
		Sentiment struct {
			Basic string `json:"basic"`
		} `json:"sentiment"`
	} `json:"entities"`
	Likes struct {
		Total int `json:"total"`
	} `json:"likes"`
}

// Collect pages through the instrument's symbol stream. Pagination stops when
// a page yields zero records after time filtering, when the cursor is absent,
// or after the page budget.
func (a *StockTwitsAdapter) Collect(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, error) {
	symbol := normalizeSymbol(inst.Symbol)
	if symbol == "" || len(symbol) > maxSymbolLen {
		a.logger.Warn("invalid symbol for stocktwits", "symbol", inst.Symbol)
		return nil, nil
	}

	var posts []model.Post
	var maxID int64

	for page := 0; page < a.cfg.MaxPages; page++ {
		streamURL := fmt.Sprintf("%s/streams/symbol/%s.json", a.cfg.BaseURL, symbol)
		params := url.Values{"limit": {strconv.Itoa(a.cfg.PageSize)}}
		if maxID > 0 {
			params.Set("max", strconv.FormatInt(maxID, 10))
		}

		var stream stocktwitsStream
		if err := a.fetcher.GetJSON(ctx, streamURL, params, nil, &stream); err != nil {
			if page == 0 {
				return nil, err
			}
			a.logger.Warn("stocktwits page fetch failed", "symbol", symbol, "page", page, "error", err)
			break
		}

		if len(stream.Messages) == 0 {
			break
		}

		pageCount := 0
		for _, msg := range stream.Messages {
			post, ok := parseStockTwitsMessage(msg, since)
			if !ok {
				continue
			}
			posts = append(posts, post)
			pageCount++
		}

		// Every record on this page was older than the window; deeper pages
		// are older still.
		if pageCount == 0 {
			break
		}

		maxID = stream.Cursor.Max
		if maxID == 0 {
			break
		}
	}

	a.logger.Info("stocktwits collection complete",
		"symbol", symbol,
		"posts", len(posts),
	)
	return posts, nil
}

// normalizeSymbol uppercases and strips the leading cashtag prefix.
func normalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	return strings.TrimPrefix(s, "$")
}

func parseStockTwitsMessage(msg stocktwitsMessage, since time.Time) (model.Post, bool) {
	createdAt, err := parseStockTwitsTime(msg.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	}

	if createdAt.Before(since) {
		return model.Post{}, false
	}
	if msg.ID == 0 || msg.Body == "" {
		return model.Post{}, false
	}

	// Surface the structured sentiment tag to downstream text-based signals.
	text := msg.Body
	if basic := msg.Entities.Sentiment.Basic; basic != "" {
		text = "[" + strings.ToUpper(basic) + "] " + text
	}

	var permalink string
	if msg.User.Username != "" {
		permalink = fmt.Sprintf("https://stocktwits.com/%s/message/%d", msg.User.Username, msg.ID)
	}

	likes := msg.Likes.Total
	followers := msg.User.Followers
	return model.Post{
		Source:        model.SourceStockTwits,
		PlatformID:    strconv.FormatInt(msg.ID, 10),
		AuthorID:      strconv.FormatInt(msg.User.ID, 10),
		AuthorHandle:  msg.User.Username,
		CreatedAt:     createdAt,
		Text:          text,
		LikeCount:     &likes,
		FollowerCount: &followers,
		Permalink:     permalink,
		Lang:          "en",
	}, true
}

func parseStockTwitsTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02T15:04:05Z", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
