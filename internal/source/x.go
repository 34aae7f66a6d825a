package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sentibot/sentiment-data/internal/fetch"
	"github.com/sentibot/sentiment-data/internal/model"
)

// XConfig holds X adapter settings.
type XConfig struct {
	BaseURL     string        // Defaults to https://api.twitter.com/2
	BearerToken string        // Empty disables the adapter entirely
	MaxPages    int           // Search pages fetched (default: 3)
	MaxResults  int           // Tweets per page, API caps at 100 (default: 100)
	PageDelay   time.Duration // Extra delay between pages (default: 2s)
}

func (c *XConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.twitter.com/2"
	}
	if c.MaxPages == 0 {
		c.MaxPages = 3
	}
	if c.MaxResults == 0 || c.MaxResults > 100 {
		c.MaxResults = 100
	}
	if c.PageDelay == 0 {
		c.PageDelay = 2 * time.Second
	}
}

// XAdapter collects tweets via the X API v2 recent search endpoint.
//
// Without a bearer token the adapter returns an empty result before any
// network access; the log line distinguishes that missing precondition from a
// mid-flight failure.
type XAdapter struct {
	cfg     XConfig
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewX creates an X adapter.
func NewX(cfg XConfig, fetcher *fetch.Fetcher, logger *slog.Logger) *XAdapter {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &XAdapter{cfg: cfg, fetcher: fetcher, logger: logger}
}

func (a *XAdapter) Name() model.Source { return model.SourceX }

// Wire shapes for the v2 search response.
type xSearchResponse struct {
	Data     []xTweet `json:"data"`
	Includes struct {
		Users []xUser `json:"users"`
	} `json:"includes"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

type xTweet struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	AuthorID      string `json:"author_id"`
	CreatedAt     string `json:"created_at"`
	Lang          string `json:"lang"`
	PublicMetrics struct {
		LikeCount    int `json:"like_count"`
		ReplyCount   int `json:"reply_count"`
		RetweetCount int `json:"retweet_count"`
	} `json:"public_metrics"`
}

type xUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	PublicMetrics struct {
		FollowersCount int `json:"followers_count"`
	} `json:"public_metrics"`
}

// Collect runs one authenticated search combining the cashtag and quoted
// company name, excluding reposts, restricted to English, paged via the
// opaque continuation token with a deliberate inter-page delay.
func (a *XAdapter) Collect(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, error) {
	if a.cfg.BearerToken == "" {
		a.logger.Warn("x adapter not configured, skipping", "reason", "no bearer token")
		return nil, nil
	}

	query := buildXQuery(inst)
	if query == "" {
		return nil, nil
	}

	a.logger.Debug("searching x", "query", query)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+a.cfg.BearerToken)

	var posts []model.Post
	nextToken := ""

	for page := 0; page < a.cfg.MaxPages; page++ {
		params := url.Values{
			"query":        {query},
			"max_results":  {fmt.Sprintf("%d", a.cfg.MaxResults)},
			"tweet.fields": {"id,text,created_at,author_id,public_metrics,lang"},
			"user.fields":  {"id,username,public_metrics"},
			"expansions":   {"author_id"},
			"start_time":   {since.UTC().Format("2006-01-02T15:04:05Z")},
		}
		if nextToken != "" {
			params.Set("next_token", nextToken)
		}

		var resp xSearchResponse
		err := a.fetcher.GetJSON(ctx, a.cfg.BaseURL+"/tweets/search/recent", params, header, &resp)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			a.logger.Warn("x page fetch failed", "page", page, "error", err)
			break
		}

		users := make(map[string]xUser, len(resp.Includes.Users))
		for _, u := range resp.Includes.Users {
			users[u.ID] = u
		}

		for _, tweet := range resp.Data {
			post, ok := parseTweet(tweet, users, since)
			if !ok {
				continue
			}
			posts = append(posts, post)
		}

		nextToken = resp.Meta.NextToken
		if nextToken == "" {
			break
		}

		// Deliberate inter-page delay on top of per-request rate limiting.
		select {
		case <-ctx.Done():
			return posts, ctx.Err()
		case <-time.After(a.cfg.PageDelay):
		}
	}

	a.logger.Info("x collection complete",
		"symbol", inst.Symbol,
		"posts", len(posts),
	)
	return posts, nil
}

// buildXQuery combines cashtag and quoted company name, excluding reposts
// and restricting to English.
func buildXQuery(inst model.Instrument) string {
	var parts []string
	if inst.Symbol != "" {
		parts = append(parts, "$"+inst.Symbol)
	}
	if inst.CompanyName != "" && !strings.EqualFold(inst.CompanyName, inst.Symbol) {
		parts = append(parts, `"`+inst.CompanyName+`"`)
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, " OR ") + ") -is:retweet lang:en"
}

// parseTweet converts one tweet, backstopping the server-side start_time
// filter with a parse-time since check.
func parseTweet(tweet xTweet, users map[string]xUser, since time.Time) (model.Post, bool) {
	if tweet.ID == "" || tweet.Text == "" {
		return model.Post{}, false
	}

	createdAt, err := time.Parse(time.RFC3339, tweet.CreatedAt)
	if err != nil {
		createdAt = time.Now().UTC()
	} else {
		createdAt = createdAt.UTC()
	}
	if createdAt.Before(since) {
		return model.Post{}, false
	}

	lang := tweet.Lang
	if lang == "" {
		lang = "en"
	}

	user := users[tweet.AuthorID]

	var permalink string
	if user.Username != "" {
		permalink = fmt.Sprintf("https://twitter.com/%s/status/%s", user.Username, tweet.ID)
	}

	likes := tweet.PublicMetrics.LikeCount
	replies := tweet.PublicMetrics.ReplyCount
	reposts := tweet.PublicMetrics.RetweetCount
	post := model.Post{
		Source:       model.SourceX,
		PlatformID:   tweet.ID,
		AuthorID:     tweet.AuthorID,
		AuthorHandle: user.Username,
		CreatedAt:    createdAt,
		Text:         tweet.Text,
		LikeCount:    &likes,
		ReplyCount:   &replies,
		RepostCount:  &reposts,
		Permalink:    permalink,
		Lang:         lang,
	}

	if followers := user.PublicMetrics.FollowersCount; user.ID != "" {
		post.FollowerCount = &followers
	}

	return post, true
}
