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

// Default communities watched for stock discussion.
var defaultSubreddits = []string{"wallstreetbets", "stocks", "investing", "stockmarket"}

// RedditConfig holds Reddit adapter settings.
type RedditConfig struct {
	BaseURL     string   // Defaults to https://old.reddit.com
	Subreddits  []string // Defaults to defaultSubreddits
	MaxPages    int      // Search pages per subreddit per query (default: 3)
	MaxComments int      // Top-level comments fetched per matching post (default: 10)
}

func (c *RedditConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://old.reddit.com"
	}
	if len(c.Subreddits) == 0 {
		c.Subreddits = defaultSubreddits
	}
	if c.MaxPages == 0 {
		c.MaxPages = 3
	}
	if c.MaxComments == 0 {
		c.MaxComments = 10
	}
}

// RedditAdapter collects posts and top-level comments from Reddit's public
// JSON listings. No authentication required.
type RedditAdapter struct {
	cfg     RedditConfig
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// NewReddit creates a Reddit adapter.
func NewReddit(cfg RedditConfig, fetcher *fetch.Fetcher, logger *slog.Logger) *RedditAdapter {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &RedditAdapter{cfg: cfg, fetcher: fetcher, logger: logger}
}

func (a *RedditAdapter) Name() model.Source { return model.SourceReddit }

// Collect searches each configured subreddit for the cashtag, the plain
// symbol, and the company name, fetching top comments for every matching
// post. Output is deduplicated by platform ID across all variants.
func (a *RedditAdapter) Collect(ctx context.Context, inst model.Instrument, since time.Time) ([]model.Post, error) {
	queries := searchVariants(inst)
	if len(queries) == 0 {
		return nil, nil
	}

	var posts []model.Post
	seen := make(map[string]struct{})

	for _, query := range queries {
		for _, subreddit := range a.cfg.Subreddits {
			found, err := a.searchSubreddit(ctx, subreddit, query, since)
			if err != nil {
				if ctx.Err() != nil {
					return posts, ctx.Err()
				}
				a.logger.Warn("subreddit search failed",
					"subreddit", subreddit,
					"query", query,
					"error", err,
				)
				continue
			}

			for _, p := range found {
				if _, ok := seen[p.PlatformID]; ok {
					continue
				}
				seen[p.PlatformID] = struct{}{}
				posts = append(posts, p)
			}
		}
	}

	a.logger.Info("reddit collection complete",
		"symbol", inst.Symbol,
		"posts", len(posts),
	)
	return posts, nil
}

// searchVariants builds the query set: cashtag, plain symbol, company name.
func searchVariants(inst model.Instrument) []string {
	var queries []string
	if inst.Symbol != "" {
		queries = append(queries, "$"+inst.Symbol, inst.Symbol)
	}
	if inst.CompanyName != "" && !strings.EqualFold(inst.CompanyName, inst.Symbol) {
		queries = append(queries, inst.CompanyName)
	}
	return queries
}

// Wire shapes for Reddit's listing JSON.
type redditListing struct {
	Data struct {
		After    string        `json:"after"`
		Children []redditChild `json:"children"`
	} `json:"data"`
}

type redditChild struct {
	Kind string     `json:"kind"`
	Data redditItem `json:"data"`
}

// redditItem covers the fields shared by posts (t3) and comments (t1).
type redditItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Body        string  `json:"body"`
	Author      string  `json:"author"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
}

// searchSubreddit pages through one subreddit's search results via the
// source-provided after cursor, stopping when the cursor is absent, a page
// is empty, or the page budget runs out.
func (a *RedditAdapter) searchSubreddit(ctx context.Context, subreddit, query string, since time.Time) ([]model.Post, error) {
	var posts []model.Post
	after := ""

	for page := 0; page < a.cfg.MaxPages; page++ {
		searchURL := fmt.Sprintf("%s/r/%s/search.json", a.cfg.BaseURL, subreddit)
		params := url.Values{
			"q":           {query},
			"sort":        {"new"},
			"t":           {"week"},
			"limit":       {"100"},
			"restrict_sr": {"on"},
		}
		if after != "" {
			params.Set("after", after)
		}

		var listing redditListing
		if err := a.fetcher.GetJSON(ctx, searchURL, params, nil, &listing); err != nil {
			if page == 0 {
				return nil, err
			}
			// Partial results are fine past page one.
			a.logger.Warn("reddit page fetch failed", "subreddit", subreddit, "page", page, "error", err)
			break
		}

		if len(listing.Data.Children) == 0 {
			break
		}

		for _, child := range listing.Data.Children {
			post, ok := parseRedditPost(child.Data, since)
			if !ok {
				continue
			}
			posts = append(posts, post)

			comments, err := a.fetchComments(ctx, child.Data.ID, since)
			if err != nil {
				a.logger.Warn("comment fetch failed", "post_id", child.Data.ID, "error", err)
				continue
			}
			posts = append(posts, comments...)
		}

		after = listing.Data.After
		if after == "" {
			break
		}
	}

	return posts, nil
}

// parseRedditPost converts one search record, dropping anything older than
// since and anything deleted or removed.
func parseRedditPost(item redditItem, since time.Time) (model.Post, bool) {
	createdAt := time.Unix(int64(item.CreatedUTC), 0).UTC()
	if createdAt.Before(since) {
		return model.Post{}, false
	}

	if item.Author == "" || item.Author == "[deleted]" || item.Selftext == "[removed]" {
		return model.Post{}, false
	}

	text := strings.TrimSpace(item.Title + "\n" + item.Selftext)
	if text == "" || item.ID == "" {
		return model.Post{}, false
	}

	ups := item.Ups
	numComments := item.NumComments
	return model.Post{
		Source:       model.SourceReddit,
		PlatformID:   "post_" + item.ID,
		AuthorID:     item.Author,
		AuthorHandle: item.Author,
		CreatedAt:    createdAt,
		Text:         text,
		LikeCount:    &ups,
		ReplyCount:   &numComments,
		Permalink:    redditPermalink(item.Permalink),
		Lang:         "en",
	}, true
}

// fetchComments loads up to MaxComments top-level comments for a post.
func (a *RedditAdapter) fetchComments(ctx context.Context, postID string, since time.Time) ([]model.Post, error) {
	if postID == "" {
		return nil, nil
	}

	commentsURL := fmt.Sprintf("%s/comments/%s.json", a.cfg.BaseURL, postID)
	params := url.Values{
		"limit": {strconv.Itoa(a.cfg.MaxComments)},
		"sort":  {"top"},
		"depth": {"1"},
	}

	// The comments endpoint returns a two-element array: the post listing
	// followed by the comment listing.
	var listings []redditListing
	if err := a.fetcher.GetJSON(ctx, commentsURL, params, nil, &listings); err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []model.Post
	children := listings[1].Data.Children
	if len(children) > a.cfg.MaxComments {
		children = children[:a.cfg.MaxComments]
	}

	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		comment, ok := parseRedditComment(child.Data, postID, since)
		if !ok {
			continue
		}
		comments = append(comments, comment)
	}

	return comments, nil
}

func parseRedditComment(item redditItem, parentPostID string, since time.Time) (model.Post, bool) {
	createdAt := time.Unix(int64(item.CreatedUTC), 0).UTC()
	if createdAt.Before(since) {
		return model.Post{}, false
	}

	if item.Author == "" || item.Author == "[deleted]" {
		return model.Post{}, false
	}
	if item.Body == "" || item.Body == "[removed]" || item.Body == "[deleted]" {
		return model.Post{}, false
	}
	if item.ID == "" {
		return model.Post{}, false
	}

	ups := item.Ups
	return model.Post{
		Source:       model.SourceReddit,
		PlatformID:   "comment_" + item.ID,
		AuthorID:     item.Author,
		AuthorHandle: item.Author,
		CreatedAt:    createdAt,
		Text:         item.Body,
		LikeCount:    &ups,
		ReplyToID:    parentPostID,
		Permalink:    redditPermalink(item.Permalink),
		Lang:         "en",
	}, true
}

func redditPermalink(path string) string {
	if path == "" {
		return ""
	}
	return "https://reddit.com" + path
}
