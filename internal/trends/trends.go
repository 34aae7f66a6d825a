// Package trends fetches search-interest data for a symbol from the
// Google Trends widget API. Enrichment only: callers treat every failure
// as "no trends data" and carry on.
package trends

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sentibot/sentiment-data/internal/fetch"
	"github.com/sentibot/sentiment-data/internal/model"
)

const (
	defaultBaseURL = "https://trends.google.com"

	timeframe = "now 7-d"
	geo       = "US"
	hl        = "en-US"
	tz        = "360"
)

// Client talks to the unofficial Trends widget endpoints.
type Client struct {
	fetcher *fetch.Fetcher
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a trends client. A nil logger discards output.
func NewClient(fetcher *fetch.Fetcher, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{fetcher: fetcher, baseURL: baseURL, logger: logger}
}

// Widget tokens returned by the explore endpoint. Each widget carries a
// one-shot token plus the request payload the data endpoint expects back.
type exploreResponse struct {
	Widgets []widget `json:"widgets"`
}

type widget struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Request json.RawMessage `json:"request"`
}

// Fetch returns search-interest data for symbol, comparing against the
// company name when it differs. The caller decides whether a failure is
// fatal; it never is for the pipeline.
func (c *Client) Fetch(ctx context.Context, symbol, companyName string) (*model.TrendsData, error) {
	if symbol == "" {
		return nil, fmt.Errorf("trends: empty symbol")
	}

	keywords := []string{symbol}
	if companyName != "" && !strings.EqualFold(companyName, symbol) {
		keywords = append(keywords, companyName)
	}

	widgets, err := c.explore(ctx, keywords)
	if err != nil {
		return nil, fmt.Errorf("trends explore: %w", err)
	}

	data := &model.TrendsData{FetchedAt: time.Now().UTC()}

	// Widget failures degrade to empty sections rather than failing the
	// whole fetch.
	for _, w := range widgets {
		switch w.ID {
		case "TIMESERIES":
			iot, err := c.interestOverTime(ctx, w)
			if err != nil {
				c.logger.Warn("trends interest over time failed", "symbol", symbol, "error", err)
				continue
			}
			data.InterestOverTime = iot
		case "RELATED_QUERIES":
			queries, err := c.relatedQueries(ctx, w)
			if err != nil {
				c.logger.Warn("trends related queries failed", "symbol", symbol, "error", err)
				continue
			}
			data.RelatedQueries = queries
		case "GEO_MAP":
			regions, err := c.interestByRegion(ctx, w)
			if err != nil {
				c.logger.Warn("trends interest by region failed", "symbol", symbol, "error", err)
				continue
			}
			data.InterestByRegion = regions
		}
	}

	return data, nil
}

// explore registers the query and returns widget tokens.
func (c *Client) explore(ctx context.Context, keywords []string) ([]widget, error) {
	items := make([]map[string]string, 0, len(keywords))
	for _, kw := range keywords {
		items = append(items, map[string]string{
			"keyword": kw,
			"geo":     geo,
			"time":    timeframe,
		})
	}
	req, err := json.Marshal(map[string]any{
		"comparisonItem": items,
		"category":       0,
		"property":       "",
	})
	if err != nil {
		return nil, err
	}

	var resp exploreResponse
	if err := c.getWidgetJSON(ctx, "/trends/api/explore", url.Values{
		"hl":  {hl},
		"tz":  {tz},
		"req": {string(req)},
	}, &resp); err != nil {
		return nil, err
	}
	return resp.Widgets, nil
}

func (c *Client) interestOverTime(ctx context.Context, w widget) (map[string]float64, error) {
	var resp struct {
		Default struct {
			TimelineData []struct {
				Time  string    `json:"time"` // Unix seconds
				Value []float64 `json:"value"`
			} `json:"timelineData"`
		} `json:"default"`
	}
	if err := c.widgetData(ctx, "/trends/api/widgetdata/multiline", w, &resp); err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(resp.Default.TimelineData))
	for _, pt := range resp.Default.TimelineData {
		if len(pt.Value) == 0 {
			continue
		}
		secs, err := strconv.ParseInt(pt.Time, 10, 64)
		if err != nil {
			continue
		}
		day := time.Unix(secs, 0).UTC().Format("2006-01-02")
		// Intraday points collapse onto days; the last point wins.
		out[day] = pt.Value[0]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (c *Client) relatedQueries(ctx context.Context, w widget) ([]string, error) {
	var resp struct {
		Default struct {
			RankedList []struct {
				RankedKeyword []struct {
					Query string `json:"query"`
				} `json:"rankedKeyword"`
			} `json:"rankedList"`
		} `json:"default"`
	}
	if err := c.widgetData(ctx, "/trends/api/widgetdata/relatedsearches", w, &resp); err != nil {
		return nil, err
	}

	// First list is "top", second is "rising". Take five of each,
	// deduplicated in order, ten overall.
	seen := make(map[string]bool)
	var queries []string
	for _, list := range resp.Default.RankedList {
		taken := 0
		for _, kw := range list.RankedKeyword {
			if taken >= 5 {
				break
			}
			taken++
			if kw.Query == "" || seen[kw.Query] {
				continue
			}
			seen[kw.Query] = true
			queries = append(queries, kw.Query)
		}
	}
	if len(queries) > 10 {
		queries = queries[:10]
	}
	return queries, nil
}

func (c *Client) interestByRegion(ctx context.Context, w widget) (map[string]float64, error) {
	var resp struct {
		Default struct {
			GeoMapData []struct {
				GeoName string    `json:"geoName"`
				Value   []float64 `json:"value"`
			} `json:"geoMapData"`
		} `json:"default"`
	}
	if err := c.widgetData(ctx, "/trends/api/widgetdata/comparedgeo", w, &resp); err != nil {
		return nil, err
	}

	type regionValue struct {
		name  string
		value float64
	}
	regions := make([]regionValue, 0, len(resp.Default.GeoMapData))
	for _, g := range resp.Default.GeoMapData {
		if len(g.Value) == 0 {
			continue
		}
		regions = append(regions, regionValue{g.GeoName, g.Value[0]})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].value > regions[j].value })
	if len(regions) > 10 {
		regions = regions[:10]
	}

	if len(regions) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(regions))
	for _, r := range regions {
		out[r.name] = r.value
	}
	return out, nil
}

func (c *Client) widgetData(ctx context.Context, path string, w widget, v any) error {
	return c.getWidgetJSON(ctx, path, url.Values{
		"hl":    {hl},
		"tz":    {tz},
		"req":   {string(w.Request)},
		"token": {w.Token},
	}, v)
}

// getWidgetJSON fetches a widget endpoint and decodes its body. The API
// prefixes every response with an XSSI guard (")]}'") that must be
// stripped before parsing.
func (c *Client) getWidgetJSON(ctx context.Context, path string, query url.Values, v any) error {
	body, err := c.fetcher.Do(ctx, fetch.Request{URL: c.baseURL + path, Query: query})
	if err != nil {
		return err
	}
	if i := bytes.IndexByte(body, '{'); i > 0 {
		body = body[i:]
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}
