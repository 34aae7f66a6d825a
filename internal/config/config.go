package config

import "time"

// PipelineConfig is the root configuration for a pipeline instance.
type PipelineConfig struct {
	Instance InstanceConfig `yaml:"instance"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Sources  SourcesConfig  `yaml:"sources"`
	Database DBConfig       `yaml:"database"`
	Trends   TrendsConfig   `yaml:"trends"`
}

// InstanceConfig identifies this pipeline instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// FetchConfig holds shared HTTP fetch settings.
type FetchConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	BackoffBase time.Duration `yaml:"backoff_base"`
}

// SourcesConfig holds per-platform collection settings.
type SourcesConfig struct {
	Reddit     RedditSourceConfig     `yaml:"reddit"`
	StockTwits StockTwitsSourceConfig `yaml:"stocktwits"`
	X          XSourceConfig          `yaml:"x"`
}

// RedditSourceConfig holds Reddit collection settings.
type RedditSourceConfig struct {
	BaseURL     string   `yaml:"base_url"`
	Subreddits  []string `yaml:"subreddits"`
	MaxPages    int      `yaml:"max_pages"`
	MaxComments int      `yaml:"max_comments"`
	RateLimit   float64  `yaml:"rate_limit"` // requests per second
}

// StockTwitsSourceConfig holds StockTwits collection settings.
type StockTwitsSourceConfig struct {
	BaseURL   string  `yaml:"base_url"`
	MaxPages  int     `yaml:"max_pages"`
	PageSize  int     `yaml:"page_size"`
	RateLimit float64 `yaml:"rate_limit"`
}

// XSourceConfig holds X API settings. An empty bearer token leaves the
// source unconfigured; collection skips it without error.
type XSourceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	BearerToken string        `yaml:"bearer_token"`
	MaxPages    int           `yaml:"max_pages"`
	MaxResults  int           `yaml:"max_results"`
	PageDelay   time.Duration `yaml:"page_delay"`
	RateLimit   float64       `yaml:"rate_limit"`
}

// DBConfig holds the PostgreSQL connection. An entirely empty DBConfig is
// valid for dry runs, which never touch the database.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// TrendsConfig holds search-interest enrichment settings.
type TrendsConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
}
