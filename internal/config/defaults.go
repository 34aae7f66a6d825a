package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultFetchTimeout     = 15 * time.Second
	DefaultFetchMaxAttempts = 3
	DefaultFetchBackoffBase = 1 * time.Second

	DefaultRedditRateLimit     = 0.5 // requests per second
	DefaultStockTwitsRateLimit = 0.33
	DefaultXRateLimit          = 0.25

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 10
	DefaultMinConns  = 2
)

func (c *PipelineConfig) applyDefaults() {
	// Fetch defaults
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = DefaultFetchTimeout
	}
	if c.Fetch.MaxAttempts == 0 {
		c.Fetch.MaxAttempts = DefaultFetchMaxAttempts
	}
	if c.Fetch.BackoffBase == 0 {
		c.Fetch.BackoffBase = DefaultFetchBackoffBase
	}

	// Source rate limits. Paging defaults live with the adapters.
	if c.Sources.Reddit.RateLimit == 0 {
		c.Sources.Reddit.RateLimit = DefaultRedditRateLimit
	}
	if c.Sources.StockTwits.RateLimit == 0 {
		c.Sources.StockTwits.RateLimit = DefaultStockTwitsRateLimit
	}
	if c.Sources.X.RateLimit == 0 {
		c.Sources.X.RateLimit = DefaultXRateLimit
	}

	// Database defaults apply only when a database is configured at all.
	if c.Database != (DBConfig{}) {
		applyDBDefaults(&c.Database)
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
