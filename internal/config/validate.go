package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *PipelineConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Fetch.MaxAttempts < 1 {
		return errors.New("fetch.max_attempts must be >= 1")
	}

	if c.Sources.Reddit.RateLimit < 0 {
		return errors.New("sources.reddit.rate_limit cannot be negative")
	}
	if c.Sources.StockTwits.RateLimit < 0 {
		return errors.New("sources.stocktwits.rate_limit cannot be negative")
	}
	if c.Sources.X.RateLimit < 0 {
		return errors.New("sources.x.rate_limit cannot be negative")
	}

	// Dry runs may omit the database entirely.
	if c.Database != (DBConfig{}) {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	return nil
}

// HasDatabase reports whether a database connection is configured.
func (c *PipelineConfig) HasDatabase() bool {
	return c.Database != (DBConfig{})
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
