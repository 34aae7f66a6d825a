package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
instance:
  id: test-pipeline
sources:
  reddit:
    subreddits: [stocks, wallstreetbets]
    max_pages: 2
  x:
    bearer_token: tok-123
database:
  host: localhost
  port: 5432
  name: sentiment
  user: testuser
  password: testpass
trends:
  enabled: true
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Instance.ID != "test-pipeline" {
		t.Errorf("Instance.ID = %q, want %q", cfg.Instance.ID, "test-pipeline")
	}
	if len(cfg.Sources.Reddit.Subreddits) != 2 || cfg.Sources.Reddit.Subreddits[0] != "stocks" {
		t.Errorf("Reddit.Subreddits = %v", cfg.Sources.Reddit.Subreddits)
	}
	if cfg.Sources.X.BearerToken != "tok-123" {
		t.Errorf("X.BearerToken = %q, want %q", cfg.Sources.X.BearerToken, "tok-123")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if !cfg.Trends.Enabled {
		t.Error("Trends.Enabled = false, want true")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_X_TOKEN", "secret123")

	yaml := `
instance:
  id: test-pipeline
sources:
  x:
    bearer_token: ${TEST_X_TOKEN}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sources.X.BearerToken != "secret123" {
		t.Errorf("X.BearerToken = %q, want %q", cfg.Sources.X.BearerToken, "secret123")
	}
}

func TestLoadAndValidateDefaults(t *testing.T) {
	yaml := `
instance:
  id: test-pipeline
database:
  host: localhost
  name: sentiment
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Fetch.Timeout != 15*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 15s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.MaxAttempts != 3 {
		t.Errorf("Fetch.MaxAttempts = %d, want 3", cfg.Fetch.MaxAttempts)
	}
	if cfg.Sources.Reddit.RateLimit != DefaultRedditRateLimit {
		t.Errorf("Reddit.RateLimit = %v, want %v", cfg.Sources.Reddit.RateLimit, DefaultRedditRateLimit)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want 5432", cfg.Database.Port)
	}
	if cfg.Database.SSLMode != "prefer" {
		t.Errorf("Database.SSLMode = %q, want %q", cfg.Database.SSLMode, "prefer")
	}
	if cfg.Database.MaxConns != DefaultMaxConns || cfg.Database.MinConns != DefaultMinConns {
		t.Errorf("conns = %d/%d, want %d/%d",
			cfg.Database.MinConns, cfg.Database.MaxConns, DefaultMinConns, DefaultMaxConns)
	}
}

func TestValidateNoDatabaseAllowed(t *testing.T) {
	yaml := `
instance:
  id: dry-run-pipeline
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}
	if cfg.HasDatabase() {
		t.Error("HasDatabase() = true for empty database config")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing instance id",
			yaml:    "sources:\n  reddit:\n    max_pages: 1\n",
			wantErr: "instance.id",
		},
		{
			name: "partial database",
			yaml: `
instance:
  id: p
database:
  host: localhost
  name: sentiment
  user: u
`,
			wantErr: "database.password",
		},
		{
			name: "negative rate limit",
			yaml: `
instance:
  id: p
sources:
  reddit:
    rate_limit: -1
`,
			wantErr: "rate_limit",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTempFile(t, tt.yaml)
			_, err := LoadAndValidate(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
