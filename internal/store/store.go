package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sentibot/sentiment-data/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a connection pool with the pipeline's persistence operations.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// New creates a store over an existing pool. A nil logger discards output.
func New(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// InitSchema applies the embedded schema. Callers typically treat a failure
// as a warning: the schema may already exist, and the embeddings table needs
// the pgvector extension.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// UpsertPost inserts a post or, on a (source, platform_id) conflict, bumps
// its ingestion timestamp. Returns the row's primary key either way.
func (s *Store) UpsertPost(ctx context.Context, p model.Post) (int64, error) {
	var pk int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO social_posts
		(source, platform_id, author_id, author_handle, created_at, text, symbols, urls, lang,
		 reply_to_id, repost_of_id, like_count, reply_count, repost_count,
		 follower_count, permalink)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (source, platform_id) DO UPDATE SET ingested_at = NOW()
		RETURNING id
	`,
		p.Source, p.PlatformID, p.AuthorID, p.AuthorHandle, p.CreatedAt, p.Text,
		p.Symbols, p.URLs, p.Lang, p.ReplyToID, p.RepostOfID,
		p.LikeCount, p.ReplyCount, p.RepostCount, p.FollowerCount, p.Permalink,
	).Scan(&pk)
	if err != nil {
		return 0, fmt.Errorf("upsert post %s: %w", p.Key(), err)
	}
	return pk, nil
}

// UpsertSentiment writes the sentiment score for a post, replacing any
// previous score.
func (s *Store) UpsertSentiment(ctx context.Context, pk int64, score model.SentimentScore) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO sentiment (post_pk, polarity, subjectivity, sarcasm_prob, confidence, model)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (post_pk) DO UPDATE SET
			polarity = EXCLUDED.polarity,
			subjectivity = EXCLUDED.subjectivity,
			sarcasm_prob = EXCLUDED.sarcasm_prob,
			confidence = EXCLUDED.confidence,
			model = EXCLUDED.model
	`, pk, score.Polarity, score.Subjectivity, score.SarcasmProb, score.Confidence, score.Model)
	if err != nil {
		return fmt.Errorf("upsert sentiment for post %d: %w", pk, err)
	}
	return nil
}

// UpsertEmbedding writes the embedding vector for a post.
func (s *Store) UpsertEmbedding(ctx context.Context, pk int64, emb []float32) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO post_embeddings (post_pk, emb)
		VALUES ($1, $2::vector)
		ON CONFLICT (post_pk) DO UPDATE SET emb = EXCLUDED.emb
	`, pk, vectorLiteral(emb))
	if err != nil {
		return fmt.Errorf("upsert embedding for post %d: %w", pk, err)
	}
	return nil
}

// vectorLiteral renders an embedding in pgvector's input format, "[1,2,3]".
func vectorLiteral(emb []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range emb {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// AggregateBySource returns per-source counts and mean polarity for posts
// tagged with symbol and created at or after since. Only posts with a
// persisted sentiment score count.
func (s *Store) AggregateBySource(ctx context.Context, symbol string, since time.Time) (map[model.Source]model.SourceAggregate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.source, COUNT(*), AVG(s.polarity)
		FROM social_posts p
		JOIN sentiment s ON s.post_pk = p.id
		WHERE $1 = ANY(p.symbols) AND p.created_at >= $2
		GROUP BY p.source
	`, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate query for %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make(map[model.Source]model.SourceAggregate)
	for rows.Next() {
		var (
			src model.Source
			agg model.SourceAggregate
		)
		if err := rows.Scan(&src, &agg.Count, &agg.AvgPolarity); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		out[src] = agg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate rows for %s: %w", symbol, err)
	}

	s.logger.Debug("aggregate computed", "symbol", symbol, "sources", len(out))
	return out, nil
}

// Resolver cache TTL. Instrument identifiers change rarely.
const resolutionTTL = 7 * 24 * time.Hour

// CacheResolution stores the instrument a query resolved to.
func (s *Store) CacheResolution(ctx context.Context, query string, inst model.Instrument) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO resolver_cache (query, symbol, cik, isin, figi, company_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (query) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			cik = EXCLUDED.cik,
			isin = EXCLUDED.isin,
			figi = EXCLUDED.figi,
			company_name = EXCLUDED.company_name,
			cached_at = NOW()
	`, query, inst.Symbol, inst.CIK, inst.ISIN, inst.FIGI, inst.CompanyName)
	if err != nil {
		return fmt.Errorf("cache resolution %q: %w", query, err)
	}
	return nil
}

// CachedResolution returns the cached instrument for a query, or nil when
// there is no entry younger than the TTL.
func (s *Store) CachedResolution(ctx context.Context, query string) (*model.Instrument, error) {
	var inst model.Instrument
	err := s.db.QueryRow(ctx, `
		SELECT symbol, cik, isin, figi, company_name
		FROM resolver_cache
		WHERE query = $1 AND cached_at > NOW() - $2 * INTERVAL '1 second'
	`, query, resolutionTTL.Seconds()).Scan(&inst.Symbol, &inst.CIK, &inst.ISIN, &inst.FIGI, &inst.CompanyName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("cached resolution %q: %w", query, err)
	}
	return &inst, nil
}
