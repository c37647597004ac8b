package cache

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStatsSink is an optional append-only persistent stats sink: one row per
// query, (query_hash, hit, latency_ms, ts). Nothing in the retrieval path
// depends on it; it is a fire-and-forget observability extra. Neither
// orchestrator.NewEngine nor cmd/retrieve constructs one.
type PgStatsSink struct {
	pool *pgxpool.Pool
}

func NewPgStatsSink(ctx context.Context, dsn string) (*PgStatsSink, error) {
	if dsn == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS retrieval_query_stats (
		query_hash TEXT NOT NULL,
		hit BOOLEAN NOT NULL,
		latency_ms BIGINT NOT NULL,
		ts TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &PgStatsSink{pool: pool}, nil
}

// Record appends one stats row. Errors are the caller's to log; this sink
// never blocks the retrieval path on failure.
func (s *PgStatsSink) Record(ctx context.Context, queryHash string, hit bool, latency time.Duration) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO retrieval_query_stats (query_hash, hit, latency_ms) VALUES ($1, $2, $3)`,
		queryHash, hit, latency.Milliseconds(),
	)
	return err
}

func (s *PgStatsSink) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
