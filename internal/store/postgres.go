package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spigell/interview-analyzer/internal/evaluation"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS llm_evaluation_log (
	id                 UUID PRIMARY KEY,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	source             TEXT NOT NULL DEFAULT 'analysis',
	provider           TEXT NOT NULL,
	position           TEXT NOT NULL,
	cosine_similarity  DOUBLE PRECISION NOT NULL,
	rouge_score        DOUBLE PRECISION NOT NULL,
	overall_score      DOUBLE PRECISION NOT NULL,
	grade              TEXT NOT NULL,
	recommendation     TEXT NOT NULL,
	selected_candidate INTEGER NOT NULL,
	candidates         INTEGER NOT NULL
)`

// Postgres writes the log through a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, verifies the connection and creates the table.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create llm_evaluation_log: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Record implements evaluation.Recorder.
func (p *Postgres) Record(ctx context.Context, result *evaluation.Result) error {
	return p.Save(ctx, EntryFromResult(result))
}

// Save inserts e.
func (p *Postgres) Save(ctx context.Context, e Entry) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO llm_evaluation_log
		 (id, created_at, source, provider, position, cosine_similarity, rouge_score, overall_score, grade, recommendation, selected_candidate, candidates)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.CreatedAt, e.Source, e.Provider, e.Position, e.CosineSimilarity, e.RougeScore,
		e.OverallScore, e.Grade, e.Recommendation, e.SelectedCandidate, e.Candidates,
	)
	if err != nil {
		return fmt.Errorf("failed to save evaluation: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (p *Postgres) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, created_at, source, provider, position, cosine_similarity, rouge_score, overall_score, grade, recommendation, selected_candidate, candidates
		 FROM llm_evaluation_log
		 ORDER BY created_at DESC
		 LIMIT $1`,
		listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.CreatedAt, &e.Source, &e.Provider, &e.Position, &e.CosineSimilarity, &e.RougeScore,
			&e.OverallScore, &e.Grade, &e.Recommendation, &e.SelectedCandidate, &e.Candidates)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan evaluations: %w", err)
	}
	return entries, nil
}
