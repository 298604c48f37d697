package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/spigell/interview-analyzer/internal/evaluation"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS llm_evaluation_log (
	id                 TEXT PRIMARY KEY,
	created_at         TEXT NOT NULL,
	source             TEXT NOT NULL DEFAULT 'analysis',
	provider           TEXT NOT NULL,
	position           TEXT NOT NULL,
	cosine_similarity  REAL NOT NULL,
	rouge_score        REAL NOT NULL,
	overall_score      REAL NOT NULL,
	grade              TEXT NOT NULL,
	recommendation     TEXT NOT NULL,
	selected_candidate INTEGER NOT NULL,
	candidates         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_llm_evaluation_log_created_at ON llm_evaluation_log(created_at);
`

// sqliteTimeLayout has a fixed width so created_at sorts as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite writes the log to a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and creates the table.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Record implements evaluation.Recorder.
func (s *SQLite) Record(ctx context.Context, result *evaluation.Result) error {
	return s.Save(ctx, EntryFromResult(result))
}

// Save inserts e.
func (s *SQLite) Save(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO llm_evaluation_log
		 (id, created_at, source, provider, position, cosine_similarity, rouge_score, overall_score, grade, recommendation, selected_candidate, candidates)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.CreatedAt.UTC().Format(sqliteTimeLayout), e.Source, e.Provider, e.Position, e.CosineSimilarity,
		e.RougeScore, e.OverallScore, e.Grade, e.Recommendation, e.SelectedCandidate, e.Candidates,
	)
	if err != nil {
		return fmt.Errorf("insert evaluation: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (s *SQLite) List(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, source, provider, position, cosine_similarity, rouge_score, overall_score, grade, recommendation, selected_candidate, candidates
		 FROM llm_evaluation_log
		 ORDER BY created_at DESC
		 LIMIT ?`,
		listLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			id        string
			createdAt string
		)
		if err := rows.Scan(&id, &createdAt, &e.Source, &e.Provider, &e.Position, &e.CosineSimilarity, &e.RougeScore,
			&e.OverallScore, &e.Grade, &e.Recommendation, &e.SelectedCandidate, &e.Candidates); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse evaluation id: %w", err)
		}
		if e.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
