// Package store keeps a best-effort log of finished evaluations in
// PostgreSQL or SQLite.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/refinement"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// SourceAnalysis rows come from candidate analyses.
	SourceAnalysis = "analysis"
	// SourceRefinement rows come from comprehensive refinement assessments.
	SourceRefinement = "refinement"

	defaultListLimit = 20
)

// Entry is one row of llm_evaluation_log.
type Entry struct {
	ID                uuid.UUID `json:"id" yaml:"id"`
	CreatedAt         time.Time `json:"created_at" yaml:"created_at"`
	Source            string    `json:"source" yaml:"source"`
	Provider          string    `json:"provider" yaml:"provider"`
	Position          string    `json:"position" yaml:"position"`
	CosineSimilarity  float64   `json:"cosine_similarity" yaml:"cosine_similarity"`
	RougeScore        float64   `json:"rouge_score" yaml:"rouge_score"`
	OverallScore      float64   `json:"overall_score" yaml:"overall_score"`
	Grade             string    `json:"grade" yaml:"grade"`
	Recommendation    string    `json:"recommendation" yaml:"recommendation"`
	SelectedCandidate int       `json:"selected_candidate" yaml:"selected_candidate"`
	Candidates        int       `json:"candidates" yaml:"candidates"`
}

// EntryFromResult flattens a result into a log row. Scores are those of the
// selected candidate.
func EntryFromResult(r *evaluation.Result) Entry {
	winner := r.HireDecision.Selected()
	selected := 0
	candidates := len(r.Transcripts)
	if r.HireDecision != nil {
		selected = r.HireDecision.SelectedIndex
		candidates = len(r.HireDecision.Scores)
	}

	return Entry{
		ID:                r.ID,
		CreatedAt:         r.CreatedAt.UTC(),
		Source:            SourceAnalysis,
		Provider:          r.Provider,
		Position:          r.Position,
		CosineSimilarity:  r.CosineScore,
		RougeScore:        r.LexicalScore,
		OverallScore:      winner.OverallScore,
		Grade:             r.Grade,
		Recommendation:    r.Recommendation,
		SelectedCandidate: selected,
		Candidates:        candidates,
	}
}

// EntryFromAssessment flattens a refinement assessment of the best report
// generated from candidates transcripts.
func EntryFromAssessment(provider string, candidates int, a *refinement.Assessment) Entry {
	return Entry{
		ID:               uuid.New(),
		CreatedAt:        time.Now().UTC(),
		Source:           SourceRefinement,
		Provider:         provider,
		CosineSimilarity: a.CosineScore,
		RougeScore:       a.Overlap.F1,
		OverallScore:     a.OverallScore,
		Grade:            a.Grade,
		Recommendation:   a.Recommendation,
		Candidates:       candidates,
	}
}

// Store records results and lists recent entries.
type Store interface {
	evaluation.Recorder
	Save(ctx context.Context, e Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Open connects to the result log for driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("result log dsn is required")
	}

	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverPostgres, "pgx", "postgresql":
		return OpenPostgres(ctx, dsn)
	case DriverSQLite, "sqlite3":
		return OpenSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown result log driver %q (want %q or %q)", driver, DriverPostgres, DriverSQLite)
	}
}

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
