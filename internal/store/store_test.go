package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/refinement"
	"github.com/spigell/interview-analyzer/internal/scoring"
)

func sampleResult(createdAt time.Time) *evaluation.Result {
	return &evaluation.Result{
		ID:             uuid.New(),
		Score:          0.52,
		CosineScore:    0.99,
		LexicalScore:   0.5,
		Grade:          "C",
		Recommendation: "Lean hire",
		Transcripts:    []string{"Excellent answer", "Average answer", "Poor answer"},
		Reference:      "Expert answer",
		HireDecision: &evaluation.HireDecision{
			SelectedIndex: 1,
			Scores: []evaluation.CandidateScore{
				{Position: 1, CosineScore: 0.99, LexicalScore: 0.5, OverallScore: 0.745, Grade: "C"},
				{Position: 2, CosineScore: 0.5, LexicalScore: 0.5, OverallScore: 0.5, Grade: "D"},
				{Position: 3, CosineScore: 0.1, LexicalScore: 0.5, OverallScore: 0.3, Grade: "D"},
			},
		},
		Provider:  "OpenAI (gpt-4o-mini)",
		Position:  "Backend Developer",
		CreatedAt: createdAt,
	}
}

func openSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEntryFromResult(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 5, 4, 10, 0, 0, 0, time.FixedZone("KST", 9*3600))
	e := EntryFromResult(sampleResult(created))

	assert.Equal(t, 1, e.SelectedCandidate)
	assert.Equal(t, 3, e.Candidates)
	assert.InDelta(t, 0.745, e.OverallScore, 1e-9)
	assert.Equal(t, time.UTC, e.CreatedAt.Location())
	assert.Equal(t, "Lean hire", e.Recommendation)
	assert.Equal(t, SourceAnalysis, e.Source)
}

func TestEntryFromResultWithoutDecision(t *testing.T) {
	t.Parallel()

	r := sampleResult(time.Now())
	r.HireDecision = nil

	e := EntryFromResult(r)
	assert.Zero(t, e.SelectedCandidate)
	assert.Equal(t, 3, e.Candidates)
	assert.Zero(t, e.OverallScore)
}

func TestSQLiteRecordAndList(t *testing.T) {
	t.Parallel()

	s := openSQLite(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	older := sampleResult(base)
	newer := sampleResult(base.Add(1500 * time.Millisecond))
	newer.Provider = "Google Gemini (gemini-2.0-flash-lite)"

	require.NoError(t, s.Record(ctx, older))
	require.NoError(t, s.Record(ctx, newer))

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, newer.ID, entries[0].ID)
	assert.Equal(t, "Google Gemini (gemini-2.0-flash-lite)", entries[0].Provider)
	assert.True(t, entries[0].CreatedAt.Equal(newer.CreatedAt))
	assert.Equal(t, older.ID, entries[1].ID)
	assert.Equal(t, "Backend Developer", entries[1].Position)

	limited, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRejectsDuplicateID(t *testing.T) {
	t.Parallel()

	s := openSQLite(t)
	r := sampleResult(time.Now())

	require.NoError(t, s.Record(context.Background(), r))
	assert.Error(t, s.Record(context.Background(), r))
}

func TestSQLiteReopenKeepsEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.db")
	ctx := context.Background()

	first, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Record(ctx, sampleResult(time.Now())))
	require.NoError(t, first.Close())

	second, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	entries, err := second.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	s, err := Open(ctx, "SQLite", filepath.Join(t.TempDir(), "log.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "mysql", "dsn")
	assert.ErrorContains(t, err, "unknown result log driver")

	_, err = Open(ctx, DriverSQLite, " ")
	assert.Error(t, err)
}

func TestSQLiteImplementsRecorder(t *testing.T) {
	t.Parallel()

	var _ evaluation.Recorder = openSQLite(t)
	var _ Store = (*Postgres)(nil)
}

func TestSQLiteSavesRefinementAssessment(t *testing.T) {
	t.Parallel()

	s := openSQLite(t)
	ctx := context.Background()

	assessment := &refinement.Assessment{
		CosineScore:    0.9,
		Overlap:        scoring.OverlapScores{Precision: 0.5, Recall: 0.7, F1: 0.6},
		OverallScore:   0.78,
		Grade:          "B (Good)",
		Recommendation: "Minor prompt adjustment recommended",
	}
	entry := EntryFromAssessment("OpenAI (gpt-4o-mini)", 3, assessment)
	assert.Equal(t, SourceRefinement, entry.Source)
	assert.InDelta(t, 0.6, entry.RougeScore, 1e-9)

	require.NoError(t, s.Record(ctx, sampleResult(time.Now().Add(-time.Minute))))
	require.NoError(t, s.Save(ctx, entry))

	entries, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	got := entries[0]
	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, SourceRefinement, got.Source)
	assert.Equal(t, "B (Good)", got.Grade)
	assert.Equal(t, "Minor prompt adjustment recommended", got.Recommendation)
	assert.InDelta(t, 0.78, got.OverallScore, 1e-9)
	assert.Equal(t, 3, got.Candidates)
	assert.Zero(t, got.SelectedCandidate)
	assert.Equal(t, SourceAnalysis, entries[1].Source)
}
