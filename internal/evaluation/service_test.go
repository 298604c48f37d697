package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-analyzer/internal/ai"
)

type recorderFunc func(ctx context.Context, result *Result) error

func (f recorderFunc) Record(ctx context.Context, result *Result) error { return f(ctx, result) }

func endToEndProvider() *stubProvider {
	return &stubProvider{
		vectors: map[string][]float32{
			"Expert answer":    {1, 0},
			"Excellent answer": unitWithCosine(0.99),
			"Average answer":   unitWithCosine(0.5),
			"Poor answer":      unitWithCosine(0.1),
		},
		completions: []string{"Candidate 1 explains the trade-offs.", "Cross analysis report"},
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	t.Parallel()

	p := endToEndProvider()
	svc, err := NewService(p, DefaultConfig(), nil, zap.NewNop())
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	result, err := svc.Analyze(context.Background(), Request{
		Transcripts: []string{"Excellent answer", "Average answer", "Poor answer"},
		Reference:   "Expert answer",
		Position:    "Backend Developer",
		Question:    "How do you design an idempotent payment API?",
	})
	require.NoError(t, err)

	require.NotNil(t, result.HireDecision)
	assert.Equal(t, 1, result.HireDecision.SelectedIndex)
	assert.Equal(t, "Candidate 1 explains the trade-offs.", result.HireDecision.Justification)
	assert.Equal(t, "Cross analysis report", result.Report)

	// Every candidate shares "answer" with the reference.
	for _, s := range result.HireDecision.Scores {
		assert.InDelta(t, 0.5, s.LexicalScore, 1e-9)
	}

	assert.InDelta(t, 0.99, result.CosineScore, 1e-6)
	assert.InDelta(t, 0.5, result.LexicalScore, 1e-9)
	assert.Equal(t, "C", result.Grade)
	assert.Equal(t, "Lean hire", result.Recommendation)
	assert.InDelta(t, (0.745+0.5+0.3)/3, result.Score, 1e-6)

	assert.NotNil(t, result.Iterations)
	assert.Empty(t, result.Iterations)
	assert.Equal(t, "Stub (test-model)", result.Provider)
	assert.Equal(t, "Backend Developer", result.Position)
	assert.Equal(t, "How do you design an idempotent payment API?", result.Question)
	assert.Equal(t, fixed, result.CreatedAt)
	assert.NotEqual(t, uuid.Nil, result.ID)

	require.Len(t, p.prompts, 2)
	assert.Contains(t, p.prompts[1], "Backend Developer")
}

func TestAnalyzeDefaultsPosition(t *testing.T) {
	t.Parallel()

	svc, err := NewService(endToEndProvider(), DefaultConfig(), nil, nil)
	require.NoError(t, err)

	result, err := svc.Analyze(context.Background(), Request{
		Transcripts: []string{"Excellent answer"},
		Reference:   "Expert answer",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultPosition, result.Position)
	assert.Empty(t, result.Question)
}

func TestAnalyzeRecordsResult(t *testing.T) {
	t.Parallel()

	var recorded *Result
	recorder := recorderFunc(func(_ context.Context, r *Result) error {
		recorded = r
		return nil
	})

	svc, err := NewService(endToEndProvider(), DefaultConfig(), recorder, nil)
	require.NoError(t, err)

	result, err := svc.Analyze(context.Background(), Request{
		Transcripts: []string{"Excellent answer", "Poor answer"},
		Reference:   "Expert answer",
	})
	require.NoError(t, err)
	assert.Same(t, result, recorded)
}

func TestAnalyzeRecorderFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	recorder := recorderFunc(func(context.Context, *Result) error {
		return errors.New("database is down")
	})

	svc, err := NewService(endToEndProvider(), DefaultConfig(), recorder, zap.New(core))
	require.NoError(t, err)

	result, err := svc.Analyze(context.Background(), Request{
		Transcripts: []string{"Excellent answer"},
		Reference:   "Expert answer",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	entries := logs.FilterMessage("failed to record evaluation result").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Unknown", entries[0].ContextMap()["position"])
}

func TestAnalyzeCrossAnalysisFailure(t *testing.T) {
	t.Parallel()

	p := endToEndProvider()
	p.completions = p.completions[:1]

	recorded := false
	svc, err := NewService(p, DefaultConfig(), recorderFunc(func(context.Context, *Result) error {
		recorded = true
		return nil
	}), nil)
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), Request{
		Transcripts: []string{"Excellent answer"},
		Reference:   "Expert answer",
	})
	assert.True(t, ai.IsProviderError(err))
	assert.False(t, recorded)
}

func TestAnalyzeValidation(t *testing.T) {
	t.Parallel()

	svc, err := NewService(endToEndProvider(), DefaultConfig(), nil, nil)
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), Request{Reference: "Expert answer"})
	assert.True(t, ai.IsValidationError(err))
}

func TestNewServiceRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Metric = "jaccard"
	_, err := NewService(endToEndProvider(), cfg, nil, nil)
	assert.Error(t, err)

	_, err = NewService(nil, DefaultConfig(), nil, nil)
	assert.Error(t, err)
}
