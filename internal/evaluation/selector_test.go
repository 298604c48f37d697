package evaluation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/scoring"
)

func newSelector(t *testing.T, p ai.Provider, mutate func(*Config)) *Selector {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSelector(p, cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestSelectBestPicksHighestScore(t *testing.T) {
	t.Parallel()

	p := &stubProvider{
		vectors: map[string][]float32{
			"reference": {1, 0},
			"alpha":     unitWithCosine(0.9),
			"beta":      unitWithCosine(0.5),
			"gamma":     unitWithCosine(0.3),
		},
		completions: []string{"Candidate 1 covers the reference best."},
	}

	decision, err := newSelector(t, p, nil).SelectBest(context.Background(), []string{"alpha", "beta", "gamma"}, "reference")
	require.NoError(t, err)

	assert.Equal(t, 1, decision.SelectedIndex)
	require.Len(t, decision.Scores, 3)
	for i, s := range decision.Scores {
		assert.Equal(t, i+1, s.Position)
		assert.Zero(t, s.LexicalScore)
	}
	assert.InDelta(t, 0.45, decision.Scores[0].OverallScore, 1e-6)
	assert.Equal(t, "Candidate 1 covers the reference best.", decision.Justification)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Candidate 1")
}

func TestSelectBestTieResolvesToLowestIndex(t *testing.T) {
	t.Parallel()

	p := &stubProvider{
		vectors: map[string][]float32{
			"reference": {1, 0},
			"weak":      unitWithCosine(0.2),
			"first":     unitWithCosine(0.8),
			"second":    unitWithCosine(0.8),
		},
		completions: []string{"ok"},
	}

	decision, err := newSelector(t, p, nil).SelectBest(context.Background(), []string{"weak", "first", "second"}, "reference")
	require.NoError(t, err)
	assert.Equal(t, decision.Scores[1].OverallScore, decision.Scores[2].OverallScore)
	assert.Equal(t, 2, decision.SelectedIndex)
}

func TestSelectBestSingleCandidate(t *testing.T) {
	t.Parallel()

	p := &stubProvider{
		vectors:     map[string][]float32{"ref": {1, 0}, "only": {1, 0}},
		completions: []string{"only one"},
	}

	decision, err := newSelector(t, p, nil).SelectBest(context.Background(), []string{"only"}, "ref")
	require.NoError(t, err)
	assert.Equal(t, 1, decision.SelectedIndex)
	assert.Equal(t, 1.0, decision.Scores[0].CosineScore)
	assert.Equal(t, "D", decision.Scores[0].Grade)
}

func TestSelectBestValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		candidates []string
		reference  string
		credErr    error
		field      string
	}{
		{name: "no candidates", candidates: nil, reference: "ref", field: "transcripts"},
		{name: "empty reference", candidates: []string{"a"}, reference: "  ", field: "reference"},
		{name: "missing credentials", candidates: []string{"a"}, reference: "ref", credErr: ai.MissingCredentials("openai", "OPENAI_API_KEY"), field: "provider"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &stubProvider{credErr: tt.credErr}

			_, err := newSelector(t, p, nil).SelectBest(context.Background(), tt.candidates, tt.reference)

			var verr *ai.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Empty(t, p.embedded, "no external call expected")
			assert.Empty(t, p.prompts, "no external call expected")
		})
	}
}

func TestSelectBestPropagatesProviderErrors(t *testing.T) {
	t.Parallel()

	t.Run("embedding", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{embedErr: errors.New("quota exceeded")}
		_, err := newSelector(t, p, nil).SelectBest(context.Background(), []string{"a"}, "ref")
		assert.True(t, ai.IsProviderError(err))
		assert.Empty(t, p.prompts)
	})

	t.Run("justification", func(t *testing.T) {
		t.Parallel()
		p := &stubProvider{
			vectors:     map[string][]float32{"ref": {1, 0}, "a": {0, 1}},
			completeErr: errors.New("upstream 500"),
		}
		decision, err := newSelector(t, p, nil).SelectBest(context.Background(), []string{"a"}, "ref")
		assert.Nil(t, decision)
		assert.True(t, ai.IsProviderError(err))
	})
}

func TestScoreParallelKeepsInputOrder(t *testing.T) {
	t.Parallel()

	vectors := map[string][]float32{"ref": {1, 0}}
	candidates := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	for i, c := range candidates {
		vectors[c] = unitWithCosine(float64(i+1) / 10)
	}
	p := &stubProvider{vectors: vectors}

	s := newSelector(t, p, func(c *Config) { c.ParallelEmbeddings = 3 })
	scores, err := s.Score(context.Background(), candidates, "ref")
	require.NoError(t, err)

	require.Len(t, scores, len(candidates))
	for i, score := range scores {
		assert.Equal(t, i+1, score.Position)
		assert.InDelta(t, float64(i+1)/10, score.CosineScore, 1e-6)
	}
	assert.Equal(t, 6, SelectIndex(scores))
}

func TestSelectorUsesConfiguredMetricAndPolicy(t *testing.T) {
	t.Parallel()

	p := &stubProvider{vectors: map[string][]float32{
		"payment flow is complex": {1, 0},
		"payment flow":            {1, 0},
	}}

	recall := newSelector(t, p, nil)
	f1 := newSelector(t, p, func(c *Config) {
		c.Metric = scoring.MetricF1
		c.Policy = scoring.PolicyResearch
		c.Weights = scoring.RefinementWeights
	})

	rs, err := recall.Score(context.Background(), []string{"payment flow"}, "payment flow is complex")
	require.NoError(t, err)
	fs, err := f1.Score(context.Background(), []string{"payment flow"}, "payment flow is complex")
	require.NoError(t, err)

	assert.InDelta(t, 0.5, rs[0].LexicalScore, 1e-9)
	assert.InDelta(t, 2*1*0.5/1.5, fs[0].LexicalScore, 1e-9)
	assert.Equal(t, "A (Excellent)", fs[0].Grade)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative weight", mutate: func(c *Config) { c.Weights.Cosine = -1 }},
		{name: "unknown metric", mutate: func(c *Config) { c.Metric = "bleu" }},
		{name: "unknown policy", mutate: func(c *Config) { c.Policy = "lenient" }},
		{name: "negative parallelism", mutate: func(c *Config) { c.ParallelEmbeddings = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestSelectIndex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, SelectIndex(nil))
	assert.Equal(t, 1, SelectIndex([]CandidateScore{{OverallScore: 0.9}, {OverallScore: 0.5}, {OverallScore: 0.3}}))
	assert.Equal(t, 1, SelectIndex([]CandidateScore{{OverallScore: 0.7}, {OverallScore: 0.7}}))
	assert.Equal(t, 3, SelectIndex([]CandidateScore{{OverallScore: 0.1}, {OverallScore: 0.2}, {OverallScore: 0.3}}))
}
