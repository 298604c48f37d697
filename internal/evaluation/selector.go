package evaluation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/scoring"
)

// Config controls scoring of candidates.
type Config struct {
	Weights scoring.Weights    `mapstructure:"weights"`
	Metric  scoring.MetricName `mapstructure:"lexical-metric"`
	Policy  scoring.PolicyName `mapstructure:"policy"`
	// ParallelEmbeddings bounds concurrent candidate embedding calls; values
	// below 2 embed sequentially.
	ParallelEmbeddings int    `mapstructure:"parallel-embeddings"`
	Language           string `mapstructure:"language"`
}

// DefaultConfig returns the serving defaults: equal weights, recall overlap
// and the standard grading policy.
func DefaultConfig() Config {
	return Config{
		Weights:  scoring.EqualWeights,
		Metric:   scoring.MetricRecall,
		Policy:   scoring.PolicyStandard,
		Language: prompts.DefaultLanguage,
	}
}

// Validate checks weights, metric and policy names.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if _, err := scoring.LexicalFunc(c.Metric); err != nil {
		return err
	}
	if _, err := scoring.PolicyByName(c.Policy); err != nil {
		return err
	}
	if c.ParallelEmbeddings < 0 {
		return fmt.Errorf("parallel-embeddings must not be negative")
	}
	return nil
}

// Selector scores candidates against a reference and picks the best one.
type Selector struct {
	provider ai.Provider
	weights  scoring.Weights
	lexical  func(candidate, reference string) float64
	policy   scoring.Policy
	parallel int
	language string
	logger   *zap.Logger
}

// NewSelector validates cfg and binds it to provider.
func NewSelector(provider ai.Provider, cfg Config, log *zap.Logger) (*Selector, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lexical, _ := scoring.LexicalFunc(cfg.Metric)
	policy, _ := scoring.PolicyByName(cfg.Policy)

	return &Selector{
		provider: provider,
		weights:  cfg.Weights,
		lexical:  lexical,
		policy:   policy,
		parallel: cfg.ParallelEmbeddings,
		language: cfg.Language,
		logger:   logger.WithCommonFields(log, provider.Name(), ""),
	}, nil
}

// Policy returns the grading policy in use.
func (s *Selector) Policy() scoring.Policy {
	return s.policy
}

// SelectBest scores every candidate, selects the first maximal overall score
// and asks the provider to justify the choice. No partial decision is
// returned on failure.
func (s *Selector) SelectBest(ctx context.Context, candidates []string, reference string) (*HireDecision, error) {
	scores, err := s.Score(ctx, candidates, reference)
	if err != nil {
		return nil, err
	}

	selected := SelectIndex(scores)
	s.logger.Info("candidate selected",
		zap.Int("selected_candidate", selected),
		zap.Float64("overall_score", scores[selected-1].OverallScore),
		zap.Int("candidates", len(scores)),
	)

	justification, err := s.provider.Complete(ctx, prompts.Justification(s.language, reference, candidates, selected))
	if err != nil {
		return nil, ai.NewProviderError(s.provider.Name(), "justify selection", err)
	}

	return &HireDecision{
		SelectedIndex: selected,
		Scores:        scores,
		Justification: justification,
	}, nil
}

// Score returns one CandidateScore per candidate in input order.
func (s *Selector) Score(ctx context.Context, candidates []string, reference string) ([]CandidateScore, error) {
	if err := validateInput(candidates, reference); err != nil {
		return nil, err
	}
	if err := ai.CheckCredentials(s.provider); err != nil {
		return nil, err
	}

	refVec, err := s.provider.Embed(ctx, reference)
	if err != nil {
		return nil, ai.NewProviderError(s.provider.Name(), "embed reference", err)
	}

	vectors, err := s.embedAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	scores := make([]CandidateScore, len(candidates))
	for i, candidate := range candidates {
		cosine := scoring.Cosine(vectors[i], refVec)
		lexical := s.lexical(candidate, reference)
		overall := scoring.Blend(cosine, lexical, s.weights)

		scores[i] = CandidateScore{
			Position:     i + 1,
			CosineScore:  cosine,
			LexicalScore: lexical,
			OverallScore: overall,
			Grade:        s.policy.Grade(overall),
		}

		s.logger.Debug("candidate scored",
			zap.Int("candidate", i+1),
			zap.Float64("cosine_score", cosine),
			zap.Float64("lexical_score", lexical),
			zap.Float64("overall_score", overall),
		)
	}

	return scores, nil
}

func (s *Selector) embedAll(ctx context.Context, candidates []string) ([][]float32, error) {
	vectors := make([][]float32, len(candidates))

	if s.parallel < 2 || len(candidates) < 2 {
		for i, candidate := range candidates {
			vec, err := s.provider.Embed(ctx, candidate)
			if err != nil {
				return nil, ai.NewProviderError(s.provider.Name(), fmt.Sprintf("embed candidate %d", i+1), err)
			}
			vectors[i] = vec
		}
		return vectors, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, candidate := range candidates {
		g.Go(func() error {
			vec, err := s.provider.Embed(gCtx, candidate)
			if err != nil {
				return ai.NewProviderError(s.provider.Name(), fmt.Sprintf("embed candidate %d", i+1), err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return vectors, nil
}

func validateInput(candidates []string, reference string) error {
	if len(candidates) == 0 {
		return &ai.ValidationError{Field: "transcripts", Message: "at least one candidate is required"}
	}
	if strings.TrimSpace(reference) == "" {
		return &ai.ValidationError{Field: "reference", Message: "reference must not be empty"}
	}
	return nil
}

// SelectIndex returns the 1-based position of the first maximal overall score,
// or 0 for an empty slice.
func SelectIndex(scores []CandidateScore) int {
	if len(scores) == 0 {
		return 0
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].OverallScore > scores[best].OverallScore {
			best = i
		}
	}
	return best + 1
}
