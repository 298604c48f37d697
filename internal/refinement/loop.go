// Package refinement drives the generate, score and refine loop used to tune
// cross-interview analysis prompts against an expert reference.
package refinement

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/evaluation"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/scoring"
)

const (
	DefaultMaxIterations = 3
	DefaultTargetScore   = 0.85

	baseTemperature = 0.7
	temperatureStep = 0.1
)

// Config bounds the loop.
type Config struct {
	MaxIterations int     `mapstructure:"max-iterations"`
	TargetScore   float64 `mapstructure:"target-score"`
	TopKeywords   int     `mapstructure:"top-keywords"`
}

// DefaultConfig returns three iterations with a 0.85 target.
func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		TargetScore:   DefaultTargetScore,
		TopKeywords:   DefaultTopKeywords,
	}
}

// Validate rejects an empty iteration budget and targets outside (0, 1].
func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return &ai.ValidationError{Field: "max-iterations", Message: fmt.Sprintf("must be at least 1, got %d", c.MaxIterations)}
	}
	if c.TargetScore <= 0 || c.TargetScore > 1 {
		return &ai.ValidationError{Field: "target-score", Message: fmt.Sprintf("must be in (0, 1], got %v", c.TargetScore)}
	}
	return nil
}

// Result is the outcome of one loop run.
type Result struct {
	BestReport     string                       `json:"final_report" yaml:"final_report"`
	BestScore      float64                      `json:"final_score" yaml:"final_score"`
	Grade          string                       `json:"grade" yaml:"grade"`
	Recommendation string                       `json:"recommendation" yaml:"recommendation"`
	History        []evaluation.IterationRecord `json:"iterations" yaml:"iterations"`
}

// Improvement is the gain of the best score over the first iteration.
func (r *Result) Improvement() float64 {
	if r == nil || len(r.History) == 0 {
		return 0
	}
	return r.BestScore - r.History[0].OverallScore
}

// Loop regenerates the analysis report until it scores at least TargetScore
// or MaxIterations passes have run.
type Loop struct {
	generator ai.Generator
	embedder  ai.Embedder
	cfg       Config
	extractor KeywordExtractor
	logger    *zap.Logger

	// OnIteration is called after every scored iteration.
	OnIteration func(evaluation.IterationRecord)
}

// New validates cfg and creates a loop with the frequency keyword extractor.
func New(generator ai.Generator, embedder ai.Embedder, cfg Config, log *zap.Logger) (*Loop, error) {
	if generator == nil || embedder == nil {
		return nil, fmt.Errorf("generator and embedder are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Loop{
		generator: generator,
		embedder:  embedder,
		cfg:       cfg,
		extractor: FrequencyExtractor{TopN: cfg.TopKeywords},
		logger:    logger.OrNop(log),
	}, nil
}

// SetExtractor replaces the keyword extractor.
func (l *Loop) SetExtractor(e KeywordExtractor) {
	if e != nil {
		l.extractor = e
	}
}

// Temperature returns the sampling temperature of iteration (0-based).
func Temperature(iteration int) float32 {
	t := baseTemperature - temperatureStep*float64(iteration)
	if t < 0 {
		return 0
	}
	return float32(t)
}

// Run executes the loop over candidates against reference.
func (l *Loop) Run(ctx context.Context, candidates []string, reference string) (*Result, error) {
	if len(candidates) == 0 {
		return nil, &ai.ValidationError{Field: "transcripts", Message: "at least one transcript is required"}
	}
	if strings.TrimSpace(reference) == "" {
		return nil, &ai.ValidationError{Field: "reference", Message: "reference must not be empty"}
	}
	if err := ai.CheckCredentials(l.generator); err != nil {
		return nil, err
	}

	refVec, err := l.embedder.Embed(ctx, reference)
	if err != nil {
		return nil, ai.NewProviderError(l.providerName(), "embed reference", err)
	}

	var (
		bestScore  float64
		bestReport string
		history    []evaluation.IterationRecord
	)

	for iteration := 0; iteration < l.cfg.MaxIterations; iteration++ {
		hint := ""
		if iteration > 0 {
			hint = prompts.RefinementHint(history[len(history)-1].OverallScore, l.extractor.Keywords(reference))
		}

		report, err := l.generate(ctx, prompts.Refinement(candidates, hint), iteration)
		if err != nil {
			return nil, ai.NewProviderError(l.providerName(), fmt.Sprintf("generate report (iteration %d)", iteration+1), err)
		}

		assessment, err := assessAgainst(ctx, l.embedder, report, reference, refVec, scoring.RefinementWeights)
		if err != nil {
			return nil, ai.NewProviderError(l.providerName(), fmt.Sprintf("embed report (iteration %d)", iteration+1), err)
		}

		record := evaluation.IterationRecord{
			Iteration:    iteration + 1,
			Report:       report,
			CosineScore:  assessment.CosineScore,
			LexicalScore: assessment.Overlap.F1,
			OverallScore: assessment.OverallScore,
		}
		history = append(history, record)

		improved := record.OverallScore > bestScore
		if improved {
			bestScore = record.OverallScore
			bestReport = report
		}

		l.logger.Info("refinement iteration scored",
			zap.Int("iteration", record.Iteration),
			zap.Int("max_iterations", l.cfg.MaxIterations),
			zap.Float64("cosine_score", record.CosineScore),
			zap.Float64("lexical_score", record.LexicalScore),
			zap.Float64("overall_score", record.OverallScore),
			zap.Bool("new_best", improved),
		)

		if l.OnIteration != nil {
			l.OnIteration(record)
		}

		if record.OverallScore >= l.cfg.TargetScore {
			l.logger.Info("target score reached, stopping",
				zap.Float64("target_score", l.cfg.TargetScore),
				zap.Int("iteration", record.Iteration),
			)
			break
		}
	}

	return &Result{
		BestReport:     bestReport,
		BestScore:      bestScore,
		Grade:          scoring.Research.Grade(bestScore),
		Recommendation: scoring.Research.Recommend(bestScore),
		History:        history,
	}, nil
}

func (l *Loop) generate(ctx context.Context, prompt string, iteration int) (string, error) {
	if tg, ok := l.generator.(ai.TemperatureGenerator); ok {
		return tg.CompleteWithTemperature(ctx, prompt, Temperature(iteration))
	}
	return l.generator.Complete(ctx, prompt)
}

func (l *Loop) providerName() string {
	if named, ok := l.generator.(interface{ Name() string }); ok {
		return named.Name()
	}
	return ""
}
