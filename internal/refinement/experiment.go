package refinement

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/scoring"
	"github.com/spigell/interview-analyzer/internal/utils"
)

const promptPreviewLength = 100

// Trial is one scored prompt variant. Version is 1-based.
type Trial struct {
	Version    int         `json:"version" yaml:"version"`
	Name       string      `json:"name" yaml:"name"`
	Prompt     string      `json:"prompt" yaml:"prompt"`
	Report     string      `json:"report" yaml:"report"`
	Assessment *Assessment `json:"evaluation" yaml:"evaluation"`
}

// Experiment holds every trial and the version of the best one.
type Experiment struct {
	Trials      []Trial `json:"trials" yaml:"trials"`
	BestVersion int     `json:"best_version" yaml:"best_version"`
}

// Best returns the highest scoring trial.
func (e *Experiment) Best() *Trial {
	if e == nil || e.BestVersion < 1 || e.BestVersion > len(e.Trials) {
		return nil
	}
	return &e.Trials[e.BestVersion-1]
}

// Compare generates one report per variant and assesses each against
// reference with weights. Ties keep the earlier version.
func Compare(ctx context.Context, generator ai.Generator, embedder ai.Embedder, variants []prompts.Variant,
	candidates []string, reference string, weights scoring.Weights, log *zap.Logger,
) (*Experiment, error) {
	if len(variants) == 0 {
		return nil, &ai.ValidationError{Field: "prompts", Message: "at least one prompt variant is required"}
	}
	if len(candidates) == 0 {
		return nil, &ai.ValidationError{Field: "transcripts", Message: "at least one transcript is required"}
	}
	if strings.TrimSpace(reference) == "" {
		return nil, &ai.ValidationError{Field: "reference", Message: "reference must not be empty"}
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if err := ai.CheckCredentials(generator); err != nil {
		return nil, err
	}

	log = logger.OrNop(log)

	refVec, err := embedder.Embed(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("embed reference: %w", err)
	}

	experiment := &Experiment{Trials: make([]Trial, 0, len(variants))}
	bestScore := -1.0

	for i, variant := range variants {
		prompt := prompts.RenderVariant(variant.Template, candidates)

		report, err := generator.Complete(ctx, prompt)
		if err != nil {
			return nil, fmt.Errorf("generate report (version %d): %w", i+1, err)
		}

		assessment, err := assessAgainst(ctx, embedder, report, reference, refVec, weights)
		if err != nil {
			return nil, fmt.Errorf("embed report (version %d): %w", i+1, err)
		}

		trial := Trial{
			Version:    i + 1,
			Name:       variant.Name,
			Prompt:     utils.TruncateForLog(strings.TrimSpace(variant.Template), promptPreviewLength),
			Report:     report,
			Assessment: assessment,
		}
		experiment.Trials = append(experiment.Trials, trial)

		if assessment.OverallScore > bestScore {
			bestScore = assessment.OverallScore
			experiment.BestVersion = trial.Version
		}

		log.Info("prompt variant scored",
			zap.Int("version", trial.Version),
			zap.Int("versions", len(variants)),
			zap.String("name", trial.Name),
			zap.Float64("overall_score", assessment.OverallScore),
			zap.String("grade", assessment.Grade),
		)
	}

	return experiment, nil
}
