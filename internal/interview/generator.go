// Package interview generates a technical interview question, candidate
// answers of decreasing quality and a reference answer for a job position.
package interview

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
)

const (
	DefaultPosition   = "Frontend Developer"
	DefaultCandidates = 3
	MinCandidates     = 1
	MaxCandidates     = 10
)

// Generated is one generated interview.
type Generated struct {
	Question    string   `json:"question" yaml:"question"`
	Transcripts []string `json:"transcripts" yaml:"transcripts"`
	Reference   string   `json:"reference" yaml:"reference"`
}

// FormatError reports a section missing from the generated text.
type FormatError struct {
	Section string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("generated text has no %s section", e.Section)
}

// Generator asks a provider for interview content.
type Generator struct {
	generator ai.Generator
	language  string
	logger    *zap.Logger
}

// NewGenerator creates a Generator writing content in language.
func NewGenerator(generator ai.Generator, language string, log *zap.Logger) *Generator {
	return &Generator{generator: generator, language: language, logger: logger.OrNop(log)}
}

// ClampCandidates limits n to [MinCandidates, MaxCandidates]; zero selects
// DefaultCandidates.
func ClampCandidates(n int) int {
	switch {
	case n == 0:
		return DefaultCandidates
	case n < MinCandidates:
		return MinCandidates
	case n > MaxCandidates:
		return MaxCandidates
	default:
		return n
	}
}

// Generate requests the content in a single call. Missing sections are
// replaced with placeholders; only provider failures are returned.
func (g *Generator) Generate(ctx context.Context, position string, candidates int) (*Generated, error) {
	position = strings.TrimSpace(position)
	if position == "" {
		position = DefaultPosition
	}
	candidates = ClampCandidates(candidates)

	if err := ai.CheckCredentials(g.generator); err != nil {
		return nil, err
	}

	raw, err := g.generator.Complete(ctx, prompts.Generation(g.language, position, candidates))
	if err != nil {
		return nil, ai.NewProviderError("", "generate interview", err)
	}

	sections := Parse(raw, candidates)
	out := &Generated{Transcripts: make([]string, candidates)}

	var missing []error
	out.Question, missing = pick(sections.Question, prompts.QuestionTag, QuestionPlaceholder(position), missing)
	for i := range out.Transcripts {
		out.Transcripts[i], missing = pick(sections.Candidates[i], prompts.CandidateTag(i+1), CandidatePlaceholder(position, i+1), missing)
	}
	out.Reference, missing = pick(sections.Reference, prompts.ReferenceTag, ReferencePlaceholder(position), missing)

	for _, err := range missing {
		g.logger.Warn("generated interview is incomplete, using placeholder",
			zap.String(logger.FieldPosition, position),
			zap.Error(err),
		)
	}

	return out, nil
}

func pick(value, tag, placeholder string, missing []error) (string, []error) {
	if value != "" {
		return value, missing
	}
	return placeholder, append(missing, &FormatError{Section: tag})
}

// QuestionPlaceholder substitutes a missing question.
func QuestionPlaceholder(position string) string {
	return position + " advanced technical interview question."
}

// CandidatePlaceholder substitutes a missing answer of candidate n.
func CandidatePlaceholder(position string, n int) string {
	return fmt.Sprintf("%s candidate %d answer is being generated...", position, n)
}

// ReferencePlaceholder substitutes a missing reference answer.
func ReferencePlaceholder(position string) string {
	return position + " reference answer is being generated..."
}
