package evaluation

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/logger"
	"github.com/spigell/interview-analyzer/internal/prompts"
)

// DefaultPosition is used when a request names no position.
const DefaultPosition = "Unknown"

// Request is the input of one analysis.
type Request struct {
	Transcripts []string
	Reference   string
	Position    string
	Question    string
}

// Recorder persists finished results. Failures are logged and never fail the
// evaluation.
type Recorder interface {
	Record(ctx context.Context, result *Result) error
}

// Service runs selection and the cross analysis for one provider.
type Service struct {
	provider ai.Provider
	selector *Selector
	recorder Recorder
	language string
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a Service. recorder may be nil.
func NewService(provider ai.Provider, cfg Config, recorder Recorder, log *zap.Logger) (*Service, error) {
	selector, err := NewSelector(provider, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Service{
		provider: provider,
		selector: selector,
		recorder: recorder,
		language: cfg.Language,
		logger:   logger.OrNop(log),
		now:      time.Now,
	}, nil
}

// Analyze selects the best candidate, requests the cross-analysis report and
// assembles the result.
func (s *Service) Analyze(ctx context.Context, req Request) (*Result, error) {
	id := uuid.New()
	position := strings.TrimSpace(req.Position)
	if position == "" {
		position = DefaultPosition
	}

	log := logger.WithFields(s.logger, logger.EvaluationFields(id.String(), position)...)
	log.Info("evaluation started",
		zap.Int("candidates", len(req.Transcripts)),
		zap.String(logger.FieldProvider, s.provider.Name()),
	)

	decision, err := s.selector.SelectBest(ctx, req.Transcripts, req.Reference)
	if err != nil {
		return nil, err
	}

	report, err := s.provider.Complete(ctx, prompts.CrossAnalysis(s.language, position, req.Reference, req.Transcripts))
	if err != nil {
		return nil, ai.NewProviderError(s.provider.Name(), "cross analysis", err)
	}

	winner := decision.Selected()
	result := &Result{
		ID:             id,
		Question:       strings.TrimSpace(req.Question),
		Report:         report,
		Score:          decision.MeanScore(),
		CosineScore:    winner.CosineScore,
		LexicalScore:   winner.LexicalScore,
		Grade:          winner.Grade,
		Recommendation: s.selector.Policy().Recommend(winner.OverallScore),
		Iterations:     []IterationRecord{},
		Transcripts:    req.Transcripts,
		Reference:      req.Reference,
		HireDecision:   decision,
		Provider:       s.provider.Name(),
		Position:       position,
		CreatedAt:      s.now().UTC(),
	}

	log.Info("evaluation finished",
		zap.Int("selected_candidate", decision.SelectedIndex),
		zap.Float64("score", result.Score),
		zap.String("grade", result.Grade),
	)

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, result); err != nil {
			log.Warn("failed to record evaluation result", zap.Error(err))
		}
	}

	return result, nil
}
