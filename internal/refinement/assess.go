package refinement

import (
	"context"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/scoring"
)

// Assessment scores one generated report against the reference.
type Assessment struct {
	CosineScore    float64               `json:"cosine_similarity" yaml:"cosine_similarity"`
	Overlap        scoring.OverlapScores `json:"rouge" yaml:"rouge"`
	OverallScore   float64               `json:"overall_score" yaml:"overall_score"`
	Grade          string                `json:"grade" yaml:"grade"`
	Recommendation string                `json:"recommendation" yaml:"recommendation"`
}

// Assess embeds report and reference and blends cosine with the F1 overlap.
// The result is graded with the research policy.
func Assess(ctx context.Context, embedder ai.Embedder, report, reference string, weights scoring.Weights) (*Assessment, error) {
	refVec, err := embedder.Embed(ctx, reference)
	if err != nil {
		return nil, err
	}
	return assessAgainst(ctx, embedder, report, reference, refVec, weights)
}

func assessAgainst(ctx context.Context, embedder ai.Embedder, report, reference string, refVec []float32, weights scoring.Weights) (*Assessment, error) {
	vec, err := embedder.Embed(ctx, report)
	if err != nil {
		return nil, err
	}

	cosine := scoring.Cosine(vec, refVec)
	overlap := scoring.Overlap(report, reference)
	overall := scoring.Blend(cosine, overlap.F1, weights)

	return &Assessment{
		CosineScore:    cosine,
		Overlap:        overlap,
		OverallScore:   overall,
		Grade:          scoring.Research.Grade(overall),
		Recommendation: scoring.Research.Recommend(overall),
	}, nil
}
