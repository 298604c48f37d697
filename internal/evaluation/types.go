// Package evaluation scores candidate answers against a reference answer,
// selects the best candidate and assembles the evaluation report.
package evaluation

import (
	"time"

	"github.com/google/uuid"
)

// CandidateScore is the score of one candidate in one evaluation.
type CandidateScore struct {
	Position     int     `json:"candidate_number" yaml:"candidate_number"`
	CosineScore  float64 `json:"cosine_score" yaml:"cosine_score"`
	LexicalScore float64 `json:"rouge_score" yaml:"rouge_score"`
	OverallScore float64 `json:"overall_score" yaml:"overall_score"`
	Grade        string  `json:"grade" yaml:"grade"`
}

// HireDecision names the best candidate. SelectedIndex is 1-based and points
// at the first maximal OverallScore in Scores.
type HireDecision struct {
	SelectedIndex int              `json:"selected_candidate" yaml:"selected_candidate"`
	Scores        []CandidateScore `json:"scores" yaml:"scores"`
	Justification string           `json:"reason" yaml:"reason"`
}

// Selected returns the score of the selected candidate.
func (d *HireDecision) Selected() CandidateScore {
	if d == nil || d.SelectedIndex < 1 || d.SelectedIndex > len(d.Scores) {
		return CandidateScore{}
	}
	return d.Scores[d.SelectedIndex-1]
}

// MeanScore is the mean OverallScore across all candidates.
func (d *HireDecision) MeanScore() float64 {
	if d == nil || len(d.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, s := range d.Scores {
		sum += s.OverallScore
	}
	return sum / float64(len(d.Scores))
}

// IterationRecord is one pass of the refinement loop.
type IterationRecord struct {
	Iteration    int     `json:"iteration" yaml:"iteration"`
	Report       string  `json:"report" yaml:"report"`
	CosineScore  float64 `json:"cosine_score" yaml:"cosine_score"`
	LexicalScore float64 `json:"rouge_score" yaml:"rouge_score"`
	OverallScore float64 `json:"score" yaml:"score"`
}

// Result is the outcome of one evaluation call.
type Result struct {
	ID             uuid.UUID         `json:"id" yaml:"id"`
	Question       string            `json:"question,omitempty" yaml:"question,omitempty"`
	Report         string            `json:"report" yaml:"report"`
	Score          float64           `json:"score" yaml:"score"`
	CosineScore    float64           `json:"cosine_score" yaml:"cosine_score"`
	LexicalScore   float64           `json:"rouge_score" yaml:"rouge_score"`
	Grade          string            `json:"grade" yaml:"grade"`
	Recommendation string            `json:"recommendation" yaml:"recommendation"`
	Iterations     []IterationRecord `json:"iterations" yaml:"iterations"`
	Transcripts    []string          `json:"transcripts" yaml:"transcripts"`
	Reference      string            `json:"reference" yaml:"reference"`
	HireDecision   *HireDecision     `json:"hire_decision" yaml:"hire_decision"`
	Provider       string            `json:"ai_provider" yaml:"ai_provider"`
	Position       string            `json:"position" yaml:"position"`
	CreatedAt      time.Time         `json:"created_at" yaml:"created_at"`
}
