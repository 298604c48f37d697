package refinement

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/interview-analyzer/internal/ai"
	"github.com/spigell/interview-analyzer/internal/prompts"
	"github.com/spigell/interview-analyzer/internal/scoring"
)

func TestCompareSelectsBestVariant(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{reports: []string{"draft one", "draft two", "draft three"}}
	emb := cosineEmbedder{"draft one": 0.2, "draft two": 0.5, "draft three": 0.4}
	variants := []prompts.Variant{
		{Name: "short", Template: "Summarize:\n{{CANDIDATES}}"},
		{Name: "trends", Template: "List the trends in:\n{{CANDIDATES}}"},
		{Name: "plain", Template: strings.Repeat("x", 150)},
	}

	exp, err := Compare(context.Background(), gen, emb, variants, []string{"payment is complex"}, reference, scoring.ComprehensiveWeights, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(exp.Trials) != 3 {
		t.Fatalf("expected 3 trials, got %d", len(exp.Trials))
	}
	if exp.BestVersion != 2 || exp.Best().Name != "trends" {
		t.Fatalf("expected version 2 to win, got %d", exp.BestVersion)
	}
	if math.Abs(exp.Trials[0].Assessment.OverallScore-0.12) > 1e-6 {
		t.Fatalf("expected 0.6*0.2, got %v", exp.Trials[0].Assessment.OverallScore)
	}
	if exp.Best().Assessment.Grade != "D (Poor)" {
		t.Fatalf("unexpected grade %q", exp.Best().Assessment.Grade)
	}

	if !strings.Contains(gen.prompts[1], "List the trends in:\nInterview 1: payment is complex") {
		t.Fatalf("variant template not rendered:\n%s", gen.prompts[1])
	}
	if !strings.HasSuffix(gen.prompts[2], "Interview 1: payment is complex") {
		t.Fatalf("interviews must be appended to templates without a placeholder:\n%s", gen.prompts[2])
	}
	if got := exp.Trials[2].Prompt; len([]rune(got)) != 103 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected a 100 rune prompt preview, got %q", got)
	}
}

func TestCompareKeepsFirstOnTie(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{reports: []string{"same"}}
	emb := cosineEmbedder{"same": 0.3}

	exp, err := Compare(context.Background(), gen, emb, prompts.DefaultVariants(), []string{"a"}, reference, scoring.ComprehensiveWeights, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exp.BestVersion != 1 {
		t.Fatalf("expected the first version on a tie, got %d", exp.BestVersion)
	}
}

func TestCompareErrors(t *testing.T) {
	t.Parallel()

	variants := prompts.DefaultVariants()
	emb := cosineEmbedder{"draft": 0.5}

	tests := []struct {
		name       string
		gen        *scriptedGenerator
		variants   []prompts.Variant
		candidates []string
		reference  string
		validation bool
	}{
		{name: "no variants", gen: &scriptedGenerator{reports: []string{"draft"}}, candidates: []string{"a"}, reference: reference, validation: true},
		{name: "no transcripts", gen: &scriptedGenerator{reports: []string{"draft"}}, variants: variants, reference: reference, validation: true},
		{name: "blank reference", gen: &scriptedGenerator{reports: []string{"draft"}}, variants: variants, candidates: []string{"a"}, reference: " ", validation: true},
		{name: "generator failure", gen: &scriptedGenerator{err: errors.New("boom")}, variants: variants, candidates: []string{"a"}, reference: reference},
		{name: "unknown report", gen: &scriptedGenerator{reports: []string{"other"}}, variants: variants, candidates: []string{"a"}, reference: reference},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Compare(context.Background(), tt.gen, emb, tt.variants, tt.candidates, tt.reference, scoring.ComprehensiveWeights, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			var validation *ai.ValidationError
			if errors.As(err, &validation) != tt.validation {
				t.Fatalf("unexpected error type: %v", err)
			}
		})
	}
}
