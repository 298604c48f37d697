package scoring

import (
	"math"
	"testing"
)

func TestStandardPolicyGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  string
	}{
		{1.0, "A"},
		{0.9, "A"},
		{0.8999, "B"},
		{0.8, "B"},
		{0.7, "C"},
		{0.6999, "D"},
		{0.3, "D"},
		{0, "D"},
		{-0.5, "D"},
		{math.NaN(), "D"},
	}

	for _, tt := range tests {
		if got := Standard.Grade(tt.score); got != tt.want {
			t.Fatalf("score %v: expected %q, got %q", tt.score, tt.want, got)
		}
	}
}

func TestResearchPolicyGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score float64
		want  string
	}{
		{0.85, "A (Excellent)"},
		{0.8499, "B (Good)"},
		{0.75, "B (Good)"},
		{0.65, "C (Average)"},
		{0.64, "D (Poor)"},
	}

	for _, tt := range tests {
		if got := Research.Grade(tt.score); got != tt.want {
			t.Fatalf("score %v: expected %q, got %q", tt.score, tt.want, got)
		}
	}

	if got := Research.Recommend(0.9); got != "Production ready" {
		t.Fatalf("unexpected recommendation: %q", got)
	}
	if got := Research.Recommend(0.1); got != "Pipeline redesign required" {
		t.Fatalf("unexpected recommendation: %q", got)
	}
}

func TestPoliciesAreMonotonicAndTotal(t *testing.T) {
	t.Parallel()

	for _, policy := range []Policy{Standard, Research} {
		rank := make(map[string]int)
		rank[policy.Floor.Label] = 0
		for i, b := range policy.Bands {
			rank[b.Label] = len(policy.Bands) - i
		}

		prev := -1
		for i := 0; i <= 1000; i++ {
			score := float64(i) / 1000
			label := policy.Grade(score)
			r, ok := rank[label]
			if !ok {
				t.Fatalf("%s: unknown label %q for %v", policy.Name, label, score)
			}
			if r < prev {
				t.Fatalf("%s: grade decreased at %v", policy.Name, score)
			}
			prev = r
		}
	}
}

func TestPolicyByName(t *testing.T) {
	t.Parallel()

	p, err := PolicyByName(PolicyResearch)
	if err != nil || p.Name != PolicyResearch {
		t.Fatalf("unexpected policy %q (%v)", p.Name, err)
	}
	p, err = PolicyByName("")
	if err != nil || p.Name != PolicyStandard {
		t.Fatalf("expected default standard policy, got %q (%v)", p.Name, err)
	}
	if _, err := PolicyByName("curve"); err == nil {
		t.Fatal("expected error for unknown policy")
	}

	var name PolicyName
	if err := name.UnmarshalText([]byte("Research")); err != nil || name != PolicyResearch {
		t.Fatalf("expected research, got %q (%v)", name, err)
	}
}

func TestBlend(t *testing.T) {
	t.Parallel()

	if got := Blend(0.8, 0.4, EqualWeights); math.Abs(got-0.6) > 1e-12 {
		t.Fatalf("expected 0.6, got %v", got)
	}
	if got := Blend(1, 0, RefinementWeights); math.Abs(got-0.7) > 1e-12 {
		t.Fatalf("expected 0.7, got %v", got)
	}
	if err := (Weights{Cosine: -1, Lexical: 2}).Validate(); err == nil {
		t.Fatal("expected negative weight to be rejected")
	}
	if err := (Weights{}).Validate(); err == nil {
		t.Fatal("expected zero weights to be rejected")
	}
	if err := ComprehensiveWeights.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
