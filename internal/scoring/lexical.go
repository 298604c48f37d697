package scoring

import (
	"fmt"
	"strings"
	"unicode"
)

// MetricName selects the lexical-overlap definition. The two metrics produce
// materially different scores for the same input and are never mixed within a
// single deployment.
type MetricName string

const (
	// MetricRecall is |candidate ∩ reference| / |reference|.
	MetricRecall MetricName = "recall"
	// MetricF1 is the harmonic mean of token-set precision and recall.
	MetricF1 MetricName = "f1"
)

// UnmarshalText validates the metric name when decoding configuration.
func (m *MetricName) UnmarshalText(text []byte) error {
	name := MetricName(strings.ToLower(strings.TrimSpace(string(text))))
	if name == "" {
		name = MetricRecall
	}
	if _, err := LexicalFunc(name); err != nil {
		return err
	}
	*m = name
	return nil
}

// LexicalFunc returns the scoring function for the named metric.
func LexicalFunc(name MetricName) (func(candidate, reference string) float64, error) {
	switch name {
	case MetricRecall, "":
		return Recall, nil
	case MetricF1:
		return func(candidate, reference string) float64 {
			return Overlap(candidate, reference).F1
		}, nil
	default:
		return nil, fmt.Errorf("unknown lexical metric %q (want %q or %q)", name, MetricRecall, MetricF1)
	}
}

// OverlapScores holds the token-set precision, recall and F1 of a candidate
// against a reference.
type OverlapScores struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// Tokens returns the case-folded word set of text. Any rune that is not a
// letter, mark, digit or underscore separates words.
func Tokens(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r) || r == '_')
	})

	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func intersectionSize(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}

// Recall is the recall-oriented overlap used by candidate selection: the share
// of distinct reference words that also appear in the candidate.
func Recall(candidate, reference string) float64 {
	cand := Tokens(candidate)
	ref := Tokens(reference)
	if len(cand) == 0 || len(ref) == 0 {
		return 0
	}
	return float64(intersectionSize(cand, ref)) / float64(len(ref))
}

// Overlap computes precision, recall and F1 over the word sets of candidate and reference.
func Overlap(candidate, reference string) OverlapScores {
	cand := Tokens(candidate)
	ref := Tokens(reference)
	if len(cand) == 0 || len(ref) == 0 {
		return OverlapScores{}
	}

	common := float64(intersectionSize(cand, ref))
	scores := OverlapScores{
		Precision: common / float64(len(cand)),
		Recall:    common / float64(len(ref)),
	}
	if sum := scores.Precision + scores.Recall; sum > 0 {
		scores.F1 = 2 * scores.Precision * scores.Recall / sum
	}
	return scores
}
