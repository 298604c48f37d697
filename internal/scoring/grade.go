package scoring

import (
	"fmt"
	"math"
	"strings"
)

// PolicyName identifies a grading threshold table.
type PolicyName string

const (
	// PolicyStandard grades with 0.9/0.8/0.7 cut-offs and plain letters.
	PolicyStandard PolicyName = "standard"
	// PolicyResearch grades with 0.85/0.75/0.65 cut-offs and descriptive labels.
	PolicyResearch PolicyName = "research"
)

// UnmarshalText validates the policy name when decoding configuration.
func (p *PolicyName) UnmarshalText(text []byte) error {
	name := PolicyName(strings.ToLower(strings.TrimSpace(string(text))))
	if name == "" {
		name = PolicyStandard
	}
	if _, err := PolicyByName(name); err != nil {
		return err
	}
	*p = name
	return nil
}

// Band is one step of a grading policy. Min is inclusive.
type Band struct {
	Min            float64
	Label          string
	Recommendation string
}

// Policy maps a score to an ordinal grade. Bands are ordered from the highest
// Min down; Floor catches everything below the last band.
type Policy struct {
	Name  PolicyName
	Bands []Band
	Floor Band
}

var (
	// Standard is the serving-side policy.
	Standard = Policy{
		Name: PolicyStandard,
		Bands: []Band{
			{Min: 0.9, Label: "A", Recommendation: "Strong hire"},
			{Min: 0.8, Label: "B", Recommendation: "Hire"},
			{Min: 0.7, Label: "C", Recommendation: "Lean hire"},
		},
		Floor: Band{Label: "D", Recommendation: "No hire"},
	}

	// Research is the refinement-loop policy.
	Research = Policy{
		Name: PolicyResearch,
		Bands: []Band{
			{Min: 0.85, Label: "A (Excellent)", Recommendation: "Production ready"},
			{Min: 0.75, Label: "B (Good)", Recommendation: "Minor prompt adjustment recommended"},
			{Min: 0.65, Label: "C (Average)", Recommendation: "Prompt improvement needed"},
		},
		Floor: Band{Label: "D (Poor)", Recommendation: "Pipeline redesign required"},
	}
)

// PolicyByName returns the named policy.
func PolicyByName(name PolicyName) (Policy, error) {
	switch name {
	case PolicyStandard, "":
		return Standard, nil
	case PolicyResearch:
		return Research, nil
	default:
		return Policy{}, fmt.Errorf("unknown grading policy %q (want %q or %q)", name, PolicyStandard, PolicyResearch)
	}
}

func (p Policy) band(score float64) Band {
	if math.IsNaN(score) {
		return p.Floor
	}
	for _, b := range p.Bands {
		if score >= b.Min {
			return b
		}
	}
	return p.Floor
}

// Grade returns the label for score.
func (p Policy) Grade(score float64) string {
	return p.band(score).Label
}

// Recommend returns the recommendation attached to the grade of score.
func (p Policy) Recommend(score float64) string {
	return p.band(score).Recommendation
}
