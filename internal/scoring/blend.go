package scoring

import "fmt"

// Weights controls how cosine and lexical scores are combined.
type Weights struct {
	Cosine  float64 `mapstructure:"cosine" json:"cosine" yaml:"cosine"`
	Lexical float64 `mapstructure:"lexical" json:"lexical" yaml:"lexical"`
}

var (
	// EqualWeights is the unweighted mean used when serving requests.
	EqualWeights = Weights{Cosine: 0.5, Lexical: 0.5}
	// RefinementWeights is fixed for the refinement loop.
	RefinementWeights = Weights{Cosine: 0.7, Lexical: 0.3}
	// ComprehensiveWeights favours lexical agreement slightly more than RefinementWeights.
	ComprehensiveWeights = Weights{Cosine: 0.6, Lexical: 0.4}
)

// Validate rejects negative weights and an all-zero pair.
func (w Weights) Validate() error {
	if w.Cosine < 0 || w.Lexical < 0 {
		return fmt.Errorf("weights must not be negative: cosine=%v lexical=%v", w.Cosine, w.Lexical)
	}
	if w.Cosine+w.Lexical <= 0 {
		return fmt.Errorf("at least one weight must be positive")
	}
	return nil
}

// Blend returns the weighted sum of the cosine and lexical scores.
func Blend(cosine, lexical float64, w Weights) float64 {
	return cosine*w.Cosine + lexical*w.Lexical
}
