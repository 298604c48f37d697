package evaluation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/spigell/interview-analyzer/internal/ai"
)

// stubProvider returns fixed vectors per text and canned completions.
type stubProvider struct {
	mu          sync.Mutex
	vectors     map[string][]float32
	completions []string
	embedErr    error
	completeErr error
	credErr     error
	prompts     []string
	embedded    []string
}

func (s *stubProvider) Name() string { return "Stub (test-model)" }

func (s *stubProvider) CheckCredentials() error { return s.credErr }

func (s *stubProvider) Embed(_ context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embedded = append(s.embedded, text)
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	vec, ok := s.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return vec, nil
}

func (s *stubProvider) Complete(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	if s.completeErr != nil {
		return "", s.completeErr
	}
	if len(s.completions) == 0 {
		return "", errors.New("no completion queued")
	}
	out := s.completions[0]
	s.completions = s.completions[1:]
	return out, nil
}

// unitWithCosine returns a 2D unit vector whose cosine against [1, 0] is c.
func unitWithCosine(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c))}
}

var _ ai.Provider = (*stubProvider)(nil)
