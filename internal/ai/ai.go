// Package ai defines the collaborator contracts consumed by the scoring engine:
// text generation, text embedding and the provider abstraction combining both.
package ai

import "context"

// Generator produces free text from a prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TemperatureGenerator is implemented by generators that accept a sampling temperature.
type TemperatureGenerator interface {
	Generator
	CompleteWithTemperature(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Embedder produces a fixed-length vector from text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider is a single interchangeable AI backend.
type Provider interface {
	Generator
	Embedder
	// Name returns a human readable provider and model description.
	Name() string
}

// CredentialChecker is implemented by providers that can report missing
// credentials before any external call is made.
type CredentialChecker interface {
	CheckCredentials() error
}

// CheckCredentials runs the provider credential check when supported.
func CheckCredentials(p any) error {
	if checker, ok := p.(CredentialChecker); ok {
		return checker.CheckCredentials()
	}
	return nil
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f GeneratorFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

// Embed calls f.
func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}
