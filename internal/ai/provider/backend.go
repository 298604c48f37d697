package provider

import (
	"context"
	"time"

	"github.com/spigell/interview-analyzer/internal/ai"
)

// Backend is one configured provider. Generation requires the provider's own
// credential; embeddings follow the chain configured for the provider and end
// in an explicit zero-vector fallback where one is allowed.
type Backend struct {
	id    string
	name  string
	model string

	generator ai.Generator
	available bool
	envKey    string

	embedder  ai.Embedder
	namespace string

	timeout time.Duration
}

// ID returns the registry key.
func (b *Backend) ID() string { return b.id }

// Name returns the display name, e.g. "OpenAI (gpt-4o-mini)".
func (b *Backend) Name() string { return b.name }

// Model returns the chat model.
func (b *Backend) Model() string { return b.model }

// CheckCredentials implements ai.CredentialChecker.
func (b *Backend) CheckCredentials() error {
	if !b.available || b.generator == nil {
		return ai.MissingCredentials(b.id, b.envKey)
	}
	return nil
}

// Complete implements ai.Generator.
func (b *Backend) Complete(ctx context.Context, prompt string) (string, error) {
	if err := b.CheckCredentials(); err != nil {
		return "", err
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	out, err := b.generator.Complete(ctx, prompt)
	if err != nil {
		return "", ai.NewProviderError(b.id, "complete", err)
	}
	return out, nil
}

// CompleteWithTemperature implements ai.TemperatureGenerator. Generators
// without temperature support ignore it.
func (b *Backend) CompleteWithTemperature(ctx context.Context, prompt string, temperature float32) (string, error) {
	tg, ok := b.generator.(ai.TemperatureGenerator)
	if !ok {
		return b.Complete(ctx, prompt)
	}
	if err := b.CheckCredentials(); err != nil {
		return "", err
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	out, err := tg.CompleteWithTemperature(ctx, prompt, temperature)
	if err != nil {
		return "", ai.NewProviderError(b.id, "complete", err)
	}
	return out, nil
}

// Embed implements ai.Embedder.
func (b *Backend) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	vec, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil, ai.NewProviderError(b.id, "embed", err)
	}
	return vec, nil
}

// WrapEmbedder replaces the embedding chain, e.g. to add a cache.
func (b *Backend) WrapEmbedder(wrap func(namespace string, next ai.Embedder) ai.Embedder) {
	if wrap == nil {
		return
	}
	b.embedder = wrap(b.namespace, b.embedder)
}

func (b *Backend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}
