package ai

import (
	"context"

	"go.uber.org/zap"
)

// DefaultFallbackDimension matches text-embedding-3-small.
const DefaultFallbackDimension = 1536

// FallbackEmbedder delegates to Primary when it is available and otherwise
// returns an all-zero vector of Dimension. A zero vector yields cosine 0 for
// every comparison, so callers that enable this fallback silently lose the
// semantic signal; the fallback branch is logged on every use.
type FallbackEmbedder struct {
	Primary   Embedder
	Available bool
	Dimension int
	Logger    *zap.Logger
}

// Embed implements Embedder.
func (f *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.Available && f.Primary != nil {
		return f.Primary.Embed(ctx, text)
	}

	dim := f.Dimension
	if dim <= 0 {
		dim = DefaultFallbackDimension
	}
	if f.Logger != nil {
		f.Logger.Warn("embedding credentials are not configured; using zero vector",
			zap.Int("dimension", dim),
		)
	}
	return make([]float32, dim), nil
}
