package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewProviderErrorWrapsOnce(t *testing.T) {
	base := errors.New("quota exceeded")
	err := NewProviderError("openai", "embed", base)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected wrapped error to be reachable")
	}
	if got := err.Error(); got != "openai embed: quota exceeded" {
		t.Fatalf("unexpected message: %q", got)
	}

	again := NewProviderError("gemini", "complete", fmt.Errorf("outer: %w", err))
	if !errors.As(again, &perr) || perr.Provider != "openai" {
		t.Fatalf("expected original provider error to be kept, got %v", again)
	}
}

func TestNewProviderErrorKeepsValidationErrors(t *testing.T) {
	verr := MissingCredentials("friendli", "FRIENDLI_API_KEY")
	err := NewProviderError("friendli", "complete", verr)
	if IsProviderError(err) {
		t.Fatal("validation error must not be reclassified as provider error")
	}
	if !IsValidationError(err) {
		t.Fatal("expected validation error")
	}
	if NewProviderError("x", "y", nil) != nil {
		t.Fatal("expected nil for nil error")
	}
}

func TestProviderErrorTimeout(t *testing.T) {
	err := &ProviderError{Provider: "gemini", Op: "complete", Err: fmt.Errorf("call: %w", context.DeadlineExceeded)}
	if !err.Timeout() {
		t.Fatal("expected timeout to be detected")
	}
}

func TestFallbackEmbedder(t *testing.T) {
	calls := 0
	primary := EmbedderFunc(func(context.Context, string) ([]float32, error) {
		calls++
		return []float32{1, 2}, nil
	})

	unavailable := &FallbackEmbedder{Primary: primary, Dimension: 4}
	vec, err := unavailable.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 4 || calls != 0 {
		t.Fatalf("expected zero vector without primary call, got %v (calls=%d)", vec, calls)
	}
	for _, v := range vec {
		if v != 0 {
			t.Fatalf("expected zero vector, got %v", vec)
		}
	}

	defaultDim := &FallbackEmbedder{}
	vec, _ = defaultDim.Embed(context.Background(), "text")
	if len(vec) != DefaultFallbackDimension {
		t.Fatalf("expected default dimension, got %d", len(vec))
	}

	available := &FallbackEmbedder{Primary: primary, Available: true}
	vec, _ = available.Embed(context.Background(), "text")
	if len(vec) != 2 || calls != 1 {
		t.Fatalf("expected primary vector, got %v", vec)
	}
}

func TestCheckCredentials(t *testing.T) {
	if err := CheckCredentials(struct{}{}); err != nil {
		t.Fatalf("expected nil for non-checker, got %v", err)
	}
}
