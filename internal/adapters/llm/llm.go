// Package llm adapts generative and embedding providers to the chat
// service. Gemini goes through google.golang.org/genai; OpenAI-compatible
// endpoints are spoken over plain REST.
package llm

import (
	"context"

	"github.com/okian/capperchat/internal/domain/model"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, p model.Prompt) (string, error)
}

// Embedder turns text into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model names the embedding model; used to key caches.
	Model() string
	Dimension() int
}

// Provider is a backend that can do both.
type Provider interface {
	Generator
	Embedder
}

const (
	DefaultDimension = 1536
	defaultMaxTokens = 150
)

func checkDimension(values []float32, want int) error {
	if want > 0 && len(values) != want {
		return &DimensionError{Got: len(values), Want: want}
	}
	return nil
}
