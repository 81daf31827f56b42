package embedding

import (
	"context"
)

// Provider defines the interface for embedding providers
type Provider interface {
	// Embed generates an embedding vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, preserving input
	// order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of vectors produced by this
	// provider
	Dimensions() int

	// Name returns the provider name for identification
	Name() string
}
