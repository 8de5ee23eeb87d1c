// Package embedding defines the interface for turning query text into
// vectors. The cache layer embeds every incoming query and every stored
// result so semantically similar queries can hit the same cache entries.
package embedding

import "context"

// Client generates embedding vectors for text.
type Client interface {
	// GenerateEmbedding creates an embedding vector from the given text.
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)

	// GenerateEmbeddings creates embedding vectors for multiple texts.
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error)

	// GetModelInfo returns the model identifier and its output dimension.
	GetModelInfo() (string, int, error)
}
