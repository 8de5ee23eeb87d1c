// Package docstore abstracts the vector-capable document store the cache
// persists to. Two backends are supported: an OpenSearch kNN index and
// Amazon S3 Vectors.
package docstore

import (
	"context"

	"github.com/ca-srg/webgate/internal/types"
)

// StoredRecord is a cache record paired with its embedding, ready to persist.
type StoredRecord struct {
	Record    types.CacheRecord
	Embedding []float64
}

// ScoredRecord is a cache record returned by similarity search together with
// its cosine similarity to the query vector, in [0, 1].
type ScoredRecord struct {
	Record     types.CacheRecord
	Similarity float64
}

// SimilarityQuery describes a vector lookup against one collection.
type SimilarityQuery struct {
	Vector []float64
	// ScopeID restricts results to one caller scope when non-empty.
	ScopeID string
	// MinSimilarity drops results below this cosine similarity.
	MinSimilarity float64
	Limit         int
}

// DocumentStore persists and retrieves embedded cache records.
type DocumentStore interface {
	// EnsureCollection creates the named collection if it does not exist.
	// Calling it for an existing collection is not an error.
	EnsureCollection(ctx context.Context, name string) error

	// Search returns records similar to the query vector, best match first.
	Search(ctx context.Context, collection string, query SimilarityQuery) ([]ScoredRecord, error)

	// StoreRecords persists a batch of embedded records.
	StoreRecords(ctx context.Context, collection string, records []StoredRecord) error
}
