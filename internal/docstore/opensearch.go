package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ca-srg/webgate/internal/opensearch"
	"github.com/ca-srg/webgate/internal/types"
)

// OpenSearchStore implements DocumentStore on an OpenSearch kNN index.
type OpenSearchStore struct {
	client    *opensearch.Client
	dimension int
}

// NewOpenSearchStore wraps an OpenSearch client as a document store. The
// dimension must match the embedding model in use.
func NewOpenSearchStore(client *opensearch.Client, dimension int) (*OpenSearchStore, error) {
	if client == nil {
		return nil, fmt.Errorf("opensearch client cannot be nil")
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dimension)
	}
	return &OpenSearchStore{client: client, dimension: dimension}, nil
}

func (s *OpenSearchStore) EnsureCollection(ctx context.Context, name string) error {
	return s.client.CreateVectorIndex(ctx, name, s.dimension)
}

func (s *OpenSearchStore) Search(ctx context.Context, collection string, query SimilarityQuery) ([]ScoredRecord, error) {
	vq := &opensearch.VectorQuery{
		Vector:   query.Vector,
		MinScore: query.MinSimilarity,
		Size:     query.Limit,
	}
	if query.ScopeID != "" {
		vq.Filters = map[string]string{"scope_id": query.ScopeID}
	}

	resp, err := s.client.SearchDenseVector(ctx, collection, vq)
	if err != nil {
		return nil, err
	}

	scored := make([]ScoredRecord, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		record, err := decodeRecord(hit.ID, hit.Source)
		if err != nil {
			// A malformed document should not poison the whole lookup.
			continue
		}
		scored = append(scored, ScoredRecord{Record: record, Similarity: hit.Score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	return scored, nil
}

func (s *OpenSearchStore) StoreRecords(ctx context.Context, collection string, records []StoredRecord) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]opensearch.BulkDocument, 0, len(records))
	for _, r := range records {
		docs = append(docs, opensearch.BulkDocument{
			ID:   r.Record.ID,
			Body: encodeRecord(r),
		})
	}
	return s.client.BulkIndexDocuments(ctx, collection, docs)
}

func encodeRecord(r StoredRecord) map[string]interface{} {
	return map[string]interface{}{
		"content":      r.Record.Content,
		"content_hash": r.Record.ContentHash,
		"fetched_at":   r.Record.FetchedAt.Format(time.RFC3339),
		"ttl_hours":    r.Record.TTLHours,
		"query":        r.Record.Query,
		"source_urls":  r.Record.SourceURLs,
		"topic":        string(r.Record.Topic),
		"score":        r.Record.Score,
		"scope_id":     r.Record.ScopeID,
		"embedding":    r.Embedding,
	}
}

type recordSource struct {
	Content     string   `json:"content"`
	ContentHash string   `json:"content_hash"`
	FetchedAt   string   `json:"fetched_at"`
	TTLHours    float64  `json:"ttl_hours"`
	Query       string   `json:"query"`
	SourceURLs  []string `json:"source_urls"`
	Topic       string   `json:"topic"`
	Score       float64  `json:"score"`
	ScopeID     string   `json:"scope_id"`
}

func decodeRecord(id string, source json.RawMessage) (types.CacheRecord, error) {
	var src recordSource
	if err := json.Unmarshal(source, &src); err != nil {
		return types.CacheRecord{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}

	fetchedAt, err := time.Parse(time.RFC3339, src.FetchedAt)
	if err != nil {
		return types.CacheRecord{}, fmt.Errorf("record %s has invalid fetched_at: %w", id, err)
	}

	return types.CacheRecord{
		ID:          id,
		Content:     src.Content,
		ContentHash: src.ContentHash,
		FetchedAt:   fetchedAt,
		TTLHours:    src.TTLHours,
		Query:       src.Query,
		SourceURLs:  src.SourceURLs,
		Topic:       types.Topic(src.Topic),
		Score:       src.Score,
		ScopeID:     src.ScopeID,
	}, nil
}
