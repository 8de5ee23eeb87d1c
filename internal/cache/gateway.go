// Package cache implements the semantic result cache. Queries are embedded
// and matched against previously stored results by cosine similarity; a hit
// must also be younger than the TTL recorded when it was written. Writes are
// best effort: a broken store degrades the gateway to API-only operation,
// it never breaks a request.
package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ca-srg/webgate/internal/dedup"
	"github.com/ca-srg/webgate/internal/docstore"
	"github.com/ca-srg/webgate/internal/embedding"
	"github.com/ca-srg/webgate/internal/types"
)

const (
	DefaultSimilarityThreshold = 0.85
	DefaultTTLGeneralHours     = 24.0
	DefaultTTLNewsHours        = 1.0
)

// Options tunes the cache gateway. Zero values fall back to defaults.
type Options struct {
	CollectionPrefix    string
	SimilarityThreshold float64
	TTLGeneralHours     float64
	TTLNewsHours        float64
}

// Hit is a successful cache lookup: the fresh records that cleared the
// similarity threshold, best match first.
type Hit struct {
	Records    []types.CacheRecord
	Similarity float64
	CachedAt   time.Time
}

// Gateway mediates between search orchestration and the document store.
type Gateway struct {
	store    docstore.DocumentStore
	embedder embedding.Client
	opts     Options
	now      func() time.Time

	mu      sync.Mutex
	ensured map[string]bool
}

// New creates a cache gateway over the given store and embedder.
func New(store docstore.DocumentStore, embedder embedding.Client, opts Options) (*Gateway, error) {
	if store == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedding client cannot be nil")
	}

	if opts.CollectionPrefix == "" {
		opts.CollectionPrefix = "webgate"
	}
	if opts.SimilarityThreshold <= 0 || opts.SimilarityThreshold > 1 {
		opts.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if opts.TTLGeneralHours <= 0 {
		opts.TTLGeneralHours = DefaultTTLGeneralHours
	}
	if opts.TTLNewsHours <= 0 {
		opts.TTLNewsHours = DefaultTTLNewsHours
	}

	return &Gateway{
		store:    store,
		embedder: embedder,
		opts:     opts,
		now:      time.Now,
		ensured:  make(map[string]bool),
	}, nil
}

// TTLForTopic returns the retention window in hours for a query topic.
func (g *Gateway) TTLForTopic(topic types.Topic) float64 {
	if topic == types.TopicNews {
		return g.opts.TTLNewsHours
	}
	return g.opts.TTLGeneralHours
}

func (g *Gateway) collection() string {
	return g.opts.CollectionPrefix + "-results"
}

// CheckCache looks up cached results for the query. A miss returns nil; so
// does any lookup failure, since the cache must never block a request.
func (g *Gateway) CheckCache(ctx context.Context, query types.SearchQuery) *Hit {
	if query.Text == "" {
		return nil
	}

	vector, err := g.embedder.GenerateEmbedding(ctx, query.Text)
	if err != nil {
		log.Printf("cache lookup skipped, failed to embed query: %v", err)
		return nil
	}

	limit := query.MaxResults
	if limit <= 0 {
		limit = 10
	}

	scored, err := g.store.Search(ctx, g.collection(), docstore.SimilarityQuery{
		Vector:        vector,
		ScopeID:       query.ScopeID,
		MinSimilarity: g.opts.SimilarityThreshold,
		Limit:         limit,
	})
	if err != nil {
		log.Printf("cache lookup failed, treating as miss: %v", err)
		return nil
	}

	now := g.now()
	hit := &Hit{}
	for _, s := range scored {
		if s.Record.IsStale(now) {
			continue
		}
		hit.Records = append(hit.Records, s.Record)
		if s.Similarity > hit.Similarity {
			hit.Similarity = s.Similarity
			hit.CachedAt = s.Record.FetchedAt
		}
	}

	if len(hit.Records) == 0 {
		return nil
	}
	return hit
}

// StoreToCache persists API results for future lookups. Every failure is
// logged and swallowed; the caller already has its response.
func (g *Gateway) StoreToCache(ctx context.Context, query types.SearchQuery, items []types.ResultItem) {
	if len(items) == 0 {
		return
	}

	if err := g.ensureCollection(ctx); err != nil {
		log.Printf("cache store skipped, failed to ensure collection: %v", err)
		return
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Content
	}

	embeddings, err := g.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		log.Printf("cache store skipped, failed to embed results: %v", err)
		return
	}
	if len(embeddings) != len(items) {
		log.Printf("cache store skipped, embedding count mismatch: expected %d, got %d",
			len(items), len(embeddings))
		return
	}

	ttl := g.TTLForTopic(query.Topic)
	now := g.now()

	records := make([]docstore.StoredRecord, 0, len(items))
	for i, item := range items {
		records = append(records, docstore.StoredRecord{
			Record: types.CacheRecord{
				ID:          uuid.NewString(),
				Content:     item.Content,
				ContentHash: dedup.HashResult(item),
				FetchedAt:   now,
				TTLHours:    ttl,
				Query:       query.Text,
				SourceURLs:  []string{item.URL},
				Topic:       query.Topic,
				Score:       item.Score,
				ScopeID:     query.ScopeID,
			},
			Embedding: embeddings[i],
		})
	}

	if err := g.store.StoreRecords(ctx, g.collection(), records); err != nil {
		log.Printf("cache store failed for %d records: %v", len(records), err)
	}
}

func (g *Gateway) ensureCollection(ctx context.Context) error {
	name := g.collection()

	g.mu.Lock()
	done := g.ensured[name]
	g.mu.Unlock()
	if done {
		return nil
	}

	if err := g.store.EnsureCollection(ctx, name); err != nil {
		return err
	}

	g.mu.Lock()
	g.ensured[name] = true
	g.mu.Unlock()
	return nil
}

// SetClock overrides the time source for tests.
func (g *Gateway) SetClock(now func() time.Time) {
	g.now = now
}
