package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/webgate/internal/docstore"
	"github.com/ca-srg/webgate/internal/docstore/mocks"
	"github.com/ca-srg/webgate/internal/types"
)

// fakeEmbedder returns a constant vector, or fails on demand.
type fakeEmbedder struct {
	shouldFail bool
	callCount  int
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	f.callCount++
	if f.shouldFail {
		return nil, fmt.Errorf("embedding backend down")
	}
	return []float64{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	f.callCount++
	if f.shouldFail {
		return nil, fmt.Errorf("embedding backend down")
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) GetModelInfo() (string, int, error) {
	return "fake-model", 3, nil
}

// shortBatchEmbedder drops the last vector of every batch.
type shortBatchEmbedder struct{}

func (shortBatchEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	return []float64{0.1, 0.2, 0.3}, nil
}

func (shortBatchEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, 0, len(texts))
	for i := 0; i < len(texts)-1; i++ {
		out = append(out, []float64{0.1, 0.2, 0.3})
	}
	return out, nil
}

func (shortBatchEmbedder) GetModelInfo() (string, int, error) {
	return "fake-model", 3, nil
}

func newTestGateway(t *testing.T, store docstore.DocumentStore) *Gateway {
	t.Helper()
	g, err := New(store, &fakeEmbedder{}, Options{CollectionPrefix: "test"})
	require.NoError(t, err)
	return g
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, &fakeEmbedder{}, Options{})
	assert.Error(t, err)

	_, err = New(mocks.NewDocumentStoreMock(), nil, Options{})
	assert.Error(t, err)
}

func TestTTLForTopic(t *testing.T) {
	g := newTestGateway(t, mocks.NewDocumentStoreMock())

	assert.Equal(t, DefaultTTLNewsHours, g.TTLForTopic(types.TopicNews))
	assert.Equal(t, DefaultTTLGeneralHours, g.TTLForTopic(types.TopicGeneral))
	assert.Equal(t, DefaultTTLGeneralHours, g.TTLForTopic(""), "unknown topics use the general TTL")
}

func TestStoreToCache_PersistsHashedRecords(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g := newTestGateway(t, store)

	query := types.SearchQuery{Text: "quantum computing", ScopeID: "agent-1", Topic: types.TopicGeneral}
	items := []types.ResultItem{
		{Title: "A", URL: "https://a.example", Content: "alpha", Score: 0.9},
		{Title: "B", URL: "https://b.example", Content: "beta", Score: 0.8},
	}

	g.StoreToCache(context.Background(), query, items)

	require.Equal(t, 2, store.StoredCount("test-results"))
	stored := store.Records["test-results"]
	assert.NotEmpty(t, stored[0].Record.ID)
	assert.NotEmpty(t, stored[0].Record.ContentHash)
	assert.NotEqual(t, stored[0].Record.ContentHash, stored[1].Record.ContentHash)
	assert.Equal(t, "quantum computing", stored[0].Record.Query)
	assert.Equal(t, "agent-1", stored[0].Record.ScopeID)
	assert.Equal(t, DefaultTTLGeneralHours, stored[0].Record.TTLHours)
	assert.Equal(t, []string{"https://a.example"}, stored[0].Record.SourceURLs)
}

func TestStoreToCache_NewsTTL(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g := newTestGateway(t, store)

	g.StoreToCache(context.Background(),
		types.SearchQuery{Text: "breaking story", Topic: types.TopicNews},
		[]types.ResultItem{{Title: "N", Content: "news body"}})

	require.Equal(t, 1, store.StoredCount("test-results"))
	assert.Equal(t, DefaultTTLNewsHours, store.Records["test-results"][0].Record.TTLHours)
}

func TestStoreToCache_FailuresDoNotPropagate(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	store.ShouldFailStore = true
	g := newTestGateway(t, store)

	// Must not panic or surface an error to the caller.
	g.StoreToCache(context.Background(),
		types.SearchQuery{Text: "q"},
		[]types.ResultItem{{Title: "T", Content: "body"}})

	assert.Equal(t, 0, store.StoredCount("test-results"))
}

func TestStoreToCache_EmbeddingCountMismatchIsSkipped(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g, err := New(store, shortBatchEmbedder{}, Options{CollectionPrefix: "test"})
	require.NoError(t, err)

	// Must not panic or surface an error to the caller.
	g.StoreToCache(context.Background(),
		types.SearchQuery{Text: "q"},
		[]types.ResultItem{
			{Title: "A", Content: "alpha"},
			{Title: "B", Content: "beta"},
		})

	assert.Equal(t, 0, store.StoreCallCount)
}

func TestStoreToCache_EmptyResultsAreNoop(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g := newTestGateway(t, store)

	g.StoreToCache(context.Background(), types.SearchQuery{Text: "q"}, nil)

	assert.Equal(t, 0, store.StoreCallCount)
	assert.Empty(t, store.EnsuredCollections)
}

func TestCheckCache_HitRequiresFreshness(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g := newTestGateway(t, store)

	now := time.Now()
	store.Records["test-results"] = []docstore.StoredRecord{
		{Record: types.CacheRecord{
			ID: "fresh", Content: "fresh content", FetchedAt: now.Add(-30 * time.Minute), TTLHours: 1,
		}},
		{Record: types.CacheRecord{
			ID: "stale", Content: "stale content", FetchedAt: now.Add(-2 * time.Hour), TTLHours: 1,
		}},
	}

	hit := g.CheckCache(context.Background(), types.SearchQuery{Text: "anything"})
	require.NotNil(t, hit)
	require.Len(t, hit.Records, 1)
	assert.Equal(t, "fresh", hit.Records[0].ID)
}

func TestCheckCache_BelowThresholdIsMiss(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g := newTestGateway(t, store)

	store.Records["test-results"] = []docstore.StoredRecord{
		{Record: types.CacheRecord{ID: "weak", Content: "c", FetchedAt: time.Now(), TTLHours: 24}},
	}
	store.Similarities["weak"] = 0.70

	assert.Nil(t, g.CheckCache(context.Background(), types.SearchQuery{Text: "anything"}))
}

func TestCheckCache_ScopeIsolation(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g := newTestGateway(t, store)

	store.Records["test-results"] = []docstore.StoredRecord{
		{Record: types.CacheRecord{ID: "other", Content: "c", FetchedAt: time.Now(), TTLHours: 24, ScopeID: "agent-2"}},
	}

	assert.Nil(t, g.CheckCache(context.Background(), types.SearchQuery{Text: "q", ScopeID: "agent-1"}))
}

func TestCheckCache_StoreFailureIsMiss(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	store.ShouldFailSearch = true
	g := newTestGateway(t, store)

	assert.Nil(t, g.CheckCache(context.Background(), types.SearchQuery{Text: "q"}))
}

func TestCheckCache_EmbedFailureIsMiss(t *testing.T) {
	store := mocks.NewDocumentStoreMock()
	g, err := New(store, &fakeEmbedder{shouldFail: true}, Options{CollectionPrefix: "test"})
	require.NoError(t, err)

	assert.Nil(t, g.CheckCache(context.Background(), types.SearchQuery{Text: "q"}))
}

func TestCheckCache_EmptyQueryIsMiss(t *testing.T) {
	g := newTestGateway(t, mocks.NewDocumentStoreMock())
	assert.Nil(t, g.CheckCache(context.Background(), types.SearchQuery{}))
}
