// Package mocks provides an in-memory DocumentStore for tests.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ca-srg/webgate/internal/docstore"
)

// DocumentStoreMock is a mock implementation of the DocumentStore interface.
// Similarity for stored records is configured per record ID; unconfigured
// records match with similarity 1.0.
type DocumentStoreMock struct {
	mu sync.RWMutex

	// Mock behavior settings
	ShouldFailEnsure bool
	ShouldFailSearch bool
	// FailSearchTimes fails the first N searches, then lets them through.
	FailSearchTimes int
	ShouldFailStore bool
	Similarities    map[string]float64

	// Mock state tracking
	EnsuredCollections []string
	SearchCallCount    int
	StoreCallCount     int

	// Mock data storage
	Records map[string][]docstore.StoredRecord
}

// NewDocumentStoreMock creates a new mock instance.
func NewDocumentStoreMock() *DocumentStoreMock {
	return &DocumentStoreMock{
		Similarities: make(map[string]float64),
		Records:      make(map[string][]docstore.StoredRecord),
	}
}

func (m *DocumentStoreMock) EnsureCollection(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ShouldFailEnsure {
		return fmt.Errorf("mock failure creating collection %s", name)
	}
	m.EnsuredCollections = append(m.EnsuredCollections, name)
	if _, exists := m.Records[name]; !exists {
		m.Records[name] = nil
	}
	return nil
}

func (m *DocumentStoreMock) Search(ctx context.Context, collection string, query docstore.SimilarityQuery) ([]docstore.ScoredRecord, error) {
	m.mu.Lock()
	m.SearchCallCount++
	shouldFail := m.ShouldFailSearch
	if m.FailSearchTimes > 0 {
		m.FailSearchTimes--
		shouldFail = true
	}
	m.mu.Unlock()

	if shouldFail {
		return nil, fmt.Errorf("mock search failure for collection %s", collection)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var scored []docstore.ScoredRecord
	for _, stored := range m.Records[collection] {
		if query.ScopeID != "" && stored.Record.ScopeID != query.ScopeID {
			continue
		}
		similarity, configured := m.Similarities[stored.Record.ID]
		if !configured {
			similarity = 1.0
		}
		if similarity < query.MinSimilarity {
			continue
		}
		scored = append(scored, docstore.ScoredRecord{Record: stored.Record, Similarity: similarity})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if query.Limit > 0 && len(scored) > query.Limit {
		scored = scored[:query.Limit]
	}
	return scored, nil
}

func (m *DocumentStoreMock) StoreRecords(ctx context.Context, collection string, records []docstore.StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StoreCallCount++
	if m.ShouldFailStore {
		return fmt.Errorf("mock store failure for collection %s", collection)
	}
	m.Records[collection] = append(m.Records[collection], records...)
	return nil
}

// StoredCount returns the number of records held for a collection.
func (m *DocumentStoreMock) StoredCount(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Records[collection])
}
