package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewStoreWithPath(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_stats.db")

	store, err := NewStoreWithPath(dbPath)
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestIncrement(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_stats.db")

	store, err := NewStoreWithPath(dbPath)
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Increment(OperationSearch); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	today := time.Now().Format("2006-01-02")
	count, err := store.GetCountByDate(OperationSearch, today)
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected count 1, got %d", count)
	}

	if err := store.Increment(OperationSearch); err != nil {
		t.Fatalf("Second increment failed: %v", err)
	}

	count, err = store.GetCountByDate(OperationSearch, today)
	if err != nil {
		t.Fatalf("GetCountByDate failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2, got %d", count)
	}
}

func TestGetTotalByOperation(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_stats.db")

	store, err := NewStoreWithPath(dbPath)
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	for i := 0; i < 5; i++ {
		if err := store.Increment(OperationSearch); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := store.Increment(OperationCrawl); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
	}

	searchTotal, err := store.GetTotalByOperation(OperationSearch)
	if err != nil {
		t.Fatalf("GetTotalByOperation failed: %v", err)
	}
	if searchTotal != 5 {
		t.Errorf("Expected search total 5, got %d", searchTotal)
	}

	crawlTotal, err := store.GetTotalByOperation(OperationCrawl)
	if err != nil {
		t.Fatalf("GetTotalByOperation failed: %v", err)
	}
	if crawlTotal != 3 {
		t.Errorf("Expected crawl total 3, got %d", crawlTotal)
	}
}

func TestGetAllTotals(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_stats.db")

	store, err := NewStoreWithPath(dbPath)
	if err != nil {
		t.Fatalf("NewStoreWithPath failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	_ = store.Increment(OperationSearch)
	_ = store.Increment(OperationSearch)
	_ = store.Increment(OperationCrawl)
	_ = store.Increment(OperationExtract)
	_ = store.Increment(OperationExtract)
	_ = store.Increment(OperationExtract)
	_ = store.Increment(OperationMap)

	totals, err := store.GetAllTotals()
	if err != nil {
		t.Fatalf("GetAllTotals failed: %v", err)
	}

	expected := map[Operation]int64{
		OperationSearch:  2,
		OperationCrawl:   1,
		OperationExtract: 3,
		OperationMap:     1,
	}

	for op, expectedCount := range expected {
		if totals[op] != expectedCount {
			t.Errorf("Operation %s: expected %d, got %d", op, expectedCount, totals[op])
		}
	}
}

func TestOperationConstants(t *testing.T) {
	if OperationSearch != "search" {
		t.Errorf("OperationSearch expected 'search', got '%s'", OperationSearch)
	}
	if OperationCrawl != "crawl" {
		t.Errorf("OperationCrawl expected 'crawl', got '%s'", OperationCrawl)
	}
	if OperationExtract != "extract" {
		t.Errorf("OperationExtract expected 'extract', got '%s'", OperationExtract)
	}
	if OperationMap != "map" {
		t.Errorf("OperationMap expected 'map', got '%s'", OperationMap)
	}
}
