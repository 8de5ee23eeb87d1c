package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ca-srg/webgate/internal/types"
)

func TestComputeHash_StableAcrossCalls(t *testing.T) {
	first := ComputeHash("Quantum Computing", "Qubits and superposition.")
	second := ComputeHash("Quantum Computing", "Qubits and superposition.")
	assert.Equal(t, first, second)
}

func TestComputeHash_DistinctForDistinctContent(t *testing.T) {
	corpus := []struct{ title, content string }{
		{"Quantum Computing", "Qubits and superposition."},
		{"Quantum Computing", "Error correction codes."},
		{"Classical Computing", "Qubits and superposition."},
		{"", ""},
	}

	seen := make(map[string]bool)
	for _, entry := range corpus {
		hash := ComputeHash(entry.title, entry.content)
		assert.False(t, seen[hash], "hash collision for %q/%q", entry.title, entry.content)
		seen[hash] = true
	}
}

func TestComputeHash_NormalizesWhitespaceAndCase(t *testing.T) {
	assert.Equal(t,
		ComputeHash("Title", "Body text"),
		ComputeHash("  title  ", "body text\n"))
}

func TestDeduplicate_KeepsFirstOccurrenceInOrder(t *testing.T) {
	a := types.ResultItem{Title: "A", URL: "https://a.example/1", Content: "alpha"}
	aCopy := types.ResultItem{Title: "A", URL: "https://a.example/2", Content: "alpha"}
	b := types.ResultItem{Title: "B", URL: "https://b.example", Content: "beta"}

	deduped := Deduplicate([]types.ResultItem{a, aCopy, b})

	assert.Len(t, deduped, 2)
	assert.Equal(t, "https://a.example/1", deduped[0].URL, "first occurrence wins")
	assert.Equal(t, "B", deduped[1].Title)
}

func TestDeduplicate_EmptyAndSingle(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))

	single := []types.ResultItem{{Title: "only", Content: "one"}}
	assert.Equal(t, single, Deduplicate(single))
}
