package opensearch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildVectorSearchBody_PlainKNN(t *testing.T) {
	c := &Client{}

	body := c.buildVectorSearchBody(&VectorQuery{
		Vector:      []float64{0.1, 0.2},
		VectorField: "embedding",
		K:           50,
		EfSearch:    100,
		Size:        10,
		MinScore:    0.85,
	})

	assert.Equal(t, 10, body["size"])
	assert.Equal(t, 0.85, body["min_score"])

	query, ok := body["query"].(map[string]interface{})
	require.True(t, ok)
	knn, ok := query["knn"].(map[string]interface{})
	require.True(t, ok)

	field, ok := knn["embedding"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 50, field["k"])
}

func TestBuildVectorSearchBody_FiltersWrapInBool(t *testing.T) {
	c := &Client{}

	body := c.buildVectorSearchBody(&VectorQuery{
		Vector:      []float64{0.1, 0.2},
		VectorField: "embedding",
		K:           50,
		EfSearch:    100,
		Size:        10,
		Filters:     map[string]string{"scope_id": "team-a"},
	})

	query, ok := body["query"].(map[string]interface{})
	require.True(t, ok)

	boolQuery, ok := query["bool"].(map[string]interface{})
	require.True(t, ok, "filtered queries must wrap knn in a bool query")

	must, ok := boolQuery["must"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, must, 1)
	assert.Contains(t, must[0], "knn")

	filters, ok := boolQuery["filter"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, filters, 1)
	assert.Equal(t, map[string]string{"scope_id": "team-a"}, filters[0]["term"])
}

func TestBuildBulkBody_NDJSONPairsPerDocument(t *testing.T) {
	docs := []BulkDocument{
		{ID: "a", Body: map[string]interface{}{"content": "first"}},
		{ID: "b", Body: map[string]interface{}{"content": "second"}},
	}

	body, err := buildBulkBody("webgate-results", docs)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	require.Len(t, lines, 4, "each document needs an action line and a source line")

	assert.Contains(t, lines[0], `"_id":"a"`)
	assert.Contains(t, lines[0], `"_index":"webgate-results"`)
	assert.Contains(t, lines[1], `"content":"first"`)
	assert.Contains(t, lines[2], `"_id":"b"`)
}
