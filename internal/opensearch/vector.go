package opensearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/ca-srg/webgate/internal/types"
)

type VectorSearchResult struct {
	ID     string          `json:"_id"`
	Score  float64         `json:"_score"`
	Source json.RawMessage `json:"_source"`
	Index  string          `json:"_index"`
}

type VectorSearchResponse struct {
	Hits struct {
		Total struct {
			Value    int    `json:"value"`
			Relation string `json:"relation"`
		} `json:"total"`
		Hits []VectorSearchResult `json:"hits"`
	} `json:"hits"`
	TimedOut bool `json:"timed_out"`
	Took     int  `json:"took"`
}

type VectorQuery struct {
	Vector      []float64         `json:"vector"`
	VectorField string            `json:"vector_field"`
	K           int               `json:"k"`
	EfSearch    int               `json:"ef_search,omitempty"`
	Filters     map[string]string `json:"filters,omitempty"`
	MinScore    float64           `json:"min_score,omitempty"`
	Size        int               `json:"size,omitempty"`
}

// SearchDenseVector runs a kNN query, optionally constrained by term filters
// and a minimum cosine score.
func (c *Client) SearchDenseVector(ctx context.Context, indexName string, query *VectorQuery) (*VectorSearchResponse, error) {
	if query == nil {
		return nil, types.NewGatewayError(types.ErrorTypeCache, "query cannot be nil")
	}
	if len(query.Vector) == 0 {
		return nil, types.NewGatewayError(types.ErrorTypeCache, "vector cannot be empty")
	}

	if query.VectorField == "" {
		query.VectorField = "embedding"
	}
	if query.K <= 0 {
		query.K = 50
	}
	if query.Size <= 0 {
		query.Size = 10
	}
	if query.EfSearch <= 0 {
		query.EfSearch = query.K * 2
	}

	var result *VectorSearchResponse

	operation := func() error {
		if err := c.WaitForRateLimit(ctx); err != nil {
			return fmt.Errorf("rate limit error: %w", err)
		}

		bodyJSON, err := json.Marshal(c.buildVectorSearchBody(query))
		if err != nil {
			return types.NewGatewayError(types.ErrorTypeCache, fmt.Sprintf("failed to marshal search body: %v", err))
		}

		searchResp, err := c.client.Search(ctx, &opensearchapi.SearchReq{
			Indices: []string{indexName},
			Body:    strings.NewReader(string(bodyJSON)),
		})
		if err != nil {
			return ClassifyConnectionError(err)
		}
		if searchResp == nil {
			return types.NewGatewayError(types.ErrorTypeCache, "received nil response from OpenSearch")
		}

		response := &VectorSearchResponse{Took: searchResp.Took}
		response.Hits.Total.Value = searchResp.Hits.Total.Value
		response.Hits.Total.Relation = searchResp.Hits.Total.Relation
		response.Hits.Hits = make([]VectorSearchResult, len(searchResp.Hits.Hits))
		for i, hit := range searchResp.Hits.Hits {
			response.Hits.Hits[i] = VectorSearchResult{
				Index:  hit.Index,
				ID:     hit.ID,
				Score:  float64(hit.Score),
				Source: hit.Source,
			}
		}

		result = response
		return nil
	}

	if err := c.ExecuteWithRetry(ctx, operation, "VectorSearch"); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) buildVectorSearchBody(query *VectorQuery) map[string]interface{} {
	knnQuery := map[string]interface{}{
		query.VectorField: map[string]interface{}{
			"vector": query.Vector,
			"k":      query.K,
			"method_parameters": map[string]interface{}{
				"ef_search": query.EfSearch,
			},
		},
	}

	body := map[string]interface{}{
		"size": query.Size,
		"query": map[string]interface{}{
			"knn": knnQuery,
		},
	}

	if query.MinScore > 0 {
		body["min_score"] = query.MinScore
	}

	if len(query.Filters) > 0 {
		filters := make([]map[string]interface{}, 0, len(query.Filters))
		for field, value := range query.Filters {
			filters = append(filters, map[string]interface{}{
				"term": map[string]string{field: value},
			})
		}

		body["query"] = map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   []map[string]interface{}{{"knn": knnQuery}},
				"filter": filters,
			},
		}
	}

	return body
}

// CreateVectorIndex provisions a kNN index for cached result records. It is
// idempotent: an already-existing index is not an error.
func (c *Client) CreateVectorIndex(ctx context.Context, indexName string, dimension int) error {
	if err := c.WaitForRateLimit(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	settings := map[string]interface{}{
		"settings": map[string]interface{}{
			"index": map[string]interface{}{
				"knn": true,
			},
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"content": map[string]interface{}{
					"type": "text",
				},
				"query": map[string]interface{}{
					"type": "text",
				},
				"content_hash": map[string]interface{}{
					"type": "keyword",
				},
				"scope_id": map[string]interface{}{
					"type": "keyword",
				},
				"topic": map[string]interface{}{
					"type": "keyword",
				},
				"source_urls": map[string]interface{}{
					"type": "keyword",
				},
				"fetched_at": map[string]interface{}{
					"type": "date",
				},
				"ttl_hours": map[string]interface{}{
					"type": "float",
				},
				"score": map[string]interface{}{
					"type": "float",
				},
				"embedding": map[string]interface{}{
					"type":      "knn_vector",
					"dimension": dimension,
					"method": map[string]interface{}{
						"engine":     "lucene",
						"space_type": "cosinesimil",
						"name":       "hnsw",
						"parameters": map[string]interface{}{},
					},
				},
			},
		},
	}

	bodyJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal index settings: %w", err)
	}

	_, err = c.client.Indices.Create(ctx, opensearchapi.IndicesCreateReq{
		Index: indexName,
		Body:  strings.NewReader(string(bodyJSON)),
	})
	if err != nil {
		if strings.Contains(err.Error(), "resource_already_exists_exception") {
			return nil
		}
		return ClassifyConnectionError(err)
	}
	return nil
}

// IndexDocument stores a single document under the given ID.
func (c *Client) IndexDocument(ctx context.Context, indexName, docID string, doc map[string]interface{}) error {
	if err := c.WaitForRateLimit(ctx); err != nil {
		return fmt.Errorf("rate limit error: %w", err)
	}

	bodyJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = c.client.Index(ctx, opensearchapi.IndexReq{
		Index:      indexName,
		DocumentID: docID,
		Body:       strings.NewReader(string(bodyJSON)),
	})
	if err != nil {
		return ClassifyConnectionError(err)
	}
	return nil
}

// BulkDocument pairs a document ID with its body for bulk indexing.
type BulkDocument struct {
	ID   string
	Body map[string]interface{}
}

// BulkIndexDocuments stores documents in NDJSON batches.
func (c *Client) BulkIndexDocuments(ctx context.Context, indexName string, docs []BulkDocument) error {
	if len(docs) == 0 {
		return nil
	}

	const batchSize = 1000

	for i := 0; i < len(docs); i += batchSize {
		end := i + batchSize
		if end > len(docs) {
			end = len(docs)
		}

		if err := c.processBulkBatch(ctx, indexName, docs[i:end]); err != nil {
			return fmt.Errorf("failed to process batch %d-%d: %w", i, end-1, err)
		}
	}
	return nil
}

func (c *Client) processBulkBatch(ctx context.Context, indexName string, docs []BulkDocument) error {
	operation := func() error {
		if err := c.WaitForRateLimit(ctx); err != nil {
			return fmt.Errorf("rate limit error: %w", err)
		}

		bulkBody, err := buildBulkBody(indexName, docs)
		if err != nil {
			return err
		}

		_, err = c.client.Bulk(ctx, opensearchapi.BulkReq{
			Body: strings.NewReader(bulkBody),
		})
		if err != nil {
			return ClassifyConnectionError(err)
		}
		return nil
	}

	return c.ExecuteWithRetry(ctx, operation, fmt.Sprintf("BulkIndex[%d docs]", len(docs)))
}

func buildBulkBody(indexName string, docs []BulkDocument) (string, error) {
	var bulkBody strings.Builder
	bulkBody.Grow(len(docs) * 200)

	for _, doc := range docs {
		action := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": indexName,
				"_id":    doc.ID,
			},
		}

		actionJSON, err := json.Marshal(action)
		if err != nil {
			return "", fmt.Errorf("failed to marshal bulk action: %w", err)
		}
		docJSON, err := json.Marshal(doc.Body)
		if err != nil {
			return "", fmt.Errorf("failed to marshal document: %w", err)
		}

		bulkBody.Write(actionJSON)
		bulkBody.WriteString("\n")
		bulkBody.Write(docJSON)
		bulkBody.WriteString("\n")
	}

	return bulkBody.String(), nil
}
