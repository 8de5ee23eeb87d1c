package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3vectors"
	"github.com/aws/aws-sdk-go-v2/service/s3vectors/document"
	s3vtypes "github.com/aws/aws-sdk-go-v2/service/s3vectors/types"

	"github.com/ca-srg/webgate/internal/types"
)

// S3VectorStore implements DocumentStore on Amazon S3 Vectors. Each
// collection maps to an index inside one vector bucket.
type S3VectorStore struct {
	client           *s3vectors.Client
	vectorBucketName string
	region           string
	dimension        int
}

// S3VectorConfig holds the configuration for the S3 Vectors backend.
type S3VectorConfig struct {
	VectorBucketName string
	Region           string
	Dimension        int
}

// NewS3VectorStore creates an S3 Vectors document store.
func NewS3VectorStore(cfg *S3VectorConfig) (*S3VectorStore, error) {
	if cfg.VectorBucketName == "" {
		return nil, fmt.Errorf("vector bucket name is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}

	awsConfig, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3VectorStore{
		client:           s3vectors.NewFromConfig(awsConfig),
		vectorBucketName: cfg.VectorBucketName,
		region:           cfg.Region,
		dimension:        cfg.Dimension,
	}, nil
}

func (s *S3VectorStore) EnsureCollection(ctx context.Context, name string) error {
	_, err := s.client.GetIndex(ctx, &s3vectors.GetIndexInput{
		VectorBucketName: aws.String(s.vectorBucketName),
		IndexName:        aws.String(name),
	})
	if err == nil {
		return nil
	}

	_, err = s.client.CreateIndex(ctx, &s3vectors.CreateIndexInput{
		VectorBucketName: aws.String(s.vectorBucketName),
		IndexName:        aws.String(name),
		DataType:         s3vtypes.DataTypeFloat32,
		Dimension:        aws.Int32(int32(s.dimension)),
		DistanceMetric:   s3vtypes.DistanceMetricCosine,
	})
	if err != nil {
		if strings.Contains(err.Error(), "ConflictException") {
			return nil
		}
		return fmt.Errorf("failed to create vector index %s: %w", name, err)
	}
	return nil
}

func (s *S3VectorStore) Search(ctx context.Context, collection string, query SimilarityQuery) ([]ScoredRecord, error) {
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}

	topK := query.Limit
	if topK <= 0 {
		topK = 10
	}

	input := &s3vectors.QueryVectorsInput{
		VectorBucketName: aws.String(s.vectorBucketName),
		IndexName:        aws.String(collection),
		QueryVector: &s3vtypes.VectorDataMemberFloat32{
			Value: toFloat32(query.Vector),
		},
		TopK:           aws.Int32(int32(topK)),
		ReturnDistance: true,
		ReturnMetadata: true,
	}

	if query.ScopeID != "" {
		input.Filter = document.NewLazyDocument(map[string]interface{}{
			"scope_id": query.ScopeID,
		})
	}

	result, err := s.client.QueryVectors(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}

	scored := make([]ScoredRecord, 0, len(result.Vectors))
	for _, vector := range result.Vectors {
		record, similarity, err := decodeS3Vector(vector)
		if err != nil {
			continue
		}
		if similarity < query.MinSimilarity {
			continue
		}
		scored = append(scored, ScoredRecord{Record: record, Similarity: similarity})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	return scored, nil
}

func (s *S3VectorStore) StoreRecords(ctx context.Context, collection string, records []StoredRecord) error {
	if len(records) == 0 {
		return nil
	}

	vectors := make([]s3vtypes.PutInputVector, 0, len(records))
	for _, r := range records {
		if r.Record.ID == "" {
			return fmt.Errorf("record ID cannot be empty")
		}
		if len(r.Embedding) == 0 {
			return fmt.Errorf("record %s has no embedding", r.Record.ID)
		}

		vectors = append(vectors, s3vtypes.PutInputVector{
			Key: aws.String(r.Record.ID),
			Data: &s3vtypes.VectorDataMemberFloat32{
				Value: toFloat32(r.Embedding),
			},
			Metadata: document.NewLazyDocument(encodeS3Metadata(r.Record)),
		})
	}

	_, err := s.client.PutVectors(ctx, &s3vectors.PutVectorsInput{
		VectorBucketName: aws.String(s.vectorBucketName),
		IndexName:        aws.String(collection),
		Vectors:          vectors,
	})
	if err != nil {
		return fmt.Errorf("failed to upload vectors: %w", err)
	}
	return nil
}

func encodeS3Metadata(r types.CacheRecord) map[string]interface{} {
	return map[string]interface{}{
		"content":      r.Content,
		"content_hash": r.ContentHash,
		"fetched_at":   r.FetchedAt.Format(time.RFC3339),
		"ttl_hours":    r.TTLHours,
		"query":        r.Query,
		"source_urls":  strings.Join(r.SourceURLs, " "),
		"topic":        string(r.Topic),
		"score":        r.Score,
		"scope_id":     r.ScopeID,
	}
}

func decodeS3Vector(vector s3vtypes.QueryOutputVector) (types.CacheRecord, float64, error) {
	record := types.CacheRecord{}
	if vector.Key != nil {
		record.ID = *vector.Key
	}

	// S3 Vectors reports cosine distance; similarity is its complement.
	similarity := 0.0
	if vector.Distance != nil {
		similarity = 1.0 - float64(*vector.Distance)
	}

	if vector.Metadata == nil {
		return record, similarity, fmt.Errorf("vector %s has no metadata", record.ID)
	}

	var metadata map[string]interface{}
	if err := vector.Metadata.UnmarshalSmithyDocument(&metadata); err != nil {
		return record, similarity, fmt.Errorf("failed to decode metadata for %s: %w", record.ID, err)
	}

	record.Content = stringField(metadata, "content")
	record.ContentHash = stringField(metadata, "content_hash")
	record.Query = stringField(metadata, "query")
	record.Topic = types.Topic(stringField(metadata, "topic"))
	record.ScopeID = stringField(metadata, "scope_id")
	record.TTLHours = floatField(metadata, "ttl_hours")
	record.Score = floatField(metadata, "score")

	if urls := stringField(metadata, "source_urls"); urls != "" {
		record.SourceURLs = strings.Fields(urls)
	}

	fetchedAt, err := time.Parse(time.RFC3339, stringField(metadata, "fetched_at"))
	if err != nil {
		return record, similarity, fmt.Errorf("vector %s has invalid fetched_at: %w", record.ID, err)
	}
	record.FetchedAt = fetchedAt

	return record, similarity, nil
}

func stringField(metadata map[string]interface{}, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func floatField(metadata map[string]interface{}, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

func toFloat32(vector []float64) []float32 {
	out := make([]float32, len(vector))
	for i, v := range vector {
		out[i] = float32(v)
	}
	return out
}
