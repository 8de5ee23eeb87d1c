// Package bedrock embeds text with Amazon Titan models via the Bedrock
// runtime API.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentInvocations bounds parallel InvokeModel calls so batch
// embedding does not trip Bedrock's account-level throttling.
const maxConcurrentInvocations = 4

// Client wraps the Bedrock runtime for Titan text embeddings.
type Client struct {
	runtime *bedrockruntime.Client
	modelID string
	region  string
}

// titanRequest is the Titan embedding invocation payload.
type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions,omitempty"`
	Normalize  bool   `json:"normalize,omitempty"`
}

// titanResponse is the Titan embedding invocation result.
type titanResponse struct {
	Embedding           []float64 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewClient creates a Bedrock embedding client. Defaults to Titan v2 when no
// model is specified.
func NewClient(awsConfig aws.Config, modelID string) *Client {
	if modelID == "" {
		modelID = "amazon.titan-embed-text-v2:0"
	}
	return &Client{
		runtime: bedrockruntime.NewFromConfig(awsConfig),
		modelID: modelID,
		region:  awsConfig.Region,
	}
}

// GenerateEmbedding creates an embedding vector from the given text.
func (c *Client) GenerateEmbedding(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	requestBody, err := json.Marshal(titanRequest{
		InputText:  text,
		Dimensions: 1024,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	result, err := c.runtime.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke bedrock model: %w", err)
	}

	var response titanResponse
	if err := json.Unmarshal(result.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(response.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding data in response")
	}

	return response.Embedding, nil
}

// GenerateEmbeddings creates embedding vectors for multiple texts. Titan does
// not support batch invocation, so texts are embedded with bounded
// concurrency.
func (c *Client) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("texts cannot be empty")
	}

	embeddings := make([][]float64, len(texts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrentInvocations)
	for i, text := range texts {
		eg.Go(func() error {
			embedding, err := c.GenerateEmbedding(egCtx, text)
			if err != nil {
				return fmt.Errorf("failed to embed text %d: %w", i, err)
			}
			embeddings[i] = embedding
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// GetModelInfo returns the model identifier and its output dimension.
func (c *Client) GetModelInfo() (string, int, error) {
	dimensions := map[string]int{
		"amazon.titan-embed-text-v2:0": 1024,
		"amazon.titan-embed-text-v1":   1536,
	}

	dim, exists := dimensions[c.modelID]
	if !exists {
		dim = 1024
	}
	return c.modelID, dim, nil
}

// ValidateConnection checks if the Bedrock service is accessible.
func (c *Client) ValidateConnection(ctx context.Context) error {
	if _, err := c.GenerateEmbedding(ctx, "test connection"); err != nil {
		return fmt.Errorf("connection validation failed: %w", err)
	}
	return nil
}

// GetRegion returns the AWS region being used.
func (c *Client) GetRegion() string {
	return c.region
}
