// Package webintel is the HTTP client for the external web-intelligence
// provider. It speaks the provider's four JSON operations and translates
// failures into the gateway error taxonomy; rate limiting and retries live
// one layer up.
package webintel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ca-srg/webgate/internal/types"
)

const (
	defaultBaseURL = "https://api.tavily.com"
	userAgent      = "webgate/1.0"
)

// Client talks to the provider API. A missing credential is fatal at
// construction time, not at call time.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a provider client.
func NewClient(apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, types.NewGatewayError(types.ErrorTypeConfig, "provider API key is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			// Per-attempt deadlines come from the retry executor's context;
			// this is only a hard upper bound against leaked connections.
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Search performs a web search.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	if req.Query == "" {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "search query cannot be empty")
	}
	var resp SearchResponse
	if err := c.post(ctx, "/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Crawl walks a site starting from a base URL.
func (c *Client) Crawl(ctx context.Context, req *CrawlRequest) (*CrawlResponse, error) {
	if req.URL == "" {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "crawl base URL cannot be empty")
	}
	var resp CrawlResponse
	if err := c.post(ctx, "/crawl", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Extract fetches the page content for a batch of URLs.
func (c *Client) Extract(ctx context.Context, req *ExtractRequest) (*ExtractResponse, error) {
	if len(req.URLs) == 0 {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "extract requires at least one URL")
	}
	var resp ExtractResponse
	if err := c.post(ctx, "/extract", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Map discovers the URL graph of a site.
func (c *Client) Map(ctx context.Context, req *MapRequest) (*MapResponse, error) {
	if req.URL == "" {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "map base URL cannot be empty")
	}
	var resp MapResponse
	if err := c.post(ctx, "/map", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Context errors (deadline, cancellation) pass through untouched so
		// the retry executor can classify them.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read provider response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return classifyHTTPError(resp.StatusCode, resp.Header.Get("Retry-After"), body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse provider response: %w", err)
	}
	return nil
}
