package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-srg/webgate/internal/gateway"
	"github.com/ca-srg/webgate/internal/metrics"
	"github.com/ca-srg/webgate/internal/retry"
	"github.com/ca-srg/webgate/internal/types"
	"github.com/ca-srg/webgate/internal/webintel"
)

type noopAcquirer struct{}

func (noopAcquirer) Acquire(ctx context.Context) error { return nil }

type fakeProvider struct {
	searchErr error
}

func (p *fakeProvider) Search(ctx context.Context, req *webintel.SearchRequest) (*webintel.SearchResponse, error) {
	if p.searchErr != nil {
		return nil, p.searchErr
	}
	return &webintel.SearchResponse{
		Query:  req.Query,
		Answer: "an answer",
		Results: []webintel.SearchResult{
			{Title: "Result", URL: "https://example.com", Content: "body", Score: 0.9},
		},
	}, nil
}

func (p *fakeProvider) Crawl(ctx context.Context, req *webintel.CrawlRequest) (*webintel.CrawlResponse, error) {
	return &webintel.CrawlResponse{
		BaseURL: req.URL,
		Results: []webintel.CrawlPage{
			{URL: req.URL + "/a", RawContent: "page a"},
		},
	}, nil
}

func (p *fakeProvider) Extract(ctx context.Context, req *webintel.ExtractRequest) (*webintel.ExtractResponse, error) {
	resp := &webintel.ExtractResponse{}
	for _, u := range req.URLs {
		resp.Results = append(resp.Results, webintel.ExtractedPage{URL: u, RawContent: "extracted"})
	}
	return resp, nil
}

func (p *fakeProvider) Map(ctx context.Context, req *webintel.MapRequest) (*webintel.MapResponse, error) {
	return &webintel.MapResponse{
		BaseURL: req.URL,
		Results: []string{req.URL + "/a", req.URL + "/b"},
	}, nil
}

func newTestServer(t *testing.T, provider gateway.Provider) *Server {
	t.Helper()

	store, err := metrics.NewStoreWithPath(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	metrics.SetStoreForTesting(store)
	t.Cleanup(metrics.ResetForTesting)

	executor := retry.NewExecutor(noopAcquirer{}, types.RetryPolicy{
		MaxAttempts:    2,
		AttemptTimeout: time.Second,
		BackoffBase:    1.0,
	})

	gw, err := gateway.New(provider, executor, nil)
	require.NoError(t, err)

	server, err := NewServer(nil, gw)
	require.NoError(t, err)
	return server
}

func callRequest(t *testing.T, args map[string]any) *mcp.CallToolRequest {
	t.Helper()

	raw, err := json.Marshal(args)
	require.NoError(t, err)

	req := &mcp.CallToolRequest{}
	req.Params = &mcp.CallToolParamsRaw{Arguments: raw}
	return req
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestNewServer_RequiresGateway(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestNewServer_DefaultsAddress(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})
	assert.Equal(t, "localhost:8080", server.Address())
	assert.False(t, server.IsRunning())
}

func TestHandleSearch_ReturnsProviderResults(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	result, err := server.handleSearch(context.Background(), callRequest(t, map[string]any{
		"query": "golang concurrency",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var searchResult gateway.SearchResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &searchResult))

	assert.Equal(t, "golang concurrency", searchResult.Query)
	assert.Equal(t, types.SourceAPI, searchResult.Source)
	assert.Len(t, searchResult.Results, 1)
	assert.Equal(t, "https://example.com", searchResult.Results[0].URL)
}

func TestHandleSearch_EmptyQueryReportsToolError(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	result, err := server.handleSearch(context.Background(), callRequest(t, map[string]any{
		"query": "",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleSearch_ProviderFailureReportsToolError(t *testing.T) {
	provider := &fakeProvider{
		searchErr: types.NewGatewayError(types.ErrorTypeConfig, "invalid API key"),
	}
	server := newTestServer(t, provider)

	result, err := server.handleSearch(context.Background(), callRequest(t, map[string]any{
		"query": "anything",
	}))
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "invalid API key")
}

func TestHandleSearch_MissingArguments(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	req := &mcp.CallToolRequest{}
	req.Params = &mcp.CallToolParamsRaw{}
	_, err := server.handleSearch(context.Background(), req)
	assert.Error(t, err)
}

func TestHandleCrawl_ReturnsPages(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	result, err := server.handleCrawl(context.Background(), callRequest(t, map[string]any{
		"url":       "https://example.com",
		"max_depth": 2,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var crawlResult gateway.CrawlResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &crawlResult))

	assert.Equal(t, "https://example.com", crawlResult.BaseURL)
	assert.Equal(t, 1, crawlResult.PagesCrawled)
	assert.Equal(t, types.SourceAPI, crawlResult.Source)
}

func TestHandleExtract_ReturnsPagesPerURL(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	result, err := server.handleExtract(context.Background(), callRequest(t, map[string]any{
		"urls": []string{"https://example.com/a", "https://example.com/b"},
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var extractResult gateway.ExtractResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &extractResult))
	assert.Len(t, extractResult.Pages, 2)
}

func TestHandleMap_ReturnsURLs(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	result, err := server.handleMap(context.Background(), callRequest(t, map[string]any{
		"url": "https://example.com",
	}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var mapResult gateway.MapResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &mapResult))
	assert.Len(t, mapResult.URLs, 2)
}

func TestToolInvocationsAreCounted(t *testing.T) {
	server := newTestServer(t, &fakeProvider{})

	_, err := server.handleSearch(context.Background(), callRequest(t, map[string]any{"query": "q"}))
	require.NoError(t, err)
	_, err = server.handleMap(context.Background(), callRequest(t, map[string]any{"url": "https://example.com"}))
	require.NoError(t, err)

	stats := metrics.GetStats()
	require.NotNil(t, stats)
	assert.Equal(t, int64(1), stats[metrics.OperationSearch])
	assert.Equal(t, int64(1), stats[metrics.OperationMap])
}
