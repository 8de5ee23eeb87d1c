package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ca-srg/webgate/internal/gateway"
	"github.com/ca-srg/webgate/internal/metrics"
	"github.com/ca-srg/webgate/internal/types"
)

type searchArgs struct {
	Query             string `json:"query"`
	ScopeID           string `json:"scope_id,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	SearchDepth       string `json:"search_depth,omitempty"`
	Topic             string `json:"topic,omitempty"`
	IncludeAnswer     bool   `json:"include_answer,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
	UseCache          *bool  `json:"use_cache,omitempty"`
}

type crawlArgs struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxBreadth   int    `json:"max_breadth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

type extractArgs struct {
	URLs  []string `json:"urls"`
	Depth string   `json:"depth,omitempty"`
}

type mapArgs struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxBreadth   int    `json:"max_breadth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

func (s *Server) registerTools() {
	s.sdkServer.AddTool(&mcp.Tool{
		Name:        "web_search",
		Description: "Search the web. Results are served from the semantic cache when a similar recent query exists, otherwise from the live provider.",
		InputSchema: searchInputSchema(),
	}, s.handleSearch)

	s.sdkServer.AddTool(&mcp.Tool{
		Name:        "web_crawl",
		Description: "Crawl a website starting from a base URL and return the raw content of discovered pages.",
		InputSchema: crawlInputSchema(),
	}, s.handleCrawl)

	s.sdkServer.AddTool(&mcp.Tool{
		Name:        "web_extract",
		Description: "Extract page content from a batch of URLs.",
		InputSchema: extractInputSchema(),
	}, s.handleExtract)

	s.sdkServer.AddTool(&mcp.Tool{
		Name:        "web_map",
		Description: "Discover the URL structure of a website starting from a base URL.",
		InputSchema: mapInputSchema(),
	}, s.handleMap)
}

func searchInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {
				Type:        "string",
				Description: "Search query text",
			},
			"scope_id": {
				Type:        "string",
				Description: "Cache namespace; results cached under one scope are never served to another",
			},
			"max_results": {
				Type:        "integer",
				Description: "Maximum number of results to return",
			},
			"search_depth": {
				Type:        "string",
				Description: "Search depth",
				Enum:        []any{"basic", "advanced"},
			},
			"topic": {
				Type:        "string",
				Description: "Search topic; news results are cached for a shorter period",
				Enum:        []any{"general", "news"},
			},
			"include_answer": {
				Type:        "boolean",
				Description: "Include a synthesized answer in the response",
			},
			"include_raw_content": {
				Type:        "boolean",
				Description: "Include raw page content in the results",
			},
			"use_cache": {
				Type:        "boolean",
				Description: "Consult and populate the semantic cache (default true)",
			},
		},
		Required: []string{"query"},
	}
}

func crawlInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {
				Type:        "string",
				Description: "Base URL to start crawling from",
			},
			"max_depth": {
				Type:        "integer",
				Description: "Maximum link depth from the base URL",
			},
			"max_breadth": {
				Type:        "integer",
				Description: "Maximum number of links to follow per page",
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of pages to crawl",
			},
			"instructions": {
				Type:        "string",
				Description: "Natural language guidance for the crawler",
			},
		},
		Required: []string{"url"},
	}
}

func extractInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"urls": {
				Type:        "array",
				Description: "URLs to extract content from",
				Items:       &jsonschema.Schema{Type: "string"},
			},
			"depth": {
				Type:        "string",
				Description: "Extraction depth",
				Enum:        []any{"basic", "advanced"},
			},
		},
		Required: []string{"urls"},
	}
}

func mapInputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url": {
				Type:        "string",
				Description: "Base URL to map from",
			},
			"max_depth": {
				Type:        "integer",
				Description: "Maximum link depth from the base URL",
			},
			"max_breadth": {
				Type:        "integer",
				Description: "Maximum number of links to follow per page",
			},
			"limit": {
				Type:        "integer",
				Description: "Maximum number of URLs to return",
			},
			"instructions": {
				Type:        "string",
				Description: "Natural language guidance for the mapper",
			},
		},
		Required: []string{"url"},
	}
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args searchArgs
	if err := unmarshalArgs(req, &args); err != nil {
		return nil, err
	}

	metrics.RecordInvocation(metrics.OperationSearch)

	useCache := true
	if args.UseCache != nil {
		useCache = *args.UseCache
	}

	query := types.SearchQuery{
		Text:              args.Query,
		ScopeID:           args.ScopeID,
		MaxResults:        args.MaxResults,
		Depth:             types.SearchDepth(args.SearchDepth),
		Topic:             types.Topic(args.Topic),
		IncludeAnswer:     args.IncludeAnswer,
		IncludeRawContent: args.IncludeRawContent,
	}

	result, err := s.gw.Search(ctx, query, useCache)
	if err != nil {
		s.logger.Printf("web_search failed: %v", err)
		return errorResult(err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleCrawl(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args crawlArgs
	if err := unmarshalArgs(req, &args); err != nil {
		return nil, err
	}

	metrics.RecordInvocation(metrics.OperationCrawl)

	result, err := s.gw.Crawl(ctx, gateway.CrawlParams{
		URL:          args.URL,
		MaxDepth:     args.MaxDepth,
		MaxBreadth:   args.MaxBreadth,
		Limit:        args.Limit,
		Instructions: args.Instructions,
	})
	if err != nil {
		s.logger.Printf("web_crawl failed: %v", err)
		return errorResult(err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleExtract(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args extractArgs
	if err := unmarshalArgs(req, &args); err != nil {
		return nil, err
	}

	metrics.RecordInvocation(metrics.OperationExtract)

	result, err := s.gw.Extract(ctx, gateway.ExtractParams{
		URLs:  args.URLs,
		Depth: args.Depth,
	})
	if err != nil {
		s.logger.Printf("web_extract failed: %v", err)
		return errorResult(err), nil
	}
	return jsonResult(result)
}

func (s *Server) handleMap(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args mapArgs
	if err := unmarshalArgs(req, &args); err != nil {
		return nil, err
	}

	metrics.RecordInvocation(metrics.OperationMap)

	result, err := s.gw.MapSite(ctx, gateway.MapParams{
		URL:          args.URL,
		MaxDepth:     args.MaxDepth,
		MaxBreadth:   args.MaxBreadth,
		Limit:        args.Limit,
		Instructions: args.Instructions,
	})
	if err != nil {
		s.logger.Printf("web_map failed: %v", err)
		return errorResult(err), nil
	}
	return jsonResult(result)
}

func unmarshalArgs(req *mcp.CallToolRequest, out any) error {
	if req.Params.Arguments == nil {
		return fmt.Errorf("tool arguments are required")
	}
	if err := json.Unmarshal(req.Params.Arguments, out); err != nil {
		return fmt.Errorf("failed to unmarshal tool arguments: %w", err)
	}
	return nil
}

// jsonResult renders the gateway response as a single JSON text block.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// errorResult reports a failed tool call to the client without tearing down
// the protocol session.
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
