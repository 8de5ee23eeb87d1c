// Package gateway orchestrates the four mediated operations. Search is
// cache-first with a one-shot cache fallback when the provider throttles;
// crawl, extract and map always go to the provider. All provider traffic
// flows through the shared rate limiter and retry executor.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ca-srg/webgate/internal/cache"
	"github.com/ca-srg/webgate/internal/dedup"
	"github.com/ca-srg/webgate/internal/retry"
	"github.com/ca-srg/webgate/internal/types"
	"github.com/ca-srg/webgate/internal/webintel"
)

// Provider is the upstream web-intelligence API.
type Provider interface {
	Search(ctx context.Context, req *webintel.SearchRequest) (*webintel.SearchResponse, error)
	Crawl(ctx context.Context, req *webintel.CrawlRequest) (*webintel.CrawlResponse, error)
	Extract(ctx context.Context, req *webintel.ExtractRequest) (*webintel.ExtractResponse, error)
	Map(ctx context.Context, req *webintel.MapRequest) (*webintel.MapResponse, error)
}

// Gateway mediates caller requests against the provider and the cache.
type Gateway struct {
	provider Provider
	executor *retry.Executor
	cache    *cache.Gateway
}

// New builds a gateway. The cache may be nil, which disables cache lookups
// and writes entirely.
func New(provider Provider, executor *retry.Executor, cacheGateway *cache.Gateway) (*Gateway, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}
	if executor == nil {
		return nil, fmt.Errorf("retry executor cannot be nil")
	}
	return &Gateway{
		provider: provider,
		executor: executor,
		cache:    cacheGateway,
	}, nil
}

// Search resolves a query cache-first. When useCache is false the normal
// cache path is bypassed in both directions: no lookup, no write. A provider
// rate limit still triggers exactly one cache fallback read, regardless of
// useCache, before the error propagates.
func (g *Gateway) Search(ctx context.Context, query types.SearchQuery, useCache bool) (*SearchResult, error) {
	start := time.Now()

	if query.Text == "" {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "search query cannot be empty")
	}
	if query.Topic == "" {
		query.Topic = types.TopicGeneral
	}
	if query.Depth == "" {
		query.Depth = types.SearchDepthBasic
	}

	consultCache := useCache && g.cache != nil

	if consultCache {
		if hit := g.cache.CheckCache(ctx, query); hit != nil {
			recordCacheLookup(ctx, true)
			result := resultFromHit(query, hit, start)
			recordOperation(ctx, "search", types.SourceCache, time.Since(start), false)
			return result, nil
		}
		recordCacheLookup(ctx, false)
	}

	var resp *webintel.SearchResponse
	err := g.executor.Execute(ctx, func(attemptCtx context.Context) error {
		r, err := g.provider.Search(attemptCtx, &webintel.SearchRequest{
			Query:             query.Text,
			SearchDepth:       string(query.Depth),
			Topic:             string(query.Topic),
			MaxResults:        query.MaxResults,
			IncludeAnswer:     query.IncludeAnswer,
			IncludeRawContent: query.IncludeRawContent,
		})
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, "Search")

	if err != nil {
		// When the provider throttles, serve a cached answer if one exists,
		// even for callers that asked to bypass the cache. This runs once; a
		// second throttle in a row surfaces to the caller.
		if g.cache != nil && isRateLimited(err) {
			if hit := g.cache.CheckCache(ctx, query); hit != nil {
				log.Printf("provider rate limited, serving search from cache")
				result := resultFromHit(query, hit, start)
				recordOperation(ctx, "search", types.SourceCache, time.Since(start), false)
				return result, nil
			}
		}
		recordOperation(ctx, "search", types.SourceAPI, time.Since(start), true)
		return nil, err
	}

	items := make([]types.ResultItem, 0, len(resp.Results))
	for _, r := range resp.Results {
		items = append(items, types.ResultItem{
			Title:      r.Title,
			URL:        r.URL,
			Content:    r.Content,
			Score:      r.Score,
			RawContent: r.RawContent,
		})
	}
	items = dedup.Deduplicate(items)

	if consultCache {
		g.cache.StoreToCache(ctx, query, items)
	}

	recordOperation(ctx, "search", types.SourceAPI, time.Since(start), false)
	return &SearchResult{
		Query:           query.Text,
		Answer:          resp.Answer,
		Results:         items,
		Source:          types.SourceAPI,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// Crawl walks a site through the provider. Crawl output is never cached.
func (g *Gateway) Crawl(ctx context.Context, params CrawlParams) (*CrawlResult, error) {
	start := time.Now()

	if params.URL == "" {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "crawl base URL cannot be empty")
	}

	var resp *webintel.CrawlResponse
	err := g.executor.Execute(ctx, func(attemptCtx context.Context) error {
		r, err := g.provider.Crawl(attemptCtx, &webintel.CrawlRequest{
			URL:          params.URL,
			MaxDepth:     params.MaxDepth,
			MaxBreadth:   params.MaxBreadth,
			Limit:        params.Limit,
			Instructions: params.Instructions,
		})
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, "Crawl")

	if err != nil {
		recordOperation(ctx, "crawl", types.SourceAPI, time.Since(start), true)
		return nil, err
	}

	pages := make([]CrawledPage, 0, len(resp.Results))
	for _, p := range resp.Results {
		pages = append(pages, CrawledPage{URL: p.URL, RawContent: p.RawContent})
	}

	recordOperation(ctx, "crawl", types.SourceAPI, time.Since(start), false)
	return &CrawlResult{
		BaseURL:         resp.BaseURL,
		Pages:           pages,
		PagesCrawled:    len(pages),
		Source:          types.SourceAPI,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// Extract fetches page content for a batch of URLs. Never cached.
func (g *Gateway) Extract(ctx context.Context, params ExtractParams) (*ExtractResult, error) {
	start := time.Now()

	if len(params.URLs) == 0 {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "extract requires at least one URL")
	}

	var resp *webintel.ExtractResponse
	err := g.executor.Execute(ctx, func(attemptCtx context.Context) error {
		r, err := g.provider.Extract(attemptCtx, &webintel.ExtractRequest{
			URLs:         params.URLs,
			ExtractDepth: params.Depth,
		})
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, "Extract")

	if err != nil {
		recordOperation(ctx, "extract", types.SourceAPI, time.Since(start), true)
		return nil, err
	}

	pages := make([]CrawledPage, 0, len(resp.Results))
	for _, p := range resp.Results {
		pages = append(pages, CrawledPage{URL: p.URL, RawContent: p.RawContent})
	}
	failed := make([]FailedURL, 0, len(resp.FailedResults))
	for _, f := range resp.FailedResults {
		failed = append(failed, FailedURL{URL: f.URL, Error: f.Error})
	}

	recordOperation(ctx, "extract", types.SourceAPI, time.Since(start), false)
	return &ExtractResult{
		Pages:           pages,
		Failed:          failed,
		Source:          types.SourceAPI,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// MapSite discovers the URL graph of a site. Never cached.
func (g *Gateway) MapSite(ctx context.Context, params MapParams) (*MapResult, error) {
	start := time.Now()

	if params.URL == "" {
		return nil, types.NewGatewayError(types.ErrorTypeAPI, "map base URL cannot be empty")
	}

	var resp *webintel.MapResponse
	err := g.executor.Execute(ctx, func(attemptCtx context.Context) error {
		r, err := g.provider.Map(attemptCtx, &webintel.MapRequest{
			URL:          params.URL,
			MaxDepth:     params.MaxDepth,
			MaxBreadth:   params.MaxBreadth,
			Limit:        params.Limit,
			Instructions: params.Instructions,
		})
		if err != nil {
			return err
		}
		resp = r
		return nil
	}, "Map")

	if err != nil {
		recordOperation(ctx, "map", types.SourceAPI, time.Since(start), true)
		return nil, err
	}

	recordOperation(ctx, "map", types.SourceAPI, time.Since(start), false)
	return &MapResult{
		BaseURL:         resp.BaseURL,
		URLs:            resp.Results,
		Source:          types.SourceAPI,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func resultFromHit(query types.SearchQuery, hit *cache.Hit, start time.Time) *SearchResult {
	items := make([]types.ResultItem, 0, len(hit.Records))
	for _, rec := range hit.Records {
		item := types.ResultItem{
			Content: rec.Content,
			Score:   rec.Score,
		}
		if len(rec.SourceURLs) > 0 {
			item.URL = rec.SourceURLs[0]
		}
		items = append(items, item)
	}

	cachedAt := hit.CachedAt
	return &SearchResult{
		Query:           query.Text,
		Results:         items,
		Source:          types.SourceCache,
		CachedAt:        &cachedAt,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
	}
}

func isRateLimited(err error) bool {
	var gwErr *types.GatewayError
	return errors.As(err, &gwErr) && gwErr.Type == types.ErrorTypeRateLimit
}
