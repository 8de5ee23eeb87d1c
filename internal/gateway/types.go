package gateway

import (
	"time"

	"github.com/ca-srg/webgate/internal/types"
)

// SearchResult is the response of a mediated search. Source records whether
// it was served from the cache or from a live provider call.
type SearchResult struct {
	Query           string             `json:"query"`
	Answer          string             `json:"answer,omitempty"`
	Results         []types.ResultItem `json:"results"`
	Source          types.ResultSource `json:"source"`
	CachedAt        *time.Time         `json:"cached_at,omitempty"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
}

// CrawlParams configures a site crawl.
type CrawlParams struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxBreadth   int    `json:"max_breadth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// CrawledPage is one page fetched during a crawl.
type CrawledPage struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

// CrawlResult is the response of a crawl. Crawls always go to the provider.
type CrawlResult struct {
	BaseURL         string             `json:"base_url"`
	Pages           []CrawledPage      `json:"pages"`
	PagesCrawled    int                `json:"pages_crawled"`
	Source          types.ResultSource `json:"source"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
}

// ExtractParams configures a content extraction over a batch of URLs.
type ExtractParams struct {
	URLs  []string `json:"urls"`
	Depth string   `json:"depth,omitempty"`
}

// FailedURL records a URL the provider could not extract.
type FailedURL struct {
	URL   string `json:"url"`
	Error string `json:"error"`
}

// ExtractResult is the response of an extraction.
type ExtractResult struct {
	Pages           []CrawledPage      `json:"pages"`
	Failed          []FailedURL        `json:"failed,omitempty"`
	Source          types.ResultSource `json:"source"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
}

// MapParams configures a site map discovery.
type MapParams struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxBreadth   int    `json:"max_breadth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// MapResult is the response of a site map discovery.
type MapResult struct {
	BaseURL         string             `json:"base_url"`
	URLs            []string           `json:"urls"`
	Source          types.ResultSource `json:"source"`
	ExecutionTimeMs int64              `json:"execution_time_ms"`
}
