package webintel

// Request and response shapes for the provider's JSON-over-HTTPS API. Field
// names follow the provider wire format exactly; normalization into gateway
// types happens in the orchestration layer.

// SearchRequest is the payload for POST /search.
type SearchRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth,omitempty"`
	Topic             string `json:"topic,omitempty"`
	MaxResults        int    `json:"max_results,omitempty"`
	IncludeAnswer     bool   `json:"include_answer,omitempty"`
	IncludeRawContent bool   `json:"include_raw_content,omitempty"`
}

// SearchResult is one entry of a search response.
type SearchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	RawContent string  `json:"raw_content,omitempty"`
}

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer,omitempty"`
	Results      []SearchResult `json:"results"`
	ResponseTime float64        `json:"response_time,omitempty"`
}

// CrawlRequest is the payload for POST /crawl.
type CrawlRequest struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxBreadth   int    `json:"max_breadth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// CrawlPage is one crawled page.
type CrawlPage struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

// CrawlResponse is the body of a successful POST /crawl.
type CrawlResponse struct {
	BaseURL      string      `json:"base_url"`
	Results      []CrawlPage `json:"results"`
	ResponseTime float64     `json:"response_time,omitempty"`
}

// ExtractRequest is the payload for POST /extract.
type ExtractRequest struct {
	URLs         []string `json:"urls"`
	ExtractDepth string   `json:"extract_depth,omitempty"`
}

// ExtractedPage is the extracted content of one URL.
type ExtractedPage struct {
	URL        string `json:"url"`
	RawContent string `json:"raw_content"`
}

// ExtractResponse is the body of a successful POST /extract. URLs the
// provider could not fetch land in FailedResults rather than failing the call.
type ExtractResponse struct {
	Results       []ExtractedPage `json:"results"`
	FailedResults []struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	} `json:"failed_results,omitempty"`
	ResponseTime float64 `json:"response_time,omitempty"`
}

// MapRequest is the payload for POST /map.
type MapRequest struct {
	URL          string `json:"url"`
	MaxDepth     int    `json:"max_depth,omitempty"`
	MaxBreadth   int    `json:"max_breadth,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// MapResponse is the body of a successful POST /map: the discovered URL graph
// flattened to a list.
type MapResponse struct {
	BaseURL      string   `json:"base_url"`
	Results      []string `json:"results"`
	ResponseTime float64  `json:"response_time,omitempty"`
}

// errorResponse is the provider's error envelope.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
	Detail string `json:"detail,omitempty"`
}
