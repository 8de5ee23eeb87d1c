package types

import (
	"fmt"
	"time"
)

// SearchDepth selects how aggressively the provider digs into each page.
type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)

// Topic categorizes a query so the cache can pick an appropriate TTL.
// News content decays in relevance far faster than reference content.
type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
)

// ResultSource tags where an operation result came from.
type ResultSource string

const (
	SourceCache ResultSource = "cache"
	SourceAPI   ResultSource = "api"
)

// SearchQuery describes a single search request from an internal caller.
type SearchQuery struct {
	Text              string      `json:"text"`
	ScopeID           string      `json:"scope_id"`
	MaxResults        int         `json:"max_results"`
	Depth             SearchDepth `json:"depth"`
	Topic             Topic       `json:"topic"`
	IncludeAnswer     bool        `json:"include_answer"`
	IncludeRawContent bool        `json:"include_raw_content"`
}

// ResultItem is one normalized provider result.
type ResultItem struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	RawContent string  `json:"raw_content,omitempty"`
}

// CacheRecord is the unit persisted to the document store. It is created only
// on a successful API response with caching enabled and is read-only afterwards;
// staleness is computed at read time from FetchedAt and TTLHours. Removal of
// stale records is the job of an external cleanup process, not the gateway.
type CacheRecord struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	ContentHash string    `json:"content_hash"`
	FetchedAt   time.Time `json:"fetched_at"`
	TTLHours    float64   `json:"ttl_hours"`
	Query       string    `json:"query"`
	SourceURLs  []string  `json:"source_urls"`
	Topic       Topic     `json:"topic"`
	Score       float64   `json:"score"`
	ScopeID     string    `json:"scope_id"`
}

// Age returns how old the record is at the given instant.
func (r *CacheRecord) Age(now time.Time) time.Duration {
	return now.Sub(r.FetchedAt)
}

// IsStale reports whether the record has outlived its TTL.
func (r *CacheRecord) IsStale(now time.Time) bool {
	return r.Age(now) >= time.Duration(r.TTLHours*float64(time.Hour))
}

// RetryPolicy bounds a retried provider call.
type RetryPolicy struct {
	MaxAttempts    int           `json:"max_attempts"`
	AttemptTimeout time.Duration `json:"attempt_timeout"`
	BackoffBase    float64       `json:"backoff_base"`
}

// ErrorType classifies gateway failures.
type ErrorType string

const (
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeAPI       ErrorType = "api_error"
	ErrorTypeCache     ErrorType = "cache"
)

// GatewayError is the structured error surfaced by the gateway and its
// collaborators. Retryable drives the retry executor; RetryAfter is a hint
// from the provider when it signals throttling.
type GatewayError struct {
	Type       ErrorType     `json:"type"`
	Message    string        `json:"message"`
	StatusCode int           `json:"status_code,omitempty"`
	Retryable  bool          `json:"retryable"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *GatewayError) IsRetryable() bool {
	return e.Retryable
}

func NewGatewayError(errType ErrorType, message string) *GatewayError {
	return &GatewayError{
		Type:      errType,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now(),
	}
}

func NewRetryableGatewayError(errType ErrorType, message string, retryAfter time.Duration) *GatewayError {
	return &GatewayError{
		Type:       errType,
		Message:    message,
		Retryable:  true,
		RetryAfter: retryAfter,
		Timestamp:  time.Now(),
	}
}
