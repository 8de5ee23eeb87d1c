// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	env "github.com/netflix/go-env"
)

// Config holds every tunable of the gateway. Values come from environment
// variables; a .env file loaded by the command layer feeds the same names.
type Config struct {
	// Provider API
	WebIntelAPIKey  string `json:"-" env:"WEBINTEL_API_KEY,required=true"`
	WebIntelBaseURL string `json:"webintel_base_url" env:"WEBINTEL_BASE_URL,default=https://api.tavily.com"`

	// Admission control and retry policy for provider calls
	RateLimitPerMinute  int           `json:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE,default=60"`
	RetryMaxAttempts    int           `json:"retry_max_attempts" env:"RETRY_MAX_ATTEMPTS,default=3"`
	RetryAttemptTimeout time.Duration `json:"retry_attempt_timeout" env:"RETRY_ATTEMPT_TIMEOUT,default=30s"`
	RetryBackoffBase    float64       `json:"retry_backoff_base" env:"RETRY_BACKOFF_BASE,default=2.0"`

	// Semantic cache
	CacheEnabled             bool    `json:"cache_enabled" env:"CACHE_ENABLED,default=true"`
	CacheSimilarityThreshold float64 `json:"cache_similarity_threshold" env:"CACHE_SIMILARITY_THRESHOLD,default=0.85"`
	CacheTTLGeneralHours     float64 `json:"cache_ttl_general_hours" env:"CACHE_TTL_GENERAL_HOURS,default=24"`
	CacheTTLNewsHours        float64 `json:"cache_ttl_news_hours" env:"CACHE_TTL_NEWS_HOURS,default=1"`
	CacheCollectionPrefix    string  `json:"cache_collection_prefix" env:"CACHE_COLLECTION_PREFIX,default=webgate"`

	// Document store backend: "opensearch" or "s3vector"
	DocstoreBackend string `json:"docstore_backend" env:"DOCSTORE_BACKEND,default=opensearch"`

	// Embedding backend: "bedrock" or "voyage"
	EmbeddingProvider string `json:"embedding_provider" env:"EMBEDDING_PROVIDER,default=bedrock"`
	BedrockModelID    string `json:"bedrock_model_id" env:"BEDROCK_MODEL_ID,default=amazon.titan-embed-text-v2:0"`
	BedrockRegion     string `json:"bedrock_region" env:"BEDROCK_REGION,default=us-east-1"`
	VoyageAPIKey      string `json:"-" env:"VOYAGE_API_KEY"`
	VoyageAPIURL      string `json:"voyage_api_url" env:"VOYAGE_API_URL,default=https://api.voyageai.com/v1/embeddings"`
	VoyageModel       string `json:"voyage_model" env:"VOYAGE_MODEL,default=voyage-3-large"`

	// OpenSearch backend
	OpenSearchEndpoint          string        `json:"opensearch_endpoint" env:"OPENSEARCH_ENDPOINT"`
	OpenSearchRegion            string        `json:"opensearch_region" env:"OPENSEARCH_REGION,default=us-east-1"`
	OpenSearchInsecureSkipTLS   bool          `json:"opensearch_insecure_skip_tls" env:"OPENSEARCH_INSECURE_SKIP_TLS,default=false"`
	OpenSearchRateLimit         float64       `json:"opensearch_rate_limit" env:"OPENSEARCH_RATE_LIMIT,default=10.0"`
	OpenSearchRateBurst         int           `json:"opensearch_rate_burst" env:"OPENSEARCH_RATE_BURST,default=20"`
	OpenSearchConnectionTimeout time.Duration `json:"opensearch_connection_timeout" env:"OPENSEARCH_CONNECTION_TIMEOUT,default=30s"`
	OpenSearchRequestTimeout    time.Duration `json:"opensearch_request_timeout" env:"OPENSEARCH_REQUEST_TIMEOUT,default=60s"`
	OpenSearchMaxRetries        int           `json:"opensearch_max_retries" env:"OPENSEARCH_MAX_RETRIES,default=3"`
	OpenSearchRetryDelay        time.Duration `json:"opensearch_retry_delay" env:"OPENSEARCH_RETRY_DELAY,default=1s"`

	// S3 Vectors backend
	S3VectorBucket string `json:"s3_vector_bucket" env:"AWS_S3_VECTOR_BUCKET"`
	S3VectorRegion string `json:"s3_vector_region" env:"AWS_S3_VECTOR_REGION,default=us-east-1"`

	// MCP server
	MCPServerHost string `json:"mcp_server_host" env:"MCP_SERVER_HOST,default=localhost"`
	MCPServerPort int    `json:"mcp_server_port" env:"MCP_SERVER_PORT,default=8080"`

	// OpenTelemetry export
	OTelEnabled              bool          `json:"otel_enabled" env:"OTEL_ENABLED,default=false"`
	OTelServiceName          string        `json:"otel_service_name" env:"OTEL_SERVICE_NAME,default=webgate"`
	OTelExporterEndpoint     string        `json:"otel_exporter_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT,default=http://localhost:4318"`
	OTelExporterProtocol     string        `json:"otel_exporter_protocol" env:"OTEL_EXPORTER_OTLP_PROTOCOL,default=http/protobuf"`
	OTelMetricExportInterval time.Duration `json:"otel_metric_export_interval" env:"OTEL_METRIC_EXPORT_INTERVAL,default=60s"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var config Config

	_, err := env.UnmarshalFromEnviron(&config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// validateConfig validates configuration values and adjusts them to safe ranges.
func validateConfig(config *Config) error {
	if config.WebIntelAPIKey == "" {
		return fmt.Errorf("WEBINTEL_API_KEY is required")
	}

	if config.RateLimitPerMinute < 1 {
		config.RateLimitPerMinute = 60
	}
	if config.RateLimitPerMinute > 10000 {
		config.RateLimitPerMinute = 10000
	}

	if config.RetryMaxAttempts < 1 {
		config.RetryMaxAttempts = 1
	}
	if config.RetryMaxAttempts > 10 {
		config.RetryMaxAttempts = 10
	}

	if config.RetryBackoffBase < 1.0 {
		config.RetryBackoffBase = 2.0
	}

	if config.CacheSimilarityThreshold <= 0 || config.CacheSimilarityThreshold > 1 {
		return fmt.Errorf("CACHE_SIMILARITY_THRESHOLD must be in (0, 1], got %f", config.CacheSimilarityThreshold)
	}
	if config.CacheTTLGeneralHours <= 0 {
		return fmt.Errorf("CACHE_TTL_GENERAL_HOURS must be positive, got %f", config.CacheTTLGeneralHours)
	}
	if config.CacheTTLNewsHours <= 0 {
		return fmt.Errorf("CACHE_TTL_NEWS_HOURS must be positive, got %f", config.CacheTTLNewsHours)
	}

	switch config.DocstoreBackend {
	case "opensearch":
		if config.CacheEnabled {
			if err := validateOpenSearchConfig(config); err != nil {
				return fmt.Errorf("OpenSearch configuration validation failed: %w", err)
			}
		}
	case "s3vector":
		if config.CacheEnabled && config.S3VectorBucket == "" {
			return fmt.Errorf("AWS_S3_VECTOR_BUCKET is required for the s3vector backend")
		}
	default:
		return fmt.Errorf("DOCSTORE_BACKEND must be opensearch or s3vector, got %q", config.DocstoreBackend)
	}

	switch config.EmbeddingProvider {
	case "bedrock":
	case "voyage":
		if config.CacheEnabled && config.VoyageAPIKey == "" {
			return fmt.Errorf("VOYAGE_API_KEY is required for the voyage embedding provider")
		}
	default:
		return fmt.Errorf("EMBEDDING_PROVIDER must be bedrock or voyage, got %q", config.EmbeddingProvider)
	}

	return nil
}

// validateOpenSearchConfig validates OpenSearch-specific configuration.
func validateOpenSearchConfig(config *Config) error {
	if config.OpenSearchEndpoint == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT is required when the cache uses the opensearch backend")
	}

	parsedURL, err := url.Parse(config.OpenSearchEndpoint)
	if err != nil {
		return fmt.Errorf("invalid OPENSEARCH_ENDPOINT URL format: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT must include scheme (http:// or https://)")
	}
	if !strings.HasPrefix(parsedURL.Scheme, "http") {
		return fmt.Errorf("OPENSEARCH_ENDPOINT scheme must be http or https")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("OPENSEARCH_ENDPOINT must include a valid host")
	}

	if config.OpenSearchRegion == "" {
		return fmt.Errorf("OPENSEARCH_REGION is required when OpenSearch is enabled")
	}

	if config.OpenSearchRateLimit <= 0 {
		return fmt.Errorf("OPENSEARCH_RATE_LIMIT must be greater than 0")
	}
	if config.OpenSearchRateBurst <= 0 {
		return fmt.Errorf("OPENSEARCH_RATE_BURST must be greater than 0")
	}

	if config.OpenSearchMaxRetries < 0 {
		return fmt.Errorf("OPENSEARCH_MAX_RETRIES cannot be negative")
	}
	if config.OpenSearchMaxRetries > 10 {
		return fmt.Errorf("OPENSEARCH_MAX_RETRIES cannot exceed 10")
	}

	return nil
}
