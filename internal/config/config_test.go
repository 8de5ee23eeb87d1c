package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	return &Config{
		WebIntelAPIKey:           "tvly-test",
		WebIntelBaseURL:          "https://api.tavily.com",
		RateLimitPerMinute:       60,
		RetryMaxAttempts:         3,
		RetryBackoffBase:         2.0,
		CacheEnabled:             true,
		CacheSimilarityThreshold: 0.85,
		CacheTTLGeneralHours:     24,
		CacheTTLNewsHours:        1,
		DocstoreBackend:          "opensearch",
		EmbeddingProvider:        "bedrock",
		OpenSearchEndpoint:       "https://search.example.com",
		OpenSearchRegion:         "us-east-1",
		OpenSearchRateLimit:      10,
		OpenSearchRateBurst:      20,
		OpenSearchMaxRetries:     3,
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	cfg := validTestConfig()
	require.NoError(t, validateConfig(cfg))
}

func TestValidateConfig_ClampsRateAndRetry(t *testing.T) {
	cfg := validTestConfig()
	cfg.RateLimitPerMinute = 0
	cfg.RetryMaxAttempts = 99
	cfg.RetryBackoffBase = 0.5

	require.NoError(t, validateConfig(cfg))
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 10, cfg.RetryMaxAttempts)
	assert.Equal(t, 2.0, cfg.RetryBackoffBase)
}

func TestValidateConfig_RejectsBadThreshold(t *testing.T) {
	cfg := validTestConfig()
	cfg.CacheSimilarityThreshold = 1.5
	assert.Error(t, validateConfig(cfg))

	cfg.CacheSimilarityThreshold = 0
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_RejectsUnknownBackend(t *testing.T) {
	cfg := validTestConfig()
	cfg.DocstoreBackend = "postgres"
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_OpenSearchEndpointRequiredWhenCacheEnabled(t *testing.T) {
	cfg := validTestConfig()
	cfg.OpenSearchEndpoint = ""
	assert.Error(t, validateConfig(cfg))

	// With the cache off the store is never touched, so no endpoint needed.
	cfg.CacheEnabled = false
	assert.NoError(t, validateConfig(cfg))
}

func TestValidateConfig_EndpointFormat(t *testing.T) {
	cfg := validTestConfig()
	cfg.OpenSearchEndpoint = "search.example.com"
	assert.Error(t, validateConfig(cfg), "scheme is required")

	cfg.OpenSearchEndpoint = "ftp://search.example.com"
	assert.Error(t, validateConfig(cfg))
}

func TestValidateConfig_S3VectorBackend(t *testing.T) {
	cfg := validTestConfig()
	cfg.DocstoreBackend = "s3vector"
	cfg.S3VectorBucket = ""
	assert.Error(t, validateConfig(cfg))

	cfg.S3VectorBucket = "my-vectors"
	assert.NoError(t, validateConfig(cfg))
}

func TestValidateConfig_VoyageRequiresKey(t *testing.T) {
	cfg := validTestConfig()
	cfg.EmbeddingProvider = "voyage"
	assert.Error(t, validateConfig(cfg))

	cfg.VoyageAPIKey = "vk-test"
	assert.NoError(t, validateConfig(cfg))
}

func TestLoad_MissingAPIKeyFails(t *testing.T) {
	t.Setenv("WEBINTEL_API_KEY", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_DefaultsApplied(t *testing.T) {
	t.Setenv("WEBINTEL_API_KEY", "tvly-test")
	t.Setenv("CACHE_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.tavily.com", cfg.WebIntelBaseURL)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.Equal(t, 3, cfg.RetryMaxAttempts)
	assert.InDelta(t, 0.85, cfg.CacheSimilarityThreshold, 1e-9)
	assert.InDelta(t, 24.0, cfg.CacheTTLGeneralHours, 1e-9)
	assert.InDelta(t, 1.0, cfg.CacheTTLNewsHours, 1e-9)
	assert.Equal(t, "opensearch", cfg.DocstoreBackend)
	assert.Equal(t, "bedrock", cfg.EmbeddingProvider)
	assert.Equal(t, "webgate", cfg.OTelServiceName)
}
