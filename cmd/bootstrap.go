package cmd

import (
	"context"
	"fmt"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"

	"github.com/ca-srg/webgate/internal/cache"
	appconfig "github.com/ca-srg/webgate/internal/config"
	"github.com/ca-srg/webgate/internal/docstore"
	"github.com/ca-srg/webgate/internal/embedding"
	"github.com/ca-srg/webgate/internal/embedding/bedrock"
	"github.com/ca-srg/webgate/internal/embedding/voyage"
	"github.com/ca-srg/webgate/internal/gateway"
	"github.com/ca-srg/webgate/internal/metrics"
	"github.com/ca-srg/webgate/internal/observability"
	"github.com/ca-srg/webgate/internal/opensearch"
	"github.com/ca-srg/webgate/internal/ratelimit"
	"github.com/ca-srg/webgate/internal/retry"
	"github.com/ca-srg/webgate/internal/types"
	"github.com/ca-srg/webgate/internal/webintel"
)

// setupRuntime loads configuration and initializes the shared runtime
// services (invocation metrics, OpenTelemetry export). The returned cleanup
// flushes exporters and must be deferred by the caller.
func setupRuntime(ctx context.Context) (*appconfig.Config, func(), error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := appconfig.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := metrics.Init(); err != nil {
		log.Printf("invocation metrics disabled: %v", err)
	}

	shutdown, err := observability.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	if err := metrics.InitOTelMetrics(); err != nil {
		log.Printf("invocation gauge disabled: %v", err)
	}

	cleanup := func() {
		if err := shutdown(ctx); err != nil {
			log.Printf("observability shutdown failed: %v", err)
		}
		if err := metrics.Close(); err != nil {
			log.Printf("failed to close metrics store: %v", err)
		}
	}
	return cfg, cleanup, nil
}

// buildGateway wires the provider client, rate limiter, retry executor and
// cache into a ready gateway.
func buildGateway(ctx context.Context, cfg *appconfig.Config) (*gateway.Gateway, error) {
	provider, err := webintel.NewClient(cfg.WebIntelAPIKey, cfg.WebIntelBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}

	limiter := ratelimit.New(cfg.RateLimitPerMinute)
	executor := retry.NewExecutor(limiter, types.RetryPolicy{
		MaxAttempts:    cfg.RetryMaxAttempts,
		AttemptTimeout: cfg.RetryAttemptTimeout,
		BackoffBase:    cfg.RetryBackoffBase,
	})

	var cacheGateway *cache.Gateway
	if cfg.CacheEnabled {
		cacheGateway, err = buildCache(ctx, cfg)
		if err != nil {
			return nil, err
		}
	} else {
		log.Printf("semantic cache disabled by configuration")
	}

	return gateway.New(provider, executor, cacheGateway)
}

func buildCache(ctx context.Context, cfg *appconfig.Config) (*cache.Gateway, error) {
	embedder, err := buildEmbedder(ctx, cfg)
	if err != nil {
		return nil, err
	}

	_, dimension, err := embedder.GetModelInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve embedding model: %w", err)
	}

	store, err := buildDocStore(cfg, dimension)
	if err != nil {
		return nil, err
	}

	return cache.New(store, embedder, cache.Options{
		CollectionPrefix:    cfg.CacheCollectionPrefix,
		SimilarityThreshold: cfg.CacheSimilarityThreshold,
		TTLGeneralHours:     cfg.CacheTTLGeneralHours,
		TTLNewsHours:        cfg.CacheTTLNewsHours,
	})
}

func buildEmbedder(ctx context.Context, cfg *appconfig.Config) (embedding.Client, error) {
	switch cfg.EmbeddingProvider {
	case "bedrock":
		awsConfig, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.BedrockRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return bedrock.NewClient(awsConfig, cfg.BedrockModelID), nil
	case "voyage":
		return voyage.NewClient(cfg.VoyageAPIKey, cfg.VoyageAPIURL, cfg.VoyageModel), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func buildDocStore(cfg *appconfig.Config, dimension int) (docstore.DocumentStore, error) {
	switch cfg.DocstoreBackend {
	case "opensearch":
		osClient, err := opensearch.NewClient(&opensearch.Config{
			Endpoint:          cfg.OpenSearchEndpoint,
			Region:            cfg.OpenSearchRegion,
			InsecureSkipTLS:   cfg.OpenSearchInsecureSkipTLS,
			RateLimit:         cfg.OpenSearchRateLimit,
			RateBurst:         cfg.OpenSearchRateBurst,
			ConnectionTimeout: cfg.OpenSearchConnectionTimeout,
			RequestTimeout:    cfg.OpenSearchRequestTimeout,
			MaxRetries:        cfg.OpenSearchMaxRetries,
			RetryDelay:        cfg.OpenSearchRetryDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
		}
		return docstore.NewOpenSearchStore(osClient, dimension)
	case "s3vector":
		return docstore.NewS3VectorStore(&docstore.S3VectorConfig{
			VectorBucketName: cfg.S3VectorBucket,
			Region:           cfg.S3VectorRegion,
			Dimension:        dimension,
		})
	default:
		return nil, fmt.Errorf("unknown docstore backend: %s", cfg.DocstoreBackend)
	}
}
