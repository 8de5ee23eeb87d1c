package gateway

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ca-srg/webgate/internal/types"
)

var (
	gatewayMetricsOnce sync.Once
	requestCounter     metric.Int64Counter
	cacheHitCounter    metric.Int64Counter
	cacheMissCounter   metric.Int64Counter
	errorCounter       metric.Int64Counter
	latencyHistogram   metric.Float64Histogram
)

func initGatewayMetrics() {
	gatewayMetricsOnce.Do(func() {
		meter := otel.Meter("webgate/gateway")

		var err error
		requestCounter, err = meter.Int64Counter(
			"webgate.gateway.requests.total",
			metric.WithDescription("Total gateway operations handled"),
		)
		if err != nil {
			log.Printf("observability: failed to create request counter: %v", err)
		}

		cacheHitCounter, err = meter.Int64Counter(
			"webgate.gateway.cache.hits.total",
			metric.WithDescription("Search requests served from the cache"),
		)
		if err != nil {
			log.Printf("observability: failed to create cache hit counter: %v", err)
		}

		cacheMissCounter, err = meter.Int64Counter(
			"webgate.gateway.cache.misses.total",
			metric.WithDescription("Search requests that missed the cache"),
		)
		if err != nil {
			log.Printf("observability: failed to create cache miss counter: %v", err)
		}

		errorCounter, err = meter.Int64Counter(
			"webgate.gateway.errors.total",
			metric.WithDescription("Total gateway operation errors"),
		)
		if err != nil {
			log.Printf("observability: failed to create error counter: %v", err)
		}

		latencyHistogram, err = meter.Float64Histogram(
			"webgate.gateway.response_time",
			metric.WithDescription("Gateway operation time (ms)"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			log.Printf("observability: failed to create latency histogram: %v", err)
		}
	})
}

func recordOperation(ctx context.Context, operation string, source types.ResultSource, duration time.Duration, hadError bool) {
	initGatewayMetrics()

	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("source", string(source)),
	}

	if requestCounter != nil {
		requestCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if latencyHistogram != nil {
		latencyHistogram.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	}
	if hadError && errorCounter != nil {
		errorCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func recordCacheLookup(ctx context.Context, hit bool) {
	initGatewayMetrics()

	if hit {
		if cacheHitCounter != nil {
			cacheHitCounter.Add(ctx, 1)
		}
		return
	}
	if cacheMissCounter != nil {
		cacheMissCounter.Add(ctx, 1)
	}
}
