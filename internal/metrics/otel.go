package metrics

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	otelMetricsOnce       sync.Once
	otelRegistrationError error
)

// InitOTelMetrics registers an observable gauge that reports cumulative
// invocation totals from SQLite. Call after the meter provider is installed.
func InitOTelMetrics() error {
	otelMetricsOnce.Do(func() {
		meter := otel.Meter("webgate/metrics")

		_, err := meter.Int64ObservableGauge(
			"webgate.invocations.total",
			metric.WithDescription("Cumulative total invocations by operation (search, crawl, extract, map)"),
			metric.WithUnit("{invocations}"),
			metric.WithInt64Callback(invocationCallback),
		)
		if err != nil {
			log.Printf("metrics: failed to create invocation gauge: %v", err)
			otelRegistrationError = err
			return
		}
	})
	return otelRegistrationError
}

func invocationCallback(_ context.Context, observer metric.Int64Observer) error {
	stats := GetStats()
	if stats == nil {
		for _, op := range []Operation{OperationSearch, OperationCrawl, OperationExtract, OperationMap} {
			observer.Observe(0, metric.WithAttributes(
				attribute.String("operation", string(op)),
			))
		}
		return nil
	}

	for op, count := range stats {
		observer.Observe(count, metric.WithAttributes(
			attribute.String("operation", string(op)),
		))
	}
	return nil
}

// ResetOTelForTesting resets the OTel initialization state for tests.
func ResetOTelForTesting() {
	otelMetricsOnce = sync.Once{}
	otelRegistrationError = nil
}
