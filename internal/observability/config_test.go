package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	rootconfig "github.com/ca-srg/webgate/internal/config"
)

func TestInitExportsToOTLPHTTP(t *testing.T) {
	var traceRequests atomic.Int32
	var metricRequests atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/traces":
			traceRequests.Add(1)
		case "/v1/metrics":
			metricRequests.Add(1)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	cfg := &rootconfig.Config{
		OTelEnabled:          true,
		OTelServiceName:      "webgate-test",
		OTelExporterEndpoint: server.URL,
		OTelExporterProtocol: "http/protobuf",
	}

	shutdown, err := Init(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	_, span := otel.Tracer("webgate/test").Start(ctx, "integration-span")
	span.End()

	meter := otel.Meter("webgate/test")
	counter, err := meter.Int64Counter("webgate.test.counter", metric.WithDescription("test counter"))
	require.NoError(t, err)
	counter.Add(ctx, 1)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, shutdown(shutdownCtx))

	require.GreaterOrEqual(t, traceRequests.Load(), int32(1), "no trace export received")
	require.GreaterOrEqual(t, metricRequests.Load(), int32(1), "no metric export received")
}

func TestValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "webgate", cfg.ServiceName)
	assert.Equal(t, "http/protobuf", cfg.ExporterProtocol)
	assert.Equal(t, 60*time.Second, cfg.MetricExportInterval)
	assert.Equal(t, "webgate", cfg.ResourceAttributes["service.name"])
}

func TestValidate_EnabledRequiresEndpoint(t *testing.T) {
	cfg := &Config{Enabled: true}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownProtocol(t *testing.T) {
	cfg := &Config{
		Enabled:          true,
		ExporterEndpoint: "http://localhost:4318",
		ExporterProtocol: "thrift",
	}
	assert.Error(t, cfg.Validate())
}

func TestNormalizeOTLPHTTPPath(t *testing.T) {
	endpoint, err := normalizeOTLPHTTPPath("http://localhost:4318", "/v1/traces")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4318/v1/traces", endpoint)

	endpoint, err = normalizeOTLPHTTPPath("http://localhost:4318/v1/traces", "/v1/traces")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4318/v1/traces", endpoint)
}
