package opensearch

import (
	"fmt"
	"strings"
	"time"

	"github.com/ca-srg/webgate/internal/types"
)

// ClassifyConnectionError maps a transport-level OpenSearch failure onto the
// gateway error taxonomy. Store failures are always ErrorTypeCache; the cache
// layer treats them as misses rather than propagating them.
func ClassifyConnectionError(err error) *types.GatewayError {
	errMsg := err.Error()

	if strings.Contains(errMsg, "timeout") {
		return types.NewRetryableGatewayError(types.ErrorTypeCache,
			"connection to the document store timed out", 5*time.Second)
	}

	if strings.Contains(errMsg, "connection refused") {
		return types.NewGatewayError(types.ErrorTypeCache,
			"document store refused the connection, check the endpoint URL and port")
	}

	if strings.Contains(errMsg, "no such host") {
		return types.NewGatewayError(types.ErrorTypeCache,
			"document store host not found, check the endpoint hostname")
	}

	return types.NewRetryableGatewayError(types.ErrorTypeCache,
		fmt.Sprintf("document store connection error: %v", err), 10*time.Second)
}
