package webintel

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ca-srg/webgate/internal/types"
)

// classifyHTTPError maps a provider HTTP failure onto the gateway error
// taxonomy. Throttling and transient server errors are marked retryable;
// credential problems are configuration errors and never retried.
func classifyHTTPError(statusCode int, retryAfterHeader string, body []byte) *types.GatewayError {
	message := extractErrorMessage(body)

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if message == "" {
			message = "provider rejected the API key"
		}
		gwErr := types.NewGatewayError(types.ErrorTypeConfig, message)
		gwErr.StatusCode = statusCode
		return gwErr

	case http.StatusTooManyRequests:
		if message == "" {
			message = "provider rate limit exceeded"
		}
		gwErr := types.NewRetryableGatewayError(types.ErrorTypeRateLimit, message, parseRetryAfter(retryAfterHeader))
		gwErr.StatusCode = statusCode
		return gwErr

	case http.StatusRequestTimeout:
		if message == "" {
			message = "provider request timed out"
		}
		gwErr := types.NewRetryableGatewayError(types.ErrorTypeTimeout, message, 0)
		gwErr.StatusCode = statusCode
		return gwErr

	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		if message == "" {
			message = "provider server error"
		}
		gwErr := types.NewRetryableGatewayError(types.ErrorTypeAPI, message, 0)
		gwErr.StatusCode = statusCode
		return gwErr

	default:
		if message == "" {
			message = fmt.Sprintf("unexpected provider response: %s", string(body))
		}
		gwErr := types.NewGatewayError(types.ErrorTypeAPI, message)
		gwErr.StatusCode = statusCode
		return gwErr
	}
}

func extractErrorMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return envelope.Detail
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 10 * time.Second
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return 10 * time.Second
}
