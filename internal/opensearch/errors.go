package opensearch

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ca-srg/novelsearch/internal/types"
)

type SearchError struct {
	Type       types.ErrorType `json:"type"`
	Message    string          `json:"message"`
	StatusCode int             `json:"status_code,omitempty"`
	Retryable  bool            `json:"retryable"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (e *SearchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Type, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *SearchError) IsRetryable() bool {
	return e.Retryable
}

func NewSearchError(errType types.ErrorType, message string) *SearchError {
	return &SearchError{
		Type:      errType,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now(),
	}
}

// ClassifyHTTPError maps an engine-side HTTP status to a SearchError.
func ClassifyHTTPError(statusCode int, body string) *SearchError {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &SearchError{
			Type:       types.ErrorTypeConnection,
			Message:    "authentication to OpenSearch failed, check AWS credentials and IAM permissions",
			StatusCode: statusCode,
			Retryable:  false,
			Timestamp:  time.Now(),
		}
	case http.StatusNotFound:
		return &SearchError{
			Type:       types.ErrorTypeConnection,
			Message:    "index or endpoint not found",
			StatusCode: statusCode,
			Retryable:  false,
			Timestamp:  time.Now(),
		}
	case http.StatusRequestTimeout:
		return &SearchError{
			Type:       types.ErrorTypeNetworkTimeout,
			Message:    "request to OpenSearch timed out",
			StatusCode: statusCode,
			Retryable:  true,
			Timestamp:  time.Now(),
		}
	case http.StatusTooManyRequests:
		return &SearchError{
			Type:       types.ErrorTypeRateLimit,
			Message:    "OpenSearch rate limit reached",
			StatusCode: statusCode,
			Retryable:  true,
			Timestamp:  time.Now(),
		}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return &SearchError{
			Type:       types.ErrorTypeConnection,
			Message:    "OpenSearch cluster returned a server error",
			StatusCode: statusCode,
			Retryable:  true,
			Timestamp:  time.Now(),
		}
	default:
		return &SearchError{
			Type:       types.ErrorTypeUnknown,
			Message:    fmt.Sprintf("unexpected HTTP error from OpenSearch: %s", body),
			StatusCode: statusCode,
			Retryable:  statusCode >= 500,
			Timestamp:  time.Now(),
		}
	}
}

// ClassifyConnectionError maps a transport-level failure to a SearchError.
func ClassifyConnectionError(err error) *SearchError {
	errMsg := err.Error()

	if strings.Contains(errMsg, "timeout") {
		return &SearchError{
			Type:      types.ErrorTypeNetworkTimeout,
			Message:   "connection to OpenSearch timed out",
			Retryable: true,
			Timestamp: time.Now(),
		}
	}

	if strings.Contains(errMsg, "connection refused") {
		return &SearchError{
			Type:      types.ErrorTypeConnection,
			Message:   "connection to OpenSearch refused",
			Retryable: false,
			Timestamp: time.Now(),
		}
	}

	if strings.Contains(errMsg, "no such host") {
		return &SearchError{
			Type:      types.ErrorTypeConnection,
			Message:   "OpenSearch host not found",
			Retryable: false,
			Timestamp: time.Now(),
		}
	}

	return &SearchError{
		Type:      types.ErrorTypeConnection,
		Message:   fmt.Sprintf("connection error: %v", err),
		Retryable: true,
		Timestamp: time.Now(),
	}
}
