package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// APIError is a non-2xx response from the processing service.
// Body holds the response body verbatim.
type APIError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("processing service: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Is reports rate limiting and gateway failures as
// domain.ErrServiceUnavailable.
func (e *APIError) Is(target error) bool {
	if target != domain.ErrServiceUnavailable {
		return false
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// Message returns the service's "error" or "detail" field when the body is
// JSON, otherwise the trimmed body.
func (e *APIError) Message() string {
	var payload struct {
		Error  string `json:"error"`
		Detail any    `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return "(empty response)"
	}
	return body
}

// IsNotFound checks if the error is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}
