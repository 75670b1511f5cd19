package httpapi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

func TestAPIError_Message(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"error field", `{"error":"Job not found"}`, "Job not found"},
		{"detail field", `{"detail":"Method Not Allowed"}`, "Method Not Allowed"},
		{"plain text", "  upstream timed out \n", "upstream timed out"},
		{"empty", "", "(empty response)"},
		{"validation detail list", `{"detail":[{"loc":["body","file"]}]}`, `{"detail":[{"loc":["body","file"]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &APIError{StatusCode: 400, Body: tt.body}
			assert.Equal(t, tt.expected, err.Message())
		})
	}
}

func TestAPIError_ErrorKeepsBodyVerbatim(t *testing.T) {
	err := &APIError{StatusCode: 404, Body: `{"error":"Job not found"}`, URL: "http://x/jobs/a"}

	assert.Equal(t, `processing service: 404 Not Found: {"error":"Job not found"}`, err.Error())
	assert.Equal(t, "Job not found", err.Message())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("wrapped: %w", &APIError{StatusCode: 404})))
	assert.False(t, IsNotFound(&APIError{StatusCode: 500}))
	assert.False(t, IsNotFound(errors.New("404")))
	assert.False(t, IsNotFound(nil))
}

func TestAPIError_IsServiceUnavailable(t *testing.T) {
	for _, code := range []int{429, 502, 503, 504} {
		err := fmt.Errorf("list jobs: %w", &APIError{StatusCode: code})
		assert.True(t, errors.Is(err, domain.ErrServiceUnavailable), "status %d", code)
	}
	for _, code := range []int{400, 404, 500} {
		assert.False(t, errors.Is(&APIError{StatusCode: code}, domain.ErrServiceUnavailable), "status %d", code)
	}
	assert.False(t, errors.Is(&APIError{StatusCode: 503}, domain.ErrNotFound))
}
