package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

func TestExtractJobID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{"valid job text URI", "docflow://jobs/job-123/text", "job-123"},
		{"invalid prefix", "file://jobs/job-123/text", ""},
		{"missing text suffix", "docflow://jobs/job-123", ""},
		{"nested path", "docflow://jobs/a/b/text", ""},
		{"empty URI", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJobID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleJobsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("empty registry", func(t *testing.T) {
		server := newTestServer(t, &mockJobService{})

		result, err := server.handleJobsResource(ctx, makeReadResourceRequest("docflow://jobs"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
	})

	t.Run("lists jobs", func(t *testing.T) {
		mock := &mockJobService{jobs: []domain.Job{
			{ID: "job-1", DisplayName: "a.pdf", Kind: domain.KindPDF, State: domain.JobStateProcessing, Progress: 45},
		}}
		server := newTestServer(t, mock)

		result, err := server.handleJobsResource(ctx, makeReadResourceRequest("docflow://jobs"))
		require.NoError(t, err)

		var jobs []JobOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &jobs))
		require.Len(t, jobs, 1)
		assert.Equal(t, "job-1", jobs[0].ID)
		assert.Equal(t, 45, jobs[0].Progress)
		assert.Equal(t, "Processing...", jobs[0].Status)
	})
}

func TestServer_handleJobTextResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns text", func(t *testing.T) {
		server := newTestServer(t, &mockJobService{text: "Extracted"})

		result, err := server.handleJobTextResource(ctx, makeReadResourceRequest("docflow://jobs/job-1/text"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "Extracted", result.Contents[0].Text)
		assert.Equal(t, "text/plain", result.Contents[0].MIMEType)
	})

	t.Run("bad URI is not found", func(t *testing.T) {
		server := newTestServer(t, &mockJobService{})

		_, err := server.handleJobTextResource(ctx, makeReadResourceRequest("docflow://jobs/"))

		assert.Error(t, err)
	})

	t.Run("fetch error", func(t *testing.T) {
		server := newTestServer(t, &mockJobService{err: errors.New("gone")})

		_, err := server.handleJobTextResource(ctx, makeReadResourceRequest("docflow://jobs/job-1/text"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting job text")
	})
}
