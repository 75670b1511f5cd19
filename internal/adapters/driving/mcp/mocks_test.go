package mcp

import (
	"context"
	"io"
	"strings"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// mockJobService is a mock implementation of driving.JobService.
type mockJobService struct {
	jobs []domain.Job
	text string
	err  error

	submitted  []domain.FileUpload
	result     *domain.BatchResult
	waited     []string
	waitErr    error
	refreshed  bool
	deletedID  string
	summary    *domain.DeleteSummary
	summaryErr error
}

func (m *mockJobService) SubmitBatch(_ context.Context, files []domain.FileUpload) (*domain.BatchResult, error) {
	m.submitted = files
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.BatchResult{}, nil
}

func (m *mockJobService) List() []domain.Job {
	return m.jobs
}

func (m *mockJobService) Version() uint64 {
	return 0
}

func (m *mockJobService) Refresh(_ context.Context) error {
	m.refreshed = true
	return m.err
}

func (m *mockJobService) Delete(_ context.Context, id string) error {
	m.deletedID = id
	return m.err
}

func (m *mockJobService) DeleteAll(_ context.Context) (*domain.DeleteSummary, error) {
	return m.summary, m.summaryErr
}

func (m *mockJobService) FetchText(_ context.Context, _ string) (string, error) {
	return m.text, m.err
}

func (m *mockJobService) FetchArtifact(_ context.Context, _ string, _ domain.ArtifactKind) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), m.err
}

func (m *mockJobService) Wait(_ context.Context, ids []string) error {
	m.waited = ids
	return m.waitErr
}

func (m *mockJobService) Close() {}

// Verify interface compliance.
var _ driving.JobService = (*mockJobService)(nil)
