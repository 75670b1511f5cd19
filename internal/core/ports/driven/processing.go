package driven

import (
	"context"
	"io"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// ProcessingService is the remote service that parses and scores documents.
// Implementations translate these calls to the service's wire protocol and
// never retry; retry policy belongs to the caller.
type ProcessingService interface {
	// Submit uploads one file and returns the service's initial view of the
	// new job, including its confirmed identifier.
	Submit(ctx context.Context, file domain.FileUpload) (*domain.JobSnapshot, error)

	// ListAll returns every job the service currently holds.
	ListAll(ctx context.Context) ([]domain.JobSnapshot, error)

	// FetchText returns the extracted text of a parsed job.
	FetchText(ctx context.Context, id string) (string, error)

	// Remove deletes a job on the service. A job that is already gone is
	// not an error.
	Remove(ctx context.Context, id string) error

	// FetchArtifact streams a stored file. The caller must close it.
	FetchArtifact(ctx context.Context, id string, kind domain.ArtifactKind) (io.ReadCloser, error)
}
