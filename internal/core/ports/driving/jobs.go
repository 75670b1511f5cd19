package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// JobService is the API the presentation layer drives.
type JobService interface {
	// SubmitBatch validates, orders and uploads files one after another.
	// Placeholder records appear in the registry before any upload starts.
	// Returns ErrEmptyBatch when files is empty. Per-file failures are
	// reported in the result, not as an error.
	SubmitBatch(ctx context.Context, files []domain.FileUpload) (*domain.BatchResult, error)

	// List returns the current job records in display order.
	List() []domain.Job

	// Version returns the registry change counter.
	Version() uint64

	// Refresh reloads the service's job list into the registry and starts
	// polling for every unfinished job.
	Refresh(ctx context.Context) error

	// Delete removes a job locally and on the service. Deleting an unknown
	// job succeeds.
	Delete(ctx context.Context, id string) error

	// DeleteAll deletes every job known locally or to the service.
	DeleteAll(ctx context.Context) (*domain.DeleteSummary, error)

	// FetchText returns the extracted text of a confirmed job.
	FetchText(ctx context.Context, id string) (string, error)

	// FetchArtifact streams the original upload or the converted PDF.
	FetchArtifact(ctx context.Context, id string, kind domain.ArtifactKind) (io.ReadCloser, error)

	// Wait blocks until every listed job is finished, stalled or gone.
	Wait(ctx context.Context, ids []string) error

	// Close stops all polling.
	Close()
}
