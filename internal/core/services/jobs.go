package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// Ensure JobService implements the interface.
var _ driving.JobService = (*JobService)(nil)

// waitInterval is how often Wait re-reads the registry.
const waitInterval = 100 * time.Millisecond

// JobService admits batches, sequences uploads, reconciles identifiers and
// hands confirmed jobs to the poll supervisor.
type JobService struct {
	registry   driven.JobRegistry
	transport  driven.ProcessingService
	supervisor driving.PollSupervisor
	ids        *idGenerator
}

// NewJobService creates a job service.
func NewJobService(
	registry driven.JobRegistry,
	transport driven.ProcessingService,
	supervisor driving.PollSupervisor,
) *JobService {
	return &JobService{
		registry:   registry,
		transport:  transport,
		supervisor: supervisor,
		ids:        newIDGenerator(),
	}
}

// SubmitBatch validates, orders and uploads files one after another.
func (s *JobService) SubmitBatch(ctx context.Context, files []domain.FileUpload) (*domain.BatchResult, error) {
	if len(files) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	result := &domain.BatchResult{}
	accepted := make([]domain.FileUpload, 0, len(files))
	for _, f := range files {
		if !f.Kind().IsSupported() {
			verr := &domain.ValidationError{Name: f.Name, ContentType: f.ContentType}
			logger.Warn("rejected %s: %v", f.Name, verr)
			result.Rejected = append(result.Rejected, verr)
			continue
		}
		accepted = append(accepted, f)
	}
	if len(accepted) == 0 {
		return result, nil
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Name < accepted[j].Name
	})

	logger.Section("Upload")
	pending, err := s.insertPlaceholders(accepted)
	if err != nil {
		return result, err
	}

	for i, file := range accepted {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.failRemaining(result, accepted[i:], pending[i:], ctxErr)
			break
		}
		s.uploadOne(ctx, result, file, pending[i])
	}

	if err := s.Refresh(ctx); err != nil {
		result.RefreshErr = err
	}
	return result, nil
}

// insertPlaceholders adds every provisional record before any upload so
// the whole batch is visible at once. The first item shows as uploading.
func (s *JobService) insertPlaceholders(files []domain.FileUpload) ([]string, error) {
	base := s.registry.Len()
	pending := make([]string, len(files))
	for i, f := range files {
		state, progress := domain.JobStateQueued, 0
		if i == 0 {
			state, progress = domain.JobStateUploading, 5
		}
		job := domain.Job{
			ID:          s.ids.Next(),
			Provisional: true,
			DisplayName: f.Name,
			Kind:        f.Kind(),
			State:       state,
			Progress:    progress,
			OrderIndex:  i,
		}
		if err := s.registry.Insert(job, base+i); err != nil {
			return nil, fmt.Errorf("insert placeholder for %s: %w", f.Name, err)
		}
		pending[i] = job.ID
	}
	return pending, nil
}

// uploadOne sends a single file and reconciles its placeholder.
func (s *JobService) uploadOne(ctx context.Context, result *domain.BatchResult, file domain.FileUpload, provisionalID string) {
	if err := s.registry.Update(provisionalID, domain.StatePatch(domain.JobStateUploading, 10, "")); err != nil {
		// The user removed the placeholder before its turn.
		logger.Debug("skipping %s: %v", file.Name, err)
		return
	}

	logger.Info("uploading %s (%d bytes)", file.Name, len(file.Data))
	snap, err := s.transport.Submit(ctx, file)
	if err == nil && snap.ID == "" {
		err = errors.New("service returned no job identifier")
	}
	if err != nil {
		logger.Warn("upload of %s failed: %v", file.Name, err)
		failed := domain.StatePatch(domain.JobStateFailed, 0, "Upload failed: "+reason(err))
		if updErr := s.registry.Update(provisionalID, failed); updErr != nil {
			logger.Debug("placeholder for %s gone: %v", file.Name, updErr)
		}
		result.Failed = append(result.Failed, domain.FileFailure{JobID: provisionalID, Name: file.Name, Err: err})
		return
	}

	job, err := s.registry.ReplaceIdentifier(provisionalID, snap.ID, domain.PatchFromSnapshot(*snap))
	if errors.Is(err, domain.ErrNotFound) {
		// Deleted while uploading: honour the deletion on the service too.
		logger.Info("%s was deleted during upload, removing job %s", file.Name, snap.ID)
		if rmErr := s.transport.Remove(ctx, snap.ID); rmErr != nil {
			logger.Warn("remove job %s: %v", snap.ID, rmErr)
		}
		// A concurrent refresh may have listed it already.
		if rmErr := s.registry.Remove(snap.ID); rmErr == nil {
			s.supervisor.Cancel(snap.ID)
		}
		return
	}
	if err != nil {
		logger.Error("reconcile %s -> %s: %v", provisionalID, snap.ID, err)
		return
	}

	result.Confirmed = append(result.Confirmed, job.ID)
	logger.Info("%s confirmed as job %s", file.Name, job.ID)
	if job.State.IsPollable() {
		s.supervisor.Watch(job.ID)
	}
}

// failRemaining marks placeholders that will not be uploaded.
func (s *JobService) failRemaining(result *domain.BatchResult, files []domain.FileUpload, ids []string, cause error) {
	patch := domain.StatePatch(domain.JobStateFailed, 0, "Upload cancelled: "+cause.Error())
	for i, id := range ids {
		if err := s.registry.Update(id, patch); err != nil {
			continue
		}
		result.Failed = append(result.Failed, domain.FileFailure{JobID: id, Name: files[i].Name, Err: cause})
	}
}

// List returns the current job records in display order.
func (s *JobService) List() []domain.Job {
	return s.registry.List()
}

// Version returns the registry change counter.
func (s *JobService) Version() uint64 {
	return s.registry.Version()
}

// Refresh reloads the service's job list and starts polling unfinished jobs.
func (s *JobService) Refresh(ctx context.Context) error {
	since := s.registry.Version()
	snapshots, err := s.transport.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("refresh jobs: %w", err)
	}

	res := s.registry.Reconcile(since, snapshots)
	for _, id := range res.Dropped {
		s.supervisor.Cancel(id)
	}
	logger.Debug("refresh: %d added, %d updated, %d dropped", len(res.Added), len(res.Updated), len(res.Dropped))

	for _, job := range s.registry.List() {
		if !job.Provisional && job.State.IsPollable() {
			s.supervisor.Watch(job.ID)
		}
	}
	return nil
}

// Delete removes a job locally and on the service.
func (s *JobService) Delete(ctx context.Context, id string) error {
	job, known := s.registry.Find(id)
	if (known && job.Provisional) || (!known && isProvisionalID(id)) {
		// The service has never seen it.
		if err := s.registry.Remove(id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return nil
	}

	if err := s.transport.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete job %s: %w", id, err)
	}
	if err := s.registry.Remove(id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	s.supervisor.Cancel(id)
	logger.Info("deleted job %s", id)
	return nil
}

// DeleteAll deletes every job the service lists plus every local record.
// Per-job failures are counted, never returned. The returned error reports
// only a failed listing, in which case local records are still deleted.
func (s *JobService) DeleteAll(ctx context.Context) (*domain.DeleteSummary, error) {
	summary := &domain.DeleteSummary{Errors: make(map[string]error)}

	snapshots, listErr := s.transport.ListAll(ctx)
	if listErr != nil {
		listErr = fmt.Errorf("list jobs: %w", listErr)
		logger.Warn("delete all: %v; deleting local records only", listErr)
	}

	seen := make(map[string]bool)
	var targets []string
	for _, snap := range snapshots {
		if snap.ID != "" && !seen[snap.ID] {
			seen[snap.ID] = true
			targets = append(targets, snap.ID)
		}
	}
	for _, job := range s.registry.List() {
		if !seen[job.ID] {
			seen[job.ID] = true
			targets = append(targets, job.ID)
		}
	}

	for _, id := range targets {
		if err := s.Delete(ctx, id); err != nil {
			summary.Failed++
			summary.Errors[id] = err
			continue
		}
		summary.Deleted++
	}

	if listErr == nil {
		if err := s.Refresh(ctx); err != nil {
			logger.Warn("delete all: %v", err)
		}
	}
	return summary, listErr
}

// FetchText returns the extracted text of a confirmed job.
func (s *JobService) FetchText(ctx context.Context, id string) (string, error) {
	if err := s.requireConfirmed(id); err != nil {
		return "", err
	}
	text, err := s.transport.FetchText(ctx, id)
	if err != nil {
		return "", fmt.Errorf("fetch text for %s: %w", id, err)
	}
	return text, nil
}

// FetchArtifact streams the original upload or the converted PDF.
func (s *JobService) FetchArtifact(ctx context.Context, id string, kind domain.ArtifactKind) (io.ReadCloser, error) {
	if err := s.requireConfirmed(id); err != nil {
		return nil, err
	}
	if kind == domain.ArtifactConverted {
		if job, ok := s.registry.Find(id); ok && job.State == domain.JobStateCompleted && !job.HasConverted {
			return nil, fmt.Errorf("job %s has no converted PDF: %w", id, domain.ErrNotFound)
		}
	}
	rc, err := s.transport.FetchArtifact(ctx, id, kind)
	if err != nil {
		return nil, fmt.Errorf("fetch %s for %s: %w", kind, id, err)
	}
	return rc, nil
}

// Wait blocks until every listed job is finished, stalled, gone, or no
// longer polled.
func (s *JobService) Wait(ctx context.Context, ids []string) error {
	ticker := time.NewTicker(waitInterval)
	defer ticker.Stop()
	for {
		if s.settled(ids) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *JobService) settled(ids []string) bool {
	for _, id := range ids {
		job, ok := s.registry.Find(id)
		if !ok || job.Provisional || !job.State.IsPollable() {
			continue
		}
		if s.supervisor.Active(id) {
			return false
		}
	}
	return true
}

// Close stops all polling.
func (s *JobService) Close() {
	s.supervisor.Stop()
}

func (s *JobService) requireConfirmed(id string) error {
	if job, ok := s.registry.Find(id); ok && job.Provisional {
		return fmt.Errorf("job %s: %w", id, domain.ErrProvisional)
	}
	if isProvisionalID(id) {
		return fmt.Errorf("job %s: %w", id, domain.ErrProvisional)
	}
	return nil
}

func isProvisionalID(id string) bool {
	return strings.HasPrefix(id, provisionalPrefix)
}

// reason is the text shown on a failed row. Errors carrying a message meant
// for people, such as a service response, show that message.
func reason(err error) string {
	var presentable interface{ Message() string }
	if errors.As(err, &presentable) {
		return presentable.Message()
	}
	return err.Error()
}
