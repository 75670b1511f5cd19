package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure fakeProcessing implements the interface.
var _ driven.ProcessingService = (*fakeProcessing)(nil)

// fakeProcessing is an in-memory processing service. Jobs it accepts stay
// "processing" until a test moves them on with setState. The hook fields
// override individual calls.
type fakeProcessing struct {
	mu      sync.Mutex
	seq     int
	order   []string
	jobs    map[string]domain.JobSnapshot
	texts   map[string]string
	calls   []string
	removed []string

	onSubmit  func(ctx context.Context, file domain.FileUpload) (*domain.JobSnapshot, error)
	onList    func(ctx context.Context) ([]domain.JobSnapshot, error)
	removeErr map[string]error
}

func newFakeProcessing() *fakeProcessing {
	return &fakeProcessing{
		jobs:      make(map[string]domain.JobSnapshot),
		texts:     make(map[string]string),
		removeErr: make(map[string]error),
	}
}

// seed adds a job the service already holds.
func (f *fakeProcessing) seed(snap domain.JobSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, snap.ID)
	f.jobs[snap.ID] = snap
}

func (f *fakeProcessing) setState(id string, state domain.JobState, score *float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := f.jobs[id]
	snap.State = state
	snap.Score = score
	f.jobs[id] = snap
}

func (f *fakeProcessing) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeProcessing) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeProcessing) removedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removed...)
}

func (f *fakeProcessing) Submit(ctx context.Context, file domain.FileUpload) (*domain.JobSnapshot, error) {
	f.record("submit " + file.Name)
	if f.onSubmit != nil {
		snap, err := f.onSubmit(ctx, file)
		if err != nil || snap == nil {
			return snap, err
		}
		f.seed(*snap)
		return snap, nil
	}

	f.mu.Lock()
	f.seq++
	snap := domain.JobSnapshot{
		ID:          fmt.Sprintf("srv-%d", f.seq),
		DisplayName: file.Name,
		Kind:        file.Kind(),
		State:       domain.JobStateProcessing,
	}
	f.mu.Unlock()
	f.seed(snap)
	return &snap, nil
}

func (f *fakeProcessing) ListAll(ctx context.Context) ([]domain.JobSnapshot, error) {
	f.record("list")
	if f.onList != nil {
		return f.onList(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.snapshots(), nil
}

// snapshots returns the service's current listing.
func (f *fakeProcessing) snapshots() []domain.JobSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]domain.JobSnapshot, 0, len(f.order))
	for _, id := range f.order {
		result = append(result, f.jobs[id])
	}
	return result
}

func (f *fakeProcessing) FetchText(_ context.Context, id string) (string, error) {
	f.record("text " + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.texts[id]
	if !ok {
		return "", domain.ErrNotFound
	}
	return text, nil
}

func (f *fakeProcessing) Remove(_ context.Context, id string) error {
	f.record("remove " + id)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeErr[id]; err != nil {
		return err
	}
	f.removed = append(f.removed, id)
	delete(f.jobs, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeProcessing) FetchArtifact(_ context.Context, id string, kind domain.ArtifactKind) (io.ReadCloser, error) {
	f.record(fmt.Sprintf("artifact %s %s", id, kind))
	return io.NopCloser(bytes.NewReader([]byte("%PDF-1.7"))), nil
}

// pdf returns a PDF upload named name.
func pdf(name string) domain.FileUpload {
	return domain.FileUpload{Name: name, ContentType: "application/pdf", Data: []byte("%PDF-1.7")}
}

// docx returns a DOCX upload named name.
func docx(name string) domain.FileUpload {
	return domain.FileUpload{
		Name:        name,
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Data:        []byte("PK"),
	}
}

func scorePtr(v float64) *float64 {
	return &v
}
