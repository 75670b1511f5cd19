package jobs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

// mockJobService implements driving.JobService for testing.
type mockJobService struct {
	SubmitBatchFunc func(ctx context.Context, files []domain.FileUpload) (*domain.BatchResult, error)
	RefreshFunc     func(ctx context.Context) error
	DeleteFunc      func(ctx context.Context, id string) error
	DeleteAllFunc   func(ctx context.Context) (*domain.DeleteSummary, error)
}

func (m *mockJobService) SubmitBatch(ctx context.Context, files []domain.FileUpload) (*domain.BatchResult, error) {
	if m.SubmitBatchFunc != nil {
		return m.SubmitBatchFunc(ctx, files)
	}
	return &domain.BatchResult{}, nil
}

func (m *mockJobService) List() []domain.Job { return nil }

func (m *mockJobService) Version() uint64 { return 0 }

func (m *mockJobService) Refresh(ctx context.Context) error {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx)
	}
	return nil
}

func (m *mockJobService) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockJobService) DeleteAll(ctx context.Context) (*domain.DeleteSummary, error) {
	if m.DeleteAllFunc != nil {
		return m.DeleteAllFunc(ctx)
	}
	return &domain.DeleteSummary{}, nil
}

func (m *mockJobService) FetchText(context.Context, string) (string, error) { return "", nil }

func (m *mockJobService) FetchArtifact(context.Context, string, domain.ArtifactKind) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *mockJobService) Wait(context.Context, []string) error { return nil }

func (m *mockJobService) Close() {}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleJobs() []domain.Job {
	return []domain.Job{
		{ID: "job-a", DisplayName: "a.pdf", Kind: domain.KindPDF, State: domain.JobStateProcessing, Progress: 30},
		{ID: "tmp-b", Provisional: true, DisplayName: "b.pdf", Kind: domain.KindPDF, State: domain.JobStateQueued},
	}
}

func newTestView(svc *mockJobService) *View {
	v := NewView(nil, svc)
	v.SetDimensions(120, 30)
	v, _ = v.Update(messages.JobsChanged{Jobs: sampleJobs(), Version: 1})
	return v
}

func TestNewView(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.Equal(t, ModeBrowse, v.Mode())
	assert.True(t, v.List().IsEmpty())
	assert.Nil(t, v.Init())
	assert.Contains(t, v.View(), "No jobs yet")
}

func TestView_JobsChanged(t *testing.T) {
	v := newTestView(&mockJobService{})

	assert.Equal(t, 2, v.List().Count())
	assert.Equal(t, 2, v.Status().Counts().Active)
	out := v.View()
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "2 jobs")
}

func TestView_UploadFlow(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cv.pdf"), []byte("%PDF-1.4\n%test\n"), 0o600))

	var submitted []domain.FileUpload
	svc := &mockJobService{
		SubmitBatchFunc: func(_ context.Context, files []domain.FileUpload) (*domain.BatchResult, error) {
			submitted = files
			return &domain.BatchResult{Confirmed: []string{"job-1"}}, nil
		},
	}
	v := newTestView(svc)

	v, _ = v.Update(key("u"))
	assert.Equal(t, ModeInput, v.Mode())
	assert.Equal(t, status.StateInput, v.Status().State())

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(dir)})
	v, cmd := v.Update(key("enter"))
	require.NotNil(t, cmd)
	assert.Equal(t, ModeBrowse, v.Mode())

	req, ok := cmd().(messages.UploadRequested)
	require.True(t, ok)
	assert.Equal(t, dir, req.Path)

	v, cmd = v.Update(req)
	assert.Equal(t, status.StateBusy, v.Status().State())
	require.NotNil(t, cmd)

	done, ok := cmd().(messages.BatchSubmitted)
	require.True(t, ok)
	require.NoError(t, done.Err)
	require.Len(t, submitted, 1)
	assert.Equal(t, "cv.pdf", submitted[0].Name)

	v, _ = v.Update(done)
	assert.Equal(t, status.StateReady, v.Status().State())
	assert.Equal(t, "Uploaded 1", v.Status().Message())
}

func TestView_UploadEmptyDirectory(t *testing.T) {
	v := newTestView(&mockJobService{})

	_, cmd := v.Update(messages.UploadRequested{Path: t.TempDir()})
	done := cmd().(messages.BatchSubmitted)

	assert.ErrorIs(t, done.Err, ErrNoSupportedFiles)
}

func TestView_UploadMissingPath(t *testing.T) {
	v := newTestView(&mockJobService{})

	_, cmd := v.Update(messages.UploadRequested{Path: filepath.Join(t.TempDir(), "missing.pdf")})
	done := cmd().(messages.BatchSubmitted)
	v, _ = v.Update(done)

	require.Error(t, done.Err)
	assert.Equal(t, status.StateError, v.Status().State())
}

func TestView_InputEmptyEnterIgnored(t *testing.T) {
	v := newTestView(&mockJobService{})

	v, _ = v.Update(key("u"))
	v, cmd := v.Update(key("enter"))

	assert.Nil(t, cmd)
	assert.Equal(t, ModeInput, v.Mode())
}

func TestView_InputEscCancels(t *testing.T) {
	v := newTestView(&mockJobService{})

	v, _ = v.Update(key("u"))
	v, _ = v.Update(key("q"))
	v, _ = v.Update(key("esc"))

	assert.Equal(t, ModeBrowse, v.Mode())
	assert.Equal(t, status.StateReady, v.Status().State())
}

func TestView_DeleteConfirmed(t *testing.T) {
	var deleted string
	svc := &mockJobService{
		DeleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	v := newTestView(svc)

	v, _ = v.Update(key("d"))
	assert.Equal(t, ModeConfirmDelete, v.Mode())
	assert.Equal(t, "job-a", v.PendingID())
	assert.Contains(t, v.Status().Message(), "Delete a.pdf?")

	v, cmd := v.Update(key("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, ModeBrowse, v.Mode())

	req, ok := cmd().(messages.DeleteRequested)
	require.True(t, ok)
	assert.Equal(t, "job-a", req.ID)

	v, cmd = v.Update(req)
	done := cmd().(messages.JobDeleted)
	v, _ = v.Update(done)

	assert.Equal(t, "job-a", deleted)
	assert.Equal(t, "Job deleted", v.Status().Message())
}

func TestView_DeleteDenied(t *testing.T) {
	svc := &mockJobService{
		DeleteFunc: func(context.Context, string) error {
			t.Fatal("delete should not be called")
			return nil
		},
	}
	v := newTestView(svc)

	v, _ = v.Update(key("d"))
	v, cmd := v.Update(key("n"))

	assert.Nil(t, cmd)
	assert.Equal(t, ModeBrowse, v.Mode())
	assert.Empty(t, v.PendingID())
}

func TestView_DeleteError(t *testing.T) {
	v := newTestView(&mockJobService{})

	v, _ = v.Update(messages.JobDeleted{ID: "job-a", Err: errors.New("connection refused")})

	assert.Equal(t, status.StateError, v.Status().State())
	assert.Contains(t, v.Status().Message(), "connection refused")
}

func TestView_DeleteAll(t *testing.T) {
	svc := &mockJobService{
		DeleteAllFunc: func(context.Context) (*domain.DeleteSummary, error) {
			return &domain.DeleteSummary{Deleted: 2}, nil
		},
	}
	v := newTestView(svc)

	v, _ = v.Update(key("D"))
	assert.Equal(t, ModeConfirmDeleteAll, v.Mode())
	assert.Contains(t, v.Status().Message(), "Delete all 2 jobs?")

	v, cmd := v.Update(key("y"))
	req, ok := cmd().(messages.DeleteAllRequested)
	require.True(t, ok)

	v, cmd = v.Update(req)
	v, _ = v.Update(cmd())

	assert.Equal(t, "Successfully deleted all 2 jobs", v.Status().Message())
}

func TestView_DeleteAllPartial(t *testing.T) {
	v := newTestView(&mockJobService{})

	v, _ = v.Update(messages.AllJobsDeleted{
		Summary: &domain.DeleteSummary{Deleted: 1},
		Err:     errors.New("list failed"),
	})

	assert.Equal(t, status.StateError, v.Status().State())
	assert.Contains(t, v.Status().Message(), "deleted all 1 jobs")
	assert.Contains(t, v.Status().Message(), "list failed")
}

func TestView_DeleteAllOnEmptyListIgnored(t *testing.T) {
	v := NewView(nil, &mockJobService{})

	v, cmd := v.Update(key("D"))

	assert.Nil(t, cmd)
	assert.Equal(t, ModeBrowse, v.Mode())
}

func TestView_ViewText(t *testing.T) {
	v := newTestView(&mockJobService{})

	_, cmd := v.Update(key("enter"))
	require.NotNil(t, cmd)
	selected, ok := cmd().(messages.JobSelected)
	require.True(t, ok)
	assert.Equal(t, "job-a", selected.Job.ID)
}

func TestView_ViewTextProvisionalRefused(t *testing.T) {
	v := newTestView(&mockJobService{})

	v, _ = v.Update(key("j"))
	v, cmd := v.Update(key("enter"))

	assert.Nil(t, cmd)
	assert.Equal(t, status.StateError, v.Status().State())
}

func TestView_Refresh(t *testing.T) {
	svc := &mockJobService{
		RefreshFunc: func(context.Context) error { return errors.New("timeout") },
	}
	v := newTestView(svc)

	v, cmd := v.Update(key("r"))
	assert.Equal(t, status.StateBusy, v.Status().State())

	v, _ = v.Update(cmd())

	assert.Equal(t, status.StateError, v.Status().State())
	assert.Contains(t, v.Status().Message(), "refresh failed: timeout")
}

func TestView_NavigationKeys(t *testing.T) {
	v := newTestView(&mockJobService{})

	_, cmd := v.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	_, cmd = v.Update(key("s"))
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSettings}, cmd())

	_, cmd = v.Update(key("?"))
	assert.Equal(t, messages.ViewChanged{View: messages.ViewHelp}, cmd())
}

func TestView_NilService(t *testing.T) {
	v := NewView(nil, nil)

	assert.ErrorIs(t, v.Refresh()().(messages.JobsRefreshed).Err, domain.ErrServiceUnavailable)
	assert.ErrorIs(t, v.deleteJob("x")().(messages.JobDeleted).Err, domain.ErrServiceUnavailable)
	assert.ErrorIs(t, v.deleteAll()().(messages.AllJobsDeleted).Err, domain.ErrServiceUnavailable)
	assert.ErrorIs(t, v.upload("x")().(messages.BatchSubmitted).Err, domain.ErrServiceUnavailable)
}

func TestSummarizeBatch(t *testing.T) {
	tests := []struct {
		name     string
		result   *domain.BatchResult
		expected string
	}{
		{"nil", nil, ""},
		{"all ok", &domain.BatchResult{Confirmed: []string{"a", "b"}}, "Uploaded 2"},
		{
			"mixed",
			&domain.BatchResult{
				Confirmed: []string{"a"},
				Failed:    []domain.FileFailure{{Name: "b.pdf"}},
				Rejected:  []*domain.ValidationError{{Name: "c.txt"}},
			},
			"Uploaded 1, 1 failed, 1 rejected (c.txt)",
		},
		{
			"refresh error",
			&domain.BatchResult{Confirmed: []string{"a"}, RefreshErr: errors.New("x")},
			"Uploaded 1; refresh failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SummarizeBatch(tt.result))
		})
	}
}
