package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// mockJobService implements driving.JobService for testing. Its registry is
// a plain slice guarded by a mutex so progress goroutines can read it.
type mockJobService struct {
	mu      sync.Mutex
	jobs    []domain.Job
	version uint64

	SubmitBatchFunc   func(ctx context.Context, files []domain.FileUpload) (*domain.BatchResult, error)
	RefreshFunc       func(ctx context.Context) error
	DeleteFunc        func(ctx context.Context, id string) error
	DeleteAllFunc     func(ctx context.Context) (*domain.DeleteSummary, error)
	FetchTextFunc     func(ctx context.Context, id string) (string, error)
	FetchArtifactFunc func(ctx context.Context, id string, kind domain.ArtifactKind) (io.ReadCloser, error)
	WaitFunc          func(ctx context.Context, ids []string) error
}

var _ driving.JobService = (*mockJobService)(nil)

func (m *mockJobService) setJobs(jobs ...domain.Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = jobs
	m.version++
}

func (m *mockJobService) SubmitBatch(ctx context.Context, files []domain.FileUpload) (*domain.BatchResult, error) {
	if m.SubmitBatchFunc != nil {
		return m.SubmitBatchFunc(ctx, files)
	}
	return &domain.BatchResult{}, nil
}

func (m *mockJobService) List() []domain.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Job(nil), m.jobs...)
}

func (m *mockJobService) Version() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

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

func (m *mockJobService) FetchText(ctx context.Context, id string) (string, error) {
	if m.FetchTextFunc != nil {
		return m.FetchTextFunc(ctx, id)
	}
	return "", nil
}

func (m *mockJobService) FetchArtifact(ctx context.Context, id string, kind domain.ArtifactKind) (io.ReadCloser, error) {
	if m.FetchArtifactFunc != nil {
		return m.FetchArtifactFunc(ctx, id, kind)
	}
	return io.NopCloser(strings.NewReader("")), nil
}

func (m *mockJobService) Wait(ctx context.Context, ids []string) error {
	if m.WaitFunc != nil {
		return m.WaitFunc(ctx, ids)
	}
	return nil
}

func (m *mockJobService) Close() {}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings domain.ClientSettings
	saved    *domain.ClientSettings
	setKey   string
	setValue string
	setErr   error
}

var _ driving.SettingsService = (*mockSettingsService)(nil)

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultClientSettings()}
}

func (m *mockSettingsService) Get() (*domain.ClientSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.ClientSettings) error {
	m.saved = settings
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.setErr
}

func (m *mockSettingsService) Keys() []string {
	return []string{"server.base_url", "server.collection"}
}

func (m *mockSettingsService) GetDefaults() domain.ClientSettings {
	return domain.DefaultClientSettings()
}

func (m *mockSettingsService) ConfigPath() string {
	return "/tmp/docflow/config.toml"
}

// setupTestServices installs mock services and returns them with a cleanup func.
func setupTestServices() (*mockJobService, *mockSettingsService, func()) {
	jobs := &mockJobService{}
	settings := newMockSettingsService()

	origJobs, origSettings := jobService, settingsService
	jobService = jobs
	settingsService = settings

	return jobs, settings, func() {
		jobService = origJobs
		settingsService = origSettings
	}
}

// runCommand executes the root command with args and returns its output.
func runCommand(args ...string) (string, error) {
	return runCommandWithInput("", args...)
}

// runCommandWithInput is runCommand with input on stdin. Command flag
// variables are reset afterwards since cobra keeps them.
func runCommandWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(input))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		listJSON = false
		deleteAll = false
		submitNoWait = false
		downloadOutput = ""
		downloadConverted = false
		flagVerbose = false
		flagServer = ""
		flagCollection = ""
		flagConfigDir = ""
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func scoreOf(v float64) *float64 { return &v }

// safeBuffer is a bytes.Buffer safe for concurrent writes.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
