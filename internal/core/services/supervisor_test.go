package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docflow/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

func fastPoll() domain.PollSettings {
	return domain.PollSettings{
		Interval:    5 * time.Millisecond,
		Increment:   5,
		Ceiling:     90,
		MaxFailures: 3,
		MaxBackoff:  20 * time.Millisecond,
	}
}

func newTestSupervisor(t *testing.T) (*PollSupervisor, *memory.JobRegistry, *fakeProcessing) {
	t.Helper()
	registry := memory.NewJobRegistry()
	transport := newFakeProcessing()
	supervisor := NewPollSupervisor(registry, transport, fastPoll())
	t.Cleanup(supervisor.Stop)
	return supervisor, registry, transport
}

func confirmed(id string) domain.Job {
	return domain.Job{ID: id, DisplayName: id + ".pdf", Kind: domain.KindPDF, State: domain.JobStateProcessing, Progress: 10}
}

func TestPollSupervisor_Watch_Refuses(t *testing.T) {
	supervisor, registry, _ := newTestSupervisor(t)

	require.NoError(t, registry.Insert(domain.Job{ID: "tmp-1", Provisional: true, State: domain.JobStateUploading}, 0))
	done := confirmed("done")
	done.State = domain.JobStateCompleted
	require.NoError(t, registry.Insert(done, 1))

	assert.False(t, supervisor.Watch("tmp-1"), "provisional")
	assert.False(t, supervisor.Watch("done"), "terminal")
	assert.False(t, supervisor.Watch("missing"), "unknown")
	assert.Equal(t, 0, supervisor.ActiveCount())
}

func TestPollSupervisor_Watch_AtMostOnePerID(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	transport.seed(domain.JobSnapshot{ID: "a", State: domain.JobStateProcessing})
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	assert.True(t, supervisor.Watch("a"))
	assert.False(t, supervisor.Watch("a"))
	assert.True(t, supervisor.Active("a"))
	assert.Equal(t, 1, supervisor.ActiveCount())
}

func TestPollSupervisor_Completes(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	transport.seed(domain.JobSnapshot{ID: "a", State: domain.JobStateProcessing})
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	require.True(t, supervisor.Watch("a"))
	transport.setState("a", domain.JobStateCompleted, scorePtr(87))

	require.Eventually(t, func() bool { return !supervisor.Active("a") }, time.Second, 5*time.Millisecond)

	job, ok := registry.Find("a")
	require.True(t, ok)
	assert.Equal(t, domain.JobStateCompleted, job.State)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.Score)
	assert.Equal(t, 87.0, *job.Score)
}

func TestPollSupervisor_Fails(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	transport.seed(domain.JobSnapshot{ID: "a", State: domain.JobStateFailed, Message: "corrupt file"})
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	require.True(t, supervisor.Watch("a"))
	require.Eventually(t, func() bool { return !supervisor.Active("a") }, time.Second, 5*time.Millisecond)

	job, _ := registry.Find("a")
	assert.Equal(t, domain.JobStateFailed, job.State)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, "corrupt file", job.Message)
}

func TestPollSupervisor_ProgressStopsAtCeiling(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	transport.seed(domain.JobSnapshot{ID: "a", State: domain.JobStateProcessing})
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	require.True(t, supervisor.Watch("a"))

	var last, regressions atomic.Int32
	require.Eventually(t, func() bool {
		job, _ := registry.Find("a")
		if int32(job.Progress) < last.Load() {
			regressions.Add(1)
		}
		last.Store(int32(job.Progress))
		return job.Progress == 90
	}, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, regressions.Load(), "progress went backwards")

	time.Sleep(30 * time.Millisecond)
	job, _ := registry.Find("a")
	assert.Equal(t, 90, job.Progress)
	assert.Equal(t, domain.JobStateProcessing, job.State)
	assert.True(t, supervisor.Active("a"))
}

func TestPollSupervisor_StopsWhenServiceForgetsJob(t *testing.T) {
	supervisor, registry, _ := newTestSupervisor(t)
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	require.True(t, supervisor.Watch("a"))
	require.Eventually(t, func() bool { return !supervisor.Active("a") }, time.Second, 5*time.Millisecond)

	job, ok := registry.Find("a")
	require.True(t, ok, "the record is left for the next refresh to drop")
	assert.Equal(t, 10, job.Progress)
}

func TestPollSupervisor_DeletedDuringPoll(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	transport.seed(domain.JobSnapshot{ID: "a", State: domain.JobStateProcessing})
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	// Hold the listing so the deletion lands mid-tick.
	inList := make(chan struct{}, 1)
	release := make(chan struct{})
	transport.onList = func(context.Context) ([]domain.JobSnapshot, error) {
		select {
		case inList <- struct{}{}:
		default:
		}
		<-release
		return []domain.JobSnapshot{{ID: "a", State: domain.JobStateCompleted, Score: scorePtr(50)}}, nil
	}

	require.True(t, supervisor.Watch("a"))
	<-inList
	require.NoError(t, registry.Remove("a"))
	versionAfterDelete := registry.Version()
	close(release)

	require.Eventually(t, func() bool { return !supervisor.Active("a") }, time.Second, 5*time.Millisecond)
	_, ok := registry.Find("a")
	assert.False(t, ok, "a deleted job must not be resurrected")
	assert.Equal(t, versionAfterDelete, registry.Version())
}

func TestPollSupervisor_StallsAfterRepeatedFailures(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	var calls atomic.Int32
	transport.onList = func(context.Context) ([]domain.JobSnapshot, error) {
		calls.Add(1)
		return nil, errors.New("connection refused")
	}

	require.True(t, supervisor.Watch("a"))
	require.Eventually(t, func() bool { return !supervisor.Active("a") }, 2*time.Second, 5*time.Millisecond)

	job, _ := registry.Find("a")
	assert.Equal(t, domain.JobStateStalled, job.State)
	assert.Contains(t, job.Message, "connection refused")
	assert.Equal(t, 10, job.Progress, "no update on failed ticks")
	assert.Equal(t, int32(3), calls.Load())
}

func TestPollSupervisor_RecoversAfterTransientFailure(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	transport.seed(domain.JobSnapshot{ID: "a", State: domain.JobStateCompleted, Score: scorePtr(64)})
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	var calls atomic.Int32
	transport.onList = func(context.Context) ([]domain.JobSnapshot, error) {
		if calls.Add(1) <= 2 {
			return nil, errors.New("timeout")
		}
		return []domain.JobSnapshot{{ID: "a", State: domain.JobStateCompleted, Score: scorePtr(64)}}, nil
	}

	require.True(t, supervisor.Watch("a"))
	require.Eventually(t, func() bool { return !supervisor.Active("a") }, 2*time.Second, 5*time.Millisecond)

	job, _ := registry.Find("a")
	assert.Equal(t, domain.JobStateCompleted, job.State)
}

func TestPollSupervisor_Cancel(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	transport.seed(domain.JobSnapshot{ID: "a", State: domain.JobStateProcessing})
	require.NoError(t, registry.Insert(confirmed("a"), 0))

	require.True(t, supervisor.Watch("a"))
	supervisor.Cancel("a")

	assert.False(t, supervisor.Active("a"))
	supervisor.Cancel("a")
	supervisor.Cancel("never-watched")

	// A cancelled job can be watched again.
	assert.True(t, supervisor.Watch("a"))
}

func TestPollSupervisor_Stop(t *testing.T) {
	supervisor, registry, transport := newTestSupervisor(t)
	for _, id := range []string{"a", "b", "c"} {
		transport.seed(domain.JobSnapshot{ID: id, State: domain.JobStateProcessing})
		require.NoError(t, registry.Insert(confirmed(id), 0))
		require.True(t, supervisor.Watch(id))
	}
	require.Equal(t, 3, supervisor.ActiveCount())

	supervisor.Stop()

	assert.Equal(t, 0, supervisor.ActiveCount())
	assert.False(t, supervisor.Watch("a"))
	supervisor.Stop()
}

func TestBackoffTicks(t *testing.T) {
	interval := time.Second
	tests := []struct {
		failures   int
		maxBackoff time.Duration
		expected   int
	}{
		{1, 30 * time.Second, 1},
		{2, 30 * time.Second, 3},
		{3, 30 * time.Second, 7},
		{5, 30 * time.Second, 29},
		{40, 30 * time.Second, 29},
		{3, 0, 7},
		{1, 500 * time.Millisecond, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, backoffTicks(tt.failures, interval, tt.maxBackoff),
			"failures=%d max=%s", tt.failures, tt.maxBackoff)
	}
}

func TestPollSupervisor_Backoff_OverloadedServiceWaitsLongest(t *testing.T) {
	supervisor := NewPollSupervisor(memory.NewJobRegistry(), newFakeProcessing(), domain.PollSettings{
		Interval:   time.Second,
		MaxBackoff: 30 * time.Second,
	})
	t.Cleanup(supervisor.Stop)

	assert.Equal(t, 1, supervisor.backoff(1, errors.New("connection reset")))
	assert.Equal(t, 29, supervisor.backoff(1, fmt.Errorf("list jobs: %w", domain.ErrServiceUnavailable)))
}
