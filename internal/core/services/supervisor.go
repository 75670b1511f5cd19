package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
	"github.com/custodia-labs/docflow/internal/logger"
)

// Ensure PollSupervisor implements the interface.
var _ driving.PollSupervisor = (*PollSupervisor)(nil)

// errStopPolling aborts a registry mutation when the record is already final.
var errStopPolling = errors.New("job already terminal")

// PollSupervisor runs one status poll per confirmed job and tears it down
// on completion, failure, deletion or Stop.
type PollSupervisor struct {
	registry  driven.JobRegistry
	transport driven.ProcessingService
	config    domain.PollSettings

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	tasks   map[string]*pollTask
	stopped bool
	wg      sync.WaitGroup
}

// pollTask is the handle for one running poll.
type pollTask struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPollSupervisor creates a supervisor with polling configuration.
func NewPollSupervisor(
	registry driven.JobRegistry,
	transport driven.ProcessingService,
	config domain.PollSettings,
) *PollSupervisor {
	if config.Interval <= 0 {
		config.Interval = domain.DefaultClientSettings().Poll.Interval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PollSupervisor{
		registry:  registry,
		transport: transport,
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
		tasks:     make(map[string]*pollTask),
	}
}

// Watch starts polling id.
func (s *PollSupervisor) Watch(id string) bool {
	job, ok := s.registry.Find(id)
	if !ok || job.Provisional || !job.State.IsPollable() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	if _, running := s.tasks[id]; running {
		return false
	}

	ctx, cancel := context.WithCancel(s.ctx)
	task := &pollTask{cancel: cancel, done: make(chan struct{})}
	s.tasks[id] = task

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(task.done)
		defer s.release(id, task)
		s.run(ctx, id)
	}()
	return true
}

// Cancel stops polling id and waits for the poll to exit.
func (s *PollSupervisor) Cancel(id string) {
	s.mu.Lock()
	task, ok := s.tasks[id]
	if ok {
		delete(s.tasks, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	task.cancel()
	<-task.done
}

// Active reports whether id is being polled.
func (s *PollSupervisor) Active(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.tasks[id]
	return ok
}

// ActiveCount returns the number of running polls.
func (s *PollSupervisor) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stop cancels every poll and waits for them to exit.
// The supervisor refuses new polls afterwards.
func (s *PollSupervisor) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.tasks = make(map[string]*pollTask)
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

// release drops the task entry unless a newer task replaced it.
func (s *PollSupervisor) release(id string, task *pollTask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tasks[id] == task {
		delete(s.tasks, id)
	}
}

// run is the poll loop for one job. The ticker drops ticks while a slow
// tick is in flight, so ticks never overlap.
func (s *PollSupervisor) run(ctx context.Context, id string) {
	jobLog := logger.Job(id)
	jobLog.Debug("polling every %s", s.config.Interval)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	failures := 0
	skip := 0
	for {
		select {
		case <-ctx.Done():
			jobLog.Debug("poll cancelled")
			return
		case <-ticker.C:
		}

		if skip > 0 {
			skip--
			continue
		}

		done, err := s.tick(ctx, id)
		if done {
			jobLog.Debug("poll finished")
			return
		}
		if err == nil {
			failures = 0
			continue
		}

		failures++
		if s.config.MaxFailures > 0 && failures >= s.config.MaxFailures {
			s.stall(id, failures, err)
			return
		}
		skip = s.backoff(failures, err)
		jobLog.Warn("status check failed (%d in a row), next attempt in %d ticks: %v", failures, skip+1, err)
	}
}

// tick performs one status check. done reports that polling should stop.
func (s *PollSupervisor) tick(ctx context.Context, id string) (done bool, err error) {
	if _, ok := s.registry.Find(id); !ok {
		return true, nil
	}

	snapshots, err := s.transport.ListAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true, nil
		}
		return false, err
	}

	var snap *domain.JobSnapshot
	for i := range snapshots {
		if snapshots[i].ID == id {
			snap = &snapshots[i]
			break
		}
	}
	if snap == nil {
		// The service no longer knows the job; the next refresh drops it.
		logger.Job(id).Debug("not listed by the service, stopping")
		return true, nil
	}

	job, err := s.registry.Mutate(id, func(job *domain.Job) error {
		if job.State.IsTerminal() {
			return errStopPolling
		}
		s.advance(job, *snap)
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, errStopPolling):
		return true, nil
	case err != nil:
		return false, err
	}
	return job.State.IsTerminal(), nil
}

// advance moves a job towards the service's reported state. Non-terminal
// states add the cosmetic increment until the ceiling.
func (s *PollSupervisor) advance(job *domain.Job, snap domain.JobSnapshot) {
	previous := job.Progress
	domain.PatchFromSnapshot(snap).Apply(job)
	if job.State.IsTerminal() {
		return
	}
	job.Progress = previous
	if job.Progress < s.config.Ceiling {
		job.Progress = min(job.Progress+s.config.Increment, s.config.Ceiling)
	}
}

// stall marks a job whose status could not be fetched.
func (s *PollSupervisor) stall(id string, attempts int, cause error) {
	message := fmt.Sprintf("Status unavailable after %d attempts: %s", attempts, reason(cause))
	_, err := s.registry.Mutate(id, func(job *domain.Job) error {
		if job.State.IsTerminal() {
			return errStopPolling
		}
		job.State = domain.JobStateStalled
		job.Message = message
		return nil
	})
	if err == nil {
		log.Printf("poll: job %s stalled: %v", id, cause)
	}
}

// backoff returns how many ticks to skip after a failed check. A service
// that reports itself overloaded gets the longest wait at once.
func (s *PollSupervisor) backoff(failures int, err error) int {
	if errors.Is(err, domain.ErrServiceUnavailable) {
		failures = maxBackoffShift
	}
	return backoffTicks(failures, s.config.Interval, s.config.MaxBackoff)
}

// maxBackoffShift bounds the exponent of the backoff.
const maxBackoffShift = 16

// backoffTicks returns how many ticks to skip after n consecutive failures:
// the wait grows as interval*2^n, capped at maxBackoff.
func backoffTicks(n int, interval, maxBackoff time.Duration) int {
	if n > maxBackoffShift {
		n = maxBackoffShift
	}
	delay := interval << n
	if maxBackoff > 0 && delay > maxBackoff {
		delay = maxBackoff
	}
	ticks := int(delay/interval) - 1
	if ticks < 0 {
		return 0
	}
	return ticks
}
