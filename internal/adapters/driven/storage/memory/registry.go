package memory

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driven"
)

// Ensure JobRegistry implements the interface.
var _ driven.JobRegistry = (*JobRegistry)(nil)

// JobRegistry is an in-memory implementation of driven.JobRegistry.
// Records are kept in display order; the index maps IDs to records.
//
// arrived holds the version at which each confirmed ID entered the
// registry and removed the version at which a confirmed ID left it.
// Reconcile uses both to ignore what a listing fetched earlier cannot know.
// Service IDs are never reused, so tombstones are kept for the process
// lifetime.
type JobRegistry struct {
	mu      sync.RWMutex
	order   []string
	jobs    map[string]domain.Job
	arrived map[string]uint64
	removed map[string]uint64
	version uint64
}

// NewJobRegistry creates a new empty registry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{
		jobs:    make(map[string]domain.Job),
		arrived: make(map[string]uint64),
		removed: make(map[string]uint64),
	}
}

// Insert adds a job at the given display position.
func (r *JobRegistry) Insert(job domain.Job, position int) error {
	if job.ID == "" {
		return fmt.Errorf("%w: job ID is empty", domain.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("job %s: %w", job.ID, domain.ErrAlreadyExists)
	}
	if position < 0 {
		position = 0
	}
	if position > len(r.order) {
		position = len(r.order)
	}
	r.order = append(r.order, "")
	copy(r.order[position+1:], r.order[position:])
	r.order[position] = job.ID
	r.jobs[job.ID] = job
	r.version++
	if !job.Provisional {
		r.arrive(job.ID)
	}
	return nil
}

// ReplaceIdentifier swaps oldID for newID in place.
func (r *JobRegistry) ReplaceIdentifier(oldID, newID string, patch domain.JobPatch) (domain.Job, error) {
	if newID == "" {
		return domain.Job{}, fmt.Errorf("%w: confirmed ID is empty", domain.ErrInvalidInput)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[oldID]
	if !ok {
		return domain.Job{}, fmt.Errorf("job %s: %w", oldID, domain.ErrNotFound)
	}
	pos := r.indexOf(oldID)

	if oldID != newID {
		if existing, taken := r.jobs[newID]; taken {
			// A refresh already added the confirmed record. Keep that one
			// in the provisional record's slot and drop the provisional ID.
			// The upload response is older than a terminal state the
			// refresh may have brought.
			existing.OrderIndex = job.OrderIndex
			if !existing.State.IsTerminal() {
				patch.Apply(&existing)
			}
			existing.Provisional = false
			delete(r.jobs, oldID)
			r.removeAt(r.indexOf(newID))
			r.order[r.indexOf(oldID)] = newID
			r.jobs[newID] = existing
			r.version++
			r.arrive(newID)
			return existing, nil
		}
	}

	patch.Apply(&job)
	job.ID = newID
	job.Provisional = false
	delete(r.jobs, oldID)
	r.order[pos] = newID
	r.jobs[newID] = job
	r.version++
	r.arrive(newID)
	return job, nil
}

// Update applies a patch to an existing job.
func (r *JobRegistry) Update(id string, patch domain.JobPatch) error {
	_, err := r.Mutate(id, func(job *domain.Job) error {
		patch.Apply(job)
		return nil
	})
	return err
}

// Mutate runs fn against the stored record under the write lock.
func (r *JobRegistry) Mutate(id string, fn func(job *domain.Job) error) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	if err := fn(&job); err != nil {
		return domain.Job{}, err
	}
	// The callback must not rename the record.
	job.ID = id
	r.jobs[id] = job
	r.version++
	return job, nil
}

// Remove deletes a job. A tombstone is recorded even when the job is
// absent, so a listing fetched before the removal cannot bring it back.
func (r *JobRegistry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.version++
	r.bury(id)
	if _, ok := r.jobs[id]; !ok {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	delete(r.jobs, id)
	r.removeAt(r.indexOf(id))
	return nil
}

// Find returns a copy of a job.
func (r *JobRegistry) Find(id string) (domain.Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	return job, ok
}

// List returns copies of all jobs in display order.
func (r *JobRegistry) List() []domain.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Job, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.jobs[id])
	}
	return result
}

// Len returns the number of jobs.
func (r *JobRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Version returns the change counter.
func (r *JobRegistry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Reconcile applies an authoritative listing from the processing service.
// since is the registry version read before the listing was requested.
// Confirmed records are updated, added or dropped to match the listing,
// except where the registry changed after since: records that arrived
// later are kept, and IDs removed later are not added back. A listing
// never moves a completed or failed record back to an active state.
// Provisional records are left alone since the service cannot know them.
func (r *JobRegistry) Reconcile(since uint64, snapshots []domain.JobSnapshot) domain.ReconcileResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.version + 1
	var result domain.ReconcileResult
	seen := make(map[string]bool, len(snapshots))

	for _, snap := range snapshots {
		if snap.ID == "" || seen[snap.ID] {
			continue
		}
		seen[snap.ID] = true

		stored, ok := r.jobs[snap.ID]
		if !ok {
			if r.removed[snap.ID] > since {
				continue
			}
			r.jobs[snap.ID] = domain.JobFromSnapshot(snap, len(r.order))
			r.order = append(r.order, snap.ID)
			r.arrived[snap.ID] = next
			delete(r.removed, snap.ID)
			result.Added = append(result.Added, snap.ID)
			continue
		}
		if stored.State.IsTerminal() && !snap.State.IsTerminal() {
			continue
		}
		job := stored
		domain.PatchFromSnapshot(snap).Apply(&job)
		if !job.State.IsTerminal() && job.Progress < stored.Progress {
			job.Progress = stored.Progress
		}
		job.Provisional = false
		if job.Equal(stored) {
			continue
		}
		r.jobs[snap.ID] = job
		result.Updated = append(result.Updated, snap.ID)
	}

	kept := r.order[:0]
	for _, id := range r.order {
		job := r.jobs[id]
		if !job.Provisional && !seen[id] && r.arrived[id] <= since {
			delete(r.jobs, id)
			delete(r.arrived, id)
			r.removed[id] = next
			result.Dropped = append(result.Dropped, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept

	if len(result.Added)+len(result.Updated)+len(result.Dropped) > 0 {
		r.version = next
	}
	return result
}

// arrive stamps a confirmed ID with the current version.
// Callers must hold the lock.
func (r *JobRegistry) arrive(id string) {
	r.arrived[id] = r.version
	delete(r.removed, id)
}

// bury records a tombstone for id at the current version.
// Callers must hold the lock.
func (r *JobRegistry) bury(id string) {
	r.removed[id] = r.version
	delete(r.arrived, id)
}

// indexOf returns the display position of id, or -1.
// Callers must hold the lock.
func (r *JobRegistry) indexOf(id string) int {
	for i, existing := range r.order {
		if existing == id {
			return i
		}
	}
	return -1
}

// removeAt deletes the display slot at i. Callers must hold the lock.
func (r *JobRegistry) removeAt(i int) {
	if i < 0 {
		return
	}
	r.order = append(r.order[:i], r.order[i+1:]...)
}
