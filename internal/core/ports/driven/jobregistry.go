package driven

import "github.com/custodia-labs/docflow/internal/core/domain"

// JobRegistry is the single shared store of job records.
// Every method is atomic with respect to every other method.
type JobRegistry interface {
	// Insert adds a job at the given display position. Positions outside
	// the current range are clamped. Returns ErrAlreadyExists if the ID is
	// taken.
	Insert(job domain.Job, position int) error

	// ReplaceIdentifier swaps a provisional ID for a confirmed one in a
	// single step, applies the patch and clears the provisional flag.
	// Display position and OrderIndex are kept. If newID is already present
	// the provisional record is folded into it instead.
	// Returns ErrNotFound if oldID is absent.
	ReplaceIdentifier(oldID, newID string, patch domain.JobPatch) (domain.Job, error)

	// Update applies a patch. Returns ErrNotFound if the job is absent.
	Update(id string, patch domain.JobPatch) error

	// Mutate runs fn against the current record under the write lock and
	// stores the result. fn may return an error to abort without writing.
	// Returns ErrNotFound if the job is absent.
	Mutate(id string, fn func(job *domain.Job) error) (domain.Job, error)

	// Remove deletes a job. Returns ErrNotFound if the job is absent.
	// The removal is remembered either way, so a later Reconcile whose
	// listing predates it does not add the job back.
	Remove(id string) error

	// Find returns a copy of the job with the given ID.
	Find(id string) (domain.Job, bool)

	// List returns copies of all jobs in display order.
	List() []domain.Job

	// Len returns the number of jobs.
	Len() int

	// Reconcile applies an authoritative listing from the service. since
	// is the Version read before the listing was requested: records that
	// arrived after it are not dropped, and IDs removed after it are not
	// added back.
	Reconcile(since uint64, snapshots []domain.JobSnapshot) domain.ReconcileResult

	// Version increases on every change.
	Version() uint64
}
