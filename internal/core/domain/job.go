package domain

import (
	"fmt"
	"strings"
	"time"
)

// JobState is the lifecycle state of a submitted document.
type JobState string

// Lifecycle states.
const (
	// JobStateQueued is a placeholder waiting for its turn in the batch,
	// or a confirmed job the service has not started yet.
	JobStateQueued JobState = "queued"

	// JobStateUploading is a placeholder whose file is being sent.
	JobStateUploading JobState = "uploading"

	// JobStateProcessing is a confirmed job the service is still parsing.
	JobStateProcessing JobState = "processing"

	// JobStateCompleted is a parsed job with a score.
	JobStateCompleted JobState = "completed"

	// JobStateFailed is a job the service (or the upload) failed.
	JobStateFailed JobState = "failed"

	// JobStateStalled is a job whose status could not be fetched after
	// repeated attempts. Polling has given up; a refresh may revive it.
	JobStateStalled JobState = "stalled"

	// JobStateDeleted is a job removed by the user.
	JobStateDeleted JobState = "deleted"
)

// IsTerminal reports whether no further automated change can happen.
func (s JobState) IsTerminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateDeleted:
		return true
	default:
		return false
	}
}

// IsPollable reports whether a poll task should be running for the state.
func (s JobState) IsPollable() bool {
	return !s.IsTerminal() && s != JobStateStalled
}

// String returns the string representation.
func (s JobState) String() string {
	return string(s)
}

// Label returns the text shown on a job row.
func (s JobState) Label() string {
	switch s {
	case JobStateQueued:
		return "Queued"
	case JobStateUploading, JobStateProcessing:
		return "Processing..."
	case JobStateCompleted:
		return "Completed"
	case JobStateFailed:
		return "Failed"
	case JobStateStalled:
		return "Stalled"
	case JobStateDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// ParseJobState maps the processing service's status vocabulary onto a
// JobState. Unrecognised values are treated as still processing so the
// job keeps being polled.
func ParseJobState(s string) JobState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "completed", "complete", "success", "done":
		return JobStateCompleted
	case "failed", "error":
		return JobStateFailed
	case "queued", "pending":
		return JobStateQueued
	default:
		return JobStateProcessing
	}
}

// Kind identifies the document format.
type Kind string

// Supported kinds.
const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindUnknown Kind = "unknown"
)

// KindFromContentType derives a Kind from a declared content type.
func KindFromContentType(contentType string) Kind {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "pdf"):
		return KindPDF
	case strings.Contains(ct, "word"):
		// Covers application/msword and the wordprocessingml DOCX type.
		return KindDOCX
	default:
		return KindUnknown
	}
}

// IsSupported reports whether the kind can be submitted.
func (k Kind) IsSupported() bool {
	return k == KindPDF || k == KindDOCX
}

// Label returns the short upper-case label shown on a job row.
func (k Kind) Label() string {
	switch k {
	case KindPDF:
		return "PDF"
	case KindDOCX:
		return "DOCX"
	default:
		return "?"
	}
}

// Job is one submitted document's processing lifecycle.
// It is the record the presentation layer renders.
type Job struct {
	// ID is either a provisional or a confirmed identifier.
	ID string

	// Provisional is true until the service has acknowledged the upload.
	Provisional bool

	// DisplayName is the original filename.
	DisplayName string

	// Kind is derived from the declared content type at submission.
	Kind Kind

	// State is the lifecycle state.
	State JobState

	// Progress is 0-100 and never decreases while the job is non-terminal.
	Progress int

	// Score is set once State is completed.
	Score *float64

	// OrderIndex is the position in the batch at submission time.
	OrderIndex int

	// Message is the human-readable reason shown inline on failed rows.
	Message string

	// WordCount is reported by the service after parsing.
	WordCount int

	// Preview is the leading text of the parsed document.
	Preview string

	// HasConverted is true when the service produced a converted PDF.
	HasConverted bool

	// UploadedAt is when the service received the file.
	UploadedAt time.Time
}

// Equal reports whether two records hold the same values. Scores are
// compared by value.
func (j Job) Equal(other Job) bool {
	if (j.Score == nil) != (other.Score == nil) {
		return false
	}
	if j.Score != nil && *j.Score != *other.Score {
		return false
	}
	return j.ID == other.ID &&
		j.Provisional == other.Provisional &&
		j.DisplayName == other.DisplayName &&
		j.Kind == other.Kind &&
		j.State == other.State &&
		j.Progress == other.Progress &&
		j.OrderIndex == other.OrderIndex &&
		j.Message == other.Message &&
		j.WordCount == other.WordCount &&
		j.Preview == other.Preview &&
		j.HasConverted == other.HasConverted &&
		j.UploadedAt.Equal(other.UploadedAt)
}

// JobSnapshot is the processing service's view of a job.
type JobSnapshot struct {
	ID           string
	DisplayName  string
	Kind         Kind
	State        JobState
	Score        *float64
	WordCount    int
	Preview      string
	HasConverted bool
	UploadedAt   time.Time
	Message      string
}

// JobPatch is a partial update. Nil fields are left unchanged.
type JobPatch struct {
	State        *JobState
	Progress     *int
	Score        *float64
	Message      *string
	DisplayName  *string
	Kind         *Kind
	WordCount    *int
	Preview      *string
	HasConverted *bool
	UploadedAt   *time.Time
}

// Apply writes the non-nil fields of p onto job.
func (p JobPatch) Apply(job *Job) {
	if p.State != nil {
		job.State = *p.State
	}
	if p.Progress != nil {
		job.Progress = clampProgress(*p.Progress)
	}
	if p.Score != nil {
		score := *p.Score
		job.Score = &score
	}
	if p.Message != nil {
		job.Message = *p.Message
	}
	if p.DisplayName != nil {
		job.DisplayName = *p.DisplayName
	}
	if p.Kind != nil {
		job.Kind = *p.Kind
	}
	if p.WordCount != nil {
		job.WordCount = *p.WordCount
	}
	if p.Preview != nil {
		job.Preview = *p.Preview
	}
	if p.HasConverted != nil {
		job.HasConverted = *p.HasConverted
	}
	if p.UploadedAt != nil {
		job.UploadedAt = *p.UploadedAt
	}
}

// StatePatch returns a patch setting state, progress and message.
func StatePatch(state JobState, progress int, message string) JobPatch {
	return JobPatch{State: &state, Progress: &progress, Message: &message}
}

// PatchFromSnapshot builds the patch that brings a job in line with the
// service's view. DisplayName and Kind are left alone: they are fixed at
// submission. Completed jobs jump to 100, failed jobs drop to 0; other
// states keep the current progress.
func PatchFromSnapshot(s JobSnapshot) JobPatch {
	state := s.State
	msg := s.Message
	p := JobPatch{
		State:        &state,
		Message:      &msg,
		WordCount:    &s.WordCount,
		Preview:      &s.Preview,
		HasConverted: &s.HasConverted,
	}
	if !s.UploadedAt.IsZero() {
		uploaded := s.UploadedAt
		p.UploadedAt = &uploaded
	}
	switch state {
	case JobStateCompleted:
		full := 100
		p.Progress = &full
		if s.Score != nil {
			score := *s.Score
			p.Score = &score
		}
	case JobStateFailed:
		zero := 0
		p.Progress = &zero
	}
	return p
}

// JobFromSnapshot creates a confirmed job for a snapshot the registry has
// not seen before.
func JobFromSnapshot(s JobSnapshot, orderIndex int) Job {
	job := Job{
		ID:          s.ID,
		DisplayName: s.DisplayName,
		Kind:        s.Kind,
		OrderIndex:  orderIndex,
	}
	PatchFromSnapshot(s).Apply(&job)
	if job.Kind == "" {
		job.Kind = KindUnknown
	}
	return job
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// FileUpload is a file handed to the orchestrator.
type FileUpload struct {
	// Name is the display name (base filename).
	Name string

	// ContentType is the declared MIME type.
	ContentType string

	// Data is the raw file content.
	Data []byte
}

// Kind derives the file's kind from its declared content type.
func (f FileUpload) Kind() Kind {
	return KindFromContentType(f.ContentType)
}

// ArtifactKind selects which stored file to download.
type ArtifactKind string

// Downloadable artifacts.
const (
	// ArtifactOriginal is the file as uploaded.
	ArtifactOriginal ArtifactKind = "original"

	// ArtifactConverted is the PDF the service produced from a DOCX upload.
	ArtifactConverted ArtifactKind = "pdf"
)

// FileFailure records a file whose upload failed.
type FileFailure struct {
	// JobID is the provisional identifier left in the registry.
	JobID string

	// Name is the display name.
	Name string

	// Err is the transport error.
	Err error
}

// BatchResult summarises a SubmitBatch call.
type BatchResult struct {
	// Confirmed lists the server-assigned identifiers in upload order.
	Confirmed []string

	// Failed lists files whose upload failed.
	Failed []FileFailure

	// Rejected lists files refused before upload.
	Rejected []*ValidationError

	// RefreshErr is the error of the post-batch refresh, if any.
	RefreshErr error
}

// Attempted returns the number of files that were sent to the service.
func (r *BatchResult) Attempted() int {
	return len(r.Confirmed) + len(r.Failed)
}

// DeleteSummary aggregates the outcome of deleting every listed job.
type DeleteSummary struct {
	Deleted int
	Failed  int

	// Errors maps job identifiers to the error that prevented deletion.
	Errors map[string]error
}

// Message returns the summary line shown to the user.
func (s *DeleteSummary) Message() string {
	switch {
	case s.Failed > 0:
		return fmt.Sprintf("Deleted %d jobs, but failed to delete %d jobs", s.Deleted, s.Failed)
	case s.Deleted > 0:
		return fmt.Sprintf("Successfully deleted all %d jobs", s.Deleted)
	default:
		return "No jobs were deleted"
	}
}

// ReconcileResult reports what an authoritative refresh changed.
type ReconcileResult struct {
	// Added lists confirmed jobs that were not in the registry.
	Added []string

	// Updated lists confirmed jobs whose record changed.
	Updated []string

	// Dropped lists confirmed jobs the service no longer knows about.
	Dropped []string
}
