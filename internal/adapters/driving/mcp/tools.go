package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docflow/internal/adapters/driven/localfs"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

// defaultWaitTimeout bounds submit_files when wait is set without a timeout.
const defaultWaitTimeout = 5 * time.Minute

// JobOutput is the tool view of one job record.
type JobOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	State       string   `json:"state"`
	Status      string   `json:"status"`
	Progress    int      `json:"progress"`
	Score       *float64 `json:"score,omitempty"`
	Message     string   `json:"message,omitempty"`
	WordCount   int      `json:"word_count,omitempty"`
	Provisional bool     `json:"provisional,omitempty"`
	UploadedAt  string   `json:"uploaded_at,omitempty"`
}

func newJobOutput(job *domain.Job) JobOutput {
	out := JobOutput{
		ID:          job.ID,
		Name:        job.DisplayName,
		Kind:        string(job.Kind),
		State:       job.State.String(),
		Status:      job.State.Label(),
		Progress:    job.Progress,
		Score:       job.Score,
		Message:     job.Message,
		WordCount:   job.WordCount,
		Provisional: job.Provisional,
	}
	if !job.UploadedAt.IsZero() {
		out.UploadedAt = job.UploadedAt.Format(time.RFC3339)
	}
	return out
}

func newJobOutputs(jobs []domain.Job) []JobOutput {
	out := make([]JobOutput, len(jobs))
	for i := range jobs {
		out[i] = newJobOutput(&jobs[i])
	}
	return out
}

// SubmitFilesInput is the input schema for the submit_files tool.
type SubmitFilesInput struct {
	Paths          []string `json:"paths" jsonschema:"PDF or DOCX files, or directories holding them"`
	Wait           bool     `json:"wait,omitempty" jsonschema:"wait until every uploaded job has finished"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" jsonschema:"how long to wait when wait is set (default 300)"`
}

// FileFailureOutput describes a file that was not accepted.
type FileFailureOutput struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// SubmitFilesOutput is the output schema for the submit_files tool.
type SubmitFilesOutput struct {
	Jobs     []JobOutput         `json:"jobs"`
	Failed   []FileFailureOutput `json:"failed,omitempty"`
	Rejected []FileFailureOutput `json:"rejected,omitempty"`
	Warning  string              `json:"warning,omitempty"`
}

// ListJobsInput is the input schema for the list_jobs tool.
type ListJobsInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"reload the job list from the processing service first"`
}

// ListJobsOutput is the output schema for the list_jobs tool.
type ListJobsOutput struct {
	Jobs  []JobOutput `json:"jobs"`
	Count int         `json:"count"`
}

// JobIDInput is the input schema for tools addressing one job.
type JobIDInput struct {
	JobID string `json:"job_id" jsonschema:"the job identifier returned by submit_files or list_jobs"`
}

// JobTextOutput is the output schema for the get_job_text tool.
type JobTextOutput struct {
	JobID string `json:"job_id"`
	Text  string `json:"text"`
}

// DeleteJobOutput is the output schema for the delete_job tool.
type DeleteJobOutput struct {
	JobID   string `json:"job_id"`
	Deleted bool   `json:"deleted"`
}

// DeleteAllInput is the input schema for the delete_all_jobs tool.
type DeleteAllInput struct{}

// DeleteAllOutput is the output schema for the delete_all_jobs tool.
type DeleteAllOutput struct {
	Deleted int                 `json:"deleted"`
	Failed  int                 `json:"failed"`
	Message string              `json:"message"`
	Errors  []FileFailureOutput `json:"errors,omitempty"`
	Warning string              `json:"warning,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "submit_files",
		Description: "Upload PDF or DOCX files to the document processing service as one batch",
	}, s.handleSubmitFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_jobs",
		Description: "List processing jobs with their status, progress and score",
	}, s.handleListJobs)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_job_text",
		Description: "Get the text extracted from a processed document",
	}, s.handleGetJobText)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_job",
		Description: "Delete one processing job",
	}, s.handleDeleteJob)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_all_jobs",
		Description: "Delete every processing job",
	}, s.handleDeleteAll)
}

// handleSubmitFiles handles the submit_files tool invocation.
func (s *Server) handleSubmitFiles(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SubmitFilesInput,
) (*mcp.CallToolResult, SubmitFilesOutput, error) {
	if len(input.Paths) == 0 {
		return nil, SubmitFilesOutput{}, ErrNoPaths
	}

	files, err := localfs.LoadFiles(input.Paths)
	if err != nil {
		return nil, SubmitFilesOutput{}, err
	}

	result, err := s.ports.Jobs.SubmitBatch(ctx, files)
	if err != nil {
		return nil, SubmitFilesOutput{}, err
	}

	output := SubmitFilesOutput{Jobs: []JobOutput{}}
	for _, f := range result.Failed {
		output.Failed = append(output.Failed, FileFailureOutput{Name: f.Name, Error: f.Err.Error()})
	}
	for _, r := range result.Rejected {
		output.Rejected = append(output.Rejected, FileFailureOutput{Name: r.Name, Error: r.Error()})
	}
	if result.RefreshErr != nil {
		output.Warning = fmt.Sprintf("refresh after upload failed: %v", result.RefreshErr)
	}

	if input.Wait && len(result.Confirmed) > 0 {
		timeout := defaultWaitTimeout
		if input.TimeoutSeconds > 0 {
			timeout = time.Duration(input.TimeoutSeconds) * time.Second
		}
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		err := s.ports.Jobs.Wait(waitCtx, result.Confirmed)
		cancel()
		if err != nil {
			output.Warning = fmt.Sprintf("stopped waiting: %v", err)
		}
	}

	// Report every job of this batch, including failed provisional records.
	ids := make(map[string]bool, result.Attempted())
	for _, id := range result.Confirmed {
		ids[id] = true
	}
	for _, f := range result.Failed {
		ids[f.JobID] = true
	}
	jobs := s.ports.Jobs.List()
	for i := range jobs {
		if ids[jobs[i].ID] {
			output.Jobs = append(output.Jobs, newJobOutput(&jobs[i]))
		}
	}

	return nil, output, nil
}

// handleListJobs handles the list_jobs tool invocation.
func (s *Server) handleListJobs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListJobsInput,
) (*mcp.CallToolResult, ListJobsOutput, error) {
	if input.Refresh {
		if err := s.ports.Jobs.Refresh(ctx); err != nil {
			return nil, ListJobsOutput{}, fmt.Errorf("refreshing jobs: %w", err)
		}
	}

	jobs := s.ports.Jobs.List()
	return nil, ListJobsOutput{Jobs: newJobOutputs(jobs), Count: len(jobs)}, nil
}

// handleGetJobText handles the get_job_text tool invocation.
func (s *Server) handleGetJobText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input JobIDInput,
) (*mcp.CallToolResult, JobTextOutput, error) {
	if input.JobID == "" {
		return nil, JobTextOutput{}, ErrMissingJobID
	}

	text, err := s.ports.Jobs.FetchText(ctx, input.JobID)
	if err != nil {
		return nil, JobTextOutput{}, err
	}
	return nil, JobTextOutput{JobID: input.JobID, Text: text}, nil
}

// handleDeleteJob handles the delete_job tool invocation.
func (s *Server) handleDeleteJob(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input JobIDInput,
) (*mcp.CallToolResult, DeleteJobOutput, error) {
	if input.JobID == "" {
		return nil, DeleteJobOutput{}, ErrMissingJobID
	}

	if err := s.ports.Jobs.Delete(ctx, input.JobID); err != nil {
		return nil, DeleteJobOutput{}, err
	}
	return nil, DeleteJobOutput{JobID: input.JobID, Deleted: true}, nil
}

// handleDeleteAll handles the delete_all_jobs tool invocation.
func (s *Server) handleDeleteAll(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ DeleteAllInput,
) (*mcp.CallToolResult, DeleteAllOutput, error) {
	summary, err := s.ports.Jobs.DeleteAll(ctx)
	if summary == nil {
		return nil, DeleteAllOutput{}, err
	}

	output := DeleteAllOutput{
		Deleted: summary.Deleted,
		Failed:  summary.Failed,
		Message: summary.Message(),
	}
	if err != nil {
		output.Warning = err.Error()
	}

	ids := make([]string, 0, len(summary.Errors))
	for id := range summary.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		output.Errors = append(output.Errors, FileFailureOutput{Name: id, Error: summary.Errors[id].Error()})
	}

	return nil, output, nil
}
