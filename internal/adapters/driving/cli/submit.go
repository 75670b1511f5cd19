package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/adapters/driven/localfs"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// progressInterval is how often submit checks the registry for changes.
var progressInterval = 200 * time.Millisecond

var submitNoWait bool

var submitCmd = &cobra.Command{
	Use:   "submit [files...]",
	Short: "Upload documents for parsing",
	Long: `Uploads PDF and DOCX files to the processing service, one after another in
name order, then waits until every job is parsed or failed.

Directories are expanded to the supported files they contain. Files of any
other type are reported and skipped; the rest of the batch continues.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitNoWait, "no-wait", false, "return once uploads finish without waiting for parsing")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, args []string) error {
	if jobService == nil {
		return errors.New("job service not configured")
	}

	files, err := localfs.LoadFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		cmd.Println("No supported files found.")
		return nil
	}

	ctx := cmd.Context()
	tracker := newBatchTracker(jobService.List(), files)
	stopProgress := watchProgress(ctx, cmd, jobService, tracker)

	result, err := submitAndWait(ctx, files, !submitNoWait)
	stopProgress()
	if err != nil {
		return err
	}

	for _, rejected := range result.Rejected {
		cmd.Printf("Rejected: %s\n", rejected.Error())
	}
	if result.RefreshErr != nil {
		cmd.Printf("Warning: could not refresh job list: %v\n", result.RefreshErr)
	}

	batch := tracker.jobs(jobService.List())
	if len(batch) > 0 {
		cmd.Println()
		outputJobTable(cmd, batch)
	}
	cmd.Printf("\n%d uploaded, %d failed, %d rejected\n",
		len(result.Confirmed), len(result.Failed), len(result.Rejected))
	return nil
}

func submitAndWait(ctx context.Context, files []domain.FileUpload, wait bool) (*domain.BatchResult, error) {
	result, err := jobService.SubmitBatch(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("submit failed: %w", err)
	}
	if wait && len(result.Confirmed) > 0 {
		if err := jobService.Wait(ctx, result.Confirmed); err != nil {
			return nil, fmt.Errorf("waiting for jobs: %w", err)
		}
	}
	return result, nil
}

// watchProgress prints batch transitions until the returned func is called.
// The returned func prints any final transitions before returning.
func watchProgress(ctx context.Context, cmd *cobra.Command, jobs driving.JobService, tracker *batchTracker) func() {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()

		var seen uint64
		for {
			if v := jobs.Version(); v != seen {
				seen = v
				for _, line := range tracker.transitions(jobs.List()) {
					cmd.Println("  " + line)
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		cancel()
		wg.Wait()
		for _, line := range tracker.transitions(jobs.List()) {
			cmd.Println("  " + line)
		}
	}
}

// batchTracker follows the jobs of one submitted batch. Jobs already in the
// registry before submission and jobs with other names are ignored.
type batchTracker struct {
	mu       sync.Mutex
	existing map[string]bool
	names    map[string]bool
	last     map[string]string
}

func newBatchTracker(before []domain.Job, files []domain.FileUpload) *batchTracker {
	t := &batchTracker{
		existing: make(map[string]bool, len(before)),
		names:    make(map[string]bool, len(files)),
		last:     make(map[string]string),
	}
	for i := range before {
		t.existing[before[i].ID] = true
	}
	t.add(files)
	return t
}

// add starts following files submitted later.
func (t *batchTracker) add(files []domain.FileUpload) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, f := range files {
		t.names[f.Name] = true
	}
}

// jobs returns the batch's records in display order.
func (t *batchTracker) jobs(all []domain.Job) []domain.Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.match(all)
}

func (t *batchTracker) match(all []domain.Job) []domain.Job {
	var batch []domain.Job
	for i := range all {
		if !t.existing[all[i].ID] && t.names[all[i].DisplayName] {
			batch = append(batch, all[i])
		}
	}
	return batch
}

// transitions returns one line per batch job whose state changed since the
// last call. A job keeps its slot across the switch from provisional to
// confirmed identifier, so slots are keyed by name and position.
func (t *batchTracker) transitions(all []domain.Job) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var lines []string
	for _, job := range t.match(all) {
		key := job.DisplayName + "#" + strconv.Itoa(job.OrderIndex)
		state := string(job.State)
		if job.State == domain.JobStateProcessing && !job.Provisional {
			state += ":" + job.ID
		}
		if t.last[key] == state {
			continue
		}
		t.last[key] = state
		lines = append(lines, describeJob(&job))
	}
	return lines
}
