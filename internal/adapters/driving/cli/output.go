package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// jobView is the JSON shape of a job.
type jobView struct {
	ID           string     `json:"id"`
	Provisional  bool       `json:"provisional,omitempty"`
	Name         string     `json:"name"`
	Kind         string     `json:"kind"`
	State        string     `json:"state"`
	Progress     int        `json:"progress"`
	Score        *float64   `json:"score,omitempty"`
	Message      string     `json:"message,omitempty"`
	WordCount    int        `json:"word_count,omitempty"`
	HasConverted bool       `json:"has_converted_pdf,omitempty"`
	UploadedAt   *time.Time `json:"uploaded_at,omitempty"`
}

func newJobView(job *domain.Job) jobView {
	view := jobView{
		ID:           job.ID,
		Provisional:  job.Provisional,
		Name:         job.DisplayName,
		Kind:         string(job.Kind),
		State:        job.State.String(),
		Progress:     job.Progress,
		Score:        job.Score,
		Message:      job.Message,
		WordCount:    job.WordCount,
		HasConverted: job.HasConverted,
	}
	if !job.UploadedAt.IsZero() {
		uploaded := job.UploadedAt
		view.UploadedAt = &uploaded
	}
	return view
}

func outputJobsJSON(cmd *cobra.Command, jobs []domain.Job) error {
	views := make([]jobView, 0, len(jobs))
	for i := range jobs {
		views = append(views, newJobView(&jobs[i]))
	}
	data, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal jobs: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// outputJobTable prints one row per job. Failed and stalled rows carry
// their message in the last column.
func outputJobTable(cmd *cobra.Command, jobs []domain.Job) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"ID", "Name", "Type", "Status", "Progress", "Score", "Uploaded", "Message"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for i := range jobs {
		job := &jobs[i]
		table.Append([]string{
			job.ID,
			job.DisplayName,
			job.Kind.Label(),
			job.State.Label(),
			fmt.Sprintf("%d%%", job.Progress),
			formatScore(job.Score),
			formatUploaded(job.UploadedAt),
			job.Message,
		})
	}
	table.Render()
}

func formatScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f", *score)
}

func formatUploaded(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// describeJob is the one-line form used for progress output.
func describeJob(job *domain.Job) string {
	line := fmt.Sprintf("%s: %s", job.DisplayName, job.State)
	switch {
	case job.State == domain.JobStateCompleted && job.Score != nil:
		line += fmt.Sprintf(" (score %s)", formatScore(job.Score))
	case job.Message != "":
		line += " - " + job.Message
	}
	if !job.Provisional {
		line += fmt.Sprintf(" [%s]", job.ID)
	}
	return line
}
