// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

const barWidth = 20

// JobList displays job records in a navigable list.
type JobList struct {
	jobs     []domain.Job
	selected int
	bar      progress.Model
	styles   *styles.Styles
	width    int
	height   int
}

// NewJobList creates a new job list component.
func NewJobList(s *styles.Styles) *JobList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	theme := s.Theme()

	return &JobList{
		bar: progress.New(
			progress.WithGradient(theme.BarStart, theme.BarEnd),
			progress.WithWidth(barWidth),
		),
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the job list.
func (l *JobList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *JobList) Update(msg tea.Msg) (*JobList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		case "home", "g":
			l.selected = 0
		case "end", "G":
			if len(l.jobs) > 0 {
				l.selected = len(l.jobs) - 1
			}
		}
	}
	return l, nil
}

// View renders the job list.
func (l *JobList) View() string {
	if len(l.jobs) == 0 {
		return l.styles.Muted.Render("No jobs yet. Press u to upload a PDF or DOCX file.")
	}

	lines := make([]string, 0, len(l.jobs)+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Jobs (%d)", len(l.jobs))), "")

	// Failed rows take two lines
	visibleCount := (l.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := start + visibleCount
	if end > len(l.jobs) {
		end = len(l.jobs)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderJob(i, &l.jobs[i]))
	}

	return strings.Join(lines, "\n")
}

func (l *JobList) nameWidth() int {
	// indicator + kind + bar + status columns
	w := l.width - barWidth - 30
	if w < 12 {
		w = 12
	}
	return w
}

// renderJob formats a single row, with the failure reason inline below it.
func (l *JobList) renderJob(index int, job *domain.Job) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	nameWidth := l.nameWidth()
	name := truncate(job.DisplayName, nameWidth)
	if name == "" {
		name = "(unnamed)"
	}
	head := fmt.Sprintf("%s%-*s %-5s ", indicator, nameWidth, name, job.Kind.Label())
	if index == l.selected {
		head = l.styles.Selected.Render(head)
	} else {
		head = l.styles.Normal.Render(head)
	}

	row := head + " " + l.renderStatus(job)

	if job.Message != "" && (job.State == domain.JobStateFailed || job.State == domain.JobStateStalled) {
		row += "\n" + l.styles.State(job.State).Render("    "+truncate(job.Message, l.width-6))
	}
	return row
}

func (l *JobList) renderStatus(job *domain.Job) string {
	label := l.styles.State(job.State).Render(job.State.Label())

	switch job.State {
	case domain.JobStateQueued, domain.JobStateUploading, domain.JobStateProcessing:
		return l.bar.ViewAs(float64(job.Progress)/100) + " " + label
	case domain.JobStateCompleted:
		if job.Score != nil {
			return label + l.styles.Muted.Render(fmt.Sprintf("  score %.0f", *job.Score))
		}
		return label
	default:
		return label
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max < 4 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// SetJobs replaces the rows, keeping the selection on the same job when it
// is still listed.
func (l *JobList) SetJobs(jobs []domain.Job) {
	var selectedID string
	if job := l.SelectedJob(); job != nil {
		selectedID = job.ID
	}

	l.jobs = jobs
	l.selected = 0
	for i := range jobs {
		if jobs[i].ID == selectedID {
			l.selected = i
			return
		}
	}
}

// Jobs returns the current rows.
func (l *JobList) Jobs() []domain.Job {
	return l.jobs
}

// Selected returns the index of the selected row.
func (l *JobList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *JobList) SetSelected(index int) {
	if index >= 0 && index < len(l.jobs) {
		l.selected = index
	}
}

// SelectedJob returns the currently selected job, or nil if none.
func (l *JobList) SelectedJob() *domain.Job {
	if len(l.jobs) == 0 || l.selected < 0 || l.selected >= len(l.jobs) {
		return nil
	}
	return &l.jobs[l.selected]
}

// MoveUp moves selection up.
func (l *JobList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *JobList) MoveDown() {
	if l.selected < len(l.jobs)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *JobList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Width returns the current width.
func (l *JobList) Width() int {
	return l.width
}

// Height returns the current height.
func (l *JobList) Height() int {
	return l.height
}

// Count returns the number of rows.
func (l *JobList) Count() int {
	return len(l.jobs)
}

// IsEmpty returns whether the list is empty.
func (l *JobList) IsEmpty() bool {
	return len(l.jobs) == 0
}
