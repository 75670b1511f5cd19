// Package jobs provides the jobs dashboard view for the TUI.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docflow/internal/adapters/driven/localfs"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// ErrNoSupportedFiles is reported when an upload path holds no PDF or DOCX files.
var ErrNoSupportedFiles = errors.New("no supported files found")


// Mode is what the dashboard is waiting for.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeInput
	ModeConfirmDelete
	ModeConfirmDeleteAll
)

// View is the jobs dashboard: a path input, the job table and a status bar.
type View struct {
	ctx        context.Context
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	jobService driving.JobService

	input  *input.PathInput
	list   *list.JobList
	status *status.Bar

	mode      Mode
	pendingID string
	width     int
	height    int
	ready     bool
}

// NewView creates a new jobs dashboard.
func NewView(s *styles.Styles, jobService driving.JobService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()

	return &View{
		ctx:        context.Background(),
		styles:     s,
		keymap:     km,
		jobService: jobService,
		input:      input.NewPathInput(s),
		list:       list.NewJobList(s),
		status:     status.NewBar(s, km),
	}
}

// SetContext sets the context used for service calls.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the dashboard.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		switch v.mode {
		case ModeInput:
			return v.handleInputKey(msg)
		case ModeConfirmDelete, ModeConfirmDeleteAll:
			return v.handleConfirmKey(msg)
		case ModeBrowse:
		}
		return v.handleKeyMsg(msg)

	case messages.JobsChanged:
		v.SetJobs(msg.Jobs)
		return v, nil

	case messages.UploadRequested:
		v.setBusy(fmt.Sprintf("Uploading %s...", msg.Path))
		return v, v.upload(msg.Path)

	case messages.BatchSubmitted:
		if msg.Err != nil {
			v.setError(msg.Err)
		} else {
			v.setMessage(SummarizeBatch(msg.Result))
		}
		return v, nil

	case messages.JobsRefreshed:
		if msg.Err != nil {
			v.setError(fmt.Errorf("refresh failed: %w", msg.Err))
		} else {
			v.setMessage("Refreshed")
		}
		return v, nil

	case messages.DeleteRequested:
		v.setBusy("Deleting...")
		return v, v.deleteJob(msg.ID)

	case messages.JobDeleted:
		if msg.Err != nil {
			v.setError(fmt.Errorf("delete failed: %w", msg.Err))
		} else {
			v.setMessage("Job deleted")
		}
		return v, nil

	case messages.DeleteAllRequested:
		v.setBusy("Deleting all jobs...")
		return v, v.deleteAll()

	case messages.AllJobsDeleted:
		switch {
		case msg.Summary == nil:
			v.setError(msg.Err)
		case msg.Err != nil:
			v.setError(fmt.Errorf("%s (%w)", msg.Summary.Message(), msg.Err))
		default:
			v.setMessage(msg.Summary.Message())
		}
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses while browsing the table.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Quit):
		return v, tea.Quit

	case keymap.Matches(k, v.keymap.Upload):
		v.mode = ModeInput
		v.status.SetState(status.StateInput)
		v.status.SetMessage("")
		return v, v.input.Focus()

	case keymap.Matches(k, v.keymap.Refresh):
		v.setBusy("Refreshing...")
		return v, v.Refresh()

	case keymap.Matches(k, v.keymap.View):
		job := v.list.SelectedJob()
		if job == nil {
			return v, nil
		}
		if job.Provisional {
			v.setError(errors.New("the service has not accepted this job yet"))
			return v, nil
		}
		selected := *job
		return v, func() tea.Msg { return messages.JobSelected{Job: selected} }

	case keymap.Matches(k, v.keymap.Delete):
		job := v.list.SelectedJob()
		if job == nil {
			return v, nil
		}
		v.mode = ModeConfirmDelete
		v.pendingID = job.ID
		v.status.SetState(status.StateConfirm)
		v.status.SetMessage(fmt.Sprintf("Delete %s? (y/n)", job.DisplayName))
		return v, nil

	case keymap.Matches(k, v.keymap.DeleteAll):
		if v.list.IsEmpty() {
			return v, nil
		}
		v.mode = ModeConfirmDeleteAll
		v.status.SetState(status.StateConfirm)
		v.status.SetMessage(fmt.Sprintf("Delete all %d jobs? (y/n)", v.list.Count()))
		return v, nil

	case keymap.Matches(k, v.keymap.Settings):
		return v, changeView(messages.ViewSettings)

	case keymap.Matches(k, v.keymap.Help):
		return v, changeView(messages.ViewHelp)
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *View) handleInputKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		path := v.input.Path()
		if path == "" {
			return v, nil
		}
		v.leaveInput()
		return v, func() tea.Msg { return messages.UploadRequested{Path: path} }
	case "esc":
		v.leaveInput()
		v.status.Clear()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) leaveInput() {
	v.mode = ModeBrowse
	v.input.Reset()
	v.input.Blur()
	v.status.SetState(status.StateReady)
}

func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	mode := v.mode
	id := v.pendingID

	switch {
	case keymap.Matches(k, v.keymap.Confirm):
		v.mode = ModeBrowse
		v.pendingID = ""
		if mode == ModeConfirmDeleteAll {
			return v, func() tea.Msg { return messages.DeleteAllRequested{} }
		}
		return v, func() tea.Msg { return messages.DeleteRequested{ID: id} }
	case keymap.Matches(k, v.keymap.Deny):
		v.mode = ModeBrowse
		v.pendingID = ""
		v.status.Clear()
	}
	return v, nil
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg { return messages.ViewChanged{View: view} }
}

// Refresh returns a command that reloads the job list from the service.
func (v *View) Refresh() tea.Cmd {
	svc, ctx := v.jobService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.JobsRefreshed{Err: domain.ErrServiceUnavailable}
		}
		return messages.JobsRefreshed{Err: svc.Refresh(ctx)}
	}
}

func (v *View) upload(path string) tea.Cmd {
	svc, ctx := v.jobService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.BatchSubmitted{Err: domain.ErrServiceUnavailable}
		}
		files, err := localfs.LoadFiles([]string{path})
		if err != nil {
			return messages.BatchSubmitted{Err: err}
		}
		if len(files) == 0 {
			return messages.BatchSubmitted{Err: fmt.Errorf("%w in %s", ErrNoSupportedFiles, path)}
		}
		result, err := svc.SubmitBatch(ctx, files)
		return messages.BatchSubmitted{Result: result, Err: err}
	}
}

func (v *View) deleteJob(id string) tea.Cmd {
	svc, ctx := v.jobService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.JobDeleted{ID: id, Err: domain.ErrServiceUnavailable}
		}
		return messages.JobDeleted{ID: id, Err: svc.Delete(ctx, id)}
	}
}

func (v *View) deleteAll() tea.Cmd {
	svc, ctx := v.jobService, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.AllJobsDeleted{Err: domain.ErrServiceUnavailable}
		}
		summary, err := svc.DeleteAll(ctx)
		return messages.AllJobsDeleted{Summary: summary, Err: err}
	}
}

// SummarizeBatch returns the status line for a finished upload batch.
func SummarizeBatch(r *domain.BatchResult) string {
	if r == nil {
		return ""
	}

	parts := []string{fmt.Sprintf("Uploaded %d", len(r.Confirmed))}
	if len(r.Failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(r.Failed)))
	}
	if len(r.Rejected) > 0 {
		names := make([]string, 0, len(r.Rejected))
		for _, rej := range r.Rejected {
			names = append(names, rej.Name)
		}
		parts = append(parts, fmt.Sprintf("%d rejected (%s)", len(r.Rejected), strings.Join(names, ", ")))
	}
	line := strings.Join(parts, ", ")
	if r.RefreshErr != nil {
		line += "; refresh failed"
	}
	return line
}

func (v *View) setBusy(message string) {
	v.status.SetState(status.StateBusy)
	v.status.SetMessage(message)
}

func (v *View) setMessage(message string) {
	v.status.SetState(status.StateReady)
	v.status.SetMessage(message)
}

func (v *View) setError(err error) {
	if err == nil {
		v.status.Clear()
		return
	}
	v.status.SetState(status.StateError)
	v.status.SetMessage(err.Error())
}

// View renders the dashboard.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("docflow"))
	b.WriteString(v.styles.Muted.Render("  document processing jobs"))
	b.WriteString("\n\n")
	b.WriteString(v.input.View())
	b.WriteString("\n\n")
	b.WriteString(v.list.View())
	b.WriteString("\n\n")
	b.WriteString(v.status.View())

	return b.String()
}

// SetJobs updates the table and the status counts.
func (v *View) SetJobs(jobs []domain.Job) {
	v.list.SetJobs(jobs)
	v.status.SetJobs(jobs)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.status.SetWidth(width)
	// title, input box, status bar and spacing
	v.list.SetDimensions(width, max(height-9, 3))
}

// Mode returns what the dashboard is waiting for.
func (v *View) Mode() Mode {
	return v.mode
}

// PendingID returns the job awaiting delete confirmation.
func (v *View) PendingID() string {
	return v.pendingID
}

// Status returns the status bar.
func (v *View) Status() *status.Bar {
	return v.status
}

// List returns the job table.
func (v *View) List() *list.JobList {
	return v.list
}
