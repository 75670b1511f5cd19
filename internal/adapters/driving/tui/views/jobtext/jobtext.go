// Package jobtext provides the extracted text view for the TUI.
package jobtext

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Lines reserved for the title, metadata, separator, scroll line and help.
const reservedLines = 7

// View shows the extracted text of one job in a scrollable viewport.
type View struct {
	ctx        context.Context
	styles     *styles.Styles
	jobService driving.JobService

	job      *domain.Job
	text     string
	viewport viewport.Model
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
}

// NewView creates a new job text view.
func NewView(s *styles.Styles, jobService driving.JobService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:        context.Background(),
		styles:     s,
		jobService: jobService,
		viewport:   viewport.New(80, 20),
	}
}

// SetContext sets the context used for fetches.
func (v *View) SetContext(ctx context.Context) {
	v.ctx = ctx
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetJob shows job and starts loading its text.
func (v *View) SetJob(job domain.Job) tea.Cmd {
	v.job = &job
	v.text = ""
	v.err = nil
	v.loading = true
	v.viewport.SetContent("")
	v.viewport.GotoTop()
	return v.loadText(job.ID)
}

func (v *View) loadText(id string) tea.Cmd {
	svc := v.jobService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.TextLoaded{JobID: id, Err: errors.New("job service not available")}
		}
		text, err := svc.FetchText(ctx, id)
		return messages.TextLoaded{JobID: id, Text: text, Err: err}
	}
}

// Update handles messages for the text view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.TextLoaded:
		if v.job == nil || msg.JobID != v.job.ID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.text = msg.Text
			v.refreshContent()
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewJobs}
		}
	case "home", "g":
		v.viewport.GotoTop()
		return v, nil
	case "end", "G":
		v.viewport.GotoBottom()
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// refreshContent wraps the text to the viewport width.
func (v *View) refreshContent() {
	width := v.viewport.Width - 2
	if width < 20 {
		width = 20
	}
	v.viewport.SetContent(lipgloss.NewStyle().Width(width).Render(v.text))
}

// View renders the text view.
func (v *View) View() string {
	var b strings.Builder

	title := "Extracted Text"
	if v.job != nil {
		title = v.job.DisplayName
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(v.renderMeta()))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", min(max(v.width-4, 10), 60)))
	b.WriteString("\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading text..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case strings.TrimSpace(v.text) == "":
		b.WriteString(v.styles.Muted.Render("(No text extracted)"))
	default:
		b.WriteString(v.viewport.View())
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%3.0f%%] %d lines",
			v.viewport.ScrollPercent()*100, v.viewport.TotalLineCount())))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back"))
	return b.String()
}

func (v *View) renderMeta() string {
	if v.job == nil {
		return ""
	}
	parts := []string{v.job.Kind.Label(), v.job.State.Label()}
	if v.job.Score != nil {
		parts = append(parts, fmt.Sprintf("score %.0f", *v.job.Score))
	}
	if v.job.WordCount > 0 {
		parts = append(parts, fmt.Sprintf("%d words", v.job.WordCount))
	}
	return strings.Join(parts, " · ")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.viewport.Width = max(width-2, 20)
	v.viewport.Height = max(height-reservedLines, 1)
	if v.text != "" {
		v.refreshContent()
	}
}

// Job returns the job being shown.
func (v *View) Job() *domain.Job {
	return v.job
}

// Text returns the loaded text.
func (v *View) Text() string {
	return v.text
}

// Loading reports whether a fetch is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
