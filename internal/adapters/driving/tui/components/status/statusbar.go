// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docflow/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docflow/internal/core/domain"
)

// State represents the current dashboard state for display.
type State string

const (
	StateReady   State = "ready"
	StateBusy    State = "busy"
	StateError   State = "error"
	StateInput   State = "input"
	StateConfirm State = "confirm"
	StateHelp    State = "help"
)

// Counts summarises the registry by lifecycle state.
type Counts struct {
	Total     int
	Active    int
	Completed int
	Failed    int
	Stalled   int
}

// CountJobs tallies jobs by state.
func CountJobs(jobs []domain.Job) Counts {
	var c Counts
	for i := range jobs {
		c.Total++
		switch jobs[i].State {
		case domain.JobStateCompleted:
			c.Completed++
		case domain.JobStateFailed:
			c.Failed++
		case domain.JobStateStalled:
			c.Stalled++
		case domain.JobStateQueued, domain.JobStateUploading, domain.JobStateProcessing:
			c.Active++
		case domain.JobStateDeleted:
			c.Total--
		}
	}
	return c
}

// Bar displays job counts, the latest message and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	counts  Counts
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (s *Bar) renderLeft() string {
	switch s.state {
	case StateBusy:
		if s.message != "" {
			return s.styles.Info.Render(s.message)
		}
		return s.styles.Info.Render("Working...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateConfirm:
		return s.styles.Warning.Render(s.message)
	case StateHelp:
		return s.styles.Normal.Render("Help")
	case StateReady, StateInput:
	}

	parts := []string{s.renderCounts()}
	if s.message != "" {
		parts = append(parts, s.styles.Normal.Render(s.message))
	}
	return strings.Join(parts, s.styles.Muted.Render(" | "))
}

func (s *Bar) renderCounts() string {
	c := s.counts
	if c.Total == 0 {
		return s.styles.Muted.Render("No jobs")
	}

	parts := []string{fmt.Sprintf("%d jobs", c.Total)}
	if c.Active > 0 {
		parts = append(parts, s.styles.Info.Render(fmt.Sprintf("%d active", c.Active)))
	}
	if c.Completed > 0 {
		parts = append(parts, s.styles.Success.Render(fmt.Sprintf("%d done", c.Completed)))
	}
	if c.Failed > 0 {
		parts = append(parts, s.styles.Error.Render(fmt.Sprintf("%d failed", c.Failed)))
	}
	if c.Stalled > 0 {
		parts = append(parts, s.styles.Warning.Render(fmt.Sprintf("%d stalled", c.Stalled)))
	}
	return strings.Join(parts, " ")
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding

	switch {
	case s.state == StateInput:
		bindings = s.keymap.InputHelp()
	case s.state == StateConfirm:
		bindings = s.keymap.ConfirmHelp()
	case s.counts.Total > 0:
		bindings = s.keymap.JobsHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetJobs recomputes the counts from jobs.
func (s *Bar) SetJobs(jobs []domain.Job) {
	s.counts = CountJobs(jobs)
}

// Counts returns the current counts.
func (s *Bar) Counts() Counts {
	return s.counts
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state, keeping the counts.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
