// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"time"

	"github.com/custodia-labs/docflow/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewJobs is the jobs dashboard.
	ViewJobs ViewType = iota
	// ViewText shows the extracted text of a job.
	ViewText
	// ViewSettings shows the client settings.
	ViewSettings
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewJobs:
		return "jobs"
	case ViewText:
		return "text"
	case ViewSettings:
		return "settings"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Tick drives the periodic registry check.
type Tick struct {
	Time time.Time
}

// JobsChanged carries a fresh copy of the registry.
type JobsChanged struct {
	Jobs    []domain.Job
	Version uint64
}

// UploadRequested asks the app to load and submit the files at Path.
type UploadRequested struct {
	Path string
}

// BatchSubmitted reports the outcome of an upload batch.
type BatchSubmitted struct {
	Result *domain.BatchResult
	Err    error
}

// JobsRefreshed signals an authoritative reload finished.
type JobsRefreshed struct {
	Err error
}

// JobSelected asks to show the text of a job.
type JobSelected struct {
	Job domain.Job
}

// TextLoaded carries the extracted text of a job.
type TextLoaded struct {
	JobID string
	Text  string
	Err   error
}

// DeleteRequested asks to delete one job.
type DeleteRequested struct {
	ID string
}

// JobDeleted signals a single deletion finished.
type JobDeleted struct {
	ID  string
	Err error
}

// DeleteAllRequested asks to delete every job.
type DeleteAllRequested struct{}

// AllJobsDeleted carries the outcome of deleting every job.
type AllJobsDeleted struct {
	Summary *domain.DeleteSummary
	Err     error
}

// SettingsLoaded carries the client settings.
type SettingsLoaded struct {
	Settings *domain.ClientSettings
	Path     string
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
