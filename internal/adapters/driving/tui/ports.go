// Package tui provides an interactive terminal dashboard for docflow jobs.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Jobs submits, lists and deletes processing jobs.
	Jobs driving.JobService

	// Settings reads client settings. Optional.
	Settings driving.SettingsService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(jobs driving.JobService, settings driving.SettingsService) *Ports {
	return &Ports{
		Jobs:     jobs,
		Settings: settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Jobs == nil {
		return ErrMissingJobService
	}
	return nil
}
