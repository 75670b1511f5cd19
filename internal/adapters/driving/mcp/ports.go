package mcp

import (
	"github.com/custodia-labs/docflow/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
type Ports struct {
	// Jobs submits, lists and deletes processing jobs.
	Jobs driving.JobService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Jobs == nil {
		return ErrMissingJobService
	}
	return nil
}
