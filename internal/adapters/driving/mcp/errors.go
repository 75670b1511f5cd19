// Package mcp provides an MCP (Model Context Protocol) server adapter for docflow.
// It lets AI assistants submit documents to the processing service and read
// the results.
package mcp

import "errors"

// ErrMissingJobService is returned when the job service is not provided.
var ErrMissingJobService = errors.New("mcp: job service is required")

// ErrNoPaths is returned when submit_files is called without paths.
var ErrNoPaths = errors.New("mcp: at least one path is required")

// ErrMissingJobID is returned when a tool needs a job ID and none was given.
var ErrMissingJobID = errors.New("mcp: job_id is required")
