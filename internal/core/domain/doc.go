// Package domain defines the core business entities for docflow.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Job: One submitted document tracked through the parsing pipeline
//   - JobSnapshot: The processing service's view of a job
//   - FileUpload: A local file handed to the orchestrator
//   - ClientSettings: Server, polling and watch configuration
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
