package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file whose content type is neither PDF nor DOCX.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyBatch indicates a batch submission with no files.
	ErrEmptyBatch = errors.New("batch contains no files")

	// ErrProvisional indicates an operation that needs a confirmed identifier
	// was called with a provisional one.
	ErrProvisional = errors.New("job not yet confirmed by the processing service")

	// ErrServiceUnavailable indicates the processing service is not
	// configured, or is overloaded and asks clients to slow down.
	ErrServiceUnavailable = errors.New("processing service unavailable")
)

// ValidationError reports a file rejected before upload.
type ValidationError struct {
	// Name is the display name of the rejected file.
	Name string

	// ContentType is the declared content type.
	ContentType string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is not a supported file type. Only PDF and DOCX files are allowed.", e.Name)
}

// Unwrap allows errors.Is(err, ErrUnsupportedType).
func (e *ValidationError) Unwrap() error {
	return ErrUnsupportedType
}
