package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// Collection selects which document pipeline the service runs.
type Collection string

// Available collections.
const (
	// CollectionJobs holds job descriptions.
	CollectionJobs Collection = "jobs"

	// CollectionCandidates holds candidate CVs.
	CollectionCandidates Collection = "candidates"
)

// IsValid returns true if the collection is recognised.
func (c Collection) IsValid() bool {
	switch c {
	case CollectionJobs, CollectionCandidates:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Collection) String() string {
	return string(c)
}

// Description returns a human-readable description of the collection.
func (c Collection) Description() string {
	switch c {
	case CollectionJobs:
		return "Job descriptions"
	case CollectionCandidates:
		return "Candidate CVs"
	default:
		return unknownDescription
	}
}

// AllCollections returns all available collections.
func AllCollections() []Collection {
	return []Collection{CollectionJobs, CollectionCandidates}
}

// ServerSettings holds processing service connection configuration.
type ServerSettings struct {
	// BaseURL is the service root, e.g. http://localhost:8000.
	BaseURL string

	// Collection is the route prefix under BaseURL.
	Collection Collection

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RateLimit is the maximum number of requests per second.
	// Zero disables limiting.
	RateLimit float64
}

// PollSettings holds status polling configuration.
type PollSettings struct {
	// Interval is the delay between poll ticks.
	Interval time.Duration

	// Increment is the cosmetic progress added on each non-terminal tick.
	Increment int

	// Ceiling is the progress above which increments stop until the
	// service reports a terminal state.
	Ceiling int

	// MaxFailures is the number of consecutive failed ticks after which a
	// job is marked stalled. Zero polls forever.
	MaxFailures int

	// MaxBackoff caps the delay between ticks after failures.
	MaxBackoff time.Duration
}

// WatchSettings holds directory watcher configuration.
type WatchSettings struct {
	// Debounce is how long the watcher waits for writes to settle before
	// submitting the collected files as a batch.
	Debounce time.Duration
}

// ClientSettings holds all client settings.
type ClientSettings struct {
	// Server holds processing service settings.
	Server ServerSettings

	// Poll holds polling settings.
	Poll PollSettings

	// Watch holds directory watcher settings.
	Watch WatchSettings
}

// DefaultClientSettings returns settings matching the reference client:
// one poll per second, five points of progress per tick, capped at 90.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		Server: ServerSettings{
			BaseURL:    "http://localhost:8000",
			Collection: CollectionJobs,
			Timeout:    60 * time.Second,
			RateLimit:  10,
		},
		Poll: PollSettings{
			Interval:    time.Second,
			Increment:   5,
			Ceiling:     90,
			MaxFailures: 10,
			MaxBackoff:  30 * time.Second,
		},
		Watch: WatchSettings{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// Validate checks the settings for values that would break polling or
// transport.
func (s ClientSettings) Validate() error {
	if s.Server.BaseURL == "" {
		return fmt.Errorf("%w: server base URL is empty", ErrInvalidInput)
	}
	if !s.Server.Collection.IsValid() {
		return fmt.Errorf("%w: unknown collection %q", ErrInvalidInput, s.Server.Collection)
	}
	if s.Server.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidInput)
	}
	if s.Poll.Interval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidInput)
	}
	if s.Poll.Increment < 0 {
		return fmt.Errorf("%w: poll increment must not be negative", ErrInvalidInput)
	}
	if s.Poll.Ceiling < 0 || s.Poll.Ceiling > 100 {
		return fmt.Errorf("%w: poll ceiling must be between 0 and 100", ErrInvalidInput)
	}
	if s.Poll.MaxFailures < 0 {
		return fmt.Errorf("%w: poll max failures must not be negative", ErrInvalidInput)
	}
	return nil
}
