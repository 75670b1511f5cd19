package driving

// PollSupervisor owns one background status poll per confirmed job.
type PollSupervisor interface {
	// Watch starts polling id. Returns false if a poll for id is already
	// running or id is not a confirmed job.
	Watch(id string) bool

	// Cancel stops polling id. Unknown IDs are ignored.
	Cancel(id string)

	// Active reports whether id is being polled.
	Active(id string) bool

	// ActiveCount returns the number of running polls.
	ActiveCount() int

	// Stop cancels every poll and waits for them to exit.
	Stop()
}
