package domain

import "time"

// MaxRunHistory is how many scheduled runs a scheduler remembers.
const MaxRunHistory = 100

// ScheduledRun records one scheduled refresh of every store.
type ScheduledRun struct {
	Started  time.Time
	Finished time.Time

	// Stores is the number of stores that produced a report.
	Stores int

	// Records is the number of listings normalised across stores.
	Records int

	// Err is the joined failure message, empty on success.
	Err string
}

// Succeeded reports whether every store refreshed cleanly.
func (r ScheduledRun) Succeeded() bool {
	return r.Err == ""
}
