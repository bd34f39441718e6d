package driving

import (
	"context"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
)

// Scheduler refreshes every store on a fixed interval.
type Scheduler interface {
	// Start refreshes immediately and then once per interval.
	// Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop ends the loop after any in-flight refresh completes.
	Stop() error

	// History returns the most recent runs, oldest first.
	History() []domain.ScheduledRun
}
