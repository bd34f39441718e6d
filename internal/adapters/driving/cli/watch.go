package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

var watchEvery time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Refresh every store on a fixed interval",
	Long: `Crawls and reloads every registered store, then waits for the interval
and starts again, until interrupted. The wait is timed from the end of the
previous run, so runs never overlap.

Edits to the configuration file are picked up before the next run.`,
	Example: "  baratazo watch --every 12h",
	Args:    cobra.NoArgs,
	RunE:    runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchEvery, "every", 24*time.Hour, "time between the end of one run and the start of the next")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if watchEvery <= 0 {
		return fmt.Errorf("%w: --every must be positive", domain.ErrInvalidInput)
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	svc, err := openServices(cmd, *settings)
	if err != nil {
		return err
	}
	if svc.NewScheduler == nil {
		closeServices(svc)
		return errors.New("scheduler not configured")
	}

	refresh := &reloadingRefresh{svc: svc, out: cmd.OutOrStdout()}
	defer func() { closeServices(refresh.current()) }()
	if configWatcher != nil {
		changes, err := configWatcher.Watch(cmd.Context())
		if err != nil {
			logger.Warn("configuration changes will not be picked up: %v", err)
		} else {
			refresh.changes = changes
		}
	}

	opts := driving.RefreshOptions{Observer: newLineObserver(cmd.OutOrStdout())}
	scheduler := svc.NewScheduler(refresh, watchEvery, opts)

	cmd.Printf("Refreshing %d stores every %s. Press Ctrl+C to stop.\n", len(svc.Refresh.Stores()), watchEvery)
	err = scheduler.Start(cmd.Context())

	history := scheduler.History()
	failed := 0
	for _, run := range history {
		if !run.Succeeded() {
			failed++
		}
	}
	cmd.Printf("%d runs, %d with errors\n", len(history), failed)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reloadingRefresh reopens the services with fresh settings before a run
// when the configuration changed since the previous one. If the new
// settings cannot be opened the previous services stay in use.
type reloadingRefresh struct {
	mu      sync.Mutex
	svc     *Services
	changes <-chan struct{}
	out     io.Writer
}

var _ driving.RefreshService = (*reloadingRefresh)(nil)

func (r *reloadingRefresh) current() *Services {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.svc
}

func (r *reloadingRefresh) reload(ctx context.Context) {
	select {
	case _, ok := <-r.changes:
		if !ok {
			return
		}
	default:
		return
	}

	settings, err := loadSettings()
	if err != nil {
		logger.Warn("configuration changed but could not be read: %v", err)
		return
	}
	next, err := appRuntime.Open(ctx, *settings)
	if err != nil {
		logger.Warn("configuration changed but was not applied: %v", err)
		return
	}

	r.mu.Lock()
	prev := r.svc
	r.svc = next
	r.mu.Unlock()
	closeServices(prev)
	fmt.Fprintln(r.out, "Configuration changed, settings reloaded.")
}

// Refresh reloads pending settings, then refreshes one store.
func (r *reloadingRefresh) Refresh(ctx context.Context, store string, opts driving.RefreshOptions) (*domain.RunReport, error) {
	r.reload(ctx)
	return r.current().Refresh.Refresh(ctx, store, opts)
}

// RefreshAll reloads pending settings, then refreshes every store.
func (r *reloadingRefresh) RefreshAll(ctx context.Context, opts driving.RefreshOptions) ([]domain.RunReport, error) {
	r.reload(ctx)
	return r.current().Refresh.RefreshAll(ctx, opts)
}

// Status reports the last run of store.
func (r *reloadingRefresh) Status(ctx context.Context, store string) (*driving.RunStatus, error) {
	return r.current().Refresh.Status(ctx, store)
}

// Stores lists the registered stores.
func (r *reloadingRefresh) Stores() []string {
	return r.current().Refresh.Stores()
}
