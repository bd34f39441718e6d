package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui"
	"github.com/AlbertoRQ/Baratazo/internal/adapters/driving/tui/styles"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

type crawlFlags struct {
	headless        bool
	noImages        bool
	dryRun          bool
	plain           bool
	limitCategories int
	categories      []string
}

var crawlOpts crawlFlags

var crawlCmd = &cobra.Command{
	Use:   "crawl [store...]",
	Short: "Crawl stores and reload their catalogs",
	Long: `Crawls the named stores, or every registered store when none is given,
normalises their listings and replaces each store's products, categories and
links in the catalog. Stores are crawled in parallel, one browser session each.

A store whose crawl fails or yields no listings keeps its previous catalog.

--category, --limit-categories and the crawl.categories setting narrow the
crawl, but the reload still replaces the whole store: its catalog shrinks to
the categories crawled. Pair them with --dry-run to look without reloading.`,
	Example: `  baratazo crawl
  baratazo crawl consum --category lácteos --dry-run
  baratazo crawl mercadona --limit-categories 3 --headless=false`,
	RunE: runCrawl,
}

func init() {
	f := crawlCmd.Flags()
	f.BoolVar(&crawlOpts.headless, "headless", true, "run the browser without a window")
	f.BoolVar(&crawlOpts.noImages, "no-images", false, "block image downloads")
	f.BoolVar(&crawlOpts.dryRun, "dry-run", false, "crawl and normalise without touching the catalog")
	f.BoolVar(&crawlOpts.plain, "plain", false, "print progress lines instead of the live view")
	f.IntVar(&crawlOpts.limitCategories, "limit-categories", 0, "crawl at most this many categories per store")
	f.StringSliceVar(&crawlOpts.categories, "category", nil, "only crawl categories whose name contains this text (repeatable)")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("headless") {
		settings.Browser.Headless = crawlOpts.headless
	}
	if crawlOpts.noImages {
		settings.Browser.LoadImages = false
	}
	if crawlOpts.limitCategories < 0 {
		return fmt.Errorf("%w: --limit-categories must not be negative", domain.ErrInvalidInput)
	}

	svc, err := openServices(cmd, *settings)
	if err != nil {
		return err
	}
	defer closeServices(svc)

	stores := args
	if len(stores) == 0 {
		stores = svc.Refresh.Stores()
	}

	opts := driving.RefreshOptions{
		DryRun:          crawlOpts.dryRun,
		Categories:      settings.Crawl.Categories,
		LimitCategories: crawlOpts.limitCategories,
	}
	if len(crawlOpts.categories) > 0 {
		opts.Categories = crawlOpts.categories
	}
	if !opts.DryRun && (len(opts.Categories) > 0 || opts.LimitCategories > 0) {
		fmt.Fprintln(cmd.OutOrStdout(), "Crawling a subset of categories: each store's catalog will be replaced by that subset.")
	}

	var reports []domain.RunReport
	work := func(ctx context.Context, observer driving.RunObserver) error {
		opts.Observer = observer
		var err error
		reports, err = refreshStores(ctx, svc.Refresh, args, opts)
		return err
	}

	out := cmd.OutOrStdout()
	if useLiveView(out) {
		err = runLive(cmd.Context(), stores, work)
	} else {
		err = work(cmd.Context(), newLineObserver(out))
	}

	s := styles.DefaultStyles()
	for _, r := range reports {
		fmt.Fprintln(out, renderReport(s, r))
	}
	return err
}

// refreshStores refreshes every registered store when names is empty, and
// the named stores in parallel otherwise. Reports keep the order of names.
func refreshStores(
	ctx context.Context,
	refresh driving.RefreshService,
	names []string,
	opts driving.RefreshOptions,
) ([]domain.RunReport, error) {
	if len(names) == 0 {
		return refresh.RefreshAll(ctx, opts)
	}

	names = dedupeStores(names)
	reports := make([]*domain.RunReport, len(names))
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reports[i], errs[i] = refresh.Refresh(ctx, name, opts)
		}()
	}
	wg.Wait()

	out := make([]domain.RunReport, 0, len(reports))
	for _, r := range reports {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, errors.Join(errs...)
}

func dedupeStores(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := domain.NormaliseKey(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func useLiveView(w io.Writer) bool {
	if crawlOpts.plain || logger.IsVerbose() {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// runLive renders the live view while work runs. Log output is held back
// until the view has exited so it does not tear the rendering.
func runLive(ctx context.Context, stores []string, work tui.Work) error {
	app, err := tui.NewApp(stores)
	if err != nil {
		return err
	}

	var held bytes.Buffer
	logger.SetOutput(&held)
	defer func() {
		logger.SetOutput(os.Stderr)
		_, _ = held.WriteTo(os.Stderr)
	}()

	return app.Run(ctx, work)
}

// lineObserver prints one line per progress event.
type lineObserver struct {
	mu  sync.Mutex
	out io.Writer
}

func newLineObserver(out io.Writer) *lineObserver {
	return &lineObserver{out: out}
}

func (o *lineObserver) printf(store, format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, "[%s] "+format+"\n", append([]any{store}, args...)...)
}

func (o *lineObserver) StoreStarted(store string) {
	o.printf(store, "crawling")
}

func (o *lineObserver) CategoryDone(store string, b domain.CategoryBatch) {
	switch {
	case b.Skipped():
		o.printf(store, "%s: skipped (%v)", b.Category, b.Err)
	case b.Partial:
		o.printf(store, "%s: %d listings in %d rounds, partial (%v)", b.Category, len(b.Listings), b.Rounds, b.Err)
	default:
		o.printf(store, "%s: %d listings in %d rounds", b.Category, len(b.Listings), b.Rounds)
	}
}

func (o *lineObserver) StoreFinished(store string, report *domain.RunReport, err error) {
	if err != nil {
		o.printf(store, "failed: %v", err)
		return
	}
	if report != nil {
		o.printf(store, "done in %s", report.Duration().Round(10*time.Millisecond))
		return
	}
	o.printf(store, "done")
}
