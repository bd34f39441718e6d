package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/pflag"

	"github.com/AlbertoRQ/Baratazo/internal/adapters/driven/storage/memory"
	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driving"
	"github.com/AlbertoRQ/Baratazo/internal/core/services"
)

// mockRefresh implements driving.RefreshService.
type mockRefresh struct {
	mu       sync.Mutex
	stores   []string
	errs     map[string]error
	calls    []string
	allCalls int
	opts     driving.RefreshOptions
}

func (m *mockRefresh) report(store string, opts driving.RefreshOptions) *domain.RunReport {
	b := domain.CategoryBatch{
		Category: domain.CategoryRef{Name: "Lácteos"},
		Listings: make([]domain.NormalizedListing, 3),
		Rounds:   2,
	}
	r := &domain.RunReport{DryRun: opts.DryRun, Crawl: domain.CrawlReport{Store: store}}
	r.Crawl.Record(b)
	if !opts.DryRun {
		r.Reload = &domain.ReloadReport{Store: store, ProductsInserted: 3, CategoriesCreated: 1, LinksCreated: 3}
	}
	if opts.Observer != nil {
		opts.Observer.StoreStarted(store)
		opts.Observer.CategoryDone(store, b)
		opts.Observer.StoreFinished(store, r, m.errs[store])
	}
	return r
}

func (m *mockRefresh) Refresh(_ context.Context, store string, opts driving.RefreshOptions) (*domain.RunReport, error) {
	m.mu.Lock()
	m.calls = append(m.calls, store)
	m.opts = opts
	m.mu.Unlock()
	return m.report(store, opts), m.errs[store]
}

func (m *mockRefresh) RefreshAll(_ context.Context, opts driving.RefreshOptions) ([]domain.RunReport, error) {
	m.mu.Lock()
	m.allCalls++
	m.opts = opts
	m.mu.Unlock()
	var reports []domain.RunReport
	for _, s := range m.stores {
		reports = append(reports, *m.report(s, opts))
	}
	return reports, nil
}

func (m *mockRefresh) Status(_ context.Context, store string) (*driving.RunStatus, error) {
	return &driving.RunStatus{Store: store}, nil
}

func (m *mockRefresh) Stores() []string {
	return m.stores
}

// mockCatalog implements driving.CatalogService.
type mockCatalog struct {
	summaries []domain.StoreSummary
	err       error
}

func (m *mockCatalog) Summaries(context.Context) ([]domain.StoreSummary, error) {
	return m.summaries, m.err
}

func (m *mockCatalog) Products(context.Context, string) ([]domain.Product, error) {
	return nil, nil
}

// mockRuntime records the settings it was opened with.
type mockRuntime struct {
	services *Services
	err      error
	opened   *domain.AppSettings
	opens    int
	closed   bool
}

func (m *mockRuntime) Open(_ context.Context, settings domain.AppSettings) (*Services, error) {
	m.opened = &settings
	m.opens++
	if m.err != nil {
		return nil, m.err
	}
	svc := *m.services
	svc.Close = func() error {
		m.closed = true
		return nil
	}
	return &svc, nil
}

func setupCLITest(t *testing.T) (*mockRefresh, *mockCatalog, *mockRuntime) {
	t.Helper()
	refresh := &mockRefresh{stores: []string{"Mercadona", "Consum", "Bonpreu"}, errs: map[string]error{}}
	catalog := &mockCatalog{}
	rt := &mockRuntime{services: &Services{Refresh: refresh, Catalog: catalog}}

	oldSettings, oldRuntime, oldWatcher := settingsService, appRuntime, configWatcher
	settingsService = services.NewSettingsService(memory.NewConfigStore())
	appRuntime = rt
	configWatcher = nil
	t.Cleanup(func() {
		settingsService, appRuntime, configWatcher = oldSettings, oldRuntime, oldWatcher
	})
	return refresh, catalog, rt
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		resetFlags()
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every flag to its default between executions.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}
