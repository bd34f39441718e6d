package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/normalisers/listing"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/browse/browsetest"
)

// scriptedAdapter implements driven.SourceAdapter from per-category rounds.
// Round i of a category is what ExtractVisible returns after i advances; once
// the rounds run out the last one repeats.
type scriptedAdapter struct {
	profile     domain.SourceProfile
	cats        []domain.CategoryRef
	discoverErr error
	openErr     map[string]error
	rounds      map[string][][]domain.RawListing
	extractErrs map[string][]error
	advanceErr  map[string]error
	onExtract   func(cat domain.CategoryRef, s driven.BrowserSession)
	endless     bool

	mu       sync.Mutex
	pos      map[string]int
	extracts int
	advances int
}

func newScriptedAdapter(store string, mode domain.AdvanceMode) *scriptedAdapter {
	return &scriptedAdapter{
		profile:     domain.SourceProfile{Store: store, Mode: mode},
		openErr:     make(map[string]error),
		rounds:      make(map[string][][]domain.RawListing),
		extractErrs: make(map[string][]error),
		advanceErr:  make(map[string]error),
		pos:         make(map[string]int),
	}
}

func (a *scriptedAdapter) addCategory(name string, rounds ...[]domain.RawListing) domain.CategoryRef {
	cat := domain.CategoryRef{Name: name, URL: "https://shop.test/c/" + name}
	a.cats = append(a.cats, cat)
	a.rounds[cat.URL] = rounds
	return cat
}

func (a *scriptedAdapter) Profile() domain.SourceProfile { return a.profile }

func (a *scriptedAdapter) DiscoverCategories(_ context.Context, _ driven.BrowserSession) ([]domain.CategoryRef, error) {
	if a.discoverErr != nil {
		return nil, a.discoverErr
	}
	return a.cats, nil
}

func (a *scriptedAdapter) OpenCategory(_ context.Context, _ driven.BrowserSession, cat domain.CategoryRef) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pos[cat.URL] = 0
	return a.openErr[cat.URL]
}

func (a *scriptedAdapter) ExtractVisible(_ context.Context, s driven.BrowserSession, cat domain.CategoryRef) ([]domain.RawListing, error) {
	if a.onExtract != nil {
		a.onExtract(cat, s)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.extracts++

	if errs := a.extractErrs[cat.URL]; len(errs) > 0 {
		a.extractErrs[cat.URL] = errs[1:]
		if errs[0] != nil {
			return nil, errs[0]
		}
	}

	if a.endless {
		i := a.pos[cat.URL]
		return []domain.RawListing{{Name: fmt.Sprintf("Producto %d", i), PriceText: "1,00 €"}}, nil
	}
	rounds := a.rounds[cat.URL]
	if len(rounds) == 0 {
		return nil, nil
	}
	i := a.pos[cat.URL]
	if i >= len(rounds) {
		i = len(rounds) - 1
	}
	return rounds[i], nil
}

func (a *scriptedAdapter) Advance(_ context.Context, _ driven.BrowserSession, cat domain.CategoryRef) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.advances++
	if err := a.advanceErr[cat.URL]; err != nil {
		return false, err
	}
	a.pos[cat.URL]++
	if a.endless {
		return true, nil
	}
	return a.pos[cat.URL] < len(a.rounds[cat.URL]), nil
}

func (a *scriptedAdapter) counts() (extracts, advances int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.extracts, a.advances
}

// sessions returns a factory with n fresh fake sessions.
func sessions(n int) *browsetest.Factory {
	f := &browsetest.Factory{}
	for i := 0; i < n; i++ {
		f.Sessions = append(f.Sessions, browsetest.New())
	}
	return f
}

// testCrawlSettings disables every delay.
func testCrawlSettings() domain.CrawlSettings {
	s := domain.DefaultCrawlSettings()
	s.StableRounds = 2
	s.MaxRounds = 50
	s.ScrollPause = 0
	s.PollInterval = 0
	return s
}

func newTestController(factory driven.SessionFactory, settings domain.CrawlSettings) *CrawlController {
	c := NewCrawlController(factory, listing.New(), settings)
	c.backoff = 0
	return c
}

func raw(name, price, url string, path ...string) domain.RawListing {
	return domain.RawListing{Name: name, PriceText: price, PackageText: name, DetailURL: url, CategoryPath: path}
}

// drain collects a crawl stream.
func drain(batchesCh <-chan domain.CategoryBatch, errsCh <-chan error) ([]domain.CategoryBatch, error) {
	var batches []domain.CategoryBatch
	for b := range batchesCh {
		batches = append(batches, b)
	}
	var err error
	for e := range errsCh {
		if e != nil && err == nil {
			err = e
		}
	}
	return batches, err
}

// recordingObserver implements driving.RunObserver.
type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	done     map[string]int
	finished map[string]error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{done: make(map[string]int), finished: make(map[string]error)}
}

func (o *recordingObserver) StoreStarted(store string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, store)
}

func (o *recordingObserver) CategoryDone(store string, _ domain.CategoryBatch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.done[store]++
}

func (o *recordingObserver) StoreFinished(store string, _ *domain.RunReport, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished[store] = err
}
