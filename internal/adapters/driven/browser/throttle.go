// Package browser holds session factory decorators shared by every browser
// backend.
package browser

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
)

// Ensure ThrottledFactory implements the interface.
var _ driven.SessionFactory = (*ThrottledFactory)(nil)

// ThrottledFactory wraps sessions so navigations and clicks draw from a
// token bucket. Each session gets its own bucket.
type ThrottledFactory struct {
	next      driven.SessionFactory
	perSecond float64
}

// Throttled wraps next. A non-positive rate disables throttling.
func Throttled(next driven.SessionFactory, perSecond float64) driven.SessionFactory {
	if perSecond <= 0 {
		return next
	}
	return &ThrottledFactory{next: next, perSecond: perSecond}
}

// Open opens a session from the wrapped factory.
func (f *ThrottledFactory) Open(ctx context.Context) (driven.BrowserSession, error) {
	s, err := f.next.Open(ctx)
	if err != nil {
		return nil, err
	}
	return &throttledSession{
		BrowserSession: s,
		bucket:         rate.NewLimiter(rate.Limit(f.perSecond), 1),
	}, nil
}

// throttledSession delays the actions a storefront can count.
type throttledSession struct {
	driven.BrowserSession
	bucket *rate.Limiter
}

func (s *throttledSession) Navigate(ctx context.Context, url string) error {
	if err := s.bucket.Wait(ctx); err != nil {
		return err
	}
	return s.BrowserSession.Navigate(ctx, url)
}

func (s *throttledSession) Click(ctx context.Context, el driven.Element) error {
	if err := s.bucket.Wait(ctx); err != nil {
		return err
	}
	return s.BrowserSession.Click(ctx, el)
}
