package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
)

// Ensure Session implements the interface.
var _ driven.BrowserSession = (*Session)(nil)

// element wraps a rod element handle.
type element struct {
	el *rod.Element
}

func (e *element) Key() string {
	return string(e.el.Object.ObjectID)
}

// Session is one browser process with a single page.
type Session struct {
	launcher  *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	navTime   time.Duration
	pollEvery time.Duration

	closeOnce sync.Once
	closeErr  error
	closed    bool
	mu        sync.Mutex
}

func (s *Session) live(ctx context.Context) (*rod.Page, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, domain.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.page.Context(ctx), nil
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string) error {
	p, err := s.live(ctx)
	if err != nil {
		return err
	}
	if s.navTime > 0 {
		p = p.Timeout(s.navTime)
		defer p.CancelTimeout()
	}
	if err := p.Navigate(url); err != nil {
		return classify(fmt.Errorf("navigate %s: %w", url, err))
	}
	if err := p.WaitLoad(); err != nil {
		return classify(fmt.Errorf("load %s: %w", url, err))
	}
	return nil
}

// FindVisible queries without waiting and filters by visibility.
func (s *Session) FindVisible(ctx context.Context, sel driven.Selector) ([]driven.Element, error) {
	p, err := s.live(ctx)
	if err != nil {
		return nil, err
	}

	var found rod.Elements
	if sel.Within != nil {
		root, err := unwrap(sel.Within)
		if err != nil {
			return nil, err
		}
		found, err = root.Context(ctx).Elements(sel.CSS)
		if err != nil {
			return nil, classify(err)
		}
	} else {
		found, err = p.Elements(sel.CSS)
		if err != nil {
			return nil, classify(err)
		}
	}

	out := make([]driven.Element, 0, len(found))
	for _, el := range found {
		ok, err := el.Visible()
		if err != nil {
			if errors.Is(classify(err), domain.ErrElementStale) {
				continue
			}
			return nil, classify(err)
		}
		if ok {
			out = append(out, &element{el: el})
		}
	}
	return out, nil
}

// TextOf returns the rendered text.
func (s *Session) TextOf(ctx context.Context, el driven.Element) (string, error) {
	if _, err := s.live(ctx); err != nil {
		return "", err
	}
	e, err := unwrap(el)
	if err != nil {
		return "", err
	}
	text, err := e.Context(ctx).Text()
	if err != nil {
		return "", classify(err)
	}
	return strings.TrimSpace(text), nil
}

// AttributeOf returns an attribute value.
func (s *Session) AttributeOf(ctx context.Context, el driven.Element, name string) (string, bool, error) {
	if _, err := s.live(ctx); err != nil {
		return "", false, err
	}
	e, err := unwrap(el)
	if err != nil {
		return "", false, err
	}
	v, err := e.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, classify(err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Click scrolls the element into view and clicks it once.
func (s *Session) Click(ctx context.Context, el driven.Element) error {
	if _, err := s.live(ctx); err != nil {
		return err
	}
	e, err := unwrap(el)
	if err != nil {
		return err
	}
	if err := e.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(err)
	}
	return nil
}

// RunScript evaluates a function expression. Element arguments are passed
// as remote object references.
func (s *Session) RunScript(ctx context.Context, js string, args ...any) (any, error) {
	p, err := s.live(ctx)
	if err != nil {
		return nil, err
	}
	jsArgs := make([]any, len(args))
	for i, a := range args {
		if el, ok := a.(driven.Element); ok {
			e, err := unwrap(el)
			if err != nil {
				return nil, err
			}
			jsArgs[i] = e.Object
			continue
		}
		jsArgs[i] = a
	}
	res, err := p.Eval(js, jsArgs...)
	if err != nil {
		return nil, classify(err)
	}
	return res.Value.Val(), nil
}

// WaitUntil polls cond every poll interval.
func (s *Session) WaitUntil(ctx context.Context, timeout time.Duration, cond driven.Condition) (bool, error) {
	if _, err := s.live(ctx); err != nil {
		return false, err
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(s.pollEvery)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// ScrollBy scrolls with the mouse wheel so scroll listeners fire.
func (s *Session) ScrollBy(ctx context.Context, dy int) error {
	p, err := s.live(ctx)
	if err != nil {
		return err
	}
	if err := p.Mouse.Scroll(0, float64(dy), 1); err != nil {
		return classify(err)
	}
	return nil
}

// Close closes the page, the browser and the launched process.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		var errs []error
		if s.page != nil {
			if err := s.page.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.browser != nil {
			if err := s.browser.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if s.launcher != nil {
			s.launcher.Kill()
			s.launcher.Cleanup()
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func unwrap(el driven.Element) (*rod.Element, error) {
	e, ok := el.(*element)
	if !ok || e == nil || e.el == nil {
		return nil, fmt.Errorf("%w: element from another session (%T)", domain.ErrInvalidInput, el)
	}
	return e.el, nil
}

// Protocol messages that mean a node handle no longer resolves.
var staleMarkers = []string{
	"Could not find node with given id",
	"No node with given id found",
	"Node is detached from document",
	"Cannot find context with specified id",
	"Cannot find object with id",
	"object not found",
}

// Messages that mean the browser or its page is gone.
var lostMarkers = []string{
	"target closed",
	"Target closed",
	"No target with given id",
	"Session with given id not found",
	"use of closed network connection",
	"websocket: close",
	"browser has disconnected",
	"EOF",
}

// classify maps driver failures onto the domain errors the crawl loop
// branches on.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := err.Error()
	for _, m := range staleMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", domain.ErrElementStale, err)
		}
	}
	for _, m := range lostMarkers {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%w: %v", domain.ErrSessionLost, err)
		}
	}
	return err
}
