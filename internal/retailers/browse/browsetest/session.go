// Package browsetest provides an in-memory BrowserSession backed by goquery
// documents, for exercising retailer adapters without a browser.
//
// Pages are registered by URL. Clicks, scrolls and polling run hooks that
// tests use to mutate the document the way a storefront would.
package browsetest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/browse"
)

// Ensure Session implements the interface.
var _ driven.BrowserSession = (*Session)(nil)

// ErrTargetClosed is returned by every call after Kill.
var ErrTargetClosed = errors.New("browsetest: target closed")

// Action mutates the session in response to an interaction.
type Action func(s *Session) error

// ScriptFunc answers a script the fake does not know natively.
type ScriptFunc func(s *Session, args ...any) (any, error)

type clickHook struct {
	css       string
	synthetic bool
	fn        Action
}

type element struct {
	sel *goquery.Selection
	gen int
}

func (e *element) Key() string {
	return fmt.Sprintf("%p", e.sel.Nodes[0])
}

// Session is a fake driven.BrowserSession. It is not safe for concurrent use,
// like the sessions it stands in for.
type Session struct {
	pages   map[string]string
	doc     *goquery.Document
	gen     int
	url     string
	offset  float64
	bottom  float64
	hooks   []clickHook
	scripts map[string]ScriptFunc

	onScroll Action
	onTick   Action

	closed bool
	dead   bool
	stale  int

	// Visited records every navigation in order.
	Visited []string

	// Clicks counts direct and synthetic clicks.
	Clicks int
}

// New returns an empty session showing a blank page.
func New() *Session {
	s := &Session{
		pages:   make(map[string]string),
		scripts: make(map[string]ScriptFunc),
	}
	s.SetHTML("<html><body></body></html>")
	return s
}

// AddPage registers the HTML served for url.
func (s *Session) AddPage(url, html string) *Session {
	s.pages[url] = html
	return s
}

// SetHTML replaces the current document. Existing element handles go stale.
func (s *Session) SetHTML(html string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		panic(fmt.Sprintf("browsetest: parse html: %v", err))
	}
	s.doc = doc
	s.gen++
}

// AppendHTML appends markup to the first element matching css, the way an
// infinite list grows. Existing handles stay valid.
func (s *Session) AppendHTML(css, html string) {
	s.doc.Find(css).First().AppendHtml(html)
}

// SetScrollHeight sets how far the page can scroll.
func (s *Session) SetScrollHeight(bottom float64) {
	s.bottom = bottom
	if s.offset > bottom {
		s.offset = bottom
	}
}

// OnClick runs fn when a direct click hits an element matching css.
func (s *Session) OnClick(css string, fn Action) {
	s.hooks = append(s.hooks, clickHook{css: css, fn: fn})
}

// OnSyntheticClick runs fn when the synthetic click script targets an element
// matching css.
func (s *Session) OnSyntheticClick(css string, fn Action) {
	s.hooks = append(s.hooks, clickHook{css: css, synthetic: true, fn: fn})
}

// OnScroll runs fn whenever the scroll offset changes.
func (s *Session) OnScroll(fn Action) { s.onScroll = fn }

// OnTick runs fn between WaitUntil polls.
func (s *Session) OnTick(fn Action) { s.onTick = fn }

// HandleScript answers js with fn.
func (s *Session) HandleScript(js string, fn ScriptFunc) {
	s.scripts[js] = fn
}

// StaleNext makes the next n text or attribute reads fail with
// domain.ErrElementStale, as when a node is swapped during a re-render.
func (s *Session) StaleNext(n int) { s.stale = n }

func (s *Session) staleRead() bool {
	if s.stale > 0 {
		s.stale--
		return true
	}
	return false
}

// Kill makes every later call fail as if the browser died.
func (s *Session) Kill() { s.dead = true }

// URL returns the current page URL.
func (s *Session) URL() string { return s.url }

// Offset returns the current scroll offset.
func (s *Session) Offset() float64 { return s.offset }

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed }

// Document exposes the current document for assertions.
func (s *Session) Document() *goquery.Document { return s.doc }

func (s *Session) check() error {
	switch {
	case s.dead:
		return ErrTargetClosed
	case s.closed:
		return domain.ErrSessionClosed
	}
	return nil
}

func (s *Session) resolve(el driven.Element) (*element, error) {
	e, ok := el.(*element)
	if !ok || e == nil {
		return nil, fmt.Errorf("browsetest: foreign element %T", el)
	}
	if e.gen != s.gen {
		return nil, domain.ErrElementStale
	}
	return e, nil
}

// Navigate loads a registered page.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	html, ok := s.pages[url]
	if !ok {
		return fmt.Errorf("navigate %s: no such page", url)
	}
	s.Visited = append(s.Visited, url)
	s.url = url
	s.offset = 0
	s.SetHTML(html)
	return nil
}

// FindVisible matches css against the document or within an element,
// skipping nodes hidden by a hidden attribute or display:none.
func (s *Session) FindVisible(ctx context.Context, sel driven.Selector) ([]driven.Element, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	root := s.doc.Selection
	if sel.Within != nil {
		e, err := s.resolve(sel.Within)
		if err != nil {
			return nil, err
		}
		root = e.sel
	}

	var out []driven.Element
	root.Find(sel.CSS).Each(func(_ int, n *goquery.Selection) {
		if visible(n) {
			out = append(out, &element{sel: n, gen: s.gen})
		}
	})
	return out, nil
}

func visible(n *goquery.Selection) bool {
	for cur := n; cur.Length() > 0; cur = cur.Parent() {
		if _, hidden := cur.Attr("hidden"); hidden {
			return false
		}
		style := strings.ReplaceAll(cur.AttrOr("style", ""), " ", "")
		if strings.Contains(style, "display:none") {
			return false
		}
	}
	return true
}

// TextOf returns the element text, trimmed.
func (s *Session) TextOf(ctx context.Context, el driven.Element) (string, error) {
	if err := s.check(); err != nil {
		return "", err
	}
	if s.staleRead() {
		return "", domain.ErrElementStale
	}
	e, err := s.resolve(el)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(e.sel.Text()), nil
}

// AttributeOf returns an attribute of the element.
func (s *Session) AttributeOf(ctx context.Context, el driven.Element, name string) (string, bool, error) {
	if err := s.check(); err != nil {
		return "", false, err
	}
	if s.staleRead() {
		return "", false, domain.ErrElementStale
	}
	e, err := s.resolve(el)
	if err != nil {
		return "", false, err
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// Click runs the direct click hooks matching the element.
func (s *Session) Click(ctx context.Context, el driven.Element) error {
	if err := s.check(); err != nil {
		return err
	}
	e, err := s.resolve(el)
	if err != nil {
		return err
	}
	if _, disabled := e.sel.Attr("disabled"); disabled {
		return errors.New("browsetest: element is disabled")
	}
	s.Clicks++
	return s.fire(e, false)
}

func (s *Session) fire(e *element, synthetic bool) error {
	for _, h := range s.hooks {
		if h.synthetic == synthetic && e.sel.Is(h.css) {
			return h.fn(s)
		}
	}
	return nil
}

// RunScript answers registered scripts first, then the shared browse scripts.
// Unknown scripts return nil.
func (s *Session) RunScript(ctx context.Context, js string, args ...any) (any, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	if fn, ok := s.scripts[js]; ok {
		return fn(s, args...)
	}

	switch js {
	case driven.ScriptProbe:
		return float64(1), nil
	case browse.ScriptOuterHTML:
		if len(args) > 0 {
			e, err := s.argElement(args[0])
			if err != nil {
				return nil, err
			}
			return goquery.OuterHtml(e.sel)
		}
		return s.doc.Html()
	case browse.ScriptPageOffset:
		return s.offset, nil
	case browse.ScriptScrollToBottom:
		if err := s.scrollTo(s.bottom); err != nil {
			return nil, err
		}
		return s.offset, nil
	case browse.ScriptSyntheticClick:
		e, err := s.argElement(args...)
		if err != nil {
			return nil, err
		}
		s.Clicks++
		return true, s.fire(e, true)
	case browse.ScriptSetValue:
		e, err := s.argElement(args...)
		if err != nil {
			return nil, err
		}
		if len(args) > 1 {
			e.sel.SetAttr("value", fmt.Sprint(args[1]))
		}
		return true, nil
	}
	return nil, nil
}

func (s *Session) argElement(args ...any) (*element, error) {
	if len(args) == 0 {
		return nil, errors.New("browsetest: missing element argument")
	}
	el, ok := args[0].(driven.Element)
	if !ok {
		return nil, fmt.Errorf("browsetest: argument is %T, not an element", args[0])
	}
	return s.resolve(el)
}

// WaitUntil evaluates cond a few times, running the tick hook in between.
// Time does not pass in the fake, so the timeout only matters when it is
// already zero.
func (s *Session) WaitUntil(ctx context.Context, timeout time.Duration, cond driven.Condition) (bool, error) {
	if err := s.check(); err != nil {
		return false, err
	}
	for i := 0; i < 3; i++ {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if timeout <= 0 {
			break
		}
		if s.onTick != nil {
			if err := s.onTick(s); err != nil {
				return false, err
			}
		}
	}
	return false, nil
}

// ScrollBy moves the offset within [0, scroll height].
func (s *Session) ScrollBy(ctx context.Context, dy int) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.scrollTo(s.offset + float64(dy))
}

func (s *Session) scrollTo(v float64) error {
	if v < 0 {
		v = 0
	}
	if v > s.bottom {
		v = s.bottom
	}
	if v == s.offset {
		return nil
	}
	s.offset = v
	if s.onScroll != nil {
		return s.onScroll(s)
	}
	return nil
}

// Close marks the session closed. It is safe to call twice.
func (s *Session) Close() error {
	s.closed = true
	return nil
}

// Factory hands out prepared sessions in order. It is safe for concurrent use.
type Factory struct {
	mu       sync.Mutex
	Sessions []*Session
	Opened   int
	Err      error
}

// Open returns the next prepared session.
func (f *Factory) Open(ctx context.Context) (driven.BrowserSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Opened >= len(f.Sessions) {
		return nil, errors.New("browsetest: no session prepared")
	}
	s := f.Sessions[f.Opened]
	f.Opened++
	return s, nil
}
