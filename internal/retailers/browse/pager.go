package browse

import (
	"context"
	"fmt"
	"time"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// Strategy is one way of activating a next-page control.
type Strategy interface {
	Name() string
	Apply(ctx context.Context, s driven.BrowserSession, target driven.Element) error
}

// ClickDirect clicks the control itself.
type ClickDirect struct{}

// Name returns the strategy name.
func (ClickDirect) Name() string { return "click" }

// Apply clicks target.
func (ClickDirect) Apply(ctx context.Context, s driven.BrowserSession, target driven.Element) error {
	return s.Click(ctx, target)
}

// ClickDescendant clicks an icon inside the control, for controls whose
// listener sits on the inner element.
type ClickDescendant struct {
	CSS string
}

// Name returns the strategy name.
func (c ClickDescendant) Name() string { return "click descendant" }

// Apply clicks the first visible descendant matching CSS.
func (c ClickDescendant) Apply(ctx context.Context, s driven.BrowserSession, target driven.Element) error {
	el, ok, err := First(ctx, s, target, c.CSS)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no descendant matches %q", c.CSS)
	}
	return s.Click(ctx, el)
}

// SyntheticPointer dispatches pointer and mouse events from script.
type SyntheticPointer struct{}

// Name returns the strategy name.
func (SyntheticPointer) Name() string { return "synthetic pointer" }

// Apply runs the synthetic click script on target.
func (SyntheticPointer) Apply(ctx context.Context, s driven.BrowserSession, target driven.Element) error {
	_, err := s.RunScript(ctx, ScriptSyntheticClick, target)
	return err
}

// DefaultStrategies returns the escalation order: direct click, descendant
// click, then synthetic events.
func DefaultStrategies(descendantCSS string) []Strategy {
	return []Strategy{
		ClickDirect{},
		ClickDescendant{CSS: descendantCSS},
		SyntheticPointer{},
	}
}

// CardProbe fingerprints the listing grid so a page change can be detected.
type CardProbe struct {
	// Cards matches listing cards.
	Cards string

	// Link matches the detail link inside a card.
	Link string
}

// GridState is a fingerprint of the listing grid.
type GridState struct {
	Count     int
	FirstHref string
}

// Read fingerprints the current grid.
func (p CardProbe) Read(ctx context.Context, s driven.BrowserSession) (GridState, error) {
	cards, err := s.FindVisible(ctx, driven.Selector{CSS: p.Cards})
	if err != nil {
		return GridState{}, err
	}
	st := GridState{Count: len(cards)}
	if len(cards) == 0 || p.Link == "" {
		return st, nil
	}
	link, ok, err := First(ctx, s, cards[0], p.Link)
	if err != nil || !ok {
		return st, err
	}
	href, _, err := s.AttributeOf(ctx, link, "href")
	if err != nil {
		return st, err
	}
	st.FirstHref = StripQuery(href)
	return st, nil
}

// Moved reports whether next differs from the grid before an advance.
// An empty grid never counts as moved.
func (g GridState) Moved(next GridState) bool {
	if next.Count == 0 {
		return false
	}
	return next.Count != g.Count || next.FirstHref != g.FirstHref
}

// Pager advances a paginated listing by escalating through strategies
// until the grid changes.
type Pager struct {
	Probe       CardProbe
	Strategies  []Strategy
	StepTimeout time.Duration
}

// Next activates target and waits for the grid to change. It returns
// domain.ErrAdvanceFailed when no strategy changes it.
func (p Pager) Next(ctx context.Context, s driven.BrowserSession, target driven.Element) error {
	before, err := p.Probe.Read(ctx, s)
	if err != nil {
		return err
	}

	for _, strategy := range p.Strategies {
		if err := strategy.Apply(ctx, s, target); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Debug("next page: %s failed: %v", strategy.Name(), err)
			continue
		}

		moved, err := s.WaitUntil(ctx, p.StepTimeout, func(ctx context.Context) (bool, error) {
			now, err := p.Probe.Read(ctx, s)
			if err != nil {
				return Unsettled(err)
			}
			return before.Moved(now), nil
		})
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		if moved {
			logger.Debug("next page: %s worked", strategy.Name())
			return nil
		}
		logger.Debug("next page: %s did not change the grid", strategy.Name())
	}

	return fmt.Errorf("%w: %d strategies tried", domain.ErrAdvanceFailed, len(p.Strategies))
}
