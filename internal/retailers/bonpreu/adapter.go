// Package bonpreu crawls compraonline.bonpreuesclat.cat.
//
// Root categories are plain links on the categories page. Product grids
// scroll inside their own container, so advancing nudges both the
// container and the window.
package bonpreu

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/browse"
)

// Store is the display name persisted with every product.
const Store = "Bonpreu"

const (
	// Origin is the storefront root.
	Origin = "https://www.compraonline.bonpreuesclat.cat"

	// RootURL lists the root categories.
	RootURL = Origin + "/categories?source=navigation"
)

const (
	rootLink    = "a[data-test='root-category-link']"
	productCard = `div.product-card-container, [data-test="fop-card"], article[data-test="product-card"]`
)

var (
	consentButtons = []string{"#onetrust-accept-btn-handler", "button[data-test='accept-cookies']"}

	nameSelectors  = []string{"h3[data-test='fop-title']", "h3"}
	priceSelectors = []string{"[data-test='fop-price']", ".price"}
	ppuSelectors   = []string{"[data-test='fop-price-per-unit']", ".price-per-unit"}
	imageSelectors = []string{"img[data-test='lazy-load-image']", "img"}
	linkSelectors  = []string{"a[data-test='fop-product-link']", "a"}
)

// ScriptNudge scrolls the product list container and the window by the step
// passed as the first argument, fires the events lazy loaders listen for and
// reports whether either offset changed.
const ScriptNudge = `(step) => {
	const root = document.scrollingElement || document.documentElement;
	const box = document.querySelector('div[data-test="infinite-scroll-component"]')
		|| document.querySelector('[data-test="product-list"]')
		|| document.querySelector('main')
		|| root;
	const beforeBox = box.scrollTop;
	const beforeWin = window.scrollY;
	box.scrollTop = beforeBox + step;
	window.scrollBy(0, step);
	for (const target of [box, window]) {
		target.dispatchEvent(new WheelEvent('wheel', {deltaY: step, bubbles: true}));
		target.dispatchEvent(new Event('scroll', {bubbles: true}));
	}
	return box.scrollTop !== beforeBox || window.scrollY !== beforeWin;
}`

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter drives the Bonpreu storefront.
type Adapter struct {
	timing   browse.Timing
	maxRound int
	log      logger.Scoped
}

// New creates a Bonpreu adapter.
func New(settings domain.CrawlSettings) *Adapter {
	return &Adapter{
		timing:   browse.TimingFrom(settings),
		maxRound: settings.MaxRounds,
		log:      logger.For(Store),
	}
}

// Profile returns the scroll profile. The grid loads in bursts, so one more
// quiet round is needed than on other stores.
func (a *Adapter) Profile() domain.SourceProfile {
	return domain.SourceProfile{
		Store:        Store,
		Mode:         domain.AdvanceScroll,
		StableRounds: 6,
		MaxRounds:    a.maxRound,
	}
}

// DiscoverCategories reads the root category links.
func (a *Adapter) DiscoverCategories(ctx context.Context, s driven.BrowserSession) ([]domain.CategoryRef, error) {
	if err := s.Navigate(ctx, RootURL); err != nil {
		return nil, fmt.Errorf("open %s: %w", RootURL, err)
	}
	browse.DismissConsent(ctx, s, a.timing.ConsentTimeout, consentButtons...)

	ok, err := browse.WaitForAny(ctx, s, a.timing.WaitTimeout, rootLink)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("root categories did not render")
	}

	links, err := s.FindVisible(ctx, driven.Selector{CSS: rootLink})
	if err != nil {
		return nil, err
	}
	var refs []domain.CategoryRef
	seen := make(map[string]bool)
	for _, l := range links {
		href, _, err := s.AttributeOf(ctx, l, "href")
		if err != nil {
			return nil, err
		}
		u := browse.Absolute(Origin, href)
		if u == "" || strings.HasSuffix(strings.TrimRight(browse.StripQuery(u), "/"), "/categories") || seen[u] {
			continue
		}
		name, err := s.TextOf(ctx, l)
		if err != nil {
			return nil, err
		}
		seen[u] = true
		refs = append(refs, domain.CategoryRef{Name: browse.Collapse(name), URL: u})
	}
	a.log.Debug("%d root categories", len(refs))
	return refs, nil
}

// OpenCategory navigates to the category and waits for product cards.
func (a *Adapter) OpenCategory(ctx context.Context, s driven.BrowserSession, cat domain.CategoryRef) error {
	if err := s.Navigate(ctx, cat.URL); err != nil {
		return fmt.Errorf("open %s: %w", cat.URL, err)
	}
	browse.DismissConsent(ctx, s, a.timing.ConsentTimeout, consentButtons...)
	return browse.WaitForCards(ctx, s, a.timing.WaitTimeout, productCard)
}

// ExtractVisible reads every rendered product card.
func (a *Adapter) ExtractVisible(ctx context.Context, s driven.BrowserSession, cat domain.CategoryRef) ([]domain.RawListing, error) {
	doc, err := browse.Snapshot(ctx, s)
	if err != nil {
		return nil, err
	}
	return parseCards(doc, cat), nil
}

func parseCards(doc *goquery.Document, cat domain.CategoryRef) []domain.RawListing {
	var out []domain.RawListing
	doc.Find(productCard).Each(func(_ int, card *goquery.Selection) {
		name := browse.Text(card, nameSelectors...)
		if name == "" {
			return
		}
		var img string
		for _, css := range imageSelectors {
			if img = browse.ImageURL(card.Find(css).First()); img != "" {
				break
			}
		}
		href := browse.Attr(card, "href", linkSelectors...)
		if href != "" {
			href = browse.Absolute(Origin, href)
		}
		out = append(out, domain.RawListing{
			Name:          name,
			PriceText:     browse.Text(card, priceSelectors...),
			PackageText:   name,
			UnitPriceText: browse.Text(card, ppuSelectors...),
			ImageURL:      img,
			DetailURL:     href,
			CategoryPath:  cat.Path(),
		})
	})
	return out
}

// Advance nudges the product container and the window, then waits for the
// lazy loader.
func (a *Adapter) Advance(ctx context.Context, s driven.BrowserSession, _ domain.CategoryRef) (bool, error) {
	res, err := s.RunScript(ctx, ScriptNudge, a.timing.ScrollStep)
	if err != nil {
		return false, err
	}
	if err := browse.Pause(ctx, a.timing.ScrollPause); err != nil {
		return false, err
	}
	moved, _ := res.(bool)
	return moved, nil
}
