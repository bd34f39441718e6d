// Package consum crawls tienda.consum.es.
//
// Categories live behind a side menu, and each category is split into
// numbered pages advanced with a "Siguiente" control that does not always
// react to plain clicks.
package consum

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/browse"
)

// Store is the display name persisted with every product.
const Store = "Consum"

// BaseURL is the storefront root.
const BaseURL = "https://tienda.consum.es/es"

const (
	consentButton = "#onetrust-accept-btn-handler"

	menuButton    = "cmp-menu-button button"
	categoryLink  = "a.element-list__link[href*='/es/c/']"
	productCard   = "cmp-widget-product-v2, cmp-widget-product"
	productLink   = "a[href*='/es/p/']"
	nextIconInner = "span[class*='tol-icon-component'], cmp-svg-viewer, svg"
	paginatorNums = "[class*='pagination'] a, [class*='pagination'] button, [class*='pagination'] span, " +
		"nav[aria-label*='pag'] a, nav[aria-label*='pag'] button"
)

// scriptScrollMenu scrolls the category list so lazily rendered links appear.
const scriptScrollMenu = `() => {
	const el = document.querySelector('.element-list__ul');
	if (el) el.scrollTop = el.scrollHeight;
	return !!el;
}`

var (
	nextButtons = []string{
		"a.next-page:not(.disabled)",
		"a[aria-label*='Siguiente']:not(.disabled)",
		"button[aria-label*='Siguiente']:not([disabled])",
		"a[rel='next']:not(.disabled)",
	}
	nameSelectors  = []string{".product-info-name--name h1.u-title-3", "div.product-info-name h1"}
	priceSelectors = []string{".product-info-price__price .price", ".product-info-price__price"}
	ppuSelectors   = []string{"lib-product-info-price .price__ppu", ".product-info-name--price"}
	imageCandidate = "cmp-image picture img, picture.image-component img, img.image-component__image, img.image-component, img"
	promoBlocks    = "lib-product-info-promotions, .product-info-promotions, [class*='promotions']"

	digitsRe  = regexp.MustCompile(`\d+`)
	cdnSizeRe = regexp.MustCompile(`/\d{2,4}x\d{2,4}/`)
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

type pageState struct {
	current int
	total   int
}

// Adapter drives the Consum storefront.
type Adapter struct {
	timing   browse.Timing
	maxPages int
	pager    browse.Pager
	log      logger.Scoped

	mu    sync.Mutex
	pages map[string]*pageState
}

// New creates a Consum adapter.
func New(settings domain.CrawlSettings) *Adapter {
	t := browse.TimingFrom(settings)
	return &Adapter{
		timing:   t,
		maxPages: settings.MaxPages,
		pager: browse.Pager{
			Probe:       browse.CardProbe{Cards: productCard, Link: productLink},
			Strategies:  browse.DefaultStrategies(nextIconInner),
			StepTimeout: t.StepTimeout,
		},
		log:   logger.For(Store),
		pages: make(map[string]*pageState),
	}
}

// Profile returns the pagination profile.
func (a *Adapter) Profile() domain.SourceProfile {
	return domain.SourceProfile{
		Store: Store,
		Mode:  domain.AdvancePaginate,
	}
}

// DiscoverCategories opens the side menu and collects category links until
// the list stops growing.
func (a *Adapter) DiscoverCategories(ctx context.Context, s driven.BrowserSession) ([]domain.CategoryRef, error) {
	if err := s.Navigate(ctx, BaseURL); err != nil {
		return nil, fmt.Errorf("open %s: %w", BaseURL, err)
	}
	browse.DismissConsent(ctx, s, a.timing.ConsentTimeout, consentButton)

	if btn, ok, err := browse.First(ctx, s, nil, menuButton); err != nil {
		return nil, err
	} else if ok {
		if err := s.Click(ctx, btn); err != nil {
			a.log.Debug("menu button: %v", err)
		}
	}

	var refs []domain.CategoryRef
	seen := make(map[string]bool)
	last := -1
	_, err := s.WaitUntil(ctx, a.timing.WaitTimeout, func(ctx context.Context) (bool, error) {
		links, err := s.FindVisible(ctx, driven.Selector{CSS: categoryLink})
		if err != nil {
			return browse.Unsettled(err)
		}
		for _, l := range links {
			href, _, err := s.AttributeOf(ctx, l, "href")
			if err != nil {
				return browse.Unsettled(err)
			}
			u := PageURL(browse.StripQuery(browse.Absolute(BaseURL, href)), 1)
			if u == "" || seen[u] {
				continue
			}
			text, err := s.TextOf(ctx, l)
			if err != nil {
				return browse.Unsettled(err)
			}
			seen[u] = true
			refs = append(refs, domain.CategoryRef{Name: browse.Collapse(text), URL: u})
		}
		if _, err := s.RunScript(ctx, scriptScrollMenu); err != nil {
			return false, err
		}
		stable := len(refs) > 0 && len(refs) == last
		last = len(refs)
		return stable, nil
	})
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, errors.New("category menu did not render")
	}
	return refs, nil
}

// PageURL normalises a category URL to a given page, sorted by the
// storefront's default ordering.
func PageURL(raw string, page int) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	q := u.Query()
	if q.Get("orderById") == "" {
		q.Set("orderById", "5")
	}
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// OpenCategory loads page one, works out how many pages the category has
// and leaves the session on page one.
func (a *Adapter) OpenCategory(ctx context.Context, s driven.BrowserSession, cat domain.CategoryRef) error {
	first := PageURL(browse.StripQuery(cat.URL), 1)
	if first == "" {
		return fmt.Errorf("%w: category url %q", domain.ErrInvalidInput, cat.URL)
	}
	if err := a.load(ctx, s, first); err != nil {
		return err
	}

	total, err := a.readTotalPages(ctx, s)
	if err != nil {
		return err
	}
	if total == 0 {
		var left bool
		if total, left, err = a.probeTotalPages(ctx, s, first); err != nil {
			return err
		}
		if left {
			if err := a.load(ctx, s, first); err != nil {
				return err
			}
		}
	}
	a.log.Debug("%s: %d pages", cat, total)

	a.mu.Lock()
	a.pages[cat.URL] = &pageState{current: 1, total: total}
	a.mu.Unlock()
	return nil
}

func (a *Adapter) load(ctx context.Context, s driven.BrowserSession, u string) error {
	if err := s.Navigate(ctx, u); err != nil {
		return fmt.Errorf("open %s: %w", u, err)
	}
	browse.DismissConsent(ctx, s, a.timing.ConsentTimeout, consentButton)
	return browse.WaitForCards(ctx, s, a.timing.WaitTimeout, productCard)
}

// readTotalPages returns the highest page number in the paginator, capped,
// or zero when there is no paginator.
func (a *Adapter) readTotalPages(ctx context.Context, s driven.BrowserSession) (int, error) {
	els, err := s.FindVisible(ctx, driven.Selector{CSS: paginatorNums})
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, el := range els {
		text, ok, err := s.AttributeOf(ctx, el, "aria-label")
		if err != nil {
			return 0, err
		}
		if !ok || strings.TrimSpace(text) == "" {
			if text, err = s.TextOf(ctx, el); err != nil {
				return 0, err
			}
		}
		for _, d := range digitsRe.FindAllString(text, -1) {
			if n, err := strconv.Atoi(d); err == nil && n > highest {
				highest = n
			}
		}
	}
	return min(highest, a.maxPages), nil
}

// probeTotalPages visits page N+1 until one shows no cards. left reports
// whether the session navigated away from page one.
func (a *Adapter) probeTotalPages(ctx context.Context, s driven.BrowserSession, first string) (pages int, left bool, err error) {
	pages = 1
	for pages < a.maxPages {
		next := PageURL(first, pages+1)
		left = true
		if err := s.Navigate(ctx, next); err != nil {
			if ctx.Err() != nil {
				return 0, left, ctx.Err()
			}
			break
		}
		ok, err := browse.WaitForAny(ctx, s, a.timing.WaitTimeout, productCard)
		if err != nil {
			return 0, left, err
		}
		if !ok {
			break
		}
		pages++
	}
	return pages, left, nil
}

// ExtractVisible reads every rendered product widget.
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
		href := browse.Attr(card, "href", productLink)
		if href != "" {
			href = browse.StripQuery(browse.Absolute(BaseURL, href))
		}
		out = append(out, domain.RawListing{
			Name:          name,
			PriceText:     browse.Text(card, priceSelectors...),
			PackageText:   name,
			UnitPriceText: browse.Text(card, ppuSelectors...),
			ImageURL:      productImage(card),
			DetailURL:     href,
			CategoryPath:  cat.Path(),
		})
	})
	return out
}

// productImage returns the first product picture outside promotion blocks,
// upgraded to the 300x300 CDN rendition.
func productImage(card *goquery.Selection) string {
	var img string
	card.Find(imageCandidate).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if el.Closest(promoBlocks).Length() > 0 {
			return true
		}
		u := browse.ImageURL(el)
		if u == "" || strings.Contains(strings.ToLower(u), "/assets/promotion/") {
			return true
		}
		img = u
		return false
	})
	return cdnSizeRe.ReplaceAllString(img, "/300x300/")
}

// Advance clicks through to the next page, escalating interaction
// strategies until the product grid changes.
func (a *Adapter) Advance(ctx context.Context, s driven.BrowserSession, cat domain.CategoryRef) (bool, error) {
	a.mu.Lock()
	st, ok := a.pages[cat.URL]
	a.mu.Unlock()
	if !ok || st.current >= st.total {
		return false, nil
	}

	btn, found, err := browse.First(ctx, s, nil, nextButtons...)
	if err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("%w: no next-page control on page %d of %d", domain.ErrAdvanceFailed, st.current, st.total)
	}
	if err := a.pager.Next(ctx, s, btn); err != nil {
		return false, fmt.Errorf("page %d of %d: %w", st.current, st.total, err)
	}

	a.mu.Lock()
	st.current++
	a.mu.Unlock()
	return true, nil
}
