// Package mercadona crawls tienda.mercadona.es.
//
// The storefront asks for a delivery postal code before showing prices,
// groups subcategories under collapsible sections and loads products as the
// page scrolls.
package mercadona

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
const Store = "Mercadona"

const (
	// Origin is the storefront root.
	Origin = "https://tienda.mercadona.es"

	// StartURL opens the category browser with the section menu.
	StartURL = Origin + "/categories/112"
)

const (
	consentButton = "#onetrust-accept-btn-handler"

	postalForm = "form.postal-code-checker"

	sectionItem    = "li[class*='category-menu__item']"
	sectionLabel   = ".category-menu__header label"
	sectionButton  = ".category-menu__header button"
	subcategoryBtn = "li[class*='category-item'] button[id]"

	productCard  = "[data-testid='product-cell']"
	productName  = "h4.product-cell__description-name"
	productFmt   = ".product-format"
	priceLabel   = ".product-price [aria-label]"
	priceText    = ".product-price"
	productImage = ".product-cell__image-wrapper img"
)

var (
	postalInputs  = []string{"[data-testid='postal-code-checker-input']", "input[name='postalCode']"}
	postalButtons = []string{"[data-testid='postal-code-checker-button']", "button[type='button']", "input[type='submit']"}
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

// Adapter drives the Mercadona storefront.
type Adapter struct {
	timing     browse.Timing
	postalCode string
	log        logger.Scoped
}

// New creates a Mercadona adapter.
func New(settings domain.CrawlSettings) *Adapter {
	return &Adapter{
		timing:     browse.TimingFrom(settings),
		postalCode: settings.PostalCode,
		log:        logger.For(Store),
	}
}

// Profile returns the scroll profile: five quiet rounds end a subcategory.
func (a *Adapter) Profile() domain.SourceProfile {
	return domain.SourceProfile{
		Store:        Store,
		Mode:         domain.AdvanceScroll,
		StableRounds: 5,
	}
}

// DiscoverCategories expands every section of the category menu and maps
// each subcategory button id to its category URL.
func (a *Adapter) DiscoverCategories(ctx context.Context, s driven.BrowserSession) ([]domain.CategoryRef, error) {
	if err := s.Navigate(ctx, StartURL); err != nil {
		return nil, fmt.Errorf("open %s: %w", StartURL, err)
	}
	browse.DismissConsent(ctx, s, a.timing.ConsentTimeout, consentButton)
	if err := a.setPostalCode(ctx, s); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		a.log.Warn("postal code not set: %v", err)
	}

	ok, err := browse.WaitForAny(ctx, s, a.timing.WaitTimeout, sectionItem)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("category menu did not render")
	}

	sections, err := s.FindVisible(ctx, driven.Selector{CSS: sectionItem})
	if err != nil {
		return nil, err
	}

	var refs []domain.CategoryRef
	seen := make(map[string]bool)
	for i := range sections {
		name, subs, err := a.expandSection(ctx, s, i)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i+1, err)
		}
		for _, sub := range subs {
			if seen[sub.URL] {
				continue
			}
			seen[sub.URL] = true
			sub.Name = name
			refs = append(refs, sub)
		}
		a.log.Debug("section %q: %d subcategories", name, len(subs))
	}
	return refs, nil
}

// expandSection opens the i-th section if needed and reads its subcategory
// buttons. Sections are looked up again on every call because expanding one
// re-renders the menu.
func (a *Adapter) expandSection(ctx context.Context, s driven.BrowserSession, i int) (string, []domain.CategoryRef, error) {
	sec, ok, err := nthSection(ctx, s, i)
	if err != nil || !ok {
		return "", nil, err
	}

	name := fmt.Sprintf("Sección %d", i+1)
	if label, found, err := browse.First(ctx, s, sec, sectionLabel, "label"); err == nil && found {
		if t, err := s.TextOf(ctx, label); err == nil && strings.TrimSpace(t) != "" {
			name = browse.Collapse(t)
		}
	}

	buttons, err := s.FindVisible(ctx, driven.Selector{CSS: subcategoryBtn, Within: sec})
	if err != nil {
		return "", nil, err
	}
	if len(buttons) == 0 {
		header, found, err := browse.First(ctx, s, sec, sectionButton, "button")
		if err != nil {
			return "", nil, err
		}
		if found {
			if err := s.Click(ctx, header); err != nil {
				a.log.Debug("expand %q: %v", name, err)
			}
			if err := browse.Pause(ctx, a.timing.ScrollPause); err != nil {
				return "", nil, err
			}
		}
		if sec, ok, err = nthSection(ctx, s, i); err != nil || !ok {
			return name, nil, err
		}
		if buttons, err = s.FindVisible(ctx, driven.Selector{CSS: subcategoryBtn, Within: sec}); err != nil {
			return "", nil, err
		}
	}

	subs := make([]domain.CategoryRef, 0, len(buttons))
	for j, b := range buttons {
		id, _, err := s.AttributeOf(ctx, b, "id")
		if err != nil {
			return "", nil, err
		}
		if id = strings.TrimSpace(id); id == "" {
			continue
		}
		label, err := s.TextOf(ctx, b)
		if err != nil {
			return "", nil, err
		}
		label = browse.Collapse(label)
		if label == "" {
			label = fmt.Sprintf("Sub %d", j+1)
		}
		subs = append(subs, domain.CategoryRef{
			Subcategory: label,
			URL:         Origin + "/categories/" + id,
		})
	}
	return name, subs, nil
}

func nthSection(ctx context.Context, s driven.BrowserSession, i int) (driven.Element, bool, error) {
	sections, err := s.FindVisible(ctx, driven.Selector{CSS: sectionItem})
	if err != nil {
		return nil, false, err
	}
	if i >= len(sections) {
		return nil, false, nil
	}
	return sections[i], true, nil
}

// setPostalCode fills the delivery-area modal when it shows up. A modal that
// never appears means the code is already set.
func (a *Adapter) setPostalCode(ctx context.Context, s driven.BrowserSession) error {
	if a.postalCode == "" {
		return nil
	}
	shown, err := browse.WaitForAny(ctx, s, a.timing.ConsentTimeout, postalForm)
	if err != nil || !shown {
		return err
	}

	form, _, err := browse.First(ctx, s, nil, postalForm)
	if err != nil {
		return err
	}
	input, ok, err := browse.First(ctx, s, form, postalInputs...)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("postal code input not found")
	}
	if _, err := s.RunScript(ctx, browse.ScriptSetValue, input, a.postalCode); err != nil {
		return fmt.Errorf("fill postal code: %w", err)
	}
	button, ok, err := browse.First(ctx, s, form, postalButtons...)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("postal code button not found")
	}
	if err := s.Click(ctx, button); err != nil {
		return fmt.Errorf("submit postal code: %w", err)
	}

	closed, err := s.WaitUntil(ctx, a.timing.WaitTimeout, func(ctx context.Context) (bool, error) {
		forms, err := s.FindVisible(ctx, driven.Selector{CSS: postalForm})
		return len(forms) == 0, err
	})
	if err != nil {
		return err
	}
	if !closed {
		return errors.New("postal code form still visible")
	}
	a.log.Debug("postal code set to %s", a.postalCode)
	return nil
}

// OpenCategory navigates to the subcategory and waits for product cells.
func (a *Adapter) OpenCategory(ctx context.Context, s driven.BrowserSession, cat domain.CategoryRef) error {
	if err := s.Navigate(ctx, cat.URL); err != nil {
		return fmt.Errorf("open %s: %w", cat.URL, err)
	}
	browse.DismissConsent(ctx, s, a.timing.ConsentTimeout, consentButton)
	return browse.WaitForCards(ctx, s, a.timing.WaitTimeout, productCard)
}

// ExtractVisible reads every rendered product cell. Cells carry no detail
// link, so listings are keyed by name and price label.
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
		core := browse.Text(card, productName)
		if core == "" {
			return
		}
		format := browse.Text(card, productFmt)

		label := browse.Attr(card, "aria-label", priceLabel)
		if label == "" {
			label = browse.Text(card, priceText)
		}

		out = append(out, domain.RawListing{
			Name:          strings.TrimSpace(core + " " + format),
			PriceText:     label,
			PackageText:   format,
			UnitPriceText: label,
			ImageURL:      browse.ImageURL(card.Find(productImage).First()),
			CategoryPath:  cat.Path(),
		})
	})
	return out
}

// Advance scrolls the product grid.
func (a *Adapter) Advance(ctx context.Context, s driven.BrowserSession, _ domain.CategoryRef) (bool, error) {
	return browse.ScrollAdvance(ctx, s, a.timing)
}
