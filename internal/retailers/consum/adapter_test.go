package consum

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/retailers/browse/browsetest"
)

const (
	aceitesURL = BaseURL + "/c/aceites/1234"
	pageOneURL = aceitesURL + "?orderById=5&page=1"
	pageTwoURL = aceitesURL + "?orderById=5&page=2"
)

const homeHTML = `<html><body>
<div id="onetrust-banner"><button id="onetrust-accept-btn-handler">Aceptar</button></div>
<cmp-menu-button><button>Categorías</button></cmp-menu-button>
</body></html>`

const menuHTML = `<html><body>
<ul class="element-list__ul">
  <li><a class="element-list__link" href="/es/c/aceites/1234?utm=menu">  Aceites y
    vinagres </a></li>
  <li><a class="element-list__link" href="/es/c/lacteos/2000">Lácteos</a></li>
  <li><a class="element-list__link" href="/es/c/aceites/1234">Aceites</a></li>
  <li><a class="element-list__link" href="/es/ofertas">Ofertas</a></li>
</ul>
</body></html>`

const pageOneHTML = `<html><body>
<cmp-widget-product-v2>
  <a href="/es/p/aceite-oliva-virgen-extra/123?from=list"></a>
  <div class="product-info-name"><h1>Aceite de Oliva Virgen Extra Consum 1 L</h1></div>
  <lib-product-info-promotions><img src="https://cdn.consum.es/assets/promotion/2x1.png"></lib-product-info-promotions>
  <cmp-image><picture><img src="https://cdn.consum.es/img/100x100/123.jpg"></picture></cmp-image>
  <div class="product-info-price__price"><span class="price">8,95 €</span></div>
  <lib-product-info-price><span class="price__ppu">8,95 €/L</span></lib-product-info-price>
</cmp-widget-product-v2>
<cmp-widget-product-v2>
  <a href="/es/p/vinagre-vino/456"></a>
  <div class="product-info-name--name"><h1 class="u-title-3">Vinagre de Vino 500 ml</h1></div>
  <img class="image-component" src="https://cdn.consum.es/img/assets/promotion/badge.png">
  <img class="image-component" data-src="https://cdn.consum.es/img/64x64/456.jpg">
  <div class="product-info-price__price">0,79 €</div>
  <span class="product-info-name--price">1,58 €/L</span>
</cmp-widget-product-v2>
<cmp-widget-product-v2><div class="product-info-name"><h1></h1></div></cmp-widget-product-v2>
<div class="pagination">
  <a>1</a>
  <a aria-label="Página 2">2</a>
  <a class="next-page" aria-label="Siguiente"><span class="tol-icon-component"></span></a>
</div>
</body></html>`

const pageTwoHTML = `<html><body>
<cmp-widget-product-v2>
  <a href="/es/p/sal-marina/789"></a>
  <div class="product-info-name"><h1>Sal Marina 1 kg</h1></div>
  <div class="product-info-price__price"><span class="price">0,39 €</span></div>
</cmp-widget-product-v2>
<div class="pagination">
  <a>1</a>
  <a>2</a>
  <a class="next-page disabled" aria-label="Siguiente"></a>
</div>
</body></html>`

func testSettings() domain.CrawlSettings {
	s := domain.DefaultCrawlSettings()
	s.ScrollPause = 0
	s.StepTimeout = time.Second
	return s
}

func TestAdapter_Profile(t *testing.T) {
	p := New(testSettings()).Profile()

	assert.Equal(t, Store, p.Store)
	assert.Equal(t, domain.AdvancePaginate, p.Mode)
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		page int
		want string
	}{
		{"bare", aceitesURL, 1, pageOneURL},
		{"keeps ordering", aceitesURL + "?orderById=7", 3, aceitesURL + "?orderById=7&page=3"},
		{"replaces page", pageOneURL, 2, pageTwoURL},
		{"drops fragment", aceitesURL + "#top", 1, pageOneURL},
		{"relative", "/es/c/aceites/1234", 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageURL(tt.raw, tt.page))
		})
	}
}

func TestAdapter_DiscoverCategories(t *testing.T) {
	s := browsetest.New()
	s.AddPage(BaseURL, homeHTML)
	s.OnClick("#onetrust-accept-btn-handler", func(s *browsetest.Session) error {
		s.Document().Find("#onetrust-banner").Remove()
		return nil
	})
	s.OnClick("cmp-menu-button button", func(s *browsetest.Session) error {
		s.SetHTML(menuHTML)
		return nil
	})
	// The list renders more links once it has been scrolled.
	grown := false
	s.OnTick(func(s *browsetest.Session) error {
		if !grown {
			grown = true
			s.AppendHTML(".element-list__ul", `<li><a class="element-list__link" href="/es/c/bebidas/3000">Bebidas</a></li>`)
		}
		return nil
	})

	refs, err := New(testSettings()).DiscoverCategories(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryRef{
		{Name: "Aceites y vinagres", URL: pageOneURL},
		{Name: "Lácteos", URL: BaseURL + "/c/lacteos/2000?orderById=5&page=1"},
		{Name: "Bebidas", URL: BaseURL + "/c/bebidas/3000?orderById=5&page=1"},
	}, refs)
}

func TestAdapter_DiscoverCategories_StaleLinkIsRetried(t *testing.T) {
	s := browsetest.New()
	s.AddPage(BaseURL, homeHTML)
	s.OnClick("cmp-menu-button button", func(s *browsetest.Session) error {
		s.SetHTML(menuHTML)
		s.StaleNext(1)
		return nil
	})

	refs, err := New(testSettings()).DiscoverCategories(context.Background(), s)

	require.NoError(t, err)
	assert.Equal(t, []domain.CategoryRef{
		{Name: "Aceites y vinagres", URL: pageOneURL},
		{Name: "Lácteos", URL: BaseURL + "/c/lacteos/2000?orderById=5&page=1"},
	}, refs)
}

func TestAdapter_DiscoverCategories_EmptyMenu(t *testing.T) {
	s := browsetest.New()
	s.AddPage(BaseURL, "<html><body></body></html>")

	_, err := New(testSettings()).DiscoverCategories(context.Background(), s)

	assert.Error(t, err)
}

func TestAdapter_ExtractVisible(t *testing.T) {
	cat := domain.CategoryRef{Name: "Aceites y vinagres", URL: pageOneURL}
	s := browsetest.New()
	s.AddPage(pageOneURL, pageOneHTML)
	a := New(testSettings())

	require.NoError(t, a.OpenCategory(context.Background(), s, cat))
	got, err := a.ExtractVisible(context.Background(), s, cat)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.RawListing{
		Name:          "Aceite de Oliva Virgen Extra Consum 1 L",
		PriceText:     "8,95 €",
		PackageText:   "Aceite de Oliva Virgen Extra Consum 1 L",
		UnitPriceText: "8,95 €/L",
		ImageURL:      "https://cdn.consum.es/img/300x300/123.jpg",
		DetailURL:     BaseURL + "/p/aceite-oliva-virgen-extra/123",
		CategoryPath:  []string{"Aceites y vinagres"},
	}, got[0])

	assert.Equal(t, "Vinagre de Vino 500 ml", got[1].Name)
	assert.Equal(t, "0,79 €", got[1].PriceText)
	assert.Equal(t, "1,58 €/L", got[1].UnitPriceText)
	assert.Equal(t, "https://cdn.consum.es/img/300x300/456.jpg", got[1].ImageURL)
}

func TestAdapter_AdvanceThroughPages(t *testing.T) {
	cat := domain.CategoryRef{Name: "Aceites y vinagres", URL: pageOneURL}
	s := browsetest.New()
	s.AddPage(pageOneURL, pageOneHTML)
	s.OnClick("a.next-page", func(s *browsetest.Session) error {
		s.SetHTML(pageTwoHTML)
		return nil
	})
	a := New(testSettings())
	ctx := context.Background()

	require.NoError(t, a.OpenCategory(ctx, s, cat))

	moved, err := a.Advance(ctx, s, cat)
	require.NoError(t, err)
	assert.True(t, moved)

	got, err := a.ExtractVisible(ctx, s, cat)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Sal Marina 1 kg", got[0].Name)

	moved, err = a.Advance(ctx, s, cat)
	require.NoError(t, err)
	assert.False(t, moved, "last page reached")
}

func TestAdapter_OpenCategory_ProbesPageCount(t *testing.T) {
	cat := domain.CategoryRef{Name: "Aceites", URL: pageOneURL}
	noPaginator := `<html><body><cmp-widget-product-v2><a href="/es/p/a/1"></a><h1>A</h1></cmp-widget-product-v2></body></html>`
	s := browsetest.New()
	s.AddPage(pageOneURL, noPaginator)
	s.AddPage(pageTwoURL, `<html><body><cmp-widget-product-v2><a href="/es/p/b/2"></a></cmp-widget-product-v2></body></html>`)
	a := New(testSettings())

	require.NoError(t, a.OpenCategory(context.Background(), s, cat))

	assert.Equal(t, []string{pageOneURL, pageTwoURL, pageOneURL}, s.Visited)
	assert.Equal(t, pageOneURL, s.URL())

	// Two pages are known but page one has no next control.
	_, err := a.Advance(context.Background(), s, cat)
	assert.ErrorIs(t, err, domain.ErrAdvanceFailed)
}

func TestAdapter_OpenCategory_SinglePageWithoutPaginator(t *testing.T) {
	cat := domain.CategoryRef{Name: "Aceites", URL: pageOneURL}
	s := browsetest.New()
	s.AddPage(pageOneURL, `<html><body><cmp-widget-product-v2><a href="/es/p/a/1"></a>`+
		`<div class="product-info-name"><h1>Aceite 1 L</h1></div></cmp-widget-product-v2></body></html>`)
	s.AddPage(pageTwoURL, `<html><body><p>Sin resultados</p></body></html>`)
	a := New(testSettings())
	ctx := context.Background()

	require.NoError(t, a.OpenCategory(ctx, s, cat))

	assert.Equal(t, []string{pageOneURL, pageTwoURL, pageOneURL}, s.Visited)
	assert.Equal(t, pageOneURL, s.URL())
	got, err := a.ExtractVisible(ctx, s, cat)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Aceite 1 L", got[0].Name)

	moved, err := a.Advance(ctx, s, cat)
	require.NoError(t, err)
	assert.False(t, moved)
}

func TestAdapter_Advance_StuckGrid(t *testing.T) {
	cat := domain.CategoryRef{URL: pageOneURL}
	s := browsetest.New()
	s.AddPage(pageOneURL, pageOneHTML)
	a := New(testSettings())

	require.NoError(t, a.OpenCategory(context.Background(), s, cat))
	_, err := a.Advance(context.Background(), s, cat)

	assert.ErrorIs(t, err, domain.ErrAdvanceFailed)
	assert.Equal(t, 3, s.Clicks, "every strategy was tried")
}

func TestAdapter_Advance_UnopenedCategory(t *testing.T) {
	moved, err := New(testSettings()).Advance(context.Background(), browsetest.New(), domain.CategoryRef{URL: pageOneURL})

	require.NoError(t, err)
	assert.False(t, moved)
}

func TestAdapter_OpenCategory_InvalidURL(t *testing.T) {
	err := New(testSettings()).OpenCategory(context.Background(), browsetest.New(), domain.CategoryRef{URL: "not a url"})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
