package chrome

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlbertoRQ/Baratazo/internal/core/domain"
	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"stale node", errors.New("{-32000 Could not find node with given id }"), domain.ErrElementStale},
		{"detached", errors.New("Node is detached from document"), domain.ErrElementStale},
		{"closed socket", errors.New("read tcp: use of closed network connection"), domain.ErrSessionLost},
		{"target gone", errors.New("{-32602 No target with given id found }"), domain.ErrSessionLost},
		{"cancelled", fmt.Errorf("navigate: %w", context.Canceled), context.Canceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}

	plain := errors.New("selector is invalid")
	assert.Equal(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}

func TestNewFactory_DefaultPoll(t *testing.T) {
	f := NewFactory(driven.BrowserConfig{}, 0)

	assert.Equal(t, DefaultPollInterval, f.pollEvery)
}

// The browser test needs a local Chromium. Point BARATAZO_TEST_CHROME at the
// executable to run it.
func TestSession_AgainstLocalPage(t *testing.T) {
	bin := os.Getenv("BARATAZO_TEST_CHROME")
	if bin == "" {
		t.Skip("BARATAZO_TEST_CHROME not set")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `<html><body>
			<ul><li class="item"><a href="/p/1">Leche</a></li><li class="item" style="display:none">Oculto</li></ul>
			<button id="more" onclick="document.querySelector('ul').insertAdjacentHTML('beforeend','<li class=item>Pan</li>')">Más</button>
			<div style="height:4000px"></div>
		</body></html>`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	f := NewFactory(driven.BrowserConfig{
		Headless:          true,
		BinaryPath:        bin,
		ViewportWidth:     1200,
		ViewportHeight:    800,
		NavigationTimeout: 30 * time.Second,
	}, 0)
	s, err := f.Open(ctx)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	items, err := s.FindVisible(ctx, driven.Selector{CSS: "li.item"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	text, err := s.TextOf(ctx, items[0])
	require.NoError(t, err)
	assert.Equal(t, "Leche", text)

	link, err := s.FindVisible(ctx, driven.Selector{CSS: "a", Within: items[0]})
	require.NoError(t, err)
	require.Len(t, link, 1)
	href, ok, err := s.AttributeOf(ctx, link[0], "href")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/p/1", href)

	more, err := s.FindVisible(ctx, driven.Selector{CSS: "#more"})
	require.NoError(t, err)
	require.NoError(t, s.Click(ctx, more[0]))

	grew, err := s.WaitUntil(ctx, 5*time.Second, func(ctx context.Context) (bool, error) {
		els, err := s.FindVisible(ctx, driven.Selector{CSS: "li.item"})
		return len(els) == 2, err
	})
	require.NoError(t, err)
	assert.True(t, grew)

	res, err := s.RunScript(ctx, `(el) => el.textContent`, items[0])
	require.NoError(t, err)
	assert.Equal(t, "Leche", res)

	require.NoError(t, s.ScrollBy(ctx, 500))

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close(), "second close is a no-op")
	assert.ErrorIs(t, s.Navigate(ctx, srv.URL), domain.ErrSessionClosed)
}
