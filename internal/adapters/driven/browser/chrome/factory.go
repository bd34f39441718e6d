// Package chrome opens storefront sessions in a headless Chromium driven over
// the DevTools protocol.
package chrome

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/AlbertoRQ/Baratazo/internal/core/ports/driven"
	"github.com/AlbertoRQ/Baratazo/internal/logger"
)

// DefaultPollInterval is how often WaitUntil re-checks its condition.
const DefaultPollInterval = 100 * time.Millisecond

// Ensure Factory implements the interface.
var _ driven.SessionFactory = (*Factory)(nil)

// Factory launches one browser process per session, so sessions share no
// cookies or storage.
type Factory struct {
	cfg       driven.BrowserConfig
	pollEvery time.Duration
}

// NewFactory creates a factory for cfg.
func NewFactory(cfg driven.BrowserConfig, pollEvery time.Duration) *Factory {
	if pollEvery <= 0 {
		pollEvery = DefaultPollInterval
	}
	return &Factory{cfg: cfg, pollEvery: pollEvery}
}

func (f *Factory) launcher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(f.cfg.Headless).
		NoSandbox(true).
		Leakless(false)
	if f.cfg.BinaryPath != "" {
		l = l.Bin(f.cfg.BinaryPath)
	}
	if f.cfg.Locale != "" {
		l = l.Set("lang", f.cfg.Locale)
	}
	if !f.cfg.LoadImages {
		l = l.Set("blink-settings", "imagesEnabled=false")
	}
	if f.cfg.ViewportWidth > 0 && f.cfg.ViewportHeight > 0 {
		l = l.Set("window-size", fmt.Sprintf("%d,%d", f.cfg.ViewportWidth, f.cfg.ViewportHeight))
	}
	return l
}

// Open launches a browser and opens a blank page configured with the user
// agent and viewport.
func (f *Factory) Open(ctx context.Context) (driven.BrowserSession, error) {
	l := f.launcher(ctx)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	s := &Session{launcher: l, navTime: f.cfg.NavigationTimeout, pollEvery: f.pollEvery}
	s.browser = rod.New().ControlURL(controlURL)
	if err := s.browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page

	if f.cfg.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      f.cfg.UserAgent,
			AcceptLanguage: f.cfg.Locale,
		}); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}
	if f.cfg.ViewportWidth > 0 && f.cfg.ViewportHeight > 0 {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             f.cfg.ViewportWidth,
			Height:            f.cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("set viewport: %w", err)
		}
	}

	logger.Debug("browser session opened (headless=%t, images=%t)", f.cfg.Headless, f.cfg.LoadImages)
	return s, nil
}
