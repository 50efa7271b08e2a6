package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

var rodBlockedTypes = []proto.NetworkResourceType{
	proto.NetworkResourceTypeImage,
	proto.NetworkResourceTypeFont,
	proto.NetworkResourceTypeStylesheet,
	proto.NetworkResourceTypeMedia,
}

// RodStrategy renders the page in a headless Chromium driven by rod, with
// stealth patches applied to the tab.
type RodStrategy struct {
	settings
}

func NewRod(opts ...Option) *RodStrategy {
	return &RodStrategy{settings: newSettings(browserNavTimeout, rodSettle, opts)}
}

func (s *RodStrategy) Method() Method { return MethodRod }

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
}

func (r *rodSession) release() {
	if r.router != nil {
		_ = r.router.Stop()
	}
	if r.page != nil {
		_ = r.page.Close()
	}
	if r.browser != nil {
		_ = r.browser.Close()
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher.Cleanup()
	}
}

func (s *RodStrategy) Fetch(ctx context.Context, rawURL string) (page Page, err error) {
	start := time.Now()
	defer func() { observe(MethodRod, start, err) }()

	if err = s.preflight(ctx, rawURL); err != nil {
		return Page{}, err
	}

	sess := &rodSession{}
	defer sess.release()

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout+s.settle)
	defer cancel()

	l := launcher.New().
		Context(fetchCtx).
		Headless(true).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage")
	if s.browserBin != "" {
		l = l.Bin(s.browserBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		// Cleanup blocks forever unless the process started.
		if l.PID() != 0 {
			l.Kill()
		}
		return Page{}, fmt.Errorf("launch headless browser: %w", err)
	}
	sess.launcher = l

	sess.browser = rod.New().ControlURL(controlURL)
	if err = sess.browser.Connect(); err != nil {
		return Page{}, fmt.Errorf("connect to headless browser: %w", err)
	}

	if sess.page, err = stealth.Page(sess.browser); err != nil {
		return Page{}, fmt.Errorf("create tab: %w", err)
	}

	tab := sess.page.Context(fetchCtx)

	if err = tab.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: randomUserAgent()}); err != nil {
		return Page{}, fmt.Errorf("set user agent: %w", err)
	}
	if err = tab.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1366, Height: 768, DeviceScaleFactor: 1}); err != nil {
		return Page{}, fmt.Errorf("set viewport: %w", err)
	}

	sess.router = tab.HijackRequests()
	for _, rt := range rodBlockedTypes {
		_ = sess.router.Add("*", rt, func(h *rod.Hijack) {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go sess.router.Run()

	domReady := tab.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err = tab.Navigate(rawURL); err != nil {
		return Page{}, fmt.Errorf("navigate to %s: %w", rawURL, err)
	}
	domReady()

	if err = sleepCtx(fetchCtx, s.settle); err != nil {
		return Page{}, fmt.Errorf("settle %s: %w", rawURL, err)
	}

	markup, err := tab.HTML()
	if err != nil {
		return Page{}, fmt.Errorf("get HTML from %s: %w", rawURL, err)
	}

	finalURL := rawURL
	if info, infoErr := tab.Info(); infoErr == nil && info.URL != "" {
		finalURL = info.URL
	}

	return Page{Markup: markup, FinalURL: finalURL}, nil
}
