package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightStrategy renders the page in a fresh Chromium launched through
// playwright-go. Every fetch owns its own driver, browser, context and page.
type PlaywrightStrategy struct {
	settings
}

func NewPlaywright(opts ...Option) *PlaywrightStrategy {
	return &PlaywrightStrategy{settings: newSettings(browserNavTimeout, playwrightSettle, opts)}
}

func (s *PlaywrightStrategy) Method() Method { return MethodPlaywright }

// playwrightSession holds what a fetch acquired. release closes whatever is
// set, newest first.
type playwrightSession struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
}

func (p *playwrightSession) release() {
	if p.page != nil {
		_ = p.page.Close()
	}
	if p.context != nil {
		_ = p.context.Close()
	}
	if p.browser != nil {
		_ = p.browser.Close()
	}
	if p.pw != nil {
		_ = p.pw.Stop()
	}
}

func (s *PlaywrightStrategy) Fetch(ctx context.Context, rawURL string) (page Page, err error) {
	start := time.Now()
	defer func() { observe(MethodPlaywright, start, err) }()

	if err = s.preflight(ctx, rawURL); err != nil {
		return Page{}, err
	}

	sess := &playwrightSession{}
	defer sess.release()

	if sess.pw, err = playwright.Run(&playwright.RunOptions{DriverDirectory: s.driverDir}); err != nil {
		return Page{}, fmt.Errorf("playwright run: %w", err)
	}
	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
		},
	}
	if s.browserBin != "" {
		launchOpts.ExecutablePath = playwright.String(s.browserBin)
	}
	sess.browser, err = sess.pw.Chromium.Launch(launchOpts)
	if err != nil {
		return Page{}, fmt.Errorf("playwright launch: %w", err)
	}
	sess.context, err = sess.browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(randomUserAgent()),
		Viewport:  &playwright.Size{Width: 1366, Height: 768},
	})
	if err != nil {
		return Page{}, fmt.Errorf("playwright context: %w", err)
	}
	if sess.page, err = sess.context.NewPage(); err != nil {
		return Page{}, fmt.Errorf("playwright page: %w", err)
	}

	err = sess.page.Route("**/*", func(route playwright.Route) {
		if blockedResources[route.Request().ResourceType()] {
			_ = route.Abort()
			return
		}
		_ = route.Continue()
	})
	if err != nil {
		return Page{}, fmt.Errorf("playwright route: %w", err)
	}

	_, err = sess.page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.timeout.Milliseconds())),
	})
	if err != nil {
		return Page{}, fmt.Errorf("playwright goto %s: %w", rawURL, err)
	}

	if err = sleepCtx(ctx, s.settle); err != nil {
		return Page{}, err
	}

	markup, err := sess.page.Content()
	if err != nil {
		return Page{}, fmt.Errorf("playwright content %s: %w", rawURL, err)
	}

	return Page{Markup: markup, FinalURL: sess.page.URL()}, nil
}
