package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightContext is the Playwright-backed BrowserContext. It tracks
// every Page it has opened and which one is "current", matching the
// public API's setPage/getPages/pageCount surface (spec.md §6).
type playwrightContext struct {
	browser playwright.Browser
	pwCtx   playwright.BrowserContext
	timeout time.Duration

	mu      sync.Mutex
	pages   []*playwrightPage
	current *playwrightPage
}

func (c *playwrightContext) NewPage(ctx context.Context) (Page, error) {
	pwPage, err := c.pwCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("browser: failed to create page: %w", err)
	}
	pwPage.SetDefaultTimeout(float64(c.timeout.Milliseconds()))

	session, err := c.pwCtx.NewCDPSession(pwPage)
	if err != nil {
		_ = pwPage.Close()
		return nil, fmt.Errorf("browser: failed to open CDP session: %w", err)
	}

	page := &playwrightPage{page: pwPage, cdp: session}

	c.mu.Lock()
	c.pages = append(c.pages, page)
	c.current = page
	c.mu.Unlock()

	return page, nil
}

func (c *playwrightContext) SetPage(p Page) {
	pp, ok := p.(*playwrightPage)
	if !ok {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.pages {
		if existing == pp {
			c.current = pp
			return
		}
	}
}

func (c *playwrightContext) CurrentPage() Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	return c.current
}

func (c *playwrightContext) Pages() []Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Page, len(c.pages))
	for i, p := range c.pages {
		out[i] = p
	}
	return out
}

func (c *playwrightContext) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

func (c *playwrightContext) Close(ctx context.Context) error {
	return c.closeUnderlying()
}

func (c *playwrightContext) closeUnderlying() error {
	if err := c.pwCtx.Close(); err != nil {
		return err
	}
	return c.browser.Close()
}
