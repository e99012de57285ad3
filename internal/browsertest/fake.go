// Package browsertest provides a minimal in-memory browser.Page and
// browser.BrowserContext for exercising the Step Loop, Verifier,
// Extractor, and Selector without a real browser driver. It is
// imported only from _test.go files across the module; kept as a
// regular (non-test) package so more than one package's tests can share
// it, the same "shared fake" shape the teacher's own test helpers use.
package browsertest

import (
	"context"

	"github.com/steve-z-wang/webtask/internal/ax"
	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/dom"
	"github.com/steve-z-wang/webtask/internal/observation"
)

// Page is a fake browser.Page backed by a fixed DOM tree. Every method
// not needed by the Step Loop's observe/act cycle is a harmless stub;
// tests that care about a particular call set the matching field or
// func hook before invoking the code under test.
type Page struct {
	Tree     *dom.Tree
	Viewport browser.Viewport
	Shot     *observation.Screenshot

	// Calls records the name of every mutating method invoked, in
	// order, so tests can assert which actions actually ran.
	Calls []string
}

// NewPage returns a Page with a 1280x720 viewport and an empty tree,
// ready for a test to override.
func NewPage() *Page {
	return &Page{Tree: dom.EmptyTree(), Viewport: browser.Viewport{Width: 1280, Height: 720}}
}

func (p *Page) Goto(ctx context.Context, url string) error {
	p.Calls = append(p.Calls, "goto:"+url)
	return nil
}
func (p *Page) URL(ctx context.Context) (string, error) { return "", nil }
func (p *Page) ViewportSize(ctx context.Context) (browser.Viewport, error) {
	return p.Viewport, nil
}
func (p *Page) ScaleCoordinates(ctx context.Context, x, y float64, ref browser.Viewport) (float64, float64, error) {
	return x, y, nil
}
func (p *Page) Evaluate(ctx context.Context, js string) (any, error) { return nil, nil }
func (p *Page) Screenshot(ctx context.Context, fullPage bool) (*observation.Screenshot, error) {
	return p.Shot, nil
}
func (p *Page) DOMSnapshot(ctx context.Context) (*dom.Tree, error) { return p.Tree, nil }
func (p *Page) AccessibilitySnapshot(ctx context.Context) (*ax.Tree, error) {
	return &ax.Tree{Root: ax.NoNode}, nil
}
func (p *Page) Select(ctx context.Context, selector string) (int64, bool, error) {
	return 0, false, nil
}
func (p *Page) MouseClick(ctx context.Context, x, y float64, b browser.MouseButton) error {
	p.Calls = append(p.Calls, "mouse_click")
	return nil
}
func (p *Page) MouseMove(ctx context.Context, x, y float64) error {
	p.Calls = append(p.Calls, "mouse_move")
	return nil
}
func (p *Page) MouseWheel(ctx context.Context, x, y, dx, dy float64) error {
	p.Calls = append(p.Calls, "mouse_wheel")
	return nil
}
func (p *Page) MouseDrag(ctx context.Context, fx, fy, tx, ty float64) error {
	p.Calls = append(p.Calls, "mouse_drag")
	return nil
}
func (p *Page) ScrollDocument(ctx context.Context, dir browser.ScrollDirection, frac float64) error {
	p.Calls = append(p.Calls, "scroll_document")
	return nil
}
func (p *Page) ClickElement(ctx context.Context, id int64) error {
	p.Calls = append(p.Calls, "click_element")
	return nil
}
func (p *Page) FillElement(ctx context.Context, id int64, value string) error {
	p.Calls = append(p.Calls, "fill_element")
	return nil
}
func (p *Page) TypeElement(ctx context.Context, id int64, text string) error {
	p.Calls = append(p.Calls, "type_element")
	return nil
}
func (p *Page) UploadFiles(ctx context.Context, id int64, paths []string) error {
	p.Calls = append(p.Calls, "upload_files")
	return nil
}
func (p *Page) Close(ctx context.Context) error { return nil }

// BrowserContext is a fake browser.BrowserContext holding a single Page,
// matching every test's need so far (multi-page behavior, when tested,
// overrides Pages/PageCount directly).
type BrowserContext struct {
	Page     browser.Page
	AllPages []browser.Page
}

// NewBrowserContext returns a BrowserContext whose current and only page
// is p.
func NewBrowserContext(p browser.Page) *BrowserContext {
	return &BrowserContext{Page: p, AllPages: []browser.Page{p}}
}

func (b *BrowserContext) NewPage(ctx context.Context) (browser.Page, error) { return b.Page, nil }
func (b *BrowserContext) SetPage(p browser.Page) {
	b.Page = p
	b.AllPages = []browser.Page{p}
}
func (b *BrowserContext) CurrentPage() browser.Page { return b.Page }
func (b *BrowserContext) Pages() []browser.Page      { return b.AllPages }
func (b *BrowserContext) PageCount() int             { return len(b.AllPages) }
func (b *BrowserContext) Close(ctx context.Context) error { return nil }
