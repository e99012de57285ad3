// Package browser defines the Browser port (spec.md §6): the minimal
// interface the core consumes from a real browser driver, plus a
// Playwright-backed example implementation adapted from the reference
// tool's pool/instance pair.
//
// internal/tool depends on the interfaces in this file, not the other way
// around — Playwright is a detail behind Page, never a dependency of the
// tool layer.
package browser

import (
	"context"

	"github.com/steve-z-wang/webtask/internal/ax"
	"github.com/steve-z-wang/webtask/internal/dom"
	"github.com/steve-z-wang/webtask/internal/observation"
)

// MouseButton selects which physical button a click synthesizes.
type MouseButton string

const (
	ButtonLeft   MouseButton = "left"
	ButtonRight  MouseButton = "right"
	ButtonMiddle MouseButton = "middle"
)

// Viewport is a page's drawable size in CSS pixels.
type Viewport struct {
	Width, Height int
}

// Page is one browsing-context tab. Coordinates passed to the Mouse*
// methods are CSS pixels in the page's own coordinate space; callers that
// hold a scaled/device coordinate must convert with ScaleCoordinates
// first.
//
// Element-targeted methods take a CDP backend node ID rather than a
// selector: the agent resolves elements through the DOM/AX snapshot and
// Element Indexer (internal/index), never through ad hoc selectors, so
// "click element 3" means "click the node behind backend node id N",
// exactly the handle the snapshot already gave it.
type Page interface {
	// Goto navigates to url, which the caller has already normalized
	// (spec.md's scheme-prepending is a public-API concern, not this
	// port's).
	Goto(ctx context.Context, url string) error

	// URL returns the page's current address.
	URL(ctx context.Context) (string, error)

	// ViewportSize reports the page's drawable area.
	ViewportSize(ctx context.Context) (Viewport, error)

	// ScaleCoordinates maps a coordinate expressed against a reference
	// viewport (e.g. the one a screenshot was taken at) onto this
	// page's current viewport, so pixel-action tools stay correct
	// across a resize between observation and action.
	ScaleCoordinates(ctx context.Context, x, y float64, reference Viewport) (float64, float64, error)

	// Evaluate runs js in the page and returns its JSON-serializable
	// result.
	Evaluate(ctx context.Context, js string) (any, error)

	// Screenshot captures the page as PNG.
	Screenshot(ctx context.Context, fullPage bool) (*observation.Screenshot, error)

	// DOMSnapshot captures a CDP DOMSnapshot and parses it into a Tree
	// (internal/dom's two-pass parser).
	DOMSnapshot(ctx context.Context) (*dom.Tree, error)

	// AccessibilitySnapshot captures the full CDP accessibility tree and
	// parses it into a Tree (internal/ax's two-pass parser).
	AccessibilitySnapshot(ctx context.Context) (*ax.Tree, error)

	// Select resolves a CSS selector to the backend node id of the
	// first match, reporting false if nothing matched.
	Select(ctx context.Context, selector string) (backendNodeID int64, found bool, err error)

	PixelActor
	ElementActor

	// Close releases the page and its CDP session.
	Close(ctx context.Context) error
}

// PixelActor is the raw-coordinate half of Page's action surface, used by
// the pixel-action tools (click_at, hover_at, drag_and_drop) and the
// document-scroll tool.
type PixelActor interface {
	MouseClick(ctx context.Context, x, y float64, button MouseButton) error
	MouseMove(ctx context.Context, x, y float64) error
	MouseWheel(ctx context.Context, x, y, deltaX, deltaY float64) error
	MouseDrag(ctx context.Context, fromX, fromY, toX, toY float64) error

	// ScrollDocument scrolls the page's main document by a fraction of
	// its viewport size (spec.md: "50% viewport scroll") in the given
	// direction.
	ScrollDocument(ctx context.Context, direction ScrollDirection, fraction float64) error
}

// ScrollDirection is one of the four directions scroll_document accepts.
type ScrollDirection string

const (
	ScrollUp    ScrollDirection = "up"
	ScrollDown  ScrollDirection = "down"
	ScrollLeft  ScrollDirection = "left"
	ScrollRight ScrollDirection = "right"
)

// ElementActor is the backend-node-id half of Page's action surface, used
// by the element-action tools (click, fill, type, upload). A
// BrowserFailure (e.g. the node detached since the last snapshot) is
// returned as a plain error; internal/tool turns it into an ERROR
// ToolResult rather than propagating it.
type ElementActor interface {
	ClickElement(ctx context.Context, backendNodeID int64) error
	FillElement(ctx context.Context, backendNodeID int64, value string) error
	TypeElement(ctx context.Context, backendNodeID int64, text string) error
	UploadFiles(ctx context.Context, backendNodeID int64, paths []string) error
}

// BrowserContext owns zero or more Pages and tracks which one is active,
// mirroring the public API's setPage/getPages/pageCount (spec.md §6). All
// per-step state is scoped to CurrentPage; switching pages is only valid
// between steps.
type BrowserContext interface {
	NewPage(ctx context.Context) (Page, error)
	SetPage(p Page)
	CurrentPage() Page
	Pages() []Page
	PageCount() int
	Close(ctx context.Context) error
}
