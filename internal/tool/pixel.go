package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/model"
)

// defaultScrollMagnitude is scroll_at's default scroll amount in pixels,
// grounded on the reference ScrollAtTool.Params.magnitude default.
const defaultScrollMagnitude = 800

// pixelTool is the shared shape of the four raw-coordinate tools: they
// all scale an x/y pair against the page's current viewport before
// acting, and none of them calls wait() themselves — the Dispatcher
// applies WaitAfterAction centrally after every successful non-terminal
// result, replacing each reference tool's own `await self.browser.wait()`
// call.
type pixelTool struct {
	bctx     browser.BrowserContext
	resolver *ElementResolver
}

func (p pixelTool) currentPage() (browser.Page, error) {
	page := p.bctx.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("no active page")
	}
	return page, nil
}

func (p pixelTool) scale(ctx context.Context, page browser.Page, x, y float64) (float64, float64, error) {
	return page.ScaleCoordinates(ctx, x, y, p.resolver.Viewport())
}

// ClickAtTool clicks at screen coordinates (spec.md §4.5 pixel tools).
type ClickAtTool struct{ pixelTool }

func NewClickAtTool(bctx browser.BrowserContext, resolver *ElementResolver) *ClickAtTool {
	return &ClickAtTool{pixelTool{bctx: bctx, resolver: resolver}}
}

func (t *ClickAtTool) Name() string        { return "click_at" }
func (t *ClickAtTool) Description() string { return "Click at specific screen coordinates" }

func (t *ClickAtTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"x": {"type": "integer", "description": "X coordinate (pixels)"},
			"y": {"type": "integer", "description": "Y coordinate (pixels)"},
			"description": {"type": "string", "description": "What you're clicking (e.g., 'Submit button', 'Login link')"}
		},
		"required": ["x", "y", "description"],
		"additionalProperties": false
	}`)
}

func (t *ClickAtTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		X, Y        float64
		Description string
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("click_at: %w", err)
	}
	page, err := t.currentPage()
	if err != nil {
		return nil, err
	}
	x, y, err := t.scale(ctx, page, params.X, params.Y)
	if err != nil {
		return nil, err
	}
	if err := page.MouseClick(ctx, x, y, browser.ButtonLeft); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Clicked %s", params.Description),
	}, nil
}

// HoverAtTool hovers at screen coordinates.
type HoverAtTool struct{ pixelTool }

func NewHoverAtTool(bctx browser.BrowserContext, resolver *ElementResolver) *HoverAtTool {
	return &HoverAtTool{pixelTool{bctx: bctx, resolver: resolver}}
}

func (t *HoverAtTool) Name() string { return "hover_at" }
func (t *HoverAtTool) Description() string {
	return "Hover at specific screen coordinates (useful for dropdowns, tooltips)"
}

func (t *HoverAtTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"x": {"type": "integer", "description": "X coordinate (pixels)"},
			"y": {"type": "integer", "description": "Y coordinate (pixels)"},
			"description": {"type": "string", "description": "What you're hovering over (e.g., 'Dropdown menu', 'Tooltip trigger')"}
		},
		"required": ["x", "y", "description"],
		"additionalProperties": false
	}`)
}

func (t *HoverAtTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		X, Y        float64
		Description string
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("hover_at: %w", err)
	}
	page, err := t.currentPage()
	if err != nil {
		return nil, err
	}
	x, y, err := t.scale(ctx, page, params.X, params.Y)
	if err != nil {
		return nil, err
	}
	if err := page.MouseMove(ctx, x, y); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Hovered over %s", params.Description),
	}, nil
}

// ScrollAtTool scrolls at specific coordinates.
type ScrollAtTool struct{ pixelTool }

func NewScrollAtTool(bctx browser.BrowserContext, resolver *ElementResolver) *ScrollAtTool {
	return &ScrollAtTool{pixelTool{bctx: bctx, resolver: resolver}}
}

func (t *ScrollAtTool) Name() string { return "scroll_at" }
func (t *ScrollAtTool) Description() string {
	return "Scroll at specific coordinates (useful for scrollable elements)"
}

func (t *ScrollAtTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"x": {"type": "integer", "description": "X coordinate (pixels)"},
			"y": {"type": "integer", "description": "Y coordinate (pixels)"},
			"direction": {"type": "string", "enum": ["up", "down", "left", "right"], "description": "Scroll direction"},
			"description": {"type": "string", "description": "What you're scrolling (e.g., 'Product list', 'Chat history')"},
			"magnitude": {"type": "integer", "description": "Scroll amount in pixels", "default": 800}
		},
		"required": ["x", "y", "direction", "description"],
		"additionalProperties": false
	}`)
}

func (t *ScrollAtTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		X, Y        float64
		Direction   string
		Description string
		Magnitude   int
	}
	params.Magnitude = defaultScrollMagnitude
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("scroll_at: %w", err)
	}
	if params.Magnitude == 0 {
		params.Magnitude = defaultScrollMagnitude
	}

	page, err := t.currentPage()
	if err != nil {
		return nil, err
	}
	x, y, err := t.scale(ctx, page, params.X, params.Y)
	if err != nil {
		return nil, err
	}

	var dx, dy float64
	switch browser.ScrollDirection(params.Direction) {
	case browser.ScrollUp:
		dy = -float64(params.Magnitude)
	case browser.ScrollDown:
		dy = float64(params.Magnitude)
	case browser.ScrollLeft:
		dx = -float64(params.Magnitude)
	case browser.ScrollRight:
		dx = float64(params.Magnitude)
	default:
		return nil, fmt.Errorf("scroll_at: unknown direction %q", params.Direction)
	}

	if err := page.MouseWheel(ctx, x, y, dx, dy); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Scrolled %s on %s", params.Direction, params.Description),
	}, nil
}

// DragAndDropTool drags from one position and drops at another.
type DragAndDropTool struct{ pixelTool }

func NewDragAndDropTool(bctx browser.BrowserContext, resolver *ElementResolver) *DragAndDropTool {
	return &DragAndDropTool{pixelTool{bctx: bctx, resolver: resolver}}
}

func (t *DragAndDropTool) Name() string        { return "drag_and_drop" }
func (t *DragAndDropTool) Description() string { return "Drag from one position and drop at another" }

func (t *DragAndDropTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"x": {"type": "integer", "description": "Start X coordinate (pixels)"},
			"y": {"type": "integer", "description": "Start Y coordinate (pixels)"},
			"dest_x": {"type": "integer", "description": "Destination X coordinate (pixels)"},
			"dest_y": {"type": "integer", "description": "Destination Y coordinate (pixels)"},
			"description": {"type": "string", "description": "What you're dragging (e.g., 'Drag slider to 50%', 'Move file to folder')"}
		},
		"required": ["x", "y", "dest_x", "dest_y", "description"],
		"additionalProperties": false
	}`)
}

func (t *DragAndDropTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		X, Y        float64
		DestX       float64 `json:"dest_x"`
		DestY       float64 `json:"dest_y"`
		Description string
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("drag_and_drop: %w", err)
	}
	page, err := t.currentPage()
	if err != nil {
		return nil, err
	}
	x, y, err := t.scale(ctx, page, params.X, params.Y)
	if err != nil {
		return nil, err
	}
	destX, destY, err := t.scale(ctx, page, params.DestX, params.DestY)
	if err != nil {
		return nil, err
	}
	if err := page.MouseDrag(ctx, x, y, destX, destY); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Dragged: %s", params.Description),
	}, nil
}
