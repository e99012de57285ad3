package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/model"
)

// documentScrollFraction is the fraction of the viewport scroll_document
// moves by, grounded on the reference tool's "50% of viewport" comment —
// big enough to make progress, small enough that no element is ever cut
// clean in half between two observations.
const documentScrollFraction = 0.5

// ScrollDocumentTool scrolls the whole page by half a viewport, in order
// to keep on-screen context across the scroll (spec.md §4.5).
type ScrollDocumentTool struct {
	bctx browser.BrowserContext
}

// NewScrollDocumentTool builds the scroll_document tool.
func NewScrollDocumentTool(bctx browser.BrowserContext) *ScrollDocumentTool {
	return &ScrollDocumentTool{bctx: bctx}
}

func (t *ScrollDocumentTool) Name() string { return "scroll_document" }
func (t *ScrollDocumentTool) Description() string {
	return "Scroll the entire webpage by 50% of viewport (maintains context, won't cut elements in half)"
}

func (t *ScrollDocumentTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"direction": {"type": "string", "enum": ["up", "down", "left", "right"], "description": "Scroll direction"},
			"description": {"type": "string", "description": "Why you're scrolling (e.g., 'Scroll to see more results')"}
		},
		"required": ["direction", "description"],
		"additionalProperties": false
	}`)
}

func (t *ScrollDocumentTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		Direction   string
		Description string
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("scroll_document: %w", err)
	}

	page := t.bctx.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("no active page")
	}

	direction := browser.ScrollDirection(params.Direction)
	switch direction {
	case browser.ScrollUp, browser.ScrollDown, browser.ScrollLeft, browser.ScrollRight:
	default:
		return nil, fmt.Errorf("scroll_document: unknown direction %q", params.Direction)
	}

	if err := page.ScrollDocument(ctx, direction, documentScrollFraction); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Scrolled page %s: %s", params.Direction, params.Description),
	}, nil
}
