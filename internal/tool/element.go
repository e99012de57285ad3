package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/model"
)

// elementTool is the shared shape of the element-id-keyed tools: each
// resolves element_id through the step's ElementResolver into a backend
// node id before acting, grounded on the reference ClickParams/FillParams/
// TypeParams/UploadParams (agent/llm_schemas/actions.py) and the base
// Tool.execute(params, browser) contract (agent/tool.py).
type elementTool struct {
	bctx     browser.BrowserContext
	resolver *ElementResolver
}

func (e elementTool) resolve(ctx context.Context, elementID string) (browser.Page, int64, error) {
	page := e.bctx.CurrentPage()
	if page == nil {
		return nil, 0, fmt.Errorf("no active page")
	}
	backendID, err := e.resolver.Resolve(elementID)
	if err != nil {
		return nil, 0, err
	}
	return page, backendID, nil
}

// ClickTool clicks an element by its indexed id.
type ClickTool struct{ elementTool }

func NewClickTool(bctx browser.BrowserContext, resolver *ElementResolver) *ClickTool {
	return &ClickTool{elementTool{bctx: bctx, resolver: resolver}}
}

func (t *ClickTool) Name() string        { return "click" }
func (t *ClickTool) Description() string { return "Click an element on the page" }

func (t *ClickTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"element_id": {"type": "string", "description": "ID of the element to click"}
		},
		"required": ["element_id"],
		"additionalProperties": false
	}`)
}

func (t *ClickTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		ElementID string `json:"element_id"`
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("click: %w", err)
	}
	page, backendID, err := t.resolve(ctx, params.ElementID)
	if err != nil {
		return nil, err
	}
	if err := page.ClickElement(ctx, backendID); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Clicked element %s", params.ElementID),
	}, nil
}

// FillTool sets an input element's value directly, without simulating
// keystrokes (useful for form fields the LLM doesn't need to watch being
// typed character by character).
type FillTool struct{ elementTool }

func NewFillTool(bctx browser.BrowserContext, resolver *ElementResolver) *FillTool {
	return &FillTool{elementTool{bctx: bctx, resolver: resolver}}
}

func (t *FillTool) Name() string        { return "fill" }
func (t *FillTool) Description() string { return "Fill a value into an input element on the page" }

func (t *FillTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"element_id": {"type": "string", "description": "ID of the element to fill"},
			"value": {"type": "string", "description": "Value to fill into the element"}
		},
		"required": ["element_id", "value"],
		"additionalProperties": false
	}`)
}

func (t *FillTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		ElementID string `json:"element_id"`
		Value     string
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("fill: %w", err)
	}
	page, backendID, err := t.resolve(ctx, params.ElementID)
	if err != nil {
		return nil, err
	}
	if err := page.FillElement(ctx, backendID, params.Value); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Filled element %s", params.ElementID),
	}, nil
}

// TypeTool types text into an element by simulating keystrokes, so
// client-side input handlers (autocomplete, masked inputs) see every
// keystroke the way a human typing would produce.
type TypeTool struct{ elementTool }

func NewTypeTool(bctx browser.BrowserContext, resolver *ElementResolver) *TypeTool {
	return &TypeTool{elementTool{bctx: bctx, resolver: resolver}}
}

func (t *TypeTool) Name() string        { return "type" }
func (t *TypeTool) Description() string { return "Type text into an element on the page, simulating keystrokes" }

func (t *TypeTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"element_id": {"type": "string", "description": "ID of the element to type into"},
			"text": {"type": "string", "description": "Text to type into the element"}
		},
		"required": ["element_id", "text"],
		"additionalProperties": false
	}`)
}

func (t *TypeTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		ElementID string `json:"element_id"`
		Text      string
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("type: %w", err)
	}
	page, backendID, err := t.resolve(ctx, params.ElementID)
	if err != nil {
		return nil, err
	}
	if err := page.TypeElement(ctx, backendID, params.Text); err != nil {
		return nil, err
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Typed into element %s", params.ElementID),
	}, nil
}

// UploadTool sets an `<input type=file>` element's files from the run's
// FileManager. Parameters use spec.md's file_indexes: []int shape (see
// DESIGN.md for why this, not the reference's resource_names: []string,
// is what this port implements).
type UploadTool struct {
	elementTool
	files *FileManager
}

// NewUploadTool builds the upload tool over files.
func NewUploadTool(bctx browser.BrowserContext, resolver *ElementResolver, files *FileManager) *UploadTool {
	return &UploadTool{elementTool: elementTool{bctx: bctx, resolver: resolver}, files: files}
}

func (t *UploadTool) Name() string { return "upload" }
func (t *UploadTool) Description() string {
	return "Upload one or more files into a file input element on the page"
}

func (t *UploadTool) Schema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"element_id": {"type": "string", "description": "Element ID of the file input (e.g., 'input-5')"},
			"file_indexes": {
				"type": "array",
				"items": {"type": "integer"},
				"description": "Indexes into the run's file list to upload (e.g., [0, 2])"
			},
			"description": {"type": "string", "description": "What you're uploading"}
		},
		"required": ["element_id", "file_indexes", "description"],
		"additionalProperties": false
	}`)
}

func (t *UploadTool) Execute(ctx context.Context, arguments json.RawMessage) (*model.ToolResult, error) {
	var params struct {
		ElementID   string `json:"element_id"`
		FileIndexes []int  `json:"file_indexes"`
		Description string
	}
	if err := json.Unmarshal(arguments, &params); err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	paths, err := t.files.GetPaths(params.FileIndexes)
	if err != nil {
		return nil, err
	}

	page, backendID, err := t.resolve(ctx, params.ElementID)
	if err != nil {
		return nil, err
	}
	if err := page.UploadFiles(ctx, backendID, paths); err != nil {
		return nil, err
	}

	indexLabels := make([]string, len(params.FileIndexes))
	for i, idx := range params.FileIndexes {
		indexLabels[i] = fmt.Sprintf("[%d]", idx)
	}
	return &model.ToolResult{
		Status:      model.StatusSuccess,
		Description: fmt.Sprintf("Uploaded files %s: %s", strings.Join(indexLabels, " "), params.Description),
	}, nil
}
