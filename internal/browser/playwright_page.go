package browser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/accessibility"
	"github.com/chromedp/cdproto/domsnapshot"
	"github.com/playwright-community/playwright-go"

	"github.com/steve-z-wang/webtask/internal/ax"
	"github.com/steve-z-wang/webtask/internal/dom"
	"github.com/steve-z-wang/webtask/internal/observation"
)

// playwrightPage is the Playwright-backed Page. High-level actions
// (navigation, mouse, screenshot) go through Playwright's own API; the
// two snapshot methods reach past it to the raw CDP session, since
// Playwright has no first-class DOMSnapshot/Accessibility API of its own
// — this is the same raw-CDP-session pattern the reference tool uses for
// everything beyond Playwright's built-ins.
type playwrightPage struct {
	page playwright.Page
	cdp  playwright.CDPSession
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	_, err := p.page.Goto(url)
	if err != nil {
		return fmt.Errorf("browser: goto %q: %w", url, err)
	}
	return nil
}

func (p *playwrightPage) URL(ctx context.Context) (string, error) {
	return p.page.URL(), nil
}

func (p *playwrightPage) ViewportSize(ctx context.Context) (Viewport, error) {
	size := p.page.ViewportSize()
	if size == nil {
		return Viewport{}, fmt.Errorf("browser: page has no viewport")
	}
	return Viewport{Width: size.Width, Height: size.Height}, nil
}

func (p *playwrightPage) ScaleCoordinates(ctx context.Context, x, y float64, reference Viewport) (float64, float64, error) {
	current, err := p.ViewportSize(ctx)
	if err != nil {
		return 0, 0, err
	}
	if reference.Width == 0 || reference.Height == 0 {
		return x, y, nil
	}
	scaleX := float64(current.Width) / float64(reference.Width)
	scaleY := float64(current.Height) / float64(reference.Height)
	return x * scaleX, y * scaleY, nil
}

func (p *playwrightPage) Evaluate(ctx context.Context, js string) (any, error) {
	return p.page.Evaluate(js)
}

func (p *playwrightPage) Screenshot(ctx context.Context, fullPage bool) (*observation.Screenshot, error) {
	data, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(fullPage),
		Type:     playwright.ScreenshotTypePng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return &observation.Screenshot{PNG: data}, nil
}

func (p *playwrightPage) MouseClick(ctx context.Context, x, y float64, button MouseButton) error {
	btn := playwright.MouseButton(button)
	return p.page.Mouse().Click(x, y, playwright.MouseClickOptions{Button: &btn})
}

func (p *playwrightPage) MouseMove(ctx context.Context, x, y float64) error {
	return p.page.Mouse().Move(x, y)
}

func (p *playwrightPage) MouseWheel(ctx context.Context, x, y, deltaX, deltaY float64) error {
	if err := p.page.Mouse().Move(x, y); err != nil {
		return err
	}
	return p.page.Mouse().Wheel(deltaX, deltaY)
}

func (p *playwrightPage) MouseDrag(ctx context.Context, fromX, fromY, toX, toY float64) error {
	mouse := p.page.Mouse()
	if err := mouse.Move(fromX, fromY); err != nil {
		return err
	}
	if err := mouse.Down(); err != nil {
		return err
	}
	if err := mouse.Move(toX, toY); err != nil {
		_ = mouse.Up()
		return err
	}
	return mouse.Up()
}

func (p *playwrightPage) ScrollDocument(ctx context.Context, direction ScrollDirection, fraction float64) error {
	vp, err := p.ViewportSize(ctx)
	if err != nil {
		return err
	}
	var dx, dy float64
	switch direction {
	case ScrollUp:
		dy = -float64(vp.Height) * fraction
	case ScrollDown:
		dy = float64(vp.Height) * fraction
	case ScrollLeft:
		dx = -float64(vp.Width) * fraction
	case ScrollRight:
		dx = float64(vp.Width) * fraction
	default:
		return fmt.Errorf("browser: unknown scroll direction %q", direction)
	}
	_, err = p.page.Evaluate("([dx, dy]) => window.scrollBy(dx, dy)", []float64{dx, dy})
	return err
}

func (p *playwrightPage) DOMSnapshot(ctx context.Context) (*dom.Tree, error) {
	raw, err := p.cdp.Send("DOMSnapshot.captureSnapshot", map[string]any{
		"computedStyles": []string{"display", "visibility", "opacity"},
		"includeDOMRects": true,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: DOMSnapshot.captureSnapshot: %w", err)
	}

	var ret domsnapshot.CaptureSnapshotReturns
	if err := reencode(raw, &ret); err != nil {
		return nil, fmt.Errorf("browser: decoding DOMSnapshot result: %w", err)
	}
	if len(ret.Documents) == 0 {
		return dom.EmptyTree(), nil
	}
	return dom.FromSnapshot(ret.Documents[0], ret.Strings)
}

func (p *playwrightPage) AccessibilitySnapshot(ctx context.Context) (*ax.Tree, error) {
	raw, err := p.cdp.Send("Accessibility.getFullAXTree", map[string]any{})
	if err != nil {
		return nil, fmt.Errorf("browser: Accessibility.getFullAXTree: %w", err)
	}

	var ret accessibility.GetFullAXTreeReturns
	if err := reencode(raw, &ret); err != nil {
		return nil, fmt.Errorf("browser: decoding accessibility tree: %w", err)
	}
	return ax.FromCDPNodes(ret.Nodes), nil
}

func (p *playwrightPage) Select(ctx context.Context, selector string) (int64, bool, error) {
	raw, err := p.cdp.Send("DOM.getDocument", map[string]any{"depth": -1, "pierce": true})
	if err != nil {
		return 0, false, fmt.Errorf("browser: DOM.getDocument: %w", err)
	}
	var doc struct {
		Root struct{ NodeID int64 `json:"nodeId"` } `json:"root"`
	}
	if err := reencode(raw, &doc); err != nil {
		return 0, false, fmt.Errorf("browser: decoding document: %w", err)
	}

	raw, err = p.cdp.Send("DOM.querySelector", map[string]any{
		"nodeId":   doc.Root.NodeID,
		"selector": selector,
	})
	if err != nil {
		return 0, false, fmt.Errorf("browser: DOM.querySelector: %w", err)
	}
	var found struct {
		NodeID int64 `json:"nodeId"`
	}
	if err := reencode(raw, &found); err != nil {
		return 0, false, fmt.Errorf("browser: decoding query result: %w", err)
	}
	if found.NodeID == 0 {
		return 0, false, nil
	}

	raw, err = p.cdp.Send("DOM.describeNode", map[string]any{"nodeId": found.NodeID})
	if err != nil {
		return 0, false, fmt.Errorf("browser: DOM.describeNode: %w", err)
	}
	var described struct {
		Node struct {
			BackendNodeID int64 `json:"backendNodeId"`
		} `json:"node"`
	}
	if err := reencode(raw, &described); err != nil {
		return 0, false, fmt.Errorf("browser: decoding node description: %w", err)
	}
	return described.Node.BackendNodeID, true, nil
}

func (p *playwrightPage) ClickElement(ctx context.Context, backendNodeID int64) error {
	_, err := p.cdp.Send("DOM.resolveNode", map[string]any{"backendNodeId": backendNodeID})
	if err != nil {
		return fmt.Errorf("browser: element %d no longer resolves: %w", backendNodeID, err)
	}
	return p.evaluateOnBackendNode(backendNodeID, "(el) => el.click()")
}

func (p *playwrightPage) FillElement(ctx context.Context, backendNodeID int64, value string) error {
	return p.evaluateOnBackendNode(backendNodeID, fmt.Sprintf(
		"(el) => { el.value = %s; el.dispatchEvent(new Event('input', { bubbles: true })); el.dispatchEvent(new Event('change', { bubbles: true })); }",
		jsonQuote(value),
	))
}

func (p *playwrightPage) TypeElement(ctx context.Context, backendNodeID int64, text string) error {
	if err := p.evaluateOnBackendNode(backendNodeID, "(el) => el.focus()"); err != nil {
		return err
	}
	return p.page.Keyboard().Type(text)
}

func (p *playwrightPage) UploadFiles(ctx context.Context, backendNodeID int64, paths []string) error {
	raw, err := p.cdp.Send("DOM.resolveNode", map[string]any{"backendNodeId": backendNodeID})
	if err != nil {
		return fmt.Errorf("browser: element %d no longer resolves: %w", backendNodeID, err)
	}
	var resolved struct {
		Object struct {
			ObjectID string `json:"objectId"`
		} `json:"object"`
	}
	if err := reencode(raw, &resolved); err != nil {
		return fmt.Errorf("browser: decoding resolved node: %w", err)
	}
	_, err = p.cdp.Send("DOM.setFileInputFiles", map[string]any{
		"files":    paths,
		"objectId": resolved.Object.ObjectID,
	})
	if err != nil {
		return fmt.Errorf("browser: DOM.setFileInputFiles: %w", err)
	}
	return nil
}

func (p *playwrightPage) Close(ctx context.Context) error {
	return p.page.Close()
}

func (p *playwrightPage) evaluateOnBackendNode(backendNodeID int64, js string) error {
	resolved, err := p.cdp.Send("DOM.resolveNode", map[string]any{"backendNodeId": backendNodeID})
	if err != nil {
		return fmt.Errorf("browser: element %d no longer resolves: %w", backendNodeID, err)
	}
	var obj struct {
		Object struct {
			ObjectID string `json:"objectId"`
		} `json:"object"`
	}
	if err := reencode(resolved, &obj); err != nil {
		return fmt.Errorf("browser: decoding resolved node: %w", err)
	}
	_, err = p.cdp.Send("Runtime.callFunctionOn", map[string]any{
		"functionDeclaration": js,
		"objectId":            obj.Object.ObjectID,
	})
	if err != nil {
		return fmt.Errorf("browser: Runtime.callFunctionOn: %w", err)
	}
	return nil
}

// reencode round-trips a CDPSession.Send result (already-decoded
// interface{}) through JSON into a typed cdproto struct, letting us reuse
// the same wire types internal/dom and internal/ax parse, without
// depending on chromedp's own transport/executor.
func reencode(raw any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

func jsonQuote(s string) string {
	buf, _ := json.Marshal(s)
	return string(buf)
}
