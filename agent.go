// Package webtask is the public surface of an LLM-driven web automation
// agent (spec.md §6's "Public API"): createAgent/Agent wrap the Task
// Runner (internal/runner), Verifier (internal/verifier), Extractor
// (internal/extractor), and Selector (internal/selector) behind the
// small set of operations a caller drives a browsing task with.
package webtask

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/steve-z-wang/webtask/internal/browser"
	"github.com/steve-z-wang/webtask/internal/extractor"
	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/runner"
	"github.com/steve-z-wang/webtask/internal/selector"
	"github.com/steve-z-wang/webtask/internal/verifier"
)

// LLMAdapter is the provider-facing contract a caller supplies to
// createAgent (spec.md §6 "LLM adapter contract"). It is a plain alias
// of internal/llm.Adapter so callers never need to import the internal
// package to implement one.
type LLMAdapter = llm.Adapter

// Page is one browsing-context tab (spec.md §6 "Browser port").
type Page = browser.Page

// BrowserContext owns zero or more Pages and tracks the active one.
type BrowserContext = browser.BrowserContext

// Agent drives one browser tab through an LLM-directed automation task.
// It is not safe for concurrent use from multiple goroutines: spec.md
// §5's shared-resource policy holds the page exclusively for the
// duration of one run.
type Agent struct {
	bctx    BrowserContext
	adapter LLMAdapter
	opts    Options
}

// CreateAgent builds an Agent bound to bctx and driven by llmAdapter
// (spec.md §6: "createAgent(llm, browserContext, options) -> Agent").
func CreateAgent(llmAdapter LLMAdapter, bctx BrowserContext, opts Options) (*Agent, error) {
	if llmAdapter == nil {
		return nil, fmt.Errorf("webtask: createAgent requires a non-nil LLM adapter")
	}
	if bctx == nil {
		return nil, fmt.Errorf("webtask: createAgent requires a non-nil browser context")
	}
	return &Agent{bctx: bctx, adapter: llmAdapter, opts: opts}, nil
}

// Goto navigates the current page to url, prepending "https://" when the
// caller passed a bare host (spec.md §6, §8 "URL scheme normalization").
// If no page exists yet, one is opened first.
func (a *Agent) Goto(ctx context.Context, url string) error {
	page, err := a.currentOrNewPage(ctx)
	if err != nil {
		return err
	}
	return page.Goto(ctx, normalizeURL(url))
}

func normalizeURL(url string) string {
	if strings.Contains(url, "://") {
		return url
	}
	return "https://" + url
}

func (a *Agent) currentOrNewPage(ctx context.Context) (Page, error) {
	if p := a.bctx.CurrentPage(); p != nil {
		return p, nil
	}
	return a.bctx.NewPage(ctx)
}

// Do drives the Task Runner to completion on task, returning a Result
// whose Status reports COMPLETED, ABORTED, or EXHAUSTED — only the
// ABORTED case additionally returns a non-nil error (spec.md §6: "do(task,
// max_steps?, output_schema?) -> Result | throws TaskAbortedError"; §7:
// "StepsExhausted ... does not throw").
func (a *Agent) Do(ctx context.Context, task string, opts ...DoOption) (*Result, error) {
	cfg := doConfig{maxSteps: a.opts.MaxSteps}
	for _, o := range opts {
		o(&cfg)
	}

	r, err := runner.New(a.bctx, a.adapter, runner.Options{
		MaxSteps:        cfg.maxSteps,
		UseScreenshot:   a.opts.UseScreenshot,
		OutputSchema:    cfg.outputSchema,
		Files:           a.opts.Files,
		WaitAfterAction: a.opts.WaitAfterAction,
	})
	if err != nil {
		return nil, fmt.Errorf("webtask: %w", err)
	}

	run, err := r.Run(ctx, task, nil)
	if err != nil {
		return nil, fmt.Errorf("webtask: %w", err)
	}

	result := newResult(run)
	if result.Status == StatusAborted {
		return result, &TaskAbortedError{
			Feedback: result.Feedback,
			Run:      result,
			Cause:    newToolError("", result.Feedback, nil),
		}
	}
	return result, nil
}

// Verify asks the Verifier whether condition holds against the current
// page, returning a Verdict on every reached verdict — including a
// failed one, which is not an error — and a VerificationAbortedError
// only when the restricted loop itself aborts (spec.md §6).
func (a *Agent) Verify(ctx context.Context, condition string) (*Verdict, error) {
	v := verifier.New(a.bctx, a.adapter, verifier.Config{UseScreenshot: a.opts.UseScreenshot})
	verdict, err := v.Verify(ctx, condition)
	if err != nil {
		return nil, &VerificationAbortedError{Feedback: err.Error()}
	}
	return &Verdict{Passed: verdict.Passed, Feedback: verdict.Feedback}, nil
}

// Extract asks the Extractor to read query off the current page,
// optionally validating the result against schema, a JSON Schema
// document (spec.md §6: "extract(query, schema?) -> String | T").
// schema may be nil for an unstructured string result.
func (a *Agent) Extract(ctx context.Context, query string, schema json.RawMessage) (json.RawMessage, error) {
	outputSchema, err := extractor.CompileSchema("extract_result", schema)
	if err != nil {
		return nil, fmt.Errorf("webtask: compiling extract schema: %w", err)
	}

	e := extractor.New(a.bctx, a.adapter, outputSchema, extractor.Config{UseScreenshot: a.opts.UseScreenshot})
	out, err := e.Extract(ctx, query)
	if err != nil {
		return nil, &ExtractionAbortedError{Feedback: err.Error()}
	}
	return out, nil
}

// Screenshot captures the current page as PNG, optionally writing it to
// path (spec.md §6: "screenshot(path?, full_page=false) -> bytes").
func (a *Agent) Screenshot(ctx context.Context, path string, fullPage bool) ([]byte, error) {
	page := a.bctx.CurrentPage()
	if page == nil {
		return nil, fmt.Errorf("webtask: no current page")
	}
	shot, err := page.Screenshot(ctx, fullPage)
	if err != nil {
		return nil, fmt.Errorf("webtask: screenshot: %w", err)
	}
	if path != "" {
		if err := os.WriteFile(path, shot.PNG, 0o644); err != nil {
			return nil, fmt.Errorf("webtask: writing screenshot to %s: %w", path, err)
		}
	}
	return shot.PNG, nil
}

// Wait pauses for seconds before returning, respecting ctx cancellation
// (spec.md §6: "wait(seconds)").
func (a *Agent) Wait(ctx context.Context, seconds float64) error {
	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select resolves description against the current page's indexed
// elements via one Natural Selector call (spec.md §6: "select(description)
// -> ElementHandle").
func (a *Agent) Select(ctx context.Context, description string) (*ElementHandle, error) {
	s := selector.New(a.bctx, a.adapter, nil)
	res, err := s.Select(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("webtask: %w", err)
	}
	return &ElementHandle{ElementID: res.ElementID, Reasoning: res.Reasoning, BackendNodeID: res.BackendNodeID}, nil
}

// SetPage makes p the Agent's active page (spec.md §6: "setPage(page)").
func (a *Agent) SetPage(p Page) {
	a.bctx.SetPage(p)
}

// GetPages returns every page the Agent's BrowserContext owns (spec.md
// §6: "getPages()").
func (a *Agent) GetPages() []Page {
	return a.bctx.Pages()
}

// PageCount reports how many pages the Agent's BrowserContext owns
// (spec.md §6: "pageCount").
func (a *Agent) PageCount() int {
	return a.bctx.PageCount()
}
