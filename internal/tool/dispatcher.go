package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/steve-z-wang/webtask/internal/model"
)

// Event is a non-blocking lifecycle notification emitted during
// dispatch, grounded on the reference executor's EventCallback —
// generalized here to one small struct instead of a RuntimeEvent union,
// since the step loop only ever needs name/call id/phase out of it.
type Event struct {
	Phase    string // "started", "succeeded", "failed", "skipped"
	ToolName string
	CallID   string
}

// EventFunc receives dispatch lifecycle events. Never blocks dispatch —
// callers that need to do slow work in response should hand off to a
// goroutine themselves.
type EventFunc func(Event)

// Config tunes Dispatcher behavior.
type Config struct {
	// PerToolTimeout bounds a single tool's Execute call. Zero disables
	// the timeout.
	PerToolTimeout time.Duration

	// WaitAfterAction is how long Dispatch sleeps after each successful
	// non-terminal tool call, letting the page settle before the next
	// observation is captured (spec.md §4.5).
	WaitAfterAction time.Duration
}

// DefaultConfig returns a Dispatcher config with a generous per-tool
// timeout and no post-action wait.
func DefaultConfig() Config {
	return Config{PerToolTimeout: 30 * time.Second, WaitAfterAction: 0}
}

// Metrics counts dispatch outcomes across the Dispatcher's lifetime.
type Metrics struct {
	mu        sync.Mutex
	Executed  int64
	Succeeded int64
	Failed    int64
	Panics    int64
	Timeouts  int64
}

func (m *Metrics) record(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f()
}

// Dispatcher resolves an assistant message's proposed ToolCalls against
// a Registry, validating arguments against each tool's JSON Schema and
// invoking Execute. It consolidates the reference implementation's two
// parallel executor types (ToolExecutor's EventCallback-driven loop,
// Executor's per-tool overrides/metrics/panic recovery) into one type,
// replacing their concurrent fan-out with the sequential stop-on-first-
// error semantics spec.md requires: a tool-not-found or validation
// failure on call N aborts execution and every call after N is reported
// as skipped, preserving strict 1:1 ToolCall/ToolResult correspondence.
type Dispatcher struct {
	registry *Registry
	config   Config
	metrics  *Metrics

	schemaCacheMu sync.Mutex
	schemaCache   map[string]*jsonschema.Schema
}

// NewDispatcher builds a Dispatcher over registry.
func NewDispatcher(registry *Registry, config Config) *Dispatcher {
	return &Dispatcher{
		registry:    registry,
		config:      config,
		metrics:     &Metrics{},
		schemaCache: make(map[string]*jsonschema.Schema),
	}
}

// Metrics returns the dispatcher's running counters.
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Dispatch executes calls in order, stopping at the first error (tool
// not found, schema validation failure, Execute error or panic). Every
// call after the first failure is reported as a skipped placeholder so
// the returned slice always has the same length, and the same
// positional order, as calls.
func (d *Dispatcher) Dispatch(ctx context.Context, calls []model.ToolCall, emit EventFunc) []model.ToolResult {
	results := make([]model.ToolResult, len(calls))
	failed := false

	for i, call := range calls {
		if failed {
			results[i] = model.ToolResult{
				ToolCallID: call.ID,
				Name:       call.Name,
				Status:     model.StatusError,
				Error:      "Skipped: prior error",
			}
			continue
		}

		result := d.dispatchOne(ctx, call, emit)
		results[i] = result
		if result.Status == model.StatusError {
			failed = true
			continue
		}

		if d.config.WaitAfterAction > 0 && result.Terminal == nil {
			select {
			case <-time.After(d.config.WaitAfterAction):
			case <-ctx.Done():
			}
		}
	}

	return results
}

func (d *Dispatcher) dispatchOne(ctx context.Context, call model.ToolCall, emit EventFunc) (result model.ToolResult) {
	result.ToolCallID = call.ID
	result.Name = call.Name

	d.metrics.record(func() { d.metrics.Executed++ })
	notify(emit, Event{Phase: "started", ToolName: call.Name, CallID: call.ID})

	t, ok := d.registry.Get(call.Name)
	if !ok {
		result.Status = model.StatusError
		result.Error = "Tool not found: " + call.Name
		d.metrics.record(func() { d.metrics.Failed++ })
		notify(emit, Event{Phase: "failed", ToolName: call.Name, CallID: call.ID})
		return result
	}

	if err := d.validate(t, call.Arguments); err != nil {
		result.Status = model.StatusError
		result.Error = fmt.Sprintf("invalid arguments: %v", err)
		d.metrics.record(func() { d.metrics.Failed++ })
		notify(emit, Event{Phase: "failed", ToolName: call.Name, CallID: call.ID})
		return result
	}

	execCtx := ctx
	var cancel context.CancelFunc
	if d.config.PerToolTimeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, d.config.PerToolTimeout)
		defer cancel()
	}

	out := d.invokeSafely(execCtx, t, call)
	out.ToolCallID = call.ID
	out.Name = call.Name

	if out.Status == model.StatusError {
		d.metrics.record(func() { d.metrics.Failed++ })
		if execCtx.Err() == context.DeadlineExceeded {
			d.metrics.record(func() { d.metrics.Timeouts++ })
		}
		notify(emit, Event{Phase: "failed", ToolName: call.Name, CallID: call.ID})
		return out
	}

	d.metrics.record(func() { d.metrics.Succeeded++ })
	notify(emit, Event{Phase: "succeeded", ToolName: call.Name, CallID: call.ID})
	return out
}

// invokeSafely calls t.Execute, recovering a panic into an ERROR result
// rather than letting one misbehaving tool take down the whole run.
func (d *Dispatcher) invokeSafely(ctx context.Context, t Tool, call model.ToolCall) (result model.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			d.metrics.record(func() { d.metrics.Panics++ })
			result = model.ToolResult{
				Status: model.StatusError,
				Error:  fmt.Sprintf("tool %q panicked: %v\n%s", call.Name, r, debug.Stack()),
			}
		}
	}()

	res, err := t.Execute(ctx, call.Arguments)
	if err != nil {
		return model.ToolResult{Status: model.StatusError, Error: err.Error()}
	}
	if res == nil {
		return model.ToolResult{Status: model.StatusSuccess}
	}
	return *res
}

func (d *Dispatcher) validate(t Tool, arguments json.RawMessage) error {
	schema, err := d.compiledSchema(t)
	if err != nil {
		return err
	}
	if schema == nil {
		return nil
	}

	var v interface{}
	if len(arguments) == 0 {
		v = map[string]interface{}{}
	} else if err := json.Unmarshal(arguments, &v); err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}
	return schema.Validate(v)
}

func (d *Dispatcher) compiledSchema(t Tool) (*jsonschema.Schema, error) {
	raw := t.Schema()
	if len(raw) == 0 {
		return nil, nil
	}

	d.schemaCacheMu.Lock()
	defer d.schemaCacheMu.Unlock()
	if s, ok := d.schemaCache[t.Name()]; ok {
		return s, nil
	}

	compiler := jsonschema.NewCompiler()
	url := "mem://tool/" + t.Name() + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("tool %q: invalid schema: %w", t.Name(), err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("tool %q: invalid schema: %w", t.Name(), err)
	}

	d.schemaCache[t.Name()] = schema
	return schema, nil
}

func notify(emit EventFunc, e Event) {
	if emit != nil {
		emit(e)
	}
}
