// Package llmtest provides a scriptable llm.Adapter for exercising the
// Step Loop, Verifier, Extractor, and Selector without a real provider
// call. Kept as a regular (non-test) package, the same "shared fake"
// shape as internal/browsertest, so more than one package's tests can
// import it.
package llmtest

import (
	"context"
	"fmt"

	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/model"
)

// Adapter replays a fixed sequence of responses, one per CallTools
// invocation, then errors if called more times than scripted — this
// catches a test accidentally looping forever as fast as a wrong
// assertion would.
type Adapter struct {
	Responses []*model.Message
	Err       error // if set, every call fails with this error instead

	calls int
	// Requests records every call's messages/tools/opts for assertions
	// that need to inspect what the Worker actually sent.
	Requests []Request
}

// Request captures one CallTools invocation's arguments.
type Request struct {
	Messages []*model.Message
	Tools    []llm.ToolSpec
	Opts     llm.CallOptions
}

// Script builds an Adapter that returns responses in order, one per call.
func Script(responses ...*model.Message) *Adapter {
	return &Adapter{Responses: responses}
}

// Failing builds an Adapter whose every call returns err.
func Failing(err error) *Adapter {
	return &Adapter{Err: err}
}

func (a *Adapter) CallTools(ctx context.Context, messages []*model.Message, tools []llm.ToolSpec, opts llm.CallOptions) (*model.Message, error) {
	a.Requests = append(a.Requests, Request{Messages: messages, Tools: tools, Opts: opts})
	if a.Err != nil {
		return nil, a.Err
	}
	if a.calls >= len(a.Responses) {
		return nil, fmt.Errorf("llmtest: CallTools invoked more times (%d) than scripted (%d)", a.calls+1, len(a.Responses))
	}
	resp := a.Responses[a.calls]
	a.calls++
	return resp, nil
}

// ToolCallMessage builds an assistant message with a single tool call,
// the shape most scripted steps need.
func ToolCallMessage(callID, toolName string, arguments string) *model.Message {
	return model.NewAssistantMessage("", []model.ToolCall{
		{ID: callID, Name: toolName, Arguments: []byte(arguments)},
	})
}
