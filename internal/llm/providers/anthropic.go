// Package providers adapts llm.Adapter to each SDK the teacher's gateway
// already depended on. Unlike the teacher's streaming Complete (a channel
// of CompletionChunk), the step loop only ever needs one finished
// assistant message per turn, so every adapter here uses its SDK's
// blocking call instead of hand-rolled SSE processing.
package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/model"
)

// AnthropicConfig configures an AnthropicAdapter, grounded on the
// reference AnthropicConfig (APIKey required, everything else defaulted).
type AnthropicConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	RetryDelay int // seconds; zero uses the Retrier default
	MaxTokens  int
}

// AnthropicAdapter implements llm.Adapter over anthropic-sdk-go's
// blocking Messages.New call.
type AnthropicAdapter struct {
	client    anthropic.Client
	model     string
	maxTokens int
	retrier   llm.Retrier
	usage     llm.UsageFunc
}

const defaultAnthropicModel = "claude-sonnet-4-20250514"
const defaultMaxTokens = 4096

// NewAnthropicAdapter builds an AnthropicAdapter. usage, if non-nil, is
// called once per successful CallTools with the reported token counts.
func NewAnthropicAdapter(cfg AnthropicConfig, usage llm.UsageFunc) (*AnthropicAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &AnthropicAdapter{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		retrier:   llm.NewRetrier(cfg.MaxRetries, time.Duration(cfg.RetryDelay)*time.Second),
		usage:     usage,
	}, nil
}

// CallTools implements llm.Adapter.
func (a *AnthropicAdapter) CallTools(ctx context.Context, messages []*model.Message, tools []llm.ToolSpec, opts llm.CallOptions) (*model.Message, error) {
	params, err := a.buildParams(messages, tools, opts)
	if err != nil {
		return nil, err
	}

	var resp *anthropic.Message
	err = a.retrier.Do(ctx, func() error {
		r, callErr := a.client.Messages.New(ctx, params)
		if callErr != nil {
			return llm.NewProviderError("anthropic", a.model, callErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.usage != nil {
		a.usage(llm.TokenUsage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		})
	}

	return convertResponse(resp), nil
}

func (a *AnthropicAdapter) buildParams(messages []*model.Message, tools []llm.ToolSpec, opts llm.CallOptions) (anthropic.MessageNewParams, error) {
	maxTokens := int64(a.maxTokens)
	if opts.MaxTokens > 0 {
		maxTokens = int64(opts.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: maxTokens,
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: opts.System}}
	}

	msgParams, err := convertMessages(messages)
	if err != nil {
		return params, err
	}
	params.Messages = msgParams

	if len(tools) > 0 {
		toolParams, err := convertTools(tools)
		if err != nil {
			return params, err
		}
		params.Tools = toolParams
		if !opts.AllowFreeform {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfAny: &anthropic.ToolChoiceAnyParam{},
			}
		}
	}

	return params, nil
}

// convertMessages turns canonical messages into Anthropic's message-param
// shape. Grounded on the reference convertMessages: system messages are
// dropped (handled via params.System instead), tool-result and
// assistant/tool-call content become Anthropic content blocks, and the
// tool_result role both map to Anthropic's "user" role.
func convertMessages(messages []*model.Message) ([]anthropic.MessageParam, error) {
	var result []anthropic.MessageParam

	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}

		var content []anthropic.ContentBlockParamUnion

		for _, c := range msg.Content {
			switch c.Kind {
			case model.ContentText:
				if c.Text != "" {
					content = append(content, anthropic.NewTextBlock(c.Text))
				}
			case model.ContentImage:
				content = append(content, anthropic.NewImageBlockBase64(c.MimeType, base64.StdEncoding.EncodeToString(c.ImageData)))
			}
		}

		for _, tc := range msg.ToolCall {
			var input map[string]any
			if err := json.Unmarshal(tc.Arguments, &input); err != nil {
				return nil, fmt.Errorf("invalid tool call arguments for %s: %w", tc.Name, err)
			}
			content = append(content, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
		}

		if msg.Role == model.RoleToolResult {
			for _, r := range msg.Results {
				content = append(content, resultBlock(r))
			}
		}

		if len(content) == 0 {
			continue
		}

		if msg.Role == model.RoleAssistant {
			result = append(result, anthropic.NewAssistantMessage(content...))
		} else {
			result = append(result, anthropic.NewUserMessage(content...))
		}
	}

	return result, nil
}

func resultBlock(r model.ToolResult) anthropic.ContentBlockParamUnion {
	text := r.Description
	if r.Status == model.StatusError {
		text = r.Error
	}
	return anthropic.NewToolResultBlock(r.ToolCallID, text, r.Status == model.StatusError)
}

// convertTools inlines every tool's $refs, then converts to Anthropic's
// tool-param shape. Grounded on the reference convertTools.
func convertTools(tools []llm.ToolSpec) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		inlined, err := llm.InlineRefs(t.Schema())
		if err != nil {
			return nil, fmt.Errorf("inlining refs for %s: %w", t.Name(), err)
		}

		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(inlined, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name(), err)
		}

		toolParam := anthropic.ToolUnionParamOfTool(schema, t.Name())
		if toolParam.OfTool == nil {
			return nil, fmt.Errorf("invalid tool schema for %s: missing tool definition", t.Name())
		}
		toolParam.OfTool.Description = anthropic.String(t.Description())
		result = append(result, toolParam)
	}
	return result, nil
}

// convertResponse turns an Anthropic message back into a canonical
// assistant message, preserving tool-call order as Anthropic returned it.
func convertResponse(resp *anthropic.Message) *model.Message {
	var text string
	var calls []model.ToolCall

	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += variant.Text
		case anthropic.ToolUseBlock:
			calls = append(calls, model.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: json.RawMessage(variant.Input),
			})
		}
	}

	return model.NewAssistantMessage(text, calls)
}
