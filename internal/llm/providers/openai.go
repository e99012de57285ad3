package providers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/model"
)

// OpenAIConfig configures an OpenAIAdapter.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	RetryDelay int // seconds
}

// OpenAIAdapter implements llm.Adapter over go-openai's blocking
// CreateChatCompletion call.
type OpenAIAdapter struct {
	client  *openai.Client
	model   string
	retrier llm.Retrier
	usage   llm.UsageFunc
}

const defaultOpenAIModel = "gpt-4o"

// NewOpenAIAdapter builds an OpenAIAdapter.
func NewOpenAIAdapter(cfg OpenAIConfig, usage llm.UsageFunc) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIAdapter{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   model,
		retrier: llm.NewRetrier(cfg.MaxRetries, time.Duration(cfg.RetryDelay)*time.Second),
		usage:   usage,
	}, nil
}

// CallTools implements llm.Adapter.
func (a *OpenAIAdapter) CallTools(ctx context.Context, messages []*model.Message, tools []llm.ToolSpec, opts llm.CallOptions) (*model.Message, error) {
	req, err := a.buildRequest(messages, tools, opts)
	if err != nil {
		return nil, err
	}

	var resp openai.ChatCompletionResponse
	err = a.retrier.Do(ctx, func() error {
		r, callErr := a.client.CreateChatCompletion(ctx, req)
		if callErr != nil {
			return llm.NewProviderError("openai", a.model, callErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.usage != nil {
		a.usage(llm.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		})
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response")
	}
	return convertOpenAIResponse(resp.Choices[0].Message), nil
}

func (a *OpenAIAdapter) buildRequest(messages []*model.Message, tools []llm.ToolSpec, opts llm.CallOptions) (openai.ChatCompletionRequest, error) {
	req := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: convertOpenAIMessages(messages, opts.System),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}

	if len(tools) > 0 {
		oaiTools, err := convertOpenAITools(tools)
		if err != nil {
			return req, err
		}
		req.Tools = oaiTools
		if !opts.AllowFreeform {
			req.ToolChoice = "required"
		}
	}

	return req, nil
}

// convertOpenAIMessages mirrors the reference convertToOpenAIMessages:
// one system message up front, one assistant message per assistant turn
// (with its tool calls attached), and one tool message per tool result
// rather than a single combined message, since OpenAI expects tool
// results addressed individually by tool_call_id.
func convertOpenAIMessages(messages []*model.Message, system string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: joinText(msg.Content),
			})

		case model.RoleUser:
			result = append(result, userMessage(msg))

		case model.RoleAssistant:
			oaiMsg := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: joinText(msg.Content),
			}
			for _, tc := range msg.ToolCall {
				oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
			result = append(result, oaiMsg)

		case model.RoleToolResult:
			for _, r := range msg.Results {
				text := r.Description
				if r.Status == model.StatusError {
					text = r.Error
				}
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    text,
					ToolCallID: r.ToolCallID,
				})
			}
		}
	}

	return result
}

func userMessage(msg *model.Message) openai.ChatCompletionMessage {
	var parts []openai.ChatMessagePart
	for _, c := range msg.Content {
		switch c.Kind {
		case model.ContentText:
			if c.Text != "" {
				parts = append(parts, openai.ChatMessagePart{Type: openai.ChatMessagePartTypeText, Text: c.Text})
			}
		case model.ContentImage:
			url := fmt.Sprintf("data:%s;base64,%s", c.MimeType, base64.StdEncoding.EncodeToString(c.ImageData))
			parts = append(parts, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: url, Detail: openai.ImageURLDetailAuto},
			})
		}
	}

	if !hasImage(msg.Content) {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: joinText(msg.Content)}
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

func hasImage(content []model.Content) bool {
	for _, c := range content {
		if c.Kind == model.ContentImage {
			return true
		}
	}
	return false
}

func joinText(content []model.Content) string {
	var text string
	for _, c := range content {
		if c.Kind == model.ContentText {
			text += c.Text
		}
	}
	return text
}

// convertOpenAITools inlines $refs and converts each tool's schema into
// OpenAI's function-parameters shape, grounded on the reference
// convertToOpenAITools.
func convertOpenAITools(tools []llm.ToolSpec) ([]openai.Tool, error) {
	result := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		inlined, err := llm.InlineRefs(t.Schema())
		if err != nil {
			return nil, fmt.Errorf("inlining refs for %s: %w", t.Name(), err)
		}
		var schemaMap map[string]any
		if err := json.Unmarshal(inlined, &schemaMap); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name(), err)
		}
		result = append(result, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  schemaMap,
			},
		})
	}
	return result, nil
}

func convertOpenAIResponse(msg openai.ChatCompletionMessage) *model.Message {
	var calls []model.ToolCall
	for _, tc := range msg.ToolCalls {
		calls = append(calls, model.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return model.NewAssistantMessage(msg.Content, calls)
}
