package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/model"
)

// GeminiConfig configures a GeminiAdapter.
type GeminiConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	RetryDelay int // seconds
}

// GeminiAdapter implements llm.Adapter over genai's blocking
// Models.GenerateContent call.
type GeminiAdapter struct {
	client  *genai.Client
	model   string
	retrier llm.Retrier
	usage   llm.UsageFunc
}

const defaultGeminiModel = "gemini-2.0-flash"

// NewGeminiAdapter builds a GeminiAdapter.
func NewGeminiAdapter(ctx context.Context, cfg GeminiConfig, usage llm.UsageFunc) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiAdapter{
		client:  client,
		model:   model,
		retrier: llm.NewRetrier(cfg.MaxRetries, time.Duration(cfg.RetryDelay)*time.Second),
		usage:   usage,
	}, nil
}

// CallTools implements llm.Adapter.
func (a *GeminiAdapter) CallTools(ctx context.Context, messages []*model.Message, tools []llm.ToolSpec, opts llm.CallOptions) (*model.Message, error) {
	contents, err := convertGeminiMessages(messages)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{}
	if opts.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: opts.System}}}
	}
	if opts.MaxTokens > 0 {
		config.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if len(tools) > 0 {
		geminiTools, err := convertGeminiTools(tools)
		if err != nil {
			return nil, err
		}
		config.Tools = geminiTools
		if !opts.AllowFreeform {
			config.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeAny},
			}
		}
	}

	var resp *genai.GenerateContentResponse
	err = a.retrier.Do(ctx, func() error {
		r, callErr := a.client.Models.GenerateContent(ctx, a.model, contents, config)
		if callErr != nil {
			return llm.NewProviderError("gemini", a.model, callErr)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.usage != nil && resp.UsageMetadata != nil {
		a.usage(llm.TokenUsage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		})
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini: empty candidates in response")
	}
	return convertGeminiResponse(resp.Candidates[0].Content), nil
}

// convertGeminiMessages mirrors the reference convertMessages: system
// messages are dropped (handled via SystemInstruction instead), tool
// results are folded into FunctionResponse parts on a user-role Content,
// and tool calls from assistant messages become FunctionCall parts.
func convertGeminiMessages(messages []*model.Message) ([]*genai.Content, error) {
	var result []*genai.Content

	toolNames := map[string]string{} // tool_call_id -> tool name
	for _, msg := range messages {
		for _, tc := range msg.ToolCall {
			toolNames[tc.ID] = tc.Name
		}
	}

	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}

		content := &genai.Content{}
		switch msg.Role {
		case model.RoleAssistant:
			content.Role = genai.RoleModel
		default:
			content.Role = genai.RoleUser
		}

		for _, c := range msg.Content {
			switch c.Kind {
			case model.ContentText:
				if c.Text != "" {
					content.Parts = append(content.Parts, &genai.Part{Text: c.Text})
				}
			case model.ContentImage:
				content.Parts = append(content.Parts, &genai.Part{
					InlineData: &genai.Blob{Data: c.ImageData, MIMEType: c.MimeType},
				})
			}
		}

		for _, tc := range msg.ToolCall {
			var args map[string]any
			if err := json.Unmarshal(tc.Arguments, &args); err != nil {
				return nil, fmt.Errorf("invalid tool call arguments for %s: %w", tc.Name, err)
			}
			content.Parts = append(content.Parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
			})
		}

		if msg.Role == model.RoleToolResult {
			for _, r := range msg.Results {
				response := map[string]any{"result": r.Description}
				if r.Status == model.StatusError {
					response = map[string]any{"error": r.Error}
				}
				content.Parts = append(content.Parts, &genai.Part{
					FunctionResponse: &genai.FunctionResponse{
						Name:     toolNames[r.ToolCallID],
						Response: response,
					},
				})
			}
		}

		if len(content.Parts) > 0 {
			result = append(result, content)
		}
	}

	return result, nil
}

// convertGeminiTools inlines $refs, then hand-converts the JSON Schema
// map into *genai.Schema the same way the reference ToGeminiSchema does
// — Gemini has no native JSON Schema ingestion, so every field is copied
// across by hand, uppercasing "type" to Gemini's enum spelling.
func convertGeminiTools(tools []llm.ToolSpec) ([]*genai.Tool, error) {
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		inlined, err := llm.InlineRefs(t.Schema())
		if err != nil {
			return nil, fmt.Errorf("inlining refs for %s: %w", t.Name(), err)
		}
		var schemaMap map[string]any
		if err := json.Unmarshal(inlined, &schemaMap); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name(), err)
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  toGeminiSchema(schemaMap),
		})
	}
	if len(declarations) == 0 {
		return nil, nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}, nil
}

func toGeminiSchema(schemaMap map[string]any) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	schema := &genai.Schema{}

	if t, ok := schemaMap["type"].(string); ok {
		schema.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}
	if enum, ok := schemaMap["enum"].([]any); ok {
		for _, e := range enum {
			if s, ok := e.(string); ok {
				schema.Enum = append(schema.Enum, s)
			}
		}
	}
	if props, ok := schemaMap["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema, len(props))
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				schema.Properties[name] = toGeminiSchema(propMap)
			}
		}
	}
	if required, ok := schemaMap["required"].([]any); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if items, ok := schemaMap["items"].(map[string]any); ok {
		schema.Items = toGeminiSchema(items)
	}

	return schema
}

func convertGeminiResponse(content *genai.Content) *model.Message {
	var text string
	var calls []model.ToolCall

	for _, part := range content.Parts {
		if part.Text != "" {
			text += part.Text
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				args = []byte("{}")
			}
			calls = append(calls, model.ToolCall{
				ID:        generateGeminiCallID(part.FunctionCall.Name, len(calls)),
				Name:      part.FunctionCall.Name,
				Arguments: args,
			})
		}
	}

	return model.NewAssistantMessage(text, calls)
}

// generateGeminiCallID synthesizes a tool-call id, since Gemini's
// FunctionCall carries no id of its own (grounded on the reference's
// generateToolCallID / getToolNameFromID round-trip).
func generateGeminiCallID(name string, ordinal int) string {
	return fmt.Sprintf("%s-%d", name, ordinal)
}
