package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"

	"github.com/steve-z-wang/webtask/internal/llm"
	"github.com/steve-z-wang/webtask/internal/model"
)

// BedrockConfig configures a BedrockAdapter.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Model           string
	MaxRetries      int
	RetryDelay      int // seconds
}

// BedrockAdapter implements llm.Adapter over bedrockruntime's blocking
// Converse call — the step loop has no use for ConverseStream's
// incremental deltas, so it skips straight to the synchronous API.
type BedrockAdapter struct {
	client  *bedrockruntime.Client
	model   string
	retrier llm.Retrier
	usage   llm.UsageFunc
}

const defaultBedrockModel = "anthropic.claude-3-sonnet-20240229-v1:0"

// NewBedrockAdapter builds a BedrockAdapter.
func NewBedrockAdapter(ctx context.Context, cfg BedrockConfig, usage llm.UsageFunc) (*BedrockAdapter, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(region))
	}
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultBedrockModel
	}

	return &BedrockAdapter{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		model:   model,
		retrier: llm.NewRetrier(cfg.MaxRetries, time.Duration(cfg.RetryDelay)*time.Second),
		usage:   usage,
	}, nil
}

// CallTools implements llm.Adapter.
func (a *BedrockAdapter) CallTools(ctx context.Context, messages []*model.Message, tools []llm.ToolSpec, opts llm.CallOptions) (*model.Message, error) {
	bedrockMessages, err := convertBedrockMessages(messages)
	if err != nil {
		return nil, err
	}

	req := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(a.model),
		Messages: bedrockMessages,
	}
	if opts.System != "" {
		req.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: opts.System}}
	}
	if opts.MaxTokens > 0 {
		req.InferenceConfig = &types.InferenceConfiguration{MaxTokens: aws.Int32(int32(opts.MaxTokens))}
	}
	if len(tools) > 0 {
		toolConfig, err := convertBedrockTools(tools)
		if err != nil {
			return nil, err
		}
		if !opts.AllowFreeform {
			toolConfig.ToolChoice = &types.ToolChoiceMemberAny{Value: types.AnyToolChoice{}}
		}
		req.ToolConfig = toolConfig
	}

	var resp *bedrockruntime.ConverseOutput
	err = a.retrier.Do(ctx, func() error {
		r, callErr := a.client.Converse(ctx, req)
		if callErr != nil {
			provErr := llm.NewProviderError("bedrock", a.model, callErr)
			if status, ok := bedrockErrorStatus(callErr); ok {
				provErr = provErr.WithStatus(status)
			}
			return provErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if a.usage != nil && resp.Usage != nil {
		a.usage(llm.TokenUsage{
			InputTokens:  int(aws.ToInt32(resp.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(resp.Usage.OutputTokens)),
		})
	}

	output, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, fmt.Errorf("bedrock: unexpected response output")
	}
	return convertBedrockResponse(output.Value), nil
}

// convertBedrockMessages mirrors the reference convertMessages: system
// messages are dropped (handled via req.System), tool results become
// ToolResult content blocks keyed by tool_use_id, and tool calls from
// assistant messages become ToolUse content blocks carrying a
// document.LazyDocument of the decoded arguments.
func convertBedrockMessages(messages []*model.Message) ([]types.Message, error) {
	result := make([]types.Message, 0, len(messages))

	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			continue
		}

		var content []types.ContentBlock
		for _, c := range msg.Content {
			switch c.Kind {
			case model.ContentText:
				if c.Text != "" {
					content = append(content, &types.ContentBlockMemberText{Value: c.Text})
				}
			case model.ContentImage:
				format, ok := bedrockImageFormat(c.MimeType)
				if !ok {
					continue
				}
				content = append(content, &types.ContentBlockMemberImage{
					Value: types.ImageBlock{
						Format: format,
						Source: &types.ImageSourceMemberBytes{Value: c.ImageData},
					},
				})
			}
		}

		for _, tc := range msg.ToolCall {
			var input any
			if err := json.Unmarshal(tc.Arguments, &input); err != nil {
				return nil, fmt.Errorf("invalid tool call arguments for %s: %w", tc.Name, err)
			}
			content = append(content, &types.ContentBlockMemberToolUse{
				Value: types.ToolUseBlock{
					ToolUseId: aws.String(tc.ID),
					Name:      aws.String(tc.Name),
					Input:     document.NewLazyDocument(input),
				},
			})
		}

		if msg.Role == model.RoleToolResult {
			for _, r := range msg.Results {
				text := r.Description
				if r.Status == model.StatusError {
					text = r.Error
				}
				content = append(content, &types.ContentBlockMemberToolResult{
					Value: types.ToolResultBlock{
						ToolUseId: aws.String(r.ToolCallID),
						Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: text}},
						Status:    bedrockResultStatus(r.Status),
					},
				})
			}
		}

		if len(content) == 0 {
			continue
		}

		role := types.ConversationRoleUser
		if msg.Role == model.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		result = append(result, types.Message{Role: role, Content: content})
	}

	return result, nil
}

// bedrockErrorStatus maps a Bedrock API error's smithy error code to the
// HTTP-style status llm.ProviderError.WithStatus expects, since the
// bedrockruntime SDK surfaces named exceptions (ThrottlingException,
// AccessDeniedException, ...) rather than a raw HTTP status code.
func bedrockErrorStatus(err error) (int, bool) {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}
	switch apiErr.ErrorCode() {
	case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
		return 429, true
	case "AccessDeniedException", "UnrecognizedClientException":
		return 403, true
	case "ValidationException":
		return 400, true
	case "InternalServerException", "ModelTimeoutException", "ServiceUnavailableException":
		return 503, true
	default:
		return 0, false
	}
}

func bedrockResultStatus(status model.ToolCallStatus) types.ToolResultStatus {
	if status == model.StatusError {
		return types.ToolResultStatusError
	}
	return types.ToolResultStatusSuccess
}

func bedrockImageFormat(mimeType string) (types.ImageFormat, bool) {
	switch mimeType {
	case "image/png":
		return types.ImageFormatPng, true
	case "image/jpeg", "image/jpg":
		return types.ImageFormatJpeg, true
	case "image/gif":
		return types.ImageFormatGif, true
	case "image/webp":
		return types.ImageFormatWebp, true
	default:
		return "", false
	}
}

// convertBedrockTools inlines $refs, then converts to Bedrock's
// document-backed tool spec, grounded on the reference ToBedrockTools.
func convertBedrockTools(tools []llm.ToolSpec) (*types.ToolConfiguration, error) {
	bedrockTools := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		inlined, err := llm.InlineRefs(t.Schema())
		if err != nil {
			return nil, fmt.Errorf("inlining refs for %s: %w", t.Name(), err)
		}
		var schema any
		if err := json.Unmarshal(inlined, &schema); err != nil {
			return nil, fmt.Errorf("invalid tool schema for %s: %w", t.Name(), err)
		}
		bedrockTools = append(bedrockTools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name()),
				Description: aws.String(t.Description()),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: bedrockTools}, nil
}

func convertBedrockResponse(msg types.Message) *model.Message {
	var text string
	var calls []model.ToolCall

	for _, block := range msg.Content {
		switch v := block.(type) {
		case *types.ContentBlockMemberText:
			text += v.Value
		case *types.ContentBlockMemberToolUse:
			args, err := marshalBedrockDocument(v.Value.Input)
			if err != nil {
				args = []byte("{}")
			}
			calls = append(calls, model.ToolCall{
				ID:        aws.ToString(v.Value.ToolUseId),
				Name:      aws.ToString(v.Value.Name),
				Arguments: args,
			})
		}
	}

	return model.NewAssistantMessage(text, calls)
}

func marshalBedrockDocument(doc document.Interface) (json.RawMessage, error) {
	if doc == nil {
		return json.RawMessage("{}"), nil
	}
	var v any
	if err := doc.UnmarshalSmithyDocument(&v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
