package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// SDKChatModel drives the chat completions endpoint through the official
// OpenAI SDK. Bound tools are offered with tool_choice "auto".
type SDKChatModel struct {
	client      *openaisdk.Client
	model       string
	maxTokens   *int
	temperature float32
	tools       []openaisdk.ChatCompletionToolParam
}

var _ model.ToolCallingChatModel = (*SDKChatModel)(nil)

// NewSDKChatModel disables the SDK's own retries; callers wrap the model
// with their retry policy.
func NewSDKChatModel(cfg Config) (*SDKChatModel, error) {
	client := NewClient(cfg, option.WithMaxRetries(0))
	if client == nil {
		return nil, errors.New("openrouter: api key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openrouter: model is required")
	}
	return &SDKChatModel{
		client:      client,
		model:       strings.TrimSpace(cfg.Model),
		maxTokens:   cfg.MaxCompletionToken,
		temperature: cfg.Temperature,
	}, nil
}

func (m *SDKChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	temp := m.temperature
	modelName := m.model
	options := model.GetCommonOptions(&model.Options{
		Model:       &modelName,
		Temperature: &temp,
		MaxTokens:   m.maxTokens,
	}, opts...)

	msgs, err := toSDKMessages(input)
	if err != nil {
		return nil, err
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(*options.Model),
		Messages: msgs,
	}
	if options.Temperature != nil {
		params.Temperature = openaisdk.Float(float64(*options.Temperature))
	}
	if options.MaxTokens != nil {
		params.MaxCompletionTokens = openaisdk.Int(int64(*options.MaxTokens))
	}

	tools := m.tools
	if len(options.Tools) > 0 {
		if tools, err = toSDKTools(options.Tools); err != nil {
			return nil, err
		}
	}
	if len(tools) > 0 {
		params.Tools = tools
		params.ToolChoice = openaisdk.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openaisdk.String("auto"),
		}
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openrouter: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openrouter: chat completion returned no choices")
	}

	choice := resp.Choices[0]
	out := &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: choice.FinishReason,
			Usage: &schema.TokenUsage{
				PromptTokens:     int(resp.Usage.PromptTokens),
				CompletionTokens: int(resp.Usage.CompletionTokens),
				TotalTokens:      int(resp.Usage.TotalTokens),
			},
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return out, nil
}

func (m *SDKChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("openrouter: streaming is not supported by the SDK chat model")
}

func (m *SDKChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	converted, err := toSDKTools(tools)
	if err != nil {
		return nil, err
	}
	clone := *m
	clone.tools = converted
	return &clone, nil
}

func toSDKMessages(input []*schema.Message) ([]openaisdk.ChatCompletionMessageParamUnion, error) {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openaisdk.SystemMessage(msg.Content))
		case schema.User:
			out = append(out, openaisdk.UserMessage(msg.Content))
		case schema.Tool:
			out = append(out, openaisdk.ToolMessage(msg.Content, msg.ToolCallID))
		case schema.Assistant:
			out = append(out, assistantMessage(msg))
		default:
			return nil, fmt.Errorf("openrouter: unsupported message role %q", msg.Role)
		}
	}
	return out, nil
}

func assistantMessage(msg *schema.Message) openaisdk.ChatCompletionMessageParamUnion {
	if len(msg.ToolCalls) == 0 {
		return openaisdk.AssistantMessage(msg.Content)
	}
	asst := &openaisdk.ChatCompletionAssistantMessageParam{}
	if msg.Content != "" {
		asst.Content.OfString = openaisdk.String(msg.Content)
	}
	for _, tc := range msg.ToolCalls {
		asst.ToolCalls = append(asst.ToolCalls, openaisdk.ChatCompletionMessageToolCallParam{
			ID: tc.ID,
			Function: openaisdk.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: asst}
}

func toSDKTools(infos []*schema.ToolInfo) ([]openaisdk.ChatCompletionToolParam, error) {
	out := make([]openaisdk.ChatCompletionToolParam, 0, len(infos))
	for _, info := range infos {
		if info == nil {
			continue
		}
		params, err := toolParameters(info)
		if err != nil {
			return nil, fmt.Errorf("openrouter: schema for tool %s: %w", info.Name, err)
		}
		out = append(out, openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        info.Name,
				Description: openaisdk.String(info.Desc),
				Parameters:  params,
			},
		})
	}
	return out, nil
}

func toolParameters(info *schema.ToolInfo) (shared.FunctionParameters, error) {
	if info.ParamsOneOf == nil {
		return shared.FunctionParameters{"type": "object", "properties": map[string]any{}}, nil
	}
	js, err := info.ParamsOneOf.ToJSONSchema()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(js)
	if err != nil {
		return nil, err
	}
	var params shared.FunctionParameters
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}
