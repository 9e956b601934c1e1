package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	metricsx "github.com/tanpawarit/portfolio-agent/pkg/metrics"
	tracingx "github.com/tanpawarit/portfolio-agent/pkg/tracing"
)

const (
	modeDecide = "decide"
	modeAnswer = "answer"
)

// Advisor sends conversation context to the chat model. Decide offers every
// tool it was built with; Answer asks for a final reply without tools.
type Advisor struct {
	chat  einomodel.ToolCallingChatModel
	tools einomodel.ToolCallingChatModel
}

var _ contractx.Advisor = (*Advisor)(nil)

func New(chat einomodel.ToolCallingChatModel, tools []*schema.ToolInfo) (*Advisor, error) {
	if chat == nil {
		return nil, errors.New("chat model is required")
	}
	bound, err := chat.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}
	return &Advisor{chat: chat, tools: bound}, nil
}

func (a *Advisor) Decide(ctx context.Context, model string, msgs []contractx.Message) (contractx.Decision, error) {
	msg, err := a.generate(ctx, a.tools, modeDecide, model, msgs)
	if err != nil {
		return contractx.Decision{}, err
	}

	if len(msg.ToolCalls) == 0 {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			return contractx.Decision{}, fmt.Errorf("%w: response has neither text nor tool call", contractx.ErrSchemaViolation)
		}
		return contractx.Decision{Text: text}, nil
	}

	first := msg.ToolCalls[0]
	name := strings.TrimSpace(first.Function.Name)
	if name == "" {
		return contractx.Decision{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
	}
	id := strings.TrimSpace(first.ID)
	if id == "" {
		id = "call_" + uuid.NewString()
	}

	return contractx.Decision{
		Text: strings.TrimSpace(msg.Content),
		ToolCall: &contractx.ToolCall{
			ID:        id,
			Name:      name,
			Arguments: first.Function.Arguments,
		},
		Ignored: len(msg.ToolCalls) - 1,
	}, nil
}

func (a *Advisor) Answer(ctx context.Context, model string, msgs []contractx.Message) (string, error) {
	msg, err := a.generate(ctx, a.chat, modeAnswer, model, msgs)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", fmt.Errorf("%w: final answer is empty", contractx.ErrSchemaViolation)
	}
	return text, nil
}

func (a *Advisor) generate(
	ctx context.Context,
	chat einomodel.ToolCallingChatModel,
	mode string,
	model string,
	msgs []contractx.Message,
) (*schema.Message, error) {
	input, err := toSchemaMessages(msgs)
	if err != nil {
		return nil, err
	}

	ctx, span := tracingx.StartLLMSpan(ctx, mode, model)
	defer span.End()

	var opts []einomodel.Option
	if model = strings.TrimSpace(model); model != "" {
		opts = append(opts, einomodel.WithModel(model))
	}

	msg, err := chat.Generate(ctx, input, opts...)
	if err != nil {
		metricsx.LLMCallTotal.WithLabelValues(mode, "error").Inc()
		tracingx.RecordError(span, err)
		return nil, fmt.Errorf("%w: %s call: %v", contractx.ErrModelInvoke, mode, err)
	}
	if msg == nil {
		metricsx.LLMCallTotal.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("%w: empty %s response", contractx.ErrSchemaViolation, mode)
	}
	metricsx.LLMCallTotal.WithLabelValues(mode, "ok").Inc()
	recordUsage(msg)

	log.Debug().Str("mode", mode).Str("model", model).Int("tool_calls", len(msg.ToolCalls)).Msg("model call finished")
	return msg, nil
}

func recordUsage(msg *schema.Message) {
	if msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	usage := msg.ResponseMeta.Usage
	metricsx.LLMTokensTotal.WithLabelValues("input").Add(float64(usage.PromptTokens))
	metricsx.LLMTokensTotal.WithLabelValues("output").Add(float64(usage.CompletionTokens))
}
