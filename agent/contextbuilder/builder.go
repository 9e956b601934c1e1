package contextbuilder

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

const DefaultTokenBudget = 3000

type HistoryReader interface {
	All(ctx context.Context, sessionID string) ([]contractx.Message, error)
}

type ToolMemoryReader interface {
	Last(ctx context.Context, sessionID string) (contractx.ToolCallRecord, bool, error)
}

type TokenCounter interface {
	CountMessage(model string, msg contractx.Message) int
}

// Builder assembles the message sequence for a model call.
type Builder struct {
	history      HistoryReader
	memory       ToolMemoryReader
	counter      TokenCounter
	systemPrompt string
	budget       int
}

func New(
	history HistoryReader,
	memory ToolMemoryReader,
	counter TokenCounter,
	systemPrompt string,
	budget int,
) (*Builder, error) {
	if history == nil {
		return nil, errors.New("message history is required")
	}
	if memory == nil {
		return nil, errors.New("tool memory is required")
	}
	if counter == nil {
		return nil, errors.New("token counter is required")
	}
	if systemPrompt == "" {
		return nil, fmt.Errorf("%w: system prompt", contractx.ErrPromptMissing)
	}
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &Builder{
		history:      history,
		memory:       memory,
		counter:      counter,
		systemPrompt: systemPrompt,
		budget:       budget,
	}, nil
}

// Build returns system prompt, persisted history, the new user message and a
// replay of the session's last tool call, trimmed to the token budget.
// An empty userText adds no user message.
func (b *Builder) Build(ctx context.Context, sessionID, model, userText string) ([]contractx.Message, error) {
	history, err := b.history.All(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read message history: %w", err)
	}

	msgs := make([]contractx.Message, 0, len(history)+4)
	msgs = append(msgs, contractx.SystemMessage(b.systemPrompt))
	msgs = append(msgs, history...)
	if userText != "" {
		msgs = append(msgs, contractx.UserMessage(userText))
	}

	last, ok, err := b.memory.Last(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("read tool memory: %w", err)
	}
	if ok {
		msgs = append(msgs, contractx.ToolCallPair(last.Call(), last.Content)...)
	}

	return b.Trim(model, msgs), nil
}

// FollowUp rebuilds the context without a new user message and appends the
// call that was just executed with its serialized result.
func (b *Builder) FollowUp(ctx context.Context, sessionID, model string, call contractx.ToolCall, result string) ([]contractx.Message, error) {
	msgs, err := b.Build(ctx, sessionID, model, "")
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, contractx.ToolCallPair(call, result)...)
	return b.Trim(model, msgs), nil
}

func (b *Builder) Trim(model string, msgs []contractx.Message) []contractx.Message {
	kept := TrimToBudget(msgs, b.budget, func(m contractx.Message) int {
		return b.counter.CountMessage(model, m)
	})
	if len(kept) < len(msgs) {
		log.Debug().
			Int("before", len(msgs)).
			Int("after", len(kept)).
			Int("budget", b.budget).
			Msg("trimmed chat history to token budget")
	}
	return kept
}

// TrimToBudget keeps the longest suffix of msgs whose total cost fits in
// budget. The newest message is always kept, even when it alone is over.
// A leading tool message whose invocation fell outside the suffix is dropped
// as well, unless it is the newest message.
func TrimToBudget(msgs []contractx.Message, budget int, cost func(contractx.Message) int) []contractx.Message {
	if len(msgs) == 0 {
		return msgs
	}

	start := len(msgs)
	total := 0
	for i := len(msgs) - 1; i >= 0; i-- {
		c := cost(msgs[i])
		if start < len(msgs) && total+c > budget {
			break
		}
		total += c
		start = i
		if total > budget {
			break
		}
	}

	if start < len(msgs)-1 && msgs[start].Role == contractx.RoleTool {
		start++
	}
	return msgs[start:]
}
