package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	metricsx "github.com/tanpawarit/portfolio-agent/pkg/metrics"
)

// FirstCall asks the model with every tool on offer. The user's message is
// persisted once the call returns.
func FirstCall(
	ctx context.Context,
	in *GraphState,
	builder ContextBuilder,
	advisor contractx.Advisor,
	history HistoryWriter,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	msgs, err := builder.Build(ctx, in.SessionID, in.Model, in.Text)
	if err != nil {
		return nil, err
	}

	decision, err := advisor.Decide(ctx, in.Model, msgs)
	if err != nil {
		return nil, err
	}

	if err := history.Append(ctx, in.SessionID, contractx.UserMessage(in.Text)); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	if decision.Ignored > 0 {
		metricsx.IgnoredToolCallsTotal.Add(float64(decision.Ignored))
		log.Warn().
			Str("session_id", in.SessionID).
			Str("tool", decision.ToolCall.Name).
			Int("ignored", decision.Ignored).
			Msg("model requested several tools; only the first runs")
	}

	in.Decision = decision
	return in, nil
}

func ReplyDirect(ctx context.Context, in *GraphState, history HistoryWriter) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Reply = in.Decision.Text
	if err := history.Append(ctx, in.SessionID, contractx.AssistantMessage(in.Reply)); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}
	in.Path = PathDirect
	return in, nil
}
