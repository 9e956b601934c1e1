package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

// FollowUp replays the executed call with its result and asks the model for
// the final answer without tools.
func FollowUp(ctx context.Context, in *GraphState, builder ContextBuilder, advisor contractx.Advisor) (*GraphState, error) {
	if in == nil || in.Decision.ToolCall == nil {
		return nil, fmt.Errorf("%w: no tool call to follow up", contractx.ErrValidation)
	}

	msgs, err := builder.FollowUp(ctx, in.SessionID, in.Model, *in.Decision.ToolCall, in.Serialized)
	if err != nil {
		return nil, err
	}

	reply, err := advisor.Answer(ctx, in.Model, msgs)
	if err != nil {
		return nil, err
	}
	in.Reply = reply
	return in, nil
}
