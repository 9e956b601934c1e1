package orchestratornode

import (
	"context"
	"fmt"
	"slices"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
)

const (
	ClarifyTargetAllocation = "Sure — I can rebalance your portfolio once I know your target allocation. You can either:\n" +
		"• Tell me your percentages (e.g. “Equities 60 %, Bonds 30 %, Cash 10 %”), or\n" +
		"• Describe your goal (e.g. “saving for a house in 3 years” or “retire in 20 years”).\n" +
		"Let me know which works best!"
	ClarifyGeneric = "I’m missing some details to complete that action—could you provide them?"
)

// DispatchTool runs the decided tool call. An unknown tool name is returned
// as an error.
func DispatchTool(ctx context.Context, in *GraphState) (*GraphState, error) {
	if in == nil || in.Decision.ToolCall == nil {
		return nil, fmt.Errorf("%w: no tool call to dispatch", contractx.ErrValidation)
	}

	call := in.Decision.ToolCall
	res, err := in.Tools.Dispatch(ctx, call.Name, call.Arguments)
	if err != nil {
		return nil, err
	}
	in.Result = res
	return in, nil
}

// Clarify answers a call with missing arguments. Nothing is written to tool
// memory and the model is not called again.
func Clarify(ctx context.Context, in *GraphState, history HistoryWriter) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	missing, ok := in.Result.(toolx.MissingArgs)
	if !ok {
		return nil, fmt.Errorf("%w: clarify needs a missing-arguments result, got %T", contractx.ErrValidation, in.Result)
	}

	in.Reply = clarification(missing.Missing)
	if err := history.Append(ctx, in.SessionID, contractx.AssistantMessage(in.Reply)); err != nil {
		return nil, fmt.Errorf("append clarification: %w", err)
	}
	in.Path = PathClarification
	return in, nil
}

func clarification(missing []string) string {
	if slices.Contains(missing, "target_allocations") {
		return ClarifyTargetAllocation
	}
	return ClarifyGeneric
}
