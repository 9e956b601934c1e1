package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

// Persist stores the final reply and exactly one tool-call record.
func Persist(ctx context.Context, in *GraphState, history HistoryWriter, memory ToolMemoryWriter) (*GraphState, error) {
	if in == nil || in.Decision.ToolCall == nil {
		return nil, fmt.Errorf("%w: no tool call to persist", contractx.ErrValidation)
	}

	if err := history.Append(ctx, in.SessionID, contractx.AssistantMessage(in.Reply)); err != nil {
		return nil, fmt.Errorf("append assistant message: %w", err)
	}

	call := in.Decision.ToolCall
	summary, _ := in.Output["summary"].(string)
	if summary == "" {
		summary = in.Reply
	}
	rec := contractx.ToolCallRecord{
		ToolCallID: call.ID,
		Name:       call.Name,
		Arguments:  call.Arguments,
		Content:    in.Serialized,
		Summary:    summary,
	}
	if err := memory.Append(ctx, in.SessionID, rec); err != nil {
		return nil, fmt.Errorf("append tool memory: %w", err)
	}

	in.Path = PathTool
	return in, nil
}
