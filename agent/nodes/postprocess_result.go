package orchestratornode

import (
	"encoding/json"
	"fmt"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
)

const NoTargetProvided = "No target allocation provided. Tell me your goal (e.g. “saving for a house in 3 years”) and I’ll suggest one!"

// PostprocessResult shapes an ordinary tool result for the follow-up call.
// Rebalance results gain a before/after allocation summary; performance
// results expose their summary as performance_summary.
func PostprocessResult(in *GraphState) (*GraphState, error) {
	if in == nil || in.Decision.ToolCall == nil {
		return nil, fmt.Errorf("%w: no tool call to post-process", contractx.ErrValidation)
	}
	ok, isOk := in.Result.(toolx.Ok)
	if !isOk {
		return nil, fmt.Errorf("%w: post-process needs an ordinary result, got %T", contractx.ErrValidation, in.Result)
	}

	out := map[string]any{
		"summary": ok.Summary,
		"payload": ok.Payload,
	}

	switch in.Decision.ToolCall.Name {
	case toolx.NameRebalancePortfolio:
		out["allocation_summary"] = allocationSummary(in.Tools, in.Decision.ToolCall.Arguments)
	case toolx.NameAnalyzePerformance:
		out["performance_summary"] = ok.Summary
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("%w: serialize tool result: %v", contractx.ErrValidation, err)
	}
	in.Output = out
	in.Serialized = string(raw)
	return in, nil
}

func allocationSummary(tools Dispatcher, arguments string) string {
	var args struct {
		TargetAllocations map[string]float64 `json:"target_allocations"`
	}
	if arguments != "" {
		// Unparseable targets are treated as absent.
		_ = json.Unmarshal([]byte(arguments), &args)
	}
	if len(args.TargetAllocations) == 0 {
		return NoTargetProvided
	}

	current, ok := tools.AllocationBreakdown()
	if !ok {
		return toolx.NoAllocationData
	}
	return toolx.AllocationSummary(current, toolx.NormalizeTargets(args.TargetAllocations))
}
