package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	nodex "github.com/tanpawarit/portfolio-agent/agent/nodes"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
)

const (
	nodeValidateRequest   = "validate_request"
	nodePrepareTurn       = "prepare_turn"
	nodeCheckShortcut     = "check_shortcut"
	nodeFirstCall         = "first_call"
	nodeReplyDirect       = "reply_direct"
	nodeDispatchTool      = "dispatch_tool"
	nodeClarify           = "clarify"
	nodePostprocessResult = "postprocess_result"
	nodeFollowUp          = "follow_up"
	nodePersist           = "persist"
	nodeFinalizeReply     = "finalize_reply"
)

func (o *Orchestrator) compileHandleMessageGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodeValidateRequest,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeValidateRequest, err)
	}

	nodes := []struct {
		name string
		fn   func(context.Context, *nodex.GraphState) (*nodex.GraphState, error)
	}{
		{nodePrepareTurn, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PrepareTurn(ctx, in, o.sessions.Models, o.defaultModel, o.newDispatcher)
		}},
		{nodeCheckShortcut, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.CheckShortcut(ctx, in, o.shortcuts)
		}},
		{nodeFirstCall, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FirstCall(ctx, in, o.builder, o.advisor, o.sessions.History)
		}},
		{nodeReplyDirect, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ReplyDirect(ctx, in, o.sessions.History)
		}},
		{nodeDispatchTool, nodex.DispatchTool},
		{nodeClarify, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Clarify(ctx, in, o.sessions.History)
		}},
		{nodePostprocessResult, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PostprocessResult(in)
		}},
		{nodeFollowUp, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FollowUp(ctx, in, o.builder, o.advisor)
		}},
		{nodePersist, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Persist(ctx, in, o.sessions.History, o.sessions.Tools)
		}},
	}
	for _, n := range nodes {
		if err := graph.AddLambdaNode(n.name, compose.InvokableLambda(n.fn)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", n.name, err)
		}
	}

	if err := graph.AddLambdaNode(nodeFinalizeReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeFinalizeReply, err)
	}

	branches := []struct {
		from   string
		choose func(*nodex.GraphState) string
		ends   []string
	}{
		{
			from: nodeCheckShortcut,
			choose: func(in *nodex.GraphState) string {
				if in.Path == nodex.PathShortcut {
					return nodeFinalizeReply
				}
				return nodeFirstCall
			},
			ends: []string{nodeFinalizeReply, nodeFirstCall},
		},
		{
			from: nodeFirstCall,
			choose: func(in *nodex.GraphState) string {
				if in.Decision.ToolCall == nil {
					return nodeReplyDirect
				}
				return nodeDispatchTool
			},
			ends: []string{nodeReplyDirect, nodeDispatchTool},
		},
		{
			from: nodeDispatchTool,
			choose: func(in *nodex.GraphState) string {
				if _, ok := in.Result.(toolx.MissingArgs); ok {
					return nodeClarify
				}
				return nodePostprocessResult
			},
			ends: []string{nodeClarify, nodePostprocessResult},
		},
	}
	for _, b := range branches {
		ends := make(map[string]bool, len(b.ends))
		for _, e := range b.ends {
			ends[e] = true
		}
		choose := b.choose
		branch := compose.NewGraphBranch(
			func(ctx context.Context, in *nodex.GraphState) (string, error) {
				if in == nil {
					return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
				}
				return choose(in), nil
			},
			ends,
		)
		if err := graph.AddBranch(b.from, branch); err != nil {
			return nil, fmt.Errorf("add branch from %s: %w", b.from, err)
		}
	}

	edges := [][2]string{
		{compose.START, nodeValidateRequest},
		{nodeValidateRequest, nodePrepareTurn},
		{nodePrepareTurn, nodeCheckShortcut},
		{nodeReplyDirect, nodeFinalizeReply},
		{nodeClarify, nodeFinalizeReply},
		{nodePostprocessResult, nodeFollowUp},
		{nodeFollowUp, nodePersist},
		{nodePersist, nodeFinalizeReply},
		{nodeFinalizeReply, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_message"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
