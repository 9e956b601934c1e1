package orchestratornode

import (
	"context"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
)

// Dispatcher runs tools against one turn's portfolio snapshot.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, arguments string) (toolx.Result, error)
	Run(ctx context.Context, name string, explicit map[string]any) (toolx.Result, error)
	AllocationBreakdown() (map[string]float64, bool)
}

// DispatcherFactory loads a fresh snapshot for each turn.
type DispatcherFactory func(ctx context.Context) (Dispatcher, error)

type ModelReader interface {
	Last(ctx context.Context, sessionID string) (string, bool, error)
}

type Shortcuts interface {
	Handle(ctx context.Context, sessionID, text string, runner toolx.Runner) (string, bool, error)
}

type ContextBuilder interface {
	Build(ctx context.Context, sessionID, model, userText string) ([]contractx.Message, error)
	FollowUp(ctx context.Context, sessionID, model string, call contractx.ToolCall, result string) ([]contractx.Message, error)
}

type HistoryWriter interface {
	Append(ctx context.Context, sessionID string, msg contractx.Message) error
}

type ToolMemoryWriter interface {
	Append(ctx context.Context, sessionID string, rec contractx.ToolCallRecord) error
}
