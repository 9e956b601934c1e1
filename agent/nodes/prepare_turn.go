package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

// PrepareTurn resolves the session's model and binds a dispatcher over a
// freshly loaded portfolio snapshot.
func PrepareTurn(
	ctx context.Context,
	in *GraphState,
	models ModelReader,
	defaultModel string,
	newDispatcher DispatcherFactory,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Model = defaultModel
	selected, ok, err := models.Last(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("read model selection: %w", err)
	}
	if ok && strings.TrimSpace(selected) != "" {
		in.Model = selected
	}

	tools, err := newDispatcher(ctx)
	if err != nil {
		return nil, fmt.Errorf("load domain context: %w", err)
	}
	in.Tools = tools
	return in, nil
}
