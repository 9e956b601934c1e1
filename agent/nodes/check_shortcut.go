package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

func CheckShortcut(ctx context.Context, in *GraphState, shortcuts Shortcuts) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply, ok, err := shortcuts.Handle(ctx, in.SessionID, in.Text, in.Tools)
	if err != nil {
		return nil, fmt.Errorf("shortcut: %w", err)
	}
	if ok {
		in.Reply = reply
		in.Path = PathShortcut
	}
	return in, nil
}
