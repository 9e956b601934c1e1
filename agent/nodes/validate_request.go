package orchestratornode

import (
	"errors"
	"strings"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// Path names the way a turn was answered.
type Path string

const (
	PathShortcut      Path = "shortcut"
	PathDirect        Path = "direct"
	PathClarification Path = "clarification"
	PathTool          Path = "tool"
)

type GraphInput struct {
	SessionID string
	Text      string
}

type GraphOutput struct {
	Reply string
	Path  Path
	Tool  string
}

type GraphState struct {
	SessionID string
	Text      string

	Model string
	Tools Dispatcher

	Decision contractx.Decision
	Result   toolx.Result
	// Output is the post-processed tool result sent back to the model.
	Output     map[string]any
	Serialized string

	Reply string
	Path  Path
}

func ValidateRequest(in GraphInput) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		Text:      text,
	}, nil
}
