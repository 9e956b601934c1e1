package orchestratornode

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: turn produced an empty reply", contractx.ErrValidation)
	}

	out := GraphOutput{Reply: reply, Path: in.Path}
	if in.Decision.ToolCall != nil {
		out.Tool = in.Decision.ToolCall.Name
	}

	log.Info().
		Str("session_id", in.SessionID).
		Str("path", string(out.Path)).
		Str("tool", out.Tool).
		Str("model", in.Model).
		Msg("turn finished")
	return out, nil
}
