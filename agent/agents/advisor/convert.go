package advisor

import (
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

func toSchemaMessages(msgs []contractx.Message) ([]*schema.Message, error) {
	out := make([]*schema.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case contractx.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		case contractx.RoleUser:
			out = append(out, schema.UserMessage(m.Content))
		case contractx.RoleAssistant:
			var calls []schema.ToolCall
			if m.ToolCall != nil {
				calls = []schema.ToolCall{{
					ID:   m.ToolCall.ID,
					Type: "function",
					Function: schema.FunctionCall{
						Name:      m.ToolCall.Name,
						Arguments: m.ToolCall.Arguments,
					},
				}}
			}
			out = append(out, schema.AssistantMessage(m.Content, calls))
		case contractx.RoleTool:
			out = append(out, schema.ToolMessage(m.Content, m.ToolCallID, schema.WithToolName(m.Name)))
		default:
			return nil, fmt.Errorf("%w: unknown message role %q", contractx.ErrValidation, m.Role)
		}
	}
	return out, nil
}
