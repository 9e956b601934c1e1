package contract

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is the assistant's request to invoke one tool. Arguments stay
// serialized exactly as the model produced them.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one role-tagged conversational turn as persisted in session
// history and sent to the model.
type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	ToolCall   *ToolCall `json:"tool_call,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	Name       string    `json:"name,omitempty"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolCallPair replays one executed call as the assistant invocation followed
// by the tool output carrying the same call id.
func ToolCallPair(call ToolCall, content string) []Message {
	c := call
	return []Message{
		{Role: RoleAssistant, ToolCall: &c},
		{Role: RoleTool, ToolCallID: call.ID, Name: call.Name, Content: content},
	}
}

// ToolCallRecord is the immutable trace of one dispatched tool call.
type ToolCallRecord struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Arguments  string `json:"arguments"`
	Content    string `json:"content"`
	Summary    string `json:"summary,omitempty"`
}

// Call rebuilds the invocation that produced the record.
func (r ToolCallRecord) Call() ToolCall {
	return ToolCall{ID: r.ToolCallID, Name: r.Name, Arguments: r.Arguments}
}

// Recall is the text used when the record is read back to the user.
func (r ToolCallRecord) Recall() string {
	if r.Summary != "" {
		return r.Summary
	}
	return r.Content
}

// Decision is the model's answer to a tool-enabled request: either plain text
// or the first requested tool call.
type Decision struct {
	Text     string
	ToolCall *ToolCall
	// Ignored counts additional tool calls in the same response.
	Ignored int
}
