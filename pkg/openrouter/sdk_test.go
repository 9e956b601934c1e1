package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

const completionBody = `{
  "id": "cmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "gpt-4",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": "",
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "rebalance_portfolio", "arguments": "{\"target_allocations\":{\"equities\":50}}"}
      }]
    }
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`

func newTestServer(t *testing.T, captured *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("X-Title"); got != "portfolio" {
			t.Errorf("X-Title = %q, want portfolio", got)
		}
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, captured); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSDKChatModelSendsToolsWithAutoChoice(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := newTestServer(t, &body)

	m, err := NewSDKChatModel(Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4", SiteName: "portfolio"})
	if err != nil {
		t.Fatalf("NewSDKChatModel() error = %v", err)
	}
	bound, err := m.WithTools([]*schema.ToolInfo{{
		Name: "rebalance_portfolio",
		Desc: "Rebalance holdings",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"target_allocations": {Type: schema.Object, Required: true},
		}),
	}})
	if err != nil {
		t.Fatalf("WithTools() error = %v", err)
	}

	out, err := bound.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		schema.UserMessage("rebalance please"),
	}, model.WithModel("gpt-4-turbo"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if body["model"] != "gpt-4-turbo" {
		t.Fatalf("model = %v, want gpt-4-turbo", body["model"])
	}
	if body["tool_choice"] != "auto" {
		t.Fatalf("tool_choice = %v, want auto", body["tool_choice"])
	}
	tools, _ := body["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("tools = %v, want one tool", body["tools"])
	}
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	if fn["name"] != "rebalance_portfolio" {
		t.Fatalf("tool name = %v", fn["name"])
	}
	params := fn["parameters"].(map[string]any)
	if params["type"] != "object" {
		t.Fatalf("parameters = %v, want object schema", params)
	}

	if len(out.ToolCalls) != 1 || out.ToolCalls[0].ID != "call_1" || out.ToolCalls[0].Function.Name != "rebalance_portfolio" {
		t.Fatalf("tool calls = %+v", out.ToolCalls)
	}
	if out.ResponseMeta == nil || out.ResponseMeta.Usage.TotalTokens != 15 {
		t.Fatalf("usage = %+v, want 15 total tokens", out.ResponseMeta)
	}
}

func TestSDKChatModelWithoutToolsOmitsToolChoice(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := newTestServer(t, &body)

	m, err := NewSDKChatModel(Config{BaseURL: srv.URL, APIKey: "k", Model: "gpt-4", SiteName: "portfolio"})
	if err != nil {
		t.Fatalf("NewSDKChatModel() error = %v", err)
	}
	_, err = m.Generate(context.Background(), []*schema.Message{
		schema.UserMessage("hello"),
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{{
				ID:       "call_0",
				Function: schema.FunctionCall{Name: "analyze_performance", Arguments: "{}"},
			}},
		},
		schema.ToolMessage(`{"summary":"ok"}`, "call_0"),
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, ok := body["tool_choice"]; ok {
		t.Fatalf("tool_choice present without tools: %v", body["tool_choice"])
	}
	msgs := body["messages"].([]any)
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	asst := msgs[1].(map[string]any)
	calls := asst["tool_calls"].([]any)
	if calls[0].(map[string]any)["id"] != "call_0" {
		t.Fatalf("assistant tool call = %v", calls[0])
	}
	tool := msgs[2].(map[string]any)
	if tool["role"] != "tool" || tool["tool_call_id"] != "call_0" {
		t.Fatalf("tool message = %v", tool)
	}
}

func TestNewSDKChatModelRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewSDKChatModel(Config{Model: "gpt-4"}); err == nil {
		t.Fatal("NewSDKChatModel() error = nil, want missing key error")
	}
}
