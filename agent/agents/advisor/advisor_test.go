package advisor

import (
	"context"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

type fakeToolCallingModel struct {
	response *schema.Message
	err      error

	bound     []*schema.ToolInfo
	lastInput []*schema.Message
	lastModel string
	calls     int
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.calls++
	f.lastInput = input
	if m := einomodel.GetCommonOptions(&einomodel.Options{}, opts...).Model; m != nil {
		f.lastModel = *m
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.bound = tools
	return f, nil
}

func newTestAdvisor(t *testing.T, fake *fakeToolCallingModel) *Advisor {
	t.Helper()
	a, err := New(fake, []*schema.ToolInfo{{Name: "rebalance_portfolio"}, {Name: "analyze_performance"}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return a
}

func TestDecideReturnsFirstToolCall(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{response: schema.AssistantMessage("", []schema.ToolCall{
		{ID: "c1", Function: schema.FunctionCall{Name: "rebalance_portfolio", Arguments: `{"target_allocations":{"equities":60}}`}},
		{ID: "c2", Function: schema.FunctionCall{Name: "analyze_performance", Arguments: `{}`}},
	})}
	a := newTestAdvisor(t, fake)

	if len(fake.bound) != 2 {
		t.Fatalf("bound tools = %d, want 2", len(fake.bound))
	}

	dec, err := a.Decide(context.Background(), "gpt-4-turbo", []contractx.Message{
		contractx.SystemMessage("sys"),
		contractx.UserMessage("rebalance"),
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if dec.ToolCall == nil || dec.ToolCall.ID != "c1" || dec.ToolCall.Name != "rebalance_portfolio" {
		t.Fatalf("tool call = %+v, want c1 rebalance_portfolio", dec.ToolCall)
	}
	if dec.Ignored != 1 {
		t.Fatalf("ignored = %d, want 1", dec.Ignored)
	}
	if fake.lastModel != "gpt-4-turbo" {
		t.Fatalf("model option = %q, want gpt-4-turbo", fake.lastModel)
	}
}

func TestDecideAssignsMissingCallID(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{response: schema.AssistantMessage("", []schema.ToolCall{
		{Function: schema.FunctionCall{Name: "analyze_performance"}},
	})}
	dec, err := newTestAdvisor(t, fake).Decide(context.Background(), "", nil)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if dec.ToolCall == nil || len(dec.ToolCall.ID) <= len("call_") {
		t.Fatalf("tool call id = %+v, want generated id", dec.ToolCall)
	}
	if fake.lastModel != "" {
		t.Fatalf("model option = %q, want none", fake.lastModel)
	}
}

func TestDecidePlainText(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{response: schema.AssistantMessage("  Hello there  ", nil)}
	dec, err := newTestAdvisor(t, fake).Decide(context.Background(), "gpt-4", nil)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if dec.ToolCall != nil || dec.Text != "Hello there" {
		t.Fatalf("decision = %+v, want plain text", dec)
	}
}

func TestDecideRejectsEmptyResponse(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{response: schema.AssistantMessage(" ", nil)}
	_, err := newTestAdvisor(t, fake).Decide(context.Background(), "gpt-4", nil)
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("Decide() error = %v, want ErrSchemaViolation", err)
	}
}

func TestDecideWrapsModelError(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("rate limited")}
	_, err := newTestAdvisor(t, fake).Decide(context.Background(), "gpt-4", nil)
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Decide() error = %v, want ErrModelInvoke", err)
	}
}

func TestAnswerConvertsToolPair(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{response: schema.AssistantMessage("Here is your plan.", nil)}
	a := newTestAdvisor(t, fake)

	msgs := append([]contractx.Message{contractx.UserMessage("rebalance")},
		contractx.ToolCallPair(contractx.ToolCall{ID: "c1", Name: "rebalance_portfolio", Arguments: "{}"}, `{"summary":"s"}`)...)
	reply, err := a.Answer(context.Background(), "gpt-4", msgs)
	if err != nil {
		t.Fatalf("Answer() error = %v", err)
	}
	if reply != "Here is your plan." {
		t.Fatalf("reply = %q", reply)
	}

	if len(fake.lastInput) != 3 {
		t.Fatalf("input = %d messages, want 3", len(fake.lastInput))
	}
	asst := fake.lastInput[1]
	if asst.Role != schema.Assistant || len(asst.ToolCalls) != 1 || asst.ToolCalls[0].ID != "c1" {
		t.Fatalf("assistant message = %+v", asst)
	}
	tool := fake.lastInput[2]
	if tool.Role != schema.Tool || tool.ToolCallID != "c1" || tool.Content != `{"summary":"s"}` {
		t.Fatalf("tool message = %+v", tool)
	}
}

func TestAnswerRejectsUnknownRole(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{response: schema.AssistantMessage("x", nil)}
	_, err := newTestAdvisor(t, fake).Answer(context.Background(), "gpt-4", []contractx.Message{{Role: "narrator"}})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Answer() error = %v, want ErrValidation", err)
	}
	if fake.calls != 0 {
		t.Fatalf("model calls = %d, want 0", fake.calls)
	}
}
