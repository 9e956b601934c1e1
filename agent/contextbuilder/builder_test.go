package contextbuilder

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	statex "github.com/tanpawarit/portfolio-agent/agent/state"
)

// lenCounter charges one token per byte of content plus one per message.
type lenCounter struct{}

func (lenCounter) CountMessage(_ string, msg contractx.Message) int {
	return len(msg.Content) + 1
}

func newTestBuilder(t *testing.T, budget int) (*Builder, *statex.Sessions) {
	t.Helper()
	sessions := statex.NewSessions(statex.NewMemoryStore(nil))
	b, err := New(sessions.History, sessions.Tools, lenCounter{}, "system prompt", budget)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return b, sessions
}

func roles(msgs []contractx.Message) string {
	out := ""
	for _, m := range msgs {
		out += string(m.Role)[:1]
	}
	return out
}

func TestBuildOrder(t *testing.T) {
	t.Parallel()

	b, sessions := newTestBuilder(t, 1000)
	ctx := context.Background()
	_ = sessions.History.Append(ctx, "s1", contractx.UserMessage("earlier"))
	_ = sessions.History.Append(ctx, "s1", contractx.AssistantMessage("reply"))

	msgs, err := b.Build(ctx, "s1", "gpt-4", "new question")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := roles(msgs); got != "suau" {
		t.Fatalf("roles = %q, want suau", got)
	}
	if msgs[0].Content != "system prompt" || msgs[3].Content != "new question" {
		t.Fatalf("Build() = %+v", msgs)
	}
}

func TestBuildReplaysLastToolCall(t *testing.T) {
	t.Parallel()

	b, sessions := newTestBuilder(t, 1000)
	ctx := context.Background()
	_ = sessions.Tools.Append(ctx, "s1", contractx.ToolCallRecord{ToolCallID: "old", Name: "analyze_performance", Content: "{}"})
	_ = sessions.Tools.Append(ctx, "s1", contractx.ToolCallRecord{
		ToolCallID: "call_9", Name: "find_fee_optimizations", Arguments: "{}", Content: `{"summary":"x"}`,
	})

	msgs, err := b.Build(ctx, "s1", "gpt-4", "and now?")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := roles(msgs); got != "suat" {
		t.Fatalf("roles = %q, want suat", got)
	}
	call := msgs[2].ToolCall
	if call == nil || call.ID != "call_9" || call.Name != "find_fee_optimizations" {
		t.Fatalf("assistant tool call = %+v, want call_9", call)
	}
	if msgs[3].ToolCallID != "call_9" || msgs[3].Content != `{"summary":"x"}` {
		t.Fatalf("tool message = %+v", msgs[3])
	}
}

func TestFollowUpAppendsCurrentCall(t *testing.T) {
	t.Parallel()

	b, sessions := newTestBuilder(t, 1000)
	ctx := context.Background()
	_ = sessions.History.Append(ctx, "s1", contractx.UserMessage("rebalance me"))

	call := contractx.ToolCall{ID: "call_1", Name: "rebalance_portfolio", Arguments: `{"target_allocations":{}}`}
	msgs, err := b.FollowUp(ctx, "s1", "gpt-4", call, `{"summary":"done"}`)
	if err != nil {
		t.Fatalf("FollowUp() error = %v", err)
	}
	if got := roles(msgs); got != "suat" {
		t.Fatalf("roles = %q, want suat", got)
	}
	if msgs[3].ToolCallID != "call_1" || msgs[2].ToolCall.ID != "call_1" {
		t.Fatalf("follow-up pair = %+v / %+v", msgs[2], msgs[3])
	}
}

func TestBuildTrimsOldestFirst(t *testing.T) {
	t.Parallel()

	// system(14) + 3 history(6 each) + user(4) = 36; budget keeps last 3.
	b, sessions := newTestBuilder(t, 16)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_ = sessions.History.Append(ctx, "s1", contractx.UserMessage(fmt.Sprintf("msg-%d", i)))
	}

	msgs, err := b.Build(ctx, "s1", "gpt-4", "new")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(msgs) != 3 || msgs[0].Content != "msg-1" || msgs[2].Content != "new" {
		t.Fatalf("Build() = %+v, want [msg-1 msg-2 new]", msgs)
	}
}

func TestTrimToBudgetKeepsOversizedNewest(t *testing.T) {
	t.Parallel()

	msgs := []contractx.Message{
		contractx.UserMessage("short"),
		contractx.AssistantMessage("this message is far over budget"),
	}
	got := TrimToBudget(msgs, 5, func(m contractx.Message) int { return len(m.Content) })
	if len(got) != 1 || got[0].Content != msgs[1].Content {
		t.Fatalf("TrimToBudget() = %+v, want only the newest message", got)
	}
}

func TestTrimToBudgetDropsOrphanedToolMessage(t *testing.T) {
	t.Parallel()

	msgs := []contractx.Message{contractx.SystemMessage("sys")}
	msgs = append(msgs, contractx.ToolCallPair(contractx.ToolCall{ID: "c1", Name: "x"}, "0123456789")...)
	msgs = append(msgs, contractx.UserMessage("hello"))

	// user 6 + tool 11 fit in 17; the assistant invocation does not.
	got := TrimToBudget(msgs, 17, func(m contractx.Message) int { return len(m.Content) + 1 })
	if roles(got) != "u" {
		t.Fatalf("TrimToBudget() roles = %q, want u", roles(got))
	}
}

func TestTrimToBudgetAlwaysReturnsSuffixWithinBudget(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	cost := func(m contractx.Message) int { return len(m.Content) }

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(12)
		msgs := make([]contractx.Message, n)
		for i := range msgs {
			msgs[i] = contractx.UserMessage(fmt.Sprintf("%0*d", 1+rng.Intn(40), i))
		}
		budget := rng.Intn(120)

		got := TrimToBudget(msgs, budget, cost)

		offset := len(msgs) - len(got)
		for i := range got {
			if got[i] != msgs[offset+i] {
				t.Fatalf("iter %d: result is not a suffix of the input", iter)
			}
		}
		if n > 0 && len(got) == 0 {
			t.Fatalf("iter %d: newest message dropped", iter)
		}
		total := 0
		for _, m := range got {
			total += cost(m)
		}
		if total > budget && len(got) != 1 {
			t.Fatalf("iter %d: total %d over budget %d with %d messages", iter, total, budget, len(got))
		}
	}
}
