package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestSessions(t *testing.T) (*Sessions, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewSessions(NewMemoryStore(clock.Now)), clock
}

func TestLogAppendPreservesOrder(t *testing.T) {
	t.Parallel()

	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		if err := sessions.History.Append(ctx, "s1", contractx.UserMessage(text)); err != nil {
			t.Fatalf("Append(%q) error = %v", text, err)
		}
		all, err := sessions.History.All(ctx, "s1")
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if got := all[len(all)-1].Content; got != text {
			t.Fatalf("last content = %q, want %q", got, text)
		}
	}

	all, err := sessions.History.All(ctx, "s1")
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 3 || all[0].Content != "first" || all[2].Content != "third" {
		t.Fatalf("All() = %+v, want first..third", all)
	}
}

func TestLogClear(t *testing.T) {
	t.Parallel()

	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	rec := contractx.ToolCallRecord{ToolCallID: "call_1", Name: "analyze_performance", Content: "{}"}
	if err := sessions.Tools.Append(ctx, "s1", rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := sessions.Tools.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	all, err := sessions.Tools.All(ctx, "s1")
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("All() after Clear = %+v, want empty", all)
	}
	n, err := sessions.Tools.Length(ctx, "s1")
	if err != nil {
		t.Fatalf("Length() error = %v", err)
	}
	if n != 0 {
		t.Fatalf("Length() after Clear = %d, want 0", n)
	}
}

func TestLogSlidingTTL(t *testing.T) {
	t.Parallel()

	sessions, clock := newTestSessions(t)
	ctx := context.Background()

	if err := sessions.History.Append(ctx, "s1", contractx.UserMessage("hello")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	clock.Advance(DefaultTTL - time.Second)
	all, err := sessions.History.All(ctx, "s1")
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("All() before expiry = %d entries, want 1", len(all))
	}

	// A second append restarts the window.
	if err := sessions.History.Append(ctx, "s1", contractx.AssistantMessage("hi")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	clock.Advance(DefaultTTL - time.Second)
	if n, _ := sessions.History.Length(ctx, "s1"); n != 2 {
		t.Fatalf("Length() inside slid window = %d, want 2", n)
	}

	clock.Advance(2 * time.Second)
	all, err = sessions.History.All(ctx, "s1")
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("All() after expiry = %+v, want empty", all)
	}
}

func TestLogsExpireIndependently(t *testing.T) {
	t.Parallel()

	sessions, clock := newTestSessions(t)
	ctx := context.Background()

	if err := sessions.Tools.Append(ctx, "s1", contractx.ToolCallRecord{ToolCallID: "c1"}); err != nil {
		t.Fatalf("Tools.Append() error = %v", err)
	}
	clock.Advance(30 * time.Minute)
	if err := sessions.History.Append(ctx, "s1", contractx.UserMessage("later")); err != nil {
		t.Fatalf("History.Append() error = %v", err)
	}
	clock.Advance(31 * time.Minute)

	if n, _ := sessions.Tools.Length(ctx, "s1"); n != 0 {
		t.Fatalf("tool memory length = %d, want 0 after its own ttl", n)
	}
	if n, _ := sessions.History.Length(ctx, "s1"); n != 1 {
		t.Fatalf("history length = %d, want 1", n)
	}
}

func TestLogLast(t *testing.T) {
	t.Parallel()

	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	if _, ok, err := sessions.Models.Last(ctx, "s1"); err != nil || ok {
		t.Fatalf("Last() on empty = ok:%v err:%v, want false nil", ok, err)
	}
	_ = sessions.Models.Append(ctx, "s1", "gpt-4")
	_ = sessions.Models.Append(ctx, "s1", "gpt-4-turbo")

	got, ok, err := sessions.Models.Last(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("Last() = ok:%v err:%v", ok, err)
	}
	if got != "gpt-4-turbo" {
		t.Fatalf("Last() = %q, want gpt-4-turbo", got)
	}
}

func TestLogKeys(t *testing.T) {
	t.Parallel()

	sessions := NewSessions(NewMemoryStore(nil), WithKeyPrefix("pa:"))

	key, err := sessions.History.Key("abc")
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if key != "pa:message_history:abc" {
		t.Fatalf("Key() = %q, want pa:message_history:abc", key)
	}

	_, err = sessions.Tools.Key("   ")
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Key() error = %v, want ErrInvalidSession", err)
	}
}

func TestLogSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	_ = sessions.History.Append(ctx, "a", contractx.UserMessage("for a"))
	if n, _ := sessions.History.Length(ctx, "b"); n != 0 {
		t.Fatalf("session b length = %d, want 0", n)
	}
}
