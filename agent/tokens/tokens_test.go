package tokens

import (
	"errors"
	"testing"

	"github.com/pkoukk/tiktoken-go"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

func offlineCounter(t *testing.T, loads *int) *Counter {
	t.Helper()
	c, err := NewCounter(WithLoader(func(string) (*tiktoken.Tiktoken, error) {
		*loads++
		return nil, errors.New("offline")
	}))
	if err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}
	return c
}

func TestCountFallsBackToLengthEstimate(t *testing.T) {
	t.Parallel()

	var loads int
	c := offlineCounter(t, &loads)

	if got := c.Count("gpt-4", "abcdefghijkl"); got != 3 {
		t.Fatalf("Count() = %d, want 3", got)
	}
}

func TestCountCachesFailedLookups(t *testing.T) {
	t.Parallel()

	var loads int
	c := offlineCounter(t, &loads)

	c.Count("gpt-4", "a")
	c.Count("gpt-4", "b")
	c.Count("gpt-3.5-turbo", "c")
	if loads != 2 {
		t.Fatalf("loader calls = %d, want 2", loads)
	}
}

func TestCountMessageIncludesEnvelope(t *testing.T) {
	t.Parallel()

	var loads int
	c := offlineCounter(t, &loads)

	msg := contractx.UserMessage("hi")
	got := c.CountMessage("gpt-4", msg)
	// {"role":"user","content":"hi"} is 30 bytes.
	if got != 30/4 {
		t.Fatalf("CountMessage() = %d, want %d", got, 30/4)
	}
	if got <= c.Count("gpt-4", msg.Content) {
		t.Fatalf("CountMessage() = %d, want more than bare content", got)
	}
}
