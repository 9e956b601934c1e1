package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkoukk/tiktoken-go"
	"github.com/tanpawarit/portfolio-agent/agent/llm"
	"github.com/tanpawarit/portfolio-agent/agent/tokens"
)

type scriptedModel struct {
	reply string
	calls int
}

func (m *scriptedModel) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	m.calls++
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func (m *scriptedModel) WithTools([]*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return m, nil
}

// useOfflineApp swaps the model and tokenizer for local fakes and points the
// session backend at memory.
func useOfflineApp(t *testing.T, model *scriptedModel) {
	t.Helper()

	t.Setenv("APP_SESSION_BACKEND", "memory")
	t.Setenv("LLM_API_KEY", "test-key")
	t.Setenv("LLM_MODEL", "gpt-4")
	t.Setenv("OTEL_ENDPOINT", "")

	prevModel, prevCounter := newChatModel, newTokenCounter
	newChatModel = func(context.Context, llm.Config) (einomodel.ToolCallingChatModel, error) {
		return model, nil
	}
	newTokenCounter = func() (*tokens.Counter, error) {
		return tokens.NewCounter(tokens.WithLoader(func(string) (*tiktoken.Tiktoken, error) {
			return nil, errors.New("offline")
		}))
	}
	t.Cleanup(func() {
		newChatModel, newTokenCounter = prevModel, prevCounter
	})
}

func executeCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestChatRepliesPerLine(t *testing.T) {
	model := &scriptedModel{reply: "Your portfolio looks balanced."}
	useOfflineApp(t, model)

	stdout, _, err := executeCLI(t, "recap\n\nhow am I doing?\nexit\nnever read\n",
		"chat", "--session", "6f1c2a44-8d7e-4f3b-9c4b-0d6e7c1b2a10")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}

	for _, want := range []string{
		"session 6f1c2a44-8d7e-4f3b-9c4b-0d6e7c1b2a10",
		"There’s nothing to recap yet.",
		"Your portfolio looks balanced.",
	} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout = %q, want %q", stdout, want)
		}
	}
	if model.calls != 1 {
		t.Fatalf("model calls = %d, want 1", model.calls)
	}
}

func TestChatModelCommand(t *testing.T) {
	useOfflineApp(t, &scriptedModel{reply: "ok"})

	stdout, _, err := executeCLI(t, "/model gpt-4-turbo\n/model claude-x\nquit\n", "chat")
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}

	for _, want := range []string{"using gpt-4-turbo", `model "claude-x" is not supported`} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout = %q, want %q", stdout, want)
		}
	}
}

func TestChatRejectsBadSessionID(t *testing.T) {
	useOfflineApp(t, &scriptedModel{reply: "ok"})

	_, _, err := executeCLI(t, "", "chat", "--session", "not-a-uuid")
	if err == nil || !strings.Contains(err.Error(), "--session must be a UUID") {
		t.Fatalf("error = %v, want --session UUID error", err)
	}
}

func TestWireRejectsUnknownBackend(t *testing.T) {
	useOfflineApp(t, &scriptedModel{reply: "ok"})
	t.Setenv("APP_SESSION_BACKEND", "etcd")

	_, err := wireApp(context.Background())
	if err == nil || !strings.Contains(err.Error(), `unknown session backend "etcd"`) {
		t.Fatalf("error = %v, want unknown backend error", err)
	}
}

func TestWireRequiresAPIKey(t *testing.T) {
	useOfflineApp(t, &scriptedModel{reply: "ok"})
	t.Setenv("LLM_API_KEY", "")

	if _, err := wireApp(context.Background()); err == nil {
		t.Fatalf("wireApp() error = nil, want missing api key error")
	}
}
