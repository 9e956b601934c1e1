package shortcut

import (
	"context"
	"errors"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
)

const (
	ReplyNothingToRecap = "There’s nothing to recap yet."
	ReplyRecapHeader    = "Here’s a recap of what we’ve done:\n"
	ReplyNothingToWhy   = "I don’t have any previous actions to explain."
	ReplyReset          = "Alright, I’ve cleared the session. Let’s start fresh!"
	replyGoalHeader     = "Based on your goal, here’s what I suggest:\n\n🔄 Rebalancing Actions:\n"
)

type command int

const (
	commandNone command = iota
	commandRecap
	commandWhy
	commandReset
)

var commands = map[string]command{
	"recap":           commandRecap,
	"give me a recap": commandRecap,
	"why":             commandWhy,
	"why?":            commandWhy,
	"explain":         commandWhy,
	"clear":           commandReset,
	"reset":           commandReset,
}

type ToolMemory interface {
	All(ctx context.Context, sessionID string) ([]contractx.ToolCallRecord, error)
	Last(ctx context.Context, sessionID string) (contractx.ToolCallRecord, bool, error)
	Clear(ctx context.Context, sessionID string) error
}

type History interface {
	Clear(ctx context.Context, sessionID string) error
}

// Handler answers fixed commands and goal phrases without the model.
type Handler struct {
	memory  ToolMemory
	history History
}

func New(memory ToolMemory, history History) (*Handler, error) {
	if memory == nil {
		return nil, errors.New("tool memory is required")
	}
	if history == nil {
		return nil, errors.New("message history is required")
	}
	return &Handler{memory: memory, history: history}, nil
}

// Handle returns the canned reply and true, or false when the text needs the
// model.
func (h *Handler) Handle(ctx context.Context, sessionID, text string, runner toolx.Runner) (string, bool, error) {
	switch commands[strings.ToLower(strings.TrimSpace(text))] {
	case commandRecap:
		reply, err := h.recap(ctx, sessionID)
		return reply, err == nil, err
	case commandWhy:
		reply, err := h.why(ctx, sessionID)
		return reply, err == nil, err
	case commandReset:
		reply, err := h.reset(ctx, sessionID)
		return reply, err == nil, err
	}

	goal, ok := MatchGoal(text)
	if !ok {
		return "", false, nil
	}
	reply, err := h.suggest(ctx, goal, runner)
	return reply, err == nil, err
}

func (h *Handler) recap(ctx context.Context, sessionID string) (string, error) {
	records, err := h.memory.All(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("read tool memory: %w", err)
	}
	if len(records) == 0 {
		return ReplyNothingToRecap, nil
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, "- "+r.Recall())
	}
	return ReplyRecapHeader + strings.Join(lines, "\n"), nil
}

func (h *Handler) why(ctx context.Context, sessionID string) (string, error) {
	last, ok, err := h.memory.Last(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("read tool memory: %w", err)
	}
	if !ok {
		return ReplyNothingToWhy, nil
	}
	return last.Recall(), nil
}

func (h *Handler) reset(ctx context.Context, sessionID string) (string, error) {
	if err := h.memory.Clear(ctx, sessionID); err != nil {
		return "", fmt.Errorf("clear tool memory: %w", err)
	}
	if err := h.history.Clear(ctx, sessionID); err != nil {
		return "", fmt.Errorf("clear message history: %w", err)
	}
	return ReplyReset, nil
}

func (h *Handler) suggest(ctx context.Context, goal Goal, runner toolx.Runner) (string, error) {
	if runner == nil {
		return "", errors.New("tool runner is required for goal suggestions")
	}
	res, err := runner.Run(ctx, toolx.NameRebalancePortfolio, map[string]any{
		"target_allocations": goal.Allocation,
	})
	if err != nil {
		return "", err
	}
	out, ok := res.(toolx.Ok)
	if !ok {
		return "", fmt.Errorf("%w: rebalance for goal %s returned %T", contractx.ErrValidation, goal.Name, res)
	}

	moves, _ := out.Payload["movements"].([]string)
	summary, _ := out.Payload["allocation_summary"].(string)
	return replyGoalHeader + strings.Join(moves, "\n") + "\n\n" + summary, nil
}
