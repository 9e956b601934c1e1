package contract

import "context"

// Advisor talks to the language model. Decide offers every registered tool
// with automatic selection; Answer runs without tools.
type Advisor interface {
	Decide(ctx context.Context, model string, msgs []Message) (Decision, error)
	Answer(ctx context.Context, model string, msgs []Message) (string, error)
}
