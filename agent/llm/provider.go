package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	openrouterx "github.com/tanpawarit/portfolio-agent/pkg/openrouter"
)

// NewChatModel builds the configured provider and wraps it with retry and
// rate limiting.
func NewChatModel(ctx context.Context, cfg Config) (*Resilient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	orCfg := cfg.OpenRouter()
	var (
		base model.ToolCallingChatModel
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		base, err = openrouterx.NewSDKChatModel(orCfg)
	default:
		base, err = orCfg.New(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return NewResilient(base, cfg.Retry(), cfg.Limiter()), nil
}
