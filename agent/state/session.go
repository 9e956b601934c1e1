package state

import (
	"strings"
	"time"

	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
)

const (
	HistoryNamespace    = "message_history"
	ToolMemoryNamespace = "tool_memory"
	ModelNamespace      = "model_selection"
)

// SessionOption customizes Sessions.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	keyPrefix string
	ttl       time.Duration
}

func WithKeyPrefix(prefix string) SessionOption {
	return func(c *sessionConfig) {
		c.keyPrefix = strings.TrimSpace(prefix)
	}
}

func WithTTL(ttl time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.ttl = ttl
	}
}

// Sessions groups the per-session logs. Each log expires on its own,
// measured from its last append.
type Sessions struct {
	History *Log[contractx.Message]
	Tools   *Log[contractx.ToolCallRecord]
	Models  *Log[string]
}

func NewSessions(store ListStore, opts ...SessionOption) *Sessions {
	cfg := sessionConfig{ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.ttl < 0 {
		cfg.ttl = 0
	}

	return &Sessions{
		History: NewLog[contractx.Message](store, cfg.keyPrefix+HistoryNamespace, cfg.ttl),
		Tools:   NewLog[contractx.ToolCallRecord](store, cfg.keyPrefix+ToolMemoryNamespace, cfg.ttl),
		Models:  NewLog[string](store, cfg.keyPrefix+ModelNamespace, cfg.ttl),
	}
}
