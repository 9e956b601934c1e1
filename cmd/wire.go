package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/tanpawarit/portfolio-agent/agent/agents/advisor"
	"github.com/tanpawarit/portfolio-agent/agent/agents/orchestrator"
	"github.com/tanpawarit/portfolio-agent/agent/contextbuilder"
	"github.com/tanpawarit/portfolio-agent/agent/dispatcher"
	"github.com/tanpawarit/portfolio-agent/agent/llm"
	nodex "github.com/tanpawarit/portfolio-agent/agent/nodes"
	"github.com/tanpawarit/portfolio-agent/agent/portfolio"
	"github.com/tanpawarit/portfolio-agent/agent/prompt"
	"github.com/tanpawarit/portfolio-agent/agent/shortcut"
	statex "github.com/tanpawarit/portfolio-agent/agent/state"
	"github.com/tanpawarit/portfolio-agent/agent/tokens"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
	configx "github.com/tanpawarit/portfolio-agent/pkg/config"
	tracingx "github.com/tanpawarit/portfolio-agent/pkg/tracing"
)

const (
	backendRedis   = "redis"
	backendUpstash = "upstash"
	backendMemory  = "memory"
)

type AppConfig struct {
	DataDir        string        `envconfig:"DATA_DIR" split_words:"true"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" split_words:"true" default:"1h"`
	TokenBudget    int           `envconfig:"TOKEN_BUDGET" split_words:"true" default:"3000"`
	SessionBackend string        `envconfig:"SESSION_BACKEND" split_words:"true" default:"redis"`
	KeyPrefix      string        `envconfig:"KEY_PREFIX" split_words:"true"`
}

// Swapped in tests to stay offline.
var (
	newChatModel = func(ctx context.Context, cfg llm.Config) (einomodel.ToolCallingChatModel, error) {
		return llm.NewChatModel(ctx, cfg)
	}
	newTokenCounter = func() (*tokens.Counter, error) {
		return tokens.NewCounter()
	}
)

type app struct {
	orch     *orchestrator.Orchestrator
	registry *toolx.Registry
	closers  []func(context.Context) error
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func wireApp(ctx context.Context) (*app, error) {
	appCfg, err := configx.New[AppConfig]("APP")
	if err != nil {
		return nil, fmt.Errorf("load app config: %w", err)
	}
	llmCfg, err := configx.New[llm.Config]("LLM")
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}
	if err := llmCfg.Validate(); err != nil {
		return nil, err
	}
	otelCfg, err := configx.New[tracingx.Config]("OTEL")
	if err != nil {
		return nil, fmt.Errorf("load tracing config: %w", err)
	}

	a := &app{}
	shutdownTracing, err := tracingx.Init(ctx, *otelCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	store, err := wireStore(ctx, a, appCfg.SessionBackend)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	sessions := statex.NewSessions(store,
		statex.WithTTL(appCfg.SessionTTL),
		statex.WithKeyPrefix(appCfg.KeyPrefix),
	)

	orch, registry, err := wireOrchestrator(ctx, *appCfg, *llmCfg, sessions)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.orch = orch
	a.registry = registry
	return a, nil
}

func wireStore(ctx context.Context, a *app, backend string) (statex.ListStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case backendRedis:
		cfg, err := configx.New[statex.RedisConfig]("REDIS")
		if err != nil {
			return nil, fmt.Errorf("load redis config: %w", err)
		}
		client, err := statex.DialRedis(ctx, *cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		return statex.NewRedisStore(client)
	case backendUpstash:
		cfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, fmt.Errorf("load upstash config: %w", err)
		}
		return statex.NewUpstashRedisStore(*cfg)
	case backendMemory:
		return statex.NewMemoryStore(time.Now), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
}

func wireOrchestrator(
	ctx context.Context,
	appCfg AppConfig,
	llmCfg llm.Config,
	sessions *statex.Sessions,
) (*orchestrator.Orchestrator, *toolx.Registry, error) {
	registry, err := toolx.NewCatalog(toolx.Builtins(time.Now)...)
	if err != nil {
		return nil, nil, fmt.Errorf("build tool catalog: %w", err)
	}

	source, err := portfolio.NewSource(appCfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	newDispatcher := func(ctx context.Context) (nodex.Dispatcher, error) {
		snap, err := source.Load(ctx)
		if err != nil {
			return nil, err
		}
		d, err := dispatcher.New(registry, snap)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	systemPrompt, err := prompt.System()
	if err != nil {
		return nil, nil, err
	}
	counter, err := newTokenCounter()
	if err != nil {
		return nil, nil, fmt.Errorf("token counter: %w", err)
	}
	builder, err := contextbuilder.New(sessions.History, sessions.Tools, counter, systemPrompt, appCfg.TokenBudget)
	if err != nil {
		return nil, nil, err
	}
	shortcuts, err := shortcut.New(sessions.Tools, sessions.History)
	if err != nil {
		return nil, nil, err
	}

	chat, err := newChatModel(ctx, llmCfg)
	if err != nil {
		return nil, nil, err
	}
	adv, err := advisor.New(chat, registry.Infos())
	if err != nil {
		return nil, nil, err
	}

	orch, err := orchestrator.New(sessions, adv, builder, shortcuts, newDispatcher, orchestrator.Config{
		DefaultModel: llmCfg.Model,
		Models:       llmCfg,
	})
	if err != nil {
		return nil, nil, err
	}
	return orch, registry, nil
}
