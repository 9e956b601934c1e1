package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	nodex "github.com/tanpawarit/portfolio-agent/agent/nodes"
	statex "github.com/tanpawarit/portfolio-agent/agent/state"
	metricsx "github.com/tanpawarit/portfolio-agent/pkg/metrics"
	tracingx "github.com/tanpawarit/portfolio-agent/pkg/tracing"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidSession = nodex.ErrInvalidSession
)

// ModelPolicy decides which model names a session may select.
type ModelPolicy interface {
	Supports(name string) bool
}

type Config struct {
	DefaultModel string
	Models       ModelPolicy
}

type Orchestrator struct {
	sessions      *statex.Sessions
	advisor       contractx.Advisor
	builder       nodex.ContextBuilder
	shortcuts     nodex.Shortcuts
	newDispatcher nodex.DispatcherFactory

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	defaultModel string
	models       ModelPolicy

	now func() time.Time
}

func New(
	sessions *statex.Sessions,
	advisor contractx.Advisor,
	builder nodex.ContextBuilder,
	shortcuts nodex.Shortcuts,
	newDispatcher nodex.DispatcherFactory,
	cfg Config,
) (*Orchestrator, error) {
	if sessions == nil {
		return nil, errors.New("session logs are required")
	}
	if advisor == nil {
		return nil, errors.New("advisor is required")
	}
	if builder == nil {
		return nil, errors.New("context builder is required")
	}
	if shortcuts == nil {
		return nil, errors.New("shortcut handler is required")
	}
	if newDispatcher == nil {
		return nil, errors.New("dispatcher factory is required")
	}

	defaultModel := strings.TrimSpace(cfg.DefaultModel)
	if defaultModel == "" {
		return nil, fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}

	o := &Orchestrator{
		sessions:      sessions,
		advisor:       advisor,
		builder:       builder,
		shortcuts:     shortcuts,
		newDispatcher: newDispatcher,
		defaultModel:  defaultModel,
		models:        cfg.Models,
		now:           time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage runs one turn and returns the reply shown to the user.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	ctx, span := tracingx.StartTurnSpan(ctx, sessionID)
	defer span.End()
	start := o.now()

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	path := string(out.Path)
	if err != nil {
		path = "error"
		tracingx.RecordError(span, err)
	}
	metricsx.TurnTotal.WithLabelValues(path).Inc()
	metricsx.TurnDuration.WithLabelValues(path).Observe(o.now().Sub(start).Seconds())

	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// SelectModel records the model used for the session's following turns.
func (o *Orchestrator) SelectModel(ctx context.Context, sessionID string, name string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}
	name = strings.TrimSpace(name)
	if !o.supports(name) {
		return fmt.Errorf("%w: %q", contractx.ErrUnsupportedModel, name)
	}
	return o.sessions.Models.Append(ctx, sessionID, name)
}

// CurrentModel returns the session's selected model or the default.
func (o *Orchestrator) CurrentModel(ctx context.Context, sessionID string) (string, error) {
	name, ok, err := o.sessions.Models.Last(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(name) == "" {
		return o.defaultModel, nil
	}
	return name, nil
}

func (o *Orchestrator) supports(name string) bool {
	if name == "" {
		return false
	}
	if o.models == nil {
		return name == o.defaultModel
	}
	return o.models.Supports(name)
}
