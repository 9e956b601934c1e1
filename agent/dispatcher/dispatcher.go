package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/portfolio-agent/agent/contract"
	"github.com/tanpawarit/portfolio-agent/agent/portfolio"
	toolx "github.com/tanpawarit/portfolio-agent/agent/tool"
	metricsx "github.com/tanpawarit/portfolio-agent/pkg/metrics"
	tracingx "github.com/tanpawarit/portfolio-agent/pkg/tracing"
)

// Dispatcher binds one portfolio snapshot to tool calls chosen by the model.
type Dispatcher struct {
	registry *toolx.Registry
	snapshot *portfolio.Snapshot
	context  map[string]any
}

func New(registry *toolx.Registry, snapshot *portfolio.Snapshot) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if snapshot == nil {
		return nil, errors.New("portfolio snapshot is required")
	}
	return &Dispatcher{
		registry: registry,
		snapshot: snapshot,
		context:  snapshot.Values(),
	}, nil
}

// Dispatch runs the named tool with arguments serialized as a JSON object.
// An unknown tool name is returned as an error wrapping ErrToolNotFound.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, arguments string) (toolx.Result, error) {
	explicit := map[string]any{}
	if raw := strings.TrimSpace(arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &explicit); err != nil {
			return nil, fmt.Errorf("%w: arguments for %s are not a JSON object: %v", contractx.ErrSchemaViolation, name, err)
		}
		if explicit == nil {
			explicit = map[string]any{}
		}
	}
	return d.Run(ctx, name, explicit)
}

// Run invokes the named tool with explicit arguments layered over the
// domain context. Missing required parameters come back as MissingArgs.
// An explicit null or empty argument counts as not supplied.
func (d *Dispatcher) Run(ctx context.Context, name string, explicit map[string]any) (toolx.Result, error) {
	t, err := d.registry.Get(name)
	if err != nil {
		return nil, err
	}

	ctx, span := tracingx.StartToolSpan(ctx, name)
	defer span.End()
	start := time.Now()

	var missing []string
	for _, p := range t.Required() {
		if supplied(explicit, p) {
			continue
		}
		if _, ok := d.context[p]; ok {
			continue
		}
		missing = append(missing, p)
	}
	if len(missing) > 0 {
		log.Debug().Str("tool", name).Strs("missing", missing).Msg("tool call is missing arguments")
		metricsx.ToolDispatchTotal.WithLabelValues(name, "missing_args").Inc()
		return toolx.NewMissingArgs(missing), nil
	}

	in := make(toolx.Input, len(t.Params()))
	for _, p := range t.Params() {
		if supplied(explicit, p) {
			in[p] = explicit[p]
		} else if v, ok := d.context[p]; ok {
			in[p] = v
		}
	}

	res, err := t.Run(ctx, in)
	metricsx.ToolDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metricsx.ToolDispatchTotal.WithLabelValues(name, "error").Inc()
		tracingx.RecordError(span, err)
		return nil, fmt.Errorf("run tool %s: %w", name, err)
	}
	metricsx.ToolDispatchTotal.WithLabelValues(name, "ok").Inc()
	return res, nil
}

// AllocationBreakdown reports the current share of each bucket. ok is false
// when the portfolio has no value to divide.
func (d *Dispatcher) AllocationBreakdown() (map[string]float64, bool) {
	return toolx.Allocate(
		d.snapshot.Holdings(),
		d.snapshot.CashBalances(),
		d.snapshot.Funds(),
	).Percentages()
}

func supplied(args map[string]any, name string) bool {
	v, ok := args[name]
	if !ok || v == nil {
		return false
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() > 0
	case reflect.String:
		return strings.TrimSpace(rv.String()) != ""
	}
	return true
}
