package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	metricsx "github.com/tanpawarit/portfolio-agent/pkg/metrics"
	"golang.org/x/time/rate"
)

type RetryPolicy struct {
	Attempts int
	MinWait  time.Duration
	MaxWait  time.Duration
}

// Resilient retries failed Generate calls with exponential backoff and
// throttles them through an optional limiter.
type Resilient struct {
	inner   model.ToolCallingChatModel
	policy  RetryPolicy
	limiter *rate.Limiter
}

var _ model.ToolCallingChatModel = (*Resilient)(nil)

func NewResilient(inner model.ToolCallingChatModel, policy RetryPolicy, limiter *rate.Limiter) *Resilient {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Resilient{inner: inner, policy: policy, limiter: limiter}
}

func (r *Resilient) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var out *schema.Message
	attempt := 0

	op := func() error {
		attempt++
		if err := r.wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		msg, err := r.inner.Generate(ctx, input, opts...)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = msg
		return nil
	}

	notify := func(err error, wait time.Duration) {
		metricsx.LLMRetryTotal.Inc()
		log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("model call failed, retrying")
	}

	if err := backoff.RetryNotify(op, r.backOff(ctx), notify); err != nil {
		return nil, err
	}
	return out, nil
}

// Stream is throttled but not retried; a half-read stream cannot be replayed.
func (r *Resilient) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Stream(ctx, input, opts...)
}

func (r *Resilient) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound, err := r.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &Resilient{inner: bound, policy: r.policy, limiter: r.limiter}, nil
}

func (r *Resilient) wait(ctx context.Context) error {
	if r.limiter == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}

func (r *Resilient) backOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.policy.MinWait
	exp.MaxInterval = r.policy.MaxWait
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.policy.Attempts-1)), ctx)
}
