package runtime

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/bacflow/dataflow/internal/domain"
)

// RetryPolicy is the supplemented opt-in bounded retry for Function node
// sandbox failures (see SPEC_FULL.md's "Supplemented features"), distinct
// from the mandatory "sandbox timeout is a per-node error, not fatal"
// rule in §4.3: a retry is an engine-level choice to re-invoke the
// sandbox, never applied to CycleDetected or ConnectionRejected errors,
// which are structural and retrying them would never change the outcome.
//
// Grounded on the teacher's internal/application/executor/retry.go
// (RetryPolicy + exponential backoff with jitter), narrowed from a
// generic per-node-kind retry wrapper to one that only ever wraps a
// Function node's Executor, since Function/sandbox failures are the only
// per-node errors §7 classifies as plausibly transient.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// NoRetry disables retries entirely.
func NoRetry() RetryPolicy { return RetryPolicy{MaxAttempts: 0} }

// DefaultRetryPolicy is a sensible bounded exponential-backoff policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		d += d * 0.1 * (2*rand.Float64() - 1)
	}
	return time.Duration(d)
}

// RetryingExecutor wraps a Function node's Executor with bounded retry on
// sandbox failure. It is never registered for kinds other than Function.
type RetryingExecutor struct {
	inner  Executor
	policy RetryPolicy
}

// WithRetry wraps inner with policy.
func WithRetry(inner Executor, policy RetryPolicy) *RetryingExecutor {
	return &RetryingExecutor{inner: inner, policy: policy}
}

func (r *RetryingExecutor) Execute(ctx context.Context, node *domain.Node, state *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	var lastErr error
	for attempt := 0; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return domain.Undefined, ctx.Err()
			case <-time.After(r.policy.delay(attempt)):
			}
		}
		output, err := r.inner.Execute(ctx, node, state, inputs)
		if err == nil {
			return output, nil
		}
		lastErr = err
	}
	return domain.Undefined, fmt.Errorf("max retry attempts (%d) exhausted: %w", r.policy.MaxAttempts, lastErr)
}

func (r *RetryingExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return r.inner.ActiveOutputHandles(n, s, outputHandles)
}

func (r *RetryingExecutor) Reset(n *domain.Node, s *NodeState) { r.inner.Reset(n, s) }
