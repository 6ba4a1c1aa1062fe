package runtime

import (
	"context"
	"time"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

const minTimerDuration = 100 * time.Millisecond

// timerExecutor implements the Timer node (§3, §4.6): a periodic emitter
// armed by a truthy trigger input, disarmed by a falsy trigger; the
// per-tick Reset leaves a running timer running.
//
// The synchronous Execute here only handles the tick-driven edge of the
// contract (starting/stopping and reporting the current tick-counter
// value); the "every d ms" periodic emission while running is driven by
// the Message Bus (C7) in asynchronous mode, per §4.5's "timer ... is
// inherently asynchronous" classification — TimerDuration is exposed for
// the Bus to size its own timer task.
type timerExecutor struct{}

func (e *timerExecutor) Execute(_ context.Context, node *domain.Node, state *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	trigger := rawInput(inputs, registry.HandleTrigger)
	if v, ok := inputs[registry.HandleTrigger]; ok && v.IsDefined() {
		state.TimerLastInput = v
	}

	switch {
	case trigger.Truthy() && !state.TimerRunning:
		state.TimerRunning = true
		state.TimerTickCount = 0
		return e.payload(state), nil
	case !trigger.Truthy() && state.TimerRunning:
		state.TimerRunning = false
		return e.payload(state), nil
	case state.TimerRunning:
		return e.payload(state), nil
	default:
		return domain.Undefined, nil
	}
}

func (e *timerExecutor) payload(state *NodeState) domain.Value {
	if state.TimerLastInput.IsDefined() {
		return state.TimerLastInput
	}
	return domain.Num(float64(state.TimerTickCount))
}

// TimerDuration exposes the Timer node's clamped period for the Message
// Bus's periodic task, without requiring it to import the unexported
// timerExecutor type.
func TimerDuration(node *domain.Node) time.Duration {
	return (&timerExecutor{}).Duration(node)
}

// Duration clamps the configured duration-ms metadata to the minimum
// allowed period, per setDuration's "clamps d >= 100ms" rule.
func (e *timerExecutor) Duration(node *domain.Node) time.Duration {
	ms := numberMetadata(node.Metadata["duration-ms"])
	d := time.Duration(ms) * time.Millisecond
	if d < minTimerDuration {
		return minTimerDuration
	}
	return d
}

// Fire performs one interval step: it increments the tick counter and
// returns the next payload to emit. The Bus's periodic task does not call
// it; it applies the same increment-then-payload step to the shared
// NodeState itself.
func (e *timerExecutor) Fire(state *NodeState) domain.Value {
	state.TimerTickCount++
	return e.payload(state)
}

func (e *timerExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

// Reset implements §4.3 step 2's per-tick reset: clear only the node's
// transient output/error. Running/tickCount/lastInput persist across
// ticks — they are cleared on teardown (Store.Clear, called from
// Scheduler.Stop/Bus.Stop), not on every tick, so a running timer is not
// silently stopped by the scheduler's own reset pass.
func (e *timerExecutor) Reset(n *domain.Node, _ *NodeState) {
	n.Reset()
}
