package runtime

import (
	"context"
	"fmt"

	"github.com/bacflow/dataflow/internal/domain"
	domainerrors "github.com/bacflow/dataflow/internal/domain/errors"
)

// Sandbox is the subset of the Script Sandbox (C9) a Function node needs.
// Defined as an interface so tests can substitute a stub; the concrete
// implementation is internal/sandbox.Sandbox.
type Sandbox interface {
	Execute(ctx context.Context, sourceCode string, inputs map[string]any, timeoutMs int) (result any, logs []string, err error)
}

// Executor is the small per-kind trait spec §9 calls for: execute, reset,
// inputHandles/outputHandles (delegated to the registry), activeOutputHandles,
// serialize (delegated to internal/serializer). Grounded on the teacher's
// node_executors.go dispatch-by-type switch, generalized to an interface
// implemented once per kind instead of one large function.
type Executor interface {
	// Execute runs the node's kind-specific logic against the gathered
	// inputs and returns its new output value.
	Execute(ctx context.Context, node *domain.Node, state *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error)

	// ActiveOutputHandles reports which output handles carry a value this
	// tick. Every kind but Switch returns all of its output handles.
	ActiveOutputHandles(node *domain.Node, state *NodeState, outputHandles []domain.Handle) []domain.Handle

	// Reset clears the node's per-tick output/error; kind-specific stored
	// state (memory register, timer counter) is untouched here.
	Reset(node *domain.Node, state *NodeState)
}

// Dispatcher resolves a domain.NodeKind to its Executor.
type Dispatcher struct {
	sandbox   Sandbox
	executors map[domain.NodeKind]Executor
}

// NewDispatcher wires every node kind's executor, including the sandboxed
// Function executor bound to the given Sandbox implementation.
func NewDispatcher(sandbox Sandbox) *Dispatcher {
	d := &Dispatcher{sandbox: sandbox, executors: make(map[domain.NodeKind]Executor)}

	fieldPoint := &fieldPointExecutor{}
	for _, k := range domain.FieldPointKinds {
		d.executors[k] = fieldPoint
	}
	d.executors[domain.KindCalculation] = &calculationExecutor{}
	d.executors[domain.KindComparison] = &comparisonExecutor{}
	d.executors[domain.KindConstant] = &constantExecutor{}
	d.executors[domain.KindSwitch] = &switchExecutor{}
	d.executors[domain.KindTimer] = &timerExecutor{}
	d.executors[domain.KindSchedule] = &scheduleExecutor{}
	d.executors[domain.KindMemory] = &memoryExecutor{}
	d.executors[domain.KindFunction] = &functionExecutor{sandbox: sandbox}
	d.executors[domain.KindWriteSetpoint] = &writeSetpointExecutor{}
	return d
}

// WithFunctionRetry rewraps the Function node's executor with a bounded
// retry policy, for hosts that opt into retrying sandbox failures (see
// retry.go). Has no effect on any other kind.
func (d *Dispatcher) WithFunctionRetry(policy RetryPolicy) {
	d.executors[domain.KindFunction] = WithRetry(d.executors[domain.KindFunction], policy)
}

// For looks up the executor for a node's kind.
func (d *Dispatcher) For(kind domain.NodeKind) (Executor, error) {
	ex, ok := d.executors[kind]
	if !ok {
		return nil, fmt.Errorf("no executor registered for node kind %q", kind)
	}
	return ex, nil
}

// defaultActiveOutputHandles is the shared "every output handle is active"
// behavior every kind but Switch uses.
func defaultActiveOutputHandles(_ *domain.Node, _ *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return outputHandles
}

// numericInput reads a gathered input, defaulting missing/undefined values
// to 0 per §4.3 step 4b's "default of 0 for numeric calculators" rule.
func numericInput(inputs map[domain.Handle]domain.Value, handle domain.Handle) float64 {
	v, ok := inputs[handle]
	if !ok {
		return 0
	}
	return v.Float()
}

// rawInput reads a gathered input, returning domain.Undefined for a
// missing handle rather than defaulting to zero (used by non-numeric
// kinds per §4.3 step 4b's "undefined for others" rule).
func rawInput(inputs map[domain.Handle]domain.Value, handle domain.Handle) domain.Value {
	v, ok := inputs[handle]
	if !ok {
		return domain.Undefined
	}
	return v
}

func executionError(node *domain.Node, message string, cause error) error {
	return domainerrors.NewNodeExecutionError(node.ID, string(node.Kind), message, cause)
}
