// Package registry implements the Node Kind Registry (spec §4.1, C2): the
// catalog of node kinds, their declared handle sets, and the connection
// legality rules that gate edge creation at edit time.
//
// Grounded on the teacher's internal/node.Registry (a concurrent-safe
// catalog keyed by id/name), generalized from "registered Node instances"
// to "declarative rules keyed by NodeKind" since the engine's node kinds
// are a closed, compile-time-known set rather than a plugin registry.
package registry

import (
	"fmt"

	"github.com/bacflow/dataflow/internal/domain"
)

const (
	HandleValue    domain.Handle = "value"
	HandleStatus   domain.Handle = "status"
	HandleInput1   domain.Handle = "input1"
	HandleInput2   domain.Handle = "input2"
	HandleOutput   domain.Handle = "output"
	HandleActive   domain.Handle = "active"
	HandleInactive domain.Handle = "inactive"
	HandleTrigger  domain.Handle = "trigger"
	HandleWrite    domain.Handle = "write"
	HandleReset    domain.Handle = "reset"
	HandleSetpoint domain.Handle = "setpoint"
)

// Registry answers handle-set and connection-legality questions for every
// node kind. It carries no mutable state and is safe to share across
// graphs, satisfying §5's "Node Registry is immutable post-initialisation".
type Registry struct{}

// New returns the process-wide node kind registry.
func New() *Registry { return &Registry{} }

// Kinds returns every node kind the registry knows about.
func (r *Registry) Kinds() []domain.NodeKind {
	kinds := append([]domain.NodeKind{}, domain.FieldPointKinds...)
	return append(kinds,
		domain.KindCalculation, domain.KindComparison, domain.KindConstant,
		domain.KindSwitch, domain.KindTimer, domain.KindSchedule,
		domain.KindMemory, domain.KindFunction, domain.KindWriteSetpoint,
	)
}

// InputHandlesOf returns the declared input handle set for a node. For
// Function nodes this is dynamic: one handle per entry in the node's
// input-descriptors metadata (defaulting to a single "input1" handle).
func (r *Registry) InputHandlesOf(n *domain.Node) []domain.Handle {
	switch n.Kind {
	case domain.KindAnalogInput, domain.KindBinaryInput, domain.KindMultistateInput:
		return nil
	case domain.KindAnalogOutput, domain.KindBinaryOutput, domain.KindMultistateOutput:
		return []domain.Handle{HandleValue}
	case domain.KindAnalogValue, domain.KindBinaryValue, domain.KindMultistateValue:
		return []domain.Handle{HandleValue}
	case domain.KindCalculation, domain.KindComparison:
		return []domain.Handle{HandleInput1, HandleInput2}
	case domain.KindConstant:
		return nil
	case domain.KindSwitch:
		return []domain.Handle{HandleInput1}
	case domain.KindTimer:
		return []domain.Handle{HandleTrigger}
	case domain.KindSchedule:
		return []domain.Handle{HandleInput1}
	case domain.KindMemory:
		return []domain.Handle{HandleValue, HandleWrite, HandleReset}
	case domain.KindFunction:
		return functionInputHandles(n)
	case domain.KindWriteSetpoint:
		return []domain.Handle{HandleSetpoint}
	default:
		return nil
	}
}

// OutputHandlesOf returns the declared output handle set for a node.
func (r *Registry) OutputHandlesOf(n *domain.Node) []domain.Handle {
	switch n.Kind {
	case domain.KindAnalogInput, domain.KindBinaryInput, domain.KindMultistateInput:
		return []domain.Handle{HandleValue, HandleStatus}
	case domain.KindAnalogOutput, domain.KindBinaryOutput, domain.KindMultistateOutput:
		return nil
	case domain.KindAnalogValue, domain.KindBinaryValue, domain.KindMultistateValue:
		return []domain.Handle{HandleValue, HandleStatus}
	case domain.KindCalculation, domain.KindComparison, domain.KindConstant,
		domain.KindTimer, domain.KindSchedule, domain.KindMemory, domain.KindFunction,
		domain.KindWriteSetpoint:
		return []domain.Handle{HandleOutput}
	case domain.KindSwitch:
		return []domain.Handle{HandleActive, HandleInactive}
	default:
		return nil
	}
}

// functionInputHandles derives a Function node's input handle set from its
// input-descriptors metadata, defaulting to a single input.
func functionInputHandles(n *domain.Node) []domain.Handle {
	raw, ok := n.Metadata["input-descriptors"]
	if !ok {
		return []domain.Handle{HandleInput1}
	}
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return []domain.Handle{HandleInput1}
	}
	handles := make([]domain.Handle, 0, len(list))
	for _, entry := range list {
		switch v := entry.(type) {
		case string:
			handles = append(handles, domain.Handle(v))
		case map[string]any:
			if id, ok := v["id"].(string); ok {
				handles = append(handles, domain.Handle(id))
			}
		}
	}
	if len(handles) == 0 {
		return []domain.Handle{HandleInput1}
	}
	return handles
}

// hasHandle reports whether handle is a member of handles.
func hasHandle(handles []domain.Handle, handle domain.Handle) bool {
	for _, h := range handles {
		if h == handle {
			return true
		}
	}
	return false
}

// CanConnect decides whether an edge from (src, srcHandle) to
// (tgt, tgtHandle) is legal, per spec §4.1.
func (r *Registry) CanConnect(src *domain.Node, srcHandle domain.Handle, tgt *domain.Node, tgtHandle domain.Handle) (bool, error) {
	if src.ID == tgt.ID {
		return false, fmt.Errorf("a node cannot connect to itself")
	}

	// Invariant (domain edge rule): target handle must be an input handle
	// of the target, source handle an output handle of the source.
	if !hasHandle(r.OutputHandlesOf(src), srcHandle) {
		return false, fmt.Errorf("%q is not an output handle of node %s (%s)", srcHandle, src.ID, src.Kind)
	}
	if !hasHandle(r.InputHandlesOf(tgt), tgtHandle) {
		return false, fmt.Errorf("%q is not an input handle of node %s (%s)", tgtHandle, tgt.ID, tgt.Kind)
	}

	if src.Direction() == domain.DirectionSink {
		return false, fmt.Errorf("node %s is sink-only and cannot be an edge source", src.ID)
	}
	if tgt.Direction() == domain.DirectionSource {
		return false, fmt.Errorf("node %s is source-only and cannot be an edge target", tgt.ID)
	}

	switch domain.CategoryOf(tgt.Kind) {
	case domain.CategoryField:
		if tgt.Kind == domain.KindAnalogOutput || tgt.Kind == domain.KindBinaryOutput || tgt.Kind == domain.KindMultistateOutput {
			srcCat := domain.CategoryOf(src.Kind)
			if srcCat != domain.CategoryLogic && srcCat != domain.CategoryCommand {
				return false, fmt.Errorf("field output node %s only accepts edges from logic/command sources, got %s", tgt.ID, srcCat)
			}
		}
	}

	if domain.CategoryOf(src.Kind) == domain.CategoryCommand {
		tgtCat := domain.CategoryOf(tgt.Kind)
		if tgtCat != domain.CategoryField && tgtCat != domain.CategoryCommand {
			return false, fmt.Errorf("command node %s only connects into field or command nodes, got %s", src.ID, tgtCat)
		}
	}

	return true, nil
}
