package runtime

import (
	"context"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
	"github.com/bacflow/dataflow/internal/utils"
)

// memoryExecutor implements the Memory node (§3, §4.6): sample-then-commit.
// Each execution first emits the currently stored value (or init on the
// first tick), then applies reset (if truthy, precedence) or write (if
// truthy) to update the stored value for the next tick.
type memoryExecutor struct{}

func (e *memoryExecutor) Execute(_ context.Context, node *domain.Node, state *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	if !state.Initialized {
		state.Stored = initValue(node)
		state.Initialized = true
	}

	output := state.Stored

	reset := rawInput(inputs, registry.HandleReset)
	write := rawInput(inputs, registry.HandleWrite)
	switch {
	case reset.Truthy():
		state.Stored = initValue(node)
	case write.Truthy():
		v := rawInput(inputs, registry.HandleValue)
		state.Stored = castToValueType(v, node.Metadata["value-type"])
	}

	return output, nil
}

func initValue(node *domain.Node) domain.Value {
	valueTypeRaw, _ := node.Metadata["value-type"].(string)
	valueType := utils.DefaultValue(valueTypeRaw, string(domain.ValueTypeNumber))
	raw, ok := node.Metadata["init-value"]
	if !ok {
		if domain.ValueType(valueType) == domain.ValueTypeBoolean {
			return domain.Bool(false)
		}
		return domain.Num(0)
	}
	v, err := domain.ValueFromRaw(raw)
	if err != nil {
		return domain.Undefined
	}
	return castToValueType(v, valueType)
}

// castToValueType implements the boolean/number cast rules of §4.6: boolean
// cast is `x != 0` for numbers and identity for booleans; number cast is
// `Number(x)` with NaN preserved (surfaced here as ValueNumber carrying NaN).
func castToValueType(v domain.Value, valueType any) domain.Value {
	vt, _ := valueType.(string)
	switch domain.ValueType(vt) {
	case domain.ValueTypeBoolean:
		return domain.Bool(v.Truthy())
	case domain.ValueTypeNumber:
		return domain.Num(v.Float())
	default:
		return v
	}
}

func (e *memoryExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

// Reset implements §4.3 step 2's per-tick reset: clear only the node's
// transient output/error. The stored register survives across ticks — it
// is cleared on teardown (Store.Clear, called from Scheduler.Stop/Bus.Stop)
// so the sample-then-commit discipline of §4.6 carries the committed value
// from tick n-1 into tick n's output.
func (e *memoryExecutor) Reset(n *domain.Node, _ *NodeState) {
	n.Reset()
}
