package runtime

import (
	"context"

	"github.com/expr-lang/expr"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

// switchExecutor implements the Switch node (§3, §4.6): stores the input
// value, then routes to exactly one of {active, inactive} each tick based
// on comparing Number(input) against Number(threshold).
type switchExecutor struct{}

func (e *switchExecutor) Execute(_ context.Context, node *domain.Node, state *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	v := rawInput(inputs, registry.HandleInput1)
	state.Stored = v
	return v, nil
}

// ActiveOutputHandles implements the switch condition: it compares the
// stored input value's numeric form against the threshold using the same
// expr-lang evaluation path as Comparison, so the operation set stays
// data-driven rather than a hardcoded switch statement.
func (e *switchExecutor) ActiveOutputHandles(node *domain.Node, state *NodeState, outputHandles []domain.Handle) []domain.Handle {
	if !state.Stored.IsDefined() {
		return nil
	}
	condition, _ := node.Metadata["condition"].(string)
	src, ok := switchExprs[domain.SwitchCondition(condition)]
	if !ok {
		return nil
	}
	threshold := numberMetadata(node.Metadata["threshold"])

	env := map[string]float64{"value": state.Stored.Float(), "threshold": threshold}
	program, err := compileCached(src, env)
	if err != nil {
		return nil
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return nil
	}
	active, _ := out.(bool)
	if active {
		return []domain.Handle{registry.HandleActive}
	}
	return []domain.Handle{registry.HandleInactive}
}

func (e *switchExecutor) Reset(n *domain.Node, _ *NodeState) { n.Reset() }

func numberMetadata(raw any) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
