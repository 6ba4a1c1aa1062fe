package runtime

import (
	"context"

	"github.com/bacflow/dataflow/internal/domain"
)

// constantExecutor implements the Constant node (§3): no inputs, one
// output equal to its configured value for number/boolean value-types,
// undefined for string (strings are never legal wire payloads).
type constantExecutor struct{}

func (e *constantExecutor) Execute(_ context.Context, node *domain.Node, _ *NodeState, _ map[domain.Handle]domain.Value) (domain.Value, error) {
	valueType, _ := node.Metadata["value-type"].(string)
	switch domain.ValueType(valueType) {
	case domain.ValueTypeNumber:
		switch v := node.Metadata["value"].(type) {
		case float64:
			return domain.Num(v), nil
		case int:
			return domain.Num(float64(v)), nil
		default:
			return domain.Undefined, executionError(node, "constant value-type is number but value is not numeric", nil)
		}
	case domain.ValueTypeBoolean:
		b, ok := node.Metadata["value"].(bool)
		if !ok {
			return domain.Undefined, executionError(node, "constant value-type is boolean but value is not a boolean", nil)
		}
		return domain.Bool(b), nil
	default:
		// string, or unset: not a legal wire payload.
		return domain.Undefined, nil
	}
}

func (e *constantExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

func (e *constantExecutor) Reset(n *domain.Node, _ *NodeState) { n.Reset() }
