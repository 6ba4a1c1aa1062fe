package runtime

import (
	"context"
	"fmt"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

// calculationExecutor implements the Calculation node (§3): two numeric
// inputs, one numeric output, operation selected by metadata.
//
// The operation is chosen by a plain switch over the five calculation
// operations; division by zero and an unknown operation are reported as
// node execution errors.
type calculationExecutor struct{}

func (e *calculationExecutor) Execute(_ context.Context, node *domain.Node, _ *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	a := numericInput(inputs, registry.HandleInput1)
	b := numericInput(inputs, registry.HandleInput2)

	op, _ := node.Metadata["operation"].(string)
	switch domain.CalculationOp(op) {
	case domain.OpAdd:
		return domain.Num(a + b), nil
	case domain.OpSubtract:
		return domain.Num(a - b), nil
	case domain.OpMultiply:
		return domain.Num(a * b), nil
	case domain.OpDivide:
		if b == 0 {
			return domain.Undefined, executionError(node, "division by zero", nil)
		}
		return domain.Num(a / b), nil
	case domain.OpAverage:
		return domain.Num((a + b) / 2), nil
	default:
		return domain.Undefined, executionError(node, fmt.Sprintf("unknown calculation operation %q", op), nil)
	}
}

func (e *calculationExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

func (e *calculationExecutor) Reset(n *domain.Node, _ *NodeState) { n.Reset() }
