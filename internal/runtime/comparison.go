package runtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

// comparisonPrograms caches a compiled expr.Program per operation so every
// Comparison/Switch node in a process shares one compile pass, matching the
// teacher's evaluateCondition which compiles once and reuses the *vm.Program.
var (
	comparisonProgramsMu sync.Mutex
	comparisonPrograms    = map[string]*vm.Program{}
)

var comparisonExprs = map[domain.ComparisonOp]string{
	domain.CmpEquals:       "a == b",
	domain.CmpGreater:      "a > b",
	domain.CmpLess:         "a < b",
	domain.CmpGreaterEqual: "a >= b",
	domain.CmpLessEqual:    "a <= b",
}

var switchExprs = map[domain.SwitchCondition]string{
	domain.SwitchGT:  "value > threshold",
	domain.SwitchGTE: "value >= threshold",
	domain.SwitchLT:  "value < threshold",
	domain.SwitchLTE: "value <= threshold",
	domain.SwitchEQ:  "value == threshold",
}

// compileCached compiles src once and caches the program, keyed by source
// text, against the environment shape env (used only to drive expr's type
// checker on first compile).
func compileCached(src string, env any) (*vm.Program, error) {
	comparisonProgramsMu.Lock()
	defer comparisonProgramsMu.Unlock()
	if p, ok := comparisonPrograms[src]; ok {
		return p, nil
	}
	p, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, err
	}
	comparisonPrograms[src] = p
	return p, nil
}

// comparisonExecutor implements the Comparison node (§3): two numeric
// inputs, one boolean output, operation selected by metadata.
type comparisonExecutor struct{}

func (e *comparisonExecutor) Execute(_ context.Context, node *domain.Node, _ *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	a := numericInput(inputs, registry.HandleInput1)
	b := numericInput(inputs, registry.HandleInput2)

	op, _ := node.Metadata["operation"].(string)
	src, ok := comparisonExprs[domain.ComparisonOp(op)]
	if !ok {
		return domain.Undefined, executionError(node, fmt.Sprintf("unknown comparison operation %q", op), nil)
	}

	env := map[string]float64{"a": a, "b": b}
	program, err := compileCached(src, env)
	if err != nil {
		return domain.Undefined, executionError(node, "failed to compile comparison expression", err)
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return domain.Undefined, executionError(node, "failed to evaluate comparison expression", err)
	}
	result, ok := out.(bool)
	if !ok {
		return domain.Undefined, executionError(node, "comparison expression did not evaluate to a boolean", nil)
	}
	return domain.Bool(result), nil
}

func (e *comparisonExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

func (e *comparisonExecutor) Reset(n *domain.Node, _ *NodeState) { n.Reset() }
