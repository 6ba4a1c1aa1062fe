package runtime

import (
	"context"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

// fieldPointExecutor implements all nine field point kinds. Field points
// are pure data sources/sinks over their discovered-properties metadata
// (§3): output nodes take the value on their "value" input handle as
// their own output (metadata is left unchanged); input/value nodes expose
// the current present-value metadata as their output.
//
// Grounded on the teacher's node_types.go field-point handling, adapted
// from its REST-facing object model to the metadata-bag shape spec §3
// describes.
type fieldPointExecutor struct{}

func (e *fieldPointExecutor) Execute(_ context.Context, node *domain.Node, _ *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	switch node.Direction() {
	case domain.DirectionSink:
		// Output field point: accept the incoming "value" edge, if any, and
		// surface it as the node's own output so the scheduler's §4.3 step 5
		// field-write enqueue can read it back.
		v := rawInput(inputs, registry.HandleValue)
		return v, nil
	default:
		// Input/value field points read present-value off discovered
		// properties populated by the point-discovery collaborator (§6).
		pv, ok := node.Metadata["present-value"]
		if !ok {
			return domain.Undefined, nil
		}
		v, err := domain.ValueFromRaw(pv)
		if err != nil {
			return domain.Undefined, err
		}
		return v, nil
	}
}

func (e *fieldPointExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

func (e *fieldPointExecutor) Reset(n *domain.Node, _ *NodeState) {
	n.Reset()
}
