package runtime

import (
	"context"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

// writeSetpointExecutor implements the Write-setpoint command node (§3):
// forwards its setpoint input to its output, which the scheduler reads in
// §4.3 step 5 to enqueue a field-write request. priority/write-mode are
// read out of metadata by the scheduler, not by this executor.
type writeSetpointExecutor struct{}

func (e *writeSetpointExecutor) Execute(_ context.Context, _ *domain.Node, _ *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	return rawInput(inputs, registry.HandleSetpoint), nil
}

func (e *writeSetpointExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

func (e *writeSetpointExecutor) Reset(n *domain.Node, _ *NodeState) { n.Reset() }
