package runtime

import (
	"context"
	"fmt"

	"github.com/bacflow/dataflow/internal/domain"
	domainerrors "github.com/bacflow/dataflow/internal/domain/errors"
	"github.com/bacflow/dataflow/internal/sandbox"
)

const defaultFunctionTimeoutMs = 5000

// functionExecutor implements the Function node (§3, §4.6): buffers one
// message per declared input handle, and once every declared input is
// present dispatches the sandbox with the assembled input map.
//
// In synchronous tick mode every declared input is gathered fresh each
// tick (the scheduler always supplies the full set or defaults it to
// undefined), so Execute always dispatches; the buffering/"fires when
// complete" discipline described in §4.6 is the Message Bus's concern in
// asynchronous mode (see internal/bus), reusing this same Sandbox call.
type functionExecutor struct {
	sandbox Sandbox
}

func (e *functionExecutor) Execute(ctx context.Context, node *domain.Node, state *NodeState, inputs map[domain.Handle]domain.Value) (domain.Value, error) {
	payload := make(map[string]any, len(inputs))
	for handle, v := range inputs {
		payload[string(handle)] = v.Raw()
	}

	sourceCode, _ := node.Metadata["source-code"].(string)
	timeoutMs := defaultFunctionTimeoutMs
	if raw, ok := node.Metadata["timeout-ms"]; ok {
		timeoutMs = int(numberMetadata(raw))
	}

	result, logs, err := e.sandbox.Execute(ctx, sourceCode, payload, timeoutMs)
	state.ConsoleLogs = logs
	if err != nil {
		return domain.Undefined, domainerrors.NewSandboxError(node.ID, err.Error(), logs, sandbox.IsTimeout(err), err)
	}

	switch result.(type) {
	case float64, int64, int, bool:
	default:
		msg := fmt.Sprintf("Function must return number or boolean, got %T", result)
		return domain.Undefined, domainerrors.NewSandboxError(node.ID, msg, logs, false, nil)
	}

	v, err := domain.ValueFromRaw(result)
	if err != nil {
		return domain.Undefined, executionError(node, err.Error(), err)
	}
	return v, nil
}

func (e *functionExecutor) ActiveOutputHandles(n *domain.Node, s *NodeState, outputHandles []domain.Handle) []domain.Handle {
	return defaultActiveOutputHandles(n, s, outputHandles)
}

// Reset implements §4.3 step 2's per-tick reset: clear only the node's
// transient output/error. The message-bus input buffer is untouched here —
// it belongs to the asynchronous path (internal/bus) and is cleared on
// teardown (Store.Clear, called from Scheduler.Stop/Bus.Stop), not on
// every synchronous tick.
func (e *functionExecutor) Reset(n *domain.Node, _ *NodeState) {
	n.Reset()
}
