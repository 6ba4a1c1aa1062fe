package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/domain"
	domainerrors "github.com/bacflow/dataflow/internal/domain/errors"
	"github.com/bacflow/dataflow/internal/sandbox"
)

type stubSandbox struct {
	result any
	logs   []string
	err    error
}

func (s *stubSandbox) Execute(_ context.Context, _ string, _ map[string]any, _ int) (any, []string, error) {
	return s.result, s.logs, s.err
}

func TestFunctionExecutor_ReturnsConvertedResult(t *testing.T) {
	e := &functionExecutor{sandbox: &stubSandbox{result: 3.0}}
	node := &domain.Node{ID: "fn1", Kind: domain.KindFunction, Metadata: map[string]any{"source-code": "function execute(i){return i.a+1}"}}
	state := &NodeState{}

	out, err := e.Execute(context.Background(), node, state, map[domain.Handle]domain.Value{"a": domain.Num(2)})
	require.NoError(t, err)
	assert.Equal(t, domain.Num(3), out)
}

func TestFunctionExecutor_AcceptsInt64Result(t *testing.T) {
	e := &functionExecutor{sandbox: &stubSandbox{result: int64(5)}}
	node := &domain.Node{ID: "fn1", Kind: domain.KindFunction}
	state := &NodeState{}

	out, err := e.Execute(context.Background(), node, state, nil)
	require.NoError(t, err, "goja's Export() returns int64 for whole-number results; this must not be rejected as a bad type")
	assert.Equal(t, domain.Num(5), out)
}

func TestFunctionExecutor_RealSandbox_WholeNumberResultIsAccepted(t *testing.T) {
	e := &functionExecutor{sandbox: sandbox.New()}
	node := &domain.Node{
		ID:   "fn1",
		Kind: domain.KindFunction,
		Metadata: map[string]any{
			"source-code": `function execute(inputs) { return inputs.a + inputs.b; }`,
			"timeout-ms":  1000.0,
		},
	}
	state := &NodeState{}

	out, err := e.Execute(context.Background(), node, state, map[domain.Handle]domain.Value{
		"a": domain.Num(2),
		"b": domain.Num(3),
	})
	require.NoError(t, err, "a real goja script returning a whole-number sum must not be rejected as wrong-typed")
	assert.Equal(t, domain.Num(5), out)
}

func TestFunctionExecutor_RejectsNonNumberBooleanResult(t *testing.T) {
	e := &functionExecutor{sandbox: &stubSandbox{result: "a string"}}
	node := &domain.Node{ID: "fn1", Kind: domain.KindFunction}
	state := &NodeState{}

	_, err := e.Execute(context.Background(), node, state, nil)
	require.Error(t, err)
	var sbErr *domainerrors.SandboxError
	assert.ErrorAs(t, err, &sbErr)
}

func TestFunctionExecutor_WrapsSandboxFailure(t *testing.T) {
	e := &functionExecutor{sandbox: &stubSandbox{err: assert.AnError}}
	node := &domain.Node{ID: "fn1", Kind: domain.KindFunction}
	state := &NodeState{}

	_, err := e.Execute(context.Background(), node, state, nil)
	require.Error(t, err)
	var sbErr *domainerrors.SandboxError
	require.ErrorAs(t, err, &sbErr)
	assert.False(t, sbErr.Timeout)
}

func TestFunctionExecutor_CapturesConsoleLogs(t *testing.T) {
	e := &functionExecutor{sandbox: &stubSandbox{result: true, logs: []string{"hello"}}}
	node := &domain.Node{ID: "fn1", Kind: domain.KindFunction}
	state := &NodeState{}

	_, err := e.Execute(context.Background(), node, state, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, state.ConsoleLogs)
}
