package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/domain"
)

func TestConstantExecutor_Number(t *testing.T) {
	e := &constantExecutor{}
	node := &domain.Node{Kind: domain.KindConstant, Metadata: map[string]any{"value-type": "number", "value": 3.5}}
	out, err := e.Execute(context.Background(), node, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Num(3.5), out)
}

func TestConstantExecutor_Boolean(t *testing.T) {
	e := &constantExecutor{}
	node := &domain.Node{Kind: domain.KindConstant, Metadata: map[string]any{"value-type": "boolean", "value": true}}
	out, err := e.Execute(context.Background(), node, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), out)
}

func TestConstantExecutor_StringIsNeverAWirePayload(t *testing.T) {
	e := &constantExecutor{}
	node := &domain.Node{Kind: domain.KindConstant, Metadata: map[string]any{"value-type": "string", "value": "hello"}}
	out, err := e.Execute(context.Background(), node, nil, nil)
	require.NoError(t, err)
	assert.False(t, out.IsDefined())
}

func TestConstantExecutor_TypeMismatchErrors(t *testing.T) {
	e := &constantExecutor{}
	node := &domain.Node{Kind: domain.KindConstant, Metadata: map[string]any{"value-type": "number", "value": "not a number"}}
	_, err := e.Execute(context.Background(), node, nil, nil)
	assert.Error(t, err)
}
