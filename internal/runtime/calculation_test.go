package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

func TestCalculationExecutor_Ops(t *testing.T) {
	tests := []struct {
		name string
		op   domain.CalculationOp
		a, b float64
		want float64
	}{
		{"add", domain.OpAdd, 2, 3, 5},
		{"subtract", domain.OpSubtract, 5, 3, 2},
		{"multiply", domain.OpMultiply, 4, 3, 12},
		{"divide", domain.OpDivide, 9, 3, 3},
		{"average", domain.OpAverage, 4, 6, 5},
	}
	e := &calculationExecutor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &domain.Node{ID: "calc1", Kind: domain.KindCalculation, Metadata: map[string]any{"operation": string(tt.op)}}
			inputs := map[domain.Handle]domain.Value{
				registry.HandleInput1: domain.Num(tt.a),
				registry.HandleInput2: domain.Num(tt.b),
			}
			out, err := e.Execute(context.Background(), node, nil, inputs)
			require.NoError(t, err)
			assert.Equal(t, domain.Num(tt.want), out)
		})
	}
}

func TestCalculationExecutor_DivideByZero(t *testing.T) {
	e := &calculationExecutor{}
	node := &domain.Node{ID: "calc1", Kind: domain.KindCalculation, Metadata: map[string]any{"operation": "divide"}}
	inputs := map[domain.Handle]domain.Value{
		registry.HandleInput1: domain.Num(1),
		registry.HandleInput2: domain.Num(0),
	}
	_, err := e.Execute(context.Background(), node, nil, inputs)
	assert.Error(t, err)
}

func TestCalculationExecutor_MissingInputsDefaultToZero(t *testing.T) {
	e := &calculationExecutor{}
	node := &domain.Node{ID: "calc1", Kind: domain.KindCalculation, Metadata: map[string]any{"operation": "add"}}
	out, err := e.Execute(context.Background(), node, nil, map[domain.Handle]domain.Value{})
	require.NoError(t, err)
	assert.Equal(t, domain.Num(0), out)
}
