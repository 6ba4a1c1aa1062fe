package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/domain"
	"github.com/bacflow/dataflow/internal/registry"
)

func TestComparisonExecutor_Ops(t *testing.T) {
	tests := []struct {
		name string
		op   domain.ComparisonOp
		a, b float64
		want bool
	}{
		{"equals true", domain.CmpEquals, 5, 5, true},
		{"equals false", domain.CmpEquals, 5, 6, false},
		{"greater", domain.CmpGreater, 6, 5, true},
		{"less", domain.CmpLess, 4, 5, true},
		{"greater-equal", domain.CmpGreaterEqual, 5, 5, true},
		{"less-equal", domain.CmpLessEqual, 5, 5, true},
	}
	e := &comparisonExecutor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &domain.Node{ID: "cmp1", Kind: domain.KindComparison, Metadata: map[string]any{"operation": string(tt.op)}}
			inputs := map[domain.Handle]domain.Value{
				registry.HandleInput1: domain.Num(tt.a),
				registry.HandleInput2: domain.Num(tt.b),
			}
			out, err := e.Execute(context.Background(), node, nil, inputs)
			require.NoError(t, err)
			assert.Equal(t, domain.Bool(tt.want), out)
		})
	}
}

func TestComparisonExecutor_UnknownOperation(t *testing.T) {
	e := &comparisonExecutor{}
	node := &domain.Node{ID: "cmp1", Kind: domain.KindComparison, Metadata: map[string]any{"operation": "bogus"}}
	_, err := e.Execute(context.Background(), node, nil, map[domain.Handle]domain.Value{})
	assert.Error(t, err)
}
