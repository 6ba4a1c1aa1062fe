package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/domain"
)

func TestDispatcher_ResolvesEveryKind(t *testing.T) {
	d := NewDispatcher(&stubSandbox{})
	kinds := append([]domain.NodeKind{}, domain.FieldPointKinds...)
	kinds = append(kinds,
		domain.KindCalculation, domain.KindComparison, domain.KindConstant,
		domain.KindSwitch, domain.KindTimer, domain.KindSchedule,
		domain.KindMemory, domain.KindFunction, domain.KindWriteSetpoint,
	)
	for _, k := range kinds {
		ex, err := d.For(k)
		require.NoError(t, err, "kind %s", k)
		assert.NotNil(t, ex)
	}
}

func TestDispatcher_UnknownKind(t *testing.T) {
	d := NewDispatcher(&stubSandbox{})
	_, err := d.For(domain.NodeKind("not-a-kind"))
	assert.Error(t, err)
}

func TestDispatcher_WithFunctionRetry_OnlyRewrapsFunction(t *testing.T) {
	d := NewDispatcher(&stubSandbox{})
	d.WithFunctionRetry(DefaultRetryPolicy())

	fn, err := d.For(domain.KindFunction)
	require.NoError(t, err)
	_, ok := fn.(*RetryingExecutor)
	assert.True(t, ok)

	calc, err := d.For(domain.KindCalculation)
	require.NoError(t, err)
	_, ok = calc.(*RetryingExecutor)
	assert.False(t, ok)
}
