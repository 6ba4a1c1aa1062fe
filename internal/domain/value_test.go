package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacflow/dataflow/internal/domain"
)

func TestValue_Truthy(t *testing.T) {
	tests := []struct {
		name string
		v    domain.Value
		want bool
	}{
		{"undefined is falsy", domain.Undefined, false},
		{"zero number is falsy", domain.Num(0), false},
		{"nonzero number is truthy", domain.Num(0.1), true},
		{"negative number is truthy", domain.Num(-5), true},
		{"true bool is truthy", domain.Bool(true), true},
		{"false bool is falsy", domain.Bool(false), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Truthy())
		})
	}
}

func TestValue_Float(t *testing.T) {
	assert.Equal(t, 0.0, domain.Undefined.Float())
	assert.Equal(t, 5.0, domain.Num(5).Float())
	assert.Equal(t, 1.0, domain.Bool(true).Float())
	assert.Equal(t, 0.0, domain.Bool(false).Float())
}

func TestValueFromRaw(t *testing.T) {
	v, err := domain.ValueFromRaw(nil)
	require.NoError(t, err)
	assert.False(t, v.IsDefined())

	v, err = domain.ValueFromRaw(true)
	require.NoError(t, err)
	assert.Equal(t, domain.Bool(true), v)

	v, err = domain.ValueFromRaw(42.5)
	require.NoError(t, err)
	assert.Equal(t, domain.Num(42.5), v)

	v, err = domain.ValueFromRaw(int64(5))
	require.NoError(t, err, "goja's Export() returns int64 for whole-number script results")
	assert.Equal(t, domain.Num(5), v)

	_, err = domain.ValueFromRaw("not a wire value")
	assert.Error(t, err)
}

func TestValue_Raw(t *testing.T) {
	assert.Nil(t, domain.Undefined.Raw())
	assert.Equal(t, 3.0, domain.Num(3).Raw())
	assert.Equal(t, true, domain.Bool(true).Raw())
}
