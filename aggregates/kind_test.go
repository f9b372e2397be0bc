package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{Int8, "i8"},
		{Uint16, "u16"},
		{Int64, "i64"},
		{Float32, "f32"},
		{Float64, "f64"},
		{Unknown, "unknown"},
		{Kind(200), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.kind.String())
	}
}

func TestKind_Properties(t *testing.T) {
	assert.True(t, Float32.IsFloat())
	assert.True(t, Float64.IsFloat())
	assert.False(t, Int64.IsFloat())

	assert.True(t, Int8.IsSigned())
	assert.True(t, Float64.IsSigned())
	assert.False(t, Uint64.IsSigned())
	assert.False(t, Unknown.IsSigned())
}

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"f64":      Float64,
		"F32":      Float32,
		" double ": Float64,
		"float":    Float32,
		"int16":    Int16,
		"u64":      Uint64,
		"uint8":    Uint8,
	} {
		got, err := ParseKind(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseKind("decimal")
	assert.Error(t, err)
	_, err = ParseKind("unknown")
	assert.Error(t, err)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Int8, KindOf[int8]())
	assert.Equal(t, Int64, KindOf[int]())
	assert.Equal(t, Uint64, KindOf[uint]())
	assert.Equal(t, Uint32, KindOf[uint32]())
	assert.Equal(t, Float32, KindOf[float32]())
	assert.Equal(t, Float64, KindOf[float64]())

	type celsius float64
	assert.Equal(t, Unknown, KindOf[celsius]())
}
