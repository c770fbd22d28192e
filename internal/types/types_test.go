package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("INT64", Int64.String())
	assert.Equal("DOUBLE", Double.String())
	assert.Equal("DATE32", Date32.String())
	assert.Equal("STRING", String.String())
}

func TestConstructorsAndAccessors(t *testing.T) {
	assert := assert.New(t)
	{
		d := NewInt64(42)
		assert.Equal(Int64, d.Kind)
		assert.Equal(int64(42), d.AsInt64())
		assert.Equal(float64(42), d.AsFloat64())
	}
	{
		d := NewDouble(3.5)
		assert.Equal(Double, d.Kind)
		assert.Equal(3.5, d.AsDouble())
		assert.Equal(3.5, d.AsFloat64())
	}
	{
		d := NewDate32(19000)
		assert.Equal(Date32, d.Kind)
		assert.Equal(int32(19000), d.AsDate32())
	}
	{
		d := NewString(7)
		assert.Equal(String, d.Kind)
		assert.Equal(uint32(7), d.AsCode())
	}
}

func TestAsFloat64PanicsOnString(t *testing.T) {
	assert.Panics(t, func() {
		NewString(0).AsFloat64()
	})
}

func TestTruthy(t *testing.T) {
	assert := assert.New(t)
	assert.True(NewInt64(1).Truthy())
	assert.False(NewInt64(0).Truthy())
	assert.True(NewDouble(0.1).Truthy())
	assert.False(NewDouble(0).Truthy())
}

func TestEqual(t *testing.T) {
	assert := assert.New(t)
	assert.True(NewInt64(5).Equal(NewInt64(5)))
	assert.False(NewInt64(5).Equal(NewInt64(6)))
	assert.False(NewInt64(5).Equal(NewDouble(5)))
	assert.True(NewDouble(1.5).Equal(NewDouble(1.5)))
}

func TestCompareSameKind(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(-1, NewInt64(1).Compare(NewInt64(2)))
	assert.Equal(1, NewInt64(2).Compare(NewInt64(1)))
	assert.Equal(0, NewInt64(2).Compare(NewInt64(2)))
	assert.Equal(-1, NewDouble(1.0).Compare(NewDouble(2.0)))
}

func TestHashStableForEqualDatums(t *testing.T) {
	assert := assert.New(t)
	a := NewInt64(10).Hash(0)
	b := NewInt64(10).Hash(0)
	assert.Equal(a, b)

	c := NewInt64(11).Hash(0)
	assert.NotEqual(a, c)

	fa := NewDouble(math.Pi).Hash(1)
	fb := NewDouble(math.Pi).Hash(1)
	assert.Equal(fa, fb)
}
