package loxvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTruthiness(t *testing.T) {
	require.False(t, nilValue().truthy())
	require.False(t, boolValue(false).truthy())
	require.True(t, boolValue(true).truthy())
	require.True(t, numberValue(0).truthy())
	require.True(t, numberValue(-1).truthy())
}

func TestValueEqualityAcrossKinds(t *testing.T) {
	require.True(t, nilValue().equal(nilValue()))
	require.False(t, nilValue().equal(boolValue(false)))
	require.True(t, numberValue(1).equal(numberValue(1)))
	require.False(t, numberValue(1).equal(numberValue(2)))
	require.True(t, boolValue(true).equal(boolValue(true)))
}

func TestValueStringFormatsIntegralNumbersWithoutDecimal(t *testing.T) {
	require.Equal(t, "3", numberValue(3).String())
	require.Equal(t, "3.5", numberValue(3.5).String())
	require.Equal(t, "nil", nilValue().String())
	require.Equal(t, "true", boolValue(true).String())
	require.Equal(t, "false", boolValue(false).String())
}

func TestValueIsStringOnlyForStringObjects(t *testing.T) {
	mem := NewMemoryManager()
	defer mem.Free()
	s := objectValue(mem.allocateString("hi"))
	require.True(t, s.isObject())
	require.True(t, s.isString())
	require.False(t, numberValue(1).isString())
}
