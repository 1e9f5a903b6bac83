package loxvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternReturnsSamePointerForEqualContent(t *testing.T) {
	mem := NewMemoryManager()
	defer mem.Free()
	var in stringInterner

	a := in.intern(mem, "shared")
	b := in.intern(mem, "shared")
	require.Same(t, a, b)
}

func TestInternDistinctContentDifferentPointers(t *testing.T) {
	mem := NewMemoryManager()
	defer mem.Free()
	var in stringInterner

	a := in.intern(mem, "one")
	b := in.intern(mem, "two")
	require.NotSame(t, a, b)
}
