package loxvm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalsIndexIsPositionIndependent(t *testing.T) {
	g := NewGlobalVariables()
	idx := g.index("a")
	// referencing before declaring still yields a usable slot
	_, err := g.readValue(idx)
	require.Error(t, err)

	g.initialize(idx, numberValue(1))
	v, err := g.readValue(idx)
	require.NoError(t, err)
	require.Equal(t, numberValue(1), v)
}

func TestGlobalsIndexIsStableAcrossReferences(t *testing.T) {
	g := NewGlobalVariables()
	require.Equal(t, g.index("a"), g.index("a"))
	require.NotEqual(t, g.index("a"), g.index("b"))
}

func TestGlobalsRedeclarationIsNotAnError(t *testing.T) {
	g := NewGlobalVariables()
	idx := g.index("a")
	g.initialize(idx, numberValue(1))
	g.initialize(idx, numberValue(2))
	v, err := g.readValue(idx)
	require.NoError(t, err)
	require.Equal(t, numberValue(2), v)
}

func TestGlobalsStoreToUndefinedIsError(t *testing.T) {
	g := NewGlobalVariables()
	idx := g.index("a")
	err := g.storeValue(idx, numberValue(1))
	require.Error(t, err)
}

func TestGlobalsNameAtReverseLookup(t *testing.T) {
	g := NewGlobalVariables()
	idx := g.index("hello")
	require.Equal(t, "hello", g.nameAt(idx))
}
