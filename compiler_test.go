package loxvm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func compileOK(t *testing.T, source string) *Chunk {
	t.Helper()
	c := newCompiler(source, NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	chunk, errs := c.compile()
	require.Empty(t, errs)
	require.NotNil(t, chunk)
	return chunk
}

func TestCompileAddition1Plus2(t *testing.T) {
	chunk := compileOK(t, "print 1 + 2;")
	dump := DisassembleChunk(chunk, "test")
	require.Contains(t, dump, "OP_CONSTANT")
	require.Contains(t, dump, "OP_ADD")
	require.Contains(t, dump, "OP_PRINT")
	require.Contains(t, dump, "OP_RETURN")
}

func TestCompileUsesLongConstantPastByteLimit(t *testing.T) {
	var src strings.Builder
	for i := 0; i < 300; i++ {
		src.WriteString("print 1;\n")
	}
	chunk := compileOK(t, src.String())
	dump := DisassembleChunk(chunk, "test")
	require.Contains(t, dump, "OP_CONSTANT_LONG")
}

func TestCompileErrorReportsLineAndLocation(t *testing.T) {
	c := newCompiler("print ;", NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	chunk, errs := c.compile()
	require.Nil(t, chunk)
	require.Len(t, errs, 1)
	require.Equal(t, 1, errs[0].line)
	require.Contains(t, errs[0].Error(), "at ';'")
	require.Contains(t, errs[0].Error(), msgExpectExpression)
}

func TestCompileSynchronizesAfterError(t *testing.T) {
	c := newCompiler("print ; print 1;", NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	_, errs := c.compile()
	require.Len(t, errs, 1, "the second, valid statement should not add a second error")
}

func TestCompileInvalidAssignmentTarget(t *testing.T) {
	c := newCompiler(`1 + 2 = 3;`, NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	_, errs := c.compile()
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Error(), msgInvalidAssignTarget)
}

func TestCompileLocalSelfReferenceInInitializerIsError(t *testing.T) {
	c := newCompiler(`{ var a = a; }`, NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	_, errs := c.compile()
	require.NotEmpty(t, errs)
}

func TestCompileUnlessWithElseIsError(t *testing.T) {
	c := newCompiler(`unless (true) { } else { }`, NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	_, errs := c.compile()
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Error(), msgUnlessWithElse)
}

func TestCompileMatchRequiresAtLeastOneArm(t *testing.T) {
	c := newCompiler(`match (1) { }`, NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	_, errs := c.compile()
	require.NotEmpty(t, errs)
}

func TestCompileMatchWildcardMustBeLast(t *testing.T) {
	c := newCompiler(`match (1) { _ -> print "x"; 1 -> print "y"; }`, NewMemoryManager(), &stringInterner{}, NewGlobalVariables())
	_, errs := c.compile()
	require.NotEmpty(t, errs)
}

func TestCompileEmitsLongJumpForUnconditionalJumps(t *testing.T) {
	chunk := compileOK(t, `if (true) { print 1; } else { print 2; }`)
	dump := DisassembleChunk(chunk, "test")
	// The else-skip jump is unconditional and must always use the long
	// encoding (spec.md §4.2), never the short OP_JUMP.
	require.NotContains(t, dump, "OP_JUMP ")
	require.Contains(t, dump, "OP_JUMP_LONG")
}
