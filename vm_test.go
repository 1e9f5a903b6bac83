package loxvm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// runSource interprets source against a fresh VM and returns its stdout,
// stderr, and result, mirroring the eight concrete scenarios of spec.md §8.
func runSource(t *testing.T, source string) (stdout, stderr string, result InterpretResult) {
	t.Helper()
	var out, err bytes.Buffer
	vm := New(WithStdout(&out), WithStderr(&err))
	defer vm.Close()
	result = vm.Interpret(source)
	return out.String(), err.String(), result
}

func TestArithmeticPrecedence(t *testing.T) {
	out, _, result := runSource(t, "print 1 + 2 * 3;")
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "7\n", out)
}

func TestStringInterningEquality(t *testing.T) {
	out, _, result := runSource(t, `var a = "foo"; var b = "foo"; print a == b;`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "true\n", out)
}

func TestBlockScopeShadowing(t *testing.T) {
	out, _, result := runSource(t, `{ var x = 1; { var x = 2; print x; } print x; }`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "2\n1\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, _, result := runSource(t, `var i = 0; while (i < 3) { print i; i = i + 1; }`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestUnicodeEscape(t *testing.T) {
	// spec.md §8 scenario 5: a é escape (e acute) decodes to its UTF-8
	// rendering at print time.
	source := "print \"caf\\u00e9;\";"
	out, _, result := runSource(t, source)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "caf"+string(rune(0x00e9))+"\n", out)
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, errOut, result := runSource(t, `print undefined_name;`)
	require.Equal(t, InterpretRuntimeError, result)
	require.Equal(t, "1: error: Runtime Error: Undefined variable 'undefined_name'\n", errOut)
}

func TestAddingNumberAndStringIsRuntimeError(t *testing.T) {
	_, errOut, result := runSource(t, `print 1 + "x";`)
	require.Equal(t, InterpretRuntimeError, result)
	require.Equal(t, "1: error: Runtime Error: Operands must both be numbers.\n", errOut)
}

func TestEmptyInput(t *testing.T) {
	out, errOut, result := runSource(t, ``)
	require.Equal(t, InterpretOK, result)
	require.Empty(t, out)
	require.Empty(t, errOut)
}

func TestGlobalsPersistAcrossInterpretCalls(t *testing.T) {
	var out bytes.Buffer
	vm := New(WithStdout(&out))
	defer vm.Close()
	require.Equal(t, InterpretOK, vm.Interpret(`var count = 0;`))
	require.Equal(t, InterpretOK, vm.Interpret(`count = count + 1; print count;`))
	require.Equal(t, InterpretOK, vm.Interpret(`count = count + 1; print count;`))
	require.Equal(t, "1\n2\n", out.String())
}

func TestMatchStatement(t *testing.T) {
	out, _, result := runSource(t, `
		var x = 2;
		match (x) {
			1 -> print "one";
			2 -> print "two";
			_ -> print "other";
		}
	`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "two\n", out)
}

func TestMatchFallsThroughToWildcard(t *testing.T) {
	out, _, result := runSource(t, `
		match (99) {
			1 -> print "one";
			_ -> print "other";
		}
	`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "other\n", out)
}

func TestUnlessStatement(t *testing.T) {
	out, _, result := runSource(t, `unless (false) { print "shown"; }`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "shown\n", out)
}

func TestUnlessWithElseIsCompileError(t *testing.T) {
	_, _, result := runSource(t, `unless (false) { print "x"; } else { print "y"; }`)
	require.Equal(t, InterpretCompileError, result)
}

func TestUntilLoop(t *testing.T) {
	out, _, result := runSource(t, `var i = 0; until (i == 3) { print i; i = i + 1; }`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestForLoopAllClausesOptional(t *testing.T) {
	// Every clause of the C-style for loop is independently optional
	// (spec.md §4.7); this omits all three and relies on `break` to
	// terminate, exercising the loop's fully-desugared jump wiring
	// (initializer/condition/increment/body) together with break's jump
	// registration.
	out, _, result := runSource(t, `
		var i = 0;
		for (;;) {
			if (i >= 3) break;
			print i;
			i = i + 1;
		}
	`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "0\n1\n2\n", out)
}

func TestBreakExitsNestedLoopOnly(t *testing.T) {
	out, _, result := runSource(t, `
		for (var i = 0; i < 2; i = i + 1) {
			var j = 0;
			while (true) {
				if (j >= 2) break;
				print j;
				j = j + 1;
			}
		}
	`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "0\n1\n0\n1\n", out)
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	_, _, result := runSource(t, `break;`)
	require.Equal(t, InterpretCompileError, result)
}

func TestStringConcatenation(t *testing.T) {
	out, _, result := runSource(t, `print "foo" + "bar";`)
	require.Equal(t, InterpretOK, result)
	require.Equal(t, "foobar\n", out)
}
