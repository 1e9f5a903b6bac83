package loxvm

import (
	"fmt"
	"strings"
)

// DisassembleChunk renders chunk's bytecode as one line per instruction:
// offset, source line (or "|" when it repeats the previous line), mnemonic,
// and any operand. It is a debug-only aid (spec.md §1 notes the
// disassembler "constrains the bytecode format but is not required for
// correctness") -- never consulted by the compiler or VM, only by tests
// asserting on emitted bytecode and by the CLI's -dump flag.
func DisassembleChunk(chunk *Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	lastLine := -1
	for at := 0; at < len(chunk.code); {
		at, lastLine = disassembleInstruction(&b, chunk, at, lastLine)
	}
	return b.String()
}

func disassembleInstruction(b *strings.Builder, chunk *Chunk, at, lastLine int) (next, line int) {
	line = chunk.lineAt(at)
	fmt.Fprintf(b, "%04d ", at)
	if line == lastLine {
		fmt.Fprint(b, "   | ")
	} else {
		fmt.Fprintf(b, "%4d ", line)
	}

	op := opCode(chunk.code[at])
	switch op {
	case opConstant:
		return constantInstruction(b, op, chunk, at, 1), line
	case opConstantLong, opDefineGlobalLong, opReadGlobalLong, opSetGlobalLong:
		return constantInstruction(b, op, chunk, at, 3), line
	case opDefineGlobal, opReadGlobal, opSetGlobal:
		return byteInstruction(b, op, chunk, at), line
	case opReadLocal, opSetLocal:
		return byteInstruction(b, op, chunk, at), line
	case opJumpIfTrue, opJumpIfFalse, opJump, opJumpLong, opMatch:
		return jumpInstruction(b, op, chunk, at), line
	default:
		fmt.Fprintln(b, op)
		return at + 1, line
	}
}

func constantInstruction(b *strings.Builder, op opCode, chunk *Chunk, at, operandWidth int) int {
	var idx int
	if operandWidth == 1 {
		idx = int(chunk.code[at+1])
	} else {
		idx = readUint24(chunk.code, at+1)
	}
	fmt.Fprintf(b, "%-16s %4d '%v'\n", op, idx, chunk.constants[idx])
	return at + 1 + operandWidth
}

func byteInstruction(b *strings.Builder, op opCode, chunk *Chunk, at int) int {
	slot := chunk.code[at+1]
	fmt.Fprintf(b, "%-16s %4d\n", op, slot)
	return at + 2
}

func jumpInstruction(b *strings.Builder, op opCode, chunk *Chunk, at int) int {
	target := readUint24(chunk.code, at+1)
	fmt.Fprintf(b, "%-16s %4d -> %d\n", op, at, target)
	return at + 4
}

// Disassemble compiles source and returns its bytecode's disassembly
// without executing it, for the CLI's -dump mode. It never runs the chunk,
// so a source unit
// that would trigger a runtime error can still be dumped.
func (vm *VM) Disassemble(source string, name string) (string, []compileError) {
	c := newCompiler(source, vm.mem, &vm.strings, vm.globals)
	chunk, errs := c.compile()
	if chunk == nil {
		return "", errs
	}
	return DisassembleChunk(chunk, name), nil
}
