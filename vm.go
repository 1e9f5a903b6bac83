package loxvm

import (
	"errors"
	"fmt"
	"io"

	"github.com/jcorbin/loxvm/internal/flushio"
	"github.com/jcorbin/loxvm/internal/panicerr"
)

const defaultStackCapacity = 256

// VM interprets a Chunk: it owns the operand stack, the interned-string
// table, the global variable store, and the heap memory manager (spec.md
// §2/§4.9). It is single-threaded, synchronous, and non-reentrant (spec.md
// §5): each Interpret call compiles on the caller's goroutine and then runs
// the chunk on a single helper goroutine that it waits for, so the
// compiler/execution phases never run concurrently over the same chunk.
type VM struct {
	logging

	stack    []value
	stackCap int

	strings stringInterner
	globals *GlobalVariables
	mem     *MemoryManager

	out flushio.WriteFlusher
	err io.Writer
}

// New constructs a VM with the given options applied over the teacher-style
// functional-option defaults (stdout/stderr, a 256-slot stack per spec.md
// §3's RawStack invariant, and no trace logging).
func New(opts ...Option) *VM {
	vm := &VM{
		globals:  NewGlobalVariables(),
		mem:      NewMemoryManager(),
		stackCap: defaultStackCapacity,
	}
	defaultOptions.apply(vm)
	Options(opts...).apply(vm)
	return vm
}

// Close releases every heap object the VM ever allocated, in one bulk sweep
// (spec.md §5's Non-goal of a real garbage collector).
func (vm *VM) Close() {
	vm.mem.Free()
}

// Interpret compiles and runs one source unit against this VM's persistent
// globals/strings/heap (spec.md §4.9). Each REPL line is its own Interpret
// call, so globals declared on one line are visible on the next -- the
// store is owned by the VM, not by this call.
func (vm *VM) Interpret(source string) InterpretResult {
	c := newCompiler(source, vm.mem, &vm.strings, vm.globals)
	c.logf = vm.logf
	chunk, errs := c.compile()
	if chunk == nil {
		for _, e := range errs {
			vm.reportError(e.Error())
		}
		return InterpretCompileError
	}

	if err := panicerr.Recover("loxvm", func() error {
		return vm.run(chunk)
	}); err != nil {
		if rerr, ok := asRuntimeError(err); ok {
			vm.reportError(rerr.Error())
			return InterpretRuntimeError
		}
		vm.reportError(fmt.Sprintf("internal error: %v", err))
		return InterpretRuntimeError
	}
	if vm.out != nil {
		vm.out.Flush()
	}
	return InterpretOK
}

func asRuntimeError(err error) (runtimeError, bool) {
	var rerr runtimeError
	if errors.As(err, &rerr) {
		return rerr, true
	}
	return runtimeError{}, false
}

func (vm *VM) reportError(message string) {
	if vm.out != nil {
		vm.out.Flush()
	}
	fmt.Fprintln(vm.err, message)
}

//// operand stack (spec.md §3's RawStack, §4.9)

func (vm *VM) push(v value) {
	if len(vm.stack) >= vm.stackCap {
		panic(runtimeError{message: "Stack overflow."})
	}
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value {
	i := len(vm.stack) - 1
	v := vm.stack[i]
	vm.stack = vm.stack[:i]
	return v
}

func (vm *VM) peek(distance int) value {
	return vm.stack[len(vm.stack)-1-distance]
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
}

//// dispatch loop (spec.md §4.9)

// run interprets chunk to completion: a `return` opcode at top level halts
// successfully; any runtime error aborts execution by panicking a
// runtimeError, which Interpret recovers.
func (vm *VM) run(chunk *Chunk) error {
	ip := 0
	code := chunk.code

	readByte := func() byte {
		b := code[ip]
		ip++
		return b
	}
	readUint24Op := func() int {
		v := readUint24(code, ip)
		ip += 3
		return v
	}
	readConstant := func(idx int) value { return chunk.constants[idx] }

	lineOf := func(at int) int { return chunk.lineAt(at) }

	fail := func(message string) {
		vm.resetStack()
		panic(runtimeError{line: lineOf(ip - 1), message: message})
	}

	for {
		if vm.logfn != nil {
			vm.logf("%", "ip=%d op=%s stack=%v", ip, opCode(code[ip]), vm.stack)
		}

		op := opCode(readByte())
		switch op {
		case opReturn:
			return nil

		case opPrint:
			vm.writeValue(vm.pop())

		case opPop:
			vm.pop()

		case opConstant:
			vm.push(readConstant(int(readByte())))
		case opConstantLong:
			vm.push(readConstant(readUint24Op()))

		case opDefineGlobal:
			vm.globals.initialize(int(readByte()), vm.pop())
		case opDefineGlobalLong:
			vm.globals.initialize(readUint24Op(), vm.pop())

		case opReadGlobal:
			idx := int(readByte())
			v, err := vm.globals.readValue(idx)
			if err != nil {
				fail(err.Error())
			}
			vm.push(v)
		case opReadGlobalLong:
			idx := readUint24Op()
			v, err := vm.globals.readValue(idx)
			if err != nil {
				fail(err.Error())
			}
			vm.push(v)

		case opSetGlobal:
			idx := int(readByte())
			if err := vm.globals.storeValue(idx, vm.peek(0)); err != nil {
				fail(err.Error())
			}
		case opSetGlobalLong:
			idx := readUint24Op()
			if err := vm.globals.storeValue(idx, vm.peek(0)); err != nil {
				fail(err.Error())
			}

		case opReadLocal:
			slot := int(readByte())
			vm.push(vm.stack[slot])
		case opSetLocal:
			slot := int(readByte())
			vm.stack[slot] = vm.peek(0)

		case opJumpIfTrue:
			target := readUint24Op()
			if vm.peek(0).truthy() {
				ip = target
			}
		case opJumpIfFalse:
			target := readUint24Op()
			if !vm.peek(0).truthy() {
				ip = target
			}
		case opJump, opJumpLong:
			ip = readUint24Op()

		case opNil:
			vm.push(nilValue())
		case opTrue:
			vm.push(boolValue(true))
		case opFalse:
			vm.push(boolValue(false))

		case opNot:
			vm.stack[len(vm.stack)-1] = boolValue(!vm.peek(0).truthy())
		case opNegate:
			if !vm.peek(0).isNumber() {
				fail(msgOperandMustBeNumber)
			}
			vm.stack[len(vm.stack)-1] = numberValue(-vm.peek(0).number)

		case opEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(boolValue(a.equal(b)))
		case opLess:
			b, a, ok := vm.popNumberPair()
			if !ok {
				fail(msgOperandsMustBeNumbers)
			}
			vm.push(boolValue(a < b))
		case opGreater:
			b, a, ok := vm.popNumberPair()
			if !ok {
				fail(msgOperandsMustBeNumbers)
			}
			vm.push(boolValue(a > b))

		case opMatch:
			target := readUint24Op()
			pattern := vm.pop()
			scrutinee := vm.peek(0)
			if !scrutinee.equal(pattern) {
				ip = target
			}

		case opAdd:
			if vm.peek(0).isObject() && vm.peek(1).isObject() {
				if !vm.peek(0).isString() || !vm.peek(1).isString() {
					fail(msgOperandsMustBeStrings)
				}
				b, a := vm.pop(), vm.pop()
				concatenated := a.asString().chars + b.asString().chars
				obj := vm.strings.intern(vm.mem, concatenated)
				vm.push(objectValue(obj))
				break
			}
			b, a, ok := vm.popNumberPair()
			if !ok {
				fail(msgOperandsMustBeNumbers)
			}
			vm.push(numberValue(a + b))
		case opSubtract:
			b, a, ok := vm.popNumberPair()
			if !ok {
				fail(msgOperandsMustBeNumbers)
			}
			vm.push(numberValue(a - b))
		case opMultiply:
			b, a, ok := vm.popNumberPair()
			if !ok {
				fail(msgOperandsMustBeNumbers)
			}
			vm.push(numberValue(a * b))
		case opDivide:
			b, a, ok := vm.popNumberPair()
			if !ok {
				fail(msgOperandsMustBeNumbers)
			}
			vm.push(numberValue(a / b))

		default:
			fail(fmt.Sprintf("unknown opcode %d", op))
		}
	}
}

// popNumberPair pops the top two stack values in (rhs, lhs) source order
// and reports whether both were numbers, matching the binary arithmetic and
// comparison operand rule of spec.md §4.5.
func (vm *VM) popNumberPair() (b, a float64, ok bool) {
	bv, av := vm.pop(), vm.pop()
	if !bv.isNumber() || !av.isNumber() {
		return 0, 0, false
	}
	return bv.number, av.number, true
}

func (vm *VM) writeValue(v value) {
	fmt.Fprintln(vm.out, v.String())
}
