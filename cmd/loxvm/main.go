// Command loxvm runs Lox source: either one file given as an argument, or
// an interactive REPL reading from stdin when no argument is given
// (spec.md §6).
package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/jcorbin/loxvm"
	"github.com/jcorbin/loxvm/internal/fileinput"
	"github.com/jcorbin/loxvm/internal/logio"
)

func main() { os.Exit(run()) }

func run() int {
	var (
		trace bool
		dump  bool
	)
	flag.BoolVar(&trace, "trace", false, "log each dispatched opcode and compiler decision to stderr")
	flag.BoolVar(&dump, "dump", false, "disassemble compiled chunks to stderr instead of running them")
	flag.Parse()

	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "usage: loxvm [script]")
		return 64
	}

	log := logio.Logger{}
	log.SetOutput(os.Stderr)

	opts := []loxvm.Option{
		loxvm.WithStdout(os.Stdout),
		loxvm.WithStderr(os.Stderr),
	}
	if trace {
		opts = append(opts, loxvm.WithTrace(&log))
	}
	vm := loxvm.New(opts...)
	defer vm.Close()

	if flag.NArg() == 1 {
		return runFile(vm, flag.Arg(0), dump)
	}
	return runPrompt(vm, dump)
}

func runFile(vm *loxvm.VM, path string, dump bool) int {
	source, err := ioutil.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't read '%s': %v\n", path, err)
		return 66
	}
	return interpretOne(vm, string(source), path, dump)
}

// runPrompt feeds stdin to the VM one line at a time (spec.md §6's REPL),
// sharing one VM across lines so that globals persist: a `var` declared on
// one line is visible on the next. fileinput.Input supplies the runes; a
// fixed "> " prompt is printed before each line.
func runPrompt(vm *loxvm.VM, dump bool) int {
	input := &fileinput.Input{}
	input.Queue = append(input.Queue, namedReader{os.Stdin, "<stdin>"})

	var line []rune
	for {
		fmt.Fprint(os.Stdout, "> ")
		line = line[:0]
		for {
			r, _, err := input.ReadRune()
			for r == 0 && err == nil {
				r, _, err = input.ReadRune()
			}
			if err != nil {
				if len(line) > 0 {
					interpretOne(vm, string(line), "<stdin>", dump)
				}
				return 0
			}
			if r == '\n' {
				break
			}
			line = append(line, r)
		}
		interpretOne(vm, string(line), "<stdin>", dump)
	}
}

type namedReader struct {
	*os.File
	name string
}

func (nr namedReader) Name() string { return nr.name }

func interpretOne(vm *loxvm.VM, source, name string, dump bool) int {
	if dump {
		text, errs := vm.Disassemble(source, name)
		if len(errs) > 0 {
			for _, e := range errs {
				fmt.Fprintln(os.Stderr, e.Error())
			}
			return 65
		}
		fmt.Fprint(os.Stderr, text)
		return 0
	}

	switch vm.Interpret(source) {
	case loxvm.InterpretCompileError:
		return 65
	case loxvm.InterpretRuntimeError:
		return 70
	default:
		return 0
	}
}
