package loxvm

import (
	"io"
	"os"

	"github.com/jcorbin/loxvm/internal/flushio"
	"github.com/jcorbin/loxvm/internal/logio"
)

// Option configures a VM at construction time (spec.md §10's ambient-stack
// note), following the teacher's functional-options pattern: each concrete
// option type implements apply, and Options flattens/collapses a slice of
// them into one.
type Option interface{ apply(vm *VM) }

var defaultOptions = Options(
	withOutput(os.Stdout),
	withErrOutput(os.Stderr),
)

// Options flattens opts into a single Option, so New and tests can build
// up option lists incrementally without special-casing nil or empty slices.
func Options(opts ...Option) Option {
	var res optionList
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case optionList:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*VM) {}

type optionList []Option

func (opts optionList) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

type withLogfn func(mess string, args ...interface{})

func (fn withLogfn) apply(vm *VM) { vm.logfn = fn }

// WithTrace enables the VM's trace-log channel, writing one TRACE-leveled
// line per dispatched instruction through log (spec.md §10's optional trace
// channel, distinct from the stable stderr diagnostics of compile/runtime
// errors).
func WithTrace(log *logio.Logger) Option {
	return withLogfn(log.Leveledf("TRACE"))
}

type outputOption struct{ io.Writer }
type errOutputOption struct{ io.Writer }
type stackCapacityOption int

func withOutput(w io.Writer) outputOption       { return outputOption{w} }
func withErrOutput(w io.Writer) errOutputOption { return errOutputOption{w} }

// WithStdout directs `print` output to w (spec.md §6), flushing whatever had
// previously been written before switching streams.
func WithStdout(w io.Writer) Option { return withOutput(w) }

// WithStderr directs compile/runtime diagnostics to w (spec.md §7).
func WithStderr(w io.Writer) Option { return withErrOutput(w) }

// WithStackCapacity overrides the VM's operand stack capacity (spec.md §3's
// RawStack); the default is defaultStackCapacity.
func WithStackCapacity(n int) Option { return stackCapacityOption(n) }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o errOutputOption) apply(vm *VM) { vm.err = o.Writer }

func (n stackCapacityOption) apply(vm *VM) { vm.stackCap = int(n) }
