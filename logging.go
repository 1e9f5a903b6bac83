package loxvm

import (
	"fmt"
	"strings"
)

// logging is the VM's optional trace channel (spec.md §10's "Observability"
// note): distinct from the stable diagnostics Interpret writes on compile
// and runtime errors, this is purely a debugging aid, off by default and
// enabled with WithTrace.
type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		mark = strings.Repeat(" ", n) + mark
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
