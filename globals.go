package loxvm

import (
	"fmt"

	"github.com/jcorbin/loxvm/internal/table"
)

// globalSlot is one entry in GlobalVariables.values: `defined` distinguishes
// "declared, not yet assigned" (the `none` of spec.md §3) from an assigned
// value of `nil`.
type globalSlot struct {
	value   value
	defined bool
}

// GlobalVariables pairs a name-to-index table with an indexed value array
// (spec.md §3/§4.4). One instance is shared, by pointer, between the
// compiler (which allocates and embeds indices into bytecode at compile
// time) and the VM (which reads and writes values at run time) -- the same
// single-owner-at-a-time discipline spec.md §5 describes for the heap and
// string table.
type GlobalVariables struct {
	names  table.Table
	values []globalSlot
}

// NewGlobalVariables returns an empty global store.
func NewGlobalVariables() *GlobalVariables {
	return &GlobalVariables{}
}

// index returns name's slot index, allocating a new (undefined) slot on
// first reference so that bytecode can address a global regardless of
// whether its declaration has executed yet (spec.md §4.4: "the resulting
// bytecode is position-independent with respect to the compile-order of
// variable declarations").
func (g *GlobalVariables) index(name string) int {
	hash := fnv1a32(name)
	if v, ok := g.names.Get(name, hash); ok {
		return v.(int)
	}
	idx := len(g.values)
	g.values = append(g.values, globalSlot{})
	g.names.Set(name, hash, idx)
	return idx
}

// initialize always writes value to the slot at idx; redeclaration is not
// an error (spec.md §4.4).
func (g *GlobalVariables) initialize(idx int, v value) {
	g.values[idx] = globalSlot{value: v, defined: true}
}

// readValue returns the value stored at idx, or an error if the slot was
// never initialized.
func (g *GlobalVariables) readValue(idx int) (value, error) {
	slot := g.values[idx]
	if !slot.defined {
		return value{}, fmt.Errorf(msgUndefinedVariable(g.nameAt(idx)))
	}
	return slot.value, nil
}

// storeValue overwrites the value at idx, failing if the slot was never
// initialized: assignment to an undeclared global is an error (spec.md
// §4.4).
func (g *GlobalVariables) storeValue(idx int, v value) error {
	if !g.values[idx].defined {
		return fmt.Errorf(msgUndefinedVariable(g.nameAt(idx)))
	}
	g.values[idx] = globalSlot{value: v, defined: true}
	return nil
}

// nameAt reverse-looks-up idx's name for error messages, a linear scan of
// the names table (spec.md §4.4: "used only for error messages").
func (g *GlobalVariables) nameAt(idx int) string {
	name := ""
	g.names.Each(func(key string, _ uint32, val interface{}) {
		if val.(int) == idx {
			name = key
		}
	})
	return name
}
