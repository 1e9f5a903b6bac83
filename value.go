package loxvm

import "fmt"

// valueKind tags the sum type described in spec.md §3.
type valueKind int

const (
	valNil valueKind = iota
	valBool
	valNumber
	valObject
)

// value is Lox's tagged union of nil, bool, number, and heap-object
// references. It is small and copied by value, the way the teacher's VM
// copies `int`s on and off its stack.
type value struct {
	kind   valueKind
	number float64
	bool   bool
	obj    *object
}

func nilValue() value              { return value{kind: valNil} }
func boolValue(b bool) value       { return value{kind: valBool, bool: b} }
func numberValue(n float64) value  { return value{kind: valNumber, number: n} }
func objectValue(o *object) value  { return value{kind: valObject, obj: o} }

func (v value) isNil() bool    { return v.kind == valNil }
func (v value) isBool() bool   { return v.kind == valBool }
func (v value) isNumber() bool { return v.kind == valNumber }
func (v value) isObject() bool { return v.kind == valObject }

func (v value) isString() bool {
	return v.kind == valObject && v.obj != nil && v.obj.kind == objString
}

func (v value) asString() *objString {
	return v.obj.str
}

// truthy implements spec.md §4.5: nil and false are falsey, everything else
// -- including 0 and the empty string -- is truthy.
func (v value) truthy() bool {
	switch v.kind {
	case valNil:
		return false
	case valBool:
		return v.bool
	default:
		return true
	}
}

// equal implements structural equality for primitives and, for heap objects,
// defers to kind-specific comparison (spec.md §3). Strings compare by
// content, but since the VM interns all strings, pointer equality and
// content equality agree; we compare content directly so equality holds
// even for values built before interning (e.g. test fixtures).
func (v value) equal(other value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case valNil:
		return true
	case valBool:
		return v.bool == other.bool
	case valNumber:
		return v.number == other.number
	case valObject:
		return v.obj.equal(other.obj)
	}
	return false
}

func (v value) String() string {
	switch v.kind {
	case valNil:
		return "nil"
	case valBool:
		if v.bool {
			return "true"
		}
		return "false"
	case valNumber:
		return formatNumber(v.number)
	case valObject:
		return v.obj.String()
	}
	return "<invalid value>"
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
