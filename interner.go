package loxvm

import "github.com/jcorbin/loxvm/internal/table"

// stringInterner is the VM's `strings` table of spec.md §4.3/§5: the unique
// set of heap strings, keyed by content. It does not own the heap pointers
// it holds -- the MemoryManager does -- it only guarantees that two strings
// of equal content resolve to the same *object.
type stringInterner struct {
	table table.Table
}

// intern returns the canonical *object for chars: an existing one if a
// string with equal content was interned before, otherwise a freshly
// allocated one registered for future lookups (spec.md §4.3's "String
// interning contract"). After this call, equality tests on the result may
// use pointer comparison.
func (in *stringInterner) intern(mem *MemoryManager, chars string) *object {
	hash := fnv1a32(chars)
	if existing, ok := in.table.Get(chars, hash); ok {
		return existing.(*object)
	}
	o := mem.allocateString(chars)
	in.table.Set(chars, hash, o)
	return o
}
