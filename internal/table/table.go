// Package table implements the open-addressed, linear-probing,
// tombstone-preserving hash table that loxvm uses both for its string
// interner and for the compiler's global-name-to-index map.
//
// It is factored out of the VM/compiler packages because it has exactly one
// job and is exercised from two independent call sites; keeping it isolated
// lets it carry its own focused test suite, the way the teacher isolates
// single-concern helpers (flushio, runeio, panicerr) under internal/.
package table

// slotState distinguishes an empty slot from a tombstone from a live entry.
// An empty slot is simply the absence of an entry; Go's zero-valued slice
// element already represents it, so slotState only needs to tell tombstone
// apart from live.
type slotState uint8

const (
	slotEmpty slotState = iota
	slotTombstone
	slotLive
)

type slot struct {
	key   string
	hash  uint32
	value interface{}
	state slotState
}

const (
	initialCapacity = 8
	maxLoadFactor   = 0.75
	growthFactor    = 1.6
)

// Table is an open-addressed hash table keyed by string content (compared
// with its caller-supplied precomputed hash, the way loxvm caches an
// objString's FNV-1a hash rather than recomputing it on every probe).
//
// Count includes both live entries and tombstones, matching spec: deleting
// an entry does not shrink Count, since the slot's probe sequence must stay
// intact for any entry that hashed past it.
type Table struct {
	entries []slot
	count   int
}

// Len reports the number of live (non-tombstone) entries.
func (t *Table) Len() int {
	n := 0
	for _, e := range t.entries {
		if e.state == slotLive {
			n++
		}
	}
	return n
}

// Get looks up key (whose hash the caller supplies, typically cached on a
// heap string) and reports its value and whether it was found.
func (t *Table) Get(key string, hash uint32) (interface{}, bool) {
	if len(t.entries) == 0 {
		return nil, false
	}
	i := t.findSlot(key, hash)
	if t.entries[i].state == slotLive {
		return t.entries[i].value, true
	}
	return nil, false
}

// Has reports whether key is present, without returning its value.
func (t *Table) Has(key string, hash uint32) bool {
	_, ok := t.Get(key, hash)
	return ok
}

// Set inserts or overwrites key's value, growing the backing array first if
// the insertion would push the load factor past 0.75 (spec.md §4.3). It
// reports whether this was a new insertion (true) or an overwrite (false).
func (t *Table) Set(key string, hash uint32, value interface{}) (isNew bool) {
	if len(t.entries) == 0 {
		t.entries = make([]slot, initialCapacity)
	} else if float64(t.count+1) > maxLoadFactor*float64(len(t.entries)) {
		t.grow()
	}

	i := t.findSlot(key, hash)
	e := &t.entries[i]
	isNew = e.state != slotLive
	if e.state == slotEmpty {
		t.count++
	}
	e.key, e.hash, e.value, e.state = key, hash, value, slotLive
	return isNew
}

// Delete tombstones key's slot if present, preserving the probe sequence of
// any entry that hashed past it. Count is left unchanged (spec.md §4.3).
func (t *Table) Delete(key string, hash uint32) bool {
	if len(t.entries) == 0 {
		return false
	}
	i := t.findSlot(key, hash)
	if t.entries[i].state != slotLive {
		return false
	}
	t.entries[i] = slot{state: slotTombstone}
	return true
}

// findSlot is the core probing primitive of spec.md §4.3: walk forward
// (wrapping) from hash mod capacity until either a live entry with the same
// key is found, or an empty slot is reached -- returning the first tombstone
// seen along the way if the probe passed one, so that deletions leave the
// hole behind them reusable.
func (t *Table) findSlot(key string, hash uint32) int {
	capacity := uint32(len(t.entries))
	i := hash % capacity
	var tombstone = -1
	for {
		e := &t.entries[i]
		switch e.state {
		case slotEmpty:
			if tombstone >= 0 {
				return tombstone
			}
			return int(i)
		case slotTombstone:
			if tombstone < 0 {
				tombstone = int(i)
			}
		case slotLive:
			if e.hash == hash && e.key == key {
				return int(i)
			}
		}
		i = (i + 1) % capacity
	}
}

// grow reallocates the backing array at max(8, ceil(count * 1.6)) slots and
// rehashes every live entry, dropping tombstones (spec.md §4.3).
func (t *Table) grow() {
	newCap := int(float64(t.count)*growthFactor + 0.9999999)
	if newCap < initialCapacity {
		newCap = initialCapacity
	}

	old := t.entries
	t.entries = make([]slot, newCap)
	t.count = 0
	for _, e := range old {
		if e.state == slotLive {
			i := t.findSlot(e.key, e.hash)
			t.entries[i] = e
			t.count++
		}
	}
}

// Each calls fn once per live entry, in backing-array order. It exists for
// reverse lookups (e.g. mapping a global's slot index back to its name for
// an error message) where a linear scan is the only option.
func (t *Table) Each(fn func(key string, hash uint32, value interface{})) {
	for _, e := range t.entries {
		if e.state == slotLive {
			fn(e.key, e.hash, e.value)
		}
	}
}
