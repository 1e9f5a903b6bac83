package loxvm

// objectKind tags the heap object sum type. Only strings exist today; the
// tag exists so that classes/functions (spec.md §1 Non-goals) have a
// documented extension point without reshaping every call site.
type objectKind int

const (
	objString objectKind = iota
)

// object is the heap object header of spec.md §3: a kind tag plus the
// intrusive `next` pointer that threads every live allocation onto the
// MemoryManager's sweep list. Go's GC already reclaims the backing memory;
// `next` exists purely to let the VM implement the bulk-free-at-shutdown
// contract spec.md §5 requires of a from-scratch heap.
type object struct {
	kind objectKind
	next *object

	str *objString
}

func (o *object) String() string {
	switch o.kind {
	case objString:
		return o.str.chars
	}
	return "<object>"
}

func (o *object) equal(other *object) bool {
	if o == other {
		return true
	}
	if o == nil || other == nil || o.kind != other.kind {
		return false
	}
	switch o.kind {
	case objString:
		return o.str.chars == other.str.chars
	}
	return false
}

// objString is a heap string: length, its precomputed FNV-1a hash, and its
// content. Go strings are already immutable UTF-8 byte sequences with a
// length and no implicit NUL terminator, so unlike the source material we
// don't need a manually managed trailing byte array -- but we keep the hash
// cached on the object exactly as spec.md §3 requires, since the hash table
// needs it on every probe.
type objString struct {
	chars string
	hash  uint32
}

func (s *objString) length() int { return len(s.chars) }

// fnv1a32 computes the 32-bit FNV-1a hash described in spec.md §4.3. The
// NUL terminator the source format appends to every string is folded in by
// hashing one trailing zero byte, so that hashes here match a C
// implementation's NUL-terminated hashing bit for bit.
func fnv1a32(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	h ^= 0 // NUL terminator
	h *= prime
	return h
}

// MemoryManager owns every heap object allocated during a VM's lifetime,
// threading them onto a singly linked list rooted here so that Free can
// walk and release them in one pass at shutdown (spec.md §5). It is the
// direct generalization of the teacher's Core/memCore ownership split: where
// memCore owned a paged integer arena for FORTH's flat memory model, this
// MemoryManager owns a heterogeneous object heap for Lox's tagged values.
type MemoryManager struct {
	objects *object
	bytes   int
}

// NewMemoryManager returns an empty heap.
func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

// allocateString allocates a new heap string object and links it onto the
// heap. Callers needing interned strings should go through
// stringInterner.intern instead, which deduplicates before allocating.
func (m *MemoryManager) allocateString(chars string) *object {
	s := &objString{chars: chars, hash: fnv1a32(chars)}
	o := &object{kind: objString, str: s, next: m.objects}
	m.objects = o
	m.bytes += s.length() + 1 // + NUL terminator, per spec.md §5's size accounting
	return o
}

// Free walks the heap's linked list once, releasing every object. Per
// spec.md §1's Non-goals, there is no per-object collection during
// execution -- only this one bulk sweep at VM shutdown.
func (m *MemoryManager) Free() {
	for o := m.objects; o != nil; {
		next := o.next
		if o.kind == objString {
			m.bytes -= o.str.length() + 1
		}
		o.next = nil
		o = next
	}
	m.objects = nil
}

// Bytes reports the manager's current bookkeeping total, exposed for tests
// asserting that Free releases everything it allocated.
func (m *MemoryManager) Bytes() int { return m.bytes }
