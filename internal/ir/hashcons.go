// Package ir is the immutable, hash-consed intermediate representation:
// types, fields, variables, expressions, bits, blocks and their
// control-flow graphs. Every exported node kind is interned through a
// Table so that structural equality collapses to pointer equality
// (spec.md §3 "Hash-consed value").
//
// Grounded on the teacher's single-representative-per-name pattern in
// std/compiler/ir.go (Compiler.types map[string]*TypeInfo, c.globals,
// c.typeIDs) generalized from "one map per concrete kind" to a reusable
// generic table, and on original_source/util/hashcons.cpp for the
// resize policy and refcount-by-source debugging instrument.
package ir

import "sync"

// Source names a holder of a reference to an interned node: another
// node, a cache, or a transient root. Used only for debug-mode leak
// diagnostics (§9: refcounting is a debug instrument in a GC'd port, not
// a memory-management mechanism).
type Source string

// HashCombine folds a child hash into an accumulator using the 32-bit
// ELF-style combination named in spec.md §3, so that hashes are stable
// across processes and independent of heap addresses.
func HashCombine(acc, h uint32) uint32 {
	acc = (acc << 4) + h
	if g := acc & 0xf0000000; g != 0 {
		acc ^= g >> 24
		acc &^= g
	}
	return acc
}

// HashString hashes a string deterministically (FNV-1a, 32-bit).
func HashString(s string) uint32 {
	const offset = 2166136261
	const prime = 16777619
	h := uint32(offset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// refState is the per-interned-node bookkeeping kept only when the
// owning Table runs in debug mode.
type refState struct {
	sources map[Source]int
	total   int
	stamp   uint64
}

const (
	minBuckets = 16
)

// Table is a generic hash-cons table: construct a candidate value of
// type T, call Intern, and get back the unique interned representative.
// hashFn/eqFn define node identity; T is normally a pointer type so that
// "same representative" is pointer equality after interning, matching
// the interning-injectivity invariant (spec.md §3, tested property 1).
type Table[T comparable] struct {
	mu      sync.Mutex
	buckets [][]T
	entries int

	hashFn func(T) uint32
	eqFn   func(a, b T) bool

	debug      bool
	refs       map[T]*refState
	nextStamp  uint64
	breakpoint uint64 // XGILL_REFERENCE stamp, 0 = disabled
}

// NewTable constructs an empty interning table. hashFn/eqFn must be
// consistent with Compare: compare(x,y)==0 implies hash(x)==hash(y)
// (spec.md §8 property 2).
func NewTable[T comparable](hashFn func(T) uint32, eqFn func(a, b T) bool) *Table[T] {
	return &Table[T]{
		buckets: make([][]T, minBuckets),
		hashFn:  hashFn,
		eqFn:    eqFn,
	}
}

// SetDebug turns on per-source refcount tracking and an optional
// allocation-stamp breakpoint (XGILL_REFERENCE).
func (t *Table[T]) SetDebug(debug bool, breakpointStamp uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.debug = debug
	t.breakpoint = breakpointStamp
	if debug && t.refs == nil {
		t.refs = make(map[T]*refState)
	}
}

// Intern returns the unique representative for cand. On a hit, the
// caller's candidate is discarded (its own child references are
// conceptually cancelled, DecMoveChildRefs in spec terms — in Go this
// is simply letting cand become garbage). On a miss, cand itself
// becomes the persisted representative.
func (t *Table[T]) Intern(cand T) (result T, hit bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := t.hashFn(cand)
	idx := int(h % uint32(len(t.buckets)))
	for _, existing := range t.buckets[idx] {
		if t.eqFn(existing, cand) {
			return existing, true
		}
	}

	t.buckets[idx] = append(t.buckets[idx], cand)
	t.entries++
	if t.debug {
		t.nextStamp++
		t.refs[cand] = &refState{sources: make(map[Source]int), stamp: t.nextStamp}
	}
	t.maybeResize()
	return cand, false
}

// maybeResize applies the bucket resize policy of spec.md §4.1: double
// plus one when load factor grows past 1, halve (never below
// minBuckets) when it drops below 1/4. Caller holds t.mu.
func (t *Table[T]) maybeResize() {
	n := len(t.buckets)
	if t.entries > n {
		t.rehash(n*2 + 1)
		return
	}
	if n > minBuckets && n > 4*t.entries {
		newSize := n / 2
		if newSize < minBuckets {
			newSize = minBuckets
		}
		t.rehash(newSize)
	}
}

func (t *Table[T]) rehash(newSize int) {
	newBuckets := make([][]T, newSize)
	for _, bucket := range t.buckets {
		for _, v := range bucket {
			h := t.hashFn(v)
			idx := int(h % uint32(newSize))
			newBuckets[idx] = append(newBuckets[idx], v)
		}
	}
	t.buckets = newBuckets
}

// Len returns the number of interned entries, mainly for tests.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries
}

// Ref records an additional holder of node, for leak diagnostics. No-op
// unless debug mode is on.
func (t *Table[T]) Ref(node T, src Source) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.debug {
		return
	}
	rs, ok := t.refs[node]
	if !ok {
		return
	}
	rs.sources[src]++
	rs.total++
	if t.breakpoint != 0 && rs.stamp == t.breakpoint {
		panic("ir: reference breakpoint hit (XGILL_REFERENCE)")
	}
}

// Deref removes a holder of node. Returns the remaining total refcount
// (debug mode only; always 0 otherwise).
func (t *Table[T]) Deref(node T, src Source) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.debug {
		return 0
	}
	rs, ok := t.refs[node]
	if !ok {
		return 0
	}
	if rs.sources[src] > 0 {
		rs.sources[src]--
		rs.total--
	}
	if rs.sources[src] == 0 {
		delete(rs.sources, src)
	}
	return rs.total
}

// LeakReport describes one still-referenced node found at teardown.
type LeakReport struct {
	Stamp   uint64
	Sources map[Source]int
}

// Leaks lists every interned node with a nonzero refcount, ordered by
// allocation stamp (earliest surviving stamp first per spec.md §3
// "the set of leaked roots ... must be reportable with the earliest
// surviving stamp").
func (t *Table[T]) Leaks() []LeakReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []LeakReport
	for _, rs := range t.refs {
		if rs.total > 0 {
			cp := make(map[Source]int, len(rs.sources))
			for k, v := range rs.sources {
				cp[k] = v
			}
			out = append(out, LeakReport{Stamp: rs.stamp, Sources: cp})
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Stamp < out[j-1].Stamp; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
