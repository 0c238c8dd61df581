package solve

import (
	"fmt"

	"github.com/xgill-go/sixgill/internal/ir"
)

// SolverHashTable is a push/pop-scoped chaining hash table keyed by
// (frame id, key), mirroring internal/ir.Table's bucket/resize policy
// (double-plus-one on overflow, halve under a quarter load, never below
// minBuckets) so solver-local declaration caches grow the same way the
// rest of the IR does. Entries inserted in a frame are undone when that
// frame is popped, giving the BaseSolver's PushContext/PopContext an
// incremental cache instead of a full rebuild per query.
type SolverHashTable[T comparable, U any] struct {
	buckets [][]htEntry[T, U]
	entries int

	frames    []int // entries length snapshot at each PushFrame
	inserted  [][]T // keys inserted since the matching PushFrame, for undo
}

type htEntry[T comparable, U any] struct {
	key   T
	value U
	frame int
}

func NewSolverHashTable[T comparable, U any]() *SolverHashTable[T, U] {
	return &SolverHashTable[T, U]{buckets: make([][]htEntry[T, U], minBuckets)}
}

const minBuckets = 16

// keyHash buckets an arbitrary comparable key by hashing its formatted
// representation. A solver-local cache only needs within-process
// stability, not the cross-process determinism internal/ir's hash-cons
// tables require.
func keyHash[T comparable](k T) uint32 {
	return ir.HashString(fmt.Sprintf("%v", k))
}

// PushFrame begins a new scope; inserts made after this call are undone
// by the next PopFrame.
func (h *SolverHashTable[T, U]) PushFrame() {
	h.frames = append(h.frames, h.entries)
	h.inserted = append(h.inserted, nil)
}

// PopFrame discards every entry inserted since the matching PushFrame.
func (h *SolverHashTable[T, U]) PopFrame() {
	if len(h.frames) == 0 {
		return
	}
	top := len(h.frames) - 1
	keys := h.inserted[top]
	h.frames = h.frames[:top]
	h.inserted = h.inserted[:top]
	for _, k := range keys {
		h.remove(k)
	}
}

func (h *SolverHashTable[T, U]) depth() int { return len(h.frames) }

// Get looks up key across all live frames (innermost shadows outer,
// though in practice keys are frame-disjoint since Insert undoes on pop).
func (h *SolverHashTable[T, U]) Get(key T) (U, bool) {
	idx := int(keyHash(key) % uint32(len(h.buckets)))
	for i := len(h.buckets[idx]) - 1; i >= 0; i-- {
		if h.buckets[idx][i].key == key {
			return h.buckets[idx][i].value, true
		}
	}
	var zero U
	return zero, false
}

// Insert records key->value in the current frame (frame 0 if no
// PushFrame has been called yet).
func (h *SolverHashTable[T, U]) Insert(key T, value U) {
	idx := int(keyHash(key) % uint32(len(h.buckets)))
	h.buckets[idx] = append(h.buckets[idx], htEntry[T, U]{key: key, value: value, frame: h.depth()})
	h.entries++
	if len(h.frames) > 0 {
		top := len(h.frames) - 1
		h.inserted[top] = append(h.inserted[top], key)
	}
	h.maybeResize()
}

func (h *SolverHashTable[T, U]) remove(key T) {
	idx := int(keyHash(key) % uint32(len(h.buckets)))
	bucket := h.buckets[idx]
	for i := len(bucket) - 1; i >= 0; i-- {
		if bucket[i].key == key {
			h.buckets[idx] = append(bucket[:i], bucket[i+1:]...)
			h.entries--
			return
		}
	}
}

func (h *SolverHashTable[T, U]) maybeResize() {
	n := len(h.buckets)
	if h.entries > n {
		h.rehash(n*2 + 1)
		return
	}
	if n > minBuckets && n > 4*h.entries {
		newSize := n / 2
		if newSize < minBuckets {
			newSize = minBuckets
		}
		h.rehash(newSize)
	}
}

func (h *SolverHashTable[T, U]) rehash(newSize int) {
	newBuckets := make([][]htEntry[T, U], newSize)
	for _, bucket := range h.buckets {
		for _, e := range bucket {
			idx := int(keyHash(e.key) % uint32(newSize))
			newBuckets[idx] = append(newBuckets[idx], e)
		}
	}
	h.buckets = newBuckets
}

func (h *SolverHashTable[T, U]) Len() int { return h.entries }
