package arena

import "iter"

type entry[V any] struct {
	generation uint32
	occupied   bool
	value      V
}

// Arena is stable-index typed storage with slot reuse.
//
// Lookups with a removed, stale or never-issued Index return "absent"; they
// are routine outcomes, not errors.
//
// Thread Safety:
//
//	Arena is NOT thread-safe. The owner (e.g. graph.Graph) serializes access.
//	The Allocator it draws handles from is safe to share.
type Arena[V any] struct {
	alloc   *Allocator
	entries []entry[V]
	live    int
}

// New creates an arena with its own private allocator.
func New[V any]() *Arena[V] {
	return NewShared[V](NewAllocator(0), 0)
}

// NewShared creates an arena that draws handles from alloc. Several arenas,
// or a staging area reserving handles ahead of Place, may share one allocator.
func NewShared[V any](alloc *Allocator, capacity int) *Arena[V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena[V]{
		alloc:   alloc,
		entries: make([]entry[V], 0, capacity),
	}
}

// Allocator returns the allocator backing this arena.
func (a *Arena[V]) Allocator() *Allocator {
	return a.alloc
}

// Insert stores value in a fresh or reused slot and returns its handle.
func (a *Arena[V]) Insert(value V) Index {
	idx := a.alloc.Alloc()
	a.Place(idx, value)
	return idx
}

// Place stores value under a handle previously reserved with Allocator.Alloc.
// It returns false if idx is not currently allocated or the slot is occupied.
func (a *Arena[V]) Place(idx Index, value V) bool {
	if !a.alloc.IsAllocated(idx) {
		return false
	}
	a.grow(idx.Slot)
	e := &a.entries[idx.Slot]
	if e.occupied {
		return false
	}
	e.generation = idx.Generation
	e.occupied = true
	e.value = value
	a.live++
	return true
}

// Get returns the value behind idx.
func (a *Arena[V]) Get(idx Index) (V, bool) {
	if e := a.lookup(idx); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// GetMut returns a pointer to the value behind idx, or nil if absent.
// The pointer is invalidated by the next Insert or Place.
func (a *Arena[V]) GetMut(idx Index) *V {
	if e := a.lookup(idx); e != nil {
		return &e.value
	}
	return nil
}

// Contains reports whether idx resolves to a live value.
func (a *Arena[V]) Contains(idx Index) bool {
	return a.lookup(idx) != nil
}

// Replace swaps the value behind idx, returning the previous one.
func (a *Arena[V]) Replace(idx Index, value V) (V, bool) {
	e := a.lookup(idx)
	if e == nil {
		var zero V
		return zero, false
	}
	old := e.value
	e.value = value
	return old, true
}

// Remove tombstones the slot behind idx and returns the removed value.
// The slot generation is bumped so idx never resolves again.
func (a *Arena[V]) Remove(idx Index) (V, bool) {
	e := a.lookup(idx)
	if e == nil {
		var zero V
		return zero, false
	}
	old := e.value
	var zero V
	e.value = zero
	e.occupied = false
	a.live--
	a.alloc.Free(idx)
	return old, true
}

// Len returns the number of live values.
func (a *Arena[V]) Len() int {
	return a.live
}

// Iter yields live (Index, value) pairs in slot order, skipping tombstones.
// The order is stable across calls on an unmutated arena.
func (a *Arena[V]) Iter() iter.Seq2[Index, V] {
	return func(yield func(Index, V) bool) {
		for slot := range a.entries {
			e := &a.entries[slot]
			if !e.occupied {
				continue
			}
			if !yield(Index{Slot: uint32(slot), Generation: e.generation}, e.value) {
				return
			}
		}
	}
}

func (a *Arena[V]) lookup(idx Index) *entry[V] {
	if idx.IsEmpty() || int(idx.Slot) >= len(a.entries) {
		return nil
	}
	e := &a.entries[idx.Slot]
	if !e.occupied || e.generation != idx.Generation {
		return nil
	}
	return e
}

func (a *Arena[V]) grow(slot uint32) {
	if int(slot) < len(a.entries) {
		return
	}
	need := int(slot) + 1
	if need <= cap(a.entries) {
		a.entries = a.entries[:need]
		return
	}
	grown := make([]entry[V], need, max(need, 2*cap(a.entries)))
	copy(grown, a.entries)
	a.entries = grown
}
