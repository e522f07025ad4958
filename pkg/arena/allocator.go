package arena

import (
	"math"
	"sync"
)

// Allocator hands out slot handles and tracks slot generations.
//
// Freed slots are reused LIFO. Each Free bumps the slot generation, so a
// reused slot always carries a strictly larger generation than any handle
// previously issued for it. A slot whose generation would wrap around is
// retired and never reused.
//
// Thread Safety:
//
//	All methods are safe for concurrent use.
type Allocator struct {
	mu        sync.Mutex
	gens      []uint32 // current generation per slot
	allocated []bool
	free      []uint32
	retired   int
}

// NewAllocator creates an allocator with room for capacity slots.
func NewAllocator(capacity int) *Allocator {
	if capacity < 0 {
		capacity = 0
	}
	return &Allocator{
		gens:      make([]uint32, 0, capacity),
		allocated: make([]bool, 0, capacity),
	}
}

// Alloc reserves a slot and returns its handle.
func (a *Allocator) Alloc() Index {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := len(a.free); n > 0 {
		slot := a.free[n-1]
		a.free = a.free[:n-1]
		a.allocated[slot] = true
		return Index{Slot: slot, Generation: a.gens[slot]}
	}

	slot := uint32(len(a.gens))
	a.gens = append(a.gens, 1)
	a.allocated = append(a.allocated, true)
	return Index{Slot: slot, Generation: 1}
}

// Free releases the slot behind idx. It returns false if idx is empty, stale
// or was never allocated, in which case nothing changes.
func (a *Allocator) Free(idx Index) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.liveLocked(idx) {
		return false
	}

	a.allocated[idx.Slot] = false
	if a.gens[idx.Slot] == math.MaxUint32 {
		// Generation space exhausted: keep the slot out of circulation.
		a.retired++
		return true
	}
	a.gens[idx.Slot]++
	a.free = append(a.free, idx.Slot)
	return true
}

// IsAllocated reports whether idx is the current, allocated handle for its slot.
func (a *Allocator) IsAllocated(idx Index) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.liveLocked(idx)
}

// Cap returns the number of slots ever created, live or not.
func (a *Allocator) Cap() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.gens)
}

// Retired returns the number of slots withdrawn after generation overflow.
func (a *Allocator) Retired() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.retired
}

func (a *Allocator) liveLocked(idx Index) bool {
	if idx.IsEmpty() || int(idx.Slot) >= len(a.gens) {
		return false
	}
	return a.allocated[idx.Slot] && a.gens[idx.Slot] == idx.Generation
}
