// Package arena provides slot-based storage with generation-tagged handles.
//
// An Arena owns its values exclusively. Callers hold an Index, a
// non-owning (slot, generation) locator. When a value is removed its slot is
// tombstoned and the slot generation is bumped, so every Index issued for the
// old occupant stops resolving, even after the slot is handed out again.
//
// Example:
//
//	a := arena.New[string]()
//	idx := a.Insert("alice")
//	v, ok := a.Get(idx) // "alice", true
//
//	a.Remove(idx)
//	again := a.Insert("bob") // reuses the slot with a newer generation
//	_, ok = a.Get(idx)       // false: idx is stale
//	_ = again
//
// Slot allocation lives in Allocator so that several arenas (or a staging
// area that has not materialized its values yet) can share one handle space.
package arena

import (
	"cmp"
	"fmt"
)

// Index is a (slot, generation) handle into an Arena.
//
// The zero value is the empty handle: generation 0 is never issued, so Empty
// never compares equal to a handle returned by Alloc or Insert.
type Index struct {
	Slot       uint32
	Generation uint32
}

// Empty returns the reserved "no link" handle.
func Empty() Index {
	return Index{}
}

// IsEmpty reports whether idx is the reserved empty handle.
func (idx Index) IsEmpty() bool {
	return idx.Generation == 0
}

// Compare orders handles by slot, then by generation.
func (idx Index) Compare(other Index) int {
	if c := cmp.Compare(idx.Slot, other.Slot); c != 0 {
		return c
	}
	return cmp.Compare(idx.Generation, other.Generation)
}

// Less reports whether idx sorts before other.
func (idx Index) Less(other Index) bool {
	return idx.Compare(other) < 0
}

// String renders the handle as "slot@generation", or "empty".
func (idx Index) String() string {
	if idx.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%d@%d", idx.Slot, idx.Generation)
}
