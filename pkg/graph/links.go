package graph

import (
	"iter"
	"slices"
)

// LinkRef is a single-valued link field. The zero value is unset.
type LinkRef struct {
	target NodeIndex
}

// LinkTo returns a LinkRef pointing at target.
func LinkTo(target NodeIndex) LinkRef {
	return LinkRef{target: target}
}

// Target returns the current target, or Empty.
func (r LinkRef) Target() NodeIndex {
	return r.target
}

// IsSet reports whether the field holds a target.
func (r LinkRef) IsSet() bool {
	return !r.target.IsEmpty()
}

// Iter yields the target if set.
func (r LinkRef) Iter() iter.Seq[NodeIndex] {
	return func(yield func(NodeIndex) bool) {
		if r.IsSet() {
			yield(r.target)
		}
	}
}

// Modify moves the field from old to new. See TypedNode.ModifyLink.
func (r *LinkRef) Modify(old, new NodeIndex) (removed, added bool) {
	removed = !old.IsEmpty() && r.target == old
	r.target = new
	return removed, !new.IsEmpty()
}

// Add points the field at target. It reports false if it already did.
func (r *LinkRef) Add(target NodeIndex) bool {
	if target.IsEmpty() || r.target == target {
		return false
	}
	r.target = target
	return true
}

// Remove clears the field if it points at target.
func (r *LinkRef) Remove(target NodeIndex) bool {
	if target.IsEmpty() || r.target != target {
		return false
	}
	r.target = Empty()
	return true
}

// LinkSet is a set-valued link field, kept sorted by NodeIndex.
// The zero value is an empty set.
type LinkSet struct {
	items []NodeIndex
}

// NewLinkSet returns a set holding targets. Empty handles are dropped.
func NewLinkSet(targets ...NodeIndex) LinkSet {
	var s LinkSet
	for _, t := range targets {
		s.Add(t)
	}
	return s
}

// Len returns the number of targets.
func (s LinkSet) Len() int {
	return len(s.items)
}

// Contains reports whether target is in the set.
func (s LinkSet) Contains(target NodeIndex) bool {
	_, found := s.search(target)
	return found
}

// Slice returns a copy of the targets in order.
func (s LinkSet) Slice() []NodeIndex {
	return slices.Clone(s.items)
}

// Iter yields the targets in order.
func (s LinkSet) Iter() iter.Seq[NodeIndex] {
	return slices.Values(s.items)
}

// Clone returns an independent copy.
func (s LinkSet) Clone() LinkSet {
	return LinkSet{items: slices.Clone(s.items)}
}

// Add inserts target and reports whether the set changed.
func (s *LinkSet) Add(target NodeIndex) bool {
	if target.IsEmpty() {
		return false
	}
	i, found := s.search(target)
	if found {
		return false
	}
	s.items = slices.Insert(s.items, i, target)
	return true
}

// Remove deletes target and reports whether the set changed.
func (s *LinkSet) Remove(target NodeIndex) bool {
	i, found := s.search(target)
	if !found {
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	return true
}

// Modify replaces old with new. See TypedNode.ModifyLink.
func (s *LinkSet) Modify(old, new NodeIndex) (removed, added bool) {
	removed = s.Remove(old)
	s.Add(new)
	return removed, !new.IsEmpty()
}

func (s LinkSet) search(target NodeIndex) (int, bool) {
	return slices.BinarySearchFunc(s.items, target, NodeIndex.Compare)
}
