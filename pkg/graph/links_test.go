package graph

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func idx(slot, gen uint32) NodeIndex {
	return NodeIndex{Slot: slot, Generation: gen}
}

func TestLinkRef(t *testing.T) {
	var r LinkRef
	assert.False(t, r.IsSet())
	assert.Empty(t, slices.Collect(r.Iter()))

	t.Run("add is idempotent", func(t *testing.T) {
		assert.True(t, r.Add(idx(1, 1)))
		assert.False(t, r.Add(idx(1, 1)))
		assert.False(t, r.Add(Empty()))
		assert.Equal(t, []NodeIndex{idx(1, 1)}, slices.Collect(r.Iter()))
	})

	t.Run("remove only clears matching target", func(t *testing.T) {
		assert.False(t, r.Remove(idx(2, 1)))
		assert.True(t, r.IsSet())
		assert.True(t, r.Remove(idx(1, 1)))
		assert.False(t, r.Remove(idx(1, 1)))
		assert.False(t, r.IsSet())
	})

	t.Run("modify", func(t *testing.T) {
		r := LinkTo(idx(1, 1))

		removed, added := r.Modify(idx(1, 1), idx(2, 1))
		assert.True(t, removed)
		assert.True(t, added)
		assert.Equal(t, idx(2, 1), r.Target())

		removed, added = r.Modify(idx(9, 1), idx(3, 1))
		assert.False(t, removed, "old was not the previous value")
		assert.True(t, added)

		removed, added = r.Modify(idx(3, 1), Empty())
		assert.True(t, removed)
		assert.False(t, added)
		assert.False(t, r.IsSet())

		removed, added = r.Modify(Empty(), idx(4, 1))
		assert.False(t, removed)
		assert.True(t, added)
	})
}

func TestLinkSet(t *testing.T) {
	s := NewLinkSet(idx(3, 1), idx(1, 2), Empty(), idx(1, 1), idx(3, 1))
	assert.Equal(t, []NodeIndex{idx(1, 1), idx(1, 2), idx(3, 1)}, s.Slice())

	t.Run("add twice changes once", func(t *testing.T) {
		assert.True(t, s.Add(idx(2, 1)))
		assert.False(t, s.Add(idx(2, 1)))
		assert.Equal(t, 4, s.Len())
	})

	t.Run("remove absent is a no-op", func(t *testing.T) {
		assert.True(t, s.Remove(idx(2, 1)))
		assert.False(t, s.Remove(idx(2, 1)))
		assert.False(t, s.Remove(Empty()))
		assert.Equal(t, 3, s.Len())
	})

	t.Run("clone is independent", func(t *testing.T) {
		c := s.Clone()
		c.Add(idx(7, 1))
		assert.False(t, s.Contains(idx(7, 1)))
		assert.True(t, c.Contains(idx(7, 1)))
	})

	t.Run("modify", func(t *testing.T) {
		removed, added := s.Modify(idx(1, 1), idx(5, 1))
		assert.True(t, removed)
		assert.True(t, added)
		assert.False(t, s.Contains(idx(1, 1)))
		assert.True(t, s.Contains(idx(5, 1)))

		removed, added = s.Modify(idx(8, 8), Empty())
		assert.False(t, removed)
		assert.False(t, added)
	})

	assert.True(t, slices.IsSortedFunc(slices.Collect(s.Iter()), NodeIndex.Compare))
}

func TestDataRef(t *testing.T) {
	n := &nodeA{Value: 7, Label: "seven"}

	v, ok := DataRef[int](n, "value")
	assert.True(t, ok)
	assert.Equal(t, 7, v)

	s, ok := DataRef[string](n, "label")
	assert.True(t, ok)
	assert.Equal(t, "seven", s)

	t.Run("wrong type and unknown name look the same", func(t *testing.T) {
		_, ok := DataRef[string](n, "value")
		assert.False(t, ok)
		_, ok = DataRef[int](n, "missing")
		assert.False(t, ok)
		_, ok = DataRef[int](nil, "value")
		assert.False(t, ok)
	})

	assert.Equal(t, []string{"label", "value"}, nodeAFields.Names())
}
