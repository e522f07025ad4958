package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAs(t *testing.T) {
	g := newTestGraph(t)
	ids := commitNew(t, g, &nodeA{Value: 7}, &nodeB{Name: "b"})

	a, ok := GetAs[*nodeA](g, ids[0])
	require.True(t, ok)
	assert.Equal(t, 7, a.Value)

	t.Run("other variant", func(t *testing.T) {
		b, ok := GetAs[*nodeB](g, ids[0])
		assert.False(t, ok)
		assert.Nil(t, b)
	})

	t.Run("removed", func(t *testing.T) {
		tx := NewTransaction(g.Context())
		require.NoError(t, tx.RemoveNode(ids[1]))
		require.NoError(t, g.Commit(tx))

		_, ok := GetAs[*nodeB](g, ids[1])
		assert.False(t, ok)
	})
}

func TestIterAsStopsEarly(t *testing.T) {
	g := newTestGraph(t)
	commitNew(t, g, &nodeA{Value: 1}, &nodeB{}, &nodeA{Value: 2}, &nodeA{Value: 3})

	var seen []int
	for _, a := range IterAs[*nodeA](g) {
		seen = append(seen, a.Value)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []int{1, 2}, seen)
}

func TestTypedHelpersRejectNilClosures(t *testing.T) {
	g := newTestGraph(t)
	ids := commitNew(t, g, &nodeA{})
	tx := NewTransaction(g.Context())

	require.ErrorIs(t, MutAs[*nodeA](tx, ids[0], nil), ErrInvalidNode)
	require.ErrorIs(t, UpdateAs[*nodeA](tx, ids[0], nil), ErrInvalidNode)
	assert.Zero(t, tx.OperationCount())
}
