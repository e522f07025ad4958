package graph

import (
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/tgraph/pkg/config"
)

func TestNewTransaction(t *testing.T) {
	ctx := NewContext(testSchema(t))
	tx := NewTransaction(ctx)

	assert.Len(t, tx.ID, 36)
	assert.NotEqual(t, tx.ID, NewTransaction(ctx).ID)
	assert.False(t, tx.StartTime.IsZero())
	assert.True(t, tx.IsActive())
	assert.Equal(t, 0, tx.OperationCount())
}

func TestTransaction_Staging(t *testing.T) {
	ctx := NewContext(testSchema(t))
	tx := NewTransaction(ctx)

	t.Run("new node reserves distinct handles", func(t *testing.T) {
		a, err := tx.NewNode(&nodeA{})
		require.NoError(t, err)
		b, err := tx.NewNode(&nodeB{})
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
		assert.True(t, ctx.alloc.IsAllocated(a))
		assert.True(t, ctx.alloc.IsAllocated(b))
	})

	t.Run("nil node", func(t *testing.T) {
		_, err := tx.NewNode(nil)
		require.ErrorIs(t, err, ErrInvalidNode)
	})

	t.Run("unknown node type", func(t *testing.T) {
		other, err := NewSchemaBuilder().
			Variant(typeA, "A", func() Node { return &nodeA{} }).
			Build()
		require.NoError(t, err)

		_, err = NewTransaction(NewContext(other)).NewNode(&nodeC{})
		require.ErrorIs(t, err, ErrUnknownNodeType)
	})

	t.Run("empty handle", func(t *testing.T) {
		require.ErrorIs(t, tx.RemoveNode(Empty()), ErrNotFound)
		require.ErrorIs(t, tx.MutNode(Empty(), func(Node) {}), ErrNotFound)
	})

	t.Run("nil closures", func(t *testing.T) {
		idx := NodeIndex{Slot: 0, Generation: 1}
		require.ErrorIs(t, tx.MutNode(idx, nil), ErrInvalidNode)
		require.ErrorIs(t, tx.UpdateNode(idx, nil), ErrInvalidNode)
		require.ErrorIs(t, MutAs[*nodeA](tx, idx, nil), ErrInvalidNode)
		require.ErrorIs(t, UpdateAs[*nodeA](tx, idx, nil), ErrInvalidNode)
	})

	ops := tx.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, OpNewNode, ops[0].Type)
	assert.Equal(t, OpNewNode, ops[1].Type)
	assert.False(t, ops[0].Timestamp.After(ops[1].Timestamp))
}

func TestTransaction_Rollback(t *testing.T) {
	g := newTestGraph(t)
	ctx := g.Context()

	tx := NewTransaction(ctx)
	a, err := tx.NewNode(&nodeA{Value: 1})
	require.NoError(t, err)
	require.NoError(t, tx.RemoveNode(a))

	require.NoError(t, tx.Rollback())
	assert.Equal(t, TxStatusRolledBack, tx.Status)
	assert.Equal(t, 0, tx.OperationCount())
	assert.False(t, ctx.alloc.IsAllocated(a), "reserved handle released")

	require.ErrorIs(t, tx.Rollback(), ErrTransactionClosed)
	require.ErrorIs(t, g.Commit(tx), ErrTransactionClosed)

	// The released slot is reused with a newer generation.
	b := commitNew(t, g, &nodeA{Value: 2})[0]
	assert.Equal(t, a.Slot, b.Slot)
	assert.Greater(t, b.Generation, a.Generation)
	_, ok := g.GetNode(a)
	assert.False(t, ok)
}

// reserveAndDrop stages a new node on a transaction that is then dropped
// without Commit or Rollback.
func reserveAndDrop(t *testing.T, ctx *Context) NodeIndex {
	t.Helper()
	idx, err := NewTransaction(ctx).NewNode(&nodeA{})
	require.NoError(t, err)
	return idx
}

func TestTransaction_DroppedReleasesReservations(t *testing.T) {
	g := newTestGraph(t)
	ctx := g.Context()

	idx := reserveAndDrop(t, ctx)
	require.Eventually(t, func() bool {
		runtime.GC()
		return !ctx.alloc.IsAllocated(idx)
	}, 5*time.Second, 10*time.Millisecond)

	t.Run("committed handles stay allocated", func(t *testing.T) {
		a := commitNew(t, g, &nodeA{Value: 1})[0]
		for range 3 {
			runtime.GC()
		}
		assert.True(t, ctx.alloc.IsAllocated(a))
		assert.Equal(t, 1, mustGet[*nodeA](t, g, a).Value)
	})
}

func TestCommit_ClosuresMayUseTransaction(t *testing.T) {
	g := newTestGraph(t)
	a := commitNew(t, g, &nodeA{Value: 1})[0]

	tx := NewTransaction(g.Context())
	require.NoError(t, tx.SetMetadata(map[string]any{"step": "scale"}))

	var (
		count    int
		metadata map[string]any
		stageErr error
		rollErr  error
	)
	require.NoError(t, tx.MutNode(a, func(n Node) {
		count = tx.OperationCount()
		metadata = tx.GetMetadata()
		_, stageErr = tx.NewNode(&nodeB{})
		rollErr = tx.Rollback()
		n.(*nodeA).Value = 10
	}))

	done := make(chan error, 1)
	go func() { done <- g.Commit(tx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("commit did not return")
	}

	assert.Equal(t, 1, count)
	assert.Equal(t, "scale", metadata["step"])
	require.ErrorIs(t, stageErr, ErrCommitInProgress)
	require.ErrorIs(t, rollErr, ErrCommitInProgress)
	assert.Equal(t, TxStatusCommitted, tx.Status)
	assert.Equal(t, 10, mustGet[*nodeA](t, g, a).Value)
	assert.Equal(t, 1, g.Len(), "nothing staged during commit")
}

func TestTransaction_MaxStagedOperations(t *testing.T) {
	ctx := NewContext(testSchema(t), WithMaxStagedOperations(2))
	tx := NewTransaction(ctx)

	a, err := tx.NewNode(&nodeA{})
	require.NoError(t, err)
	require.NoError(t, tx.MutNode(a, func(Node) {}))

	_, err = tx.NewNode(&nodeA{})
	require.ErrorIs(t, err, ErrTooManyOperations)
	require.ErrorIs(t, tx.RemoveNode(a), ErrTooManyOperations)
	assert.Equal(t, 2, tx.OperationCount())
}

func TestTransaction_Metadata(t *testing.T) {
	ctx := NewContext(testSchema(t))
	tx := NewTransaction(ctx)

	require.NoError(t, tx.SetMetadata(map[string]any{"app": "loader"}))
	require.NoError(t, tx.SetMetadata(map[string]any{"user": "ci"}))
	assert.Equal(t, map[string]any{"app": "loader", "user": "ci"}, tx.GetMetadata())

	t.Run("copy is detached", func(t *testing.T) {
		md := tx.GetMetadata()
		md["app"] = "changed"
		assert.Equal(t, "loader", tx.GetMetadata()["app"])
	})

	t.Run("size limit", func(t *testing.T) {
		err := tx.SetMetadata(map[string]any{"blob": strings.Repeat("x", 2048)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
		assert.NotContains(t, tx.GetMetadata(), "blob")
	})

	t.Run("closed", func(t *testing.T) {
		require.NoError(t, tx.Rollback())
		require.ErrorIs(t, tx.SetMetadata(map[string]any{"k": "v"}), ErrTransactionClosed)
	})
}

func TestCommit_Logging(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, prefix+" "+args)
	}, funcr.Options{Verbosity: 1})

	g := newTestGraph(t, WithLogger(log))

	tx := NewTransaction(g.Context())
	require.NoError(t, tx.SetMetadata(map[string]any{"app": "test"}))
	_, err := tx.NewNode(&nodeA{})
	require.NoError(t, err)
	require.NoError(t, g.Commit(tx))

	tx = NewTransaction(g.Context())
	require.NoError(t, tx.RemoveNode(NodeIndex{Slot: 42, Generation: 1}))
	require.Error(t, g.Commit(tx))

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, `"committing with metadata"`)
	assert.Contains(t, joined, `"committed"`)
	assert.Contains(t, joined, `"commit failed"`)
	assert.Contains(t, joined, "graph")
}

func TestWithConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.VerifyOnCommit = true
	cfg.Graph.InitialCapacity = 128
	cfg.Graph.MaxStagedOperations = 10

	ctx := NewContext(testSchema(t), WithConfig(cfg))
	assert.True(t, ctx.verifyOnCommit)
	assert.Equal(t, 128, ctx.capacity)
	assert.Equal(t, 10, ctx.maxOps)

	ctx = NewContext(testSchema(t), WithConfig(nil), WithInitialCapacity(-3))
	assert.False(t, ctx.verifyOnCommit)
	assert.Equal(t, 0, ctx.capacity)
}
