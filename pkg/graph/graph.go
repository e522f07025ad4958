package graph

import (
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/orneryd/tgraph/pkg/arena"
	"github.com/orneryd/tgraph/pkg/metrics"
)

// Graph holds the committed state: one arena of nodes.
//
// Readers only ever see fully committed states. Commit computes the whole
// change set on private copies, then publishes it under the write lock; a
// Node returned by GetNode or IterNodes is never modified afterwards, so it
// stays a consistent view even after later commits.
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Commits are serialized.
type Graph struct {
	mu      sync.RWMutex
	ctx     *Context
	nodes   *arena.Arena[Node]
	version uint64
	log     logr.Logger
}

// New creates an empty graph bound to ctx.
func New(ctx *Context) *Graph {
	return &Graph{
		ctx:   ctx,
		nodes: arena.NewShared[Node](ctx.alloc, ctx.capacity),
		log:   ctx.log.WithName("graph"),
	}
}

// Context returns the context the graph was created with.
func (g *Graph) Context() *Context {
	return g.ctx
}

// Schema returns the graph's schema.
func (g *Graph) Schema() *Schema {
	return g.ctx.schema
}

// GetNode returns the committed node at idx. Removed, stale and
// never-committed handles report false.
func (g *Graph) GetNode(idx NodeIndex) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Get(idx)
}

// Contains reports whether idx resolves to a committed node.
func (g *Graph) Contains(idx NodeIndex) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Contains(idx)
}

// IterNodes yields every committed node in slot order. The sequence reads a
// snapshot taken when iteration starts; commits made while iterating are not
// observed.
func (g *Graph) IterNodes() iter.Seq2[NodeIndex, Node] {
	return func(yield func(NodeIndex, Node) bool) {
		for _, e := range g.snapshot() {
			if !yield(e.idx, e.node) {
				return
			}
		}
	}
}

type snapshotEntry struct {
	idx  NodeIndex
	node Node
}

func (g *Graph) snapshot() []snapshotEntry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]snapshotEntry, 0, g.nodes.Len())
	for idx, n := range g.nodes.Iter() {
		out = append(out, snapshotEntry{idx: idx, node: n})
	}
	return out
}

// Len returns the number of committed nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.Len()
}

// Version returns the number of successful commits.
func (g *Graph) Version() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.version
}

// Commit applies tx's operations in staging order, together with the mirror
// link updates they require, as one atomic step.
//
// If any operation fails (stale handle, link to a missing node, link to a
// variant with no matching mirror, topology change in MutNode, variant change
// in UpdateNode, a panicking closure, or a failed verification) the graph is
// left untouched, the transaction is rolled back and the error is returned.
func (g *Graph) Commit(tx *Transaction) error {
	if tx == nil {
		return ErrNoTransaction
	}

	ops, metadata, err := tx.beginCommit(g.ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	log := g.log.WithValues("tx", tx.ID)
	if len(metadata) > 0 {
		log.Info("committing with metadata", "metadata", metadata)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	c := newCommit(g, log)
	err = c.run(ops)
	if err == nil && g.ctx.verifyOnCommit {
		err = verify(g.ctx.schema, c.view(), c.peek)
	}
	if err != nil {
		tx.endCommit(false)
		g.ctx.metrics.ObserveCommit(metrics.ResultFailed, time.Since(start))
		log.Error(err, "commit failed", "operations", len(ops))
		return fmt.Errorf("commit %s: %w", tx.ID, err)
	}

	c.publish()
	g.version++

	for kind, n := range countOps(ops) {
		g.ctx.metrics.AddStagedOps(string(kind), n)
	}
	g.ctx.metrics.AddMirrorEdits(metrics.MirrorAdd, c.mirrorAdds)
	g.ctx.metrics.AddMirrorEdits(metrics.MirrorRemove, c.mirrorRemoves)
	g.ctx.metrics.SetLiveNodes(g.nodes.Len())
	g.ctx.metrics.ObserveCommit(metrics.ResultCommitted, time.Since(start))

	log.V(1).Info("committed",
		"operations", len(ops),
		"touched", len(c.order),
		"mirrorAdds", c.mirrorAdds,
		"mirrorRemoves", c.mirrorRemoves,
		"version", g.version,
		"elapsed", time.Since(start),
	)

	tx.endCommit(true)
	return nil
}

// Verify checks the bidirectional link invariant over the committed graph and
// reports every violation found, wrapped in ErrInconsistentGraph.
func (g *Graph) Verify() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return verify(g.ctx.schema, g.nodes.Iter(), g.nodes.Get)
}

func countOps(ops []Operation) map[OperationType]int {
	out := make(map[OperationType]int, 4)
	for _, op := range ops {
		out[op.Type]++
	}
	return out
}
