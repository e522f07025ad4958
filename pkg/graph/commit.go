package graph

import (
	"fmt"
	"iter"

	"github.com/go-logr/logr"
)

// pending is the in-commit state of one touched node. node is always a
// private value the commit may mutate.
type pending struct {
	node    Node
	created bool
	removed bool
}

// commit is the copy-on-write overlay a single Graph.Commit works on.
// Nothing here touches the arena until publish.
type commit struct {
	g      *Graph
	schema *Schema
	log    logr.Logger

	overlay map[NodeIndex]*pending
	order   []NodeIndex

	mirrorAdds    int
	mirrorRemoves int
}

func newCommit(g *Graph, log logr.Logger) *commit {
	return &commit{
		g:       g,
		schema:  g.ctx.schema,
		log:     log.WithName("commit"),
		overlay: make(map[NodeIndex]*pending),
	}
}

// run applies ops in order. Each op applies its structural change, then the
// mirror edits it implies, before the next op starts.
func (c *commit) run(ops []Operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrOperationPanicked, r)
		}
	}()

	for i, op := range ops {
		var opErr error
		switch op.Type {
		case OpNewNode:
			opErr = c.newNode(op.Index, op.node)
		case OpMutNode:
			opErr = c.mutNode(op.Index, op.edit)
		case OpUpdateNode:
			opErr = c.updateNode(op.Index, op.replace)
		case OpRemoveNode:
			opErr = c.removeNode(op.Index)
		default:
			opErr = fmt.Errorf("unknown operation type %q", op.Type)
		}
		if opErr != nil {
			return fmt.Errorf("operation %d (%s %s): %w", i, op.Type, op.Index, opErr)
		}
	}
	return nil
}

func (c *commit) newNode(idx NodeIndex, n Node) error {
	c.put(idx, &pending{node: n, created: true})
	return c.propagate(idx, nil, linkList(n))
}

func (c *commit) mutNode(idx NodeIndex, edit func(Node) error) error {
	cur, ok := c.peek(idx)
	if !ok {
		return ErrNotFound
	}
	before := linkList(cur)

	next := cur.Clone()
	if err := edit(next); err != nil {
		return err
	}
	if removed, added := diffLinks(before, linkList(next)); len(removed) > 0 || len(added) > 0 {
		return fmt.Errorf("%w: %d links removed, %d added", ErrTopologyChanged, len(removed), len(added))
	}
	c.set(idx, next)
	return nil
}

func (c *commit) updateNode(idx NodeIndex, replace func(Node) (Node, error)) error {
	cur, ok := c.peek(idx)
	if !ok {
		return ErrNotFound
	}
	before := linkList(cur)

	next, err := replace(cur.Clone())
	if err != nil {
		return err
	}
	if next == nil {
		return fmt.Errorf("%w: replace returned nil", ErrInvalidNode)
	}
	if next.NodeType() != cur.NodeType() {
		return fmt.Errorf("%w: %s replaced by %s", ErrVariantMismatch,
			c.schema.TypeName(cur.NodeType()), c.schema.TypeName(next.NodeType()))
	}
	c.set(idx, next)
	return c.propagate(idx, before, linkList(next))
}

func (c *commit) removeNode(idx NodeIndex) error {
	cur, ok := c.peek(idx)
	if !ok {
		return ErrNotFound
	}
	for _, l := range linkList(cur) {
		c.dropMirror(l.Target, idx, c.schema.MirrorsOf(l.Source.ToLinkMirror()))
	}
	p := c.overlay[idx]
	if p == nil {
		p = &pending{}
		c.put(idx, p)
	}
	p.node = nil
	p.removed = true
	return nil
}

// propagate brings the mirrors of node from in line with a change of its
// outgoing links from before to after. Removals are applied first so a
// single-valued mirror freed by this change can be claimed by it.
func (c *commit) propagate(from NodeIndex, before, after []Link) error {
	removed, added := diffLinks(before, after)
	for _, l := range removed {
		c.dropMirror(l.Target, from, c.schema.MirrorsOf(l.Source.ToLinkMirror()))
	}
	for _, l := range added {
		if err := c.addMirror(from, l); err != nil {
			return err
		}
	}
	return nil
}

// addMirror records from in the mirror field of l's target.
func (c *commit) addMirror(from NodeIndex, l Link) error {
	mirrors := c.schema.MirrorsOf(l.Source.ToLinkMirror())
	if len(mirrors) == 0 {
		return nil
	}

	target, ok := c.peek(l.Target)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrDanglingLink, c.schema.describe(l.Source.ToLinkMirror()), l.Target)
	}
	m, ok := MatchMirror(target, mirrors)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrLinkTypeMismatch,
			c.schema.describe(l.Source.ToLinkMirror()), c.schema.TypeName(target.NodeType()))
	}
	if HasLink(target, m.Field, from) {
		return nil
	}

	w, err := c.writable(l.Target)
	if err != nil {
		return err
	}
	if f, _ := c.schema.Field(m); f.Cardinality == One {
		// The mirror field holds one target: whatever it pointed at loses
		// its link back to this node.
		effect, err := c.schema.ModifyLink(w, m.ToSource(), firstLink(w, m.Field), from)
		if err != nil {
			return err
		}
		c.mirrorAdds++
		if !effect.Remove.IsEmpty() {
			c.dropMirror(effect.Remove, l.Target, effect.Mirrors)
		}
		return nil
	}
	if _, err := AddLink(w, m, from); err != nil {
		return err
	}
	c.mirrorAdds++
	return nil
}

// dropMirror removes from out of the mirror field (one of mirrors) of the node
// at owner. Dead owners and owners that no longer hold from are skipped.
func (c *commit) dropMirror(owner, from NodeIndex, mirrors []LinkMirror) {
	if len(mirrors) == 0 {
		return
	}
	n, ok := c.peek(owner)
	if !ok {
		return
	}
	m, ok := MatchMirror(n, mirrors)
	if !ok || !HasLink(n, m.Field, from) {
		return
	}
	w, err := c.writable(owner)
	if err != nil {
		return
	}
	if w.RemoveLink(m.Field, from) {
		c.mirrorRemoves++
	}
}

// peek returns the node at idx as of this point in the commit. The result
// must not be modified.
func (c *commit) peek(idx NodeIndex) (Node, bool) {
	if p, ok := c.overlay[idx]; ok {
		if p.removed {
			return nil, false
		}
		return p.node, true
	}
	return c.g.nodes.Get(idx)
}

// writable returns a private copy of the node at idx, cloning committed
// values on first touch.
func (c *commit) writable(idx NodeIndex) (Node, error) {
	if p, ok := c.overlay[idx]; ok {
		if p.removed {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, idx)
		}
		return p.node, nil
	}
	n, ok := c.g.nodes.Get(idx)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idx)
	}
	clone := n.Clone()
	c.put(idx, &pending{node: clone})
	return clone, nil
}

func (c *commit) set(idx NodeIndex, n Node) {
	if p, ok := c.overlay[idx]; ok {
		p.node = n
		return
	}
	c.put(idx, &pending{node: n})
}

func (c *commit) put(idx NodeIndex, p *pending) {
	if _, ok := c.overlay[idx]; !ok {
		c.order = append(c.order, idx)
	}
	c.overlay[idx] = p
}

// view yields the graph as it would look after publish.
func (c *commit) view() iter.Seq2[NodeIndex, Node] {
	return func(yield func(NodeIndex, Node) bool) {
		for idx, n := range c.g.nodes.Iter() {
			if p, ok := c.overlay[idx]; ok {
				if p.removed {
					continue
				}
				n = p.node
			}
			if !yield(idx, n) {
				return
			}
		}
		for _, idx := range c.order {
			if p := c.overlay[idx]; p.created && !p.removed {
				if !yield(idx, p.node) {
					return
				}
			}
		}
	}
}

// publish writes the overlay into the arena. It cannot fail.
func (c *commit) publish() {
	nodes := c.g.nodes
	for _, idx := range c.order {
		p := c.overlay[idx]
		switch {
		case p.created && p.removed:
			nodes.Allocator().Free(idx)
		case p.created:
			if !nodes.Place(idx, p.node) {
				c.log.Error(nil, "reserved handle is no longer allocated", "index", idx)
			}
		case p.removed:
			nodes.Remove(idx)
		default:
			nodes.Replace(idx, p.node)
		}
	}
}

// linkList returns n's outgoing links in IterSource order.
func linkList(n Node) []Link {
	var out []Link
	for target, src := range IterSource(n) {
		out = append(out, Link{Target: target, Source: src})
	}
	return out
}

// diffLinks returns the links only in before and the links only in after,
// each in its input order.
func diffLinks(before, after []Link) (removed, added []Link) {
	inBefore := make(map[Link]struct{}, len(before))
	for _, l := range before {
		inBefore[l] = struct{}{}
	}
	inAfter := make(map[Link]struct{}, len(after))
	for _, l := range after {
		inAfter[l] = struct{}{}
	}
	for _, l := range before {
		if _, ok := inAfter[l]; !ok {
			removed = append(removed, l)
		}
	}
	for _, l := range after {
		if _, ok := inBefore[l]; !ok {
			added = append(added, l)
		}
	}
	return removed, added
}
