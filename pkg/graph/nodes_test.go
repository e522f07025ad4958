package graph

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test schema:
//
//	A.peer     <-> A.peer      one / one (self-paired)
//	A.children <-> B.parent    many / one
//	A.children <-> C.owners    many / many (A.children targets B or C)
//	B.tags     <-> C.owners    many / many
//	C.ref                      one, not paired
const (
	typeA NodeType = iota + 1
	typeB
	typeC
)

const (
	aPeer FieldID = iota + 1
	aChildren
)

const (
	bParent FieldID = iota + 1
	bTags
)

const (
	cOwners FieldID = iota + 1
	cRef
)

var (
	mirrorAPeer     = LinkMirror{Type: typeA, Field: aPeer}
	mirrorAChildren = LinkMirror{Type: typeA, Field: aChildren}
	mirrorBParent   = LinkMirror{Type: typeB, Field: bParent}
	mirrorBTags     = LinkMirror{Type: typeB, Field: bTags}
	mirrorCOwners   = LinkMirror{Type: typeC, Field: cOwners}
	mirrorCRef      = LinkMirror{Type: typeC, Field: cRef}
)

func noLinks(func(NodeIndex) bool) {}

type nodeA struct {
	Value    int
	Label    string
	Peer     LinkRef
	Children LinkSet
}

var nodeAFields = Accessors[*nodeA]{
	"value": func(n *nodeA) any { return n.Value },
	"label": func(n *nodeA) any { return n.Label },
}

func (n *nodeA) NodeType() NodeType { return typeA }

func (n *nodeA) Clone() Node {
	c := *n
	c.Children = n.Children.Clone()
	return &c
}

func (n *nodeA) IterSource() iter.Seq2[NodeIndex, FieldID] {
	return func(yield func(NodeIndex, FieldID) bool) {
		for t := range n.Peer.Iter() {
			if !yield(t, aPeer) {
				return
			}
		}
		for t := range n.Children.Iter() {
			if !yield(t, aChildren) {
				return
			}
		}
	}
}

func (n *nodeA) IterLink(f FieldID) iter.Seq[NodeIndex] {
	switch f {
	case aPeer:
		return n.Peer.Iter()
	case aChildren:
		return n.Children.Iter()
	}
	return noLinks
}

func (n *nodeA) ModifyLink(f FieldID, old, new NodeIndex) (bool, bool) {
	switch f {
	case aPeer:
		return n.Peer.Modify(old, new)
	case aChildren:
		return n.Children.Modify(old, new)
	}
	return false, false
}

func (n *nodeA) AddLink(f FieldID, target NodeIndex) bool {
	switch f {
	case aPeer:
		return n.Peer.Add(target)
	case aChildren:
		return n.Children.Add(target)
	}
	return false
}

func (n *nodeA) RemoveLink(f FieldID, target NodeIndex) bool {
	switch f {
	case aPeer:
		return n.Peer.Remove(target)
	case aChildren:
		return n.Children.Remove(target)
	}
	return false
}

func (n *nodeA) DataRefByName(name string) (any, bool) {
	return nodeAFields.Lookup(n, name)
}

type nodeB struct {
	Name   string
	Parent LinkRef
	Tags   LinkSet
}

func (n *nodeB) NodeType() NodeType { return typeB }

func (n *nodeB) Clone() Node {
	c := *n
	c.Tags = n.Tags.Clone()
	return &c
}

func (n *nodeB) IterSource() iter.Seq2[NodeIndex, FieldID] {
	return func(yield func(NodeIndex, FieldID) bool) {
		for t := range n.Parent.Iter() {
			if !yield(t, bParent) {
				return
			}
		}
		for t := range n.Tags.Iter() {
			if !yield(t, bTags) {
				return
			}
		}
	}
}

func (n *nodeB) IterLink(f FieldID) iter.Seq[NodeIndex] {
	switch f {
	case bParent:
		return n.Parent.Iter()
	case bTags:
		return n.Tags.Iter()
	}
	return noLinks
}

func (n *nodeB) ModifyLink(f FieldID, old, new NodeIndex) (bool, bool) {
	switch f {
	case bParent:
		return n.Parent.Modify(old, new)
	case bTags:
		return n.Tags.Modify(old, new)
	}
	return false, false
}

func (n *nodeB) AddLink(f FieldID, target NodeIndex) bool {
	switch f {
	case bParent:
		return n.Parent.Add(target)
	case bTags:
		return n.Tags.Add(target)
	}
	return false
}

func (n *nodeB) RemoveLink(f FieldID, target NodeIndex) bool {
	switch f {
	case bParent:
		return n.Parent.Remove(target)
	case bTags:
		return n.Tags.Remove(target)
	}
	return false
}

func (n *nodeB) DataRefByName(name string) (any, bool) {
	if name == "name" {
		return n.Name, true
	}
	return nil, false
}

type nodeC struct {
	Count  int
	Owners LinkSet
	Ref    LinkRef
}

func (n *nodeC) NodeType() NodeType { return typeC }

func (n *nodeC) Clone() Node {
	c := *n
	c.Owners = n.Owners.Clone()
	return &c
}

func (n *nodeC) IterSource() iter.Seq2[NodeIndex, FieldID] {
	return func(yield func(NodeIndex, FieldID) bool) {
		for t := range n.Owners.Iter() {
			if !yield(t, cOwners) {
				return
			}
		}
		for t := range n.Ref.Iter() {
			if !yield(t, cRef) {
				return
			}
		}
	}
}

func (n *nodeC) IterLink(f FieldID) iter.Seq[NodeIndex] {
	switch f {
	case cOwners:
		return n.Owners.Iter()
	case cRef:
		return n.Ref.Iter()
	}
	return noLinks
}

func (n *nodeC) ModifyLink(f FieldID, old, new NodeIndex) (bool, bool) {
	switch f {
	case cOwners:
		return n.Owners.Modify(old, new)
	case cRef:
		return n.Ref.Modify(old, new)
	}
	return false, false
}

func (n *nodeC) AddLink(f FieldID, target NodeIndex) bool {
	switch f {
	case cOwners:
		return n.Owners.Add(target)
	case cRef:
		return n.Ref.Add(target)
	}
	return false
}

func (n *nodeC) RemoveLink(f FieldID, target NodeIndex) bool {
	switch f {
	case cOwners:
		return n.Owners.Remove(target)
	case cRef:
		return n.Ref.Remove(target)
	}
	return false
}

func (n *nodeC) DataRefByName(name string) (any, bool) {
	if name == "count" {
		return n.Count, true
	}
	return nil, false
}

func testSchemaBuilder() *SchemaBuilder {
	return NewSchemaBuilder().
		Variant(typeA, "A", func() Node { return &nodeA{} },
			FieldSpec{ID: aPeer, Name: "peer", Cardinality: One},
			FieldSpec{ID: aChildren, Name: "children", Cardinality: Many}).
		Variant(typeB, "B", func() Node { return &nodeB{} },
			FieldSpec{ID: bParent, Name: "parent", Cardinality: One},
			FieldSpec{ID: bTags, Name: "tags", Cardinality: Many}).
		Variant(typeC, "C", func() Node { return &nodeC{} },
			FieldSpec{ID: cOwners, Name: "owners", Cardinality: Many},
			FieldSpec{ID: cRef, Name: "ref", Cardinality: One}).
		Pair(mirrorAPeer, mirrorAPeer).
		Pair(mirrorAChildren, mirrorBParent).
		Pair(mirrorAChildren, mirrorCOwners).
		Pair(mirrorBTags, mirrorCOwners)
}

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := testSchemaBuilder().Build()
	require.NoError(t, err)
	return s
}

func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	return New(NewContext(testSchema(t), opts...))
}

// commitNew commits the given nodes in one transaction and returns their
// handles in order.
func commitNew(t *testing.T, g *Graph, nodes ...Node) []NodeIndex {
	t.Helper()
	tx := NewTransaction(g.Context())
	out := make([]NodeIndex, len(nodes))
	for i, n := range nodes {
		idx, err := tx.NewNode(n)
		require.NoError(t, err)
		out[i] = idx
	}
	require.NoError(t, g.Commit(tx))
	return out
}

func mustGet[T Node](t *testing.T, g *Graph, idx NodeIndex) T {
	t.Helper()
	n, ok := GetAs[T](g, idx)
	require.True(t, ok, "node %s not found", idx)
	return n
}
