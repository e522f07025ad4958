package graph

import (
	"fmt"
	"iter"
)

// Whole-graph dispatch over the active variant of a Node.
//
// These methods are the NodeEnum capability: each one checks that the tag it
// is given belongs to the node's variant and forwards to the variant's
// TypedNode implementation. A tag from another variant is a caller defect and
// is reported as ErrVariantMismatch.

// CheckLink reports whether mirror kind l belongs to n's variant, i.e. whether
// AddLink/RemoveLink with l may be applied to n.
func CheckLink(n Node, l LinkMirror) bool {
	return n != nil && n.NodeType() == l.Type
}

func checkSource(n Node, src Source) error {
	if n == nil {
		return ErrInvalidNode
	}
	if n.NodeType() != src.Type {
		return fmt.Errorf("%w: node is %d, source is %s", ErrVariantMismatch, n.NodeType(), src)
	}
	return nil
}

func checkMirror(n Node, l LinkMirror) error {
	if n == nil {
		return ErrInvalidNode
	}
	if !CheckLink(n, l) {
		return fmt.Errorf("%w: node is %d, mirror is %s", ErrVariantMismatch, n.NodeType(), l)
	}
	return nil
}

// IterSource yields every outgoing link of n tagged with its graph-wide Source.
func IterSource(n Node) iter.Seq2[NodeIndex, Source] {
	return func(yield func(NodeIndex, Source) bool) {
		if n == nil {
			return
		}
		t := n.NodeType()
		for target, field := range n.IterSource() {
			if !yield(target, Source{Type: t, Field: field}) {
				return
			}
		}
	}
}

// Links collects the outgoing links of n as a set keyed by (target, source).
func Links(n Node) map[Link]struct{} {
	out := make(map[Link]struct{})
	for target, src := range IterSource(n) {
		out[Link{Target: target, Source: src}] = struct{}{}
	}
	return out
}

// IterLink yields the members of n's mirror field l.
func IterLink(n Node, l LinkMirror) (iter.Seq[NodeIndex], error) {
	if err := checkMirror(n, l); err != nil {
		return nil, err
	}
	return n.IterLink(l.Field), nil
}

// AddLink adds target to n's mirror field l.
func AddLink(n Node, l LinkMirror, target NodeIndex) (bool, error) {
	if err := checkMirror(n, l); err != nil {
		return false, err
	}
	return n.AddLink(l.Field, target), nil
}

// RemoveLink removes target from n's mirror field l.
func RemoveLink(n Node, l LinkMirror, target NodeIndex) (bool, error) {
	if err := checkMirror(n, l); err != nil {
		return false, err
	}
	return n.RemoveLink(l.Field, target), nil
}

// ModifyLink moves n's field src from old to new and returns the mirror edits
// this requires on the other endpoint: Remove is old when old was actually
// dropped, Add is new when new is a real target, Mirrors are the paired kinds.
func (s *Schema) ModifyLink(n Node, src Source, old, new NodeIndex) (SideEffect, error) {
	if err := checkSource(n, src); err != nil {
		return SideEffect{}, err
	}
	removed, added := n.ModifyLink(src.Field, old, new)
	effect := SideEffect{
		Mirrors: s.MirrorsOf(src.ToLinkMirror()),
		Add:     Empty(),
		Remove:  Empty(),
	}
	if added {
		effect.Add = new
	}
	if removed {
		effect.Remove = old
	}
	return effect, nil
}

// MatchMirror picks the mirror kind among candidates that belongs to n's
// variant.
func MatchMirror(n Node, candidates []LinkMirror) (LinkMirror, bool) {
	for _, m := range candidates {
		if CheckLink(n, m) {
			return m, true
		}
	}
	return LinkMirror{}, false
}

// HasLink reports whether field f of n currently contains target.
func HasLink(n TypedNode, f FieldID, target NodeIndex) bool {
	for member := range n.IterLink(f) {
		if member == target {
			return true
		}
	}
	return false
}

func firstLink(n TypedNode, f FieldID) NodeIndex {
	for member := range n.IterLink(f) {
		return member
	}
	return Empty()
}
