package graph

import "iter"

// TypedNode is the per-type contract describing a node type's link topology.
//
// Field identifiers are local to the implementing type; the same FieldID is
// used for a field's forward role (Source) and its inverse role (LinkMirror).
// Implementations must treat a FieldID they do not declare as "no such
// field": iterate nothing and report no change.
//
// Implementations are usually hand-written with the LinkRef and LinkSet
// helpers, or produced by a generator from a declarative type list.
type TypedNode interface {
	// IterSource yields every outgoing link currently held, paired with the
	// field holding it. Empty single-valued fields are skipped.
	IterSource() iter.Seq2[NodeIndex, FieldID]

	// IterLink yields the current members of one link field.
	IterLink(field FieldID) iter.Seq[NodeIndex]

	// ModifyLink moves the field from old to new. removed is true iff old was
	// non-empty and actually present; added is true iff new is non-empty.
	ModifyLink(field FieldID, old, new NodeIndex) (removed, added bool)

	// AddLink adds target to the field and reports whether the field changed.
	AddLink(field FieldID, target NodeIndex) bool

	// RemoveLink removes target from the field and reports whether the field
	// changed.
	RemoveLink(field FieldID, target NodeIndex) bool

	// DataRefByName returns a named data field. Unknown names report false.
	DataRefByName(name string) (any, bool)
}

// Node is one value of the graph's closed node set: a TypedNode that knows its
// own variant tag and can copy itself.
//
// Clone must return a deep copy: commits mutate clones, never values that
// readers may still hold.
type Node interface {
	TypedNode
	NodeType() NodeType
	Clone() Node
}
