// Package graph provides a typed, transactional, in-memory graph store that
// keeps inverse ("mirror") links consistent with forward links.
//
// The graph holds a closed set of node types declared up front in a Schema.
// Each node type describes its own link topology through the TypedNode
// methods; the Schema records which link kinds mirror each other. Mutations
// are staged in a Transaction and applied by Graph.Commit, which diffs link
// sets and propagates the resulting mirror edits before the new state becomes
// visible to readers.
//
// Design Principles:
//   - Stable handles: NodeIndex is a generation-checked arena handle
//   - Staging is invisible: nothing reaches the graph before Commit
//   - All-or-nothing: Commit computes the full change set first, then publishes
//   - Duplicated forward+inverse storage for O(1) reverse navigation
//
// Example Usage:
//
//	schema, _ := graph.NewSchemaBuilder().
//		Variant(TypeFolder, "Folder", newFolder,
//			graph.FieldSpec{ID: FolderFiles, Name: "files", Cardinality: graph.Many}).
//		Variant(TypeFile, "File", newFile,
//			graph.FieldSpec{ID: FileFolder, Name: "folder", Cardinality: graph.One}).
//		Pair(graph.LinkMirror{Type: TypeFolder, Field: FolderFiles},
//			graph.LinkMirror{Type: TypeFile, Field: FileFolder}).
//		Build()
//
//	ctx := graph.NewContext(schema)
//	g := graph.New(ctx)
//
//	tx := graph.NewTransaction(ctx)
//	dir, _ := tx.NewNode(&Folder{Name: "src"})
//	f, _ := tx.NewNode(&File{Name: "main.go", Folder: graph.LinkTo(dir)})
//	if err := g.Commit(tx); err != nil {
//		return err
//	}
//
//	// The mirror was maintained: the folder now lists the file.
//	folder, _ := graph.GetAs[*Folder](g, dir)
//	fmt.Println(folder.Files.Contains(f)) // true
package graph

import (
	"fmt"

	"github.com/orneryd/tgraph/pkg/arena"
)

// NodeIndex is an opaque, generation-checked handle to a node.
// The zero value (Empty) means "no link".
type NodeIndex = arena.Index

// Empty returns the reserved "no link" handle.
func Empty() NodeIndex {
	return arena.Empty()
}

// NodeType tags one variant of the graph's closed node set.
type NodeType uint16

// FieldID identifies one link field within a node type.
type FieldID uint16

// Cardinality describes how many targets a link field holds.
type Cardinality uint8

const (
	// One is a single-valued link field; Empty means unset.
	One Cardinality = iota + 1
	// Many is a set-valued link field.
	Many
)

func (c Cardinality) String() string {
	switch c {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return "unknown"
	}
}

// Source names one outgoing link kind: a field of a node type, used in its
// forward role.
type Source struct {
	Type  NodeType
	Field FieldID
}

// ToLinkMirror returns the inverse-role tag for the same field.
func (s Source) ToLinkMirror() LinkMirror {
	return LinkMirror(s)
}

func (s Source) String() string {
	return fmt.Sprintf("source(%d.%d)", s.Type, s.Field)
}

// LinkMirror names one inverse link kind: a field of a node type, used as the
// set that receives mirror edits. It carries no target.
type LinkMirror struct {
	Type  NodeType
	Field FieldID
}

// ToSource returns the forward-role tag for the same field.
func (l LinkMirror) ToSource() Source {
	return Source(l)
}

func (l LinkMirror) String() string {
	return fmt.Sprintf("mirror(%d.%d)", l.Type, l.Field)
}

// Link is one outgoing link instance: a link kind plus its current target.
// It is comparable and is the key used when diffing link sets.
type Link struct {
	Target NodeIndex
	Source Source
}

// SideEffect describes the mirror edits a single link-field change at one node
// requires at the other endpoint(s).
//
// Mirrors lists the candidate mirror kinds on the other endpoint; the one that
// matches the endpoint's variant is edited. Add and Remove are Empty when no
// add or no remove is needed.
type SideEffect struct {
	Mirrors []LinkMirror
	Add     NodeIndex
	Remove  NodeIndex
}

// IsZero reports whether the side effect requires no mirror edit.
func (e SideEffect) IsZero() bool {
	return e.Add.IsEmpty() && e.Remove.IsEmpty()
}
