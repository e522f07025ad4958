// Package depgraph is a sample closed schema for the graph engine: Go
// packages, the modules that ship them, and their maintainers.
//
// Every link field is kept bidirectional by the engine except
// Module.replace, which is a one-directional pointer:
//
//	Package.module       <-> Module.packages
//	Package.imports      <-> Package.imported_by
//	Package.maintainers  <-> Maintainer.owns
//	Module.maintainers   <-> Maintainer.owns
//	Module.requires      <-> Module.required_by
//	Module.replace           (not mirrored)
package depgraph

import (
	"iter"
	"sync"

	"github.com/orneryd/tgraph/pkg/graph"
)

// Node types.
const (
	TypePackage graph.NodeType = iota + 1
	TypeModule
	TypeMaintainer
)

// Package fields.
const (
	PackageModule graph.FieldID = iota + 1
	PackageImports
	PackageImportedBy
	PackageMaintainers
)

// Module fields.
const (
	ModulePackages graph.FieldID = iota + 1
	ModuleRequires
	ModuleRequiredBy
	ModuleMaintainers
	ModuleReplace
)

// Maintainer fields.
const (
	MaintainerOwns graph.FieldID = iota + 1
)

var (
	schemaOnce sync.Once
	schema     *graph.Schema
	schemaErr  error
)

// Schema returns the depgraph schema.
func Schema() (*graph.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = Builder().Build()
	})
	return schema, schemaErr
}

// MustSchema is like Schema but panics on error.
func MustSchema() *graph.Schema {
	s, err := Schema()
	if err != nil {
		panic(err)
	}
	return s
}

// Builder returns the schema declarations, for callers that want to extend
// them.
func Builder() *graph.SchemaBuilder {
	m := func(t graph.NodeType, f graph.FieldID) graph.LinkMirror {
		return graph.LinkMirror{Type: t, Field: f}
	}
	return graph.NewSchemaBuilder().
		Variant(TypePackage, "Package", func() graph.Node { return &Package{} },
			graph.FieldSpec{ID: PackageModule, Name: "module", Cardinality: graph.One},
			graph.FieldSpec{ID: PackageImports, Name: "imports", Cardinality: graph.Many},
			graph.FieldSpec{ID: PackageImportedBy, Name: "imported_by", Cardinality: graph.Many},
			graph.FieldSpec{ID: PackageMaintainers, Name: "maintainers", Cardinality: graph.Many}).
		Variant(TypeModule, "Module", func() graph.Node { return &Module{} },
			graph.FieldSpec{ID: ModulePackages, Name: "packages", Cardinality: graph.Many},
			graph.FieldSpec{ID: ModuleRequires, Name: "requires", Cardinality: graph.Many},
			graph.FieldSpec{ID: ModuleRequiredBy, Name: "required_by", Cardinality: graph.Many},
			graph.FieldSpec{ID: ModuleMaintainers, Name: "maintainers", Cardinality: graph.Many},
			graph.FieldSpec{ID: ModuleReplace, Name: "replace", Cardinality: graph.One}).
		Variant(TypeMaintainer, "Maintainer", func() graph.Node { return &Maintainer{} },
			graph.FieldSpec{ID: MaintainerOwns, Name: "owns", Cardinality: graph.Many}).
		Pair(m(TypePackage, PackageModule), m(TypeModule, ModulePackages)).
		Pair(m(TypePackage, PackageImports), m(TypePackage, PackageImportedBy)).
		Pair(m(TypePackage, PackageMaintainers), m(TypeMaintainer, MaintainerOwns)).
		Pair(m(TypeModule, ModuleMaintainers), m(TypeMaintainer, MaintainerOwns)).
		Pair(m(TypeModule, ModuleRequires), m(TypeModule, ModuleRequiredBy))
}

func none(func(graph.NodeIndex) bool) {}

// yieldField emits every member of seq as (member, f).
func yieldField(yield func(graph.NodeIndex, graph.FieldID) bool, f graph.FieldID, seq iter.Seq[graph.NodeIndex]) bool {
	for t := range seq {
		if !yield(t, f) {
			return false
		}
	}
	return true
}
