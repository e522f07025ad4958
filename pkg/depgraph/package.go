package depgraph

import (
	"iter"

	"github.com/orneryd/tgraph/pkg/graph"
)

// Package is one importable Go package.
type Package struct {
	Name       string `yaml:"name"`
	ImportPath string `yaml:"import_path"`
	Stdlib     bool   `yaml:"stdlib"`

	Module      graph.LinkRef `yaml:"-"`
	Imports     graph.LinkSet `yaml:"-"`
	ImportedBy  graph.LinkSet `yaml:"-"`
	Maintainers graph.LinkSet `yaml:"-"`
}

var packageFields = graph.Accessors[*Package]{
	"name":        func(p *Package) any { return p.Name },
	"import_path": func(p *Package) any { return p.ImportPath },
	"stdlib":      func(p *Package) any { return p.Stdlib },
}

func (p *Package) NodeType() graph.NodeType { return TypePackage }

func (p *Package) Clone() graph.Node {
	c := *p
	c.Imports = p.Imports.Clone()
	c.ImportedBy = p.ImportedBy.Clone()
	c.Maintainers = p.Maintainers.Clone()
	return &c
}

func (p *Package) IterSource() iter.Seq2[graph.NodeIndex, graph.FieldID] {
	return func(yield func(graph.NodeIndex, graph.FieldID) bool) {
		_ = yieldField(yield, PackageModule, p.Module.Iter()) &&
			yieldField(yield, PackageImports, p.Imports.Iter()) &&
			yieldField(yield, PackageImportedBy, p.ImportedBy.Iter()) &&
			yieldField(yield, PackageMaintainers, p.Maintainers.Iter())
	}
}

func (p *Package) IterLink(f graph.FieldID) iter.Seq[graph.NodeIndex] {
	switch f {
	case PackageModule:
		return p.Module.Iter()
	case PackageImports:
		return p.Imports.Iter()
	case PackageImportedBy:
		return p.ImportedBy.Iter()
	case PackageMaintainers:
		return p.Maintainers.Iter()
	}
	return none
}

func (p *Package) ModifyLink(f graph.FieldID, old, new graph.NodeIndex) (bool, bool) {
	switch f {
	case PackageModule:
		return p.Module.Modify(old, new)
	case PackageImports:
		return p.Imports.Modify(old, new)
	case PackageImportedBy:
		return p.ImportedBy.Modify(old, new)
	case PackageMaintainers:
		return p.Maintainers.Modify(old, new)
	}
	return false, false
}

func (p *Package) AddLink(f graph.FieldID, target graph.NodeIndex) bool {
	switch f {
	case PackageModule:
		return p.Module.Add(target)
	case PackageImports:
		return p.Imports.Add(target)
	case PackageImportedBy:
		return p.ImportedBy.Add(target)
	case PackageMaintainers:
		return p.Maintainers.Add(target)
	}
	return false
}

func (p *Package) RemoveLink(f graph.FieldID, target graph.NodeIndex) bool {
	switch f {
	case PackageModule:
		return p.Module.Remove(target)
	case PackageImports:
		return p.Imports.Remove(target)
	case PackageImportedBy:
		return p.ImportedBy.Remove(target)
	case PackageMaintainers:
		return p.Maintainers.Remove(target)
	}
	return false
}

func (p *Package) DataRefByName(name string) (any, bool) {
	return packageFields.Lookup(p, name)
}
