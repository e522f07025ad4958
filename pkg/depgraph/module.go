package depgraph

import (
	"iter"

	"github.com/orneryd/tgraph/pkg/graph"
)

// Module is a versioned Go module.
type Module struct {
	Path    string `yaml:"path"`
	Version string `yaml:"version"`

	Packages    graph.LinkSet `yaml:"-"`
	Requires    graph.LinkSet `yaml:"-"`
	RequiredBy  graph.LinkSet `yaml:"-"`
	Maintainers graph.LinkSet `yaml:"-"`
	// Replace points at the module substituted for this one. It is not
	// mirrored: the replacement does not know who replaces to it.
	Replace graph.LinkRef `yaml:"-"`
}

var moduleFields = graph.Accessors[*Module]{
	"path":    func(m *Module) any { return m.Path },
	"version": func(m *Module) any { return m.Version },
}

func (m *Module) NodeType() graph.NodeType { return TypeModule }

func (m *Module) Clone() graph.Node {
	c := *m
	c.Packages = m.Packages.Clone()
	c.Requires = m.Requires.Clone()
	c.RequiredBy = m.RequiredBy.Clone()
	c.Maintainers = m.Maintainers.Clone()
	return &c
}

func (m *Module) IterSource() iter.Seq2[graph.NodeIndex, graph.FieldID] {
	return func(yield func(graph.NodeIndex, graph.FieldID) bool) {
		_ = yieldField(yield, ModulePackages, m.Packages.Iter()) &&
			yieldField(yield, ModuleRequires, m.Requires.Iter()) &&
			yieldField(yield, ModuleRequiredBy, m.RequiredBy.Iter()) &&
			yieldField(yield, ModuleMaintainers, m.Maintainers.Iter()) &&
			yieldField(yield, ModuleReplace, m.Replace.Iter())
	}
}

func (m *Module) IterLink(f graph.FieldID) iter.Seq[graph.NodeIndex] {
	switch f {
	case ModulePackages:
		return m.Packages.Iter()
	case ModuleRequires:
		return m.Requires.Iter()
	case ModuleRequiredBy:
		return m.RequiredBy.Iter()
	case ModuleMaintainers:
		return m.Maintainers.Iter()
	case ModuleReplace:
		return m.Replace.Iter()
	}
	return none
}

func (m *Module) ModifyLink(f graph.FieldID, old, new graph.NodeIndex) (bool, bool) {
	switch f {
	case ModulePackages:
		return m.Packages.Modify(old, new)
	case ModuleRequires:
		return m.Requires.Modify(old, new)
	case ModuleRequiredBy:
		return m.RequiredBy.Modify(old, new)
	case ModuleMaintainers:
		return m.Maintainers.Modify(old, new)
	case ModuleReplace:
		return m.Replace.Modify(old, new)
	}
	return false, false
}

func (m *Module) AddLink(f graph.FieldID, target graph.NodeIndex) bool {
	switch f {
	case ModulePackages:
		return m.Packages.Add(target)
	case ModuleRequires:
		return m.Requires.Add(target)
	case ModuleRequiredBy:
		return m.RequiredBy.Add(target)
	case ModuleMaintainers:
		return m.Maintainers.Add(target)
	case ModuleReplace:
		return m.Replace.Add(target)
	}
	return false
}

func (m *Module) RemoveLink(f graph.FieldID, target graph.NodeIndex) bool {
	switch f {
	case ModulePackages:
		return m.Packages.Remove(target)
	case ModuleRequires:
		return m.Requires.Remove(target)
	case ModuleRequiredBy:
		return m.RequiredBy.Remove(target)
	case ModuleMaintainers:
		return m.Maintainers.Remove(target)
	case ModuleReplace:
		return m.Replace.Remove(target)
	}
	return false
}

func (m *Module) DataRefByName(name string) (any, bool) {
	return moduleFields.Lookup(m, name)
}
