package depgraph

import (
	"iter"

	"github.com/orneryd/tgraph/pkg/graph"
)

// Maintainer owns packages and modules.
type Maintainer struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`

	Owns graph.LinkSet `yaml:"-"`
}

func (m *Maintainer) NodeType() graph.NodeType { return TypeMaintainer }

func (m *Maintainer) Clone() graph.Node {
	c := *m
	c.Owns = m.Owns.Clone()
	return &c
}

func (m *Maintainer) IterSource() iter.Seq2[graph.NodeIndex, graph.FieldID] {
	return func(yield func(graph.NodeIndex, graph.FieldID) bool) {
		yieldField(yield, MaintainerOwns, m.Owns.Iter())
	}
}

func (m *Maintainer) IterLink(f graph.FieldID) iter.Seq[graph.NodeIndex] {
	if f == MaintainerOwns {
		return m.Owns.Iter()
	}
	return none
}

func (m *Maintainer) ModifyLink(f graph.FieldID, old, new graph.NodeIndex) (bool, bool) {
	if f == MaintainerOwns {
		return m.Owns.Modify(old, new)
	}
	return false, false
}

func (m *Maintainer) AddLink(f graph.FieldID, target graph.NodeIndex) bool {
	return f == MaintainerOwns && m.Owns.Add(target)
}

func (m *Maintainer) RemoveLink(f graph.FieldID, target graph.NodeIndex) bool {
	return f == MaintainerOwns && m.Owns.Remove(target)
}

func (m *Maintainer) DataRefByName(name string) (any, bool) {
	switch name {
	case "name":
		return m.Name, true
	case "email":
		return m.Email, true
	}
	return nil, false
}
