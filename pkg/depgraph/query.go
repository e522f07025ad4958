package depgraph

import (
	"github.com/orneryd/tgraph/pkg/graph"
)

// FindPackage returns the package with the given import path.
func FindPackage(g *graph.Graph, importPath string) (graph.NodeIndex, *Package, bool) {
	for idx, p := range graph.IterAs[*Package](g) {
		if p.ImportPath == importPath {
			return idx, p, true
		}
	}
	return graph.Empty(), nil, false
}

// TransitiveImports returns every package reachable from start through
// imports, in breadth-first order. start itself is not included.
func TransitiveImports(g *graph.Graph, start graph.NodeIndex) []graph.NodeIndex {
	return walk(g, start, func(p *Package) graph.LinkSet { return p.Imports })
}

// Dependents returns every package that imports start directly or
// indirectly, in breadth-first order.
func Dependents(g *graph.Graph, start graph.NodeIndex) []graph.NodeIndex {
	return walk(g, start, func(p *Package) graph.LinkSet { return p.ImportedBy })
}

func walk(g *graph.Graph, start graph.NodeIndex, next func(*Package) graph.LinkSet) []graph.NodeIndex {
	seen := map[graph.NodeIndex]bool{start: true}
	queue := []graph.NodeIndex{start}
	var out []graph.NodeIndex
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		p, ok := graph.GetAs[*Package](g, cur)
		if !ok {
			continue
		}
		for n := range next(p).Iter() {
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
			queue = append(queue, n)
		}
	}
	return out
}

// ModuleOf returns the module shipping the package at idx.
func ModuleOf(g *graph.Graph, idx graph.NodeIndex) (*Module, bool) {
	p, ok := graph.GetAs[*Package](g, idx)
	if !ok || !p.Module.IsSet() {
		return nil, false
	}
	return graph.GetAs[*Module](g, p.Module.Target())
}
