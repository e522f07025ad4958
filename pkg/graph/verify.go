package graph

import (
	"fmt"
	"iter"

	"go.uber.org/multierr"
)

// verify checks that every mirrored outgoing link in nodes is recorded in the
// matching mirror field of its target.
func verify(schema *Schema, nodes iter.Seq2[NodeIndex, Node], lookup func(NodeIndex) (Node, bool)) error {
	var errs error
	for idx, n := range nodes {
		for target, src := range IterSource(n) {
			mirrors := schema.MirrorsOf(src.ToLinkMirror())
			if len(mirrors) == 0 {
				continue
			}
			kind := schema.describe(src.ToLinkMirror())

			t, ok := lookup(target)
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("%s %s -> %s: target does not exist", kind, idx, target))
				continue
			}
			m, ok := MatchMirror(t, mirrors)
			if !ok {
				errs = multierr.Append(errs, fmt.Errorf("%s %s -> %s: %s has no matching mirror",
					kind, idx, target, schema.TypeName(t.NodeType())))
				continue
			}
			if !HasLink(t, m.Field, idx) {
				errs = multierr.Append(errs, fmt.Errorf("%s %s -> %s: missing from %s",
					kind, idx, target, schema.describe(m)))
			}
		}
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInconsistentGraph, errs)
	}
	return nil
}
