package graph

import (
	"fmt"
	"iter"
)

// Typed access for callers that know the concrete node type they expect.
// T is the concrete Go type of one variant, usually a pointer type.

// GetAs returns the committed node at idx as a T. It reports false when the
// handle does not resolve or the node is another variant.
func GetAs[T Node](g *Graph, idx NodeIndex) (T, bool) {
	var zero T
	n, ok := g.GetNode(idx)
	if !ok {
		return zero, false
	}
	typed, ok := n.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// IterAs yields the committed nodes of type T in slot order.
func IterAs[T Node](g *Graph) iter.Seq2[NodeIndex, T] {
	return func(yield func(NodeIndex, T) bool) {
		for idx, n := range g.IterNodes() {
			typed, ok := n.(T)
			if !ok {
				continue
			}
			if !yield(idx, typed) {
				return
			}
		}
	}
}

// NewAs stages the creation of n.
func NewAs[T Node](tx *Transaction, n T) (NodeIndex, error) {
	return tx.NewNode(n)
}

// MutAs stages a data-only edit of the T at idx. If the node turns out to be
// another variant, the commit fails with ErrVariantMismatch.
func MutAs[T Node](tx *Transaction, idx NodeIndex, edit func(T)) error {
	if edit == nil {
		return fmt.Errorf("%w: nil edit", ErrInvalidNode)
	}
	return tx.stageMut(idx, func(n Node) error {
		typed, err := as[T](tx.ctx.schema, n)
		if err != nil {
			return err
		}
		edit(typed)
		return nil
	})
}

// UpdateAs stages a full replacement of the T at idx. If the node turns out to
// be another variant, the commit fails with ErrVariantMismatch.
func UpdateAs[T Node](tx *Transaction, idx NodeIndex, replace func(T) T) error {
	if replace == nil {
		return fmt.Errorf("%w: nil replace", ErrInvalidNode)
	}
	return tx.stageUpdate(idx, func(n Node) (Node, error) {
		typed, err := as[T](tx.ctx.schema, n)
		if err != nil {
			return nil, err
		}
		return replace(typed), nil
	})
}

func as[T Node](schema *Schema, n Node) (T, error) {
	typed, ok := n.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: node is %s, want %T", ErrVariantMismatch, schema.TypeName(n.NodeType()), zero)
	}
	return typed, nil
}
