package graph

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"
)

// FieldSpec declares one link field of a node type.
type FieldSpec struct {
	ID          FieldID
	Name        string
	Cardinality Cardinality
}

// VariantSpec declares one node type of the closed set.
type VariantSpec struct {
	Type   NodeType
	Name   string
	New    func() Node
	Fields []FieldSpec
}

type variant struct {
	spec    VariantSpec
	fields  map[FieldID]FieldSpec
	byName  map[string]FieldSpec
	ordered []FieldSpec
}

// Schema is the closed, build-time-known description of a graph: its node
// variants, their link fields and the declared bidirectional pairings.
//
// A Schema is immutable once built and safe for concurrent use.
type Schema struct {
	order    []NodeType
	variants map[NodeType]*variant
	byName   map[string]NodeType
	mirrors  map[LinkMirror][]LinkMirror
}

// SchemaBuilder collects variant and pairing declarations.
//
// Pair declares that two link kinds mirror each other: when a node gains a
// link of kind a to T, T's field b gains the node, and the other way round.
// Pairing a kind with several kinds on different variants lets a link target
// any of those variants. A kind with no pairing is one-directional and is
// never mirrored.
type SchemaBuilder struct {
	variants []VariantSpec
	pairs    [][2]LinkMirror
}

// NewSchemaBuilder returns an empty builder.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{}
}

// Variant declares a node type. newFn returns a zero value of the type and is
// used by generic tooling (fixture loading) to construct nodes by name.
func (b *SchemaBuilder) Variant(t NodeType, name string, newFn func() Node, fields ...FieldSpec) *SchemaBuilder {
	b.variants = append(b.variants, VariantSpec{
		Type:   t,
		Name:   name,
		New:    newFn,
		Fields: slices.Clone(fields),
	})
	return b
}

// Pair declares a bidirectional pairing between two link kinds.
func (b *SchemaBuilder) Pair(a, c LinkMirror) *SchemaBuilder {
	b.pairs = append(b.pairs, [2]LinkMirror{a, c})
	return b
}

// Build validates the declarations and returns the schema. All problems are
// reported together.
func (b *SchemaBuilder) Build() (*Schema, error) {
	s := &Schema{
		variants: make(map[NodeType]*variant, len(b.variants)),
		byName:   make(map[string]NodeType, len(b.variants)),
		mirrors:  make(map[LinkMirror][]LinkMirror),
	}

	var errs error
	for _, spec := range b.variants {
		errs = multierr.Append(errs, s.addVariant(spec))
	}
	for _, p := range b.pairs {
		errs = multierr.Append(errs, s.addPair(p[0], p[1]))
	}
	if errs != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, errs)
	}
	return s, nil
}

func (s *Schema) addVariant(spec VariantSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("node type %d: empty name", spec.Type)
	}
	if _, dup := s.variants[spec.Type]; dup {
		return fmt.Errorf("node type %d (%s): duplicate type id", spec.Type, spec.Name)
	}
	if _, dup := s.byName[spec.Name]; dup {
		return fmt.Errorf("node type %q: duplicate name", spec.Name)
	}
	if spec.New == nil {
		return fmt.Errorf("node type %q: missing constructor", spec.Name)
	}
	if proto := spec.New(); proto == nil || proto.NodeType() != spec.Type {
		return fmt.Errorf("node type %q: constructor returns a different variant", spec.Name)
	}

	v := &variant{
		spec:   spec,
		fields: make(map[FieldID]FieldSpec, len(spec.Fields)),
		byName: make(map[string]FieldSpec, len(spec.Fields)),
	}
	var errs error
	for _, f := range spec.Fields {
		switch {
		case f.Name == "":
			errs = multierr.Append(errs, fmt.Errorf("node type %q: field %d has no name", spec.Name, f.ID))
			continue
		case f.Cardinality != One && f.Cardinality != Many:
			errs = multierr.Append(errs, fmt.Errorf("node type %q: field %q has invalid cardinality", spec.Name, f.Name))
			continue
		}
		if _, dup := v.fields[f.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("node type %q: duplicate field id %d", spec.Name, f.ID))
			continue
		}
		if _, dup := v.byName[f.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("node type %q: duplicate field name %q", spec.Name, f.Name))
			continue
		}
		v.fields[f.ID] = f
		v.byName[f.Name] = f
		v.ordered = append(v.ordered, f)
	}
	if errs != nil {
		return errs
	}

	s.variants[spec.Type] = v
	s.byName[spec.Name] = spec.Type
	s.order = append(s.order, spec.Type)
	return nil
}

func (s *Schema) addPair(a, c LinkMirror) error {
	var errs error
	for _, l := range []LinkMirror{a, c} {
		if _, ok := s.Field(l); !ok {
			errs = multierr.Append(errs, fmt.Errorf("pair %s<->%s: %s is not a declared field", a, c, l))
		}
	}
	if errs != nil {
		return errs
	}
	// A link kind has at most one mirror per target variant, otherwise the
	// commit could not tell which field records the inverse.
	for _, dir := range [][2]LinkMirror{{a, c}, {c, a}} {
		if m, ok := s.mirrorOn(dir[0], dir[1].Type); ok && m != dir[1] {
			errs = multierr.Append(errs, fmt.Errorf("pair %s<->%s: %s already mirrors %s on %s",
				a, c, s.describe(dir[0]), s.describe(m), s.TypeName(m.Type)))
		}
	}
	if errs != nil {
		return errs
	}
	s.link(a, c)
	s.link(c, a)
	return nil
}

// mirrorOn returns the mirror of from declared on variant t, if any.
func (s *Schema) mirrorOn(from LinkMirror, t NodeType) (LinkMirror, bool) {
	for _, m := range s.mirrors[from] {
		if m.Type == t {
			return m, true
		}
	}
	return LinkMirror{}, false
}

func (s *Schema) link(from, to LinkMirror) {
	if slices.Contains(s.mirrors[from], to) {
		return
	}
	s.mirrors[from] = append(s.mirrors[from], to)
}

// Types returns the declared node types in declaration order.
func (s *Schema) Types() []NodeType {
	return slices.Clone(s.order)
}

// Has reports whether t is part of the schema.
func (s *Schema) Has(t NodeType) bool {
	_, ok := s.variants[t]
	return ok
}

// TypeName returns the declared name of t, or "" if unknown.
func (s *Schema) TypeName(t NodeType) string {
	if v, ok := s.variants[t]; ok {
		return v.spec.Name
	}
	return ""
}

// TypeByName resolves a declared type name.
func (s *Schema) TypeByName(name string) (NodeType, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// New returns a fresh zero value of type t.
func (s *Schema) New(t NodeType) (Node, error) {
	v, ok := s.variants[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNodeType, t)
	}
	return v.spec.New(), nil
}

// Fields returns the link fields of t in declaration order.
func (s *Schema) Fields(t NodeType) []FieldSpec {
	if v, ok := s.variants[t]; ok {
		return slices.Clone(v.ordered)
	}
	return nil
}

// Field returns the declaration of the field named by l.
func (s *Schema) Field(l LinkMirror) (FieldSpec, bool) {
	v, ok := s.variants[l.Type]
	if !ok {
		return FieldSpec{}, false
	}
	f, ok := v.fields[l.Field]
	return f, ok
}

// FieldByName resolves a field of t by name.
func (s *Schema) FieldByName(t NodeType, name string) (FieldSpec, bool) {
	v, ok := s.variants[t]
	if !ok {
		return FieldSpec{}, false
	}
	f, ok := v.byName[name]
	return f, ok
}

// MirrorsOf returns the link kinds paired with l. The result must not be
// modified. An empty result means l is one-directional.
func (s *Schema) MirrorsOf(l LinkMirror) []LinkMirror {
	return s.mirrors[l]
}

// IsBidirectional reports whether links of kind src are mirrored.
func (s *Schema) IsBidirectional(src Source) bool {
	return len(s.mirrors[src.ToLinkMirror()]) > 0
}

// describe renders a link kind with declared names for messages.
func (s *Schema) describe(l LinkMirror) string {
	f, ok := s.Field(l)
	if !ok {
		return l.String()
	}
	return s.TypeName(l.Type) + "." + f.Name
}
