// Package fixture loads graph fixtures from YAML files into a transaction.
//
// A fixture file lists nodes by a file-local id. Data fields are decoded
// straight into the node type's zero value; link fields are named by their
// schema field name and refer to other fixture ids, possibly in other files
// of the same load:
//
//	nodes:
//	  - id: yaml
//	    type: Module
//	    data: {path: gopkg.in/yaml.v3, version: v3.0.1}
//	  - id: yaml-pkg
//	    type: Package
//	    data: {name: yaml, import_path: gopkg.in/yaml.v3}
//	    links:
//	      module: [yaml]
//
// Only one side of a paired link needs to be written; the commit fills in
// the mirror.
//
// Example Usage:
//
//	l := fixture.NewLoader(schema, os.DirFS("testdata"), log)
//	tx := graph.NewTransaction(ctx)
//	res, err := l.Load(tx, "**/*.yaml")
//	if err != nil {
//		return err
//	}
//	if err := g.Commit(tx); err != nil {
//		return err
//	}
//	idx := res.Nodes["yaml-pkg"]
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-logr/logr"
	"gopkg.in/yaml.v3"

	"github.com/orneryd/tgraph/pkg/graph"
)

// Fixture errors
var (
	ErrNoFiles       = errors.New("no fixture files matched")
	ErrDuplicateID   = errors.New("duplicate fixture id")
	ErrUnknownID     = errors.New("unknown fixture id")
	ErrUnknownType   = errors.New("unknown node type")
	ErrUnknownField  = errors.New("unknown link field")
	ErrTooManyLinks  = errors.New("too many targets for single-valued field")
	ErrMissingNodeID = errors.New("fixture node has no id")
)

// Document is one decoded fixture file.
type Document struct {
	Nodes []NodeSpec `yaml:"nodes"`
}

// NodeSpec declares one node.
type NodeSpec struct {
	ID    string              `yaml:"id"`
	Type  string              `yaml:"type"`
	Data  yaml.Node           `yaml:"data"`
	Links map[string][]string `yaml:"links"`
}

// Decode reads one fixture document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, err
	}
	return &doc, nil
}

// Result reports what a Load staged.
type Result struct {
	// Files are the loaded files in load order.
	Files []string
	// Nodes maps fixture ids to the handles reserved for them.
	Nodes map[string]graph.NodeIndex
}

// Loader stages fixtures against one schema.
type Loader struct {
	schema *graph.Schema
	fsys   fs.FS
	log    logr.Logger
}

// NewLoader creates a loader reading from fsys.
func NewLoader(schema *graph.Schema, fsys fs.FS, log logr.Logger) *Loader {
	return &Loader{
		schema: schema,
		fsys:   fsys,
		log:    log.WithName("fixture"),
	}
}

// Files expands patterns (doublestar syntax, e.g. "deps/**/*.yaml") into a
// sorted, de-duplicated file list.
func (l *Loader) Files(patterns ...string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid pattern %q", pattern)
		}
		matches, err := doublestar.Glob(l.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			seen[m] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoFiles, patterns)
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

type staged struct {
	file string
	spec NodeSpec
	typ  graph.NodeType
	idx  graph.NodeIndex
}

// Load stages every node of the files matching patterns in tx. Nodes are
// created first and linked in a second pass, so links may refer to nodes
// declared later or in other files. On error tx may hold part of the
// fixture; roll it back.
func (l *Loader) Load(tx *graph.Transaction, patterns ...string) (*Result, error) {
	files, err := l.Files(patterns...)
	if err != nil {
		return nil, err
	}

	res := &Result{Files: files, Nodes: make(map[string]graph.NodeIndex)}
	var nodes []*staged

	for _, file := range files {
		doc, err := l.readFile(file)
		if err != nil {
			return nil, err
		}
		for _, spec := range doc.Nodes {
			s, err := l.create(tx, file, spec, res.Nodes)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, s)
		}
		l.log.V(1).Info("staged fixture file", "file", file, "nodes", len(doc.Nodes))
	}

	for _, s := range nodes {
		if err := l.link(tx, s, res.Nodes); err != nil {
			return nil, err
		}
	}

	l.log.Info("fixtures staged", "files", len(files), "nodes", len(res.Nodes))
	return res, nil
}

func (l *Loader) readFile(file string) (*Document, error) {
	f, err := l.fsys.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return doc, nil
}

func (l *Loader) create(tx *graph.Transaction, file string, spec NodeSpec, ids map[string]graph.NodeIndex) (*staged, error) {
	if spec.ID == "" {
		return nil, fmt.Errorf("%s: %w (type %q)", file, ErrMissingNodeID, spec.Type)
	}
	if _, dup := ids[spec.ID]; dup {
		return nil, fmt.Errorf("%s: %w: %q", file, ErrDuplicateID, spec.ID)
	}
	typ, ok := l.schema.TypeByName(spec.Type)
	if !ok {
		return nil, fmt.Errorf("%s: node %q: %w: %q", file, spec.ID, ErrUnknownType, spec.Type)
	}

	n, err := l.schema.New(typ)
	if err != nil {
		return nil, err
	}
	if !spec.Data.IsZero() {
		if err := decodeStrict(&spec.Data, n); err != nil {
			return nil, fmt.Errorf("%s: node %q: %w", file, spec.ID, err)
		}
	}

	idx, err := tx.NewNode(n)
	if err != nil {
		return nil, fmt.Errorf("%s: node %q: %w", file, spec.ID, err)
	}
	ids[spec.ID] = idx
	return &staged{file: file, spec: spec, typ: typ, idx: idx}, nil
}

// decodeStrict decodes a data block into n, rejecting keys n does not declare.
// yaml.Node.Decode has no KnownFields switch, so the block is re-encoded and
// run through a strict decoder.
func decodeStrict(data *yaml.Node, n graph.Node) error {
	raw, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(n)
}

type linkEdit struct {
	src    graph.Source
	target graph.NodeIndex
}

// link resolves the node's declared links and stages them as one update.
func (l *Loader) link(tx *graph.Transaction, s *staged, ids map[string]graph.NodeIndex) error {
	if len(s.spec.Links) == 0 {
		return nil
	}

	var edits []linkEdit
	for _, name := range slices.Sorted(maps.Keys(s.spec.Links)) {
		targets := s.spec.Links[name]
		f, ok := l.schema.FieldByName(s.typ, name)
		if !ok {
			return fmt.Errorf("%s: node %q: %w: %s.%s", s.file, s.spec.ID, ErrUnknownField, s.spec.Type, name)
		}
		if f.Cardinality == graph.One && len(targets) > 1 {
			return fmt.Errorf("%s: node %q: %w: %s has %d", s.file, s.spec.ID, ErrTooManyLinks, name, len(targets))
		}
		for _, ref := range targets {
			target, ok := ids[ref]
			if !ok {
				return fmt.Errorf("%s: node %q: %w: %q", s.file, s.spec.ID, ErrUnknownID, ref)
			}
			edits = append(edits, linkEdit{src: graph.Source{Type: s.typ, Field: f.ID}, target: target})
		}
	}

	return tx.UpdateNode(s.idx, func(n graph.Node) graph.Node {
		for _, e := range edits {
			if _, err := l.schema.ModifyLink(n, e.src, graph.Empty(), e.target); err != nil {
				panic(err)
			}
		}
		return n
	})
}
