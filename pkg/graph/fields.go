package graph

import "slices"

// Accessors is a per-type registry mapping a data field name to a getter.
// Node types use it to implement DataRefByName without reflection:
//
//	var folderFields = graph.Accessors[*Folder]{
//		"name": func(f *Folder) any { return f.Name },
//	}
//
//	func (f *Folder) DataRefByName(name string) (any, bool) {
//		return folderFields.Lookup(f, name)
//	}
type Accessors[N any] map[string]func(N) any

// Lookup returns the named field of n.
func (a Accessors[N]) Lookup(n N, name string) (any, bool) {
	get, ok := a[name]
	if !ok {
		return nil, false
	}
	return get(n), true
}

// Names returns the registered field names in sorted order.
func (a Accessors[N]) Names() []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DataRef returns the named data field of n as a T.
//
// It reports false both when the field does not exist and when it holds a
// value of another type; callers cannot tell the two apart.
func DataRef[T any](n TypedNode, name string) (T, bool) {
	var zero T
	if n == nil {
		return zero, false
	}
	v, ok := n.DataRefByName(name)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
