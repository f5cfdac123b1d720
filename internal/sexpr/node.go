// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sexpr parses and serializes the parenthesized schematic
// interchange format. A parsed document is an ordered tree of two node
// kinds: Atom (identifier, number, or quoted string) and List (ordered
// sequence of child nodes). The grammar is treated as opaque beyond
// delimiter balance, string quoting, and head-atom tagging; higher layers
// assign meaning to tags.
package sexpr

// Node is one element of a parsed tree: an Atom or a *List.
type Node interface {
	node()
}

// Atom is an opaque token. Quoted records whether the token appeared as a
// quoted string in the source, so serialization can reproduce it.
type Atom struct {
	Value  string
	Quoted bool
}

// List is an ordered sequence of child nodes, possibly empty.
type List struct {
	Items []Node
}

func (Atom) node()  {}
func (*List) node() {}

// Head returns the list's leading atom value, or "" when the list is empty
// or does not start with an atom. Tagged lists in the schematic format
// always lead with a bare identifier atom.
func (l *List) Head() string {
	if l == nil || len(l.Items) == 0 {
		return ""
	}
	if a, ok := l.Items[0].(Atom); ok {
		return a.Value
	}
	return ""
}

// Field returns the first child list whose head atom equals tag, or nil.
func (l *List) Field(tag string) *List {
	if l == nil {
		return nil
	}
	for _, item := range l.Items {
		if child, ok := item.(*List); ok && child.Head() == tag {
			return child
		}
	}
	return nil
}

// Fields returns all child lists whose head atom equals tag, in order.
func (l *List) Fields(tag string) []*List {
	if l == nil {
		return nil
	}
	var out []*List
	for _, item := range l.Items {
		if child, ok := item.(*List); ok && child.Head() == tag {
			out = append(out, child)
		}
	}
	return out
}

// AtomAt returns the atom value at position i, reporting false when the
// position is out of range or holds a list.
func (l *List) AtomAt(i int) (string, bool) {
	if l == nil || i < 0 || i >= len(l.Items) {
		return "", false
	}
	a, ok := l.Items[i].(Atom)
	if !ok {
		return "", false
	}
	return a.Value, true
}

// Document is a parsed artifact: the ordered top-level node sequence.
// A fragment is a bare sequence of nodes; a complete document is a single
// list carrying the full-document header. Documents are immutable once
// built; transforms allocate new ones.
type Document struct {
	Nodes []Node
}

// OnlyList returns the document's sole top-level list, or nil when the
// document does not consist of exactly one list node.
func (d *Document) OnlyList() *List {
	if d == nil || len(d.Nodes) != 1 {
		return nil
	}
	l, _ := d.Nodes[0].(*List)
	return l
}
