// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sexpr

import "strings"

// Serialize renders a document back to canonical bytes: top-level nodes
// one per line, list items single-space separated, quoted atoms re-escaped.
// Serializing any well-formed tree yields balanced output.
func Serialize(doc *Document) []byte {
	var b strings.Builder
	for i, n := range doc.Nodes {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeNode(&b, n)
	}
	if b.Len() > 0 {
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func writeNode(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case Atom:
		writeAtom(b, v)
	case *List:
		b.WriteByte('(')
		for i, item := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeNode(b, item)
		}
		b.WriteByte(')')
	}
}

func writeAtom(b *strings.Builder, a Atom) {
	if !a.Quoted && !needsQuoting(a.Value) {
		b.WriteString(a.Value)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(a.Value); i++ {
		c := a.Value[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
}

// needsQuoting reports whether a bare atom value would not survive a
// re-parse unquoted.
func needsQuoting(v string) bool {
	if v == "" {
		return true
	}
	return strings.ContainsAny(v, "() \t\n\r\"\\")
}
