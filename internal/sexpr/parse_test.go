// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sexpr

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseSimpleTree(t *testing.T) {
	doc, err := Parse([]byte("(a (b 1 2))"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := &Document{Nodes: []Node{
		&List{Items: []Node{
			Atom{Value: "a"},
			&List{Items: []Node{
				Atom{Value: "b"},
				Atom{Value: "1"},
				Atom{Value: "2"},
			}},
		}},
	}}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantKind   ErrorKind
		wantOffset int
	}{
		{"missing close", "(a (b)", UnbalancedDelimiters, 6},
		{"stray close", "a) b", UnbalancedDelimiters, 1},
		{"deep underflow", "(a))", UnbalancedDelimiters, 3},
		{"unterminated string", `(title "abc`, UnterminatedString, 7},
		{"escape at end", `(x "abc\`, UnterminatedString, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Parse(%q) error = %v, want *ParseError", tt.input, err)
			}
			if perr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", perr.Kind, tt.wantKind)
			}
			if perr.Offset != tt.wantOffset {
				t.Errorf("Offset = %d, want %d", perr.Offset, tt.wantOffset)
			}
		})
	}
}

func TestParseQuotedAtoms(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `(title "RC filter")`, "RC filter"},
		{"escaped quote", `(title "5\" probe")`, `5" probe`},
		{"escaped backslash", `(title "a\\b")`, `a\b`},
		{"parens inside quotes", `(title "see (note)")`, "see (note)"},
		{"empty", `(title "")`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, ok := doc.OnlyList().AtomAt(1)
			if !ok {
				t.Fatal("quoted atom missing")
			}
			if got != tt.want {
				t.Errorf("atom = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePreservesCommentLists(t *testing.T) {
	doc, err := Parse([]byte(`(comment "source: circuitshare") (wire (pts (xy 0 0) (xy 10 0)))`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(doc.Nodes) != 2 {
		t.Fatalf("len(Nodes) = %d, want 2", len(doc.Nodes))
	}
	first, ok := doc.Nodes[0].(*List)
	if !ok || first.Head() != "comment" {
		t.Errorf("first node = %#v, want comment list", doc.Nodes[0])
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	inputs := []string{
		"(a (b 1 2))",
		`(kicad_sch (version 20211123) (title_block (title "Low-pass \"audio\" filter")))`,
		`(symbol (property "Reference" "R1" (at 25.4 38.1 0)))`,
		"a b (c) d",
	}
	for _, input := range inputs {
		doc, err := Parse([]byte(input))
		if err != nil {
			t.Fatalf("Parse(%q) error = %v", input, err)
		}
		out := Serialize(doc)
		again, err := Parse(out)
		if err != nil {
			t.Fatalf("re-Parse(%q) error = %v", out, err)
		}
		if diff := cmp.Diff(doc, again); diff != "" {
			t.Errorf("round trip of %q changed tree (-first +second):\n%s", input, diff)
		}
	}
}

func TestListAccessors(t *testing.T) {
	doc, err := Parse([]byte(`(symbol (property "Reference" "R1") (property "Value" "10k") (at 1 2))`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	sym := doc.OnlyList()

	if got := sym.Head(); got != "symbol" {
		t.Errorf("Head() = %q, want symbol", got)
	}
	if got := len(sym.Fields("property")); got != 2 {
		t.Errorf("len(Fields(property)) = %d, want 2", got)
	}
	at := sym.Field("at")
	if at == nil {
		t.Fatal("Field(at) = nil")
	}
	if v, ok := at.AtomAt(2); !ok || v != "2" {
		t.Errorf("AtomAt(2) = %q, %v", v, ok)
	}
	if _, ok := at.AtomAt(9); ok {
		t.Error("AtomAt(9) should report false")
	}
	var nilList *List
	if nilList.Head() != "" || nilList.Field("x") != nil {
		t.Error("nil list accessors should be safe")
	}
}
