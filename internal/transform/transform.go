// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transform converts documents between their two classes: Fragment
// (a bare clipboard-pasted node sequence) and Complete (a full file with
// header, paper size, and title block). It also strips nested-sheet
// references and injects attribution records. All transforms allocate new
// documents; inputs are never mutated.
package transform

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/circuitshare/internal/sexpr"
)

// Class is the document classification. There are exactly two classes and
// one transition each way: Wrap and Unwrap.
type Class string

const (
	Fragment Class = "fragment"
	Complete Class = "complete"
)

const (
	// documentTag is the head atom marking a full document.
	documentTag = "kicad_sch"
	// formatVersion is the format version tag written by Wrap.
	formatVersion = "20211123"
	// generatorName is recorded in the header of wrapped documents.
	generatorName = "circuitshare"
	// commentTag marks attribution records (see sexpr: comment lists are
	// ordinary lists, preserved by parse and serialize).
	commentTag = "comment"
)

// headerFieldTags are the header children Wrap synthesizes and Unwrap
// drops. Everything else under the wrapper is fragment content.
var headerFieldTags = map[string]bool{
	"version":           true,
	"generator":         true,
	"generator_version": true,
	"uuid":              true,
	"paper":             true,
	"title_block":       true,
}

// Classify reports whether doc is a complete document: a single top-level
// list whose head atom is the full-document tag. Everything else is a
// fragment. Classification is total.
func Classify(doc *sexpr.Document) Class {
	if doc.OnlyList().Head() == documentTag {
		return Complete
	}
	return Fragment
}

// WrapOptions carries the header fields for Wrap.
type WrapOptions struct {
	// Title goes into the title block.
	Title string

	// ID is the document's unique id; a fresh UUID is generated when empty.
	ID string

	// Paper is the paper-size name (e.g. "A4").
	Paper PaperSize
}

// Wrap encloses a fragment's top-level nodes in a full-document header,
// preserving their order and contents unchanged.
func Wrap(frag *sexpr.Document, opts WrapOptions) *sexpr.Document {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	paper := opts.Paper
	if paper == "" {
		paper = PaperA4
	}

	items := []sexpr.Node{
		sexpr.Atom{Value: documentTag},
		&sexpr.List{Items: []sexpr.Node{
			sexpr.Atom{Value: "version"},
			sexpr.Atom{Value: formatVersion},
		}},
		&sexpr.List{Items: []sexpr.Node{
			sexpr.Atom{Value: "generator"},
			sexpr.Atom{Value: generatorName, Quoted: true},
		}},
		&sexpr.List{Items: []sexpr.Node{
			sexpr.Atom{Value: "uuid"},
			sexpr.Atom{Value: id, Quoted: true},
		}},
		&sexpr.List{Items: []sexpr.Node{
			sexpr.Atom{Value: "paper"},
			sexpr.Atom{Value: string(paper), Quoted: true},
		}},
		&sexpr.List{Items: []sexpr.Node{
			sexpr.Atom{Value: "title_block"},
			&sexpr.List{Items: []sexpr.Node{
				sexpr.Atom{Value: "title"},
				sexpr.Atom{Value: sanitize(opts.Title), Quoted: true},
			}},
		}},
	}
	items = append(items, frag.Nodes...)

	return &sexpr.Document{Nodes: []sexpr.Node{&sexpr.List{Items: items}}}
}

// Unwrap returns a complete document's content nodes as a bare fragment,
// dropping the head atom and every header-field list. It is the exact
// left inverse of Wrap over the fragment's node sequence. A document that
// is already a fragment passes through unchanged.
func Unwrap(doc *sexpr.Document) *sexpr.Document {
	wrapper := doc.OnlyList()
	if wrapper.Head() != documentTag {
		return &sexpr.Document{Nodes: doc.Nodes}
	}

	var nodes []sexpr.Node
	for _, item := range wrapper.Items[1:] {
		if l, ok := item.(*sexpr.List); ok && headerFieldTags[l.Head()] {
			continue
		}
		nodes = append(nodes, item)
	}
	return &sexpr.Document{Nodes: nodes}
}

// sheetTags identify references to other hierarchical sheet documents.
// Those point at files this system does not co-publish.
var sheetTags = map[string]bool{
	"sheet":           true,
	"sheet_instances": true,
}

// StripSheetReferences removes every list node identifying a nested-sheet
// reference, at the top level and directly under the document wrapper.
// This is a structural filter, not a recursive resolve.
func StripSheetReferences(doc *sexpr.Document) *sexpr.Document {
	return &sexpr.Document{Nodes: stripNodes(doc.Nodes)}
}

func stripNodes(nodes []sexpr.Node) []sexpr.Node {
	var out []sexpr.Node
	for _, n := range nodes {
		l, ok := n.(*sexpr.List)
		if !ok {
			out = append(out, n)
			continue
		}
		if sheetTags[l.Head()] {
			continue
		}
		if l.Head() == documentTag {
			out = append(out, &sexpr.List{Items: stripNodes(l.Items)})
			continue
		}
		out = append(out, l)
	}
	return out
}

// Attribution carries free-text provenance recorded when a document is
// republished from a pasted snippet.
type Attribution struct {
	// Source identifies where the snippet came from (user, URL, import).
	Source string

	// License is the license short name or text supplied by the uploader.
	License string

	// Timestamp is the publish time, already formatted.
	Timestamp string
}

func (a Attribution) comments() []sexpr.Node {
	fields := []struct{ label, text string }{
		{"source", a.Source},
		{"license", a.License},
		{"published", a.Timestamp},
	}
	var nodes []sexpr.Node
	for _, f := range fields {
		if f.text == "" {
			continue
		}
		nodes = append(nodes, &sexpr.List{Items: []sexpr.Node{
			sexpr.Atom{Value: commentTag},
			sexpr.Atom{Value: f.label + ": " + sanitize(f.text), Quoted: true},
		}})
	}
	return nodes
}

// InjectAttribution appends comment lists carrying the attribution fields.
// On a complete document they go inside the title block, the header's home
// for free text, so Unwrap round-trips stay exact; a title block is created
// when the header lacks one. On a fragment they are prepended at the top
// level. Embedded quote characters in the free text are substituted so the
// result stays a well-formed quoted atom.
func InjectAttribution(doc *sexpr.Document, attr Attribution) *sexpr.Document {
	comments := attr.comments()
	if len(comments) == 0 {
		return &sexpr.Document{Nodes: doc.Nodes}
	}

	wrapper := doc.OnlyList()
	if wrapper.Head() != documentTag {
		return &sexpr.Document{Nodes: append(comments, doc.Nodes...)}
	}

	items := make([]sexpr.Node, 0, len(wrapper.Items)+1)
	injected := false
	for _, item := range wrapper.Items {
		if l, ok := item.(*sexpr.List); ok && l.Head() == "title_block" {
			tb := &sexpr.List{Items: append(append([]sexpr.Node{}, l.Items...), comments...)}
			items = append(items, tb)
			injected = true
			continue
		}
		items = append(items, item)
	}
	if !injected {
		tb := &sexpr.List{Items: append([]sexpr.Node{sexpr.Atom{Value: "title_block"}}, comments...)}
		items = append(items, tb)
	}

	return &sexpr.Document{Nodes: []sexpr.Node{&sexpr.List{Items: items}}}
}

// sanitize replaces characters that would break out of a quoted atom.
// The serializer escapes quotes correctly, but stored free text is also
// handled by older consumers that do not understand escapes, so the safe
// substitute is used instead.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, `"`, "'")
	return strings.ReplaceAll(s, `\`, "/")
}
