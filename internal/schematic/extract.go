// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schematic derives a flat read-only summary from a parsed
// document: the component list, wire and net tallies, bounding geometry,
// and the footprint-assignment ratio. Extraction is total; a document
// without the expected structure yields zero counts, never an error.
package schematic

import (
	"strconv"

	"github.com/pdiddy/circuitshare/internal/sexpr"
)

// Head-atom tags the extractor recognizes. Net labels come in three
// flavors in the upstream format; all count as nets here.
const (
	symbolTag = "symbol"
	wireTag   = "wire"
)

var netTags = []string{"label", "global_label", "hierarchical_label"}

// Point is a position in document units.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// BoundingBox is the min/max envelope over all component and wire
// positions. Used only to pick a paper size; never persisted.
type BoundingBox struct {
	Min Point `json:"min" yaml:"min"`
	Max Point `json:"max" yaml:"max"`
}

// Width returns the horizontal extent.
func (b BoundingBox) Width() float64 { return b.Max.X - b.Min.X }

// Height returns the vertical extent.
func (b BoundingBox) Height() float64 { return b.Max.Y - b.Min.Y }

// ComponentSummary describes one symbol node. Derived, read-only, never
// persisted independently of the document it came from.
type ComponentSummary struct {
	// Reference is the designator (e.g. "R1").
	Reference string `json:"reference" yaml:"reference"`

	// Value is the value string (e.g. "10k").
	Value string `json:"value" yaml:"value"`

	// Footprint is the assigned footprint identifier, empty when unset.
	Footprint string `json:"footprint,omitempty" yaml:"footprint,omitempty"`

	// Position is the symbol placement.
	Position Point `json:"position" yaml:"position"`
}

// Summary is the flat extraction result for one document.
type Summary struct {
	Components []ComponentSummary `json:"components" yaml:"components"`
	WireCount  int                `json:"wire_count" yaml:"wire_count"`
	NetCount   int                `json:"net_count" yaml:"net_count"`
	Bounds     BoundingBox        `json:"bounds" yaml:"bounds"`

	// FootprintRatio is assigned footprints over total components,
	// 0 when the document has no components.
	FootprintRatio float64 `json:"footprint_ratio" yaml:"footprint_ratio"`
}

// Extract walks the document and tallies components, wires, and nets.
// It recurses through the full-document wrapper, so fragments and
// complete documents extract identically.
func Extract(doc *sexpr.Document) Summary {
	var (
		summary Summary
		points  []Point
	)

	walk(doc.Nodes, func(l *sexpr.List) {
		switch head := l.Head(); {
		case head == symbolTag:
			c := readComponent(l)
			summary.Components = append(summary.Components, c)
			points = append(points, c.Position)
		case head == wireTag:
			summary.WireCount++
			points = append(points, wirePoints(l)...)
		case isNetTag(head):
			summary.NetCount++
			if p, ok := position(l); ok {
				points = append(points, p)
			}
		}
	})

	summary.Bounds = bounds(points)

	assigned := 0
	for _, c := range summary.Components {
		if c.Footprint != "" {
			assigned++
		}
	}
	if n := len(summary.Components); n > 0 {
		summary.FootprintRatio = float64(assigned) / float64(n)
	}

	return summary
}

// walk visits every list node in the tree, parents before children.
func walk(nodes []sexpr.Node, visit func(*sexpr.List)) {
	for _, n := range nodes {
		if l, ok := n.(*sexpr.List); ok {
			visit(l)
			walk(l.Items, visit)
		}
	}
}

func isNetTag(head string) bool {
	for _, tag := range netTags {
		if head == tag {
			return true
		}
	}
	return false
}

// readComponent pulls designator, value, footprint, and position out of a
// symbol node. Fields are positional lookups over the node's children; a
// missing field defaults to its zero value.
func readComponent(sym *sexpr.List) ComponentSummary {
	var c ComponentSummary
	c.Reference = propertyValue(sym, "Reference")
	c.Value = propertyValue(sym, "Value")
	c.Footprint = propertyValue(sym, "Footprint")
	if p, ok := position(sym); ok {
		c.Position = p
	}
	return c
}

// propertyValue returns the second atom of the first property child whose
// first atom matches name: (property "Reference" "R1" (at ...)).
func propertyValue(l *sexpr.List, name string) string {
	for _, prop := range l.Fields("property") {
		if key, ok := prop.AtomAt(1); ok && key == name {
			if v, ok := prop.AtomAt(2); ok {
				return v
			}
		}
	}
	return ""
}

// position reads the node's (at x y [angle]) child.
func position(l *sexpr.List) (Point, bool) {
	at := l.Field("at")
	if at == nil {
		return Point{}, false
	}
	x, okX := floatAt(at, 1)
	y, okY := floatAt(at, 2)
	if !okX || !okY {
		return Point{}, false
	}
	return Point{X: x, Y: y}, true
}

// wirePoints reads every (xy x y) under the wire's pts child.
func wirePoints(wire *sexpr.List) []Point {
	pts := wire.Field("pts")
	if pts == nil {
		return nil
	}
	var out []Point
	for _, xy := range pts.Fields("xy") {
		x, okX := floatAt(xy, 1)
		y, okY := floatAt(xy, 2)
		if okX && okY {
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}

func floatAt(l *sexpr.List, i int) (float64, bool) {
	s, ok := l.AtomAt(i)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// bounds computes the min/max envelope. No positions yields a degenerate
// zero-sized box.
func bounds(points []Point) BoundingBox {
	if len(points) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		if p.X < b.Min.X {
			b.Min.X = p.X
		}
		if p.Y < b.Min.Y {
			b.Min.Y = p.Y
		}
		if p.X > b.Max.X {
			b.Max.X = p.X
		}
		if p.Y > b.Max.Y {
			b.Max.Y = p.Y
		}
	}
	return b
}
