// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import "github.com/pdiddy/circuitshare/internal/schematic"

// PaperSize names a standard sheet size.
type PaperSize string

const (
	PaperA4 PaperSize = "A4"
	PaperA3 PaperSize = "A3"
	PaperA2 PaperSize = "A2"
	PaperA1 PaperSize = "A1"
	PaperA0 PaperSize = "A0"
)

// paperMargin is the clearance required on each side of the drawing, in
// document units (mm).
const paperMargin = 20.0

// standardSizes is ordered smallest first; selection takes the first size
// that fits, never the smallest-area fit. Dimensions are landscape mm.
var standardSizes = []struct {
	name   PaperSize
	width  float64
	height float64
}{
	{PaperA4, 297, 210},
	{PaperA3, 420, 297},
	{PaperA2, 594, 420},
	{PaperA1, 841, 594},
	{PaperA0, 1189, 841},
}

// SelectPaperSize picks the first standard size whose bounds contain the
// bounding box's extent plus the margin on every side. A drawing larger
// than every standard size falls back to the largest.
func SelectPaperSize(bbox schematic.BoundingBox) PaperSize {
	needW := bbox.Width() + 2*paperMargin
	needH := bbox.Height() + 2*paperMargin
	for _, size := range standardSizes {
		if needW <= size.width && needH <= size.height {
			return size.name
		}
	}
	return standardSizes[len(standardSizes)-1].name
}

// ParsePaperSize validates a user-supplied size name.
func ParsePaperSize(name string) (PaperSize, bool) {
	for _, size := range standardSizes {
		if string(size.name) == name {
			return size.name, true
		}
	}
	return "", false
}
