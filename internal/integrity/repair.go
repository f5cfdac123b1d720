// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package integrity

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/circuitshare/internal/schematic"
	"github.com/pdiddy/circuitshare/internal/sexpr"
	"github.com/pdiddy/circuitshare/internal/transform"
	"github.com/pdiddy/circuitshare/pkg/types"
)

// ErrIrreparable reports that the stored copy is corrupted and the source
// copy is too. Nothing is modified in that case.
var ErrIrreparable = errors.New("source copy is also corrupted")

// Publisher is the slice of the versioned publisher Repair needs.
type Publisher interface {
	Publish(ctx context.Context, id string, variants map[types.Variant][]byte) (int, error)
}

// Repairer re-derives a document's stored copy from authoritative source
// bytes. Repairs never patch the corrupted bytes in place: a malformed
// tree cannot be partially trusted, so the replacement is always rebuilt
// from source through the full transform pipeline and published as a new
// version.
type Repairer struct {
	publisher Publisher
}

// NewRepairer returns a Repairer that publishes through p.
func NewRepairer(p Publisher) *Repairer {
	return &Repairer{publisher: p}
}

// Repair rebuilds the document from source and publishes the result as a
// new version of id, returning the allocated version number. The pipeline
// is deterministic: repairing the same source twice yields increasing
// versions with byte-identical contents.
func (r *Repairer) Repair(ctx context.Context, id string, source []byte) (int, error) {
	if CheckBalance(source) != 0 {
		return 0, fmt.Errorf("repairing %s: %w", id, ErrIrreparable)
	}

	doc, err := sexpr.Parse(source)
	if err != nil {
		return 0, fmt.Errorf("repairing %s: parsing source: %w", id, err)
	}

	doc = transform.StripSheetReferences(doc)
	if transform.Classify(doc) == transform.Fragment {
		summary := schematic.Extract(doc)
		doc = transform.Wrap(doc, transform.WrapOptions{
			Title: "Recovered schematic",
			ID:    id,
			Paper: transform.SelectPaperSize(summary.Bounds),
		})
	}
	doc = transform.InjectAttribution(doc, transform.Attribution{
		Source:  "repair from source copy",
		License: "",
		// No timestamp: repair output must be deterministic so repeated
		// repairs publish identical bytes.
	})

	version, err := r.publisher.Publish(ctx, id, map[types.Variant][]byte{
		types.VariantPrimary: sexpr.Serialize(doc),
	})
	if err != nil {
		return 0, fmt.Errorf("repairing %s: %w", id, err)
	}
	return version, nil
}
