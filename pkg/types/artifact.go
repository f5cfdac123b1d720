// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Variant names a published representation of a document: the canonical
// schematic bytes or a derived rendering (e.g. a theme of the preview).
type Variant string

const (
	// VariantPrimary is the canonical schematic bytes.
	VariantPrimary Variant = "primary"
	// VariantAltA and VariantAltB are alternate renderings (light/dark
	// preview themes in the current deployment).
	VariantAltA Variant = "alt_a"
	VariantAltB Variant = "alt_b"
)

// PublishedVersion records one published variant of a document. For a given
// (DocumentID, Variant) at most one version is authoritative at a time;
// version numbers per document are strictly increasing and never reused.
type PublishedVersion struct {
	// DocumentID identifies the circuit document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// Version is the allocated version number, starting at 1. Versions may
	// be skipped (a failed publish wastes its slot) but never repeat.
	Version int `json:"version" yaml:"version"`

	// Variant names the representation stored under this version.
	Variant Variant `json:"variant" yaml:"variant"`

	// StoredAt is when the variant bytes were written to the object store.
	StoredAt time.Time `json:"stored_at" yaml:"stored_at"`
}

// IntegrityReport is the outcome of auditing a stored copy of a document
// against its authoritative source. Ephemeral; never persisted.
type IntegrityReport struct {
	// DocumentID identifies the audited document.
	DocumentID string `json:"document_id" yaml:"document_id"`

	// StoredBalance is the net delimiter depth of the stored copy.
	// Zero means structurally balanced.
	StoredBalance int `json:"stored_balance" yaml:"stored_balance"`

	// Corrupted reports whether the stored copy is unbalanced.
	Corrupted bool `json:"corrupted" yaml:"corrupted"`

	// SourceBalance is the net delimiter depth of the source copy.
	SourceBalance int `json:"source_balance" yaml:"source_balance"`

	// Repairable reports whether a repair can be derived: the stored copy
	// is corrupted and the source copy is itself intact.
	Repairable bool `json:"repairable" yaml:"repairable"`
}
