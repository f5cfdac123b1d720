// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package integrity verifies the structural balance of stored document
// bytes, audits stored copies against their authoritative source, and
// re-derives a damaged copy from source through the normal transform and
// publish pipeline.
package integrity

import (
	"github.com/pdiddy/circuitshare/pkg/types"
)

// CheckBalance returns the net parenthesis depth of raw, ignoring
// characters inside quoted strings. Zero means balanced. This is a
// character scan, not a parse: it runs over large stored byte ranges
// without building a tree.
func CheckBalance(raw []byte) int {
	depth := 0
	inQuote := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inQuote {
			switch c {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
			continue
		}
		switch c {
		case '"':
			inQuote = true
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return depth
}

// Audit compares a stored copy against its authoritative source. The
// stored copy is corrupted when unbalanced; it is repairable only when the
// source itself is intact. The report is ephemeral.
func Audit(id string, stored, source []byte) types.IntegrityReport {
	storedBalance := CheckBalance(stored)
	sourceBalance := CheckBalance(source)
	corrupted := storedBalance != 0
	return types.IntegrityReport{
		DocumentID:    id,
		StoredBalance: storedBalance,
		Corrupted:     corrupted,
		SourceBalance: sourceBalance,
		Repairable:    corrupted && sourceBalance == 0,
	}
}
