// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package objstore is the object-store collaborator: published document
// bytes keyed by (document id, version, variant). The Store interface is
// deliberately narrow; adapters exist for a local directory, a remote
// HTTP store, and an in-memory map for tests. Key naming differs between
// deployment generations, so callers are configured with a KeyStrategy
// rather than a fixed format.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/pdiddy/circuitshare/pkg/types"
)

// ErrNotFound reports that a key has no object.
var ErrNotFound = errors.New("object not found")

// Store is the object-store port.
type Store interface {
	// Put writes data at key. Writing the same bytes twice is safe.
	Put(ctx context.Context, key string, data []byte) error

	// Get returns the bytes at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// List returns every key under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Head returns the size of the object at key, or ErrNotFound.
	Head(ctx context.Context, key string) (int64, error)
}

// KeyStrategy formats and inspects object keys for one deployment
// generation.
type KeyStrategy interface {
	// Key returns the object key for one published variant.
	Key(id string, version int, variant types.Variant) string

	// Prefix returns the listing prefix covering every object of id.
	Prefix(id string) string

	// Version extracts the version number from a key produced by this
	// strategy, reporting false when the key carries none.
	Version(key string) (int, bool)
}

// VersionedKeys names objects <kind>/<id>-v<version>-<variant>, the
// current deployment generation. Versions are recoverable from keys, so
// the publisher can probe storage for the highest version present.
type VersionedKeys struct {
	Kind string
}

// Greedy leading match pins the final "-v<digits>-" marker, so ids that
// themselves contain "-v<digits>-" do not confuse extraction.
var versionedKeyRe = regexp.MustCompile(`^.*-v(\d+)-[^/]*$`)

func (s VersionedKeys) Key(id string, version int, variant types.Variant) string {
	return fmt.Sprintf("%s/%s-v%d-%s", s.Kind, id, version, variant)
}

func (s VersionedKeys) Prefix(id string) string {
	return fmt.Sprintf("%s/%s-v", s.Kind, id)
}

func (s VersionedKeys) Version(key string) (int, bool) {
	m := versionedKeyRe.FindStringSubmatch(key)
	if m == nil {
		return 0, false
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// FlatKeys names objects <kind>/<id>/<variant>, the first deployment
// generation. Flat keys carry no version number: Version always reports
// false and the publisher's storage probe finds nothing, so allocation
// under this layout relies on the database record alone.
type FlatKeys struct {
	Kind string
}

func (s FlatKeys) Key(id string, _ int, variant types.Variant) string {
	return fmt.Sprintf("%s/%s/%s", s.Kind, id, variant)
}

func (s FlatKeys) Prefix(id string) string {
	return fmt.Sprintf("%s/%s/", s.Kind, id)
}

func (s FlatKeys) Version(string) (int, bool) {
	return 0, false
}

// StrategyFor returns the KeyStrategy for a configured layout.
func StrategyFor(cfg types.ObjectStoreConfig) KeyStrategy {
	kind := cfg.Kind
	if kind == "" {
		kind = "schematics"
	}
	if cfg.Layout == types.LayoutFlat {
		return FlatKeys{Kind: kind}
	}
	return VersionedKeys{Kind: kind}
}
