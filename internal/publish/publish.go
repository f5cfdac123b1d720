// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package publish allocates monotonically increasing version numbers per
// document and writes variant bytes to the object store under them. There
// is no locking: concurrent publishers for the same id race through a
// bounded optimistic-concurrency loop against the version database, and
// the loser re-reads and retries.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/pdiddy/circuitshare/internal/objstore"
	"github.com/pdiddy/circuitshare/pkg/types"
)

// defaultMaxRetries bounds the allocation loop when the configuration
// does not say otherwise.
const defaultMaxRetries = 5

// ErrVersionConflict reports that version allocation lost the race on
// every permitted attempt. Surfaced, never silent.
var ErrVersionConflict = errors.New("version allocation conflict")

// StorageWriteError reports a failed or refused variant write with enough
// context for the caller to decide whether to retry the whole publish.
// Already-written variants are not rolled back; the allocated version is
// wasted, which is acceptable because versions must only increase, not be
// contiguous.
type StorageWriteError struct {
	Variant types.Variant
	Version int
	Err     error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("writing variant %s of version %d: %v", e.Variant, e.Version, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// VersionDB is the narrow database collaborator the publisher needs.
// *store.Store satisfies it.
type VersionDB interface {
	ReadVersion(ctx context.Context, id string) (int, error)
	CompareAndSetVersion(ctx context.Context, id string, expected, next int) (bool, error)
	SetPublishedURLs(ctx context.Context, id string, urls map[types.Variant]string) error
}

// Publisher writes versioned variants to the object store and keeps the
// database record consistent with what storage actually holds.
type Publisher struct {
	db         VersionDB
	objects    objstore.Store
	keys       objstore.KeyStrategy
	maxRetries int
	out        io.Writer
}

// New returns a Publisher. Progress and reconciliation warnings go to w;
// pass io.Discard to silence them.
func New(db VersionDB, objects objstore.Store, keys objstore.KeyStrategy, cfg types.PublishConfig, w io.Writer) *Publisher {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if w == nil {
		w = io.Discard
	}
	return &Publisher{
		db:         db,
		objects:    objects,
		keys:       keys,
		maxRetries: maxRetries,
		out:        w,
	}
}

// Publish allocates the next version for id, writes every variant's bytes
// under it, and records the new URLs in the database. The database row is
// updated to point at the new version only after all variant writes
// succeed; a failure in between leaves the allocated version skipped, not
// inconsistent.
func (p *Publisher) Publish(ctx context.Context, id string, variants map[types.Variant][]byte) (int, error) {
	if len(variants) == 0 {
		return 0, fmt.Errorf("publishing %s: no variants", id)
	}

	version, err := p.allocate(ctx, id)
	if err != nil {
		return 0, err
	}

	urls := make(map[types.Variant]string, len(variants))
	for _, variant := range sortedVariants(variants) {
		key := p.keys.Key(id, version, variant)
		if err := p.writeVariant(ctx, key, variants[variant]); err != nil {
			return 0, &StorageWriteError{Variant: variant, Version: version, Err: err}
		}
		urls[variant] = key
		fmt.Fprintf(p.out, "published %s\n", key)
	}

	if err := p.db.SetPublishedURLs(ctx, id, urls); err != nil {
		return 0, fmt.Errorf("publishing %s: recording urls for version %d: %w", id, version, err)
	}
	return version, nil
}

// allocate runs the optimistic-concurrency loop: read the recorded
// version, probe storage for the highest version actually present (storage
// is the ground truth when it disagrees; a prior write may have landed
// without its database record), take the maximum, and compare-and-set the
// successor. Conflicts re-read and retry up to the bound.
func (p *Publisher) allocate(ctx context.Context, id string) (int, error) {
	for attempt := 0; attempt < p.maxRetries; attempt++ {
		recorded, err := p.db.ReadVersion(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("allocating version for %s: %w", id, err)
		}

		observed, err := p.observedVersion(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("allocating version for %s: %w", id, err)
		}

		base := recorded
		if observed > base {
			// A version slot will be skipped without an audit trail;
			// leave at least a warning.
			fmt.Fprintf(p.out, "warning: storage for %s is ahead of the database (v%d > v%d)\n",
				id, observed, recorded)
			base = observed
		}

		ok, err := p.db.CompareAndSetVersion(ctx, id, recorded, base+1)
		if err != nil {
			return 0, fmt.Errorf("allocating version for %s: %w", id, err)
		}
		if ok {
			return base + 1, nil
		}
	}
	return 0, fmt.Errorf("allocating version for %s: %d attempts: %w", id, p.maxRetries, ErrVersionConflict)
}

// observedVersion returns the highest version present in storage for id,
// or 0 when none is recoverable (no objects, or a flat key layout).
func (p *Publisher) observedVersion(ctx context.Context, id string) (int, error) {
	keys, err := p.objects.List(ctx, p.keys.Prefix(id))
	if err != nil {
		return 0, fmt.Errorf("probing storage: %w", err)
	}
	highest := 0
	for _, key := range keys {
		if v, ok := p.keys.Version(key); ok && v > highest {
			highest = v
		}
	}
	return highest, nil
}

// writeVariant writes data at key unless an identical object is already
// there. An existing object with different bytes is never overwritten.
func (p *Publisher) writeVariant(ctx context.Context, key string, data []byte) error {
	_, err := p.objects.Head(ctx, key)
	switch {
	case errors.Is(err, objstore.ErrNotFound):
		return p.objects.Put(ctx, key, data)
	case err != nil:
		return err
	}

	existing, err := p.objects.Get(ctx, key)
	if err != nil {
		return err
	}
	if !bytes.Equal(existing, data) {
		return fmt.Errorf("object %s exists with different contents", key)
	}
	fmt.Fprintf(p.out, "skipped %s (identical object present)\n", key)
	return nil
}

func sortedVariants(variants map[types.Variant][]byte) []types.Variant {
	names := make([]types.Variant, 0, len(variants))
	for v := range variants {
		names = append(names, v)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
