// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/circuitshare/internal/objstore"
	"github.com/pdiddy/circuitshare/pkg/types"
)

// memDB is an in-memory VersionDB with the same compare-and-set semantics
// as the SQLite store. Safe for concurrent use.
type memDB struct {
	mu       sync.Mutex
	versions map[string]int
	urls     map[string]map[types.Variant]string
}

func newMemDB() *memDB {
	return &memDB{
		versions: make(map[string]int),
		urls:     make(map[string]map[types.Variant]string),
	}
}

func (d *memDB) ReadVersion(_ context.Context, id string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.versions[id], nil
}

func (d *memDB) CompareAndSetVersion(_ context.Context, id string, expected, next int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.versions[id] != expected {
		return false, nil
	}
	d.versions[id] = next
	return true, nil
}

func (d *memDB) SetPublishedURLs(_ context.Context, id string, urls map[types.Variant]string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.urls[id] = urls
	return nil
}

// contestedDB forces the first n compare-and-set calls to lose, as if a
// concurrent writer always got there first.
type contestedDB struct {
	*memDB
	remaining int
}

func (d *contestedDB) CompareAndSetVersion(ctx context.Context, id string, expected, next int) (bool, error) {
	if d.remaining > 0 {
		d.remaining--
		// Simulate the other writer claiming the slot.
		d.memDB.CompareAndSetVersion(ctx, id, expected, next)
		return false, nil
	}
	return d.memDB.CompareAndSetVersion(ctx, id, expected, next)
}

// failingStore rejects Put for one key.
type failingStore struct {
	objstore.Store
	failKey string
}

func (f *failingStore) Put(ctx context.Context, key string, data []byte) error {
	if key == f.failKey {
		return fmt.Errorf("disk full")
	}
	return f.Store.Put(ctx, key, data)
}

var keys = objstore.VersionedKeys{Kind: "schematics"}

func newPublisher(db VersionDB, objects objstore.Store) *Publisher {
	return New(db, objects, keys, types.PublishConfig{}, io.Discard)
}

func TestPublishFirstVersion(t *testing.T) {
	db := newMemDB()
	objects := objstore.NewMemory()
	p := newPublisher(db, objects)
	ctx := context.Background()

	version, err := p.Publish(ctx, "doc-1", map[types.Variant][]byte{
		types.VariantPrimary: []byte("(kicad_sch)"),
		types.VariantAltA:    []byte("<svg light>"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	data, err := objects.Get(ctx, "schematics/doc-1-v1-primary")
	require.NoError(t, err)
	assert.Equal(t, []byte("(kicad_sch)"), data)

	assert.Equal(t, map[types.Variant]string{
		types.VariantPrimary: "schematics/doc-1-v1-primary",
		types.VariantAltA:    "schematics/doc-1-v1-alt_a",
	}, db.urls["doc-1"])
}

func TestPublishIncrementsVersion(t *testing.T) {
	db := newMemDB()
	p := newPublisher(db, objstore.NewMemory())
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		v, err := p.Publish(ctx, "doc-1", map[types.Variant][]byte{
			types.VariantPrimary: []byte(fmt.Sprintf("(rev %d)", want)),
		})
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestPublishNoVariants(t *testing.T) {
	p := newPublisher(newMemDB(), objstore.NewMemory())
	_, err := p.Publish(context.Background(), "doc-1", nil)
	require.Error(t, err)
}

func TestPublishRetriesConflicts(t *testing.T) {
	db := &contestedDB{memDB: newMemDB(), remaining: 2}
	p := newPublisher(db, objstore.NewMemory())

	version, err := p.Publish(context.Background(), "doc-1", map[types.Variant][]byte{
		types.VariantPrimary: []byte("(a)"),
	})
	require.NoError(t, err)
	// Two losing attempts consumed versions 1 and 2.
	assert.Equal(t, 3, version)
}

func TestPublishConflictRetriesExhausted(t *testing.T) {
	db := &contestedDB{memDB: newMemDB(), remaining: 100}
	p := New(db, objstore.NewMemory(), keys, types.PublishConfig{MaxRetries: 3}, io.Discard)

	_, err := p.Publish(context.Background(), "doc-1", map[types.Variant][]byte{
		types.VariantPrimary: []byte("(a)"),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, 97, db.remaining)
}

func TestPublishConcurrentSameID(t *testing.T) {
	db := newMemDB()
	objects := objstore.NewMemory()
	ctx := context.Background()

	// Both writers start from recorded version 3.
	require.NoError(t, seedVersion(db, "doc-1", 3))

	var wg sync.WaitGroup
	results := make([]int, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := newPublisher(db, objects)
			results[i], errs[i] = p.Publish(ctx, "doc-1", map[types.Variant][]byte{
				types.VariantPrimary: []byte(fmt.Sprintf("(writer %d)", i)),
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	got := []int{results[0], results[1]}
	if got[0] > got[1] {
		got[0], got[1] = got[1], got[0]
	}
	assert.Equal(t, []int{4, 5}, got)
}

func seedVersion(db *memDB, id string, version int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.versions[id] = version
	return nil
}

func TestPublishReconcilesObservedStorageVersion(t *testing.T) {
	db := newMemDB()
	objects := objstore.NewMemory()
	ctx := context.Background()

	// Database says 2, but a v5 write already landed in storage: an
	// earlier publish succeeded in storage and failed to record.
	require.NoError(t, seedVersion(db, "doc-1", 2))
	require.NoError(t, objects.Put(ctx, "schematics/doc-1-v5-primary", []byte("(old)")))

	p := newPublisher(db, objects)
	version, err := p.Publish(ctx, "doc-1", map[types.Variant][]byte{
		types.VariantPrimary: []byte("(new)"),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, version)
}

func TestPublishPartialFailureWastesVersion(t *testing.T) {
	db := newMemDB()
	objects := objstore.NewMemory()
	ctx := context.Background()

	failing := &failingStore{Store: objects, failKey: "schematics/doc-1-v1-alt_b"}
	p := newPublisher(db, failing)

	_, err := p.Publish(ctx, "doc-1", map[types.Variant][]byte{
		types.VariantAltA: []byte("<svg light>"),
		types.VariantAltB: []byte("<svg dark>"),
	})
	require.Error(t, err)

	var werr *StorageWriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, types.VariantAltB, werr.Variant)
	assert.Equal(t, 1, werr.Version)

	// alt_a landed, alt_b did not; no rollback, no URL record.
	_, err = objects.Get(ctx, "schematics/doc-1-v1-alt_a")
	require.NoError(t, err)
	assert.Empty(t, db.urls["doc-1"])

	// Version 1 is wasted: the next publish claims 2.
	version, err := p.Publish(ctx, "doc-1", map[types.Variant][]byte{
		types.VariantAltA: []byte("<svg light>"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestPublishStepsPastOrphanedWrite(t *testing.T) {
	db := newMemDB()
	objects := objstore.NewMemory()
	ctx := context.Background()

	// An abandoned publish left a v1 object with no database record. The
	// storage probe treats it as the observed version and allocates past
	// it rather than reclaiming the slot.
	require.NoError(t, objects.Put(ctx, "schematics/doc-1-v1-primary", []byte("(a)")))

	p := newPublisher(db, objects)
	version, err := p.Publish(ctx, "doc-1", map[types.Variant][]byte{
		types.VariantPrimary: []byte("(a)"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestWriteVariantIdempotency(t *testing.T) {
	objects := objstore.NewMemory()
	ctx := context.Background()
	p := newPublisher(newMemDB(), objects)

	key := "schematics/doc-1-v1-primary"
	require.NoError(t, p.writeVariant(ctx, key, []byte("(a)")))

	// Identical rewrite is a no-op.
	require.NoError(t, p.writeVariant(ctx, key, []byte("(a)")))
	data, err := objects.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("(a)"), data)

	// Different bytes at an existing key are refused, never overwritten.
	err = p.writeVariant(ctx, key, []byte("(b)"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different contents")
	data, err = objects.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("(a)"), data)
}

func TestPublishFlatLayoutIgnoresStorageProbe(t *testing.T) {
	db := newMemDB()
	objects := objstore.NewMemory()
	ctx := context.Background()

	flat := objstore.FlatKeys{Kind: "schematics"}
	p := New(db, objects, flat, types.PublishConfig{}, io.Discard)

	v, err := p.Publish(ctx, "doc-1", map[types.Variant][]byte{
		types.VariantPrimary: []byte("(a)"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	// Flat keys carry no version; republishing different bytes at the
	// same key is refused rather than overwritten.
	_, err = p.Publish(ctx, "doc-1", map[types.Variant][]byte{
		types.VariantPrimary: []byte("(b)"),
	})
	require.Error(t, err)
}
