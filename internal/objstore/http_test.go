// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package objstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/circuitshare/pkg/types"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

// fakeObjectService is a minimal in-process object store speaking the
// adapter's protocol: PUT/GET/HEAD per key, GET /?prefix= for listings.
func fakeObjectService(objects map[string][]byte) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			prefix := r.URL.Query().Get("prefix")
			for key := range objects {
				if strings.HasPrefix(key, prefix) {
					w.Write([]byte(key + "\n"))
				}
			}
			return
		}
		key := strings.TrimPrefix(r.URL.Path, "/")
		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			objects[key] = data
		case http.MethodGet, http.MethodHead:
			data, ok := objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			if r.Method == http.MethodGet {
				w.Write(data)
			} else {
				w.Header().Set("Content-Length", "0")
			}
		}
	})
}

func newHTTPStore(url string) *HTTP {
	return NewHTTP(types.ObjectStoreConfig{
		Backend:     types.BackendHTTP,
		BaseURL:     url,
		AccessToken: "token-1",
		Timeout:     5 * time.Second,
	})
}

func TestHTTPStorePutGetList(t *testing.T) {
	objects := map[string][]byte{}
	ts := httptest.NewServer(fakeObjectService(objects))
	defer ts.Close()

	store := newHTTPStore(ts.URL)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "schematics/doc-1-v1-primary", []byte("(a)")))

	data, err := store.Get(ctx, "schematics/doc-1-v1-primary")
	require.NoError(t, err)
	assert.Equal(t, []byte("(a)"), data)

	keys, err := store.List(ctx, "schematics/doc-1-v")
	require.NoError(t, err)
	assert.Equal(t, []string{"schematics/doc-1-v1-primary"}, keys)

	_, err = store.Get(ctx, "schematics/doc-1-v2-primary")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Head(ctx, "schematics/doc-1-v2-primary")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPStoreSendsToken(t *testing.T) {
	var auth atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
	}))
	defer ts.Close()

	store := newHTTPStore(ts.URL)
	require.NoError(t, store.Put(context.Background(), "k", []byte("x")))
	assert.Equal(t, "Bearer token-1", auth.Load())
}

func TestHTTPStoreRetriesThenSucceeds(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	store := newHTTPStore(ts.URL)
	require.NoError(t, store.Put(context.Background(), "k", []byte("x")))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPStoreExhaustsRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	store := newHTTPStore(ts.URL)
	err := store.Put(context.Background(), "k", []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.Equal(t, int32(maxStoreRetries+1), atomic.LoadInt32(&calls))
}

func TestHTTPStoreContextCancelDuringBackoff(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newHTTPStore(ts.URL)
	err := store.Put(ctx, "k", []byte("x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
