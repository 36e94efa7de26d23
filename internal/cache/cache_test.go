package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()
	fsb, err := NewFilesystemBackend(filepath.Join(dir, "fs"))
	require.NoError(t, err)
	sq, err := NewSQLiteBackend(filepath.Join(dir, "cache.sqlite"))
	require.NoError(t, err)
	return map[string]Backend{
		"memory":     NewMemoryBackend(),
		"filesystem": fsb,
		"sqlite":     sq,
	}
}

func TestBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer b.Close()

			_, ok, err := b.Get(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, b.Set(ctx, "k", []byte("v1")))
			data, ok, err := b.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []byte("v1"), data)

			require.NoError(t, b.Set(ctx, "k", []byte("v2")))
			data, _, err = b.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), data)

			require.NoError(t, b.Delete(ctx, "k"))
			_, ok, err = b.Get(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)

			// Deleting again must not fail.
			require.NoError(t, b.Delete(ctx, "k"))
		})
	}
}

func TestOpen(t *testing.T) {
	b, err := Open("memory", "ignored")
	require.NoError(t, err)
	b.Close()

	_, err = Open("redis", "store")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported backend "redis"`)
	assert.Contains(t, err.Error(), "memory")
}

func TestTransport_ServesSecondRequestFromCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"a":1}]`))
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(NewMemoryBackend(), nil)}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL + "/data?x=1")
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `[{"a":1}]`, string(body))
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	}
	assert.Equal(t, 1, hits, "second request must be served from the cache")
}

func TestTransport_DoesNotCacheErrorsOrPosts(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewTransport(NewMemoryBackend(), nil)}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	}
	for i := 0; i < 2; i++ {
		resp, err := client.Post(srv.URL, "text/plain", nil)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, 4, hits)
}

func TestKeyStableAndDistinct(t *testing.T) {
	a := Key("http://h/p?x=1")
	b := Key("http://h/p?x=1")
	c := Key("http://h/p?x=2")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
