// Package cache provides a pluggable HTTP response cache installed as an
// http.RoundTripper. Successful GET responses are stored forever, keyed by
// the full request URL; invalidation is out of scope, matching the
// service's append-only historical data.
package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
)

// Backend is a key/value store for serialized responses.
type Backend interface {
	// Get returns the stored data for key, ok=false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key, replacing any previous value.
	Set(ctx context.Context, key string, data []byte) error

	// Delete removes key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources.
	Close() error
}

// Backends lists the supported backend selectors.
func Backends() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var factories = map[string]func(name string) (Backend, error){
	"memory":     func(string) (Backend, error) { return NewMemoryBackend(), nil },
	"filesystem": func(name string) (Backend, error) { return NewFilesystemBackend(name) },
	"sqlite":     func(name string) (Backend, error) { return NewSQLiteBackend(name + ".sqlite") },
}

// Open constructs a backend by selector. name is the cache store name: the
// directory for the filesystem backend, the database file stem for sqlite.
func Open(backend, name string) (Backend, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	factory, ok := factories[backend]
	if !ok {
		return nil, fmt.Errorf("cache: unsupported backend %q (supported: %s)", backend, strings.Join(Backends(), ", "))
	}
	return factory(name)
}

// entry is the serialized form of a cached response.
type entry struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// Transport caches GET responses in a Backend, delegating everything else
// to the wrapped RoundTripper.
type Transport struct {
	Backend Backend
	Next    http.RoundTripper
}

// NewTransport wraps next with response caching. A nil next uses
// http.DefaultTransport.
func NewTransport(backend Backend, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{Backend: backend, Next: next}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.Next.RoundTrip(req)
	}
	key := Key(req.URL.String())

	if data, ok, err := t.Backend.Get(req.Context(), key); err == nil && ok {
		var e entry
		if jerr := json.Unmarshal(data, &e); jerr == nil {
			return &http.Response{
				Status:     http.StatusText(e.Status),
				StatusCode: e.Status,
				Header:     e.Header,
				Body:       io.NopCloser(bytes.NewReader(e.Body)),
				Request:    req,
			}, nil
		}
		// Corrupt entry: drop it and fall through to the network.
		_ = t.Backend.Delete(req.Context(), key)
	}

	resp, err := t.Next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	data, err := json.Marshal(entry{Status: resp.StatusCode, Header: resp.Header, Body: body})
	if err == nil {
		// Best effort: a failed store never fails the request.
		_ = t.Backend.Set(req.Context(), key, data)
	}
	return resp, nil
}

// Key hashes a request URL into a fixed-size backend key.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
