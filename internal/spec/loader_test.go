package spec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLoad_EmptyHost(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "   ")
	if err == nil {
		t.Fatalf("expected error for empty host")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/api")
	if err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1", WithHTTPTimeout(200*time.Millisecond), WithMaxRetries(2))
	if err == nil {
		t.Fatalf("expected network error")
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Code != NetworkError {
		t.Fatalf("expected NetworkError, got %v (%T)", err, err)
	}
}

func TestLoad_ClientErrorNotRetried(t *testing.T) {
	t.Parallel()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL, WithMaxRetries(3))
	if err == nil {
		t.Fatalf("expected error for 403")
	}
	if hits != 1 {
		t.Fatalf("client errors must not be retried, got %d attempts", hits)
	}
}

func TestLoad_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != DocumentPath {
			http.NotFound(w, r)
			return
		}
		if hits < 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleDocument))
	}))
	defer srv.Close()

	doc, err := Load(context.Background(), srv.URL, WithMaxRetries(3), WithBackoffBase(5*time.Millisecond))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.Info == nil || doc.Info.Title != "ISOStream" {
		t.Fatalf("unexpected document: %+v", doc.Info)
	}
	if hits != 2 {
		t.Fatalf("expected 2 attempts, got %d", hits)
	}
}

func TestLoad_ParseError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := Load(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != ParseError && se.Code != ValidationError {
		t.Fatalf("expected ParseError/ValidationError, got %v", se.Code)
	}
}

func TestLoad_TrailingSlashHost(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DocumentPath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(sampleDocument))
	}))
	defer srv.Close()

	if _, err := Load(context.Background(), srv.URL+"/"); err != nil {
		t.Fatalf("load with trailing slash: %v", err)
	}
}
