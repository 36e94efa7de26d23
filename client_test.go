package isostream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/isostream/isostream-go/frame"
)

const testDocument = `{
  "openapi": "3.0.2",
  "info": {"title": "ISOStream", "version": "0.1.0"},
  "paths": {
    "/dalmp": {
      "get": {
        "summary": "Day-Ahead LMP",
        "parameters": [
          {"name": "start", "in": "query", "required": true, "schema": {"type": "string", "format": "date-time"}},
          {"name": "end", "in": "query", "required": true, "schema": {"type": "string", "format": "date-time"}},
          {"name": "iso", "in": "query", "required": true, "schema": {"$ref": "#/components/schemas/ISO"}},
          {"name": "node", "in": "query", "required": false, "schema": {"type": "string"}},
          {"name": "api_key", "in": "query", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {
          "200": {
            "description": "Successful Response",
            "content": {
              "application/json": {
                "schema": {"type": "array", "items": {"$ref": "#/components/schemas/LMPRow"}}
              }
            }
          }
        }
      }
    },
    "/nodes": {
      "get": {
        "summary": "List Nodes",
        "parameters": [
          {"name": "iso", "in": "query", "required": true, "schema": {"$ref": "#/components/schemas/ISO"}},
          {"name": "api_key", "in": "query", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {
          "200": {
            "description": "Successful Response",
            "content": {
              "application/json": {
                "schema": {"type": "array", "items": {"$ref": "#/components/schemas/NodeRow"}}
              }
            }
          }
        }
      }
    }
  },
  "components": {
    "schemas": {
      "ISO": {"title": "ISO", "type": "string", "enum": ["pjm", "miso", "caiso"], "description": "The ISO to query"},
      "LMPRow": {
        "title": "LMPRow",
        "type": "object",
        "properties": {
          "timestamp": {"type": "string", "format": "date-time"},
          "node": {"type": "string"},
          "price": {"type": "number"}
        }
      },
      "NodeRow": {
        "title": "NodeRow",
        "type": "object",
        "properties": {"node": {"type": "string"}}
      }
    }
  }
}`

// testServer serves the OpenAPI document plus a /dalmp handler that echoes
// the requested window: one record stamped with the window's start.
func testServer(t *testing.T) (*httptest.Server, *[]url.Values) {
	t.Helper()
	var captured []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openapi.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(testDocument))
		case "/dalmp":
			captured = append(captured, r.URL.Query())
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `[{"timestamp": %q, "node": "WESTERN HUB", "price": 31.5}]`, r.URL.Query().Get("start"))
		case "/nodes":
			captured = append(captured, r.URL.Query())
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(context.Background(), "test-key", append([]Option{WithHost(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNew_RequiresAPIKey(t *testing.T) {
	t.Parallel()
	if _, err := New(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestNew_FailsWhenSchemaUnreachable(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := New(ctx, "k", WithHost("http://127.0.0.1:1"), WithTimeout(200*time.Millisecond)); err == nil {
		t.Fatalf("construction must fail when the schema fetch fails")
	}
}

func TestNew_UnsupportedCacheBackend(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)
	_, err := New(context.Background(), "k", WithHost(srv.URL), WithCache("dynamodb"))
	if err == nil || !strings.Contains(err.Error(), "unsupported backend") {
		t.Fatalf("expected unsupported backend error, got %v", err)
	}
}

func TestMethods_SynthesizedNames(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)
	c := newTestClient(t, srv)

	if got, want := c.Methods(""), []string{"dalmp", "nodes"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("methods = %v, want %v", got, want)
	}
	if got := c.Methods("dal"); !reflect.DeepEqual(got, []string{"dalmp"}) {
		t.Fatalf("filtered methods = %v", got)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)
	c := newTestClient(t, srv)

	text, err := c.Describe("dalmp")
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	if !strings.Contains(text, "iso : string, one of: pjm,miso,caiso") {
		t.Fatalf("description missing enum parameter:\n%s", text)
	}
	if _, err := c.Describe("nope"); err == nil {
		t.Fatalf("expected error for unknown method")
	}

	var b strings.Builder
	c.PrintMethods(&b, "dalmp")
	if !strings.Contains(b.String(), "Method dalmp:") {
		t.Fatalf("PrintMethods output:\n%s", b.String())
	}
}

func TestCallRaw_InjectsKeyAndFormatsTimes(t *testing.T) {
	t.Parallel()
	srv, captured := testServer(t)
	c := newTestClient(t, srv)

	records, err := c.CallRaw(context.Background(), "dalmp", Args{
		"start": time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		"end":   "2021-06-02",
		"iso":   "pjm",
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %v", records)
	}
	if len(*captured) != 1 {
		t.Fatalf("expected one request, got %d", len(*captured))
	}
	q := (*captured)[0]
	if q.Get("api_key") != "test-key" {
		t.Fatalf("api_key = %q", q.Get("api_key"))
	}
	if q.Get("start") != "2021-06-01T00:00:00" || q.Get("end") != "2021-06-02T00:00:00" {
		t.Fatalf("window bounds = %q/%q", q.Get("start"), q.Get("end"))
	}
	if q.Has("node") {
		t.Fatalf("absent optional parameter was sent: %v", q)
	}
}

func TestCallRaw_ChunksLongSpans(t *testing.T) {
	t.Parallel()
	srv, captured := testServer(t)
	c := newTestClient(t, srv)

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 10, 27, 0, 0, 0, 0, time.UTC) // 300 days
	records, err := c.CallRaw(context.Background(), "dalmp", Args{
		"start": start,
		"end":   end,
		"iso":   "pjm",
	}, WithChunk(100))
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(*captured) != 3 {
		t.Fatalf("expected 3 windowed requests, got %d", len(*captured))
	}
	if len(records) != 3 {
		t.Fatalf("expected concatenated records from every window, got %d", len(records))
	}
	prevEnd := start.Format(frame.TimeLayout)
	for i, q := range *captured {
		if q.Get("start") != prevEnd {
			t.Errorf("window %d starts at %q, want %q", i, q.Get("start"), prevEnd)
		}
		prevEnd = q.Get("end")
	}
	if prevEnd != end.Format(frame.TimeLayout) {
		t.Fatalf("last window ends at %q, want %q", prevEnd, end.Format(frame.TimeLayout))
	}
	// Records arrive in window order: each carries its window's start.
	if records[0]["timestamp"] != "2020-01-01T00:00:00" {
		t.Fatalf("first record = %v", records[0])
	}
}

func TestCall_TypedTable(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)
	c := newTestClient(t, srv)

	tbl, err := c.Call(context.Background(), "dalmp", Args{
		"start": "2021-06-01",
		"end":   "2021-06-02",
		"iso":   "pjm",
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	price, ok := tbl.Column("price")
	if !ok || price.Type != frame.Float64 {
		t.Fatalf("price column not cast to float64: %+v", price)
	}
	ts, ok := tbl.Column("timestamp")
	if !ok || ts.Type != frame.Time {
		t.Fatalf("timestamp column not cast to time: %+v", ts)
	}
	node, ok := tbl.Column("node")
	if !ok || node.Type != frame.String {
		t.Fatalf("node column not cast to string: %+v", node)
	}
}

func TestCall_Pivot(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)
	c := newTestClient(t, srv)

	tbl, err := c.Call(context.Background(), "dalmp", Args{
		"start": "2021-06-01",
		"end":   "2021-06-02",
		"iso":   "pjm",
	}, WithPivot())
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if tbl.Index() == nil || tbl.Index().Name != "timestamp" {
		t.Fatalf("pivoted table must be indexed by the time column, got %+v", tbl.Index())
	}
	if !reflect.DeepEqual(tbl.Columns(), []string{"WESTERN HUB"}) {
		t.Fatalf("pivoted columns = %v", tbl.Columns())
	}
	v, ok := tbl.Value(0, "WESTERN HUB").(float64)
	if !ok || math.IsNaN(v) || v != 31.5 {
		t.Fatalf("pivoted cell = %v", tbl.Value(0, "WESTERN HUB"))
	}
}

func TestCall_EmptyResultIsNotAnError(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)
	c := newTestClient(t, srv)

	records, err := c.CallRaw(context.Background(), "nodes", Args{"iso": "pjm"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %v", records)
	}

	tbl, err := c.Call(context.Background(), "nodes", Args{"iso": "pjm"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if tbl.NumRows() != 0 {
		t.Fatalf("rows = %d", tbl.NumRows())
	}
}

func TestCall_UnknownMethod(t *testing.T) {
	t.Parallel()
	srv, _ := testServer(t)
	c := newTestClient(t, srv)

	_, err := c.CallRaw(context.Background(), "rtlmp", nil)
	var ume *UnknownMethodError
	if !errors.As(err, &ume) || ume.Name != "rtlmp" {
		t.Fatalf("expected UnknownMethodError, got %v (%T)", err, err)
	}
}

func TestCall_ValidationErrorTranslation(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/openapi.json" {
			_, _ = w.Write([]byte(testDocument))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["query","foo"],"msg":"bad value"}]}`))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)

	_, err := c.CallRaw(context.Background(), "nodes", Args{"iso": "pjm"})
	var ae *APIError
	if !errors.As(err, &ae) {
		t.Fatalf("expected APIError, got %v (%T)", err, err)
	}
	if ae.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", ae.StatusCode)
	}
	if !strings.Contains(ae.Message, "parameter 'foo': bad value") {
		t.Fatalf("message = %q", ae.Message)
	}
}

func TestCall_RawBodyFallback(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/openapi.json" {
			_, _ = w.Write([]byte(testDocument))
			return
		}
		http.Error(w, "internal mayhem", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv)

	_, err := c.CallRaw(context.Background(), "nodes", Args{"iso": "pjm"})
	var ae *APIError
	if !errors.As(err, &ae) || !strings.Contains(ae.Message, "internal mayhem") {
		t.Fatalf("expected raw-body APIError, got %v", err)
	}
}

func TestClient_MemoryCache(t *testing.T) {
	t.Parallel()
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/openapi.json" {
			_, _ = w.Write([]byte(testDocument))
			return
		}
		hits++
		_, _ = w.Write([]byte(`[{"node": "HUB"}]`))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv, WithCache("memory"))

	for i := 0; i < 2; i++ {
		records, err := c.CallRaw(context.Background(), "nodes", Args{"iso": "pjm"})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(records) != 1 || records[0]["node"] != "HUB" {
			t.Fatalf("call %d records = %v", i, records)
		}
	}
	if hits != 1 {
		t.Fatalf("expected the second call to hit the cache, got %d server hits", hits)
	}
}
