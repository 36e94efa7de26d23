// Package isostream is a client for the ISOStream power-market data API.
// The client fetches the service's OpenAPI document at construction and
// exposes one operation per documented path through an explicit registry:
// Call and CallRaw invoke an operation by its synthesized name
// ("/load/actual" becomes "load_actual") with keyword-style arguments
// validated against the declared parameter set.
package isostream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"

	"github.com/isostream/isostream-go/frame"
	"github.com/isostream/isostream-go/internal/cache"
	"github.com/isostream/isostream-go/internal/spec"
)

// Operation, Parameter and Property describe entries of the fetched schema.
type (
	Operation = spec.Operation
	Parameter = spec.Parameter
	Property  = spec.Property
)

// Record is one flat JSON object returned by the service.
type Record = map[string]any

// Args holds keyword-style arguments for a call, keyed by declared
// parameter name. Date-time parameters accept time.Time values or
// free-form date strings.
type Args = map[string]any

// Client is an ISOStream API client. It is not safe for concurrent use;
// calls are synchronous and block until every HTTP round trip completes.
type Client struct {
	host     string
	apiKey   string
	log      *slog.Logger
	rest     *resty.Client
	registry *spec.Registry
	backend  cache.Backend
}

// New fetches {host}/openapi.json and builds the operation registry.
// Construction fails if the document cannot be fetched or parsed.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("isostream: api key is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		if cfg.verbose {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		} else {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.timeout}
	}

	var backend cache.Backend
	if cfg.cacheBackend != "" {
		var err error
		backend, err = cache.Open(cfg.cacheBackend, cfg.cacheName)
		if err != nil {
			return nil, err
		}
		// Wrap a copy so a caller-provided client is left untouched.
		wrapped := *httpClient
		wrapped.Transport = cache.NewTransport(backend, httpClient.Transport)
		httpClient = &wrapped
	}

	host := strings.TrimRight(cfg.host, "/")
	doc, err := spec.Load(ctx, host, spec.WithHTTPClient(httpClient))
	if err != nil {
		if backend != nil {
			backend.Close()
		}
		return nil, err
	}
	registry, err := spec.BuildRegistry(doc)
	if err != nil {
		if backend != nil {
			backend.Close()
		}
		return nil, fmt.Errorf("isostream: build registry: %w", err)
	}

	rest := resty.NewWithClient(httpClient).SetBaseURL(host)
	rest.JSONMarshal = json.Marshal
	rest.JSONUnmarshal = json.Unmarshal

	return &Client{
		host:     host,
		apiKey:   apiKey,
		log:      logger,
		rest:     rest,
		registry: registry,
		backend:  backend,
	}, nil
}

// Close releases the cache backend, if any.
func (c *Client) Close() error {
	if c.backend != nil {
		return c.backend.Close()
	}
	return nil
}

// CallRaw invokes an operation and returns the records exactly as the
// service produced them. When the arguments carry a start/end span, the
// span is split into windows of at most the configured chunk size and one
// request is issued per window, sequentially; results are concatenated in
// window order. An empty result is not an error.
func (c *Client) CallRaw(ctx context.Context, method string, args Args, opts ...CallOption) ([]Record, error) {
	op, cfg, err := c.resolve(method, opts)
	if err != nil {
		return nil, err
	}
	return c.dispatch(ctx, op, cfg, args)
}

// Call invokes an operation like CallRaw and casts the records into a
// typed table driven by the declared response schema. With WithPivot the
// table is additionally pivoted on its first time and string columns.
func (c *Client) Call(ctx context.Context, method string, args Args, opts ...CallOption) (*frame.Table, error) {
	op, cfg, err := c.resolve(method, opts)
	if err != nil {
		return nil, err
	}
	records, err := c.dispatch(ctx, op, cfg, args)
	if err != nil {
		return nil, err
	}

	tbl := frame.FromRecords(records)
	schema := make([]frame.ColumnSchema, 0, len(op.Response))
	for _, p := range op.Response {
		schema = append(schema, frame.ColumnSchema{Name: p.Name, Type: p.Type, Format: p.Format})
	}
	if err := tbl.Cast(schema); err != nil {
		return nil, err
	}
	if cfg.pivot {
		tbl = tbl.Pivot()
	}
	return tbl, nil
}

func (c *Client) resolve(method string, opts []CallOption) (Operation, callConfig, error) {
	cfg := callConfig{chunkDays: DefaultChunkDays}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.chunkDays <= 0 {
		cfg.chunkDays = DefaultChunkDays
	}
	op, ok := c.registry.Lookup(method)
	if !ok {
		return Operation{}, cfg, &UnknownMethodError{Name: method}
	}
	return op, cfg, nil
}

func (c *Client) dispatch(ctx context.Context, op Operation, cfg callConfig, args Args) ([]Record, error) {
	params, span, err := buildParams(op, args)
	if err != nil {
		return nil, err
	}
	if span == nil {
		return c.do(ctx, op, params)
	}

	var out []Record
	for _, w := range windows(span.start, span.end, chunkDelta(cfg.chunkDays)) {
		params[startParam] = w.start.Format(frame.TimeLayout)
		params[endParam] = w.end.Format(frame.TimeLayout)
		records, err := c.do(ctx, op, params)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

// Operations returns every descriptor the fetched schema declared.
func (c *Client) Operations() []Operation { return c.registry.Operations() }

// Methods returns the synthesized method names, optionally filtered by
// substring match against the name or path.
func (c *Client) Methods(filter string) []string {
	var out []string
	for _, op := range c.registry.Operations() {
		if filter != "" && !strings.Contains(op.Name, filter) && !strings.Contains(op.Path, filter) {
			continue
		}
		out = append(out, op.Name)
	}
	return out
}

// Describe returns the generated usage description for a method.
func (c *Client) Describe(method string) (string, error) {
	op, ok := c.registry.Lookup(method)
	if !ok {
		return "", &UnknownMethodError{Name: method}
	}
	return spec.Describe(op), nil
}

// PrintMethods writes every method name and its description to w,
// optionally filtered by substring.
func (c *Client) PrintMethods(w io.Writer, filter string) {
	for _, op := range c.registry.Operations() {
		if filter != "" && !strings.Contains(op.Name, filter) && !strings.Contains(op.Path, filter) {
			continue
		}
		fmt.Fprintf(w, "Method %s:\n", op.Name)
		fmt.Fprintf(w, "\t%s\n", strings.ReplaceAll(spec.Describe(op), "\n", "\n\t"))
	}
}
