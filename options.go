package isostream

import (
	"log/slog"
	"net/http"
	"time"
)

// DefaultHost is the production API endpoint.
const DefaultHost = "https://app.isostream.io/api"

// DefaultChunkDays bounds one time-range window.
const DefaultChunkDays = 365

type config struct {
	host         string
	verbose      bool
	logger       *slog.Logger
	httpClient   *http.Client
	timeout      time.Duration
	cacheName    string
	cacheBackend string
}

func defaultConfig() config {
	return config{
		host:      DefaultHost,
		timeout:   30 * time.Second,
		cacheName: "isostream_cache",
	}
}

// Option configures the client at construction.
type Option func(*config)

// WithHost overrides the API host.
func WithHost(host string) Option { return func(c *config) { c.host = host } }

// WithVerbose logs each outgoing request at debug level.
func WithVerbose() Option { return func(c *config) { c.verbose = true } }

// WithLogger replaces the client logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *config) { c.httpClient = hc } }

// WithTimeout bounds each HTTP round trip. Ignored when WithHTTPClient is
// used.
func WithTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// WithCache enables response caching on the named backend: "memory",
// "filesystem" or "sqlite".
func WithCache(backend string) Option { return func(c *config) { c.cacheBackend = backend } }

// WithCacheName sets the cache store name (directory or database file stem).
func WithCacheName(name string) Option { return func(c *config) { c.cacheName = name } }

type callConfig struct {
	pivot     bool
	chunkDays int
}

// CallOption configures a single call.
type CallOption func(*callConfig)

// WithPivot pivots the typed table on its first time and string columns.
func WithPivot() CallOption { return func(c *callConfig) { c.pivot = true } }

// WithChunk overrides the maximum window size, in days, used to split a
// start/end span into sequential requests.
func WithChunk(days int) CallOption { return func(c *callConfig) { c.chunkDays = days } }
