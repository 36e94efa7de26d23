package spec

import (
	"sort"
	"strings"
)

// Operation descriptors derived from the service's OpenAPI document.
// The registry is an explicit mapping from synthesized method name to
// descriptor; a single generic invocation path is parameterized by it.

// APIKeyParam is the authentication parameter every path declares. It is
// injected by the transport, never supplied by callers, so the registry
// drops it from the declared parameter set.
const APIKeyParam = "api_key"

// Operation describes one API path: the HTTP verb to use, the declared
// query parameters, and the properties of the documented 200 response
// component (used for column casting).
type Operation struct {
	Name       string
	Path       string
	Method     string // http verb, upper case
	Summary    string
	Parameters []Parameter
	Response   []Property
}

// Parameter is one declared query parameter. Type and Format come from the
// parameter schema, resolved through components/schemas when the parameter
// references one.
type Parameter struct {
	Name        string
	Required    bool
	Type        string
	Format      string
	Enum        []string
	Description string
}

// IsDateTime reports whether the parameter expects a date-time value.
func (p Parameter) IsDateTime() bool { return p.Format == "date-time" }

// Property is one field of the declared response component.
type Property struct {
	Name   string
	Type   string
	Format string
}

// Registry holds every operation the document declares, in sorted path
// order, with a name index for lookup. Immutable after construction.
type Registry struct {
	ops    []Operation
	byName map[string]int
}

func newRegistry(ops []Operation) *Registry {
	idx := make(map[string]int, len(ops))
	for i, op := range ops {
		idx[op.Name] = i
	}
	return &Registry{ops: ops, byName: idx}
}

// Operations returns all descriptors in declaration (sorted path) order.
func (r *Registry) Operations() []Operation { return r.ops }

// Lookup returns the descriptor for a synthesized method name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Operation{}, false
	}
	return r.ops[i], true
}

// Names returns the sorted synthesized method names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// NameForPath derives the method name for a path: separators become
// underscores and boundary underscores are trimmed, so "/load/actual"
// maps to "load_actual".
func NameForPath(path string) string {
	return strings.Trim(strings.ReplaceAll(path, "/", "_"), "_")
}
