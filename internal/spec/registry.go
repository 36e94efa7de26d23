package spec

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// BuildRegistry converts an OpenAPI v3 document into the operation registry.
// Each path contributes exactly one operation: the GET descriptor when one is
// declared, otherwise the POST descriptor. Paths declaring neither are
// skipped.
func BuildRegistry(doc *openapi3.T) (*Registry, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	var ops []Operation
	if doc.Paths != nil {
		// Sort paths for determinism
		pathKeys := make([]string, 0, len(doc.Paths))
		for p := range doc.Paths {
			pathKeys = append(pathKeys, p)
		}
		sort.Strings(pathKeys)

		for _, p := range pathKeys {
			item := doc.Paths[p]
			if item == nil {
				continue
			}
			var (
				verb string
				raw  *openapi3.Operation
			)
			switch {
			case item.Get != nil:
				verb, raw = http.MethodGet, item.Get
			case item.Post != nil:
				verb, raw = http.MethodPost, item.Post
			default:
				continue
			}

			// Merge parameters with precedence to operation-level ones.
			merged := make(map[string]*Parameter)
			order := make([]string, 0, len(item.Parameters)+len(raw.Parameters))
			for _, pref := range append(append(openapi3.Parameters{}, item.Parameters...), raw.Parameters...) {
				pm := toParameter(doc, pref)
				if pm == nil {
					continue
				}
				if _, seen := merged[pm.Name]; !seen {
					order = append(order, pm.Name)
				}
				merged[pm.Name] = pm
			}
			params := make([]Parameter, 0, len(order))
			for _, name := range order {
				params = append(params, *merged[name])
			}

			ops = append(ops, Operation{
				Name:       NameForPath(p),
				Path:       p,
				Method:     verb,
				Summary:    strings.TrimSpace(raw.Summary),
				Parameters: params,
				Response:   responseProperties(raw),
			})
		}
	}

	return newRegistry(ops), nil
}

// toParameter flattens a parameter declaration, resolving its schema through
// components/schemas when it is a reference. Only query parameters are kept;
// the API declares nothing else.
func toParameter(doc *openapi3.T, pref *openapi3.ParameterRef) *Parameter {
	if pref == nil || pref.Value == nil {
		return nil
	}
	p := pref.Value
	if p.In != "" && p.In != openapi3.ParameterInQuery {
		return nil
	}
	if p.Name == APIKeyParam {
		return nil
	}
	pm := &Parameter{
		Name:        strings.TrimSpace(p.Name),
		Required:    p.Required,
		Description: strings.TrimSpace(p.Description),
	}
	if p.Schema == nil {
		return pm
	}
	schema := p.Schema.Value
	if schema == nil && p.Schema.Ref != "" {
		schema = componentSchema(doc, p.Schema.Ref)
	}
	if schema == nil {
		return pm
	}
	pm.Type = strings.TrimSpace(schema.Type)
	pm.Format = strings.TrimSpace(schema.Format)
	for _, e := range schema.Enum {
		pm.Enum = append(pm.Enum, fmt.Sprint(e))
	}
	// Referenced enum components carry the description on the component.
	if pm.Description == "" {
		pm.Description = strings.TrimSpace(schema.Description)
	}
	return pm
}

// responseProperties resolves the 200 response's array-item component into a
// flat property list. Missing or non-conforming response declarations yield
// nil: the caller then skips schema-driven casting entirely.
func responseProperties(op *openapi3.Operation) []Property {
	if op.Responses == nil {
		return nil
	}
	rref := op.Responses["200"]
	if rref == nil || rref.Value == nil {
		return nil
	}
	media := rref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	items := media.Schema.Value.Items
	if items == nil || items.Value == nil || len(items.Value.Properties) == 0 {
		return nil
	}
	names := make([]string, 0, len(items.Value.Properties))
	for name := range items.Value.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	props := make([]Property, 0, len(names))
	for _, name := range names {
		sref := items.Value.Properties[name]
		if sref == nil || sref.Value == nil {
			continue
		}
		props = append(props, Property{
			Name:   name,
			Type:   strings.TrimSpace(sref.Value.Type),
			Format: strings.TrimSpace(sref.Value.Format),
		})
	}
	return props
}

// componentSchema looks a schema up by its "#/components/schemas/<name>" ref.
func componentSchema(doc *openapi3.T, ref string) *openapi3.Schema {
	if doc == nil || doc.Components == nil || doc.Components.Schemas == nil {
		return nil
	}
	name := ref[strings.LastIndex(ref, "/")+1:]
	sref := doc.Components.Schemas[name]
	if sref == nil {
		return nil
	}
	return sref.Value
}
