package spec

import (
	"fmt"
	"strings"
)

// Describe renders a usage description for an operation: one block per
// declared parameter (resolved type, enum values, required flag,
// description) followed by fixed notes about the call options.
func Describe(op Operation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wrapper for API call to %s\n\n", op.Path)
	if op.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", op.Summary)
	}
	b.WriteString("Parameters\n----------\n")
	for _, p := range op.Parameters {
		typ := p.Type
		if typ == "" {
			typ = "any"
		}
		if len(p.Enum) > 0 {
			typ += ", one of: " + strings.Join(p.Enum, ",")
		} else if p.Format != "" {
			typ += " (" + p.Format + ")"
		}
		fmt.Fprintf(&b, "%s : %s, required = %t\n", p.Name, typ, p.Required)
		if p.Description != "" {
			fmt.Fprintf(&b, "    %s\n", p.Description)
		}
	}
	b.WriteString("\nOptions\n-------\n")
	b.WriteString("raw : call CallRaw to get the records as returned, without table casting\n")
	b.WriteString("pivot : WithPivot() pivots the typed table on its first time and string columns\n")
	b.WriteString("chunk : WithChunk(days) bounds start/end windows; default 365 days\n")
	return b.String()
}
