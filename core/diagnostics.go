package core

import (
	"fmt"
	"strings"
)

// Diagnostic codes (exported consts so tests and callers can match on them).
const (
	CodeSchemaNotFound      = "schema_not_found"
	CodePropertyNotInSchema = "property_not_in_schema"
	CodeTypeCoercionFailure = "type_coercion_failure"
	CodeAmbiguousArrayShape = "ambiguous_array_shape"
	CodeRawFallback         = "raw_fallback"
)

// Diagnostic records one degraded or dropped interpretation decision.
// Diagnostics are non-fatal: they accumulate during a conversion and are
// returned alongside the result, never silently discarded.
type Diagnostic struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Resource string `json:"resource,omitempty"` // resource type name
	Instance string `json:"instance,omitempty"` // instance name, when known
	Property string `json:"property,omitempty"`
	Line     int    `json:"line,omitempty"` // 1-based; 0 when unknown
	Column   int    `json:"column,omitempty"`
}

// String renders a single diagnostic for human output.
func (d Diagnostic) String() string {
	b := &strings.Builder{}
	b.WriteString(d.Code)
	if d.Resource != "" {
		fmt.Fprintf(b, " [%s", d.Resource)
		if d.Instance != "" {
			fmt.Fprintf(b, " %q", d.Instance)
		}
		if d.Property != "" {
			b.WriteString("." + d.Property)
		}
		b.WriteString("]")
	}
	if d.Message != "" {
		b.WriteString(": " + d.Message)
	}
	return b.String()
}

// Diagnostics is a collection of non-fatal conversion notes.
type Diagnostics []Diagnostic

// Error summarizes the first few diagnostics so the collection can be
// surfaced through an error path when a caller insists on one.
func (ds Diagnostics) Error() string {
	if len(ds) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := len(ds)
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ds[i].String())
	}
	if len(ds) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(ds))
	}
	return b.String()
}

// HasCode reports whether any diagnostic carries the given code.
func (ds Diagnostics) HasCode(code string) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

// Filter returns the diagnostics carrying the given code, preserving order.
func (ds Diagnostics) Filter(code string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}
