package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic checking with errors.Is.
var (
	ErrNoConfiguration = errors.New("no configuration definition found")
	ErrNoNodeBlock     = errors.New("no node block found in configuration body")
	ErrEmptySource     = errors.New("empty configuration source")
)

// StructuralError reports that a required structural landmark is missing or
// malformed in the configuration source. It is fatal to the conversion call.
type StructuralError struct {
	Message string
	Line    int // 1-based; 0 when unknown
	Column  int // 1-based; 0 when unknown
	Err     error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("structural error at %d:%d: %s", e.Line, e.Column, e.Message)
	}
	return "structural error: " + e.Message
}

// Unwrap exposes the wrapped sentinel, if any, for errors.Is.
func (e *StructuralError) Unwrap() error { return e.Err }

// NewStructuralError builds a StructuralError wrapping the given sentinel.
func NewStructuralError(err error, line, column int) *StructuralError {
	return &StructuralError{Message: err.Error(), Line: line, Column: column, Err: err}
}

// SchemaNotFoundError is returned in strict mode when a resource type has no
// resolvable schema. In lenient mode the same condition degrades to Raw
// property values plus a SchemaNotFound diagnostic instead.
type SchemaNotFoundError struct {
	ResourceName string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("no schema found for resource type %q", e.ResourceName)
}

// ContractViolation reports a PropertyValue shape the serializer's format
// rules cannot express. It is fatal to that serialize call.
type ContractViolation struct {
	Message  string
	Resource string
	Instance string
	Property string
}

// Error implements the error interface.
func (e *ContractViolation) Error() string {
	s := "contract violation: " + e.Message
	if e.Resource != "" {
		loc := e.Resource
		if e.Instance != "" {
			loc += " " + fmt.Sprintf("%q", e.Instance)
		}
		if e.Property != "" {
			loc += "." + e.Property
		}
		s += " (" + loc + ")"
	}
	return s
}
