package core

import (
	"errors"
	"strings"
	"testing"
)

// TestDiagnostics_CodeFilters tests HasCode and Filter
func TestDiagnostics_CodeFilters(t *testing.T) {
	ds := Diagnostics{
		{Code: CodeSchemaNotFound, Resource: "File"},
		{Code: CodePropertyNotInSchema, Resource: "File", Property: "Bogus"},
		{Code: CodePropertyNotInSchema, Resource: "Service", Property: "Nope"},
	}

	if !ds.HasCode(CodePropertyNotInSchema) {
		t.Error("HasCode(property_not_in_schema) should be true")
	}
	if ds.HasCode(CodeTypeCoercionFailure) {
		t.Error("HasCode(type_coercion_failure) should be false")
	}

	got := ds.Filter(CodePropertyNotInSchema)
	if len(got) != 2 {
		t.Fatalf("Filter returned %d diagnostics, want 2", len(got))
	}
	if got[0].Property != "Bogus" || got[1].Property != "Nope" {
		t.Errorf("Filter order not preserved: %v", got)
	}
}

// TestDiagnostic_String tests the human rendering
func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Code:     CodePropertyNotInSchema,
		Message:  "property dropped",
		Resource: "File",
		Instance: "TestFile1",
		Property: "Bogus",
	}
	s := d.String()
	for _, part := range []string{"property_not_in_schema", "File", "TestFile1", "Bogus", "property dropped"} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, missing %q", s, part)
		}
	}
}

// TestDiagnostics_ErrorSummary tests the error-form summarization
func TestDiagnostics_ErrorSummary(t *testing.T) {
	var ds Diagnostics
	if ds.Error() != "" {
		t.Errorf("empty diagnostics Error() = %q, want empty", ds.Error())
	}

	for i := 0; i < 5; i++ {
		ds = append(ds, Diagnostic{Code: CodeRawFallback, Message: "m"})
	}
	s := ds.Error()
	if !strings.Contains(s, "total 5") {
		t.Errorf("Error() = %q, should mention the total", s)
	}
}

// TestStructuralError_Wrapping tests sentinel matching through the typed error
func TestStructuralError_Wrapping(t *testing.T) {
	err := NewStructuralError(ErrNoConfiguration, 1, 1)
	if !errors.Is(err, ErrNoConfiguration) {
		t.Error("StructuralError should match its wrapped sentinel")
	}
	if !strings.Contains(err.Error(), "1:1") {
		t.Errorf("Error() = %q, should carry the position", err.Error())
	}

	bare := &StructuralError{Message: "unbalanced brace"}
	if strings.Contains(bare.Error(), "0:0") {
		t.Errorf("Error() = %q, should omit unknown positions", bare.Error())
	}
}

// TestContractViolation_Error tests the serializer error rendering
func TestContractViolation_Error(t *testing.T) {
	err := &ContractViolation{
		Message:  "unsupported value kind",
		Resource: "File",
		Instance: "TestFile1",
		Property: "Attributes",
	}
	s := err.Error()
	for _, part := range []string{"contract violation", "File", "TestFile1", "Attributes"} {
		if !strings.Contains(s, part) {
			t.Errorf("Error() = %q, missing %q", s, part)
		}
	}
}
