package core

import (
	"testing"
)

// TestParseTypeTag tests bracketed declared-type parsing
func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		name     string
		declared string
		kind     TagKind
		typeName string
	}{
		{"string", "[String]", TagString, "String"},
		{"string_lowercase", "[string]", TagString, "string"},
		{"string_array", "[String[]]", TagStringArray, "String"},
		{"int32", "[Int32]", TagInt, "Int32"},
		{"uint32", "[UInt32]", TagInt, "UInt32"},
		{"sint64", "[SInt64]", TagInt, "SInt64"},
		{"int_array", "[UInt32[]]", TagIntArray, "UInt32"},
		{"boolean", "[Boolean]", TagBool, "Boolean"},
		{"bool_alias", "[bool]", TagBool, "bool"},
		{"boolean_array_unrepresentable", "[Boolean[]]", TagOpaque, "Boolean[]"},
		{"datetime_as_string", "[DateTime]", TagString, "DateTime"},
		{"credential", "[MSFT_Credential]", TagInstance, "MSFT_Credential"},
		{"credential_array", "[MSFT_Credential[]]", TagInstanceArray, "MSFT_Credential"},
		{"unbracketed_tolerated", "String", TagString, "String"},
		{"empty", "", TagOpaque, ""},
		{"garbage", "[not a type]", TagOpaque, "not a type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag := ParseTypeTag(tt.declared)
			if tag.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tag.Kind, tt.kind)
			}
			if tag.Name != tt.typeName {
				t.Errorf("Name = %q, want %q", tag.Name, tt.typeName)
			}
		})
	}
}

// TestTypeTag_String tests round-tripping tags back to declaration form
func TestTypeTag_String(t *testing.T) {
	tests := []struct {
		declared string
		want     string
	}{
		{"[String]", "[String]"},
		{"[String[]]", "[String[]]"},
		{"[UInt32]", "[UInt32]"},
		{"[MSFT_Credential[]]", "[MSFT_Credential[]]"},
		{"[Boolean[]]", "[Boolean[]]"},
	}
	for _, tt := range tests {
		if got := ParseTypeTag(tt.declared).String(); got != tt.want {
			t.Errorf("ParseTypeTag(%q).String() = %q, want %q", tt.declared, got, tt.want)
		}
	}
}

// TestTypeTag_IsArray tests the array class of tags
func TestTypeTag_IsArray(t *testing.T) {
	if !ParseTypeTag("[String[]]").IsArray() {
		t.Error("[String[]] should be an array tag")
	}
	if ParseTypeTag("[String]").IsArray() {
		t.Error("[String] should not be an array tag")
	}
	if !ParseTypeTag("[MSFT_Credential[]]").IsArray() {
		t.Error("[MSFT_Credential[]] should be an array tag")
	}
}

// TestResourceSchema_Property tests case-insensitive property lookup
func TestResourceSchema_Property(t *testing.T) {
	schema := &ResourceSchema{
		ResourceName: "File",
		Properties: []PropertySchema{
			{Name: "DestinationPath", Type: ParseTypeTag("[String]"), Mandatory: true},
			{Name: "Ensure", Type: ParseTypeTag("[String]"), AllowedValues: []string{"Present", "Absent"}},
		},
	}

	if p := schema.Property("ensure"); p == nil || p.Name != "Ensure" {
		t.Fatalf("Property(ensure) = %v, want Ensure entry", p)
	}
	if p := schema.Property("DESTINATIONPATH"); p == nil || !p.Mandatory {
		t.Fatal("Property(DESTINATIONPATH) should find the mandatory entry")
	}
	if p := schema.Property("Nope"); p != nil {
		t.Errorf("Property(Nope) = %v, want nil", p)
	}

	var nilSchema *ResourceSchema
	if p := nilSchema.Property("x"); p != nil {
		t.Error("nil schema should report no properties")
	}
}
