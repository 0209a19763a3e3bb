package core

import "strings"

// TagKind discriminates the declared-type categories a property schema can
// carry. The set is closed: interpretation dispatches on it exhaustively
// instead of reflecting over host type names.
type TagKind int

const (
	TagOpaque TagKind = iota
	TagString
	TagStringArray
	TagInt
	TagIntArray
	TagBool
	TagInstance
	TagInstanceArray
)

// String returns the wire name of the kind.
func (k TagKind) String() string {
	switch k {
	case TagString:
		return "string"
	case TagStringArray:
		return "string_array"
	case TagInt:
		return "int"
	case TagIntArray:
		return "int_array"
	case TagBool:
		return "bool"
	case TagInstance:
		return "instance"
	case TagInstanceArray:
		return "instance_array"
	}
	return "opaque"
}

// TypeTag is a parsed declared-type marker. Name keeps the source spelling of
// the inner type ("UInt32", "MSFT_Credential"), which for the instance kinds
// doubles as the embedded class name to resolve.
type TypeTag struct {
	Kind TagKind
	Name string
}

// String renders the tag back in its bracketed declaration form.
func (t TypeTag) String() string {
	if t.Name == "" {
		return "[" + t.Kind.String() + "]"
	}
	switch t.Kind {
	case TagStringArray, TagIntArray, TagInstanceArray:
		return "[" + t.Name + "[]]"
	}
	return "[" + t.Name + "]"
}

// IsArray reports whether the tag declares an array type.
func (t TypeTag) IsArray() bool {
	switch t.Kind {
	case TagStringArray, TagIntArray, TagInstanceArray:
		return true
	}
	return false
}

// integerTypeNames are the scalar declarations interpreted as integers.
// Covers both the scripting host spellings and the MOF intrinsic ones.
var integerTypeNames = map[string]bool{
	"int":    true,
	"int16":  true,
	"int32":  true,
	"int64":  true,
	"uint8":  true,
	"uint16": true,
	"uint32": true,
	"uint64": true,
	"sint8":  true,
	"sint16": true,
	"sint32": true,
	"sint64": true,
	"byte":   true,
}

// ParseTypeTag parses a bracketed declared-type name as reported by schema
// providers: "[String]", "[String[]]", "[UInt32]", "[MSFT_Credential]",
// "[MSFT_Credential[]]". Matching is case-insensitive. A bracketed name that
// is not a recognized scalar is an embedded-instance tag; anything the
// bracket grammar cannot express comes back Opaque.
func ParseTypeTag(declared string) TypeTag {
	s := strings.TrimSpace(declared)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		s = s[1 : len(s)-1]
	}
	isArray := false
	if strings.HasSuffix(s, "[]") {
		isArray = true
		s = strings.TrimSuffix(s, "[]")
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "[] \t") {
		return TypeTag{Kind: TagOpaque, Name: s}
	}

	switch lower := strings.ToLower(s); {
	case lower == "string" || lower == "char16" || lower == "datetime":
		if isArray {
			return TypeTag{Kind: TagStringArray, Name: s}
		}
		return TypeTag{Kind: TagString, Name: s}
	case integerTypeNames[lower]:
		if isArray {
			return TypeTag{Kind: TagIntArray, Name: s}
		}
		return TypeTag{Kind: TagInt, Name: s}
	case lower == "boolean" || lower == "bool":
		// The property union has no boolean-array shape. Keeping the array
		// suffix in the name lets String() re-emit the declaration intact.
		if isArray {
			return TypeTag{Kind: TagOpaque, Name: s + "[]"}
		}
		return TypeTag{Kind: TagBool, Name: s}
	}

	if isArray {
		return TypeTag{Kind: TagInstanceArray, Name: s}
	}
	return TypeTag{Kind: TagInstance, Name: s}
}

// PropertySchema describes one declared property of a resource or embedded
// instance class.
type PropertySchema struct {
	Name          string
	Type          TypeTag
	Mandatory     bool
	AllowedValues []string
}

// ResourceSchema is the declared property list of one resource type, as
// reported by a schema provider. Read-only once handed to the builder.
type ResourceSchema struct {
	ResourceName  string
	ModuleName    string
	ModuleVersion string
	Properties    []PropertySchema
}

// Property returns the schema entry for name, matched case-insensitively,
// or nil when the resource declares no such property.
func (s *ResourceSchema) Property(name string) *PropertySchema {
	if s == nil {
		return nil
	}
	for i := range s.Properties {
		if strings.EqualFold(s.Properties[i].Name, name) {
			return &s.Properties[i]
		}
	}
	return nil
}
