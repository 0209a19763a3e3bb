package core

import (
	"sort"
	"strings"
)

// ValueKind discriminates the variants of PropertyValue.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindBool
	KindStringArray
	KindIntArray
	KindCimInstance
	KindCimInstanceArray
	KindRaw
)

// String returns the wire name of the kind, used in diagnostics and JSON output.
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindStringArray:
		return "string_array"
	case KindIntArray:
		return "int_array"
	case KindCimInstance:
		return "cim_instance"
	case KindCimInstanceArray:
		return "cim_instance_array"
	case KindRaw:
		return "raw"
	}
	return "unknown"
}

// PropertyValue is the closed union of shapes a resource property can hold
// after schema-driven interpretation. Exactly one of the payload fields is
// meaningful, selected by Kind.
type PropertyValue struct {
	Kind ValueKind

	Str       string
	Int       int64
	Bool      bool
	Strings   []string
	Ints      []int64
	Instance  *CimInstanceValue
	Instances []*CimInstanceValue

	// Raw holds verbatim source text for values that cannot be statically
	// resolved: variable references, member access chains, constructor calls.
	Raw string
}

// StringValue builds a KindString value.
func StringValue(s string) PropertyValue { return PropertyValue{Kind: KindString, Str: s} }

// IntValue builds a KindInt value.
func IntValue(n int64) PropertyValue { return PropertyValue{Kind: KindInt, Int: n} }

// BoolValue builds a KindBool value.
func BoolValue(b bool) PropertyValue { return PropertyValue{Kind: KindBool, Bool: b} }

// StringArrayValue builds a KindStringArray value. A nil slice is normalized
// to an empty one so array-typed properties are never null.
func StringArrayValue(ss []string) PropertyValue {
	if ss == nil {
		ss = []string{}
	}
	return PropertyValue{Kind: KindStringArray, Strings: ss}
}

// IntArrayValue builds a KindIntArray value, normalizing nil to empty.
func IntArrayValue(ns []int64) PropertyValue {
	if ns == nil {
		ns = []int64{}
	}
	return PropertyValue{Kind: KindIntArray, Ints: ns}
}

// CimValue builds a KindCimInstance value.
func CimValue(inst *CimInstanceValue) PropertyValue {
	return PropertyValue{Kind: KindCimInstance, Instance: inst}
}

// CimArrayValue builds a KindCimInstanceArray value, normalizing nil to empty.
func CimArrayValue(insts []*CimInstanceValue) PropertyValue {
	if insts == nil {
		insts = []*CimInstanceValue{}
	}
	return PropertyValue{Kind: KindCimInstanceArray, Instances: insts}
}

// RawValue builds a KindRaw value holding verbatim source text.
func RawValue(text string) PropertyValue { return PropertyValue{Kind: KindRaw, Raw: text} }

// Equal reports deep equality of two property values.
func (v PropertyValue) Equal(o PropertyValue) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindString:
		return v.Str == o.Str
	case KindInt:
		return v.Int == o.Int
	case KindBool:
		return v.Bool == o.Bool
	case KindStringArray:
		if len(v.Strings) != len(o.Strings) {
			return false
		}
		for i := range v.Strings {
			if v.Strings[i] != o.Strings[i] {
				return false
			}
		}
		return true
	case KindIntArray:
		if len(v.Ints) != len(o.Ints) {
			return false
		}
		for i := range v.Ints {
			if v.Ints[i] != o.Ints[i] {
				return false
			}
		}
		return true
	case KindCimInstance:
		return v.Instance.Equal(o.Instance)
	case KindCimInstanceArray:
		if len(v.Instances) != len(o.Instances) {
			return false
		}
		for i := range v.Instances {
			if !v.Instances[i].Equal(o.Instances[i]) {
				return false
			}
		}
		return true
	case KindRaw:
		return v.Raw == o.Raw
	}
	return false
}

// CimInstanceValue is a nested, schema-typed structure assigned as a property
// value. Structurally a resource instance without an instance name; its
// TypeName resolves against the schema scope of the owning resource type.
type CimInstanceValue struct {
	TypeName   string
	Properties *PropertyMap
}

// Equal reports deep equality of two CIM instance values.
func (c *CimInstanceValue) Equal(o *CimInstanceValue) bool {
	if c == nil || o == nil {
		return c == o
	}
	if !strings.EqualFold(c.TypeName, o.TypeName) {
		return false
	}
	return c.Properties.Equal(o.Properties)
}

// ResourceInstance is one concrete resource declaration: a resource type, an
// instance name, and the interpreted property bindings in declaration order.
type ResourceInstance struct {
	ResourceName string
	InstanceName string
	Properties   *PropertyMap
}

// Equal reports deep equality ignoring property declaration order, since maps
// are order-independent by identity. Array element order still matters.
func (r ResourceInstance) Equal(o ResourceInstance) bool {
	if !strings.EqualFold(r.ResourceName, o.ResourceName) || r.InstanceName != o.InstanceName {
		return false
	}
	return r.Properties.Equal(o.Properties)
}

// PropertyEntry is one key/value pair of a PropertyMap.
type PropertyEntry struct {
	Key   string
	Value PropertyValue
}

// PropertyMap is an ordered map of property bindings. Keys keep their source
// casing and first-seen position; lookups and replacements are
// case-insensitive, matching how the configuration host treats property names.
type PropertyMap struct {
	keys []string
	vals map[string]PropertyValue
}

// NewPropertyMap returns an empty property map.
func NewPropertyMap() *PropertyMap {
	return &PropertyMap{vals: make(map[string]PropertyValue)}
}

// Set binds key to v. A key already present (under any casing) keeps its
// original position and spelling; only the value is replaced.
func (m *PropertyMap) Set(key string, v PropertyValue) {
	lk := strings.ToLower(key)
	if _, exists := m.vals[lk]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[lk] = v
}

// Get returns the value bound to key, looked up case-insensitively.
func (m *PropertyMap) Get(key string) (PropertyValue, bool) {
	v, ok := m.vals[strings.ToLower(key)]
	return v, ok
}

// Has reports whether key is bound, case-insensitively.
func (m *PropertyMap) Has(key string) bool {
	_, ok := m.vals[strings.ToLower(key)]
	return ok
}

// Len returns the number of bindings. Safe on a nil map.
func (m *PropertyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in declaration order. The slice is a copy.
func (m *PropertyMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// SortedKeys returns the keys in ascending case-insensitive lexicographic
// order, the order the serializer emits properties in. Ties between keys that
// differ only by case keep declaration order.
func (m *PropertyMap) SortedKeys() []string {
	out := m.Keys()
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Entries returns the bindings in declaration order.
func (m *PropertyMap) Entries() []PropertyEntry {
	out := make([]PropertyEntry, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, PropertyEntry{Key: k, Value: m.vals[strings.ToLower(k)]})
	}
	return out
}

// LongestKey returns the length of the longest key, the serializer's
// alignment column source. Zero for an empty map.
func (m *PropertyMap) LongestKey() int {
	longest := 0
	for _, k := range m.keys {
		if len(k) > longest {
			longest = len(k)
		}
	}
	return longest
}

// Clone returns an independent copy. Values are copied shallowly;
// PropertyValue payloads are treated as immutable once built.
func (m *PropertyMap) Clone() *PropertyMap {
	out := NewPropertyMap()
	for _, k := range m.keys {
		out.Set(k, m.vals[strings.ToLower(k)])
	}
	return out
}

// Equal reports both maps bind the same keys (case-insensitively) to equal
// values, regardless of declaration order.
func (m *PropertyMap) Equal(o *PropertyMap) bool {
	if m == nil || o == nil {
		return m.Len() == 0 && o.Len() == 0
	}
	if m.Len() != o.Len() {
		return false
	}
	for lk, v := range m.vals {
		ov, ok := o.vals[lk]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
