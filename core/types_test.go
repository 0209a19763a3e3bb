package core

import (
	"testing"
)

// TestPropertyMap_OrderAndCase tests declaration order and case-insensitive lookups
func TestPropertyMap_OrderAndCase(t *testing.T) {
	m := NewPropertyMap()
	m.Set("DestinationPath", StringValue(`C:\Temp\TestFile.txt`))
	m.Set("Ensure", StringValue("Present"))
	m.Set("Type", StringValue("File"))

	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}

	keys := m.Keys()
	want := []string{"DestinationPath", "Ensure", "Type"}
	for i, k := range want {
		if keys[i] != k {
			t.Errorf("Keys[%d] = %q, want %q", i, keys[i], k)
		}
	}

	// Lookup ignores case
	if v, ok := m.Get("ensure"); !ok || v.Str != "Present" {
		t.Errorf("Get(ensure) = %v, %v; want Present, true", v.Str, ok)
	}
	if !m.Has("TYPE") {
		t.Error("Has(TYPE) should be true")
	}

	// Re-set under different casing keeps position and original spelling
	m.Set("ENSURE", StringValue("Absent"))
	if m.Len() != 3 {
		t.Errorf("Len after re-set = %d, want 3", m.Len())
	}
	if m.Keys()[1] != "Ensure" {
		t.Errorf("Keys[1] after re-set = %q, want original spelling Ensure", m.Keys()[1])
	}
	if v, _ := m.Get("Ensure"); v.Str != "Absent" {
		t.Errorf("value after re-set = %q, want Absent", v.Str)
	}
}

// TestPropertyMap_SortedKeys tests the case-insensitive emission order
func TestPropertyMap_SortedKeys(t *testing.T) {
	m := NewPropertyMap()
	m.Set("Zeta", StringValue("z"))
	m.Set("alpha", StringValue("a"))
	m.Set("Beta", StringValue("b"))

	got := m.SortedKeys()
	want := []string{"alpha", "Beta", "Zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SortedKeys[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Declaration order is untouched
	if m.Keys()[0] != "Zeta" {
		t.Errorf("Keys[0] = %q, want Zeta", m.Keys()[0])
	}
}

// TestPropertyMap_LongestKey tests the alignment column source
func TestPropertyMap_LongestKey(t *testing.T) {
	m := NewPropertyMap()
	if m.LongestKey() != 0 {
		t.Errorf("LongestKey on empty map = %d, want 0", m.LongestKey())
	}
	m.Set("DestinationPath", StringValue("x"))
	m.Set("Type", StringValue("y"))
	if m.LongestKey() != len("DestinationPath") {
		t.Errorf("LongestKey = %d, want %d", m.LongestKey(), len("DestinationPath"))
	}
}

// TestPropertyMap_CloneIndependence tests that clones do not share bindings
func TestPropertyMap_CloneIndependence(t *testing.T) {
	m := NewPropertyMap()
	m.Set("Name", StringValue("one"))

	c := m.Clone()
	c.Set("Name", StringValue("two"))
	c.Set("Extra", StringValue("x"))

	if v, _ := m.Get("Name"); v.Str != "one" {
		t.Errorf("original mutated through clone: Name = %q", v.Str)
	}
	if m.Has("Extra") {
		t.Error("original gained a key added to the clone")
	}
}

// TestPropertyMap_Equal tests order-independent equality
func TestPropertyMap_Equal(t *testing.T) {
	a := NewPropertyMap()
	a.Set("Ensure", StringValue("Present"))
	a.Set("Force", BoolValue(true))

	b := NewPropertyMap()
	b.Set("force", BoolValue(true))
	b.Set("ENSURE", StringValue("Present"))

	if !a.Equal(b) {
		t.Error("maps with same bindings under different order/casing should be equal")
	}

	b.Set("Force", BoolValue(false))
	if a.Equal(b) {
		t.Error("maps with differing values should not be equal")
	}

	var nilMap *PropertyMap
	if !nilMap.Equal(NewPropertyMap()) {
		t.Error("nil map should equal an empty map")
	}
}

// TestPropertyValue_Equal tests deep equality across the union variants
func TestPropertyValue_Equal(t *testing.T) {
	cred := &CimInstanceValue{TypeName: "MSFT_Credential", Properties: NewPropertyMap()}
	cred.Properties.Set("UserName", StringValue("u"))

	credSame := &CimInstanceValue{TypeName: "msft_credential", Properties: NewPropertyMap()}
	credSame.Properties.Set("username", StringValue("u"))

	tests := []struct {
		name string
		a, b PropertyValue
		want bool
	}{
		{"string_equal", StringValue("x"), StringValue("x"), true},
		{"string_differs", StringValue("x"), StringValue("y"), false},
		{"kind_differs", StringValue("1"), IntValue(1), false},
		{"int_equal", IntValue(42), IntValue(42), true},
		{"bool_equal", BoolValue(true), BoolValue(true), true},
		{"string_array_equal", StringArrayValue([]string{"a", "b"}), StringArrayValue([]string{"a", "b"}), true},
		{"string_array_order_matters", StringArrayValue([]string{"a", "b"}), StringArrayValue([]string{"b", "a"}), false},
		{"nil_array_is_empty", StringArrayValue(nil), StringArrayValue([]string{}), true},
		{"int_array_equal", IntArrayValue([]int64{1, 2}), IntArrayValue([]int64{1, 2}), true},
		{"cim_case_insensitive_type", CimValue(cred), CimValue(credSame), true},
		{"raw_equal", RawValue("$Node.Name"), RawValue("$Node.Name"), true},
		{"raw_differs", RawValue("$a"), RawValue("$b"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestResourceInstance_Equal tests instance identity semantics
func TestResourceInstance_Equal(t *testing.T) {
	props := func(ensure string) *PropertyMap {
		m := NewPropertyMap()
		m.Set("Ensure", StringValue(ensure))
		return m
	}

	a := ResourceInstance{ResourceName: "File", InstanceName: "TestFile1", Properties: props("Present")}
	b := ResourceInstance{ResourceName: "file", InstanceName: "TestFile1", Properties: props("Present")}
	c := ResourceInstance{ResourceName: "File", InstanceName: "testfile1", Properties: props("Present")}

	if !a.Equal(b) {
		t.Error("resource name comparison should ignore case")
	}
	if a.Equal(c) {
		t.Error("instance name comparison is exact")
	}
	b.Properties.Set("Ensure", StringValue("Absent"))
	if a.Equal(b) {
		t.Error("differing property values should break equality")
	}
}

// TestStringArrayValue_NeverNil tests the empty-not-null array invariant
func TestStringArrayValue_NeverNil(t *testing.T) {
	v := StringArrayValue(nil)
	if v.Strings == nil {
		t.Fatal("Strings should be an empty slice, not nil")
	}
	if len(v.Strings) != 0 {
		t.Errorf("len = %d, want 0", len(v.Strings))
	}
}
