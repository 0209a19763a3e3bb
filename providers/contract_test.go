package providers

import (
	"testing"

	"github.com/FabienTschanz/DSCParser/core"
)

// mockProvider serves a fixed schema list for registry tests.
type mockProvider struct {
	name    string
	schemas []*core.ResourceSchema
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Lookup(resourceName string) []*core.ResourceSchema {
	var out []*core.ResourceSchema
	for _, s := range m.schemas {
		if s.ResourceName == resourceName {
			out = append(out, s)
		}
	}
	return out
}

func (m *mockProvider) Resources() []string {
	var out []string
	for _, s := range m.schemas {
		out = append(out, s.ResourceName)
	}
	return out
}

func TestRegistryLookupOrder(t *testing.T) {
	first := &mockProvider{name: "first", schemas: []*core.ResourceSchema{
		{ResourceName: "File", ModuleName: "PSDesiredStateConfiguration"},
	}}
	second := &mockProvider{name: "second", schemas: []*core.ResourceSchema{
		{ResourceName: "File", ModuleName: "xOther"},
		{ResourceName: "xRegistry", ModuleName: "xPSDesiredStateConfiguration"},
	}}

	registry := NewRegistry(first)
	registry.Register(second)

	got := registry.Lookup("File")
	if len(got) != 2 {
		t.Fatalf("Lookup returned %d entries, want 2", len(got))
	}
	if got[0].ModuleName != "PSDesiredStateConfiguration" {
		t.Errorf("first entry module = %q, want the earlier provider's", got[0].ModuleName)
	}
	if got[1].ModuleName != "xOther" {
		t.Errorf("second entry module = %q", got[1].ModuleName)
	}
}

func TestRegistryResources(t *testing.T) {
	a := &mockProvider{name: "a", schemas: []*core.ResourceSchema{
		{ResourceName: "File"},
		{ResourceName: "xRegistry"},
	}}
	b := &mockProvider{name: "b", schemas: []*core.ResourceSchema{
		{ResourceName: "File"},
		{ResourceName: "Service"},
	}}

	registry := NewRegistry(a, b)

	got := registry.Resources()
	want := []string{"File", "xRegistry", "Service"}
	if len(got) != len(want) {
		t.Fatalf("Resources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Resources[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryEmpty(t *testing.T) {
	registry := NewRegistry()
	if got := registry.Lookup("File"); got != nil {
		t.Errorf("empty registry Lookup = %v, want nil", got)
	}
	if got := registry.Resources(); len(got) != 0 {
		t.Errorf("empty registry Resources = %v", got)
	}
}

func TestRegistryNestsAsProvider(t *testing.T) {
	inner := NewRegistry(&mockProvider{name: "inner", schemas: []*core.ResourceSchema{
		{ResourceName: "File"},
	}})
	outer := NewRegistry(inner)

	if got := outer.Lookup("File"); len(got) != 1 {
		t.Fatalf("nested registry Lookup returned %d entries, want 1", len(got))
	}
}
