// Package providers defines the schema source contract and the registry
// that aggregates multiple sources for one conversion.
package providers

import (
	"github.com/FabienTschanz/DSCParser/core"
)

// SchemaProvider supplies resource schemas from one backing source.
type SchemaProvider interface {
	// Name identifies the provider in diagnostics and CLI listings.
	Name() string

	// Lookup returns every catalog entry whose resource type name matches,
	// case-insensitively. Entries may differ by module name or version;
	// the caller applies import filters and picks one.
	Lookup(resourceName string) []*core.ResourceSchema

	// Resources lists the resource type names the provider can serve.
	Resources() []string
}

// Registry chains schema providers in registration order. It satisfies
// SchemaProvider itself, so a registry can stand anywhere a single source
// can.
type Registry struct {
	providers []SchemaProvider
}

// NewRegistry creates a registry over the given providers.
func NewRegistry(providers ...SchemaProvider) *Registry {
	return &Registry{providers: providers}
}

// Register appends a provider to the chain.
func (r *Registry) Register(p SchemaProvider) {
	r.providers = append(r.providers, p)
}

// Name identifies the registry.
func (r *Registry) Name() string { return "registry" }

// Lookup aggregates candidates across all providers in registration order.
// Later providers never shadow earlier ones; filtering happens downstream.
func (r *Registry) Lookup(resourceName string) []*core.ResourceSchema {
	var out []*core.ResourceSchema
	for _, p := range r.providers {
		out = append(out, p.Lookup(resourceName)...)
	}
	return out
}

// Resources lists every resource name served by any provider, first
// occurrence wins on duplicates.
func (r *Registry) Resources() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range r.providers {
		for _, name := range p.Resources() {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Providers returns the chain in registration order.
func (r *Registry) Providers() []SchemaProvider {
	return r.providers
}

var _ SchemaProvider = (*Registry)(nil)
