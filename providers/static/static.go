// Package static provides an in-memory schema source. Catalogs can be
// built programmatically or loaded from JSON or YAML files.
package static

import (
	"strings"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/providers"
)

// Provider indexes resource schemas by lower-cased type name.
type Provider struct {
	byName map[string][]*core.ResourceSchema
	names  []string
}

var _ providers.SchemaProvider = (*Provider)(nil)

// New creates a provider preloaded with the given schemas.
func New(schemas ...*core.ResourceSchema) *Provider {
	p := &Provider{byName: make(map[string][]*core.ResourceSchema)}
	p.Add(schemas...)
	return p
}

// Add indexes more schemas. Entries for the same resource name accumulate;
// they usually differ by module or version.
func (p *Provider) Add(schemas ...*core.ResourceSchema) {
	for _, s := range schemas {
		if s == nil || s.ResourceName == "" {
			continue
		}
		key := strings.ToLower(s.ResourceName)
		if _, ok := p.byName[key]; !ok {
			p.names = append(p.names, s.ResourceName)
		}
		p.byName[key] = append(p.byName[key], s)
	}
}

// Name identifies the provider.
func (p *Provider) Name() string { return "static" }

// Lookup returns all entries for the resource name, case-insensitively.
func (p *Provider) Lookup(resourceName string) []*core.ResourceSchema {
	return p.byName[strings.ToLower(resourceName)]
}

// Resources lists indexed resource names in first-seen order.
func (p *Provider) Resources() []string {
	return p.names
}
