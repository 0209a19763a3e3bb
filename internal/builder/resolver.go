package builder

import (
	"strings"

	"github.com/masterminds/semver"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/providers"
)

// ImportFilter is one Import-DscResource declaration scoped to the current
// document: a module name plus an optional pinned version.
type ImportFilter struct {
	ModuleName    string
	ModuleVersion string
}

// session carries the resolution state of a single build. A session is
// created per Build call and discarded with it, so no import scope or cache
// entry survives into the next document.
type session struct {
	provider    providers.SchemaProvider
	imports     []ImportFilter
	rangePolicy bool

	// resources caches top-level lookups by lowercased type name. A nil
	// entry is a recorded miss, so absent schemas are probed only once.
	resources map[string]*core.ResourceSchema

	// embedded caches sub-object lookups keyed by type name and owning
	// module, since the same class name may resolve differently under
	// different owners.
	embedded map[string]*core.ResourceSchema
}

func newSession(p providers.SchemaProvider, imports []ImportFilter, rangePolicy bool) *session {
	return &session{
		provider:    p,
		imports:     imports,
		rangePolicy: rangePolicy,
		resources:   make(map[string]*core.ResourceSchema),
		embedded:    make(map[string]*core.ResourceSchema),
	}
}

// resolve returns the schema for a top-level resource type, or nil on a miss.
func (s *session) resolve(resourceName string) *core.ResourceSchema {
	key := strings.ToLower(resourceName)
	if cached, ok := s.resources[key]; ok {
		return cached
	}
	schema := s.pick(resourceName, "")
	s.resources[key] = schema
	return schema
}

// resolveEmbedded returns the schema for a sub-object type declared inside a
// resource owned by ownerModule. Candidates from the owner's module win over
// same-named classes from other modules.
func (s *session) resolveEmbedded(typeName, ownerModule string) *core.ResourceSchema {
	key := strings.ToLower(typeName) + "|" + strings.ToLower(ownerModule)
	if cached, ok := s.embedded[key]; ok {
		return cached
	}
	schema := s.pick(typeName, ownerModule)
	s.embedded[key] = schema
	return schema
}

// pick filters the provider's candidates through the document's import scope
// and returns the winner, preferring preferModule when set.
func (s *session) pick(name, preferModule string) *core.ResourceSchema {
	if s.provider == nil {
		return nil
	}
	var eligible []*core.ResourceSchema
	for _, c := range s.provider.Lookup(name) {
		if c != nil && s.admits(c) {
			eligible = append(eligible, c)
		}
	}
	if preferModule != "" {
		for _, c := range eligible {
			if strings.EqualFold(c.ModuleName, preferModule) {
				return c
			}
		}
	}
	if len(eligible) == 0 {
		return nil
	}
	return eligible[0]
}

// admits applies the import filters to one candidate. Entries without module
// metadata are always in scope; module-affiliated entries must match one of
// the document's imports once any imports exist.
func (s *session) admits(c *core.ResourceSchema) bool {
	if len(s.imports) == 0 || c.ModuleName == "" {
		return true
	}
	for _, imp := range s.imports {
		if !strings.EqualFold(imp.ModuleName, c.ModuleName) {
			continue
		}
		if imp.ModuleVersion == "" || s.versionMatches(c.ModuleVersion, imp.ModuleVersion) {
			return true
		}
	}
	return false
}

// versionMatches compares a catalog version against a pinned import version.
// The default contract is exact equality. The range policy reads the pin as
// a semver constraint instead, falling back to equality when either side
// does not parse.
func (s *session) versionMatches(have, pinned string) bool {
	if !s.rangePolicy {
		return have == pinned
	}
	constraint, err := semver.NewConstraint(pinned)
	if err != nil {
		return have == pinned
	}
	v, err := semver.NewVersion(have)
	if err != nil {
		return have == pinned
	}
	return constraint.Check(v)
}
