// Package builder assembles the ordered resource-instance sequence from a
// parsed configuration document, interpreting property values against
// provider-supplied schemas. Interpretation is best-effort: unresolvable
// values degrade to raw source text with diagnostics, and only a missing
// structural landmark (or a schema miss under strict mode) aborts a build.
package builder

import (
	"fmt"
	"strings"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/providers"
	"github.com/FabienTschanz/DSCParser/syntax"
)

// Config carries the knobs for one builder.
type Config struct {
	// Schemas resolves resource types to declared property lists. A nil
	// provider leaves every resource unresolved.
	Schemas providers.SchemaProvider

	// Strict makes an unresolved resource type fatal instead of degrading
	// its properties to raw text.
	Strict bool

	// IncludeCIMInstanceInfo adds a shadow CIMInstance entry naming the
	// embedded type on every sub-object value.
	IncludeCIMInstanceInfo bool

	// VersionRangePolicy treats pinned import versions as semver
	// constraints instead of requiring exact equality.
	VersionRangePolicy bool

	// OnProgress, when set, is called after each assembled instance.
	OnProgress func(done, total int)
}

// Builder turns configuration trees into resource instances. It is stateless
// across calls; every Build owns a fresh resolution session.
type Builder struct {
	cfg Config
}

// New returns a Builder with the given configuration.
func New(cfg Config) *Builder { return &Builder{cfg: cfg} }

// Build walks the tree and returns the ordered instance list plus the
// diagnostics accumulated while interpreting it.
func (bl *Builder) Build(tree *syntax.ScriptBlock) ([]core.ResourceInstance, core.Diagnostics, error) {
	if tree == nil {
		return nil, nil, core.NewStructuralError(core.ErrNoConfiguration, 0, 0)
	}
	cfgDef := findConfiguration(tree)
	if cfgDef == nil {
		pos := tree.Pos()
		return nil, nil, core.NewStructuralError(core.ErrNoConfiguration, pos.Line, pos.Column)
	}

	b := &build{
		cfg:     bl.cfg,
		session: newSession(bl.cfg.Schemas, collectImports(cfgDef), bl.cfg.VersionRangePolicy),
	}
	return b.run(cfgDef)
}

// build is the per-invocation state: one resolution session, one diagnostics
// list.
type build struct {
	cfg     Config
	session *session
	diags   core.Diagnostics
}

func (b *build) run(cfgDef *syntax.ConfigurationDefinition) ([]core.ResourceInstance, core.Diagnostics, error) {
	stmts, haveNode := instanceStatements(cfgDef)
	if len(stmts) == 0 && !haveNode {
		pos := cfgDef.Pos()
		return nil, b.diags, core.NewStructuralError(core.ErrNoNodeBlock, pos.Line, pos.Column)
	}

	total := len(stmts)
	instances := make([]core.ResourceInstance, 0, total)
	for i, stmt := range stmts {
		inst, err := b.makeInstance(stmt)
		if err != nil {
			return nil, b.diags, err
		}
		instances = append(instances, inst)
		if b.cfg.OnProgress != nil {
			b.cfg.OnProgress(i+1, total)
		}
	}
	return instances, b.diags, nil
}

// makeInstance interprets one resource declaration. An unresolved resource
// type keeps all property values as raw text in lenient mode and aborts the
// build in strict mode.
func (b *build) makeInstance(stmt *syntax.DynamicKeywordStatement) (core.ResourceInstance, error) {
	at := site{resource: stmt.Keyword, instance: stmt.InstanceName}
	schema := b.session.resolve(stmt.Keyword)
	if schema == nil {
		if b.cfg.Strict {
			return core.ResourceInstance{}, &core.SchemaNotFoundError{ResourceName: stmt.Keyword}
		}
		b.diagAt(core.CodeSchemaNotFound, stmt.KeywordPos, at, "no schema for resource type %q; properties kept as raw text", stmt.Keyword)
	}

	props := core.NewPropertyMap()
	if stmt.Body != nil {
		for _, entry := range stmt.Body.Entries {
			propAt := site{resource: stmt.Keyword, instance: stmt.InstanceName, property: entry.Key}
			if schema == nil {
				props.Set(entry.Key, core.RawValue(entry.Value.Text()))
				continue
			}
			prop := schema.Property(entry.Key)
			if prop == nil {
				b.diagAt(core.CodePropertyNotInSchema, entry.KeyPos, propAt, "property %q is not declared by %s; dropped", entry.Key, stmt.Keyword)
				continue
			}
			props.Set(entry.Key, b.bind(entry.Value, prop.Type, schema.ModuleName, propAt))
		}
	}
	return core.ResourceInstance{
		ResourceName: stmt.Keyword,
		InstanceName: stmt.InstanceName,
		Properties:   props,
	}, nil
}

// site locates a diagnostic: the resource, instance, and property the
// interpreter was working on when it degraded.
type site struct {
	resource string
	instance string
	property string
}

// diagAt records a diagnostic anchored at a source position.
func (b *build) diagAt(code string, pos syntax.Position, at site, format string, args ...any) {
	b.diags = append(b.diags, core.Diagnostic{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Resource: at.resource,
		Instance: at.instance,
		Property: at.property,
		Line:     pos.Line,
		Column:   pos.Column,
	})
}

// findConfiguration returns the first configuration definition among the
// document's statements.
func findConfiguration(tree *syntax.ScriptBlock) *syntax.ConfigurationDefinition {
	for _, st := range tree.Statements {
		if cfg, ok := st.(*syntax.ConfigurationDefinition); ok {
			return cfg
		}
	}
	return nil
}

// instanceStatements returns the resource declarations to interpret and
// whether a node block supplied them. Without a node block the configuration
// body itself is scanned directly, so node-less documents build the same
// tree a wrapped equivalent would.
func instanceStatements(cfgDef *syntax.ConfigurationDefinition) ([]*syntax.DynamicKeywordStatement, bool) {
	var out []*syntax.DynamicKeywordStatement
	haveNode := false
	for _, st := range cfgDef.Body {
		if n, ok := st.(*syntax.NodeStatement); ok {
			haveNode = true
			for _, inner := range n.Body {
				if d, ok := inner.(*syntax.DynamicKeywordStatement); ok {
					out = append(out, d)
				}
			}
		}
	}
	if haveNode {
		return out, true
	}
	for _, st := range cfgDef.Body {
		if d, ok := st.(*syntax.DynamicKeywordStatement); ok {
			out = append(out, d)
		}
	}
	return out, false
}

// collectImports gathers (module, version) pairs from Import-DscResource
// statements in the configuration body. A -ModuleVersion pin applies to
// every module named by the same statement that does not carry its own.
func collectImports(cfgDef *syntax.ConfigurationDefinition) []ImportFilter {
	var out []ImportFilter
	for _, st := range cfgDef.Body {
		cmd, ok := st.(*syntax.CommandStatement)
		if !ok || !isImportCommand(cmd.Name) {
			continue
		}
		var filters []ImportFilter
		var version string
		for _, arg := range cmd.Args {
			switch {
			case strings.EqualFold(arg.Parameter, "ModuleName"),
				arg.Parameter == "" && arg.Value != nil:
				if arg.Value != nil {
					filters = append(filters, importsFromValue(arg.Value)...)
				}
			case strings.EqualFold(arg.Parameter, "ModuleVersion"):
				if arg.Value != nil {
					version = stringText(arg.Value)
				}
			}
		}
		for i := range filters {
			if filters[i].ModuleVersion == "" {
				filters[i].ModuleVersion = version
			}
		}
		out = append(out, filters...)
	}
	return out
}

// isImportCommand matches the Import-<X>Resource command family.
func isImportCommand(name string) bool {
	n := strings.ToLower(name)
	return strings.HasPrefix(n, "import-") && strings.HasSuffix(n, "resource")
}

// importsFromValue flattens a -ModuleName argument into import filters. The
// argument accepts one name, an array of names, or a module-specification
// hashtable carrying its own version pin. Variable expressions cannot be
// resolved statically and contribute no filter.
func importsFromValue(v syntax.Node) []ImportFilter {
	switch n := v.(type) {
	case *syntax.Pipeline:
		if len(n.Elements) == 1 {
			return importsFromValue(n.Elements[0])
		}
	case *syntax.ArrayLiteral:
		var out []ImportFilter
		for _, el := range n.Elements {
			out = append(out, importsFromValue(el)...)
		}
		return out
	case *syntax.StringConstant:
		if n.Value != "" {
			return []ImportFilter{{ModuleName: n.Value}}
		}
		return nil
	case *syntax.Hashtable:
		var f ImportFilter
		for _, e := range n.Entries {
			switch {
			case strings.EqualFold(e.Key, "ModuleName"):
				f.ModuleName = stringText(e.Value)
			case strings.EqualFold(e.Key, "ModuleVersion"),
				strings.EqualFold(e.Key, "RequiredVersion"):
				f.ModuleVersion = stringText(e.Value)
			}
		}
		if f.ModuleName != "" {
			return []ImportFilter{f}
		}
		return nil
	case *syntax.VariableReference, *syntax.MemberAccess:
		return nil
	}
	if t := strings.TrimSpace(v.Text()); t != "" && !strings.HasPrefix(t, "$") {
		return []ImportFilter{{ModuleName: t}}
	}
	return nil
}

// stringText renders a scalar argument as plain text, unquoting string
// constants.
func stringText(v syntax.Node) string {
	switch n := v.(type) {
	case *syntax.Pipeline:
		if len(n.Elements) == 1 {
			return stringText(n.Elements[0])
		}
	case *syntax.StringConstant:
		return n.Value
	}
	return strings.TrimSpace(v.Text())
}
