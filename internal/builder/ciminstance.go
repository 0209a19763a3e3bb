package builder

import (
	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/syntax"
)

// cimInstanceKey is the shadow property naming the embedded type when the
// caller opted in. The serializer suppresses it again on output.
const cimInstanceKey = "CIMInstance"

// bind routes one property expression to the literal or embedded-instance
// interpreter based on the value's shape. ownerModule scopes embedded type
// resolution to the module that declared the owning resource.
func (b *build) bind(value syntax.Node, tag core.TypeTag, ownerModule string, at site) core.PropertyValue {
	if stmt, ok := instanceNode(value); ok {
		inst := b.instance(stmt, ownerModule, at)
		if tag.Kind == core.TagInstanceArray {
			return core.CimArrayValue([]*core.CimInstanceValue{inst})
		}
		return core.CimValue(inst)
	}
	if arr, ok := arrayNode(value); ok && firstIsInstance(arr) {
		return b.instanceArray(arr, ownerModule, at)
	}
	return b.literal(value, tag, at)
}

// instance interprets `TypeName { key = value; ... }` as an embedded typed
// value. When the type's schema cannot be resolved every member stays raw
// text; unknown members of a resolved type are dropped, mirroring the
// top-level property contract.
func (b *build) instance(stmt *syntax.DynamicKeywordStatement, ownerModule string, at site) *core.CimInstanceValue {
	schema := b.session.resolveEmbedded(stmt.Keyword, ownerModule)
	if schema == nil {
		b.diagAt(core.CodeSchemaNotFound, stmt.KeywordPos, at, "no schema for embedded type %q; members kept as raw text", stmt.Keyword)
	}
	childModule := ownerModule
	if schema != nil && schema.ModuleName != "" {
		childModule = schema.ModuleName
	}

	props := core.NewPropertyMap()
	if stmt.Body != nil {
		for _, entry := range stmt.Body.Entries {
			memberAt := site{resource: at.resource, instance: at.instance, property: entry.Key}
			if schema == nil {
				props.Set(entry.Key, core.RawValue(entry.Value.Text()))
				continue
			}
			prop := schema.Property(entry.Key)
			if prop == nil {
				b.diagAt(core.CodePropertyNotInSchema, entry.KeyPos, memberAt, "property %q is not declared by %s; dropped", entry.Key, stmt.Keyword)
				continue
			}
			props.Set(entry.Key, b.bind(entry.Value, prop.Type, childModule, memberAt))
		}
	}
	if b.cfg.IncludeCIMInstanceInfo {
		props.Set(cimInstanceKey, core.StringValue(stmt.Keyword))
	}
	return &core.CimInstanceValue{TypeName: stmt.Keyword, Properties: props}
}

// instanceArray interprets an array literal committed to instance mode by
// its first element. Scalar elements mixed in are dropped with a shape
// diagnostic.
func (b *build) instanceArray(arr *syntax.ArrayLiteral, ownerModule string, at site) core.PropertyValue {
	insts := make([]*core.CimInstanceValue, 0, len(arr.Elements))
	for _, el := range arr.Elements {
		stmt, ok := instanceNode(el)
		if !ok {
			b.diagAt(core.CodeAmbiguousArrayShape, el.Pos(), at, "scalar element inside an instance array dropped")
			continue
		}
		insts = append(insts, b.instance(stmt, ownerModule, at))
	}
	return core.CimArrayValue(insts)
}

// instanceNode unwraps single-element pipelines and reports whether the node
// is an embedded instance declaration.
func instanceNode(n syntax.Node) (*syntax.DynamicKeywordStatement, bool) {
	for {
		p, ok := n.(*syntax.Pipeline)
		if !ok || len(p.Elements) != 1 {
			break
		}
		n = p.Elements[0]
	}
	stmt, ok := n.(*syntax.DynamicKeywordStatement)
	return stmt, ok
}

// arrayNode unwraps single-element pipelines and reports whether the node is
// an array literal.
func arrayNode(n syntax.Node) (*syntax.ArrayLiteral, bool) {
	for {
		p, ok := n.(*syntax.Pipeline)
		if !ok || len(p.Elements) != 1 {
			break
		}
		n = p.Elements[0]
	}
	arr, ok := n.(*syntax.ArrayLiteral)
	return arr, ok
}

// firstIsInstance reports whether the array's first element is an embedded
// instance declaration, committing the whole array to instance mode.
func firstIsInstance(arr *syntax.ArrayLiteral) bool {
	if len(arr.Elements) == 0 {
		return false
	}
	_, ok := instanceNode(arr.Elements[0])
	return ok
}
