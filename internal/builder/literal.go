package builder

import (
	"strconv"
	"strings"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/syntax"
)

// literal interprets a scalar or array expression under the declared type
// tag. The schema decides the shape, not the node kind: a quoted "42" on an
// integer property is still an integer. Interpretation never fails; anything
// unresolvable degrades to raw source text, recording a diagnostic where the
// contract asks for one.
func (b *build) literal(node syntax.Node, tag core.TypeTag, at site) core.PropertyValue {
	switch n := node.(type) {
	case *syntax.Pipeline:
		if len(n.Elements) == 1 {
			return b.literal(n.Elements[0], tag, at)
		}
	case *syntax.VariableReference:
		if strings.EqualFold(n.Name, "true") {
			return core.BoolValue(true)
		}
		if strings.EqualFold(n.Name, "false") {
			return core.BoolValue(false)
		}
		return core.RawValue(n.Text())
	case *syntax.MemberAccess:
		return core.RawValue(n.Text())
	case *syntax.StringConstant:
		return b.scalar(n.Value, n.Text(), n.Pos(), tag, at)
	case *syntax.NumberConstant:
		return b.scalar(n.Text(), n.Text(), n.Pos(), tag, at)
	case *syntax.ArrayLiteral:
		return b.array(n, tag, at)
	case *syntax.CommandExpression:
		b.diagAt(core.CodeRawFallback, n.Pos(), at, "command invocation kept as raw text")
		return core.RawValue(n.Text())
	}
	b.diagAt(core.CodeRawFallback, node.Pos(), at, "unrecognized expression kept as raw text")
	return core.RawValue(node.Text())
}

// scalar coerces one textual literal. text is the decoded value, verbatim
// the original source span. A failed numeric or boolean coercion keeps the
// text as a string instead of failing the build. Array tags wrap the scalar
// into a one-element array.
func (b *build) scalar(text, verbatim string, pos syntax.Position, tag core.TypeTag, at site) core.PropertyValue {
	switch tag.Kind {
	case core.TagInt:
		n, err := parseInt(text)
		if err != nil {
			b.diagAt(core.CodeTypeCoercionFailure, pos, at, "cannot interpret %q as %s", text, tag)
			return core.StringValue(text)
		}
		return core.IntValue(n)
	case core.TagIntArray:
		n, err := parseInt(text)
		if err != nil {
			b.diagAt(core.CodeTypeCoercionFailure, pos, at, "cannot interpret %q as an element of %s", text, tag)
			return core.StringArrayValue([]string{text})
		}
		return core.IntArrayValue([]int64{n})
	case core.TagBool:
		switch strings.ToLower(strings.TrimSpace(text)) {
		case "true", "$true":
			return core.BoolValue(true)
		case "false", "$false":
			return core.BoolValue(false)
		}
		b.diagAt(core.CodeTypeCoercionFailure, pos, at, "cannot interpret %q as %s", text, tag)
		return core.StringValue(text)
	case core.TagStringArray, core.TagInstanceArray:
		return core.StringArrayValue([]string{text})
	case core.TagOpaque:
		b.diagAt(core.CodeRawFallback, pos, at, "declared type %s is not interpretable; kept as raw text", tag)
		return core.RawValue(verbatim)
	}
	return core.StringValue(text)
}

// array interprets an array literal in scalar mode. Instance-shaped arrays
// are routed to the embedded-instance interpreter before this point, so a
// statement element here means the array mixes shapes.
func (b *build) array(arr *syntax.ArrayLiteral, tag core.TypeTag, at site) core.PropertyValue {
	if tag.Kind == core.TagIntArray {
		return b.intArray(arr, tag, at)
	}
	out := make([]string, 0, len(arr.Elements))
	for _, el := range arr.Elements {
		if text, ok := b.elementText(el, at); ok {
			out = append(out, text)
		}
	}
	return core.StringArrayValue(out)
}

// intArray coerces every element to an integer. One bad element degrades the
// whole array to strings so the value stays homogeneous.
func (b *build) intArray(arr *syntax.ArrayLiteral, tag core.TypeTag, at site) core.PropertyValue {
	ints := make([]int64, 0, len(arr.Elements))
	texts := make([]string, 0, len(arr.Elements))
	clean := true
	for _, el := range arr.Elements {
		text, keep := b.elementText(el, at)
		if !keep {
			continue
		}
		texts = append(texts, text)
		n, err := parseInt(text)
		if err != nil {
			b.diagAt(core.CodeTypeCoercionFailure, el.Pos(), at, "cannot interpret %q as an element of %s", text, tag)
			clean = false
			continue
		}
		ints = append(ints, n)
	}
	if !clean {
		return core.StringArrayValue(texts)
	}
	return core.IntArrayValue(ints)
}

// elementText renders one array element in scalar mode. Embedded instance
// statements are dropped with a shape diagnostic; everything else keeps its
// text, with string constants unquoted.
func (b *build) elementText(el syntax.Node, at site) (string, bool) {
	switch n := el.(type) {
	case *syntax.Pipeline:
		if len(n.Elements) == 1 {
			return b.elementText(n.Elements[0], at)
		}
	case *syntax.StringConstant:
		return n.Value, true
	case *syntax.DynamicKeywordStatement:
		b.diagAt(core.CodeAmbiguousArrayShape, el.Pos(), at, "instance element inside a scalar array dropped")
		return "", false
	}
	return strings.TrimSpace(el.Text()), true
}

// parseInt accepts decimal and 0x-prefixed hexadecimal literals.
func parseInt(text string) (int64, error) {
	t := strings.TrimSpace(text)
	if len(t) > 2 && (strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X")) {
		return strconv.ParseInt(t[2:], 16, 64)
	}
	return strconv.ParseInt(t, 10, 64)
}
