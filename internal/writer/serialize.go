// Package writer turns resource instances back into configuration text and
// carries the file output modes of the command-line tool. The serializer is
// a structural recursive descent: nesting level is an explicit parameter and
// indentation is computed before emission, never patched into already
// rendered text.
package writer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FabienTschanz/DSCParser/core"
)

// identityKeys are consumed to build header lines and never emitted as
// ordinary properties.
var identityKeys = map[string]bool{
	"resourcename":         true,
	"resourceinstancename": true,
	"ciminstance":          true,
}

// constructorPrefixes mark string values holding constructor calls that the
// host must re-evaluate, so they emit verbatim rather than quoted.
var constructorPrefixes = []string{"New-Object", "Get-Credential"}

// Serialize renders the instance sequence as configuration text at the
// given nesting level. Any property value the format cannot express fails
// the whole call with a ContractViolation.
func Serialize(instances []core.ResourceInstance, level int) (string, error) {
	e := &emitter{}
	for _, inst := range instances {
		if err := e.instance(inst, level); err != nil {
			return "", err
		}
	}
	return e.b.String(), nil
}

type emitter struct {
	b strings.Builder
}

// instance emits one `Resource "Name"` block. Identity falls back to the
// reflected map entries so hand-built maps round-trip.
func (e *emitter) instance(inst core.ResourceInstance, level int) error {
	resource := inst.ResourceName
	if resource == "" {
		resource = mapString(inst.Properties, "ResourceName")
	}
	if resource == "" {
		return violation("resource instance has no resource name", "", inst.InstanceName, "")
	}
	name := inst.InstanceName
	if name == "" {
		name = mapString(inst.Properties, "ResourceInstanceName")
	}

	e.b.WriteString(pad(level))
	e.b.WriteString(resource)
	if name != "" {
		e.b.WriteString(" \"" + strings.ReplaceAll(name, "\"", "`\"") + "\"")
	}
	e.b.WriteString("\n")
	return e.block(inst.Properties, level, resource, name)
}

// block emits the brace-delimited property list of one instance, keys in
// ascending case-insensitive order, equals signs aligned one column past
// the longest emitted key.
func (e *emitter) block(props *core.PropertyMap, level int, resource, instance string) error {
	indent := pad(level)
	e.b.WriteString(indent + "{\n")
	if props != nil {
		width := alignWidth(props)
		for _, key := range props.SortedKeys() {
			if identityKeys[strings.ToLower(key)] {
				continue
			}
			v, _ := props.Get(key)
			if err := e.property(key, v, width, level, resource, instance); err != nil {
				return err
			}
		}
	}
	e.b.WriteString(indent + "}\n")
	return nil
}

// property emits one `Key = value` line, recursing for embedded instances.
func (e *emitter) property(key string, v core.PropertyValue, width, level int, resource, instance string) error {
	indent := pad(level + 1)
	lead := fmt.Sprintf("%s%-*s= ", indent, width, key)

	switch v.Kind {
	case core.KindString:
		e.b.WriteString(lead + formatString(v.Str) + "\n")
	case core.KindInt:
		e.b.WriteString(lead + strconv.FormatInt(v.Int, 10) + "\n")
	case core.KindBool:
		if v.Bool {
			e.b.WriteString(lead + "$true\n")
		} else {
			e.b.WriteString(lead + "$false\n")
		}
	case core.KindRaw:
		e.b.WriteString(lead + v.Raw + "\n")
	case core.KindStringArray:
		e.b.WriteString(lead + formatStringArray(v.Strings) + "\n")
	case core.KindIntArray:
		e.b.WriteString(lead + formatIntArray(v.Ints) + "\n")
	case core.KindCimInstance:
		text, err := renderEmbedded(v.Instance, level+1, true, resource, instance, key)
		if err != nil {
			return err
		}
		e.b.WriteString(lead + text)
	case core.KindCimInstanceArray:
		if len(v.Instances) == 0 {
			e.b.WriteString(lead + "@()\n")
			return nil
		}
		e.b.WriteString(lead + "@(\n")
		for _, ci := range v.Instances {
			text, err := renderEmbedded(ci, level+2, false, resource, instance, key)
			if err != nil {
				return err
			}
			e.b.WriteString(text)
		}
		e.b.WriteString(indent + ")\n")
	default:
		return violation(fmt.Sprintf("property value kind %d is not expressible", v.Kind), resource, instance, key)
	}
	return nil
}

// renderEmbedded renders one embedded instance block at the given level.
// inline strips the opening line's indent so the block splices directly
// after `= `.
func renderEmbedded(ci *core.CimInstanceValue, level int, inline bool, resource, instance, property string) (string, error) {
	if ci == nil {
		return "", violation("nil embedded instance", resource, instance, property)
	}
	typeName := ci.TypeName
	if typeName == "" {
		typeName = mapString(ci.Properties, "CIMInstance")
	}
	if typeName == "" {
		return "", violation("embedded instance has no type name", resource, instance, property)
	}

	sub := &emitter{}
	if !inline {
		sub.b.WriteString(pad(level))
	}
	sub.b.WriteString(typeName + "\n")
	if err := sub.block(ci.Properties, level, resource, instance); err != nil {
		return "", err
	}
	return sub.b.String(), nil
}

// alignWidth is the padded key-field width: one column past the longest
// key that will actually be emitted.
func alignWidth(props *core.PropertyMap) int {
	longest := 0
	for _, k := range props.Keys() {
		if identityKeys[strings.ToLower(k)] {
			continue
		}
		if len(k) > longest {
			longest = len(k)
		}
	}
	return longest + 1
}

// formatString quotes a string value, escaping embedded quotes with a
// backtick. Strings that captured variable references or constructor calls
// emit verbatim so the host re-evaluates them.
func formatString(s string) string {
	if verbatimString(s) {
		return s
	}
	return "\"" + strings.ReplaceAll(s, "\"", "`\"") + "\""
}

func verbatimString(s string) bool {
	if strings.HasPrefix(s, "$") || strings.HasPrefix(s, "[") {
		return true
	}
	for _, p := range constructorPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func formatStringArray(ss []string) string {
	if len(ss) == 0 {
		return "@()"
	}
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = formatString(s)
	}
	return "@(" + strings.Join(parts, ",") + ")"
}

func formatIntArray(ns []int64) string {
	if len(ns) == 0 {
		return "@()"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.FormatInt(n, 10)
	}
	return "@(" + strings.Join(parts, ",") + ")"
}

// mapString reads a string-valued map entry, used for the reflected
// identity keys on hand-built maps.
func mapString(props *core.PropertyMap, key string) string {
	if props == nil {
		return ""
	}
	if v, ok := props.Get(key); ok && v.Kind == core.KindString {
		return v.Str
	}
	return ""
}

func pad(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat("    ", level)
}

func violation(msg, resource, instance, property string) *core.ContractViolation {
	return &core.ContractViolation{
		Message:  msg,
		Resource: resource,
		Instance: instance,
		Property: property,
	}
}
