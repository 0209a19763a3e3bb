package cli

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"

	"github.com/FabienTschanz/DSCParser/core"
)

// treeDocument is the JSON interchange form of one converted document.
// convert emits it; render accepts it back (or a bare instance array).
type treeDocument struct {
	File        string           `json:"file,omitempty"`
	Instances   []map[string]any `json:"instances"`
	Diagnostics core.Diagnostics `json:"diagnostics,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// encodeTree renders instances into the interchange shape. Identity fields
// use the configuration host's names so the output reads like the source.
func encodeTree(instances []core.ResourceInstance) []map[string]any {
	out := make([]map[string]any, 0, len(instances))
	for _, inst := range instances {
		out = append(out, map[string]any{
			"ResourceName":         inst.ResourceName,
			"ResourceInstanceName": inst.InstanceName,
			"Properties":           encodeProperties(inst.Properties),
		})
	}
	return out
}

func encodeProperties(props *core.PropertyMap) map[string]any {
	out := make(map[string]any, props.Len())
	if props == nil {
		return out
	}
	for _, e := range props.Entries() {
		out[e.Key] = encodeValue(e.Value)
	}
	return out
}

func encodeValue(v core.PropertyValue) any {
	switch v.Kind {
	case core.KindString:
		return v.Str
	case core.KindInt:
		return v.Int
	case core.KindBool:
		return v.Bool
	case core.KindStringArray:
		return v.Strings
	case core.KindIntArray:
		return v.Ints
	case core.KindCimInstance:
		return encodeEmbedded(v.Instance)
	case core.KindCimInstanceArray:
		arr := make([]any, 0, len(v.Instances))
		for _, ci := range v.Instances {
			arr = append(arr, encodeEmbedded(ci))
		}
		return arr
	case core.KindRaw:
		return v.Raw
	}
	return nil
}

// encodeEmbedded flattens a CIM instance into an object whose CIMInstance
// entry names the type, the same shadow-key convention the conversion
// options use.
func encodeEmbedded(ci *core.CimInstanceValue) map[string]any {
	out := encodeProperties(ci.Properties)
	out["CIMInstance"] = ci.TypeName
	return out
}

// decodeTree parses interchange JSON back into instances. Accepted shapes:
// a document object with an "instances" field, or a bare instance array.
func decodeTree(data []byte) ([]core.ResourceInstance, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse resource tree JSON: %w", err)
	}

	var items []any
	switch node := raw.(type) {
	case map[string]any:
		inner, ok := node["instances"]
		if !ok {
			return nil, fmt.Errorf(`resource tree document has no "instances" field`)
		}
		items, ok = inner.([]any)
		if !ok {
			return nil, fmt.Errorf(`"instances" must be an array`)
		}
	case []any:
		items = node
	default:
		return nil, fmt.Errorf("resource tree JSON must be an object or an array, got %T", raw)
	}

	instances := make([]core.ResourceInstance, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("instance %d is not an object", i)
		}
		inst, err := decodeInstance(m)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func decodeInstance(m map[string]any) (core.ResourceInstance, error) {
	name, _ := m["ResourceName"].(string)
	if name == "" {
		return core.ResourceInstance{}, fmt.Errorf(`missing "ResourceName"`)
	}
	instName, _ := m["ResourceInstanceName"].(string)

	props := core.NewPropertyMap()
	if rawProps, ok := m["Properties"].(map[string]any); ok {
		for _, key := range sortedKeys(rawProps) {
			v, err := decodeValue(rawProps[key])
			if err != nil {
				return core.ResourceInstance{}, fmt.Errorf("property %s: %w", key, err)
			}
			props.Set(key, v)
		}
	}

	return core.ResourceInstance{
		ResourceName: name,
		InstanceName: instName,
		Properties:   props,
	}, nil
}

func decodeValue(raw any) (core.PropertyValue, error) {
	switch v := raw.(type) {
	case string:
		return core.StringValue(v), nil
	case bool:
		return core.BoolValue(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return core.IntValue(n), nil
		}
		// Non-integral numbers have no native property shape; keep the text.
		return core.StringValue(v.String()), nil
	case []any:
		return decodeArray(v)
	case map[string]any:
		ci, err := decodeEmbedded(v)
		if err != nil {
			return core.PropertyValue{}, err
		}
		return core.CimValue(ci), nil
	}
	return core.PropertyValue{}, fmt.Errorf("unsupported value %T", raw)
}

// decodeArray commits to the shape of the first element, mirroring how
// array literals are interpreted during conversion.
func decodeArray(items []any) (core.PropertyValue, error) {
	if len(items) == 0 {
		return core.StringArrayValue(nil), nil
	}

	switch items[0].(type) {
	case json.Number:
		ints := make([]int64, 0, len(items))
		for i, item := range items {
			num, ok := item.(json.Number)
			if !ok {
				return core.PropertyValue{}, fmt.Errorf("array element %d is not a number", i)
			}
			n, err := num.Int64()
			if err != nil {
				return core.PropertyValue{}, fmt.Errorf("array element %d is not an integer", i)
			}
			ints = append(ints, n)
		}
		return core.IntArrayValue(ints), nil
	case map[string]any:
		embedded := make([]*core.CimInstanceValue, 0, len(items))
		for i, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return core.PropertyValue{}, fmt.Errorf("array element %d is not an object", i)
			}
			ci, err := decodeEmbedded(m)
			if err != nil {
				return core.PropertyValue{}, fmt.Errorf("array element %d: %w", i, err)
			}
			embedded = append(embedded, ci)
		}
		return core.CimArrayValue(embedded), nil
	case string:
		strs := make([]string, 0, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return core.PropertyValue{}, fmt.Errorf("array element %d is not a string", i)
			}
			strs = append(strs, s)
		}
		return core.StringArrayValue(strs), nil
	}
	return core.PropertyValue{}, fmt.Errorf("unsupported array element %T", items[0])
}

func decodeEmbedded(m map[string]any) (*core.CimInstanceValue, error) {
	typeName, _ := m["CIMInstance"].(string)
	if typeName == "" {
		return nil, fmt.Errorf(`embedded instance needs a "CIMInstance" type name`)
	}

	props := core.NewPropertyMap()
	for _, key := range sortedKeys(m) {
		if key == "CIMInstance" {
			continue
		}
		v, err := decodeValue(m[key])
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", key, err)
		}
		props.Set(key, v)
	}
	return &core.CimInstanceValue{TypeName: typeName, Properties: props}, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
