// Package annotate attaches source comments to the resource properties they
// trail, as shadow metadata entries on augmented instance copies. The pass
// is a token-stream heuristic: it never fails, and comments it cannot place
// are dropped.
package annotate

import (
	"strings"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/syntax"
)

// MetadataPrefix keys the shadow entries added for attached comments. A
// comment on property P becomes a string entry named MetadataPrefix + P.
const MetadataPrefix = "_metadata_"

// Annotate returns augmented copies of instances carrying comment metadata
// from the token stream. For each comment token the scan backtracks to the
// nearest preceding resource keyword (identifying the instance) and the
// nearest preceding identifier (identifying the property). A comment whose
// identifier is not a property of that instance is treated as standalone
// and dropped. Repeated comments on one property overwrite each other;
// property comments are singular in practice. The input instances are
// never mutated.
func Annotate(tokens []syntax.Token, instances []core.ResourceInstance) []core.ResourceInstance {
	if len(tokens) == 0 || len(instances) == 0 {
		return instances
	}

	out := make([]core.ResourceInstance, len(instances))
	copy(out, instances)
	cloned := make(map[int]bool)

	index := make(map[string]int, len(out))
	for i, inst := range out {
		key := instanceKey(inst.ResourceName, inst.InstanceName)
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	for i := scanStart(tokens); i < len(tokens); i++ {
		if tokens[i].Kind != syntax.TokenComment {
			continue
		}
		resource, instance, ok := owningInstance(tokens, i)
		if !ok {
			continue
		}
		propName, ok := precedingIdentifier(tokens, i)
		if !ok {
			continue
		}
		idx, ok := index[instanceKey(resource, instance)]
		if !ok {
			continue
		}
		if !out[idx].Properties.Has(propName) {
			continue
		}
		if !cloned[idx] {
			out[idx].Properties = out[idx].Properties.Clone()
			cloned[idx] = true
		}
		out[idx].Properties.Set(MetadataPrefix+propName, core.StringValue(tokens[i].Text))
	}
	return out
}

// scanStart returns the index just past the first node-statement keyword.
// Node-less documents scan from the beginning.
func scanStart(tokens []syntax.Token) int {
	for i, t := range tokens {
		if t.Kind == syntax.TokenIdentifier && strings.EqualFold(t.Text, "Node") {
			return i + 1
		}
	}
	return 0
}

// owningInstance backtracks from the comment to the nearest resource
// keyword and reads the instance name following it.
func owningInstance(tokens []syntax.Token, from int) (resource, instance string, ok bool) {
	for i := from - 1; i >= 0; i-- {
		if tokens[i].Kind != syntax.TokenDynamicKeyword {
			continue
		}
		return tokens[i].Text, instanceNameAfter(tokens, i), true
	}
	return "", "", false
}

// instanceNameAfter reads the optional instance-name token following a
// resource keyword. Embedded instances have none and yield the empty name.
func instanceNameAfter(tokens []syntax.Token, kw int) string {
	for i := kw + 1; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case syntax.TokenComment, syntax.TokenNewline:
			continue
		case syntax.TokenString:
			return unquote(tokens[i].Text)
		case syntax.TokenIdentifier, syntax.TokenVariable, syntax.TokenNumber:
			return tokens[i].Text
		}
		return ""
	}
	return ""
}

// precedingIdentifier returns the nearest identifier before the comment,
// normally the property name sharing its line.
func precedingIdentifier(tokens []syntax.Token, from int) (string, bool) {
	for i := from - 1; i >= 0; i-- {
		if tokens[i].Kind == syntax.TokenIdentifier {
			return tokens[i].Text, true
		}
	}
	return "", false
}

// unquote strips one layer of matching quotes from an instance-name token
// and collapses the doubled-quote and backtick escapes for the quote
// character itself.
func unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	q := text[0]
	if (q != '"' && q != '\'') || text[len(text)-1] != q {
		return text
	}
	body := text[1 : len(text)-1]
	body = strings.ReplaceAll(body, string([]byte{q, q}), string(q))
	if q == '"' {
		body = strings.ReplaceAll(body, "`\"", "\"")
	}
	return body
}

func instanceKey(resource, instance string) string {
	return strings.ToLower(resource) + "|" + instance
}
