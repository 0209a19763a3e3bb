// Package dscparser converts Desired State Configuration documents into
// typed, ordered resource trees and serializes such trees back into
// configuration text the original host accepts.
//
// Interpretation is schema-driven: each property's raw syntax node is
// coerced according to the declared type reported by a schema provider.
// Problems that do not invalidate the document as a whole never fail the
// conversion; they accumulate as diagnostics on the Result.
package dscparser

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/internal/annotate"
	"github.com/FabienTschanz/DSCParser/internal/builder"
	"github.com/FabienTschanz/DSCParser/internal/writer"
	"github.com/FabienTschanz/DSCParser/parser"
	"github.com/FabienTschanz/DSCParser/providers"
	"github.com/FabienTschanz/DSCParser/syntax"
)

// Options control one conversion call.
type Options struct {
	// Schemas resolves resource type names to property schemas. Without a
	// provider every resource degrades to raw text in lenient mode.
	Schemas providers.SchemaProvider

	// Syntax overrides the native syntax provider.
	Syntax syntax.Provider

	// IncludeComments attaches source comments to their owning instances
	// as _metadata_ shadow entries.
	IncludeComments bool

	// IncludeCIMInstanceInfo adds a CIMInstance shadow entry holding each
	// embedded instance's type name.
	IncludeCIMInstanceInfo bool

	// Strict fails the conversion on the first resource type without a
	// resolvable schema instead of degrading its properties to raw text.
	Strict bool

	// VersionRangePolicy treats pinned import versions as semver
	// constraints. The default is exact version equality.
	VersionRangePolicy bool

	// OnProgress, when set, is called after each interpreted instance.
	OnProgress func(done, total int)
}

// Result carries the ordered instances plus every diagnostic accumulated
// during interpretation.
type Result struct {
	Instances   []core.ResourceInstance
	Diagnostics core.Diagnostics
}

// ConvertToResourceTree interprets one configuration document. source is
// either a path to a document on disk or the document text itself; inline
// text wins when no such file exists. The context is honored between
// phases.
func ConvertToResourceTree(ctx context.Context, source string, opts Options) (*Result, error) {
	text, err := readSource(source)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, core.NewStructuralError(core.ErrEmptySource, 0, 0)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	syn := opts.Syntax
	if syn == nil {
		syn = parser.New()
	}
	tree, tokens, err := syn.Parse(text)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	instances, diags, err := builder.New(builder.Config{
		Schemas:                opts.Schemas,
		Strict:                 opts.Strict,
		IncludeCIMInstanceInfo: opts.IncludeCIMInstanceInfo,
		VersionRangePolicy:     opts.VersionRangePolicy,
		OnProgress:             opts.OnProgress,
	}).Build(tree)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.IncludeComments {
		instances = annotate.Annotate(tokens, instances)
	}
	return &Result{Instances: instances, Diagnostics: diags}, nil
}

// ConvertFromResourceTree serializes instances back into configuration
// text starting at the given indent level.
func ConvertFromResourceTree(instances []core.ResourceInstance, indentLevel int) (string, error) {
	return writer.Serialize(instances, indentLevel)
}

// readSource resolves the path-or-text convention. Document text always
// contains braces or newlines; paths never do.
func readSource(source string) (string, error) {
	if strings.ContainsAny(source, "\n{}") {
		return source, nil
	}
	info, err := os.Stat(source)
	if err != nil || info.IsDir() {
		return source, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", source, err)
	}
	return string(data), nil
}
