// Package syntax defines the generic configuration AST consumed by the
// resource tree builder, the flat token stream consumed by the metadata
// annotator, and the Provider contract a syntax implementation fulfills.
//
// The node set is closed: interpretation dispatches over it exhaustively,
// so an unexpected shape is a handled case instead of a silent mismatch.
package syntax

import "fmt"

// Position is a location in the configuration source.
type Position struct {
	Line   int // 1-based
	Column int // 1-based
	Offset int // byte offset, 0-based
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// NodeInfo carries the source span shared by every node. Source holds the
// node's verbatim text so unresolvable expressions can pass through.
type NodeInfo struct {
	Start  Position
	Source string
}

// Pos returns the node's starting position.
func (n NodeInfo) Pos() Position { return n.Start }

// Text returns the node's verbatim source text.
func (n NodeInfo) Text() string { return n.Source }

func (NodeInfo) isNode() {}

// Node is the interface all syntax nodes implement.
type Node interface {
	Pos() Position
	Text() string
	isNode()
}

// ScriptBlock is the root of a parsed document.
type ScriptBlock struct {
	NodeInfo
	Statements []Node
}

// ConfigurationDefinition is the top-level named configuration construct:
// `Configuration <Name> { ... }`.
type ConfigurationDefinition struct {
	NodeInfo
	Name string
	Body []Node
}

// NodeStatement is a target block inside a configuration:
// `Node <target> { ... }`. Target keeps the raw text of the target
// expression (a bare word, a quoted name, or a variable expression).
type NodeStatement struct {
	NodeInfo
	Target string
	Body   []Node
}

// DynamicKeywordStatement is a resource or embedded-instance declaration:
// `<Keyword> ["InstanceName"] { key = value; ... }`. Embedded instances
// carry no instance name.
type DynamicKeywordStatement struct {
	NodeInfo
	Keyword         string
	KeywordPos      Position
	InstanceName    string
	HasInstanceName bool
	Body            *Hashtable
}

// CommandStatement is a statement-position command invocation such as
// `Import-DscResource -ModuleName X -ModuleVersion 1.2.3`.
type CommandStatement struct {
	NodeInfo
	Name string
	Args []CommandArg
}

// CommandArg is one argument of a CommandStatement: either a `-Parameter`
// with an optional value, or a bare positional value.
type CommandArg struct {
	Parameter string // without the leading dash; empty for positional args
	Value     Node   // nil for switch parameters
}

// Hashtable is an ordered key/expression pair list, the body of resource
// and embedded-instance declarations.
type Hashtable struct {
	NodeInfo
	Entries []HashEntry
}

// HashEntry is one `key = value` binding.
type HashEntry struct {
	Key    string
	KeyPos Position
	Value  Node
}

// ArrayLiteral is `@(...)` or a bare comma-separated element list.
type ArrayLiteral struct {
	NodeInfo
	Elements []Node
}

// StringConstant is a quoted string with escapes already decoded.
type StringConstant struct {
	NodeInfo
	Value        string
	SingleQuoted bool
}

// NumberConstant is a numeric literal. IsInt reports whether the literal is
// an exact integer; non-integer numerics keep only their source text.
type NumberConstant struct {
	NodeInfo
	IsInt    bool
	IntValue int64
}

// VariableReference is `$Name`. Name excludes the dollar sign; Text keeps it.
type VariableReference struct {
	NodeInfo
	Name string
}

// MemberAccess is a dotted chain rooted at a variable, such as
// `$ConfigurationData.NonNodeData.Path`.
type MemberAccess struct {
	NodeInfo
	Path []string
}

// CommandExpression is an expression-position command invocation, such as a
// `New-Object ...` constructor call. It always passes through verbatim.
type CommandExpression struct {
	NodeInfo
	Name string
}

// Pipeline wraps one or more expression elements. Single-element pipelines
// are unwrapped during interpretation.
type Pipeline struct {
	NodeInfo
	Elements []Node
}

// Provider parses configuration source into the generic AST plus the flat
// token stream. Implementations must tag resource-declaration keywords in
// the token stream as TokenDynamicKeyword so the comment-metadata pass can
// key off them.
type Provider interface {
	// Name identifies the provider.
	Name() string

	// Parse builds the tree and token stream for one document. A failure
	// to recover any structure at all is a *core.StructuralError.
	Parse(source string) (*ScriptBlock, []Token, error)
}
