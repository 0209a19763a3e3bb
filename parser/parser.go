package parser

import (
	"strings"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/syntax"
)

// Provider is the native syntax provider for the configuration subset.
type Provider struct{}

var _ syntax.Provider = (*Provider)(nil)

// New returns the native provider.
func New() *Provider { return &Provider{} }

// Name identifies the provider.
func (*Provider) Name() string { return "native" }

// Parse tokenizes and builds the generic tree for one document. Resource
// keywords are tagged TokenDynamicKeyword in the returned stream; pinned
// module-version argument tokens are suppressed from it.
func (*Provider) Parse(source string) (*syntax.ScriptBlock, []syntax.Token, error) {
	toks, err := Lex(source)
	if err != nil {
		return nil, nil, err
	}
	b := &builder{src: source, toks: toks, excluded: make(map[int]bool)}
	tree, err := b.parseDocument()
	if err != nil {
		return nil, nil, err
	}
	return tree, b.tokensOut(), nil
}

// scriptKeywords are statement-position words that open host script
// constructs rather than resource declarations. Their statements are
// consumed opaquely.
var scriptKeywords = map[string]bool{
	"param": true, "function": true, "if": true, "elseif": true, "else": true,
	"foreach": true, "for": true, "while": true, "do": true, "switch": true,
	"try": true, "catch": true, "finally": true, "return": true, "throw": true,
	"begin": true, "process": true, "end": true, "class": true, "enum": true,
	"using": true, "break": true, "continue": true,
}

type builder struct {
	src      string
	toks     []syntax.Token
	pos      int
	excluded map[int]bool // token indices suppressed from the returned stream
}

func (b *builder) skipComments() {
	for b.pos < len(b.toks) && b.toks[b.pos].Kind == syntax.TokenComment {
		b.pos++
	}
}

// cur returns the current significant token. Comments are never structural.
func (b *builder) cur() syntax.Token {
	b.skipComments()
	if b.pos >= len(b.toks) {
		return syntax.Token{Kind: syntax.TokenEOF, Offset: len(b.src)}
	}
	return b.toks[b.pos]
}

func (b *builder) curIdx() int {
	b.skipComments()
	return b.pos
}

func (b *builder) bump() syntax.Token {
	t := b.cur()
	if b.pos < len(b.toks) && b.toks[b.pos].Kind != syntax.TokenEOF {
		b.pos++
	}
	return t
}

// peekSig returns the n-th significant token from the cursor (0 = current),
// optionally looking through newlines.
func (b *builder) peekSig(n int, skipNewlines bool) syntax.Token {
	count := 0
	for i := b.pos; i < len(b.toks); i++ {
		t := b.toks[i]
		if t.Kind == syntax.TokenComment {
			continue
		}
		if skipNewlines && t.Kind == syntax.TokenNewline {
			continue
		}
		if count == n {
			return t
		}
		count++
	}
	return syntax.Token{Kind: syntax.TokenEOF, Offset: len(b.src)}
}

func (b *builder) skipSeparators() {
	for {
		switch b.cur().Kind {
		case syntax.TokenNewline, syntax.TokenSemi:
			b.bump()
		default:
			return
		}
	}
}

func (b *builder) errAt(t syntax.Token, msg string) error {
	return &core.StructuralError{Message: msg, Line: t.Line, Column: t.Column}
}

func posOf(t syntax.Token) syntax.Position {
	return syntax.Position{Line: t.Line, Column: t.Column, Offset: t.Offset}
}

func endOf(t syntax.Token) int { return t.Offset + len(t.Text) }

func endOffsetOf(n syntax.Node) int { return n.Pos().Offset + len(n.Text()) }

func (b *builder) tokInfo(t syntax.Token) syntax.NodeInfo {
	return syntax.NodeInfo{Start: posOf(t), Source: t.Text}
}

func (b *builder) spanTo(start syntax.Token, endOffset int) syntax.NodeInfo {
	return syntax.NodeInfo{Start: posOf(start), Source: b.src[start.Offset:endOffset]}
}

func (b *builder) span(start, end syntax.Token) syntax.NodeInfo {
	return b.spanTo(start, endOf(end))
}

func (b *builder) tokensOut() []syntax.Token {
	if len(b.excluded) == 0 {
		return b.toks
	}
	out := make([]syntax.Token, 0, len(b.toks))
	for i, t := range b.toks {
		if b.excluded[i] {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (b *builder) parseDocument() (*syntax.ScriptBlock, error) {
	root := &syntax.ScriptBlock{NodeInfo: syntax.NodeInfo{
		Start:  syntax.Position{Line: 1, Column: 1},
		Source: b.src,
	}}
	for {
		b.skipSeparators()
		if b.cur().Kind == syntax.TokenEOF {
			break
		}
		stmt, err := b.parseStatement()
		if err != nil {
			return nil, err
		}
		root.Statements = append(root.Statements, stmt)
	}
	return root, nil
}

func (b *builder) parseStatement() (syntax.Node, error) {
	t := b.cur()
	if t.Kind != syntax.TokenIdentifier {
		return b.parseOpaqueStatement()
	}
	switch {
	case strings.EqualFold(t.Text, "Configuration"):
		return b.parseConfiguration()
	case strings.EqualFold(t.Text, "Node"):
		return b.parseNodeStatement()
	case scriptKeywords[strings.ToLower(t.Text)]:
		return b.parseOpaqueStatement()
	}
	// Resource declaration shape: Keyword ["Name"] { ... }, brace possibly
	// on the next line.
	n1 := b.peekSig(1, true)
	if n1.Kind == syntax.TokenLBrace {
		return b.parseDynamicKeyword(false)
	}
	if isInstanceNameToken(n1.Kind) && b.peekSig(2, true).Kind == syntax.TokenLBrace {
		return b.parseDynamicKeyword(true)
	}
	return b.parseCommandStatement()
}

func isInstanceNameToken(k syntax.TokenKind) bool {
	switch k {
	case syntax.TokenString, syntax.TokenIdentifier, syntax.TokenVariable, syntax.TokenNumber:
		return true
	}
	return false
}

func (b *builder) parseConfiguration() (syntax.Node, error) {
	kw := b.bump()
	nameTok := b.cur()
	var name string
	switch nameTok.Kind {
	case syntax.TokenIdentifier:
		name = nameTok.Text
		b.bump()
	case syntax.TokenString:
		name, _ = decodeStringToken(nameTok.Text)
		b.bump()
	default:
		return nil, b.errAt(nameTok, "expected configuration name")
	}
	b.skipSeparators()
	if b.cur().Kind != syntax.TokenLBrace {
		return nil, b.errAt(b.cur(), "expected '{' to open configuration body")
	}
	open := b.bump()
	body, closeTok, err := b.parseStatementsUntilBrace(open)
	if err != nil {
		return nil, err
	}
	return &syntax.ConfigurationDefinition{
		NodeInfo: b.span(kw, closeTok),
		Name:     name,
		Body:     body,
	}, nil
}

func (b *builder) parseNodeStatement() (syntax.Node, error) {
	kw := b.bump()
	var first syntax.Token
	got := false
	lastEnd := endOf(kw)
	for {
		t := b.cur()
		if t.Kind == syntax.TokenLBrace || t.Kind == syntax.TokenEOF {
			break
		}
		if t.Kind == syntax.TokenNewline || t.Kind == syntax.TokenSemi {
			b.bump()
			continue
		}
		if !got {
			first = t
			got = true
		}
		lastEnd = endOf(t)
		b.bump()
	}
	if b.cur().Kind != syntax.TokenLBrace {
		return nil, b.errAt(b.cur(), "expected '{' to open node body")
	}
	open := b.bump()
	body, closeTok, err := b.parseStatementsUntilBrace(open)
	if err != nil {
		return nil, err
	}
	target := ""
	if got {
		target = strings.TrimSpace(b.src[first.Offset:lastEnd])
	}
	return &syntax.NodeStatement{
		NodeInfo: b.span(kw, closeTok),
		Target:   target,
		Body:     body,
	}, nil
}

func (b *builder) parseStatementsUntilBrace(open syntax.Token) ([]syntax.Node, syntax.Token, error) {
	var stmts []syntax.Node
	for {
		b.skipSeparators()
		t := b.cur()
		if t.Kind == syntax.TokenRBrace {
			return stmts, b.bump(), nil
		}
		if t.Kind == syntax.TokenEOF {
			return nil, t, b.errAt(open, "unbalanced '{'")
		}
		s, err := b.parseStatement()
		if err != nil {
			return nil, t, err
		}
		stmts = append(stmts, s)
	}
}

// parseDynamicKeyword builds a resource or embedded-instance declaration.
// The caller has already established the shape by lookahead.
func (b *builder) parseDynamicKeyword(expectName bool) (syntax.Node, error) {
	kwIdx := b.curIdx()
	kw := b.bump()
	b.toks[kwIdx].Kind = syntax.TokenDynamicKeyword

	inst := ""
	if expectName {
		b.skipSeparators()
		nt := b.bump()
		if nt.Kind == syntax.TokenString {
			inst, _ = decodeStringToken(nt.Text)
		} else {
			inst = nt.Text
		}
	}
	b.skipSeparators()
	if b.cur().Kind != syntax.TokenLBrace {
		return nil, b.errAt(b.cur(), "expected '{' to open resource body")
	}
	ht, err := b.parseHashtableBody()
	if err != nil {
		return nil, err
	}
	return &syntax.DynamicKeywordStatement{
		NodeInfo:        b.spanTo(kw, endOffsetOf(ht)),
		Keyword:         kw.Text,
		KeywordPos:      posOf(kw),
		InstanceName:    inst,
		HasInstanceName: expectName,
		Body:            ht,
	}, nil
}

// parseHashtableBody parses `{ key = value ... }` or `@{ key = value ... }`
// with entries separated by newlines or semicolons. The cursor sits on the
// opening token.
func (b *builder) parseHashtableBody() (*syntax.Hashtable, error) {
	open := b.bump()
	ht := &syntax.Hashtable{}
	for {
		b.skipSeparators()
		t := b.cur()
		switch t.Kind {
		case syntax.TokenRBrace:
			closeTok := b.bump()
			ht.NodeInfo = b.span(open, closeTok)
			return ht, nil
		case syntax.TokenEOF:
			return nil, b.errAt(open, "unbalanced '{' in resource body")
		}

		var key string
		switch t.Kind {
		case syntax.TokenIdentifier:
			key = t.Text
		case syntax.TokenString:
			key, _ = decodeStringToken(t.Text)
		default:
			return nil, b.errAt(t, "expected property name")
		}
		keyTok := b.bump()
		if b.cur().Kind != syntax.TokenEquals {
			return nil, b.errAt(b.cur(), "expected '=' after property name")
		}
		b.bump()

		val, err := b.parseValue(false, false)
		if err != nil {
			return nil, err
		}
		ht.Entries = append(ht.Entries, syntax.HashEntry{Key: key, KeyPos: posOf(keyTok), Value: val})

		switch b.cur().Kind {
		case syntax.TokenNewline, syntax.TokenSemi, syntax.TokenRBrace, syntax.TokenEOF:
		default:
			return nil, b.errAt(b.cur(), "expected newline or ';' after property value")
		}
	}
}

// parseValue parses one property or argument value. inArray suppresses the
// bare comma-array collection (the caller owns element separation); cmdArg
// additionally ends values at the next -Parameter.
func (b *builder) parseValue(inArray, cmdArg bool) (syntax.Node, error) {
	t := b.cur()
	startIdx := b.curIdx()

	var prim syntax.Node
	var err error
	raw := false
	switch t.Kind {
	case syntax.TokenString:
		v, single := decodeStringToken(t.Text)
		b.bump()
		prim = &syntax.StringConstant{NodeInfo: b.tokInfo(t), Value: v, SingleQuoted: single}
	case syntax.TokenNumber:
		n, ok := decodeNumber(t.Text)
		b.bump()
		prim = &syntax.NumberConstant{NodeInfo: b.tokInfo(t), IsInt: ok, IntValue: n}
	case syntax.TokenVariable:
		prim = b.parseVariableChain()
	case syntax.TokenAtParen:
		prim, err = b.parseArrayLiteral()
	case syntax.TokenAtBrace:
		prim, err = b.parseHashtableBody()
	case syntax.TokenIdentifier:
		if !scriptKeywords[strings.ToLower(t.Text)] && b.peekSig(1, true).Kind == syntax.TokenLBrace {
			prim, err = b.parseDynamicKeyword(false)
		} else {
			prim, err = b.rawSpan(true, cmdArg)
			raw = true
		}
	case syntax.TokenLBrace, syntax.TokenLParen, syntax.TokenLBracket,
		syntax.TokenParameter, syntax.TokenDot, syntax.TokenOther, syntax.TokenError:
		prim, err = b.rawSpan(true, cmdArg)
		raw = true
	default:
		return nil, b.errAt(t, "expected a value")
	}
	if err != nil {
		return nil, err
	}

	// An expression that keeps going past the recognized shape is
	// unresolvable; fall back to the verbatim span.
	if !raw && !b.atValueEnd(cmdArg) {
		b.pos = startIdx
		prim, err = b.rawSpan(true, cmdArg)
		if err != nil {
			return nil, err
		}
	}

	// Bare comma-separated list: "a", "b" without the @() wrapper.
	if b.cur().Kind == syntax.TokenComma && !inArray {
		elems := []syntax.Node{prim}
		start := prim.Pos()
		for b.cur().Kind == syntax.TokenComma {
			b.bump()
			b.skipSeparators()
			el, err := b.parseValue(true, cmdArg)
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
		}
		end := endOffsetOf(elems[len(elems)-1])
		return &syntax.ArrayLiteral{
			NodeInfo: syntax.NodeInfo{Start: start, Source: b.src[start.Offset:end]},
			Elements: elems,
		}, nil
	}
	return prim, nil
}

func (b *builder) atValueEnd(cmdArg bool) bool {
	switch b.cur().Kind {
	case syntax.TokenNewline, syntax.TokenSemi, syntax.TokenRBrace,
		syntax.TokenRParen, syntax.TokenComma, syntax.TokenEOF:
		return true
	case syntax.TokenParameter:
		return cmdArg
	}
	return false
}

func (b *builder) parseVariableChain() syntax.Node {
	vt := b.bump()
	name := strings.TrimPrefix(vt.Text, "$")
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		name = name[1 : len(name)-1]
	}
	if b.cur().Kind != syntax.TokenDot {
		return &syntax.VariableReference{NodeInfo: b.tokInfo(vt), Name: name}
	}
	path := []string{vt.Text}
	last := vt
	for b.cur().Kind == syntax.TokenDot && b.peekSig(1, false).Kind == syntax.TokenIdentifier {
		b.bump()
		last = b.bump()
		path = append(path, last.Text)
	}
	return &syntax.MemberAccess{NodeInfo: b.span(vt, last), Path: path}
}

func (b *builder) parseArrayLiteral() (syntax.Node, error) {
	open := b.bump()
	var elems []syntax.Node
	for {
		b.skipSeparators()
		t := b.cur()
		if t.Kind == syntax.TokenRParen {
			closeTok := b.bump()
			return &syntax.ArrayLiteral{NodeInfo: b.span(open, closeTok), Elements: elems}, nil
		}
		if t.Kind == syntax.TokenEOF {
			return nil, b.errAt(open, "unbalanced '@('")
		}
		el, err := b.parseValue(true, false)
		if err != nil {
			return nil, err
		}
		elems = append(elems, el)
		if b.cur().Kind == syntax.TokenComma {
			b.bump()
		}
	}
}

// rawSpan consumes one verbatim expression span: everything up to the next
// separator at bracket depth zero. At least one token is always consumed.
func (b *builder) rawSpan(stopComma, stopParam bool) (syntax.Node, error) {
	start := b.cur()
	lastEnd := endOf(start)
	nest := 0
	firstIter := true
	for {
		t := b.cur()
		if t.Kind == syntax.TokenEOF {
			break
		}
		if !firstIter {
			stop := false
			switch t.Kind {
			case syntax.TokenNewline, syntax.TokenSemi:
				stop = nest == 0
			case syntax.TokenComma:
				stop = nest == 0 && stopComma
			case syntax.TokenParameter:
				stop = nest == 0 && stopParam
			case syntax.TokenRBrace, syntax.TokenRParen, syntax.TokenRBracket:
				stop = nest == 0
			}
			if stop {
				break
			}
		}
		switch t.Kind {
		case syntax.TokenLBrace, syntax.TokenLParen, syntax.TokenAtParen,
			syntax.TokenAtBrace, syntax.TokenLBracket:
			nest++
		case syntax.TokenRBrace, syntax.TokenRParen, syntax.TokenRBracket:
			nest--
		}
		if t.Kind != syntax.TokenNewline {
			lastEnd = endOf(t)
		}
		b.bump()
		firstIter = false
	}
	return &syntax.CommandExpression{
		NodeInfo: b.spanTo(start, lastEnd),
		Name:     start.Text,
	}, nil
}

func (b *builder) parseCommandStatement() (syntax.Node, error) {
	nameTok := b.bump()
	var args []syntax.CommandArg
	lastEnd := endOf(nameTok)
	importStmt := strings.EqualFold(nameTok.Text, "Import-DscResource")
	for {
		t := b.cur()
		switch t.Kind {
		case syntax.TokenNewline, syntax.TokenSemi, syntax.TokenRBrace, syntax.TokenEOF:
			return &syntax.CommandStatement{
				NodeInfo: b.spanTo(nameTok, lastEnd),
				Name:     nameTok.Text,
				Args:     args,
			}, nil
		case syntax.TokenParameter:
			paramIdx := b.curIdx()
			b.bump()
			arg := syntax.CommandArg{Parameter: strings.TrimPrefix(t.Text, "-")}
			lastEnd = endOf(t)
			next := b.cur()
			if next.Kind != syntax.TokenParameter && !b.atStatementEnd() {
				v, err := b.parseValue(false, true)
				if err != nil {
					return nil, err
				}
				arg.Value = v
				lastEnd = endOffsetOf(v)
			}
			args = append(args, arg)
			// A pinned module version never reaches downstream token
			// consumers; the pairs survive on the tree for the resolver.
			if importStmt && strings.EqualFold(arg.Parameter, "ModuleVersion") {
				for i := paramIdx; i < b.pos; i++ {
					b.excluded[i] = true
				}
			}
		default:
			v, err := b.parseValue(false, true)
			if err != nil {
				return nil, err
			}
			args = append(args, syntax.CommandArg{Value: v})
			lastEnd = endOffsetOf(v)
		}
	}
}

func (b *builder) atStatementEnd() bool {
	switch b.cur().Kind {
	case syntax.TokenNewline, syntax.TokenSemi, syntax.TokenRBrace, syntax.TokenEOF:
		return true
	}
	return false
}

// parseOpaqueStatement consumes one statement it does not model, keeping the
// balanced verbatim text.
func (b *builder) parseOpaqueStatement() (syntax.Node, error) {
	t := b.cur()
	span, err := b.rawSpan(false, false)
	if err != nil {
		return nil, err
	}
	ce := span.(*syntax.CommandExpression)
	return &syntax.CommandStatement{NodeInfo: ce.NodeInfo, Name: t.Text}, nil
}
