// Package parser implements the native syntax provider: a hand-written
// lexer and recursive descent builder for the configuration subset the
// resource tree builder consumes.
package parser

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FabienTschanz/DSCParser/core"
	"github.com/FabienTschanz/DSCParser/syntax"
)

const eof = rune(0)

// Lexer scans configuration source into the flat token stream. Token text
// is always the verbatim source slice; decoding of string and number
// literals happens when the builder constructs nodes.
type Lexer struct {
	src  string
	pos  int // byte offset of the next rune
	line int
	col  int

	start     int // token start offset
	startLine int
	startCol  int

	toks []syntax.Token
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Lex tokenizes the whole source. Lexical damage that prevents further
// scanning (an unterminated string, block comment, or here-string) comes
// back as a *core.StructuralError.
func Lex(src string) ([]syntax.Token, error) {
	return NewLexer(src).Run()
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos >= len(l.src) {
		return eof
	}
	_, w := utf8.DecodeRuneInString(l.src[l.pos:])
	if l.pos+w >= len(l.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.pos+w:])
	return r
}

func (l *Lexer) read() rune {
	if l.pos >= len(l.src) {
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.src[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) mark() {
	l.start = l.pos
	l.startLine = l.line
	l.startCol = l.col
}

func (l *Lexer) emit(kind syntax.TokenKind) {
	l.toks = append(l.toks, syntax.Token{
		Kind:   kind,
		Text:   l.src[l.start:l.pos],
		Line:   l.startLine,
		Column: l.startCol,
		Offset: l.start,
	})
}

func (l *Lexer) errorf(msg string) error {
	return &core.StructuralError{Message: msg, Line: l.startLine, Column: l.startCol}
}

// Run scans until end of input and appends a trailing EOF token.
func (l *Lexer) Run() ([]syntax.Token, error) {
	for {
		r := l.peek()
		if r == eof {
			break
		}
		switch {
		case r == ' ' || r == '\t' || r == '\r':
			l.read()
		case r == '`':
			if err := l.lexBacktick(); err != nil {
				return l.toks, err
			}
		case r == '\n':
			l.mark()
			l.read()
			l.emit(syntax.TokenNewline)
		case r == '#':
			l.lexLineComment()
		case r == '<' && l.peekNext() == '#':
			if err := l.lexBlockComment(); err != nil {
				return l.toks, err
			}
		case r == '"':
			if err := l.lexDoubleString(); err != nil {
				return l.toks, err
			}
		case r == '\'':
			if err := l.lexSingleString(); err != nil {
				return l.toks, err
			}
		case r == '@':
			if err := l.lexAt(); err != nil {
				return l.toks, err
			}
		case r == '$':
			l.lexVariable()
		case r == '-':
			next := l.peekNext()
			switch {
			case isDigit(next):
				l.lexNumber()
			case isIdentStart(next):
				l.lexParameter()
			default:
				l.mark()
				l.read()
				l.emit(syntax.TokenOther)
			}
		case isDigit(r):
			l.lexNumber()
		case isIdentStart(r):
			l.lexWord()
		default:
			l.lexPunct(r)
		}
	}
	l.mark()
	l.emit(syntax.TokenEOF)
	return l.toks, nil
}

// lexBacktick handles line continuations; a backtick anywhere else is kept
// as raw text for passthrough spans.
func (l *Lexer) lexBacktick() error {
	next := l.peekNext()
	if next == '\n' {
		l.read()
		l.read()
		return nil
	}
	if next == '\r' {
		l.read()
		l.read()
		if l.peek() == '\n' {
			l.read()
		}
		return nil
	}
	l.mark()
	l.read()
	l.emit(syntax.TokenOther)
	return nil
}

func (l *Lexer) lexLineComment() {
	l.mark()
	for l.peek() != eof && l.peek() != '\n' {
		l.read()
	}
	l.emit(syntax.TokenComment)
}

func (l *Lexer) lexBlockComment() error {
	l.mark()
	l.read() // <
	l.read() // #
	for {
		r := l.peek()
		if r == eof {
			return l.errorf("unterminated block comment")
		}
		if r == '#' && l.peekNext() == '>' {
			l.read()
			l.read()
			l.emit(syntax.TokenComment)
			return nil
		}
		l.read()
	}
}

func (l *Lexer) lexDoubleString() error {
	l.mark()
	l.read() // opening quote
	for {
		r := l.peek()
		switch r {
		case eof, '\n':
			return l.errorf("unterminated string")
		case '`':
			l.read()
			if l.peek() != eof {
				l.read()
			}
		case '"':
			l.read()
			if l.peek() == '"' {
				l.read() // doubled quote, stay inside
				continue
			}
			l.emit(syntax.TokenString)
			return nil
		default:
			l.read()
		}
	}
}

func (l *Lexer) lexSingleString() error {
	l.mark()
	l.read()
	for {
		r := l.peek()
		switch r {
		case eof, '\n':
			return l.errorf("unterminated string")
		case '\'':
			l.read()
			if l.peek() == '\'' {
				l.read()
				continue
			}
			l.emit(syntax.TokenString)
			return nil
		default:
			l.read()
		}
	}
}

func (l *Lexer) lexAt() error {
	switch l.peekNext() {
	case '(':
		l.mark()
		l.read()
		l.read()
		l.emit(syntax.TokenAtParen)
	case '{':
		l.mark()
		l.read()
		l.read()
		l.emit(syntax.TokenAtBrace)
	case '"', '\'':
		return l.lexHereString(l.peekNext())
	default:
		l.mark()
		l.read()
		l.emit(syntax.TokenOther)
	}
	return nil
}

// lexHereString scans @"..."@ and @'...'@ forms. The terminator must start
// a line, matching the host grammar.
func (l *Lexer) lexHereString(quote rune) error {
	l.mark()
	l.read() // @
	l.read() // quote
	atLineStart := false
	for {
		r := l.peek()
		if r == eof {
			return l.errorf("unterminated here-string")
		}
		if atLineStart && r == quote && l.peekNext() == '@' {
			l.read()
			l.read()
			l.emit(syntax.TokenString)
			return nil
		}
		atLineStart = r == '\n'
		l.read()
	}
}

func (l *Lexer) lexVariable() {
	l.mark()
	l.read() // $
	if l.peek() == '{' {
		l.read()
		for l.peek() != eof && l.peek() != '}' && l.peek() != '\n' {
			l.read()
		}
		if l.peek() == '}' {
			l.read()
		}
		l.emit(syntax.TokenVariable)
		return
	}
	for isIdentPart(l.peek()) || l.peek() == ':' {
		l.read()
	}
	l.emit(syntax.TokenVariable)
}

func (l *Lexer) lexParameter() {
	l.mark()
	l.read() // -
	for isIdentPart(l.peek()) {
		l.read()
	}
	l.emit(syntax.TokenParameter)
}

// lexNumber scans decimal, hex, dotted (1.2.3) and unit-suffixed (4KB)
// numeric text as one token. Value decoding is the builder's concern.
func (l *Lexer) lexNumber() {
	l.mark()
	if l.peek() == '-' {
		l.read()
	}
	if l.peek() == '0' && (l.peekNext() == 'x' || l.peekNext() == 'X') {
		l.read()
		l.read()
		for isHexDigit(l.peek()) {
			l.read()
		}
		l.emit(syntax.TokenNumber)
		return
	}
	for isDigit(l.peek()) {
		l.read()
	}
	for l.peek() == '.' && isDigit(l.peekNext()) {
		l.read()
		for isDigit(l.peek()) {
			l.read()
		}
	}
	for unicode.IsLetter(l.peek()) {
		l.read()
	}
	l.emit(syntax.TokenNumber)
}

// lexWord scans identifiers, including dashed command names such as
// Import-DscResource.
func (l *Lexer) lexWord() {
	l.mark()
	l.read()
	for {
		r := l.peek()
		if isIdentPart(r) {
			l.read()
			continue
		}
		if r == '-' && isIdentPart(l.peekNext()) {
			l.read()
			continue
		}
		break
	}
	l.emit(syntax.TokenIdentifier)
}

func (l *Lexer) lexPunct(r rune) {
	l.mark()
	l.read()
	switch r {
	case '{':
		l.emit(syntax.TokenLBrace)
	case '}':
		l.emit(syntax.TokenRBrace)
	case '(':
		l.emit(syntax.TokenLParen)
	case ')':
		l.emit(syntax.TokenRParen)
	case '[':
		l.emit(syntax.TokenLBracket)
	case ']':
		l.emit(syntax.TokenRBracket)
	case '=':
		l.emit(syntax.TokenEquals)
	case ',':
		l.emit(syntax.TokenComma)
	case ';':
		l.emit(syntax.TokenSemi)
	case '.':
		l.emit(syntax.TokenDot)
	default:
		l.emit(syntax.TokenOther)
	}
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }

func isIdentPart(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

// decodeDoubleQuoted resolves backtick escapes and doubled quotes in a
// double-quoted token. raw includes the surrounding quotes.
func decodeDoubleQuoted(raw string) string {
	s := raw[1 : len(raw)-1]
	if !strings.ContainsAny(s, "`\"") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, w := utf8.DecodeRuneInString(s[i:])
		i += w
		switch r {
		case '`':
			if i >= len(s) {
				b.WriteRune(r)
				break
			}
			nr, nw := utf8.DecodeRuneInString(s[i:])
			i += nw
			switch nr {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '0':
				b.WriteByte(0)
			case 'a':
				b.WriteByte('\a')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'v':
				b.WriteByte('\v')
			default:
				b.WriteRune(nr)
			}
		case '"':
			// doubled quote
			if i < len(s) && s[i] == '"' {
				i++
			}
			b.WriteByte('"')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// decodeSingleQuoted resolves doubled quotes in a single-quoted token.
func decodeSingleQuoted(raw string) string {
	s := raw[1 : len(raw)-1]
	return strings.ReplaceAll(s, "''", "'")
}

// decodeHereString strips the @"..."@ frame and its boundary newlines.
func decodeHereString(raw string) string {
	s := raw[2 : len(raw)-2]
	s = strings.TrimPrefix(s, "\r\n")
	s = strings.TrimPrefix(s, "\n")
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s
}

// decodeStringToken decodes any TokenString text by its opening characters.
func decodeStringToken(raw string) (value string, singleQuoted bool) {
	switch {
	case strings.HasPrefix(raw, `@"`), strings.HasPrefix(raw, "@'"):
		return decodeHereString(raw), strings.HasPrefix(raw, "@'")
	case strings.HasPrefix(raw, "'"):
		return decodeSingleQuoted(raw), true
	default:
		return decodeDoubleQuoted(raw), false
	}
}

// decodeNumber reports whether text is an exact integer and its value.
// Dotted version-style text (1.2.3) and floats report false.
func decodeNumber(text string) (int64, bool) {
	s := text
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	mult := int64(1)
	if len(s) > 2 {
		switch strings.ToLower(s[len(s)-2:]) {
		case "kb":
			mult = 1 << 10
		case "mb":
			mult = 1 << 20
		case "gb":
			mult = 1 << 30
		case "tb":
			mult = 1 << 40
		case "pb":
			mult = 1 << 50
		}
		if mult > 1 {
			s = s[:len(s)-2]
		}
	}
	var n int64
	var err error
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		n, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	n *= mult
	if neg {
		n = -n
	}
	return n, true
}
