package syntax

import "fmt"

// TokenKind represents the type of a lexical token.
type TokenKind int

const (
	// Special tokens
	TokenEOF TokenKind = iota
	TokenError
	TokenNewline

	// Literals and words
	TokenIdentifier
	TokenDynamicKeyword // resource keyword in statement position, tagged after the parse
	TokenString
	TokenNumber
	TokenVariable  // $name
	TokenParameter // -Name
	TokenComment   // # line or <# block #>

	// Punctuation
	TokenLBrace   // {
	TokenRBrace   // }
	TokenLParen   // (
	TokenRParen   // )
	TokenAtParen  // @(
	TokenAtBrace  // @{
	TokenLBracket // [
	TokenRBracket // ]
	TokenEquals   // =
	TokenComma    // ,
	TokenSemi     // ;
	TokenDot      // .

	// TokenOther is any character outside the grammar above. It only ever
	// survives inside verbatim passthrough spans.
	TokenOther
)

var tokenKindNames = map[TokenKind]string{
	TokenEOF:            "EOF",
	TokenError:          "Error",
	TokenNewline:        "Newline",
	TokenIdentifier:     "Identifier",
	TokenDynamicKeyword: "DynamicKeyword",
	TokenString:         "String",
	TokenNumber:         "Number",
	TokenVariable:       "Variable",
	TokenParameter:      "Parameter",
	TokenComment:        "Comment",
	TokenLBrace:         "{",
	TokenRBrace:         "}",
	TokenLParen:         "(",
	TokenRParen:         ")",
	TokenAtParen:        "@(",
	TokenAtBrace:        "@{",
	TokenLBracket:       "[",
	TokenRBracket:       "]",
	TokenEquals:         "=",
	TokenComma:          ",",
	TokenSemi:           ";",
	TokenDot:            ".",
	TokenOther:          "Other",
}

func (k TokenKind) String() string {
	if name, ok := tokenKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", int(k))
}

// Token is one lexical token. Text is the verbatim source slice, quotes and
// comment markers included.
type Token struct {
	Kind   TokenKind
	Text   string
	Line   int // 1-based
	Column int // 1-based
	Offset int // byte offset, 0-based
}

func (t Token) String() string {
	if t.Text != "" {
		return fmt.Sprintf("%s(%q) at %d:%d", t.Kind, t.Text, t.Line, t.Column)
	}
	return fmt.Sprintf("%s at %d:%d", t.Kind, t.Line, t.Column)
}
