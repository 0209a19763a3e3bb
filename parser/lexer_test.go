package parser

import (
	"testing"

	"github.com/FabienTschanz/DSCParser/syntax"
)

func kinds(toks []syntax.Token) []syntax.TokenKind {
	out := make([]syntax.TokenKind, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Kind)
	}
	return out
}

func TestLex_TokenKinds(t *testing.T) {
	src := `File "a" { Ensure = "Present" }`
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	want := []syntax.TokenKind{
		syntax.TokenIdentifier, syntax.TokenString, syntax.TokenLBrace,
		syntax.TokenIdentifier, syntax.TokenEquals, syntax.TokenString,
		syntax.TokenRBrace, syntax.TokenEOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d: %v", len(got), len(want), toks)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLex_Positions(t *testing.T) {
	src := "File \"a\"\n{\n}"
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	checks := []struct {
		idx       int
		line, col int
		text      string
	}{
		{0, 1, 1, "File"},
		{1, 1, 6, `"a"`},
		{2, 1, 9, "\n"},
		{3, 2, 1, "{"},
	}
	for _, c := range checks {
		tok := toks[c.idx]
		if tok.Line != c.line || tok.Column != c.col || tok.Text != c.text {
			t.Errorf("token[%d] = %q at %d:%d, want %q at %d:%d",
				c.idx, tok.Text, tok.Line, tok.Column, c.text, c.line, c.col)
		}
	}
}

func TestLex_Comments(t *testing.T) {
	src := "Ensure = \"Present\" # trailing note\n<# block\ncomment #>\n"
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	var comments []string
	for _, tok := range toks {
		if tok.Kind == syntax.TokenComment {
			comments = append(comments, tok.Text)
		}
	}
	if len(comments) != 2 {
		t.Fatalf("comment count = %d, want 2: %v", len(comments), comments)
	}
	if comments[0] != "# trailing note" {
		t.Errorf("line comment = %q, want verbatim text with marker", comments[0])
	}
	if comments[1] != "<# block\ncomment #>" {
		t.Errorf("block comment = %q, want verbatim text with markers", comments[1])
	}
}

func TestLex_LineContinuation(t *testing.T) {
	src := "Import-DscResource `\n    -ModuleName X"
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	for _, tok := range toks {
		if tok.Kind == syntax.TokenNewline {
			t.Fatalf("continuation should swallow the newline, got %v", tok)
		}
	}
	if toks[0].Text != "Import-DscResource" || toks[1].Text != "-ModuleName" {
		t.Errorf("unexpected tokens: %v", toks)
	}
}

func TestLex_UnterminatedString(t *testing.T) {
	if _, err := Lex("Ensure = \"oops\n"); err == nil {
		t.Fatal("unterminated string should fail the scan")
	}
	if _, err := Lex("<# never closed"); err == nil {
		t.Fatal("unterminated block comment should fail the scan")
	}
}

func TestLex_VariablesAndParameters(t *testing.T) {
	src := "$true $Node:ok -ModuleVersion -5 ${braced name}"
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	want := []struct {
		kind syntax.TokenKind
		text string
	}{
		{syntax.TokenVariable, "$true"},
		{syntax.TokenVariable, "$Node:ok"},
		{syntax.TokenParameter, "-ModuleVersion"},
		{syntax.TokenNumber, "-5"},
		{syntax.TokenVariable, "${braced name}"},
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Text != w.text {
			t.Errorf("token[%d] = %v %q, want %v %q", i, toks[i].Kind, toks[i].Text, w.kind, w.text)
		}
	}
}

func TestDecodeStringToken(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		single bool
	}{
		{"plain_double", `"abc"`, "abc", false},
		{"backtick_quote", "\"a`\"b\"", `a"b`, false},
		{"backtick_newline", "\"a`nb\"", "a\nb", false},
		{"doubled_quote", `"say ""hi"""`, `say "hi"`, false},
		{"single", `'it''s'`, "it's", true},
		{"single_no_backtick_escapes", "'a`nb'", "a`nb", true},
		{"here_double", "@\"\nline1\nline2\n\"@", "line1\nline2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, single := decodeStringToken(tt.raw)
			if got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
			if single != tt.single {
				t.Errorf("singleQuoted = %v, want %v", single, tt.single)
			}
		})
	}
}

func TestDecodeNumber(t *testing.T) {
	tests := []struct {
		text  string
		value int64
		isInt bool
	}{
		{"42", 42, true},
		{"-7", -7, true},
		{"0x1A", 26, true},
		{"4KB", 4096, true},
		{"2mb", 2 << 20, true},
		{"1.5", 0, false},
		{"1.2.3", 0, false},
		{"9999999999999999999999", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v, ok := decodeNumber(tt.text)
			if ok != tt.isInt {
				t.Fatalf("isInt = %v, want %v", ok, tt.isInt)
			}
			if ok && v != tt.value {
				t.Errorf("value = %d, want %d", v, tt.value)
			}
		})
	}
}
