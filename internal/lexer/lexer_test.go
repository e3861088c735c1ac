package lexer

import (
	"testing"

	"github.com/evolbug/kailua/internal/token"
)

func tokenTypes(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, tk := range toks {
		out[i] = tk.Type
	}
	return out
}

func TestTokenizeKeywordsAndSymbols(t *testing.T) {
	toks := New("test", "local x = 1 + 2").Tokenize()
	got := tokenTypes(toks)
	want := []token.Type{token.LOCAL, token.IDENT, token.ASSIGN, token.NUMBER, token.PLUS, token.NUMBER, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestTokenizeStringLiteral(t *testing.T) {
	toks := New("test", `"hello"`).Tokenize()
	if toks[0].Type != token.STRING || toks[0].Literal != "hello" {
		t.Errorf("expected STRING 'hello', got %s %q", toks[0].Type, toks[0].Literal)
	}
}

func TestTokenizeLongBracketString(t *testing.T) {
	toks := New("test", "[[a\nb]]").Tokenize()
	if toks[0].Type != token.STRING {
		t.Fatalf("expected STRING, got %s", toks[0].Type)
	}
	if toks[0].Lexeme != "a\nb" {
		t.Errorf("expected long-bracket contents 'a\\nb', got %q", toks[0].Lexeme)
	}
}

func TestTokenizePlainCommentIsSkipped(t *testing.T) {
	toks := New("test", "-- just a comment\nlocal x").Tokenize()
	got := tokenTypes(toks)
	want := []token.Type{token.LOCAL, token.IDENT, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("expected a plain comment to be skipped entirely, got %v", got)
	}
}

func TestTokenizeAnnotationPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantTy token.Type
		wantLx string
	}{
		{"type annotation", "--: integer", token.ANNOT_TYPE, "integer"},
		{"return annotation", "--> integer", token.ANNOT_RETURN, "integer"},
		{"func annotation", "--v [assert] function()", token.ANNOT_FUNC, "[assert] function()"},
		{"directive", "--# open lua51", token.ANNOT_DIRECTIVE, "open lua51"},
		{"module marker", "--& foo", token.ANNOT_MODULE, "foo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := New("test", tt.input).Tokenize()
			if toks[0].Type != tt.wantTy {
				t.Fatalf("expected %s, got %s", tt.wantTy, toks[0].Type)
			}
			if toks[0].Lexeme != tt.wantLx {
				t.Errorf("expected lexeme %q, got %q", tt.wantLx, toks[0].Lexeme)
			}
		})
	}
}

func TestTokenizeIdentKeywordsAreCaseSensitive(t *testing.T) {
	toks := New("test", "Local local").Tokenize()
	if toks[0].Type != token.IDENT {
		t.Errorf("expected 'Local' to lex as IDENT, got %s", toks[0].Type)
	}
	if toks[1].Type != token.LOCAL {
		t.Errorf("expected 'local' to lex as the LOCAL keyword, got %s", toks[1].Type)
	}
}
