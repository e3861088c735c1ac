// Package lexer tokenizes Lua 5.1 source together with the annotation
// comment sub-language of spec.md §6. It is deliberately simple: the hard
// engineering of this repository is the type checker, not lexical analysis.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/evolbug/kailua/internal/token"
)

// Lexer scans a single source unit into a token stream.
type Lexer struct {
	unit   string
	input  string
	pos    int // current byte offset
	readPos int
	ch     rune
	line   int
	col    int
}

// New creates a Lexer over src, tagging every token with unit as its
// source-unit name for span reporting.
func New(unit, src string) *Lexer {
	l := &Lexer{unit: unit, input: src, line: 1, col: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = l.readPos
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.pos = l.readPos
	l.readPos += w
	l.ch = r
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

func (l *Lexer) makeTok(t token.Type, lexeme string, begin int) token.Token {
	return token.Token{
		Type: t, Lexeme: lexeme, Line: l.line, Column: l.col,
		Begin: begin, End: l.pos, Unit: l.unit,
	}
}

// Tokenize scans the entire input and returns its token stream, terminated
// by an EOF token. Illegal characters produce ILLEGAL tokens rather than
// aborting — the parser recovers from those (spec.md §7, SyntaxRecovery).
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

// Next scans and returns the next token.
func (l *Lexer) Next() token.Token {
	l.skipWhitespaceExceptAnnotations()

	begin := l.pos
	switch {
	case l.ch == 0:
		return l.makeTok(token.EOF, "", begin)
	case l.ch == '-' && l.peekChar() == '-':
		return l.lexComment()
	case isLetter(l.ch):
		return l.lexIdent()
	case isDigit(l.ch):
		return l.lexNumber()
	case l.ch == '"' || l.ch == '\'':
		return l.lexString(l.ch)
	case l.ch == '[' && (l.peekChar() == '[' || l.peekChar() == '='):
		if tok, ok := l.tryLongString(); ok {
			return tok
		}
		fallthrough
	default:
		return l.lexSymbol()
	}
}

func (l *Lexer) skipWhitespaceExceptAnnotations() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
		l.readChar()
	}
}

func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlnum(r rune) bool {
	return isLetter(r) || isDigit(r)
}

func (l *Lexer) lexIdent() token.Token {
	begin := l.pos
	var sb strings.Builder
	for isAlnum(l.ch) {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	lexeme := sb.String()
	return l.makeTok(token.LookupIdent(lexeme), lexeme, begin)
}

func (l *Lexer) lexNumber() token.Token {
	begin := l.pos
	var sb strings.Builder
	isHex := false
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		isHex = true
		sb.WriteRune(l.ch)
		l.readChar()
		sb.WriteRune(l.ch)
		l.readChar()
	}
	for isDigit(l.ch) || l.ch == '.' || (isHex && isHexDigit(l.ch)) ||
		l.ch == 'e' || l.ch == 'E' {
		sb.WriteRune(l.ch)
		l.readChar()
	}
	return l.makeTok(token.NUMBER, sb.String(), begin)
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func (l *Lexer) lexString(quote rune) token.Token {
	begin := l.pos
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != quote && l.ch != 0 {
		if l.ch == '\\' {
			sb.WriteRune(l.ch)
			l.readChar()
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote
	tok := l.makeTok(token.STRING, sb.String(), begin)
	tok.Literal = sb.String()
	return tok
}

// tryLongString attempts to lex a Lua long-bracket string [[...]] or
// [=[...]=]. Returns ok=false if the lookahead isn't actually a long
// bracket (e.g. a plain '[' index token).
func (l *Lexer) tryLongString() (token.Token, bool) {
	save := *l
	begin := l.pos
	l.readChar() // consume '['
	level := 0
	for l.ch == '=' {
		level++
		l.readChar()
	}
	if l.ch != '[' {
		*l = save
		return token.Token{}, false
	}
	l.readChar() // consume second '['
	closer := "]" + strings.Repeat("=", level) + "]"
	var sb strings.Builder
	for {
		if l.ch == 0 {
			break
		}
		if l.ch == ']' && strings.HasPrefix(l.input[l.pos:], closer) {
			for i := 0; i < len(closer); i++ {
				l.readChar()
			}
			break
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	tok := l.makeTok(token.STRING, sb.String(), begin)
	tok.Literal = sb.String()
	return tok, true
}

// lexComment scans a '--' comment, recognizing the annotation sub-language
// prefixes (--:, -->, --v, --#, --&) and returning a dedicated token for
// them; plain comments are skipped and the scanner recurses to the next
// real token.
func (l *Lexer) lexComment() token.Token {
	begin := l.pos
	l.readChar() // first '-'
	l.readChar() // second '-'

	annotType := token.Type("")
	switch {
	case l.ch == ':':
		annotType = token.ANNOT_TYPE
		l.readChar()
	case l.ch == '>':
		annotType = token.ANNOT_RETURN
		l.readChar()
	case l.ch == 'v':
		annotType = token.ANNOT_FUNC
		l.readChar()
	case l.ch == '#':
		annotType = token.ANNOT_DIRECTIVE
		l.readChar()
	case l.ch == '&':
		annotType = token.ANNOT_MODULE
		l.readChar()
	}

	// Long-bracket comment --[[ ... ]]
	if annotType == "" && l.ch == '[' {
		if _, ok := l.tryLongString(); ok {
			return l.Next() // discard, continue scanning
		}
	}

	var sb strings.Builder
	for l.ch != '\n' && l.ch != 0 {
		sb.WriteRune(l.ch)
		l.readChar()
	}

	if annotType == "" {
		return l.Next() // plain comment: skip entirely
	}
	tok := l.makeTok(annotType, strings.TrimSpace(sb.String()), begin)
	return tok
}

func (l *Lexer) lexSymbol() token.Token {
	begin := l.pos
	ch := l.ch
	two := string(ch) + string(l.peekChar())

	switch two {
	case "==":
		l.readChar()
		l.readChar()
		return l.makeTok(token.EQ, "==", begin)
	case "~=":
		l.readChar()
		l.readChar()
		return l.makeTok(token.NEQ, "~=", begin)
	case "<=":
		l.readChar()
		l.readChar()
		return l.makeTok(token.LTE, "<=", begin)
	case ">=":
		l.readChar()
		l.readChar()
		return l.makeTok(token.GTE, ">=", begin)
	case "..":
		l.readChar()
		l.readChar()
		if l.ch == '.' {
			l.readChar()
			return l.makeTok(token.ELLIPSIS, "...", begin)
		}
		return l.makeTok(token.CONCAT, "..", begin)
	case "->":
		l.readChar()
		l.readChar()
		return l.makeTok(token.ARROW, "->", begin)
	}

	single := map[rune]token.Type{
		'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH,
		'%': token.PERCENT, '^': token.CARET, '#': token.HASH, '<': token.LT,
		'>': token.GT, '=': token.ASSIGN, '(': token.LPAREN, ')': token.RPAREN,
		'{': token.LBRACE, '}': token.RBRACE, '[': token.LBRACKET, ']': token.RBRACKET,
		';': token.SEMI, ':': token.COLON, ',': token.COMMA, '.': token.DOT,
		'|': token.PIPE, '?': token.QUESTION, '!': token.BANG,
	}
	if t, ok := single[ch]; ok {
		l.readChar()
		return l.makeTok(t, string(ch), begin)
	}

	l.readChar()
	return l.makeTok(token.ILLEGAL, string(ch), begin)
}
