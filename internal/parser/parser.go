// Package parser implements a hand-written recursive-descent/Pratt
// parser producing an internal/ast.Program, grounded on the teacher's
// internal/parser (prefix/infix function-table Pratt core in
// expressions_core.go, MaxRecursionDepth guard, ctx.Errors accumulation
// pattern), generalized from funxy's C-family grammar to Lua 5.1's
// statement/expression grammar plus the annotation-comment sub-language
// (spec.md §6).
package parser

import (
	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/token"
)

// MaxRecursionDepth bounds expression-nesting depth, grounded on the
// teacher's identical guard in expressions_core.go — a hostile or
// generated file with deeply nested parens must not blow the Go stack.
const MaxRecursionDepth = 200

type prefixParseFn func() ast.Expression
type infixParseFn func(ast.Expression) ast.Expression

// Parser walks a flat token slice (internal/lexer.Tokenize output) and
// builds an ast.Program, collecting diagnostics instead of stopping at
// the first syntax error (spec.md §7: "a malformed file still produces
// whatever diagnostics can be attributed around the damage").
type Parser struct {
	unit   string
	tokens []token.Token
	pos    int

	curToken  token.Token
	peekToken token.Token

	depth                int
	inRecursionRecovery  bool

	Errors []*diagnostics.DiagnosticError

	prefixParseFns map[token.Type]prefixParseFn
	infixParseFns  map[token.Type]infixParseFn
}

func New(unit string, tokens []token.Token) *Parser {
	p := &Parser{unit: unit, tokens: tokens}
	p.prefixParseFns = map[token.Type]prefixParseFn{}
	p.infixParseFns = map[token.Type]infixParseFn{}
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.NIL, p.parseNilLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolLiteral)
	p.registerPrefix(token.FALSE, p.parseBoolLiteral)
	p.registerPrefix(token.ELLIPSIS, p.parseVararg)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.LPAREN, p.parseParenExpr)
	p.registerPrefix(token.LBRACE, p.parseTableConstructor)
	p.registerPrefix(token.NOT, p.parseUnaryExpr)
	p.registerPrefix(token.MINUS, p.parseUnaryExpr)
	p.registerPrefix(token.HASH, p.parseUnaryExpr)

	for _, t := range []token.Type{
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT, token.CARET,
		token.CONCAT, token.EQ, token.NEQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND, token.OR,
	} {
		p.registerInfix(t, p.parseBinaryExpr)
	}
	p.registerInfix(token.LPAREN, p.parseCallExpr)
	p.registerInfix(token.LBRACE, p.parseCallWithTableArg)
	p.registerInfix(token.STRING, p.parseCallWithStringArg)
	p.registerInfix(token.LBRACKET, p.parseIndexExpr)
	p.registerInfix(token.DOT, p.parseFieldExpr)
	p.registerInfix(token.COLON, p.parseMethodCallExpr)

	// Prime curToken/peekToken.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.Type, fn prefixParseFn) { p.prefixParseFns[t] = fn }
func (p *Parser) registerInfix(t token.Type, fn infixParseFn)   { p.infixParseFns[t] = fn }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else {
		p.peekToken = token.Token{Type: token.EOF, Unit: p.unit}
	}
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.Type) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.Type) {
	p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
		p.peekToken.Span(), p.peekToken.Lexeme, "expected "+string(t)))
}

func (p *Parser) noPrefixParseFnError(t token.Type) {
	p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
		p.curToken.Span(), p.curToken.Lexeme, "no expression can start with "+string(t)))
}

// skipToStatementBoundary recovers from a parse error by advancing past
// tokens until something that plausibly starts a new statement, grounded
// on the teacher's identical recovery strategy.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.EOF) {
		switch p.curToken.Type {
		case token.NEWLINE, token.SEMI, token.END, token.ELSE, token.ELSEIF, token.UNTIL:
			return
		}
		p.nextToken()
	}
}

// Precedence levels, lowest to highest.
const (
	_ int = iota
	PREC_OR
	PREC_AND
	PREC_COMPARE
	PREC_CONCAT
	PREC_ADD
	PREC_MUL
	PREC_UNARY
	PREC_POW
	PREC_CALL
)

var precedences = map[token.Type]int{
	token.OR:      PREC_OR,
	token.AND:     PREC_AND,
	token.LT:      PREC_COMPARE,
	token.GT:      PREC_COMPARE,
	token.LTE:     PREC_COMPARE,
	token.GTE:     PREC_COMPARE,
	token.EQ:      PREC_COMPARE,
	token.NEQ:     PREC_COMPARE,
	token.CONCAT:  PREC_CONCAT,
	token.PLUS:    PREC_ADD,
	token.MINUS:   PREC_ADD,
	token.STAR:    PREC_MUL,
	token.SLASH:   PREC_MUL,
	token.PERCENT: PREC_MUL,
	token.CARET:   PREC_POW,
	token.LPAREN:  PREC_CALL,
	token.LBRACE:  PREC_CALL,
	token.STRING:  PREC_CALL,
	token.LBRACKET: PREC_CALL,
	token.DOT:     PREC_CALL,
	token.COLON:   PREC_CALL,
}

func (p *Parser) peekPrecedence() int {
	if pr, ok := precedences[p.peekToken.Type]; ok {
		return pr
	}
	return 0
}

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return 0
}

// ParseProgram is the entry point: parse every top-level statement until
// EOF.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{Unit: p.unit}
	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMI) {
			p.nextToken()
			continue
		}
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.nextToken()
	}
	return prog
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		if !p.inRecursionRecovery {
			p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
				p.curToken.Span(), p.curToken.Lexeme, "expression too complex: recursion depth limit exceeded"))
			p.inRecursionRecovery = true
		}
		p.skipToStatementBoundary()
		p.inRecursionRecovery = false
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	left := prefix()

	for !p.peekTokenIs(token.NEWLINE) && !p.peekTokenIs(token.EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
		if left == nil {
			return nil
		}
	}
	return left
}

func (p *Parser) parseExpressionList() []ast.Expression {
	var list []ast.Expression
	e := p.parseExpression(0)
	if e != nil {
		list = append(list, e)
	}
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		e := p.parseExpression(0)
		if e != nil {
			list = append(list, e)
		}
	}
	return list
}
