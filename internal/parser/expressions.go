package parser

import (
	"strconv"
	"strings"

	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/token"
)

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Tok: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	tok := p.curToken
	lex := tok.Lexeme
	if strings.Contains(lex, ".") || strings.ContainsAny(lex, "eE") && !strings.HasPrefix(lex, "0x") {
		f, err := strconv.ParseFloat(lex, 64)
		if err != nil {
			p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
				tok.Span(), lex, "malformed number literal"))
			return nil
		}
		return &ast.NumberLiteral{Tok: tok, IsInt: false, FloatVal: f}
	}
	base := 10
	clean := lex
	if strings.HasPrefix(lex, "0x") || strings.HasPrefix(lex, "0X") {
		base = 16
		clean = lex[2:]
	}
	i, err := strconv.ParseInt(clean, base, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(lex, 64)
		if ferr != nil {
			p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
				tok.Span(), lex, "malformed number literal"))
			return nil
		}
		return &ast.NumberLiteral{Tok: tok, IsInt: false, FloatVal: f}
	}
	return &ast.NumberLiteral{Tok: tok, IsInt: true, IntVal: i}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Tok: p.curToken, Value: p.curToken.Lexeme}
}

func (p *Parser) parseNilLiteral() ast.Expression { return &ast.NilLiteral{Tok: p.curToken} }

func (p *Parser) parseBoolLiteral() ast.Expression {
	return &ast.BoolLiteral{Tok: p.curToken, Value: p.curToken.Type == token.TRUE}
}

func (p *Parser) parseVararg() ast.Expression { return &ast.VarargExpr{Tok: p.curToken} }

func (p *Parser) parseParenExpr() ast.Expression {
	tok := p.curToken
	p.nextToken()
	inner := p.parseExpression(0)
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return &ast.ParenExpr{Tok: tok, Inner: inner}
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	tok := p.curToken
	op := tok.Type
	p.nextToken()
	operand := p.parseExpression(PREC_UNARY)
	return &ast.UnaryExpr{Tok: tok, Op: op, Operand: operand}
}

func (p *Parser) parseBinaryExpr(left ast.Expression) ast.Expression {
	tok := p.curToken
	op := tok.Type
	prec := p.curPrecedence()
	p.nextToken()
	// `..` and `^` are right-associative: parse the RHS at one precedence
	// lower than usual so a chain like a^b^c nests as a^(b^c).
	rhsPrec := prec
	if op == token.CONCAT || op == token.CARET {
		rhsPrec = prec - 1
	}
	right := p.parseExpression(rhsPrec)
	return &ast.BinaryExpr{Tok: tok, Op: op, Left: left, Right: right}
}

func (p *Parser) parseCallExpr(fn ast.Expression) ast.Expression {
	tok := p.curToken
	args := p.parseCallArgs()
	return &ast.CallExpr{Tok: tok, Fn: fn, Args: args}
}

func (p *Parser) parseCallArgs() []ast.Expression {
	var args []ast.Expression
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseExpression(0))
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpression(0))
	}
	if !p.expectPeek(token.RPAREN) {
		return args
	}
	return args
}

// parseCallWithTableArg handles Lua's `f{...}` sugar: a table constructor
// used directly as a single-argument call.
func (p *Parser) parseCallWithTableArg(fn ast.Expression) ast.Expression {
	tok := p.curToken
	arg := p.parseTableConstructor()
	return &ast.CallExpr{Tok: tok, Fn: fn, Args: []ast.Expression{arg}}
}

// parseCallWithStringArg handles Lua's `f "str"` sugar.
func (p *Parser) parseCallWithStringArg(fn ast.Expression) ast.Expression {
	tok := p.curToken
	arg := p.parseStringLiteral()
	return &ast.CallExpr{Tok: tok, Fn: fn, Args: []ast.Expression{arg}}
}

func (p *Parser) parseIndexExpr(obj ast.Expression) ast.Expression {
	tok := p.curToken
	p.nextToken()
	idx := p.parseExpression(0)
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return &ast.IndexExpr{Tok: tok, Obj: obj, Index: idx}
}

func (p *Parser) parseFieldExpr(obj ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	return &ast.FieldExpr{Tok: tok, Obj: obj, Field: p.curToken.Lexeme}
}

func (p *Parser) parseMethodCallExpr(obj ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	method := p.curToken.Lexeme
	if !p.peekTokenIs(token.LPAREN) && !p.peekTokenIs(token.LBRACE) && !p.peekTokenIs(token.STRING) {
		p.peekError(token.LPAREN)
		return nil
	}
	p.nextToken()
	var args []ast.Expression
	switch p.curToken.Type {
	case token.LPAREN:
		args = p.parseCallArgs()
	case token.LBRACE:
		args = []ast.Expression{p.parseTableConstructor()}
	case token.STRING:
		args = []ast.Expression{p.parseStringLiteral()}
	}
	return &ast.MethodCallExpr{Tok: tok, Obj: obj, Method: method, Args: args}
}

func (p *Parser) parseTableConstructor() ast.Expression {
	tok := p.curToken
	tc := &ast.TableConstructor{Tok: tok}
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return tc
	}
	for {
		p.nextToken()
		field := p.parseTableField()
		tc.Fields = append(tc.Fields, field)
		if p.peekTokenIs(token.COMMA) || p.peekTokenIs(token.SEMI) {
			p.nextToken()
			if p.peekTokenIs(token.RBRACE) {
				break
			}
			continue
		}
		break
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return tc
}

func (p *Parser) parseTableField() ast.TableField {
	if p.curTokenIs(token.LBRACKET) {
		p.nextToken()
		key := p.parseExpression(0)
		if !p.expectPeek(token.RBRACKET) {
			return ast.TableField{}
		}
		if !p.expectPeek(token.ASSIGN) {
			return ast.TableField{}
		}
		p.nextToken()
		val := p.parseExpression(0)
		return ast.TableField{Key: key, Value: val}
	}
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
		nameTok := p.curToken
		p.nextToken()
		p.nextToken()
		val := p.parseExpression(0)
		return ast.TableField{Key: &ast.StringLiteral{Tok: nameTok, Value: nameTok.Lexeme}, Value: val}
	}
	val := p.parseExpression(0)
	return ast.TableField{Value: val}
}

// parseFunctionLiteral parses `function(params) ... end`, including a
// possible explicit annotation attached to a preceding --v comment (Attr
// is filled in separately by parseFuncAnnotationStatement when a --v line
// precedes a function declaration; this only parses the grammar shape).
func (p *Parser) parseFunctionLiteral() ast.Expression {
	tok := p.curToken
	fn := &ast.FunctionLiteral{Tok: tok}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	fn.Params, fn.IsVararg, fn.VarargType = p.parseParamList()
	p.attachReturnAnnotation(fn)
	fn.Body = p.parseBlock()
	if !p.curTokenIs(token.END) {
		p.peekError(token.END)
	}
	return fn
}

func (p *Parser) parseParamList() (params []*ast.Param, isVararg bool, varargType ast.Type) {
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return
	}
	p.nextToken()
	for {
		if p.curTokenIs(token.ELLIPSIS) {
			isVararg = true
			if p.peekTokenIs(token.ANNOT_TYPE) {
				p.nextToken()
				varargType = p.parseAnnotationType(p.curToken)
			}
			break
		}
		if !p.curTokenIs(token.IDENT) {
			p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
				p.curToken.Span(), p.curToken.Lexeme, "expected a parameter name"))
			break
		}
		name := &ast.Identifier{Tok: p.curToken, Value: p.curToken.Lexeme}
		param := &ast.Param{Name: name}
		if p.peekTokenIs(token.ANNOT_TYPE) {
			p.nextToken()
			param.Type = p.parseAnnotationType(p.curToken)
		}
		params = append(params, param)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return
	}
	return
}
