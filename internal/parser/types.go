package parser

import (
	"strconv"

	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/lexer"
	"github.com/evolbug/kailua/internal/token"
)

// parseAnnotationType re-lexes and parses the text carried by one
// --: / --> / --v annotation token. Annotations are scanned as whole-line
// comments by internal/lexer (spec.md §6: the annotation language is a
// side channel, not interleaved with the main token stream), so the type
// grammar inside them gets its own small lexer/parser pass here rather
// than being threaded through the main statement grammar. Spans on the
// resulting nodes are approximate: they point at the whole annotation
// token, not sub-ranges within it, since a one-line annotation is small
// enough that pinpointing a sub-span inside it buys little for the
// diagnostics this checker reports.
func (p *Parser) parseAnnotationType(annotTok token.Token) ast.Type {
	sub := New(annotTok.Unit, lexer.New(annotTok.Unit, annotTok.Lexeme).Tokenize())
	t := sub.parseType()
	for _, e := range sub.Errors {
		e.Span = annotTok.Span()
		p.Errors = append(p.Errors, e)
	}
	return t
}

// parseAnnotationReturns re-lexes a --> annotation, which may list
// several comma-separated return types.
func (p *Parser) parseAnnotationReturns(annotTok token.Token) []ast.Type {
	sub := New(annotTok.Unit, lexer.New(annotTok.Unit, annotTok.Lexeme).Tokenize())
	var types []ast.Type
	for {
		if sub.curTokenIs(token.EOF) {
			break
		}
		types = append(types, sub.parseType())
		if !sub.peekTokenIs(token.COMMA) {
			break
		}
		sub.nextToken()
		sub.nextToken()
	}
	for _, e := range sub.Errors {
		e.Span = annotTok.Span()
		p.Errors = append(p.Errors, e)
	}
	return types
}

// parseType is the entry point of the type grammar: a union of attributed
// primary types, with an optional trailing ?/! nil-acceptance flag
// attaching to the whole union (spec.md §3).
func (p *Parser) parseType() ast.Type {
	tok := p.curToken
	first := p.parseAttrType()
	if !p.peekTokenIs(token.PIPE) {
		return p.applyTrailingFlag(first)
	}
	types := []ast.Type{first}
	for p.peekTokenIs(token.PIPE) {
		p.nextToken()
		p.nextToken()
		types = append(types, p.parseAttrType())
	}
	u := &ast.UnionTypeNode{Tok: tok, Types: types}
	return p.applyTrailingFlag(u)
}

// applyTrailingFlag consumes a peeked '?' or '!' and writes it onto n's
// Flag field via a small per-kind setter, since ast.Type doesn't expose a
// single mutable Flag setter (each node's Flag field has its own type).
func (p *Parser) applyTrailingFlag(n ast.Type) ast.Type {
	if p.peekTokenIs(token.QUESTION) {
		p.nextToken()
		setFlag(n, ast.FlagAccepts)
	} else if p.peekTokenIs(token.BANG) {
		p.nextToken()
		setFlag(n, ast.FlagRejects)
	}
	return n
}

func setFlag(n ast.Type, flag ast.NilFlag) {
	switch v := n.(type) {
	case *ast.NamedType:
		v.Flag = flag
	case *ast.LiteralType:
		v.Flag = flag
	case *ast.UnionTypeNode:
		v.Flag = flag
	case *ast.VectorTypeNode:
		v.Flag = flag
	case *ast.MapTypeNode:
		v.Flag = flag
	case *ast.RecordTypeNode:
		v.Flag = flag
	case *ast.TupleTypeNode:
		v.Flag = flag
	case *ast.FunctionTypeNode:
		v.Flag = flag
	}
}

// parseAttrType: `[attr] T` or a bare primary type.
func (p *Parser) parseAttrType() ast.Type {
	if p.curTokenIs(token.LBRACKET) {
		tok := p.curToken
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		attr := p.curToken.Lexeme
		for p.peekTokenIs(token.IDENT) {
			p.nextToken()
			attr += " " + p.curToken.Lexeme
		}
		if !p.expectPeek(token.RBRACKET) {
			return nil
		}
		p.nextToken()
		inner := p.parseAttrType()
		return &ast.AttrTypeNode{Tok: tok, Attr: attr, Inner: inner}
	}
	return p.parsePrimaryType()
}

func (p *Parser) parsePrimaryType() ast.Type {
	tok := p.curToken
	switch {
	case p.curTokenIs(token.IDENT) && p.curToken.Lexeme == "const":
		p.nextToken()
		return &ast.ConstTypeNode{Tok: tok, Inner: p.parseAttrType()}

	case p.curTokenIs(token.IDENT) && p.curToken.Lexeme == "vector":
		if !p.expectPeek(token.LT) {
			return nil
		}
		p.nextToken()
		elem := p.parseType()
		if !p.expectPeek(token.GT) {
			return nil
		}
		return &ast.VectorTypeNode{Tok: tok, Elem: elem}

	case p.curTokenIs(token.IDENT) && p.curToken.Lexeme == "map":
		if !p.expectPeek(token.LT) {
			return nil
		}
		p.nextToken()
		key := p.parseType()
		if !p.expectPeek(token.COMMA) {
			return nil
		}
		p.nextToken()
		val := p.parseType()
		if !p.expectPeek(token.GT) {
			return nil
		}
		return &ast.MapTypeNode{Tok: tok, Key: key, Val: val}

	case p.curTokenIs(token.FUNCTION):
		return p.parseFunctionType()

	case p.curTokenIs(token.LBRACE):
		return p.parseRecordOrTupleType()

	case p.curTokenIs(token.LPAREN):
		p.nextToken()
		inner := p.parseType()
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
		return inner

	case p.curTokenIs(token.NUMBER):
		return p.parseNumberLiteralType()

	case p.curTokenIs(token.STRING):
		return &ast.LiteralType{Tok: tok, Kind: ast.LitStr, StrVal: tok.Lexeme}

	case p.curTokenIs(token.TRUE):
		return &ast.LiteralType{Tok: tok, Kind: ast.LitBool, BoolVal: true}

	case p.curTokenIs(token.FALSE):
		return &ast.LiteralType{Tok: tok, Kind: ast.LitBool, BoolVal: false}

	case p.curTokenIs(token.NIL):
		return &ast.NamedType{Tok: tok, Name: "nil"}

	case p.curTokenIs(token.IDENT):
		return &ast.NamedType{Tok: tok, Name: tok.Lexeme}

	default:
		p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
			tok.Span(), tok.Lexeme, "expected a type"))
		return nil
	}
}

func (p *Parser) parseNumberLiteralType() ast.Type {
	tok := p.curToken
	i, err := strconv.ParseInt(tok.Lexeme, 0, 64)
	if err != nil {
		p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
			tok.Span(), tok.Lexeme, "expected an integer literal type"))
		return nil
	}
	return &ast.LiteralType{Tok: tok, Kind: ast.LitInt, IntVal: i}
}

// parseFunctionType: function(p1: T1, ..., ...: Tv) --> (R1, ...)
func (p *Parser) parseFunctionType() ast.Type {
	tok := p.curToken
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	ft := &ast.FunctionTypeNode{Tok: tok}
	if !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		for {
			if p.curTokenIs(token.ELLIPSIS) {
				ft.IsVariadic = true
				if p.peekTokenIs(token.COLON) {
					p.nextToken()
					p.nextToken()
					ft.VarargType = p.parseType()
				}
				break
			}
			name := ""
			if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
				name = p.curToken.Lexeme
				p.nextToken()
				p.nextToken()
			}
			paramType := p.parseType()
			ft.Params = append(ft.Params, ast.FunctionParamNode{Name: name, Type: paramType})
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	if p.peekTokenIs(token.ANNOT_RETURN) {
		p.nextToken()
		ft.Returns = p.parseAnnotationReturns(p.curToken)
	} else if p.peekTokenIs(token.ARROW) {
		p.nextToken()
		if p.peekTokenIs(token.LPAREN) {
			p.nextToken()
			if !p.peekTokenIs(token.RPAREN) {
				p.nextToken()
				for {
					ft.Returns = append(ft.Returns, p.parseType())
					if !p.peekTokenIs(token.COMMA) {
						break
					}
					p.nextToken()
					p.nextToken()
				}
			}
			p.expectPeek(token.RPAREN)
		} else {
			p.nextToken()
			ft.Returns = append(ft.Returns, p.parseType())
		}
	}
	return ft
}

// parseRecordOrTupleType disambiguates `{ k = T, ... }` (record) from
// `{ T1, T2, ... }` (tuple) by checking whether the first entry is
// name-equals-type (spec.md §3's record/tuple surface syntax share the
// same brace delimiters).
func (p *Parser) parseRecordOrTupleType() ast.Type {
	tok := p.curToken
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.RecordTypeNode{Tok: tok}
	}
	p.nextToken()

	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
		rt := &ast.RecordTypeNode{Tok: tok}
		for {
			if p.curTokenIs(token.ELLIPSIS) {
				rt.Open = true
				p.nextToken()
				break
			}
			fieldName := p.curToken.Lexeme
			if !p.expectPeek(token.ASSIGN) {
				break
			}
			p.nextToken()
			fieldType := p.parseType()
			rt.Fields = append(rt.Fields, ast.RecordFieldNode{Name: fieldName, Type: fieldType})
			if !p.peekTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
			p.nextToken()
		}
		if !p.expectPeek(token.RBRACE) {
			return nil
		}
		return rt
	}

	tt := &ast.TupleTypeNode{Tok: tok}
	tt.Elems = append(tt.Elems, p.parseType())
	for p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		tt.Elems = append(tt.Elems, p.parseType())
	}
	if !p.expectPeek(token.RBRACE) {
		return nil
	}
	return tt
}
