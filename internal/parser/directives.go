package parser

import (
	"strings"

	"github.com/evolbug/kailua/internal/ast"
	"github.com/evolbug/kailua/internal/diagnostics"
	"github.com/evolbug/kailua/internal/lexer"
	"github.com/evolbug/kailua/internal/token"
)

// parseDirective handles one `--#` annotation comment: `assume`, `type`,
// or `open` (spec.md §6). The whole directive body was captured by the
// lexer as the token's Lexeme, so it's re-lexed/parsed here the same way
// parseAnnotationType handles `--:`/`-->` bodies.
func (p *Parser) parseDirective() ast.Statement {
	tok := p.curToken
	fields := strings.Fields(tok.Lexeme)
	if len(fields) == 0 {
		p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
			tok.Span(), "", "empty --# directive"))
		return nil
	}

	switch fields[0] {
	case "assume":
		return p.parseAssumeDirective(tok, fields)
	case "type":
		return p.parseTypeDirective(tok, fields)
	case "open":
		if len(fields) < 2 {
			p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
				tok.Span(), tok.Lexeme, "--# open requires a library name"))
			return nil
		}
		// A library name may be a single bare word (lua51) or a
		// backtick-quoted run of words (`internal kailua_test`); rejoin
		// and strip the backticks in the latter case rather than only
		// taking fields[1], which would silently truncate at the first
		// space.
		name := strings.TrimSpace(strings.TrimPrefix(tok.Lexeme, "open"))
		name = strings.Trim(name, "`")
		return &ast.OpenStatement{Tok: tok, Name: name}
	default:
		p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
			tok.Span(), fields[0], "unknown --# directive"))
		return nil
	}
}

// parseAssumeDirective handles `--# assume [global] name[.path...]: T`.
func (p *Parser) parseAssumeDirective(tok token.Token, fields []string) ast.Statement {
	rest := strings.TrimPrefix(tok.Lexeme, "assume")
	rest = strings.TrimSpace(rest)
	global := false
	if strings.HasPrefix(rest, "global ") || rest == "global" {
		global = true
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "global"))
	}

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
			tok.Span(), tok.Lexeme, "--# assume requires ': type'"))
		return nil
	}
	nameExpr := strings.TrimSpace(rest[:colon])
	typeExpr := strings.TrimSpace(rest[colon+1:])

	segments := strings.Split(nameExpr, ".")
	if len(segments) == 0 || segments[0] == "" {
		p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
			tok.Span(), nameExpr, "--# assume requires a name"))
		return nil
	}
	name := &ast.Identifier{Tok: tok, Value: segments[0]}

	typeNode := p.parseTypeExprString(tok, typeExpr)
	return &ast.AssumeStatement{Tok: tok, Global: global, Name: name, Path: segments[1:], Type: typeNode}
}

// parseTypeDirective handles `--# type [local|global] NAME = T`.
func (p *Parser) parseTypeDirective(tok token.Token, fields []string) ast.Statement {
	rest := strings.TrimSpace(strings.TrimPrefix(tok.Lexeme, "type"))
	vis := ast.VisScoped
	if strings.HasPrefix(rest, "local ") {
		vis = ast.VisLocal
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "local"))
	} else if strings.HasPrefix(rest, "global ") {
		vis = ast.VisGlobal
		rest = strings.TrimSpace(strings.TrimPrefix(rest, "global"))
	}

	eq := strings.IndexByte(rest, '=')
	if eq < 0 {
		p.Errors = append(p.Errors, diagnostics.New(diagnostics.PhaseParser, diagnostics.ErrSyntaxRecovery,
			tok.Span(), tok.Lexeme, "--# type requires '= type'"))
		return nil
	}
	name := strings.TrimSpace(rest[:eq])
	typeExpr := strings.TrimSpace(rest[eq+1:])

	typeNode := p.parseTypeExprString(tok, typeExpr)
	return &ast.TypeAliasStatement{Tok: tok, Visibility: vis, Name: &ast.Identifier{Tok: tok, Value: name}, Body: typeNode}
}

// parseTypeExprString parses a type-syntax substring extracted from a
// directive body (as opposed to parseAnnotationType, which works from a
// whole annotation token's Lexeme directly).
func (p *Parser) parseTypeExprString(origin token.Token, src string) ast.Type {
	sub := New(origin.Unit, lexer.New(origin.Unit, src).Tokenize())
	t := sub.parseType()
	for _, e := range sub.Errors {
		e.Span = origin.Span()
		p.Errors = append(p.Errors, e)
	}
	return t
}
